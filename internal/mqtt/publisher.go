package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/radar-server/internal/config"
	"github.com/taoyao-code/radar-server/internal/protocol/isys"
)

// Publisher 把每帧目标列表发布到 MQTT 主题。
// 主题按 TopicFmt 生成，默认 radar/%02X/targets（地址十六进制）。
type Publisher struct {
	client   pahomqtt.Client
	topicFmt string
	qos      byte
	log      *zap.Logger
}

// payload MQTT 消息体
type payload struct {
	Address      uint8         `json:"address"`
	OutputNumber uint8         `json:"output_number"`
	Resolution   uint8         `json:"resolution"`
	Count        uint8         `json:"count"`
	Clipping     bool          `json:"clipping"`
	Targets      []isys.Target `json:"targets"`
	ObservedAt   time.Time     `json:"observed_at"`
}

// NewPublisher 连接 broker 并返回发布器
func NewPublisher(cfg cfgpkg.MQTTConfig, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)

	client := pahomqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout: %s", cfg.Broker)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	topicFmt := cfg.TopicFmt
	if topicFmt == "" {
		topicFmt = "radar/%02X/targets"
	}

	logger.Info("mqtt connected", zap.String("broker", cfg.Broker))
	return &Publisher{
		client:   client,
		topicFmt: topicFmt,
		qos:      cfg.QoS,
		log:      logger,
	}, nil
}

// Publish 发布一帧目标列表
func (p *Publisher) Publish(ctx context.Context, address uint8, res isys.Resolution, list *isys.TargetList, at time.Time) error {
	msg := payload{
		Address:      address,
		OutputNumber: list.OutputNumber,
		Resolution:   uint8(res),
		Count:        list.Count,
		Clipping:     list.ClippingFlag != 0,
		Targets:      list.Detected(),
		ObservedAt:   at,
	}

	data, err := json.Marshal(&msg)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	topic := fmt.Sprintf(p.topicFmt, address)
	tok := p.client.Publish(topic, p.qos, false, data)

	// 半双工轮询循环不能被 broker 卡住，等待受 ctx 约束
	done := make(chan struct{})
	go func() {
		tok.Wait()
		close(done)
	}()
	select {
	case <-done:
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 断开 broker 连接
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
