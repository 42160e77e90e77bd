package poller

import (
	"context"
	"time"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/radar-server/internal/config"
	"github.com/taoyao-code/radar-server/internal/metrics"
	"github.com/taoyao-code/radar-server/internal/protocol/isys"
)

// TargetSource 轮询器需要的驱动能力子集
type TargetSource interface {
	Address() byte
	StartAcquisition(timeout time.Duration) error
	StopAcquisition(timeout time.Duration) error
	GetTargetList(output isys.OutputChannel, res isys.Resolution, timeout time.Duration) (*isys.TargetList, error)
}

// Sink 观测数据的下游消费方（数据库、缓存、MQTT等）
type Sink interface {
	Consume(ctx context.Context, address uint8, res isys.Resolution, list *isys.TargetList, at time.Time) error
	Name() string
}

// SinkFunc 函数式 Sink 适配器
type SinkFunc struct {
	SinkName string
	Fn       func(ctx context.Context, address uint8, res isys.Resolution, list *isys.TargetList, at time.Time) error
}

func (s SinkFunc) Name() string { return s.SinkName }

func (s SinkFunc) Consume(ctx context.Context, address uint8, res isys.Resolution, list *isys.TargetList, at time.Time) error {
	return s.Fn(ctx, address, res, list, at)
}

// Poller 后台目标列表轮询器。启动采集后按限定速率拉取目标列表，
// 把每帧数据分发给全部 Sink；ctx 取消时停止采集并退出。
type Poller struct {
	src     TargetSource
	sinks   []Sink
	limiter *RateLimiter
	log     *zap.Logger
	m       *metrics.AppMetrics

	output  isys.OutputChannel
	res     isys.Resolution
	timeout time.Duration
}

// New 创建轮询器
func New(src TargetSource, cfg cfgpkg.PollingConfig, sinks []Sink, logger *zap.Logger, m *metrics.AppMetrics) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 200 * time.Millisecond
	}
	return &Poller{
		src:     src,
		sinks:   sinks,
		limiter: NewRateLimiter(cfg.RatePerSec, cfg.Burst),
		log:     logger,
		m:       m,
		output:  isys.OutputChannel(cfg.Output),
		res:     isys.Resolution(cfg.Resolution),
		timeout: timeout,
	}
}

// Limiter 暴露节流器统计（供健康/调试接口使用）
func (p *Poller) Limiter() *RateLimiter { return p.limiter }

// Run 阻塞运行轮询循环，直到 ctx 取消。
// 进入时启动采集，退出前尽力停止采集。
func (p *Poller) Run(ctx context.Context) error {
	if err := p.src.StartAcquisition(p.timeout); err != nil {
		return err
	}
	p.log.Info("acquisition started",
		zap.Uint8("output", uint8(p.output)),
		zap.Uint8("resolution", uint8(p.res)))

	defer func() {
		if err := p.src.StopAcquisition(p.timeout); err != nil {
			p.log.Warn("stop acquisition failed", zap.Error(err))
		}
	}()

	for {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil // ctx 取消
		}

		list, err := p.src.GetTargetList(p.output, p.res, p.timeout)
		if err != nil {
			p.observeCycle("error")
			p.log.Warn("poll cycle failed", zap.Error(err))
			continue
		}

		// 目标数与clipping指标由驱动在交易内计数，这里只记轮询结果
		at := time.Now()
		p.dispatch(ctx, list, at)
		p.observeCycle("ok")
	}
}

// dispatch 把一帧数据分发到全部 Sink，单个 Sink 失败不影响其他
func (p *Poller) dispatch(ctx context.Context, list *isys.TargetList, at time.Time) {
	addr := p.src.Address()
	for _, s := range p.sinks {
		if err := s.Consume(ctx, addr, p.res, list, at); err != nil {
			p.observeCycle("sink_error")
			p.log.Warn("sink consume failed",
				zap.String("sink", s.Name()),
				zap.Error(err))
		}
	}
}

func (p *Poller) observeCycle(result string) {
	if p.m != nil {
		p.m.PollCycleTotal.WithLabelValues(result).Inc()
	}
}
