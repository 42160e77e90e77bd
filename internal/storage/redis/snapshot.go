package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taoyao-code/radar-server/internal/protocol/isys"
)

const (
	// Redis Key格式：按传感器地址+输出通道维度存最近一帧
	snapshotKeyFmt = "radar:snapshot:%02x:%d"
)

// ErrSnapshotMiss 快照不存在或已过期
var ErrSnapshotMiss = errors.New("redis: snapshot miss")

// TargetSnapshot 最近一帧目标列表的缓存载体
type TargetSnapshot struct {
	Address      uint8         `json:"address"`
	OutputNumber uint8         `json:"output_number"`
	Resolution   uint8         `json:"resolution"`
	Count        uint8         `json:"count"`
	Clipping     bool          `json:"clipping"`
	Full         bool          `json:"full"`
	Targets      []isys.Target `json:"targets"`
	ObservedAt   time.Time     `json:"observed_at"`
}

// SnapshotStore 最近观测的低延迟读取路径。
// API 查询最新目标列表时优先命中这里，避免每次请求都打串口。
type SnapshotStore struct {
	client *Client
	ttl    time.Duration
}

// NewSnapshotStore 创建快照存储，ttl 决定一帧数据的可信窗口
func NewSnapshotStore(client *Client, ttl time.Duration) *SnapshotStore {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &SnapshotStore{client: client, ttl: ttl}
}

// SetLatest 覆盖写入传感器最近一帧目标列表
func (s *SnapshotStore) SetLatest(ctx context.Context, address uint8, resolution isys.Resolution, list *isys.TargetList, at time.Time) error {
	snap := TargetSnapshot{
		Address:      address,
		OutputNumber: uint8(list.OutputNumber),
		Resolution:   uint8(resolution),
		Count:        uint8(list.Count),
		Clipping:     list.ClippingFlag != 0,
		Full:         list.Status == isys.ListFull,
		Targets:      list.Detected(),
		ObservedAt:   at,
	}

	data, err := json.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	key := fmt.Sprintf(snapshotKeyFmt, address, list.OutputNumber)
	return s.client.Set(ctx, key, data, s.ttl).Err()
}

// GetLatest 读取传感器最近一帧目标列表，过期返回 ErrSnapshotMiss
func (s *SnapshotStore) GetLatest(ctx context.Context, address uint8, output uint8) (*TargetSnapshot, error) {
	key := fmt.Sprintf(snapshotKeyFmt, address, output)
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotMiss
	}
	if err != nil {
		return nil, err
	}

	var snap TargetSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}
