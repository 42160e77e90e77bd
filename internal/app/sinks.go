package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/radar-server/internal/mqtt"
	"github.com/taoyao-code/radar-server/internal/poller"
	"github.com/taoyao-code/radar-server/internal/protocol/isys"
	"github.com/taoyao-code/radar-server/internal/storage"
	pgstorage "github.com/taoyao-code/radar-server/internal/storage/pg"
	redisstorage "github.com/taoyao-code/radar-server/internal/storage/redis"
)

// BuildSinks 按已启用的组件组装轮询数据的下游。
// repo/registry/snapshot/publisher 任意为 nil 时跳过对应下游。
func BuildSinks(
	repo *pgstorage.Repository,
	sensorID int64,
	registry storage.SensorRegistry,
	snapshot *redisstorage.SnapshotStore,
	publisher *mqtt.Publisher,
	log *zap.Logger,
) []poller.Sink {
	var sinks []poller.Sink

	if repo != nil {
		sinks = append(sinks, poller.SinkFunc{
			SinkName: "postgres",
			Fn: func(ctx context.Context, _ uint8, res isys.Resolution, list *isys.TargetList, at time.Time) error {
				_, err := repo.InsertObservation(ctx, sensorID, res, list, at)
				return err
			},
		})
	}

	if registry != nil {
		// 每帧成功采样都刷新台账的 last_seen_at
		sinks = append(sinks, poller.SinkFunc{
			SinkName: "registry",
			Fn: func(ctx context.Context, address uint8, _ isys.Resolution, _ *isys.TargetList, at time.Time) error {
				return registry.TouchSensorLastSeen(ctx, address, at)
			},
		})
	}

	if snapshot != nil {
		sinks = append(sinks, poller.SinkFunc{
			SinkName: "redis",
			Fn: func(ctx context.Context, address uint8, res isys.Resolution, list *isys.TargetList, at time.Time) error {
				return snapshot.SetLatest(ctx, address, res, list, at)
			},
		})
	}

	if publisher != nil {
		sinks = append(sinks, poller.SinkFunc{
			SinkName: "mqtt",
			Fn: func(ctx context.Context, address uint8, res isys.Resolution, list *isys.TargetList, at time.Time) error {
				return publisher.Publish(ctx, address, res, list, at)
			},
		})
	}

	if len(sinks) == 0 {
		// 没有任何下游时仍打一条调试日志，方便现场排查
		sinks = append(sinks, poller.SinkFunc{
			SinkName: "log",
			Fn: func(_ context.Context, address uint8, _ isys.Resolution, list *isys.TargetList, _ time.Time) error {
				log.Debug("targets observed",
					zap.Uint8("address", address),
					zap.Uint8("count", list.Count))
				return nil
			},
		})
	}

	return sinks
}
