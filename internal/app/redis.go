package app

import (
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/radar-server/internal/config"
	"github.com/taoyao-code/radar-server/internal/health"
	redisstorage "github.com/taoyao-code/radar-server/internal/storage/redis"
)

// NewRedisClient 创建Redis客户端。未启用时返回 (nil, nil)。
func NewRedisClient(cfg cfgpkg.RedisConfig, logger *zap.Logger) (*redisstorage.Client, error) {
	if !cfg.Enabled {
		logger.Info("redis is disabled, skipping initialization")
		return nil, nil
	}

	client, err := redisstorage.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("redis client initialized",
		zap.String("addr", cfg.Addr),
		zap.Int("pool_size", cfg.PoolSize))

	return client, nil
}

// NewSnapshotStore 创建最近观测快照存储
func NewSnapshotStore(client *redisstorage.Client, cfg cfgpkg.RedisConfig) *redisstorage.SnapshotStore {
	if client == nil {
		return nil
	}
	return redisstorage.NewSnapshotStore(client, cfg.SnapshotTTL)
}

// AddRedisChecker 添加Redis检查器到聚合器
func AddRedisChecker(aggregator *health.Aggregator, redisClient *redisstorage.Client) {
	if redisClient != nil {
		aggregator.AddChecker(health.NewRedisChecker(redisClient))
	}
}
