package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taoyao-code/radar-server/internal/health"
)

// NewHealthAggregator 创建健康检查聚合器，串口检查器始终在场
func NewHealthAggregator(reporter health.LinkReporter, staleness time.Duration) *health.Aggregator {
	return health.NewAggregator(
		health.NewSerialChecker(reporter, staleness),
	)
}

// RegisterHealthRoutes 注册健康检查HTTP路由
func RegisterHealthRoutes(r *gin.Engine, aggregator *health.Aggregator) {
	health.RegisterHTTPRoutes(r, aggregator)
}

// AddDatabaseChecker 添加数据库检查器到聚合器
func AddDatabaseChecker(aggregator *health.Aggregator, dbpool *pgxpool.Pool) {
	if dbpool != nil {
		aggregator.AddChecker(health.NewDatabaseChecker(dbpool))
	}
}
