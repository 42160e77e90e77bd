package health

import (
	"context"
	"time"
)

// Status 依赖健康状态
type Status string

const (
	StatusHealthy   Status = "healthy"   // 正常
	StatusDegraded  Status = "degraded"  // 降级，如传感器数据变陈旧但HTTP仍可服务
	StatusUnhealthy Status = "unhealthy" // 不可服务
)

// CheckResult 单项检查结果
type CheckResult struct {
	Status  Status                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	Latency time.Duration          `json:"latency"`
}

// Checker 单个依赖的健康检查器。Name 作为报告里的键，
// Check 必须尊重 ctx 超时。
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}
