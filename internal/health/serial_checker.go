package health

import (
	"context"
	"time"

	"github.com/taoyao-code/radar-server/internal/driver"
)

// LinkReporter 串口链路近况来源（由雷达驱动实现）
type LinkReporter interface {
	Address() byte
	LinkStats() driver.LinkStats
}

// SerialChecker 串口链路健康检查器。
// 不主动打串口，只看驱动记录的最近交易结果与时间。
type SerialChecker struct {
	reporter  LinkReporter
	staleness time.Duration
}

// NewSerialChecker 创建串口健康检查器。
// staleness: 距最近一次成功交易超过该时长视为降级，0用默认10s。
func NewSerialChecker(reporter LinkReporter, staleness time.Duration) *SerialChecker {
	if staleness <= 0 {
		staleness = 10 * time.Second
	}
	return &SerialChecker{reporter: reporter, staleness: staleness}
}

// Name 返回检查器名称
func (c *SerialChecker) Name() string {
	return "serial"
}

// Check 执行健康检查
func (c *SerialChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	st := c.reporter.LinkStats()

	details := map[string]interface{}{
		"address": c.reporter.Address(),
	}
	if !st.LastSuccess.IsZero() {
		details["last_success"] = st.LastSuccess
	}
	if !st.LastError.IsZero() {
		details["last_error"] = st.LastError
	}

	status := StatusHealthy
	message := "ok"

	switch {
	case st.LastSuccess.IsZero() && st.LastError.IsZero():
		// 启动后尚无交易，链路未被证伪
		status = StatusDegraded
		message = "no exchange yet"
	case !st.Online:
		status = StatusUnhealthy
		message = "last exchange failed"
	case time.Since(st.LastSuccess) > c.staleness:
		status = StatusDegraded
		message = "no recent successful exchange"
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: details,
		Latency: time.Since(start),
	}
}
