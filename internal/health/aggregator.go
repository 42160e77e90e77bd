package health

import (
	"context"
	"sync"
	"time"
)

// Aggregator 汇总网关各依赖（串口链路、数据库、Redis）的健康检查。
// 检查器并发执行，单个依赖阻塞不拖垮整个健康接口。
type Aggregator struct {
	checkers []Checker
	mu       sync.RWMutex
}

// NewAggregator 创建聚合器
func NewAggregator(checkers ...Checker) *Aggregator {
	return &Aggregator{
		checkers: checkers,
	}
}

// AddChecker 注册一个检查器（可选依赖就绪后追加）
func (a *Aggregator) AddChecker(checker Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checkers = append(a.checkers, checker)
}

// CheckAll 并发执行全部检查，按检查器名称返回结果
func (a *Aggregator) CheckAll(ctx context.Context) map[string]CheckResult {
	a.mu.RLock()
	defer a.mu.RUnlock()

	results := make(map[string]CheckResult)
	resultsMu := sync.Mutex{}
	wg := sync.WaitGroup{}

	for _, checker := range a.checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()

			result := c.Check(ctx)

			resultsMu.Lock()
			results[c.Name()] = result
			resultsMu.Unlock()
		}(checker)
	}

	wg.Wait()
	return results
}

// OverallStatus 归并总体状态：有 Unhealthy 则 Unhealthy，
// 否则有 Degraded 则 Degraded
func (a *Aggregator) OverallStatus(ctx context.Context) Status {
	return mergeStatus(a.CheckAll(ctx))
}

func mergeStatus(results map[string]CheckResult) Status {
	status := StatusHealthy
	for _, result := range results {
		switch result.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// Ready 就绪判定（K8s readiness）。串口链路降级时仍可服务缓存与历史查询，
// 所以 Degraded 依然就绪，只有 Unhealthy 才摘流量。
func (a *Aggregator) Ready(ctx context.Context) bool {
	return a.OverallStatus(ctx) != StatusUnhealthy
}

// Alive 存活判定（K8s liveness）。进程还在响应就算存活。
func (a *Aggregator) Alive() bool {
	return true
}

// HealthReport 一次完整健康检查的快照
type HealthReport struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// Report 执行一轮检查并生成报告，所有检查只跑一遍
func (a *Aggregator) Report(ctx context.Context) HealthReport {
	results := a.CheckAll(ctx)
	return HealthReport{
		Status:    mergeStatus(results),
		Timestamp: time.Now(),
		Checks:    results,
	}
}
