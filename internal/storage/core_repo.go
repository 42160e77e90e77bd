package storage

import (
	"context"
	"time"

	"github.com/taoyao-code/radar-server/internal/storage/models"
)

// SensorRegistry 传感器台账的存储抽象。
// 约束：
// - 上层不直接写 SQL，统一通过本接口访问
// - 实现需要提供事务封装 WithTx，地址变更等多步操作依赖它
// - 接口保持 DB-agnostic（面向模型与基础类型）
type SensorRegistry interface {
	// WithTx 在单个事务中执行 fn，fn 内通过传入的 repo 访问存储。
	// 实现应保证嵌套调用正确复用当前事务。
	WithTx(ctx context.Context, fn func(repo SensorRegistry) error) error

	// EnsureSensor 若地址不存在则创建记录，存在则刷新 product_code，返回传感器记录
	EnsureSensor(ctx context.Context, address uint8, productCode uint16) (*models.Sensor, error)
	// TouchSensorLastSeen 刷新传感器最近成功交易时间（不存在则插入）
	TouchSensorLastSeen(ctx context.Context, address uint8, at time.Time) error
	// GetSensorByAddress 通过总线地址查询传感器
	GetSensorByAddress(ctx context.Context, address uint8) (*models.Sensor, error)
	// ListSensors 分页列出已知传感器
	ListSensors(ctx context.Context, limit, offset int) ([]models.Sensor, error)
	// UpdateSensorAddress 设备地址变更成功后同步台账
	UpdateSensorAddress(ctx context.Context, oldAddr, newAddr uint8) error
}
