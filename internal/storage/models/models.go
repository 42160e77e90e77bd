package models

import (
	"time"
)

// 注意：
// - 保持与 db/migrations/0001_init_up.sql 完全对齐
// - 不使用 gorm.Model，显式声明每个字段，避免隐式 DeletedAt

// Sensor 映射 sensors 表，一行对应总线上的一台雷达传感器
type Sensor struct {
	// 主键
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// 总线地址（设置新地址后此列随之更新）
	Address int16 `gorm:"column:address;not null;uniqueIndex"`
	// 产品型号，如 4001/6003，决定16位模式的距离缩放
	ProductCode int32 `gorm:"column:product_code;not null"`
	// 可读名称，可空
	Name *string `gorm:"column:name;type:text"`
	// 固件版本，可空
	FwVer *string `gorm:"column:fw_ver;type:text"`
	// 最近一次成功交易时间
	LastSeenAt *time.Time `gorm:"column:last_seen_at"`
	// 审计字段
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Sensor) TableName() string { return "sensors" }

// TargetObservation 映射 target_observations 表，一行对应一帧目标列表
type TargetObservation struct {
	// 应用侧生成的 UUID 主键
	ID string `gorm:"column:id;type:uuid;primaryKey"`
	// 所属传感器
	SensorID int64 `gorm:"column:sensor_id;not null;index"`
	// 请求的输出通道 1~3
	OutputNumber int16 `gorm:"column:output_number;not null"`
	// 16 或 32
	Resolution int16 `gorm:"column:resolution;not null"`
	// 目标数，clipping 帧为 0
	TargetCount int16 `gorm:"column:target_count;not null"`
	// 近场削波标志
	Clipping bool `gorm:"column:clipping;not null"`
	// 列表是否已满（目标数达到上限）
	FullList bool `gorm:"column:full_list;not null"`
	// 目标数组的 JSON 编码
	Targets []byte `gorm:"column:targets;type:jsonb"`
	// 采样时间
	ObservedAt time.Time `gorm:"column:observed_at;not null"`
}

func (TargetObservation) TableName() string { return "target_observations" }
