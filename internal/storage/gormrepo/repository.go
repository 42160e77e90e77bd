package gormrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/taoyao-code/radar-server/internal/storage"
	"github.com/taoyao-code/radar-server/internal/storage/models"
)

// Repository 基于 GORM 的 SensorRegistry 实现。
// 使用 isTx 标记区分事务上下文，避免嵌套事务重复 Begin/Commit。
type Repository struct {
	db   *gorm.DB
	isTx bool
}

// New 返回一个使用给定 *gorm.DB 的 SensorRegistry 实例。
func New(db *gorm.DB) storage.SensorRegistry {
	return &Repository{db: db}
}

// WithTx 复用现有事务或开启新事务执行 fn。
func (r *Repository) WithTx(ctx context.Context, fn func(storage.SensorRegistry) error) error {
	if r.isTx {
		return fn(r)
	}

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	child := &Repository{db: tx, isTx: true}
	if err := fn(child); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// EnsureSensor 若地址不存在则插入，存在则刷新 product_code 与 updated_at。
func (r *Repository) EnsureSensor(ctx context.Context, address uint8, productCode uint16) (*models.Sensor, error) {
	record := &models.Sensor{
		Address:     int16(address),
		ProductCode: int32(productCode),
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "address"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"product_code": gorm.Expr("excluded.product_code"),
				"updated_at":   gorm.Expr("NOW()"),
			}),
		}).
		Create(record).Error
	if err != nil {
		return nil, err
	}

	return r.GetSensorByAddress(ctx, address)
}

// TouchSensorLastSeen 刷新传感器 last_seen_at（不存在则插入占位记录）。
func (r *Repository) TouchSensorLastSeen(ctx context.Context, address uint8, at time.Time) error {
	ts := at
	record := &models.Sensor{
		Address:    int16(address),
		LastSeenAt: &ts,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "address"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"last_seen_at": gorm.Expr("excluded.last_seen_at"),
				"updated_at":   gorm.Expr("NOW()"),
			}),
		}).
		Create(record).Error
}

// GetSensorByAddress 通过总线地址查询传感器。
func (r *Repository) GetSensorByAddress(ctx context.Context, address uint8) (*models.Sensor, error) {
	var sensor models.Sensor
	err := r.db.WithContext(ctx).Where("address = ?", int16(address)).First(&sensor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &sensor, err
}

// ListSensors 分页返回传感器列表，按 id 倒序。
func (r *Repository) ListSensors(ctx context.Context, limit, offset int) ([]models.Sensor, error) {
	var sensors []models.Sensor
	q := r.db.WithContext(ctx).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&sensors).Error; err != nil {
		return nil, err
	}
	return sensors, nil
}

// UpdateSensorAddress 地址变更成功后把台账记录迁到新地址。
func (r *Repository) UpdateSensorAddress(ctx context.Context, oldAddr, newAddr uint8) error {
	res := r.db.WithContext(ctx).
		Model(&models.Sensor{}).
		Where("address = ?", int16(oldAddr)).
		Updates(map[string]interface{}{
			"address":    int16(newAddr),
			"updated_at": gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
