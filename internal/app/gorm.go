package app

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/taoyao-code/radar-server/internal/storage"
	"github.com/taoyao-code/radar-server/internal/storage/gormrepo"
)

// NewSensorRegistry 打开 GORM 连接并返回台账仓储。
// 表结构由 SQL 迁移管理，这里不做 AutoMigrate。
func NewSensorRegistry(dsn string) (storage.SensorRegistry, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return gormrepo.New(gdb), nil
}
