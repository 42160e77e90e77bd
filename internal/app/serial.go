package app

import (
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/radar-server/internal/config"
	"github.com/taoyao-code/radar-server/internal/driver"
	"github.com/taoyao-code/radar-server/internal/metrics"
	"github.com/taoyao-code/radar-server/internal/protocol/isys"
	"github.com/taoyao-code/radar-server/internal/transport/serialport"
)

// OpenDriver 打开串口并构建雷达驱动。
// 16位模式的距离缩放按产品型号查表，可用 rangeScaleFile 覆盖出厂表。
func OpenDriver(cfg *cfgpkg.Config, logger *zap.Logger, appm *metrics.AppMetrics) (*serialport.Port, *driver.Driver, error) {
	port, err := serialport.Open(cfg.Serial, logger)
	if err != nil {
		return nil, nil, err
	}

	table := isys.DefaultRangeScaleTable()
	if cfg.Driver.RangeScaleFile != "" {
		table, err = isys.LoadRangeScaleTable(cfg.Driver.RangeScaleFile)
		if err != nil {
			_ = port.Close()
			return nil, nil, err
		}
	}

	scale, ok := table.Scale(cfg.Driver.ProductCode)
	if !ok {
		logger.Warn("unknown product code, 16-bit target lists unavailable",
			zap.Uint16("product_code", cfg.Driver.ProductCode))
	}

	drv := driver.New(port, driver.Config{
		Address:      cfg.Driver.Address,
		ProductCode:  cfg.Driver.ProductCode,
		RangeScale16: scale,
		FlushOnError: cfg.Driver.FlushOnError,
		PollInterval: cfg.Driver.PollInterval,
	}, logger, appm)

	return port, drv, nil
}
