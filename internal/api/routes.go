package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/radar-server/internal/api/middleware"
)

// RegisterRadarRoutes 注册雷达控制与查询路由。
// history 可为 nil（未启用数据库时相关端点不注册）。
func RegisterRadarRoutes(
	r *gin.Engine,
	handler *RadarHandler,
	history *HistoryHandler,
	authCfg middleware.AuthConfig,
	logger *zap.Logger,
) {
	if r == nil || handler == nil {
		return
	}

	api := r.Group("/api/v1")
	if authCfg.Enabled {
		api.Use(middleware.APIKeyAuth(authCfg, logger))
		logger.Info("api authentication enabled")
	} else {
		logger.Warn("api authentication disabled - only for development!")
	}

	// 传感器概览与实时数据
	api.GET("/sensor", handler.GetSensor)
	api.GET("/sensor/targets", handler.GetTargets)

	// 阈值与过滤参数
	api.GET("/sensor/params/:name", handler.GetParam)
	api.PUT("/sensor/params/:name", handler.SetParam)

	// 采集控制
	api.POST("/sensor/acquisition/start", handler.StartAcquisition)
	api.POST("/sensor/acquisition/stop", handler.StopAcquisition)

	// EEPROM持久化
	api.POST("/sensor/eeprom/:command", handler.EEPROM)

	// 设备寻址
	api.GET("/sensor/address", handler.GetAddress)
	api.PUT("/sensor/address", handler.SetAddress)

	// 台账与历史（依赖数据库）
	if history != nil {
		api.GET("/sensors", history.ListSensors)
		api.GET("/sensors/:id/observations/latest", history.LatestObservation)
		api.GET("/sensors/:id/observations", history.ListObservations)
	}

	logger.Info("radar routes registered")
}
