package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/radar-server/internal/driver"
	"github.com/taoyao-code/radar-server/internal/protocol/isys"
	"github.com/taoyao-code/radar-server/internal/storage"
	redisstorage "github.com/taoyao-code/radar-server/internal/storage/redis"
)

// RadarDriver 处理器需要的驱动能力子集
type RadarDriver interface {
	Address() byte
	LinkStats() driver.LinkStats
	GetTargetList(output isys.OutputChannel, res isys.Resolution, timeout time.Duration) (*isys.TargetList, error)
	SetParameter(output isys.OutputChannel, p isys.Param, value float64, timeout time.Duration) error
	GetParameter(output isys.OutputChannel, p isys.Param, timeout time.Duration) (float64, error)
	StartAcquisition(timeout time.Duration) error
	StopAcquisition(timeout time.Duration) error
	EEPROMCommand(cmd isys.EEPROMCommand, timeout time.Duration) error
	SetDeviceAddress(newAddr byte, timeout time.Duration) error
	GetDeviceAddress(timeout time.Duration) (byte, error)
}

// RadarHandler 雷达控制与查询API处理器
type RadarHandler struct {
	drv      RadarDriver
	snapshot *redisstorage.SnapshotStore
	registry storage.SensorRegistry
	logger   *zap.Logger
	timeout  time.Duration
}

// NewRadarHandler 创建雷达API处理器。snapshot/registry 可为 nil
// （未启用Redis或数据库时）。
func NewRadarHandler(drv RadarDriver, snapshot *redisstorage.SnapshotStore, registry storage.SensorRegistry, timeout time.Duration, logger *zap.Logger) *RadarHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 300 * time.Millisecond
	}
	return &RadarHandler{drv: drv, snapshot: snapshot, registry: registry, logger: logger, timeout: timeout}
}

// GetSensor 传感器概览：地址 + 链路近况 + 台账记录（启用数据库时）
func (h *RadarHandler) GetSensor(c *gin.Context) {
	resp := gin.H{
		"address": h.drv.Address(),
		"link":    h.drv.LinkStats(),
	}
	if h.registry != nil {
		record, err := h.registry.GetSensorByAddress(c.Request.Context(), h.drv.Address())
		if err != nil {
			h.logger.Warn("sensor registry lookup failed", zap.Error(err))
		} else {
			resp["record"] = record
		}
	}
	c.JSON(http.StatusOK, resp)
}

// GetTargets 读取目标列表。默认优先返回缓存快照（后台轮询写入），
// live=true 时绕开缓存直接打一次串口。
func (h *RadarHandler) GetTargets(c *gin.Context) {
	output, ok := h.queryOutput(c)
	if !ok {
		return
	}

	if h.snapshot != nil && c.Query("live") != "true" {
		snap, err := h.snapshot.GetLatest(c.Request.Context(), h.drv.Address(), uint8(output))
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"source": "snapshot", "data": snap})
			return
		}
		if !errors.Is(err, redisstorage.ErrSnapshotMiss) {
			h.logger.Warn("snapshot read failed", zap.Error(err))
		}
		// 缓存未命中时回退到直连读取
	}

	res := isys.Resolution32Bit
	if c.Query("resolution") == "16" {
		res = isys.Resolution16Bit
	}

	list, err := h.drv.GetTargetList(output, res, h.timeout)
	if err != nil {
		h.driverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"source": "live",
		"data": gin.H{
			"address":       h.drv.Address(),
			"output_number": list.OutputNumber,
			"resolution":    uint8(res),
			"count":         list.Count,
			"clipping":      list.ClippingFlag != 0,
			"full":          list.Status == isys.ListFull,
			"targets":       list.Detected(),
		},
	})
}

// GetParam 按名称读一个阈值/过滤参数
func (h *RadarHandler) GetParam(c *gin.Context) {
	spec, ok := isys.ParamByName(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown parameter", "name": c.Param("name")})
		return
	}
	output, okOut := h.queryOutput(c)
	if !okOut {
		return
	}

	value, err := h.drv.GetParameter(output, spec.Sub, h.timeout)
	if err != nil {
		h.driverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":   spec.Name,
		"unit":   spec.Unit,
		"output": uint8(output),
		"value":  value,
	})
}

// setParamRequest 写参数请求体
type setParamRequest struct {
	Output uint8   `json:"output" binding:"required"`
	Value  float64 `json:"value"`
}

// SetParam 按名称写一个阈值/过滤参数
func (h *RadarHandler) SetParam(c *gin.Context) {
	spec, ok := isys.ParamByName(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown parameter", "name": c.Param("name")})
		return
	}

	var req setParamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	output := isys.OutputChannel(req.Output)
	if !output.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "output must be 1..3"})
		return
	}

	if err := h.drv.SetParameter(output, spec.Sub, req.Value, h.timeout); err != nil {
		h.driverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":   spec.Name,
		"output": req.Output,
		"value":  req.Value,
	})
}

// StartAcquisition 启动采集
func (h *RadarHandler) StartAcquisition(c *gin.Context) {
	if err := h.drv.StartAcquisition(h.timeout); err != nil {
		h.driverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"acquisition": "started"})
}

// StopAcquisition 停止采集
func (h *RadarHandler) StopAcquisition(c *gin.Context) {
	if err := h.drv.StopAcquisition(h.timeout); err != nil {
		h.driverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"acquisition": "stopped"})
}

// eepromCommands EEPROM子功能的路径名映射
var eepromCommands = map[string]isys.EEPROMCommand{
	"save_application": isys.EEPROMSaveApplication,
	"save_sensitivity": isys.EEPROMSaveSensitivity,
	"restore_factory":  isys.EEPROMRestoreFactory,
	"save_all":         isys.EEPROMSaveAll,
}

// EEPROM 执行EEPROM持久化命令
func (h *RadarHandler) EEPROM(c *gin.Context) {
	cmd, ok := eepromCommands[c.Param("command")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown eeprom command", "command": c.Param("command")})
		return
	}
	if err := h.drv.EEPROMCommand(cmd, h.timeout); err != nil {
		h.driverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"eeprom": c.Param("command")})
}

// GetAddress 广播读取设备地址
func (h *RadarHandler) GetAddress(c *gin.Context) {
	addr, err := h.drv.GetDeviceAddress(h.timeout)
	if err != nil {
		h.driverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": addr})
}

// setAddressRequest 改地址请求体
type setAddressRequest struct {
	Address uint8 `json:"address" binding:"required"`
}

// SetAddress 修改设备总线地址。设备确认后把台账记录迁到新地址；
// 台账迁移失败只告警，不回滚设备侧已生效的变更。
func (h *RadarHandler) SetAddress(c *gin.Context) {
	var req setAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	oldAddr := h.drv.Address()
	if err := h.drv.SetDeviceAddress(req.Address, h.timeout); err != nil {
		h.driverError(c, err)
		return
	}
	if h.registry != nil && oldAddr != req.Address {
		err := h.registry.WithTx(c.Request.Context(), func(r storage.SensorRegistry) error {
			return r.UpdateSensorAddress(c.Request.Context(), oldAddr, req.Address)
		})
		if err != nil {
			h.logger.Warn("sensor registry address update failed",
				zap.Uint8("old", oldAddr),
				zap.Uint8("new", req.Address),
				zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, gin.H{"address": req.Address})
}

// queryOutput 解析 output 查询参数，默认1
func (h *RadarHandler) queryOutput(c *gin.Context) (isys.OutputChannel, bool) {
	output := isys.OutputChannel(1)
	if v := c.Query("output"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || !isys.OutputChannel(n).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "output must be 1..3"})
			return 0, false
		}
		output = isys.OutputChannel(n)
	}
	return output, true
}

// driverError 把驱动的终态错误映射成HTTP状态码
func (h *RadarHandler) driverError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, isys.ErrParameterOutOfRange), errors.Is(err, isys.ErrZeroTimeout):
		status = http.StatusBadRequest
	case errors.Is(err, isys.ErrNoData), errors.Is(err, isys.ErrIncompleteFrame):
		status = http.StatusGatewayTimeout
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
