package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/radar-server/internal/storage"
	pgstorage "github.com/taoyao-code/radar-server/internal/storage/pg"
)

// HistoryHandler 台账与观测历史查询处理器（需要启用数据库）
type HistoryHandler struct {
	repo     *pgstorage.Repository
	registry storage.SensorRegistry
	logger   *zap.Logger
}

// NewHistoryHandler 创建历史查询处理器
func NewHistoryHandler(repo *pgstorage.Repository, registry storage.SensorRegistry, logger *zap.Logger) *HistoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryHandler{repo: repo, registry: registry, logger: logger}
}

// ListSensors 分页查询传感器台账
func (h *HistoryHandler) ListSensors(c *gin.Context) {
	limit, offset := pageParams(c)
	list, err := h.registry.ListSensors(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sensors": list})
}

// LatestObservation 查询传感器最近一帧观测
func (h *HistoryHandler) LatestObservation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sensor id"})
		return
	}
	ob, err := h.repo.LatestObservation(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"observation": ob})
}

// ListObservations 分页查询传感器观测历史
func (h *HistoryHandler) ListObservations(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sensor id"})
		return
	}
	limit, offset := pageParams(c)
	list, err := h.repo.ListObservations(c.Request.Context(), id, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"observations": list})
}

// pageParams 解析分页查询参数
func pageParams(c *gin.Context) (limit, offset int) {
	limit = 50
	if v := c.Query("limit"); v != "" {
		if vv, e := strconv.Atoi(v); e == nil && vv > 0 {
			limit = vv
		}
	}
	if v := c.Query("offset"); v != "" {
		if vv, e := strconv.Atoi(v); e == nil && vv >= 0 {
			offset = vv
		}
	}
	return limit, offset
}
