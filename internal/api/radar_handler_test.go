package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taoyao-code/radar-server/internal/api/middleware"
	"github.com/taoyao-code/radar-server/internal/driver"
	"github.com/taoyao-code/radar-server/internal/protocol/isys"
	"github.com/taoyao-code/radar-server/internal/storage"
	"github.com/taoyao-code/radar-server/internal/storage/models"
)

// fakeDriver 可编排的驱动桩
type fakeDriver struct {
	addr     byte
	list     isys.TargetList
	listErr  error
	params   map[isys.Param]float64
	paramErr error
	started  bool
	stopped  bool
	eeprom   []isys.EEPROMCommand
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{addr: 0x80, params: map[isys.Param]float64{}}
}

func (f *fakeDriver) Address() byte { return f.addr }

func (f *fakeDriver) LinkStats() driver.LinkStats {
	return driver.LinkStats{Online: true, LastSuccess: time.Now()}
}

func (f *fakeDriver) GetTargetList(output isys.OutputChannel, res isys.Resolution, _ time.Duration) (*isys.TargetList, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := f.list
	out.OutputNumber = uint8(output)
	return &out, nil
}

func (f *fakeDriver) SetParameter(_ isys.OutputChannel, p isys.Param, value float64, _ time.Duration) error {
	if f.paramErr != nil {
		return f.paramErr
	}
	f.params[p] = value
	return nil
}

func (f *fakeDriver) GetParameter(_ isys.OutputChannel, p isys.Param, _ time.Duration) (float64, error) {
	if f.paramErr != nil {
		return 0, f.paramErr
	}
	return f.params[p], nil
}

func (f *fakeDriver) StartAcquisition(time.Duration) error { f.started = true; return nil }
func (f *fakeDriver) StopAcquisition(time.Duration) error  { f.stopped = true; return nil }

func (f *fakeDriver) EEPROMCommand(cmd isys.EEPROMCommand, _ time.Duration) error {
	f.eeprom = append(f.eeprom, cmd)
	return nil
}

func (f *fakeDriver) SetDeviceAddress(newAddr byte, _ time.Duration) error {
	f.addr = newAddr
	return nil
}

func (f *fakeDriver) GetDeviceAddress(time.Duration) (byte, error) { return f.addr, nil }

// fakeRegistry 可编排的传感器台账桩
type fakeRegistry struct {
	sensor  *models.Sensor
	inTx    bool
	updOld  uint8
	updNew  uint8
	updInTx bool
	updErr  error
}

func (f *fakeRegistry) WithTx(_ context.Context, fn func(storage.SensorRegistry) error) error {
	f.inTx = true
	defer func() { f.inTx = false }()
	return fn(f)
}

func (f *fakeRegistry) EnsureSensor(context.Context, uint8, uint16) (*models.Sensor, error) {
	return f.sensor, nil
}

func (f *fakeRegistry) TouchSensorLastSeen(context.Context, uint8, time.Time) error { return nil }

func (f *fakeRegistry) GetSensorByAddress(_ context.Context, address uint8) (*models.Sensor, error) {
	if f.sensor == nil || uint8(f.sensor.Address) != address {
		return nil, errors.New("sensor not found")
	}
	return f.sensor, nil
}

func (f *fakeRegistry) ListSensors(context.Context, int, int) ([]models.Sensor, error) {
	return nil, nil
}

func (f *fakeRegistry) UpdateSensorAddress(_ context.Context, oldAddr, newAddr uint8) error {
	f.updOld, f.updNew = oldAddr, newAddr
	f.updInTx = f.inTx
	return f.updErr
}

func newTestRouter(drv RadarDriver, authCfg middleware.AuthConfig) *gin.Engine {
	return newTestRouterWithRegistry(drv, nil, authCfg)
}

func newTestRouterWithRegistry(drv RadarDriver, registry storage.SensorRegistry, authCfg middleware.AuthConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewRadarHandler(drv, nil, registry, 50*time.Millisecond, nil)
	RegisterRadarRoutes(r, handler, nil, authCfg, zap.NewNop())
	return r
}

func doRequest(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetSensor(t *testing.T) {
	r := newTestRouter(newFakeDriver(), middleware.AuthConfig{})
	w := doRequest(r, http.MethodGet, "/api/v1/sensor", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Address uint8 `json:"address"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint8(0x80), resp.Address)
}

func TestGetTargets_Live(t *testing.T) {
	drv := newFakeDriver()
	drv.list.Count = 2
	drv.list.Targets[0] = isys.Target{Range: 1.5, Velocity: -0.5}
	drv.list.Targets[1] = isys.Target{Range: 3.0}
	r := newTestRouter(drv, middleware.AuthConfig{})

	w := doRequest(r, http.MethodGet, "/api/v1/sensor/targets?output=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Source string `json:"source"`
		Data   struct {
			OutputNumber uint8         `json:"output_number"`
			Count        uint8         `json:"count"`
			Targets      []isys.Target `json:"targets"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "live", resp.Source)
	assert.Equal(t, uint8(2), resp.Data.OutputNumber)
	assert.Len(t, resp.Data.Targets, 2)
}

func TestGetTargets_BadOutput(t *testing.T) {
	r := newTestRouter(newFakeDriver(), middleware.AuthConfig{})
	w := doRequest(r, http.MethodGet, "/api/v1/sensor/targets?output=4", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTargets_Timeout(t *testing.T) {
	drv := newFakeDriver()
	drv.listErr = isys.ErrNoData
	r := newTestRouter(drv, middleware.AuthConfig{})
	w := doRequest(r, http.MethodGet, "/api/v1/sensor/targets", nil)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestParamRoundTrip(t *testing.T) {
	drv := newFakeDriver()
	r := newTestRouter(drv, middleware.AuthConfig{})

	w := doRequest(r, http.MethodPut, "/api/v1/sensor/params/range_max", gin.H{"output": 1, "value": 42.0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 42.0, drv.params[isys.ParamRangeMax])

	w = doRequest(r, http.MethodGet, "/api/v1/sensor/params/range_max?output=1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "range_max", resp.Name)
	assert.Equal(t, 42.0, resp.Value)
}

func TestParam_UnknownName(t *testing.T) {
	r := newTestRouter(newFakeDriver(), middleware.AuthConfig{})
	w := doRequest(r, http.MethodGet, "/api/v1/sensor/params/bogus", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestParam_OutOfRange(t *testing.T) {
	drv := newFakeDriver()
	drv.paramErr = isys.ErrParameterOutOfRange
	r := newTestRouter(drv, middleware.AuthConfig{})
	w := doRequest(r, http.MethodPut, "/api/v1/sensor/params/range_max", gin.H{"output": 1, "value": 9999.0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAcquisitionControl(t *testing.T) {
	drv := newFakeDriver()
	r := newTestRouter(drv, middleware.AuthConfig{})

	w := doRequest(r, http.MethodPost, "/api/v1/sensor/acquisition/start", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, drv.started)

	w = doRequest(r, http.MethodPost, "/api/v1/sensor/acquisition/stop", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, drv.stopped)
}

func TestEEPROMCommands(t *testing.T) {
	drv := newFakeDriver()
	r := newTestRouter(drv, middleware.AuthConfig{})

	for _, name := range []string{"save_application", "save_sensitivity", "restore_factory", "save_all"} {
		w := doRequest(r, http.MethodPost, "/api/v1/sensor/eeprom/"+name, nil)
		assert.Equal(t, http.StatusOK, w.Code, name)
	}
	assert.Equal(t, []isys.EEPROMCommand{
		isys.EEPROMSaveApplication,
		isys.EEPROMSaveSensitivity,
		isys.EEPROMRestoreFactory,
		isys.EEPROMSaveAll,
	}, drv.eeprom)

	w := doRequest(r, http.MethodPost, "/api/v1/sensor/eeprom/bogus", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddressChange(t *testing.T) {
	drv := newFakeDriver()
	r := newTestRouter(drv, middleware.AuthConfig{})

	w := doRequest(r, http.MethodPut, "/api/v1/sensor/address", gin.H{"address": 0x9C})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, byte(0x9C), drv.addr)

	w = doRequest(r, http.MethodGet, "/api/v1/sensor/address", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Address uint8 `json:"address"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint8(0x9C), resp.Address)
}

func TestAddressChange_MovesRegistryRecord(t *testing.T) {
	drv := newFakeDriver()
	reg := &fakeRegistry{sensor: &models.Sensor{ID: 1, Address: 0x80}}
	r := newTestRouterWithRegistry(drv, reg, middleware.AuthConfig{})

	w := doRequest(r, http.MethodPut, "/api/v1/sensor/address", gin.H{"address": 0x9C})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, uint8(0x80), reg.updOld)
	assert.Equal(t, uint8(0x9C), reg.updNew)
	assert.True(t, reg.updInTx, "台账迁移必须在事务里执行")
}

func TestAddressChange_RegistryFailureStillSucceeds(t *testing.T) {
	drv := newFakeDriver()
	reg := &fakeRegistry{sensor: &models.Sensor{ID: 1, Address: 0x80}, updErr: errors.New("db down")}
	r := newTestRouterWithRegistry(drv, reg, middleware.AuthConfig{})

	// 设备侧已生效，台账失败不改变响应
	w := doRequest(r, http.MethodPut, "/api/v1/sensor/address", gin.H{"address": 0x9C})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, byte(0x9C), drv.addr)
}

func TestGetSensor_IncludesRegistryRecord(t *testing.T) {
	reg := &fakeRegistry{sensor: &models.Sensor{ID: 7, Address: 0x80, ProductCode: 4001}}
	r := newTestRouterWithRegistry(newFakeDriver(), reg, middleware.AuthConfig{})

	w := doRequest(r, http.MethodGet, "/api/v1/sensor", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Record *models.Sensor `json:"record"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Record)
	assert.Equal(t, int64(7), resp.Record.ID)
	assert.Equal(t, int32(4001), resp.Record.ProductCode)
}

func TestAuthRejectsMissingKey(t *testing.T) {
	authCfg := middleware.AuthConfig{Enabled: true, APIKeys: []string{"sk_test_1234abcd"}}
	r := newTestRouter(newFakeDriver(), authCfg)

	w := doRequest(r, http.MethodGet, "/api/v1/sensor", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sensor", nil)
	req.Header.Set("X-API-Key", "sk_test_1234abcd")
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusOK, w2.Code)
}
