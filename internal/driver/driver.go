package driver

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/radar-server/internal/metrics"
	"github.com/taoyao-code/radar-server/internal/protocol/isys"
)

// Config 驱动配置
type Config struct {
	// Address 传感器总线地址
	Address byte
	// ProductCode 产品型号（决定16位模式的距离缩放）
	ProductCode uint16
	// RangeScale16 16位模式距离缩放因子，按产品型号查表得到
	RangeScale16 float64
	// FlushOnError 交易终态失败后是否丢弃链路上的残留字节。
	// 不丢弃的话残留会被误认成下一帧的前缀，默认开启。
	FlushOnError bool
	// PollInterval 收包轮询间隔
	PollInterval time.Duration
}

// Driver 雷达命令交易引擎。每个公开操作都是一次独立交易：
// 编码发送 -> 有界收包 -> 结构与FCS校验 -> 解码。
// 交易状态只有瞬态（已发送/收包中）和终态（成功/超时/坏帧/校验失败/溢出），
// 终态一次性上报调用方，本层不重试、不保存跨交易状态。
//
// 半双工链路同一时刻只允许一笔在途交易，由内部互斥锁保证；
// 超时为0的调用在加锁和触碰传输层之前就被拒绝。
type Driver struct {
	mu   sync.Mutex
	tr   Transport
	col  *Collector
	log  *zap.Logger
	m    *metrics.AppMetrics
	cfg  Config
	addr byte // 仅在持锁时读写

	lastOK  atomic.Int64 // 最近成功交易的unix纳秒，0表示尚无
	lastErr atomic.Int64 // 最近失败交易的unix纳秒，0表示尚无
}

// LinkStats 链路近况快照，供健康检查读取
type LinkStats struct {
	Online      bool      `json:"online"`
	LastSuccess time.Time `json:"last_success"`
	LastError   time.Time `json:"last_error"`
}

// New 创建驱动。logger为nil时静默，metrics为nil时不采集。
func New(tr Transport, cfg Config, logger *zap.Logger, m *metrics.AppMetrics) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		tr:   tr,
		col:  NewCollector(tr, nil, cfg.PollInterval),
		log:  logger,
		m:    m,
		cfg:  cfg,
		addr: cfg.Address,
	}
}

// Address 当前目标传感器地址
func (d *Driver) Address() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addr
}

// LinkStats 返回链路近况。Online 表示最近一笔交易成功与否。
func (d *Driver) LinkStats() LinkStats {
	ok := d.lastOK.Load()
	bad := d.lastErr.Load()
	st := LinkStats{Online: ok > 0 && ok >= bad}
	if ok > 0 {
		st.LastSuccess = time.Unix(0, ok)
	}
	if bad > 0 {
		st.LastError = time.Unix(0, bad)
	}
	return st
}

// GetTargetList 请求一次目标列表。res 同时决定请求帧的分辨率标志
// 和响应的解码方式；列表整体清零后填充，失败时不返回半成品。
func (d *Driver) GetTargetList(output isys.OutputChannel, res isys.Resolution, timeout time.Duration) (*isys.TargetList, error) {
	if timeout <= 0 {
		return nil, isys.ErrZeroTimeout
	}
	if res == isys.Resolution16Bit && d.cfg.RangeScale16 <= 0 {
		return nil, isys.ErrParameterOutOfRange
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	frame, err := isys.EncodeTargetListRequest(d.addr, output, res)
	if err != nil {
		return nil, err
	}
	if err := d.send(frame); err != nil {
		d.observe("target_list", err)
		return nil, err
	}
	buf, err := d.col.CollectTargetList(res, timeout)
	if err != nil {
		d.failTransaction("target_list", err)
		return nil, err
	}

	list := &isys.TargetList{}
	if err := isys.DecodeTargetFrame(buf, res, d.cfg.RangeScale16, list); err != nil {
		if d.m != nil {
			d.m.DecodeErrorTotal.WithLabelValues(resultLabel(err)).Inc()
		}
		d.failTransaction("target_list", err)
		return nil, err
	}

	d.observe("target_list", nil)
	if d.m != nil {
		d.m.BytesReceived.Add(float64(len(buf)))
		d.m.TargetsObserved.Add(float64(list.Count))
		if list.ClippingFlag != 0 {
			d.m.ClippingTotal.Inc()
		}
	}
	d.log.Debug("target list received",
		zap.Uint8("output", list.OutputNumber),
		zap.Uint8("count", list.Count),
		zap.Uint8("clipping", list.ClippingFlag))
	return list, nil
}

// SetParameter 写一个阈值/过滤参数。物理值在编码前做范围校验与缩放。
func (d *Driver) SetParameter(output isys.OutputChannel, p isys.Param, value float64, timeout time.Duration) error {
	if timeout <= 0 {
		return isys.ErrZeroTimeout
	}
	wire, err := isys.EncodeParamValue(p, value)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	frame, err := isys.EncodeWriteParameter(d.addr, output, p, wire)
	if err != nil {
		return err
	}
	return d.ackLocked("set_parameter", frame, d.addr, isys.FuncWriteParameter, timeout)
}

// GetParameter 读一个阈值/过滤参数，线值还原为物理值
func (d *Driver) GetParameter(output isys.OutputChannel, p isys.Param, timeout time.Duration) (float64, error) {
	if timeout <= 0 {
		return 0, isys.ErrZeroTimeout
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	frame, err := isys.EncodeReadParameter(d.addr, output, p)
	if err != nil {
		return 0, err
	}
	if err := d.send(frame); err != nil {
		d.observe("get_parameter", err)
		return 0, err
	}
	buf, err := d.col.CollectFixed(isys.ReadResponseLength, isys.ReadResponseLength, timeout)
	if err != nil {
		d.failTransaction("get_parameter", err)
		return 0, err
	}
	wire, err := isys.ValidateReadResponse(buf, d.addr)
	if err != nil {
		d.failTransaction("get_parameter", err)
		return 0, err
	}
	d.observe("get_parameter", nil)
	return isys.DecodeParamValue(p, wire)
}

// 阈值与过滤参数的便捷方法。range/signal单位见参数表，velocity单位km/h。

func (d *Driver) SetRangeMin(o isys.OutputChannel, v float64, t time.Duration) error {
	return d.SetParameter(o, isys.ParamRangeMin, v, t)
}

func (d *Driver) SetRangeMax(o isys.OutputChannel, v float64, t time.Duration) error {
	return d.SetParameter(o, isys.ParamRangeMax, v, t)
}

func (d *Driver) SetSignalMin(o isys.OutputChannel, v float64, t time.Duration) error {
	return d.SetParameter(o, isys.ParamSignalMin, v, t)
}

func (d *Driver) SetSignalMax(o isys.OutputChannel, v float64, t time.Duration) error {
	return d.SetParameter(o, isys.ParamSignalMax, v, t)
}

func (d *Driver) SetVelocityMin(o isys.OutputChannel, v float64, t time.Duration) error {
	return d.SetParameter(o, isys.ParamVelocityMin, v, t)
}

func (d *Driver) SetVelocityMax(o isys.OutputChannel, v float64, t time.Duration) error {
	return d.SetParameter(o, isys.ParamVelocityMax, v, t)
}

func (d *Driver) SetDirection(o isys.OutputChannel, dir isys.Direction, t time.Duration) error {
	return d.SetParameter(o, isys.ParamDirection, float64(dir), t)
}

func (d *Driver) SetOutputFilterType(o isys.OutputChannel, f isys.FilterType, t time.Duration) error {
	return d.SetParameter(o, isys.ParamFilterType, float64(f), t)
}

func (d *Driver) SetOutputSignalFilter(o isys.OutputChannel, f isys.SignalFilter, t time.Duration) error {
	return d.SetParameter(o, isys.ParamSignalFilter, float64(f), t)
}

func (d *Driver) GetRangeMin(o isys.OutputChannel, t time.Duration) (float64, error) {
	return d.GetParameter(o, isys.ParamRangeMin, t)
}

func (d *Driver) GetRangeMax(o isys.OutputChannel, t time.Duration) (float64, error) {
	return d.GetParameter(o, isys.ParamRangeMax, t)
}

func (d *Driver) GetSignalMin(o isys.OutputChannel, t time.Duration) (float64, error) {
	return d.GetParameter(o, isys.ParamSignalMin, t)
}

func (d *Driver) GetSignalMax(o isys.OutputChannel, t time.Duration) (float64, error) {
	return d.GetParameter(o, isys.ParamSignalMax, t)
}

func (d *Driver) GetVelocityMin(o isys.OutputChannel, t time.Duration) (float64, error) {
	return d.GetParameter(o, isys.ParamVelocityMin, t)
}

func (d *Driver) GetVelocityMax(o isys.OutputChannel, t time.Duration) (float64, error) {
	return d.GetParameter(o, isys.ParamVelocityMax, t)
}

func (d *Driver) GetDirection(o isys.OutputChannel, t time.Duration) (isys.Direction, error) {
	v, err := d.getEnumParameter(o, isys.ParamDirection, t)
	return isys.Direction(v), err
}

func (d *Driver) GetOutputFilterType(o isys.OutputChannel, t time.Duration) (isys.FilterType, error) {
	v, err := d.getEnumParameter(o, isys.ParamFilterType, t)
	return isys.FilterType(v), err
}

func (d *Driver) GetOutputSignalFilter(o isys.OutputChannel, t time.Duration) (isys.SignalFilter, error) {
	v, err := d.getEnumParameter(o, isys.ParamSignalFilter, t)
	return isys.SignalFilter(v), err
}

// getEnumParameter 读枚举参数。设备回传的线值必须落在参数表的取值范围内，
// 否则按坏帧处理，不把未知枚举值透传给调用方。
func (d *Driver) getEnumParameter(o isys.OutputChannel, p isys.Param, t time.Duration) (float64, error) {
	v, err := d.GetParameter(o, p, t)
	if err != nil {
		return 0, err
	}
	spec, ok := isys.LookupParam(p)
	if !ok {
		return 0, isys.ErrParameterOutOfRange
	}
	if v < spec.Min || v > spec.Max {
		return 0, fmt.Errorf("%w: %s value %g outside %g..%g",
			isys.ErrMalformedFrame, spec.Name, v, spec.Min, spec.Max)
	}
	return v, nil
}

// StartAcquisition 启动采集
func (d *Driver) StartAcquisition(timeout time.Duration) error {
	return d.acquisition("start_acquisition", true, timeout)
}

// StopAcquisition 停止采集
func (d *Driver) StopAcquisition(timeout time.Duration) error {
	return d.acquisition("stop_acquisition", false, timeout)
}

func (d *Driver) acquisition(op string, start bool, timeout time.Duration) error {
	if timeout <= 0 {
		return isys.ErrZeroTimeout
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ackLocked(op, isys.EncodeAcquisition(d.addr, start), d.addr, isys.FuncAcquisition, timeout)
}

// EEPROM 持久化操作

func (d *Driver) SaveApplicationSettings(t time.Duration) error {
	return d.EEPROMCommand(isys.EEPROMSaveApplication, t)
}

func (d *Driver) SaveSensitivitySettings(t time.Duration) error {
	return d.EEPROMCommand(isys.EEPROMSaveSensitivity, t)
}

func (d *Driver) RestoreFactorySettings(t time.Duration) error {
	return d.EEPROMCommand(isys.EEPROMRestoreFactory, t)
}

func (d *Driver) SaveAllSettings(t time.Duration) error {
	return d.EEPROMCommand(isys.EEPROMSaveAll, t)
}

// EEPROMCommand 执行任意EEPROM子功能
func (d *Driver) EEPROMCommand(cmd isys.EEPROMCommand, timeout time.Duration) error {
	if timeout <= 0 {
		return isys.ErrZeroTimeout
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	frame, err := isys.EncodeEEPROMCommand(d.addr, cmd)
	if err != nil {
		return err
	}
	return d.ackLocked("eeprom", frame, d.addr, isys.FuncEEPROM, timeout)
}

// SetDeviceAddress 修改设备总线地址。应答帧回显的是新地址；
// 成功后驱动切换到新地址继续通信。
func (d *Driver) SetDeviceAddress(newAddr byte, timeout time.Duration) error {
	if timeout <= 0 {
		return isys.ErrZeroTimeout
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.ackLocked("set_address", isys.EncodeSetAddress(d.addr, newAddr), newAddr, isys.FuncWriteAddress, timeout)
	if err != nil {
		return err
	}
	d.addr = newAddr
	d.log.Info("device address changed", zap.Uint8("address", newAddr))
	return nil
}

// GetDeviceAddress 广播读取设备地址（单设备链路上用于找回地址）
func (d *Driver) GetDeviceAddress(timeout time.Duration) (byte, error) {
	if timeout <= 0 {
		return 0, isys.ErrZeroTimeout
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.send(isys.EncodeGetAddress()); err != nil {
		d.observe("get_address", err)
		return 0, err
	}
	buf, err := d.col.CollectFixed(isys.ReadResponseLength, isys.ReadResponseLength, timeout)
	if err != nil {
		d.failTransaction("get_address", err)
		return 0, err
	}
	addr, err := isys.ValidateAddressResponse(buf)
	if err != nil {
		d.failTransaction("get_address", err)
		return 0, err
	}
	d.observe("get_address", nil)
	return addr, nil
}

// ackLocked 发送命令帧并等待9字节应答的通用交易（调用方持锁）
func (d *Driver) ackLocked(op string, frame []byte, echoAddr, fn byte, timeout time.Duration) error {
	if err := d.send(frame); err != nil {
		d.observe(op, err)
		return err
	}
	buf, err := d.col.CollectFixed(isys.AckFrameLength, isys.AckFrameLength, timeout)
	if err != nil {
		d.failTransaction(op, err)
		return err
	}
	if err := isys.ValidateAck(buf, echoAddr, fn); err != nil {
		d.failTransaction(op, err)
		return err
	}
	d.observe(op, nil)
	return nil
}

func (d *Driver) send(frame []byte) error {
	n, err := d.tr.Write(frame)
	if err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if n != len(frame) {
		return isys.ErrShortWrite
	}
	if d.m != nil {
		d.m.FramesSent.Inc()
	}
	d.log.Debug("frame sent", zap.String("frame", fmt.Sprintf("% X", frame)))
	return nil
}

// failTransaction 终态失败的公共收尾：记指标、按配置清掉链路残留字节
func (d *Driver) failTransaction(op string, err error) {
	d.observe(op, err)
	if d.cfg.FlushOnError {
		if ferr := d.tr.Flush(); ferr != nil {
			d.log.Warn("flush after failed transaction", zap.Error(ferr))
		}
	}
}

func (d *Driver) observe(op string, err error) {
	if err == nil {
		d.lastOK.Store(time.Now().UnixNano())
	} else {
		d.lastErr.Store(time.Now().UnixNano())
	}
	if d.m != nil {
		d.m.TransactionTotal.WithLabelValues(op, resultLabel(err)).Inc()
		if err == nil {
			d.m.SensorOnline.Set(1)
		} else {
			d.m.SensorOnline.Set(0)
		}
	}
	if err != nil {
		d.log.Warn("transaction failed", zap.String("op", op), zap.Error(err))
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, isys.ErrNoData):
		return "no_data"
	case errors.Is(err, isys.ErrIncompleteFrame):
		return "incomplete"
	case errors.Is(err, isys.ErrOverflow):
		return "overflow"
	case errors.Is(err, isys.ErrMalformedFrame):
		return "malformed"
	case errors.Is(err, isys.ErrChecksumMismatch):
		return "checksum"
	case errors.Is(err, isys.ErrInvalidTargetCount):
		return "invalid_count"
	case errors.Is(err, isys.ErrParameterOutOfRange):
		return "bad_parameter"
	default:
		return "other"
	}
}
