package isys

import "math"

// OutputChannel 传感器输出通道（1~3）
type OutputChannel uint8

const (
	Output1 OutputChannel = 1
	Output2 OutputChannel = 2
	Output3 OutputChannel = 3
)

// Valid 输出通道是否在协议允许范围内
func (o OutputChannel) Valid() bool {
	return o >= Output1 && o <= Output3
}

// Direction 目标方向过滤
type Direction uint8

const (
	DirectionBoth        Direction = 1 // 双向
	DirectionApproaching Direction = 2 // 仅接近
	DirectionReceding    Direction = 3 // 仅远离
)

// FilterType 输出过滤类型（多目标时选哪个目标）
type FilterType uint8

const (
	FilterHighestSignal FilterType = 0 // 信号最强
	FilterMean          FilterType = 1 // 均值
	FilterMedian        FilterType = 2 // 中位数
	FilterMinRange      FilterType = 3 // 距离最近
	FilterMaxSpeed      FilterType = 4 // 速度最快
)

// SignalFilter 单目标信号滤波
type SignalFilter uint8

const (
	SignalFilterOff     SignalFilter = 0
	SignalFilterLowPass SignalFilter = 1
	SignalFilterRain    SignalFilter = 2 // 雨噪抑制
)

// EEPROMCommand EEPROM子功能码
type EEPROMCommand uint8

const (
	EEPROMSaveApplication EEPROMCommand = 0x01 // 保存应用设置
	EEPROMSaveSensitivity EEPROMCommand = 0x02 // 保存灵敏度设置
	EEPROMRestoreFactory  EEPROMCommand = 0x03 // 恢复出厂设置
	EEPROMSaveAll         EEPROMCommand = 0x04 // 保存全部
)

// Valid EEPROM子功能码是否有效
func (e EEPROMCommand) Valid() bool {
	return e >= EEPROMSaveApplication && e <= EEPROMSaveAll
}

// Param 读/写参数命令的子功能码
type Param uint8

const (
	ParamRangeMin     Param = 0x08
	ParamRangeMax     Param = 0x09
	ParamSignalMin    Param = 0x0A
	ParamSignalMax    Param = 0x0B
	ParamVelocityMin  Param = 0x0C
	ParamVelocityMax  Param = 0x0D
	ParamDirection    Param = 0x0E
	ParamFilterType   Param = 0x15
	ParamSignalFilter Param = 0x16
)

// ParamSpec 参数表条目：物理值范围校验 + 线值缩放规则。
// 线值 = round(物理值 * Scale)，读取时反向还原。
// Scale=1 的枚举类参数线值即枚举值本身。
type ParamSpec struct {
	Sub   Param
	Name  string
	Unit  string
	Scale float64
	Min   float64
	Max   float64
}

// 各阈值/过滤参数共用同一对读写命令模板，差异全部收敛到这张表里。
// 速度的物理单位是km/h，线值是0.1m/s，所以 Scale = 10/3.6。
var paramTable = map[Param]ParamSpec{
	ParamRangeMin:     {Sub: ParamRangeMin, Name: "range_min", Unit: "m", Scale: 10, Min: 0, Max: 150},
	ParamRangeMax:     {Sub: ParamRangeMax, Name: "range_max", Unit: "m", Scale: 10, Min: 0, Max: 150},
	ParamSignalMin:    {Sub: ParamSignalMin, Name: "signal_min", Unit: "dB", Scale: 10, Min: 0, Max: 150},
	ParamSignalMax:    {Sub: ParamSignalMax, Name: "signal_max", Unit: "dB", Scale: 10, Min: 0, Max: 150},
	ParamVelocityMin:  {Sub: ParamVelocityMin, Name: "velocity_min", Unit: "km/h", Scale: 10.0 / 3.6, Min: 0, Max: 250},
	ParamVelocityMax:  {Sub: ParamVelocityMax, Name: "velocity_max", Unit: "km/h", Scale: 10.0 / 3.6, Min: 0, Max: 250},
	ParamDirection:    {Sub: ParamDirection, Name: "direction", Unit: "", Scale: 1, Min: 1, Max: 3},
	ParamFilterType:   {Sub: ParamFilterType, Name: "output_filter_type", Unit: "", Scale: 1, Min: 0, Max: 4},
	ParamSignalFilter: {Sub: ParamSignalFilter, Name: "output_signal_filter", Unit: "", Scale: 1, Min: 0, Max: 2},
}

// LookupParam 按子功能码查参数表
func LookupParam(p Param) (ParamSpec, bool) {
	spec, ok := paramTable[p]
	return spec, ok
}

// ParamByName 按名称查参数表（HTTP层用）
func ParamByName(name string) (ParamSpec, bool) {
	for _, spec := range paramTable {
		if spec.Name == name {
			return spec, true
		}
	}
	return ParamSpec{}, false
}

// EncodeParamValue 物理值转线值。超出 [Min, Max] 时拒绝，不触碰传输层。
func EncodeParamValue(p Param, value float64) (uint16, error) {
	spec, ok := paramTable[p]
	if !ok {
		return 0, ErrParameterOutOfRange
	}
	if value < spec.Min || value > spec.Max {
		return 0, ErrParameterOutOfRange
	}
	return uint16(math.Round(value * spec.Scale)), nil
}

// DecodeParamValue 线值还原为物理值
func DecodeParamValue(p Param, wire uint16) (float64, error) {
	spec, ok := paramTable[p]
	if !ok {
		return 0, ErrParameterOutOfRange
	}
	return float64(wire) / spec.Scale, nil
}
