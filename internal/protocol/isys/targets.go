package isys

import "encoding/binary"

// Target 单个探测目标。每次成功解码重新生成，帧间无身份关联。
type Target struct {
	Signal   float32 `json:"signal"`   // 信号强度 dB
	Velocity float32 `json:"velocity"` // 径向速度 m/s，符号表示方向
	Range    float32 `json:"range"`    // 距离 m
	Angle    float32 `json:"angle"`    // 角度 deg
}

// ListStatus 目标列表状态
type ListStatus uint8

const (
	ListOK   ListStatus = 0 // 正常
	ListFull ListStatus = 1 // 目标数达到容量上限
)

// TargetList 固定容量的目标列表。每次请求整体清零后重新填充，
// 失败的调用不会留下上一次的残余数据。
type TargetList struct {
	Status       ListStatus         `json:"status"`
	OutputNumber uint8              `json:"output_number"`
	Count        uint8              `json:"count"`
	ClippingFlag uint8              `json:"clipping_flag"`
	Targets      [MaxTargets]Target `json:"targets"`
}

// Detected 返回有效目标切片（长度Count）
func (l *TargetList) Detected() []Target {
	return l.Targets[:l.Count]
}

// DecodeTargetFrame 解码目标列表响应帧。
// frame 是两段式收包得到的完整缓冲；res 必须与请求时一致；
// rangeScale16 仅16位模式使用（距离缩放因子按产品型号区分，见 RangeScaleTable）。
//
// 目标数为0xFF表示传感器过载（clipping）：置位ClippingFlag，
// 目标数记0，帧内没有目标数据可解。
func DecodeTargetFrame(frame []byte, res Resolution, rangeScale16 float64, list *TargetList) error {
	if list == nil {
		return ErrNilOutput
	}
	if !res.Valid() {
		return ErrParameterOutOfRange
	}
	if res == Resolution16Bit && rangeScale16 <= 0 {
		return ErrParameterOutOfRange
	}
	if len(frame) < 6 {
		return ErrIncompleteFrame
	}
	// 收包阶段也查过结束符，这里必须再查一次：
	// 外部传入的缓冲和流式收包的缓冲不允许在严格性上出现分叉。
	if frame[len(frame)-1] != EndDelimiter {
		return ErrMalformedFrame
	}
	fc, err := FunctionCodeOffset(frame)
	if err != nil {
		return err
	}
	if len(frame) < fc+3 {
		return ErrIncompleteFrame
	}

	outputNumber := frame[fc+1]
	count := frame[fc+2]
	if count > MaxTargets && count != ClippingCount {
		return ErrInvalidTargetCount
	}

	// 先整体清零，再填充
	*list = TargetList{}

	if count == ClippingCount {
		list.ClippingFlag = 1
		return nil
	}

	bpt := res.BytesPerTarget()
	// 载荷起点 fc+3，末尾留FCS+结束符两字节
	if fc+3+bpt*int(count) > len(frame)-2 {
		return ErrIncompleteFrame
	}

	list.Count = count
	list.OutputNumber = outputNumber

	p := frame[fc+3:]
	for i := 0; i < int(count); i++ {
		t := &list.Targets[i]
		if res == Resolution32Bit {
			t.Signal = float32(int16(binary.BigEndian.Uint16(p[0:2]))) * 0.01
			t.Velocity = float32(int32(binary.BigEndian.Uint32(p[2:6]))) * 0.001
			t.Range = float32(int32(binary.BigEndian.Uint32(p[6:10]))) * 1e-6
			t.Angle = float32(int32(binary.BigEndian.Uint32(p[10:14]))) * 0.01
		} else {
			t.Signal = float32(p[0])
			t.Velocity = float32(int16(binary.BigEndian.Uint16(p[1:3]))) * 0.01
			t.Range = float32(float64(int16(binary.BigEndian.Uint16(p[3:5]))) * rangeScale16)
			t.Angle = float32(int16(binary.BigEndian.Uint16(p[5:7]))) * 0.01
		}
		p = p[bpt:]
	}

	if count == MaxTargets {
		list.Status = ListFull
	}
	return nil
}

// ExpectedFrameLength 根据第一段前缀揭示的目标数计算完整帧长。
// clipping哨兵帧不含目标数据，总长就是前缀加FCS与结束符。
func ExpectedFrameLength(res Resolution, count byte) int {
	prefix := res.HeaderPrefixLen()
	if count == ClippingCount {
		return prefix + 2
	}
	return prefix + res.BytesPerTarget()*int(count) + 2
}
