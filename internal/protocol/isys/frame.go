package isys

// iSYS 串口协议帧结构（变长帧）：
// [SD2][LE][LEr][SD2][DA][SA][FC][PDU...][FCS][ED]
// LE/LEr：从DA到最后一个PDU字节的长度，两者必须相等
// FCS：DA..最后一个PDU字节的8位累加和（mod 256）
// 另有定长帧（起始符0xA2，头部短3字节），仅在解析时识别，本驱动不发送。
const (
	StartVariable = 0x68 // 变长帧起始符，偏移0和3各出现一次
	StartFixed    = 0xA2 // 定长帧起始符
	EndDelimiter  = 0x16 // 帧结束符

	MasterAddress    = 0x01 // 主机源地址固定为0x01
	BroadcastAddress = 0x00 // 地址未知时用于读地址命令
	DefaultAddress   = 0x80 // 传感器出厂默认地址
)

// 功能码
const (
	FuncAcquisition    = 0xD1 // 采集启停
	FuncReadAddress    = 0xD2 // 读设备地址
	FuncWriteAddress   = 0xD3 // 写设备地址
	FuncReadParameter  = 0xD4 // 读参数
	FuncWriteParameter = 0xD5 // 写参数
	FuncTargetList     = 0xDA // 目标列表
	FuncEEPROM         = 0xDF // EEPROM操作
)

const (
	// MaxTargets 协议目标容量上限（0x23 = 35）
	MaxTargets = 0x23
	// ClippingCount 目标数哨兵值：传感器过载，帧内不含目标数据
	ClippingCount = 0xFF

	// AckFrameLength 应答帧固定长度
	AckFrameLength = 9
	// ReadResponseLength 读参数响应帧固定长度
	ReadResponseLength = 11
)

// FunctionCodeOffset 根据帧起始符返回功能码所在偏移。
// 变长帧偏移6，定长帧偏移3；其余起始符视为无效帧。
// 输出号、目标数、载荷起点都以该偏移为锚。
func FunctionCodeOffset(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, ErrMalformedFrame
	}
	switch buf[0] {
	case StartVariable:
		return 6, nil
	case StartFixed:
		return 3, nil
	}
	return 0, ErrMalformedFrame
}
