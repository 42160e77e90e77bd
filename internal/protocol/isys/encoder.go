package isys

// 命令帧构造。所有构造函数都是纯函数：输入合法则输出确定，
// 枚举/范围类输入在写出任何字节之前校验。

// Resolution 目标列表分辨率模式（按请求指定，不存储在列表上）
type Resolution uint8

const (
	Resolution16Bit Resolution = 16
	Resolution32Bit Resolution = 32
)

// Valid 分辨率模式是否有效
func (r Resolution) Valid() bool {
	return r == Resolution16Bit || r == Resolution32Bit
}

// Flag 请求帧里的分辨率标志字节
func (r Resolution) Flag() byte {
	if r == Resolution16Bit {
		return 0x10
	}
	return 0x20
}

// BytesPerTarget 单个目标占用字节数
func (r Resolution) BytesPerTarget() int {
	if r == Resolution16Bit {
		return 7
	}
	return 14
}

// HeaderPrefixLen 两段式收包第一段的长度：读到目标数字节为止。
// 32位模式6字节，16位模式9字节，目标数都是前缀的最后一个字节。
func (r Resolution) HeaderPrefixLen() int {
	if r == Resolution16Bit {
		return 9
	}
	return 6
}

// EncodeTargetListRequest 构造目标列表请求帧（10字节）。
// 示例：68 05 05 68 80 01 DA 01 20 7C 16
func EncodeTargetListRequest(dest byte, output OutputChannel, res Resolution) ([]byte, error) {
	if !output.Valid() || !res.Valid() {
		return nil, ErrParameterOutOfRange
	}
	buf := []byte{
		StartVariable, 0x05, 0x05, StartVariable,
		dest, MasterAddress, FuncTargetList,
		byte(output), res.Flag(),
		0x00, EndDelimiter,
	}
	buf[9] = Checksum(buf, 4, 8)
	return buf, nil
}

// EncodeReadParameter 构造读参数请求帧（11字节）。
// 示例：68 05 05 68 80 01 D4 01 15 6B 16
func EncodeReadParameter(dest byte, output OutputChannel, p Param) ([]byte, error) {
	if !output.Valid() {
		return nil, ErrParameterOutOfRange
	}
	if _, ok := paramTable[p]; !ok {
		return nil, ErrParameterOutOfRange
	}
	buf := []byte{
		StartVariable, 0x05, 0x05, StartVariable,
		dest, MasterAddress, FuncReadParameter,
		byte(output), byte(p),
		0x00, EndDelimiter,
	}
	buf[9] = Checksum(buf, 4, 8)
	return buf, nil
}

// EncodeWriteParameter 构造写参数请求帧（13字节），线值大端两字节。
// 示例：68 07 07 68 80 01 D5 01 15 00 03 6F 16
func EncodeWriteParameter(dest byte, output OutputChannel, p Param, wire uint16) ([]byte, error) {
	if !output.Valid() {
		return nil, ErrParameterOutOfRange
	}
	if _, ok := paramTable[p]; !ok {
		return nil, ErrParameterOutOfRange
	}
	buf := []byte{
		StartVariable, 0x07, 0x07, StartVariable,
		dest, MasterAddress, FuncWriteParameter,
		byte(output), byte(p),
		byte(wire >> 8), byte(wire),
		0x00, EndDelimiter,
	}
	buf[11] = Checksum(buf, 4, 10)
	return buf, nil
}

// EncodeAcquisition 构造采集启停帧（11字节）。
// 启动：68 05 05 68 80 01 D1 00 00 52 16
// 停止：68 05 05 68 80 01 D1 00 01 53 16
func EncodeAcquisition(dest byte, start bool) []byte {
	sub := byte(0x01)
	if start {
		sub = 0x00
	}
	buf := []byte{
		StartVariable, 0x05, 0x05, StartVariable,
		dest, MasterAddress, FuncAcquisition,
		0x00, sub,
		0x00, EndDelimiter,
	}
	buf[9] = Checksum(buf, 4, 8)
	return buf
}

// EncodeEEPROMCommand 构造EEPROM操作帧（10字节）。
func EncodeEEPROMCommand(dest byte, cmd EEPROMCommand) ([]byte, error) {
	if !cmd.Valid() {
		return nil, ErrParameterOutOfRange
	}
	buf := []byte{
		StartVariable, 0x04, 0x04, StartVariable,
		dest, MasterAddress, FuncEEPROM,
		byte(cmd),
		0x00, EndDelimiter,
	}
	buf[8] = Checksum(buf, 4, 7)
	return buf, nil
}

// EncodeSetAddress 构造写设备地址帧（13字节）。
// 68 07 07 68 <旧地址> 01 D3 00 01 00 <新地址> FCS 16
func EncodeSetAddress(dest, newAddr byte) []byte {
	buf := []byte{
		StartVariable, 0x07, 0x07, StartVariable,
		dest, MasterAddress, FuncWriteAddress,
		0x00, 0x01, 0x00, newAddr,
		0x00, EndDelimiter,
	}
	buf[11] = Checksum(buf, 4, 10)
	return buf
}

// EncodeGetAddress 构造读设备地址帧（11字节），目的地址用广播0x00。
func EncodeGetAddress() []byte {
	buf := []byte{
		StartVariable, 0x05, 0x05, StartVariable,
		BroadcastAddress, MasterAddress, FuncReadAddress,
		0x00, 0x01,
		0x00, EndDelimiter,
	}
	buf[9] = Checksum(buf, 4, 8)
	return buf
}
