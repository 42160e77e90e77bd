package isys

import "encoding/binary"

// 响应帧校验。检查顺序固定：长度 -> 固定字节逐一比对 -> FCS。
// 固定字节任何一处不符都按坏帧处理，不做部分接受。

// ValidateAck 校验9字节应答帧：68 03 03 68 01 <dest> <fn> FCS 16。
// 写地址命令的应答在dest位置回显的是新地址。
func ValidateAck(buf []byte, dest, fn byte) error {
	if len(buf) == 0 {
		return ErrNoData
	}
	if len(buf) < AckFrameLength {
		return ErrIncompleteFrame
	}
	if buf[0] != StartVariable || buf[1] != 0x03 || buf[2] != 0x03 ||
		buf[3] != StartVariable || buf[4] != MasterAddress ||
		buf[5] != dest || buf[6] != fn || buf[8] != EndDelimiter {
		return ErrMalformedFrame
	}
	if Checksum(buf, 4, 6) != buf[7] {
		return ErrChecksumMismatch
	}
	return nil
}

// ValidateReadResponse 校验11字节读参数响应并取出线值（大端，偏移7..8）：
// 68 05 05 68 01 <dest> D4 <hi> <lo> FCS 16
// 枚举类参数的高字节恒为0x00。
func ValidateReadResponse(buf []byte, dest byte) (uint16, error) {
	if len(buf) == 0 {
		return 0, ErrNoData
	}
	if len(buf) < ReadResponseLength {
		return 0, ErrIncompleteFrame
	}
	if buf[0] != StartVariable || buf[1] != 0x05 || buf[2] != 0x05 ||
		buf[3] != StartVariable || buf[4] != MasterAddress ||
		buf[5] != dest || buf[6] != FuncReadParameter || buf[10] != EndDelimiter {
		return 0, ErrMalformedFrame
	}
	if Checksum(buf, 4, 8) != buf[9] {
		return 0, ErrChecksumMismatch
	}
	return binary.BigEndian.Uint16(buf[7:9]), nil
}

// ValidateAddressResponse 校验读地址响应并取出设备地址（偏移8）。
// 请求走广播，响应里的源地址字段不做比对，只核对帧结构与FCS。
func ValidateAddressResponse(buf []byte) (byte, error) {
	if len(buf) == 0 {
		return 0, ErrNoData
	}
	if len(buf) < ReadResponseLength {
		return 0, ErrIncompleteFrame
	}
	if buf[0] != StartVariable || buf[1] != 0x05 || buf[2] != 0x05 ||
		buf[3] != StartVariable || buf[6] != FuncReadAddress || buf[10] != EndDelimiter {
		return 0, ErrMalformedFrame
	}
	if Checksum(buf, 4, 8) != buf[9] {
		return 0, ErrChecksumMismatch
	}
	return buf[8], nil
}
