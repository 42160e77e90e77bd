package isys

import "errors"

// 协议错误分类：每类失败一个哨兵错误，调用方用 errors.Is 判别。
// 核心层不做重试，所有错误原样上抛。
var (
	// ErrParameterOutOfRange 输入参数超出协议允许范围（发送前拦截）
	ErrParameterOutOfRange = errors.New("isys: parameter out of range")
	// ErrZeroTimeout 超时时间为0（未触碰传输层即返回）
	ErrZeroTimeout = errors.New("isys: timeout must be greater than zero")
	// ErrNoData 截止时间内未收到任何字节
	ErrNoData = errors.New("isys: no data received")
	// ErrIncompleteFrame 收到部分字节但帧未在截止时间内收完
	ErrIncompleteFrame = errors.New("isys: incomplete frame")
	// ErrOverflow 收到的字节数超过缓冲区/协议上限
	ErrOverflow = errors.New("isys: receive overflow")
	// ErrMalformedFrame 帧固定字节（起始符/地址回显/功能码/结束符）不匹配
	ErrMalformedFrame = errors.New("isys: malformed frame")
	// ErrChecksumMismatch FCS校验失败
	ErrChecksumMismatch = errors.New("isys: checksum mismatch")
	// ErrInvalidTargetCount 目标数超过容量且不是clipping哨兵值
	ErrInvalidTargetCount = errors.New("isys: invalid target count")
	// ErrNilOutput 调用方输出指针为空
	ErrNilOutput = errors.New("isys: nil output")
	// ErrShortWrite 传输层未写完整帧
	ErrShortWrite = errors.New("isys: short write")
)
