package driver

import "time"

// Transport 半双工串口链路的字节级抽象。
// 核心层不负责打开/配置底层资源，只消费已就绪的字节流。
// 链路同一时刻只允许一笔在途交易，由 Driver 内部互斥保证。
type Transport interface {
	// Write 发送一帧完整字节，返回实际写入数
	Write(p []byte) (int, error)
	// Flush 丢弃接收缓冲里尚未读取的字节。
	// 超时后链路上可能残留半截响应，不清掉会被误认成下一帧的前缀。
	Flush() error
	// Available 接收缓冲当前是否有字节可读（非阻塞）
	Available() bool
	// ReadByte 读取一个字节，仅在 Available 为真后调用
	ReadByte() (byte, error)
}

// Clock 单调时钟，测试时替换
type Clock func() time.Time
