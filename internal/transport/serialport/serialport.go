package serialport

import (
	"io"
	"sync"

	"github.com/jacobsa/go-serial/serial"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/radar-server/internal/config"
	"github.com/taoyao-code/radar-server/internal/protocol/isys"
)

// Port 半双工串口链路。后台协程把串口字节搬进缓冲通道，
// 让上层可以无阻塞地探测是否有字节可读。
type Port struct {
	mu     sync.Mutex
	port   io.ReadWriteCloser
	rx     chan byte
	done   chan struct{}
	log    *zap.Logger
	closed bool
}

// Open 按配置打开串口并启动后台读协程
func Open(cfg cfgpkg.SerialConfig, logger *zap.Logger) (*Port, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := serial.OpenOptions{
		PortName:        cfg.Device,
		BaudRate:        cfg.BaudRate,
		DataBits:        cfg.DataBits,
		StopBits:        cfg.StopBits,
		MinimumReadSize: 1,
	}
	raw, err := serial.Open(opts)
	if err != nil {
		return nil, err
	}

	bufSize := cfg.ReadBufSize
	if bufSize <= 0 {
		bufSize = 4096
	}

	p := &Port{
		port: raw,
		rx:   make(chan byte, bufSize),
		done: make(chan struct{}),
		log:  logger,
	}
	go p.readLoop()

	logger.Info("serial port opened",
		zap.String("device", cfg.Device),
		zap.Uint("baud", cfg.BaudRate))
	return p, nil
}

// readLoop 持续从串口读字节进缓冲通道，通道满时丢弃并告警
func (p *Port) readLoop() {
	buf := make([]byte, 256)
	for {
		n, err := p.port.Read(buf)
		if err != nil {
			select {
			case <-p.done:
				return
			default:
			}
			p.log.Warn("serial read failed", zap.Error(err))
			return
		}
		for _, b := range buf[:n] {
			select {
			case p.rx <- b:
			case <-p.done:
				return
			default:
				p.log.Warn("serial rx buffer full, dropping byte")
			}
		}
	}
}

// Write 整帧写入串口
func (p *Port) Write(frame []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.port.Write(frame)
}

// Available 缓冲区里是否有未读字节
func (p *Port) Available() bool {
	return len(p.rx) > 0
}

// ReadByte 取出缓冲区的下一个字节，空时返回 ErrNoData
func (p *Port) ReadByte() (byte, error) {
	select {
	case b := <-p.rx:
		return b, nil
	default:
		return 0, isys.ErrNoData
	}
}

// Flush 丢弃缓冲区里所有未读字节
func (p *Port) Flush() error {
	for {
		select {
		case <-p.rx:
		default:
			return nil
		}
	}
}

// Close 停止读协程并关闭串口
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.done)
	return p.port.Close()
}
