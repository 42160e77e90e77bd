package driver

import (
	"time"

	"github.com/taoyao-code/radar-server/internal/protocol/isys"
)

// Collector 有界时间的同步收包器。在墙钟截止时间内轮询传输层，
// 无字节可读时小憩一个轮询间隔，避免空转。
type Collector struct {
	tr    Transport
	now   Clock
	sleep func(time.Duration)
	poll  time.Duration
}

// NewCollector 创建收包器。now/sleep 为nil时用系统时钟。
func NewCollector(tr Transport, now Clock, poll time.Duration) *Collector {
	if now == nil {
		now = time.Now
	}
	if poll <= 0 {
		poll = time.Millisecond
	}
	return &Collector{tr: tr, now: now, sleep: time.Sleep, poll: poll}
}

// CollectFixed 固定最小长度模式：结束符在达到 minLen 之后出现即收包完成。
// 应答帧（9字节）和读参数响应（11字节）都走这里。
// 超过 maxLen 视为溢出；截止时间到时按收到0字节与否区分错误。
func (c *Collector) CollectFixed(minLen, maxLen int, timeout time.Duration) ([]byte, error) {
	deadline := c.now().Add(timeout)
	buf := make([]byte, 0, maxLen)
	for c.now().Before(deadline) {
		if !c.tr.Available() {
			c.sleep(c.poll)
			continue
		}
		b, err := c.tr.ReadByte()
		if err != nil {
			return buf, err
		}
		buf = append(buf, b)
		if len(buf) > maxLen {
			return buf, isys.ErrOverflow
		}
		if b == isys.EndDelimiter && len(buf) >= minLen {
			return buf, nil
		}
	}
	if len(buf) == 0 {
		return nil, isys.ErrNoData
	}
	return buf, isys.ErrIncompleteFrame
}

// CollectTargetList 两段式长度导向收包。目标列表帧的总长取决于
// 帧中途才出现的目标数字段，只能先收头部前缀再算出精确总长：
//
// 第一段：收满前缀（32位模式6字节，16位模式9字节），
// 目标数是前缀的最后一个字节。
// 第二段：按目标数算出精确总长继续收到齐。
// 目标数0xFF是clipping哨兵，帧里没有目标数据，总长同样可算，
// 不按溢出处理。
func (c *Collector) CollectTargetList(res isys.Resolution, timeout time.Duration) ([]byte, error) {
	deadline := c.now().Add(timeout)
	prefix := res.HeaderPrefixLen()
	buf := make([]byte, 0, prefix)

	// 第一段：头部前缀
	for len(buf) < prefix {
		if !c.now().Before(deadline) {
			if len(buf) == 0 {
				return nil, isys.ErrNoData
			}
			return buf, isys.ErrIncompleteFrame
		}
		if !c.tr.Available() {
			c.sleep(c.poll)
			continue
		}
		b, err := c.tr.ReadByte()
		if err != nil {
			return buf, err
		}
		buf = append(buf, b)
	}

	count := buf[prefix-1]
	if count > isys.MaxTargets && count != isys.ClippingCount {
		return buf, isys.ErrOverflow
	}
	total := isys.ExpectedFrameLength(res, count)

	// 第二段：收到精确总长为止
	for len(buf) < total {
		if !c.now().Before(deadline) {
			return buf, isys.ErrIncompleteFrame
		}
		if !c.tr.Available() {
			c.sleep(c.poll)
			continue
		}
		b, err := c.tr.ReadByte()
		if err != nil {
			return buf, err
		}
		buf = append(buf, b)
	}

	if buf[total-1] != isys.EndDelimiter {
		return buf, isys.ErrMalformedFrame
	}
	return buf, nil
}
