package isys

import (
	"encoding/binary"
	"errors"
	"testing"
)

// rawTarget32 按32位模式的线值编码一个目标（14字节）
type rawTarget32 struct {
	signal   int16 // 0.01 dB
	velocity int32 // 0.001 m/s
	rng      int32 // 1e-6 m
	angle    int32 // 0.01 deg
}

func makeTargetFrame32(output byte, count byte, targets []rawTarget32) []byte {
	// 变长帧：68 LE LEr 68 01 80 DA <output> <count> <targets...> FCS 16
	payload := make([]byte, 0, len(targets)*14)
	for _, tt := range targets {
		b := make([]byte, 14)
		binary.BigEndian.PutUint16(b[0:2], uint16(tt.signal))
		binary.BigEndian.PutUint32(b[2:6], uint32(tt.velocity))
		binary.BigEndian.PutUint32(b[6:10], uint32(tt.rng))
		binary.BigEndian.PutUint32(b[10:14], uint32(tt.angle))
		payload = append(payload, b...)
	}
	le := byte(5 + len(payload))
	frame := []byte{0x68, le, le, 0x68, MasterAddress, 0x80, FuncTargetList, output, count}
	frame = append(frame, payload...)
	frame = append(frame, Checksum(frame, 4, len(frame)-1), EndDelimiter)
	return frame
}

func makeTargetFrame16(output byte, count byte, targets [][7]byte) []byte {
	frame := []byte{0x68, 0x00, 0x00, 0x68, MasterAddress, 0x80, FuncTargetList, output, count}
	for _, tt := range targets {
		frame = append(frame, tt[:]...)
	}
	frame = append(frame, Checksum(frame, 4, len(frame)-1), EndDelimiter)
	return frame
}

func TestDecodeTargetFrame_RoundTrip32(t *testing.T) {
	frame := makeTargetFrame32(1, 2, []rawTarget32{
		{signal: 2500, velocity: 1000, rng: 5000000, angle: 500},
		{signal: -100, velocity: -2500, rng: 1000000, angle: -1250},
	})
	var list TargetList
	if err := DecodeTargetFrame(frame, Resolution32Bit, 0, &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Count != 2 || list.OutputNumber != 1 || list.ClippingFlag != 0 {
		t.Fatalf("header: %+v", list)
	}
	if list.Status != ListOK {
		t.Fatalf("status: got %v want OK", list.Status)
	}
	t0 := list.Targets[0]
	if t0.Signal != 25.0 || t0.Velocity != 1.0 || t0.Range != 5.0 || t0.Angle != 5.0 {
		t.Fatalf("target 0: %+v", t0)
	}
	t1 := list.Targets[1]
	if t1.Signal != -1.0 || t1.Velocity != -2.5 || t1.Range != 1.0 || t1.Angle != -12.5 {
		t.Fatalf("target 1: %+v", t1)
	}
}

func TestDecodeTargetFrame_RoundTrip16(t *testing.T) {
	// signal=100（无缩放） velocity=250(0.01) range=1234 angle=-100(0.01)
	var raw [7]byte
	raw[0] = 100
	binary.BigEndian.PutUint16(raw[1:3], 250)
	binary.BigEndian.PutUint16(raw[3:5], 1234)
	angleRaw := int16(-100)
	binary.BigEndian.PutUint16(raw[5:7], uint16(angleRaw))

	frame := makeTargetFrame16(2, 1, [][7]byte{raw})
	var list TargetList
	if err := DecodeTargetFrame(frame, Resolution16Bit, 0.01, &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Count != 1 || list.OutputNumber != 2 {
		t.Fatalf("header: %+v", list)
	}
	tg := list.Targets[0]
	if tg.Signal != 100 || tg.Velocity != 2.5 || tg.Angle != -1.0 {
		t.Fatalf("target: %+v", tg)
	}
	if tg.Range < 12.33 || tg.Range > 12.35 {
		t.Fatalf("range: got %v want ~12.34", tg.Range)
	}

	// 0.001缩放的产品型号
	if err := DecodeTargetFrame(frame, Resolution16Bit, 0.001, &list); err != nil {
		t.Fatalf("decode 0.001: %v", err)
	}
	if list.Targets[0].Range < 1.233 || list.Targets[0].Range > 1.235 {
		t.Fatalf("range 0.001: got %v want ~1.234", list.Targets[0].Range)
	}
}

func TestDecodeTargetFrame_16BitRequiresScale(t *testing.T) {
	frame := makeTargetFrame16(1, 0, nil)
	var list TargetList
	if err := DecodeTargetFrame(frame, Resolution16Bit, 0, &list); !errors.Is(err, ErrParameterOutOfRange) {
		t.Fatalf("missing scale: got %v", err)
	}
}

func TestDecodeTargetFrame_ClippingSentinel(t *testing.T) {
	for _, res := range []Resolution{Resolution16Bit, Resolution32Bit} {
		// 过载帧不携带目标数据
		frame := []byte{0x68, 0x05, 0x05, 0x68, MasterAddress, 0x80, FuncTargetList, 0x01, ClippingCount, 0x00, EndDelimiter}
		var list TargetList
		list.Targets[0].Range = 99 // 残余数据必须被清掉
		if err := DecodeTargetFrame(frame, res, 0.01, &list); err != nil {
			t.Fatalf("res %d: %v", res, err)
		}
		if list.ClippingFlag != 1 {
			t.Fatalf("res %d: clipping flag not set", res)
		}
		if list.Count != 0 {
			t.Fatalf("res %d: count: got %d want 0", res, list.Count)
		}
		if list.Status != ListOK {
			t.Fatalf("res %d: status: got %v want OK", res, list.Status)
		}
		if list.Targets[0].Range != 0 {
			t.Fatalf("res %d: stale target not zeroed", res)
		}
	}
}

func TestDecodeTargetFrame_CountBoundaries(t *testing.T) {
	full := make([]rawTarget32, MaxTargets)
	frame := makeTargetFrame32(1, MaxTargets, full)
	var list TargetList
	if err := DecodeTargetFrame(frame, Resolution32Bit, 0, &list); err != nil {
		t.Fatalf("capacity count: %v", err)
	}
	if list.Status != ListFull {
		t.Fatalf("capacity count: status got %v want FULL", list.Status)
	}

	frame = makeTargetFrame32(1, MaxTargets-1, full[:MaxTargets-1])
	if err := DecodeTargetFrame(frame, Resolution32Bit, 0, &list); err != nil {
		t.Fatalf("capacity-1: %v", err)
	}
	if list.Status != ListOK {
		t.Fatalf("capacity-1: status got %v want OK", list.Status)
	}

	frame = makeTargetFrame32(1, MaxTargets+1, full)
	if err := DecodeTargetFrame(frame, Resolution32Bit, 0, &list); !errors.Is(err, ErrInvalidTargetCount) {
		t.Fatalf("capacity+1: got %v", err)
	}
}

func TestDecodeTargetFrame_BadTerminator(t *testing.T) {
	frame := makeTargetFrame32(1, 1, []rawTarget32{{}})
	frame[len(frame)-1] = 0x00
	var list TargetList
	if err := DecodeTargetFrame(frame, Resolution32Bit, 0, &list); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("bad terminator: got %v", err)
	}
}

func TestDecodeTargetFrame_UnknownStartByte(t *testing.T) {
	frame := makeTargetFrame32(1, 1, []rawTarget32{{}})
	frame[0] = 0x55
	var list TargetList
	if err := DecodeTargetFrame(frame, Resolution32Bit, 0, &list); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("unknown start byte: got %v", err)
	}
}

func TestDecodeTargetFrame_TruncatedPayload(t *testing.T) {
	frame := makeTargetFrame32(1, 2, []rawTarget32{{}, {}})
	// 去掉一个目标的数据但保留尾部两字节，宣称的目标数就越界了
	truncated := append([]byte{}, frame[:len(frame)-16]...)
	truncated = append(truncated, 0x00, EndDelimiter)
	var list TargetList
	if err := DecodeTargetFrame(truncated, Resolution32Bit, 0, &list); !errors.Is(err, ErrIncompleteFrame) {
		t.Fatalf("truncated: got %v", err)
	}
}

func TestDecodeTargetFrame_NilOutput(t *testing.T) {
	frame := makeTargetFrame32(1, 0, nil)
	if err := DecodeTargetFrame(frame, Resolution32Bit, 0, nil); !errors.Is(err, ErrNilOutput) {
		t.Fatalf("nil output: got %v", err)
	}
}

func TestDecodeTargetFrame_ZeroFillsPreviousResult(t *testing.T) {
	var list TargetList
	frame := makeTargetFrame32(1, 3, make([]rawTarget32, 3))
	if err := DecodeTargetFrame(frame, Resolution32Bit, 0, &list); err != nil {
		t.Fatalf("first decode: %v", err)
	}
	list.Targets[2].Signal = 42

	frame = makeTargetFrame32(1, 1, []rawTarget32{{signal: 100}})
	if err := DecodeTargetFrame(frame, Resolution32Bit, 0, &list); err != nil {
		t.Fatalf("second decode: %v", err)
	}
	if list.Count != 1 {
		t.Fatalf("count: got %d want 1", list.Count)
	}
	if list.Targets[2].Signal != 0 {
		t.Fatalf("slot 2 not zeroed: %+v", list.Targets[2])
	}
}

func TestDecodeTargetFrame_FixedFraming(t *testing.T) {
	// 定长帧（0xA2）：功能码偏移3，目标数在偏移5
	frame := []byte{0xA2, 0x00, 0x00, FuncTargetList, 0x01, 0x01}
	b := make([]byte, 14)
	binary.BigEndian.PutUint32(b[2:6], 1000) // velocity
	frame = append(frame, b...)
	frame = append(frame, 0x00, EndDelimiter)

	var list TargetList
	if err := DecodeTargetFrame(frame, Resolution32Bit, 0, &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Count != 1 || list.Targets[0].Velocity != 1.0 {
		t.Fatalf("fixed framing decode: %+v", list)
	}
}

func TestExpectedFrameLength(t *testing.T) {
	if got := ExpectedFrameLength(Resolution32Bit, 2); got != 6+28+2 {
		t.Fatalf("32bit n=2: got %d", got)
	}
	if got := ExpectedFrameLength(Resolution16Bit, 3); got != 9+21+2 {
		t.Fatalf("16bit n=3: got %d", got)
	}
	// clipping哨兵：无目标数据
	if got := ExpectedFrameLength(Resolution32Bit, ClippingCount); got != 8 {
		t.Fatalf("clipping 32bit: got %d", got)
	}
	if got := ExpectedFrameLength(Resolution16Bit, ClippingCount); got != 11 {
		t.Fatalf("clipping 16bit: got %d", got)
	}
}
