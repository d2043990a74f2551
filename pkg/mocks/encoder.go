package mocks

import (
	"github.com/phoohow/codec/pkg/ports"
)

// Encoder is a mock implementation of ports.Encoder. Without hooks every
// EncodeFrame yields one packet (key frame first) and Flush is empty.
type Encoder struct {
	InitializeFunc  func(params ports.CreateParams) error
	EncodeFrameFunc func(frame any) (*ports.CodecPacket, error)
	FlushFunc       func() (*ports.CodecPacket, error)

	// Recorded calls for verification
	InitializeCalled bool
	Params           ports.CreateParams
	Frames           []any
	FlushCalls       int
	DestroyCalls     int
}

func (m *Encoder) Initialize(params ports.CreateParams) error {
	m.InitializeCalled = true
	m.Params = params
	if m.InitializeFunc != nil {
		return m.InitializeFunc(params)
	}
	return nil
}

func (m *Encoder) EncodeFrame(frame any) (*ports.CodecPacket, error) {
	m.Frames = append(m.Frames, frame)
	if m.EncodeFrameFunc != nil {
		return m.EncodeFrameFunc(frame)
	}
	n := len(m.Frames) - 1
	return &ports.CodecPacket{
		Data:      []byte{0, 0, 0, 1, 0x65, byte(n)},
		Timestamp: uint64(n),
		KeyFrame:  n == 0,
	}, nil
}

func (m *Encoder) Flush() (*ports.CodecPacket, error) {
	m.FlushCalls++
	if m.FlushFunc != nil {
		return m.FlushFunc()
	}
	return nil, ports.ErrNothingToFlush
}

func (m *Encoder) Destroy() {
	m.DestroyCalls++
}

var _ ports.Encoder = (*Encoder)(nil)

// Decoder is a mock implementation of ports.Decoder. Without hooks every
// packet yields one frame carrying the packet bytes.
type Decoder struct {
	InitializeFunc   func(params ports.CreateParams) error
	DecodePacketFunc func(packet ports.CodecPacket) (*ports.FrameData, error)
	FlushFunc        func() (*ports.FrameData, error)

	// Recorded calls for verification
	InitializeCalled bool
	Packets          []ports.CodecPacket
	FlushCalls       int
	DestroyCalls     int
}

func (m *Decoder) Initialize(params ports.CreateParams) error {
	m.InitializeCalled = true
	if m.InitializeFunc != nil {
		return m.InitializeFunc(params)
	}
	return nil
}

func (m *Decoder) DecodePacket(packet ports.CodecPacket) (*ports.FrameData, error) {
	m.Packets = append(m.Packets, packet)
	if m.DecodePacketFunc != nil {
		return m.DecodePacketFunc(packet)
	}
	return &ports.FrameData{
		Data:      append([]byte(nil), packet.Data...),
		Timestamp: packet.Timestamp,
	}, nil
}

func (m *Decoder) Flush() (*ports.FrameData, error) {
	m.FlushCalls++
	if m.FlushFunc != nil {
		return m.FlushFunc()
	}
	return nil, ports.ErrNothingToFlush
}

func (m *Decoder) Destroy() {
	m.DestroyCalls++
}

var _ ports.Decoder = (*Decoder)(nil)
