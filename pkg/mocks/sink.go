package mocks

import (
	"image"
	"sync"

	"github.com/phoohow/codec/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	SourceFrames  map[int]image.Image
	Packets       []ports.CodecPacket
	DecodedFrames map[int]ports.FrameData
	Report        []byte
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:       enabled,
		SourceFrames:  make(map[int]image.Image),
		DecodedFrames: make(map[int]ports.FrameData),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveSourceFrame(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourceFrames[index] = img
	return nil
}

func (m *DebugSink) SavePacket(index int, packet ports.CodecPacket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Packets = append(m.Packets, packet)
	return nil
}

func (m *DebugSink) SaveDecodedFrame(index int, frame ports.FrameData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DecodedFrames[index] = frame
	return nil
}

func (m *DebugSink) SaveReport(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Report = data
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)
