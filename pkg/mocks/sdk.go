package mocks

import (
	"fmt"

	"github.com/phoohow/codec/pkg/ports"
)

// CodecSDK is a mock implementation of ports.CodecSDK. Without hooks it
// opens EncodeSession and DecodeSession doubles.
type CodecSDK struct {
	OpenGraphicsEncoderFunc func(device ports.GraphicsDevice, params ports.EncodeSessionParams) (ports.EncodeSession, error)
	OpenComputeEncoderFunc  func(ctx ports.ComputeContext, params ports.EncodeSessionParams) (ports.EncodeSession, error)
	OpenComputeDecoderFunc  func(ctx ports.ComputeContext, params ports.DecodeSessionParams) (ports.DecodeSession, error)

	// Latency is applied to every session opened by default.
	Latency int

	// Recorded calls for verification
	EncodeParams   []ports.EncodeSessionParams
	DecodeParams   []ports.DecodeSessionParams
	EncodeSessions []*EncodeSession
	DecodeSessions []*DecodeSession
}

// Opened returns the total number of sessions opened.
func (m *CodecSDK) Opened() int {
	return len(m.EncodeParams) + len(m.DecodeParams)
}

func (m *CodecSDK) OpenGraphicsEncoder(device ports.GraphicsDevice, params ports.EncodeSessionParams) (ports.EncodeSession, error) {
	m.EncodeParams = append(m.EncodeParams, params)
	if m.OpenGraphicsEncoderFunc != nil {
		return m.OpenGraphicsEncoderFunc(device, params)
	}
	s := NewEncodeSession(params, 4)
	s.Latency = m.Latency
	for i := range s.Inputs {
		s.Inputs[i] = &ports.InputFrame{
			Texture: NewTexture(fmt.Sprintf("sdk-input-%d", i), params.Width, params.Height, ports.StateCommon),
		}
	}
	m.EncodeSessions = append(m.EncodeSessions, s)
	return s, nil
}

func (m *CodecSDK) OpenComputeEncoder(ctx ports.ComputeContext, params ports.EncodeSessionParams) (ports.EncodeSession, error) {
	m.EncodeParams = append(m.EncodeParams, params)
	if m.OpenComputeEncoderFunc != nil {
		return m.OpenComputeEncoderFunc(ctx, params)
	}
	s := NewEncodeSession(params, 4)
	s.Latency = m.Latency
	for i := range s.Inputs {
		buf, err := ctx.AllocBuffer(params.Width, params.Height, params.Format.PixelFormat())
		if err != nil {
			return nil, err
		}
		s.Inputs[i] = &ports.InputFrame{Buffer: buf}
	}
	m.EncodeSessions = append(m.EncodeSessions, s)
	return s, nil
}

func (m *CodecSDK) OpenComputeDecoder(ctx ports.ComputeContext, params ports.DecodeSessionParams) (ports.DecodeSession, error) {
	m.DecodeParams = append(m.DecodeParams, params)
	if m.OpenComputeDecoderFunc != nil {
		return m.OpenComputeDecoderFunc(ctx, params)
	}
	s := &DecodeSession{Params: params, Latency: m.Latency}
	m.DecodeSessions = append(m.DecodeSessions, s)
	return s, nil
}

var _ ports.CodecSDK = (*CodecSDK)(nil)

// EncodeSession is a mock ports.EncodeSession. Each Encode produces one
// output unit (IDR first, P afterwards), held back by Latency frames.
type EncodeSession struct {
	Params  ports.EncodeSessionParams
	Inputs  []*ports.InputFrame
	Latency int

	// Exhausted makes NextInputFrame report an empty pool.
	Exhausted bool
	// NextInputErr, when set, is returned by NextInputFrame.
	NextInputErr error
	// Panic makes Encode panic with the given value.
	Panic interface{}
	// EndEncodePanic makes EndEncode panic with the given value.
	EndEncodePanic interface{}

	EncodeFunc    func() ([]ports.OutputUnit, error)
	EndEncodeFunc func() ([]ports.OutputUnit, error)

	// Recorded calls for verification
	NextInputCalls int
	EncodeCalls    int
	EndEncodeCalls int
	Closed         bool
	Violations     []string

	next    int
	current *ports.InputFrame
	frames  uint64
	pending []ports.OutputUnit
}

// NewEncodeSession creates a session with poolSize empty input slots.
func NewEncodeSession(params ports.EncodeSessionParams, poolSize int) *EncodeSession {
	return &EncodeSession{
		Params: params,
		Inputs: make([]*ports.InputFrame, poolSize),
	}
}

func (s *EncodeSession) NextInputFrame() (*ports.InputFrame, error) {
	s.NextInputCalls++
	if s.NextInputErr != nil {
		return nil, s.NextInputErr
	}
	if s.Exhausted || len(s.Inputs) == 0 {
		return nil, ports.ErrNoInputBuffer
	}
	s.current = s.Inputs[s.next%len(s.Inputs)]
	s.next++
	return s.current, nil
}

func (s *EncodeSession) Encode() ([]ports.OutputUnit, error) {
	s.EncodeCalls++
	if s.Panic != nil {
		panic(s.Panic)
	}
	if s.EncodeFunc != nil {
		return s.EncodeFunc()
	}
	if s.current == nil {
		return nil, fmt.Errorf("mock: encode without input frame")
	}
	if t, ok := s.current.Texture.(*Texture); ok && t.State != ports.StateCommon {
		s.Violations = append(s.Violations, fmt.Sprintf("encoded %s in state %s", t.Label, t.State))
	}
	s.pending = append(s.pending, s.unit())
	s.current = nil
	if len(s.pending) <= s.Latency {
		return nil, nil
	}
	out := s.pending[0]
	s.pending = s.pending[1:]
	return []ports.OutputUnit{out}, nil
}

func (s *EncodeSession) EndEncode() ([]ports.OutputUnit, error) {
	s.EndEncodeCalls++
	if s.EndEncodePanic != nil {
		panic(s.EndEncodePanic)
	}
	if s.EndEncodeFunc != nil {
		return s.EndEncodeFunc()
	}
	out := s.pending
	s.pending = nil
	return out, nil
}

func (s *EncodeSession) Close() error {
	s.Closed = true
	return nil
}

// SPS is a valid baseline H.264 sequence parameter set for 64x48.
var SPS = []byte{0x67, 0x42, 0xc0, 0x1e, 0xda, 0x11, 0xe4}

// PPS is a picture parameter set matching SPS.
var PPS = []byte{0x68, 0xce, 0x3c, 0x80}

// KeyFrame returns an Annex B IDR access unit carrying SPS and PPS.
func KeyFrame() []byte {
	au := []byte{0, 0, 0, 1}
	au = append(au, SPS...)
	au = append(au, 0, 0, 0, 1)
	au = append(au, PPS...)
	return append(au, 0, 0, 0, 1, 0x65, 0x88, 0x84)
}

func (s *EncodeSession) unit() ports.OutputUnit {
	n := s.frames
	s.frames++
	if n == 0 {
		return ports.OutputUnit{
			Data:        KeyFrame(),
			Timestamp:   n,
			PictureType: ports.PictureTypeIDR,
		}
	}
	return ports.OutputUnit{
		Data:        []byte{0, 0, 0, 1, 0x41, 0x9a, byte(n)},
		Timestamp:   n,
		PictureType: ports.PictureTypeP,
	}
}

var _ ports.EncodeSession = (*EncodeSession)(nil)

// DecodeSession is a mock ports.DecodeSession producing one NV12 frame per
// packet, held back by Latency packets.
type DecodeSession struct {
	Params  ports.DecodeSessionParams
	Latency int

	DecodeFunc func(data []byte, timestamp uint64) (int, error)

	// Panic makes Decode panic with the given value; NextFramePanic does
	// the same for NextFrame.
	Panic          interface{}
	NextFramePanic interface{}

	// Recorded calls for verification
	DecodeCalls int
	EndOfStream int
	Closed      bool

	held  []decodedFrame
	ready []decodedFrame
}

type decodedFrame struct {
	data []byte
	ts   uint64
}

func (s *DecodeSession) Decode(data []byte, timestamp uint64) (int, error) {
	s.DecodeCalls++
	if s.Panic != nil {
		panic(s.Panic)
	}
	if s.DecodeFunc != nil {
		return s.DecodeFunc(data, timestamp)
	}
	if len(data) == 0 {
		s.EndOfStream++
		n := len(s.held)
		s.ready = append(s.ready, s.held...)
		s.held = nil
		return n, nil
	}
	size := ports.PixelFormatNV12.FrameSize(s.Params.MaxWidth, s.Params.MaxHeight)
	frame := make([]byte, size)
	for i := range frame {
		frame[i] = data[len(data)-1]
	}
	s.held = append(s.held, decodedFrame{data: frame, ts: timestamp})
	if len(s.held) <= s.Latency {
		return 0, nil
	}
	s.ready = append(s.ready, s.held[0])
	s.held = s.held[1:]
	return 1, nil
}

func (s *DecodeSession) NextFrame() ([]byte, uint64, bool) {
	if s.NextFramePanic != nil {
		panic(s.NextFramePanic)
	}
	if len(s.ready) == 0 {
		return nil, 0, false
	}
	f := s.ready[0]
	s.ready = s.ready[1:]
	return f.data, f.ts, true
}

func (s *DecodeSession) Close() error {
	s.Closed = true
	return nil
}

var _ ports.DecodeSession = (*DecodeSession)(nil)
