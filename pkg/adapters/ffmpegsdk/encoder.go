package ffmpegsdk

import (
	"fmt"
	"sync"

	"github.com/phoohow/codec/pkg/adapters/hostcompute"
	"github.com/phoohow/codec/pkg/bitstream"
	"github.com/phoohow/codec/pkg/ports"
)

// stageFunc returns the tightly packed contents of an input frame.
type stageFunc func(in *ports.InputFrame) ([]byte, error)

func packBuffer(b ports.DeviceBuffer) ([]byte, error) {
	return hostcompute.Pack(b)
}

// encodeSession is an ffmpeg encoder fed through a pool of input frames.
type encodeSession struct {
	proc    *process
	codec   ports.CodecType
	frame   int
	inputs  []ports.InputFrame
	next    int
	current *ports.InputFrame
	stage   stageFunc
	release func()
	log     ports.Logger

	mu       sync.Mutex
	splitter *bitstream.Splitter
	ready    []ports.OutputUnit
	produced uint64

	ended  bool
	closed bool
}

func startEncodeSession(path string, args []string, params ports.EncodeSessionParams, inputs []ports.InputFrame, stage stageFunc, release func(), log ports.Logger) (*encodeSession, error) {
	codec := params.Config.Codec
	if codec != ports.CodecH265 {
		codec = ports.CodecH264
	}
	s := &encodeSession{
		codec:    codec,
		frame:    params.Format.PixelFormat().FrameSize(params.Width, params.Height),
		inputs:   inputs,
		stage:    stage,
		release:  release,
		log:      log,
		splitter: bitstream.NewSplitter(codec),
	}

	log.Debug("Starting ffmpeg: %s", commandLine(path, args))
	proc, err := startProcess(path, args, s.onOutput)
	if err != nil {
		return nil, err
	}
	s.proc = proc
	return s, nil
}

// onOutput runs on the reader goroutine.
func (s *encodeSession) onOutput(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, au := range s.splitter.Write(chunk) {
		s.push(au)
	}
}

func (s *encodeSession) push(au []byte) {
	s.ready = append(s.ready, ports.OutputUnit{
		Data:        au,
		Timestamp:   s.produced,
		PictureType: bitstream.PictureType(s.codec, au),
	})
	s.produced++
}

func (s *encodeSession) take() []ports.OutputUnit {
	s.mu.Lock()
	defer s.mu.Unlock()
	units := s.ready
	s.ready = nil
	return units
}

// NextInputFrame hands out the pool round-robin. Frames are consumed
// synchronously by Encode, so the pool never runs dry.
func (s *encodeSession) NextInputFrame() (*ports.InputFrame, error) {
	if s.ended || s.closed {
		return nil, ErrSessionEnded
	}
	if len(s.inputs) == 0 {
		return nil, ports.ErrNoInputBuffer
	}
	s.current = &s.inputs[s.next]
	s.next = (s.next + 1) % len(s.inputs)
	return s.current, nil
}

func (s *encodeSession) Encode() ([]ports.OutputUnit, error) {
	if s.ended || s.closed {
		return nil, ErrSessionEnded
	}
	if s.current == nil {
		return nil, ErrNoCurrentFrame
	}
	in := s.current
	s.current = nil

	data, err := s.stage(in)
	if err != nil {
		return nil, fmt.Errorf("stage input frame: %w", err)
	}
	if len(data) != s.frame {
		return nil, fmt.Errorf("%w: staged %d bytes, want %d", ports.ErrInvalidFrame, len(data), s.frame)
	}
	if err := s.proc.write(data); err != nil {
		return nil, err
	}
	return s.take(), nil
}

// EndEncode closes the input and waits for ffmpeg to drain.
func (s *encodeSession) EndEncode() ([]ports.OutputUnit, error) {
	if s.closed {
		return nil, ErrSessionEnded
	}
	if s.ended {
		return nil, nil
	}
	s.ended = true

	err := s.proc.finish()
	s.mu.Lock()
	if au := s.splitter.Flush(); au != nil {
		s.push(au)
	}
	s.mu.Unlock()
	units := s.take()
	if err != nil {
		return units, err
	}
	s.log.Debug("ffmpeg encoder drained: %d units", s.produced)
	return units, nil
}

func (s *encodeSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if !s.ended {
		s.proc.kill()
	}
	if s.release != nil {
		s.release()
	}
	return nil
}
