package ffmpegsdk

import (
	"sync"

	"github.com/phoohow/codec/pkg/ports"
)

// decodeSession is an ffmpeg decoder producing fixed-size NV12 frames.
type decodeSession struct {
	proc      *process
	frameSize int
	log       ports.Logger

	mu       sync.Mutex
	pending  []byte
	frames   [][]byte
	produced int

	timestamps []uint64
	lastTS     uint64
	reported   int
	ended      bool
	closed     bool
}

func startDecodeSession(path string, args []string, params ports.DecodeSessionParams, log ports.Logger) (*decodeSession, error) {
	s := &decodeSession{
		frameSize: ports.PixelFormatNV12.FrameSize(params.MaxWidth, params.MaxHeight),
		log:       log,
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
func (s *decodeSession) onOutput(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, chunk...)
	for len(s.pending) >= s.frameSize {
		s.frames = append(s.frames, append([]byte(nil), s.pending[:s.frameSize]...))
		s.pending = append(s.pending[:0], s.pending[s.frameSize:]...)
		s.produced++
	}
}

// Decode writes data to ffmpeg and reports how many frames arrived since the
// previous call. Empty data ends the stream and waits for every frame.
func (s *decodeSession) Decode(data []byte, timestamp uint64) (int, error) {
	if s.closed || s.ended {
		return 0, ErrSessionEnded
	}
	if len(data) == 0 {
		s.ended = true
		err := s.proc.finish()
		s.mu.Lock()
		if len(s.pending) > 0 {
			s.log.Warn("Discarding %d trailing bytes of partial frame", len(s.pending))
		}
		s.mu.Unlock()
		return s.newFrames(), err
	}
	s.timestamps = append(s.timestamps, timestamp)
	if err := s.proc.write(data); err != nil {
		return 0, err
	}
	return s.newFrames(), nil
}

func (s *decodeSession) newFrames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.produced - s.reported
	s.reported = s.produced
	return n
}

// NextFrame pops the oldest decoded frame. Timestamps are assigned in
// submission order.
func (s *decodeSession) NextFrame() ([]byte, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil, 0, false
	}
	frame := s.frames[0]
	s.frames = s.frames[1:]

	ts := s.lastTS + 1
	if len(s.timestamps) > 0 {
		ts = s.timestamps[0]
		s.timestamps = s.timestamps[1:]
	}
	s.lastTS = ts
	return frame, ts, true
}

func (s *decodeSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if !s.ended {
		s.proc.kill()
	}
	return nil
}
