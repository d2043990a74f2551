// Package encode implements the video encoding stage.
package encode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phoohow/codec/pkg/pipeline"
	"github.com/phoohow/codec/pkg/ports"
)

// ErrNoEncoder is returned when no encoder exists for the requested device type.
var ErrNoEncoder = errors.New("encode: no encoder for device type")

// Factory creates an uninitialized encoder for params. It returns nil for
// unsupported device types.
type Factory func(params ports.CreateParams) ports.Encoder

// Stage runs one encoder session over a batch of uploaded frames.
type Stage struct {
	newEncoder Factory
	sink       ports.DebugSink
	logger     ports.Logger
}

// NewStage creates a new encode stage.
func NewStage(newEncoder Factory, sink ports.DebugSink, logger ports.Logger) *Stage {
	return &Stage{
		newEncoder: newEncoder,
		sink:       sink,
		logger:     logger.WithComponent("encode"),
	}
}

// Execute initializes an encoder, submits every frame, drains it with Flush
// and destroys it. Frames accepted without output are not errors.
func (s *Stage) Execute(ctx context.Context, input pipeline.EncodeInput) (pipeline.EncodeResult, error) {
	result := pipeline.EncodeResult{}

	if len(input.Frames) == 0 {
		return result, fmt.Errorf("no frames to encode")
	}

	enc := s.newEncoder(input.Params)
	if enc == nil {
		return result, fmt.Errorf("%w: %s", ErrNoEncoder, input.Params.DeviceType)
	}
	defer enc.Destroy()

	if err := enc.Initialize(input.Params); err != nil {
		return result, fmt.Errorf("initialize encoder: %w", err)
	}

	start := time.Now()
	for _, frame := range input.Frames {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		packet, err := enc.EncodeFrame(frame.Handle)
		if errors.Is(err, ports.ErrNoOutput) {
			result.Deferred++
			continue
		}
		if err != nil {
			return result, fmt.Errorf("encode frame %d: %w", frame.Index, err)
		}
		s.collect(&result, packet)
	}

	for {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		packet, err := enc.Flush()
		if errors.Is(err, ports.ErrNothingToFlush) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("flush encoder: %w", err)
		}
		result.Flushed++
		s.collect(&result, packet)
	}

	result.Duration = time.Since(start)
	s.logger.Debug("Encoded %d frames into %d packets (%d deferred, %d flushed)",
		len(input.Frames), len(result.Packets), result.Deferred, result.Flushed)
	return result, nil
}

func (s *Stage) collect(result *pipeline.EncodeResult, packet *ports.CodecPacket) {
	if packet == nil {
		return
	}
	index := len(result.Packets)
	result.Packets = append(result.Packets, *packet)
	if s.sink.Enabled() {
		if err := s.sink.SavePacket(index, *packet); err != nil {
			s.logger.Warn("Failed to save debug packet %d: %v", index, err)
		}
	}
}
