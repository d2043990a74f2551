// Package decode implements the decoding stage: a demuxed stream in, raw
// frames out.
package decode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phoohow/codec/pkg/pipeline"
	"github.com/phoohow/codec/pkg/ports"
)

// ErrNoDecoder is returned when no decoder exists for the requested device type.
var ErrNoDecoder = errors.New("decode: no decoder for device type")

// Factory creates an uninitialized decoder for params. It returns nil for
// unsupported device types.
type Factory func(params ports.CreateParams) ports.Decoder

// Stage runs one decoder session over a stream.
type Stage struct {
	newDecoder Factory
	sink       ports.DebugSink
	logger     ports.Logger
}

// NewStage creates a new decode stage.
func NewStage(newDecoder Factory, sink ports.DebugSink, logger ports.Logger) *Stage {
	return &Stage{
		newDecoder: newDecoder,
		sink:       sink,
		logger:     logger.WithComponent("decode"),
	}
}

// Execute decodes every packet of input.Stream and drains the decoder.
func (s *Stage) Execute(ctx context.Context, input pipeline.DecodeInput) (pipeline.DecodeResult, error) {
	result := pipeline.DecodeResult{}

	if input.Stream == nil || len(input.Stream.Packets) == 0 {
		return result, fmt.Errorf("no packets to decode")
	}

	params := input.Params
	if params.Width == 0 && params.Height == 0 {
		params.Width, params.Height = input.Stream.Width, input.Stream.Height
		params.CodecType = input.Stream.Codec
	}

	dec := s.newDecoder(params)
	if dec == nil {
		return result, fmt.Errorf("%w: %s", ErrNoDecoder, params.DeviceType)
	}
	defer dec.Destroy()

	if err := dec.Initialize(params); err != nil {
		return result, fmt.Errorf("initialize decoder: %w", err)
	}

	start := time.Now()
	for i, packet := range input.Stream.Packets {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		frame, err := dec.DecodePacket(packet)
		if errors.Is(err, ports.ErrNoOutput) {
			result.Deferred++
			continue
		}
		if err != nil {
			return result, fmt.Errorf("decode packet %d: %w", i, err)
		}
		s.collect(&result, frame)
	}

	for {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		frame, err := dec.Flush()
		if errors.Is(err, ports.ErrNothingToFlush) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("flush decoder: %w", err)
		}
		result.Flushed++
		s.collect(&result, frame)
	}

	result.Duration = time.Since(start)
	s.logger.Debug("Decoded %d packets into %d frames (%d deferred, %d flushed)",
		len(input.Stream.Packets), len(result.Frames), result.Deferred, result.Flushed)
	return result, nil
}

func (s *Stage) collect(result *pipeline.DecodeResult, frame *ports.FrameData) {
	if frame == nil {
		return
	}
	index := len(result.Frames)
	result.Frames = append(result.Frames, *frame)
	if s.sink.Enabled() {
		if err := s.sink.SaveDecodedFrame(index, *frame); err != nil {
			s.logger.Warn("Failed to save decoded frame %d: %v", index, err)
		}
	}
}
