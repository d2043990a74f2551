// Package cudaencoder implements ports.Encoder on the compute backend.
// Frames are device buffers on the caller's ComputeContext and are copied
// device-to-device into the SDK input buffer before encoding.
package cudaencoder

import (
	"errors"
	"fmt"

	"github.com/phoohow/codec/pkg/adapters/hwsession"
	"github.com/phoohow/codec/pkg/ports"
)

// Encoder is the compute-backend hardware encoder.
type Encoder struct {
	sdk ports.CodecSDK
	log ports.Logger

	ctx     ports.ComputeContext
	session ports.EncodeSession
	outputs hwsession.Outputs
	ended   bool
}

// New creates an uninitialized encoder.
func New(sdk ports.CodecSDK, log ports.Logger) *Encoder {
	return &Encoder{
		sdk: sdk,
		log: log.WithComponent("cuda-encoder"),
	}
}

// Initialize opens an SDK encode session on the compute context in
// params.Device. The SDK input format follows params.PixelFormat.
func (e *Encoder) Initialize(params ports.CreateParams) error {
	if e.session != nil {
		return ports.ErrAlreadyInitialized
	}
	if params.DeviceType != ports.DeviceCUDA {
		e.log.Error("Device type mismatch: want %s, got %s", ports.DeviceCUDA, params.DeviceType)
		return fmt.Errorf("%w: cuda encoder given %s device", ports.ErrDeviceMismatch, params.DeviceType)
	}
	if err := params.Validate(); err != nil {
		return err
	}
	ctx, ok := params.Device.(ports.ComputeContext)
	if !ok {
		e.log.Error("Device handle is not a compute context: %T", params.Device)
		return fmt.Errorf("%w: device handle %T is not a compute context", ports.ErrDeviceMismatch, params.Device)
	}
	format := ports.BufferFormatFor(params.PixelFormat)
	if format == ports.BufferFormatUndefined {
		e.log.Error("Pixel format %s cannot be encoded", params.PixelFormat)
		return fmt.Errorf("%w: %s", ports.ErrUnsupportedFormat, params.PixelFormat)
	}
	if e.sdk == nil {
		return fmt.Errorf("%w: no codec SDK", ports.ErrSDKFailure)
	}
	if params.CodecType != ports.CodecH264 {
		e.log.Warn("Requested codec %s is ignored, encoding %s", params.CodecType, ports.CodecH264)
	}

	sp := ports.EncodeSessionParams{
		Width:  params.Width,
		Height: params.Height,
		Format: format,
		Config: ports.DefaultEncodeConfig(),
	}
	var session ports.EncodeSession
	err := hwsession.Guard(e.log, "open session", func() error {
		var err error
		session, err = e.sdk.OpenComputeEncoder(ctx, sp)
		return err
	})
	if err != nil {
		e.log.Error("Failed to open encode session: %v", err)
		return fmt.Errorf("%w: open encode session: %w", ports.ErrSDKFailure, err)
	}

	e.ctx = ctx
	e.session = session
	e.ended = false
	e.log.Info("Encoder initialized: %dx%d %s", params.Width, params.Height, sp.Config.Codec)
	return nil
}

// EncodeFrame copies frame (a ports.DeviceBuffer) into the next SDK input
// buffer and encodes it.
func (e *Encoder) EncodeFrame(frame any) (*ports.CodecPacket, error) {
	if e.session == nil {
		return nil, ports.ErrNotInitialized
	}
	src, ok := frame.(ports.DeviceBuffer)
	if !ok || src == nil {
		return nil, fmt.Errorf("%w: cuda encoder expects a device buffer, got %T", ports.ErrInvalidFrame, frame)
	}

	var input *ports.InputFrame
	err := hwsession.Guard(e.log, "acquire input", func() error {
		var err error
		input, err = e.session.NextInputFrame()
		return err
	})
	if errors.Is(err, ports.ErrNoInputBuffer) {
		e.log.Warn("No input buffer available")
		return nil, err
	}
	if err != nil {
		e.log.Error("Failed to acquire input buffer: %v", err)
		return nil, fmt.Errorf("%w: acquire input: %w", ports.ErrSDKFailure, err)
	}
	if input == nil || input.Buffer == nil {
		return nil, fmt.Errorf("%w: input frame has no buffer", ports.ErrSDKFailure)
	}

	if err := e.ctx.CopyBuffer(input.Buffer, src); err != nil {
		e.log.Error("Device copy failed: %v", err)
		return nil, fmt.Errorf("%w: copy frame: %w", ports.ErrDeviceFailure, err)
	}

	var units []ports.OutputUnit
	err = hwsession.Guard(e.log, "encode", func() error {
		var err error
		units, err = e.session.Encode()
		return err
	})
	if err != nil {
		e.log.Error("Encode failed: %v", err)
		return nil, fmt.Errorf("%w: encode: %w", ports.ErrSDKFailure, err)
	}
	e.outputs.Push(units...)

	if p := e.outputs.Pop(); p != nil {
		e.log.Debug("Encoded packet: %d bytes, key frame %v", p.Size(), p.KeyFrame)
		return p, nil
	}
	return nil, ports.ErrNoOutput
}

// Flush ends the stream on the first call and returns buffered packets one
// per call until ErrNothingToFlush.
func (e *Encoder) Flush() (*ports.CodecPacket, error) {
	if e.session == nil {
		return nil, ports.ErrNotInitialized
	}
	if !e.ended {
		var units []ports.OutputUnit
		err := hwsession.Guard(e.log, "end encode", func() error {
			var err error
			units, err = e.session.EndEncode()
			return err
		})
		if err != nil {
			e.log.Error("Flush failed: %v", err)
			return nil, fmt.Errorf("%w: end encode: %w", ports.ErrSDKFailure, err)
		}
		e.ended = true
		e.outputs.Push(units...)
	}
	if p := e.outputs.Pop(); p != nil {
		return p, nil
	}
	return nil, ports.ErrNothingToFlush
}

// Destroy closes the SDK session. It is a no-op when not initialized.
func (e *Encoder) Destroy() {
	if e.session == nil {
		return
	}
	err := hwsession.Guard(e.log, "close session", func() error {
		return e.session.Close()
	})
	if err != nil {
		e.log.Warn("Closing encode session: %v", err)
	}
	e.session = nil
	e.ctx = nil
	e.outputs.Reset()
	e.ended = false
}

var _ ports.Encoder = (*Encoder)(nil)
