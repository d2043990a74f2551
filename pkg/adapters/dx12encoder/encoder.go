// Package dx12encoder implements ports.Encoder on the graphics backend.
// Frames are textures on the caller's GraphicsDevice; each one is copied into
// an SDK input texture through gpucopy before it is encoded.
package dx12encoder

import (
	"errors"
	"fmt"
	"time"

	"github.com/phoohow/codec/pkg/adapters/gpucopy"
	"github.com/phoohow/codec/pkg/adapters/hwsession"
	"github.com/phoohow/codec/pkg/ports"
)

// Option configures an Encoder.
type Option func(*Encoder)

// WithFenceTimeout bounds the wait for each frame copy. Zero (the default)
// waits indefinitely.
func WithFenceTimeout(d time.Duration) Option {
	return func(e *Encoder) { e.fenceTimeout = d }
}

// WithSourceState sets the state caller textures are in when passed to
// EncodeFrame. The default is ports.StatePresent.
func WithSourceState(s ports.ResourceState) Option {
	return func(e *Encoder) { e.sourceState = s }
}

// Encoder is the graphics-backend hardware encoder.
type Encoder struct {
	sdk ports.CodecSDK
	log ports.Logger

	fenceTimeout time.Duration
	sourceState  ports.ResourceState

	session ports.EncodeSession
	copier  *gpucopy.Pipeline
	outputs hwsession.Outputs
	ended   bool
}

// New creates an uninitialized encoder. No SDK call is made until Initialize.
func New(sdk ports.CodecSDK, log ports.Logger, opts ...Option) *Encoder {
	e := &Encoder{
		sdk:         sdk,
		log:         log.WithComponent("dx12-encoder"),
		sourceState: ports.StatePresent,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize opens an SDK encode session on params.Device.
func (e *Encoder) Initialize(params ports.CreateParams) error {
	if e.session != nil {
		return ports.ErrAlreadyInitialized
	}
	if params.DeviceType != ports.DeviceDX12 {
		e.log.Error("Device type mismatch: want %s, got %s", ports.DeviceDX12, params.DeviceType)
		return fmt.Errorf("%w: dx12 encoder given %s device", ports.ErrDeviceMismatch, params.DeviceType)
	}
	if err := params.Validate(); err != nil {
		return err
	}
	device, ok := params.Device.(ports.GraphicsDevice)
	if !ok {
		e.log.Error("Device handle is not a graphics device: %T", params.Device)
		return fmt.Errorf("%w: device handle %T is not a graphics device", ports.ErrDeviceMismatch, params.Device)
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
		Format: ports.BufferFormatARGB,
		Config: ports.DefaultEncodeConfig(),
	}
	var session ports.EncodeSession
	err := hwsession.Guard(e.log, "open session", func() error {
		var err error
		session, err = e.sdk.OpenGraphicsEncoder(device, sp)
		return err
	})
	if err != nil {
		e.log.Error("Failed to open encode session: %v", err)
		return fmt.Errorf("%w: open encode session: %w", ports.ErrSDKFailure, err)
	}

	e.session = session
	e.copier = &gpucopy.Pipeline{
		Device:       device,
		SourceState:  e.sourceState,
		FenceTimeout: e.fenceTimeout,
		Log:          e.log.WithComponent("gpu-copy"),
	}
	e.ended = false
	e.log.Info("Encoder initialized: %dx%d %s", params.Width, params.Height, sp.Config.Codec)
	return nil
}

// EncodeFrame copies frame (a ports.Texture) into the next SDK input buffer
// and encodes it. The texture must be a non-nil handle on the encoder's
// device.
func (e *Encoder) EncodeFrame(frame any) (*ports.CodecPacket, error) {
	if e.session == nil {
		return nil, ports.ErrNotInitialized
	}
	src, ok := frame.(ports.Texture)
	if !ok || src == nil {
		return nil, fmt.Errorf("%w: dx12 encoder expects a texture, got %T", ports.ErrInvalidFrame, frame)
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
	if input == nil || input.Texture == nil {
		return nil, fmt.Errorf("%w: input frame has no texture", ports.ErrSDKFailure)
	}

	if err := e.copy(src, input.Texture); err != nil {
		return nil, err
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
	e.copier = nil
	e.outputs.Reset()
	e.ended = false
	e.log.Debug("Encoder destroyed")
}

// copy runs the copy-and-sync pipeline. A nil handle behind a non-nil
// interface panics inside the pipeline and is reported as an invalid frame.
func (e *Encoder) copy(src, dst ports.Texture) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Frame copy panicked: %v", r)
			err = fmt.Errorf("%w: copy frame: %v", ports.ErrInvalidFrame, r)
		}
	}()
	return e.copier.Copy(src, dst)
}

var _ ports.Encoder = (*Encoder)(nil)
