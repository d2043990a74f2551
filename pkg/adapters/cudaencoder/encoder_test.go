package cudaencoder

import (
	"bytes"
	"errors"
	"testing"

	"github.com/phoohow/codec/pkg/adapters/hostcompute"
	"github.com/phoohow/codec/pkg/adapters/logger"
	"github.com/phoohow/codec/pkg/mocks"
	"github.com/phoohow/codec/pkg/ports"
)

func newParams(ctx ports.ComputeContext, format ports.PixelFormat) ports.CreateParams {
	return ports.CreateParams{
		Device:      ctx,
		Width:       64,
		Height:      32,
		DeviceType:  ports.DeviceCUDA,
		CodecType:   ports.CodecH264,
		PixelFormat: format,
	}
}

func TestEncoder_BufferFormatFromPixelFormat(t *testing.T) {
	tests := []struct {
		format  ports.PixelFormat
		want    ports.BufferFormat
		wantErr error
	}{
		{ports.PixelFormatARGB8, ports.BufferFormatARGB, nil},
		{ports.PixelFormatNV12, ports.BufferFormatNV12, nil},
		{ports.PixelFormatRGBA8, ports.BufferFormatUndefined, ports.ErrUnsupportedFormat},
		{ports.PixelFormatUnknown, ports.BufferFormatUndefined, ports.ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			sdk := &mocks.CodecSDK{}
			enc := New(sdk, logger.NewNoop())
			defer enc.Destroy()

			err := enc.Initialize(newParams(hostcompute.New(), tt.format))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if sdk.Opened() != 0 {
					t.Error("no session should be opened")
				}
				return
			}
			if err != nil {
				t.Fatalf("Initialize failed: %v", err)
			}
			if got := sdk.EncodeParams[0].Format; got != tt.want {
				t.Errorf("Format = %s, want %s", got, tt.want)
			}
			if got := sdk.EncodeParams[0].Config; got != ports.DefaultEncodeConfig() {
				t.Errorf("Config = %+v, want defaults", got)
			}
		})
	}
}

func TestEncoder_CopiesFrameIntoInput(t *testing.T) {
	ctx := hostcompute.New()
	sdk := &mocks.CodecSDK{}
	enc := New(sdk, logger.NewNoop())
	defer enc.Destroy()
	if err := enc.Initialize(newParams(ctx, ports.PixelFormatARGB8)); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	src, err := ctx.AllocBuffer(64, 32, ports.PixelFormatARGB8)
	if err != nil {
		t.Fatalf("AllocBuffer failed: %v", err)
	}
	frame := bytes.Repeat([]byte{1, 2, 3, 4}, 64*32)
	if err := hostcompute.Unpack(src, frame); err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}

	pkt, err := enc.EncodeFrame(src)
	if err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}
	if !pkt.KeyFrame || pkt.Size() == 0 {
		t.Errorf("first packet = %+v, want non-empty key frame", pkt)
	}

	input := sdk.EncodeSessions[0].Inputs[0].Buffer
	got, err := hostcompute.Pack(input)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	if !bytes.Equal(got, frame) {
		t.Error("SDK input buffer does not hold the submitted frame")
	}
}

func TestEncoder_DeviceTypeMismatch(t *testing.T) {
	sdk := &mocks.CodecSDK{}
	enc := New(sdk, logger.NewNoop())

	params := newParams(hostcompute.New(), ports.PixelFormatARGB8)
	params.DeviceType = ports.DeviceDX12
	if err := enc.Initialize(params); !errors.Is(err, ports.ErrDeviceMismatch) {
		t.Fatalf("expected ErrDeviceMismatch, got %v", err)
	}
	if sdk.Opened() != 0 {
		t.Error("no session should be opened on mismatch")
	}

	params = newParams(hostcompute.New(), ports.PixelFormatARGB8)
	params.Device = mocks.NewGraphicsDevice()
	if err := enc.Initialize(params); !errors.Is(err, ports.ErrDeviceMismatch) {
		t.Fatalf("graphics device handle: expected ErrDeviceMismatch, got %v", err)
	}
}

func TestEncoder_InvalidFrame(t *testing.T) {
	enc := New(&mocks.CodecSDK{}, logger.NewNoop())
	defer enc.Destroy()
	if err := enc.Initialize(newParams(hostcompute.New(), ports.PixelFormatARGB8)); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	tex := mocks.NewTexture("tex", 64, 32, ports.StatePresent)
	if _, err := enc.EncodeFrame(tex); !errors.Is(err, ports.ErrInvalidFrame) {
		t.Errorf("expected ErrInvalidFrame for a texture, got %v", err)
	}
}

func TestEncoder_CopyFailure(t *testing.T) {
	sdk := &mocks.CodecSDK{}
	enc := New(sdk, logger.NewNoop())
	defer enc.Destroy()
	if err := enc.Initialize(newParams(hostcompute.New(), ports.PixelFormatARGB8)); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	foreign, _ := hostcompute.New().AllocBuffer(64, 32, ports.PixelFormatARGB8)
	if _, err := enc.EncodeFrame(foreign); !errors.Is(err, ports.ErrDeviceFailure) {
		t.Fatalf("expected ErrDeviceFailure, got %v", err)
	}
	if n := sdk.EncodeSessions[0].EncodeCalls; n != 0 {
		t.Errorf("Encode called %d times after a failed copy", n)
	}
}

func TestEncoder_FlushAndDestroy(t *testing.T) {
	ctx := hostcompute.New()
	sdk := &mocks.CodecSDK{Latency: 1}
	enc := New(sdk, logger.NewNoop())
	if err := enc.Initialize(newParams(ctx, ports.PixelFormatNV12)); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	src, _ := ctx.AllocBuffer(64, 32, ports.PixelFormatNV12)
	if _, err := enc.EncodeFrame(src); !errors.Is(err, ports.ErrNoOutput) {
		t.Fatalf("expected ErrNoOutput with latency, got %v", err)
	}

	pkt, err := enc.Flush()
	if err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if !pkt.KeyFrame {
		t.Error("flushed packet should be the key frame")
	}
	if _, err := enc.Flush(); !errors.Is(err, ports.ErrNothingToFlush) {
		t.Errorf("expected ErrNothingToFlush, got %v", err)
	}

	enc.Destroy()
	enc.Destroy()
	if !sdk.EncodeSessions[0].Closed {
		t.Error("session was not closed")
	}
	if _, err := enc.EncodeFrame(src); !errors.Is(err, ports.ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestEncoder_SDKPanicBecomesError(t *testing.T) {
	tests := []struct {
		name string
		arm  func(*mocks.EncodeSession)
		call func(*Encoder, ports.DeviceBuffer) error
	}{
		{
			name: "encode",
			arm:  func(s *mocks.EncodeSession) { s.Panic = "illegal address" },
			call: func(e *Encoder, src ports.DeviceBuffer) error {
				_, err := e.EncodeFrame(src)
				return err
			},
		},
		{
			name: "end encode",
			arm:  func(s *mocks.EncodeSession) { s.EndEncodePanic = "illegal address" },
			call: func(e *Encoder, _ ports.DeviceBuffer) error {
				_, err := e.Flush()
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := hostcompute.New()
			sdk := &mocks.CodecSDK{}
			enc := New(sdk, logger.NewNoop())
			defer enc.Destroy()
			if err := enc.Initialize(newParams(ctx, ports.PixelFormatNV12)); err != nil {
				t.Fatalf("Initialize failed: %v", err)
			}
			src, _ := ctx.AllocBuffer(64, 32, ports.PixelFormatNV12)
			tt.arm(sdk.EncodeSessions[0])

			if err := tt.call(enc, src); !errors.Is(err, ports.ErrSDKFailure) {
				t.Fatalf("expected ErrSDKFailure, got %v", err)
			}
		})
	}
}

func TestEncoder_AcquireInputErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      error
		retryable bool
	}{
		{"empty pool", ports.ErrNoInputBuffer, ports.ErrNoInputBuffer, true},
		{"session failure", errors.New("session ended"), ports.ErrSDKFailure, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := hostcompute.New()
			sdk := &mocks.CodecSDK{}
			enc := New(sdk, logger.NewNoop())
			defer enc.Destroy()
			if err := enc.Initialize(newParams(ctx, ports.PixelFormatNV12)); err != nil {
				t.Fatalf("Initialize failed: %v", err)
			}
			sdk.EncodeSessions[0].NextInputErr = tt.err

			src, _ := ctx.AllocBuffer(64, 32, ports.PixelFormatNV12)
			_, err := enc.EncodeFrame(src)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if got := errors.Is(err, ports.ErrNoInputBuffer); got != tt.retryable {
				t.Errorf("retryable = %v, want %v", got, tt.retryable)
			}
			if n := sdk.EncodeSessions[0].EncodeCalls; n != 0 {
				t.Errorf("Encode called %d times without an input buffer", n)
			}
		})
	}
}
