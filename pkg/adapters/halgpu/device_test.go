//go:build !nogpu

package halgpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/phoohow/codec/pkg/adapters/gpucopy"
	"github.com/phoohow/codec/pkg/adapters/logger"
	"github.com/phoohow/codec/pkg/mocks"
	"github.com/phoohow/codec/pkg/ports"
)

func openNoop(t *testing.T) *Device {
	t.Helper()
	d, err := Open(BackendNoop, logger.NewNoop())
	if err != nil {
		t.Fatalf("Open(noop) failed: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func TestOpen_Noop(t *testing.T) {
	d := openNoop(t)
	if d.Backend() != BackendNoop {
		t.Errorf("Backend = %q, want noop", d.Backend())
	}
	dev, queue := d.HAL()
	if dev == nil || queue == nil {
		t.Fatal("expected a device and queue")
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := Open("metal-on-toaster", logger.NewNoop()); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestUsageFor(t *testing.T) {
	tests := []struct {
		state ports.ResourceState
		want  gputypes.TextureUsage
	}{
		{ports.StateCopySource, gputypes.TextureUsageCopySrc},
		{ports.StateCopyDest, gputypes.TextureUsageCopyDst},
		{ports.StatePresent, gputypes.TextureUsageRenderAttachment},
		{ports.StateRenderTarget, gputypes.TextureUsageRenderAttachment},
		{ports.StateShaderResource, gputypes.TextureUsageTextureBinding},
		{ports.StateCommon, gputypes.TextureUsage(0)},
	}
	for _, tt := range tests {
		if got := usageFor(tt.state); got != tt.want {
			t.Errorf("usageFor(%s) = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestCreateTexture(t *testing.T) {
	d := openNoop(t)

	tex, err := d.CreateTexture(ports.TextureDesc{Width: 320, Height: 240, Format: ports.PixelFormatARGB8}, "frame")
	if err != nil {
		t.Fatalf("CreateTexture failed: %v", err)
	}
	defer d.DestroyTexture(tex)

	if got := tex.Desc(); got.Width != 320 || got.Height != 240 {
		t.Errorf("Desc = %+v", got)
	}

	if _, err := d.CreateTexture(ports.TextureDesc{Width: 16, Height: 16, Format: ports.PixelFormatNV12}, "nv12"); !errors.Is(err, ports.ErrUnsupportedFormat) {
		t.Errorf("NV12 texture: expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := d.CreateTexture(ports.TextureDesc{Width: 0, Height: 16, Format: ports.PixelFormatARGB8}, "empty"); !errors.Is(err, ports.ErrInvalidParams) {
		t.Errorf("empty texture: expected ErrInvalidParams, got %v", err)
	}
}

func TestWriteTexture_SizeCheck(t *testing.T) {
	d := openNoop(t)
	tex, err := d.CreateTexture(ports.TextureDesc{Width: 8, Height: 8, Format: ports.PixelFormatARGB8}, "frame")
	if err != nil {
		t.Fatalf("CreateTexture failed: %v", err)
	}
	defer d.DestroyTexture(tex)

	if err := d.WriteTexture(tex, make([]byte, 8*8*4)); err != nil {
		t.Errorf("WriteTexture failed: %v", err)
	}
	if err := d.WriteTexture(tex, make([]byte, 10)); !errors.Is(err, ports.ErrInvalidFrame) {
		t.Errorf("short upload: expected ErrInvalidFrame, got %v", err)
	}
	if err := d.WriteTexture(mocks.NewTexture("foreign", 8, 8, ports.StateCommon), nil); !errors.Is(err, ErrForeignObject) {
		t.Errorf("foreign texture: expected ErrForeignObject, got %v", err)
	}
}

func TestCopyPipeline_OnNoopDevice(t *testing.T) {
	d := openNoop(t)
	src, err := d.CreateTexture(ports.TextureDesc{Width: 1920, Height: 1080, Format: ports.PixelFormatARGB8}, "src")
	if err != nil {
		t.Fatalf("CreateTexture failed: %v", err)
	}
	defer d.DestroyTexture(src)
	dst, err := d.CreateTexture(ports.TextureDesc{Width: 1280, Height: 720, Format: ports.PixelFormatARGB8}, "dst")
	if err != nil {
		t.Fatalf("CreateTexture failed: %v", err)
	}
	defer d.DestroyTexture(dst)

	p := gpucopy.New(d, logger.NewNoop())
	for i := 0; i < 3; i++ {
		if err := p.Copy(src, dst); err != nil {
			t.Fatalf("Copy %d failed: %v", i, err)
		}
	}
}

func TestCommandList_ForeignTexture(t *testing.T) {
	d := openNoop(t)
	dst, err := d.CreateTexture(ports.TextureDesc{Width: 8, Height: 8, Format: ports.PixelFormatARGB8}, "dst")
	if err != nil {
		t.Fatalf("CreateTexture failed: %v", err)
	}
	defer d.DestroyTexture(dst)

	err = gpucopy.New(d, logger.NewNoop()).Copy(mocks.NewTexture("foreign", 8, 8, ports.StatePresent), dst)
	if !errors.Is(err, ErrForeignObject) {
		t.Fatalf("expected ErrForeignObject, got %v", err)
	}
	if !errors.Is(err, ports.ErrDeviceFailure) {
		t.Errorf("expected ErrDeviceFailure, got %v", err)
	}
}

func TestFence_CompletedValue(t *testing.T) {
	d := openNoop(t)

	f, err := d.CreateFence(0)
	if err != nil {
		t.Fatalf("CreateFence failed: %v", err)
	}
	defer f.Release()
	if v := f.CompletedValue(); v != 0 {
		t.Errorf("fresh fence CompletedValue = %d, want 0", v)
	}

	q, _ := d.CreateCommandQueue(ports.QueueDirect)
	defer q.Release()
	if err := q.Signal(f, 1); err != nil {
		t.Fatalf("Signal failed: %v", err)
	}

	ev, _ := d.CreateEvent()
	defer ev.Close()
	if err := f.SetEventOnCompletion(1, ev); err != nil {
		t.Fatalf("SetEventOnCompletion failed: %v", err)
	}
	if err := ev.Wait(0); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if v := f.CompletedValue(); v != 1 {
		t.Errorf("CompletedValue after wait = %d, want 1", v)
	}
}
