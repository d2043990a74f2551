package hostcompute

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/phoohow/codec/pkg/ports"
)

func TestAllocBuffer_Pitch(t *testing.T) {
	tests := []struct {
		format    ports.PixelFormat
		w, h      int
		wantPitch int
		wantLen   int
	}{
		{ports.PixelFormatARGB8, 1920, 1080, 7680, 7680 * 1080},
		{ports.PixelFormatARGB8, 10, 2, 256, 512},
		{ports.PixelFormatNV12, 1920, 1080, 2048, 2048 * (1080 + 540)},
		{ports.PixelFormatNV12, 33, 3, 256, 256 * 5},
	}

	ctx := New()
	for _, tt := range tests {
		b, err := ctx.AllocBuffer(tt.w, tt.h, tt.format)
		if err != nil {
			t.Fatalf("AllocBuffer(%dx%d %s) failed: %v", tt.w, tt.h, tt.format, err)
		}
		if b.Pitch() != tt.wantPitch {
			t.Errorf("%s %dx%d: pitch = %d, want %d", tt.format, tt.w, tt.h, b.Pitch(), tt.wantPitch)
		}
		if n := len(b.(*Buffer).Bytes()); n != tt.wantLen {
			t.Errorf("%s %dx%d: len = %d, want %d", tt.format, tt.w, tt.h, n, tt.wantLen)
		}
	}
	if ctx.Live() != len(tests) {
		t.Errorf("Live = %d, want %d", ctx.Live(), len(tests))
	}
}

func TestAllocBuffer_Errors(t *testing.T) {
	ctx := New()
	if _, err := ctx.AllocBuffer(0, 10, ports.PixelFormatARGB8); !errors.Is(err, ports.ErrInvalidParams) {
		t.Errorf("expected ErrInvalidParams, got %v", err)
	}
	if _, err := ctx.AllocBuffer(10, 10, ports.PixelFormatUnknown); !errors.Is(err, ports.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestPackUnpack(t *testing.T) {
	ctx := New()
	for _, format := range []ports.PixelFormat{ports.PixelFormatARGB8, ports.PixelFormatNV12} {
		b, err := ctx.AllocBuffer(7, 5, format)
		if err != nil {
			t.Fatalf("AllocBuffer failed: %v", err)
		}
		data := make([]byte, format.FrameSize(7, 5))
		for i := range data {
			data[i] = byte(i)
		}

		if err := Unpack(b, data); err != nil {
			t.Fatalf("%s: Unpack failed: %v", format, err)
		}
		got, err := Pack(b)
		if err != nil {
			t.Fatalf("%s: Pack failed: %v", format, err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("%s: packed data does not round trip", format)
		}

		if err := Unpack(b, data[1:]); !errors.Is(err, ErrSizeMismatch) {
			t.Errorf("%s: expected ErrSizeMismatch, got %v", format, err)
		}
	}
}

func TestCopyBuffer_OverlappingRegion(t *testing.T) {
	ctx := New()
	src, _ := ctx.AllocBuffer(4, 4, ports.PixelFormatARGB8)
	dst, _ := ctx.AllocBuffer(2, 6, ports.PixelFormatARGB8)

	data := bytes.Repeat([]byte{0xab}, ports.PixelFormatARGB8.FrameSize(4, 4))
	if err := Unpack(src, data); err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
	if err := ctx.CopyBuffer(dst, src); err != nil {
		t.Fatalf("CopyBuffer failed: %v", err)
	}

	got, _ := Pack(dst)
	for y := 0; y < 6; y++ {
		row := got[y*8 : y*8+8]
		want := byte(0xab)
		if y >= 4 {
			want = 0
		}
		for _, v := range row {
			if v != want {
				t.Fatalf("row %d = %x, want all %x", y, row, want)
			}
		}
	}
}

func TestCopyBuffer_Errors(t *testing.T) {
	ctx := New()
	other := New()
	a, _ := ctx.AllocBuffer(4, 4, ports.PixelFormatARGB8)
	b, _ := ctx.AllocBuffer(4, 4, ports.PixelFormatNV12)
	c, _ := other.AllocBuffer(4, 4, ports.PixelFormatARGB8)

	if err := ctx.CopyBuffer(a, b); !errors.Is(err, ports.ErrUnsupportedFormat) {
		t.Errorf("format mismatch: expected ErrUnsupportedFormat, got %v", err)
	}
	if err := ctx.CopyBuffer(a, c); !errors.Is(err, ErrForeignBuffer) {
		t.Errorf("foreign buffer: expected ErrForeignBuffer, got %v", err)
	}

	ctx.FreeBuffer(a)
	ctx.FreeBuffer(a)
	if err := ctx.CopyBuffer(a, a); !errors.Is(err, ErrFreed) {
		t.Errorf("freed buffer: expected ErrFreed, got %v", err)
	}
	if ctx.Live() != 1 {
		t.Errorf("Live = %d, want 1", ctx.Live())
	}
}

func TestContext_FreeWhileInUse(t *testing.T) {
	ctx := New()
	frame := make([]byte, ports.PixelFormatNV12.FrameSize(16, 16))

	var bufs []ports.DeviceBuffer
	for i := 0; i < 8; i++ {
		b, err := ctx.AllocBuffer(16, 16, ports.PixelFormatNV12)
		if err != nil {
			t.Fatalf("AllocBuffer failed: %v", err)
		}
		bufs = append(bufs, b)
	}
	dst, _ := ctx.AllocBuffer(16, 16, ports.PixelFormatNV12)

	var wg sync.WaitGroup
	errs := make(chan error, 3*len(bufs))
	for _, b := range bufs {
		wg.Add(4)
		go func(b ports.DeviceBuffer) {
			defer wg.Done()
			_, err := Pack(b)
			errs <- err
		}(b)
		go func(b ports.DeviceBuffer) {
			defer wg.Done()
			errs <- Unpack(b, frame)
		}(b)
		go func(b ports.DeviceBuffer) {
			defer wg.Done()
			errs <- ctx.CopyBuffer(dst, b)
		}(b)
		go func(b ports.DeviceBuffer) {
			defer wg.Done()
			ctx.FreeBuffer(b)
		}(b)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil && !errors.Is(err, ErrFreed) {
			t.Errorf("expected nil or ErrFreed, got %v", err)
		}
	}
	if ctx.Live() != 1 {
		t.Errorf("Live = %d, want 1", ctx.Live())
	}
}

func TestFreeBuffer_TypedNil(t *testing.T) {
	ctx := New()
	var b *Buffer
	ctx.FreeBuffer(b)
	if _, err := Pack(b); !errors.Is(err, ErrForeignBuffer) {
		t.Errorf("Pack(nil): expected ErrForeignBuffer, got %v", err)
	}
}
