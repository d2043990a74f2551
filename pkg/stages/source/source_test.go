package source

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/phoohow/codec/pkg/adapters/ggrenderer"
	"github.com/phoohow/codec/pkg/adapters/hostcompute"
	"github.com/phoohow/codec/pkg/adapters/logger"
	"github.com/phoohow/codec/pkg/mocks"
	"github.com/phoohow/codec/pkg/pipeline"
	"github.com/phoohow/codec/pkg/ports"
)

func TestStage_Textures(t *testing.T) {
	dev := mocks.NewGraphicsDevice()
	sink := mocks.NewDebugSink(true)
	renderer := &mocks.Renderer{}
	stage := NewStage(renderer, NewTextureTarget(dev), sink, logger.NewNoop())

	result, err := stage.Execute(context.Background(), pipeline.SourceInput{Width: 64, Height: 48, Frames: 3, Format: ports.PixelFormatARGB8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer result.Release()

	if len(result.Frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(result.Frames))
	}
	for i, f := range result.Frames {
		tex, ok := f.Handle.(*mocks.Texture)
		if !ok {
			t.Fatalf("frame %d handle is %T", i, f.Handle)
		}
		if f.Index != i {
			t.Errorf("frame %d index = %d", i, f.Index)
		}
		if tex.State != ports.StateCopyDest {
			t.Errorf("frame %d state = %s, want copy-dest", i, tex.State)
		}
		if len(tex.Data) != ports.PixelFormatARGB8.FrameSize(64, 48) {
			t.Errorf("frame %d uploaded %d bytes", i, len(tex.Data))
		}
	}
	if len(renderer.PackCalls) != 3 || renderer.PackCalls[0] != ports.PixelFormatARGB8 {
		t.Errorf("unexpected pack calls: %v", renderer.PackCalls)
	}
	if len(sink.SourceFrames) != 3 {
		t.Errorf("expected 3 debug frames, got %d", len(sink.SourceFrames))
	}
}

func TestStage_Buffers(t *testing.T) {
	ctx := hostcompute.New()
	stage := NewStage(ggrenderer.New(), NewBufferTarget(ctx), mocks.NewDebugSink(false), logger.NewNoop())

	result, err := stage.Execute(context.Background(), pipeline.SourceInput{Width: 64, Height: 48, Frames: 2, Format: ports.PixelFormatNV12})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.Live() != 2 {
		t.Fatalf("expected 2 live buffers, got %d", ctx.Live())
	}

	buf := result.Frames[0].Handle.(ports.DeviceBuffer)
	data, err := hostcompute.Pack(buf)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	// Top-left pixel is the first colour bar, so luma is well above black.
	if data[0] <= 16 {
		t.Errorf("expected bright luma in the bar area, got %d", data[0])
	}

	result.Release()
	result.Release()
	if ctx.Live() != 0 {
		t.Errorf("expected all buffers freed, got %d live", ctx.Live())
	}
}

func TestStage_FramesDiffer(t *testing.T) {
	stage := NewStage(ggrenderer.New(), nil, mocks.NewDebugSink(false), logger.NewNoop())

	first := stage.Render(0, 10, 128, 96).(*image.RGBA)
	last := stage.Render(9, 10, 128, 96).(*image.RGBA)
	if string(first.Pix) == string(last.Pix) {
		t.Error("expected the sweeping box to change the frame")
	}
}

func TestStage_UploadFailureReleases(t *testing.T) {
	ctx := hostcompute.New()
	renderer := &mocks.Renderer{}
	calls := 0
	renderer.PackPixelsFunc = func(img image.Image, format ports.PixelFormat) ([]byte, error) {
		calls++
		if calls == 3 {
			return []byte{1}, nil
		}
		return make([]byte, format.FrameSize(32, 32)), nil
	}
	stage := NewStage(renderer, NewBufferTarget(ctx), mocks.NewDebugSink(false), logger.NewNoop())

	_, err := stage.Execute(context.Background(), pipeline.SourceInput{Width: 32, Height: 32, Frames: 5, Format: ports.PixelFormatNV12})
	if !errors.Is(err, hostcompute.ErrSizeMismatch) {
		t.Fatalf("expected ErrSizeMismatch, got %v", err)
	}
	if ctx.Live() != 0 {
		t.Errorf("expected no live buffers after failure, got %d", ctx.Live())
	}
}

func TestStage_InvalidInput(t *testing.T) {
	stage := NewStage(&mocks.Renderer{}, NewBufferTarget(hostcompute.New()), mocks.NewDebugSink(false), logger.NewNoop())

	tests := []pipeline.SourceInput{
		{Width: 0, Height: 48, Frames: 1},
		{Width: 64, Height: -1, Frames: 1},
		{Width: 64, Height: 48, Frames: 0},
	}
	for _, in := range tests {
		if _, err := stage.Execute(context.Background(), in); !errors.Is(err, ports.ErrInvalidParams) {
			t.Errorf("%+v: expected ErrInvalidParams, got %v", in, err)
		}
	}
}

func TestStage_ContextCanceled(t *testing.T) {
	ctx := hostcompute.New()
	stage := NewStage(&mocks.Renderer{}, NewBufferTarget(ctx), mocks.NewDebugSink(false), logger.NewNoop())

	c, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := stage.Execute(c, pipeline.SourceInput{Width: 8, Height: 8, Frames: 2, Format: ports.PixelFormatNV12}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if ctx.Live() != 0 {
		t.Errorf("expected no live buffers, got %d", ctx.Live())
	}
}
