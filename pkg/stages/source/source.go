// Package source implements the test-pattern source stage. Each frame is
// rendered on a canvas, packed into the session pixel format and uploaded
// into a device-resident frame.
package source

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/phoohow/codec/pkg/pipeline"
	"github.com/phoohow/codec/pkg/ports"
)

// Target uploads packed frames into backend-specific frame handles.
type Target interface {
	// Upload creates a frame handle holding data and returns it.
	Upload(index int, desc ports.TextureDesc, data []byte) (any, error)
	// Release frees a handle returned by Upload.
	Release(handle any)
}

// Stage renders and uploads the test pattern.
type Stage struct {
	renderer ports.Renderer
	target   Target
	sink     ports.DebugSink
	logger   ports.Logger
}

// NewStage creates a new source stage.
func NewStage(renderer ports.Renderer, target Target, sink ports.DebugSink, logger ports.Logger) *Stage {
	return &Stage{
		renderer: renderer,
		target:   target,
		sink:     sink,
		logger:   logger.WithComponent("source"),
	}
}

// Execute renders input.Frames frames. On error every frame uploaded so far
// is released.
func (s *Stage) Execute(ctx context.Context, input pipeline.SourceInput) (pipeline.SourceResult, error) {
	result := pipeline.SourceResult{Release: func() {}}

	if input.Width <= 0 || input.Height <= 0 || input.Frames <= 0 {
		return result, fmt.Errorf("%w: %d frames of %dx%d", ports.ErrInvalidParams, input.Frames, input.Width, input.Height)
	}

	desc := ports.TextureDesc{Width: input.Width, Height: input.Height, Format: input.Format}
	frames := make([]pipeline.SourceFrame, 0, input.Frames)
	release := func() {
		for _, f := range frames {
			s.target.Release(f.Handle)
		}
		frames = nil
	}

	for i := 0; i < input.Frames; i++ {
		select {
		case <-ctx.Done():
			release()
			return result, ctx.Err()
		default:
		}

		img := s.Render(i, input.Frames, input.Width, input.Height)
		if s.sink.Enabled() {
			if err := s.sink.SaveSourceFrame(i, img); err != nil {
				s.logger.Warn("Failed to save source frame %d: %v", i, err)
			}
		}

		data, err := s.renderer.PackPixels(img, input.Format)
		if err != nil {
			release()
			return result, fmt.Errorf("pack frame %d: %w", i, err)
		}
		handle, err := s.target.Upload(i, desc, data)
		if err != nil {
			release()
			return result, fmt.Errorf("upload frame %d: %w", i, err)
		}
		frames = append(frames, pipeline.SourceFrame{Index: i, Handle: handle})
	}

	s.logger.Debug("Uploaded %d %s frames of %dx%d", len(frames), input.Format, input.Width, input.Height)
	result.Frames = frames
	result.Release = release
	return result, nil
}

// barColors are the SMPTE-style bars drawn across the top of each frame.
var barColors = []color.RGBA{
	{R: 192, G: 192, B: 192, A: 255},
	{R: 192, G: 192, B: 0, A: 255},
	{R: 0, G: 192, B: 192, A: 255},
	{R: 0, G: 192, B: 0, A: 255},
	{R: 192, G: 0, B: 192, A: 255},
	{R: 192, G: 0, B: 0, A: 255},
	{R: 0, G: 0, B: 192, A: 255},
}

// Render draws frame index of total: colour bars, a box sweeping left to
// right and the frame counter.
func (s *Stage) Render(index, total, width, height int) image.Image {
	canvas := s.renderer.CreateCanvas(width, height, color.RGBA{R: 16, G: 16, B: 24, A: 255})

	barW := max(width/len(barColors), 1)
	barH := height / 2
	for i, c := range barColors {
		canvas.DrawRect(i*barW, 0, barW, barH, c)
	}

	box := max(height/6, 2)
	travel := max(width-box, 1)
	x := 0
	if total > 1 {
		x = index * travel / (total - 1)
	}
	canvas.DrawRect(x, barH+box/2, box, box, color.White)
	canvas.DrawLine(0, barH, width, barH, color.Black, 2)

	scale := max(float64(height)/240, 1)
	canvas.DrawText(fmt.Sprintf("FRAME %04d", index), width/2, height-height/6, ports.TextStyle{
		Scale: scale,
		Color: color.White,
		Align: ports.AlignCenter,
	})
	return canvas.ToImage()
}
