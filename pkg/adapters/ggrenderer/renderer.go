// Package ggrenderer draws test frames with the gg library and packs them
// into the raw layouts the encoders ingest.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font/basicfont"

	"github.com/phoohow/codec/pkg/ports"
)

// Renderer implements ports.Renderer using the gg library.
type Renderer struct{}

// New creates a new Renderer.
func New() *Renderer {
	return &Renderer{}
}

// CreateCanvas creates a new drawing canvas.
func (r *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	dc := gg.NewContext(width, height)
	dc.SetColor(bg)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)
	return &Canvas{dc: dc}
}

// EncodeImage encodes an image to the specified format.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case ports.FormatJPEG:
		opts := &jpeg.Options{Quality: quality}
		if err := jpeg.Encode(&buf, img, opts); err != nil {
			return nil, fmt.Errorf("encode JPEG: %w", err)
		}
	case ports.FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}

	return buf.Bytes(), nil
}

// ResizeImage resizes an image to the specified dimensions.
func (r *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// PackPixels converts img to a tightly packed frame. ARGB8 and BGRA8 share
// the B,G,R,A memory order. NV12 uses BT.601 limited range with 2x2
// averaged chroma.
func (r *Renderer) PackPixels(img image.Image, format ports.PixelFormat) ([]byte, error) {
	rgba := toRGBA(img)
	w, h := rgba.Bounds().Dx(), rgba.Bounds().Dy()

	switch format {
	case ports.PixelFormatRGBA8:
		out := make([]byte, 0, w*h*4)
		for y := 0; y < h; y++ {
			out = append(out, rgba.Pix[y*rgba.Stride:y*rgba.Stride+w*4]...)
		}
		return out, nil
	case ports.PixelFormatARGB8, ports.PixelFormatBGRA8:
		out := make([]byte, w*h*4)
		for y := 0; y < h; y++ {
			row := rgba.Pix[y*rgba.Stride:]
			for x := 0; x < w; x++ {
				s, d := row[x*4:], out[(y*w+x)*4:]
				d[0], d[1], d[2], d[3] = s[2], s[1], s[0], s[3]
			}
		}
		return out, nil
	case ports.PixelFormatNV12:
		return packNV12(rgba), nil
	default:
		return nil, fmt.Errorf("%w: %s", ports.ErrUnsupportedFormat, format)
	}
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

func packNV12(rgba *image.RGBA) []byte {
	w, h := rgba.Bounds().Dx(), rgba.Bounds().Dy()
	cw, ch := (w+1)/2, (h+1)/2
	out := make([]byte, ports.PixelFormatNV12.FrameSize(w, h))
	uv := out[w*h:]

	px := func(x, y int) (int, int, int) {
		p := rgba.Pix[y*rgba.Stride+x*4:]
		return int(p[0]), int(p[1]), int(p[2])
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b := px(x, y)
			out[y*w+x] = clamp(((66*r+129*g+25*b+128)>>8)+16)
		}
	}
	for cy := 0; cy < ch; cy++ {
		for cx := 0; cx < cw; cx++ {
			var sr, sg, sb, n int
			for dy := 0; dy < 2 && 2*cy+dy < h; dy++ {
				for dx := 0; dx < 2 && 2*cx+dx < w; dx++ {
					r, g, b := px(2*cx+dx, 2*cy+dy)
					sr, sg, sb, n = sr+r, sg+g, sb+b, n+1
				}
			}
			r, g, b := sr/n, sg/n, sb/n
			uv[(cy*cw+cx)*2] = clamp(((-38*r-74*g+112*b+128)>>8)+128)
			uv[(cy*cw+cx)*2+1] = clamp(((112*r-94*g-18*b+128)>>8)+128)
		}
	}
	return out
}

func clamp(v int) byte {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return byte(v)
	}
}

// Ensure Renderer implements ports.Renderer
var _ ports.Renderer = (*Renderer)(nil)

// Canvas implements ports.Canvas using gg.Context.
type Canvas struct {
	dc *gg.Context
}

// DrawRect draws a filled rectangle.
func (c *Canvas) DrawRect(x, y, w, h int, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawRectangle(float64(x), float64(y), float64(w), float64(h))
	c.dc.Fill()
}

// DrawRectStroke draws a rectangle outline.
func (c *Canvas) DrawRectStroke(x, y, w, h int, col color.Color, strokeWidth float64) {
	c.dc.SetColor(col)
	c.dc.SetLineWidth(strokeWidth)
	c.dc.DrawRectangle(float64(x), float64(y), float64(w), float64(h))
	c.dc.Stroke()
}

// DrawText draws text with the built-in bitmap font, scaled by style.Scale.
func (c *Canvas) DrawText(text string, x, y int, style ports.TextStyle) {
	scale := style.Scale
	if scale <= 0 {
		scale = 1
	}

	ax := 0.0
	switch style.Align {
	case ports.AlignCenter:
		ax = 0.5
	case ports.AlignRight:
		ax = 1.0
	}

	c.dc.Push()
	defer c.dc.Pop()
	c.dc.SetColor(style.Color)
	c.dc.Translate(float64(x), float64(y))
	c.dc.Scale(scale, scale)
	c.dc.DrawStringAnchored(text, 0, 0, ax, 0.5)
}

// DrawLine draws a line between two points.
func (c *Canvas) DrawLine(x1, y1, x2, y2 int, col color.Color, width float64) {
	c.dc.SetColor(col)
	c.dc.SetLineWidth(width)
	c.dc.DrawLine(float64(x1), float64(y1), float64(x2), float64(y2))
	c.dc.Stroke()
}

// ToImage returns the canvas as an image.Image.
func (c *Canvas) ToImage() image.Image {
	return c.dc.Image()
}

// Ensure Canvas implements ports.Canvas
var _ ports.Canvas = (*Canvas)(nil)
