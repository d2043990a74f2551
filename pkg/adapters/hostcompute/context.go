// Package hostcompute implements ports.ComputeContext on host memory.
// Buffers are pitched like device allocations (rows aligned to PitchAlignment)
// and expose their bytes through ports.HostAccessible, so frames can be staged
// for an out-of-process codec without a compute driver.
package hostcompute

import (
	"errors"
	"fmt"
	"sync"

	"github.com/phoohow/codec/pkg/ports"
)

// PitchAlignment is the row stride alignment of every allocation.
const PitchAlignment = 256

var (
	// ErrForeignBuffer is returned for buffers not allocated by this context.
	ErrForeignBuffer = errors.New("hostcompute: buffer not owned by this context")

	// ErrFreed is returned when a released buffer is used.
	ErrFreed = errors.New("hostcompute: buffer already freed")

	// ErrSizeMismatch is returned when packed data does not match a buffer.
	ErrSizeMismatch = errors.New("hostcompute: data size does not match buffer")
)

// plane is one row-addressed region of a frame.
type plane struct {
	rowBytes int
	rows     int
}

func planes(format ports.PixelFormat, width, height int) []plane {
	switch format {
	case ports.PixelFormatRGBA8, ports.PixelFormatARGB8, ports.PixelFormatBGRA8:
		return []plane{{rowBytes: width * 4, rows: height}}
	case ports.PixelFormatNV12:
		return []plane{
			{rowBytes: width, rows: height},
			{rowBytes: 2 * ((width + 1) / 2), rows: (height + 1) / 2},
		}
	default:
		return nil
	}
}

// Buffer is a pitched host allocation.
type Buffer struct {
	ctx    *Context
	width  int
	height int
	pitch  int
	format ports.PixelFormat
	planes []plane
	data   []byte
	freed  bool
}

func (b *Buffer) Width() int                { return b.width }
func (b *Buffer) Height() int               { return b.height }
func (b *Buffer) Pitch() int                { return b.pitch }
func (b *Buffer) Format() ports.PixelFormat { return b.format }

// Bytes returns the backing memory, pitch-strided, planes stacked. The slice
// is not guarded by the context lock and must not be used after FreeBuffer.
func (b *Buffer) Bytes() []byte { return b.data }

// Context is a host-memory compute context.
type Context struct {
	mu   sync.Mutex
	live map[*Buffer]struct{}
}

// New creates an empty context.
func New() *Context {
	return &Context{live: make(map[*Buffer]struct{})}
}

// AllocBuffer allocates a zeroed pitched buffer.
func (c *Context) AllocBuffer(width, height int, format ports.PixelFormat) (ports.DeviceBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: buffer size %dx%d", ports.ErrInvalidParams, width, height)
	}
	ps := planes(format, width, height)
	if ps == nil {
		return nil, fmt.Errorf("%w: %s", ports.ErrUnsupportedFormat, format)
	}

	pitch := 0
	rows := 0
	for _, p := range ps {
		pitch = max(pitch, p.rowBytes)
		rows += p.rows
	}
	pitch = (pitch + PitchAlignment - 1) / PitchAlignment * PitchAlignment

	b := &Buffer{
		ctx:    c,
		width:  width,
		height: height,
		pitch:  pitch,
		format: format,
		planes: ps,
		data:   make([]byte, pitch*rows),
	}
	c.mu.Lock()
	c.live[b] = struct{}{}
	c.mu.Unlock()
	return b, nil
}

// CopyBuffer copies the overlapping region of src into dst, plane by plane.
// Both buffers must belong to c and share a pixel format.
func (c *Context) CopyBuffer(dst, src ports.DeviceBuffer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, err := c.own(dst)
	if err != nil {
		return err
	}
	s, err := c.own(src)
	if err != nil {
		return err
	}
	if d.format != s.format {
		return fmt.Errorf("%w: copy %s into %s", ports.ErrUnsupportedFormat, s.format, d.format)
	}

	dOff, sOff := 0, 0
	for i := range d.planes {
		dp, sp := d.planes[i], s.planes[i]
		n := min(dp.rowBytes, sp.rowBytes)
		for y := 0; y < min(dp.rows, sp.rows); y++ {
			copy(d.data[dOff+y*d.pitch:dOff+y*d.pitch+n], s.data[sOff+y*s.pitch:sOff+y*s.pitch+n])
		}
		dOff += dp.rows * d.pitch
		sOff += sp.rows * s.pitch
	}
	return nil
}

// FreeBuffer releases b. Freeing twice or freeing a foreign buffer is a no-op.
func (c *Context) FreeBuffer(b ports.DeviceBuffer) {
	hb, ok := b.(*Buffer)
	if !ok || hb == nil || hb.ctx != c {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.live[hb]; !ok {
		return
	}
	delete(c.live, hb)
	hb.freed = true
	hb.data = nil
}

// Live returns the number of allocated, unfreed buffers.
func (c *Context) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live)
}

// own resolves b to a live buffer of c. c.mu must be held.
func (c *Context) own(b ports.DeviceBuffer) (*Buffer, error) {
	hb, ok := b.(*Buffer)
	if !ok || hb == nil || hb.ctx != c {
		return nil, fmt.Errorf("%w: %T", ErrForeignBuffer, b)
	}
	if hb.freed {
		return nil, ErrFreed
	}
	return hb, nil
}

// Pack returns the contents of b as a tightly packed frame.
func Pack(b ports.DeviceBuffer) ([]byte, error) {
	hb, ok := b.(*Buffer)
	if !ok || hb == nil || hb.ctx == nil {
		return nil, fmt.Errorf("%w: %T", ErrForeignBuffer, b)
	}
	hb.ctx.mu.Lock()
	defer hb.ctx.mu.Unlock()
	if hb.freed {
		return nil, ErrFreed
	}
	out := make([]byte, 0, hb.format.FrameSize(hb.width, hb.height))
	off := 0
	for _, p := range hb.planes {
		for y := 0; y < p.rows; y++ {
			out = append(out, hb.data[off+y*hb.pitch:off+y*hb.pitch+p.rowBytes]...)
		}
		off += p.rows * hb.pitch
	}
	return out, nil
}

// Unpack fills b from a tightly packed frame.
func Unpack(b ports.DeviceBuffer, data []byte) error {
	hb, ok := b.(*Buffer)
	if !ok || hb == nil || hb.ctx == nil {
		return fmt.Errorf("%w: %T", ErrForeignBuffer, b)
	}
	hb.ctx.mu.Lock()
	defer hb.ctx.mu.Unlock()
	if hb.freed {
		return ErrFreed
	}
	if want := hb.format.FrameSize(hb.width, hb.height); len(data) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, len(data), want)
	}
	off, src := 0, 0
	for _, p := range hb.planes {
		for y := 0; y < p.rows; y++ {
			copy(hb.data[off+y*hb.pitch:], data[src:src+p.rowBytes])
			src += p.rowBytes
		}
		off += p.rows * hb.pitch
	}
	return nil
}

var (
	_ ports.ComputeContext = (*Context)(nil)
	_ ports.DeviceBuffer   = (*Buffer)(nil)
	_ ports.HostAccessible = (*Buffer)(nil)
)
