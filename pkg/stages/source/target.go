package source

import (
	"fmt"

	"github.com/phoohow/codec/pkg/adapters/hostcompute"
	"github.com/phoohow/codec/pkg/ports"
)

// GraphicsDevice is a graphics device that can allocate and fill textures.
type GraphicsDevice interface {
	ports.TextureAllocator
	ports.TextureUploader
}

// TextureTarget uploads frames into textures. Uploaded textures are left in
// ports.StateCopyDest.
type TextureTarget struct {
	device GraphicsDevice
}

// NewTextureTarget creates a target on device.
func NewTextureTarget(device GraphicsDevice) *TextureTarget {
	return &TextureTarget{device: device}
}

func (t *TextureTarget) Upload(index int, desc ports.TextureDesc, data []byte) (any, error) {
	tex, err := t.device.CreateTexture(desc, fmt.Sprintf("source-%04d", index))
	if err != nil {
		return nil, err
	}
	if err := t.device.WriteTexture(tex, data); err != nil {
		t.device.DestroyTexture(tex)
		return nil, err
	}
	return tex, nil
}

func (t *TextureTarget) Release(handle any) {
	if tex, ok := handle.(ports.Texture); ok {
		t.device.DestroyTexture(tex)
	}
}

// BufferTarget uploads frames into host-accessible compute buffers.
type BufferTarget struct {
	ctx ports.ComputeContext
}

// NewBufferTarget creates a target on ctx.
func NewBufferTarget(ctx ports.ComputeContext) *BufferTarget {
	return &BufferTarget{ctx: ctx}
}

func (t *BufferTarget) Upload(index int, desc ports.TextureDesc, data []byte) (any, error) {
	buf, err := t.ctx.AllocBuffer(desc.Width, desc.Height, desc.Format)
	if err != nil {
		return nil, err
	}
	if err := hostcompute.Unpack(buf, data); err != nil {
		t.ctx.FreeBuffer(buf)
		return nil, err
	}
	return buf, nil
}

func (t *BufferTarget) Release(handle any) {
	if buf, ok := handle.(ports.DeviceBuffer); ok {
		t.ctx.FreeBuffer(buf)
	}
}

var (
	_ Target = (*TextureTarget)(nil)
	_ Target = (*BufferTarget)(nil)
)
