package halgpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/phoohow/codec/pkg/ports"
)

// copyPitchAlignment is the row alignment required for buffer-texture copies.
const copyPitchAlignment = 256

// readbackTimeout bounds the fence wait of ReadTexture.
const readbackTimeout = 5 * time.Second

// Texture is a 2D hal texture.
type Texture struct {
	raw   hal.Texture
	desc  ports.TextureDesc
	label string
}

func (t *Texture) Desc() ports.TextureDesc { return t.desc }

// Raw returns the hal texture.
func (t *Texture) Raw() hal.Texture { return t.raw }

func (t *Texture) String() string { return t.label }

// textureFormat maps a pixel format to its hal texture format. ARGB8 is
// stored B,G,R,A in memory, which is BGRA8Unorm.
func textureFormat(p ports.PixelFormat) (gputypes.TextureFormat, error) {
	switch p {
	case ports.PixelFormatARGB8, ports.PixelFormatBGRA8:
		return gputypes.TextureFormatBGRA8Unorm, nil
	case ports.PixelFormatRGBA8:
		return gputypes.TextureFormatRGBA8Unorm, nil
	default:
		var none gputypes.TextureFormat
		return none, fmt.Errorf("%w: no texture format for %s", ports.ErrUnsupportedFormat, p)
	}
}

// CreateTexture creates a texture usable as copy source, copy destination,
// render target and shader resource.
func (d *Device) CreateTexture(desc ports.TextureDesc, label string) (ports.Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("%w: texture size %dx%d", ports.ErrInvalidParams, desc.Width, desc.Height)
	}
	format, err := textureFormat(desc.Format)
	if err != nil {
		return nil, err
	}
	usage := gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst |
		gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding
	raw, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              uint32(desc.Width),
			Height:             uint32(desc.Height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %s: %w", label, err)
	}
	return &Texture{raw: raw, desc: desc, label: label}, nil
}

// DestroyTexture releases t. Foreign textures are ignored.
func (d *Device) DestroyTexture(t ports.Texture) {
	if ht, ok := t.(*Texture); ok && ht.raw != nil {
		d.device.DestroyTexture(ht.raw)
		ht.raw = nil
	}
}

// WriteTexture uploads a tightly packed frame through the queue. The
// texture is left in ports.StateCopyDest.
func (d *Device) WriteTexture(t ports.Texture, data []byte) error {
	ht, ok := t.(*Texture)
	if !ok {
		return fmt.Errorf("%w: texture %T", ErrForeignObject, t)
	}
	w, h := uint32(ht.desc.Width), uint32(ht.desc.Height)
	if want := ht.desc.Format.FrameSize(ht.desc.Width, ht.desc.Height); len(data) != want {
		return fmt.Errorf("%w: upload of %d bytes into %dx%d %s", ports.ErrInvalidFrame, len(data), w, h, ht.desc.Format)
	}
	d.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  ht.raw,
			MipLevel: 0,
			Origin:   hal.Origin3D{},
			Aspect:   gputypes.TextureAspectAll,
		},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  w * 4,
			RowsPerImage: h,
		},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	return nil
}

// ReadTexture copies t, currently in state, into a staging buffer and
// returns its tightly packed contents. t is returned to state afterwards.
func (d *Device) ReadTexture(t ports.Texture, state ports.ResourceState) ([]byte, error) {
	ht, ok := t.(*Texture)
	if !ok {
		return nil, fmt.Errorf("%w: texture %T", ErrForeignObject, t)
	}
	w, h := uint32(ht.desc.Width), uint32(ht.desc.Height)
	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "codec-readback-encoder"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("codec-readback"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "codec-readback-staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: ht.raw,
		Usage: hal.TextureUsageTransition{
			OldUsage: usageFor(state),
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(ht.raw, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: ht.raw, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: ht.raw,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: usageFor(state),
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := d.device.Wait(fence, 1, readbackTimeout)
	if err != nil {
		return nil, fmt.Errorf("wait for GPU: %w", err)
	}
	if !fenceOK {
		return nil, fmt.Errorf("wait for GPU: %w", ports.ErrFenceTimeout)
	}

	readback := make([]byte, stagingSize)
	if err := d.queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}
	if alignedBytesPerRow == bytesPerRow {
		return readback, nil
	}
	tight := make([]byte, uint64(bytesPerRow)*uint64(h))
	for row := uint32(0); row < h; row++ {
		srcOff := int(row) * int(alignedBytesPerRow)
		dstOff := int(row) * int(bytesPerRow)
		copy(tight[dstOff:dstOff+int(bytesPerRow)], readback[srcOff:srcOff+int(bytesPerRow)])
	}
	return tight, nil
}
