package halgpu

import (
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/phoohow/codec/pkg/ports"
)

// usageFor maps a declared resource state to the hal texture usage that
// puts the texture in the equivalent layout.
func usageFor(s ports.ResourceState) gputypes.TextureUsage {
	switch s {
	case ports.StateCopySource:
		return gputypes.TextureUsageCopySrc
	case ports.StateCopyDest:
		return gputypes.TextureUsageCopyDst
	case ports.StatePresent, ports.StateRenderTarget:
		return gputypes.TextureUsageRenderAttachment
	case ports.StateShaderResource:
		return gputypes.TextureUsageTextureBinding
	default:
		return gputypes.TextureUsage(0)
	}
}

// CreateCommandQueue returns a view of the device queue. Work from every
// returned queue is submitted to the same hal.Queue.
func (d *Device) CreateCommandQueue(kind ports.QueueKind) (ports.CommandQueue, error) {
	if d.device == nil {
		return nil, fmt.Errorf("create command queue: device closed")
	}
	return &commandQueue{dev: d}, nil
}

// CreateCommandAllocator returns a placeholder: hal command encoders own
// their memory.
func (d *Device) CreateCommandAllocator(kind ports.QueueKind) (ports.CommandAllocator, error) {
	if d.device == nil {
		return nil, fmt.Errorf("create command allocator: device closed")
	}
	return commandAllocator{}, nil
}

// CreateCommandList creates a hal command encoder in the recording state.
func (d *Device) CreateCommandList(kind ports.QueueKind, allocator ports.CommandAllocator) (ports.CommandList, error) {
	if d.device == nil {
		return nil, fmt.Errorf("create command list: device closed")
	}
	enc, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "codec-copy-encoder"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := enc.BeginEncoding("codec-copy"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	return &commandList{dev: d, enc: enc, recording: true}, nil
}

// CreateFence creates a hal fence. hal fences start at zero, so
// initialValue only seeds the completed value reported before any signal.
func (d *Device) CreateFence(initialValue uint64) (ports.Fence, error) {
	if d.device == nil {
		return nil, fmt.Errorf("create fence: device closed")
	}
	raw, err := d.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}
	return &fence{dev: d, raw: raw, completed: initialValue}, nil
}

// CreateEvent creates an event waited on through Device.Wait.
func (d *Device) CreateEvent() (ports.Event, error) {
	return &event{dev: d}, nil
}

type commandQueue struct {
	dev     *Device
	pending []hal.CommandBuffer
}

// ExecuteCommandLists stages the closed lists; they are submitted with the
// next Signal.
func (q *commandQueue) ExecuteCommandLists(lists ...ports.CommandList) error {
	for _, l := range lists {
		cl, ok := l.(*commandList)
		if !ok || cl.dev != q.dev {
			return fmt.Errorf("%w: command list %T", ErrForeignObject, l)
		}
		if cl.buf == nil {
			return fmt.Errorf("execute: command list not closed")
		}
		q.pending = append(q.pending, cl.buf)
	}
	return nil
}

func (q *commandQueue) Signal(f ports.Fence, value uint64) error {
	hf, ok := f.(*fence)
	if !ok || hf.dev != q.dev {
		return fmt.Errorf("%w: fence %T", ErrForeignObject, f)
	}
	if err := q.dev.queue.Submit(q.pending, hf.raw, value); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	q.pending = nil
	hf.signaled = value
	return nil
}

func (q *commandQueue) Release() { q.pending = nil }

type commandAllocator struct{}

func (commandAllocator) Release() {}

type commandList struct {
	dev       *Device
	enc       hal.CommandEncoder
	buf       hal.CommandBuffer
	recording bool
	err       error
}

func (l *commandList) ResourceBarrier(barriers ...ports.Barrier) {
	hb := make([]hal.TextureBarrier, 0, len(barriers))
	for _, b := range barriers {
		t, ok := b.Texture.(*Texture)
		if !ok {
			l.fail(fmt.Errorf("%w: barrier texture %T", ErrForeignObject, b.Texture))
			return
		}
		hb = append(hb, hal.TextureBarrier{
			Texture: t.raw,
			Usage: hal.TextureUsageTransition{
				OldUsage: usageFor(b.Before),
				NewUsage: usageFor(b.After),
			},
		})
	}
	if l.recording {
		l.enc.TransitionTextures(hb)
	}
}

func (l *commandList) CopyTextureRegion(dst ports.Texture, dstSub int, src ports.Texture, srcSub int, box ports.Box) {
	s, ok := src.(*Texture)
	if !ok {
		l.fail(fmt.Errorf("%w: copy source %T", ErrForeignObject, src))
		return
	}
	d, ok := dst.(*Texture)
	if !ok {
		l.fail(fmt.Errorf("%w: copy destination %T", ErrForeignObject, dst))
		return
	}
	if !l.recording {
		return
	}
	origin := hal.Origin3D{X: uint32(box.Left), Y: uint32(box.Top), Z: uint32(box.Front)}
	l.enc.CopyTextureToTexture(s.raw, d.raw, []hal.TextureCopy{{
		SrcBase: hal.ImageCopyTexture{Texture: s.raw, MipLevel: uint32(srcSub), Origin: origin, Aspect: gputypes.TextureAspectAll},
		DstBase: hal.ImageCopyTexture{Texture: d.raw, MipLevel: uint32(dstSub), Origin: origin, Aspect: gputypes.TextureAspectAll},
		Size:    hal.Extent3D{Width: uint32(box.Width()), Height: uint32(box.Height()), DepthOrArrayLayers: uint32(box.Back - box.Front)},
	}})
}

// Close ends encoding. Errors recorded while building the list surface here.
func (l *commandList) Close() error {
	if !l.recording {
		if l.err != nil {
			return l.err
		}
		return fmt.Errorf("close: command list already closed")
	}
	l.recording = false
	if l.err != nil {
		l.enc.DiscardEncoding()
		return l.err
	}
	buf, err := l.enc.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	l.buf = buf
	return nil
}

func (l *commandList) Release() {
	if l.recording {
		l.enc.DiscardEncoding()
		l.recording = false
	}
	if l.buf != nil {
		l.dev.device.FreeCommandBuffer(l.buf)
		l.buf = nil
	}
}

func (l *commandList) fail(err error) {
	if l.err == nil {
		l.err = err
	}
}

type fence struct {
	dev       *Device
	raw       hal.Fence
	signaled  uint64
	completed uint64
}

// CompletedValue polls the fence without blocking.
func (f *fence) CompletedValue() uint64 {
	if f.completed >= f.signaled {
		return f.completed
	}
	if ok, err := f.dev.device.Wait(f.raw, f.signaled, 0); err == nil && ok {
		f.completed = f.signaled
	}
	return f.completed
}

func (f *fence) SetEventOnCompletion(value uint64, ev ports.Event) error {
	e, ok := ev.(*event)
	if !ok || e.dev != f.dev {
		return fmt.Errorf("%w: event %T", ErrForeignObject, ev)
	}
	e.fence = f
	e.value = value
	return nil
}

func (f *fence) Release() {
	if f.raw != nil {
		f.dev.device.DestroyFence(f.raw)
		f.raw = nil
	}
}

type event struct {
	dev   *Device
	fence *fence
	value uint64
}

// infinite is the timeout passed to Device.Wait for unbounded waits.
const infinite = time.Duration(math.MaxInt64)

func (e *event) Wait(timeout time.Duration) error {
	if e.fence == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = infinite
	}
	ok, err := e.dev.device.Wait(e.fence.raw, e.value, timeout)
	if err != nil {
		return fmt.Errorf("wait for fence: %w", err)
	}
	if !ok {
		return fmt.Errorf("fence value %d not reached in %v: %w", e.value, timeout, ports.ErrFenceTimeout)
	}
	e.fence.completed = max(e.fence.completed, e.value)
	return nil
}

func (e *event) Close() error {
	e.fence = nil
	return nil
}
