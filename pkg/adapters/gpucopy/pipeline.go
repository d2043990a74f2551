// Package gpucopy copies a caller texture into an SDK-owned input texture on
// the graphics device and blocks until the GPU has finished the copy.
//
// Every Copy records its own one-shot queue, allocator, command list and
// fence. The source is transitioned from its declared state to copy-source,
// the destination from common to copy-dest, the overlapping region is copied,
// both textures are transitioned back and the queue is signaled. Copy returns
// only after the fence reaches the signaled value, so the destination can be
// handed to the encoder immediately.
package gpucopy

import (
	"errors"
	"fmt"
	"time"

	"github.com/phoohow/codec/pkg/adapters/logger"
	"github.com/phoohow/codec/pkg/ports"
)

// signalValue is the fence value signaled after the copy is submitted.
const signalValue = 1

// Pipeline performs synchronized texture copies on one graphics device.
type Pipeline struct {
	Device ports.GraphicsDevice

	// SourceState is the state source textures are in before and after the
	// copy. The zero value is StateCommon; use New for the StatePresent default.
	SourceState ports.ResourceState

	// FenceTimeout bounds the wait for copy completion. Zero waits indefinitely.
	FenceTimeout time.Duration

	Log ports.Logger
}

// New creates a pipeline for device with sources expected in StatePresent.
func New(device ports.GraphicsDevice, log ports.Logger) *Pipeline {
	return &Pipeline{
		Device:      device,
		SourceState: ports.StatePresent,
		Log:         log,
	}
}

// Extent returns the copy region size: the per-axis minimum of both textures.
func Extent(src, dst ports.TextureDesc) (width, height int) {
	return min(src.Width, dst.Width), min(src.Height, dst.Height)
}

// Copy copies the overlapping region of src into dst and waits for the GPU.
func (p *Pipeline) Copy(src, dst ports.Texture) error {
	if p.Device == nil {
		return fmt.Errorf("%w: no graphics device", ports.ErrDeviceFailure)
	}
	if src == nil || dst == nil {
		return fmt.Errorf("%w: nil texture", ports.ErrInvalidFrame)
	}

	queue, err := p.Device.CreateCommandQueue(ports.QueueDirect)
	if err != nil {
		return p.fail("create command queue", err)
	}
	defer queue.Release()

	allocator, err := p.Device.CreateCommandAllocator(ports.QueueDirect)
	if err != nil {
		return p.fail("create command allocator", err)
	}
	defer allocator.Release()

	list, err := p.Device.CreateCommandList(ports.QueueDirect, allocator)
	if err != nil {
		return p.fail("create command list", err)
	}
	defer list.Release()

	fence, err := p.Device.CreateFence(0)
	if err != nil {
		return p.fail("create fence", err)
	}
	defer fence.Release()

	p.record(list, src, dst)

	if err := list.Close(); err != nil {
		return p.fail("close command list", err)
	}
	if err := queue.ExecuteCommandLists(list); err != nil {
		return p.fail("execute command list", err)
	}
	if err := queue.Signal(fence, signalValue); err != nil {
		return p.fail("signal fence", err)
	}

	return p.wait(fence)
}

// record appends the barrier, copy, barrier sequence to list.
func (p *Pipeline) record(list ports.CommandList, src, dst ports.Texture) {
	list.ResourceBarrier(ports.Barrier{Texture: src, Before: p.SourceState, After: ports.StateCopySource})
	list.ResourceBarrier(ports.Barrier{Texture: dst, Before: ports.StateCommon, After: ports.StateCopyDest})

	srcDesc, dstDesc := src.Desc(), dst.Desc()
	w, h := Extent(srcDesc, dstDesc)
	if srcDesc.Width != dstDesc.Width || srcDesc.Height != dstDesc.Height {
		p.logger().Debug("Texture size mismatch %dx%d -> %dx%d, copying %dx%d",
			srcDesc.Width, srcDesc.Height, dstDesc.Width, dstDesc.Height, w, h)
	}
	list.CopyTextureRegion(dst, 0, src, 0, ports.Box{Right: w, Bottom: h, Back: 1})

	list.ResourceBarrier(ports.Barrier{Texture: dst, Before: ports.StateCopyDest, After: ports.StateCommon})
	list.ResourceBarrier(ports.Barrier{Texture: src, Before: ports.StateCopySource, After: p.SourceState})
}

// wait blocks until fence reaches signalValue. It returns immediately when
// the GPU has already completed the work.
func (p *Pipeline) wait(fence ports.Fence) error {
	if fence.CompletedValue() >= signalValue {
		return nil
	}

	ev, err := p.Device.CreateEvent()
	if err != nil {
		return p.fail("create event", err)
	}
	defer ev.Close()

	if err := fence.SetEventOnCompletion(signalValue, ev); err != nil {
		return p.fail("set event on completion", err)
	}
	if err := ev.Wait(p.FenceTimeout); err != nil {
		if errors.Is(err, ports.ErrFenceTimeout) {
			p.logger().Error("Fence did not reach %d within %v", signalValue, p.FenceTimeout)
			return fmt.Errorf("wait for fence: %w", err)
		}
		return p.fail("wait for fence", err)
	}
	return nil
}

func (p *Pipeline) fail(step string, err error) error {
	p.logger().Error("GPU copy failed at %s: %v", step, err)
	return fmt.Errorf("%w: %s: %w", ports.ErrDeviceFailure, step, err)
}

func (p *Pipeline) logger() ports.Logger {
	if p.Log == nil {
		p.Log = logger.NewNoop()
	}
	return p.Log
}
