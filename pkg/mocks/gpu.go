package mocks

import (
	"fmt"
	"sync"
	"time"

	"github.com/phoohow/codec/pkg/ports"
)

// Texture is a test texture that tracks its declared resource state.
type Texture struct {
	Label  string
	Width  int
	Height int
	Format ports.PixelFormat
	State  ports.ResourceState
	Data   []byte
}

// NewTexture creates an ARGB8 texture in the given state.
func NewTexture(label string, width, height int, state ports.ResourceState) *Texture {
	return &Texture{
		Label:  label,
		Width:  width,
		Height: height,
		Format: ports.PixelFormatARGB8,
		State:  state,
	}
}

func (t *Texture) Desc() ports.TextureDesc {
	return ports.TextureDesc{Width: t.Width, Height: t.Height, Format: t.Format}
}

func (t *Texture) String() string { return t.Label }

// GPUCall is one recorded device interaction, in call order.
type GPUCall struct {
	Op      string
	Texture string
	Before  ports.ResourceState
	After   ports.ResourceState
	Src     string
	Box     ports.Box
	Value   uint64
}

// GraphicsDevice is an instrumented ports.GraphicsDevice. Recorded commands
// take effect when their list is executed; barriers and copies are checked
// against the tracked texture states and extents.
type GraphicsDevice struct {
	mu sync.Mutex

	// FailOn makes one step fail: "queue", "allocator", "list", "fence",
	// "event", "close", "execute", "signal", "set-event" or "texture".
	FailOn string
	// CompleteOnSignal makes a fence reach the signaled value immediately.
	CompleteOnSignal bool
	// Hang keeps fences from completing; every wait times out.
	Hang bool

	// Recorded calls for verification
	Calls      []GPUCall
	Violations []string
	Fences     []*Fence
	Waits      []time.Duration

	created  map[string]int
	released map[string]int
}

// NewGraphicsDevice creates an instrumented device.
func NewGraphicsDevice() *GraphicsDevice {
	return &GraphicsDevice{
		created:  make(map[string]int),
		released: make(map[string]int),
	}
}

// Ops returns the recorded operation names in order.
func (d *GraphicsDevice) Ops() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ops := make([]string, len(d.Calls))
	for i, c := range d.Calls {
		ops[i] = c.Op
	}
	return ops
}

// CallsOf returns the recorded calls with the given operation name.
func (d *GraphicsDevice) CallsOf(op string) []GPUCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []GPUCall
	for _, c := range d.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Outstanding returns the number of created-but-unreleased objects per kind.
func (d *GraphicsDevice) Outstanding() map[string]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]int)
	for k, n := range d.created {
		if left := n - d.released[k]; left != 0 {
			out[k] = left
		}
	}
	return out
}

func (d *GraphicsDevice) record(c GPUCall) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = append(d.Calls, c)
}

func (d *GraphicsDevice) violate(format string, args ...interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Violations = append(d.Violations, fmt.Sprintf(format, args...))
}

func (d *GraphicsDevice) create(kind string) error {
	if d.FailOn == kind {
		return fmt.Errorf("mock: create %s failed", kind)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.created == nil {
		d.created = make(map[string]int)
		d.released = make(map[string]int)
	}
	d.created[kind]++
	d.Calls = append(d.Calls, GPUCall{Op: "create-" + kind})
	return nil
}

func (d *GraphicsDevice) release(kind string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released[kind]++
	d.Calls = append(d.Calls, GPUCall{Op: "release-" + kind})
}

func (d *GraphicsDevice) CreateCommandQueue(kind ports.QueueKind) (ports.CommandQueue, error) {
	if err := d.create("queue"); err != nil {
		return nil, err
	}
	return &commandQueue{dev: d, kind: kind}, nil
}

func (d *GraphicsDevice) CreateCommandAllocator(kind ports.QueueKind) (ports.CommandAllocator, error) {
	if err := d.create("allocator"); err != nil {
		return nil, err
	}
	return &commandAllocator{dev: d}, nil
}

func (d *GraphicsDevice) CreateCommandList(kind ports.QueueKind, allocator ports.CommandAllocator) (ports.CommandList, error) {
	if allocator == nil {
		d.violate("command list created without allocator")
	}
	if err := d.create("list"); err != nil {
		return nil, err
	}
	return &commandList{dev: d}, nil
}

func (d *GraphicsDevice) CreateFence(initialValue uint64) (ports.Fence, error) {
	if err := d.create("fence"); err != nil {
		return nil, err
	}
	f := &Fence{dev: d, Completed: initialValue}
	d.mu.Lock()
	d.Fences = append(d.Fences, f)
	d.mu.Unlock()
	return f, nil
}

func (d *GraphicsDevice) CreateEvent() (ports.Event, error) {
	if err := d.create("event"); err != nil {
		return nil, err
	}
	return &event{dev: d}, nil
}

// CreateTexture implements ports.TextureAllocator.
func (d *GraphicsDevice) CreateTexture(desc ports.TextureDesc, label string) (ports.Texture, error) {
	if d.FailOn == "texture" {
		return nil, fmt.Errorf("mock: create texture failed")
	}
	t := NewTexture(label, desc.Width, desc.Height, ports.StateCommon)
	t.Format = desc.Format
	return t, nil
}

// DestroyTexture implements ports.TextureAllocator.
func (d *GraphicsDevice) DestroyTexture(t ports.Texture) {}

// WriteTexture implements ports.TextureUploader. Like a queue upload, it
// leaves the texture in StateCopyDest.
func (d *GraphicsDevice) WriteTexture(t ports.Texture, data []byte) error {
	mt, ok := t.(*Texture)
	if !ok {
		return fmt.Errorf("mock: foreign texture %T", t)
	}
	mt.Data = append([]byte(nil), data...)
	mt.State = ports.StateCopyDest
	return nil
}

// ReadTexture implements ports.TextureReader.
func (d *GraphicsDevice) ReadTexture(t ports.Texture, state ports.ResourceState) ([]byte, error) {
	mt, ok := t.(*Texture)
	if !ok {
		return nil, fmt.Errorf("mock: foreign texture %T", t)
	}
	if mt.State != state {
		d.violate("read %s in state %s, declared %s", mt.Label, mt.State, state)
	}
	if mt.Data == nil {
		return make([]byte, mt.Format.FrameSize(mt.Width, mt.Height)), nil
	}
	return append([]byte(nil), mt.Data...), nil
}

type commandQueue struct {
	dev  *GraphicsDevice
	kind ports.QueueKind
}

func (q *commandQueue) ExecuteCommandLists(lists ...ports.CommandList) error {
	if q.dev.FailOn == "execute" {
		return fmt.Errorf("mock: execute failed")
	}
	q.dev.record(GPUCall{Op: "execute"})
	for _, l := range lists {
		cl, ok := l.(*commandList)
		if !ok {
			q.dev.violate("foreign command list %T", l)
			continue
		}
		if !cl.closed {
			q.dev.violate("executed command list that was not closed")
		}
		for _, cmd := range cl.commands {
			cmd()
		}
	}
	return nil
}

func (q *commandQueue) Signal(fence ports.Fence, value uint64) error {
	if q.dev.FailOn == "signal" {
		return fmt.Errorf("mock: signal failed")
	}
	f, ok := fence.(*Fence)
	if !ok {
		return fmt.Errorf("mock: foreign fence %T", fence)
	}
	q.dev.record(GPUCall{Op: "signal", Value: value})
	f.Signaled = value
	if q.dev.CompleteOnSignal && !q.dev.Hang {
		f.Completed = value
	}
	return nil
}

func (q *commandQueue) Release() { q.dev.release("queue") }

type commandAllocator struct {
	dev *GraphicsDevice
}

func (a *commandAllocator) Release() { a.dev.release("allocator") }

type commandList struct {
	dev      *GraphicsDevice
	closed   bool
	commands []func()
}

func (l *commandList) ResourceBarrier(barriers ...ports.Barrier) {
	if l.closed {
		l.dev.violate("barrier recorded on closed list")
	}
	for _, b := range barriers {
		tex, _ := b.Texture.(*Texture)
		label := fmt.Sprint(b.Texture)
		l.dev.record(GPUCall{Op: "barrier", Texture: label, Before: b.Before, After: b.After})
		l.commands = append(l.commands, func() {
			if tex == nil {
				return
			}
			if tex.State != b.Before {
				l.dev.violate("barrier on %s expects %s, texture is %s", tex.Label, b.Before, tex.State)
			}
			tex.State = b.After
		})
	}
}

func (l *commandList) CopyTextureRegion(dst ports.Texture, dstSub int, src ports.Texture, srcSub int, box ports.Box) {
	if l.closed {
		l.dev.violate("copy recorded on closed list")
	}
	l.dev.record(GPUCall{Op: "copy", Texture: fmt.Sprint(dst), Src: fmt.Sprint(src), Box: box})
	l.commands = append(l.commands, func() {
		if dstSub != 0 || srcSub != 0 {
			l.dev.violate("copy uses subresources %d/%d", dstSub, srcSub)
		}
		for _, side := range []struct {
			tex   ports.Texture
			state ports.ResourceState
		}{{src, ports.StateCopySource}, {dst, ports.StateCopyDest}} {
			desc := side.tex.Desc()
			if box.Left < 0 || box.Top < 0 || box.Right > desc.Width || box.Bottom > desc.Height || box.Front != 0 || box.Back != 1 {
				l.dev.violate("copy box %+v out of bounds for %v (%dx%d)", box, side.tex, desc.Width, desc.Height)
			}
			if mt, ok := side.tex.(*Texture); ok && mt.State != side.state {
				l.dev.violate("copy with %s in state %s, want %s", mt.Label, mt.State, side.state)
			}
		}
	})
}

func (l *commandList) Close() error {
	if l.dev.FailOn == "close" {
		return fmt.Errorf("mock: close failed")
	}
	l.dev.record(GPUCall{Op: "close"})
	l.closed = true
	return nil
}

func (l *commandList) Release() { l.dev.release("list") }

// Fence is an instrumented fence. Signaled is the last value the queue was
// asked to signal; Completed is the value the simulated GPU has reached.
type Fence struct {
	dev       *GraphicsDevice
	Signaled  uint64
	Completed uint64
}

func (f *Fence) CompletedValue() uint64 {
	f.dev.record(GPUCall{Op: "completed-value", Value: f.Completed})
	return f.Completed
}

func (f *Fence) SetEventOnCompletion(value uint64, ev ports.Event) error {
	if f.dev.FailOn == "set-event" {
		return fmt.Errorf("mock: set event failed")
	}
	e, ok := ev.(*event)
	if !ok {
		return fmt.Errorf("mock: foreign event %T", ev)
	}
	f.dev.record(GPUCall{Op: "set-event", Value: value})
	e.fence = f
	e.value = value
	return nil
}

func (f *Fence) Release() { f.dev.release("fence") }

type event struct {
	dev   *GraphicsDevice
	fence *Fence
	value uint64
}

func (e *event) Wait(timeout time.Duration) error {
	e.dev.mu.Lock()
	e.dev.Waits = append(e.dev.Waits, timeout)
	e.dev.mu.Unlock()
	e.dev.record(GPUCall{Op: "wait", Value: e.value})
	if e.fence == nil {
		e.dev.violate("wait on event without completion value")
		return nil
	}
	if e.dev.Hang {
		return fmt.Errorf("mock: fence stuck at %d: %w", e.fence.Completed, ports.ErrFenceTimeout)
	}
	// The simulated GPU finishes everything submitted so far.
	e.fence.Completed = e.fence.Signaled
	return nil
}

func (e *event) Close() error {
	e.dev.release("event")
	return nil
}

var (
	_ ports.GraphicsDevice   = (*GraphicsDevice)(nil)
	_ ports.TextureAllocator = (*GraphicsDevice)(nil)
	_ ports.TextureUploader  = (*GraphicsDevice)(nil)
	_ ports.TextureReader    = (*GraphicsDevice)(nil)
	_ ports.Texture          = (*Texture)(nil)
)
