package ports

import "time"

// ResourceState is the usage state a GPU resource is declared to be in.
type ResourceState int

const (
	StateCommon ResourceState = iota
	StatePresent
	StateCopySource
	StateCopyDest
	StateRenderTarget
	StateShaderResource
)

// String returns the string representation of the resource state.
func (s ResourceState) String() string {
	switch s {
	case StateCommon:
		return "common"
	case StatePresent:
		return "present"
	case StateCopySource:
		return "copy-source"
	case StateCopyDest:
		return "copy-dest"
	case StateRenderTarget:
		return "render-target"
	case StateShaderResource:
		return "shader-resource"
	default:
		return "unknown"
	}
}

// ParseResourceState parses a resource state name. Unrecognized names map to StatePresent.
func ParseResourceState(s string) ResourceState {
	switch s {
	case "common":
		return StateCommon
	case "copy-source":
		return StateCopySource
	case "copy-dest":
		return StateCopyDest
	case "render-target":
		return StateRenderTarget
	case "shader-resource":
		return StateShaderResource
	default:
		return StatePresent
	}
}

// QueueKind selects the command queue type.
type QueueKind int

const (
	QueueDirect QueueKind = iota
	QueueCopy
)

// TextureDesc describes a 2D texture.
type TextureDesc struct {
	Width  int
	Height int
	Format PixelFormat
}

// Texture is a GPU-resident 2D texture.
type Texture interface {
	// Desc returns the texture's size and format.
	Desc() TextureDesc
}

// Barrier declares a resource-state transition for one texture (subresource 0).
type Barrier struct {
	Texture Texture
	Before  ResourceState
	After   ResourceState
}

// Box is a half-open copy region in texels.
type Box struct {
	Left, Top, Front    int
	Right, Bottom, Back int
}

// Width returns the horizontal extent of the box.
func (b Box) Width() int { return b.Right - b.Left }

// Height returns the vertical extent of the box.
func (b Box) Height() int { return b.Bottom - b.Top }

// GraphicsDevice is the subset of the graphics runtime used to record and
// submit one-shot copy work.
type GraphicsDevice interface {
	CreateCommandQueue(kind QueueKind) (CommandQueue, error)
	CreateCommandAllocator(kind QueueKind) (CommandAllocator, error)
	CreateCommandList(kind QueueKind, allocator CommandAllocator) (CommandList, error)
	CreateFence(initialValue uint64) (Fence, error)
	CreateEvent() (Event, error)
}

// CommandQueue executes closed command lists and signals fences.
type CommandQueue interface {
	ExecuteCommandLists(lists ...CommandList) error
	// Signal sets fence to value once previously executed work completes.
	Signal(fence Fence, value uint64) error
	Release()
}

// CommandAllocator backs the memory of command lists.
type CommandAllocator interface {
	Release()
}

// CommandList records GPU commands.
type CommandList interface {
	ResourceBarrier(barriers ...Barrier)
	// CopyTextureRegion copies box from src subresource srcSub to dst subresource dstSub.
	CopyTextureRegion(dst Texture, dstSub int, src Texture, srcSub int, box Box)
	Close() error
	Release()
}

// Fence is a monotonically increasing GPU-to-CPU synchronization value.
type Fence interface {
	CompletedValue() uint64
	// SetEventOnCompletion arranges for event to be set once the fence reaches value.
	SetEventOnCompletion(value uint64, event Event) error
	Release()
}

// Event is an OS wait primitive.
type Event interface {
	// Wait blocks until the event is set. A zero timeout waits indefinitely.
	Wait(timeout time.Duration) error
	Close() error
}

// TextureAllocator is implemented by graphics devices that can create textures.
type TextureAllocator interface {
	CreateTexture(desc TextureDesc, label string) (Texture, error)
	DestroyTexture(t Texture)
}

// TextureUploader is implemented by graphics devices that can fill a texture
// from tightly packed host memory.
type TextureUploader interface {
	WriteTexture(t Texture, data []byte) error
}

// TextureReader is implemented by graphics devices that can read a texture
// in the given state back to tightly packed host memory.
type TextureReader interface {
	ReadTexture(t Texture, state ResourceState) ([]byte, error)
}

// DeviceBuffer is a pitched 2D allocation owned by a compute context.
type DeviceBuffer interface {
	Width() int
	Height() int
	// Pitch is the row stride in bytes.
	Pitch() int
	Format() PixelFormat
}

// ComputeContext is the subset of the compute runtime used by the compute backend.
type ComputeContext interface {
	// AllocBuffer allocates a pitched buffer for a frame.
	AllocBuffer(width, height int, format PixelFormat) (DeviceBuffer, error)
	// CopyBuffer copies the overlapping region of src into dst.
	CopyBuffer(dst, src DeviceBuffer) error
	FreeBuffer(b DeviceBuffer)
}

// HostAccessible is implemented by device buffers whose contents can be read
// and written from the CPU.
type HostAccessible interface {
	Bytes() []byte
}
