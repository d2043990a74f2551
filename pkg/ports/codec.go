// Package ports defines the codec interfaces and the narrow collaborator
// interfaces (device runtimes, hardware codec SDK, logging) they depend on.
package ports

import (
	"fmt"
	"strings"
)

// DeviceType selects the backend variant an encoder or decoder runs on.
type DeviceType int

const (
	// DeviceUnknown has no backend variant.
	DeviceUnknown DeviceType = iota
	// DeviceDX12 is the graphics-API backend. The device handle is a GraphicsDevice.
	DeviceDX12
	// DeviceCUDA is the compute-API backend. The device handle is a ComputeContext.
	DeviceCUDA
)

// String returns the string representation of the device type.
func (d DeviceType) String() string {
	switch d {
	case DeviceDX12:
		return "dx12"
	case DeviceCUDA:
		return "cuda"
	default:
		return "unknown"
	}
}

// ParseDeviceType parses a device type name. Unrecognized names map to DeviceUnknown.
func ParseDeviceType(s string) DeviceType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dx12", "d3d12", "graphics":
		return DeviceDX12
	case "cuda", "compute":
		return DeviceCUDA
	default:
		return DeviceUnknown
	}
}

// CodecType identifies the video coding format.
type CodecType int

const (
	CodecH264 CodecType = iota
	CodecH265
	CodecAV1
)

// String returns the string representation of the codec type.
func (c CodecType) String() string {
	switch c {
	case CodecH264:
		return "h264"
	case CodecH265:
		return "h265"
	case CodecAV1:
		return "av1"
	default:
		return fmt.Sprintf("codec(%d)", int(c))
	}
}

// ParseCodecType parses a codec name.
func ParseCodecType(s string) (CodecType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "h264", "avc":
		return CodecH264, nil
	case "h265", "hevc":
		return CodecH265, nil
	case "av1":
		return CodecAV1, nil
	default:
		return CodecH264, fmt.Errorf("unknown codec %q", s)
	}
}

// PixelFormat describes the memory layout of a raw frame.
type PixelFormat int

const (
	PixelFormatUnknown PixelFormat = iota
	PixelFormatRGBA8
	PixelFormatARGB8
	PixelFormatBGRA8
	PixelFormatNV12
)

// String returns the string representation of the pixel format.
func (p PixelFormat) String() string {
	switch p {
	case PixelFormatRGBA8:
		return "rgba8"
	case PixelFormatARGB8:
		return "argb8"
	case PixelFormatBGRA8:
		return "bgra8"
	case PixelFormatNV12:
		return "nv12"
	default:
		return "unknown"
	}
}

// ParsePixelFormat parses a pixel format name. Unrecognized names map to PixelFormatUnknown.
func ParsePixelFormat(s string) PixelFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rgba8", "rgba":
		return PixelFormatRGBA8
	case "argb8", "argb":
		return PixelFormatARGB8
	case "bgra8", "bgra":
		return PixelFormatBGRA8
	case "nv12":
		return PixelFormatNV12
	default:
		return PixelFormatUnknown
	}
}

// FrameSize returns the byte size of one tightly packed frame, or 0 for
// an unknown format or non-positive dimensions.
func (p PixelFormat) FrameSize(width, height int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	switch p {
	case PixelFormatRGBA8, PixelFormatARGB8, PixelFormatBGRA8:
		return width * height * 4
	case PixelFormatNV12:
		return width*height + 2*((width+1)/2)*((height+1)/2)
	default:
		return 0
	}
}

// CreateParams configures an encoder or decoder session.
type CreateParams struct {
	// Device is the backend device handle: a GraphicsDevice for DeviceDX12,
	// a ComputeContext for DeviceCUDA.
	Device      any
	Width       int
	Height      int
	DeviceType  DeviceType
	CodecType   CodecType
	PixelFormat PixelFormat
}

// Validate checks the backend-independent invariants of the parameters.
func (p CreateParams) Validate() error {
	if p.Device == nil {
		return fmt.Errorf("%w: device handle is nil", ErrInvalidParams)
	}
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidParams, p.Width, p.Height)
	}
	return nil
}

// FrameData is a decoded frame. Data is freshly allocated and owned by the caller.
type FrameData struct {
	Data      []byte
	Timestamp uint64
}

// Size returns the frame size in bytes.
func (f *FrameData) Size() int { return len(f.Data) }

// CodecPacket is an encoded bitstream unit. On the encode path Data is
// freshly allocated and owned by the caller.
type CodecPacket struct {
	Data      []byte
	Timestamp uint64
	KeyFrame  bool
}

// Size returns the packet size in bytes.
func (p *CodecPacket) Size() int { return len(p.Data) }

// Encoder is the backend-agnostic hardware encoder.
//
// Instances are not safe for concurrent use.
type Encoder interface {
	// Initialize opens the SDK session. It fails without side effects if the
	// device type does not match the variant.
	Initialize(params CreateParams) error

	// EncodeFrame encodes one frame given as a backend-specific handle
	// (a Texture for DX12, a DeviceBuffer for CUDA). It returns ErrNoOutput
	// when the frame was accepted but no packet is available yet.
	EncodeFrame(frame any) (*CodecPacket, error)

	// Flush returns the next buffered packet, or ErrNothingToFlush once drained.
	Flush() (*CodecPacket, error)

	// Destroy releases the SDK session. Safe to call repeatedly.
	Destroy()
}

// Decoder is the backend-agnostic hardware decoder.
//
// Instances are not safe for concurrent use.
type Decoder interface {
	// Initialize opens the SDK session.
	Initialize(params CreateParams) error

	// DecodePacket submits one packet and returns a decoded frame, or
	// ErrNoOutput when the SDK has not produced one yet.
	DecodePacket(packet CodecPacket) (*FrameData, error)

	// Flush returns the next buffered frame, or ErrNothingToFlush once drained.
	Flush() (*FrameData, error)

	// Destroy releases the SDK session. Safe to call repeatedly.
	Destroy()
}
