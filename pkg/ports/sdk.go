package ports

// BufferFormat is the SDK input buffer layout.
type BufferFormat int

const (
	BufferFormatUndefined BufferFormat = iota
	// BufferFormatARGB is 8-bit packed A8R8G8B8, stored B,G,R,A in memory.
	BufferFormatARGB
	BufferFormatNV12
)

// String returns the string representation of the buffer format.
func (f BufferFormat) String() string {
	switch f {
	case BufferFormatARGB:
		return "argb"
	case BufferFormatNV12:
		return "nv12"
	default:
		return "undefined"
	}
}

// PixelFormat returns the pixel format matching the buffer layout.
func (f BufferFormat) PixelFormat() PixelFormat {
	switch f {
	case BufferFormatARGB:
		return PixelFormatARGB8
	case BufferFormatNV12:
		return PixelFormatNV12
	default:
		return PixelFormatUnknown
	}
}

// BufferFormatFor maps a pixel format to the SDK buffer format. Formats the
// SDK cannot ingest map to BufferFormatUndefined.
func BufferFormatFor(p PixelFormat) BufferFormat {
	switch p {
	case PixelFormatARGB8:
		return BufferFormatARGB
	case PixelFormatNV12:
		return BufferFormatNV12
	default:
		return BufferFormatUndefined
	}
}

// PictureType is the coded picture type reported for an output unit.
type PictureType int

const (
	PictureTypeP PictureType = iota
	PictureTypeB
	PictureTypeI
	PictureTypeIDR
	PictureTypeUnknown
)

// String returns the string representation of the picture type.
func (p PictureType) String() string {
	switch p {
	case PictureTypeP:
		return "P"
	case PictureTypeB:
		return "B"
	case PictureTypeI:
		return "I"
	case PictureTypeIDR:
		return "IDR"
	default:
		return "unknown"
	}
}

// EncodeConfig selects the SDK encoder configuration.
type EncodeConfig struct {
	Codec  CodecType
	Preset string
	Tuning string
}

// DefaultEncodeConfig returns the H.264 defaults both encoder variants use.
func DefaultEncodeConfig() EncodeConfig {
	return EncodeConfig{
		Codec:  CodecH264,
		Preset: "p4",
		Tuning: "hq",
	}
}

// EncodeSessionParams configures an SDK encode session.
type EncodeSessionParams struct {
	Width  int
	Height int
	Format BufferFormat
	Config EncodeConfig
}

// DecodeSessionParams configures an SDK decode session.
type DecodeSessionParams struct {
	Codec     CodecType
	MaxWidth  int
	MaxHeight int
}

// InputFrame is an SDK-owned input buffer. Exactly one of Texture (graphics
// sessions) or Buffer (compute sessions) is set.
type InputFrame struct {
	Texture Texture
	Buffer  DeviceBuffer
}

// OutputUnit is one encoded picture produced by the SDK.
type OutputUnit struct {
	Data        []byte
	Timestamp   uint64
	PictureType PictureType
}

// EncodeSession is a live SDK encoder bound to one device.
type EncodeSession interface {
	// NextInputFrame returns the buffer the next Encode call reads from.
	// It returns ErrNoInputBuffer when the pool is exhausted.
	NextInputFrame() (*InputFrame, error)
	// Encode encodes the most recently returned input frame and returns
	// zero or more completed output units.
	Encode() ([]OutputUnit, error)
	// EndEncode signals end of stream and returns the remaining output units.
	EndEncode() ([]OutputUnit, error)
	Close() error
}

// DecodeSession is a live SDK decoder bound to one compute context.
type DecodeSession interface {
	// Decode submits bitstream bytes and returns the number of frames that
	// became available. Empty data signals end of stream.
	Decode(data []byte, timestamp uint64) (int, error)
	// NextFrame pops the next decoded frame. The returned slice is only valid
	// until the next call into the session.
	NextFrame() (data []byte, timestamp uint64, ok bool)
	Close() error
}

// CodecSDK opens hardware codec sessions.
type CodecSDK interface {
	OpenGraphicsEncoder(device GraphicsDevice, params EncodeSessionParams) (EncodeSession, error)
	OpenComputeEncoder(ctx ComputeContext, params EncodeSessionParams) (EncodeSession, error)
	OpenComputeDecoder(ctx ComputeContext, params DecodeSessionParams) (DecodeSession, error)
}
