package pipeline

import (
	"time"

	"github.com/phoohow/codec/pkg/ports"
)

// =============================================================================
// Source Stage Types
// =============================================================================

// SourceInput describes the test pattern to render and upload.
type SourceInput struct {
	Width  int
	Height int
	Frames int
	Format ports.PixelFormat
}

// SourceFrame is one uploaded frame. Handle is the backend-specific frame
// handed to Encoder.EncodeFrame: a ports.Texture or a ports.DeviceBuffer.
type SourceFrame struct {
	Index  int
	Handle any
}

// SourceResult contains the uploaded frames.
type SourceResult struct {
	Frames []SourceFrame

	// Release frees every frame handle. It is safe to call more than once.
	Release func()
}

// =============================================================================
// Encode Stage Types
// =============================================================================

// EncodeInput contains the frames to encode and the session parameters.
type EncodeInput struct {
	Frames []SourceFrame
	Params ports.CreateParams
}

// EncodeResult contains the encoded packets in output order.
type EncodeResult struct {
	Packets []ports.CodecPacket

	// Deferred counts frames for which EncodeFrame reported ErrNoOutput.
	Deferred int
	// Flushed counts packets drained by Flush.
	Flushed  int
	Duration time.Duration
}

// =============================================================================
// Mux Stage Types
// =============================================================================

// MuxInput contains packets and container options.
type MuxInput struct {
	Packets []ports.CodecPacket
	Options ports.MuxOptions
}

// MuxResult contains the container bytes.
type MuxResult struct {
	Data []byte
}

// =============================================================================
// Decode Stage Types
// =============================================================================

// DecodeInput contains the demuxed stream and the session parameters.
// Params.Width, Params.Height and Params.CodecType default to the stream's.
type DecodeInput struct {
	Stream *ports.Stream
	Params ports.CreateParams
}

// DecodeResult contains the decoded frames in output order.
type DecodeResult struct {
	Frames   []ports.FrameData
	Deferred int
	Flushed  int
	Duration time.Duration
}
