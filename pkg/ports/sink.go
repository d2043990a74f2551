package ports

import (
	"image"
)

// DebugSink receives intermediate artifacts for inspection.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveSourceFrame saves a rendered source frame before upload.
	SaveSourceFrame(index int, img image.Image) error

	// SavePacket appends an encoded packet to the elementary stream dump.
	SavePacket(index int, packet CodecPacket) error

	// SaveDecodedFrame saves one raw decoded frame.
	SaveDecodedFrame(index int, frame FrameData) error

	// SaveReport saves a run summary as JSON.
	SaveReport(data []byte) error
}
