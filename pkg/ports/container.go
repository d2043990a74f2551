package ports

import "io"

// MuxOptions configures packet muxing.
type MuxOptions struct {
	Width  int
	Height int
	FPS    float64
	Codec  CodecType
}

// PacketMuxer writes encoded packets into a container.
type PacketMuxer interface {
	Mux(packets []CodecPacket, opts MuxOptions) ([]byte, error)
}

// Stream is an elementary stream extracted from a container.
type Stream struct {
	Codec   CodecType
	Width   int
	Height  int
	Packets []CodecPacket
}

// PacketSource extracts encoded packets from a container.
type PacketSource interface {
	ReadPackets(r io.ReadSeeker) (*Stream, error)
}
