// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/phoohow/codec/pkg/ports"
)

// Sink saves debug output to files under baseDir:
//
//	frames/source/frame-NNNN.png   rendered input frames
//	frames/decoded/frame-NNNN.yuv  raw decoded frames
//	stream.<codec>                 Annex B elementary stream
//	report.json                    run summary
type Sink struct {
	baseDir  string
	stream   string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a new FileSink. Packets are appended to stream.<codec>.
func New(baseDir string, codec ports.CodecType, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		stream:   filepath.Join(baseDir, "stream."+codec.String()),
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveSourceFrame saves a rendered source frame as PNG.
func (s *Sink) SaveSourceFrame(index int, img image.Image) error {
	dir := filepath.Join(s.baseDir, "frames", "source")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode source frame: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%04d.png", index))
	return s.fs.WriteFile(path, data)
}

// SavePacket appends the packet to the elementary stream dump. The first
// packet truncates any stream left by a previous run.
func (s *Sink) SavePacket(index int, packet ports.CodecPacket) error {
	if index == 0 {
		return s.fs.WriteFile(s.stream, packet.Data)
	}
	return s.fs.AppendFile(s.stream, packet.Data)
}

// SaveDecodedFrame saves a raw decoded frame.
func (s *Sink) SaveDecodedFrame(index int, frame ports.FrameData) error {
	dir := filepath.Join(s.baseDir, "frames", "decoded")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%04d.yuv", index))
	return s.fs.WriteFile(path, frame.Data)
}

// SaveReport saves the run summary.
func (s *Sink) SaveReport(data []byte) error {
	path := filepath.Join(s.baseDir, "report.json")
	return s.fs.WriteFile(path, data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
