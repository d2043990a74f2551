// Package codecdetect detects the video codec of an MP4 file from its
// sample description.
package codecdetect

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/phoohow/codec/pkg/ports"
)

// ErrUnknownCodec is returned when no video track with a known sample entry exists.
var ErrUnknownCodec = errors.New("codecdetect: no video track with a known codec")

// DetectFromFile detects the video codec used in an MP4 file.
func DetectFromFile(path string) (ports.CodecType, error) {
	f, err := os.Open(path)
	if err != nil {
		return ports.CodecH264, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return DetectFromReader(f)
}

// DetectFromReader detects the video codec from an io.ReadSeeker and
// rewinds it for subsequent reads.
func DetectFromReader(reader io.ReadSeeker) (ports.CodecType, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return ports.CodecH264, fmt.Errorf("decode mp4: %w", err)
	}
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return ports.CodecH264, fmt.Errorf("seek: %w", err)
	}
	return detect(mp4File)
}

// DetectFromBytes detects the video codec from MP4 data bytes.
func DetectFromBytes(data []byte) (ports.CodecType, error) {
	return DetectFromReader(bytes.NewReader(data))
}

func detect(f *mp4.File) (ports.CodecType, error) {
	var traks []*mp4.TrakBox
	if f.Init != nil && f.Init.Moov != nil {
		traks = append(traks, f.Init.Moov.Traks...)
	}
	if f.Moov != nil {
		traks = append(traks, f.Moov.Traks...)
	}
	for _, trak := range traks {
		if codec, ok := fromTrack(trak); ok {
			return codec, nil
		}
	}
	return ports.CodecH264, ErrUnknownCodec
}

func fromTrack(trak *mp4.TrakBox) (ports.CodecType, bool) {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
		return 0, false
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return 0, false
	}

	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		switch child.Type() {
		case "avc1", "avc3":
			return ports.CodecH264, true
		case "hvc1", "hev1":
			return ports.CodecH265, true
		case "av01":
			return ports.CodecAV1, true
		}
	}
	return 0, false
}
