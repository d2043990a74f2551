// Package mp4sink muxes encoded H.264 packets into a fragmented MP4.
package mp4sink

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/phoohow/codec/pkg/bitstream"
	"github.com/phoohow/codec/pkg/ports"
)

var (
	// ErrNoPackets is returned when there is nothing to mux.
	ErrNoPackets = errors.New("mp4sink: no packets to mux")

	// ErrUnsupportedCodec is returned for codecs without a sample entry writer.
	ErrUnsupportedCodec = errors.New("mp4sink: unsupported codec")

	// ErrMissingParameterSets is returned when no key frame carries SPS and PPS.
	ErrMissingParameterSets = errors.New("mp4sink: SPS/PPS not found")
)

// Muxer implements ports.PacketMuxer.
type Muxer struct {
	log ports.Logger
}

// New creates a muxer.
func New(log ports.Logger) *Muxer {
	return &Muxer{log: log.WithComponent("mp4sink")}
}

// Mux writes packets, whose timestamps are frame indices, as one fragment.
func (m *Muxer) Mux(packets []ports.CodecPacket, opts ports.MuxOptions) ([]byte, error) {
	if len(packets) == 0 {
		return nil, ErrNoPackets
	}
	if opts.Codec != ports.CodecH264 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, opts.Codec)
	}
	if opts.FPS <= 0 {
		opts.FPS = 30
	}

	timescale := uint32(opts.FPS * 1000)
	frameDur := uint32(float64(timescale) / opts.FPS)
	trackID := uint32(1)

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(timescale, "video", "en")
	trak := init.Moov.Trak

	sps, pps, err := parameterSets(packets)
	if err != nil {
		return nil, err
	}
	avcC, err := mp4.CreateAvcC(sps, pps, true)
	if err != nil {
		return nil, fmt.Errorf("create avcC: %w", err)
	}
	avc1 := mp4.CreateVisualSampleEntryBox("avc1", uint16(opts.Width), uint16(opts.Height), avcC)
	trak.Mdia.Minf.Stbl.Stsd.AddChild(avc1)
	trak.Tkhd.Width = mp4.Fixed32(opts.Width << 16)
	trak.Tkhd.Height = mp4.Fixed32(opts.Height << 16)

	frag, err := mp4.CreateFragment(1, trackID)
	if err != nil {
		return nil, fmt.Errorf("create fragment: %w", err)
	}

	keyFrames := 0
	for _, p := range packets {
		flags := mp4.NonSyncSampleFlags
		if p.KeyFrame {
			flags = mp4.SyncSampleFlags
			keyFrames++
		}
		data := bitstream.ToAVCC(ports.CodecH264, p.Data, true)
		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: flags,
				Size:  uint32(len(data)),
				Dur:   frameDur,
			},
			DecodeTime: p.Timestamp * uint64(frameDur),
			Data:       data,
		})
	}

	var buf bytes.Buffer
	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "avc1", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode moov: %w", err)
	}
	if err := frag.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode fragment: %w", err)
	}

	m.log.Debug("Muxed %d packets (%d key frames) into %d bytes", len(packets), keyFrames, buf.Len())
	return buf.Bytes(), nil
}

// parameterSets returns the SPS and PPS of the first key frame carrying both.
func parameterSets(packets []ports.CodecPacket) (sps, pps [][]byte, err error) {
	for _, p := range packets {
		if !p.KeyFrame {
			continue
		}
		_, s, pp := bitstream.ParameterSets(ports.CodecH264, p.Data)
		if len(s) > 0 && len(pp) > 0 {
			return s[:1], pp[:1], nil
		}
	}
	return nil, nil, ErrMissingParameterSets
}

var _ ports.PacketMuxer = (*Muxer)(nil)
