// Package mp4source extracts encoded video packets from MP4 files,
// fragmented or progressive, as Annex B access units.
package mp4source

import (
	"errors"
	"fmt"
	"io"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/phoohow/codec/pkg/bitstream"
	"github.com/phoohow/codec/pkg/ports"
)

var (
	// ErrNoVideoTrack is returned when the file has no video track.
	ErrNoVideoTrack = errors.New("mp4source: no video track found")

	// ErrUnsupportedCodec is returned for sample entries other than AVC and HEVC.
	ErrUnsupportedCodec = errors.New("mp4source: unsupported sample entry")
)

// Source implements ports.PacketSource.
type Source struct {
	log ports.Logger
}

// New creates a source.
func New(log ports.Logger) *Source {
	return &Source{log: log.WithComponent("mp4source")}
}

// track is the video track description shared by both layouts.
type track struct {
	id        uint32
	timescale uint32
	codec     ports.CodecType
	width     int
	height    int
	// params are the out-of-band parameter sets in Annex B form, prepended
	// to every key frame.
	params []byte
}

// ReadPackets reads every sample of the first video track. Packet timestamps
// are frame indices in decode order.
func (s *Source) ReadPackets(r io.ReadSeeker) (*ports.Stream, error) {
	f, err := mp4.DecodeFile(r)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}

	var packets []ports.CodecPacket
	var tr *track
	if f.IsFragmented() {
		tr, packets, err = s.readFragmented(f)
	} else {
		tr, packets, err = s.readProgressive(f, r)
	}
	if err != nil {
		return nil, err
	}

	s.log.Debug("Read %d %s packets (%dx%d)", len(packets), tr.codec, tr.width, tr.height)
	return &ports.Stream{
		Codec:   tr.codec,
		Width:   tr.width,
		Height:  tr.height,
		Packets: packets,
	}, nil
}

func videoTrak(traks []*mp4.TrakBox) *mp4.TrakBox {
	for _, trak := range traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" {
			return trak
		}
	}
	return nil
}

func (s *Source) describe(trak *mp4.TrakBox) (*track, error) {
	tr := &track{id: trak.Tkhd.TrackID, timescale: 1000}
	if trak.Mdia.Mdhd != nil {
		tr.timescale = trak.Mdia.Mdhd.Timescale
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return nil, fmt.Errorf("%w: no sample description", ErrUnsupportedCodec)
	}

	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		vse, ok := child.(*mp4.VisualSampleEntryBox)
		if !ok {
			continue
		}
		tr.width, tr.height = int(vse.Width), int(vse.Height)
		switch vse.Type() {
		case "avc1", "avc3":
			tr.codec = ports.CodecH264
			if vse.AvcC != nil {
				tr.params = bitstream.JoinAnnexB(append(append([][]byte(nil), vse.AvcC.SPSnalus...), vse.AvcC.PPSnalus...))
			}
			return tr, nil
		case "hvc1", "hev1":
			tr.codec = ports.CodecH265
			s.log.Debug("HEVC track: relying on in-band parameter sets")
			return tr, nil
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, vse.Type())
		}
	}
	return nil, fmt.Errorf("%w: no visual sample entry", ErrUnsupportedCodec)
}

func (tr *track) packet(index int, sample []byte, key bool) ports.CodecPacket {
	annexB := bitstream.FromAVCC(sample)
	if key && len(tr.params) > 0 {
		annexB = append(append([]byte(nil), tr.params...), annexB...)
	}
	return ports.CodecPacket{Data: annexB, Timestamp: uint64(index), KeyFrame: key}
}

func (s *Source) readFragmented(f *mp4.File) (*track, []ports.CodecPacket, error) {
	if f.Init == nil || f.Init.Moov == nil {
		return nil, nil, ErrNoVideoTrack
	}
	trak := videoTrak(f.Init.Moov.Traks)
	if trak == nil {
		return nil, nil, ErrNoVideoTrack
	}
	tr, err := s.describe(trak)
	if err != nil {
		return nil, nil, err
	}

	var trex *mp4.TrexBox
	if f.Init.Moov.Mvex != nil {
		for _, t := range f.Init.Moov.Mvex.Trexs {
			if t.TrackID == tr.id {
				trex = t
				break
			}
		}
	}

	var packets []ports.CodecPacket
	for _, seg := range f.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd.TrackID != tr.id {
					continue
				}
				samples, err := frag.GetFullSamples(trex)
				if err != nil {
					return nil, nil, fmt.Errorf("get samples: %w", err)
				}
				for _, sample := range samples {
					key := sample.Flags == mp4.SyncSampleFlags || len(packets) == 0
					packets = append(packets, tr.packet(len(packets), sample.Data, key))
				}
			}
		}
	}
	return tr, packets, nil
}

func (s *Source) readProgressive(f *mp4.File, r io.ReadSeeker) (*track, []ports.CodecPacket, error) {
	if f.Moov == nil {
		return nil, nil, fmt.Errorf("%w: no moov box", ErrNoVideoTrack)
	}
	trak := videoTrak(f.Moov.Traks)
	if trak == nil {
		return nil, nil, ErrNoVideoTrack
	}
	tr, err := s.describe(trak)
	if err != nil {
		return nil, nil, err
	}

	stbl := trak.Mdia.Minf.Stbl
	if stbl.Stsz == nil {
		return nil, nil, fmt.Errorf("no stsz box found")
	}

	syncSamples := make(map[uint32]bool)
	if stbl.Stss != nil {
		for _, nr := range stbl.Stss.SampleNumber {
			syncSamples[nr] = true
		}
	}

	var packets []ports.CodecPacket
	for nr := uint32(1); nr <= stbl.Stsz.SampleNumber; nr++ {
		data, err := sampleData(stbl, r, nr)
		if err != nil {
			s.log.Warn("Skipping unreadable sample %d: %v", nr, err)
			continue
		}
		key := syncSamples[nr] || len(syncSamples) == 0
		packets = append(packets, tr.packet(len(packets), data, key))
	}
	return tr, packets, nil
}

// sampleData reads one sample of a progressive file through the chunk tables.
func sampleData(stbl *mp4.StblBox, r io.ReadSeeker, nr uint32) ([]byte, error) {
	if stbl.Stsc == nil {
		return nil, fmt.Errorf("missing stsc box")
	}
	chunkNr, firstSampleInChunk, err := stbl.Stsc.ChunkNrFromSampleNr(int(nr))
	if err != nil {
		return nil, fmt.Errorf("get chunk nr: %w", err)
	}

	var offset uint64
	switch {
	case stbl.Stco != nil:
		offset, err = stbl.Stco.GetOffset(chunkNr)
		if err != nil {
			return nil, fmt.Errorf("get chunk offset: %w", err)
		}
	case stbl.Co64 != nil:
		if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
			return nil, fmt.Errorf("chunk nr out of range")
		}
		offset = stbl.Co64.ChunkOffset[chunkNr-1]
	default:
		return nil, fmt.Errorf("no stco or co64 box")
	}

	for s := uint32(firstSampleInChunk); s < nr; s++ {
		offset += uint64(stbl.Stsz.GetSampleSize(int(s)))
	}

	if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to sample: %w", err)
	}
	data := make([]byte, stbl.Stsz.GetSampleSize(int(nr)))
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("read sample: %w", err)
	}
	return data, nil
}

var _ ports.PacketSource = (*Source)(nil)
