package bitstream

import "github.com/phoohow/codec/pkg/ports"

// PictureType classifies an Annex B access unit. H.264 IDR slices and H.265
// IRAP pictures are reported as IDR; other H.264 slices are classified from
// the slice header.
func PictureType(codec ports.CodecType, au []byte) ports.PictureType {
	result := ports.PictureTypeUnknown
	for _, n := range ParseAnnexB(au) {
		t := NALType(codec, n)
		if codec == ports.CodecH265 {
			switch {
			case t >= H265BLAWLP && t <= H265CRA:
				return ports.PictureTypeIDR
			case t < H265BLAWLP:
				result = ports.PictureTypeP
			}
			continue
		}
		switch t {
		case H264IDR:
			return ports.PictureTypeIDR
		case H264Slice:
			if pt, ok := sliceType(n); ok {
				result = pt
			}
		}
	}
	return result
}

// sliceType reads slice_type from an H.264 slice NAL unit. Emulation
// prevention bytes are not removed; the two leading Exp-Golomb codes sit
// well before any.
func sliceType(nalu []byte) (ports.PictureType, bool) {
	r := bitReader{data: nalu[1:]}
	if _, ok := r.ue(); !ok { // first_mb_in_slice
		return ports.PictureTypeUnknown, false
	}
	v, ok := r.ue()
	if !ok {
		return ports.PictureTypeUnknown, false
	}
	switch v % 5 {
	case 0, 3:
		return ports.PictureTypeP, true
	case 1:
		return ports.PictureTypeB, true
	default:
		return ports.PictureTypeI, true
	}
}

type bitReader struct {
	data []byte
	pos  int
}

func (r *bitReader) bit() (uint, bool) {
	if r.pos >= len(r.data)*8 {
		return 0, false
	}
	b := uint(r.data[r.pos/8]>>(7-r.pos%8)) & 1
	r.pos++
	return b, true
}

// ue reads an unsigned Exp-Golomb code.
func (r *bitReader) ue() (uint, bool) {
	zeros := 0
	for {
		b, ok := r.bit()
		if !ok {
			return 0, false
		}
		if b == 1 {
			break
		}
		zeros++
		if zeros > 31 {
			return 0, false
		}
	}
	v := uint(1)
	for i := 0; i < zeros; i++ {
		b, ok := r.bit()
		if !ok {
			return 0, false
		}
		v = v<<1 | b
	}
	return v - 1, true
}

// Splitter cuts a continuous Annex B byte stream into access units at
// access unit delimiters. The stream must carry a delimiter at the start of
// every access unit.
type Splitter struct {
	codec ports.CodecType
	buf   []byte
	scan  int
}

// NewSplitter creates a splitter for codec.
func NewSplitter(codec ports.CodecType) *Splitter {
	return &Splitter{codec: codec}
}

// Write appends p and returns the access units completed by it. A unit is
// complete once the delimiter of the next one has been seen.
func (s *Splitter) Write(p []byte) [][]byte {
	s.buf = append(s.buf, p...)
	var aus [][]byte
	for {
		cut := -1
		i := s.scan
		for ; i+3 < len(s.buf); i++ {
			if s.buf[i] != 0 || s.buf[i+1] != 0 || s.buf[i+2] != 1 {
				continue
			}
			if !IsDelimiter(s.codec, NALType(s.codec, s.buf[i+3:i+4])) {
				continue
			}
			start := i
			if start > 0 && s.buf[start-1] == 0 {
				start--
			}
			if start > 0 {
				cut = start
				break
			}
		}
		if cut < 0 {
			s.scan = i
			return aus
		}
		aus = append(aus, append([]byte(nil), s.buf[:cut]...))
		s.buf = append(s.buf[:0], s.buf[cut:]...)
		s.scan = 0
	}
}

// Flush returns the buffered remainder as the final access unit, or nil.
func (s *Splitter) Flush() []byte {
	if len(s.buf) == 0 {
		return nil
	}
	au := append([]byte(nil), s.buf...)
	s.buf = s.buf[:0]
	s.scan = 0
	return au
}
