// Package bitstream handles H.264 and H.265 elementary streams: Annex B and
// length-prefixed (AVCC) framing, NAL unit classification and splitting a
// byte stream into access units.
package bitstream

import (
	"encoding/binary"

	"github.com/phoohow/codec/pkg/ports"
)

// H.264 NAL unit types.
const (
	H264Slice = 1
	H264IDR   = 5
	H264SPS   = 7
	H264PPS   = 8
	H264AUD   = 9
)

// H.265 NAL unit types.
const (
	H265BLAWLP = 16
	H265CRA    = 21
	H265VPS    = 32
	H265SPS    = 33
	H265PPS    = 34
	H265AUD    = 35
)

// NALType returns the NAL unit type of nalu, whose first byte is the NAL header.
func NALType(codec ports.CodecType, nalu []byte) int {
	if len(nalu) == 0 {
		return -1
	}
	if codec == ports.CodecH265 {
		return int(nalu[0]>>1) & 0x3f
	}
	return int(nalu[0]) & 0x1f
}

// IsParameterSet reports whether t is a VPS, SPS or PPS type for codec.
func IsParameterSet(codec ports.CodecType, t int) bool {
	if codec == ports.CodecH265 {
		return t == H265VPS || t == H265SPS || t == H265PPS
	}
	return t == H264SPS || t == H264PPS
}

// IsDelimiter reports whether t is the access unit delimiter type for codec.
func IsDelimiter(codec ports.CodecType, t int) bool {
	if codec == ports.CodecH265 {
		return t == H265AUD
	}
	return t == H264AUD
}

// ParseAnnexB splits a start-code delimited stream into NAL units. The
// returned slices alias data.
func ParseAnnexB(data []byte) [][]byte {
	var nalus [][]byte
	start := -1
	i := 0
	for i+2 < len(data) {
		if data[i] == 0 && data[i+1] == 0 && data[i+2] == 1 {
			if start >= 0 {
				nalus = append(nalus, trimTrailingZeros(data[start:i]))
			}
			i += 3
			start = i
			continue
		}
		i++
	}
	if start >= 0 && start < len(data) {
		nalus = append(nalus, trimTrailingZeros(data[start:]))
	}
	out := nalus[:0]
	for _, n := range nalus {
		if len(n) > 0 {
			out = append(out, n)
		}
	}
	return out
}

// trimTrailingZeros drops the leading zero of a following four-byte start code.
func trimTrailingZeros(b []byte) []byte {
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return b
}

// JoinAnnexB writes nalus with four-byte start codes.
func JoinAnnexB(nalus [][]byte) []byte {
	size := 0
	for _, n := range nalus {
		size += 4 + len(n)
	}
	out := make([]byte, 0, size)
	for _, n := range nalus {
		out = append(out, 0, 0, 0, 1)
		out = append(out, n...)
	}
	return out
}

// ToAVCC converts an Annex B access unit to 4-byte length-prefixed NAL units.
// Parameter sets are dropped when stripParams is set, since the container
// carries them in the sample description.
func ToAVCC(codec ports.CodecType, data []byte, stripParams bool) []byte {
	nalus := ParseAnnexB(data)
	out := make([]byte, 0, len(data)+4*len(nalus))
	for _, n := range nalus {
		t := NALType(codec, n)
		if IsDelimiter(codec, t) || (stripParams && IsParameterSet(codec, t)) {
			continue
		}
		out = binary.BigEndian.AppendUint32(out, uint32(len(n)))
		out = append(out, n...)
	}
	return out
}

// FromAVCC converts 4-byte length-prefixed NAL units to Annex B. A truncated
// trailing unit is dropped.
func FromAVCC(data []byte) []byte {
	var out []byte
	off := 0
	for off+4 <= len(data) {
		n := int(binary.BigEndian.Uint32(data[off:]))
		off += 4
		if n < 0 || off+n > len(data) {
			break
		}
		out = append(out, 0, 0, 0, 1)
		out = append(out, data[off:off+n]...)
		off += n
	}
	return out
}

// ParameterSets returns copies of the parameter set NAL units in data,
// grouped by type in VPS, SPS, PPS order. vps is always nil for H.264.
func ParameterSets(codec ports.CodecType, data []byte) (vps, sps, pps [][]byte) {
	for _, n := range ParseAnnexB(data) {
		c := append([]byte(nil), n...)
		switch t := NALType(codec, n); {
		case codec == ports.CodecH265 && t == H265VPS:
			vps = append(vps, c)
		case codec == ports.CodecH265 && t == H265SPS, codec != ports.CodecH265 && t == H264SPS:
			sps = append(sps, c)
		case codec == ports.CodecH265 && t == H265PPS, codec != ports.CodecH265 && t == H264PPS:
			pps = append(pps, c)
		}
	}
	return vps, sps, pps
}
