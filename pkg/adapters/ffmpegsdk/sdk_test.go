package ffmpegsdk

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/phoohow/codec/pkg/adapters/hostcompute"
	"github.com/phoohow/codec/pkg/adapters/logger"
	"github.com/phoohow/codec/pkg/mocks"
	"github.com/phoohow/codec/pkg/ports"
)

func skipWithoutFFmpeg(t *testing.T) {
	t.Helper()
	if !IsAvailable("") {
		t.Skip("ffmpeg not available")
	}
}

func argValue(args []string, flag string) string {
	i := slices.Index(args, flag)
	if i < 0 || i+1 >= len(args) {
		return ""
	}
	return args[i+1]
}

func TestFindFFmpeg_CustomPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-ffmpeg")
	if _, err := FindFFmpeg(missing); !errors.Is(err, ErrFFmpegNotFound) {
		t.Errorf("expected ErrFFmpegNotFound, got %v", err)
	}

	fake := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(fake, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	if got, err := FindFFmpeg(fake); err != nil || got != fake {
		t.Errorf("FindFFmpeg(custom) = %q, %v", got, err)
	}
}

func TestFindFFmpeg_Env(t *testing.T) {
	fake := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(fake, nil, 0755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FFMPEG_PATH", fake)
	if got, err := FindFFmpeg(""); err != nil || got != fake {
		t.Errorf("FindFFmpeg with FFMPEG_PATH = %q, %v", got, err)
	}

	t.Setenv("FFMPEG_PATH", fake+"-missing")
	if _, err := FindFFmpeg(""); !errors.Is(err, ErrFFmpegNotFound) {
		t.Errorf("expected ErrFFmpegNotFound, got %v", err)
	}
}

func TestEncoderName(t *testing.T) {
	tests := []struct {
		codec    ports.CodecType
		hardware bool
		want     string
	}{
		{ports.CodecH264, false, "libx264"},
		{ports.CodecH264, true, "h264_nvenc"},
		{ports.CodecH265, false, "libx265"},
		{ports.CodecH265, true, "hevc_nvenc"},
	}
	for _, tt := range tests {
		if got := EncoderName(tt.codec, tt.hardware); got != tt.want {
			t.Errorf("EncoderName(%s, %v) = %s, want %s", tt.codec, tt.hardware, got, tt.want)
		}
	}
}

func TestEncodeArgs(t *testing.T) {
	params := ports.EncodeSessionParams{
		Width: 1920, Height: 1080,
		Format: ports.BufferFormatARGB,
		Config: ports.DefaultEncodeConfig(),
	}

	sw := New(Options{}, logger.NewNoop()).encodeArgs(params)
	if argValue(sw, "-c:v") != "libx264" || argValue(sw, "-tune") != "zerolatency" {
		t.Errorf("software args: %v", sw)
	}
	if argValue(sw, "-pix_fmt") != "bgra" || argValue(sw, "-s") != "1920x1080" {
		t.Errorf("input args: %v", sw)
	}
	if argValue(sw, "-bsf:v") != "h264_metadata=aud=insert" || argValue(sw, "-bf") != "0" {
		t.Errorf("bitstream args: %v", sw)
	}
	if sw[len(sw)-1] != "pipe:1" || argValue(sw, "-f") != "rawvideo" {
		t.Errorf("pipe args: %v", sw)
	}

	hw := New(Options{Hardware: true}, logger.NewNoop()).encodeArgs(params)
	if argValue(hw, "-c:v") != "h264_nvenc" || argValue(hw, "-preset") != "p4" || argValue(hw, "-tune") != "hq" {
		t.Errorf("hardware args: %v", hw)
	}

	params.Format = ports.BufferFormatNV12
	params.Config.Codec = ports.CodecH265
	hevc := New(Options{}, logger.NewNoop()).encodeArgs(params)
	if argValue(hevc, "-pix_fmt") != "nv12" || argValue(hevc, "-bsf:v") != "hevc_metadata=aud=insert" {
		t.Errorf("hevc args: %v", hevc)
	}
}

func TestDecodeArgs(t *testing.T) {
	args := New(Options{Hardware: true}, logger.NewNoop()).decodeArgs(ports.DecodeSessionParams{
		Codec: ports.CodecH265, MaxWidth: 640, MaxHeight: 360,
	})
	joined := strings.Join(args, " ")
	for _, want := range []string{"-hwaccel cuda", "-f hevc -i pipe:0", "scale=640:360", "-pix_fmt nv12"} {
		if !strings.Contains(joined, want) {
			t.Errorf("decode args %q missing %q", joined, want)
		}
	}
}

func TestOpen_Validation(t *testing.T) {
	sdk := New(Options{}, logger.NewNoop())
	ctx := hostcompute.New()

	if _, err := sdk.OpenComputeDecoder(ctx, ports.DecodeSessionParams{Codec: ports.CodecAV1, MaxWidth: 8, MaxHeight: 8}); !errors.Is(err, ports.ErrUnsupportedFormat) {
		t.Errorf("av1 decode: expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := sdk.OpenComputeDecoder(ctx, ports.DecodeSessionParams{Codec: ports.CodecH264}); !errors.Is(err, ports.ErrInvalidParams) {
		t.Errorf("zero size decode: expected ErrInvalidParams, got %v", err)
	}
	if _, err := sdk.OpenComputeEncoder(ctx, ports.EncodeSessionParams{Width: 8, Height: 8}); !errors.Is(err, ports.ErrUnsupportedFormat) {
		t.Errorf("undefined format: expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := sdk.OpenGraphicsEncoder(mocks.NewGraphicsDevice(), ports.EncodeSessionParams{Width: 8, Height: 8, Format: ports.BufferFormatNV12}); !errors.Is(err, ports.ErrUnsupportedFormat) {
		t.Errorf("nv12 texture: expected ErrUnsupportedFormat, got %v", err)
	}
	if ctx.Live() != 0 {
		t.Errorf("failed opens leaked %d buffers", ctx.Live())
	}
}

func TestOpen_MissingFFmpegReleasesPool(t *testing.T) {
	sdk := New(Options{Path: filepath.Join(t.TempDir(), "missing")}, logger.NewNoop())
	ctx := hostcompute.New()

	_, err := sdk.OpenComputeEncoder(ctx, ports.EncodeSessionParams{Width: 16, Height: 16, Format: ports.BufferFormatNV12})
	if !errors.Is(err, ErrFFmpegNotFound) {
		t.Fatalf("expected ErrFFmpegNotFound, got %v", err)
	}
	if ctx.Live() != 0 {
		t.Errorf("input pool leaked %d buffers", ctx.Live())
	}
}

func encodeAll(t *testing.T, sess ports.EncodeSession, frames int, fill func(in *ports.InputFrame, i int)) []ports.OutputUnit {
	t.Helper()
	var units []ports.OutputUnit
	for i := 0; i < frames; i++ {
		in, err := sess.NextInputFrame()
		if err != nil {
			t.Fatalf("NextInputFrame %d failed: %v", i, err)
		}
		fill(in, i)
		out, err := sess.Encode()
		if err != nil {
			t.Fatalf("Encode %d failed: %v", i, err)
		}
		units = append(units, out...)
	}
	rest, err := sess.EndEncode()
	if err != nil {
		t.Fatalf("EndEncode failed: %v", err)
	}
	return append(units, rest...)
}

func TestComputeEncodeDecode(t *testing.T) {
	skipWithoutFFmpeg(t)

	const w, h, frames = 64, 48, 10
	sdk := New(Options{}, logger.NewNoop())
	ctx := hostcompute.New()

	enc, err := sdk.OpenComputeEncoder(ctx, ports.EncodeSessionParams{
		Width: w, Height: h, Format: ports.BufferFormatNV12, Config: ports.DefaultEncodeConfig(),
	})
	if err != nil {
		t.Fatalf("OpenComputeEncoder failed: %v", err)
	}
	defer enc.Close()

	units := encodeAll(t, enc, frames, func(in *ports.InputFrame, i int) {
		frame := make([]byte, ports.PixelFormatNV12.FrameSize(w, h))
		for j := range frame {
			frame[j] = byte(i*16 + j%7)
		}
		if err := hostcompute.Unpack(in.Buffer, frame); err != nil {
			t.Fatalf("Unpack failed: %v", err)
		}
	})
	if len(units) != frames {
		t.Fatalf("expected %d units, got %d", frames, len(units))
	}
	if units[0].PictureType != ports.PictureTypeIDR {
		t.Errorf("first unit should be IDR, got %s", units[0].PictureType)
	}
	for i, u := range units {
		if u.Timestamp != uint64(i) {
			t.Errorf("unit %d timestamp = %d", i, u.Timestamp)
		}
	}

	dec, err := sdk.OpenComputeDecoder(ctx, ports.DecodeSessionParams{Codec: ports.CodecH264, MaxWidth: w, MaxHeight: h})
	if err != nil {
		t.Fatalf("OpenComputeDecoder failed: %v", err)
	}
	defer dec.Close()

	decoded := 0
	drain := func() {
		for {
			data, _, ok := dec.NextFrame()
			if !ok {
				return
			}
			if len(data) != ports.PixelFormatNV12.FrameSize(w, h) {
				t.Errorf("frame size = %d", len(data))
			}
			decoded++
		}
	}
	for _, u := range units {
		if _, err := dec.Decode(u.Data, u.Timestamp); err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		drain()
	}
	if _, err := dec.Decode(nil, 0); err != nil {
		t.Fatalf("end of stream failed: %v", err)
	}
	drain()

	if decoded != frames {
		t.Errorf("decoded %d frames, want %d", decoded, frames)
	}
	if _, err := dec.Decode([]byte{0, 0, 0, 1}, 0); !errors.Is(err, ErrSessionEnded) {
		t.Errorf("decode after end: expected ErrSessionEnded, got %v", err)
	}
}

func TestGraphicsEncode(t *testing.T) {
	skipWithoutFFmpeg(t)

	dev := mocks.NewGraphicsDevice()
	sdk := New(Options{PoolSize: 2}, logger.NewNoop())
	enc, err := sdk.OpenGraphicsEncoder(dev, ports.EncodeSessionParams{
		Width: 32, Height: 32, Format: ports.BufferFormatARGB, Config: ports.DefaultEncodeConfig(),
	})
	if err != nil {
		t.Fatalf("OpenGraphicsEncoder failed: %v", err)
	}

	seen := map[ports.Texture]bool{}
	units := encodeAll(t, enc, 4, func(in *ports.InputFrame, i int) {
		seen[in.Texture] = true
		if err := dev.WriteTexture(in.Texture, make([]byte, 32*32*4)); err != nil {
			t.Fatalf("WriteTexture failed: %v", err)
		}
		in.Texture.(*mocks.Texture).State = ports.StateCommon
	})
	if len(seen) != 2 {
		t.Errorf("expected the 2-texture pool to be reused, saw %d textures", len(seen))
	}
	if len(units) != 4 || units[0].PictureType != ports.PictureTypeIDR {
		t.Errorf("unexpected output: %d units", len(units))
	}
	if err := enc.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestEncodeSession_Lifecycle(t *testing.T) {
	skipWithoutFFmpeg(t)

	sdk := New(Options{}, logger.NewNoop())
	ctx := hostcompute.New()
	enc, err := sdk.OpenComputeEncoder(ctx, ports.EncodeSessionParams{
		Width: 16, Height: 16, Format: ports.BufferFormatNV12, Config: ports.DefaultEncodeConfig(),
	})
	if err != nil {
		t.Fatalf("OpenComputeEncoder failed: %v", err)
	}

	if _, err := enc.Encode(); !errors.Is(err, ErrNoCurrentFrame) {
		t.Errorf("Encode without frame: expected ErrNoCurrentFrame, got %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if _, err := enc.NextInputFrame(); !errors.Is(err, ErrSessionEnded) {
		t.Errorf("NextInputFrame after Close: expected ErrSessionEnded, got %v", err)
	}
	if ctx.Live() != 0 {
		t.Errorf("Close leaked %d buffers", ctx.Live())
	}
}
