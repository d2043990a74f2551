// Package ffmpegsdk implements ports.CodecSDK on an external ffmpeg process.
//
// Each session runs one persistent ffmpeg. Encode sessions stream raw frames
// into stdin and read an Annex B elementary stream with access unit
// delimiters inserted, which is cut into output units as it arrives. Decode
// sessions stream Annex B packets in and read fixed-size NV12 frames out.
// With Hardware set, NVENC/NVDEC are requested; otherwise libx264/libx265
// and software decoding are used.
package ffmpegsdk

import (
	"fmt"
	"strings"

	"github.com/phoohow/codec/pkg/ports"
)

// Options configures the SDK.
type Options struct {
	// Path is the ffmpeg binary. Empty searches FFMPEG_PATH, PATH and
	// common install locations.
	Path string

	// Hardware selects h264_nvenc/hevc_nvenc and CUDA decoding.
	Hardware bool

	// FrameRate is the nominal input rate passed to the encoder.
	FrameRate float64

	// PoolSize is the number of input buffers per encode session.
	PoolSize int
}

// DefaultOptions returns the options used when fields are left zero.
func DefaultOptions() Options {
	return Options{
		FrameRate: 30,
		PoolSize:  4,
	}
}

// SDK opens ffmpeg-backed sessions.
type SDK struct {
	opts Options
	log  ports.Logger
}

// New creates an SDK. No process is started until a session is opened.
func New(opts Options, log ports.Logger) *SDK {
	def := DefaultOptions()
	if opts.FrameRate <= 0 {
		opts.FrameRate = def.FrameRate
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = def.PoolSize
	}
	return &SDK{opts: opts, log: log.WithComponent("ffmpeg-sdk")}
}

// Options returns the effective options.
func (s *SDK) Options() Options { return s.opts }

// OpenGraphicsEncoder opens a session whose input frames are textures
// allocated on device. Frames are read back in StateCommon before encoding,
// so device must also implement ports.TextureAllocator and ports.TextureReader.
func (s *SDK) OpenGraphicsEncoder(device ports.GraphicsDevice, params ports.EncodeSessionParams) (ports.EncodeSession, error) {
	alloc, ok := device.(ports.TextureAllocator)
	if !ok {
		return nil, fmt.Errorf("%w: device %T cannot allocate textures", ports.ErrDeviceMismatch, device)
	}
	reader, ok := device.(ports.TextureReader)
	if !ok {
		return nil, fmt.Errorf("%w: device %T cannot read textures", ports.ErrDeviceMismatch, device)
	}
	if params.Format != ports.BufferFormatARGB {
		return nil, fmt.Errorf("%w: graphics input %s", ports.ErrUnsupportedFormat, params.Format)
	}

	desc := ports.TextureDesc{Width: params.Width, Height: params.Height, Format: params.Format.PixelFormat()}
	inputs := make([]ports.InputFrame, 0, s.opts.PoolSize)
	release := func() {
		for _, in := range inputs {
			alloc.DestroyTexture(in.Texture)
		}
	}
	for i := 0; i < s.opts.PoolSize; i++ {
		tex, err := alloc.CreateTexture(desc, fmt.Sprintf("ffmpeg-input-%d", i))
		if err != nil {
			release()
			return nil, fmt.Errorf("%w: create input texture: %w", ports.ErrDeviceFailure, err)
		}
		inputs = append(inputs, ports.InputFrame{Texture: tex})
	}

	stage := func(in *ports.InputFrame) ([]byte, error) {
		return reader.ReadTexture(in.Texture, ports.StateCommon)
	}
	sess, err := s.openEncoder(params, inputs, stage, release)
	if err != nil {
		release()
		return nil, err
	}
	return sess, nil
}

// OpenComputeEncoder opens a session whose input frames are buffers
// allocated from ctx. The buffers must be host accessible.
func (s *SDK) OpenComputeEncoder(ctx ports.ComputeContext, params ports.EncodeSessionParams) (ports.EncodeSession, error) {
	format := params.Format.PixelFormat()
	if format == ports.PixelFormatUnknown {
		return nil, fmt.Errorf("%w: compute input %s", ports.ErrUnsupportedFormat, params.Format)
	}

	inputs := make([]ports.InputFrame, 0, s.opts.PoolSize)
	release := func() {
		for _, in := range inputs {
			ctx.FreeBuffer(in.Buffer)
		}
	}
	for i := 0; i < s.opts.PoolSize; i++ {
		buf, err := ctx.AllocBuffer(params.Width, params.Height, format)
		if err != nil {
			release()
			return nil, fmt.Errorf("%w: allocate input buffer: %w", ports.ErrDeviceFailure, err)
		}
		if _, ok := buf.(ports.HostAccessible); !ok {
			ctx.FreeBuffer(buf)
			release()
			return nil, fmt.Errorf("%w: buffer %T is not host accessible", ports.ErrDeviceMismatch, buf)
		}
		inputs = append(inputs, ports.InputFrame{Buffer: buf})
	}

	stage := func(in *ports.InputFrame) ([]byte, error) {
		return packBuffer(in.Buffer)
	}
	sess, err := s.openEncoder(params, inputs, stage, release)
	if err != nil {
		release()
		return nil, err
	}
	return sess, nil
}

// OpenComputeDecoder opens a decode session producing NV12 frames of
// MaxWidth x MaxHeight.
func (s *SDK) OpenComputeDecoder(ctx ports.ComputeContext, params ports.DecodeSessionParams) (ports.DecodeSession, error) {
	if params.Codec != ports.CodecH264 && params.Codec != ports.CodecH265 {
		return nil, fmt.Errorf("%w: decoder codec %s", ports.ErrUnsupportedFormat, params.Codec)
	}
	if params.MaxWidth <= 0 || params.MaxHeight <= 0 {
		return nil, fmt.Errorf("%w: decoder size %dx%d", ports.ErrInvalidParams, params.MaxWidth, params.MaxHeight)
	}
	path, err := FindFFmpeg(s.opts.Path)
	if err != nil {
		return nil, err
	}
	return startDecodeSession(path, s.decodeArgs(params), params, s.log)
}

func (s *SDK) openEncoder(params ports.EncodeSessionParams, inputs []ports.InputFrame, stage stageFunc, release func()) (*encodeSession, error) {
	if params.Width <= 0 || params.Height <= 0 {
		return nil, fmt.Errorf("%w: encoder size %dx%d", ports.ErrInvalidParams, params.Width, params.Height)
	}
	path, err := FindFFmpeg(s.opts.Path)
	if err != nil {
		return nil, err
	}
	return startEncodeSession(path, s.encodeArgs(params), params, inputs, stage, release, s.log)
}

// EncoderName returns the ffmpeg encoder used for codec.
func EncoderName(codec ports.CodecType, hardware bool) string {
	switch {
	case codec == ports.CodecH265 && hardware:
		return "hevc_nvenc"
	case codec == ports.CodecH265:
		return "libx265"
	case hardware:
		return "h264_nvenc"
	default:
		return "libx264"
	}
}

// elementaryFormat is the ffmpeg raw bitstream muxer/demuxer name for codec.
func elementaryFormat(codec ports.CodecType) string {
	if codec == ports.CodecH265 {
		return "hevc"
	}
	return "h264"
}

func rawPixelFormat(f ports.BufferFormat) string {
	if f == ports.BufferFormatNV12 {
		return "nv12"
	}
	return "bgra"
}

func (s *SDK) encodeArgs(params ports.EncodeSessionParams) []string {
	codec := params.Config.Codec
	if codec != ports.CodecH265 {
		codec = ports.CodecH264
	}
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", rawPixelFormat(params.Format),
		"-s", fmt.Sprintf("%dx%d", params.Width, params.Height),
		"-r", fmt.Sprintf("%.2f", s.opts.FrameRate),
		"-i", "pipe:0",
		"-c:v", EncoderName(codec, s.opts.Hardware),
	}

	if s.opts.Hardware {
		if params.Config.Preset != "" {
			args = append(args, "-preset", params.Config.Preset)
		}
		if params.Config.Tuning != "" {
			args = append(args, "-tune", params.Config.Tuning)
		}
		args = append(args, "-delay", "0")
	} else {
		args = append(args, "-preset", "veryfast", "-tune", "zerolatency")
	}

	args = append(args,
		"-bf", "0",
		"-g", fmt.Sprintf("%d", int(s.opts.FrameRate*2)),
		"-pix_fmt", "yuv420p",
		"-bsf:v", elementaryFormat(codec)+"_metadata=aud=insert",
		"-flush_packets", "1",
		"-f", elementaryFormat(codec),
		"pipe:1",
	)
	return args
}

func (s *SDK) decodeArgs(params ports.DecodeSessionParams) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-fflags", "nobuffer",
		"-flags", "low_delay",
	}
	if s.opts.Hardware {
		args = append(args, "-hwaccel", "cuda")
	}
	args = append(args,
		"-f", elementaryFormat(params.Codec),
		"-i", "pipe:0",
		"-vf", fmt.Sprintf("scale=%d:%d", params.MaxWidth, params.MaxHeight),
		"-pix_fmt", "nv12",
		"-f", "rawvideo",
		"pipe:1",
	)
	return args
}

func commandLine(path string, args []string) string {
	return path + " " + strings.Join(args, " ")
}

var _ ports.CodecSDK = (*SDK)(nil)
