// Package hwcodec provides a high-level API for configuring encode and
// decode runs.
package hwcodec

import (
	"time"

	"github.com/phoohow/codec/pkg/orchestrator"
	"github.com/phoohow/codec/pkg/ports"
)

// Config represents the configuration for an hwcodec run.
type Config struct {
	// Session
	Device      ports.DeviceType  // Backend variant (default: dx12)
	Codec       ports.CodecType   // Requested codec (default: h264)
	PixelFormat ports.PixelFormat // Source frame layout (default: argb8)
	Width       int               // Frame width (default: 1920)
	Height      int               // Frame height (default: 1080)
	Frames      int               // Test-pattern frames to encode (min: 1)
	FPS         float64           // Nominal frame rate (default: 30)

	// Graphics backend
	GPUBackend   string        // hal backend: auto, vulkan, dx12 or noop
	FenceTimeout time.Duration // Copy fence wait bound (0 = unbounded)

	// SDK
	FFmpegPath string // ffmpeg binary (empty = search)
	Hardware   bool   // Use NVENC/NVDEC through ffmpeg
}

// ConfigBuilder provides a fluent interface for building Config.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder creates a new ConfigBuilder with graphics preset defaults.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: graphicsDefaults(),
	}
}

// NewComputeConfigBuilder creates a new ConfigBuilder with compute preset defaults.
func NewComputeConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: computeDefaults(),
	}
}

// graphicsDefaults returns the graphics preset configuration.
func graphicsDefaults() Config {
	return Config{
		Device:      ports.DeviceDX12,
		Codec:       ports.CodecH264,
		PixelFormat: ports.PixelFormatARGB8,
		Width:       1920,
		Height:      1080,
		Frames:      60,
		FPS:         30.0,

		GPUBackend: "auto",
	}
}

// computeDefaults returns the compute preset configuration.
func computeDefaults() Config {
	return Config{
		Device:      ports.DeviceCUDA,
		Codec:       ports.CodecH264,
		PixelFormat: ports.PixelFormatNV12,
		Width:       1920,
		Height:      1080,
		Frames:      60,
		FPS:         30.0,
	}
}

// Build returns the final Config, applying validation and constraints.
func (b *ConfigBuilder) Build() Config {
	cfg := b.config

	// Enforce at least one frame
	if cfg.Frames < 1 {
		cfg.Frames = 1
	}

	if cfg.FPS <= 0 {
		cfg.FPS = 30.0
	}

	if cfg.FenceTimeout < 0 {
		cfg.FenceTimeout = 0
	}

	// Textures have no planar layout
	if cfg.Device == ports.DeviceDX12 && cfg.PixelFormat == ports.PixelFormatNV12 {
		cfg.PixelFormat = ports.PixelFormatARGB8
	}

	return cfg
}

// WithDevice sets the backend variant.
func (b *ConfigBuilder) WithDevice(device ports.DeviceType) *ConfigBuilder {
	b.config.Device = device
	return b
}

// WithCodec sets the requested codec.
func (b *ConfigBuilder) WithCodec(codec ports.CodecType) *ConfigBuilder {
	b.config.Codec = codec
	return b
}

// WithPixelFormat sets the source frame layout.
// NV12 on the dx12 device is replaced by ARGB8.
func (b *ConfigBuilder) WithPixelFormat(format ports.PixelFormat) *ConfigBuilder {
	b.config.PixelFormat = format
	return b
}

// WithSize sets the frame size.
func (b *ConfigBuilder) WithSize(width, height int) *ConfigBuilder {
	b.config.Width = width
	b.config.Height = height
	return b
}

// WithFrames sets the number of frames to encode.
// Values below 1 will be forced to 1.
func (b *ConfigBuilder) WithFrames(frames int) *ConfigBuilder {
	b.config.Frames = frames
	return b
}

// WithFPS sets the nominal frame rate.
func (b *ConfigBuilder) WithFPS(fps float64) *ConfigBuilder {
	b.config.FPS = fps
	return b
}

// WithGPUBackend sets the hal backend of the graphics device.
func (b *ConfigBuilder) WithGPUBackend(backend string) *ConfigBuilder {
	b.config.GPUBackend = backend
	return b
}

// WithFenceTimeout bounds the copy fence wait. Use 0 to wait indefinitely.
func (b *ConfigBuilder) WithFenceTimeout(d time.Duration) *ConfigBuilder {
	b.config.FenceTimeout = d
	return b
}

// WithFFmpegPath sets the ffmpeg binary.
func (b *ConfigBuilder) WithFFmpegPath(path string) *ConfigBuilder {
	b.config.FFmpegPath = path
	return b
}

// WithHardware enables NVENC/NVDEC through ffmpeg.
func (b *ConfigBuilder) WithHardware(enabled bool) *ConfigBuilder {
	b.config.Hardware = enabled
	return b
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig(inputPath, outputPath string) orchestrator.Config {
	return orchestrator.Config{
		DeviceType:  c.Device,
		CodecType:   c.Codec,
		PixelFormat: c.PixelFormat,
		Width:       c.Width,
		Height:      c.Height,
		Frames:      c.Frames,
		FPS:         c.FPS,

		GPUBackend:   c.GPUBackend,
		FenceTimeout: c.FenceTimeout,

		InputPath:  inputPath,
		OutputPath: outputPath,
	}
}
