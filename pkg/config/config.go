// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/phoohow/codec/pkg/adapters/ffmpegsdk"
	"github.com/phoohow/codec/pkg/adapters/halgpu"
	"github.com/phoohow/codec/pkg/hwcodec"
	"github.com/phoohow/codec/pkg/orchestrator"
	"github.com/phoohow/codec/pkg/ports"
	"github.com/phoohow/codec/pkg/summarizer"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config represents the full configuration for hwcodec.
type Config struct {
	// Session
	Device      string  `yaml:"device"`
	Codec       string  `yaml:"codec"`
	PixelFormat string  `yaml:"pixel_format"`
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Frames      int     `yaml:"frames"`
	FPS         float64 `yaml:"fps"`

	// Graphics backend
	GPUBackend   string   `yaml:"gpu_backend"`
	FenceTimeout Duration `yaml:"fence_timeout"`

	// SDK
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	// Outputs
	Outputs OutputConfig `yaml:"outputs"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// FFmpegConfig configures the ffmpeg-backed codec SDK.
type FFmpegConfig struct {
	Path     string `yaml:"path"`
	Hardware bool   `yaml:"hardware"`
	PoolSize int    `yaml:"pool_size"`
}

// OutputConfig names the files a run writes.
type OutputConfig struct {
	Video     string `yaml:"video"`
	RawFrames string `yaml:"raw_frames"`
	Report    string `yaml:"report"`
	Summary   string `yaml:"summary"`
}

// Duration is a time.Duration read from strings such as "500ms" or "2s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" || s == "0" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		// Session
		Device:      "dx12",
		Codec:       "h264",
		PixelFormat: "argb8",
		Width:       1920,
		Height:      1080,
		Frames:      60,
		FPS:         30.0,

		// Graphics backend
		GPUBackend:   halgpu.BackendAuto,
		FenceTimeout: 0,

		// SDK
		FFmpeg: FFmpegConfig{
			PoolSize: 4,
		},

		// Outputs
		Outputs: OutputConfig{
			Video: "output.mp4",
		},

		LogLevel: "info",
		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks field values and cross-field constraints.
func (c Config) Validate() error {
	var errs []error

	device := ports.ParseDeviceType(c.Device)
	if device == ports.DeviceUnknown {
		errs = append(errs, fmt.Errorf("device %q: want dx12 or cuda", c.Device))
	}
	if _, err := ports.ParseCodecType(c.Codec); err != nil {
		errs = append(errs, err)
	}
	format := ports.ParsePixelFormat(c.PixelFormat)
	switch {
	case format == ports.PixelFormatUnknown:
		errs = append(errs, fmt.Errorf("pixel format %q: want argb8, rgba8, bgra8 or nv12", c.PixelFormat))
	case device == ports.DeviceDX12 && format == ports.PixelFormatNV12:
		errs = append(errs, fmt.Errorf("pixel format nv12 is not a texture format on the dx12 device"))
	case device == ports.DeviceCUDA && ports.BufferFormatFor(format) == ports.BufferFormatUndefined:
		errs = append(errs, fmt.Errorf("pixel format %s is not accepted by the cuda device", format))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("size %dx%d must be positive", c.Width, c.Height))
	}
	if c.Frames <= 0 {
		errs = append(errs, fmt.Errorf("frames %d must be positive", c.Frames))
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps %v must be positive", c.FPS))
	}
	if c.FenceTimeout < 0 {
		errs = append(errs, fmt.Errorf("fence timeout %v must not be negative", time.Duration(c.FenceTimeout)))
	}
	switch c.GPUBackend {
	case halgpu.BackendAuto, halgpu.BackendVulkan, halgpu.BackendDX12, halgpu.BackendNoop:
	default:
		errs = append(errs, fmt.Errorf("gpu backend %q: want auto, vulkan, dx12 or noop", c.GPUBackend))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// Session returns the session settings through the hwcodec builder of the
// configured device, so its constraints apply. Call Validate first;
// unparsable names fall back to their zero values.
func (c Config) Session() hwcodec.Config {
	device := ports.ParseDeviceType(c.Device)
	builder := hwcodec.NewConfigBuilder()
	if device == ports.DeviceCUDA {
		builder = hwcodec.NewComputeConfigBuilder()
	}
	codec, _ := ports.ParseCodecType(c.Codec)

	return builder.
		WithDevice(device).
		WithCodec(codec).
		WithPixelFormat(ports.ParsePixelFormat(c.PixelFormat)).
		WithSize(c.Width, c.Height).
		WithFrames(c.Frames).
		WithFPS(c.FPS).
		WithGPUBackend(c.GPUBackend).
		WithFenceTimeout(time.Duration(c.FenceTimeout)).
		WithFFmpegPath(c.FFmpeg.Path).
		WithHardware(c.FFmpeg.Hardware).
		Build()
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	oc := c.Session().ToOrchestratorConfig("", c.Outputs.Video)
	oc.RawFramesPath = c.Outputs.RawFrames
	oc.ReportPath = c.Outputs.Report
	if c.Debug {
		oc.DebugDir = c.DebugDir
	}
	return oc
}

// SummarySettings returns the settings shown in a run summary.
func (c Config) SummarySettings() summarizer.Settings {
	s := c.Session()
	return summarizer.Settings{
		Device:       s.Device.String(),
		PixelFormat:  s.PixelFormat.String(),
		GPUBackend:   s.GPUBackend,
		FPS:          s.FPS,
		FenceTimeout: s.FenceTimeout,
		Hardware:     s.Hardware,
	}
}

// FFmpegOptions returns the codec SDK options for this configuration.
func (c Config) FFmpegOptions() ffmpegsdk.Options {
	return ffmpegsdk.Options{
		Path:      c.FFmpeg.Path,
		Hardware:  c.FFmpeg.Hardware,
		FrameRate: c.FPS,
		PoolSize:  c.FFmpeg.PoolSize,
	}
}

// Level returns the parsed log level.
func (c Config) Level() ports.LogLevel {
	return ports.ParseLogLevel(c.LogLevel)
}
