// Package main provides the CLI entry point for hwcodec.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/phoohow/codec/pkg/adapters/codecdetect"
	"github.com/phoohow/codec/pkg/adapters/dx12encoder"
	"github.com/phoohow/codec/pkg/adapters/ffmpegsdk"
	"github.com/phoohow/codec/pkg/adapters/filesink"
	"github.com/phoohow/codec/pkg/adapters/ggrenderer"
	"github.com/phoohow/codec/pkg/adapters/halgpu"
	"github.com/phoohow/codec/pkg/adapters/hostcompute"
	"github.com/phoohow/codec/pkg/adapters/logger"
	"github.com/phoohow/codec/pkg/adapters/mp4sink"
	"github.com/phoohow/codec/pkg/adapters/mp4source"
	"github.com/phoohow/codec/pkg/adapters/nullsink"
	"github.com/phoohow/codec/pkg/adapters/osfilesystem"
	"github.com/phoohow/codec/pkg/codec"
	"github.com/phoohow/codec/pkg/config"
	"github.com/phoohow/codec/pkg/orchestrator"
	"github.com/phoohow/codec/pkg/ports"
	"github.com/phoohow/codec/pkg/stages/decode"
	"github.com/phoohow/codec/pkg/stages/encode"
	"github.com/phoohow/codec/pkg/stages/mux"
	"github.com/phoohow/codec/pkg/stages/source"
	"github.com/phoohow/codec/pkg/summarizer"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %v", err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintln(c.App.Writer, l10n.F("hwcodec version %s", c.App.Version))
	}

	return &cli.App{
		Name:            "hwcodec",
		Usage:           l10n.T("Encode and decode video on GPU hardware codecs"),
		Description:     l10n.T("hwcodec drives the graphics (dx12) and compute (cuda) codec backends on a synthetic test pattern or an MP4 file."),
		Version:         version,
		HideHelpCommand: true,
		Commands: []*cli.Command{
			encodeCommand(),
			decodeCommand(),
			probeCommand(),
			backendsCommand(),
		},
	}
}

// Flag categories
const (
	catSession = "Session"
	catBackend = "Graphics Backend"
	catSDK     = "Codec SDK"
	catOutput  = "Output"
	catDebug   = "Debug"
	catLogging = "Logging"
)

func sessionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file"), Category: l10n.T(catSession)},
		&cli.StringFlag{Name: "device", Aliases: []string{"D"}, Usage: l10n.T("Device type (dx12, cuda)"), Category: l10n.T(catSession)},
		&cli.StringFlag{Name: "codec", Usage: l10n.T("Codec (h264, h265)"), Category: l10n.T(catSession)},
		&cli.StringFlag{Name: "pixel-format", Usage: l10n.T("Source pixel format (argb8, rgba8, bgra8, nv12)"), Category: l10n.T(catSession)},
		&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Usage: l10n.T("Frame width (default: 1920)"), Category: l10n.T(catSession)},
		&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Usage: l10n.T("Frame height (default: 1080)"), Category: l10n.T(catSession)},
		&cli.IntFlag{Name: "frames", Aliases: []string{"n"}, Usage: l10n.T("Number of test-pattern frames (default: 60)"), Category: l10n.T(catSession)},
		&cli.Float64Flag{Name: "fps", Usage: l10n.T("Nominal frame rate (default: 30)"), Category: l10n.T(catSession)},

		&cli.StringFlag{Name: "gpu-backend", Usage: l10n.T("GPU backend (auto, vulkan, dx12, noop)"), Category: l10n.T(catBackend)},
		&cli.DurationFlag{Name: "fence-timeout", Usage: l10n.T("Copy fence wait limit (0 = unlimited)"), Category: l10n.T(catBackend)},

		&cli.StringFlag{Name: "ffmpeg", Usage: l10n.T("Path to ffmpeg (falls back to FFMPEG_PATH env, then PATH)"), Category: l10n.T(catSDK)},
		&cli.BoolFlag{Name: "hardware", Usage: l10n.T("Use NVENC/NVDEC through ffmpeg"), Category: l10n.T(catSDK)},
		&cli.IntFlag{Name: "pool-size", Usage: l10n.T("Input buffers per encode session (default: 4)"), Category: l10n.T(catSDK)},

		&cli.StringFlag{Name: "report", Usage: l10n.T("Write a JSON run report to this path"), Category: l10n.T(catOutput)},
		&cli.StringFlag{Name: "summary", Usage: l10n.T("Write a Markdown run summary to this path"), Category: l10n.T(catOutput)},

		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: l10n.T("Enable debug output"), Category: l10n.T(catDebug)},
		&cli.StringFlag{Name: "debug-dir", Usage: l10n.T("Directory for debug output (default: ./debug)"), Category: l10n.T(catDebug)},

		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: l10n.T("Log level (debug, info, warn, error)"), Category: l10n.T(catLogging)},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: l10n.T("Suppress all log output"), Category: l10n.T(catLogging)},
	}
}

func encodeCommand() *cli.Command {
	return &cli.Command{
		Name:        "encode",
		Usage:       l10n.T("Encode a synthetic test pattern into an MP4 file"),
		Description: l10n.T("Render test-pattern frames, upload them to the device, encode them and mux the packets into an MP4 file."),
		Flags: append(sessionFlags(),
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: l10n.T("Output MP4 file path (default: output.mp4)"), Category: l10n.T(catOutput)},
		),
		Action: runEncode,
	}
}

func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:        "decode",
		Usage:       l10n.T("Decode an MP4 file into raw NV12 frames"),
		Description: l10n.T("Demux the video track of an MP4 file and decode its packets on the device."),
		ArgsUsage:   "<input.mp4>",
		Flags: append(sessionFlags(),
			&cli.StringFlag{Name: "raw-output", Aliases: []string{"o"}, Usage: l10n.T("Write decoded frames back to back to this path"), Category: l10n.T(catOutput)},
		),
		Action: runDecode,
	}
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     l10n.T("Show the video track of an MP4 file"),
		ArgsUsage: "<input.mp4>",
		Action:    runProbe,
	}
}

func backendsCommand() *cli.Command {
	return &cli.Command{
		Name:  "backends",
		Usage: l10n.T("List codec backends and their availability"),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "ffmpeg", Usage: l10n.T("Path to ffmpeg (falls back to FFMPEG_PATH env, then PATH)"), Category: l10n.T(catSDK)},
		},
		Action: runBackends,
	}
}

// loadConfig reads --config when given, applies the flags that were set
// and validates the result.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if c.IsSet("device") {
		cfg.Device = c.String("device")
	}
	if c.IsSet("codec") {
		cfg.Codec = c.String("codec")
	}
	if c.IsSet("pixel-format") {
		cfg.PixelFormat = c.String("pixel-format")
	}
	if c.IsSet("width") {
		cfg.Width = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.Height = c.Int("height")
	}
	if c.IsSet("frames") {
		cfg.Frames = c.Int("frames")
	}
	if c.IsSet("fps") {
		cfg.FPS = c.Float64("fps")
	}

	if c.IsSet("gpu-backend") {
		cfg.GPUBackend = c.String("gpu-backend")
	}
	if c.IsSet("fence-timeout") {
		cfg.FenceTimeout = config.Duration(c.Duration("fence-timeout"))
	}

	if c.IsSet("ffmpeg") {
		cfg.FFmpeg.Path = c.String("ffmpeg")
	}
	if c.IsSet("hardware") {
		cfg.FFmpeg.Hardware = c.Bool("hardware")
	}
	if c.IsSet("pool-size") {
		cfg.FFmpeg.PoolSize = c.Int("pool-size")
	}

	if c.IsSet("output") {
		cfg.Outputs.Video = c.String("output")
	}
	if c.IsSet("raw-output") {
		cfg.Outputs.RawFrames = c.String("raw-output")
	}
	if c.IsSet("report") {
		cfg.Outputs.Report = c.String("report")
	}
	if c.IsSet("summary") {
		cfg.Outputs.Summary = c.String("summary")
	}

	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(c *cli.Context, cfg config.Config) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	return logger.NewConsole(cfg.Level())
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext(log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// runtimeDeps are the adapters shared by the encode and decode commands.
type runtimeDeps struct {
	log      ports.Logger
	fs       *osfilesystem.FileSystem
	renderer *ggrenderer.Renderer
	sink     ports.DebugSink
	deps     codec.Deps
	device   any
	target   source.Target
	close    func()
}

// openDevice opens the device of the configured type: a hal device for
// dx12, a host compute context for cuda.
func openDevice(oc orchestrator.Config, log ports.Logger) (any, source.Target, func(), error) {
	switch oc.DeviceType {
	case ports.DeviceDX12:
		dev, err := halgpu.Open(oc.GPUBackend, log)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open graphics device: %w", err)
		}
		return dev, source.NewTextureTarget(dev), dev.Close, nil
	case ports.DeviceCUDA:
		ctx := hostcompute.New()
		return ctx, source.NewBufferTarget(ctx), func() {}, nil
	default:
		return nil, nil, nil, fmt.Errorf("%w: device %s", ports.ErrInvalidParams, oc.DeviceType)
	}
}

func setup(cfg config.Config, oc orchestrator.Config, sinkCodec ports.CodecType, log ports.Logger) (*runtimeDeps, error) {
	fs := osfilesystem.New()
	renderer := ggrenderer.New()

	var sink ports.DebugSink
	if oc.DebugDir != "" {
		if err := fs.MkdirAll(oc.DebugDir); err != nil {
			return nil, fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(oc.DebugDir, sinkCodec, fs, renderer)
	} else {
		sink = nullsink.New()
	}

	device, target, closeDevice, err := openDevice(oc, log)
	if err != nil {
		return nil, err
	}

	sdk := ffmpegsdk.New(cfg.FFmpegOptions(), log)

	return &runtimeDeps{
		log:      log,
		fs:       fs,
		renderer: renderer,
		sink:     sink,
		deps: codec.Deps{
			SDK:          sdk,
			Logger:       log,
			FenceTimeout: oc.FenceTimeout,
			// Source textures arrive straight from WriteTexture.
			DX12Options: []dx12encoder.Option{dx12encoder.WithSourceState(ports.StateCopyDest)},
		},
		device: device,
		target: target,
		close:  closeDevice,
	}, nil
}

func (r *runtimeDeps) orchestrator() *orchestrator.Orchestrator {
	newEncoder := func(p ports.CreateParams) ports.Encoder { return codec.CreateEncoder(p, r.deps) }
	newDecoder := func(p ports.CreateParams) ports.Decoder { return codec.CreateDecoder(p, r.deps) }

	return orchestrator.New(
		source.NewStage(r.renderer, r.target, r.sink, r.log),
		encode.NewStage(newEncoder, r.sink, r.log),
		mux.NewStage(mp4sink.New(r.log), r.log),
		decode.NewStage(newDecoder, r.sink, r.log),
		mp4source.New(r.log),
		r.fs,
		r.sink,
		r.log,
	)
}

// writeSummary writes the Markdown summary when one was requested.
func (r *runtimeDeps) writeSummary(cfg config.Config, result orchestrator.RunResult) error {
	path := cfg.Outputs.Summary
	if path == "" {
		return nil
	}
	summary := summarizer.NewBuilder().
		WithSettings(cfg.SummarySettings()).
		WithResult(result).
		Build()
	if err := summarizer.NewWriter(summarizer.NewMarkdownFormatter(), r.fs).Write(path, summary); err != nil {
		return err
	}
	r.log.Info("Summary saved to %s", path)
	return nil
}

func runEncode(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)
	oc := cfg.ToOrchestratorConfig()

	rt, err := setup(cfg, oc, ports.DefaultEncodeConfig().Codec, log)
	if err != nil {
		return err
	}
	defer rt.close()
	oc.Device = rt.device

	ctx, cancel := signalContext(log)
	defer cancel()

	result, err := rt.orchestrator().RunEncode(ctx, oc)
	if err != nil {
		return err
	}
	return rt.writeSummary(cfg, result)
}

func runDecode(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("%s", l10n.T("decode requires exactly one input file"))
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)
	oc := cfg.ToOrchestratorConfig()
	oc.InputPath = c.Args().First()

	rt, err := setup(cfg, oc, oc.CodecType, log)
	if err != nil {
		return err
	}
	defer rt.close()
	oc.Device = rt.device

	ctx, cancel := signalContext(log)
	defer cancel()

	result, err := rt.orchestrator().RunDecode(ctx, oc)
	if err != nil {
		return err
	}
	return rt.writeSummary(cfg, result)
}

func runProbe(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("%s", l10n.T("probe requires exactly one input file"))
	}
	path := c.Args().First()

	codecType, err := codecdetect.DetectFromFile(path)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	stream, err := mp4source.New(logger.NewNoop()).ReadPackets(f)
	if err != nil {
		return err
	}

	keys, size := 0, 0
	for _, p := range stream.Packets {
		if p.KeyFrame {
			keys++
		}
		size += len(p.Data)
	}

	w := c.App.Writer
	fmt.Fprintln(w, l10n.F("Codec: %s", codecType))
	fmt.Fprintln(w, l10n.F("Size: %dx%d", stream.Width, stream.Height))
	fmt.Fprintln(w, l10n.F("Packets: %d (%d key frames, %d bytes)", len(stream.Packets), keys, size))
	return nil
}

func runBackends(c *cli.Context) error {
	w := c.App.Writer

	for _, t := range []ports.DeviceType{ports.DeviceDX12, ports.DeviceCUDA} {
		info := codec.Info(t)
		fmt.Fprintln(w, l10n.F("%s: %s (frames are %s)", info.Name, info.Description, info.Frame))
	}

	fmt.Fprintln(w)
	quiet := logger.NewNoop()
	for _, name := range []string{halgpu.BackendVulkan, halgpu.BackendDX12, halgpu.BackendNoop} {
		printAvailability(w, "gpu/"+name, probeBackend(name, quiet))
	}
	printAvailability(w, "ffmpeg", ffmpegsdk.IsAvailable(c.String("ffmpeg")))
	return nil
}

func probeBackend(name string, log ports.Logger) bool {
	dev, err := halgpu.Open(name, log)
	if err != nil {
		return false
	}
	dev.Close()
	return true
}

func printAvailability(w io.Writer, name string, ok bool) {
	if ok {
		fmt.Fprintln(w, l10n.F("%s: available", name))
		return
	}
	fmt.Fprintln(w, l10n.F("%s: not available", name))
}
