// Package orchestrator coordinates the encode and decode pipelines.
package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/phoohow/codec/pkg/pipeline"
	"github.com/phoohow/codec/pkg/ports"
)

// ErrStageMissing is returned when a run needs a stage the orchestrator
// was built without.
var ErrStageMissing = errors.New("orchestrator: stage not configured")

// Config contains all configuration for one run.
type Config struct {
	// Session
	DeviceType  ports.DeviceType
	CodecType   ports.CodecType
	PixelFormat ports.PixelFormat
	Width       int
	Height      int
	Frames      int
	FPS         float64

	// Device is the backend device handle: a ports.GraphicsDevice for
	// DeviceDX12, a ports.ComputeContext for DeviceCUDA.
	Device any

	// Graphics backend
	GPUBackend   string
	FenceTimeout time.Duration

	// Input
	InputPath string

	// Outputs
	OutputPath    string
	RawFramesPath string
	ReportPath    string
	DebugDir      string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		DeviceType:  ports.DeviceDX12,
		CodecType:   ports.CodecH264,
		PixelFormat: ports.PixelFormatARGB8,
		Width:       1920,
		Height:      1080,
		Frames:      60,
		FPS:         30.0,
		GPUBackend:  "auto",
		OutputPath:  "output.mp4",
	}
}

// Orchestrator coordinates the execution of the pipeline stages.
type Orchestrator struct {
	sourceStage  pipeline.Stage[pipeline.SourceInput, pipeline.SourceResult]
	encodeStage  pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult]
	muxStage     pipeline.Stage[pipeline.MuxInput, pipeline.MuxResult]
	decodeStage  pipeline.Stage[pipeline.DecodeInput, pipeline.DecodeResult]
	packetSource ports.PacketSource
	fs           ports.FileSystem
	sink         ports.DebugSink
	logger       ports.Logger
}

// New creates a new Orchestrator. Stages a run does not use may be nil:
// RunEncode needs source, encode and mux; RunDecode needs the packet
// source and decode.
func New(
	sourceStage pipeline.Stage[pipeline.SourceInput, pipeline.SourceResult],
	encodeStage pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult],
	muxStage pipeline.Stage[pipeline.MuxInput, pipeline.MuxResult],
	decodeStage pipeline.Stage[pipeline.DecodeInput, pipeline.DecodeResult],
	packetSource ports.PacketSource,
	fs ports.FileSystem,
	sink ports.DebugSink,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		sourceStage:  sourceStage,
		encodeStage:  encodeStage,
		muxStage:     muxStage,
		decodeStage:  decodeStage,
		packetSource: packetSource,
		fs:           fs,
		sink:         sink,
		logger:       logger,
	}
}

func (o *Orchestrator) params(config Config) ports.CreateParams {
	return ports.CreateParams{
		Device:      config.Device,
		Width:       config.Width,
		Height:      config.Height,
		DeviceType:  config.DeviceType,
		CodecType:   config.CodecType,
		PixelFormat: config.PixelFormat,
	}
}

// RunEncode renders the test pattern, encodes it and writes an MP4.
func (o *Orchestrator) RunEncode(ctx context.Context, config Config) (RunResult, error) {
	if o.sourceStage == nil || o.encodeStage == nil || o.muxStage == nil {
		return RunResult{}, fmt.Errorf("%w: encode needs source, encode and mux stages", ErrStageMissing)
	}
	start := time.Now()
	o.logger.Info("Starting encode pipeline: %d frames of %dx%d on %s", config.Frames, config.Width, config.Height, config.DeviceType)

	// 1. Render and upload source frames
	source, err := o.sourceStage.Execute(ctx, pipeline.SourceInput{
		Width:  config.Width,
		Height: config.Height,
		Frames: config.Frames,
		Format: config.PixelFormat,
	})
	if err != nil {
		o.logger.Error("Failed to prepare source frames: %v", err)
		return RunResult{}, fmt.Errorf("source stage: %w", err)
	}
	defer source.Release()
	o.logger.Info("Uploaded %d source frames", len(source.Frames))

	// 2. Encode
	encoded, err := o.encodeStage.Execute(ctx, pipeline.EncodeInput{
		Frames: source.Frames,
		Params: o.params(config),
	})
	if err != nil {
		o.logger.Error("Failed to encode frames: %v", err)
		return RunResult{}, fmt.Errorf("encode stage: %w", err)
	}
	o.logger.Info("Encoded %d packets in %v", len(encoded.Packets), encoded.Duration.Round(time.Millisecond))

	// 3. Mux. Both encoder variants emit the session codec of
	// ports.DefaultEncodeConfig whatever CodecType asks for.
	muxed, err := o.muxStage.Execute(ctx, pipeline.MuxInput{
		Packets: encoded.Packets,
		Options: ports.MuxOptions{
			Width:  config.Width,
			Height: config.Height,
			FPS:    config.FPS,
			Codec:  ports.DefaultEncodeConfig().Codec,
		},
	})
	if err != nil {
		o.logger.Error("Failed to mux packets: %v", err)
		return RunResult{}, fmt.Errorf("mux stage: %w", err)
	}

	// 4. Write output file
	if err := o.fs.WriteFile(config.OutputPath, muxed.Data); err != nil {
		o.logger.Error("Failed to write output: %v", err)
		return RunResult{}, fmt.Errorf("write output: %w", err)
	}
	o.logger.Info("Output saved to %s", config.OutputPath)

	result := RunResult{
		Mode:         "encode",
		Device:       config.DeviceType.String(),
		Codec:        ports.DefaultEncodeConfig().Codec.String(),
		Width:        config.Width,
		Height:       config.Height,
		Frames:       len(source.Frames),
		Packets:      len(encoded.Packets),
		KeyFrames:    countKeyFrames(encoded.Packets),
		Deferred:     encoded.Deferred,
		Flushed:      encoded.Flushed,
		Bytes:        len(muxed.Data),
		CodecTimeMs:  encoded.Duration.Milliseconds(),
		TotalTimeMs:  time.Since(start).Milliseconds(),
		OutputPath:   config.OutputPath,
		EncodedBytes: packetBytes(encoded.Packets),
	}
	o.report(config, result)

	o.logger.Info("Pipeline completed successfully")
	return result, nil
}

// RunDecode demuxes config.InputPath, decodes it and optionally writes the
// raw frames back to back.
func (o *Orchestrator) RunDecode(ctx context.Context, config Config) (RunResult, error) {
	if o.packetSource == nil || o.decodeStage == nil {
		return RunResult{}, fmt.Errorf("%w: decode needs a packet source and decode stage", ErrStageMissing)
	}
	start := time.Now()
	o.logger.Info("Starting decode pipeline: %s on %s", config.InputPath, config.DeviceType)

	// 1. Demux
	data, err := o.fs.ReadFile(config.InputPath)
	if err != nil {
		o.logger.Error("Failed to read input: %v", err)
		return RunResult{}, fmt.Errorf("read input: %w", err)
	}
	stream, err := o.packetSource.ReadPackets(bytes.NewReader(data))
	if err != nil {
		o.logger.Error("Failed to demux input: %v", err)
		return RunResult{}, fmt.Errorf("demux: %w", err)
	}
	o.logger.Info("Read %d %s packets of %dx%d", len(stream.Packets), stream.Codec, stream.Width, stream.Height)

	// 2. Decode
	params := o.params(config)
	params.Width, params.Height, params.CodecType = 0, 0, stream.Codec
	decoded, err := o.decodeStage.Execute(ctx, pipeline.DecodeInput{Stream: stream, Params: params})
	if err != nil {
		o.logger.Error("Failed to decode packets: %v", err)
		return RunResult{}, fmt.Errorf("decode stage: %w", err)
	}
	o.logger.Info("Decoded %d frames in %v", len(decoded.Frames), decoded.Duration.Round(time.Millisecond))

	// 3. Raw frames
	rawBytes := 0
	if config.RawFramesPath != "" {
		var raw bytes.Buffer
		for _, f := range decoded.Frames {
			raw.Write(f.Data)
		}
		rawBytes = raw.Len()
		if err := o.fs.WriteFile(config.RawFramesPath, raw.Bytes()); err != nil {
			o.logger.Error("Failed to write output: %v", err)
			return RunResult{}, fmt.Errorf("write raw frames: %w", err)
		}
		o.logger.Info("Output saved to %s", config.RawFramesPath)
	}

	result := RunResult{
		Mode:         "decode",
		Device:       config.DeviceType.String(),
		Codec:        stream.Codec.String(),
		Width:        stream.Width,
		Height:       stream.Height,
		Frames:       len(decoded.Frames),
		Packets:      len(stream.Packets),
		KeyFrames:    countKeyFrames(stream.Packets),
		Deferred:     decoded.Deferred,
		Flushed:      decoded.Flushed,
		Bytes:        rawBytes,
		CodecTimeMs:  decoded.Duration.Milliseconds(),
		TotalTimeMs:  time.Since(start).Milliseconds(),
		OutputPath:   config.RawFramesPath,
		EncodedBytes: packetBytes(stream.Packets),
	}
	o.report(config, result)

	o.logger.Info("Pipeline completed successfully")
	return result, nil
}

// report writes the run summary to config.ReportPath and the debug sink.
// Failures are logged, not returned.
func (o *Orchestrator) report(config Config, result RunResult) {
	if config.ReportPath == "" && !o.sink.Enabled() {
		return
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		o.logger.Warn("Failed to encode report: %v", err)
		return
	}
	if config.ReportPath != "" {
		if err := o.fs.WriteFile(config.ReportPath, data); err != nil {
			o.logger.Warn("Failed to write report: %v", err)
		}
	}
	if o.sink.Enabled() {
		if err := o.sink.SaveReport(data); err != nil {
			o.logger.Warn("Failed to write report: %v", err)
		}
	}
}

func countKeyFrames(packets []ports.CodecPacket) int {
	n := 0
	for _, p := range packets {
		if p.KeyFrame {
			n++
		}
	}
	return n
}

func packetBytes(packets []ports.CodecPacket) int {
	n := 0
	for _, p := range packets {
		n += len(p.Data)
	}
	return n
}

// RunResult summarizes a run. It is written as the JSON report.
type RunResult struct {
	Mode   string `json:"mode"`
	Device string `json:"device"`
	Codec  string `json:"codec"`
	Width  int    `json:"width"`
	Height int    `json:"height"`

	Frames    int `json:"frames"`
	Packets   int `json:"packets"`
	KeyFrames int `json:"keyFrames"`

	// Deferred counts calls answered with ErrNoOutput; Flushed counts
	// outputs drained by Flush.
	Deferred int `json:"deferred"`
	Flushed  int `json:"flushed"`

	EncodedBytes int    `json:"encodedBytes"`
	Bytes        int    `json:"outputBytes"`
	OutputPath   string `json:"outputPath,omitempty"`

	CodecTimeMs int64 `json:"codecTimeMs"`
	TotalTimeMs int64 `json:"totalTimeMs"`
}
