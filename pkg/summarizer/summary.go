// Package summarizer provides human-readable summaries of encode and decode
// runs.
package summarizer

import (
	"time"

	"github.com/phoohow/codec/pkg/orchestrator"
)

// Summary contains all data collected during a run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time
	Mode        string

	// Stream information
	Stream StreamInfo

	// Codec call accounting
	Calls CallInfo

	// Timing results
	Timing TimingInfo

	// Run settings
	Settings Settings

	// Output details
	Output OutputInfo
}

// StreamInfo describes the coded stream.
type StreamInfo struct {
	Codec     string
	Width     int
	Height    int
	Frames    int
	Packets   int
	KeyFrames int
	Bytes     int
}

// CallInfo counts codec calls that produced no output and outputs drained
// by Flush.
type CallInfo struct {
	Deferred int
	Flushed  int
}

// TimingInfo contains timing measurements.
type TimingInfo struct {
	CodecMs int64
	TotalMs int64
}

// Settings contains the run configuration.
type Settings struct {
	Device       string
	PixelFormat  string
	GPUBackend   string
	FPS          float64
	FenceTimeout time.Duration
	Hardware     bool
}

// OutputInfo describes the written file.
type OutputInfo struct {
	Path  string
	Bytes int
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithResult copies the counters of an orchestrator run.
func (b *Builder) WithResult(r orchestrator.RunResult) *Builder {
	b.summary.Mode = r.Mode
	b.summary.Stream = StreamInfo{
		Codec:     r.Codec,
		Width:     r.Width,
		Height:    r.Height,
		Frames:    r.Frames,
		Packets:   r.Packets,
		KeyFrames: r.KeyFrames,
		Bytes:     r.EncodedBytes,
	}
	b.summary.Calls = CallInfo{
		Deferred: r.Deferred,
		Flushed:  r.Flushed,
	}
	b.summary.Timing = TimingInfo{
		CodecMs: r.CodecTimeMs,
		TotalMs: r.TotalTimeMs,
	}
	b.summary.Output = OutputInfo{
		Path:  r.OutputPath,
		Bytes: r.Bytes,
	}
	if b.summary.Settings.Device == "" {
		b.summary.Settings.Device = r.Device
	}
	return b
}

// WithSettings sets run settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithGeneratedAt overrides the timestamp.
func (b *Builder) WithGeneratedAt(t time.Time) *Builder {
	b.summary.GeneratedAt = t
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
