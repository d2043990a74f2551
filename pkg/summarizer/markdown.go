package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// Formatter converts a Summary to text.
type Formatter interface {
	Format(summary *Summary) string
}

// FormatFunc adapts a function to Formatter.
type FormatFunc func(summary *Summary) string

func (f FormatFunc) Format(summary *Summary) string { return f(summary) }

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder

	title := "Run Summary"
	switch s.Mode {
	case "encode":
		title = "Encode Summary"
	case "decode":
		title = "Decode Summary"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Generated at %s\n\n", s.GeneratedAt.Format(time.RFC3339))

	b.WriteString("## Stream\n\n")
	b.WriteString("| Item | Value |\n|------|-------|\n")
	row(&b, "Codec", s.Stream.Codec)
	row(&b, "Size", fmt.Sprintf("%dx%d", s.Stream.Width, s.Stream.Height))
	row(&b, "Frames", fmt.Sprintf("%d", s.Stream.Frames))
	row(&b, "Packets", fmt.Sprintf("%d (%d key frames)", s.Stream.Packets, s.Stream.KeyFrames))
	row(&b, "Coded size", formatBytes(int64(s.Stream.Bytes)))
	b.WriteString("\n")

	b.WriteString("## Codec Calls\n\n")
	b.WriteString("| Item | Value |\n|------|-------|\n")
	row(&b, "Deferred", fmt.Sprintf("%d", s.Calls.Deferred))
	row(&b, "Flushed", fmt.Sprintf("%d", s.Calls.Flushed))
	row(&b, "Codec time", fmt.Sprintf("%d ms", s.Timing.CodecMs))
	row(&b, "Total time", fmt.Sprintf("%d ms", s.Timing.TotalMs))
	if fps := throughput(s.Stream.Frames, s.Timing.CodecMs); fps > 0 {
		row(&b, "Throughput", fmt.Sprintf("%.1f fps", fps))
	}
	b.WriteString("\n")

	b.WriteString("## Settings\n\n")
	b.WriteString("| Item | Value |\n|------|-------|\n")
	row(&b, "Device", s.Settings.Device)
	if s.Settings.PixelFormat != "" {
		row(&b, "Pixel format", s.Settings.PixelFormat)
	}
	if s.Settings.GPUBackend != "" {
		row(&b, "GPU backend", s.Settings.GPUBackend)
	}
	if s.Settings.FPS > 0 {
		row(&b, "Frame rate", fmt.Sprintf("%.2f fps", s.Settings.FPS))
	}
	if s.Settings.FenceTimeout > 0 {
		row(&b, "Fence timeout", s.Settings.FenceTimeout.String())
	} else {
		row(&b, "Fence timeout", "unlimited")
	}
	row(&b, "Hardware SDK", yesNo(s.Settings.Hardware))

	if s.Output.Path != "" {
		b.WriteString("\n## Output\n\n")
		b.WriteString("| Item | Value |\n|------|-------|\n")
		row(&b, "File", s.Output.Path)
		row(&b, "Size", formatBytes(int64(s.Output.Bytes)))
	}

	return b.String()
}

func row(b *strings.Builder, item, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", item, value)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func throughput(frames int, ms int64) float64 {
	if frames <= 0 || ms <= 0 {
		return 0
	}
	return float64(frames) * 1000 / float64(ms)
}

// formatBytes formats a byte count with binary units.
func formatBytes(n int64) string {
	const unit = 1024
	switch {
	case n >= unit*unit:
		return fmt.Sprintf("%.2f MB", float64(n)/(unit*unit))
	case n >= unit:
		return fmt.Sprintf("%.2f KB", float64(n)/unit)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
