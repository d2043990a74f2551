package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/phoohow/codec/pkg/adapters/ffmpegsdk"
	"github.com/phoohow/codec/pkg/ports"
)

// requireE2E skips unless HWCODEC_E2E=1. Encode and decode runs also need
// ffmpeg.
func requireE2E(t *testing.T, needFFmpeg bool) {
	t.Helper()
	if os.Getenv("HWCODEC_E2E") != "1" {
		t.Skip("Skipping E2E test (set HWCODEC_E2E=1 to run)")
	}
	if needFFmpeg && !ffmpegsdk.IsAvailable("") {
		t.Skip("Skipping E2E test: ffmpeg not found")
	}
}

// binaryPath returns HWCODEC_BINARY when set, otherwise builds the CLI
// into a temporary directory.
func binaryPath(t *testing.T) string {
	t.Helper()
	if path := os.Getenv("HWCODEC_BINARY"); path != "" {
		return path
	}

	name := "hwcodec-test"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	out := filepath.Join(t.TempDir(), name)
	build := exec.Command("go", "build", "-o", out, ".")
	if msg, err := build.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build CLI: %v\n%s", err, msg)
	}
	return out
}

func runCLI(t *testing.T, bin string, args ...string) string {
	t.Helper()
	cmd := exec.Command(bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("hwcodec %s failed: %v\nstdout: %s\nstderr: %s", strings.Join(args, " "), err, stdout.String(), stderr.String())
	}
	return stdout.String()
}

// TestE2E_ComputeRoundTrip encodes on the compute backend, probes the file
// and decodes it again.
func TestE2E_ComputeRoundTrip(t *testing.T) {
	requireE2E(t, true)
	bin := binaryPath(t)
	dir := t.TempDir()

	video := filepath.Join(dir, "out.mp4")
	report := filepath.Join(dir, "report.json")
	summary := filepath.Join(dir, "summary.md")
	runCLI(t, bin, "encode",
		"--device", "cuda",
		"-W", "320", "-H", "240",
		"-n", "10",
		"-o", video,
		"--report", report,
		"--summary", summary,
		"-q",
	)

	data, err := os.ReadFile(video)
	if err != nil {
		t.Fatalf("Output file not found: %v", err)
	}
	if len(data) < 8 || string(data[4:8]) != "ftyp" {
		t.Error("Invalid MP4 file")
	}

	var result struct {
		Frames  int `json:"frames"`
		Packets int `json:"packets"`
	}
	raw, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("Report not found: %v", err)
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("Invalid report: %v", err)
	}
	if result.Frames != 10 || result.Packets != 10 {
		t.Errorf("expected 10 frames and 10 packets, got %+v", result)
	}
	if md, err := os.ReadFile(summary); err != nil || !strings.Contains(string(md), "# Encode Summary") {
		t.Errorf("unexpected summary: %v\n%s", err, md)
	}

	probe := runCLI(t, bin, "probe", video)
	if !strings.Contains(probe, "320x240") {
		t.Errorf("unexpected probe output: %s", probe)
	}

	frames := filepath.Join(dir, "out.yuv")
	runCLI(t, bin, "decode", "--device", "cuda", "-o", frames, "-q", video)

	info, err := os.Stat(frames)
	if err != nil {
		t.Fatalf("Raw frames not found: %v", err)
	}
	if want := int64(10 * ports.PixelFormatNV12.FrameSize(320, 240)); info.Size() != want {
		t.Errorf("raw frames size = %d, want %d", info.Size(), want)
	}
}

// TestE2E_DebugOutput checks the files written with --debug.
func TestE2E_DebugOutput(t *testing.T) {
	requireE2E(t, true)
	bin := binaryPath(t)
	dir := t.TempDir()
	debugDir := filepath.Join(dir, "debug")

	runCLI(t, bin, "encode",
		"--device", "cuda",
		"-W", "160", "-H", "120",
		"-n", "3",
		"-o", filepath.Join(dir, "out.mp4"),
		"--debug", "--debug-dir", debugDir,
		"-q",
	)

	for _, name := range []string{"stream.h264", "report.json", filepath.Join("frames", "source", "frame-0002.png")} {
		if _, err := os.Stat(filepath.Join(debugDir, name)); err != nil {
			t.Errorf("debug output %s missing: %v", name, err)
		}
	}
}

func TestE2E_Version(t *testing.T) {
	requireE2E(t, false)

	out := runCLI(t, binaryPath(t), "--version")
	if !strings.Contains(out, "hwcodec version") {
		t.Errorf("Unexpected version output: %s", out)
	}
}

func TestE2E_Backends(t *testing.T) {
	requireE2E(t, false)

	out := runCLI(t, binaryPath(t), "backends")
	for _, want := range []string{"dx12:", "cuda:", "gpu/noop:", "ffmpeg:"} {
		if !strings.Contains(out, want) {
			t.Errorf("backends output missing %q:\n%s", want, out)
		}
	}
}
