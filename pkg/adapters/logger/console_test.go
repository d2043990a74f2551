package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/phoohow/codec/pkg/ports"
)

func TestConsoleLogger_LevelFiltering(t *testing.T) {
	var out, errOut bytes.Buffer
	log := NewWriter(ports.LevelWarn, &out, &errOut)

	log.Debug("debug %d", 1)
	log.Info("info %d", 2)
	log.Warn("warn %d", 3)
	log.Error("error %d", 4)

	if out.Len() != 0 {
		t.Errorf("expected nothing on stdout, got %q", out.String())
	}
	want := "warn 3\nerror 4\n"
	if errOut.String() != want {
		t.Errorf("stderr = %q, want %q", errOut.String(), want)
	}
}

func TestConsoleLogger_Streams(t *testing.T) {
	var out, errOut bytes.Buffer
	log := NewWriter(ports.LevelDebug, &out, &errOut)

	log.Debug("fence wait")
	log.Info("session opened")
	log.Error("device lost")

	if got := out.String(); got != "fence wait\nsession opened\n" {
		t.Errorf("stdout = %q", got)
	}
	if got := errOut.String(); got != "device lost\n" {
		t.Errorf("stderr = %q", got)
	}
}

func TestConsoleLogger_WithComponent(t *testing.T) {
	var out bytes.Buffer
	log := NewWriter(ports.LevelInfo, &out, &out)

	log.WithComponent("dx12-encoder").Info("Encoder initialized: %dx%d", 1920, 1080)
	log.Info("plain")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", out.String())
	}
	if !strings.HasPrefix(lines[0], "[dx12-encoder] ") {
		t.Errorf("component prefix missing: %q", lines[0])
	}
	if !strings.Contains(lines[0], "1920") {
		t.Errorf("arguments not formatted: %q", lines[0])
	}
	if lines[1] != "plain" {
		t.Errorf("parent logger gained a component: %q", lines[1])
	}
}

func TestConsoleLogger_Quiet(t *testing.T) {
	var out bytes.Buffer
	log := NewWriter(ports.LevelQuiet, &out, &out)

	log.Error("should not appear")

	if out.Len() != 0 {
		t.Errorf("quiet logger wrote %q", out.String())
	}
}

func TestNoopLogger(t *testing.T) {
	var log ports.Logger = NewNoop()
	log.Info("ignored %d", 1)
	if log.WithComponent("x") != log {
		t.Error("WithComponent should return the same no-op logger")
	}
}
