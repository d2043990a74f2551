package dx12decoder

import (
	"errors"
	"testing"

	"github.com/phoohow/codec/pkg/adapters/logger"
	"github.com/phoohow/codec/pkg/mocks"
	"github.com/phoohow/codec/pkg/ports"
)

func TestDecoder_NotImplemented(t *testing.T) {
	dec := New(logger.NewNoop())
	defer dec.Destroy()

	err := dec.Initialize(ports.CreateParams{
		Device:     mocks.NewGraphicsDevice(),
		Width:      1920,
		Height:     1080,
		DeviceType: ports.DeviceDX12,
		CodecType:  ports.CodecH264,
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if _, err := dec.DecodePacket(ports.CodecPacket{Data: []byte{0, 0, 0, 1, 0x65}}); !errors.Is(err, ports.ErrNotImplemented) {
		t.Errorf("DecodePacket: expected ErrNotImplemented, got %v", err)
	}
	if _, err := dec.Flush(); !errors.Is(err, ports.ErrNotImplemented) {
		t.Errorf("Flush: expected ErrNotImplemented, got %v", err)
	}
}

func TestDecoder_DeviceTypeMismatch(t *testing.T) {
	dec := New(logger.NewNoop())

	err := dec.Initialize(ports.CreateParams{
		Device:     mocks.NewGraphicsDevice(),
		Width:      64,
		Height:     64,
		DeviceType: ports.DeviceCUDA,
	})
	if !errors.Is(err, ports.ErrDeviceMismatch) {
		t.Fatalf("expected ErrDeviceMismatch, got %v", err)
	}
}

func TestDecoder_DestroyIdempotent(t *testing.T) {
	dec := New(logger.NewNoop())
	dec.Destroy()
	dec.Destroy()

	params := ports.CreateParams{Device: mocks.NewGraphicsDevice(), Width: 8, Height: 8, DeviceType: ports.DeviceDX12}
	if err := dec.Initialize(params); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := dec.Initialize(params); !errors.Is(err, ports.ErrAlreadyInitialized) {
		t.Errorf("expected ErrAlreadyInitialized, got %v", err)
	}
	dec.Destroy()
	if err := dec.Initialize(params); err != nil {
		t.Errorf("re-Initialize after Destroy failed: %v", err)
	}
}
