// Package dx12decoder is the graphics-backend decoder. Decoding on the
// graphics device is not implemented: Initialize accepts a DX12 device so the
// factory contract holds, and every decode call fails with
// ports.ErrNotImplemented.
package dx12decoder

import (
	"fmt"

	"github.com/phoohow/codec/pkg/ports"
)

// Decoder is the graphics-backend decoder stub.
type Decoder struct {
	log         ports.Logger
	params      ports.CreateParams
	initialized bool
}

// New creates an uninitialized decoder.
func New(log ports.Logger) *Decoder {
	return &Decoder{log: log.WithComponent("dx12-decoder")}
}

// Initialize records params after checking the device type.
func (d *Decoder) Initialize(params ports.CreateParams) error {
	if d.initialized {
		return ports.ErrAlreadyInitialized
	}
	if params.DeviceType != ports.DeviceDX12 {
		d.log.Error("Device type mismatch: want %s, got %s", ports.DeviceDX12, params.DeviceType)
		return fmt.Errorf("%w: dx12 decoder given %s device", ports.ErrDeviceMismatch, params.DeviceType)
	}
	if err := params.Validate(); err != nil {
		return err
	}
	d.params = params
	d.initialized = true
	d.log.Info("Decoder initialized: %dx%d %s", params.Width, params.Height, params.CodecType)
	return nil
}

// DecodePacket always fails with ports.ErrNotImplemented.
func (d *Decoder) DecodePacket(packet ports.CodecPacket) (*ports.FrameData, error) {
	if !d.initialized {
		return nil, ports.ErrNotImplemented
	}
	d.log.Warn("Decoding on the %s backend is not implemented", ports.DeviceDX12)
	return nil, fmt.Errorf("%w: dx12 decode of %s", ports.ErrNotImplemented, d.params.CodecType)
}

// Flush always fails with ports.ErrNotImplemented.
func (d *Decoder) Flush() (*ports.FrameData, error) {
	return nil, ports.ErrNotImplemented
}

// Destroy clears the recorded parameters.
func (d *Decoder) Destroy() {
	d.initialized = false
	d.params = ports.CreateParams{}
}

var _ ports.Decoder = (*Decoder)(nil)
