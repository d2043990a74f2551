// Package cudadecoder implements ports.Decoder on the compute backend.
package cudadecoder

import (
	"fmt"

	"github.com/phoohow/codec/pkg/adapters/hwsession"
	"github.com/phoohow/codec/pkg/ports"
)

// Decoder is the compute-backend hardware decoder. Decoded frames are NV12.
type Decoder struct {
	sdk ports.CodecSDK
	log ports.Logger

	session ports.DecodeSession
	eos     bool
}

// New creates an uninitialized decoder.
func New(sdk ports.CodecSDK, log ports.Logger) *Decoder {
	return &Decoder{
		sdk: sdk,
		log: log.WithComponent("cuda-decoder"),
	}
}

// SessionCodec returns the codec the SDK session is opened with. Only H.264
// and H.265 are decodable; anything else falls back to H.264.
func SessionCodec(c ports.CodecType) ports.CodecType {
	if c == ports.CodecH265 {
		return ports.CodecH265
	}
	return ports.CodecH264
}

// Initialize opens an SDK decode session sized to params.
func (d *Decoder) Initialize(params ports.CreateParams) error {
	if d.session != nil {
		return ports.ErrAlreadyInitialized
	}
	if params.DeviceType != ports.DeviceCUDA {
		d.log.Error("Device type mismatch: want %s, got %s", ports.DeviceCUDA, params.DeviceType)
		return fmt.Errorf("%w: cuda decoder given %s device", ports.ErrDeviceMismatch, params.DeviceType)
	}
	if err := params.Validate(); err != nil {
		return err
	}
	ctx, ok := params.Device.(ports.ComputeContext)
	if !ok {
		d.log.Error("Device handle is not a compute context: %T", params.Device)
		return fmt.Errorf("%w: device handle %T is not a compute context", ports.ErrDeviceMismatch, params.Device)
	}
	if d.sdk == nil {
		return fmt.Errorf("%w: no codec SDK", ports.ErrSDKFailure)
	}

	codec := SessionCodec(params.CodecType)
	if codec != params.CodecType {
		d.log.Warn("Codec %s is not decodable, falling back to %s", params.CodecType, codec)
	}
	sp := ports.DecodeSessionParams{
		Codec:     codec,
		MaxWidth:  params.Width,
		MaxHeight: params.Height,
	}
	var session ports.DecodeSession
	err := hwsession.Guard(d.log, "open session", func() error {
		var err error
		session, err = d.sdk.OpenComputeDecoder(ctx, sp)
		return err
	})
	if err != nil {
		d.log.Error("Failed to open decode session: %v", err)
		return fmt.Errorf("%w: open decode session: %w", ports.ErrSDKFailure, err)
	}

	d.session = session
	d.eos = false
	d.log.Info("Decoder initialized: %dx%d %s", params.Width, params.Height, codec)
	return nil
}

// DecodePacket submits packet and returns the oldest decoded frame, or
// ports.ErrNoOutput when none is ready yet.
func (d *Decoder) DecodePacket(packet ports.CodecPacket) (*ports.FrameData, error) {
	if d.session == nil {
		return nil, ports.ErrNotInitialized
	}
	if len(packet.Data) == 0 {
		return nil, fmt.Errorf("%w: empty packet", ports.ErrInvalidFrame)
	}

	err := hwsession.Guard(d.log, "decode", func() error {
		_, err := d.session.Decode(packet.Data, packet.Timestamp)
		return err
	})
	if err != nil {
		d.log.Error("Decode failed: %v", err)
		return nil, fmt.Errorf("%w: decode: %w", ports.ErrSDKFailure, err)
	}

	f, err := d.next()
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ports.ErrNoOutput
	}
	return f, nil
}

// Flush signals end of stream on the first call and returns the remaining
// frames one per call until ports.ErrNothingToFlush.
func (d *Decoder) Flush() (*ports.FrameData, error) {
	if d.session == nil {
		return nil, ports.ErrNotInitialized
	}
	if !d.eos {
		err := hwsession.Guard(d.log, "end of stream", func() error {
			_, err := d.session.Decode(nil, 0)
			return err
		})
		if err != nil {
			d.log.Error("Flush failed: %v", err)
			return nil, fmt.Errorf("%w: end of stream: %w", ports.ErrSDKFailure, err)
		}
		d.eos = true
	}
	f, err := d.next()
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ports.ErrNothingToFlush
	}
	return f, nil
}

// Destroy closes the SDK session. It is a no-op when not initialized.
func (d *Decoder) Destroy() {
	if d.session == nil {
		return
	}
	err := hwsession.Guard(d.log, "close session", func() error {
		return d.session.Close()
	})
	if err != nil {
		d.log.Warn("Closing decode session: %v", err)
	}
	d.session = nil
	d.eos = false
}

// next pops one frame from the session into caller-owned memory. It
// returns nil when no frame is ready.
func (d *Decoder) next() (*ports.FrameData, error) {
	var (
		data []byte
		ts   uint64
		ok   bool
	)
	err := hwsession.Guard(d.log, "next frame", func() error {
		data, ts, ok = d.session.NextFrame()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	d.log.Debug("Decoded frame: %d bytes", len(out))
	return &ports.FrameData{Data: out, Timestamp: ts}, nil
}

var _ ports.Decoder = (*Decoder)(nil)
