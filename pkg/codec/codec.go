// Package codec selects the encoder or decoder variant for a device type.
//
// Construction is a pure mapping: the returned variant is uninitialized and
// no SDK call is made until its Initialize method runs.
//
//	enc := codec.CreateEncoder(params, codec.Deps{SDK: sdk, Logger: log})
//	if enc == nil {
//		// unsupported device type
//	}
//	defer enc.Destroy()
//	if err := enc.Initialize(params); err != nil { ... }
package codec

import (
	"time"

	"github.com/phoohow/codec/pkg/adapters/cudadecoder"
	"github.com/phoohow/codec/pkg/adapters/cudaencoder"
	"github.com/phoohow/codec/pkg/adapters/dx12decoder"
	"github.com/phoohow/codec/pkg/adapters/dx12encoder"
	"github.com/phoohow/codec/pkg/adapters/logger"
	"github.com/phoohow/codec/pkg/ports"
)

// Deps are the collaborators handed to every variant.
type Deps struct {
	SDK    ports.CodecSDK
	Logger ports.Logger

	// FenceTimeout bounds graphics-backend copy waits. Zero waits indefinitely.
	FenceTimeout time.Duration

	// DX12Options are applied after the defaults above.
	DX12Options []dx12encoder.Option
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logger.NewNoop()
	}
	return d
}

// BackendInfo describes a device type.
type BackendInfo struct {
	Type        ports.DeviceType
	Name        string
	Description string
	Frame       string
}

// Info returns a description of the backend for t.
func Info(t ports.DeviceType) BackendInfo {
	switch t {
	case ports.DeviceDX12:
		return BackendInfo{
			Type:        t,
			Name:        "dx12",
			Description: "graphics backend, GPU copy into SDK input textures",
			Frame:       "texture",
		}
	case ports.DeviceCUDA:
		return BackendInfo{
			Type:        t,
			Name:        "cuda",
			Description: "compute backend, device-to-device buffer copy",
			Frame:       "device buffer",
		}
	default:
		return BackendInfo{Type: t, Name: t.String(), Description: "unsupported"}
	}
}

func init() {
	RegisterEncoder(ports.DeviceDX12, func(d Deps) ports.Encoder {
		opts := append([]dx12encoder.Option{dx12encoder.WithFenceTimeout(d.FenceTimeout)}, d.DX12Options...)
		return dx12encoder.New(d.SDK, d.Logger, opts...)
	})
	RegisterEncoder(ports.DeviceCUDA, func(d Deps) ports.Encoder {
		return cudaencoder.New(d.SDK, d.Logger)
	})
	RegisterDecoder(ports.DeviceDX12, func(d Deps) ports.Decoder {
		return dx12decoder.New(d.Logger)
	})
	RegisterDecoder(ports.DeviceCUDA, func(d Deps) ports.Decoder {
		return cudadecoder.New(d.SDK, d.Logger)
	})
}

// CreateEncoder returns a new uninitialized encoder for params.DeviceType,
// or nil when no variant is registered for it.
func CreateEncoder(params ports.CreateParams, deps Deps) ports.Encoder {
	f, ok := encoderFactory(params.DeviceType)
	if !ok {
		return nil
	}
	return f(deps.withDefaults())
}

// CreateDecoder returns a new uninitialized decoder for params.DeviceType,
// or nil when no variant is registered for it.
func CreateDecoder(params ports.CreateParams, deps Deps) ports.Decoder {
	f, ok := decoderFactory(params.DeviceType)
	if !ok {
		return nil
	}
	return f(deps.withDefaults())
}
