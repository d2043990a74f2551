package codec

import (
	"sort"
	"sync"

	"github.com/phoohow/codec/pkg/ports"
)

// EncoderFactory constructs an uninitialized encoder variant.
type EncoderFactory func(deps Deps) ports.Encoder

// DecoderFactory constructs an uninitialized decoder variant.
type DecoderFactory func(deps Deps) ports.Decoder

var (
	registryMu sync.RWMutex
	encoders   = make(map[ports.DeviceType]EncoderFactory)
	decoders   = make(map[ports.DeviceType]DecoderFactory)
)

// RegisterEncoder registers the encoder variant for a device type.
// A previously registered factory for the same type is replaced.
func RegisterEncoder(t ports.DeviceType, factory EncoderFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	encoders[t] = factory
}

// RegisterDecoder registers the decoder variant for a device type.
// A previously registered factory for the same type is replaced.
func RegisterDecoder(t ports.DeviceType, factory DecoderFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	decoders[t] = factory
}

// UnregisterEncoder removes the encoder variant for t.
// This is useful for testing.
func UnregisterEncoder(t ports.DeviceType) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(encoders, t)
}

// UnregisterDecoder removes the decoder variant for t.
// This is useful for testing.
func UnregisterDecoder(t ports.DeviceType) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(decoders, t)
}

// EncoderTypes returns the device types with a registered encoder, sorted.
func EncoderTypes() []ports.DeviceType {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := make([]ports.DeviceType, 0, len(encoders))
	for t := range encoders {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// DecoderTypes returns the device types with a registered decoder, sorted.
func DecoderTypes() []ports.DeviceType {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := make([]ports.DeviceType, 0, len(decoders))
	for t := range decoders {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func encoderFactory(t ports.DeviceType) (EncoderFactory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := encoders[t]
	return f, ok
}

func decoderFactory(t ports.DeviceType) (DecoderFactory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := decoders[t]
	return f, ok
}
