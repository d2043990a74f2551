// Package halgpu implements ports.GraphicsDevice on the gogpu/wgpu hardware
// abstraction layer, so the graphics backend runs on Vulkan, DX12 or the
// noop backend.
//
// Command queues and allocators map onto the device's single hal.Queue,
// command lists onto hal.CommandEncoder, fences and events onto hal.Fence
// and Device.Wait. Resource-state barriers are translated to texture usage
// transitions.
package halgpu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/phoohow/codec/pkg/ports"
)

// Backend names accepted by Open.
const (
	BackendAuto   = "auto"
	BackendVulkan = "vulkan"
	BackendDX12   = "dx12"
	BackendNoop   = "noop"
)

var (
	// ErrBackendUnavailable is returned when the requested backend is not
	// compiled in or has no adapters.
	ErrBackendUnavailable = errors.New("halgpu: backend not available")

	// ErrForeignObject is returned when a ports object from another device
	// implementation is passed in.
	ErrForeignObject = errors.New("halgpu: object not created by this device")
)

// Device is a hal device and queue exposed as a ports.GraphicsDevice.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	backend string
	adapter string
	log     ports.Logger
}

// Wrap exposes an existing hal device and queue. Close does not destroy them.
func Wrap(device hal.Device, queue hal.Queue, log ports.Logger) *Device {
	return &Device{
		device:  device,
		queue:   queue,
		backend: "external",
		log:     log.WithComponent("halgpu"),
	}
}

// Open creates an instance for backend, picks a discrete or integrated
// adapter when one exists and opens a device on it. BackendAuto tries
// Vulkan, then DX12.
func Open(backend string, log ports.Logger) (*Device, error) {
	log = log.WithComponent("halgpu")
	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend == "" {
		backend = BackendAuto
	}

	candidates := []string{backend}
	if backend == BackendAuto {
		candidates = []string{BackendVulkan, BackendDX12}
	}

	var errs []error
	for _, name := range candidates {
		d, err := open(name, log)
		if err == nil {
			log.Info("GPU device opened: %s (%s)", d.adapter, d.backend)
			return d, nil
		}
		log.Debug("Backend %s unavailable: %v", name, err)
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	return nil, errors.Join(errs...)
}

func open(name string, log ports.Logger) (*Device, error) {
	instance, err := createInstance(name)
	if err != nil {
		return nil, err
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: no adapters", ErrBackendUnavailable)
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}

	return &Device{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		backend:  name,
		adapter:  selected.Info.Name,
		log:      log,
	}, nil
}

func createInstance(name string) (hal.Instance, error) {
	switch name {
	case BackendNoop:
		api := noop.API{}
		return api.CreateInstance(nil)
	case BackendVulkan:
		return registeredInstance(gputypes.BackendVulkan)
	case BackendDX12:
		return registeredInstance(gputypes.BackendDX12)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrBackendUnavailable, name)
	}
}

func registeredInstance(b gputypes.Backend) (hal.Instance, error) {
	backend, ok := hal.GetBackend(b)
	if !ok {
		return nil, ErrBackendUnavailable
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	return instance, nil
}

// Backend returns the name of the backend the device was opened on.
func (d *Device) Backend() string { return d.backend }

// Adapter returns the adapter name reported by the driver.
func (d *Device) Adapter() string { return d.adapter }

// HAL returns the underlying device and queue.
func (d *Device) HAL() (hal.Device, hal.Queue) { return d.device, d.queue }

// Close destroys the device and instance when they were created by Open.
func (d *Device) Close() {
	if d.instance == nil {
		return
	}
	if d.device != nil {
		d.device.Destroy()
		d.device = nil
	}
	d.instance.Destroy()
	d.instance = nil
}

var (
	_ ports.GraphicsDevice   = (*Device)(nil)
	_ ports.TextureAllocator = (*Device)(nil)
	_ ports.TextureUploader  = (*Device)(nil)
	_ ports.TextureReader    = (*Device)(nil)
)
