//go:build windows && !nogpu

package halgpu

import (
	// Registers the DX12 backend with hal.GetBackend.
	_ "github.com/gogpu/wgpu/hal/dx12"
)
