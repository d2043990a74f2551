//go:build !nogpu

package halgpu

import (
	// Registers the Vulkan backend with hal.GetBackend.
	_ "github.com/gogpu/wgpu/hal/vulkan"
)
