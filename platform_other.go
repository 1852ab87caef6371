//go:build !linux && !android && !windows && !darwin

package realvk

import vk "github.com/vulkan-go/vulkan"

func platformSurfaceExtensions() []string {
	return nil
}

func platformInstanceFlags() vk.InstanceCreateFlags {
	return 0
}
