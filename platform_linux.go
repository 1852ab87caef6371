//go:build linux && !android

package realvk

import vk "github.com/vulkan-go/vulkan"

func platformSurfaceExtensions() []string {
	return []string{
		"VK_KHR_xlib_surface",
		"VK_KHR_xcb_surface",
		"VK_KHR_wayland_surface",
	}
}

func platformInstanceFlags() vk.InstanceCreateFlags {
	return 0
}
