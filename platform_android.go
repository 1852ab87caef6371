//go:build android

package realvk

import vk "github.com/vulkan-go/vulkan"

func platformSurfaceExtensions() []string {
	return []string{"VK_KHR_android_surface"}
}

func platformInstanceFlags() vk.InstanceCreateFlags {
	return 0
}
