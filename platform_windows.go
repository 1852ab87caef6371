package realvk

import vk "github.com/vulkan-go/vulkan"

func platformSurfaceExtensions() []string {
	return []string{"VK_KHR_win32_surface"}
}

func platformInstanceFlags() vk.InstanceCreateFlags {
	return 0
}
