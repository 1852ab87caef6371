package realvk

import vk "github.com/vulkan-go/vulkan"

// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
const portabilityEnumerationBit = 0x00000001

// MoltenVK exposes the metal surface; older builds only the macos one.
func platformSurfaceExtensions() []string {
	return []string{
		"VK_EXT_metal_surface",
		"VK_MVK_macos_surface",
		"VK_KHR_portability_enumeration",
	}
}

func platformInstanceFlags() vk.InstanceCreateFlags {
	return vk.InstanceCreateFlags(portabilityEnumerationBit)
}
