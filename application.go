package realvk

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// Window is the part of a native window the renderer needs. *glfw.Window
// satisfies it.
type Window interface {
	CreateWindowSurface(instance interface{}, allocCallbacks unsafe.Pointer) (surface uintptr, err error)
	GetFramebufferSize() (width, height int)
	GetRequiredInstanceExtensions() []string
}

var (
	DefaultVulkanAppVersion = vk.MakeVersion(1, 0, 0)
	DefaultVulkanAPIVersion = vk.MakeVersion(1, 0, 0)
)

// SwapchainDimensions describes the size and format of the swapchain.
type SwapchainDimensions struct {
	// Width of the swapchain.
	Width uint32
	// Height of the swapchain.
	Height uint32
	// Format is the pixel format of the swapchain.
	Format vk.Format
}
