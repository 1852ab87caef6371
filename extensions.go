package realvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

const (
	surfaceExtension     = "VK_KHR_surface"
	swapchainExtension   = "VK_KHR_swapchain"
	debugReportExtension = "VK_EXT_debug_report"
	validationLayer      = "VK_LAYER_KHRONOS_validation"
)

// ExtensionSet resolves the extensions a component asks for against what the
// driver reports. Required names must all be present; wanted names are
// enabled when available.
type ExtensionSet struct {
	Required  []string
	Wanted    []string
	Available []string
}

// Missing lists required names the driver does not report.
func (e ExtensionSet) Missing() []string {
	var missing []string
	for _, name := range e.Required {
		if _, n := checkExisting(e.Available, []string{name}); n > 0 {
			missing = append(missing, name)
		}
	}
	return missing
}

// Resolve returns the NUL-terminated list to enable.
func (e ExtensionSet) Resolve() ([]string, error) {
	if missing := e.Missing(); len(missing) > 0 {
		return nil, errors.Errorf("missing required extensions %v", missing)
	}
	required, _ := checkExisting(e.Available, e.Required)
	wanted, missing := checkExisting(e.Available, e.Wanted)
	if missing > 0 {
		Logger().Debug("vulkan: optional extensions unavailable", "count", missing)
	}
	return mergeNames(required, wanted), nil
}

// InstanceExtensions gets a list of instance extensions available on the platform.
func InstanceExtensions() (names []string, err error) {
	defer checkErr(&err)

	var count uint32
	ret := vk.EnumerateInstanceExtensionProperties("", &count, nil)
	orPanic(newError(ret))
	list := make([]vk.ExtensionProperties, count)
	ret = vk.EnumerateInstanceExtensionProperties("", &count, list)
	orPanic(newError(ret))
	for _, ext := range list {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, err
}

// DeviceExtensions gets a list of extensions available on the provided physical device.
func DeviceExtensions(gpu vk.PhysicalDevice) (names []string, err error) {
	defer checkErr(&err)

	var count uint32
	ret := vk.EnumerateDeviceExtensionProperties(gpu, "", &count, nil)
	orPanic(newError(ret))
	list := make([]vk.ExtensionProperties, count)
	ret = vk.EnumerateDeviceExtensionProperties(gpu, "", &count, list)
	orPanic(newError(ret))
	for _, ext := range list {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, err
}

// ValidationLayers gets a list of validation layers available on the platform.
func ValidationLayers() (names []string, err error) {
	defer checkErr(&err)

	var count uint32
	ret := vk.EnumerateInstanceLayerProperties(&count, nil)
	orPanic(newError(ret))
	list := make([]vk.LayerProperties, count)
	ret = vk.EnumerateInstanceLayerProperties(&count, list)
	orPanic(newError(ret))
	for _, layer := range list {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, err
}

// instanceExtensionSet is the surface extension plus whatever the window
// system needs, with the OS surface extensions as optional extras.
func instanceExtensionSet(windowRequired []string, validation bool, available []string) ExtensionSet {
	set := ExtensionSet{
		Required:  mergeNames([]string{surfaceExtension}, windowRequired),
		Wanted:    platformSurfaceExtensions(),
		Available: available,
	}
	if validation {
		set.Wanted = append(set.Wanted, debugReportExtension)
	}
	return set
}

func deviceExtensionSet(available []string) ExtensionSet {
	return ExtensionSet{
		Required:  []string{swapchainExtension},
		Available: available,
	}
}
