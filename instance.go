package realvk

import (
	"strings"
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

var (
	loadOnce sync.Once
	loadErr  error
)

// loadVulkan resolves the loader through GLFW once per process. glfw.Init
// must have been called.
func loadVulkan() error {
	loadOnce.Do(func() {
		vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
		loadErr = vk.Init()
	})
	return loadErr
}

// Instance is the process-level Vulkan instance together with the debug
// callback and layers it was created with.
type Instance struct {
	handle        vk.Instance
	cfg           *Config
	layers        []string
	debugCallback vk.DebugReportCallback
}

// NewInstance loads the API and creates an instance tagged with the
// configured application and engine. windowExtensions are the instance
// extensions the window system reports as required.
func NewInstance(cfg *Config, windowExtensions ...string) (*Instance, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := loadVulkan(); err != nil {
		return nil, errors.Wrap(ErrInitFailed, err.Error())
	}

	appVersion, err := ParseVersion(cfg.App.Version)
	if err != nil {
		appVersion = uint32(DefaultVulkanAppVersion)
	}
	engineVersion, err := ParseVersion(cfg.App.EngineVersion)
	if err != nil {
		engineVersion = uint32(DefaultVulkanAppVersion)
	}
	apiVersion, err := ParseVersion(cfg.App.APIVersion)
	if err != nil {
		apiVersion = uint32(DefaultVulkanAPIVersion)
	}

	available, err := InstanceExtensions()
	if err != nil {
		return nil, errors.Wrap(ErrInitFailed, err.Error())
	}
	extensions, err := instanceExtensionSet(windowExtensions, cfg.Device.Validation, available).Resolve()
	if err != nil {
		return nil, errors.Wrap(ErrInitFailed, err.Error())
	}
	Logger().Info("vulkan: enabling instance extensions", "count", len(extensions))

	var layers []string
	if cfg.Device.Validation {
		actual, err := ValidationLayers()
		if err != nil {
			return nil, errors.Wrap(ErrInitFailed, err.Error())
		}
		var missing int
		layers, missing = checkExisting(actual, []string{validationLayer})
		if missing > 0 {
			Logger().Warn("vulkan: validation layer not available", "layer", validationLayer)
		}
	}

	var flags vk.InstanceCreateFlags
	for _, name := range extensions {
		if strings.HasPrefix(name, "VK_KHR_portability_enumeration") {
			flags = platformInstanceFlags()
		}
	}

	var instance vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		Flags: flags,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         apiVersion,
			ApplicationVersion: appVersion,
			PApplicationName:   safeString(cfg.App.Name),
			EngineVersion:      engineVersion,
			PEngineName:        safeString(cfg.App.EngineName),
		},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}, nil, &instance)
	if err := newError(ret); err != nil {
		return nil, errors.Wrap(ErrInitFailed, err.Error())
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, errors.Wrap(ErrInitFailed, err.Error())
	}

	inst := &Instance{
		handle: instance,
		cfg:    cfg,
		layers: layers,
	}
	if cfg.Device.Validation && len(layers) > 0 {
		inst.debugCallback, err = createDebugCallback(instance)
		if err != nil {
			Logger().Warn("vulkan: debug report callback unavailable", "err", err)
		}
	}
	return inst, nil
}

func (i *Instance) Handle() vk.Instance {
	return i.handle
}

// CreateSurface binds the window to the instance.
func (i *Instance) CreateSurface(w Window) (*Surface, error) {
	ptr, err := w.CreateWindowSurface(i.handle, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create window surface")
	}
	surface := vk.SurfaceFromPointer(ptr)
	if surface == vk.NullSurface {
		return nil, errors.New("vulkan: window returned a null surface")
	}
	return &Surface{instance: i.handle, handle: surface, window: w}, nil
}

// SelectPhysicalDevice returns the first enumerated device that can render
// and present to surface. With Device.Strict it must also be a discrete GPU
// with geometry shader support.
func (i *Instance) SelectPhysicalDevice(surface *Surface) (*PhysicalDevice, error) {
	var count uint32
	ret := vk.EnumeratePhysicalDevices(i.handle, &count, nil)
	if err := newError(ret); err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}
	if count == 0 {
		return nil, errors.Wrap(ErrNoCompatibleDevice, "no GPU devices found")
	}
	gpus := make([]vk.PhysicalDevice, count)
	ret = vk.EnumeratePhysicalDevices(i.handle, &count, gpus)
	if err := newError(ret); err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}

	infos := make([]*DeviceInfo, 0, count)
	for _, gpu := range gpus[:count] {
		infos = append(infos, snapshotDevice(gpu, surface.handle))
	}
	idx, families, err := selectDevice(infos, i.cfg.Device.Strict)
	if err != nil {
		return nil, err
	}
	info := infos[idx]
	Logger().Info("vulkan: selected physical device",
		"name", info.Name,
		"type", info.TypeName(),
		"api", vk.Version(info.APIVersion).String(),
		"driver", vk.Version(info.DriverVersion).String(),
		"vendor", info.VendorID,
		"device", info.DeviceID,
		"geometry_shader", info.GeometryShader,
		"tessellation_shader", info.TessellationShader,
		"graphics_family", families.Graphics,
		"present_family", families.Present)

	return &PhysicalDevice{
		handle:   gpus[idx],
		info:     info,
		families: families,
		layers:   i.layers,
	}, nil
}

// Devices snapshots every physical device without selecting one. surface
// may be nil, in which case presentation support is not queried.
func (i *Instance) Devices(surface *Surface) ([]*DeviceInfo, error) {
	var count uint32
	ret := vk.EnumeratePhysicalDevices(i.handle, &count, nil)
	if err := newError(ret); err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}
	gpus := make([]vk.PhysicalDevice, count)
	ret = vk.EnumeratePhysicalDevices(i.handle, &count, gpus)
	if err := newError(ret); err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}
	s := vk.NullSurface
	if surface != nil {
		s = surface.handle
	}
	infos := make([]*DeviceInfo, 0, count)
	for _, gpu := range gpus[:count] {
		infos = append(infos, snapshotDevice(gpu, s))
	}
	return infos, nil
}

func (i *Instance) Destroy() {
	if i.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(i.handle, i.debugCallback, nil)
		i.debugCallback = vk.NullDebugReportCallback
	}
	if i.handle != nil {
		vk.DestroyInstance(i.handle, nil)
		i.handle = nil
	}
}
