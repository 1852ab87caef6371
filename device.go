package realvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// DeviceInfo is a point-in-time snapshot of a physical device.
type DeviceInfo struct {
	Name          string
	Type          vk.PhysicalDeviceType
	APIVersion    uint32
	DriverVersion uint32
	VendorID      uint32
	DeviceID      uint32

	GeometryShader     bool
	TessellationShader bool

	QueueFamilies []QueueFamily
	MemoryTypes   []MemoryType
	MemoryHeaps   []MemoryHeap
}

type MemoryType struct {
	Flags     vk.MemoryPropertyFlags
	HeapIndex uint32
}

type MemoryHeap struct {
	Size        uint64
	DeviceLocal bool
}

func (d *DeviceInfo) TypeName() string {
	return physicalDeviceType(d.Type)
}

func physicalDeviceType(t vk.PhysicalDeviceType) string {
	switch t {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "Integrated GPU"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "Discrete GPU"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "Virtual GPU"
	case vk.PhysicalDeviceTypeCpu:
		return "CPU"
	}
	return "Other"
}

func snapshotDevice(gpu vk.PhysicalDevice, surface vk.Surface) *DeviceInfo {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(gpu, &props)
	props.Deref()

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(gpu, &features)
	features.Deref()

	info := &DeviceInfo{
		Name:               vk.ToString(props.DeviceName[:]),
		Type:               props.DeviceType,
		APIVersion:         props.ApiVersion,
		DriverVersion:      props.DriverVersion,
		VendorID:           props.VendorID,
		DeviceID:           props.DeviceID,
		GeometryShader:     features.GeometryShader.B(),
		TessellationShader: features.TessellationShader.B(),
	}

	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, families)
	for i := uint32(0); i < count; i++ {
		families[i].Deref()
		var present vk.Bool32
		if surface != vk.NullSurface {
			vk.GetPhysicalDeviceSurfaceSupport(gpu, i, surface, &present)
		}
		info.QueueFamilies = append(info.QueueFamilies, QueueFamily{
			Index:      i,
			Flags:      families[i].QueueFlags,
			QueueCount: families[i].QueueCount,
			Present:    present.B(),
		})
	}

	var mem vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(gpu, &mem)
	mem.Deref()
	for i := uint32(0); i < mem.MemoryTypeCount; i++ {
		mem.MemoryTypes[i].Deref()
		info.MemoryTypes = append(info.MemoryTypes, MemoryType{
			Flags:     mem.MemoryTypes[i].PropertyFlags,
			HeapIndex: mem.MemoryTypes[i].HeapIndex,
		})
	}
	for i := uint32(0); i < mem.MemoryHeapCount; i++ {
		mem.MemoryHeaps[i].Deref()
		info.MemoryHeaps = append(info.MemoryHeaps, MemoryHeap{
			Size:        uint64(mem.MemoryHeaps[i].Size),
			DeviceLocal: mem.MemoryHeaps[i].Flags&vk.MemoryHeapFlags(vk.MemoryHeapDeviceLocalBit) != 0,
		})
	}
	return info
}

// PhysicalDevice is a selected GPU with its queue families resolved. It is
// never modified after selection.
type PhysicalDevice struct {
	handle   vk.PhysicalDevice
	info     *DeviceInfo
	families QueueFamilyIndices
	layers   []string
}

func (p *PhysicalDevice) Handle() vk.PhysicalDevice {
	return p.handle
}

func (p *PhysicalDevice) Info() DeviceInfo {
	return *p.info
}

func (p *PhysicalDevice) QueueFamilies() QueueFamilyIndices {
	return p.families
}

// CreateLogicalDevice opens the device with one queue per distinct family
// and the swapchain extension.
func (p *PhysicalDevice) CreateLogicalDevice() (*Device, error) {
	available, err := DeviceExtensions(p.handle)
	if err != nil {
		return nil, errors.Wrap(ErrDeviceCreationFailed, err.Error())
	}
	extensions, err := deviceExtensionSet(available).Resolve()
	if err != nil {
		return nil, errors.Wrap(ErrDeviceCreationFailed, err.Error())
	}
	Logger().Info("vulkan: enabling device extensions", "count", len(extensions))

	queueInfos := queueCreateInfos(p.families)
	var device vk.Device
	ret := vk.CreateDevice(p.handle, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(p.layers)),
		PpEnabledLayerNames:     p.layers,
	}, nil, &device)
	if err := newError(ret); err != nil {
		return nil, errors.Wrap(ErrDeviceCreationFailed, err.Error())
	}

	d := &Device{
		handle:   device,
		physical: p,
	}
	vk.GetDeviceQueue(device, p.families.Graphics, 0, &d.graphicsQueue)
	if p.families.Separate() {
		vk.GetDeviceQueue(device, p.families.Present, 0, &d.presentQueue)
	} else {
		d.presentQueue = d.graphicsQueue
	}
	return d, nil
}

// Device is the logical device and its queues.
type Device struct {
	handle        vk.Device
	physical      *PhysicalDevice
	graphicsQueue vk.Queue
	presentQueue  vk.Queue
}

func (d *Device) Handle() vk.Device {
	return d.handle
}

func (d *Device) Physical() *PhysicalDevice {
	return d.physical
}

func (d *Device) GraphicsQueue() vk.Queue {
	return d.graphicsQueue
}

func (d *Device) PresentQueue() vk.Queue {
	return d.presentQueue
}

// WaitIdle blocks until the device has finished all submitted work.
func (d *Device) WaitIdle() error {
	if d.handle == nil {
		return nil
	}
	return newError(vk.DeviceWaitIdle(d.handle))
}

func (d *Device) Destroy() {
	if d.handle != nil {
		vk.DestroyDevice(d.handle, nil)
		d.handle = nil
	}
}
