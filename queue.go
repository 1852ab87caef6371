package realvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// QueueFamily is a snapshot of one queue family of a physical device.
type QueueFamily struct {
	Index      uint32
	Flags      vk.QueueFlags
	QueueCount uint32
	// Present is true when the family can present to the surface the
	// snapshot was taken against.
	Present bool
}

func (q QueueFamily) Graphics() bool {
	return q.QueueCount > 0 && q.Flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0
}

// QueueFamilyIndices are the resolved graphics and presentation families.
type QueueFamilyIndices struct {
	Graphics uint32
	Present  uint32
}

func (q QueueFamilyIndices) Separate() bool {
	return q.Graphics != q.Present
}

// Unique returns the family indices a device must create queues for.
func (q QueueFamilyIndices) Unique() []uint32 {
	if q.Separate() {
		return []uint32{q.Graphics, q.Present}
	}
	return []uint32{q.Graphics}
}

// resolveQueueFamilies picks the first graphics family and, for
// presentation, that same family when it can present or else the first
// family that can.
func resolveQueueFamilies(families []QueueFamily) (QueueFamilyIndices, bool) {
	var (
		idx          QueueFamilyIndices
		graphicsOK   bool
		presentFound bool
	)
	for _, f := range families {
		if f.Graphics() {
			idx.Graphics = f.Index
			graphicsOK = true
			break
		}
	}
	if !graphicsOK {
		return idx, false
	}
	for _, f := range families {
		if f.Index == idx.Graphics && f.Present {
			idx.Present = f.Index
			return idx, true
		}
	}
	for _, f := range families {
		if f.Present && f.QueueCount > 0 {
			idx.Present = f.Index
			presentFound = true
			break
		}
	}
	return idx, presentFound
}

// isCompatible is the device predicate: a graphics family and, when strict,
// a discrete GPU with geometry shaders.
func isCompatible(info *DeviceInfo, strict bool) bool {
	hasGraphics := false
	for _, f := range info.QueueFamilies {
		if f.Graphics() {
			hasGraphics = true
			break
		}
	}
	if !hasGraphics {
		return false
	}
	if strict {
		return info.Type == vk.PhysicalDeviceTypeDiscreteGpu && info.GeometryShader
	}
	return true
}

// selectDevice returns the index of the first compatible device that can
// also present, and its resolved queue families.
func selectDevice(infos []*DeviceInfo, strict bool) (int, QueueFamilyIndices, error) {
	for i, info := range infos {
		if !isCompatible(info, strict) {
			Logger().Debug("vulkan: skipping incompatible device", "name", info.Name)
			continue
		}
		families, ok := resolveQueueFamilies(info.QueueFamilies)
		if !ok {
			Logger().Debug("vulkan: skipping device without presentation support", "name", info.Name)
			continue
		}
		return i, families, nil
	}
	return -1, QueueFamilyIndices{}, errors.Wrapf(ErrNoCompatibleDevice, "none of %d devices qualified", len(infos))
}

// queueCreateInfos asks for exactly one queue per unique family at
// priority 1.0.
func queueCreateInfos(families QueueFamilyIndices) []vk.DeviceQueueCreateInfo {
	var infos []vk.DeviceQueueCreateInfo
	for _, index := range families.Unique() {
		infos = append(infos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: index,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}
	return infos
}
