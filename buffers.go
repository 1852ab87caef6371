package realvk

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Buffer is a buffer object with its own dedicated allocation.
type Buffer struct {
	// device for destroy purposes.
	device vk.Device
	// Buffer is the buffer object.
	Buffer vk.Buffer
	// Memory is the device memory backing buffer object.
	Memory vk.DeviceMemory
	// Size is the requested size, Allocated the size actually allocated.
	Size      vk.DeviceSize
	Allocated vk.DeviceSize
	// Count is the number of elements stored, vertices or indices.
	Count uint32
}

func (b *Buffer) Destroy() {
	if b.device == nil {
		return
	}
	vk.DestroyBuffer(b.device, b.Buffer, nil)
	vk.FreeMemory(b.device, b.Memory, nil)
	b.Buffer = vk.NullBuffer
	b.Memory = vk.NullDeviceMemory
	b.device = nil
}

// Write maps the whole buffer, copies data at offset 0 and unmaps it.
func (b *Buffer) Write(data []byte) error {
	if vk.DeviceSize(len(data)) > b.Size {
		return errors.Errorf("write of %d bytes exceeds buffer size %d", len(data), b.Size)
	}
	if len(data) == 0 {
		return nil
	}
	var pData unsafe.Pointer
	ret := vk.MapMemory(b.device, b.Memory, 0, b.Size, 0, &pData)
	if err := newError(ret); err != nil {
		return errors.Wrap(err, "map buffer memory")
	}
	n := vk.Memcopy(pData, data)
	vk.UnmapMemory(b.device, b.Memory)
	if n != len(data) {
		return errors.Errorf("copied %d of %d bytes", n, len(data))
	}
	return nil
}

// findMemoryType returns the first type allowed by typeBits whose flags
// contain all of want.
func findMemoryType(types []MemoryType, typeBits uint32, want vk.MemoryPropertyFlags) (uint32, error) {
	for i, t := range types {
		if i >= 32 {
			break
		}
		if typeBits&(1<<uint(i)) == 0 {
			continue
		}
		if t.Flags&want == want {
			return uint32(i), nil
		}
	}
	return 0, errors.Wrapf(ErrNoMemoryType, "type bits %#x, flags %#x", typeBits, want)
}

func alignUp(size, alignment vk.DeviceSize) vk.DeviceSize {
	if alignment <= 1 {
		return size
	}
	return (size + alignment - 1) / alignment * alignment
}

// allocationSize rounds the driver's requirement up to its alignment.
func allocationSize(req vk.MemoryRequirements) vk.DeviceSize {
	return alignUp(req.Size, req.Alignment)
}

const hostVisibleCoherent = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)

// createBuffer creates an exclusive buffer of size bytes bound at offset 0
// to a dedicated allocation with the given memory flags.
func createBuffer(d *Device, size vk.DeviceSize, usage vk.BufferUsageFlagBits, flags vk.MemoryPropertyFlags) (*Buffer, error) {
	if size == 0 {
		return nil, errors.New("vulkan: zero sized buffer")
	}
	var buffer vk.Buffer
	ret := vk.CreateBuffer(d.handle, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}, nil, &buffer)
	if err := newError(ret); err != nil {
		return nil, errors.Wrap(err, "create buffer")
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.handle, buffer, &req)
	req.Deref()

	typeIndex, err := findMemoryType(d.physical.info.MemoryTypes, req.MemoryTypeBits, flags)
	if err != nil {
		vk.DestroyBuffer(d.handle, buffer, nil)
		return nil, err
	}
	allocated := allocationSize(req)

	var memory vk.DeviceMemory
	ret = vk.AllocateMemory(d.handle, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  allocated,
		MemoryTypeIndex: typeIndex,
	}, nil, &memory)
	if err := newError(ret); err != nil {
		vk.DestroyBuffer(d.handle, buffer, nil)
		return nil, errors.Wrap(err, "allocate buffer memory")
	}
	ret = vk.BindBufferMemory(d.handle, buffer, memory, 0)
	if err := newError(ret); err != nil {
		vk.DestroyBuffer(d.handle, buffer, nil)
		vk.FreeMemory(d.handle, memory, nil)
		return nil, errors.Wrap(err, "bind buffer memory")
	}
	Logger().Debug("vulkan: buffer allocated",
		"size", uint64(size),
		"allocated", uint64(allocated),
		"memory_type", typeIndex)
	return &Buffer{
		device:    d.handle,
		Buffer:    buffer,
		Memory:    memory,
		Size:      size,
		Allocated: allocated,
	}, nil
}

// indexBytes copies indices into their in-memory byte layout.
func indexBytes(indices []uint32) []byte {
	if len(indices) == 0 {
		return nil
	}
	out := make([]byte, len(indices)*4)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(&indices[0])), len(indices)*4))
	return out
}
