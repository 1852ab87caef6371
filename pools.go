package realvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// descriptorPoolSizes is one uniform buffer descriptor per set.
func descriptorPoolSizes(maxSets uint32) []vk.DescriptorPoolSize {
	return []vk.DescriptorPoolSize{{
		Type:            vk.DescriptorTypeUniformBuffer,
		DescriptorCount: maxSets,
	}}
}

// newDescriptorPool creates the shared pool. Sets can be freed individually
// so a shader record can be replaced.
func newDescriptorPool(device vk.Device, maxSets uint32) (vk.DescriptorPool, error) {
	sizes := descriptorPoolSizes(maxSets)
	var pool vk.DescriptorPool
	ret := vk.CreateDescriptorPool(device, &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}, nil, &pool)
	if err := newError(ret); err != nil {
		return pool, errors.Wrap(err, "create descriptor pool")
	}
	return pool, nil
}

// newCommandPool creates a pool whose buffers can be reset one by one.
func newCommandPool(device vk.Device, family uint32) (vk.CommandPool, error) {
	var pool vk.CommandPool
	ret := vk.CreateCommandPool(device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: family,
	}, nil, &pool)
	if err := newError(ret); err != nil {
		return vk.NullCommandPool, errors.Wrap(err, "create command pool")
	}
	return pool, nil
}
