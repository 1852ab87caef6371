package realvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Binding is one descriptor binding of a set layout.
type Binding struct {
	Binding uint32
	Type    vk.DescriptorType
	Count   uint32
	Stages  vk.ShaderStageFlags
}

func layoutBindings(bindings []Binding) []vk.DescriptorSetLayoutBinding {
	out := make([]vk.DescriptorSetLayoutBinding, 0, len(bindings))
	for _, b := range bindings {
		count := b.Count
		if count == 0 {
			count = 1
		}
		out = append(out, vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  b.Type,
			DescriptorCount: count,
			StageFlags:      b.Stages,
		})
	}
	return out
}

func createDescriptorSetLayout(device vk.Device, bindings []Binding) (vk.DescriptorSetLayout, error) {
	vkBindings := layoutBindings(bindings)
	var layout vk.DescriptorSetLayout
	ret := vk.CreateDescriptorSetLayout(device, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(vkBindings)),
		PBindings:    vkBindings,
	}, nil, &layout)
	if err := newError(ret); err != nil {
		return layout, errors.Wrap(err, "create descriptor set layout")
	}
	return layout, nil
}

// allocateDescriptorSets allocates one set per layout. Any failure is
// reported as pool exhaustion; the pool is fixed size and never grown.
func allocateDescriptorSets(device vk.Device, pool vk.DescriptorPool, layouts []vk.DescriptorSetLayout) ([]vk.DescriptorSet, error) {
	if len(layouts) == 0 {
		return nil, nil
	}
	sets := make([]vk.DescriptorSet, len(layouts))
	ret := vk.AllocateDescriptorSets(device, &vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: uint32(len(layouts)),
		PSetLayouts:        layouts,
	}, &sets[0])
	if err := newError(ret); err != nil {
		return nil, errors.Wrap(ErrPoolExhausted, err.Error())
	}
	return sets, nil
}

// uniformWrite describes buf as the uniform buffer at binding of set.
func uniformWrite(set vk.DescriptorSet, binding uint32, buf *Buffer) vk.WriteDescriptorSet {
	return vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: buf.Buffer,
			Offset: 0,
			Range:  buf.Size,
		}},
	}
}
