package realvk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestResourceManagerUnknownIDs(t *testing.T) {
	rm := newResourceManager(nil, 4)

	_, err := rm.ShaderResources("missing")
	assert.ErrorIs(t, err, ErrUnknownShader)
	assert.ErrorIs(t, rm.AddDescriptorLayout("missing", nil), ErrUnknownShader)
	assert.ErrorIs(t, rm.AllocateDescriptorSets("missing"), ErrUnknownShader)
	_, err = rm.CreatePipelineLayout("missing")
	assert.ErrorIs(t, err, ErrUnknownShader)
	assert.ErrorIs(t, rm.WriteUniformDescriptor("missing", 0, 0, &Buffer{}), ErrUnknownShader)

	_, err = rm.Pipeline("missing")
	assert.ErrorIs(t, err, ErrUnknownPipeline)
}

func TestResourceManagerPoolExhaustion(t *testing.T) {
	rm := newResourceManager(nil, 2)
	rm.CreateShaderResources("big")
	rec, err := rm.ShaderResources("big")
	require.NoError(t, err)
	rec.Layouts = make([]vk.DescriptorSetLayout, 3)

	err = rm.AllocateDescriptorSets("big")
	assert.ErrorIs(t, err, ErrPoolExhausted)
	assert.Empty(t, rec.Sets)
	assert.Equal(t, 0, rm.allocatedSets)
}

func TestResourceManagerReRegistration(t *testing.T) {
	rm := newResourceManager(nil, 2)
	rm.CreateShaderResources("basic")
	first, err := rm.ShaderResources("basic")
	require.NoError(t, err)
	first.Bindings = append(first.Bindings, []Binding{{Binding: 0, Type: vk.DescriptorTypeUniformBuffer}})

	rm.CreateShaderResources("basic")
	second, err := rm.ShaderResources("basic")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Empty(t, second.Bindings)
	assert.Empty(t, first.Bindings, "the replaced record is released")
	assert.Len(t, rm.shaders, 1)
}

func TestReRegistrationDropsDependentPipelines(t *testing.T) {
	rm := newResourceManager(nil, 2)
	rm.CreateShaderResources("basic")
	rm.CreateShaderResources("textured")
	rm.pipelines["triangle"] = &Pipeline{ID: "triangle", Shader: "basic"}
	rm.pipelines["quad"] = &Pipeline{ID: "quad", Shader: "textured"}

	rm.CreateShaderResources("basic")

	_, err := rm.Pipeline("triangle")
	assert.ErrorIs(t, err, ErrUnknownPipeline)
	quad, err := rm.Pipeline("quad")
	require.NoError(t, err)
	assert.Equal(t, "textured", quad.Shader)

	rm.CreateShaderResources("fresh")
	_, err = rm.Pipeline("quad")
	assert.NoError(t, err)
}

func TestWriteUniformDescriptorWithoutSets(t *testing.T) {
	rm := newResourceManager(nil, 2)
	rm.CreateShaderResources("basic")
	assert.Error(t, rm.WriteUniformDescriptor("basic", 0, 0, &Buffer{}))
}

func TestCreateGraphicsPipelineRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.spv")
	require.NoError(t, os.WriteFile(bad, []byte{0x03, 0x02, 0x23}, 0o644))

	rm := newResourceManager(nil, 2)
	rp := &RenderPass{}
	extent := vk.Extent2D{Width: 64, Height: 64}
	cfg := PipelineConfig{
		Shader:       "basic",
		VertexLayout: "color",
		Stages:       []StageConfig{{Stage: "vertex", Path: bad, EntryPoint: "main"}},
	}

	err := rm.CreateGraphicsPipeline("p", rp, vk.NullPipelineLayout, cfg, extent)
	assert.ErrorIs(t, err, ErrInvalidShaderCode)

	cfg.Stages[0].Path = filepath.Join(dir, "missing.spv")
	assert.Error(t, rm.CreateGraphicsPipeline("p", rp, vk.NullPipelineLayout, cfg, extent))

	cfg.Stages[0].Stage = "mesh"
	assert.Error(t, rm.CreateGraphicsPipeline("p", rp, vk.NullPipelineLayout, cfg, extent))

	cfg.Stages = nil
	assert.Error(t, rm.CreateGraphicsPipeline("p", rp, vk.NullPipelineLayout, cfg, extent))

	cfg.VertexLayout = "skinned"
	assert.Error(t, rm.CreateGraphicsPipeline("p", rp, vk.NullPipelineLayout, cfg, extent))

	_, err = rm.Pipeline("p")
	assert.ErrorIs(t, err, ErrUnknownPipeline)
}

func TestDescriptorPoolSizes(t *testing.T) {
	sizes := descriptorPoolSizes(10)
	require.Len(t, sizes, 1)
	assert.Equal(t, vk.DescriptorTypeUniformBuffer, sizes[0].Type)
	assert.Equal(t, uint32(10), sizes[0].DescriptorCount)
}

func TestLayoutBindings(t *testing.T) {
	out := layoutBindings([]Binding{
		{Binding: 0, Type: vk.DescriptorTypeUniformBuffer, Stages: vk.ShaderStageFlags(vk.ShaderStageVertexBit)},
		{Binding: 1, Type: vk.DescriptorTypeCombinedImageSampler, Count: 4},
	})
	require.Len(t, out, 2)
	assert.Equal(t, uint32(1), out[0].DescriptorCount)
	assert.Equal(t, uint32(4), out[1].DescriptorCount)
	assert.Equal(t, vk.DescriptorTypeCombinedImageSampler, out[1].DescriptorType)
}

func TestShaderCodeChecks(t *testing.T) {
	assert.ErrorIs(t, checkShaderCode(nil), ErrInvalidShaderCode)
	assert.ErrorIs(t, checkShaderCode(make([]byte, 6)), ErrInvalidShaderCode)
	assert.NoError(t, checkShaderCode(make([]byte, 8)))

	_, err := LoadShaderModule(nil, []byte{1, 2, 3, 4, 5})
	assert.ErrorIs(t, err, ErrInvalidShaderCode)
}
