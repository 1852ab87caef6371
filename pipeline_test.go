package realvk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestNewPipelineBuilder(t *testing.T) {
	extent := vk.Extent2D{Width: 800, Height: 600}
	pb := NewPipelineBuilder(ColorLayout, extent, false)

	assert.Equal(t, vk.PrimitiveTopologyTriangleList, pb.inputAssembly.Topology)
	assert.Equal(t, float32(800), pb.viewport.Width)
	assert.Equal(t, float32(600), pb.viewport.Height)
	assert.Equal(t, float32(1), pb.viewport.MaxDepth)
	assert.Equal(t, extent, pb.scissor.Extent)
	assert.Equal(t, vk.PolygonModeFill, pb.rasterizer.PolygonMode)
	assert.Equal(t, vk.CullModeFlags(vk.CullModeBackBit), pb.rasterizer.CullMode)
	assert.Equal(t, vk.FrontFaceClockwise, pb.rasterizer.FrontFace)
	assert.Equal(t, vk.SampleCount1Bit, pb.multisampling.RasterizationSamples)
	assert.Equal(t, vk.Bool32(vk.False), pb.colorBlendAttachment.BlendEnable)
	assert.Equal(t, vk.Bool32(vk.False), pb.depthStencil.DepthTestEnable)
	assert.Equal(t, ColorLayout.Stride, pb.vertexBinding.Stride)
	assert.Len(t, pb.vertexAttributes, 2)

	withDepth := NewPipelineBuilder(TexturedLayout, extent, true)
	assert.Equal(t, vk.Bool32(vk.True), withDepth.depthStencil.DepthTestEnable)
	assert.Equal(t, vk.Bool32(vk.True), withDepth.depthStencil.DepthWriteEnable)
	assert.Equal(t, vk.CompareOpLess, withDepth.depthStencil.DepthCompareOp)
	assert.Equal(t, TexturedLayout.Stride, withDepth.vertexBinding.Stride)
}

func TestPipelineBuilderStages(t *testing.T) {
	pb := NewPipelineBuilder(ColorLayout, vk.Extent2D{Width: 1, Height: 1}, false)
	_, err := pb.Build(nil, vk.NullRenderPass, vk.NullPipelineLayout)
	assert.Error(t, err)

	pb.AddStage(vk.ShaderStageVertexBit, vk.NullShaderModule, "main").
		AddStage(vk.ShaderStageFragmentBit, vk.NullShaderModule, "main")
	require.Len(t, pb.shaderStages, 2)
	assert.Equal(t, "main\x00", pb.shaderStages[0].PName)
	assert.Equal(t, vk.ShaderStageFragmentBit, pb.shaderStages[1].Stage)
}
