package realvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// PipelineBuilder collects the fixed-function state of a graphics pipeline.
type PipelineBuilder struct {
	shaderStages         []vk.PipelineShaderStageCreateInfo
	vertexBinding        vk.VertexInputBindingDescription
	vertexAttributes     []vk.VertexInputAttributeDescription
	inputAssembly        vk.PipelineInputAssemblyStateCreateInfo
	viewport             vk.Viewport
	scissor              vk.Rect2D
	rasterizer           vk.PipelineRasterizationStateCreateInfo
	colorBlendAttachment vk.PipelineColorBlendAttachmentState
	multisampling        vk.PipelineMultisampleStateCreateInfo
	depthStencil         vk.PipelineDepthStencilStateCreateInfo
}

// NewPipelineBuilder sets up a triangle-list pipeline covering extent:
// filled polygons, back faces culled with clockwise front faces, one sample,
// no blending, depth testing when depth is true.
func NewPipelineBuilder(layout VertexLayout, extent vk.Extent2D, depth bool) *PipelineBuilder {
	pb := &PipelineBuilder{
		vertexBinding:    layout.Binding(),
		vertexAttributes: layout.Attributes,
	}
	pb.inputAssembly = vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}
	pb.viewport = vk.Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	pb.scissor = vk.Rect2D{
		Offset: vk.Offset2D{},
		Extent: extent,
	}
	pb.rasterizer = vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		CullMode:                vk.CullModeFlags(vk.CullModeBackBit),
		FrontFace:               vk.FrontFaceClockwise,
		DepthBiasEnable:         vk.False,
		LineWidth:               1.0,
	}
	pb.multisampling = vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		SampleShadingEnable:  vk.False,
		MinSampleShading:     1.0,
	}
	pb.colorBlendAttachment = vk.PipelineColorBlendAttachmentState{
		BlendEnable: vk.False,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
			vk.ColorComponentBBit | vk.ColorComponentABit),
	}
	pb.depthStencil = vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       vk.False,
		DepthWriteEnable:      vk.False,
		DepthCompareOp:        vk.CompareOpLess,
		DepthBoundsTestEnable: vk.False,
		StencilTestEnable:     vk.False,
		MaxDepthBounds:        1.0,
	}
	if depth {
		pb.depthStencil.DepthTestEnable = vk.True
		pb.depthStencil.DepthWriteEnable = vk.True
	}
	return pb
}

// AddStage appends a programmable stage.
func (pb *PipelineBuilder) AddStage(stage vk.ShaderStageFlagBits, module vk.ShaderModule, entryPoint string) *PipelineBuilder {
	pb.shaderStages = append(pb.shaderStages, vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: module,
		PName:  safeString(entryPoint),
	})
	return pb
}

// Build creates the pipeline for subpass 0 of rp.
func (pb *PipelineBuilder) Build(device vk.Device, rp vk.RenderPass, layout vk.PipelineLayout) (vk.Pipeline, error) {
	if len(pb.shaderStages) == 0 {
		return vk.NullPipeline, errors.New("vulkan: pipeline has no shader stages")
	}
	info := vk.GraphicsPipelineCreateInfo{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(pb.shaderStages)),
		PStages:    pb.shaderStages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexBindingDescriptionCount:   1,
			PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{pb.vertexBinding},
			VertexAttributeDescriptionCount: uint32(len(pb.vertexAttributes)),
			PVertexAttributeDescriptions:    pb.vertexAttributes,
		},
		PInputAssemblyState: &pb.inputAssembly,
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			PViewports:    []vk.Viewport{pb.viewport},
			ScissorCount:  1,
			PScissors:     []vk.Rect2D{pb.scissor},
		},
		PRasterizationState: &pb.rasterizer,
		PMultisampleState:   &pb.multisampling,
		PDepthStencilState:  &pb.depthStencil,
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			LogicOpEnable:   vk.False,
			LogicOp:         vk.LogicOpCopy,
			AttachmentCount: 1,
			PAttachments:    []vk.PipelineColorBlendAttachmentState{pb.colorBlendAttachment},
		},
		Layout:     layout,
		RenderPass: rp,
		Subpass:    0,
	}

	pipelines := make([]vk.Pipeline, 1)
	ret := vk.CreateGraphicsPipelines(device, vk.PipelineCache(vk.NullHandle), 1,
		[]vk.GraphicsPipelineCreateInfo{info}, nil, pipelines)
	if err := newError(ret); err != nil {
		return vk.NullPipeline, errors.Wrap(err, "create graphics pipeline")
	}
	return pipelines[0], nil
}
