package realvk

import (
	vk "github.com/vulkan-go/vulkan"
)

// DepthFormat is the depth attachment format used when depth is enabled.
const DepthFormat = vk.FormatD32Sfloat

// RenderPass is a single-subpass pass with one color attachment and an
// optional depth attachment.
type RenderPass struct {
	device      vk.Device
	handle      vk.RenderPass
	colorFormat vk.Format
	depth       bool
}

// renderPassLayout describes the attachments, the subpass and the external
// dependency of the pass.
func renderPassLayout(colorFormat vk.Format, depth bool) ([]vk.AttachmentDescription, vk.SubpassDescription, []vk.SubpassDependency) {
	attachments := []vk.AttachmentDescription{{
		Format:         colorFormat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{{
			Attachment: 0,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}},
	}
	if depth {
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         DepthFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		})
		subpass.PDepthStencilAttachment = &vk.AttachmentReference{
			Attachment: 1,
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
	}

	stages := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	access := vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit)
	if depth {
		stages |= vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit)
		access |= vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
	}
	dependencies := []vk.SubpassDependency{{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  stages,
		DstStageMask:  stages,
		DstAccessMask: access,
	}}
	return attachments, subpass, dependencies
}

// CreateRenderPass builds the pass for the swapchain color format.
func (d *Device) CreateRenderPass(colorFormat vk.Format, depth bool) (*RenderPass, error) {
	attachments, subpass, dependencies := renderPassLayout(colorFormat, depth)

	var handle vk.RenderPass
	ret := vk.CreateRenderPass(d.handle, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}, nil, &handle)
	if err := newError(ret); err != nil {
		return nil, setupFailed(err, "create render pass")
	}
	return &RenderPass{
		device:      d.handle,
		handle:      handle,
		colorFormat: colorFormat,
		depth:       depth,
	}, nil
}

func (r *RenderPass) Handle() vk.RenderPass {
	return r.handle
}

func (r *RenderPass) HasDepth() bool {
	return r.depth
}

// ClearValues is one clear value per attachment.
func (r *RenderPass) ClearValues(color []float32) []vk.ClearValue {
	values := []vk.ClearValue{vk.NewClearValue(color)}
	if r.depth {
		values = append(values, vk.NewClearDepthStencil(1.0, 0))
	}
	return values
}

func (r *RenderPass) Destroy() {
	if r.handle != vk.NullRenderPass {
		vk.DestroyRenderPass(r.device, r.handle, nil)
		r.handle = vk.NullRenderPass
	}
}
