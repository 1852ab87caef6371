package realvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// CreateFramebuffers creates one framebuffer per image view at the swapchain
// extent. With a depth pass a single depth image backs all of them. Either
// every framebuffer is created or none is kept.
func (s *Swapchain) CreateFramebuffers(rp *RenderPass) error {
	s.destroyFramebuffers()
	dev := s.device.handle

	if rp.depth {
		depth, err := newDepthImage(s.device, s.extent, DepthFormat)
		if err != nil {
			return setupFailed(err, "create depth attachment")
		}
		s.depth = depth
	}

	framebuffers := make([]vk.Framebuffer, 0, len(s.views))
	for i, view := range s.views {
		attachments := []vk.ImageView{view}
		if s.depth != nil {
			attachments = append(attachments, s.depth.view)
		}
		var fb vk.Framebuffer
		ret := vk.CreateFramebuffer(dev, &vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      rp.handle,
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           s.extent.Width,
			Height:          s.extent.Height,
			Layers:          1,
		}, nil, &fb)
		if err := newError(ret); err != nil {
			for _, created := range framebuffers {
				vk.DestroyFramebuffer(dev, created, nil)
			}
			s.destroyDepth()
			return setupFailed(errors.Wrapf(err, "framebuffer %d", i), "create framebuffers")
		}
		framebuffers = append(framebuffers, fb)
	}
	s.framebuffers = framebuffers
	return nil
}

func (s *Swapchain) destroyFramebuffers() {
	for _, fb := range s.framebuffers {
		vk.DestroyFramebuffer(s.device.handle, fb, nil)
	}
	s.framebuffers = nil
	s.destroyDepth()
}

func (s *Swapchain) destroyDepth() {
	if s.depth != nil {
		s.depth.Destroy()
		s.depth = nil
	}
}
