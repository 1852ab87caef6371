package realvk

import (
	vk "github.com/vulkan-go/vulkan"
)

// Swapchain owns the presentable images, one color view per image and, once
// CreateFramebuffers ran, one framebuffer per view.
type Swapchain struct {
	device      *Device
	handle      vk.Swapchain
	format      vk.SurfaceFormat
	presentMode vk.PresentMode
	extent      vk.Extent2D

	images       []vk.Image
	views        []vk.ImageView
	framebuffers []vk.Framebuffer
	depth        *depthImage
}

// swapImageCount asks for one image above the minimum so the driver never
// blocks acquisition on the presentation engine, clamped to the maximum when
// the surface has one.
func swapImageCount(caps vk.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// opaqueSupported reports whether the surface lists opaque composite alpha.
func opaqueSupported(supported vk.CompositeAlphaFlags) bool {
	return supported&vk.CompositeAlphaFlags(vk.CompositeAlphaOpaqueBit) != 0
}

// CreateSwapchain builds the swapchain for a negotiated presentation and a
// color view for each of its images.
func (d *Device) CreateSwapchain(surface *Surface, p *Presentation) (*Swapchain, error) {
	families := d.physical.families
	info := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface.handle,
		MinImageCount:    swapImageCount(p.Capabilities),
		ImageFormat:      p.Format.Format,
		ImageColorSpace:  p.Format.ColorSpace,
		ImageExtent:      p.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     p.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      p.PresentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}
	if !opaqueSupported(p.Capabilities.SupportedCompositeAlpha) {
		Logger().Warn("vulkan: surface does not list opaque composite alpha",
			"supported", p.Capabilities.SupportedCompositeAlpha)
	}
	if families.Separate() {
		indices := families.Unique()
		info.ImageSharingMode = vk.SharingModeConcurrent
		info.QueueFamilyIndexCount = uint32(len(indices))
		info.PQueueFamilyIndices = indices
	}

	var handle vk.Swapchain
	ret := vk.CreateSwapchain(d.handle, &info, nil, &handle)
	if err := newError(ret); err != nil {
		return nil, setupFailed(err, "create swapchain")
	}
	s := &Swapchain{
		device:      d,
		handle:      handle,
		format:      p.Format,
		presentMode: p.PresentMode,
		extent:      p.Extent,
	}

	var count uint32
	ret = vk.GetSwapchainImages(d.handle, handle, &count, nil)
	if err := newError(ret); err != nil {
		s.Destroy()
		return nil, setupFailed(err, "get swapchain images")
	}
	s.images = make([]vk.Image, count)
	ret = vk.GetSwapchainImages(d.handle, handle, &count, s.images)
	if err := newError(ret); err != nil {
		s.Destroy()
		return nil, setupFailed(err, "get swapchain images")
	}
	s.images = s.images[:count]

	for _, image := range s.images {
		view, err := createImageView(d.handle, image, p.Format.Format, vk.ImageAspectColorBit)
		if err != nil {
			s.Destroy()
			return nil, setupFailed(err, "create swapchain image view")
		}
		s.views = append(s.views, view)
	}
	Logger().Info("vulkan: swapchain created",
		"images", len(s.images),
		"width", s.extent.Width,
		"height", s.extent.Height,
		"present_mode", s.presentMode)
	return s, nil
}

func (s *Swapchain) Handle() vk.Swapchain {
	return s.handle
}

func (s *Swapchain) Extent() vk.Extent2D {
	return s.extent
}

func (s *Swapchain) Format() vk.SurfaceFormat {
	return s.format
}

func (s *Swapchain) ImageCount() int {
	return len(s.images)
}

func (s *Swapchain) ImageViews() []vk.ImageView {
	return s.views
}

func (s *Swapchain) Framebuffers() []vk.Framebuffer {
	return s.framebuffers
}

func (s *Swapchain) Dimensions() SwapchainDimensions {
	return SwapchainDimensions{
		Width:  s.extent.Width,
		Height: s.extent.Height,
		Format: s.format.Format,
	}
}

func (s *Swapchain) Destroy() {
	dev := s.device.handle
	s.destroyFramebuffers()
	for _, view := range s.views {
		vk.DestroyImageView(dev, view, nil)
	}
	s.views = nil
	s.images = nil
	if s.handle != vk.NullSwapchain {
		vk.DestroySwapchain(dev, s.handle, nil)
		s.handle = vk.NullSwapchain
	}
}

func createImageView(device vk.Device, image vk.Image, format vk.Format, aspect vk.ImageAspectFlagBits) (vk.ImageView, error) {
	var view vk.ImageView
	ret := vk.CreateImageView(device, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(aspect),
			LevelCount: 1,
			LayerCount: 1,
		},
	}, nil, &view)
	if err := newError(ret); err != nil {
		return vk.NullImageView, err
	}
	return view, nil
}
