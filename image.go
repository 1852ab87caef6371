package realvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// depthImage is a device-local depth attachment shared by every
// framebuffer of a swapchain.
type depthImage struct {
	device vk.Device
	image  vk.Image
	memory vk.DeviceMemory
	view   vk.ImageView
}

func newDepthImage(d *Device, extent vk.Extent2D, format vk.Format) (img *depthImage, err error) {
	img = &depthImage{device: d.handle}
	defer func() {
		if err != nil {
			img.Destroy()
			img = nil
		}
	}()

	ret := vk.CreateImage(d.handle, &vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    format,
		Extent: vk.Extent3D{
			Width:  extent.Width,
			Height: extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &img.image)
	if err := newError(ret); err != nil {
		return img, errors.Wrap(err, "create depth image")
	}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.handle, img.image, &req)
	req.Deref()

	typeIndex, err := findMemoryType(d.physical.info.MemoryTypes, req.MemoryTypeBits,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return img, errors.Wrap(err, "depth image memory")
	}
	ret = vk.AllocateMemory(d.handle, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: typeIndex,
	}, nil, &img.memory)
	if err := newError(ret); err != nil {
		return img, errors.Wrap(err, "allocate depth image memory")
	}
	ret = vk.BindImageMemory(d.handle, img.image, img.memory, 0)
	if err := newError(ret); err != nil {
		return img, errors.Wrap(err, "bind depth image memory")
	}

	img.view, err = createImageView(d.handle, img.image, format, vk.ImageAspectDepthBit)
	if err != nil {
		return img, errors.Wrap(err, "create depth image view")
	}
	return img, nil
}

func (img *depthImage) Destroy() {
	if img.view != vk.NullImageView {
		vk.DestroyImageView(img.device, img.view, nil)
		img.view = vk.NullImageView
	}
	if img.image != vk.NullImage {
		vk.DestroyImage(img.device, img.image, nil)
		img.image = vk.NullImage
	}
	if img.memory != vk.NullDeviceMemory {
		vk.FreeMemory(img.device, img.memory, nil)
		img.memory = vk.NullDeviceMemory
	}
}
