package realvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Surface is a window bound to an instance.
type Surface struct {
	instance vk.Instance
	handle   vk.Surface
	window   Window
}

func (s *Surface) Handle() vk.Surface {
	return s.handle
}

// FramebufferSize is the current drawable size of the bound window.
func (s *Surface) FramebufferSize() (uint32, uint32) {
	w, h := s.window.GetFramebufferSize()
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return uint32(w), uint32(h)
}

func (s *Surface) Destroy() {
	if s.handle != vk.NullSurface {
		vk.DestroySurface(s.instance, s.handle, nil)
		s.handle = vk.NullSurface
	}
}

// Presentation is the negotiated surface configuration. It is a snapshot:
// the surface can change after it is taken.
type Presentation struct {
	Capabilities vk.SurfaceCapabilities
	Format       vk.SurfaceFormat
	PresentMode  vk.PresentMode
	Extent       vk.Extent2D
}

// DefaultSurfaceFormat is used when the surface has no preference.
var DefaultSurfaceFormat = vk.SurfaceFormat{
	Format:     vk.FormatB8g8r8a8Srgb,
	ColorSpace: vk.ColorSpaceSrgbNonlinear,
}

// ChooseSurfaceFormat prefers DefaultSurfaceFormat. A single UNDEFINED entry
// means any format is accepted; otherwise the first reported is used when
// the preferred one is absent.
func ChooseSurfaceFormat(formats []vk.SurfaceFormat) (vk.SurfaceFormat, error) {
	if len(formats) == 0 {
		return vk.SurfaceFormat{}, errors.Wrap(ErrFormatNotSupported, vk.Error(vk.ErrorFormatNotSupported).Error())
	}
	if len(formats) == 1 && formats[0].Format == vk.FormatUndefined {
		return DefaultSurfaceFormat, nil
	}
	for _, f := range formats {
		if f.Format == DefaultSurfaceFormat.Format && f.ColorSpace == DefaultSurfaceFormat.ColorSpace {
			return f, nil
		}
	}
	return formats[0], nil
}

// ChoosePresentMode picks MAILBOX, then IMMEDIATE, then FIFO which is always
// available.
func ChoosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	best := vk.PresentModeFifo
	for _, m := range modes {
		switch m {
		case vk.PresentModeMailbox:
			return m
		case vk.PresentModeImmediate:
			best = m
		}
	}
	return best
}

// ComputeSwapExtent returns the surface's current extent, or, when the
// surface leaves it to the swapchain, the window size clamped to the
// supported range.
func ComputeSwapExtent(caps vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// QueryCapabilities reads the surface capabilities for the device.
func (d *Device) QueryCapabilities(surface *Surface) (vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	ret := vk.GetPhysicalDeviceSurfaceCapabilities(d.physical.handle, surface.handle, &caps)
	if err := newError(ret); err != nil {
		return caps, errors.Wrap(err, "query surface capabilities")
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return caps, nil
}

func (d *Device) surfaceFormats(surface *Surface) ([]vk.SurfaceFormat, error) {
	var count uint32
	ret := vk.GetPhysicalDeviceSurfaceFormats(d.physical.handle, surface.handle, &count, nil)
	if err := newError(ret); err != nil {
		return nil, errors.Wrap(err, "query surface formats")
	}
	formats := make([]vk.SurfaceFormat, count)
	ret = vk.GetPhysicalDeviceSurfaceFormats(d.physical.handle, surface.handle, &count, formats)
	if err := newError(ret); err != nil {
		return nil, errors.Wrap(err, "query surface formats")
	}
	formats = formats[:count]
	for i := range formats {
		formats[i].Deref()
	}
	return formats, nil
}

func (d *Device) presentModes(surface *Surface) ([]vk.PresentMode, error) {
	var count uint32
	ret := vk.GetPhysicalDeviceSurfacePresentModes(d.physical.handle, surface.handle, &count, nil)
	if err := newError(ret); err != nil {
		return nil, errors.Wrap(err, "query present modes")
	}
	modes := make([]vk.PresentMode, count)
	ret = vk.GetPhysicalDeviceSurfacePresentModes(d.physical.handle, surface.handle, &count, modes)
	if err := newError(ret); err != nil {
		return nil, errors.Wrap(err, "query present modes")
	}
	return modes[:count], nil
}

// SwapExtent is ComputeSwapExtent for the window's framebuffer size in
// pixels, which can differ from its size in screen coordinates.
func (s *Surface) SwapExtent(caps vk.SurfaceCapabilities) vk.Extent2D {
	width, height := s.FramebufferSize()
	return ComputeSwapExtent(caps, width, height)
}

// NegotiatePresentation queries the surface and picks format, present mode
// and extent.
func (d *Device) NegotiatePresentation(surface *Surface) (*Presentation, error) {
	caps, err := d.QueryCapabilities(surface)
	if err != nil {
		return nil, err
	}
	formats, err := d.surfaceFormats(surface)
	if err != nil {
		return nil, err
	}
	format, err := ChooseSurfaceFormat(formats)
	if err != nil {
		return nil, err
	}
	modes, err := d.presentModes(surface)
	if err != nil {
		return nil, err
	}
	p := &Presentation{
		Capabilities: caps,
		Format:       format,
		PresentMode:  ChoosePresentMode(modes),
		Extent:       surface.SwapExtent(caps),
	}
	Logger().Debug("vulkan: negotiated presentation",
		"format", p.Format.Format,
		"color_space", p.Format.ColorSpace,
		"present_mode", p.PresentMode,
		"width", p.Extent.Width,
		"height", p.Extent.Height)
	return p, nil
}
