package realvk

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestChooseSurfaceFormat(t *testing.T) {
	unorm := vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	srgb := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}

	tests := []struct {
		name    string
		formats []vk.SurfaceFormat
		want    vk.SurfaceFormat
	}{
		{"undefined means any", []vk.SurfaceFormat{{Format: vk.FormatUndefined}}, DefaultSurfaceFormat},
		{"preferred present", []vk.SurfaceFormat{unorm, srgb}, srgb},
		{"fallback to first", []vk.SurfaceFormat{unorm}, unorm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ChooseSurfaceFormat(tt.formats)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChooseSurfaceFormatEmpty(t *testing.T) {
	_, err := ChooseSurfaceFormat(nil)
	assert.ErrorIs(t, err, ErrFormatNotSupported)
}

func TestChoosePresentMode(t *testing.T) {
	tests := []struct {
		name  string
		modes []vk.PresentMode
		want  vk.PresentMode
	}{
		{"mailbox wins", []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate, vk.PresentModeMailbox}, vk.PresentModeMailbox},
		{"immediate over fifo", []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate}, vk.PresentModeImmediate},
		{"fifo only", []vk.PresentMode{vk.PresentModeFifo}, vk.PresentModeFifo},
		{"nothing reported", nil, vk.PresentModeFifo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChoosePresentMode(tt.modes))
		})
	}
}

func TestComputeSwapExtent(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 100, Height: 100},
		MaxImageExtent: vk.Extent2D{Width: 1920, Height: 1080},
	}

	t.Run("window size within bounds", func(t *testing.T) {
		assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, ComputeSwapExtent(caps, 800, 600))
	})
	t.Run("clamped", func(t *testing.T) {
		assert.Equal(t, vk.Extent2D{Width: 1920, Height: 100}, ComputeSwapExtent(caps, 4000, 10))
	})
	t.Run("current extent is authoritative", func(t *testing.T) {
		fixed := caps
		fixed.CurrentExtent = vk.Extent2D{Width: 1024, Height: 768}
		assert.Equal(t, vk.Extent2D{Width: 1024, Height: 768}, ComputeSwapExtent(fixed, 800, 600))
	})
	t.Run("always within bounds", func(t *testing.T) {
		for _, size := range [][2]uint32{{0, 0}, {1, 5000}, {640, 480}, {vk.MaxUint32 - 1, 99}} {
			got := ComputeSwapExtent(caps, size[0], size[1])
			assert.GreaterOrEqual(t, got.Width, caps.MinImageExtent.Width)
			assert.LessOrEqual(t, got.Width, caps.MaxImageExtent.Width)
			assert.GreaterOrEqual(t, got.Height, caps.MinImageExtent.Height)
			assert.LessOrEqual(t, got.Height, caps.MaxImageExtent.Height)
		}
	})
}

// pixelWindow reports a framebuffer larger than its screen-coordinate size,
// the way a HiDPI window does.
type pixelWindow struct {
	width, height int
}

func (pixelWindow) CreateWindowSurface(interface{}, unsafe.Pointer) (uintptr, error) {
	return 0, nil
}

func (w pixelWindow) GetFramebufferSize() (int, int) { return w.width, w.height }

func (pixelWindow) GetRequiredInstanceExtensions() []string { return nil }

func TestSurfaceSwapExtentUsesFramebufferPixels(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
	}
	s := &Surface{window: pixelWindow{width: 1600, height: 1200}}
	assert.Equal(t, vk.Extent2D{Width: 1600, Height: 1200}, s.SwapExtent(caps))

	s.window = pixelWindow{width: -1, height: 9000}
	assert.Equal(t, vk.Extent2D{Width: 1, Height: 4096}, s.SwapExtent(caps))

	caps.CurrentExtent = vk.Extent2D{Width: 800, Height: 600}
	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, s.SwapExtent(caps))
}
