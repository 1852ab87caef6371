package realvk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
)

func TestSwapImageCount(t *testing.T) {
	tests := []struct {
		name     string
		min, max uint32
		want     uint32
	}{
		{"one above minimum", 2, 8, 3},
		{"unbounded", 3, 0, 4},
		{"clamped to maximum", 3, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := vk.SurfaceCapabilities{MinImageCount: tt.min, MaxImageCount: tt.max}
			assert.Equal(t, tt.want, swapImageCount(caps))
		})
	}
}

func TestOpaqueSupported(t *testing.T) {
	assert.True(t, opaqueSupported(vk.CompositeAlphaFlags(vk.CompositeAlphaOpaqueBit|vk.CompositeAlphaInheritBit)))
	assert.False(t, opaqueSupported(vk.CompositeAlphaFlags(vk.CompositeAlphaInheritBit)))
	assert.False(t, opaqueSupported(0))
}
