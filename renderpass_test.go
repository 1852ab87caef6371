package realvk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestRenderPassLayoutColorOnly(t *testing.T) {
	attachments, subpass, deps := renderPassLayout(vk.FormatB8g8r8a8Srgb, false)
	require.Len(t, attachments, 1)
	color := attachments[0]
	assert.Equal(t, vk.FormatB8g8r8a8Srgb, color.Format)
	assert.Equal(t, vk.AttachmentLoadOpClear, color.LoadOp)
	assert.Equal(t, vk.AttachmentStoreOpStore, color.StoreOp)
	assert.Equal(t, vk.ImageLayoutPresentSrc, color.FinalLayout)

	assert.Equal(t, uint32(1), subpass.ColorAttachmentCount)
	assert.Nil(t, subpass.PDepthStencilAttachment)

	require.Len(t, deps, 1)
	assert.Equal(t, uint32(vk.SubpassExternal), deps[0].SrcSubpass)
	assert.Equal(t, uint32(0), deps[0].DstSubpass)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit), deps[0].DstStageMask)
	assert.Equal(t, vk.AccessFlags(vk.AccessColorAttachmentReadBit|vk.AccessColorAttachmentWriteBit), deps[0].DstAccessMask)
}

func TestRenderPassLayoutDepth(t *testing.T) {
	attachments, subpass, deps := renderPassLayout(vk.FormatB8g8r8a8Srgb, true)
	require.Len(t, attachments, 2)
	depth := attachments[1]
	assert.Equal(t, DepthFormat, depth.Format)
	assert.Equal(t, vk.AttachmentLoadOpClear, depth.LoadOp)
	assert.Equal(t, vk.AttachmentStoreOpDontCare, depth.StoreOp)
	assert.Equal(t, vk.ImageLayoutDepthStencilAttachmentOptimal, depth.FinalLayout)

	require.NotNil(t, subpass.PDepthStencilAttachment)
	assert.Equal(t, uint32(1), subpass.PDepthStencilAttachment.Attachment)

	require.Len(t, deps, 1)
	assert.NotZero(t, deps[0].DstStageMask&vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit))
	assert.NotZero(t, deps[0].DstAccessMask&vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit))
}

func TestClearValues(t *testing.T) {
	color := []float32{1, 0, 0, 1}
	assert.Len(t, (&RenderPass{}).ClearValues(color), 1)
	values := (&RenderPass{depth: true}).ClearValues(color)
	require.Len(t, values, 2)
	assert.Equal(t, vk.NewClearValue(color), values[0])
}
