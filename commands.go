package realvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// DrawCall is everything recorded for one frame: a pipeline, the
// descriptor sets of its shader resources, and the geometry.
type DrawCall struct {
	Pipeline *Pipeline
	// Shader is optional. Its sets are bound when it has any.
	Shader     *ShaderResources
	Vertex     *Buffer
	Index      *Buffer
	ClearColor []float32
}

// CommandRecorder holds one primary command buffer per swapchain image.
// Buffers are reset and re-recorded every frame.
type CommandRecorder struct {
	device     vk.Device
	pool       vk.CommandPool
	buffers    []vk.CommandBuffer
	swapchain  *Swapchain
	renderPass *RenderPass
}

// NewCommandRecorder allocates the command buffers from a pool on the
// graphics queue family.
func NewCommandRecorder(device *Device, swapchain *Swapchain, rp *RenderPass) (*CommandRecorder, error) {
	pool, err := newCommandPool(device.handle, device.physical.families.Graphics)
	if err != nil {
		return nil, err
	}
	count := swapchain.ImageCount()
	buffers := make([]vk.CommandBuffer, count)
	ret := vk.AllocateCommandBuffers(device.handle, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}, buffers)
	if err := newError(ret); err != nil {
		vk.DestroyCommandPool(device.handle, pool, nil)
		return nil, errors.Wrap(err, "allocate command buffers")
	}
	return &CommandRecorder{
		device:     device.handle,
		pool:       pool,
		buffers:    buffers,
		swapchain:  swapchain,
		renderPass: rp,
	}, nil
}

// Buffers returns the per-image command buffers.
func (c *CommandRecorder) Buffers() []vk.CommandBuffer {
	return c.buffers
}

// Record re-records the command buffer of imageIndex with draw.
func (c *CommandRecorder) Record(imageIndex uint32, draw DrawCall) (vk.CommandBuffer, error) {
	if int(imageIndex) >= len(c.buffers) {
		return nil, errors.Errorf("vulkan: no command buffer for image %d", imageIndex)
	}
	if draw.Pipeline == nil || draw.Vertex == nil {
		return nil, errors.New("vulkan: draw call needs a pipeline and a vertex buffer")
	}
	framebuffers := c.swapchain.Framebuffers()
	if int(imageIndex) >= len(framebuffers) {
		return nil, errors.Errorf("vulkan: no framebuffer for image %d", imageIndex)
	}
	cmd := c.buffers[imageIndex]

	ret := vk.ResetCommandBuffer(cmd, 0)
	if err := newError(ret); err != nil {
		return nil, errors.Wrap(err, "reset command buffer")
	}
	ret = vk.BeginCommandBuffer(cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	})
	if err := newError(ret); err != nil {
		return nil, errors.Wrap(err, "begin command buffer")
	}

	clearValues := c.renderPass.ClearValues(draw.ClearColor)
	vk.CmdBeginRenderPass(cmd, &vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  c.renderPass.handle,
		Framebuffer: framebuffers[imageIndex],
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: c.swapchain.Extent(),
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}, vk.SubpassContentsInline)

	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, draw.Pipeline.Handle)
	if draw.Shader != nil && len(draw.Shader.Sets) > 0 {
		vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics, draw.Pipeline.Layout,
			0, uint32(len(draw.Shader.Sets)), draw.Shader.Sets, 0, nil)
	}
	vk.CmdBindVertexBuffers(cmd, 0, 1, []vk.Buffer{draw.Vertex.Buffer}, []vk.DeviceSize{0})
	if draw.Index != nil {
		vk.CmdBindIndexBuffer(cmd, draw.Index.Buffer, 0, vk.IndexTypeUint32)
		vk.CmdDrawIndexed(cmd, draw.Index.Count, 1, 0, 0, 0)
	} else {
		vk.CmdDraw(cmd, draw.Vertex.Count, 1, 0, 0)
	}
	vk.CmdEndRenderPass(cmd)

	ret = vk.EndCommandBuffer(cmd)
	if err := newError(ret); err != nil {
		return nil, errors.Wrap(err, "end command buffer")
	}
	return cmd, nil
}

// Destroy frees the command buffers and the pool.
func (c *CommandRecorder) Destroy() {
	if len(c.buffers) > 0 {
		vk.FreeCommandBuffers(c.device, c.pool, uint32(len(c.buffers)), c.buffers)
		c.buffers = nil
	}
	vk.DestroyCommandPool(c.device, c.pool, nil)
}
