package realvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// frameDevice is the GPU side of the frame protocol. Synchronization
// objects are addressed by frame slot.
type frameDevice interface {
	// WaitForFence blocks until the in-flight fence of slot is signaled.
	WaitForFence(slot int) error
	ResetFence(slot int) error
	// AcquireNextImage signals the image-available semaphore of slot.
	AcquireNextImage(slot int) (uint32, error)
	// Submit waits on image-available and signals render-complete and the
	// in-flight fence of slot.
	Submit(slot int, cmd vk.CommandBuffer) error
	// Present waits on render-complete of slot.
	Present(slot int, imageIndex uint32) error
	// SignalFence puts the fence of slot back into the signaled state after
	// a failed submission.
	SignalFence(slot int) error
}

const noFence = -1

// FrameSynchronizer runs the acquire, record, submit and present cycle with
// at most N frames in flight. A frame slot is only reused after its fence
// has been waited on, and a swapchain image is only recorded into once the
// frame that last used it has finished.
type FrameSynchronizer struct {
	dev   frameDevice
	slots int
	frame int
	drawn uint64
	// imagesInFlight holds, per swapchain image, the slot whose fence guards
	// it, or noFence.
	imagesInFlight []int
}

func newFrameSynchronizer(dev frameDevice, framesInFlight, imageCount int) *FrameSynchronizer {
	images := make([]int, imageCount)
	for i := range images {
		images[i] = noFence
	}
	return &FrameSynchronizer{
		dev:            dev,
		slots:          framesInFlight,
		imagesInFlight: images,
	}
}

// NewFrameSynchronizer creates per-slot semaphores and signaled fences for
// framesInFlight frames.
func NewFrameSynchronizer(device *Device, swapchain *Swapchain, framesInFlight int) (*FrameSynchronizer, error) {
	if framesInFlight < 1 {
		return nil, errors.Errorf("vulkan: frames in flight must be positive, got %d", framesInFlight)
	}
	dev, err := newVkFrameDevice(device, swapchain, framesInFlight)
	if err != nil {
		return nil, err
	}
	return newFrameSynchronizer(dev, framesInFlight, swapchain.ImageCount()), nil
}

// CurrentFrame is the slot the next DrawFrame uses.
func (s *FrameSynchronizer) CurrentFrame() int {
	return s.frame
}

// FramesDrawn counts completed submit and present cycles.
func (s *FrameSynchronizer) FramesDrawn() uint64 {
	return s.drawn
}

// DrawFrame renders one frame. record is called with the acquired image
// index once it is safe to overwrite that image's command buffer.
//
// An out-of-date swapchain at acquisition returns ErrSwapchainOutOfDate
// without submitting. A suboptimal acquisition still renders and presents
// the frame and then returns ErrSwapchainSuboptimal. Presentation results
// are returned after the slot has advanced.
func (s *FrameSynchronizer) DrawFrame(record func(imageIndex uint32) (vk.CommandBuffer, error)) error {
	f := s.frame
	if err := s.dev.WaitForFence(f); err != nil {
		return errors.Wrap(err, "wait for frame fence")
	}

	imageIndex, acquireErr := s.dev.AcquireNextImage(f)
	if acquireErr != nil && !errors.Is(acquireErr, ErrSwapchainSuboptimal) {
		return acquireErr
	}
	if int(imageIndex) >= len(s.imagesInFlight) {
		return errors.Errorf("vulkan: acquired image %d of %d", imageIndex, len(s.imagesInFlight))
	}

	if owner := s.imagesInFlight[imageIndex]; owner != noFence && owner != f {
		if err := s.dev.WaitForFence(owner); err != nil {
			return errors.Wrapf(err, "wait for image %d", imageIndex)
		}
	}
	s.imagesInFlight[imageIndex] = f

	cmd, err := record(imageIndex)
	if err != nil {
		return errors.Wrapf(err, "record image %d", imageIndex)
	}

	if err := s.dev.ResetFence(f); err != nil {
		return errors.Wrap(err, "reset frame fence")
	}
	if err := s.dev.Submit(f, cmd); err != nil {
		return s.submitFailed(f, imageIndex, err)
	}
	presentErr := s.dev.Present(f, imageIndex)

	s.frame = (f + 1) % s.slots
	s.drawn++

	if presentErr != nil {
		return presentErr
	}
	return acquireErr
}

// submitFailed undoes the fence reset of slot so no later wait blocks on a
// fence that will never signal. The error is always fatal.
func (s *FrameSynchronizer) submitFailed(slot int, imageIndex uint32, err error) error {
	s.imagesInFlight[imageIndex] = noFence
	if serr := s.dev.SignalFence(slot); serr != nil {
		Logger().Error("vulkan: restore frame fence", "slot", slot, "error", serr)
	}
	if IsFatal(err) {
		return errors.Wrap(err, "submit frame")
	}
	return errors.Wrapf(ErrSubmitFailed, "submit frame: %v", err)
}

// Destroy releases the synchronization objects. The device must be idle.
func (s *FrameSynchronizer) Destroy() {
	if d, ok := s.dev.(interface{ destroy() }); ok {
		d.destroy()
	}
}

type vkFrameDevice struct {
	device    vk.Device
	swapchain vk.Swapchain
	graphics  vk.Queue
	present   vk.Queue

	imageAvailable []vk.Semaphore
	renderComplete []vk.Semaphore
	inFlight       []vk.Fence
}

func newVkFrameDevice(d *Device, swapchain *Swapchain, slots int) (dev *vkFrameDevice, err error) {
	dev = &vkFrameDevice{
		device:    d.handle,
		swapchain: swapchain.handle,
		graphics:  d.graphicsQueue,
		present:   d.presentQueue,
	}
	defer func() {
		if err != nil {
			dev.destroy()
			dev = nil
		}
	}()
	for i := 0; i < slots; i++ {
		var available, complete vk.Semaphore
		ret := vk.CreateSemaphore(d.handle, &vk.SemaphoreCreateInfo{
			SType: vk.StructureTypeSemaphoreCreateInfo,
		}, nil, &available)
		if err := newError(ret); err != nil {
			return dev, errors.Wrap(err, "create image-available semaphore")
		}
		dev.imageAvailable = append(dev.imageAvailable, available)

		ret = vk.CreateSemaphore(d.handle, &vk.SemaphoreCreateInfo{
			SType: vk.StructureTypeSemaphoreCreateInfo,
		}, nil, &complete)
		if err := newError(ret); err != nil {
			return dev, errors.Wrap(err, "create render-complete semaphore")
		}
		dev.renderComplete = append(dev.renderComplete, complete)

		var fence vk.Fence
		ret = vk.CreateFence(d.handle, &vk.FenceCreateInfo{
			SType: vk.StructureTypeFenceCreateInfo,
			Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
		}, nil, &fence)
		if err := newError(ret); err != nil {
			return dev, errors.Wrap(err, "create frame fence")
		}
		dev.inFlight = append(dev.inFlight, fence)
	}
	return dev, nil
}

func (v *vkFrameDevice) WaitForFence(slot int) error {
	ret := vk.WaitForFences(v.device, 1, []vk.Fence{v.inFlight[slot]}, vk.True, vk.MaxUint64)
	return presentResult(ret, "wait for fences")
}

func (v *vkFrameDevice) ResetFence(slot int) error {
	return newError(vk.ResetFences(v.device, 1, []vk.Fence{v.inFlight[slot]}))
}

func (v *vkFrameDevice) AcquireNextImage(slot int) (uint32, error) {
	var index uint32
	ret := vk.AcquireNextImage(v.device, v.swapchain, vk.MaxUint64, v.imageAvailable[slot], vk.NullFence, &index)
	return index, presentResult(ret, "acquire next image")
}

func (v *vkFrameDevice) Submit(slot int, cmd vk.CommandBuffer) error {
	ret := vk.QueueSubmit(v.graphics, 1, []vk.SubmitInfo{{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{v.imageAvailable[slot]},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cmd},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{v.renderComplete[slot]},
	}}, v.inFlight[slot])
	return presentResult(ret, "queue submit")
}

func (v *vkFrameDevice) Present(slot int, imageIndex uint32) error {
	ret := vk.QueuePresent(v.present, &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{v.renderComplete[slot]},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{v.swapchain},
		PImageIndices:      []uint32{imageIndex},
	})
	return presentResult(ret, "queue present")
}

// SignalFence submits no work with the fence of slot, which signals it once
// the queue drains.
func (v *vkFrameDevice) SignalFence(slot int) error {
	ret := vk.QueueSubmit(v.graphics, 0, nil, v.inFlight[slot])
	return newError(ret)
}

func (v *vkFrameDevice) destroy() {
	for _, s := range v.imageAvailable {
		vk.DestroySemaphore(v.device, s, nil)
	}
	for _, s := range v.renderComplete {
		vk.DestroySemaphore(v.device, s, nil)
	}
	for _, f := range v.inFlight {
		vk.DestroyFence(v.device, f, nil)
	}
	v.imageAvailable, v.renderComplete, v.inFlight = nil, nil, nil
}
