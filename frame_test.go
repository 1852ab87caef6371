package realvk

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

// fakeFrameDevice models fences as signaled or pending. A pending fence
// completes when it is waited on, which is logged as a blocking wait.
type fakeFrameDevice struct {
	events   []string
	signaled []bool
	waited   []bool

	images     []uint32
	acquires   int
	acquireErr map[int]error
	presentErr error
	submitErr  error

	resetWithoutWait int
}

func newFakeFrameDevice(slots int, images ...uint32) *fakeFrameDevice {
	f := &fakeFrameDevice{
		signaled:   make([]bool, slots),
		waited:     make([]bool, slots),
		images:     images,
		acquireErr: make(map[int]error),
	}
	for i := range f.signaled {
		f.signaled[i] = true
	}
	return f
}

func (f *fakeFrameDevice) WaitForFence(slot int) error {
	if f.signaled[slot] {
		f.events = append(f.events, fmt.Sprintf("wait:%d", slot))
	} else {
		f.events = append(f.events, fmt.Sprintf("block:%d", slot))
		f.signaled[slot] = true
	}
	f.waited[slot] = true
	return nil
}

func (f *fakeFrameDevice) ResetFence(slot int) error {
	if !f.waited[slot] || !f.signaled[slot] {
		f.resetWithoutWait++
	}
	f.signaled[slot] = false
	f.waited[slot] = false
	f.events = append(f.events, fmt.Sprintf("reset:%d", slot))
	return nil
}

func (f *fakeFrameDevice) AcquireNextImage(slot int) (uint32, error) {
	n := f.acquires
	f.acquires++
	image := f.images[n%len(f.images)]
	f.events = append(f.events, fmt.Sprintf("acquire:%d", slot))
	return image, f.acquireErr[n]
}

func (f *fakeFrameDevice) Submit(slot int, cmd vk.CommandBuffer) error {
	if f.submitErr != nil {
		f.events = append(f.events, fmt.Sprintf("submit-failed:%d", slot))
		return f.submitErr
	}
	f.events = append(f.events, fmt.Sprintf("submit:%d", slot))
	return nil
}

func (f *fakeFrameDevice) SignalFence(slot int) error {
	f.signaled[slot] = true
	f.events = append(f.events, fmt.Sprintf("signal:%d", slot))
	return nil
}

func (f *fakeFrameDevice) Present(slot int, imageIndex uint32) error {
	f.events = append(f.events, fmt.Sprintf("present:%d:%d", slot, imageIndex))
	return f.presentErr
}

func recorder(dev *fakeFrameDevice) func(uint32) (vk.CommandBuffer, error) {
	return func(i uint32) (vk.CommandBuffer, error) {
		dev.events = append(dev.events, fmt.Sprintf("record:%d", i))
		return nil, nil
	}
}

func TestDrawFrameSequence(t *testing.T) {
	dev := newFakeFrameDevice(2, 0, 1, 2)
	s := newFrameSynchronizer(dev, 2, 3)

	require.NoError(t, s.DrawFrame(recorder(dev)))
	assert.Equal(t, []string{
		"wait:0", "acquire:0", "record:0", "reset:0", "submit:0", "present:0:0",
	}, dev.events)
	assert.Equal(t, 1, s.CurrentFrame())
	assert.Equal(t, uint64(1), s.FramesDrawn())
}

func TestDrawFrameWaitsBeforeEveryReset(t *testing.T) {
	dev := newFakeFrameDevice(2, 0, 1, 2)
	s := newFrameSynchronizer(dev, 2, 3)

	for i := 0; i < 12; i++ {
		require.NoError(t, s.DrawFrame(recorder(dev)))
	}
	assert.Zero(t, dev.resetWithoutWait)
	assert.Equal(t, uint64(12), s.FramesDrawn())
	assert.Equal(t, 0, s.CurrentFrame())
}

func TestDrawFrameBlocksOnImageStillInFlight(t *testing.T) {
	// Three slots, and the driver hands out image 2 twice in a row while
	// the first frame using it is still pending.
	dev := newFakeFrameDevice(3, 2, 2)
	s := newFrameSynchronizer(dev, 3, 3)

	require.NoError(t, s.DrawFrame(recorder(dev)))
	dev.events = nil

	require.NoError(t, s.DrawFrame(recorder(dev)))
	assert.Equal(t, []string{
		"wait:1", "acquire:1", "block:0", "record:2", "reset:1", "submit:1", "present:1:2",
	}, dev.events)
	assert.Equal(t, []int{noFence, noFence, 1}, s.imagesInFlight)
}

func TestDrawFrameSameSlotDoesNotWaitTwice(t *testing.T) {
	dev := newFakeFrameDevice(1, 0)
	s := newFrameSynchronizer(dev, 1, 1)

	require.NoError(t, s.DrawFrame(recorder(dev)))
	dev.events = nil
	require.NoError(t, s.DrawFrame(recorder(dev)))
	assert.Equal(t, []string{
		"block:0", "acquire:0", "record:0", "reset:0", "submit:0", "present:0:0",
	}, dev.events)
}

func TestDrawFrameOutOfDateAtAcquire(t *testing.T) {
	dev := newFakeFrameDevice(2, 0)
	dev.acquireErr[0] = errors.Wrap(ErrSwapchainOutOfDate, "acquire next image")
	s := newFrameSynchronizer(dev, 2, 1)

	err := s.DrawFrame(recorder(dev))
	assert.ErrorIs(t, err, ErrSwapchainOutOfDate)
	assert.True(t, IsTransient(err))
	assert.Equal(t, []string{"wait:0", "acquire:0"}, dev.events)
	assert.Equal(t, 0, s.CurrentFrame())
	assert.Zero(t, s.FramesDrawn())
}

func TestDrawFrameSuboptimalStillPresents(t *testing.T) {
	dev := newFakeFrameDevice(2, 0)
	dev.acquireErr[0] = errors.Wrap(ErrSwapchainSuboptimal, "acquire next image")
	s := newFrameSynchronizer(dev, 2, 1)

	err := s.DrawFrame(recorder(dev))
	assert.ErrorIs(t, err, ErrSwapchainSuboptimal)
	assert.Contains(t, dev.events, "present:0:0")
	assert.Equal(t, 1, s.CurrentFrame())
}

func TestDrawFramePresentErrors(t *testing.T) {
	dev := newFakeFrameDevice(2, 0)
	dev.presentErr = errors.Wrap(ErrSwapchainOutOfDate, "queue present")
	s := newFrameSynchronizer(dev, 2, 1)

	err := s.DrawFrame(recorder(dev))
	assert.ErrorIs(t, err, ErrSwapchainOutOfDate)
	assert.Equal(t, 1, s.CurrentFrame(), "the cycle completed")

	dev.presentErr = errors.Wrap(ErrDeviceLost, "queue present")
	err = s.DrawFrame(recorder(dev))
	assert.True(t, IsFatal(err))
}

func TestDrawFrameRecordError(t *testing.T) {
	dev := newFakeFrameDevice(2, 0)
	s := newFrameSynchronizer(dev, 2, 1)

	err := s.DrawFrame(func(uint32) (vk.CommandBuffer, error) {
		return nil, errors.New("no pipeline")
	})
	assert.Error(t, err)
	assert.NotContains(t, dev.events, "reset:0")
	assert.NotContains(t, dev.events, "submit:0")
	assert.Equal(t, 0, s.CurrentFrame())
}

func TestDrawFrameImageOutOfRange(t *testing.T) {
	dev := newFakeFrameDevice(1, 5)
	s := newFrameSynchronizer(dev, 1, 2)
	assert.Error(t, s.DrawFrame(recorder(dev)))
}

func TestDrawFrameSubmitFailure(t *testing.T) {
	dev := newFakeFrameDevice(2, 0)
	dev.submitErr = newError(vk.ErrorOutOfHostMemory)
	s := newFrameSynchronizer(dev, 2, 1)

	err := s.DrawFrame(recorder(dev))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSubmitFailed)
	assert.True(t, IsFatal(err))
	assert.False(t, IsTransient(err))

	assert.Equal(t, []string{
		"wait:0", "acquire:0", "record:0", "reset:0", "submit-failed:0", "signal:0",
	}, dev.events)
	assert.True(t, dev.signaled[0], "fence restored after the failed submit")
	assert.Equal(t, noFence, s.imagesInFlight[0])
	assert.Equal(t, 0, s.CurrentFrame())
	assert.Zero(t, s.FramesDrawn())

	dev.submitErr = errors.Wrap(ErrDeviceLost, "queue submit")
	err = s.DrawFrame(recorder(dev))
	assert.ErrorIs(t, err, ErrDeviceLost)
	assert.True(t, IsFatal(err))
}
