package realvk

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
)

func TestPresentResult(t *testing.T) {
	assert.NoError(t, presentResult(vk.Success, "present"))

	err := presentResult(vk.Suboptimal, "present")
	assert.ErrorIs(t, err, ErrSwapchainSuboptimal)
	assert.True(t, IsTransient(err))
	assert.False(t, IsFatal(err))

	err = presentResult(vk.ErrorOutOfDate, "acquire")
	assert.ErrorIs(t, err, ErrSwapchainOutOfDate)
	assert.Equal(t, ErrSwapchainOutOfDate, errors.Cause(err))
	assert.True(t, IsTransient(err))

	err = presentResult(vk.ErrorDeviceLost, "submit")
	assert.ErrorIs(t, err, ErrDeviceLost)
	assert.True(t, IsFatal(err))
	assert.False(t, IsTransient(err))

	err = presentResult(vk.ErrorOutOfHostMemory, "present")
	assert.Error(t, err)
	assert.False(t, IsTransient(err))
	assert.False(t, IsFatal(err))
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.True(t, IsFatal(errors.Wrap(ErrInitFailed, "create instance")))
	assert.True(t, IsFatal(errors.Wrap(ErrNoCompatibleDevice, "select")))
	assert.True(t, IsFatal(ErrDeviceCreationFailed))
	assert.False(t, IsFatal(ErrUnknownShader))
	assert.False(t, IsFatal(ErrPoolExhausted))
}

func TestNewError(t *testing.T) {
	assert.NoError(t, newError(vk.Success))
	err := newError(vk.ErrorInitializationFailed)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "errors_test.go")
}

func TestCheckErrRecovers(t *testing.T) {
	run := func() (err error) {
		defer checkErr(&err)
		orPanic(ErrNoMemoryType)
		return nil
	}
	assert.ErrorIs(t, run(), ErrNoMemoryType)

	finalized := false
	run2 := func() (err error) {
		defer checkErr(&err)
		orPanic(errors.New("boom"), func() { finalized = true })
		return nil
	}
	assert.EqualError(t, run2(), "boom")
	assert.True(t, finalized)
}

func TestSetupFailedIsFatal(t *testing.T) {
	assert.NoError(t, setupFailed(nil, "create swapchain"))

	err := setupFailed(newError(vk.ErrorInitializationFailed), "create swapchain")
	assert.ErrorIs(t, err, ErrSetupFailed)
	assert.True(t, IsFatal(err))
	assert.False(t, IsTransient(err))
	assert.Contains(t, err.Error(), "create swapchain")

	err = setupFailed(errors.Wrap(ErrNoMemoryType, "depth image"), "render pass")
	assert.ErrorIs(t, err, ErrNoMemoryType)
	assert.ErrorIs(t, err, ErrSetupFailed)
	assert.Equal(t, ErrNoMemoryType, errors.Cause(err))

	wrapped := errors.Wrap(setupFailed(ErrUnknownShader, "resources"), "setup")
	assert.True(t, IsFatal(wrapped))
}
