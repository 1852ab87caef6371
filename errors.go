package realvk

import (
	"fmt"
	"runtime"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

var (
	ErrInitFailed           = errors.New("vulkan: instance initialization failed")
	ErrNoCompatibleDevice   = errors.New("vulkan: no compatible physical device")
	ErrDeviceCreationFailed = errors.New("vulkan: logical device creation failed")
	ErrSwapchainOutOfDate   = errors.New("vulkan: swapchain out of date")
	ErrSwapchainSuboptimal  = errors.New("vulkan: swapchain suboptimal")
	ErrDeviceLost           = errors.New("vulkan: device lost")
	ErrUnknownShader        = errors.New("vulkan: unknown shader resources id")
	ErrUnknownPipeline      = errors.New("vulkan: unknown pipeline id")
	ErrInvalidShaderCode    = errors.New("vulkan: shader code length is not a multiple of 4")
	ErrNoMemoryType         = errors.New("vulkan: no suitable memory type")
	ErrPoolExhausted        = errors.New("vulkan: descriptor pool exhausted")
	ErrFormatNotSupported   = errors.New("vulkan: no surface format reported")
	ErrWrongPhase           = errors.New("vulkan: renderer is not in the required phase")
	ErrSetupFailed          = errors.New("vulkan: setup object creation failed")
	ErrSubmitFailed         = errors.New("vulkan: queue submission failed")
)

// IsTransient reports whether err is a presentation condition the caller may
// recover from by recreating the swapchain.
func IsTransient(err error) bool {
	return errors.Is(err, ErrSwapchainOutOfDate) || errors.Is(err, ErrSwapchainSuboptimal)
}

// IsFatal reports whether err leaves the device or the setup unusable.
func IsFatal(err error) bool {
	if err == nil || IsTransient(err) {
		return false
	}
	for _, target := range []error{
		ErrInitFailed, ErrNoCompatibleDevice, ErrDeviceCreationFailed,
		ErrSetupFailed, ErrSubmitFailed, ErrDeviceLost,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// setupError marks a creation failure during bring-up. errors.Is matches
// ErrSetupFailed and everything in the wrapped chain.
type setupError struct {
	cause error
}

func (e *setupError) Error() string { return e.cause.Error() }
func (e *setupError) Unwrap() error { return e.cause }
func (e *setupError) Cause() error  { return e.cause }

func (e *setupError) Is(target error) bool {
	return target == ErrSetupFailed
}

// setupFailed wraps err with msg and tags it as a fatal setup failure.
func setupFailed(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &setupError{cause: errors.Wrap(err, msg)}
}

// newError turns a non-success vk.Result into an error annotated with the
// call site. Positive status codes that vk.Error does not map are reported
// by their numeric value.
func newError(ret vk.Result) error {
	if ret == vk.Success {
		return nil
	}
	err := vk.Error(ret)
	if err == nil {
		err = errors.Errorf("vulkan result %d", ret)
	}
	if pc, _, _, ok := runtime.Caller(1); ok {
		frame := newStackFrame(pc)
		return errors.Wrapf(err, "vulkan error (%d) on %s", ret, frame.String())
	}
	return errors.Wrapf(err, "vulkan error (%d)", ret)
}

// wrapResult is newError with a caller-provided message, the form used by
// every create call.
func wrapResult(ret vk.Result, msg string) error {
	if ret == vk.Success {
		return nil
	}
	err := vk.Error(ret)
	if err == nil {
		err = errors.Errorf("vulkan result %d", ret)
	}
	return errors.Wrap(err, msg)
}

// presentResult maps the acquire/present results onto the error taxonomy.
func presentResult(ret vk.Result, op string) error {
	switch ret {
	case vk.Success:
		return nil
	case vk.Suboptimal:
		return errors.Wrap(ErrSwapchainSuboptimal, op)
	case vk.ErrorOutOfDate:
		return errors.Wrap(ErrSwapchainOutOfDate, op)
	case vk.ErrorDeviceLost:
		return errors.Wrap(ErrDeviceLost, op)
	}
	return wrapResult(ret, op)
}

type stackFrame struct {
	file string
	line int
	fn   string
}

func newStackFrame(pc uintptr) stackFrame {
	frames := runtime.CallersFrames([]uintptr{pc})
	f, _ := frames.Next()
	return stackFrame{file: f.File, line: f.Line, fn: f.Function}
}

func (s stackFrame) String() string {
	return fmt.Sprintf("%s:%d (%s)", s.file, s.line, s.fn)
}

func orPanic(err error, finalizers ...func()) {
	if err != nil {
		for _, fn := range finalizers {
			fn()
		}
		panic(err)
	}
}

func checkErr(err *error) {
	if v := recover(); v != nil {
		if e, ok := v.(error); ok {
			*err = e
			return
		}
		*err = fmt.Errorf("%+v", v)
	}
}
