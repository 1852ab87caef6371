package realvk_test

import (
	"os"
	"runtime"
	"testing"

	"github.com/andewx/realvk"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	WIDTH  = 500
	HEIGHT = 500
)

// TestRender opens a real window and draws a few frames. It needs a GPU,
// a display and the compiled shaders, so it only runs with
// REALVK_GPU_TESTS set.
func TestRender(t *testing.T) {
	if os.Getenv("REALVK_GPU_TESTS") == "" {
		t.Skip("set REALVK_GPU_TESTS to run against a real device")
	}
	cfg := realvk.DefaultConfig()
	cfg.Window.Width, cfg.Window.Height = WIDTH, HEIGHT
	for _, st := range cfg.Pipelines[0].Stages {
		if _, err := os.Stat(st.Path); err != nil {
			t.Skipf("compiled shader %s not found", st.Path)
		}
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	require.NoError(t, glfw.Init())
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Visible, glfw.True)
	window, err := glfw.CreateWindow(WIDTH, HEIGHT, "realvk test", nil, nil)
	require.NoError(t, err)
	defer window.Destroy()

	r, err := realvk.NewRenderer(cfg)
	require.NoError(t, err)
	defer r.Destroy()
	require.NoError(t, r.Setup(window, realvk.DefaultTriangle()))
	assert.Equal(t, realvk.PhaseFrameLoopReady, r.Phase())

	sc := r.Swapchain()
	assert.Equal(t, sc.ImageCount(), len(sc.ImageViews()))
	assert.Equal(t, sc.ImageCount(), len(sc.Framebuffers()))

	mvp := realvk.DefaultCamera().MVP(sc.Extent().Width, sc.Extent().Height, 0)
	require.NoError(t, r.WriteUniform("basic", 0, realvk.MatrixBytes(mvp)))

	for i := 0; i < 10; i++ {
		glfw.PollEvents()
		err := r.DrawFrame()
		if realvk.IsTransient(err) {
			continue
		}
		require.NoError(t, err)
	}
	assert.NotZero(t, r.Frames().FramesDrawn())
}
