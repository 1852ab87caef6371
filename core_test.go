package realvk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRendererStartsUninitialized(t *testing.T) {
	r, err := NewRenderer(nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseUninitialized, r.Phase())
	assert.Equal(t, "uninitialized", r.Phase().String())
}

func TestNewRendererRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Swapchain.FramesInFlight = 0
	_, err := NewRenderer(cfg)
	assert.Error(t, err)
}

func TestRendererEnforcesPhaseOrder(t *testing.T) {
	r, err := NewRenderer(DefaultConfig())
	require.NoError(t, err)

	steps := map[string]func() error{
		"bind surface": r.BindSurface,
		"swapchain":    r.CreateSwapchain,
		"render pass":  r.CreateRenderPass,
		"resources":    func() error { return r.CreateResources(DefaultTriangle()) },
		"frame loop":   r.CreateFrameLoop,
		"draw":         r.DrawFrame,
	}
	for name, step := range steps {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, step(), ErrWrongPhase)
			assert.Equal(t, PhaseUninitialized, r.Phase())
		})
	}
}

func TestRendererDestroyIsSafeWhenEmpty(t *testing.T) {
	r, err := NewRenderer(nil)
	require.NoError(t, err)
	assert.NotPanics(t, r.Destroy)
	assert.NotPanics(t, r.Destroy)
	assert.Equal(t, PhaseUninitialized, r.Phase())
}

func TestRendererWriteUniformUnknown(t *testing.T) {
	r, err := NewRenderer(nil)
	require.NoError(t, err)
	assert.ErrorIs(t, r.WriteUniform("basic", 0, make([]byte, MVPBytes)), ErrUnknownShader)
}

func TestPhaseNames(t *testing.T) {
	assert.Equal(t, "frame loop ready", PhaseFrameLoopReady.String())
	assert.Equal(t, "unknown", Phase(42).String())
	assert.Less(t, int(PhaseDeviceReady), int(PhaseSurfaceBound))
	assert.Less(t, int(PhaseResourcesReady), int(PhaseFrameLoopReady))
}

func TestDefaultTriangle(t *testing.T) {
	g := DefaultTriangle()
	assert.Equal(t, 3, g.Vertices.Len())
	assert.Equal(t, ColorLayout.Name, g.Vertices.Layout().Name)
	assert.Empty(t, g.Indices)
}
