package realvk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lin "github.com/xlab/linmath"
)

func TestVulkanProjectionMat(t *testing.T) {
	var identity, m lin.Mat4x4
	identity.Identity()
	VulkanProjectionMat(&m, &identity)

	assert.Equal(t, float32(1), m[0][0])
	assert.Equal(t, float32(-1), m[1][1])
	assert.Equal(t, float32(0.5), m[2][2])
	assert.Equal(t, float32(0.5), m[3][2])
	assert.Equal(t, float32(1), m[3][3])
}

func TestCameraMVP(t *testing.T) {
	mvp := DefaultCamera().MVP(800, 600, 0)
	require.NotNil(t, mvp)
	b := MatrixBytes(mvp)
	assert.Len(t, b, MVPBytes)

	// A zero height must not produce NaNs.
	degenerate := DefaultCamera().MVP(800, 0, 0)
	for _, col := range degenerate {
		for _, v := range col {
			assert.False(t, math.IsNaN(float64(v)))
		}
	}
}

func TestSpinWraps(t *testing.T) {
	assert.InDelta(t, 0.5, Spin(0.25, 0.25), 1e-6)
	assert.Less(t, Spin(2*math.Pi-0.01, 0.02), float32(0.1))
}
