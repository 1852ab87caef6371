package realvk

import (
	"math"

	lin "github.com/xlab/linmath"
)

// VulkanProjectionMat converts an OpenGL style projection matrix to Vulkan style projection matrix.
// Vulkan has a topLeft clipSpace with [0, 1] depth range instead of [-1, 1].
//
// linmath outputs projection matrices in GL style clipSpace,
// perform a simple fixup step to change the projection to Vulkan style.
func VulkanProjectionMat(m *lin.Mat4x4, proj *lin.Mat4x4) {
	var fix lin.Mat4x4
	fix.Identity()
	// Flip Y in clipspace. X = -1, Y = -1 is topLeft in Vulkan.
	fix[1][1] = -1.0
	// Z depth is [0, 1] range instead of [-1, 1].
	fix[2][2] = 0.5
	fix[3][2] = 0.5
	m.Mult(&fix, proj)
}

// Camera places the eye for the demo uniform.
type Camera struct {
	Eye, Center, Up lin.Vec3
	FovDegrees      float32
	Near, Far       float32
}

// DefaultCamera looks at the origin from two units down +Z.
func DefaultCamera() Camera {
	return Camera{
		Eye:        lin.Vec3{0, 0, 2},
		Center:     lin.Vec3{0, 0, 0},
		Up:         lin.Vec3{0, 1, 0},
		FovDegrees: 45,
		Near:       0.1,
		Far:        100,
	}
}

// MVPBytes is the size of one 4x4 float32 matrix.
const MVPBytes = 16 * 4

// MVP builds projection * view * model for extent, with the model rotated
// by angle radians around Y.
func (c Camera) MVP(width, height uint32, angle float32) *lin.Mat4x4 {
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	var glProj, proj, view, model, vp lin.Mat4x4
	glProj.Perspective(lin.DegreesToRadians(c.FovDegrees), aspect, c.Near, c.Far)
	VulkanProjectionMat(&proj, &glProj)
	view.LookAt(&c.Eye, &c.Center, &c.Up)

	var identity lin.Mat4x4
	identity.Identity()
	model.Rotate(&identity, 0, 1, 0, angle)

	mvp := new(lin.Mat4x4)
	vp.Mult(&proj, &view)
	mvp.Mult(&vp, &model)
	return mvp
}

// MatrixBytes lays m out column-major as raw float32 bytes.
func MatrixBytes(m *lin.Mat4x4) []byte {
	return lin.ArrayFloat32(m.Slice()).Data()
}

// Spin advances angle by step, wrapped to one turn.
func Spin(angle, step float32) float32 {
	return float32(math.Mod(float64(angle+step), 2*math.Pi))
}
