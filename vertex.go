package realvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
	"github.com/xlab/linmath"
)

// VertexLayout describes how one interleaved vertex is laid out in binding 0.
type VertexLayout struct {
	Name       string
	Stride     uint32
	Attributes []vk.VertexInputAttributeDescription
}

func (l VertexLayout) Binding() vk.VertexInputBindingDescription {
	return vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    l.Stride,
		InputRate: vk.VertexInputRateVertex,
	}
}

var (
	// ColorLayout is position at location 0 and color at location 1.
	ColorLayout = VertexLayout{
		Name:   "color",
		Stride: 6 * 4,
		Attributes: []vk.VertexInputAttributeDescription{
			{Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 0},
			{Location: 1, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 3 * 4},
		},
	}
	// TexturedLayout is position at location 0 and uv at location 1.
	TexturedLayout = VertexLayout{
		Name:   "textured",
		Stride: 5 * 4,
		Attributes: []vk.VertexInputAttributeDescription{
			{Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 0},
			{Location: 1, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: 3 * 4},
		},
	}
)

// VertexLayoutByName resolves the layout names used in pipeline configs.
func VertexLayoutByName(name string) (VertexLayout, error) {
	switch name {
	case ColorLayout.Name, "":
		return ColorLayout, nil
	case TexturedLayout.Name:
		return TexturedLayout, nil
	}
	return VertexLayout{}, errors.Errorf("unknown vertex layout %q", name)
}

// VertexData is an interleaved vertex array ready for upload.
type VertexData interface {
	Layout() VertexLayout
	Len() int
	Bytes() []byte
}

type Vertex struct {
	Position [3]float32
	Color    [3]float32
}

type TexturedVertex struct {
	Position [3]float32
	UV       [2]float32
}

type Vertices []Vertex

func (v Vertices) Layout() VertexLayout { return ColorLayout }
func (v Vertices) Len() int             { return len(v) }

func (v Vertices) Bytes() []byte {
	data := make([]float32, 0, len(v)*6)
	for _, vert := range v {
		data = append(data, vert.Position[:]...)
		data = append(data, vert.Color[:]...)
	}
	return linmath.ArrayFloat32(data).Data()
}

type TexturedVertices []TexturedVertex

func (v TexturedVertices) Layout() VertexLayout { return TexturedLayout }
func (v TexturedVertices) Len() int             { return len(v) }

func (v TexturedVertices) Bytes() []byte {
	data := make([]float32, 0, len(v)*5)
	for _, vert := range v {
		data = append(data, vert.Position[:]...)
		data = append(data, vert.UV[:]...)
	}
	return linmath.ArrayFloat32(data).Data()
}

// vertexBufferSize is stride times count.
func vertexBufferSize(data VertexData) vk.DeviceSize {
	return vk.DeviceSize(data.Layout().Stride) * vk.DeviceSize(data.Len())
}
