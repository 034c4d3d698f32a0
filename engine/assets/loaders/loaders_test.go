package loaders

import (
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/spaghettifunk/keyframe/engine/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIndices(t *testing.T) {
	for _, data := range []any{
		[]uint8{0, 1, 2, 255},
		[]uint16{0, 1, 2, 255},
		[]uint32{0, 1, 2, 255},
	} {
		got, err := NormalizeIndices(data)
		require.NoError(t, err)
		assert.Equal(t, []uint32{0, 1, 2, 255}, got, "%T", data)
	}

	_, err := NormalizeIndices([]float32{1})
	assert.Error(t, err)
}

func TestFixZeroWeightsBindsToFirstJoint(t *testing.T) {
	vertices := []math.Vertex3D{
		{Joint0: math.NewVec4(3, 4, 0, 0), Weight0: math.Vec4{}},
		{Joint0: math.NewVec4(2, 0, 0, 0), Weight0: math.NewVec4(0.5, 0.5, 0, 0)},
	}
	FixZeroWeights(vertices)

	assert.Equal(t, math.Vec4{}, vertices[0].Joint0)
	assert.Equal(t, math.NewVec4(1, 0, 0, 0), vertices[0].Weight0)
	assert.Equal(t, math.NewVec4(2, 0, 0, 0), vertices[1].Joint0)
	assert.Equal(t, math.NewVec4(0.5, 0.5, 0, 0), vertices[1].Weight0)
}

func TestPadOutputsAndClipRange(t *testing.T) {
	out, err := PadOutputs([][3]float32{{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, []math.Vec4{math.NewVec4(1, 2, 3, 0)}, out)

	start, end := ClipRange([]Sampler{
		{Inputs: []float32{0.5, 1, 2}},
		{Inputs: []float32{0.25, 3}},
	})
	assert.Equal(t, float32(0.25), start)
	assert.Equal(t, float32(3), end)
}

func TestDecodeSPIRV(t *testing.T) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf, spirvMagic)
	binary.LittleEndian.PutUint32(buf[4:], 0x00010000)
	words, err := DecodeSPIRV(buf)
	require.NoError(t, err)
	assert.Equal(t, []uint32{spirvMagic, 0x00010000}, words)

	_, err = DecodeSPIRV([]byte{1, 2, 3})
	assert.Error(t, err)
	_, err = DecodeSPIRV([]byte{0, 0, 0, 0})
	assert.Error(t, err)
}

func TestLoadTextureConvertsToRGBA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	src.Set(1, 1, color.NRGBA{R: 255, A: 255})
	path := filepath.Join(t.TempDir(), "red.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, src))
	require.NoError(t, f.Close())

	rgba, err := LoadTexture(path)
	require.NoError(t, err)
	assert.Equal(t, 4, rgba.Rect.Dx())
	assert.Equal(t, 2, rgba.Rect.Dy())
	assert.Len(t, rgba.Pix, 4*2*4)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, rgba.RGBAAt(1, 1))
}

func TestDecodeModelTwoNodes(t *testing.T) {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	doc.Meshes = []*gltf.Mesh{{
		Name: "tri",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]int{"POSITION": pos},
		}},
	}}
	doc.Nodes = []*gltf.Node{
		{Name: "root", Mesh: gltf.Index(0), Children: []int{1}},
		{Name: "child", Mesh: gltf.Index(0), Translation: [3]float64{1, 0, 0}},
	}
	doc.Scenes[0].Nodes = []int{0}

	md, err := DecodeModel(doc, "pair", t.TempDir())
	require.NoError(t, err)

	require.Len(t, md.Nodes, 2)
	assert.Equal(t, []int{0}, md.Roots)
	assert.Equal(t, -1, md.Nodes[0].Parent)
	assert.Equal(t, 0, md.Nodes[1].Parent)
	assert.Equal(t, math.NewVec3(1, 0, 0), md.Nodes[1].Transform.Position)
	assert.Equal(t, math.NewVec3One(), md.Nodes[1].Transform.Scale)
	assert.True(t, md.Nodes[0].Matrix.Compare(math.NewMat4Identity(), 0))

	require.Len(t, md.Meshes, 1)
	mesh := md.Meshes[0]
	assert.Equal(t, []uint32{0, 1, 2}, mesh.Indices)
	require.Len(t, mesh.Vertices, 3)
	// no normals in the source: a face normal is generated
	assert.True(t, mesh.Vertices[0].Normal.Compare(math.NewVec3(0, 0, 1), 1e-6))
	// no weights in the source: bound to joint 0
	assert.Equal(t, math.NewVec4(1, 0, 0, 0), mesh.Vertices[2].Weight0)
	assert.Equal(t, -1, mesh.Image)
}

func triangleDocument() *gltf.Document {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	doc.Meshes = []*gltf.Mesh{{
		Name: "tri",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]int{"POSITION": pos},
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: "root", Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = []int{0}
	return doc
}

func TestDecodeModelRejectsBrokenReferences(t *testing.T) {
	cases := map[string]func(doc *gltf.Document){
		"position accessor": func(doc *gltf.Document) {
			doc.Meshes[0].Primitives[0].Attributes["POSITION"] = 42
		},
		"normal accessor": func(doc *gltf.Document) {
			doc.Meshes[0].Primitives[0].Attributes["NORMAL"] = -1
		},
		"index accessor": func(doc *gltf.Document) {
			doc.Meshes[0].Primitives[0].Indices = gltf.Index(99)
		},
		"index past vertices": func(doc *gltf.Document) {
			doc.Meshes[0].Primitives[0].Indices = gltf.Index(modeler.WriteIndices(doc, []uint16{0, 1, 7}))
		},
		"skin joint": func(doc *gltf.Document) {
			doc.Skins = []*gltf.Skin{{Name: "rig", Joints: []int{0, 5}}}
		},
		"inverse bind accessor": func(doc *gltf.Document) {
			doc.Skins = []*gltf.Skin{{Name: "rig", Joints: []int{0}, InverseBindMatrices: gltf.Index(77)}}
		},
		"default scene": func(doc *gltf.Document) {
			doc.Scene = gltf.Index(3)
		},
		"scene root": func(doc *gltf.Document) {
			doc.Scenes[0].Nodes = []int{4}
		},
		"embedded image": func(doc *gltf.Document) {
			doc.Images = []*gltf.Image{{Name: "albedo", BufferView: gltf.Index(50)}}
		},
		"sampler input": func(doc *gltf.Document) {
			doc.Animations = []*gltf.Animation{{
				Name:     "walk",
				Samplers: []*gltf.AnimationSampler{{Input: 42, Output: 0}},
			}}
		},
	}
	for name, breakDoc := range cases {
		t.Run(name, func(t *testing.T) {
			doc := triangleDocument()
			breakDoc(doc)
			var err error
			require.NotPanics(t, func() {
				_, err = DecodeModel(doc, "broken", t.TempDir())
			})
			assert.Error(t, err)
		})
	}
}

func TestDecodeModelTriangleDocumentIsValid(t *testing.T) {
	md, err := DecodeModel(triangleDocument(), "tri", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, []int{0}, md.Roots)
	assert.Len(t, md.Meshes, 1)
}
