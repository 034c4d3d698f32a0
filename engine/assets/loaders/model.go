package loaders

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/spaghettifunk/keyframe/engine/math"
)

// NodeData is one node of a decoded scene graph. Parent, Children, Mesh and
// Skin are indices into the owning ModelData; -1 means none.
type NodeData struct {
	Name      string
	Parent    int
	Children  []int
	Transform math.Transform
	// Matrix is the raw node matrix, identity when the node uses TRS only.
	Matrix math.Mat4
	Mesh   int
	Skin   int
}

// MeshData holds the interleaved vertices of every primitive of a mesh.
type MeshData struct {
	Name     string
	Vertices []math.Vertex3D
	Indices  []uint32
	// Image is the index of the base colour image in ModelData.Images, -1 if untextured.
	Image int
}

// ImageData is either an external file (Path) or an image embedded in the model.
type ImageData struct {
	Name  string
	Path  string
	Image *image.RGBA
}

type SkinData struct {
	Name        string
	Skeleton    int
	Joints      []int
	InverseBind []math.Mat4
}

// ModelData is the CPU side decoding of a glTF file.
type ModelData struct {
	Name       string
	Nodes      []NodeData
	Roots      []int
	Meshes     []MeshData
	Images     []ImageData
	Skins      []SkinData
	Animations []AnimationData
}

// LoadModel opens a glTF or GLB file. External images are resolved by file
// name inside texturesDir.
func LoadModel(path, texturesDir string) (*ModelData, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return DecodeModel(doc, name, texturesDir)
}

// DecodeModel converts an already parsed document.
func DecodeModel(doc *gltf.Document, name, texturesDir string) (*ModelData, error) {
	md := &ModelData{
		Name:  name,
		Nodes: make([]NodeData, len(doc.Nodes)),
	}

	images, err := decodeImages(doc, name, texturesDir)
	if err != nil {
		return nil, err
	}
	md.Images = images

	for i, n := range doc.Nodes {
		md.Nodes[i] = decodeNode(n)
	}
	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			if c < 0 || c >= len(md.Nodes) {
				return nil, fmt.Errorf("node %d references missing child %d", i, c)
			}
			md.Nodes[c].Parent = i
		}
	}

	for i, m := range doc.Meshes {
		mesh, err := decodeMesh(doc, m, i)
		if err != nil {
			return nil, err
		}
		md.Meshes = append(md.Meshes, *mesh)
	}

	if len(doc.Scenes) > 0 {
		scene := 0
		if doc.Scene != nil {
			scene = *doc.Scene
		}
		if scene < 0 || scene >= len(doc.Scenes) {
			return nil, fmt.Errorf("default scene %d is out of range (%d scenes)", scene, len(doc.Scenes))
		}
		for _, r := range doc.Scenes[scene].Nodes {
			if r < 0 || r >= len(md.Nodes) {
				return nil, fmt.Errorf("scene %d references missing node %d", scene, r)
			}
		}
		md.Roots = append(md.Roots, doc.Scenes[scene].Nodes...)
	} else {
		for i := range md.Nodes {
			if md.Nodes[i].Parent < 0 {
				md.Roots = append(md.Roots, i)
			}
		}
	}

	for i, s := range doc.Skins {
		skin, err := decodeSkin(doc, s, i)
		if err != nil {
			return nil, err
		}
		md.Skins = append(md.Skins, *skin)
	}

	for i, a := range doc.Animations {
		anim, err := decodeAnimation(doc, a, i)
		if err != nil {
			return nil, err
		}
		md.Animations = append(md.Animations, *anim)
	}

	return md, nil
}

func decodeNode(n *gltf.Node) NodeData {
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	raw := n.MatrixOrDefault()

	nd := NodeData{
		Name:     n.Name,
		Parent:   -1,
		Children: append([]int(nil), n.Children...),
		Transform: math.NewTransformTRS(
			math.NewVec3(float32(t[0]), float32(t[1]), float32(t[2])),
			math.Quaternion{X: float32(r[0]), Y: float32(r[1]), Z: float32(r[2]), W: float32(r[3])},
			math.NewVec3(float32(s[0]), float32(s[1]), float32(s[2])),
		),
		Mesh: -1,
		Skin: -1,
	}
	for i, v := range raw {
		nd.Matrix.Data[i] = float32(v)
	}
	if n.Mesh != nil {
		nd.Mesh = *n.Mesh
	}
	if n.Skin != nil {
		nd.Skin = *n.Skin
	}
	return nd
}

func decodeMesh(doc *gltf.Document, m *gltf.Mesh, index int) (*MeshData, error) {
	mesh := &MeshData{
		Name:  m.Name,
		Image: -1,
	}
	if mesh.Name == "" {
		mesh.Name = fmt.Sprintf("mesh%d", index)
	}

	for _, p := range m.Primitives {
		posIdx, ok := p.Attributes["POSITION"]
		if !ok {
			return nil, fmt.Errorf("mesh %s has a primitive without positions", mesh.Name)
		}
		acc, err := accessor(doc, posIdx)
		if err != nil {
			return nil, fmt.Errorf("mesh %s positions: %w", mesh.Name, err)
		}
		positions, err := modeler.ReadPosition(doc, acc, nil)
		if err != nil {
			return nil, fmt.Errorf("mesh %s positions: %w", mesh.Name, err)
		}

		base := uint32(len(mesh.Vertices))
		vertices := make([]math.Vertex3D, len(positions))
		for i, v := range positions {
			vertices[i].Position = math.NewVec3(v[0], v[1], v[2])
		}

		hasNormals := false
		if idx, ok := p.Attributes["NORMAL"]; ok {
			acc, err := accessor(doc, idx)
			if err != nil {
				return nil, fmt.Errorf("mesh %s normals: %w", mesh.Name, err)
			}
			normals, err := modeler.ReadNormal(doc, acc, nil)
			if err != nil {
				return nil, fmt.Errorf("mesh %s normals: %w", mesh.Name, err)
			}
			for i := range vertices {
				if i < len(normals) {
					vertices[i].Normal = math.NewVec3(normals[i][0], normals[i][1], normals[i][2]).Normalized()
				}
			}
			hasNormals = true
		}
		for set, attr := range []string{"TEXCOORD_0", "TEXCOORD_1"} {
			idx, ok := p.Attributes[attr]
			if !ok {
				continue
			}
			acc, err := accessor(doc, idx)
			if err != nil {
				return nil, fmt.Errorf("mesh %s %s: %w", mesh.Name, attr, err)
			}
			uvs, err := modeler.ReadTextureCoord(doc, acc, nil)
			if err != nil {
				return nil, fmt.Errorf("mesh %s %s: %w", mesh.Name, attr, err)
			}
			for i := range vertices {
				if i >= len(uvs) {
					break
				}
				uv := math.NewVec2(uvs[i][0], uvs[i][1])
				if set == 0 {
					vertices[i].UV0 = uv
				} else {
					vertices[i].UV1 = uv
				}
			}
		}
		if idx, ok := p.Attributes["JOINTS_0"]; ok {
			acc, err := accessor(doc, idx)
			if err != nil {
				return nil, fmt.Errorf("mesh %s joints: %w", mesh.Name, err)
			}
			joints, err := modeler.ReadJoints(doc, acc, nil)
			if err != nil {
				return nil, fmt.Errorf("mesh %s joints: %w", mesh.Name, err)
			}
			for i := range vertices {
				if i < len(joints) {
					j := joints[i]
					vertices[i].Joint0 = math.NewVec4(float32(j[0]), float32(j[1]), float32(j[2]), float32(j[3]))
				}
			}
		}
		if idx, ok := p.Attributes["WEIGHTS_0"]; ok {
			acc, err := accessor(doc, idx)
			if err != nil {
				return nil, fmt.Errorf("mesh %s weights: %w", mesh.Name, err)
			}
			weights, err := modeler.ReadWeights(doc, acc, nil)
			if err != nil {
				return nil, fmt.Errorf("mesh %s weights: %w", mesh.Name, err)
			}
			for i := range vertices {
				if i < len(weights) {
					w := weights[i]
					vertices[i].Weight0 = math.NewVec4(w[0], w[1], w[2], w[3])
				}
			}
		}
		FixZeroWeights(vertices)

		var indices []uint32
		if p.Indices != nil {
			acc, err := accessor(doc, *p.Indices)
			if err != nil {
				return nil, fmt.Errorf("mesh %s indices: %w", mesh.Name, err)
			}
			raw, err := modeler.ReadAccessor(doc, acc, nil)
			if err != nil {
				return nil, fmt.Errorf("mesh %s indices: %w", mesh.Name, err)
			}
			indices, err = NormalizeIndices(raw)
			if err != nil {
				return nil, fmt.Errorf("mesh %s: %w", mesh.Name, err)
			}
		} else {
			indices = make([]uint32, len(vertices))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		for _, idx := range indices {
			if int(idx) >= len(vertices) {
				return nil, fmt.Errorf("mesh %s index %d is past its %d vertices", mesh.Name, idx, len(vertices))
			}
		}

		if !hasNormals {
			math.GeometryGenerateNormals(vertices, indices)
		}

		for _, idx := range indices {
			mesh.Indices = append(mesh.Indices, base+idx)
		}
		mesh.Vertices = append(mesh.Vertices, vertices...)

		if mesh.Image < 0 {
			mesh.Image = baseColorImage(doc, p)
		}
	}
	return mesh, nil
}

// FixZeroWeights binds vertices without any joint influence fully to joint 0.
func FixZeroWeights(vertices []math.Vertex3D) {
	for i := range vertices {
		if vertices[i].Weight0.Sum() == 0 {
			vertices[i].Joint0 = math.Vec4{}
			vertices[i].Weight0 = math.NewVec4(1, 0, 0, 0)
		}
	}
}

// NormalizeIndices widens 8, 16 or 32-bit index data to 32 bits.
func NormalizeIndices(data any) ([]uint32, error) {
	switch src := data.(type) {
	case []uint32:
		return append([]uint32(nil), src...), nil
	case []uint16:
		out := make([]uint32, len(src))
		for i, v := range src {
			out[i] = uint32(v)
		}
		return out, nil
	case []uint8:
		out := make([]uint32, len(src))
		for i, v := range src {
			out[i] = uint32(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("index component type %T is not supported", data)
	}
}

func baseColorImage(doc *gltf.Document, p *gltf.Primitive) int {
	if p.Material == nil || *p.Material >= len(doc.Materials) {
		return -1
	}
	mat := doc.Materials[*p.Material]
	if mat.PBRMetallicRoughness == nil || mat.PBRMetallicRoughness.BaseColorTexture == nil {
		return -1
	}
	texIdx := mat.PBRMetallicRoughness.BaseColorTexture.Index
	if texIdx >= len(doc.Textures) || doc.Textures[texIdx].Source == nil {
		return -1
	}
	return *doc.Textures[texIdx].Source
}

// accessor returns accessor idx of doc, failing instead of panicking on
// out of range references.
func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) || doc.Accessors[idx] == nil {
		return nil, fmt.Errorf("accessor %d is out of range (%d accessors)", idx, len(doc.Accessors))
	}
	return doc.Accessors[idx], nil
}

func bufferViewData(doc *gltf.Document, idx int) ([]byte, error) {
	if idx < 0 || idx >= len(doc.BufferViews) || doc.BufferViews[idx] == nil {
		return nil, fmt.Errorf("buffer view %d is out of range (%d views)", idx, len(doc.BufferViews))
	}
	bv := doc.BufferViews[idx]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("buffer view %d references missing buffer %d", idx, bv.Buffer)
	}
	data := doc.Buffers[bv.Buffer].Data
	end := bv.ByteOffset + bv.ByteLength
	if end < bv.ByteOffset || end > len(data) {
		return nil, fmt.Errorf("buffer view %d spans past its buffer", idx)
	}
	return data[bv.ByteOffset:end], nil
}

func decodeImages(doc *gltf.Document, modelName, texturesDir string) ([]ImageData, error) {
	images := make([]ImageData, len(doc.Images))
	for i, img := range doc.Images {
		name := img.Name
		switch {
		case img.BufferView != nil:
			data, err := bufferViewData(doc, *img.BufferView)
			if err != nil {
				return nil, fmt.Errorf("embedded image %d: %w", i, err)
			}
			rgba, err := DecodeTexture(data)
			if err != nil {
				return nil, fmt.Errorf("embedded image %d: %w", i, err)
			}
			images[i].Image = rgba
		case img.IsEmbeddedResource():
			data, err := img.MarshalData()
			if err != nil {
				return nil, fmt.Errorf("embedded image %d: %w", i, err)
			}
			rgba, err := DecodeTexture(data)
			if err != nil {
				return nil, fmt.Errorf("embedded image %d: %w", i, err)
			}
			images[i].Image = rgba
		default:
			images[i].Path = filepath.Join(texturesDir, filepath.Base(img.URI))
			if name == "" {
				name = filepath.Base(img.URI)
			}
		}
		if name == "" {
			name = fmt.Sprintf("%s#image%d", modelName, i)
		}
		images[i].Name = name
	}
	return images, nil
}

func decodeSkin(doc *gltf.Document, s *gltf.Skin, index int) (*SkinData, error) {
	skin := &SkinData{
		Name:     s.Name,
		Skeleton: -1,
		Joints:   append([]int(nil), s.Joints...),
	}
	if skin.Name == "" {
		skin.Name = fmt.Sprintf("skin%d", index)
	}
	if s.Skeleton != nil {
		skin.Skeleton = *s.Skeleton
	}
	for _, j := range s.Joints {
		if j < 0 || j >= len(doc.Nodes) {
			return nil, fmt.Errorf("skin %s references missing joint node %d", skin.Name, j)
		}
	}

	skin.InverseBind = make([]math.Mat4, len(s.Joints))
	for i := range skin.InverseBind {
		skin.InverseBind[i] = math.NewMat4Identity()
	}
	if s.InverseBindMatrices == nil {
		return skin, nil
	}

	acc, err := accessor(doc, *s.InverseBindMatrices)
	if err != nil {
		return nil, fmt.Errorf("skin %s inverse bind matrices: %w", skin.Name, err)
	}
	raw, err := modeler.ReadAccessor(doc, acc, nil)
	if err != nil {
		return nil, fmt.Errorf("skin %s inverse bind matrices: %w", skin.Name, err)
	}
	mats, ok := raw.([][4][4]float32)
	if !ok {
		return nil, fmt.Errorf("skin %s inverse bind matrices have type %T", skin.Name, raw)
	}
	for i := 0; i < len(mats) && i < len(skin.InverseBind); i++ {
		// glTF stores matrices column by column, the same layout as Mat4.
		for c := 0; c < 4; c++ {
			for r := 0; r < 4; r++ {
				skin.InverseBind[i].Data[c*4+r] = mats[i][c][r]
			}
		}
	}
	return skin, nil
}
