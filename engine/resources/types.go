package resources

import (
	"github.com/spaghettifunk/keyframe/engine/assets/loaders"
	"github.com/spaghettifunk/keyframe/engine/math"
)

/** @brief The maximum number of joint matrices a mesh uniform can hold. */
const MaxJoints = 64

/**
 * @brief Represents a texture living on the GPU.
 */
type Texture struct {
	/** @brief The content address of the texture name. */
	ID uint64
	/** @brief The name the texture was loaded with. */
	Name string
	/** @brief The texture Width. */
	Width uint32
	/** @brief The texture Height. */
	Height uint32
	/** @brief The number of mip levels, including the base level. */
	MipLevels uint32
}

/**
 * @brief Device-local vertex and index buffers plus the per-mesh uniform buffer.
 */
type Mesh struct {
	ID          uint64
	Name        string
	VertexCount uint32
	IndexCount  uint32
	/** @brief The base colour texture, 0 when untextured. */
	Texture uint64
}

// MeshUniform is the per-mesh uniform block consumed by the mesh shader.
type MeshUniform struct {
	Matrix      math.Mat4
	JointMatrix [MaxJoints]math.Mat4
	JointCount  float32
}

// Node is one entry of a model's node arena. Parent is -1 for roots, Mesh is 0
// when the node draws nothing and Skin is -1 when the node is not skinned.
type Node struct {
	Name      string
	Parent    int
	Children  []int
	Transform math.Transform
	Matrix    math.Mat4
	Mesh      uint64
	Skin      int
}

// LocalMatrix combines the node TRS with its raw matrix.
func (n *Node) LocalMatrix() math.Mat4 {
	return n.Matrix.Mul(n.Transform.Matrix())
}

type Skin struct {
	Name        string
	Skeleton    int
	Joints      []int
	InverseBind []math.Mat4
}

// Animation is a decoded clip. Playback state lives with the player.
type Animation struct {
	ID       uint64
	Name     string
	Samplers []loaders.Sampler
	Channels []loaders.Channel
	Start    float32
	End      float32
}

// Duration is the length of the clip in seconds.
func (a *Animation) Duration() float32 {
	return a.End - a.Start
}

type Shader struct {
	ID   uint64
	Name string
}

/**
 * @brief A loaded glTF scene: the node arena, its skins and the clips
 * embedded in the file.
 */
type Model struct {
	ID    uint64
	Name  string
	Nodes []Node
	Roots []int
	Skins []Skin
	/** @brief Ids of the embedded clips in the animation cache. */
	Animations []uint64
}

// WorldMatrix walks the parent chain of node i and returns its world transform.
func (m *Model) WorldMatrix(i int) math.Mat4 {
	world := m.Nodes[i].LocalMatrix()
	for p := m.Nodes[i].Parent; p >= 0; p = m.Nodes[p].Parent {
		world = world.Mul(m.Nodes[p].LocalMatrix())
	}
	return world
}
