package animation

import (
	"testing"

	"github.com/spaghettifunk/keyframe/engine/assets/loaders"
	"github.com/spaghettifunk/keyframe/engine/math"
	"github.com/spaghettifunk/keyframe/engine/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-5

type recorder struct {
	blocks map[uint64]resources.MeshUniform
}

func (r *recorder) WriteMeshUniform(id uint64, u *resources.MeshUniform) {
	if r.blocks == nil {
		r.blocks = map[uint64]resources.MeshUniform{}
	}
	r.blocks[id] = *u
}

func newNode(parent int, mesh uint64) resources.Node {
	return resources.Node{
		Parent:    parent,
		Transform: math.NewTransform(),
		Matrix:    math.NewMat4Identity(),
		Mesh:      mesh,
		Skin:      -1,
	}
}

func translationSampler() loaders.Sampler {
	return loaders.Sampler{
		Interpolation: loaders.InterpolationLinear,
		Inputs:        []float32{0, 1},
		Outputs:       []math.Vec4{math.NewVec4(0, 0, 0, 0), math.NewVec4(2, 0, 0, 0)},
	}
}

func TestSampleEndpointsAndMidpoint(t *testing.T) {
	s := translationSampler()

	v, ok := Sample(&s, loaders.PathTranslation, 0)
	require.True(t, ok)
	assert.Equal(t, s.Outputs[0], v)

	v, _ = Sample(&s, loaders.PathTranslation, 1)
	assert.Equal(t, s.Outputs[1], v)

	v, _ = Sample(&s, loaders.PathTranslation, 5)
	assert.Equal(t, s.Outputs[1], v)

	v, _ = Sample(&s, loaders.PathTranslation, 0.25)
	assert.InDelta(t, 0.5, v.X, tolerance)

	_, ok = Sample(&loaders.Sampler{}, loaders.PathTranslation, 0)
	assert.False(t, ok)
}

func TestSampleIdenticalRotationsIsIdentity(t *testing.T) {
	id := math.Vec4(math.NewQuatIdentity())
	s := loaders.Sampler{
		Inputs:  []float32{0, 1},
		Outputs: []math.Vec4{id, id},
	}
	v, ok := Sample(&s, loaders.PathRotation, 0.5)
	require.True(t, ok)
	assert.InDelta(t, 1, v.W, tolerance)
	assert.InDelta(t, 0, v.X, tolerance)
	assert.InDelta(t, 0, v.Y, tolerance)
	assert.InDelta(t, 0, v.Z, tolerance)
}

func TestSampleRotationIsNormalized(t *testing.T) {
	from := math.Vec4(math.NewQuatIdentity())
	to := math.Vec4(math.NewQuatFromAxisAngle(math.NewVec3(0, 1, 0), math.K_HALF_PI, true))
	s := loaders.Sampler{Inputs: []float32{0, 1}, Outputs: []math.Vec4{from, to}}

	v, _ := Sample(&s, loaders.PathRotation, 0.5)
	assert.InDelta(t, 1, math.Quaternion(v).Normal(), tolerance)
}

func TestChannelUpdatesOnlyItsProperty(t *testing.T) {
	model := &resources.Model{Nodes: []resources.Node{newNode(-1, 0)}}
	model.Nodes[0].Transform.Scale = math.NewVec3(3, 3, 3)
	clip := &resources.Animation{
		Samplers: []loaders.Sampler{translationSampler()},
		Channels: []loaders.Channel{{Node: 0, Path: loaders.PathTranslation, Sampler: 0}},
		Start:    0,
		End:      1,
	}

	Apply(model, clip, 0.5)

	tr := model.Nodes[0].Transform
	assert.True(t, tr.Position.Compare(math.NewVec3(1, 0, 0), tolerance))
	assert.Equal(t, math.NewQuatIdentity(), tr.Rotation)
	assert.Equal(t, math.NewVec3(3, 3, 3), tr.Scale)
}

func TestClockWrapsIntoClipRange(t *testing.T) {
	assert.InDelta(t, 1.5, advance(1, 2.5, 1, 3), tolerance)
	assert.InDelta(t, 3, advance(2, 1, 1, 3), tolerance)
	assert.InDelta(t, 2, advance(1, 1, 1, 3), tolerance)
	assert.Equal(t, float32(4), advance(7, 1, 4, 4))
}

func TestPlayerPlay(t *testing.T) {
	walk := &resources.Animation{Name: "walk", Start: 0.5, End: 2}
	idle := &resources.Animation{Name: "idle", Start: 0, End: 1}
	p := NewPlayer(&resources.Model{}, walk, idle)
	assert.Equal(t, float32(0.5), p.Time)
	assert.Same(t, walk, p.Clip())

	require.NoError(t, p.Play(1))
	assert.Same(t, idle, p.Clip())
	assert.Error(t, p.Play(2))
}

func TestUpdateTwoNodesEndToEnd(t *testing.T) {
	// the root moves from the origin to (2,0,0) while turned a quarter around
	// Y and scaled by 2, the child sits one unit along the root's X axis
	model := &resources.Model{Nodes: []resources.Node{newNode(-1, 10), newNode(0, 11)}}
	model.Nodes[0].Children = []int{1}
	model.Nodes[0].Transform.Rotation = math.NewQuatFromAxisAngle(math.NewVec3(0, 1, 0), math.K_HALF_PI, true)
	model.Nodes[0].Transform.Scale = math.NewVec3(2, 2, 2)
	model.Nodes[1].Transform.Position = math.NewVec3(1, 0, 0)

	clip := &resources.Animation{
		Samplers: []loaders.Sampler{translationSampler()},
		Channels: []loaders.Channel{{Node: 0, Path: loaders.PathTranslation, Sampler: 0}},
		Start:    0,
		End:      1,
	}
	w := &recorder{}
	p := NewPlayer(model, clip)
	NewUpdater(w).Update(p, 0.5)

	require.Len(t, w.blocks, 2)
	root := math.NewVec3Zero().Transform(w.blocks[10].Matrix)
	child := math.NewVec3Zero().Transform(w.blocks[11].Matrix)
	assert.True(t, root.Compare(math.NewVec3(1, 0, 0), tolerance), "root %+v", root)
	// scaled to (2,0,0), turned onto -Z, then offset by the root
	assert.True(t, child.Compare(math.NewVec3(1, 0, -2), tolerance), "child %+v", child)
	assert.Zero(t, w.blocks[11].JointCount)

	// the root's own rotation and scale are untouched by the translation channel
	assert.Equal(t, math.NewVec3(2, 2, 2), model.Nodes[0].Transform.Scale)
}

func TestSampleCubicSplineUsesKeyframeValues(t *testing.T) {
	// in-tangent, value, out-tangent per keyframe
	s := loaders.Sampler{
		Interpolation: loaders.InterpolationCubicSpline,
		Inputs:        []float32{0, 1},
		Outputs: []math.Vec4{
			math.NewVec4(-9, -9, -9, 0), math.NewVec4(0, 0, 0, 0), math.NewVec4(9, 9, 9, 0),
			math.NewVec4(-7, -7, -7, 0), math.NewVec4(4, 2, 0, 0), math.NewVec4(7, 7, 7, 0),
		},
	}

	v, ok := Sample(&s, loaders.PathTranslation, 0)
	require.True(t, ok)
	assert.Equal(t, s.Outputs[1], v)

	v, ok = Sample(&s, loaders.PathTranslation, 1)
	require.True(t, ok)
	assert.Equal(t, s.Outputs[4], v)

	v, ok = Sample(&s, loaders.PathTranslation, 0.5)
	require.True(t, ok)
	assert.True(t, v.ToVec3().Compare(math.NewVec3(2, 1, 0), tolerance), "midpoint %+v", v)

	// a truncated output list has no value for the last keyframe
	s.Outputs = s.Outputs[:4]
	_, ok = Sample(&s, loaders.PathTranslation, 0.5)
	assert.False(t, ok)
}

func TestSampleStepFallsBackToLinear(t *testing.T) {
	s := translationSampler()
	s.Interpolation = loaders.InterpolationStep

	v, ok := Sample(&s, loaders.PathTranslation, 0.25)
	require.True(t, ok)
	assert.InDelta(t, 0.5, v.X, tolerance)

	v, _ = Sample(&s, loaders.PathTranslation, 0.75)
	assert.InDelta(t, 1.5, v.X, tolerance)
}

func TestSkinnedMeshJointMatrices(t *testing.T) {
	model := &resources.Model{
		Nodes: []resources.Node{newNode(-1, 7), newNode(-1, 0)},
		Skins: []resources.Skin{{
			Joints:      []int{1},
			InverseBind: []math.Mat4{math.NewMat4Identity()},
		}},
	}
	model.Nodes[0].Skin = 0
	model.Nodes[0].Transform.Position = math.NewVec3(0, 0, 1)
	model.Nodes[1].Transform.Position = math.NewVec3(0, 2, 1)

	w := &recorder{}
	NewUpdater(w).WriteUniforms(model)

	block := w.blocks[7]
	assert.Equal(t, float32(1), block.JointCount)
	// the joint is expressed relative to the mesh node
	got := math.NewVec3Zero().Transform(block.JointMatrix[0])
	assert.True(t, got.Compare(math.NewVec3(0, 2, 0), tolerance), "got %+v", got)
}
