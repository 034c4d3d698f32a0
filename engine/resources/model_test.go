package resources

import (
	"testing"

	"github.com/spaghettifunk/keyframe/engine/math"
	"github.com/stretchr/testify/assert"
)

func node(parent int, t math.Transform) Node {
	return Node{Parent: parent, Transform: t, Matrix: math.NewMat4Identity(), Skin: -1}
}

func TestWorldMatrixThreeLevels(t *testing.T) {
	root := math.NewTransform()
	root.Position = math.NewVec3(1, 0, 0)
	mid := math.NewTransform()
	mid.Scale = math.NewVec3(2, 2, 2)
	leaf := math.NewTransform()
	leaf.Position = math.NewVec3(0, 1, 0)

	m := &Model{
		Nodes: []Node{node(-1, root), node(0, mid), node(1, leaf)},
		Roots: []int{0},
	}
	m.Nodes[0].Children = []int{1}
	m.Nodes[1].Children = []int{2}

	origin := math.NewVec3Zero().Transform(m.WorldMatrix(2))
	assert.True(t, origin.Compare(math.NewVec3(1, 2, 0), 1e-5), "got %+v", origin)

	// the root only sees its own transform
	assert.True(t, math.NewVec3Zero().Transform(m.WorldMatrix(0)).Compare(math.NewVec3(1, 0, 0), 1e-5))
}

func TestWorldMatrixAppliesParentRotation(t *testing.T) {
	root := math.NewTransform()
	root.Rotation = math.NewQuatFromAxisAngle(math.NewVec3(0, 0, 1), math.K_HALF_PI, true)
	child := math.NewTransform()
	child.Position = math.NewVec3(1, 0, 0)

	m := &Model{Nodes: []Node{node(-1, root), node(0, child)}}
	p := math.NewVec3Zero().Transform(m.WorldMatrix(1))
	assert.True(t, p.Compare(math.NewVec3(0, 1, 0), 1e-5), "got %+v", p)
}

func TestLocalMatrixUsesRawMatrix(t *testing.T) {
	n := node(-1, math.NewTransform())
	n.Matrix = math.NewMat4Translation(math.NewVec3(0, 0, 5))
	p := math.NewVec3Zero().Transform(n.LocalMatrix())
	assert.True(t, p.Compare(math.NewVec3(0, 0, 5), 1e-6))
}
