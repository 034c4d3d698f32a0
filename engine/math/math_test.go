package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const tolerance = 1e-5

func TestQuaternionToMat4RotatesCounterClockwise(t *testing.T) {
	q := NewQuatFromAxisAngle(NewVec3(0, 0, 1), K_HALF_PI, true)
	got := NewVec3(1, 0, 0).Transform(q.ToMat4())
	assert.True(t, got.Compare(NewVec3(0, 1, 0), tolerance), "got %v", got)
}

func TestTransformMatrixAppliesScaleRotationTranslation(t *testing.T) {
	tr := NewTransformTRS(
		NewVec3(10, 0, 0),
		NewQuatFromAxisAngle(NewVec3(0, 0, 1), K_HALF_PI, true),
		NewVec3(2, 2, 2),
	)
	got := NewVec3(1, 0, 0).Transform(tr.Matrix())
	// scale to (2,0,0), rotate to (0,2,0), translate to (10,2,0)
	assert.True(t, got.Compare(NewVec3(10, 2, 0), tolerance), "got %v", got)
}

func TestMat4InverseRoundTrip(t *testing.T) {
	tr := NewTransformTRS(
		NewVec3(1, -2, 3),
		NewQuatFromAxisAngle(NewVec3(0, 1, 0), 0.7, true),
		NewVec3(1, 2, 0.5),
	)
	mat := tr.Matrix()
	assert.True(t, mat.Mul(mat.Inverse()).Compare(NewMat4Identity(), tolerance))
}

func TestMat4MulComposesLeftToRight(t *testing.T) {
	a := NewMat4Translation(NewVec3(1, 0, 0))
	b := NewMat4Scale(NewVec3(3, 3, 3))
	// translate first, then scale
	got := NewVec3(0, 0, 0).Transform(a.Mul(b))
	assert.True(t, got.Compare(NewVec3(3, 0, 0), tolerance), "got %v", got)
}

func TestLookAtMovesTargetOntoNegativeZ(t *testing.T) {
	view := NewMat4LookAt(NewVec3(0, 0, 5), NewVec3Zero(), NewVec3Up())
	got := NewVec3Zero().Transform(view)
	assert.True(t, got.Compare(NewVec3(0, 0, -5), tolerance), "got %v", got)
}

func TestSlerpEndpointsAndMidpoint(t *testing.T) {
	a := NewQuatIdentity()
	b := NewQuatFromAxisAngle(NewVec3(0, 1, 0), K_HALF_PI, true)

	assert.InDelta(t, 1.0, a.Slerp(b, 0).Dot(a), tolerance)
	assert.InDelta(t, 1.0, a.Slerp(b, 1).Dot(b), tolerance)

	mid := a.Slerp(b, 0.5)
	want := NewQuatFromAxisAngle(NewVec3(0, 1, 0), K_HALF_PI/2, true)
	assert.InDelta(t, 1.0, mid.Dot(want), tolerance)
	assert.InDelta(t, 1.0, mid.Normal(), tolerance)
}

func TestEulerMatchesAxisAngle(t *testing.T) {
	q := NewQuatFromEuler(NewVec3(0, 0.5, 0))
	want := NewQuatFromAxisAngle(NewVec3(0, 1, 0), 0.5, true)
	assert.InDelta(t, 1.0, q.Dot(want), tolerance)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 3, Clamp(5, 1, 3))
	assert.Equal(t, float32(0.5), Clamp(float32(0.5), 0, 1))
	assert.Equal(t, uint32(2), Clamp(uint32(1), 2, 4))
}
