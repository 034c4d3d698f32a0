package scene

import "github.com/spaghettifunk/keyframe/engine/math"

// Transform places an entity in the world. Rotation holds Euler angles in radians.
type Transform struct {
	Position math.Vec3
	Rotation math.Vec3
	Size     math.Vec3
	Speed    float32
}

func NewTransform() Transform {
	return Transform{Size: math.NewVec3One()}
}

// World returns translation * scale * rotation.
func (t Transform) World() math.Mat4 {
	r := math.NewQuatFromEuler(t.Rotation).ToMat4()
	return r.Mul(math.NewMat4Scale(t.Size)).Mul(math.NewMat4Translation(t.Position))
}
