package math

// NewTransform returns the identity transform.
func NewTransform() Transform {
	return Transform{
		Position: NewVec3Zero(),
		Rotation: NewQuatIdentity(),
		Scale:    NewVec3One(),
	}
}

// NewTransformTRS builds a transform from its components.
func NewTransformTRS(position Vec3, rotation Quaternion, scale Vec3) Transform {
	return Transform{Position: position, Rotation: rotation, Scale: scale}
}

func (t *Transform) Translate(translation Vec3) {
	t.Position = t.Position.Add(translation)
}

func (t *Transform) Rotate(rotation Quaternion) {
	t.Rotation = t.Rotation.Mul(rotation).Normalize()
}

// Matrix returns translation * rotation * scale: points are scaled first,
// then rotated, then translated.
func (t Transform) Matrix() Mat4 {
	s := NewMat4Scale(t.Scale)
	r := t.Rotation.ToMat4()
	return s.Mul(r).Mul(NewMat4Translation(t.Position))
}
