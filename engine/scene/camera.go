package scene

import (
	"github.com/spaghettifunk/keyframe/engine/math"
)

const (
	DefaultFov  float32 = 45.0
	DefaultNear float32 = 0.01
	DefaultFar  float32 = 100.0
)

/**
 * @brief An orbit camera circling a target point. Yaw and pitch are in
 * degrees; the eye sits Distance units away from Target along the direction
 * they describe.
 */
type Camera struct {
	Target      math.Vec3
	Yaw         float32
	Pitch       float32
	Speed       float32
	RotateSpeed float32
	Distance    float32
	/** @brief Vertical field of view in degrees. */
	Fov  float32
	Near float32
	Far  float32

	position  math.Vec3
	direction math.Vec3
	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	isDirty    bool
	viewMatrix math.Mat4
}

func NewCamera(yaw, pitch float32, target math.Vec3, speed, rotateSpeed, distance float32) *Camera {
	c := &Camera{
		Target:      target,
		Yaw:         yaw,
		Pitch:       pitch,
		Speed:       speed,
		RotateSpeed: rotateSpeed,
		Distance:    distance,
		Fov:         DefaultFov,
		Near:        DefaultNear,
		Far:         DefaultFar,
	}
	c.Update()
	return c
}

// Update recomputes the direction and the eye position from the angles.
func (c *Camera) Update() {
	c.direction = math.NewVec3FromYawPitch(math.DegToRad(c.Yaw), math.DegToRad(c.Pitch))
	c.position = c.Target.Add(c.direction.MulScalar(c.Distance))
	c.isDirty = true
}

// Move pans the target and the eye together.
func (c *Camera) Move(dt float32, offset math.Vec3) {
	c.Target = c.Target.Add(offset.MulScalar(dt * c.Speed))
	c.Update()
}

// Rotate orbits around the target. offset.X changes yaw, offset.Y pitch.
func (c *Camera) Rotate(dt float32, offset math.Vec2) {
	c.Yaw += offset.X * dt * c.RotateSpeed
	c.Pitch += offset.Y * dt * c.RotateSpeed
	c.Update()
}

// Zoom narrows or widens the field of view.
func (c *Camera) Zoom(dt float32, amount float32) {
	c.Fov = math.Clamp(c.Fov-amount*(c.Speed*100)*dt, 1, 90)
}

func (c *Camera) Position() math.Vec3 {
	return c.position
}

func (c *Camera) Direction() math.Vec3 {
	return c.direction
}

// View returns the look-at matrix from the eye to the target with +Y up.
func (c *Camera) View() math.Mat4 {
	if c.isDirty {
		c.viewMatrix = math.NewMat4LookAt(c.position, c.Target, math.NewVec3Up())
		c.isDirty = false
	}
	return c.viewMatrix
}

// Projection returns the perspective matrix. flipY turns the result upside
// down for clip spaces whose Y axis points down.
func (c *Camera) Projection(aspect float32, flipY bool) math.Mat4 {
	proj := math.NewMat4Perspective(math.DegToRad(c.Fov), aspect, c.Near, c.Far)
	if flipY {
		proj.Data[5] *= -1
	}
	return proj
}
