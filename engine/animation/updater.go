package animation

import (
	gomath "math"

	"github.com/spaghettifunk/keyframe/engine/assets/loaders"
	"github.com/spaghettifunk/keyframe/engine/math"
	"github.com/spaghettifunk/keyframe/engine/resources"
)

// UniformWriter receives the per-mesh uniform blocks.
type UniformWriter interface {
	WriteMeshUniform(id uint64, u *resources.MeshUniform)
}

type Updater struct {
	writer UniformWriter
}

func NewUpdater(writer UniformWriter) *Updater {
	return &Updater{writer: writer}
}

// Update advances the clock of p by dt seconds, poses the model nodes from
// the active clip and writes the resulting matrices of every mesh node.
func (u *Updater) Update(p *Player, dt float64) {
	if p.Model == nil {
		return
	}
	if clip := p.Clip(); clip != nil {
		p.Time = advance(p.Time, dt, clip.Start, clip.End)
		Apply(p.Model, clip, p.Time)
	}
	u.WriteUniforms(p.Model)
}

// advance moves t forward and wraps it into [start, end].
func advance(t float32, dt float64, start, end float32) float32 {
	next := float64(t) + dt
	duration := float64(end - start)
	if duration <= 0 {
		return start
	}
	if next > float64(end) || next < float64(start) {
		next = float64(start) + gomath.Mod(next-float64(start), duration)
		if next < float64(start) {
			next += duration
		}
	}
	return float32(next)
}

// Apply poses the nodes of m with clip at time t. Each channel drives exactly
// one property of its node.
func Apply(m *resources.Model, clip *resources.Animation, t float32) {
	for _, c := range clip.Channels {
		if c.Node < 0 || c.Node >= len(m.Nodes) || c.Sampler < 0 || c.Sampler >= len(clip.Samplers) {
			continue
		}
		s := &clip.Samplers[c.Sampler]
		v, ok := Sample(s, c.Path, t)
		if !ok {
			continue
		}
		node := &m.Nodes[c.Node]
		switch c.Path {
		case loaders.PathTranslation:
			node.Transform.Position = v.ToVec3()
		case loaders.PathRotation:
			node.Transform.Rotation = math.Quaternion(v)
		case loaders.PathScale:
			node.Transform.Scale = v.ToVec3()
		}
	}
}

// Sample evaluates s at time t. Rotations are slerped and normalized, every
// other path is interpolated linearly. Times outside the keyframes clamp to
// the first or last value.
func Sample(s *loaders.Sampler, path loaders.ChannelPath, t float32) (math.Vec4, bool) {
	n := len(s.Inputs)
	if n == 0 || keyframeValue(s, n-1) >= len(s.Outputs) {
		return math.Vec4{}, false
	}
	if t <= s.Inputs[0] {
		return s.Outputs[keyframeValue(s, 0)], true
	}
	if t >= s.Inputs[n-1] {
		return s.Outputs[keyframeValue(s, n-1)], true
	}

	for i := 0; i < n-1; i++ {
		if t < s.Inputs[i] || t > s.Inputs[i+1] {
			continue
		}
		span := s.Inputs[i+1] - s.Inputs[i]
		a := float32(0)
		if span > 0 {
			a = (t - s.Inputs[i]) / span
		}
		from := s.Outputs[keyframeValue(s, i)]
		to := s.Outputs[keyframeValue(s, i+1)]
		if path == loaders.PathRotation {
			q := math.Quaternion(from).Slerp(math.Quaternion(to), a).Normalize()
			return math.Vec4(q), true
		}
		return from.Lerp(to, a), true
	}
	return math.Vec4{}, false
}

// keyframeValue maps keyframe i to its output index. Cubic spline samplers
// store an in-tangent, the value and an out-tangent per keyframe.
func keyframeValue(s *loaders.Sampler, i int) int {
	if s.Interpolation == loaders.InterpolationCubicSpline {
		return 3*i + 1
	}
	return i
}

// WriteUniforms writes the world matrix of every mesh node of m. Skinned
// nodes also get one matrix per joint, relative to the node itself.
func (u *Updater) WriteUniforms(m *resources.Model) {
	for i := range m.Nodes {
		node := &m.Nodes[i]
		if node.Mesh == 0 {
			continue
		}
		world := m.WorldMatrix(i)
		block := &resources.MeshUniform{Matrix: world}

		if node.Skin >= 0 && node.Skin < len(m.Skins) {
			skin := &m.Skins[node.Skin]
			inverse := world.Inverse()
			count := min(len(skin.Joints), resources.MaxJoints)
			for j := 0; j < count; j++ {
				joint := m.WorldMatrix(skin.Joints[j])
				block.JointMatrix[j] = skin.InverseBind[j].Mul(joint).Mul(inverse)
			}
			block.JointCount = float32(count)
		}
		u.writer.WriteMeshUniform(node.Mesh, block)
	}
}
