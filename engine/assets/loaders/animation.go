package loaders

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/spaghettifunk/keyframe/engine/math"
)

// ChannelPath names the node property a channel drives.
type ChannelPath string

const (
	PathTranslation ChannelPath = "translation"
	PathRotation    ChannelPath = "rotation"
	PathScale       ChannelPath = "scale"
	PathWeights     ChannelPath = "weights"
)

// Interpolation modes found in glTF samplers.
type Interpolation string

const (
	InterpolationLinear      Interpolation = "LINEAR"
	InterpolationStep        Interpolation = "STEP"
	InterpolationCubicSpline Interpolation = "CUBICSPLINE"
)

// Sampler holds keyframe times and values. Three component outputs are
// stored with W = 0.
type Sampler struct {
	Interpolation Interpolation
	Inputs        []float32
	Outputs       []math.Vec4
}

type Channel struct {
	Node    int
	Path    ChannelPath
	Sampler int
}

type AnimationData struct {
	Name     string
	Samplers []Sampler
	Channels []Channel
	Start    float32
	End      float32
}

// LoadAnimation opens a glTF file and returns its first animation.
func LoadAnimation(path string) (*AnimationData, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open animation %s: %w", path, err)
	}
	if len(doc.Animations) == 0 {
		return nil, fmt.Errorf("%s contains no animation", path)
	}
	anim, err := decodeAnimation(doc, doc.Animations[0], 0)
	if err != nil {
		return nil, err
	}
	if anim.Name == "animation0" {
		anim.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return anim, nil
}

func decodeAnimation(doc *gltf.Document, a *gltf.Animation, index int) (*AnimationData, error) {
	anim := &AnimationData{Name: a.Name}
	if anim.Name == "" {
		anim.Name = fmt.Sprintf("animation%d", index)
	}

	for i, s := range a.Samplers {
		in, err := accessor(doc, s.Input)
		if err != nil {
			return nil, fmt.Errorf("animation %s sampler %d inputs: %w", anim.Name, i, err)
		}
		inRaw, err := modeler.ReadAccessor(doc, in, nil)
		if err != nil {
			return nil, fmt.Errorf("animation %s sampler %d inputs: %w", anim.Name, i, err)
		}
		inputs, ok := inRaw.([]float32)
		if !ok {
			return nil, fmt.Errorf("animation %s sampler %d inputs have type %T", anim.Name, i, inRaw)
		}
		out, err := accessor(doc, s.Output)
		if err != nil {
			return nil, fmt.Errorf("animation %s sampler %d outputs: %w", anim.Name, i, err)
		}
		outRaw, err := modeler.ReadAccessor(doc, out, nil)
		if err != nil {
			return nil, fmt.Errorf("animation %s sampler %d outputs: %w", anim.Name, i, err)
		}
		outputs, err := PadOutputs(outRaw)
		if err != nil {
			return nil, fmt.Errorf("animation %s sampler %d: %w", anim.Name, i, err)
		}
		anim.Samplers = append(anim.Samplers, Sampler{
			Interpolation: interpolationOf(s.Interpolation),
			Inputs:        append([]float32(nil), inputs...),
			Outputs:       outputs,
		})
	}

	for _, c := range a.Channels {
		if c.Target.Node == nil {
			continue
		}
		anim.Channels = append(anim.Channels, Channel{
			Node:    *c.Target.Node,
			Path:    pathOf(c.Target.Path),
			Sampler: c.Sampler,
		})
	}

	anim.Start, anim.End = ClipRange(anim.Samplers)
	return anim, nil
}

// PadOutputs converts sampler output data to Vec4, padding vec3 values with W = 0.
func PadOutputs(data any) ([]math.Vec4, error) {
	switch src := data.(type) {
	case [][4]float32:
		out := make([]math.Vec4, len(src))
		for i, v := range src {
			out[i] = math.NewVec4(v[0], v[1], v[2], v[3])
		}
		return out, nil
	case [][3]float32:
		out := make([]math.Vec4, len(src))
		for i, v := range src {
			out[i] = math.NewVec4(v[0], v[1], v[2], 0)
		}
		return out, nil
	case []float32:
		out := make([]math.Vec4, len(src))
		for i, v := range src {
			out[i] = math.NewVec4(v, 0, 0, 0)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("sampler output type %T is not supported", data)
	}
}

// ClipRange returns the smallest and largest keyframe time over all samplers.
func ClipRange(samplers []Sampler) (float32, float32) {
	first := true
	var start, end float32
	for _, s := range samplers {
		for _, t := range s.Inputs {
			if first {
				start, end = t, t
				first = false
				continue
			}
			if t < start {
				start = t
			}
			if t > end {
				end = t
			}
		}
	}
	return start, end
}

func interpolationOf(i gltf.Interpolation) Interpolation {
	switch i {
	case gltf.InterpolationStep:
		return InterpolationStep
	case gltf.InterpolationCubicSpline:
		return InterpolationCubicSpline
	default:
		return InterpolationLinear
	}
}

func pathOf(p gltf.TRSProperty) ChannelPath {
	switch p {
	case gltf.TRSTranslation:
		return PathTranslation
	case gltf.TRSRotation:
		return PathRotation
	case gltf.TRSScale:
		return PathScale
	default:
		return PathWeights
	}
}
