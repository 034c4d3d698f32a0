package scene

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spaghettifunk/keyframe/engine/animation"
	"github.com/spaghettifunk/keyframe/engine/core"
	"github.com/spaghettifunk/keyframe/engine/math"
	"github.com/spaghettifunk/keyframe/engine/resources"
	"github.com/spaghettifunk/keyframe/engine/systems"
)

// ModelLoader is the part of the resource manager the scene needs.
type ModelLoader interface {
	CreateModel(uri, name string) uint64
	LoadAnimation(uri, name string) uint64
	Model(id uint64) (*resources.Model, bool)
	Animation(id uint64) (*resources.Animation, bool)
}

// JobSubmitter queues work on the worker pool.
type JobSubmitter interface {
	Submit(job systems.Job) error
}

type Scene struct {
	Camera   *Camera
	Entities []*Entity

	loader ModelLoader
}

func New(loader ModelLoader) *Scene {
	return &Scene{
		Camera: NewCamera(0, 0, math.NewVec3Zero(), 1, 1, 10),
		loader: loader,
	}
}

// AddEntity appends an empty entity with a fresh id.
func (s *Scene) AddEntity(name string, t EntityType) *Entity {
	e := &Entity{
		ID:    uuid.New(),
		Name:  name,
		Type:  t,
		world: math.NewMat4Identity(),
	}
	s.Entities = append(s.Entities, e)
	return e
}

func (s *Scene) Entity(id uuid.UUID) (*Entity, bool) {
	for _, e := range s.Entities {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

type vec3Object struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

type cameraFile struct {
	Target vec3Object `json:"target"`
	Angles struct {
		Yaw   float32 `json:"yaw"`
		Pitch float32 `json:"pitch"`
	} `json:"angles"`
	Speed       float32 `json:"speed"`
	RotateSpeed float32 `json:"rotateSpeed"`
	Distance    float32 `json:"distance"`
}

type transformFile struct {
	Position [3]float32 `json:"position"`
	Rotation [3]float32 `json:"rotation"`
	Size     [3]float32 `json:"size"`
	Speed    float32    `json:"speed"`
}

type modelFile struct {
	Name string `json:"name"`
}

type entityFile struct {
	Name       string         `json:"name"`
	Type       EntityType     `json:"type"`
	Transform  *transformFile `json:"transform,omitempty"`
	Model      *modelFile     `json:"model,omitempty"`
	Animations *AnimationSet  `json:"animations,omitempty"`
}

type sceneFile struct {
	Camera   cameraFile   `json:"camera"`
	Entities []entityFile `json:"entities"`
}

// Load replaces the content of the scene with the file at path. Models and
// clips are requested from the loader; failures leave a zero handle.
func (s *Scene) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var f sceneFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse scene %s: %w", path, err)
	}

	s.Entities = nil
	c := f.Camera
	s.Camera = NewCamera(c.Angles.Yaw, c.Angles.Pitch, math.NewVec3(c.Target.X, c.Target.Y, c.Target.Z), c.Speed, c.RotateSpeed, c.Distance)

	for _, ef := range f.Entities {
		e := s.AddEntity(ef.Name, ef.Type)
		if ef.Transform != nil {
			e.Transform = &Transform{
				Position: vec3(ef.Transform.Position),
				Rotation: vec3(ef.Transform.Rotation),
				Size:     vec3(ef.Transform.Size),
				Speed:    ef.Transform.Speed,
			}
			e.world = e.Transform.World()
		}
		if ef.Model != nil {
			e.ModelName = ef.Model.Name
			e.Model = s.loader.CreateModel(ef.Model.Name, ef.Model.Name)
			if e.Model == 0 {
				core.LogWarn("entity '%s' keeps a null model handle for '%s'", e.Name, ef.Model.Name)
			}
		}
		if ef.Animations != nil {
			set := *ef.Animations
			e.Animations = &set
			e.Player = s.newPlayer(e)
		}
	}
	core.LogInfo("scene %s loaded with %d entities", path, len(s.Entities))
	return nil
}

// newPlayer loads the clip set of e. Clips that fail to load are skipped.
func (s *Scene) newPlayer(e *Entity) *animation.Player {
	model, ok := s.loader.Model(e.Model)
	if !ok {
		return nil
	}
	var clips []*resources.Animation
	for _, name := range e.Animations.names() {
		if name == "" {
			continue
		}
		id := s.loader.LoadAnimation(name+".gltf", name)
		if clip, ok := s.loader.Animation(id); ok {
			clips = append(clips, clip)
		}
	}
	return animation.NewPlayer(model, clips...)
}

func vec3(v [3]float32) math.Vec3 {
	return math.NewVec3(v[0], v[1], v[2])
}

// Save writes the scene in the format read by Load. Camera entities are not saved.
func (s *Scene) Save(path string) error {
	var f sceneFile
	c := s.Camera
	f.Camera.Target = vec3Object{X: c.Target.X, Y: c.Target.Y, Z: c.Target.Z}
	f.Camera.Angles.Yaw = c.Yaw
	f.Camera.Angles.Pitch = c.Pitch
	f.Camera.Speed = c.Speed
	f.Camera.RotateSpeed = c.RotateSpeed
	f.Camera.Distance = c.Distance

	f.Entities = []entityFile{}
	for _, e := range s.Entities {
		if e.Type == EntityTypeCamera {
			continue
		}
		ef := entityFile{Name: e.Name, Type: e.Type}
		if t := e.Transform; t != nil {
			ef.Transform = &transformFile{
				Position: [3]float32{t.Position.X, t.Position.Y, t.Position.Z},
				Rotation: [3]float32{t.Rotation.X, t.Rotation.Y, t.Rotation.Z},
				Size:     [3]float32{t.Size.X, t.Size.Y, t.Size.Z},
				Speed:    t.Speed,
			}
		}
		if e.ModelName != "" {
			ef.Model = &modelFile{Name: e.ModelName}
		}
		if e.Animations != nil {
			set := *e.Animations
			ef.Animations = &set
		}
		f.Entities = append(f.Entities, ef)
	}

	data, err := json.MarshalIndent(f, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Update submits one job per camera and per transform entity. Callers join
// them with the worker pool barrier before reading the results.
func (s *Scene) Update(dt float64, jobs JobSubmitter) error {
	cam := s.Camera
	if err := jobs.Submit(systems.Job{
		Name: "camera",
		Run: func() error {
			cam.Update()
			return nil
		},
	}); err != nil {
		return err
	}

	for _, e := range s.Entities {
		if e.Type == EntityTypeCamera || e.Transform == nil {
			continue
		}
		entity := e
		snapshot := *e.Transform
		if err := jobs.Submit(systems.Job{
			Name: "transform " + entity.Name,
			Run: func() error {
				entity.setWorld(snapshot.World())
				return nil
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

// Drawables calls fn for every entity with a loaded model.
func (s *Scene) Drawables(fn func(model *resources.Model, world math.Mat4)) {
	for _, e := range s.Entities {
		if e.Model == 0 {
			continue
		}
		model, ok := s.loader.Model(e.Model)
		if !ok {
			continue
		}
		fn(model, e.World())
	}
}

// Players returns the animation players of every animated entity.
func (s *Scene) Players() []*animation.Player {
	var out []*animation.Player
	for _, e := range s.Entities {
		if e.Player != nil {
			out = append(out, e.Player)
		}
	}
	return out
}
