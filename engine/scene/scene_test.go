package scene

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/keyframe/engine/core"
	"github.com/spaghettifunk/keyframe/engine/math"
	"github.com/spaghettifunk/keyframe/engine/resources"
	"github.com/spaghettifunk/keyframe/engine/systems"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-5

type fakeLoader struct {
	models     map[uint64]*resources.Model
	animations map[uint64]*resources.Animation
	missing    map[string]bool
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		models:     map[uint64]*resources.Model{},
		animations: map[uint64]*resources.Animation{},
		missing:    map[string]bool{},
	}
}

func (l *fakeLoader) CreateModel(uri, name string) uint64 {
	if l.missing[uri] {
		return 0
	}
	id := core.HashName(name)
	l.models[id] = &resources.Model{ID: id, Name: name}
	return id
}

func (l *fakeLoader) LoadAnimation(uri, name string) uint64 {
	id := core.HashName(name)
	l.animations[id] = &resources.Animation{ID: id, Name: name, End: 1}
	return id
}

func (l *fakeLoader) Model(id uint64) (*resources.Model, bool) {
	m, ok := l.models[id]
	return m, ok
}

func (l *fakeLoader) Animation(id uint64) (*resources.Animation, bool) {
	a, ok := l.animations[id]
	return a, ok
}

const sceneJSON = `{
    "camera": {
        "target": {"x": 1, "y": 2, "z": 3},
        "angles": {"yaw": 90, "pitch": 0},
        "speed": 2.5,
        "rotateSpeed": 30,
        "distance": 10
    },
    "entities": [
        {
            "name": "knight",
            "type": 3,
            "transform": {"position": [1, 0, 0], "rotation": [0, 0, 0], "size": [2, 2, 2], "speed": 1.5},
            "model": {"name": "knight.gltf"},
            "animations": {"idle": "idle", "attack": "slash", "death": "fall", "walk": "walk"}
        },
        {
            "name": "tower",
            "type": 16,
            "transform": {"position": [0, 0, 5], "rotation": [0, 0, 0], "size": [1, 1, 1], "speed": 0},
            "model": {"name": "broken.gltf"}
        }
    ]
}`

func writeScene(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.json")
	require.NoError(t, os.WriteFile(path, []byte(sceneJSON), 0o644))
	return path
}

func TestLoadScene(t *testing.T) {
	loader := newFakeLoader()
	loader.missing["broken.gltf"] = true
	s := New(loader)
	require.NoError(t, s.Load(writeScene(t)))

	assert.Equal(t, math.NewVec3(1, 2, 3), s.Camera.Target)
	assert.Equal(t, float32(90), s.Camera.Yaw)
	// yaw 90 degrees points the orbit direction along +Z
	assert.True(t, s.Camera.Position().Compare(math.NewVec3(1, 2, 13), 1e-4), "eye %+v", s.Camera.Position())

	require.Len(t, s.Entities, 2)
	knight := s.Entities[0]
	assert.True(t, knight.Type.Has(EntityTypeObject))
	assert.True(t, knight.Type.Has(EntityTypePlayer))
	assert.NotZero(t, knight.Model)
	require.NotNil(t, knight.Player)
	assert.Len(t, knight.Player.Clips, 4)
	assert.Equal(t, "idle", knight.Player.Clip().Name)

	tower := s.Entities[1]
	assert.Zero(t, tower.Model, "a failed model keeps the entity with a null handle")
	assert.NotEqual(t, knight.ID, tower.ID)

	var drawn []string
	s.Drawables(func(m *resources.Model, _ math.Mat4) { drawn = append(drawn, m.Name) })
	assert.Equal(t, []string{"knight.gltf"}, drawn)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	loader := newFakeLoader()
	s := New(loader)
	require.NoError(t, s.Load(writeScene(t)))
	cam := s.AddEntity("editor camera", EntityTypeCamera)
	cam.Transform = &Transform{Size: math.NewVec3One()}

	out := filepath.Join(t.TempDir(), "saved.json")
	require.NoError(t, s.Save(out))

	reloaded := New(loader)
	require.NoError(t, reloaded.Load(out))

	assert.Equal(t, s.Camera.Target, reloaded.Camera.Target)
	assert.Equal(t, s.Camera.Yaw, reloaded.Camera.Yaw)
	assert.Equal(t, s.Camera.Pitch, reloaded.Camera.Pitch)
	assert.Equal(t, s.Camera.Speed, reloaded.Camera.Speed)
	assert.Equal(t, s.Camera.RotateSpeed, reloaded.Camera.RotateSpeed)
	assert.Equal(t, s.Camera.Distance, reloaded.Camera.Distance)

	require.Len(t, reloaded.Entities, 2, "camera entities are not saved")
	for i, e := range reloaded.Entities {
		orig := s.Entities[i]
		assert.Equal(t, orig.Name, e.Name)
		assert.Equal(t, orig.Type, e.Type)
		assert.Equal(t, *orig.Transform, *e.Transform)
		assert.Equal(t, orig.ModelName, e.ModelName)
		assert.Equal(t, orig.Animations, e.Animations)
	}

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n    \"camera\"")
}

func TestTransformWorldOrder(t *testing.T) {
	tr := Transform{
		Position: math.NewVec3(10, 0, 0),
		Rotation: math.NewVec3(0, 0, math.K_HALF_PI),
		Size:     math.NewVec3(2, 2, 2),
	}
	// rotate (1,0,0) to (0,1,0), scale to (0,2,0), translate to (10,2,0)
	got := math.NewVec3(1, 0, 0).Transform(tr.World())
	assert.True(t, got.Compare(math.NewVec3(10, 2, 0), tolerance), "got %+v", got)
}

func TestCameraProjectionFlipsY(t *testing.T) {
	c := NewCamera(0, 0, math.NewVec3Zero(), 1, 1, 5)
	plain := c.Projection(1, false)
	flipped := c.Projection(1, true)
	assert.InDelta(t, -plain.Data[5], flipped.Data[5], tolerance)

	// yaw 0 puts the eye on +X looking back at the target
	assert.True(t, c.Position().Compare(math.NewVec3(5, 0, 0), tolerance))
	target := math.NewVec3Zero().Transform(c.View())
	assert.True(t, target.Compare(math.NewVec3(0, 0, -5), 1e-4), "target %+v", target)
}

func TestUpdateRunsOnWorkerPool(t *testing.T) {
	loader := newFakeLoader()
	s := New(loader)
	require.NoError(t, s.Load(writeScene(t)))
	s.Entities[0].Transform.Position = math.NewVec3(4, 0, 0)
	s.Camera.Yaw = 90

	js, err := systems.NewJobSystem(2, 8)
	require.NoError(t, err)
	defer js.Shutdown()

	require.NoError(t, s.Update(0.016, js))
	js.Wait()

	assert.True(t, s.Entities[0].World().Translation().Compare(math.NewVec3(4, 0, 0), tolerance))
	assert.True(t, s.Camera.Direction().Compare(math.NewVec3(0, 0, 1), 1e-4))
}
