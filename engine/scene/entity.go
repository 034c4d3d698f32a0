package scene

import (
	"sync"

	"github.com/google/uuid"
	"github.com/spaghettifunk/keyframe/engine/animation"
	"github.com/spaghettifunk/keyframe/engine/math"
)

type EntityType uint32

const (
	EntityTypeObject   EntityType = 1 << 0
	EntityTypePlayer   EntityType = 1 << 1
	EntityTypeEnemy    EntityType = 1 << 2
	EntityTypeCamera   EntityType = 1 << 3
	EntityTypeBuilding EntityType = 1 << 4
)

func (t EntityType) Has(flag EntityType) bool {
	return t&flag != 0
}

// AnimationSet names the clips of an entity. Each clip is loaded from
// <name>.gltf in the animations directory.
type AnimationSet struct {
	Idle   string `json:"idle"`
	Attack string `json:"attack"`
	Death  string `json:"death"`
	Walk   string `json:"walk"`
}

func (a AnimationSet) names() []string {
	return []string{a.Idle, a.Attack, a.Death, a.Walk}
}

type Entity struct {
	ID   uuid.UUID
	Name string
	Type EntityType

	// Transform is nil for entities without a placement in the world.
	Transform *Transform
	// ModelName is the file the model was requested with, Model its handle.
	// A zero handle means the model failed to load; the entity is kept but not drawn.
	ModelName  string
	Model      uint64
	Animations *AnimationSet
	Player     *animation.Player

	mu    sync.RWMutex
	world math.Mat4
}

// World returns the world matrix computed by the last update.
func (e *Entity) World() math.Mat4 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.world
}

func (e *Entity) setWorld(m math.Mat4) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.world = m
}
