package testbed

import (
	"github.com/spaghettifunk/keyframe/engine"
	"github.com/spaghettifunk/keyframe/engine/core"
	"github.com/spaghettifunk/keyframe/engine/math"
	"github.com/spaghettifunk/keyframe/engine/scene"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	engine *engine.Engine
	camera *scene.Camera

	width  uint32
	height uint32

	/** @brief Degrees per second the camera orbits its target. */
	orbitSpeed float32
}

func NewTestGame() *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			State: &gameState{
				orbitSpeed: 15.0,
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize(e *engine.Engine) error {
	core.LogDebug("initializing testbed...")
	s := g.state()
	s.engine = e
	s.camera = e.Scene().Camera

	for _, p := range e.Scene().Players() {
		if p.Clip() == nil {
			core.LogWarn("model '%s' has an animation set but no clip loaded", p.Model.Name)
		}
	}
	return nil
}

// Update slowly orbits the scene camera around its target.
func (g *TestGame) Update(deltaTime float64) error {
	s := g.state()
	if s.camera == nil {
		return nil
	}
	s.camera.Rotate(float32(deltaTime), math.NewVec2(s.orbitSpeed, 0))
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	s := g.state()
	s.width = width
	s.height = height
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogDebug("shutting down testbed...")
	return nil
}
