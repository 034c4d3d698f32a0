package engine

import (
	"github.com/spaghettifunk/keyframe/engine/renderer/vulkan"
)

// Game holds the hooks an application plugs into the engine. Every hook is
// optional and runs on the control goroutine.
type Game struct {
	State        interface{}
	FnInitialize Initialize
	FnUpdate     Update
	FnOverlay    Overlay
	FnOnResize   OnResize
	FnShutdown   Shutdown
}

// Initialize runs once the renderer, the resources and the scene are ready.
type Initialize func(e *Engine) error

// Update runs every frame before the scene is updated.
type Update func(deltaTime float64) error

// Overlay records GUI commands into the overlay renderpass of a frame.
type Overlay func(target vulkan.OverlayTarget)

type OnResize func(width uint32, height uint32) error
type Shutdown func() error
