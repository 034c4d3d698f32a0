package engine

import (
	"testing"

	"github.com/spaghettifunk/keyframe/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(nil, nil)
	require.NoError(t, err)
	return e
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Renderer.FramesInFlight = 0

	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestNewStartsUninitialized(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, EngineStageUninitialized, e.Stage())
	assert.Nil(t, e.Scene())
	assert.Nil(t, e.Resources())
}

func TestShaderChangesAreDeferred(t *testing.T) {
	e := newTestEngine(t)

	assert.False(t, e.onAssetChanged(core.Event{Code: core.EventAssetChanged, Path: "assets/textures/albedo.png"}))
	assert.False(t, e.shadersChanged.Load())

	assert.True(t, e.onAssetChanged(core.Event{Code: core.EventAssetChanged, Path: "assets/shaders/mesh.frag.spv"}))
	assert.True(t, e.shadersChanged.Swap(false))
	assert.False(t, e.shadersChanged.Load())
}

func TestQuitEventStopsTheLoop(t *testing.T) {
	e := newTestEngine(t)
	e.isRunning.Store(true)

	assert.True(t, e.onQuit(core.Event{Code: core.EventQuit}))
	assert.False(t, e.isRunning.Load())
}

func TestStop(t *testing.T) {
	e := newTestEngine(t)
	e.isRunning.Store(true)
	e.Stop()
	assert.False(t, e.isRunning.Load())
}

func TestResizeBeforeInitializeIsIgnored(t *testing.T) {
	e := newTestEngine(t)
	assert.False(t, e.onResized(core.Event{Code: core.EventResized, Width: 800, Height: 600}))
}

func TestLoadModelBeforeInitializeFails(t *testing.T) {
	e := newTestEngine(t)
	assert.Zero(t, e.LoadModel("pair.glb", "pair"))
}
