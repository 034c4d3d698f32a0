package core

import (
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashNameIsStableAndNonZero(t *testing.T) {
	a := HashName("Fox.gltf")
	assert.Equal(t, a, HashName("Fox.gltf"))
	assert.NotEqual(t, a, HashName("fox.gltf"))
	assert.NotZero(t, HashName(""))
}

func TestMetricsAverages(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < 10; i++ {
		m.Update(0.010)
	}
	assert.InDelta(t, 10.0, m.FrameTime(), 1e-9)

	for i := 0; i < 100; i++ {
		m.Update(0.010)
	}
	assert.InDelta(t, 100.0, m.FPS(), 1.0)
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel("")
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, lvl)

	lvl, err = ParseLogLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, log.WarnLevel, lvl)

	_, err = ParseLogLevel("loud")
	assert.Error(t, err)
}

func TestEventsFireStopsWhenHandled(t *testing.T) {
	ev := NewEvents()
	calls := 0
	ev.Register(EventResized, func(e Event) bool { calls++; return true })
	ev.Register(EventResized, func(e Event) bool { calls++; return false })

	handled := ev.Fire(Event{Code: EventResized, Width: 800, Height: 600})
	assert.True(t, handled)
	assert.Equal(t, 1, calls)
	assert.False(t, ev.Fire(Event{Code: EventQuit}))
}
