package assets

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/keyframe/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetermineAssetType(t *testing.T) {
	cases := map[string]AssetType{
		"shaders/mesh.vert.spv":      AssetTypeShader,
		"textures/Grass.PNG":         AssetTypeTexture,
		"models/knight.gltf":         AssetTypeModel,
		"models/knight.glb":          AssetTypeModel,
		"animations/walk.gltf":       AssetTypeAnimation,
		"assets/animations/idle.glb": AssetTypeAnimation,
		"scene.json":                 AssetTypeScene,
		"README.md":                  AssetTypeNone,
	}
	for path, want := range cases {
		assert.Equal(t, want, DetermineAssetType(path), path)
	}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestWatcherIndexesExistingAssets(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "models", "box.gltf"))
	writeFile(t, filepath.Join(root, "animations", "walk.gltf"))
	writeFile(t, filepath.Join(root, "shaders", "mesh.vert.spv"))
	writeFile(t, filepath.Join(root, "notes.txt"))

	w, err := NewWatcher(core.NewEvents())
	require.NoError(t, err)
	require.NoError(t, w.Watch(root))
	defer w.Shutdown()

	models := w.Assets(AssetTypeModel)
	require.Len(t, models, 1)
	assert.Equal(t, filepath.Join(root, "models", "box.gltf"), models[0].Path)
	assert.Len(t, w.Assets(AssetTypeAnimation), 1)
	assert.Len(t, w.Assets(AssetTypeShader), 1)

	_, ok := w.Lookup(filepath.Join(root, "notes.txt"))
	assert.False(t, ok)
}

func TestWatcherFiresAssetChanged(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "shaders"), 0o755))

	events := core.NewEvents()
	changed := make(chan string, 8)
	events.Register(core.EventAssetChanged, func(e core.Event) bool {
		changed <- e.Path
		return true
	})

	w, err := NewWatcher(events)
	require.NoError(t, err)
	require.NoError(t, w.Watch(root))
	defer w.Shutdown()

	path := filepath.Join(root, "shaders", "mesh.frag.spv")
	writeFile(t, path)

	select {
	case got := <-changed:
		assert.Equal(t, path, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no asset change event")
	}

	require.Eventually(t, func() bool {
		_, ok := w.Lookup(path)
		return ok
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcherShutdownIsFinal(t *testing.T) {
	w, err := NewWatcher(core.NewEvents())
	require.NoError(t, err)
	require.NoError(t, w.Shutdown())
	assert.ErrorIs(t, w.Watch(t.TempDir()), ErrWatcherClosed)
	assert.NoError(t, w.Shutdown())
}
