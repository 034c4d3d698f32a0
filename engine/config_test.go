package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keyframe.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2, cfg.Renderer.FramesInFlight)
	assert.Equal(t, uint32(100), cfg.Renderer.MaxTextures)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[window]
name = "demo"
width = 800

[renderer]
frames_in_flight = 3
vsync = false

[log]
level = "warn"
file = "keyframe.log"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Window.Name)
	assert.Equal(t, uint32(800), cfg.Window.Width)
	assert.Equal(t, uint32(720), cfg.Window.Height)
	assert.Equal(t, 3, cfg.Renderer.FramesInFlight)
	assert.False(t, cfg.Renderer.VSync)
	assert.Equal(t, "mesh", cfg.Renderer.Shader)

	opts := cfg.LogOptions()
	assert.Equal(t, "warn", opts.Level)
	assert.Equal(t, "keyframe.log", opts.File)

	r := cfg.RendererOptions()
	assert.Equal(t, "demo", r.AppName)
	assert.Equal(t, 3, r.FramesInFlight)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"frames in flight": "[renderer]\nframes_in_flight = 4\n",
		"zero width":       "[window]\nwidth = 0\n",
		"log level":        "[log]\nlevel = \"loud\"\n",
		"syntax":           "[window\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestResolvePaths(t *testing.T) {
	p := PathsConfig{Assets: "assets"}
	assert.Equal(t, filepath.Join("assets", "models"), p.Resolve("models"))
	abs, err := filepath.Abs("models")
	require.NoError(t, err)
	assert.Equal(t, abs, p.Resolve(abs))
}
