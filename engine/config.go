package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/keyframe/engine/core"
	"github.com/spaghettifunk/keyframe/engine/renderer/vulkan"
)

// DefaultConfigPath is read when no path is given on the command line.
const DefaultConfigPath = "keyframe.toml"

type WindowConfig struct {
	// The application name used in windowing.
	Name string `toml:"name"`
	// Window starting position x axis.
	X uint32 `toml:"x"`
	// Window starting position y axis.
	Y uint32 `toml:"y"`
	// Window starting width.
	Width uint32 `toml:"width"`
	// Window starting height.
	Height uint32 `toml:"height"`
}

// PathsConfig locates the asset folders. Relative folders are resolved
// against Assets.
type PathsConfig struct {
	Assets     string `toml:"assets"`
	Models     string `toml:"models"`
	Textures   string `toml:"textures"`
	Shaders    string `toml:"shaders"`
	Animations string `toml:"animations"`
	// The scene file loaded at startup, relative to Assets.
	Scene string `toml:"scene"`
}

type RendererConfig struct {
	FramesInFlight int    `toml:"frames_in_flight"`
	MaxTextures    uint32 `toml:"max_textures"`
	MSAASamples    uint32 `toml:"msaa_samples"`
	Validation     bool   `toml:"validation"`
	VSync          bool   `toml:"vsync"`
	// The shader program every mesh is drawn with.
	Shader string `toml:"shader"`
}

type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

type Config struct {
	Window   WindowConfig   `toml:"window"`
	Paths    PathsConfig    `toml:"paths"`
	Renderer RendererConfig `toml:"renderer"`
	Log      LogConfig      `toml:"log"`
}

func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Name:   "Keyframe",
			X:      100,
			Y:      100,
			Width:  1280,
			Height: 720,
		},
		Paths: PathsConfig{
			Assets:     "assets",
			Models:     "models",
			Textures:   "textures",
			Shaders:    "shaders",
			Animations: "animations",
			Scene:      "scenes/default.json",
		},
		Renderer: RendererConfig{
			FramesInFlight: 2,
			MaxTextures:    100,
			MSAASamples:    4,
			Validation:     false,
			VSync:          true,
			Shader:         "mesh",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// LoadConfig reads a TOML file over the defaults. A missing file yields the
// defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		core.LogInfo("config %s not found, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Renderer.FramesInFlight < vulkan.MinFramesInFlight || c.Renderer.FramesInFlight > vulkan.MaxFramesInFlight {
		return fmt.Errorf("renderer.frames_in_flight must be in [%d, %d], got %d",
			vulkan.MinFramesInFlight, vulkan.MaxFramesInFlight, c.Renderer.FramesInFlight)
	}
	if c.Renderer.MaxTextures == 0 {
		return fmt.Errorf("renderer.max_textures must be positive")
	}
	if c.Renderer.Shader == "" {
		return fmt.Errorf("renderer.shader must name a shader program")
	}
	if _, err := core.ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Resolve returns dir inside the asset root unless it is absolute.
func (p PathsConfig) Resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(p.Assets, dir)
}

// RendererOptions is the renderer configuration handed to the Vulkan backend.
func (c *Config) RendererOptions() vulkan.RendererConfig {
	return vulkan.RendererConfig{
		AppName:        c.Window.Name,
		Width:          c.Window.Width,
		Height:         c.Window.Height,
		FramesInFlight: c.Renderer.FramesInFlight,
		MSAASamples:    c.Renderer.MSAASamples,
		Validation:     c.Renderer.Validation,
		VSync:          c.Renderer.VSync,
	}
}

func (c *Config) LogOptions() core.LogOptions {
	return core.LogOptions{
		Level:      c.Log.Level,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
	}
}
