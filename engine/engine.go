package engine

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/spaghettifunk/keyframe/engine/animation"
	"github.com/spaghettifunk/keyframe/engine/assets"
	"github.com/spaghettifunk/keyframe/engine/core"
	"github.com/spaghettifunk/keyframe/engine/math"
	"github.com/spaghettifunk/keyframe/engine/platform"
	"github.com/spaghettifunk/keyframe/engine/renderer"
	"github.com/spaghettifunk/keyframe/engine/renderer/vulkan"
	"github.com/spaghettifunk/keyframe/engine/resources"
	"github.com/spaghettifunk/keyframe/engine/scene"
	"github.com/spaghettifunk/keyframe/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// Size of the job queue shared by the scene update jobs.
const jobQueueSize = 256

// Seconds between two frame statistics log lines.
const metricsInterval = 5.0

type Engine struct {
	config       *Config
	currentStage Stage
	gameInstance *Game
	isRunning    atomic.Bool

	events    *core.Events
	platform  *platform.Platform
	watcher   *assets.Watcher
	jobs      *systems.JobSystem
	renderer  *vulkan.VulkanRenderer
	resources *resources.ResourceManager
	scheduler *renderer.Scheduler
	updater   *animation.Updater
	scene     *scene.Scene

	clock       *core.Clock
	metrics     *core.Metrics
	lastTime    float64
	lastMetrics float64

	shader         uint64
	shadersChanged atomic.Bool
	draws          []vulkan.DrawCommand
}

func New(config *Config, g *Game) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if g == nil {
		g = &Game{}
	}
	events := core.NewEvents()
	return &Engine{
		config:       config,
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		events:       events,
		platform:     platform.New(events),
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	if err := core.ConfigureLogging(e.config.LogOptions()); err != nil {
		return err
	}

	e.events.Register(core.EventQuit, e.onQuit)
	e.events.Register(core.EventResized, e.onResized)
	e.events.Register(core.EventAssetChanged, e.onAssetChanged)

	w := e.config.Window
	if err := e.platform.Startup(w.Name, w.X, w.Y, w.Width, w.Height); err != nil {
		return err
	}

	paths := e.config.Paths
	watcher, err := assets.NewWatcher(e.events)
	if err != nil {
		return err
	}
	e.watcher = watcher
	if err := e.watcher.Watch(paths.Assets); err != nil {
		core.LogWarn("asset hot reload disabled: %s", err)
	}

	jobs, err := systems.NewJobSystem(systems.DefaultWorkerCount(), jobQueueSize)
	if err != nil {
		return err
	}
	e.jobs = jobs

	e.renderer = vulkan.New(e.platform, e.config.RendererOptions())
	if err := e.renderer.Initialize(); err != nil {
		core.LogFatal("failed to initialize the renderer: %s", err)
		return err
	}

	rm, err := resources.NewResourceManager(&resources.ResourceManagerConfig{
		ModelsDir:     paths.Resolve(paths.Models),
		TexturesDir:   paths.Resolve(paths.Textures),
		ShadersDir:    paths.Resolve(paths.Shaders),
		AnimationsDir: paths.Resolve(paths.Animations),
		MaxTextures:   e.config.Renderer.MaxTextures,
	}, e.renderer)
	if err != nil {
		return err
	}
	if err := rm.Initialize(); err != nil {
		return err
	}
	e.resources = rm

	if e.shader, err = rm.CreateShader(e.config.Renderer.Shader); err != nil {
		return fmt.Errorf("failed to load shader %s: %w", e.config.Renderer.Shader, err)
	}

	e.scheduler = renderer.NewScheduler(e.renderer, rm)
	e.updater = animation.NewUpdater(e.renderer)

	if err := e.loadScene(paths.Resolve(paths.Scene)); err != nil {
		return err
	}

	if e.gameInstance.FnOverlay != nil {
		e.renderer.SetOverlay(e.gameInstance.FnOverlay)
	}
	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e); err != nil {
			return err
		}
		if err := e.refreshMeshes(); err != nil {
			return err
		}
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.renderer.Extent()); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	core.LogInfo("engine initialized")
	return nil
}

// loadScene fills the scene from path when the file exists, then allocates
// the mesh descriptors and writes the rest pose of every loaded model.
func (e *Engine) loadScene(path string) error {
	e.scene = scene.New(e.resources)
	if _, err := os.Stat(path); err == nil {
		if err := e.scene.Load(path); err != nil {
			return err
		}
	} else {
		core.LogWarn("scene %s not found, starting empty", path)
	}

	return e.refreshMeshes()
}

// refreshMeshes gives every mesh a descriptor set and writes the current
// pose of every model.
func (e *Engine) refreshMeshes() error {
	if err := e.resources.RebuildMeshDescriptors(); err != nil {
		return err
	}
	for _, m := range e.resources.Models() {
		e.updater.WriteUniforms(m)
	}
	return nil
}

// LoadModel loads <models>/<uri> under name once the engine is initialized
// and makes its meshes drawable. It returns 0 on failure.
func (e *Engine) LoadModel(uri, name string) uint64 {
	if e.resources == nil {
		core.LogError("model '%s' requested before the engine is initialized", name)
		return 0
	}
	id := e.resources.LoadModel(uri, name)
	if model, ok := e.resources.Model(id); ok {
		e.updater.WriteUniforms(model)
	}
	return id
}

func (e *Engine) Run() error {
	e.isRunning.Store(true)
	e.currentStage = EngineStageRunning

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning.Load() {
		e.platform.PumpMessages()
		if e.platform.ShouldClose() {
			e.isRunning.Store(false)
			break
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime

		if e.shadersChanged.Swap(false) {
			if err := e.resources.ReloadShader(e.config.Renderer.Shader); err != nil {
				core.LogError("shader reload failed, keeping the previous program: %s", err)
			} else {
				core.LogInfo("shader %s reloaded", e.config.Renderer.Shader)
			}
		}

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(delta); err != nil {
				core.LogError("game update failed, shutting down: %s", err)
				e.isRunning.Store(false)
				break
			}
		}

		if err := e.scene.Update(delta, e.jobs); err != nil {
			core.LogError(err.Error())
		}
		e.jobs.Wait()

		err := e.scheduler.Frame(func(f renderer.FrameInfo) error {
			return e.prepareFrame(delta)
		})
		if errors.Is(err, core.ErrSwapchainBooting) {
			e.isRunning.Store(false)
			break
		}
		if err != nil {
			core.LogFatal("frame %d failed: %s", e.scheduler.FrameNumber(), err)
			return err
		}

		e.clock.Update()
		frameEnd := e.clock.Elapsed()
		e.metrics.Update(frameEnd - currentTime)
		if frameEnd-e.lastMetrics >= metricsInterval {
			fps, frameTime := e.metrics.Frame()
			core.LogDebug("fps: %.1f, frame time: %.2fms", fps, frameTime)
			e.lastMetrics = frameEnd
		}

		e.lastTime = currentTime
	}
	return nil
}

// prepareFrame advances the animations and hands the renderer the draw list
// and camera of the frame about to be recorded.
func (e *Engine) prepareFrame(delta float64) error {
	for _, p := range e.scene.Players() {
		e.updater.Update(p, delta)
	}

	e.draws = e.draws[:0]
	e.scene.Drawables(func(model *resources.Model, world math.Mat4) {
		for i := range model.Nodes {
			id := model.Nodes[i].Mesh
			if id == 0 {
				continue
			}
			mesh, ok := e.resources.Mesh(id)
			if !ok {
				continue
			}
			e.draws = append(e.draws, vulkan.DrawCommand{
				Shader:  e.shader,
				Mesh:    id,
				Texture: mesh.Texture,
				World:   world,
			})
		}
	})
	e.renderer.SetDrawCommands(e.draws)

	width, height := e.renderer.Extent()
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	cam := e.scene.Camera
	e.renderer.SetCamera(cam.View(), cam.Projection(aspect, true))
	return nil
}

// Stop asks the frame loop to return after the current frame. Safe to call
// from any goroutine.
func (e *Engine) Stop() {
	e.isRunning.Store(false)
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	e.isRunning.Store(false)

	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			core.LogError(err.Error())
		}
	}

	if e.scheduler != nil {
		if err := e.scheduler.Shutdown(); err != nil {
			core.LogError(err.Error())
		}
	}
	if e.resources != nil {
		if err := e.resources.Shutdown(); err != nil {
			core.LogError(err.Error())
		}
	}
	if e.renderer != nil {
		if err := e.renderer.Shutdown(); err != nil {
			core.LogError(err.Error())
		}
	}
	if e.jobs != nil {
		if err := e.jobs.Shutdown(); err != nil {
			core.LogError(err.Error())
		}
	}
	if e.watcher != nil {
		if err := e.watcher.Shutdown(); err != nil {
			core.LogError(err.Error())
		}
	}
	e.events.Shutdown()
	if err := e.platform.Shutdown(); err != nil {
		return err
	}
	e.currentStage = EngineStageUninitialized
	core.LogInfo("engine shut down")
	return nil
}

// Scene is the scene the engine draws. It is nil before Initialize.
func (e *Engine) Scene() *scene.Scene {
	return e.scene
}

func (e *Engine) Resources() *resources.ResourceManager {
	return e.resources
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) onQuit(core.Event) bool {
	core.LogInfo("EventQuit received, shutting down.")
	e.isRunning.Store(false)
	return true
}

func (e *Engine) onResized(ev core.Event) bool {
	if e.scheduler == nil {
		return false
	}
	e.renderer.Resized(ev.Width, ev.Height)
	e.scheduler.RequestResize()
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(ev.Width, ev.Height); err != nil {
			core.LogError(err.Error())
		}
	}
	return false
}

// onAssetChanged runs on the watcher goroutine; the reload itself happens
// on the next frame.
func (e *Engine) onAssetChanged(ev core.Event) bool {
	if assets.DetermineAssetType(ev.Path) != assets.AssetTypeShader {
		return false
	}
	core.LogDebug("shader source changed: %s", ev.Path)
	e.shadersChanged.Store(true)
	return true
}
