package vulkan

import (
	"fmt"
	"runtime"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/keyframe/engine/core"
	"github.com/spaghettifunk/keyframe/engine/math"
	"github.com/spaghettifunk/keyframe/engine/platform"
)

// RendererConfig is the renderer section of the engine configuration.
type RendererConfig struct {
	AppName string
	Width   uint32
	Height  uint32
	// Number of frame slots, clamped to [MinFramesInFlight, MaxFramesInFlight].
	FramesInFlight int
	// Requested MSAA sample count, capped by the device.
	MSAASamples uint32
	Validation  bool
	VSync       bool
}

/**
 * @brief The per slot synchronization objects and command buffers. Fences
 * live as long as the renderer, the rest is rebuilt with the swapchain.
 */
type frameSlot struct {
	imageAvailable vk.Semaphore
	renderFinished vk.Semaphore
	inFlight       *VulkanFence
	scene          *VulkanCommandBuffer
	overlay        *VulkanCommandBuffer
}

type VulkanRenderer struct {
	platform *platform.Platform
	config   RendererConfig
	context  *VulkanContext
	layouts  *VulkanDescriptorLayouts

	slots []*frameSlot

	// Engine uniform buffers and their sets, one per swapchain image.
	engineUniforms []*VulkanBuffer
	enginePool     vk.DescriptorPool
	engineSets     []vk.DescriptorSet
	camera         engineUniform

	textures    map[uint64]*vulkanTexture
	texturePool vk.DescriptorPool
	meshes      map[uint64]*vulkanMesh
	meshPool    vk.DescriptorPool
	shaders     map[uint64]*vulkanShader

	draws   []DrawCommand
	overlay func(OverlayTarget)
	// Counts Record calls; meshes remember the last one that flushed them.
	recordPass uint64
}

func New(p *platform.Platform, config RendererConfig) *VulkanRenderer {
	config.FramesInFlight = max(MinFramesInFlight, min(config.FramesInFlight, MaxFramesInFlight))
	return &VulkanRenderer{
		platform: p,
		config:   config,
		context: &VulkanContext{
			FramebufferWidth:  config.Width,
			FramebufferHeight: config.Height,
			Allocator:         nil,
			Locks:             NewVulkanLockPool(),
		},
		camera: engineUniform{
			View:       math.NewMat4Identity(),
			Projection: math.NewMat4Identity(),
		},
		textures: make(map[uint64]*vulkanTexture),
		meshes:   make(map[uint64]*vulkanMesh),
		shaders:  make(map[uint64]*vulkanShader),
	}
}

func (vr *VulkanRenderer) Initialize() error {
	procAddr := vr.platform.InstanceProcAddr()
	if procAddr == nil {
		return fmt.Errorf("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		return fmt.Errorf("failed to initialize vk: %w", err)
	}

	if err := vr.createInstance(); err != nil {
		return err
	}

	// Debugger
	if vr.config.Validation {
		core.LogDebug("Creating Vulkan debugger...")
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(vr.context.Instance, &debugCreateInfo, nil, &dbg)); err != nil {
			return fmt.Errorf("vk.CreateDebugReportCallback failed with %w", err)
		}
		vr.context.debugMessenger = dbg
		core.LogDebug("Vulkan debugger created.")
	}

	// Surface
	core.LogDebug("Creating Vulkan surface...")
	surface, err := vr.platform.CreateSurface(vr.context.Instance)
	if err != nil {
		return fmt.Errorf("failed to create platform surface: %w", err)
	}
	vr.context.Surface = vk.SurfaceFromPointer(surface)
	core.LogDebug("Vulkan surface created.")

	// Device creation
	if err := DeviceCreate(vr.context, vr.config.MSAASamples); err != nil {
		return err
	}

	layouts, err := DescriptorLayoutsCreate(vr.context)
	if err != nil {
		return err
	}
	vr.layouts = layouts

	// Create the fence in a signaled state, indicating that the first frame has already been "rendered".
	// This will prevent the application from waiting indefinitely for the first frame to render.
	vr.slots = make([]*frameSlot, vr.config.FramesInFlight)
	for i := range vr.slots {
		fence, err := NewFence(vr.context, true)
		if err != nil {
			return err
		}
		vr.slots[i] = &frameSlot{inFlight: fence}
	}

	if err := vr.createDefaultTexture(); err != nil {
		return err
	}

	if err := vr.CreateSwapchainResources(); err != nil {
		return err
	}

	core.LogInfo("Vulkan renderer initialized successfully: %d frames in flight, %d MSAA samples.",
		vr.config.FramesInFlight, vr.context.Device.MSAASamples)
	return nil
}

func (vr *VulkanRenderer) createInstance() error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(vr.config.AppName),
		PEngineName:        VulkanSafeString("Keyframe Engine"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	// Obtain a list of required extensions
	requiredExtensions := []string{"VK_KHR_surface"} // Generic surface extension
	requiredExtensions = append(requiredExtensions, vr.platform.RequiredInstanceExtensions()...)

	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	if vr.config.Validation {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
	}
	core.LogDebug("Required extensions: %v", requiredExtensions)

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)

	// Validation layers.
	var requiredValidationLayerNames []string
	if vr.config.Validation {
		core.LogInfo("Validation layers enabled. Enumerating...")
		requiredValidationLayerNames = []string{"VK_LAYER_KHRONOS_validation"}

		var availableLayerCount uint32
		if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, nil); res != vk.Success {
			return vulkanError("vkEnumerateInstanceLayerProperties", res)
		}
		availableLayers := make([]vk.LayerProperties, availableLayerCount)
		if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, availableLayers); res != vk.Success {
			return vulkanError("vkEnumerateInstanceLayerProperties", res)
		}

		// Verify all required layers are available.
		for _, required := range requiredValidationLayerNames {
			found := false
			for j := range availableLayers {
				availableLayers[j].Deref()
				if required == cString(availableLayers[j].LayerName[:]) {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("required validation layer is missing: %s", required)
			}
		}
		core.LogInfo("All required validation layers are present.")
	}

	createInfo.EnabledLayerCount = uint32(len(requiredValidationLayerNames))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(requiredValidationLayerNames)

	if res := vk.CreateInstance(&createInfo, vr.context.Allocator, &vr.context.Instance); res != vk.Success {
		return vulkanError("vkCreateInstance", res)
	}
	if err := vk.InitInstance(vr.context.Instance); err != nil {
		return err
	}
	core.LogInfo("Vulkan Instance created.")
	return nil
}

// Shutdown destroys every object in the opposite order of creation.
func (vr *VulkanRenderer) Shutdown() error {
	ctx := vr.context
	if ctx.Device == nil {
		return nil
	}
	if err := vr.WaitIdle(); err != nil {
		core.LogError(err.Error())
	}

	vr.DestroySwapchainResources()

	for id, shader := range vr.shaders {
		if shader.pipeline != nil {
			shader.pipeline.Destroy(ctx)
		}
		delete(vr.shaders, id)
	}
	for id, mesh := range vr.meshes {
		mesh.destroy(ctx)
		delete(vr.meshes, id)
	}
	vr.DestroyMeshDescriptorPool()
	vr.DestroyTextureDescriptorPool()
	for id, texture := range vr.textures {
		texture.destroy(ctx)
		delete(vr.textures, id)
	}

	for _, slot := range vr.slots {
		slot.inFlight.FenceDestroy(ctx)
	}
	vr.slots = nil

	if vr.layouts != nil {
		vr.layouts.Destroy(ctx)
		vr.layouts = nil
	}

	core.LogDebug("Destroying Vulkan device...")
	DeviceDestroy(ctx)
	ctx.Device = nil

	core.LogDebug("Destroying Vulkan surface...")
	if ctx.Surface != vk.NullSurface {
		vk.DestroySurface(ctx.Instance, ctx.Surface, ctx.Allocator)
		ctx.Surface = vk.NullSurface
	}

	if ctx.debugMessenger != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(ctx.Instance, ctx.debugMessenger, ctx.Allocator)
		ctx.debugMessenger = vk.NullDebugReportCallback
	}

	core.LogDebug("Destroying Vulkan instance...")
	vk.DestroyInstance(ctx.Instance, ctx.Allocator)
	return nil
}

// Resized records the new framebuffer size. The swapchain picks it up on
// the next rebuild.
func (vr *VulkanRenderer) Resized(width, height uint32) {
	vr.context.FramebufferWidth = width
	vr.context.FramebufferHeight = height
	core.LogDebug("Vulkan renderer backend->resized: w/h: %d/%d", width, height)
}

// Extent is the size of the swapchain images.
func (vr *VulkanRenderer) Extent() (uint32, uint32) {
	if vr.context.Swapchain == nil {
		return vr.context.FramebufferWidth, vr.context.FramebufferHeight
	}
	return vr.context.Swapchain.Extent.Width, vr.context.Swapchain.Extent.Height
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		core.LogDebug("DEBUG: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
