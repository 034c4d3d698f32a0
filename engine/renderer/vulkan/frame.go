package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/keyframe/engine/core"
)

func (vr *VulkanRenderer) WaitForFence(slot int) error {
	return vr.slots[slot].inFlight.FenceWait(vr.context, fenceTimeout)
}

// AcquireNextImage signals the image-available semaphore of slot once the image is ready.
func (vr *VulkanRenderer) AcquireNextImage(slot int) (uint32, error) {
	return vr.context.Swapchain.AcquireNextImage(vr.context, fenceTimeout, vr.slots[slot].imageAvailable)
}

func (vr *VulkanRenderer) ResetFence(slot int) error {
	return vr.slots[slot].inFlight.FenceReset(vr.context)
}

// Submit hands the scene and overlay command buffers of slot to the graphics
// queue in one batch. The batch waits on image-available at the colour output
// stage and signals render-finished and the slot fence.
func (vr *VulkanRenderer) Submit(slot int) error {
	s := vr.slots[slot]
	device := vr.context.Device

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{s.imageAvailable},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   2,
		PCommandBuffers:      []vk.CommandBuffer{s.scene.Handle, s.overlay.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{s.renderFinished},
	}

	if err := vr.context.Locks.SafeQueueCall(uint32(device.GraphicsQueueIndex), func() error {
		if res := vk.QueueSubmit(device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, s.inFlight.Handle); res != vk.Success {
			return vulkanError("vkQueueSubmit", res)
		}
		return nil
	}); err != nil {
		return err
	}

	s.scene.UpdateSubmitted()
	s.overlay.UpdateSubmitted()
	return nil
}

// Present gives image back to the swapchain once the render-finished semaphore of slot is signaled.
func (vr *VulkanRenderer) Present(slot int, image uint32) error {
	return vr.context.Swapchain.Present(vr.context, vr.slots[slot].renderFinished, image)
}

func (vr *VulkanRenderer) WaitIdle() error {
	if res := vk.DeviceWaitIdle(vr.context.Device.LogicalDevice); !VulkanResultIsSuccess(res) {
		return vulkanError("vkDeviceWaitIdle", res)
	}
	return nil
}

func (vr *VulkanRenderer) ImageCount() int {
	if vr.context.Swapchain == nil {
		return 0
	}
	return int(vr.context.Swapchain.ImageCount)
}

func (vr *VulkanRenderer) FramesInFlight() int {
	return len(vr.slots)
}

// DestroySwapchainResources releases everything sized by the swapchain. The
// device must be idle.
func (vr *VulkanRenderer) DestroySwapchainResources() {
	ctx := vr.context
	if ctx.Swapchain == nil {
		return
	}
	pool := ctx.Device.GraphicsCommandPool

	for _, s := range vr.slots {
		if s.scene != nil {
			s.scene.Free(ctx, pool)
			s.scene = nil
		}
		if s.overlay != nil {
			s.overlay.Free(ctx, pool)
			s.overlay = nil
		}
		// A suboptimal acquire leaves the semaphore signaled, so it is never reused.
		destroySemaphore(ctx, &s.imageAvailable)
		destroySemaphore(ctx, &s.renderFinished)
	}

	for _, shader := range vr.shaders {
		if shader.pipeline != nil {
			shader.pipeline.Destroy(ctx)
			shader.pipeline = nil
		}
	}

	DescriptorPoolDestroy(ctx, vr.enginePool)
	vr.enginePool = nil
	vr.engineSets = nil
	for _, buffer := range vr.engineUniforms {
		buffer.Destroy(ctx)
	}
	vr.engineUniforms = nil

	for _, fb := range ctx.Swapchain.Framebuffers {
		fb.Destroy(ctx)
	}
	ctx.Swapchain.Framebuffers = nil
	for _, fb := range ctx.Swapchain.OverlayFramebuffers {
		fb.Destroy(ctx)
	}
	ctx.Swapchain.OverlayFramebuffers = nil

	if ctx.OverlayRenderpass != nil {
		ctx.OverlayRenderpass.RenderpassDestroy(ctx)
		ctx.OverlayRenderpass = nil
	}
	if ctx.MainRenderpass != nil {
		ctx.MainRenderpass.RenderpassDestroy(ctx)
		ctx.MainRenderpass = nil
	}

	ctx.Swapchain.SwapchainDestroy(ctx)
	ctx.Swapchain = nil
	core.LogDebug("swapchain resources destroyed")
}

// CreateSwapchainResources builds the swapchain for the current framebuffer
// size, then everything derived from it. It blocks on window events while the
// framebuffer has a zero size.
func (vr *VulkanRenderer) CreateSwapchainResources() error {
	ctx := vr.context

	width, height := vr.platform.FramebufferSize()
	for width == 0 || height == 0 {
		if vr.platform.ShouldClose() {
			return core.ErrSwapchainBooting
		}
		vr.platform.WaitEvents()
		width, height = vr.platform.FramebufferSize()
	}
	ctx.FramebufferWidth, ctx.FramebufferHeight = width, height

	// Requery support
	if err := DeviceQuerySwapchainSupport(ctx.Device.PhysicalDevice, ctx.Surface, ctx.Device.SwapchainSupport); err != nil {
		return err
	}

	swapchain, err := SwapchainCreate(ctx, width, height, vr.config.VSync)
	if err != nil {
		return err
	}
	ctx.Swapchain = swapchain
	extent := swapchain.Extent
	w, h := float32(extent.Width), float32(extent.Height)

	if ctx.MainRenderpass, err = RenderpassCreate(ctx, 0, 0, w, h, 0.0, 0.0, 0.2, 1.0, 1.0, 0); err != nil {
		return err
	}
	if ctx.OverlayRenderpass, err = OverlayRenderpassCreate(ctx, 0, 0, w, h); err != nil {
		return err
	}

	// Swapchain framebuffers.
	swapchain.Framebuffers = make([]*VulkanFramebuffer, swapchain.ImageCount)
	swapchain.OverlayFramebuffers = make([]*VulkanFramebuffer, swapchain.ImageCount)
	for i := range swapchain.Images {
		if swapchain.Framebuffers[i], err = FramebufferCreate(ctx, ctx.MainRenderpass, extent.Width, extent.Height, sceneAttachments(swapchain, i)); err != nil {
			return err
		}
		if swapchain.OverlayFramebuffers[i], err = FramebufferCreate(ctx, ctx.OverlayRenderpass, extent.Width, extent.Height, []vk.ImageView{swapchain.Views[i]}); err != nil {
			return err
		}
	}

	for _, s := range vr.slots {
		if s.imageAvailable, err = semaphoreCreate(ctx); err != nil {
			return err
		}
		if s.renderFinished, err = semaphoreCreate(ctx); err != nil {
			return err
		}
		if s.scene, err = NewVulkanCommandBuffer(ctx, ctx.Device.GraphicsCommandPool, true); err != nil {
			return err
		}
		if s.overlay, err = NewVulkanCommandBuffer(ctx, ctx.Device.GraphicsCommandPool, true); err != nil {
			return err
		}
	}

	if err := vr.createEngineUniforms(); err != nil {
		return err
	}

	for id, shader := range vr.shaders {
		if shader.pipeline, err = meshPipelineCreate(ctx, vr.layouts, shader.vertex, shader.fragment); err != nil {
			return fmt.Errorf("shader %d pipeline: %w", id, err)
		}
	}

	core.LogDebug("swapchain resources created: %dx%d, %d images", extent.Width, extent.Height, swapchain.ImageCount)
	return nil
}

// createEngineUniforms creates a mapped engine uniform buffer per swapchain
// image and a pool holding exactly one set for each.
func (vr *VulkanRenderer) createEngineUniforms() error {
	ctx := vr.context
	count := ctx.Swapchain.ImageCount

	pool, err := DescriptorPoolCreate(ctx, vk.DescriptorTypeUniformBuffer, count)
	if err != nil {
		return err
	}
	vr.enginePool = pool

	vr.engineUniforms = make([]*VulkanBuffer, 0, count)
	vr.engineSets = make([]vk.DescriptorSet, 0, count)
	for i := uint32(0); i < count; i++ {
		buffer, err := BufferCreate(ctx, uniformSize[engineUniform](),
			vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
			vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
		if err != nil {
			return err
		}
		vr.engineUniforms = append(vr.engineUniforms, buffer)
		if err := buffer.Map(ctx); err != nil {
			return err
		}
		if err := buffer.LoadData(ctx, bytesOf([]engineUniform{vr.camera})); err != nil {
			return err
		}

		set, err := DescriptorSetAllocate(ctx, pool, vr.layouts.Engine)
		if err != nil {
			return err
		}
		WriteUniformDescriptor(ctx, set, buffer)
		vr.engineSets = append(vr.engineSets, set)
	}
	return nil
}

func semaphoreCreate(context *VulkanContext) (vk.Semaphore, error) {
	createInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if res := vk.CreateSemaphore(context.Device.LogicalDevice, &createInfo, context.Allocator, &semaphore); res != vk.Success {
		return vk.NullSemaphore, vulkanError("vkCreateSemaphore", res)
	}
	return semaphore, nil
}

func destroySemaphore(context *VulkanContext, semaphore *vk.Semaphore) {
	if *semaphore != vk.NullSemaphore {
		vk.DestroySemaphore(context.Device.LogicalDevice, *semaphore, context.Allocator)
		*semaphore = vk.NullSemaphore
	}
}
