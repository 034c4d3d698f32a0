package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/keyframe/engine/math"
)

// pushConstant is the vertex stage push constant block.
type pushConstant struct {
	World math.Mat4
}

// engineUniform is the set 0 uniform block, shared by every draw of a frame.
type engineUniform struct {
	View       math.Mat4
	Projection math.Mat4
}

/**
 * @brief One indexed draw of a mesh. A zero or unknown Texture falls back
 * to the default white texture.
 */
type DrawCommand struct {
	Shader  uint64
	Mesh    uint64
	Texture uint64
	World   math.Mat4
}

/**
 * @brief What the overlay hook records into: a primary command buffer inside
 * the overlay renderpass, which loads the resolved scene image.
 */
type OverlayTarget struct {
	CommandBuffer vk.CommandBuffer
	RenderPass    vk.RenderPass
	Framebuffer   vk.Framebuffer
	Extent        vk.Extent2D
}

// SetDrawCommands replaces the draw list recorded by the following frames.
func (vr *VulkanRenderer) SetDrawCommands(commands []DrawCommand) {
	vr.draws = append(vr.draws[:0], commands...)
}

// SetCamera sets the view and projection written to the engine uniform of each recorded image.
func (vr *VulkanRenderer) SetCamera(view, projection math.Mat4) {
	vr.camera = engineUniform{View: view, Projection: projection}
}

// SetOverlay installs the hook called every frame inside the overlay renderpass.
func (vr *VulkanRenderer) SetOverlay(fn func(OverlayTarget)) {
	vr.overlay = fn
}

// Record fills the scene command buffer of slot for image, then the overlay one.
func (vr *VulkanRenderer) Record(slot int, image uint32) error {
	ctx := vr.context
	s := vr.slots[slot]
	swapchain := ctx.Swapchain

	if err := vr.engineUniforms[image].LoadData(ctx, bytesOf([]engineUniform{vr.camera})); err != nil {
		return err
	}
	if err := vr.flushMeshUniforms(slot); err != nil {
		return err
	}

	// Scene
	cb := s.scene
	if err := cb.Reset(); err != nil {
		return err
	}
	if err := cb.Begin(false, false, false); err != nil {
		return err
	}

	// Dynamic state
	viewport := vk.Viewport{
		X:        0.0,
		Y:        0.0,
		Width:    float32(swapchain.Extent.Width),
		Height:   float32(swapchain.Extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: swapchain.Extent,
	}
	vk.CmdSetViewport(cb.Handle, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(cb.Handle, 0, 1, []vk.Rect2D{scissor})

	ctx.MainRenderpass.RenderpassBegin(cb, swapchain.Framebuffers[image].Handle)
	vr.recordDraws(cb, slot, image)
	ctx.MainRenderpass.RenderpassEnd(cb)
	if err := cb.End(); err != nil {
		return err
	}

	// Overlay
	ov := s.overlay
	if err := ov.Reset(); err != nil {
		return err
	}
	if err := ov.Begin(false, false, false); err != nil {
		return err
	}
	framebuffer := swapchain.OverlayFramebuffers[image].Handle
	ctx.OverlayRenderpass.RenderpassBegin(ov, framebuffer)
	if vr.overlay != nil {
		vr.overlay(OverlayTarget{
			CommandBuffer: ov.Handle,
			RenderPass:    ctx.OverlayRenderpass.Handle,
			Framebuffer:   framebuffer,
			Extent:        swapchain.Extent,
		})
	}
	ctx.OverlayRenderpass.RenderpassEnd(ov)
	return ov.End()
}

func (vr *VulkanRenderer) recordDraws(cb *VulkanCommandBuffer, slot int, image uint32) {
	var bound *VulkanPipeline
	for i := range vr.draws {
		draw := &vr.draws[i]

		shader, ok := vr.shaders[draw.Shader]
		if !ok || shader.pipeline == nil {
			continue
		}
		mesh, ok := vr.meshes[draw.Mesh]
		if !ok {
			continue
		}
		meshSet := mesh.descriptor(slot)
		if meshSet == nil {
			continue
		}
		texture, ok := vr.textures[draw.Texture]
		if !ok || texture.descriptor == nil {
			texture = vr.textures[defaultTextureID]
			if texture == nil || texture.descriptor == nil {
				continue
			}
		}

		layout := shader.pipeline.PipelineLayout
		if shader.pipeline != bound {
			shader.pipeline.Bind(cb, vk.PipelineBindPointGraphics)
			vk.CmdBindDescriptorSets(cb.Handle, vk.PipelineBindPointGraphics, layout, SetEngine, 1, []vk.DescriptorSet{vr.engineSets[image]}, 0, nil)
			bound = shader.pipeline
		}
		vk.CmdBindDescriptorSets(cb.Handle, vk.PipelineBindPointGraphics, layout, SetTexture, 2, []vk.DescriptorSet{texture.descriptor, meshSet}, 0, nil)

		push := pushConstant{World: draw.World}
		vk.CmdPushConstants(cb.Handle, layout, vk.ShaderStageFlags(vk.ShaderStageVertexBit), 0, PushConstantSize, unsafe.Pointer(&push))

		vk.CmdBindVertexBuffers(cb.Handle, 0, 1, []vk.Buffer{mesh.vertex.Handle}, []vk.DeviceSize{0})
		vk.CmdBindIndexBuffer(cb.Handle, mesh.index.Handle, 0, vk.IndexTypeUint32)
		vk.CmdDrawIndexed(cb.Handle, mesh.indexCount, 1, 0, 0, 0)
	}
}
