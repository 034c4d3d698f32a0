package vulkan

import (
	"fmt"
	"image"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/keyframe/engine/assets/loaders"
	"github.com/spaghettifunk/keyframe/engine/core"
	"github.com/spaghettifunk/keyframe/engine/math"
	"github.com/spaghettifunk/keyframe/engine/resources"
)

var _ resources.GPU = (*VulkanRenderer)(nil)

const textureFormat = vk.FormatR8g8b8a8Unorm

// UploadTexture stages img into a device local image, fills its mip chain
// with linear blits and creates the view and sampler.
func (vr *VulkanRenderer) UploadTexture(id uint64, img *image.RGBA, mipLevels uint32) error {
	ctx := vr.context
	if mipLevels > 1 && !FormatSupportsLinearBlit(ctx.Device, textureFormat) {
		return core.ErrUnsupportedBlitFormat
	}
	img = loaders.ToRGBA(img)
	width, height := uint32(img.Rect.Dx()), uint32(img.Rect.Dy())

	staging, err := BufferCreate(ctx, vk.DeviceSize(len(img.Pix)),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return err
	}
	defer staging.Destroy(ctx)
	if err := staging.LoadData(ctx, img.Pix); err != nil {
		return err
	}

	// NOTE: Lots of assumptions here, different texture types will require
	// different options here.
	vimg, err := ImageCreate(ctx, ImageConfig{
		Width:     width,
		Height:    height,
		MipLevels: mipLevels,
		Format:    textureFormat,
		Tiling:    vk.ImageTilingOptimal,
		Usage:     vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit | vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit),
		Memory:    vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
	})
	if err != nil {
		return err
	}

	var recordErr error
	if err := singleUse(ctx, func(cb *VulkanCommandBuffer) {
		if recordErr = vimg.TransitionLayout(cb, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal, 0, vimg.MipLevels); recordErr != nil {
			return
		}
		vimg.CopyFromBuffer(staging.Handle, cb)
		recordErr = vimg.GenerateMipmaps(ctx, cb)
	}); err != nil {
		vimg.ImageDestroy(ctx)
		return err
	}
	if recordErr != nil {
		vimg.ImageDestroy(ctx)
		return recordErr
	}

	if err := vimg.ViewCreate(ctx, vk.ImageAspectFlags(vk.ImageAspectColorBit)); err != nil {
		vimg.ImageDestroy(ctx)
		return err
	}
	sampler, err := SamplerCreate(ctx, mipLevels)
	if err != nil {
		vimg.ImageDestroy(ctx)
		return err
	}

	if old, ok := vr.textures[id]; ok {
		old.destroy(ctx)
	}
	vr.textures[id] = &vulkanTexture{image: vimg, sampler: sampler}
	return nil
}

func (vr *VulkanRenderer) DestroyTexture(id uint64) {
	if id == defaultTextureID {
		return
	}
	if t, ok := vr.textures[id]; ok {
		t.destroy(vr.context)
		delete(vr.textures, id)
	}
}

// createDefaultTexture uploads the 1x1 white texture untextured meshes sample.
func (vr *VulkanRenderer) createDefaultTexture() error {
	white := image.NewRGBA(image.Rect(0, 0, 1, 1))
	copy(white.Pix, []byte{255, 255, 255, 255})
	return vr.UploadTexture(defaultTextureID, white, 1)
}

// CreateTextureDescriptorPool creates a pool for maxTextures textures plus
// the default one, whose set is allocated right away.
func (vr *VulkanRenderer) CreateTextureDescriptorPool(maxTextures uint32) error {
	pool, err := DescriptorPoolCreate(vr.context, vk.DescriptorTypeCombinedImageSampler, maxTextures+1)
	if err != nil {
		return err
	}
	vr.texturePool = pool
	return vr.AllocateTextureDescriptor(defaultTextureID)
}

// DestroyTextureDescriptorPool frees the pool and with it every texture set.
func (vr *VulkanRenderer) DestroyTextureDescriptorPool() {
	if vr.texturePool == nil {
		return
	}
	DescriptorPoolDestroy(vr.context, vr.texturePool)
	vr.texturePool = nil
	for _, t := range vr.textures {
		t.descriptor = nil
	}
}

func (vr *VulkanRenderer) AllocateTextureDescriptor(id uint64) error {
	t, ok := vr.textures[id]
	if !ok {
		return fmt.Errorf("texture %d: %w", id, core.ErrNullHandle)
	}
	if vr.texturePool == nil {
		return fmt.Errorf("texture %d: no texture descriptor pool", id)
	}
	set, err := DescriptorSetAllocate(vr.context, vr.texturePool, vr.layouts.Texture)
	if err != nil {
		return err
	}
	WriteSamplerDescriptor(vr.context, set, t.image.View, t.sampler)
	t.descriptor = set
	return nil
}

// UploadMesh creates device local vertex and index buffers and one mapped
// mesh uniform buffer per frame slot, initialised to an identity transform.
func (vr *VulkanRenderer) UploadMesh(id uint64, vertices []math.Vertex3D, indices []uint32) error {
	ctx := vr.context
	if len(vertices) == 0 || len(indices) == 0 {
		return fmt.Errorf("mesh %d: no geometry", id)
	}

	mesh := &vulkanMesh{
		indexCount: uint32(len(indices)),
		pose:       resources.MeshUniform{Matrix: math.NewMat4Identity()},
	}
	var err error
	if mesh.vertex, err = uploadDeviceLocal(ctx, bytesOf(vertices), vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit)); err != nil {
		return err
	}
	if mesh.index, err = uploadDeviceLocal(ctx, bytesOf(indices), vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit)); err != nil {
		mesh.destroy(ctx)
		return err
	}
	for range vr.slots {
		uniform, err := BufferCreate(ctx, uniformSize[resources.MeshUniform](),
			vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
			vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
		if err != nil {
			mesh.destroy(ctx)
			return err
		}
		mesh.uniforms = append(mesh.uniforms, uniform)
		if err := uniform.Map(ctx); err != nil {
			mesh.destroy(ctx)
			return err
		}
		if err := uniform.LoadData(ctx, bytesOf([]resources.MeshUniform{mesh.pose})); err != nil {
			mesh.destroy(ctx)
			return err
		}
	}

	if old, ok := vr.meshes[id]; ok {
		old.destroy(ctx)
	}
	vr.meshes[id] = mesh
	return nil
}

func (vr *VulkanRenderer) DestroyMesh(id uint64) {
	if m, ok := vr.meshes[id]; ok {
		m.destroy(vr.context)
		delete(vr.meshes, id)
	}
}

// meshPoolSize is the number of sets a pool for count meshes must hold.
func (vr *VulkanRenderer) meshPoolSize(count uint32) uint32 {
	return count * uint32(len(vr.slots))
}

func (vr *VulkanRenderer) CreateMeshDescriptorPool(count uint32) error {
	pool, err := DescriptorPoolCreate(vr.context, vk.DescriptorTypeUniformBuffer, vr.meshPoolSize(count))
	if err != nil {
		return err
	}
	vr.meshPool = pool
	return nil
}

func (vr *VulkanRenderer) DestroyMeshDescriptorPool() {
	if vr.meshPool == nil {
		return
	}
	DescriptorPoolDestroy(vr.context, vr.meshPool)
	vr.meshPool = nil
	for _, m := range vr.meshes {
		m.descriptors = nil
	}
}

// AllocateMeshDescriptor allocates one set per frame slot, each pointing at
// the uniform buffer of that slot.
func (vr *VulkanRenderer) AllocateMeshDescriptor(id uint64) error {
	m, ok := vr.meshes[id]
	if !ok {
		return fmt.Errorf("mesh %d: %w", id, core.ErrNullHandle)
	}
	if vr.meshPool == nil {
		return fmt.Errorf("mesh %d: no mesh descriptor pool", id)
	}
	sets := make([]vk.DescriptorSet, 0, len(m.uniforms))
	for _, uniform := range m.uniforms {
		set, err := DescriptorSetAllocate(vr.context, vr.meshPool, vr.layouts.Mesh)
		if err != nil {
			return err
		}
		WriteUniformDescriptor(vr.context, set, uniform)
		sets = append(sets, set)
	}
	m.descriptors = sets
	return nil
}

// WriteMeshUniform stages u for the mesh. The block reaches the uniform
// buffer of a slot when that slot records a frame drawing the mesh.
func (vr *VulkanRenderer) WriteMeshUniform(id uint64, u *resources.MeshUniform) {
	if m, ok := vr.meshes[id]; ok {
		m.pose = *u
	}
}

// pendingMeshes returns the meshes drawn by the current draw list that have
// not been flushed during record pass, each once.
func (vr *VulkanRenderer) pendingMeshes(pass uint64) []*vulkanMesh {
	var out []*vulkanMesh
	for i := range vr.draws {
		m, ok := vr.meshes[vr.draws[i].Mesh]
		if !ok || m.flushed == pass {
			continue
		}
		m.flushed = pass
		out = append(out, m)
	}
	return out
}

// flushMeshUniforms copies the staged pose of every drawn mesh into the
// uniform buffer of slot. The slot fence has been waited on, so no
// submission reads those buffers.
func (vr *VulkanRenderer) flushMeshUniforms(slot int) error {
	vr.recordPass++
	for _, m := range vr.pendingMeshes(vr.recordPass) {
		if slot >= len(m.uniforms) {
			continue
		}
		if err := m.uniforms[slot].LoadData(vr.context, bytesOf([]resources.MeshUniform{m.pose})); err != nil {
			return err
		}
	}
	return nil
}

// CreateShader stores the program and, once a renderpass exists, rebuilds
// its pipeline after the device has gone idle. A program that fails to build
// leaves the previous one in place.
func (vr *VulkanRenderer) CreateShader(id uint64, vertex, fragment []uint32) error {
	ctx := vr.context
	shader, ok := vr.shaders[id]
	if !ok {
		shader = &vulkanShader{}
	}

	if ctx.MainRenderpass != nil {
		if err := vr.WaitIdle(); err != nil {
			return err
		}
		pipeline, err := meshPipelineCreate(ctx, vr.layouts, vertex, fragment)
		if err != nil {
			return err
		}
		if shader.pipeline != nil {
			shader.pipeline.Destroy(ctx)
		}
		shader.pipeline = pipeline
	}

	shader.vertex = vertex
	shader.fragment = fragment
	vr.shaders[id] = shader
	return nil
}

func (vr *VulkanRenderer) DestroyShader(id uint64) {
	if s, ok := vr.shaders[id]; ok {
		if s.pipeline != nil {
			s.pipeline.Destroy(vr.context)
		}
		delete(vr.shaders, id)
	}
}
