package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/keyframe/engine/resources"
)

/** @brief The id the default white texture is kept under. No hashed name maps to 0. */
const defaultTextureID uint64 = 0

/**
 * @brief Device buffers of an uploaded mesh. There is one mapped uniform
 * buffer per frame slot, so a slot only writes the buffer its own
 * submission reads.
 */
type vulkanMesh struct {
	vertex   *VulkanBuffer
	index    *VulkanBuffer
	uniforms []*VulkanBuffer
	/** @brief The set 2 descriptors, one per slot. nil until the mesh pool allocates them. */
	descriptors []vk.DescriptorSet
	indexCount  uint32

	/** @brief The latest uniform block, copied to the slot buffer when a frame is recorded. */
	pose resources.MeshUniform
	/** @brief The record pass that last copied pose, to flush a mesh once per frame. */
	flushed uint64
}

func (m *vulkanMesh) destroy(context *VulkanContext) {
	for _, b := range append([]*VulkanBuffer{m.vertex, m.index}, m.uniforms...) {
		if b != nil {
			b.Destroy(context)
		}
	}
	m.vertex, m.index, m.uniforms = nil, nil, nil
	m.descriptors = nil
}

// descriptor returns the set of slot, nil when it is not allocated.
func (m *vulkanMesh) descriptor(slot int) vk.DescriptorSet {
	if slot < 0 || slot >= len(m.descriptors) {
		return nil
	}
	return m.descriptors[slot]
}

/**
 * @brief A sampled image, its sampler and the set 1 descriptor pointing
 * at them.
 */
type vulkanTexture struct {
	image   *VulkanImage
	sampler vk.Sampler
	/** @brief nil until the texture pool allocates it. */
	descriptor vk.DescriptorSet
}

func (t *vulkanTexture) destroy(context *VulkanContext) {
	if t.sampler != nil {
		vk.DestroySampler(context.Device.LogicalDevice, t.sampler, context.Allocator)
		t.sampler = nil
	}
	if t.image != nil {
		t.image.ImageDestroy(context)
		t.image = nil
	}
	t.descriptor = nil
}
