package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
)

/**
 * @brief The descriptor set layouts of the mesh pipeline, created once with
 * the device and shared by every pipeline and pool.
 */
type VulkanDescriptorLayouts struct {
	/** @brief Binding 0: the engine uniform buffer, vertex stage. */
	Engine vk.DescriptorSetLayout
	/** @brief Binding 0: the base colour sampler, fragment stage. */
	Texture vk.DescriptorSetLayout
	/** @brief Binding 0: the mesh uniform buffer, vertex stage. */
	Mesh vk.DescriptorSetLayout
}

// All returns the layouts in set index order.
func (dl *VulkanDescriptorLayouts) All() []vk.DescriptorSetLayout {
	return []vk.DescriptorSetLayout{dl.Engine, dl.Texture, dl.Mesh}
}

func DescriptorLayoutsCreate(context *VulkanContext) (*VulkanDescriptorLayouts, error) {
	layouts := &VulkanDescriptorLayouts{}
	var err error
	if layouts.Engine, err = descriptorSetLayoutCreate(context, vk.DescriptorTypeUniformBuffer, vk.ShaderStageVertexBit); err != nil {
		return nil, err
	}
	if layouts.Texture, err = descriptorSetLayoutCreate(context, vk.DescriptorTypeCombinedImageSampler, vk.ShaderStageFragmentBit); err != nil {
		layouts.Destroy(context)
		return nil, err
	}
	if layouts.Mesh, err = descriptorSetLayoutCreate(context, vk.DescriptorTypeUniformBuffer, vk.ShaderStageVertexBit); err != nil {
		layouts.Destroy(context)
		return nil, err
	}
	return layouts, nil
}

func (dl *VulkanDescriptorLayouts) Destroy(context *VulkanContext) {
	for _, layout := range []*vk.DescriptorSetLayout{&dl.Engine, &dl.Texture, &dl.Mesh} {
		if *layout != nil {
			vk.DestroyDescriptorSetLayout(context.Device.LogicalDevice, *layout, context.Allocator)
			*layout = nil
		}
	}
}

func descriptorSetLayoutCreate(context *VulkanContext, descriptorType vk.DescriptorType, stage vk.ShaderStageFlagBits) (vk.DescriptorSetLayout, error) {
	binding := vk.DescriptorSetLayoutBinding{
		Binding:         0,
		DescriptorType:  descriptorType,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(stage),
	}
	createInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings:    []vk.DescriptorSetLayoutBinding{binding},
	}
	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &createInfo, context.Allocator, &layout); res != vk.Success {
		return nil, vulkanError("vkCreateDescriptorSetLayout", res)
	}
	return layout, nil
}

// DescriptorPoolCreate creates a pool of maxSets sets holding one descriptor of descriptorType each.
func DescriptorPoolCreate(context *VulkanContext, descriptorType vk.DescriptorType, maxSets uint32) (vk.DescriptorPool, error) {
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		PoolSizeCount: 1,
		PPoolSizes: []vk.DescriptorPoolSize{{
			Type:            descriptorType,
			DescriptorCount: maxSets,
		}},
		MaxSets: maxSets,
	}
	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(context.Device.LogicalDevice, &poolInfo, context.Allocator, &pool); res != vk.Success {
		return nil, vulkanError("vkCreateDescriptorPool", res)
	}
	return pool, nil
}

// DescriptorPoolDestroy destroys pool and implicitly frees every set allocated from it.
func DescriptorPoolDestroy(context *VulkanContext, pool vk.DescriptorPool) {
	if pool != nil {
		vk.DestroyDescriptorPool(context.Device.LogicalDevice, pool, context.Allocator)
	}
}

func DescriptorSetAllocate(context *VulkanContext, pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}
	var set vk.DescriptorSet
	err := context.Locks.SafeCall(DescriptorManagement, func() error {
		if res := vk.AllocateDescriptorSets(context.Device.LogicalDevice, &allocateInfo, &set); res != vk.Success {
			return vulkanError("vkAllocateDescriptorSets", res)
		}
		return nil
	})
	return set, err
}

// WriteUniformDescriptor points binding 0 of set at the whole of buffer.
func WriteUniformDescriptor(context *VulkanContext, set vk.DescriptorSet, buffer *VulkanBuffer) {
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      0,
		DstArrayElement: 0,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: buffer.Handle,
			Offset: 0,
			Range:  buffer.Size,
		}},
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
}

// WriteSamplerDescriptor points binding 0 of set at a shader readable image.
func WriteSamplerDescriptor(context *VulkanContext, set vk.DescriptorSet, view vk.ImageView, sampler vk.Sampler) {
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      0,
		DstArrayElement: 0,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		DescriptorCount: 1,
		PImageInfo: []vk.DescriptorImageInfo{{
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
			ImageView:   view,
			Sampler:     sampler,
		}},
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
}

// uniformSize rounds the size of T up to the 16 byte granularity of std140 blocks.
func uniformSize[T any]() vk.DeviceSize {
	var zero T
	size := vk.DeviceSize(unsafe.Sizeof(zero))
	return (size + 15) &^ 15
}
