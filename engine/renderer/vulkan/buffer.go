package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
)

/**
 * @brief A buffer and the memory bound to it. Mapped is non-nil while a
 * host visible buffer is persistently mapped.
 */
type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   vk.DeviceSize
	Usage  vk.BufferUsageFlags
	Mapped unsafe.Pointer
}

func BufferCreate(context *VulkanContext, size vk.DeviceSize, usage vk.BufferUsageFlags, memoryFlags vk.MemoryPropertyFlags) (*VulkanBuffer, error) {
	outBuffer := &VulkanBuffer{
		Size:  size,
		Usage: usage,
	}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	var handle vk.Buffer
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &bufferInfo, context.Allocator, &handle); res != vk.Success {
		return nil, vulkanError("vkCreateBuffer", res)
	}
	outBuffer.Handle = handle

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, outBuffer.Handle, &requirements)
	requirements.Deref()

	memoryType, err := context.FindMemoryIndex(requirements.MemoryTypeBits, memoryFlags)
	if err != nil {
		outBuffer.Destroy(context)
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryType,
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &memory); res != vk.Success {
		outBuffer.Destroy(context)
		return nil, vulkanError("vkAllocateMemory", res)
	}
	outBuffer.Memory = memory

	if res := vk.BindBufferMemory(context.Device.LogicalDevice, outBuffer.Handle, outBuffer.Memory, 0); res != vk.Success {
		outBuffer.Destroy(context)
		return nil, vulkanError("vkBindBufferMemory", res)
	}
	return outBuffer, nil
}

func (vb *VulkanBuffer) Destroy(context *VulkanContext) {
	if vb.Mapped != nil {
		vb.Unmap(context)
	}
	if vb.Memory != nil {
		vk.FreeMemory(context.Device.LogicalDevice, vb.Memory, context.Allocator)
		vb.Memory = nil
	}
	if vb.Handle != nil {
		vk.DestroyBuffer(context.Device.LogicalDevice, vb.Handle, context.Allocator)
		vb.Handle = nil
	}
	vb.Size = 0
}

// Map persistently maps the whole buffer.
func (vb *VulkanBuffer) Map(context *VulkanContext) error {
	return context.Locks.SafeCall(MemoryManagement, func() error {
		var data unsafe.Pointer
		if res := vk.MapMemory(context.Device.LogicalDevice, vb.Memory, 0, vb.Size, 0, &data); res != vk.Success {
			return vulkanError("vkMapMemory", res)
		}
		vb.Mapped = data
		return nil
	})
}

func (vb *VulkanBuffer) Unmap(context *VulkanContext) {
	context.Locks.SafeCall(MemoryManagement, func() error {
		vk.UnmapMemory(context.Device.LogicalDevice, vb.Memory)
		return nil
	})
	vb.Mapped = nil
}

// LoadData copies data to the start of a host visible buffer, mapping it
// for the duration of the copy when it is not mapped already.
func (vb *VulkanBuffer) LoadData(context *VulkanContext, data []byte) error {
	if vb.Mapped != nil {
		vk.Memcopy(vb.Mapped, data)
		return nil
	}
	if err := vb.Map(context); err != nil {
		return err
	}
	vk.Memcopy(vb.Mapped, data)
	vb.Unmap(context)
	return nil
}

// CopyTo records and executes a copy of size bytes into dst.
func (vb *VulkanBuffer) CopyTo(context *VulkanContext, dst *VulkanBuffer, size vk.DeviceSize) error {
	return singleUse(context, func(cb *VulkanCommandBuffer) {
		vk.CmdCopyBuffer(cb.Handle, vb.Handle, dst.Handle, 1, []vk.BufferCopy{{Size: size}})
	})
}

// uploadDeviceLocal creates a device local buffer with usage and fills it
// with data through a staging buffer.
func uploadDeviceLocal(context *VulkanContext, data []byte, usage vk.BufferUsageFlags) (*VulkanBuffer, error) {
	size := vk.DeviceSize(len(data))
	staging, err := BufferCreate(context, size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(context)

	if err := staging.LoadData(context, data); err != nil {
		return nil, err
	}

	buffer, err := BufferCreate(context, size,
		usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, err
	}
	if err := staging.CopyTo(context, buffer, size); err != nil {
		buffer.Destroy(context)
		return nil, err
	}
	return buffer, nil
}
