package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

func TestVulkanSafeString(t *testing.T) {
	assert.Equal(t, "\x00", VulkanSafeString(""))
	assert.Equal(t, "main\x00", VulkanSafeString("main"))
	assert.Equal(t, "main\x00", VulkanSafeString("main\x00"))

	in := []string{"a", "b\x00"}
	out := VulkanSafeStrings(in)
	assert.Equal(t, []string{"a\x00", "b\x00"}, out)
	assert.Equal(t, "a", in[0])
}

func TestCString(t *testing.T) {
	var name [16]byte
	copy(name[:], "VK_LAYER")
	assert.Equal(t, "VK_LAYER", cString(name[:]))
	assert.Equal(t, "full", cString([]byte("full")))
}

func TestVulkanResultString(t *testing.T) {
	assert.Equal(t, "VK_ERROR_OUT_OF_DATE_KHR", VulkanResultString(vk.ErrorOutOfDate))
	assert.Equal(t, "VkResult(-12345)", VulkanResultString(vk.Result(-12345)))
	assert.True(t, VulkanResultIsSuccess(vk.Suboptimal))
	assert.False(t, VulkanResultIsSuccess(vk.ErrorDeviceLost))
	assert.EqualError(t, vulkanError("vkCreateFence", vk.ErrorOutOfHostMemory), "vkCreateFence failed with VK_ERROR_OUT_OF_HOST_MEMORY")
}

func TestBytesOf(t *testing.T) {
	assert.Nil(t, bytesOf([]uint32{}))
	assert.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0}, bytesOf([]uint32{1, 2}))
	assert.Len(t, bytesOf([]pushConstant{{}}), 64)
	assert.Equal(t, uint32(64), PushConstantSize)
}

func TestUniformSizeRoundsTo16(t *testing.T) {
	assert.Equal(t, vk.DeviceSize(128), uniformSize[engineUniform]())
	assert.Equal(t, vk.DeviceSize(16), uniformSize[[3]float32]())
}

func TestVertex3DAttributes(t *testing.T) {
	stride, attributes := Vertex3DAttributes()
	assert.Equal(t, uint32(72), stride)

	offsets := make([]uint32, len(attributes))
	for i, a := range attributes {
		assert.Equal(t, uint32(i), a.Location)
		offsets[i] = a.Offset
	}
	assert.Equal(t, []uint32{0, 12, 24, 32, 40, 56}, offsets)
}
