package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

func TestMaxUsableSampleCount(t *testing.T) {
	supported := vk.SampleCountFlags(vk.SampleCount1Bit | vk.SampleCount2Bit | vk.SampleCount4Bit | vk.SampleCount8Bit)

	tests := []struct {
		name      string
		requested uint32
		want      vk.SampleCountFlagBits
	}{
		{"disabled", 0, vk.SampleCount1Bit},
		{"single", 1, vk.SampleCount1Bit},
		{"exact", 4, vk.SampleCount4Bit},
		{"between", 6, vk.SampleCount4Bit},
		{"capped by device", 64, vk.SampleCount8Bit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaxUsableSampleCount(supported, tt.requested))
		})
	}
}

func family(flags ...vk.QueueFlagBits) vk.QueueFamilyProperties {
	var f vk.QueueFlags
	for _, flag := range flags {
		f |= vk.QueueFlags(flag)
	}
	return vk.QueueFamilyProperties{QueueFlags: f, QueueCount: 1}
}

func TestPickQueueFamiliesPrefersDedicatedTransfer(t *testing.T) {
	families := []vk.QueueFamilyProperties{
		family(vk.QueueGraphicsBit, vk.QueueComputeBit, vk.QueueTransferBit),
		family(vk.QueueComputeBit, vk.QueueTransferBit),
		family(vk.QueueTransferBit),
	}
	info := PickQueueFamilies(families, []bool{true, false, false})

	assert.Equal(t, int32(0), info.GraphicsFamilyIndex)
	assert.Equal(t, int32(0), info.ComputeFamilyIndex)
	assert.Equal(t, int32(2), info.TransferFamilyIndex)
	assert.Equal(t, int32(0), info.PresentFamilyIndex)
}

func TestPickQueueFamiliesPresentPrefersGraphics(t *testing.T) {
	families := []vk.QueueFamilyProperties{
		family(vk.QueueComputeBit),
		family(vk.QueueGraphicsBit, vk.QueueTransferBit),
	}
	info := PickQueueFamilies(families, []bool{true, true})

	assert.Equal(t, int32(1), info.GraphicsFamilyIndex)
	assert.Equal(t, int32(1), info.PresentFamilyIndex)
	assert.Equal(t, int32(0), info.ComputeFamilyIndex)
	assert.Equal(t, int32(1), info.TransferFamilyIndex)
}

func TestPickQueueFamiliesMissing(t *testing.T) {
	info := PickQueueFamilies([]vk.QueueFamilyProperties{family(vk.QueueComputeBit)}, nil)

	assert.Equal(t, int32(-1), info.GraphicsFamilyIndex)
	assert.Equal(t, int32(-1), info.PresentFamilyIndex)
	assert.Equal(t, int32(-1), info.TransferFamilyIndex)
	assert.False(t, info.satisfies(&VulkanPhysicalDeviceRequirements{Graphics: true}))
	assert.True(t, info.satisfies(&VulkanPhysicalDeviceRequirements{Compute: true}))
}
