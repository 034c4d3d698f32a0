package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/keyframe/engine/core"
	kmath "github.com/spaghettifunk/keyframe/engine/math"
)

type VulkanSwapchain struct {
	ImageFormat vk.SurfaceFormat
	PresentMode vk.PresentMode
	Extent      vk.Extent2D
	Handle      vk.Swapchain
	ImageCount  uint32
	Images      []vk.Image
	Views       []vk.ImageView

	// Multisampled colour target, nil when multisampling is off.
	ColorAttachment *VulkanImage
	DepthAttachment *VulkanImage

	// framebuffers used for on-screen rendering.
	Framebuffers []*VulkanFramebuffer
	// framebuffers of the overlay renderpass, one per image.
	OverlayFramebuffers []*VulkanFramebuffer
}

type VulkanSwapchainSupportInfo struct {
	Capabilities     vk.SurfaceCapabilities
	FormatCount      uint32
	Formats          []vk.SurfaceFormat
	PresentModeCount uint32
	PresentModes     []vk.PresentMode
}

// chooseSurfaceFormat prefers BGRA8 unorm in the sRGB colour space, else the first format.
func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	preferred := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	if len(formats) == 0 {
		return preferred
	}
	for _, format := range formats {
		if format.Format == preferred.Format && format.ColorSpace == preferred.ColorSpace {
			return format
		}
	}
	return formats[0]
}

// choosePresentMode prefers mailbox, else FIFO which every device supports.
// Without vsync immediate mode is tried first.
func choosePresentMode(modes []vk.PresentMode, vsync bool) vk.PresentMode {
	has := func(want vk.PresentMode) bool {
		for _, mode := range modes {
			if mode == want {
				return true
			}
		}
		return false
	}
	if !vsync && has(vk.PresentModeImmediate) {
		return vk.PresentModeImmediate
	}
	if has(vk.PresentModeMailbox) {
		return vk.PresentModeMailbox
	}
	return vk.PresentModeFifo
}

// chooseExtent uses the current extent of the surface unless the surface lets
// the swapchain decide, in which case the requested size is clamped.
func chooseExtent(capabilities vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		return capabilities.CurrentExtent
	}
	minExtent := capabilities.MinImageExtent
	maxExtent := capabilities.MaxImageExtent
	return vk.Extent2D{
		Width:  kmath.Clamp(width, minExtent.Width, maxExtent.Width),
		Height: kmath.Clamp(height, minExtent.Height, maxExtent.Height),
	}
}

// chooseImageCount asks for one image more than the minimum, within the maximum when there is one.
func chooseImageCount(capabilities vk.SurfaceCapabilities) uint32 {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && imageCount > capabilities.MaxImageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

// SwapchainCreate creates the swapchain, its image views and the depth and
// multisampled colour targets sized to its extent.
func SwapchainCreate(context *VulkanContext, width, height uint32, vsync bool) (*VulkanSwapchain, error) {
	device := context.Device
	support := device.SwapchainSupport

	swapchain := &VulkanSwapchain{
		ImageFormat: chooseSurfaceFormat(support.Formats),
		PresentMode: choosePresentMode(support.PresentModes, vsync),
		Extent:      chooseExtent(support.Capabilities, width, height),
	}
	imageCount := chooseImageCount(support.Capabilities)

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      swapchain.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      swapchain.PresentMode,
		Clipped:          vk.True,
	}

	// Setup the queue family indices
	if device.GraphicsQueueIndex != device.PresentQueueIndex {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeConcurrent
		swapchainCreateInfo.QueueFamilyIndexCount = 2
		swapchainCreateInfo.PQueueFamilyIndices = []uint32{
			uint32(device.GraphicsQueueIndex),
			uint32(device.PresentQueueIndex),
		}
	} else {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var swapchainHandle vk.Swapchain
	if res := vk.CreateSwapchain(device.LogicalDevice, &swapchainCreateInfo, context.Allocator, &swapchainHandle); res != vk.Success {
		err := vulkanError("vkCreateSwapchainKHR", res)
		core.LogError(err.Error())
		return nil, err
	}
	swapchain.Handle = swapchainHandle

	// Images
	if res := vk.GetSwapchainImages(device.LogicalDevice, swapchain.Handle, &swapchain.ImageCount, nil); res != vk.Success {
		swapchain.SwapchainDestroy(context)
		return nil, vulkanError("vkGetSwapchainImagesKHR", res)
	}
	swapchain.Images = make([]vk.Image, swapchain.ImageCount)
	if res := vk.GetSwapchainImages(device.LogicalDevice, swapchain.Handle, &swapchain.ImageCount, swapchain.Images); res != vk.Success {
		swapchain.SwapchainDestroy(context)
		return nil, vulkanError("vkGetSwapchainImagesKHR", res)
	}

	// Views
	swapchain.Views = make([]vk.ImageView, swapchain.ImageCount)
	for i := range swapchain.Images {
		view, err := createImageView(context, swapchain.Images[i], swapchain.ImageFormat.Format, vk.ImageAspectFlags(vk.ImageAspectColorBit), 1)
		if err != nil {
			swapchain.SwapchainDestroy(context)
			return nil, err
		}
		swapchain.Views[i] = view
	}

	// Depth resources
	if !DeviceDetectDepthFormat(device) {
		device.DepthFormat = vk.FormatUndefined
		swapchain.SwapchainDestroy(context)
		return nil, fmt.Errorf("failed to find a supported depth format")
	}
	depthAttachment, err := ImageCreate(context, ImageConfig{
		Width:      swapchain.Extent.Width,
		Height:     swapchain.Extent.Height,
		Samples:    device.MSAASamples,
		Format:     device.DepthFormat,
		Tiling:     vk.ImageTilingOptimal,
		Usage:      vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		Memory:     vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		CreateView: true,
		ViewAspect: vk.ImageAspectFlags(vk.ImageAspectDepthBit),
	})
	if err != nil {
		swapchain.SwapchainDestroy(context)
		return nil, err
	}
	swapchain.DepthAttachment = depthAttachment

	if device.MSAASamples != vk.SampleCount1Bit {
		colorAttachment, err := ImageCreate(context, ImageConfig{
			Width:      swapchain.Extent.Width,
			Height:     swapchain.Extent.Height,
			Samples:    device.MSAASamples,
			Format:     swapchain.ImageFormat.Format,
			Tiling:     vk.ImageTilingOptimal,
			Usage:      vk.ImageUsageFlags(vk.ImageUsageTransientAttachmentBit | vk.ImageUsageColorAttachmentBit),
			Memory:     vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
			CreateView: true,
			ViewAspect: vk.ImageAspectFlags(vk.ImageAspectColorBit),
		})
		if err != nil {
			swapchain.SwapchainDestroy(context)
			return nil, err
		}
		swapchain.ColorAttachment = colorAttachment
	}

	core.LogInfo("Swapchain created successfully: %dx%d, %d images.", swapchain.Extent.Width, swapchain.Extent.Height, swapchain.ImageCount)
	return swapchain, nil
}

// SwapchainDestroy releases the views and attachments, then the swapchain.
// The images themselves belong to the swapchain.
func (vs *VulkanSwapchain) SwapchainDestroy(context *VulkanContext) {
	if vs.ColorAttachment != nil {
		vs.ColorAttachment.ImageDestroy(context)
		vs.ColorAttachment = nil
	}
	if vs.DepthAttachment != nil {
		vs.DepthAttachment.ImageDestroy(context)
		vs.DepthAttachment = nil
	}
	for i := range vs.Views {
		if vs.Views[i] != nil {
			vk.DestroyImageView(context.Device.LogicalDevice, vs.Views[i], context.Allocator)
		}
	}
	vs.Views = nil
	vs.Images = nil
	if vs.Handle != nil {
		vk.DestroySwapchain(context.Device.LogicalDevice, vs.Handle, context.Allocator)
		vs.Handle = nil
	}
	vs.ImageCount = 0
}

// AcquireNextImage returns the index of the next presentable image. An out of
// date or suboptimal swapchain yields core.ErrSwapchainStale.
func (vs *VulkanSwapchain) AcquireNextImage(context *VulkanContext, timeoutNs uint64, imageAvailable vk.Semaphore) (uint32, error) {
	var imageIndex uint32
	result := vk.AcquireNextImage(context.Device.LogicalDevice, vs.Handle, timeoutNs, imageAvailable, vk.NullFence, &imageIndex)
	switch result {
	case vk.Success:
		return imageIndex, nil
	case vk.ErrorOutOfDate, vk.Suboptimal:
		return imageIndex, core.ErrSwapchainStale
	default:
		return 0, vulkanError("vkAcquireNextImageKHR", result)
	}
}

// Present queues image for presentation once renderComplete is signaled.
func (vs *VulkanSwapchain) Present(context *VulkanContext, renderComplete vk.Semaphore, imageIndex uint32) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderComplete},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{imageIndex},
	}

	var result vk.Result
	context.Locks.SafeQueueCall(uint32(context.Device.PresentQueueIndex), func() error {
		result = vk.QueuePresent(context.Device.PresentQueue, &presentInfo)
		return nil
	})
	switch result {
	case vk.Success:
		return nil
	case vk.ErrorOutOfDate, vk.Suboptimal:
		return core.ErrSwapchainStale
	default:
		return vulkanError("vkQueuePresentKHR", result)
	}
}
