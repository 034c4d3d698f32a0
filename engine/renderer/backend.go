package renderer

// FrameBackend is the device side of the frame loop. Slots index the frames
// in flight, images index the presentable images of the swapchain.
type FrameBackend interface {
	// WaitForFence blocks until the last submission of slot has finished.
	WaitForFence(slot int) error
	// AcquireNextImage returns core.ErrSwapchainStale when the swapchain no
	// longer matches the surface.
	AcquireNextImage(slot int) (uint32, error)
	// Record fills the scene command buffer of slot, then the overlay one.
	Record(slot int, image uint32) error
	ResetFence(slot int) error
	// Submit hands both command buffers of slot to the graphics queue in a single batch.
	Submit(slot int) error
	// Present returns core.ErrSwapchainStale when the image was presented to
	// an out of date or suboptimal swapchain.
	Present(slot int, image uint32) error
	WaitIdle() error

	DestroySwapchainResources()
	// CreateSwapchainResources blocks while the framebuffer has a zero size.
	CreateSwapchainResources() error
	ImageCount() int
	FramesInFlight() int
}

// DescriptorRebuilder owns descriptor sets that depend on the swapchain.
type DescriptorRebuilder interface {
	CleanupDescriptors()
	RecreateDescriptors() error
}
