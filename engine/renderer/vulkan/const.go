package vulkan

import "unsafe"

/**
 * @brief Descriptor set indices of the mesh pipeline. Set 0 holds the
 * camera matrices, set 1 the base colour texture, set 2 the mesh uniform.
 */
const (
	SetEngine uint32 = iota
	SetTexture
	SetMesh
)

/** @brief The entry point of every shader stage. */
const ShaderEntryPoint = "main"

/** @brief The push constant range carries the entity world matrix. */
const PushConstantSize = uint32(unsafe.Sizeof(pushConstant{}))

// Frames in flight accepted by the renderer.
const (
	MinFramesInFlight = 1
	MaxFramesInFlight = 3
)

// Bound on every fence wait. A timeout is fatal.
const fenceTimeout = ^uint64(0)
