package resources

import (
	"image"

	"github.com/spaghettifunk/keyframe/engine/math"
)

// GPU is the device side of the resource manager. Every resource is addressed
// by the id of its cache entry.
type GPU interface {
	// UploadTexture creates a sampled image with the given number of mip levels
	// and fills every level from img.
	UploadTexture(id uint64, img *image.RGBA, mipLevels uint32) error
	DestroyTexture(id uint64)
	CreateTextureDescriptorPool(maxTextures uint32) error
	DestroyTextureDescriptorPool()
	AllocateTextureDescriptor(id uint64) error

	// UploadMesh creates the vertex, index and uniform buffers of a mesh.
	UploadMesh(id uint64, vertices []math.Vertex3D, indices []uint32) error
	DestroyMesh(id uint64)
	CreateMeshDescriptorPool(count uint32) error
	DestroyMeshDescriptorPool()
	AllocateMeshDescriptor(id uint64) error
	// WriteMeshUniform stages the uniform block of a mesh. It must not touch a
	// buffer that a frame in flight may read.
	WriteMeshUniform(id uint64, u *MeshUniform)

	// CreateShader stores the bytecode of a shader program. Creating an id that
	// exists replaces its stages and rebuilds its pipeline.
	CreateShader(id uint64, vertex, fragment []uint32) error
	DestroyShader(id uint64)

	WaitIdle() error
}
