package resources

import (
	"image"

	"github.com/spaghettifunk/keyframe/engine/math"
)

type fakeGPU struct {
	textureUploads map[uint64]int
	mipLevels      map[uint64]uint32
	meshUploads    map[uint64]int
	meshIndices    map[uint64]int
	uniforms       map[uint64]MeshUniform
	shaders        map[uint64]int

	texturePools  int
	textureSets   []uint64
	meshPoolSizes []uint32
	meshSets      []uint64
	destroyed     []uint64
	waits         int
	uploadErr     error
}

func newFakeGPU() *fakeGPU {
	return &fakeGPU{
		textureUploads: map[uint64]int{},
		mipLevels:      map[uint64]uint32{},
		meshUploads:    map[uint64]int{},
		meshIndices:    map[uint64]int{},
		uniforms:       map[uint64]MeshUniform{},
		shaders:        map[uint64]int{},
	}
}

func (g *fakeGPU) UploadTexture(id uint64, img *image.RGBA, mipLevels uint32) error {
	if g.uploadErr != nil {
		return g.uploadErr
	}
	g.textureUploads[id]++
	g.mipLevels[id] = mipLevels
	return nil
}

func (g *fakeGPU) DestroyTexture(id uint64) { g.destroyed = append(g.destroyed, id) }

func (g *fakeGPU) CreateTextureDescriptorPool(maxTextures uint32) error {
	g.texturePools++
	g.textureSets = nil
	return nil
}

func (g *fakeGPU) DestroyTextureDescriptorPool() { g.textureSets = nil }

func (g *fakeGPU) AllocateTextureDescriptor(id uint64) error {
	g.textureSets = append(g.textureSets, id)
	return nil
}

func (g *fakeGPU) UploadMesh(id uint64, vertices []math.Vertex3D, indices []uint32) error {
	g.meshUploads[id]++
	g.meshIndices[id] = len(indices)
	return nil
}

func (g *fakeGPU) DestroyMesh(id uint64) { g.destroyed = append(g.destroyed, id) }

func (g *fakeGPU) CreateMeshDescriptorPool(count uint32) error {
	g.meshPoolSizes = append(g.meshPoolSizes, count)
	g.meshSets = nil
	return nil
}

func (g *fakeGPU) DestroyMeshDescriptorPool() { g.meshSets = nil }

func (g *fakeGPU) AllocateMeshDescriptor(id uint64) error {
	g.meshSets = append(g.meshSets, id)
	return nil
}

func (g *fakeGPU) WriteMeshUniform(id uint64, u *MeshUniform) { g.uniforms[id] = *u }

func (g *fakeGPU) CreateShader(id uint64, vertex, fragment []uint32) error {
	g.shaders[id]++
	return nil
}

func (g *fakeGPU) DestroyShader(id uint64) { g.destroyed = append(g.destroyed, id) }

func (g *fakeGPU) WaitIdle() error {
	g.waits++
	return nil
}
