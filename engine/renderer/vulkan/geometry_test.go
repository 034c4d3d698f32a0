package vulkan

import (
	"testing"

	"github.com/spaghettifunk/keyframe/engine/math"
	"github.com/spaghettifunk/keyframe/engine/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(frames int) *VulkanRenderer {
	vr := New(nil, RendererConfig{FramesInFlight: frames})
	vr.slots = make([]*frameSlot, vr.config.FramesInFlight)
	return vr
}

func TestWriteMeshUniformOnlyStages(t *testing.T) {
	vr := newTestRenderer(2)
	mesh := &vulkanMesh{pose: resources.MeshUniform{Matrix: math.NewMat4Identity()}}
	vr.meshes[7] = mesh

	pose := resources.MeshUniform{Matrix: math.NewMat4Translation(math.NewVec3(1, 2, 3)), JointCount: 2}
	vr.WriteMeshUniform(7, &pose)
	assert.Equal(t, pose, mesh.pose)

	// unknown meshes are ignored
	vr.WriteMeshUniform(8, &pose)
	assert.Len(t, vr.meshes, 1)
}

func TestPendingMeshesFlushesEachDrawnMeshOnce(t *testing.T) {
	vr := newTestRenderer(2)
	a, b, idle := &vulkanMesh{}, &vulkanMesh{}, &vulkanMesh{}
	vr.meshes[1], vr.meshes[2], vr.meshes[3] = a, b, idle

	vr.SetDrawCommands([]DrawCommand{{Mesh: 1}, {Mesh: 2}, {Mesh: 1}, {Mesh: 99}})

	got := vr.pendingMeshes(1)
	require.Len(t, got, 2)
	assert.Same(t, a, got[0])
	assert.Same(t, b, got[1])
	assert.Empty(t, vr.pendingMeshes(1))

	// the next record pass flushes them again
	assert.Len(t, vr.pendingMeshes(2), 2)
	assert.Zero(t, idle.flushed)
}

func TestMeshPoolHoldsASetPerSlot(t *testing.T) {
	assert.Equal(t, uint32(6), newTestRenderer(3).meshPoolSize(2))
	assert.Equal(t, uint32(2), newTestRenderer(1).meshPoolSize(2))
}

func TestMeshDescriptorUnallocatedIsNil(t *testing.T) {
	m := &vulkanMesh{}
	assert.Nil(t, m.descriptor(0))
	assert.Nil(t, m.descriptor(-1))
}
