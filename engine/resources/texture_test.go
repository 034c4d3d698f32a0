package resources

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMipLevels(t *testing.T) {
	assert.Equal(t, uint32(1), MipLevels(1, 1))
	assert.Equal(t, uint32(10), MipLevels(512, 512))
	assert.Equal(t, uint32(11), MipLevels(1024, 3))
	assert.Equal(t, uint32(9), MipLevels(300, 200))
}

func TestMipExtentsEndAtOnePixel(t *testing.T) {
	extents := MipExtents(300, 200)
	assert.Len(t, extents, int(MipLevels(300, 200)))
	assert.Equal(t, [2]uint32{300, 200}, extents[0])
	assert.Equal(t, [2]uint32{150, 100}, extents[1])
	assert.Equal(t, [2]uint32{1, 1}, extents[len(extents)-1])

	thin := MipExtents(8, 1)
	assert.Equal(t, [][2]uint32{{8, 1}, {4, 1}, {2, 1}, {1, 1}}, thin)
}
