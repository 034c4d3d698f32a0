package resources

import "math/bits"

// MipLevels returns floor(log2(max(width, height))) + 1.
func MipLevels(width, height uint32) uint32 {
	m := max(width, height)
	if m == 0 {
		return 1
	}
	return uint32(bits.Len32(m))
}

// MipExtents lists the size of every mip level, halving each side and never
// going below one pixel. The last entry is always 1x1.
func MipExtents(width, height uint32) [][2]uint32 {
	levels := MipLevels(width, height)
	out := make([][2]uint32, 0, levels)
	w, h := max(width, 1), max(height, 1)
	for i := uint32(0); i < levels; i++ {
		out = append(out, [2]uint32{w, h})
		w, h = max(w/2, 1), max(h/2, 1)
	}
	return out
}
