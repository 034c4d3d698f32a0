package core

import "hash/fnv"

// HashName returns the content address of a named resource. The result is never
// zero, so 0 stays available as the null handle.
func HashName(name string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	v := h.Sum64()
	if v == 0 {
		return 1
	}
	return v
}
