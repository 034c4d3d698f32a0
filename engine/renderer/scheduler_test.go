package renderer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/spaghettifunk/keyframe/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	frames     int
	images     int
	nextImages int

	ops        []string
	fenceWaits []int
	// waited[slot] is true once the fence of slot was waited on since its last submit.
	waited     []bool
	fenceReset []bool
	violations []string

	acquire    []uint32
	acquireErr []error
	presentErr []error
	acquired   int
	presented  int
}

func newFakeBackend(frames, images int) *fakeBackend {
	b := &fakeBackend{frames: frames, images: images, nextImages: images}
	b.waited = make([]bool, frames)
	b.fenceReset = make([]bool, frames)
	for i := range b.waited {
		b.waited[i] = true
	}
	return b
}

func (b *fakeBackend) WaitForFence(slot int) error {
	b.fenceWaits = append(b.fenceWaits, slot)
	b.waited[slot] = true
	return nil
}

func (b *fakeBackend) AcquireNextImage(slot int) (uint32, error) {
	i := b.acquired
	b.acquired++
	if i < len(b.acquireErr) && b.acquireErr[i] != nil {
		return 0, b.acquireErr[i]
	}
	if i < len(b.acquire) {
		return b.acquire[i], nil
	}
	return uint32(i % b.images), nil
}

func (b *fakeBackend) Record(slot int, image uint32) error {
	b.ops = append(b.ops, fmt.Sprintf("record %d %d", slot, image))
	if !b.waited[slot] {
		b.violations = append(b.violations, fmt.Sprintf("slot %d re-recorded before its fence was waited", slot))
	}
	return nil
}

func (b *fakeBackend) ResetFence(slot int) error {
	b.fenceReset[slot] = true
	return nil
}

func (b *fakeBackend) Submit(slot int) error {
	b.ops = append(b.ops, fmt.Sprintf("submit %d", slot))
	if !b.fenceReset[slot] {
		b.violations = append(b.violations, fmt.Sprintf("slot %d submitted with a signaled fence", slot))
	}
	b.fenceReset[slot] = false
	b.waited[slot] = false
	return nil
}

func (b *fakeBackend) Present(slot int, image uint32) error {
	i := b.presented
	b.presented++
	b.ops = append(b.ops, fmt.Sprintf("present %d", image))
	if i < len(b.presentErr) {
		return b.presentErr[i]
	}
	return nil
}

func (b *fakeBackend) WaitIdle() error {
	b.ops = append(b.ops, "wait idle")
	for i := range b.waited {
		b.waited[i] = true
	}
	return nil
}

func (b *fakeBackend) DestroySwapchainResources() {
	b.ops = append(b.ops, "destroy swapchain")
}

func (b *fakeBackend) CreateSwapchainResources() error {
	b.ops = append(b.ops, "create swapchain")
	b.images = b.nextImages
	return nil
}

func (b *fakeBackend) ImageCount() int     { return b.images }
func (b *fakeBackend) FramesInFlight() int { return b.frames }

type fakeDescriptors struct {
	ops *[]string
}

func (d fakeDescriptors) CleanupDescriptors() {
	*d.ops = append(*d.ops, "cleanup descriptors")
}

func (d fakeDescriptors) RecreateDescriptors() error {
	*d.ops = append(*d.ops, "recreate descriptors")
	return nil
}

func newTestScheduler(frames, images int) (*Scheduler, *fakeBackend) {
	b := newFakeBackend(frames, images)
	return NewScheduler(b, fakeDescriptors{ops: &b.ops}), b
}

func TestSlotFenceWaitedBeforeRerecord(t *testing.T) {
	s, b := newTestScheduler(2, 3)

	var slots []int
	for i := 0; i < 12; i++ {
		require.NoError(t, s.Frame(func(f FrameInfo) error {
			slots = append(slots, f.Slot)
			return nil
		}))
	}

	assert.Empty(t, b.violations)
	assert.Equal(t, []int{0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1}, slots)
	assert.Equal(t, uint64(12), s.FrameNumber())
	assert.Equal(t, StageIdle, s.Stage())
}

func TestImageOwnedByOtherSlotIsWaited(t *testing.T) {
	s, b := newTestScheduler(2, 2)
	b.acquire = []uint32{0, 0}

	require.NoError(t, s.Frame(nil))
	require.NoError(t, s.Frame(nil))

	// frame two waits its own slot, then slot 0 which still owns image 0
	assert.Equal(t, []int{0, 1, 0}, b.fenceWaits)
	assert.Equal(t, []int{1, -1}, s.imagesInFlight)
}

func TestStaleAcquireRecreatesWithoutAdvancing(t *testing.T) {
	s, b := newTestScheduler(2, 3)
	b.acquireErr = []error{core.ErrSwapchainStale}
	b.nextImages = 4

	require.NoError(t, s.Frame(func(FrameInfo) error {
		t.Fatal("update must not run for a stale acquire")
		return nil
	}))

	assert.Equal(t, []string{
		"wait idle",
		"destroy swapchain",
		"cleanup descriptors",
		"create swapchain",
		"recreate descriptors",
	}, b.ops)
	assert.Equal(t, 0, s.CurrentSlot())
	assert.Equal(t, uint64(0), s.FrameNumber())
	assert.Equal(t, []int{-1, -1, -1, -1}, s.imagesInFlight)
}

func TestStalePresentRecreatesAfterAdvancing(t *testing.T) {
	s, b := newTestScheduler(2, 3)
	b.presentErr = []error{core.ErrSwapchainStale}

	require.NoError(t, s.Frame(nil))

	assert.Equal(t, []string{
		"record 0 0",
		"submit 0",
		"present 0",
		"wait idle",
		"destroy swapchain",
		"cleanup descriptors",
		"create swapchain",
		"recreate descriptors",
	}, b.ops)
	assert.Equal(t, 1, s.CurrentSlot())
	assert.Equal(t, []int{-1, -1, -1}, s.imagesInFlight)
}

func TestRequestResizeRecreatesOnce(t *testing.T) {
	s, b := newTestScheduler(2, 3)
	s.RequestResize()

	require.NoError(t, s.Frame(nil))
	require.NoError(t, s.Frame(nil))

	recreations := 0
	for _, op := range b.ops {
		if op == "create swapchain" {
			recreations++
		}
	}
	assert.Equal(t, 1, recreations)
	assert.Empty(t, b.violations)
}

func TestUpdateErrorStopsTheFrame(t *testing.T) {
	s, b := newTestScheduler(2, 3)
	boom := errors.New("boom")

	err := s.Frame(func(FrameInfo) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, b.ops)
	assert.Equal(t, 0, s.CurrentSlot())
}
