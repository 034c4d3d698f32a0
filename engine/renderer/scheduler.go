package renderer

import (
	"errors"
	"sync/atomic"

	"github.com/spaghettifunk/keyframe/engine/core"
)

type Stage int

const (
	StageIdle Stage = iota
	StageAcquireImage
	StageRecord
	StageSubmit
	StagePresent
	StageRecreate
)

func (s Stage) String() string {
	switch s {
	case StageAcquireImage:
		return "acquire"
	case StageRecord:
		return "record"
	case StageSubmit:
		return "submit"
	case StagePresent:
		return "present"
	case StageRecreate:
		return "recreate"
	default:
		return "idle"
	}
}

// FrameInfo describes the frame being built. It is handed to the update
// callback after the image is acquired and before anything is recorded.
type FrameInfo struct {
	Slot        int
	Image       uint32
	FrameNumber uint64
}

// Scheduler drives the acquire, record, submit and present cycle over a
// fixed number of frames in flight and rebuilds the swapchain when it goes stale.
type Scheduler struct {
	backend     FrameBackend
	descriptors DescriptorRebuilder

	slot           int
	frameNumber    uint64
	stage          Stage
	imagesInFlight []int
	resized        atomic.Bool
}

func NewScheduler(backend FrameBackend, descriptors DescriptorRebuilder) *Scheduler {
	s := &Scheduler{
		backend:     backend,
		descriptors: descriptors,
	}
	s.resetImagesInFlight()
	return s
}

func (s *Scheduler) resetImagesInFlight() {
	s.imagesInFlight = make([]int, s.backend.ImageCount())
	for i := range s.imagesInFlight {
		s.imagesInFlight[i] = -1
	}
}

// RequestResize makes the next present rebuild the swapchain. Safe to call
// from any goroutine.
func (s *Scheduler) RequestResize() {
	s.resized.Store(true)
}

// Frame builds and presents one frame. update runs between acquire and
// record. A stale swapchain at acquire time rebuilds it and returns without
// drawing; the slot is not advanced in that case.
func (s *Scheduler) Frame(update func(f FrameInfo) error) error {
	slot := s.slot

	if err := s.backend.WaitForFence(slot); err != nil {
		return err
	}

	s.stage = StageAcquireImage
	image, err := s.backend.AcquireNextImage(slot)
	if errors.Is(err, core.ErrSwapchainStale) {
		return s.Recreate()
	}
	if err != nil {
		s.stage = StageIdle
		return err
	}

	// The image may still be owned by the submission of another slot.
	if int(image) >= len(s.imagesInFlight) {
		s.resetImagesInFlight()
	}
	if owner := s.imagesInFlight[image]; owner >= 0 {
		if err := s.backend.WaitForFence(owner); err != nil {
			return err
		}
	}
	s.imagesInFlight[image] = slot

	if update != nil {
		if err := update(FrameInfo{Slot: slot, Image: image, FrameNumber: s.frameNumber}); err != nil {
			s.stage = StageIdle
			return err
		}
	}

	s.stage = StageRecord
	if err := s.backend.Record(slot, image); err != nil {
		return err
	}

	s.stage = StageSubmit
	if err := s.backend.ResetFence(slot); err != nil {
		return err
	}
	if err := s.backend.Submit(slot); err != nil {
		return err
	}

	s.stage = StagePresent
	err = s.backend.Present(slot, image)
	s.slot = (s.slot + 1) % s.backend.FramesInFlight()
	s.frameNumber++

	if errors.Is(err, core.ErrSwapchainStale) || s.resized.Load() {
		return s.Recreate()
	}
	s.stage = StageIdle
	return err
}

// Recreate rebuilds everything derived from the swapchain after the device
// has gone idle.
func (s *Scheduler) Recreate() error {
	s.stage = StageRecreate
	s.resized.Store(false)

	if err := s.backend.WaitIdle(); err != nil {
		return err
	}
	s.backend.DestroySwapchainResources()
	s.descriptors.CleanupDescriptors()

	if err := s.backend.CreateSwapchainResources(); err != nil {
		core.LogError(err.Error())
		return err
	}
	if err := s.descriptors.RecreateDescriptors(); err != nil {
		core.LogError(err.Error())
		return err
	}
	s.resetImagesInFlight()

	core.LogDebug("swapchain recreated with %d images", len(s.imagesInFlight))
	s.stage = StageIdle
	return nil
}

// Shutdown waits until the device has finished every submitted frame.
func (s *Scheduler) Shutdown() error {
	return s.backend.WaitIdle()
}

func (s *Scheduler) Stage() Stage {
	return s.stage
}

func (s *Scheduler) FrameNumber() uint64 {
	return s.frameNumber
}

func (s *Scheduler) CurrentSlot() int {
	return s.slot
}
