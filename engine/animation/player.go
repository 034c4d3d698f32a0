package animation

import (
	"fmt"

	"github.com/spaghettifunk/keyframe/engine/resources"
)

// Player holds the playback state of a model: the clips it can play, the
// active one and its clock in seconds.
type Player struct {
	Model   *resources.Model
	Clips   []*resources.Animation
	Current int
	Time    float32
}

// NewPlayer starts the first clip, if any, at its first keyframe.
func NewPlayer(model *resources.Model, clips ...*resources.Animation) *Player {
	p := &Player{
		Model: model,
		Clips: clips,
	}
	if len(clips) > 0 {
		p.Time = clips[0].Start
	}
	return p
}

// Play switches to clip index and rewinds the clock.
func (p *Player) Play(index int) error {
	if index < 0 || index >= len(p.Clips) {
		return fmt.Errorf("clip %d out of range, the player has %d clips", index, len(p.Clips))
	}
	p.Current = index
	p.Time = p.Clips[index].Start
	return nil
}

// Clip returns the active clip or nil.
func (p *Player) Clip() *resources.Animation {
	if p.Current < 0 || p.Current >= len(p.Clips) {
		return nil
	}
	return p.Clips[p.Current]
}
