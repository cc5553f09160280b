// Package playback maps a live playback position onto a subtitle track.
package playback

import "time"

// Clock is the slice of a media player the synchronizer needs: a readable,
// seekable position and a pause switch.
type Clock interface {
	Position() (time.Duration, error)
	Seek(pos time.Duration) error
	Paused() (bool, error)
	SetPaused(paused bool) error
}

// State is the play/pause state of a clock.
type State int

const (
	StatePaused State = iota
	StatePlaying
)

func (s State) String() string {
	if s == StatePlaying {
		return "playing"
	}
	return "paused"
}

// Label is the text for a play/pause control: the action it would take.
func (s State) Label() string {
	if s == StatePlaying {
		return "Pause"
	}
	return "Play"
}

func stateOf(paused bool) State {
	if paused {
		return StatePaused
	}
	return StatePlaying
}
