package playback

import (
	"fmt"
	"time"

	"github.com/mgpai22/sublisten/internal/subtitle"
)

// Synchronizer answers "which entry is showing" for a fixed track. It holds
// no mutable state, so lookups are safe to repeat on every tick.
type Synchronizer struct {
	track *subtitle.Track
}

func NewSynchronizer(track *subtitle.Track) *Synchronizer {
	if track == nil {
		track = &subtitle.Track{}
	}
	return &Synchronizer{track: track}
}

func (s *Synchronizer) Track() *subtitle.Track {
	return s.track
}

// ActiveIndex returns the position in the track of the first entry whose
// inclusive range covers pos, or -1.
func (s *Synchronizer) ActiveIndex(pos time.Duration) int {
	for i, e := range s.track.Entries {
		if e.Contains(pos) {
			return i
		}
	}
	return -1
}

// ActiveEntry returns the first entry in file order covering pos. With
// overlapping entries the earlier-listed one wins.
func (s *Synchronizer) ActiveEntry(pos time.Duration) (subtitle.Entry, bool) {
	i := s.ActiveIndex(pos)
	if i < 0 {
		return subtitle.Entry{}, false
	}
	return s.track.Entries[i], true
}

// Seek returns the position to jump to for entry. Moving the clock is up
// to the caller.
func (s *Synchronizer) Seek(entry subtitle.Entry) time.Duration {
	return entry.StartTime
}

// TogglePlayPause flips the clock's pause state and returns the new state.
func (s *Synchronizer) TogglePlayPause(clock Clock) (State, error) {
	paused, err := clock.Paused()
	if err != nil {
		return StatePaused, fmt.Errorf("read pause state: %w", err)
	}
	if err := clock.SetPaused(!paused); err != nil {
		return stateOf(paused), fmt.Errorf("set pause state: %w", err)
	}
	return stateOf(!paused), nil
}
