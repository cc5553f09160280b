package playback

import (
	"errors"
	"fmt"
	"time"

	"github.com/mgpai22/sublisten/internal/subtitle"
)

// ErrNoEntry is returned when seeking to an index outside the track.
var ErrNoEntry = errors.New("no such subtitle entry")

// Frame is what one tick produced for the presentation layer.
type Frame struct {
	Position time.Duration
	Duration time.Duration
	State    State
	// Index of the active entry, -1 when none.
	Index int
	Entry subtitle.Entry
	// Changed is set when Index differs from the previously shown one.
	Changed bool
}

// Session is the mutable state shared between ticks and user actions:
// the clock, the current track and what is on screen. It is not safe for
// concurrent use; all calls are expected on the UI loop.
type Session struct {
	clock    Clock
	sync     *Synchronizer
	duration time.Duration
	shown    int
	position time.Duration
}

func NewSession(clock Clock, track *subtitle.Track, duration time.Duration) *Session {
	sync := NewSynchronizer(track)
	if duration <= 0 {
		duration = sync.Track().End()
	}
	return &Session{
		clock:    clock,
		sync:     sync,
		duration: duration,
		shown:    -1,
	}
}

func (s *Session) Track() *subtitle.Track {
	return s.sync.Track()
}

func (s *Session) Duration() time.Duration {
	return s.duration
}

// Position is the position read by the last tick or seek.
func (s *Session) Position() time.Duration {
	return s.position
}

// Tick reads the clock once and reports the active entry.
func (s *Session) Tick() (Frame, error) {
	pos, err := s.clock.Position()
	if err != nil {
		return Frame{}, fmt.Errorf("read position: %w", err)
	}
	paused, err := s.clock.Paused()
	if err != nil {
		return Frame{}, fmt.Errorf("read pause state: %w", err)
	}
	s.position = pos

	idx := s.sync.ActiveIndex(pos)
	frame := Frame{
		Position: pos,
		Duration: s.duration,
		State:    stateOf(paused),
		Index:    idx,
		Changed:  idx != s.shown,
	}
	if idx >= 0 {
		frame.Entry = s.Track().Entries[idx]
	}
	s.shown = idx

	return frame, nil
}

// SeekTo moves the clock to the start of the entry at index.
func (s *Session) SeekTo(index int) (time.Duration, error) {
	entries := s.Track().Entries
	if index < 0 || index >= len(entries) {
		return s.position, fmt.Errorf("%w: index %d (track has %d)", ErrNoEntry, index, len(entries))
	}
	return s.SeekPosition(s.sync.Seek(entries[index]))
}

// SeekPosition moves the clock to pos, clamped to [0, duration].
func (s *Session) SeekPosition(pos time.Duration) (time.Duration, error) {
	if pos < 0 {
		pos = 0
	}
	if s.duration > 0 && pos > s.duration {
		pos = s.duration
	}
	if err := s.clock.Seek(pos); err != nil {
		return s.position, fmt.Errorf("seek to %s: %w", subtitle.FormatTimestamp(pos), err)
	}
	s.position = pos
	s.shown = -2
	return pos, nil
}

// SeekRelative moves the clock by delta from the last known position.
func (s *Session) SeekRelative(delta time.Duration) (time.Duration, error) {
	return s.SeekPosition(s.position + delta)
}

func (s *Session) TogglePlayPause() (State, error) {
	return s.sync.TogglePlayPause(s.clock)
}

// ReplaceTrack swaps in a reparsed track. The next tick re-renders.
func (s *Session) ReplaceTrack(track *subtitle.Track) {
	s.sync = NewSynchronizer(track)
	s.shown = -2
}
