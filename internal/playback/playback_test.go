package playback

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mgpai22/sublisten/internal/subtitle"
)

type fakeClock struct {
	pos      time.Duration
	paused   bool
	seeks    []time.Duration
	failSeek error
	failRead error
}

func (c *fakeClock) Position() (time.Duration, error) {
	if c.failRead != nil {
		return 0, c.failRead
	}
	return c.pos, nil
}

func (c *fakeClock) Seek(pos time.Duration) error {
	if c.failSeek != nil {
		return c.failSeek
	}
	c.pos = pos
	c.seeks = append(c.seeks, pos)
	return nil
}

func (c *fakeClock) Paused() (bool, error) { return c.paused, nil }

func (c *fakeClock) SetPaused(paused bool) error {
	c.paused = paused
	return nil
}

func sec(f float64) time.Duration { return subtitle.Seconds(f) }

func twoBlockTrack(t *testing.T) *subtitle.Track {
	t.Helper()
	content := "1\n00:00:01,000 --> 00:00:03,500\nHello world\n\n" +
		"2\n00:00:04,000 --> 00:00:06,000\nSecond line\n\n"
	track, err := subtitle.Parse(strings.NewReader(content))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return track
}

func TestActiveEntryScenario(t *testing.T) {
	s := NewSynchronizer(twoBlockTrack(t))

	tests := []struct {
		pos      float64
		wantText string
		wantOK   bool
	}{
		{0.5, "", false},
		{1.0, "Hello world", true},
		{2.0, "Hello world", true},
		{3.5, "Hello world", true},
		{3.7, "", false},
		{4.0, "Second line", true},
		{5.0, "Second line", true},
		{6.0, "Second line", true},
		{6.001, "", false},
	}

	for _, tt := range tests {
		entry, ok := s.ActiveEntry(sec(tt.pos))
		if ok != tt.wantOK || entry.Text != tt.wantText {
			t.Errorf("ActiveEntry(%v) = (%q, %v), want (%q, %v)",
				tt.pos, entry.Text, ok, tt.wantText, tt.wantOK)
		}
	}
}

func TestActiveEntryFirstMatchWins(t *testing.T) {
	track := &subtitle.Track{Entries: []subtitle.Entry{
		{Index: 1, StartTime: 0, EndTime: sec(5), Text: "A"},
		{Index: 2, StartTime: sec(3), EndTime: sec(8), Text: "B"},
	}}
	s := NewSynchronizer(track)

	entry, ok := s.ActiveEntry(sec(4))
	if !ok || entry.Text != "A" {
		t.Errorf("expected A at 4s, got %q (%v)", entry.Text, ok)
	}
	entry, _ = s.ActiveEntry(sec(6))
	if entry.Text != "B" {
		t.Errorf("expected B at 6s, got %q", entry.Text)
	}
}

func TestSeekThenActiveEntry(t *testing.T) {
	track := twoBlockTrack(t)
	s := NewSynchronizer(track)
	for _, e := range track.Entries {
		got, ok := s.ActiveEntry(s.Seek(e))
		if !ok || got != e {
			t.Errorf("ActiveEntry(Seek(%+v)) = %+v, %v", e, got, ok)
		}
	}
}

func TestActiveEntryEmptyTrack(t *testing.T) {
	s := NewSynchronizer(nil)
	if _, ok := s.ActiveEntry(0); ok {
		t.Error("empty track should have no active entry")
	}
	if s.ActiveIndex(time.Hour) != -1 {
		t.Error("expected -1 for empty track")
	}
}

func TestTogglePlayPause(t *testing.T) {
	clock := &fakeClock{paused: true}
	s := NewSynchronizer(nil)

	state, err := s.TogglePlayPause(clock)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if state != StatePlaying || clock.paused {
		t.Errorf("expected playing, got %v (paused=%v)", state, clock.paused)
	}
	if state.Label() != "Pause" {
		t.Errorf("expected label Pause, got %s", state.Label())
	}

	state, _ = s.TogglePlayPause(clock)
	if state != StatePaused || state.Label() != "Play" || state.String() != "paused" {
		t.Errorf("expected paused/Play, got %v/%s", state, state.Label())
	}
}

func TestSessionTickReportsChangesOnly(t *testing.T) {
	clock := &fakeClock{}
	session := NewSession(clock, twoBlockTrack(t), 0)

	if session.Duration() != sec(6) {
		t.Errorf("duration should fall back to track end, got %v", session.Duration())
	}

	steps := []struct {
		pos         float64
		wantIndex   int
		wantChanged bool
	}{
		{0.0, -1, false},
		{1.2, 0, true},
		{1.3, 0, false},
		{2.9, 0, false},
		{3.7, -1, true},
		{3.8, -1, false},
		{4.5, 1, true},
	}

	for _, st := range steps {
		clock.pos = sec(st.pos)
		frame, err := session.Tick()
		if err != nil {
			t.Fatalf("Tick at %v failed: %v", st.pos, err)
		}
		if frame.Index != st.wantIndex || frame.Changed != st.wantChanged {
			t.Errorf("at %v: index=%d changed=%v, want index=%d changed=%v",
				st.pos, frame.Index, frame.Changed, st.wantIndex, st.wantChanged)
		}
		if frame.Position != clock.pos {
			t.Errorf("frame position %v, clock %v", frame.Position, clock.pos)
		}
	}
}

func TestSessionSeekTo(t *testing.T) {
	clock := &fakeClock{}
	session := NewSession(clock, twoBlockTrack(t), sec(10))

	pos, err := session.SeekTo(1)
	if err != nil {
		t.Fatalf("SeekTo failed: %v", err)
	}
	if pos != sec(4) || clock.pos != sec(4) {
		t.Errorf("expected seek to 4s, got %v (clock %v)", pos, clock.pos)
	}

	frame, err := session.Tick()
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if frame.Index != 1 || !frame.Changed || frame.Entry.Text != "Second line" {
		t.Errorf("unexpected frame after seek: %+v", frame)
	}

	if _, err := session.SeekTo(5); !errors.Is(err, ErrNoEntry) {
		t.Errorf("expected ErrNoEntry, got %v", err)
	}
	if _, err := session.SeekTo(-1); !errors.Is(err, ErrNoEntry) {
		t.Errorf("expected ErrNoEntry, got %v", err)
	}
}

func TestSessionSeekRelativeClamps(t *testing.T) {
	clock := &fakeClock{}
	session := NewSession(clock, twoBlockTrack(t), sec(10))

	if pos, _ := session.SeekRelative(-5 * time.Second); pos != 0 {
		t.Errorf("expected clamp to 0, got %v", pos)
	}
	if pos, _ := session.SeekRelative(30 * time.Second); pos != sec(10) {
		t.Errorf("expected clamp to duration, got %v", pos)
	}
}

func TestSessionSeekError(t *testing.T) {
	boom := errors.New("socket closed")
	clock := &fakeClock{failSeek: boom}
	session := NewSession(clock, twoBlockTrack(t), 0)

	if _, err := session.SeekTo(0); !errors.Is(err, boom) {
		t.Errorf("expected wrapped seek error, got %v", err)
	}
}

func TestSessionTickError(t *testing.T) {
	boom := errors.New("no position")
	session := NewSession(&fakeClock{failRead: boom}, twoBlockTrack(t), 0)
	if _, err := session.Tick(); !errors.Is(err, boom) {
		t.Errorf("expected wrapped read error, got %v", err)
	}
}

func TestSessionReplaceTrack(t *testing.T) {
	clock := &fakeClock{pos: sec(2)}
	session := NewSession(clock, twoBlockTrack(t), 0)
	if _, err := session.Tick(); err != nil {
		t.Fatal(err)
	}

	session.ReplaceTrack(&subtitle.Track{Entries: []subtitle.Entry{
		{Index: 1, StartTime: sec(1), EndTime: sec(3), Text: "Edited"},
	}})

	frame, err := session.Tick()
	if err != nil {
		t.Fatal(err)
	}
	if !frame.Changed || frame.Entry.Text != "Edited" {
		t.Errorf("expected re-render with new text, got %+v", frame)
	}
}

func TestEveryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32

	done := make(chan error, 1)
	go func() {
		done <- Every(ctx, 5*time.Millisecond, func(time.Time) {
			if calls.Add(1) == 3 {
				cancel()
			}
		})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Every did not stop after cancel")
	}
	if calls.Load() < 3 {
		t.Errorf("expected at least 3 ticks, got %d", calls.Load())
	}
}
