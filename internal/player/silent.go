package player

import (
	"sync"
	"time"
)

// Silent advances a position with the wall clock without producing sound.
// It stands in for a real player with --backend silent and in tests.
type Silent struct {
	now      func() time.Time
	duration time.Duration

	mu        sync.Mutex
	offset    time.Duration
	startedAt time.Time
	playing   bool
	done      chan struct{}
	closed    bool
}

type SilentOption func(*Silent)

// WithNow replaces time.Now.
func WithNow(now func() time.Time) SilentOption {
	return func(s *Silent) { s.now = now }
}

// NewSilent starts a clock over duration; zero means unbounded.
func NewSilent(duration time.Duration, startPaused bool, opts ...SilentOption) *Silent {
	s := &Silent{
		now:      time.Now,
		duration: duration,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startedAt = s.now()
	s.playing = !startPaused
	return s
}

// position also pauses the clock once it reaches the end, the way mpv
// does with --keep-open.
func (s *Silent) position() time.Duration {
	if !s.playing {
		return s.clamp(s.offset)
	}
	now := s.now()
	pos := s.offset + now.Sub(s.startedAt)
	if s.duration > 0 && pos >= s.duration {
		s.offset = s.duration
		s.startedAt = now
		s.playing = false
		return s.duration
	}
	return s.clamp(pos)
}

func (s *Silent) clamp(pos time.Duration) time.Duration {
	if pos < 0 {
		return 0
	}
	if s.duration > 0 && pos > s.duration {
		return s.duration
	}
	return pos
}

func (s *Silent) Position() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrNotRunning
	}
	return s.position(), nil
}

func (s *Silent) Seek(pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrNotRunning
	}
	s.offset = s.clamp(pos)
	s.startedAt = s.now()
	return nil
}

func (s *Silent) Paused() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true, ErrNotRunning
	}
	s.position()
	return !s.playing, nil
}

func (s *Silent) SetPaused(paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrNotRunning
	}
	if paused == !s.playing {
		return nil
	}
	s.offset = s.position()
	s.startedAt = s.now()
	s.playing = !paused
	return nil
}

func (s *Silent) Done() <-chan struct{} {
	return s.done
}

func (s *Silent) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	return nil
}
