// Package player provides playback clocks: an mpv process driven over its
// JSON IPC socket, and a silent wall-clock stand-in.
package player

import (
	"errors"

	"github.com/mgpai22/sublisten/internal/playback"
)

// ErrNotRunning is returned by calls on a closed or exited player.
var ErrNotRunning = errors.New("player is not running")

// Player is a playback clock with a lifecycle.
type Player interface {
	playback.Clock
	// Done is closed when playback ends on the player's side.
	Done() <-chan struct{}
	Close() error
}

var (
	_ Player = (*MPV)(nil)
	_ Player = (*Silent)(nil)
)
