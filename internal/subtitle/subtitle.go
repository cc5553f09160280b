package subtitle

import (
	"time"
)

// represents single subtitle entry
type Entry struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// true when pos falls inside the entry, both ends inclusive
func (e Entry) Contains(pos time.Duration) bool {
	return e.StartTime <= pos && pos <= e.EndTime
}

// represents complete subtitle track, in file order
type Track struct {
	Entries  []Entry
	Warnings []Warning
	Source   string
}

func (t *Track) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Entries)
}

// end of the last entry, used as a duration fallback when the audio
// length is unknown
func (t *Track) End() time.Duration {
	var end time.Duration
	if t == nil {
		return end
	}
	for _, e := range t.Entries {
		if e.EndTime > end {
			end = e.EndTime
		}
	}
	return end
}

// represents transcribed audio segment
type Segment struct {
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// interface for subtitle generation
type Generator interface {
	Generate(segments []Segment) (*Track, error)
}

// interface for writing subtitles to files
type Writer interface {
	Write(track *Track, path string) error
}
