package subtitle

import (
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultGenerator turns transcription segments into single-line entries.
type DefaultGenerator struct {
	MaxChars    int
	MinDuration time.Duration
	MaxDuration time.Duration
}

func NewDefaultGenerator() *DefaultGenerator {
	return &DefaultGenerator{
		MaxChars:    84,
		MinDuration: time.Second,
		MaxDuration: 7 * time.Second,
	}
}

// converts transcription segments to a track
func (g *DefaultGenerator) Generate(segments []Segment) (*Track, error) {
	entries := make([]Entry, 0, len(segments))

	for _, seg := range segments {
		text := strings.Join(strings.Fields(seg.Text), " ")
		if text == "" {
			continue
		}
		seg.Text = text

		if g.needsSplit(seg) {
			entries = append(entries, g.splitSegment(seg)...)
			continue
		}
		entries = append(entries, Entry{
			StartTime: seg.StartTime,
			EndTime:   seg.EndTime,
			Text:      text,
		})
	}

	g.stretchShort(entries)
	for i := range entries {
		entries[i].Index = i + 1
	}

	return &Track{Entries: entries}, nil
}

func (g *DefaultGenerator) needsSplit(seg Segment) bool {
	if utf8.RuneCountInString(seg.Text) > g.MaxChars {
		return true
	}
	return seg.EndTime-seg.StartTime > g.MaxDuration
}

// splits a long segment into pieces of roughly equal word count, sharing
// the segment's time span evenly
func (g *DefaultGenerator) splitSegment(seg Segment) []Entry {
	words := strings.Fields(seg.Text)
	if len(words) == 0 {
		return nil
	}

	total := seg.EndTime - seg.StartTime

	pieces := (utf8.RuneCountInString(seg.Text) + g.MaxChars - 1) / g.MaxChars
	if byTime := int(total/g.MaxDuration) + 1; byTime > pieces {
		pieces = byTime
	}
	if pieces > len(words) {
		pieces = len(words)
	}

	perPiece := (len(words) + pieces - 1) / pieces
	step := total / time.Duration(pieces)

	var entries []Entry
	start := seg.StartTime
	for len(words) > 0 {
		n := min(perPiece, len(words))
		chunk := words[:n]
		words = words[n:]

		end := start + step
		if len(words) == 0 {
			end = seg.EndTime
		}
		entries = append(entries, Entry{
			StartTime: start,
			EndTime:   end,
			Text:      strings.Join(chunk, " "),
		})
		start = end
	}

	return entries
}

// extends entries shorter than MinDuration, never past the next start
func (g *DefaultGenerator) stretchShort(entries []Entry) {
	for i := range entries {
		if entries[i].EndTime-entries[i].StartTime >= g.MinDuration {
			continue
		}
		end := entries[i].StartTime + g.MinDuration
		if i+1 < len(entries) && end > entries[i+1].StartTime {
			end = entries[i+1].StartTime
		}
		if end > entries[i].EndTime {
			entries[i].EndTime = end
		}
	}
}
