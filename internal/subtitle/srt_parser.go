package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const timeRangeSeparator = " --> "

// ParseFile reads a subtitle file from disk.
func ParseFile(path string) (*Track, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open subtitle file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	track, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	track.Source = path
	return track, nil
}

// pending holds the block currently being assembled
type pending struct {
	entry     Entry
	hasTiming bool
	hasText   bool
}

func (p *pending) empty() bool {
	return !p.hasTiming && !p.hasText
}

// Parse reads blocks separated by blank lines. Inside a block a line
// containing " --> " sets the timing and any other line replaces the text,
// so a leading sequence number is overwritten by the text that follows it.
// A final block without a closing blank line is kept.
func Parse(r io.Reader) (*Track, error) {
	track := &Track{}
	scanner := bufio.NewScanner(r)

	var cur pending
	lineNum := 0

	flush := func() {
		defer func() { cur = pending{} }()
		if cur.empty() {
			return
		}
		if !cur.hasTiming {
			track.Warnings = append(track.Warnings, Warning{
				Kind: WarnMissingTiming,
				Line: lineNum,
				Text: cur.entry.Text,
			})
			return
		}
		if !cur.hasText {
			track.Warnings = append(track.Warnings, Warning{
				Kind: WarnEmptyText,
				Line: lineNum,
			})
		}
		if cur.entry.EndTime < cur.entry.StartTime {
			track.Warnings = append(track.Warnings, Warning{
				Kind: WarnEndBeforeStart,
				Line: lineNum,
				Text: cur.entry.Text,
			})
		}
		cur.entry.Index = len(track.Entries) + 1
		track.Entries = append(track.Entries, cur.entry)
	}

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		switch {
		case strings.Contains(line, timeRangeSeparator):
			start, end, err := parseTimeRange(line)
			if err != nil {
				return nil, &ParseError{
					Line:  lineNum,
					Value: strings.TrimSpace(line),
					Err:   err,
				}
			}
			cur.entry.StartTime = start
			cur.entry.EndTime = end
			cur.hasTiming = true
		case strings.TrimSpace(line) == "":
			flush()
		default:
			cur.entry.Text = strings.TrimSpace(line)
			cur.hasText = true
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading subtitle file: %w", err)
	}

	flush()

	return track, nil
}

func parseTimeRange(line string) (start, end time.Duration, err error) {
	parts := strings.Split(line, timeRangeSeparator)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf(
			"%w: expected two timestamps, got %d",
			ErrMalformedTimestamp,
			len(parts),
		)
	}
	if start, err = ParseTimestamp(parts[0]); err != nil {
		return 0, 0, err
	}
	if end, err = ParseTimestamp(parts[1]); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}
