package subtitle

import (
	"errors"
	"fmt"
)

// ErrMalformedTimestamp is wrapped by every timestamp parse failure.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// ParseError reports a time-range line that could not be decoded.
type ParseError struct {
	Line  int
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: invalid time range %q: %v", e.Line, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// WarningKind classifies a block the parser dropped or kept with a defect.
type WarningKind string

const (
	WarnMissingTiming  WarningKind = "missing_timing"
	WarnEmptyText      WarningKind = "empty_text"
	WarnEndBeforeStart WarningKind = "end_before_start"
)

// Warning describes an incomplete or suspicious block. Line is the line
// that closed the block (the blank line, or the last line at end of input).
type Warning struct {
	Kind WarningKind
	Line int
	Text string
}

func (w Warning) String() string {
	switch w.Kind {
	case WarnMissingTiming:
		return fmt.Sprintf("line %d: block has no time range, skipped (text %q)", w.Line, w.Text)
	case WarnEmptyText:
		return fmt.Sprintf("line %d: block has no text", w.Line)
	case WarnEndBeforeStart:
		return fmt.Sprintf("line %d: end time precedes start time (text %q)", w.Line, w.Text)
	default:
		return fmt.Sprintf("line %d: %s", w.Line, w.Kind)
	}
}
