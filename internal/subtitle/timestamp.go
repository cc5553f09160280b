package subtitle

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// digits with an optional decimal part; no sign, exponent or hex
var fieldPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// largest second count a time.Duration holds
var maxSeconds = float64(math.MaxInt64) / float64(time.Second)

// ParseTimestamp converts "H:MM:SS,mmm" (or with a '.' separator) into a
// duration. Hours and minutes may carry any number of digits.
func ParseTimestamp(s string) (time.Duration, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")

	fields := strings.Split(s, ":")
	if len(fields) != 3 {
		return 0, fmt.Errorf(
			"%w: %q has %d fields, want 3",
			ErrMalformedTimestamp,
			s,
			len(fields),
		)
	}

	var parts [3]float64
	for i, f := range fields {
		if !fieldPattern.MatchString(f) {
			return 0, fmt.Errorf(
				"%w: field %q in %q is not a decimal number",
				ErrMalformedTimestamp,
				f,
				s,
			)
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsInf(v, 0) {
			return 0, fmt.Errorf(
				"%w: field %q in %q is not a non-negative number",
				ErrMalformedTimestamp,
				f,
				s,
			)
		}
		parts[i] = v
	}

	total := parts[0]*3600 + parts[1]*60 + parts[2]
	if total >= maxSeconds {
		return 0, fmt.Errorf("%w: %q is out of range", ErrMalformedTimestamp, s)
	}
	return Seconds(total), nil
}

// Seconds converts a floating-point second count into a duration,
// rounded to the nearest nanosecond and saturated at the duration range.
func Seconds(sec float64) time.Duration {
	ns := math.Round(sec * float64(time.Second))
	switch {
	case ns >= math.MaxInt64:
		return math.MaxInt64
	case ns <= math.MinInt64:
		return math.MinInt64
	}
	return time.Duration(ns)
}

// FormatTimestamp renders d as HH:MM:SS,mmm, rounded to the millisecond.
func FormatTimestamp(d time.Duration) string {
	return formatClock(d, ',')
}

func formatClock(d time.Duration, sep byte) string {
	if d < 0 {
		d = 0
	}
	total := d.Round(time.Millisecond).Milliseconds()
	millis := total % 1000
	total /= 1000
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, seconds, sep, millis)
}
