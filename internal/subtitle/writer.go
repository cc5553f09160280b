package subtitle

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// SubRip format
type SRTWriter struct{}

func NewWriter() Writer {
	return &SRTWriter{}
}

// writes the track to an SRT file
func (w *SRTWriter) Write(track *Track, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	var sb strings.Builder
	if err := w.Encode(&sb, track); err != nil {
		return err
	}

	return os.WriteFile(path, []byte(sb.String()), 0644)
}

// Encode writes blocks with a 1-based index, a time range and one text
// line. Multi-line text is folded onto a single line since the parser
// keeps only the last text line of a block.
func (w *SRTWriter) Encode(out io.Writer, track *Track) error {
	for i, entry := range track.Entries {
		_, err := fmt.Fprintf(out, "%d\n%s%s%s\n%s\n\n",
			i+1,
			FormatTimestamp(entry.StartTime),
			timeRangeSeparator,
			FormatTimestamp(entry.EndTime),
			singleLine(entry.Text),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func singleLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}

// sibling subtitle path for a media file: movie.m4a -> movie.srt
func PathForMedia(mediaPath string) string {
	return strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + ".srt"
}
