package cli

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/sublisten/internal/playback"
	"github.com/mgpai22/sublisten/internal/subtitle"
)

var cuesCmd = &cobra.Command{
	Use:   "cues [subtitle_file]",
	Short: "Print the parsed subtitle entries",
	Long: `Parse a SubRip subtitle file and print its entries.

With --at, print only the entry active at that position in seconds, or
"none" when no entry covers it.

Examples:
  sublisten cues talk.srt
  sublisten cues talk.srt --at 12.5`,
	Args: cobra.ExactArgs(1),
	RunE: runCues,
}

func init() {
	rootCmd.AddCommand(cuesCmd)

	cuesCmd.Flags().Float64("at", 0, "Print the entry active at this position (seconds)")
}

func runCues(cmd *cobra.Command, args []string) error {
	track, err := loadTrack(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !cmd.Flags().Changed("at") {
		return printCues(out, track)
	}

	at, _ := cmd.Flags().GetFloat64("at")
	if math.IsNaN(at) || math.IsInf(at, 0) {
		return fmt.Errorf("--at must be a finite number of seconds, got %v", at)
	}
	return printActive(out, track, subtitle.Seconds(at))
}

// parses the file and logs any skipped or suspicious blocks
func loadTrack(path string) (*subtitle.Track, error) {
	track, err := subtitle.ParseFile(path)
	if err != nil {
		return nil, err
	}
	for _, w := range track.Warnings {
		logger.Warnw("Incomplete subtitle block",
			"file", path,
			"line", w.Line,
			"kind", w.Kind,
			"text", w.Text,
		)
	}
	logger.Debugw("Track loaded", "file", path, "entries", track.Len())
	return track, nil
}

func printCues(w io.Writer, track *subtitle.Track) error {
	for _, e := range track.Entries {
		if _, err := fmt.Fprintf(w, "%d\t%s --> %s\t%s\n",
			e.Index,
			subtitle.FormatTimestamp(e.StartTime),
			subtitle.FormatTimestamp(e.EndTime),
			e.Text,
		); err != nil {
			return err
		}
	}
	return nil
}

func printActive(w io.Writer, track *subtitle.Track, pos time.Duration) error {
	entry, ok := playback.NewSynchronizer(track).ActiveEntry(pos)
	if !ok {
		_, err := fmt.Fprintln(w, "none")
		return err
	}
	_, err := fmt.Fprintf(w, "%d\t%s\n", entry.Index, entry.Text)
	return err
}
