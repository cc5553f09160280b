package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/sublisten/internal/config"
	"github.com/mgpai22/sublisten/internal/ffmpeg"
	"github.com/mgpai22/sublisten/internal/logging"
)

var (
	verbose    bool
	configPath string
	logFile    string

	cfg    *config.Config
	logger = logging.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "sublisten",
	Short: "Listen to audio with synchronized subtitles",
	Long: `Sublisten plays an audio file and shows the subtitle line that matches
the current playback position.

Subtitles are read from a SubRip (.srt) file next to the audio, or generated
with AI transcription when none exists.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = c

		ffmpeg.SetPath(ffmpeg.ToolMPV, cfg.Tools.MPV)
		ffmpeg.SetPath(ffmpeg.ToolFFmpeg, cfg.Tools.FFmpeg)
		ffmpeg.SetPath(ffmpeg.ToolFFprobe, cfg.Tools.FFprobe)

		l, err := logging.New(loggerOptions(cmd.Name(), cfg))
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Close()
	},
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "Config file (default ./"+config.DefaultPath+" if present)")
	rootCmd.PersistentFlags().
		StringVar(&logFile, "log-file", "", "Write logs to this file (play logs to the temp dir by default)")
}

// the player owns the terminal, so its logs go to a file unless told otherwise
func loggerOptions(command string, c *config.Config) logging.Options {
	opts := logging.Options{
		Verbose: verbose,
		Level:   c.Logging.Level,
		Format:  c.Logging.Format,
		Path:    c.Logging.File,
	}
	if verbose {
		opts.Level = ""
	}
	if logFile != "" {
		opts.Path = logFile
	}
	if opts.Path == "" && command == playCmd.Name() {
		opts.Path = filepath.Join(os.TempDir(), "sublisten.log")
	}
	return opts
}

// flag helpers: a flag given on the command line beats the config value

func stringFlag(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return fallback
}

func intFlag(cmd *cobra.Command, name string, fallback int) int {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetInt(name)
		return v
	}
	return fallback
}

func boolFlag(cmd *cobra.Command, name string, fallback bool) bool {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetBool(name)
		return v
	}
	return fallback
}

func durationFlag(cmd *cobra.Command, name string, fallback time.Duration) (time.Duration, error) {
	if !cmd.Flags().Changed(name) {
		return fallback, nil
	}
	v, _ := cmd.Flags().GetDuration(name)
	if v <= 0 {
		return 0, fmt.Errorf("--%s must be positive, got %s", name, v)
	}
	return v, nil
}
