package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mgpai22/sublisten/internal/audio"
	"github.com/mgpai22/sublisten/internal/config"
	"github.com/mgpai22/sublisten/internal/playback"
	"github.com/mgpai22/sublisten/internal/player"
	"github.com/mgpai22/sublisten/internal/subtitle"
	"github.com/mgpai22/sublisten/internal/ui"
	"github.com/mgpai22/sublisten/internal/watcher"
)

var playCmd = &cobra.Command{
	Use:   "play [audio_file] [subtitle_file]",
	Short: "Play audio with synchronized subtitles",
	Long: `Play an audio file in the terminal and show the subtitle line for the
current position. The subtitle file defaults to the audio path with an .srt
extension.

Keys: enter jumps to the selected line, space toggles play/pause, left and
right seek, q quits.

Examples:
  sublisten play lecture.mp3
  sublisten play lecture.mp3 lecture.en.srt --watch
  sublisten play podcast.mp3 --generate --provider openai
  sublisten play lecture.mp3 --backend silent
  sublisten play lecture.mp3 --mpv-socket /tmp/mpv.sock`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPlay,
}

type playOptions struct {
	Backend      string
	StartPaused  bool
	Volume       int
	Socket       string
	StartTimeout time.Duration
	Tick         time.Duration
	SeekStep     time.Duration
	Watch        bool
	Generate     bool
}

func init() {
	rootCmd.AddCommand(playCmd)
	addPlayFlags(playCmd)
}

func addPlayFlags(cmd *cobra.Command) {
	cmd.Flags().
		String("backend", config.BackendMPV, "Playback backend (mpv, silent)")
	cmd.Flags().
		Duration("tick", playback.DefaultTickInterval, "How often the playback position is polled")
	cmd.Flags().
		Bool("paused", false, "Start paused")
	cmd.Flags().
		Int("volume", config.DefaultVolume, "mpv volume from 0 (muted) to 130")
	cmd.Flags().
		String("mpv-socket", "", "Attach to an mpv already running with --input-ipc-server at this path")
	cmd.Flags().
		Bool("watch", false, "Reload the subtitle file when it changes")
	cmd.Flags().
		Bool("generate", false, "Transcribe the audio first when the subtitle file does not exist")
	addTranscribeFlags(cmd)
}

func playOptionsFrom(cmd *cobra.Command, c *config.Config) (playOptions, error) {
	tick, err := durationFlag(cmd, "tick", c.Sync.TickInterval)
	if err != nil {
		return playOptions{}, err
	}

	opts := playOptions{
		Backend:      stringFlag(cmd, "backend", c.Player.Backend),
		StartPaused:  boolFlag(cmd, "paused", c.Player.StartPaused),
		Volume:       intFlag(cmd, "volume", volumeOrDefault(c.Player.Volume)),
		Socket:       stringFlag(cmd, "mpv-socket", c.Player.Socket),
		StartTimeout: c.Player.StartTimeout,
		Tick:         tick,
		SeekStep:     c.Sync.SeekStep,
		Watch:        boolFlag(cmd, "watch", c.Sync.Watch),
		Generate:     boolFlag(cmd, "generate", false),
	}
	if opts.Backend != config.BackendMPV && opts.Backend != config.BackendSilent {
		return opts, fmt.Errorf("unsupported backend %q: use %s or %s", opts.Backend, config.BackendMPV, config.BackendSilent)
	}
	if opts.Volume < 0 || opts.Volume > 130 {
		return opts, fmt.Errorf("--volume must be between 0 and 130, got %d", opts.Volume)
	}
	if opts.Socket != "" && opts.Backend != config.BackendMPV {
		return opts, fmt.Errorf("--mpv-socket needs the %s backend", config.BackendMPV)
	}
	return opts, nil
}

func volumeOrDefault(v *int) int {
	if v == nil {
		return config.DefaultVolume
	}
	return *v
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	mediaPath := args[0]

	if _, err := os.Stat(mediaPath); err != nil {
		return fmt.Errorf("audio file not readable: %w", err)
	}

	subPath := subtitle.PathForMedia(mediaPath)
	if len(args) == 2 {
		subPath = args[1]
	}

	opts, err := playOptionsFrom(cmd, cfg)
	if err != nil {
		return err
	}

	if opts.Generate {
		if err := ensureSubtitles(cmd, mediaPath, subPath); err != nil {
			return err
		}
	}

	track, err := loadTrack(subPath)
	if err != nil {
		return err
	}

	duration, probeErr := audio.GetDuration(ctx, mediaPath)
	if probeErr != nil {
		duration = track.End()
	}

	p, err := openPlayer(ctx, mediaPath, duration, opts)
	if err != nil {
		return err
	}
	defer p.Close()

	if probeErr != nil {
		if m, ok := p.(*player.MPV); ok {
			if d, err := m.Duration(); err == nil && d > 0 {
				duration = d
			}
		}
		logger.Warnw("Could not probe audio duration",
			"file", mediaPath,
			"error", probeErr,
			"using", duration.String(),
		)
	}

	logger.Infow("Starting playback",
		"audio", mediaPath,
		"subtitles", subPath,
		"entries", track.Len(),
		"duration", duration.String(),
		"backend", opts.Backend,
	)

	session := playback.NewSession(p, track, duration)
	model := ui.New(session, ui.Options{
		Title:    filepath.Base(mediaPath),
		SeekStep: opts.SeekStep,
		Logger:   logger,
	})

	return runProgram(ctx, model, p, subPath, opts)
}

// transcribes the media when the subtitle file is missing
func ensureSubtitles(cmd *cobra.Command, mediaPath, subPath string) error {
	if _, err := os.Stat(subPath); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to open subtitle file: %w", err)
	}

	genOpts, err := transcribeOptions(cmd, cfg.Transcribe)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "No subtitles at %s, transcribing %s...\n", subPath, mediaPath)
	_, err = generateSubtitles(cmd.Context(), mediaPath, subPath, genOpts)
	return err
}

func openPlayer(ctx context.Context, mediaPath string, duration time.Duration, opts playOptions) (player.Player, error) {
	if opts.Backend == config.BackendSilent {
		return player.NewSilent(duration, opts.StartPaused), nil
	}
	if opts.Socket != "" {
		m, err := player.DialMPV(ctx, opts.Socket, opts.StartTimeout)
		if err != nil {
			return nil, fmt.Errorf("attach to mpv at %s: %w", opts.Socket, err)
		}
		logger.Infow("Attached to running mpv", "socket", opts.Socket)
		return m, nil
	}
	volume := opts.Volume
	return player.StartMPV(ctx, mediaPath, player.MPVOptions{
		StartPaused:  opts.StartPaused,
		Volume:       &volume,
		StartTimeout: opts.StartTimeout,
	})
}

// runProgram runs the UI, the position ticker and the optional file
// watcher together. The UI owns the session; the others only send it
// messages. Leaving the UI stops everything.
func runProgram(ctx context.Context, model ui.Model, p player.Player, subPath string, opts playOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	var w *watcher.Watcher
	if opts.Watch {
		var err error
		w, err = watcher.New(subPath, func(_ context.Context, track *subtitle.Track, err error) {
			program.Send(ui.ReloadMsg{Track: track, Err: err})
		}, logger)
		if err != nil {
			return err
		}
		defer w.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		return ignoreCanceled(playback.Every(gctx, opts.Tick, func(now time.Time) {
			program.Send(ui.TickMsg(now))
		}))
	})

	g.Go(func() error {
		select {
		case <-p.Done():
			logger.Infow("Player exited")
			program.Send(ui.PlayerDoneMsg{})
		case <-gctx.Done():
		}
		return nil
	})

	if w != nil {
		g.Go(func() error {
			return ignoreCanceled(w.Start(gctx))
		})
	}

	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
