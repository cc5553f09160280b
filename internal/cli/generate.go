package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/sublisten/internal/audio"
	"github.com/mgpai22/sublisten/internal/config"
	"github.com/mgpai22/sublisten/internal/subtitle"
	"github.com/mgpai22/sublisten/internal/transcribe"
	"github.com/mgpai22/sublisten/internal/video"
)

var generateCmd = &cobra.Command{
	Use:   "generate [media_file]",
	Short: "Generate subtitles for an audio or video file",
	Long: `Generate a SubRip subtitle file for an audio or video file using AI transcription.

For video files the audio track is extracted first. The audio is split into
chunks (default 1 minute) and the chunks are transcribed in parallel.

Examples:
  sublisten generate lecture.mp3
  sublisten generate talk.mp4 --provider openai --transcript-language english
  sublisten generate podcast.mp3 -d 2 --concurrency 5 -o podcast.srt`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

type generateOptions struct {
	Provider       transcribe.Provider
	APIKey         string
	Model          string
	Language       string
	TranscriptLang string
	ChunkDuration  time.Duration
	Concurrency    int
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringP("output", "o", "", "Output file path (default: media path with .srt)")
	addTranscribeFlags(generateCmd)
}

// flags shared by generate and play --generate
func addTranscribeFlags(cmd *cobra.Command) {
	cmd.Flags().
		String("provider", "gemini", "Transcription provider (gemini, openai)")
	cmd.Flags().
		StringP("api-key", "k", "", "Provider API key (or set GEMINI_API_KEY / OPENAI_API_KEY)")
	cmd.Flags().
		IntP("chunk-duration", "d", 1, "Chunk duration in minutes for splitting audio")
	cmd.Flags().
		Int("concurrency", 3, "Number of parallel transcription requests")
	cmd.Flags().
		String("model", "", "Model to use for transcription (provider default when empty)")
	cmd.Flags().
		StringP("language", "l", "", "Language of the audio (e.g., en, es, ja)")
	cmd.Flags().
		String("transcript-language", "native", "Output language for transcript (e.g., 'english', or 'native' for original language)")
}

func transcribeOptions(cmd *cobra.Command, c config.TranscribeConfig) (generateOptions, error) {
	provider, err := transcribe.ParseProvider(stringFlag(cmd, "provider", c.Provider))
	if err != nil {
		return generateOptions{}, err
	}

	opts := generateOptions{
		Provider:       provider,
		APIKey:         stringFlag(cmd, "api-key", c.APIKey(string(provider))),
		Model:          stringFlag(cmd, "model", c.Model),
		Language:       stringFlag(cmd, "language", c.Language),
		TranscriptLang: stringFlag(cmd, "transcript-language", c.TranscriptLang),
		ChunkDuration:  time.Duration(intFlag(cmd, "chunk-duration", c.ChunkMinutes)) * time.Minute,
		Concurrency:    intFlag(cmd, "concurrency", c.Concurrency),
	}

	if opts.APIKey == "" {
		return opts, fmt.Errorf("%s API key is required: use --api-key or set %s", provider, apiKeyEnv(provider))
	}
	if opts.ChunkDuration <= 0 {
		return opts, fmt.Errorf("--chunk-duration must be positive")
	}
	if provider == transcribe.ProviderOpenAI && !isValidOpenAITranscriptLanguage(opts.TranscriptLang) {
		return opts, fmt.Errorf("openai can only transcribe natively or translate to english, got %q", opts.TranscriptLang)
	}
	return opts, nil
}

func apiKeyEnv(p transcribe.Provider) string {
	if p == transcribe.ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

// whisper either keeps the spoken language or translates to English
func isValidOpenAITranscriptLanguage(lang string) bool {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "", "native", "english", "en":
		return true
	}
	return false
}

func runGenerate(cmd *cobra.Command, args []string) error {
	mediaPath := args[0]

	opts, err := transcribeOptions(cmd, cfg.Transcribe)
	if err != nil {
		return err
	}

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		outputPath = subtitle.PathForMedia(mediaPath)
	}

	track, err := generateSubtitles(cmd.Context(), mediaPath, outputPath, opts)
	if err != nil {
		return err
	}

	absOutput, _ := filepath.Abs(outputPath)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Subtitles generated successfully: %s\n", absOutput)
	fmt.Fprintf(out, "  Entries: %d\n", track.Len())
	fmt.Fprintf(out, "  Duration: %s\n", track.End())

	return nil
}

// generateSubtitles transcribes mediaPath and writes the result to
// outputPath as SubRip.
func generateSubtitles(
	ctx context.Context,
	mediaPath, outputPath string,
	opts generateOptions,
) (*subtitle.Track, error) {
	if _, err := os.Stat(mediaPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("file not found: %s", mediaPath)
	}
	if !audio.IsMediaFile(mediaPath) {
		return nil, fmt.Errorf("unsupported file type: %s (expected audio or video file)", filepath.Ext(mediaPath))
	}

	logger.Infow("Starting subtitle generation",
		"input", mediaPath,
		"output", outputPath,
		"provider", opts.Provider,
		"chunk_duration", opts.ChunkDuration.String(),
		"concurrency", opts.Concurrency,
	)

	tempDir, err := os.MkdirTemp("", "sublisten-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	audioPath, err := prepareAudio(ctx, mediaPath, tempDir)
	if err != nil {
		return nil, err
	}

	chunks, err := audio.ChunkAudio(ctx, audioPath, opts.ChunkDuration, filepath.Join(tempDir, "chunks"), opts.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to split audio: %w", err)
	}
	logger.Infow("Created audio chunks", "count", len(chunks))

	transcriber, err := transcribe.Factory(ctx, opts.Provider, opts.APIKey, transcribe.Options{
		Language:           opts.Language,
		TranscriptLanguage: opts.TranscriptLang,
		Model:              opts.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create transcriber: %w", err)
	}

	result, err := transcribe.TranscribeChunks(ctx, transcriber, chunks, opts.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}
	logger.Infow("Transcription complete", "segments", len(result.Segments))

	track, err := subtitle.NewDefaultGenerator().Generate(result.Segments)
	if err != nil {
		return nil, fmt.Errorf("failed to generate subtitles: %w", err)
	}

	if err := subtitle.NewWriter().Write(track, outputPath); err != nil {
		return nil, fmt.Errorf("failed to write subtitles: %w", err)
	}
	track.Source = outputPath

	return track, nil
}

// converts the input to a small mono mp3 suitable for upload
func prepareAudio(ctx context.Context, mediaPath, tempDir string) (string, error) {
	audioPath := filepath.Join(tempDir, "audio.mp3")
	compression := audio.DefaultCompressionOptions()

	if audio.IsVideoFile(mediaPath) {
		logger.Infow("Extracting audio from video")
		extractOpts := video.ExtractAudioOptions{
			Format:     compression.Format,
			SampleRate: compression.SampleRate,
			Channels:   compression.Channels,
			Bitrate:    compression.Bitrate,
		}
		if err := video.NewProcessor().ExtractAudio(ctx, mediaPath, audioPath, extractOpts); err != nil {
			return "", fmt.Errorf("failed to extract audio: %w", err)
		}
		return audioPath, nil
	}

	logger.Infow("Compressing audio for transcription")
	if err := audio.CompressAudio(ctx, mediaPath, audioPath, compression); err != nil {
		return "", fmt.Errorf("failed to compress audio: %w", err)
	}
	return audioPath, nil
}
