package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/sublisten/internal/subtitle"
	"github.com/mgpai22/sublisten/internal/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate [subtitle_file]",
	Short: "Translate a subtitle file into another language",
	Long: `Translate the text of a SubRip subtitle file with an LLM. Timing is kept,
so the result plays against the same audio.

The output defaults to the input path with the target language added before
the extension (talk.srt -> talk.english.srt).

Examples:
  sublisten translate talk.srt --to english
  sublisten translate talk.srt --to japanese --provider anthropic -o talk.ja.srt`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringP("output", "o", "", "Output file path")
	translateCmd.Flags().StringP("to", "t", "", "Target language (e.g., english, japanese)")
	translateCmd.Flags().String("from", "", "Source language (detected by the model when empty)")
	translateCmd.Flags().String("provider", "gemini", "Translation provider (gemini, openai, anthropic)")
	translateCmd.Flags().StringP("api-key", "k", "", "Provider API key (or set GEMINI_API_KEY / OPENAI_API_KEY / ANTHROPIC_API_KEY)")
	translateCmd.Flags().String("model", "", "Model to use (provider default when empty)")
	translateCmd.Flags().Int("batch-size", translate.DefaultBatchSize, "Lines per request")
	translateCmd.Flags().Int("concurrency", 3, "Number of parallel requests")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	provider, err := translate.ParseProvider(stringFlag(cmd, "provider", cfg.Translate.Provider))
	if err != nil {
		return err
	}
	target := stringFlag(cmd, "to", cfg.Translate.TargetLanguage)
	if target == "" {
		return fmt.Errorf("target language is required: use --to")
	}
	apiKey := stringFlag(cmd, "api-key", cfg.TranslateAPIKey(string(provider)))

	track, err := loadTrack(inputPath)
	if err != nil {
		return err
	}

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		outputPath = translatedPath(inputPath, target)
	}

	tr, err := translate.Factory(cmd.Context(), provider, apiKey, translate.Options{
		InputLanguage:  stringFlag(cmd, "from", ""),
		TargetLanguage: target,
		Model:          stringFlag(cmd, "model", cfg.Translate.Model),
		BatchSize:      intFlag(cmd, "batch-size", cfg.Translate.BatchSize),
		Concurrency:    intFlag(cmd, "concurrency", cfg.Translate.Concurrency),
	})
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}

	logger.Infow("Translating subtitles",
		"input", inputPath,
		"output", outputPath,
		"provider", provider,
		"target", target,
		"entries", track.Len(),
	)

	translated, err := tr.TranslateTrack(cmd.Context(), track)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}

	if err := subtitle.NewWriter().Write(translated, outputPath); err != nil {
		return fmt.Errorf("failed to write subtitles: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Subtitles translated successfully: %s\n", absOutput)
	fmt.Fprintf(cmd.OutOrStdout(), "  Entries: %d\n", translated.Len())
	return nil
}

// talk.srt + "Brazilian Portuguese" -> talk.brazilian-portuguese.srt
func translatedPath(inputPath, language string) string {
	ext := filepath.Ext(inputPath)
	lang := strings.Join(strings.Fields(strings.ToLower(language)), "-")
	return strings.TrimSuffix(inputPath, ext) + "." + lang + ext
}
