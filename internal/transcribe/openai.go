package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mgpai22/sublisten/internal/audio"
	"github.com/mgpai22/sublisten/internal/subtitle"
)

const defaultOpenAIModel = "whisper-1"

// implements Transcriber interface using the OpenAI audio API
type OpenAITranscriber struct {
	client  openai.Client
	model   string
	options Options
}

// verbose_json body shared by transcriptions and translations
type verboseResponse struct {
	Text     string              `json:"text"`
	Language string              `json:"language"`
	Duration float64             `json:"duration"`
	Segments []transcriptSegment `json:"segments"`
}

func NewOpenAITranscriber(_ context.Context, apiKey string, opts Options) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	model := opts.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAITranscriber{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		options: opts,
	}, nil
}

// the translations endpoint only produces English
func (t *OpenAITranscriber) shouldUseTranslation() bool {
	lang := strings.ToLower(strings.TrimSpace(t.options.TranscriptLanguage))
	return lang == "english" || lang == "en"
}

func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	duration, _ := audio.GetDuration(ctx, audioPath)

	raw, text, language, err := t.request(ctx, file)
	if err != nil {
		return nil, err
	}

	segments, err := parseVerboseJSON(raw, duration)
	if err != nil {
		segments = []subtitle.Segment{{EndTime: duration, Text: strings.TrimSpace(text)}}
	}

	return &Result{
		Segments: segments,
		Language: language,
		Duration: duration,
	}, nil
}

// sends the file to the endpoint matching the options and returns the raw
// verbose_json body plus the plain text as a fallback
func (t *OpenAITranscriber) request(ctx context.Context, file *os.File) (raw, text, language string, err error) {
	if t.shouldUseTranslation() {
		params := openai.AudioTranslationNewParams{
			File:           file,
			Model:          openai.AudioModel(t.model),
			ResponseFormat: openai.AudioTranslationNewParamsResponseFormatVerboseJSON,
		}
		if t.options.Prompt != "" {
			params.Prompt = openai.String(t.options.Prompt)
		}
		resp, err := t.client.Audio.Translations.New(ctx, params)
		if err != nil {
			return "", "", "", fmt.Errorf("translation failed: %w", err)
		}
		return resp.RawJSON(), resp.Text, "en", nil
	}

	params := openai.AudioTranscriptionNewParams{
		File:                   file,
		Model:                  openai.AudioModel(t.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"segment"},
	}
	if t.options.Language != "" {
		params.Language = openai.String(t.options.Language)
	}
	if t.options.Prompt != "" {
		params.Prompt = openai.String(t.options.Prompt)
	}
	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", "", "", fmt.Errorf("transcription failed: %w", err)
	}
	return resp.RawJSON(), resp.Text, t.options.Language, nil
}

// parseVerboseJSON keeps non-blank segments. A body with text but no
// segments becomes one segment spanning the reported or fallback duration.
func parseVerboseJSON(raw string, fallback time.Duration) ([]subtitle.Segment, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty response")
	}

	var resp verboseResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse verbose_json response: %w", err)
	}

	if len(resp.Segments) == 0 {
		text := strings.TrimSpace(resp.Text)
		if text == "" {
			return nil, fmt.Errorf("no segments or text in response")
		}
		end := fallback
		if resp.Duration > 0 {
			end = secondsToDuration(resp.Duration)
		}
		return []subtitle.Segment{{EndTime: end, Text: text}}, nil
	}

	segments := make([]subtitle.Segment, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		segments = append(segments, subtitle.Segment{
			StartTime: secondsToDuration(seg.Start),
			EndTime:   secondsToDuration(seg.End),
			Text:      text,
		})
	}
	return segments, nil
}
