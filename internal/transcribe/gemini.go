package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"google.golang.org/genai"

	"github.com/mgpai22/sublisten/internal/audio"
	"github.com/mgpai22/sublisten/internal/subtitle"
)

const defaultGeminiModel = "gemini-2.5-flash"

// implements Transcriber interface using Google Gemini
type GeminiTranscriber struct {
	client  *genai.Client
	model   string
	options Options
}

// segment from Gemini's JSON response
type transcriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func NewGeminiTranscriber(ctx context.Context, apiKey string, opts Options) (*GeminiTranscriber, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiTranscriber{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

// uploads the file, asks for a JSON transcript and parses it
func (t *GeminiTranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("audio file not readable: %w", err)
	}

	uploaded, err := t.client.Files.UploadFromPath(ctx, audioPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upload audio file: %w", err)
	}
	defer func() {
		_, _ = t.client.Files.Delete(context.WithoutCancel(ctx), uploaded.Name, nil)
	}()

	parts := []*genai.Part{
		genai.NewPartFromText(buildPrompt(t.options)),
		genai.NewPartFromURI(uploaded.URI, uploaded.MIMEType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	resp, err := t.client.Models.GenerateContent(ctx, t.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	segments, err := parseGeminiResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transcription: %w", err)
	}

	duration, _ := audio.GetDuration(ctx, audioPath)

	return &Result{
		Segments: segments,
		Language: t.options.Language,
		Duration: duration,
	}, nil
}

func buildPrompt(opts Options) string {
	var sb strings.Builder

	sb.WriteString("Generate a transcript of this audio as subtitles. ")
	sb.WriteString("Split it into short phrases of at most two sentences. ")
	sb.WriteString("Respond with a JSON array of objects with 'start', 'end' and 'text' fields, ")
	sb.WriteString("where 'start' and 'end' are offsets in seconds (numbers) and 'text' is a single line. ")

	if opts.Language != "" {
		fmt.Fprintf(&sb, "The audio is in %s. ", opts.Language)
	}
	if lang := strings.TrimSpace(opts.TranscriptLanguage); lang != "" && !strings.EqualFold(lang, "native") {
		fmt.Fprintf(&sb, "Write the transcript in %s. ", lang)
	}
	if opts.Prompt != "" {
		sb.WriteString(opts.Prompt)
		sb.WriteString(" ")
	}

	sb.WriteString("Return ONLY the JSON array, no other text or markdown formatting.")
	return sb.String()
}

func parseGeminiResponse(resp *genai.GenerateContentResponse) ([]subtitle.Segment, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("no text in Gemini response")
	}

	raw, err := extractTranscriptSegments(text)
	if err != nil {
		return nil, err
	}

	segments := make([]subtitle.Segment, 0, len(raw))
	for _, ts := range raw {
		segments = append(segments, subtitle.Segment{
			StartTime: secondsToDuration(ts.Start),
			EndTime:   secondsToDuration(ts.End),
			Text:      strings.TrimSpace(ts.Text),
		})
	}
	return segments, nil
}

var codeFenceRegex = regexp.MustCompile("```(?:json)?\\s*")

// removes markdown code fences from the response
func cleanJSONResponse(s string) string {
	s = codeFenceRegex.ReplaceAllString(strings.TrimSpace(s), "")
	return strings.TrimSpace(strings.ReplaceAll(s, "```", ""))
}

// wrapper keys models tend to use, tried before any other key
var preferredKeys = []string{"segments", "transcript", "data", "results"}

// extractTranscriptSegments finds the first JSON value in s that is, or
// wraps, a non-empty segment array. Models often add prose around it.
func extractTranscriptSegments(s string) ([]transcriptSegment, error) {
	s = cleanJSONResponse(s)

	for i := 0; i < len(s); i++ {
		if s[i] != '[' && s[i] != '{' {
			continue
		}
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(s[i:])).Decode(&raw); err != nil {
			continue
		}
		if segs, ok := segmentsFrom(raw, 0); ok {
			return segs, nil
		}
	}

	return nil, fmt.Errorf("no transcript segments found in response: %s", truncateString(s, 200))
}

func segmentsFrom(raw json.RawMessage, depth int) ([]transcriptSegment, bool) {
	if depth > 4 {
		return nil, false
	}

	var segs []transcriptSegment
	if err := json.Unmarshal(raw, &segs); err == nil {
		return segs, validateSegments(segs)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	for _, key := range preferredKeys {
		if v, ok := obj[key]; ok {
			if segs, ok := segmentsFrom(v, depth+1); ok {
				return segs, true
			}
			delete(obj, key)
		}
	}
	for _, v := range obj {
		if segs, ok := segmentsFrom(v, depth+1); ok {
			return segs, true
		}
	}
	return nil, false
}

// at least one segment must carry a timestamp or text
func validateSegments(segs []transcriptSegment) bool {
	for _, s := range segs {
		if s.Start != 0 || s.End != 0 || s.Text != "" {
			return true
		}
	}
	return false
}

// truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
