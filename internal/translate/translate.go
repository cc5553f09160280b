// Package translate rewrites the text of a subtitle track into another
// language with an LLM, keeping every entry's timing.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mgpai22/sublisten/internal/subtitle"
)

const DefaultBatchSize = 50

// single line sent to or returned by the model
type Item struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

type Options struct {
	InputLanguage  string
	TargetLanguage string
	Model          string
	Prompt         string
	BatchSize      int // items per request (default 50)
	Concurrency    int // requests in flight (default 3)
}

// completer sends one prompt to a provider and returns the reply text
type completer interface {
	complete(ctx context.Context, prompt string) (string, error)
}

type Translator struct {
	llm     completer
	options Options
}

func ParseProvider(name string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(name))); p {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported translation provider %q: use gemini, openai or anthropic", name)
	}
}

// creates a Translator backed by provider
func Factory(ctx context.Context, provider Provider, apiKey string, opts Options) (*Translator, error) {
	if opts.TargetLanguage == "" {
		return nil, fmt.Errorf("target language is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%s API key is required", provider)
	}

	var (
		llm completer
		err error
	)
	switch provider {
	case ProviderGemini:
		llm, err = newGemini(ctx, apiKey, opts.Model)
	case ProviderOpenAI:
		llm = newOpenAI(apiKey, opts.Model)
	case ProviderAnthropic:
		llm = newAnthropic(apiKey, opts.Model)
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", provider)
	}
	if err != nil {
		return nil, err
	}
	return newTranslator(llm, opts), nil
}

func newTranslator(llm completer, opts Options) *Translator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 3
	}
	return &Translator{llm: llm, options: opts}
}

// Translate sends items in batches, several at once, and returns the
// results in input order. Every input index must come back exactly once.
func (t *Translator) Translate(ctx context.Context, items []Item) ([]Item, error) {
	if len(items) == 0 {
		return []Item{}, nil
	}

	var batches [][]Item
	for start := 0; start < len(items); start += t.options.BatchSize {
		batches = append(batches, items[start:min(start+t.options.BatchSize, len(items))])
	}

	translated := make([][]Item, len(batches))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(t.options.Concurrency)
	for i, batch := range batches {
		g.Go(func() error {
			out, err := t.translateBatch(ctx, batch)
			if err != nil {
				return fmt.Errorf("batch %d failed: %w", i, err)
			}
			translated[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]Item, 0, len(items))
	for _, out := range translated {
		results = append(results, out...)
	}
	return results, nil
}

func (t *Translator) translateBatch(ctx context.Context, batch []Item) ([]Item, error) {
	reply, err := t.llm.complete(ctx, BuildPrompt(t.options, batch))
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}

	results, err := extractItems(cleanJSONResponse(reply))
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w (response: %s)", err, truncateString(reply, 200))
	}

	byIndex := make(map[int]string, len(results))
	for _, r := range results {
		byIndex[r.Index] = r.Text
	}
	out := make([]Item, len(batch))
	for i, in := range batch {
		text, ok := byIndex[in.Index]
		if !ok {
			return nil, fmt.Errorf("missing translation for index %d (expected %d results, got %d)", in.Index, len(batch), len(results))
		}
		out[i] = Item{Index: in.Index, Text: strings.TrimSpace(text)}
	}
	return out, nil
}

// TranslateTrack returns a copy of track with every entry's text
// translated. Timing, indices and warnings are kept.
func (t *Translator) TranslateTrack(ctx context.Context, track *subtitle.Track) (*subtitle.Track, error) {
	items := make([]Item, track.Len())
	for i, e := range track.Entries {
		items[i] = Item{Index: i, Text: e.Text}
	}

	results, err := t.Translate(ctx, items)
	if err != nil {
		return nil, err
	}

	out := &subtitle.Track{
		Entries:  make([]subtitle.Entry, track.Len()),
		Warnings: track.Warnings,
		Source:   track.Source,
	}
	copy(out.Entries, track.Entries)
	for _, r := range results {
		out.Entries[r.Index].Text = r.Text
	}
	return out, nil
}

// BuildPrompt creates the translation prompt for one batch
func BuildPrompt(opts Options, items []Item) string {
	var sb strings.Builder

	if opts.InputLanguage != "" {
		fmt.Fprintf(&sb, "Translate the following %s subtitle lines to %s.\n\n", opts.InputLanguage, opts.TargetLanguage)
	} else {
		fmt.Fprintf(&sb, "Translate the following subtitle lines to %s.\n\n", opts.TargetLanguage)
	}

	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString("1. Translate ONLY the text, preserving the meaning.\n")
	sb.WriteString("2. Keep each line a single line.\n")
	sb.WriteString("3. Return ONLY a JSON array of objects with 'index' and 'text' fields.\n")
	sb.WriteString("4. The 'index' values must match the input indices exactly.\n")
	sb.WriteString("5. Do not add any explanation or markdown formatting.\n\n")

	if opts.Prompt != "" {
		fmt.Fprintf(&sb, "Additional instructions: %s\n\n", opts.Prompt)
	}

	sb.WriteString("Input JSON:\n")
	input, _ := json.MarshalIndent(items, "", "  ")
	sb.Write(input)
	sb.WriteString("\n\nOutput the translated JSON array only:")

	return sb.String()
}

var codeFenceRegex = regexp.MustCompile("```(?:json)?\\s*")

func cleanJSONResponse(s string) string {
	s = codeFenceRegex.ReplaceAllString(strings.TrimSpace(s), "")
	return strings.TrimSpace(strings.ReplaceAll(s, "```", ""))
}

var wrapperKeys = []string{"results", "translations", "data", "items"}

// extractItems finds the first JSON array of items in text, bare or under
// a wrapper key
func extractItems(text string) ([]Item, error) {
	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&raw); err != nil {
			continue
		}
		if items, ok := itemsFrom(raw); ok {
			return items, nil
		}
	}
	return nil, fmt.Errorf("no valid translation JSON found in response")
}

func itemsFrom(raw json.RawMessage) ([]Item, bool) {
	var items []Item
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, hasText(items)
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, false
	}
	for _, key := range wrapperKeys {
		if v, ok := wrapper[key]; ok {
			if err := json.Unmarshal(v, &items); err == nil && hasText(items) {
				return items, true
			}
		}
	}
	return nil, false
}

func hasText(items []Item) bool {
	for _, it := range items {
		if it.Text != "" {
			return true
		}
	}
	return false
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
