package transcribe

import (
	"strings"
	"testing"
)

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `[{"start":0}]`, `[{"start":0}]`},
		{"json fence", "```json\n[{\"start\":0}]\n```", `[{"start":0}]`},
		{"bare fence", "```\n[]\n```", `[]`},
		{"padding", "  \n[]\n  ", `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanJSONResponse(tt.input); got != tt.want {
				t.Errorf("cleanJSONResponse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractTranscriptSegments(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCount int
		wantFirst string
		wantErr   bool
	}{
		{
			name:      "bare array",
			input:     `[{"start":0,"end":2.5,"text":"Hello"},{"start":2.5,"end":4,"text":"World"}]`,
			wantCount: 2,
			wantFirst: "Hello",
		},
		{
			name:      "fenced array",
			input:     "```json\n[{\"start\":1,\"end\":2,\"text\":\"Hi\"}]\n```",
			wantCount: 1,
			wantFirst: "Hi",
		},
		{
			name:      "prose around array",
			input:     "Here is the transcript:\n[{\"start\":0,\"end\":1,\"text\":\"Yo\"}]\nDone.",
			wantCount: 1,
			wantFirst: "Yo",
		},
		{
			name:      "wrapped in segments key",
			input:     `{"segments":[{"start":0,"end":1,"text":"wrapped"}]}`,
			wantCount: 1,
			wantFirst: "wrapped",
		},
		{
			name:      "nested under unknown key",
			input:     `{"result":{"items":[{"start":3,"end":4,"text":"deep"}]}}`,
			wantCount: 1,
			wantFirst: "deep",
		},
		{
			name:      "timing without text kept",
			input:     `[{"start":1,"end":2,"text":""}]`,
			wantCount: 1,
			wantFirst: "",
		},
		{name: "empty array", input: `[]`, wantErr: true},
		{name: "no json", input: "I could not hear anything.", wantErr: true},
		{name: "all zero", input: `[{"start":0,"end":0,"text":""}]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractTranscriptSegments(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("extractTranscriptSegments() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != tt.wantCount {
				t.Fatalf("got %d segments, want %d", len(got), tt.wantCount)
			}
			if got[0].Text != tt.wantFirst {
				t.Errorf("first text = %q, want %q", got[0].Text, tt.wantFirst)
			}
		})
	}
}

func TestValidateSegments(t *testing.T) {
	if validateSegments(nil) {
		t.Error("nil segments should be invalid")
	}
	if validateSegments([]transcriptSegment{{}}) {
		t.Error("zero segment should be invalid")
	}
	if !validateSegments([]transcriptSegment{{}, {End: 1}}) {
		t.Error("segment with timing should be valid")
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(Options{Language: "Japanese", TranscriptLanguage: "English", Prompt: "Names: Taro."})
	for _, want := range []string{"The audio is in Japanese.", "Write the transcript in English.", "Names: Taro."} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	native := buildPrompt(Options{TranscriptLanguage: "native"})
	if strings.Contains(native, "Write the transcript in") {
		t.Error("native transcript language should not request translation")
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("short", 10); got != "short" {
		t.Errorf("truncateString() = %q", got)
	}
	if got := truncateString("abcdefghij", 4); got != "abcd..." {
		t.Errorf("truncateString() = %q, want abcd...", got)
	}
}
