package transcribe

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mgpai22/sublisten/internal/audio"
	"github.com/mgpai22/sublisten/internal/subtitle"
)

type fakeTranscriber struct {
	mu       sync.Mutex
	segments map[string][]subtitle.Segment
	fail     string
	calls    []string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, audioPath)
	f.mu.Unlock()

	if audioPath == f.fail {
		return nil, errors.New("quota exceeded")
	}
	return &Result{Segments: f.segments[audioPath], Language: "ja"}, nil
}

func TestParseProvider(t *testing.T) {
	tests := []struct {
		input   string
		want    Provider
		wantErr bool
	}{
		{"gemini", ProviderGemini, false},
		{" OpenAI ", ProviderOpenAI, false},
		{"anthropic", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseProvider(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseProvider(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseProvider(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFactory(t *testing.T) {
	ctx := context.Background()

	if _, err := Factory(ctx, ProviderOpenAI, "", Options{}); err == nil {
		t.Error("expected error for missing API key")
	}
	if _, err := Factory(ctx, Provider("whisper.cpp"), "key", Options{}); err == nil {
		t.Error("expected error for unsupported provider")
	}

	tr, err := Factory(ctx, ProviderOpenAI, "sk-test", Options{})
	if err != nil {
		t.Fatalf("Factory() error = %v", err)
	}
	o, ok := tr.(*OpenAITranscriber)
	if !ok {
		t.Fatalf("Factory() returned %T, want *OpenAITranscriber", tr)
	}
	if o.model != defaultOpenAIModel {
		t.Errorf("model = %q, want %q", o.model, defaultOpenAIModel)
	}
}

func TestTranscribeChunksOffsetsAndOrders(t *testing.T) {
	fake := &fakeTranscriber{segments: map[string][]subtitle.Segment{
		"chunk_000.mp3": {{StartTime: 0, EndTime: 2 * time.Second, Text: "first"}},
		"chunk_001.mp3": {
			{StartTime: time.Second, EndTime: 3 * time.Second, Text: "second"},
			{StartTime: 4 * time.Second, EndTime: 5 * time.Second, Text: "third"},
		},
	}}
	chunks := []audio.ChunkInfo{
		{Path: "chunk_000.mp3", Index: 0, StartTime: 0, EndTime: time.Minute},
		{Path: "chunk_001.mp3", Index: 1, StartTime: time.Minute, EndTime: 90 * time.Second},
	}

	result, err := TranscribeChunks(context.Background(), fake, chunks, 2)
	if err != nil {
		t.Fatalf("TranscribeChunks() error = %v", err)
	}

	want := []subtitle.Segment{
		{StartTime: 0, EndTime: 2 * time.Second, Text: "first"},
		{StartTime: 61 * time.Second, EndTime: 63 * time.Second, Text: "second"},
		{StartTime: 64 * time.Second, EndTime: 65 * time.Second, Text: "third"},
	}
	if len(result.Segments) != len(want) {
		t.Fatalf("got %d segments, want %d", len(result.Segments), len(want))
	}
	for i, seg := range result.Segments {
		if seg != want[i] {
			t.Errorf("segment %d = %+v, want %+v", i, seg, want[i])
		}
	}
	if result.Duration != 90*time.Second {
		t.Errorf("Duration = %v, want 1m30s", result.Duration)
	}
	if result.Language != "ja" {
		t.Errorf("Language = %q, want ja", result.Language)
	}
}

func TestTranscribeChunksError(t *testing.T) {
	fake := &fakeTranscriber{fail: "b.mp3"}
	chunks := []audio.ChunkInfo{
		{Path: "a.mp3", Index: 0},
		{Path: "b.mp3", Index: 1},
	}

	_, err := TranscribeChunks(context.Background(), fake, chunks, 1)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "chunk 1 failed") {
		t.Errorf("error = %v, want chunk 1 failure", err)
	}
}

func TestTranscribeChunksEmpty(t *testing.T) {
	result, err := TranscribeChunks(context.Background(), &fakeTranscriber{}, nil, 3)
	if err != nil {
		t.Fatalf("TranscribeChunks() error = %v", err)
	}
	if len(result.Segments) != 0 {
		t.Errorf("got %d segments, want 0", len(result.Segments))
	}
}
