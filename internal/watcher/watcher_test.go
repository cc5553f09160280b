package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mgpai22/sublisten/internal/subtitle"
)

type reload struct {
	track *subtitle.Track
	err   error
}

func startWatcher(t *testing.T, path string) <-chan reload {
	t.Helper()

	got := make(chan reload, 4)
	w, err := New(path, func(_ context.Context, track *subtitle.Track, err error) {
		got <- reload{track, err}
	}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	w.SetDebounce(20 * time.Millisecond)
	t.Cleanup(func() { w.Stop() })

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return got
}

func waitReload(t *testing.T, got <-chan reload) reload {
	t.Helper()
	select {
	case r := <-got:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("no reload within 5s")
		return reload{}
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talk.srt")
	if err := os.WriteFile(path, []byte("1\n00:00:01,000 --> 00:00:02,000\nHello\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := startWatcher(t, path)

	updated := "1\n00:00:01,000 --> 00:00:02,000\nHello\n\n2\n00:00:03,000 --> 00:00:04,000\nAgain\n\n"
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}

	r := waitReload(t, got)
	if r.err != nil {
		t.Fatalf("reload error = %v", r.err)
	}
	if r.track.Len() != 2 {
		t.Fatalf("reloaded %d entries, want 2", r.track.Len())
	}
	if r.track.Entries[1].Text != "Again" {
		t.Errorf("second text = %q, want Again", r.track.Entries[1].Text)
	}
}

func TestWatcherReportsParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talk.srt")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	got := startWatcher(t, path)

	if err := os.WriteFile(path, []byte("1\nabc --> def\nBroken\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := waitReload(t, got)
	if r.err == nil {
		t.Fatal("expected parse error")
	}
	if r.track != nil {
		t.Error("track should be nil on parse error")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "talk.srt")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	got := startWatcher(t, path)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case r := <-got:
		t.Fatalf("unexpected reload: %+v", r)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope", "talk.srt"), func(context.Context, *subtitle.Track, error) {}, nil)
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
