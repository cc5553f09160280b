package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "empty config gets defaults",
			config:  Config{},
			wantErr: false,
		},
		{
			name:    "silent backend",
			config:  Config{Player: PlayerConfig{Backend: " Silent "}},
			wantErr: false,
		},
		{
			name:    "unknown backend",
			config:  Config{Player: PlayerConfig{Backend: "vlc"}},
			wantErr: true,
		},
		{
			name:    "volume too high",
			config:  Config{Player: PlayerConfig{Volume: intPtr(200)}},
			wantErr: true,
		},
		{
			name:    "negative volume",
			config:  Config{Player: PlayerConfig{Volume: intPtr(-1)}},
			wantErr: true,
		},
		{
			name:    "muted",
			config:  Config{Player: PlayerConfig{Volume: intPtr(0)}},
			wantErr: false,
		},
		{
			name:    "negative tick",
			config:  Config{Sync: SyncConfig{TickInterval: -time.Second}},
			wantErr: true,
		},
		{
			name:    "negative chunk",
			config:  Config{Transcribe: TranscribeConfig{ChunkMinutes: -1}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Player.Backend != BackendMPV {
		t.Errorf("expected backend mpv, got %q", cfg.Player.Backend)
	}
	if cfg.Player.Volume == nil || *cfg.Player.Volume != DefaultVolume {
		t.Errorf("expected volume %d, got %v", DefaultVolume, cfg.Player.Volume)
	}
	if cfg.Sync.TickInterval != 100*time.Millisecond {
		t.Errorf("expected 100ms tick, got %v", cfg.Sync.TickInterval)
	}
	if cfg.Sync.SeekStep != 5*time.Second {
		t.Errorf("expected 5s seek step, got %v", cfg.Sync.SeekStep)
	}
	if cfg.Transcribe.Provider != "gemini" || cfg.Transcribe.Concurrency != 3 || cfg.Transcribe.ChunkMinutes != 1 {
		t.Errorf("unexpected transcribe defaults: %+v", cfg.Transcribe)
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Chdir(t.TempDir())

	content := `player:
  backend: silent
  start_paused: true
  volume: 80
sync:
  tick_interval: 250ms
  watch: true
logging:
  level: debug
  format: json
transcribe:
  provider: openai
  chunk_minutes: 2
`
	if err := os.WriteFile("custom.yaml", []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("SUBLISTEN_MPV_PATH", "/opt/mpv/bin/mpv")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("custom.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Player.Backend != BackendSilent || !cfg.Player.StartPaused || *cfg.Player.Volume != 80 {
		t.Errorf("unexpected player config: %+v", cfg.Player)
	}
	if cfg.Sync.TickInterval != 250*time.Millisecond || !cfg.Sync.Watch {
		t.Errorf("unexpected sync config: %+v", cfg.Sync)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Tools.MPV != "/opt/mpv/bin/mpv" {
		t.Errorf("env override not applied: %q", cfg.Tools.MPV)
	}
	if got := cfg.Transcribe.APIKey("openai"); got != "sk-test" {
		t.Errorf("expected openai key from env, got %q", got)
	}
	if cfg.Transcribe.ChunkMinutes != 2 {
		t.Errorf("expected chunk_minutes 2, got %d", cfg.Transcribe.ChunkMinutes)
	}
}

func TestLoadZeroVolume(t *testing.T) {
	t.Chdir(t.TempDir())

	content := "player:\n  volume: 0\n  socket: /tmp/mpv.sock\n"
	if err := os.WriteFile("muted.yaml", []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load("muted.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Player.Volume == nil || *cfg.Player.Volume != 0 {
		t.Errorf("explicit volume 0 was replaced: %v", cfg.Player.Volume)
	}
	if cfg.Player.Socket != "/tmp/mpv.sock" {
		t.Errorf("expected socket from file, got %q", cfg.Player.Socket)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())

	if _, err := Load(""); err != nil {
		t.Errorf("missing default config should not fail: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing explicit config should fail")
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SUBLISTEN_BACKEND", "")
	os.Unsetenv("SUBLISTEN_BACKEND")

	if err := os.WriteFile(".env", []byte("SUBLISTEN_BACKEND=silent\n"), 0644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Player.Backend != BackendSilent {
		t.Errorf("expected backend from .env, got %q", cfg.Player.Backend)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	t.Chdir(t.TempDir())
	if err := os.WriteFile(DefaultPath, []byte("player: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(""); err == nil {
		t.Error("expected parse error")
	}
}

func TestTranslateAPIKey(t *testing.T) {
	cfg := &Config{
		Transcribe: TranscribeConfig{GeminiAPIKey: "g", OpenAIAPIKey: "o"},
		Translate:  TranslateConfig{AnthropicAPIKey: "a"},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	for provider, want := range map[string]string{"gemini": "g", "openai": "o", "Anthropic": "a"} {
		if got := cfg.TranslateAPIKey(provider); got != want {
			t.Errorf("TranslateAPIKey(%q) = %q, want %q", provider, got, want)
		}
	}
	if cfg.Translate.BatchSize != 50 || cfg.Translate.Provider != "gemini" {
		t.Errorf("unexpected translate defaults: %+v", cfg.Translate)
	}
}

func TestExampleConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "sublisten.example.yaml"))
	if err != nil {
		t.Fatalf("Load(example) error = %v", err)
	}
	if cfg.Sync.SeekStep != 5*time.Second || cfg.Translate.BatchSize != 50 {
		t.Errorf("unexpected example values: %+v %+v", cfg.Sync, cfg.Translate)
	}
}

func intPtr(v int) *int { return &v }
