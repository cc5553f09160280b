package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given and the file exists.
const DefaultPath = "sublisten.yaml"

type Config struct {
	Player     PlayerConfig     `yaml:"player"`
	Sync       SyncConfig       `yaml:"sync"`
	Logging    LoggingConfig    `yaml:"logging"`
	Tools      ToolsConfig      `yaml:"tools"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Translate  TranslateConfig  `yaml:"translate"`
}

type PlayerConfig struct {
	Backend     string `yaml:"backend"`
	StartPaused bool   `yaml:"start_paused"`
	// nil means unset; 0 mutes
	Volume *int `yaml:"volume"`
	// attach to an mpv already listening on this IPC socket
	Socket string `yaml:"socket"`

	// how long to wait for mpv's IPC socket
	StartTimeout time.Duration `yaml:"start_timeout"`
}

type SyncConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	SeekStep     time.Duration `yaml:"seek_step"`
	Watch        bool          `yaml:"watch"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type ToolsConfig struct {
	MPV     string `yaml:"mpv"`
	FFmpeg  string `yaml:"ffmpeg"`
	FFprobe string `yaml:"ffprobe"`
}

type TranscribeConfig struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	Language       string `yaml:"language"`
	TranscriptLang string `yaml:"transcript_language"`
	ChunkMinutes   int    `yaml:"chunk_minutes"`
	Concurrency    int    `yaml:"concurrency"`
	GeminiAPIKey   string `yaml:"-"`
	OpenAIAPIKey   string `yaml:"-"`
}

type TranslateConfig struct {
	Provider        string `yaml:"provider"`
	Model           string `yaml:"model"`
	TargetLanguage  string `yaml:"target_language"`
	BatchSize       int    `yaml:"batch_size"`
	Concurrency     int    `yaml:"concurrency"`
	AnthropicAPIKey string `yaml:"-"`
}

const (
	BackendMPV    = "mpv"
	BackendSilent = "silent"
)

const DefaultVolume = 100

// Load reads .env (if any), the YAML file at path, then environment
// overrides, and validates the result. A missing file is an error only
// when the path was given explicitly.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Player.Backend, "SUBLISTEN_BACKEND")
	set(&c.Player.Socket, "SUBLISTEN_MPV_SOCKET")
	set(&c.Tools.MPV, "SUBLISTEN_MPV_PATH")
	set(&c.Tools.FFmpeg, "SUBLISTEN_FFMPEG_PATH")
	set(&c.Tools.FFprobe, "SUBLISTEN_FFPROBE_PATH")
	set(&c.Logging.Level, "SUBLISTEN_LOG_LEVEL")
	set(&c.Transcribe.GeminiAPIKey, "GEMINI_API_KEY")
	set(&c.Transcribe.OpenAIAPIKey, "OPENAI_API_KEY")
	set(&c.Translate.AnthropicAPIKey, "ANTHROPIC_API_KEY")
}

// Validate rejects impossible values and fills defaults for unset ones.
func (c *Config) Validate() error {
	c.Player.Backend = strings.ToLower(strings.TrimSpace(c.Player.Backend))
	switch c.Player.Backend {
	case "":
		c.Player.Backend = BackendMPV
	case BackendMPV, BackendSilent:
	default:
		return fmt.Errorf("player.backend must be %q or %q, got %q", BackendMPV, BackendSilent, c.Player.Backend)
	}

	if v := c.Player.Volume; v != nil && (*v < 0 || *v > 130) {
		return fmt.Errorf("player.volume must be between 0 and 130, got %d", *v)
	}
	if c.Sync.TickInterval < 0 {
		return fmt.Errorf("sync.tick_interval must be positive, got %s", c.Sync.TickInterval)
	}
	if c.Translate.BatchSize < 0 {
		return fmt.Errorf("translate.batch_size must be positive, got %d", c.Translate.BatchSize)
	}
	if c.Transcribe.ChunkMinutes < 0 {
		return fmt.Errorf("transcribe.chunk_minutes must be positive, got %d", c.Transcribe.ChunkMinutes)
	}

	if c.Player.Volume == nil {
		v := DefaultVolume
		c.Player.Volume = &v
	}
	if c.Player.StartTimeout == 0 {
		c.Player.StartTimeout = 5 * time.Second
	}
	if c.Sync.TickInterval == 0 {
		c.Sync.TickInterval = 100 * time.Millisecond
	}
	if c.Sync.SeekStep == 0 {
		c.Sync.SeekStep = 5 * time.Second
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Transcribe.Provider == "" {
		c.Transcribe.Provider = "gemini"
	}
	if c.Transcribe.ChunkMinutes == 0 {
		c.Transcribe.ChunkMinutes = 1
	}
	if c.Transcribe.Concurrency <= 0 {
		c.Transcribe.Concurrency = 3
	}
	if c.Transcribe.TranscriptLang == "" {
		c.Transcribe.TranscriptLang = "native"
	}
	if c.Translate.Provider == "" {
		c.Translate.Provider = "gemini"
	}
	if c.Translate.BatchSize == 0 {
		c.Translate.BatchSize = 50
	}
	if c.Translate.Concurrency <= 0 {
		c.Translate.Concurrency = 3
	}

	return nil
}

// APIKey returns the key for the configured transcription provider.
func (c *TranscribeConfig) APIKey(provider string) string {
	if strings.EqualFold(provider, "openai") {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// TranslateAPIKey returns the key for a translation provider. Gemini and
// OpenAI share the transcription keys.
func (c *Config) TranslateAPIKey(provider string) string {
	if strings.EqualFold(provider, "anthropic") {
		return c.Translate.AnthropicAPIKey
	}
	return c.Transcribe.APIKey(provider)
}
