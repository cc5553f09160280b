// Package ffmpeg locates the external media binaries sublisten drives:
// ffmpeg and ffprobe for media inspection and conversion, mpv for playback.
package ffmpeg

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

type Tool string

const (
	ToolFFmpeg  Tool = "ffmpeg"
	ToolFFprobe Tool = "ffprobe"
	ToolMPV     Tool = "mpv"
)

// ErrNotFound is returned when a tool is neither configured nor on PATH.
var ErrNotFound = errors.New("binary not found")

var envVars = map[Tool]string{
	ToolFFmpeg:  "SUBLISTEN_FFMPEG_PATH",
	ToolFFprobe: "SUBLISTEN_FFPROBE_PATH",
	ToolMPV:     "SUBLISTEN_MPV_PATH",
}

type lookup struct {
	once sync.Once
	path string
	err  error
}

var (
	mu        sync.Mutex
	overrides = map[Tool]string{}
	lookups   = map[Tool]*lookup{}
)

// SetPath pins a tool to an explicit binary, typically from the config
// file. It must be called before the first Path lookup for that tool.
func SetPath(tool Tool, path string) {
	if path == "" {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	overrides[tool] = path
}

// Path resolves a tool once: explicit override, then its environment
// variable, then PATH.
func Path(tool Tool) (string, error) {
	mu.Lock()
	l, ok := lookups[tool]
	if !ok {
		l = &lookup{}
		lookups[tool] = l
	}
	override := overrides[tool]
	mu.Unlock()

	l.once.Do(func() {
		l.path, l.err = resolve(tool, override, os.Getenv)
	})
	return l.path, l.err
}

func FFmpegPath() (string, error) {
	return Path(ToolFFmpeg)
}

func FFprobePath() (string, error) {
	return Path(ToolFFprobe)
}

func MPVPath() (string, error) {
	return Path(ToolMPV)
}

func resolve(tool Tool, override string, getenv func(string) string) (string, error) {
	if override != "" {
		return checkExecutable(tool, override)
	}
	if env := envVars[tool]; env != "" {
		if p := getenv(env); p != "" {
			return checkExecutable(tool, p)
		}
	}
	found, err := exec.LookPath(string(tool))
	if err != nil {
		return "", fmt.Errorf("%w: %s is not on PATH (set %s)", ErrNotFound, tool, envVars[tool])
	}
	return found, nil
}

func checkExecutable(tool Tool, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s at %s: %v", ErrNotFound, tool, path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s at %s is a directory", ErrNotFound, tool, path)
	}
	return path, nil
}
