// Package ffmpegutil locates the ffmpeg binary and probes its capabilities.
package ffmpegutil

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
)

// ErrFFmpegNotFound is returned when no ffmpeg binary can be located.
var ErrFFmpegNotFound = errors.New("ffmpegutil: ffmpeg not found")

var (
	mu               sync.Mutex
	customFFmpegPath string
	encoderList      string
	encoderListPath  string
)

// SetFFmpegPath overrides ffmpeg discovery with an explicit binary path.
func SetFFmpegPath(path string) {
	mu.Lock()
	defer mu.Unlock()
	customFFmpegPath = path
	encoderList = ""
}

// IsAvailable checks if ffmpeg is available on the system.
func IsAvailable() bool {
	_, err := FindFFmpeg()
	return err == nil
}

// FindFFmpeg searches for ffmpeg.
// Priority: 1) SetFFmpegPath, 2) FFMPEG_PATH env, 3) PATH, 4) common locations.
func FindFFmpeg() (string, error) {
	mu.Lock()
	custom := customFFmpegPath
	mu.Unlock()

	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, custom)
	}

	if envPath := os.Getenv("FFMPEG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: FFMPEG_PATH %s not found", ErrFFmpegNotFound, envPath)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var commonPaths []string
	switch runtime.GOOS {
	case "windows":
		commonPaths = []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files (x86)\ffmpeg\bin\ffmpeg.exe`,
		}
	case "darwin":
		commonPaths = []string{
			"/opt/homebrew/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/usr/bin/ffmpeg",
		}
	default:
		commonPaths = []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/opt/homebrew/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		}
	}

	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", ErrFFmpegNotFound
}

// EncoderSupported reports whether the local ffmpeg build carries the named
// encoder (e.g. "libx264", "libvpx-vp9"). The encoder list is probed once
// per binary and cached.
func EncoderSupported(name string) bool {
	path, err := FindFFmpeg()
	if err != nil {
		return false
	}

	mu.Lock()
	defer mu.Unlock()

	if encoderListPath != path || encoderList == "" {
		out, err := exec.Command(path, "-hide_banner", "-encoders").Output()
		if err != nil {
			return false
		}
		encoderList = string(out)
		encoderListPath = path
	}

	return strings.Contains(encoderList, " "+name+" ")
}

// StderrBuffer collects a child process's stderr. os/exec writes to it from
// its own copier goroutine while the child runs, so every access is locked;
// error paths may read an excerpt before Wait returns.
type StderrBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *StderrBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *StderrBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// Tail returns the last few hundred bytes for error messages.
func (b *StderrBuffer) Tail() string {
	const max = 400

	b.mu.Lock()
	s := b.buf.String()
	b.mu.Unlock()

	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
