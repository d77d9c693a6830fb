// Package config provides configuration loading and management.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the full configuration for multitabrec.
type Config struct {
	// Recording
	URLs           []string `yaml:"urls"`
	ViewportWidth  int      `yaml:"viewport_width"`
	ViewportHeight int      `yaml:"viewport_height"`
	DurationMs     int      `yaml:"duration_ms"`
	Headless       bool     `yaml:"headless"`
	ChromePath     string   `yaml:"chrome_path"`
	UserAgent      string   `yaml:"user_agent"`
	Engine         string   `yaml:"engine"` // "chrome" or "playwright"

	// Crop selection in display space
	Crop CropConfig `yaml:"crop"`

	// Encoding
	FPS        float64  `yaml:"fps"`
	Quality    int      `yaml:"quality"`
	Bitrate    int      `yaml:"bitrate"`
	Codecs     []string `yaml:"codecs"`      // preference order
	FFmpegPath string   `yaml:"ffmpeg_path"` // empty for auto discovery

	// Transform
	Backend string `yaml:"backend"` // "auto" or "cpu"

	// Cache
	CacheFrames int `yaml:"cache_frames"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// CropConfig represents a display-space crop selection.
type CropConfig struct {
	X             float64 `yaml:"x"`
	Y             float64 `yaml:"y"`
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	DisplayWidth  float64 `yaml:"display_width"`
	DisplayHeight float64 `yaml:"display_height"`
	AspectRatio   float64 `yaml:"aspect_ratio"` // 0 for free-form
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		// Recording
		ViewportWidth:  1280,
		ViewportHeight: 720,
		DurationMs:     10000,
		Headless:       true,
		Engine:         "chrome",

		// Encoding
		FPS:     30.0,
		Quality: 80,
		Codecs:  []string{"h264", "vp9", "mjpeg"},

		// Transform
		Backend: "auto",

		// Cache
		CacheFrames: 100,

		// Debug
		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
