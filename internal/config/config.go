// Package config handles loader and tool configuration loading and management.
package config

import "time"

// Config holds all settings shared by the command line tools.
type Config struct {
	Loader    LoaderConfig    `yaml:"loader"`
	Window    WindowConfig    `yaml:"window"`
	Playback  PlaybackConfig  `yaml:"playback"`
	Resources ResourcesConfig `yaml:"resources"`
	Capture   CaptureConfig   `yaml:"capture"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoaderConfig holds asset construction defaults.
type LoaderConfig struct {
	CastShadows    bool `yaml:"cast_shadows"`
	ReceiveShadows bool `yaml:"receive_shadows"`
	ComputeBounds  bool `yaml:"compute_bounds"`
}

// WindowConfig holds display settings for the GL tool.
type WindowConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	Hidden     bool `yaml:"hidden"`
}

// PlaybackConfig holds animation playback settings.
type PlaybackConfig struct {
	Animation int           `yaml:"animation"` // Index of the animation to play, -1 for all
	Speed     float32       `yaml:"speed"`
	Loop      bool          `yaml:"loop"`
	Duration  time.Duration `yaml:"duration"` // How long to run; 0 runs until the window closes
}

// ResourcesConfig holds settings for the resource-loading stage.
type ResourcesConfig struct {
	BasePath string `yaml:"base_path"` // Directory relative URIs resolve against; empty = asset directory
}

// CaptureConfig holds offscreen snapshot settings for the GL tool.
type CaptureConfig struct {
	Path string  `yaml:"path"` // PNG to write; empty disables capture
	Time float32 `yaml:"time"` // Animation time of the captured pose, in seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Loader: LoaderConfig{
			CastShadows:    true,
			ReceiveShadows: true,
			ComputeBounds:  true,
		},
		Window: WindowConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			Hidden:     false,
		},
		Playback: PlaybackConfig{
			Animation: -1,
			Speed:     1.0,
			Loop:      true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
