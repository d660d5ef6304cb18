// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file. Unset keys stay nil so
// callers can tell them apart from explicit zero values.
type FileConfig struct {
	Pipeline    PipelineConfig    `toml:"pipeline"`
	Recognition RecognitionConfig `toml:"recognition"`
	Action      ActionConfig      `toml:"action"`
	Trackpad    TrackpadConfig    `toml:"trackpad"`
	Keyboard    KeyboardConfig    `toml:"keyboard"`
	Journal     JournalConfig     `toml:"journal"`
	Log         LogConfig         `toml:"log"`
}

// PipelineConfig maps channel and startup settings.
type PipelineConfig struct {
	ChannelCapacity *int    `toml:"channel-capacity"`
	InitialMode     *string `toml:"initial-mode"`
}

// RecognitionConfig maps matcher settings.
type RecognitionConfig struct {
	Threshold      *float64 `toml:"threshold"`
	MinPoints      *int     `toml:"min-points"`
	ApplyRotation  *bool    `toml:"apply-rotation"`
	CorpusCapacity *int     `toml:"corpus-capacity"`
}

// ActionConfig maps the keyboard shortcut fired on a match.
type ActionConfig struct {
	Shortcut     *string         `toml:"shortcut"`
	ReleaseDelay *Duration       `toml:"release-delay"`
	Bindings     []BindingConfig `toml:"binding"`
}

// BindingConfig overrides the shortcut for one template. Templates are
// numbered in learning order from 0 and keep their number after eviction.
type BindingConfig struct {
	Template int    `toml:"template"`
	Shortcut string `toml:"shortcut"`
}

// TrackpadConfig maps the pointing device settings.
type TrackpadConfig struct {
	Device         *string   `toml:"device"`
	SampleInterval *Duration `toml:"sample-interval"`
}

// KeyboardConfig maps the HID output device.
type KeyboardConfig struct {
	Device *string `toml:"device"`
}

// JournalConfig toggles the SQLite journal.
type JournalConfig struct {
	Enabled *bool `toml:"enabled"`
}

// LogConfig maps logger settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// Duration decodes TOML strings such as "250ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
