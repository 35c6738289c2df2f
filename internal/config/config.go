// Package config loads and validates the isiis-prep configuration file.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directories and files the commands operate on. Every
// field may be overridden per command with a flag.
type Paths struct {
	CTDLogFile  string `toml:"ctd_log_file"`
	ImagesDir   string `toml:"images_dir"`
	VideoRawDir string `toml:"video_raw_dir"`
	FramesDir   string `toml:"frames_dir"`
	MP4Dir      string `toml:"mp4_dir"`
	CSVDir      string `toml:"csv_dir"`
}

// Match contains tuning for the depth-matching pass.
type Match struct {
	// ClockOffsetSeconds is how far the instrument clock runs behind the
	// ROV-CTD clock.
	ClockOffsetSeconds int    `toml:"clock_offset_seconds"`
	ThresholdSeconds   int    `toml:"threshold_seconds"`
	ImageTimezone      string `toml:"image_timezone"`
	RawLog             bool   `toml:"raw_log"`
}

// Extract contains tuning for video frame extraction and conversion.
type Extract struct {
	FrameRate int `toml:"frame_rate"`
	Workers   int `toml:"workers"`
}

// Logging contains log output settings.
type Logging struct {
	Level string `toml:"level"`
}

// Config encapsulates all configuration values for isiis-prep.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Match   Match   `toml:"match"`
	Extract Extract `toml:"extract"`
	Logging Logging `toml:"logging"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Match: Match{
			ClockOffsetSeconds: 69,
			ThresholdSeconds:   8,
			ImageTimezone:      "America/Los_Angeles",
		},
		Extract: Extract{
			FrameRate: 1,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/isiis-prep/config.toml")
}

// Load locates, parses, and validates a configuration file. An absent file
// is not an error: the defaults are returned and exists is false.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// WriteSample writes the embedded sample configuration to path. It refuses
// to overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks the values that have in-range requirements. Path fields
// are validated by the commands that need them.
func (c *Config) Validate() error {
	if c.Match.ThresholdSeconds < 0 {
		return errors.New("match.threshold_seconds must not be negative")
	}
	if c.Extract.FrameRate < 1 {
		return errors.New("extract.frame_rate must be at least 1")
	}
	if c.Extract.Workers < 0 {
		return errors.New("extract.workers must not be negative")
	}
	if _, err := time.LoadLocation(c.Match.ImageTimezone); err != nil {
		return fmt.Errorf("match.image_timezone: %w", err)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

// ImageLocation returns the parsed instrument time zone.
func (c *Config) ImageLocation() (*time.Location, error) {
	return time.LoadLocation(c.Match.ImageTimezone)
}

func (c *Config) normalize() error {
	paths := []*string{
		&c.Paths.CTDLogFile,
		&c.Paths.ImagesDir,
		&c.Paths.VideoRawDir,
		&c.Paths.FramesDir,
		&c.Paths.MP4Dir,
		&c.Paths.CSVDir,
	}
	for _, p := range paths {
		if *p == "" {
			continue
		}
		expanded, err := expandPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		path = defaultPath
	} else {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		path = expanded
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return path, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path is a directory: %s", path)
	}
	return path, true, nil
}

func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}
