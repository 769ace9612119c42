// Package config loads and validates yubimoji's TOML configuration.
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

// Classifier configures the remote sign classifier.
type Classifier struct {
	BaseURL           string  `toml:"base_url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Threshold         float64 `toml:"threshold"`
}

// Timeout returns the per-request timeout.
func (c Classifier) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Camera configures the local capture device.
type Camera struct {
	Enabled  bool `toml:"enabled"`
	DeviceID int  `toml:"device_id"`
	FPS      int  `toml:"fps"`
}

// Detector configures the MediaPipe hand landmark subprocess.
type Detector struct {
	MaxHands              int     `toml:"max_hands"`
	MinConfidence         float64 `toml:"min_confidence"`
	MinTrackingConfidence float64 `toml:"min_tracking_confidence"`
	ScriptPath            string  `toml:"script_path"`
}

// Speech configures spoken output of accepted signs.
type Speech struct {
	Enabled        bool     `toml:"enabled"`
	Command        string   `toml:"command"`
	Args           []string `toml:"args"`
	SpeakWords     bool     `toml:"speak_words"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Timeout returns the per-utterance timeout.
func (s Speech) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Server configures the HTTP API.
type Server struct {
	Bind      string `toml:"bind"`
	StaticDir string `toml:"static_dir"`
}

// Plugins configures output plugins that receive resolved words.
type Plugins struct {
	Enabled        bool   `toml:"enabled"`
	Dir            string `toml:"dir"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the per-plugin timeout.
func (p Plugins) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Paths contains on-disk locations.
type Paths struct {
	DataDir string `toml:"data_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for yubimoji.
type Config struct {
	Classifier Classifier `toml:"classifier"`
	Camera     Camera     `toml:"camera"`
	Detector   Detector   `toml:"detector"`
	Speech     Speech     `toml:"speech"`
	Server     Server     `toml:"server"`
	Plugins    Plugins    `toml:"plugins"`
	Paths      Paths      `toml:"paths"`
	Logging    Logging    `toml:"logging"`
}

// DatabasePath returns the dictionary database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "yubimoji.db")
}

// LockPath returns the data directory lock file held by a running server.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "yubimoji.lock")
}

// EnsureDirectories creates the data directory.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.DataDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.DataDir, err)
	}
	return nil
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. A missing file
// yields the defaults; the returned bool reports whether the file existed.
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
		decoder.DisallowUnknownFields()
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

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = defaultConfigPath
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %q is a directory", expanded)
	}
	return expanded, true, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
