package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeClassifier()
	c.normalizeSpeech()
	c.normalizeServer()
	c.normalizePlugins()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if script := strings.TrimSpace(c.Detector.ScriptPath); script != "" {
		if c.Detector.ScriptPath, err = expandPath(script); err != nil {
			return fmt.Errorf("detector.script_path: %w", err)
		}
	}
	if strings.TrimSpace(c.Plugins.Dir) == "" {
		c.Plugins.Dir = filepath.Join(c.Paths.DataDir, "plugins")
	} else if c.Plugins.Dir, err = expandPath(strings.TrimSpace(c.Plugins.Dir)); err != nil {
		return fmt.Errorf("plugins.dir: %w", err)
	}
	if static := strings.TrimSpace(c.Server.StaticDir); static != "" {
		if c.Server.StaticDir, err = expandPath(static); err != nil {
			return fmt.Errorf("server.static_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeClassifier() {
	c.Classifier.BaseURL = strings.TrimSpace(c.Classifier.BaseURL)
	if c.Classifier.BaseURL == "" {
		if value, ok := os.LookupEnv(classifierURLEnv); ok {
			c.Classifier.BaseURL = strings.TrimSpace(value)
		}
	}
	if c.Classifier.BaseURL == "" {
		c.Classifier.BaseURL = defaultClassifierBaseURL
	}
	c.Classifier.BaseURL = strings.TrimRight(c.Classifier.BaseURL, "/")
	if c.Classifier.TimeoutSeconds == 0 {
		c.Classifier.TimeoutSeconds = defaultClassifierTimeout
	}
}

func (c *Config) normalizeSpeech() {
	c.Speech.Command = strings.TrimSpace(c.Speech.Command)
	if c.Speech.TimeoutSeconds == 0 {
		c.Speech.TimeoutSeconds = defaultSpeechTimeout
	}
}

func (c *Config) normalizePlugins() {
	if c.Plugins.TimeoutSeconds == 0 {
		c.Plugins.TimeoutSeconds = defaultPluginTimeout
	}
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
