package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateClassifier(); err != nil {
		return err
	}
	if err := c.validateCamera(); err != nil {
		return err
	}
	if err := c.validateDetector(); err != nil {
		return err
	}
	if err := c.validateSpeech(); err != nil {
		return err
	}
	if c.Plugins.TimeoutSeconds < 0 {
		return errors.New("plugins.timeout_seconds must not be negative")
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateClassifier() error {
	parsed, err := url.Parse(c.Classifier.BaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("classifier.base_url %q must be an absolute http(s) url", c.Classifier.BaseURL)
	}
	if c.Classifier.TimeoutSeconds <= 0 {
		return errors.New("classifier.timeout_seconds must be positive")
	}
	if !(c.Classifier.RequestsPerSecond > 0) || math.IsInf(c.Classifier.RequestsPerSecond, 0) {
		return errors.New("classifier.requests_per_second must be positive")
	}
	if !(c.Classifier.Threshold > 0 && c.Classifier.Threshold < 1) {
		return errors.New("classifier.threshold must be in (0, 1)")
	}
	return nil
}

func (c *Config) validateCamera() error {
	if c.Camera.FPS <= 0 {
		return errors.New("camera.fps must be positive")
	}
	if c.Camera.DeviceID < 0 {
		return errors.New("camera.device_id must not be negative")
	}
	return nil
}

func (c *Config) validateDetector() error {
	if c.Detector.MaxHands < 1 {
		return errors.New("detector.max_hands must be at least 1")
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return errors.New("detector.min_confidence must be between 0 and 1")
	}
	if c.Detector.MinTrackingConfidence < 0 || c.Detector.MinTrackingConfidence > 1 {
		return errors.New("detector.min_tracking_confidence must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateSpeech() error {
	if c.Speech.Enabled && c.Speech.Command == "" {
		return errors.New("speech.command is required when speech is enabled")
	}
	if c.Speech.TimeoutSeconds < 0 {
		return errors.New("speech.timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be auto, console, or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
	return nil
}
