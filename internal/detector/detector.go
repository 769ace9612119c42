package detector

import (
	"strconv"

	"gocv.io/x/gocv"
)

// Detector finds hand landmarks in camera frames.
//
// Detect returns an empty slice when no hand is visible. Timestamps passed
// to one Detector must not decrease.
type Detector interface {
	Detect(frame *gocv.Mat, timestampMs int64) ([]HandLandmarks, error)
	Close() error
}

// Config tunes the landmarker service.
type Config struct {
	MaxHands               int
	MinDetectionConfidence float64
	MinTrackingConfidence  float64
	// ScriptPath overrides the service script lookup.
	ScriptPath string
}

// DefaultConfig tracks up to two hands at 0.5 confidence.
func DefaultConfig() Config {
	return Config{
		MaxHands:               2,
		MinDetectionConfidence: 0.5,
		MinTrackingConfidence:  0.5,
	}
}

// serviceArgs renders c as landmarker service flags. Unset values fall back
// to the defaults.
func (c Config) serviceArgs() []string {
	def := DefaultConfig()
	if c.MaxHands < 1 {
		c.MaxHands = def.MaxHands
	}
	if c.MinDetectionConfidence <= 0 {
		c.MinDetectionConfidence = def.MinDetectionConfidence
	}
	if c.MinTrackingConfidence <= 0 {
		c.MinTrackingConfidence = def.MinTrackingConfidence
	}
	return []string{
		"--max-hands", strconv.Itoa(c.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(c.MinDetectionConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(c.MinTrackingConfidence, 'f', -1, 64),
	}
}
