package detector

import "gocv.io/x/gocv"

// Detector defines the interface for landmark detection implementations.
type Detector interface {
	// Detect analyzes a (mirrored) video frame and returns the hands and body
	// pose found in it. An Observation with no hands and a nil Pose means
	// nothing was detected.
	Detect(frame *gocv.Mat) (*Observation, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for landmark detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int `yaml:"max_hands"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `yaml:"min_confidence"`

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `yaml:"min_tracking_confidence"`

	// Script is the path of the MediaPipe service script. Empty means search
	// the usual locations.
	Script string `yaml:"script"`

	// Python is the interpreter used to run Script. Empty means search for a
	// virtual environment and fall back to python3.
	Python string `yaml:"python"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.8,
		MinTrackingConf: 0.5,
	}
}
