// Package detector provides the hand pose source used to drive the arm.
package detector

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/handarm/internal/landmark"
)

// Detector defines the interface for hand pose sources.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]landmark.Hand, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect. The arm follows one hand.
	MaxHands int `yaml:"max_hands"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `yaml:"min_detection_confidence"`

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `yaml:"min_tracking_confidence"`

	// Python is the interpreter used to run the service script.
	// Empty means a venv interpreter if one is found, else python3.
	Python string `yaml:"python"`

	// Script is the path of mediapipe_service.py. Empty means search the usual locations.
	Script string `yaml:"script"`
}

// DefaultConfig returns the detection settings used for arm control.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.7,
		MinTrackingConf: 0.6,
	}
}
