// Package sensor turns camera frames and hand landmarks into the per-tick
// presence and velocity readings that drive the capture engine.
package sensor

import (
	"fmt"
	"time"
)

// Velocity sources.
const (
	SourceLandmarks = "landmarks"
	SourceFrameDiff = "frame-diff"
)

// Sample is one reading of the motion sensor.
type Sample struct {
	HandPresent bool      `json:"hand_present"`
	Velocity    float64   `json:"velocity"`
	At          time.Time `json:"at"`
}

// Config controls how readings are derived.
type Config struct {
	// Source selects how velocity is measured: landmarks or frame-diff.
	Source string `yaml:"source"`
	// MinScore is the detector score a hand needs to count as present.
	MinScore float64 `yaml:"min_score"`
	// Smoothing is the EMA weight given to the newest raw reading.
	Smoothing float64 `yaml:"smoothing"`
	// VelocityScale maps raw displacement onto the engine's threshold range.
	VelocityScale float64 `yaml:"velocity_scale"`
	// MinMotion is the changed-pixel percentage that counts as presence
	// when frame-diff runs without a hand detector.
	MinMotion float64 `yaml:"min_motion"`
	// FrameWidth and JPEGQuality shape the stills handed to the engine.
	FrameWidth  int `yaml:"frame_width"`
	JPEGQuality int `yaml:"jpeg_quality"`
}

// DefaultConfig returns the calibrated defaults.
func DefaultConfig() Config {
	return Config{
		Source:        SourceLandmarks,
		MinScore:      0.5,
		Smoothing:     0.5,
		VelocityScale: 10,
		MinMotion:     1.0,
		FrameWidth:    320,
		JPEGQuality:   50,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch c.Source {
	case SourceLandmarks, SourceFrameDiff:
	default:
		return fmt.Errorf("sensor source %q: want %s or %s", c.Source, SourceLandmarks, SourceFrameDiff)
	}
	if c.Smoothing <= 0 || c.Smoothing > 1 {
		return fmt.Errorf("sensor smoothing %v: want (0, 1]", c.Smoothing)
	}
	if c.VelocityScale <= 0 {
		return fmt.Errorf("sensor velocity_scale %v: must be positive", c.VelocityScale)
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("sensor min_score %v: want [0, 1]", c.MinScore)
	}
	return nil
}
