package engine

import (
	"fmt"
	"time"
)

// Config holds the calibration constants of the capture state machine.
// Velocities are on the scale produced by the sensor package.
type Config struct {
	Language string `yaml:"language"`

	StartThreshold   float64       `yaml:"start_threshold"`
	SilenceThreshold float64       `yaml:"silence_threshold"`
	SilencePause     time.Duration `yaml:"silence_pause"`
	HandsLostBuffer  time.Duration `yaml:"hands_lost_buffer"`
	MaxDuration      time.Duration `yaml:"max_duration"`
	CaptureInterval  time.Duration `yaml:"capture_interval"`
	FrameCap         int           `yaml:"frame_cap"`
	MinExitFrames    int           `yaml:"min_exit_frames"`
	MinFrames        int           `yaml:"min_frames"`

	ContextStaleAfter time.Duration `yaml:"context_stale_after"`
	ContextMaxWords   int           `yaml:"context_max_words"`

	RateLimitCooldown time.Duration `yaml:"rate_limit_cooldown"`
	SettleDelay       time.Duration `yaml:"settle_delay"`
	DispatchTimeout   time.Duration `yaml:"dispatch_timeout"`
}

// DefaultConfig returns the calibrated defaults.
func DefaultConfig() Config {
	return Config{
		Language:          "Spanish",
		StartThreshold:    0.5,
		SilenceThreshold:  0.03,
		SilencePause:      1500 * time.Millisecond,
		HandsLostBuffer:   400 * time.Millisecond,
		MaxDuration:       10 * time.Second,
		CaptureInterval:   70 * time.Millisecond,
		FrameCap:          25,
		MinExitFrames:     2,
		MinFrames:         3,
		ContextStaleAfter: 15 * time.Second,
		ContextMaxWords:   30,
		RateLimitCooldown: 10 * time.Second,
		SettleDelay:       300 * time.Millisecond,
		DispatchTimeout:   30 * time.Second,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	durations := []struct {
		name string
		d    time.Duration
	}{
		{"silence_pause", c.SilencePause},
		{"hands_lost_buffer", c.HandsLostBuffer},
		{"max_duration", c.MaxDuration},
		{"capture_interval", c.CaptureInterval},
		{"context_stale_after", c.ContextStaleAfter},
		{"rate_limit_cooldown", c.RateLimitCooldown},
		{"settle_delay", c.SettleDelay},
		{"dispatch_timeout", c.DispatchTimeout},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("engine %s: must be positive, got %s", d.name, d.d)
		}
	}

	if c.Language == "" {
		return fmt.Errorf("engine language: must not be empty")
	}
	if c.SilenceThreshold < 0 {
		return fmt.Errorf("engine silence_threshold: must not be negative, got %v", c.SilenceThreshold)
	}
	if c.StartThreshold <= c.SilenceThreshold {
		return fmt.Errorf("engine start_threshold %v must exceed silence_threshold %v", c.StartThreshold, c.SilenceThreshold)
	}
	if c.MinFrames < 1 {
		return fmt.Errorf("engine min_frames: must be at least 1, got %d", c.MinFrames)
	}
	if c.MinExitFrames < 1 {
		return fmt.Errorf("engine min_exit_frames: must be at least 1, got %d", c.MinExitFrames)
	}
	if c.FrameCap < 4 || c.FrameCap < c.MinFrames {
		return fmt.Errorf("engine frame_cap %d: must be at least 4 and at least min_frames", c.FrameCap)
	}
	if c.ContextMaxWords < 1 {
		return fmt.Errorf("engine context_max_words: must be at least 1, got %d", c.ContextMaxWords)
	}
	return nil
}
