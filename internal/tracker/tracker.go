// Package tracker reads the camera each tick, runs hand detection and turns
// the result into sensor samples. It also keeps the latest picture for the
// engine's stills and the preview stream.
package tracker

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/clock"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/frame"
	"github.com/ayusman/mudra/internal/sensor"
)

// Preview stream encoding.
const (
	previewWidth   = 640
	previewQuality = 70
)

// Tracker reads the camera once per Poll, runs hand detection and keeps the
// latest frame for still capture and the preview stream.
type Tracker struct {
	cfg      sensor.Config
	camera   capture.Camera
	detector detector.Detector
	motion   *capture.MotionDetector
	stills   *capture.Encoder
	preview  *capture.Encoder
	clock    clock.Clock
	log      zerolog.Logger

	mu       sync.Mutex
	latest   gocv.Mat
	hasFrame bool
	seq      uint64
	prevHand *detector.HandLandmarks
	velocity float64
	last     sensor.Sample
	closed   bool
}

// New creates a Tracker. det may be nil in frame-diff mode, in which
// case presence is inferred from the amount of motion.
func New(cfg sensor.Config, cam capture.Camera, det detector.Detector, clk clock.Clock, log zerolog.Logger) *Tracker {
	if clk == nil {
		clk = clock.Real()
	}
	t := &Tracker{
		cfg:      cfg,
		camera:   cam,
		detector: det,
		stills:   capture.NewEncoder(cfg.FrameWidth, cfg.JPEGQuality),
		preview:  capture.NewEncoder(previewWidth, previewQuality),
		clock:    clk,
		log:      log.With().Str("component", "tracker").Logger(),
		latest:   gocv.NewMat(),
	}
	if cfg.Source == sensor.SourceFrameDiff {
		t.motion = capture.NewMotionDetector()
	}
	return t
}

// Poll takes one reading. Any failure yields an absent, motionless sample.
func (t *Tracker) Poll() sensor.Sample {
	now := t.clock.Now()

	mat, err := t.camera.ReadFrame()
	if err != nil {
		t.log.Debug().Err(err).Msg("camera read failed")
		return t.blank(now)
	}
	defer mat.Close()

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return t.blank(now)
	}
	mat.CopyTo(&t.latest)
	t.hasFrame = true
	t.seq++
	t.mu.Unlock()

	var (
		present bool
		raw     float64
	)

	hands, err := t.detect(mat)
	if err != nil {
		t.log.Debug().Err(err).Msg("hand detection failed")
		return t.blank(now)
	}

	switch t.cfg.Source {
	case sensor.SourceFrameDiff:
		percent := t.motion.Measure(mat)
		raw = percent * t.cfg.VelocityScale / 100
		if t.detector != nil {
			_, present = detector.Primary(hands, t.cfg.MinScore)
		} else {
			present = percent >= t.cfg.MinMotion
		}
	default:
		hand, ok := detector.Primary(hands, t.cfg.MinScore)
		present = ok
		t.mu.Lock()
		if ok && t.prevHand != nil {
			raw = detector.MeanDisplacement(*t.prevHand, hand) * t.cfg.VelocityScale
		}
		if ok {
			t.prevHand = &hand
		} else {
			t.prevHand = nil
		}
		t.mu.Unlock()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !present {
		t.velocity = 0
	} else {
		t.velocity = t.cfg.Smoothing*raw + (1-t.cfg.Smoothing)*t.velocity
	}
	t.last = sensor.Sample{HandPresent: present, Velocity: t.velocity, At: now}
	return t.last
}

func (t *Tracker) detect(mat *gocv.Mat) ([]detector.HandLandmarks, error) {
	if t.detector == nil {
		return nil, nil
	}
	return t.detector.Detect(mat)
}

func (t *Tracker) blank(now time.Time) sensor.Sample {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prevHand = nil
	t.velocity = 0
	t.last = sensor.Sample{At: now}
	return t.last
}

// Last returns the most recent sample.
func (t *Tracker) Last() sensor.Sample {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// CaptureFrame encodes the latest camera frame as a JPEG still.
// It returns nil when no frame has been read yet or encoding fails.
func (t *Tracker) CaptureFrame() *frame.Frame {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.hasFrame {
		return nil
	}
	f, err := t.stills.Encode(&t.latest, t.seq, t.clock.Now())
	if err != nil {
		t.log.Debug().Err(err).Msg("still capture failed")
		return nil
	}
	return &f
}

// LatestJPEG encodes the latest frame for the preview stream.
func (t *Tracker) LatestJPEG() ([]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.hasFrame {
		return nil, false
	}
	f, err := t.preview.Encode(&t.latest, t.seq, t.clock.Now())
	if err != nil {
		return nil, false
	}
	return f.Data, true
}

// Reset forgets the previous hand and velocity, for example after the
// camera device changes.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prevHand = nil
	t.velocity = 0
	t.hasFrame = false
	if t.motion != nil {
		t.motion.Reset()
	}
}

// Close releases the frame buffer and motion state.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	t.latest.Close()
	t.hasFrame = false
	if t.motion != nil {
		t.motion.Close()
	}
}
