// Package detector provides hand detection interfaces and landmark types
// used to derive hand presence and movement speed.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D represents a point in normalized image coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

func distance3D(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Centroid returns the mean position of all landmarks.
func (h HandLandmarks) Centroid() Point3D {
	var c Point3D
	for _, p := range h.Points {
		c.X += p.X
		c.Y += p.Y
		c.Z += p.Z
	}
	c.X /= NumLandmarks
	c.Y /= NumLandmarks
	c.Z /= NumLandmarks
	return c
}

// Translate returns a copy of the hand shifted by (dx, dy, dz).
func (h HandLandmarks) Translate(dx, dy, dz float64) HandLandmarks {
	out := h
	for i := range out.Points {
		out.Points[i].X += dx
		out.Points[i].Y += dy
		out.Points[i].Z += dz
	}
	return out
}

// MeanDisplacement is the average distance each landmark moved between
// two observations of the same hand.
func MeanDisplacement(prev, cur HandLandmarks) float64 {
	var sum float64
	for i := 0; i < NumLandmarks; i++ {
		sum += distance3D(prev.Points[i], cur.Points[i])
	}
	return sum / NumLandmarks
}

// Primary picks the highest scoring hand at or above minScore.
func Primary(hands []HandLandmarks, minScore float64) (HandLandmarks, bool) {
	best := -1
	for i, h := range hands {
		if h.Score < minScore {
			continue
		}
		if best < 0 || h.Score > hands[best].Score {
			best = i
		}
	}
	if best < 0 {
		return HandLandmarks{}, false
	}
	return hands[best], true
}
