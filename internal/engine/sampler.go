package engine

import "math"

// sampleCount is the fixed burst size sent for long recordings.
const sampleCount = 4

// SampleFrames reduces a recording to a representative burst. Fewer than
// minFrames is noise (ok is false); up to four frames are kept as they are;
// longer recordings yield the first, the frames at 33% and 66% by index, and
// the last.
func SampleFrames[T any](frames []T, minFrames int) ([]T, bool) {
	n := len(frames)
	if n < minFrames || n == 0 {
		return nil, false
	}
	if n <= sampleCount {
		out := make([]T, n)
		copy(out, frames)
		return out, true
	}
	return []T{
		frames[0],
		frames[int(math.Floor(float64(n)*0.33))],
		frames[int(math.Floor(float64(n)*0.66))],
		frames[n-1],
	}, true
}
