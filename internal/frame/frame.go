// Package frame defines the still image payload that flows from the camera
// through the recording buffer to the interpretation service.
package frame

import (
	"encoding/base64"
	"time"
)

// MimeJPEG is the content type of every encoded frame.
const MimeJPEG = "image/jpeg"

// Frame is one encoded still captured during a gesture.
type Frame struct {
	Data       []byte    `json:"-"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Seq        uint64    `json:"seq"`
	CapturedAt time.Time `json:"captured_at"`
}

// Base64 returns the JPEG payload encoded with standard base64.
func (f Frame) Base64() string {
	return base64.StdEncoding.EncodeToString(f.Data)
}

// DataURL returns the frame as a data URL suitable for vision APIs.
func (f Frame) DataURL() string {
	return "data:" + MimeJPEG + ";base64," + f.Base64()
}

// Empty reports whether the frame carries no image data.
func (f Frame) Empty() bool {
	return len(f.Data) == 0
}
