package capture

import (
	"fmt"
	"image"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/frame"
)

// Frame encoding defaults.
const (
	// DefaultFrameWidth keeps dispatched stills small; height follows the aspect ratio.
	DefaultFrameWidth = 320
	// DefaultJPEGQuality trades detail for payload size.
	DefaultJPEGQuality = 50
)

// Encoder turns camera Mats into JPEG frames.
type Encoder struct {
	width   int
	quality int
}

// NewEncoder creates an Encoder. Non-positive values select the defaults.
func NewEncoder(width, quality int) *Encoder {
	if width <= 0 {
		width = DefaultFrameWidth
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &Encoder{width: width, quality: quality}
}

// Encode scales mat to the encoder width and encodes it as JPEG.
// The mat is not modified or closed.
func (e *Encoder) Encode(mat *gocv.Mat, seq uint64, at time.Time) (frame.Frame, error) {
	if mat == nil || mat.Empty() {
		return frame.Frame{}, fmt.Errorf("encode frame: empty mat")
	}

	src := *mat
	if mat.Cols() > e.width {
		height := mat.Rows() * e.width / mat.Cols()
		scaled := gocv.NewMat()
		defer scaled.Close()
		gocv.Resize(*mat, &scaled, image.Point{X: e.width, Y: height}, 0, 0, gocv.InterpolationArea)
		src = scaled
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, src, []int{int(gocv.IMWriteJpegQuality), e.quality})
	if err != nil {
		return frame.Frame{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	return frame.Frame{
		Data:       data,
		Width:      src.Cols(),
		Height:     src.Rows(),
		Seq:        seq,
		CapturedAt: at,
	}, nil
}
