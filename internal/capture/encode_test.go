package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestNewEncoder_Defaults(t *testing.T) {
	tests := []struct {
		name        string
		width       int
		quality     int
		wantWidth   int
		wantQuality int
	}{
		{name: "zero values", wantWidth: DefaultFrameWidth, wantQuality: DefaultJPEGQuality},
		{name: "explicit", width: 480, quality: 80, wantWidth: 480, wantQuality: 80},
		{name: "quality out of range", width: 160, quality: 150, wantWidth: 160, wantQuality: DefaultJPEGQuality},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEncoder(tt.width, tt.quality)
			assert.Equal(t, tt.wantWidth, e.width)
			assert.Equal(t, tt.wantQuality, e.quality)
		})
	}
}

func TestEncoder_EncodeScalesDown(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	mat := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer mat.Close()

	at := time.Now()
	f, err := NewEncoder(320, 50).Encode(&mat, 7, at)
	require.NoError(t, err)

	assert.Equal(t, 320, f.Width)
	assert.Equal(t, 240, f.Height)
	assert.Equal(t, uint64(7), f.Seq)
	assert.Equal(t, at, f.CapturedAt)
	require.Greater(t, len(f.Data), 2)
	assert.Equal(t, []byte{0xFF, 0xD8}, f.Data[:2], "payload should be a JPEG")
}

func TestEncoder_EncodeEmpty(t *testing.T) {
	_, err := NewEncoder(0, 0).Encode(nil, 0, time.Now())
	assert.Error(t, err)
}
