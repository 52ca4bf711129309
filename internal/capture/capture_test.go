package capture

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// writeClip writes short MJPG clip with a moving white dot
func writeClip(t *testing.T, frames int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.avi")
	writer, err := gocv.VideoWriterFile(path, "MJPG", 25, 320, 240, true)
	if err != nil || !writer.IsOpened() {
		t.Skipf("video writer is not available: %v", err)
	}
	defer writer.Close()
	for i := 0; i < frames; i++ {
		frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 240, 320, gocv.MatTypeCV8UC3)
		gocv.Circle(&frame, image.Pt(40+i*20, 120), 5, color.RGBA{R: 255, G: 255, B: 255}, -1)
		require.NoError(t, writer.Write(frame))
		frame.Close()
	}
	return path
}

func TestVideoSourceReadsUntilEnd(t *testing.T) {
	path := writeClip(t, 5)
	source, err := OpenFile(path, zerolog.Nop())
	require.NoError(t, err)
	defer source.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	read := 0
	var last time.Time
	for {
		ts, err := source.Read(&frame)
		if err != nil {
			assert.Equal(t, ErrNoFrame, errors.Cause(err))
			break
		}
		assert.False(t, ts.Before(last), "timestamps must not go backwards")
		last = ts
		assert.Equal(t, 320, frame.Cols())
		assert.Equal(t, 240, frame.Rows())
		read++
	}
	assert.Equal(t, 5, read)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "missing.avi"), zerolog.Nop())
	assert.Error(t, err)
}

func readAll(t *testing.T, source *VideoSource) int {
	t.Helper()
	frame := gocv.NewMat()
	defer frame.Close()
	read := 0
	for {
		_, err := source.Read(&frame)
		if err != nil {
			require.Equal(t, ErrNoFrame, errors.Cause(err))
			return read
		}
		read++
	}
}

func TestVideoSourceReopen(t *testing.T) {
	path := writeClip(t, 4)
	source, err := OpenFile(path, zerolog.Nop())
	require.NoError(t, err)
	defer source.Close()

	assert.Equal(t, 4, readAll(t, source))
	require.NoError(t, source.Reopen())
	assert.Equal(t, 4, readAll(t, source))
	assert.Greater(t, source.FPS(), 0.0)
}

func TestVideoSourceReopenFailureKeepsSourceClosed(t *testing.T) {
	path := writeClip(t, 2)
	source, err := OpenFile(path, zerolog.Nop())
	require.NoError(t, err)
	defer source.Close()

	require.NoError(t, os.Remove(path))
	assert.Error(t, source.Reopen())

	frame := gocv.NewMat()
	defer frame.Close()
	_, err = source.Read(&frame)
	assert.Equal(t, ErrNoFrame, errors.Cause(err))
	assert.Equal(t, 0, source.FrameCount())
	assert.NoError(t, source.Close())
}
