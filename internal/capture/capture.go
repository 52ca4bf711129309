package capture

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

// ErrNoFrame is returned when source has no more frames (end of stream or read failure)
var ErrNoFrame = errors.New("no frame available")

// Source provides frames to the tracking loop
type Source interface {
	// Read fills dst with the next frame and returns its capture time
	Read(dst *gocv.Mat) (time.Time, error)
	// FrameCount returns number of frames for file sources and 0 for live devices
	FrameCount() int
	Close() error
}

// Rewinder is a source which can start over from the beginning
type Rewinder interface {
	Reopen() error
}

// VideoSource reads frames from video file or camera device via OpenCV
type VideoSource struct {
	capture *gocv.VideoCapture
	// Either path to file or device ID
	device   any
	isDevice bool
	opened   time.Time
	now      func() time.Time
	logger   zerolog.Logger
}

// OpenFile opens video file (or any URL supported by OpenCV backend)
func OpenFile(path string, logger zerolog.Logger) (*VideoSource, error) {
	return open(path, false, logger)
}

// OpenDevice opens camera device by its ID
func OpenDevice(id int, logger zerolog.Logger) (*VideoSource, error) {
	return open(id, true, logger)
}

func open(device any, isDevice bool, logger zerolog.Logger) (*VideoSource, error) {
	capture, err := openCapture(device)
	if err != nil {
		return nil, err
	}
	source := &VideoSource{
		capture:  capture,
		device:   device,
		isDevice: isDevice,
		now:      time.Now,
		logger:   logger.With().Str("component", "capture").Logger(),
	}
	source.opened = source.now()
	source.logger.Info().
		Interface("device", device).
		Float64("fps", source.FPS()).
		Int("width", int(capture.Get(gocv.VideoCaptureFrameWidth))).
		Int("height", int(capture.Get(gocv.VideoCaptureFrameHeight))).
		Msg("video capture opened")
	return source, nil
}

func openCapture(device any) (*gocv.VideoCapture, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open video capture '%v'", device)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, errors.Errorf("Video capture '%v' is not opened", device)
	}
	return capture, nil
}

// Read implements Source. Frames of a file are stamped with their position in the stream relative to opening time
func (source *VideoSource) Read(dst *gocv.Mat) (time.Time, error) {
	if source.capture == nil {
		return time.Time{}, errors.Wrapf(ErrNoFrame, "'%v' is closed", source.device)
	}
	if ok := source.capture.Read(dst); !ok || dst.Empty() {
		return time.Time{}, errors.Wrapf(ErrNoFrame, "'%v'", source.device)
	}
	if source.isDevice {
		return source.now(), nil
	}
	position := source.capture.Get(gocv.VideoCapturePosMsec)
	return source.opened.Add(time.Duration(position * float64(time.Millisecond))), nil
}

// FrameCount implements Source
func (source *VideoSource) FrameCount() int {
	if source.isDevice || source.capture == nil {
		return 0
	}
	return int(source.capture.Get(gocv.VideoCaptureFrameCount))
}

// FPS returns nominal frame rate reported by the backend (0 if unknown)
func (source *VideoSource) FPS() float64 {
	if source.capture == nil {
		return 0
	}
	fps := source.capture.Get(gocv.VideoCaptureFPS)
	if fps < 0 {
		return 0
	}
	return fps
}

// Reopen implements Rewinder: files start from the beginning, devices reconnect.
// If reopening fails the source stays closed and Read returns ErrNoFrame.
func (source *VideoSource) Reopen() error {
	if source.capture != nil {
		source.capture.Close()
		source.capture = nil
	}
	capture, err := openCapture(source.device)
	if err != nil {
		return errors.Wrap(err, "Can't reopen")
	}
	source.capture = capture
	source.opened = source.now()
	source.logger.Info().Interface("device", source.device).Msg("video capture reopened")
	return nil
}

// Close implements Source
func (source *VideoSource) Close() error {
	if source.capture == nil {
		return nil
	}
	err := source.capture.Close()
	source.capture = nil
	return err
}
