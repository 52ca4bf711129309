package observer

import (
	"io"
	"time"

	"github.com/LdDl/meridian/meridian"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

// LogAlerter reports crossings to the log and optionally rings a terminal bell
type LogAlerter struct {
	logger zerolog.Logger
	// Scheduled transit closest to the given instant. May be nil
	schedule func(time.Time) time.Time
	bell     io.Writer
}

// NewLogAlerter creates alerter. Both schedule and bell may be nil
func NewLogAlerter(logger zerolog.Logger, schedule func(time.Time) time.Time, bell io.Writer) *LogAlerter {
	return &LogAlerter{
		logger:   logger.With().Str("component", "alert").Logger(),
		schedule: schedule,
		bell:     bell,
	}
}

// Alert implements Alerter
func (alerter *LogAlerter) Alert(event meridian.CrossingEvent) {
	entry := alerter.logger.Info().
		Str("session", event.SessionID.String()).
		Str("direction", event.Direction.String()).
		Int("x", event.X).
		Int("y", event.Y).
		Time("at", event.Timestamp).
		Dur("elapsed", event.Elapsed)
	if alerter.schedule != nil {
		scheduled := alerter.schedule(event.Timestamp)
		entry = entry.Time("scheduled", scheduled).Dur("offset", event.Timestamp.Sub(scheduled))
	}
	entry.Msg("meridian crossed")
	if alerter.bell == nil {
		return
	}
	if _, err := alerter.bell.Write([]byte{'\a'}); err != nil {
		alerter.logger.Warn().Err(err).Msg("can't ring bell")
	}
}

// LogRenderer writes per-step tracking state at debug level
type LogRenderer struct {
	logger zerolog.Logger
}

// NewLogRenderer creates renderer
func NewLogRenderer(logger zerolog.Logger) *LogRenderer {
	return &LogRenderer{
		logger: logger.With().Str("component", "render").Logger(),
	}
}

// Render implements Renderer. Frame and mask are not used
func (renderer *LogRenderer) Render(_, _ gocv.Mat, result meridian.StepResult) {
	if result.State == meridian.StateIdle {
		return
	}
	event := renderer.logger.Debug().
		Int("step", result.Step).
		Int("x", result.Position.X).
		Int("y", result.Position.Y).
		Bool("snapped", result.Snapped).
		Int("blobs", len(result.Blobs)).
		Float64("smoothed_x", result.Smoothed.X).
		Float64("smoothed_y", result.Smoothed.Y).
		Float64("next_x", result.NextEstimate.X).
		Float64("next_y", result.NextEstimate.Y)
	if result.Detection.Found {
		bbox := result.Detection.Blob.BBox
		event = event.
			Int("area", result.Detection.Blob.Area).
			Float64("bbox_w", bbox.Width).
			Float64("bbox_h", bbox.Height)
	}
	if result.Prediction.Valid {
		event = event.
			Float64("slope", result.Prediction.Slope).
			Float64("y_left", result.Prediction.YAtLeftEdge).
			Float64("y_right", result.Prediction.YAtRightEdge)
	}
	event.Msg("step")
}

// Multi fans a step out to several renderers
type Multi []Renderer

// Render implements Renderer
func (renderers Multi) Render(frame, mask gocv.Mat, result meridian.StepResult) {
	for _, renderer := range renderers {
		renderer.Render(frame, mask, result)
	}
}
