package observer

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/LdDl/meridian/internal/capture"
	"github.com/LdDl/meridian/internal/vision"
	"github.com/LdDl/meridian/meridian"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

// Renderer receives outputs of every step. Frame and mask are valid only during the call.
// Render runs outside of the observer's state lock: setters may be called from it, Step and Run may not.
type Renderer interface {
	Render(frame, mask gocv.Mat, result meridian.StepResult)
}

// Alerter receives each meridian crossing exactly once. Same locking rules as for Renderer apply
type Alerter interface {
	Alert(event meridian.CrossingEvent)
}

type nopRenderer struct{}

func (nopRenderer) Render(gocv.Mat, gocv.Mat, meridian.StepResult) {}

type nopAlerter struct{}

func (nopAlerter) Alert(meridian.CrossingEvent) {}

// Tunables are run-time parameters read fresh on every step
type Tunables struct {
	ColorRange    vision.ColorRange
	SnapTolerance float64
	Direction     meridian.Direction
	// Pause between steps
	FrameDelay time.Duration
}

// DefaultTunables returns default run-time parameters
func DefaultTunables() Tunables {
	return Tunables{
		ColorRange:    vision.DefaultColorRange(),
		SnapTolerance: meridian.DefaultSnapTolerance,
		Direction:     meridian.LeftToRight,
		FrameDelay:    30 * time.Millisecond,
	}
}

// Observer binds frame source, detector and tracking engine.
// Every exported method is safe for concurrent use. Steps are serialized by stepMu,
// engine state and tunables are guarded by mu which is never held while collaborators run.
type Observer struct {
	stepMu sync.Mutex
	mu     sync.Mutex

	source   capture.Source
	detector *vision.Detector
	engine   *meridian.Engine
	frame    gocv.Mat

	colorRange vision.ColorRange
	frameDelay time.Duration

	renderer      Renderer
	alerter       Alerter
	engineOptions []meridian.EngineOption
	logger        zerolog.Logger
}

// Option configures Observer
type Option func(*Observer)

// WithRenderer sets rendering collaborator
func WithRenderer(renderer Renderer) Option {
	return func(o *Observer) {
		o.renderer = renderer
	}
}

// WithAlerter sets alerting collaborator
func WithAlerter(alerter Alerter) Option {
	return func(o *Observer) {
		o.alerter = alerter
	}
}

// WithLogger sets logger for the observer and its engine
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Observer) {
		o.logger = logger
	}
}

// WithEngineOptions passes extra options to the tracking engine
func WithEngineOptions(options ...meridian.EngineOption) Option {
	return func(o *Observer) {
		o.engineOptions = append(o.engineOptions, options...)
	}
}

// New creates observer reading from source. Source is owned by the caller
func New(source capture.Source, tunables Tunables, options ...Option) *Observer {
	o := &Observer{
		source:     source,
		detector:   vision.NewDetector(),
		frame:      gocv.NewMat(),
		colorRange: tunables.ColorRange.Clamp(),
		frameDelay: tunables.FrameDelay,
		renderer:   nopRenderer{},
		alerter:    nopAlerter{},
		logger:     zerolog.Nop(),
	}
	for _, option := range options {
		option(o)
	}
	engineOptions := append([]meridian.EngineOption{meridian.WithLogger(o.logger)}, o.engineOptions...)
	o.engine = meridian.NewEngine(tunables.SnapTolerance, tunables.Direction, engineOptions...)
	o.logger = o.logger.With().Str("component", "observer").Logger()
	return o
}

// Close releases detector and frame buffer
func (o *Observer) Close() error {
	o.stepMu.Lock()
	defer o.stepMu.Unlock()
	if err := o.detector.Close(); err != nil {
		return errors.Wrap(err, "Can't close detector")
	}
	return o.frame.Close()
}

// SetSeedPoint starts new tracking session
func (o *Observer) SetSeedPoint(seed image.Point) uuid.UUID {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.engine.SetSeedPoint(seed)
}

// SetColorRange updates HSV range of bright pixels
func (o *Observer) SetColorRange(rng vision.ColorRange) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.colorRange = rng.Clamp()
	if o.colorRange.Inverted() {
		o.logger.Warn().Str("hsv", o.colorRange.String()).Msg("color range has min above max, nothing will be detected")
	}
}

// SetSnapTolerance updates snap tolerance of the engine
func (o *Observer) SetSnapTolerance(tolerance float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.engine.SetSnapTolerance(tolerance)
}

// SetDirection updates expected crossing direction
func (o *Observer) SetDirection(direction meridian.Direction) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.engine.SetDirection(direction)
}

// SetFrameDelay updates pause between steps
func (o *Observer) SetFrameDelay(delay time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if delay < 0 {
		delay = 0
	}
	o.frameDelay = delay
}

// Tunables returns current run-time parameters
func (o *Observer) Tunables() Tunables {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Tunables{
		ColorRange:    o.colorRange,
		SnapTolerance: o.engine.SnapTolerance(),
		Direction:     o.engine.Direction(),
		FrameDelay:    o.frameDelay,
	}
}

// Session returns current tracking session
func (o *Observer) Session() meridian.Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.engine.Session()
}

// CrossingMarks returns every crossing recorded so far
func (o *Observer) CrossingMarks() []meridian.CrossingEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.engine.CrossingMarks()
}

// Step reads one frame and runs the whole pipeline on it.
// capture.ErrNoFrame is returned as is (wrapped) and the engine is not touched.
func (o *Observer) Step() (meridian.StepResult, error) {
	o.stepMu.Lock()
	defer o.stepMu.Unlock()

	timestamp, err := o.source.Read(&o.frame)
	if err != nil {
		return meridian.StepResult{}, errors.Wrap(err, "Can't read frame")
	}
	o.mu.Lock()
	rng := o.colorRange
	o.mu.Unlock()
	detection, err := o.detector.Detect(o.frame, rng)
	if err != nil {
		return meridian.StepResult{}, errors.Wrap(err, "Can't detect blobs")
	}
	defer detection.Close()

	observation := detection.Observation()
	observation.Timestamp = timestamp
	o.mu.Lock()
	result, err := o.engine.Step(observation)
	event, crossed := o.engine.ConsumeCrossing()
	o.mu.Unlock()
	if errors.Cause(err) == meridian.ErrInvalidObservation {
		return result, errors.Wrap(err, "Can't step engine")
	}

	// Smoothing failures still leave a recorded step behind
	o.renderer.Render(o.frame, detection.Mask, result)
	if crossed {
		o.alerter.Alert(event)
	}
	if err != nil {
		return result, errors.Wrap(err, "Can't step engine")
	}
	return result, nil
}

// Run steps until context is cancelled or source runs out of frames.
// Errors other than capture.ErrNoFrame are logged and the loop goes on.
func (o *Observer) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, err := o.Step()
		if err != nil {
			if errors.Cause(err) == capture.ErrNoFrame {
				return err
			}
			o.logger.Error().Err(err).Msg("step failed")
		}

		o.mu.Lock()
		delay := o.frameDelay
		o.mu.Unlock()
		if delay <= 0 {
			continue
		}
		timer.Reset(delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunLooped works as Run but restarts the source from the beginning at the end of stream.
// Each pass starts a new session from the current seed point. Sources which can't be
// reopened end the loop with capture.ErrNoFrame.
func (o *Observer) RunLooped(ctx context.Context) error {
	for {
		err := o.Run(ctx)
		if errors.Cause(err) != capture.ErrNoFrame {
			return err
		}
		rewinder, ok := o.source.(capture.Rewinder)
		if !ok {
			return err
		}
		o.stepMu.Lock()
		reopenErr := rewinder.Reopen()
		o.stepMu.Unlock()
		if reopenErr != nil {
			return errors.Wrap(reopenErr, "Can't restart source")
		}
		o.mu.Lock()
		session := o.engine.Session()
		if session.State != meridian.StateIdle {
			session.ID = o.engine.SetSeedPoint(session.Seed)
		}
		o.mu.Unlock()
		o.logger.Info().Str("session", session.ID.String()).Msg("source restarted")
	}
}
