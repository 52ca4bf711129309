package meridian

import (
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// SessionState is the state of the tracking session
type SessionState uint16

const (
	// StateIdle is for engine which has not received any seed point yet
	StateIdle SessionState = iota
	// StateWarmingUp is for the first frame after seed point: association only, no prediction and no crossing check
	StateWarmingUp
	// StateTracking is for steady state where full pipeline runs
	StateTracking
)

func (state SessionState) String() string {
	switch state {
	case StateIdle:
		return "idle"
	case StateWarmingUp:
		return "warming-up"
	case StateTracking:
		return "tracking"
	default:
		return "unknown"
	}
}

var (
	// ErrInvalidObservation is returned when observation can't be processed (e.g. frame has no width)
	ErrInvalidObservation = errors.New("invalid observation")
	// ErrInvalidTolerance is returned for non-positive snap tolerance
	ErrInvalidTolerance = errors.New("snap tolerance must be positive")
)

// Session is one continuous tracking attempt, from seed point to the next reset
type Session struct {
	ID    uuid.UUID
	State SessionState
	Seed  image.Point
	// Timestamp of the first observation after seed point
	StartTime time.Time
	// Number of processed observations
	Steps int
}

// Observation is the per-frame input of the engine
type Observation struct {
	Timestamp   time.Time
	FrameWidth  int
	FrameHeight int
	Blobs       []Blob
}

// MidX returns x coordinate of the meridian
func (observation Observation) MidX() int {
	return observation.FrameWidth / 2
}

// StepResult is everything rendering and alerting collaborators need after a single step
type StepResult struct {
	SessionID uuid.UUID
	// State in which the step has been executed
	State SessionState
	// Number of steps since session start (including this one)
	Step    int
	Elapsed time.Duration
	MidX    int
	// Tracked position after association
	Position  image.Point
	Detection Detection
	Snapped   bool
	Blobs     []Blob
	// Prediction line. Not valid on warm-up step
	Prediction Prediction
	// Circle through first, mean and last positions
	Arc Arc
	// Crossing is meaningful only when Crossed is true
	Crossed  bool
	Crossing CrossingEvent
	// Kalman-filtered position and one step ahead estimate
	Smoothed     Point
	NextEstimate Point
}

// Engine is single-target tracking and meridian crossing detection engine.
// It is not safe for concurrent use: callers must serialize Step and setters.
type Engine struct {
	snapTolerance float64
	direction     Direction
	// Time step for Kalman filter (in frames)
	dt float64

	session    Session
	position   image.Point
	trajectory *Trajectory
	monitor    *Monitor
	smoother   *smoother

	pending *CrossingEvent
	marks   []CrossingEvent

	logger zerolog.Logger
}

// EngineOption configures Engine
type EngineOption func(*Engine)

// WithLogger sets logger for the engine
func WithLogger(logger zerolog.Logger) EngineOption {
	return func(engine *Engine) {
		engine.logger = logger.With().Str("component", "engine").Logger()
	}
}

// WithTimeStep sets time step of Kalman smoother. Default is 1.0 (one frame)
func WithTimeStep(dt float64) EngineOption {
	return func(engine *Engine) {
		if dt > 0 {
			engine.dt = dt
		}
	}
}

// NewEngineDefault creates default instance of Engine
func NewEngineDefault() *Engine {
	return NewEngine(DefaultSnapTolerance, LeftToRight)
}

// NewEngine creates new instance of Engine
func NewEngine(snapTolerance float64, direction Direction, options ...EngineOption) *Engine {
	if snapTolerance <= 0 {
		snapTolerance = DefaultSnapTolerance
	}
	engine := &Engine{
		snapTolerance: snapTolerance,
		direction:     direction,
		dt:            1.0,
		session:       Session{State: StateIdle},
		trajectory:    NewTrajectory(),
		monitor:       NewMonitor(),
		marks:         make([]CrossingEvent, 0),
		logger:        zerolog.Nop(),
	}
	for _, option := range options {
		option(engine)
	}
	return engine
}

// SetSnapTolerance updates snap tolerance. Applied at the next step
func (engine *Engine) SetSnapTolerance(tolerance float64) error {
	if tolerance <= 0 {
		return errors.Wrapf(ErrInvalidTolerance, "got %f", tolerance)
	}
	engine.snapTolerance = tolerance
	return nil
}

// SnapTolerance returns current snap tolerance
func (engine *Engine) SnapTolerance() float64 {
	return engine.snapTolerance
}

// SetDirection updates expected crossing direction. Applied at the next step
func (engine *Engine) SetDirection(direction Direction) {
	engine.direction = direction
}

// Direction returns expected crossing direction
func (engine *Engine) Direction() Direction {
	return engine.direction
}

// SetSeedPoint starts new session from user-provided point.
// Histories, pending crossing and smoother are dropped; the next step is a warm-up step.
func (engine *Engine) SetSeedPoint(seed image.Point) uuid.UUID {
	engine.session = Session{
		ID:    uuid.New(),
		State: StateWarmingUp,
		Seed:  seed,
	}
	engine.position = seed
	engine.trajectory.Reset()
	engine.monitor.Rearm()
	engine.smoother = nil
	engine.pending = nil
	engine.logger.Info().
		Str("session", engine.session.ID.String()).
		Int("x", seed.X).
		Int("y", seed.Y).
		Msg("seed point received")
	return engine.session.ID
}

// State returns current session state
func (engine *Engine) State() SessionState {
	return engine.session.State
}

// Session returns copy of current session
func (engine *Engine) Session() Session {
	return engine.session
}

// Position returns current tracked position
func (engine *Engine) Position() image.Point {
	return engine.position
}

// History returns copy of position history of the current session
func (engine *Engine) History() []Sample {
	return engine.trajectory.Samples()
}

// Slopes returns copy of slope history of the current session
func (engine *Engine) Slopes() []float64 {
	return engine.trajectory.Slopes()
}

// ConsumeCrossing returns pending crossing event once and clears it
func (engine *Engine) ConsumeCrossing() (CrossingEvent, bool) {
	if engine.pending == nil {
		return CrossingEvent{}, false
	}
	event := *engine.pending
	engine.pending = nil
	return event, true
}

// CrossingMarks returns every crossing recorded by the engine. Marks survive session resets
func (engine *Engine) CrossingMarks() []CrossingEvent {
	marks := make([]CrossingEvent, len(engine.marks))
	copy(marks, engine.marks)
	return marks
}

// Step advances engine by one observation
func (engine *Engine) Step(observation Observation) (StepResult, error) {
	if observation.FrameWidth <= 0 {
		return StepResult{}, errors.Wrapf(ErrInvalidObservation, "frame width %d", observation.FrameWidth)
	}
	result := StepResult{
		SessionID: engine.session.ID,
		State:     engine.session.State,
		Step:      engine.session.Steps,
		MidX:      observation.MidX(),
		Position:  engine.position,
		Detection: NoDetection(),
		Blobs:     observation.Blobs,
	}
	switch engine.session.State {
	case StateIdle:
		return result, nil
	case StateWarmingUp:
		engine.session.StartTime = observation.Timestamp
	}

	elapsed := observation.Timestamp.Sub(engine.session.StartTime)
	association := Associate(engine.position, observation.Blobs, engine.snapTolerance)
	engine.position = association.Position
	engine.trajectory.Record(association.Previous, association.Position, elapsed)
	engine.session.Steps++

	result.Step = engine.session.Steps
	result.Elapsed = elapsed
	result.Position = association.Position
	result.Detection = association.Detection
	result.Snapped = association.Snapped

	log := engine.logger.Debug().
		Str("session", engine.session.ID.String()).
		Str("state", engine.session.State.String()).
		Int("step", engine.session.Steps).
		Int("x", engine.position.X).
		Int("y", engine.position.Y).
		Int("blobs", len(observation.Blobs)).
		Bool("detected", association.Detection.Found).
		Bool("snapped", association.Snapped)

	if engine.session.State == StateWarmingUp {
		engine.smoother = newSmoother(engine.position, engine.dt)
		engine.session.State = StateTracking
		result.Smoothed = NewPointFrom(engine.position)
		result.NextEstimate = result.Smoothed
		log.Msg("session warm-up")
		return result, nil
	}

	result.Prediction = engine.trajectory.Prediction(result.MidX)
	result.Arc = engine.trajectory.Arc()
	if result.Prediction.Valid {
		log = log.Float64("slope", result.Prediction.Slope)
	}
	log.Msg("step")

	if engine.monitor.Check(association.Previous.X, association.Detection, result.MidX, engine.direction) {
		event := CrossingEvent{
			SessionID: engine.session.ID,
			Direction: engine.direction,
			X:         result.MidX,
			Y:         association.Detection.Blob.Centroid.Y,
			Timestamp: observation.Timestamp,
			Elapsed:   elapsed,
		}
		engine.pending = &event
		engine.marks = append(engine.marks, event)
		result.Crossed = true
		result.Crossing = event
		engine.logger.Info().
			Str("session", event.SessionID.String()).
			Str("direction", event.Direction.String()).
			Int("y", event.Y).
			Dur("elapsed", event.Elapsed).
			Msg("meridian crossed")
	}

	result.NextEstimate = engine.smoother.predict()
	smoothed, err := engine.smoother.update(engine.position)
	result.Smoothed = smoothed
	if err != nil {
		return result, errors.Wrapf(err, "Step %d of session %s", engine.session.Steps, engine.session.ID)
	}
	return result, nil
}
