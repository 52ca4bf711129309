package main

import (
	"context"
	"image"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/LdDl/meridian/internal/capture"
	"github.com/LdDl/meridian/internal/config"
	"github.com/LdDl/meridian/internal/observer"
	"github.com/LdDl/meridian/meridian"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gocv.io/x/gocv"
)

// trackOptions holds flags of the track command
type trackOptions struct {
	ConfigPath string
	InputPath  string
	Device     int
	Seed       string
	Direction  string
	Tolerance  float64
	DelayMS    int
	HueMin     int
	HueMax     int
	SatMin     int
	SatMax     int
	ValMin     int
	ValMax     int
	Progress   bool
	Bell       bool
	Loop       bool
	KalmanDT   float64
}

var trackOpts trackOptions

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Follow a star from the seed point and report its meridian crossing",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrack(cmd.Context(), trackOpts, cmd.Flags().Changed)
	},
}

func init() {
	rng := config.Default().ColorRange()
	trackCmd.Flags().StringVarP(&trackOpts.ConfigPath, "config", "c", "config.xml", "Path to configuration XML")
	trackCmd.Flags().StringVarP(&trackOpts.InputPath, "input", "i", "", "Path to video file (overrides configuration)")
	trackCmd.Flags().IntVar(&trackOpts.Device, "device", 0, "Camera device ID (overrides configuration)")
	trackCmd.Flags().StringVarP(&trackOpts.Seed, "seed", "s", "", "Seed point of the star as X,Y")
	trackCmd.Flags().StringVarP(&trackOpts.Direction, "direction", "d", "LR", "Expected crossing direction: LR or RL")
	trackCmd.Flags().Float64VarP(&trackOpts.Tolerance, "tolerance", "t", config.DefaultSnapTolerance, "Snap tolerance in pixels")
	trackCmd.Flags().IntVar(&trackOpts.DelayMS, "delay", int(config.DefaultFrameDelay/time.Millisecond), "Delay between frames in milliseconds")
	trackCmd.Flags().IntVar(&trackOpts.HueMin, "hmin", rng.HueMin, "Lower hue bound")
	trackCmd.Flags().IntVar(&trackOpts.HueMax, "hmax", rng.HueMax, "Upper hue bound")
	trackCmd.Flags().IntVar(&trackOpts.SatMin, "smin", rng.SatMin, "Lower saturation bound")
	trackCmd.Flags().IntVar(&trackOpts.SatMax, "smax", rng.SatMax, "Upper saturation bound")
	trackCmd.Flags().IntVar(&trackOpts.ValMin, "vmin", rng.ValMin, "Lower value (brightness) bound")
	trackCmd.Flags().IntVar(&trackOpts.ValMax, "vmax", rng.ValMax, "Upper value (brightness) bound")
	trackCmd.Flags().BoolVar(&trackOpts.Progress, "progress", false, "Show progress bar for video files")
	trackCmd.Flags().BoolVar(&trackOpts.Bell, "bell", false, "Ring terminal bell on crossing")
	trackCmd.Flags().BoolVar(&trackOpts.Loop, "loop", false, "Reopen source at the end of stream and start over from the seed point")
	trackCmd.Flags().Float64Var(&trackOpts.KalmanDT, "kalman-dt", 1.0, "Time step of position smoother (in frames)")

	trackCmd.MarkFlagRequired("seed")
	rootCmd.AddCommand(trackCmd)
}

// parseSeed parses "X,Y" into point
func parseSeed(s string) (image.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return image.Point{}, errors.Errorf("Seed point must be X,Y, got '%s'", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return image.Point{}, errors.Wrapf(err, "Bad X of seed point '%s'", s)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return image.Point{}, errors.Wrapf(err, "Bad Y of seed point '%s'", s)
	}
	if x < 0 || y < 0 {
		return image.Point{}, errors.Errorf("Seed point must be non-negative, got '%s'", s)
	}
	return image.Pt(x, y), nil
}

// resolveTunables starts from configuration and applies flags which were set explicitly
func resolveTunables(cfg *config.Config, opts trackOptions, changed func(string) bool) (observer.Tunables, error) {
	tunables := observer.Tunables{
		ColorRange:    cfg.ColorRange(),
		SnapTolerance: cfg.Tracking.SnapTolerance,
		Direction:     cfg.Star.Direction,
		FrameDelay:    cfg.Tracking.FrameDelay,
	}
	if changed("direction") {
		direction, err := meridian.ParseDirection(opts.Direction)
		if err != nil {
			return tunables, errors.Wrap(err, "Bad --direction")
		}
		tunables.Direction = direction
	}
	if changed("tolerance") {
		if opts.Tolerance <= 0 {
			return tunables, errors.Wrapf(meridian.ErrInvalidTolerance, "--tolerance %g", opts.Tolerance)
		}
		tunables.SnapTolerance = opts.Tolerance
	}
	if changed("delay") {
		if opts.DelayMS < 0 {
			return tunables, errors.Errorf("Delay must be non-negative, got %d", opts.DelayMS)
		}
		tunables.FrameDelay = time.Duration(opts.DelayMS) * time.Millisecond
	}
	rng := &tunables.ColorRange
	for _, bound := range []struct {
		flag   string
		value  int
		target *int
	}{
		{"hmin", opts.HueMin, &rng.HueMin},
		{"hmax", opts.HueMax, &rng.HueMax},
		{"smin", opts.SatMin, &rng.SatMin},
		{"smax", opts.SatMax, &rng.SatMax},
		{"vmin", opts.ValMin, &rng.ValMin},
		{"vmax", opts.ValMax, &rng.ValMax},
	} {
		if changed(bound.flag) {
			*bound.target = bound.value
		}
	}
	tunables.ColorRange = tunables.ColorRange.Clamp()
	return tunables, nil
}

// openSource picks input: --input, then --device, then configured file, then configured camera
func openSource(cfg *config.Config, opts trackOptions, changed func(string) bool) (*capture.VideoSource, error) {
	switch {
	case opts.InputPath != "":
		return capture.OpenFile(opts.InputPath, logger)
	case changed("device"):
		return capture.OpenDevice(opts.Device, logger)
	case cfg.File.Path() != "":
		return capture.OpenFile(cfg.File.Path(), logger)
	default:
		return capture.OpenDevice(cfg.Camera.ID, logger)
	}
}

// progressRenderer advances progress bar once per processed frame. A finished bar starts over for looped sources
type progressRenderer struct {
	bar *progressbar.ProgressBar
}

func (renderer progressRenderer) Render(gocv.Mat, gocv.Mat, meridian.StepResult) {
	if renderer.bar.IsFinished() {
		renderer.bar.Reset()
	}
	renderer.bar.Add(1)
}

func runTrack(ctx context.Context, opts trackOptions, changed func(string) bool) error {
	cfg, err := config.LoadFile(opts.ConfigPath)
	if err != nil {
		logger.Warn().Err(err).Msg("configuration is not loaded, defaults are used")
	}
	cfg.LogMissing(logger)

	seed, err := parseSeed(opts.Seed)
	if err != nil {
		return err
	}
	tunables, err := resolveTunables(cfg, opts, changed)
	if err != nil {
		return err
	}

	source, err := openSource(cfg, opts, changed)
	if err != nil {
		return errors.Wrap(err, "Can't open video source")
	}
	defer source.Close()

	renderers := observer.Multi{observer.NewLogRenderer(logger)}
	var bar *progressbar.ProgressBar
	if total := source.FrameCount(); opts.Progress && total > 0 {
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Tracking"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)
		renderers = append(renderers, progressRenderer{bar: bar})
	}

	var schedule func(time.Time) time.Time
	if cfg.Star.Name != "" {
		schedule = cfg.Star.TransitNear
	}
	var bell io.Writer
	if opts.Bell {
		bell = os.Stdout
	}
	alerter := observer.NewLogAlerter(logger, schedule, bell)

	if opts.KalmanDT <= 0 {
		return errors.Errorf("Smoother time step must be positive, got %g", opts.KalmanDT)
	}
	obs := observer.New(source, tunables,
		observer.WithRenderer(renderers),
		observer.WithAlerter(alerter),
		observer.WithLogger(logger),
		observer.WithEngineOptions(meridian.WithTimeStep(opts.KalmanDT)),
	)
	defer obs.Close()

	sessionID := obs.SetSeedPoint(seed)
	logger.Info().
		Str("session", sessionID.String()).
		Str("star", cfg.Star.Name).
		Int("x", seed.X).
		Int("y", seed.Y).
		Str("direction", tunables.Direction.String()).
		Str("hsv", tunables.ColorRange.String()).
		Msg("tracking started")

	run := obs.Run
	if opts.Loop {
		run = obs.RunLooped
	}
	err = run(ctx)
	if bar != nil {
		bar.Finish()
	}
	marks := obs.CrossingMarks()
	switch errors.Cause(err) {
	case capture.ErrNoFrame:
		logger.Info().Int("crossings", len(marks)).Msg("end of stream")
	case context.Canceled:
		logger.Info().Int("crossings", len(marks)).Msg("interrupted")
	default:
		return err
	}
	return nil
}
