// Package config loads star, camera and source descriptors from the XML file of the observing station.
// Elements absent from the file keep documented defaults and are reported in Config.Missing.
package config

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/LdDl/meridian/internal/vision"
	"github.com/LdDl/meridian/meridian"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Defaults
const (
	DefaultMinV          = 100
	DefaultMaxV          = 255
	DefaultFrameDelay    = 30 * time.Millisecond
	DefaultSnapTolerance = meridian.DefaultSnapTolerance
)

// Star describes the tracked star and its scheduled meridian transit (local time)
type Star struct {
	Name      string
	Direction meridian.Direction
	Hour      int
	Minute    int
	Second    int
}

// TransitOn returns scheduled transit at the date of day in day's location
func (star Star) TransitOn(day time.Time) time.Time {
	year, month, date := day.Date()
	return time.Date(year, month, date, star.Hour, star.Minute, star.Second, 0, day.Location())
}

// TransitNear returns scheduled transit closest to t (previous, same or next day)
func (star Star) TransitNear(t time.Time) time.Time {
	best := star.TransitOn(t)
	for _, shift := range []int{-1, 1} {
		candidate := star.TransitOn(t.AddDate(0, 0, shift))
		if absDuration(candidate.Sub(t)) < absDuration(best.Sub(t)) {
			best = candidate
		}
	}
	return best
}

// Camera describes capture device and its brightness range
type Camera struct {
	ID   int
	MinV int
	MaxV int
}

// File describes recorded video used instead of live camera
type File struct {
	Name     string
	Location string
}

// Path returns full path to the video file or empty string if file is not configured
func (file File) Path() string {
	if file.Name == "" {
		return ""
	}
	return filepath.Join(file.Location, file.Name)
}

// Tracking holds tunables of the tracking loop
type Tracking struct {
	SnapTolerance float64
	FrameDelay    time.Duration
}

// Config is the effective configuration
type Config struct {
	Star     Star
	Camera   Camera
	File     File
	Tracking Tracking
	// Missing lists elements which were absent (or invalid) and fell back to defaults
	Missing []string
}

// Default returns configuration with documented defaults
func Default() *Config {
	return &Config{
		Star: Star{
			Direction: meridian.LeftToRight,
		},
		Camera: Camera{
			ID:   0,
			MinV: DefaultMinV,
			MaxV: DefaultMaxV,
		},
		Tracking: Tracking{
			SnapTolerance: DefaultSnapTolerance,
			FrameDelay:    DefaultFrameDelay,
		},
		Missing: make([]string, 0),
	}
}

// ColorRange returns HSV range with brightness bounds of the camera
func (cfg *Config) ColorRange() vision.ColorRange {
	rng := vision.DefaultColorRange()
	rng.ValMin = cfg.Camera.MinV
	rng.ValMax = cfg.Camera.MaxV
	return rng.Clamp()
}

// LogMissing reports fields which fell back to defaults
func (cfg *Config) LogMissing(logger zerolog.Logger) {
	for _, field := range cfg.Missing {
		logger.Warn().Str("component", "config").Str("field", field).Msg("configuration value missing, default is used")
	}
}

// Load parses configuration from XML document. Returned config is never nil: on error it holds defaults
// and every field is reported as missing.
func Load(r io.Reader) (*Config, error) {
	doc := document{}
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return document{}.toConfig(), errors.Wrap(err, "Can't parse configuration XML")
	}
	return doc.toConfig(), nil
}

// LoadFile reads configuration file. Returned config is never nil: on error it holds defaults
// and every field is reported as missing.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return document{}.toConfig(), errors.Wrapf(err, "Can't open configuration file '%s'", path)
	}
	defer f.Close()
	cfg, err := Load(f)
	if err != nil {
		return cfg, errors.Wrapf(err, "File '%s'", path)
	}
	return cfg, nil
}

func (doc document) toConfig() *Config {
	cfg := Default()
	missing := func(field string) {
		cfg.Missing = append(cfg.Missing, field)
	}
	invalid := func(field string, value any) {
		cfg.Missing = append(cfg.Missing, fmt.Sprintf("%s (invalid value '%v')", field, value))
	}

	star := doc.Star
	if star == nil {
		star = &xmlStar{}
	}
	if star.Name != nil {
		cfg.Star.Name = strings.TrimSpace(*star.Name)
	} else {
		missing("star/name")
	}
	if star.Direction != nil {
		direction, err := meridian.ParseDirection(*star.Direction)
		if err != nil {
			invalid("star/direction", *star.Direction)
		} else {
			cfg.Star.Direction = direction
		}
	} else {
		missing("star/direction")
	}
	setBounded(star.Hours, 0, 23, &cfg.Star.Hour, "star/hours", missing, invalid)
	setBounded(star.Minutes, 0, 59, &cfg.Star.Minute, "star/minutes", missing, invalid)
	setBounded(star.Seconds, 0, 59, &cfg.Star.Second, "star/seconds", missing, invalid)

	camera := doc.Camera
	if camera == nil {
		camera = &xmlCamera{}
	}
	setBounded(camera.ID, 0, 1<<16, &cfg.Camera.ID, "camera/id", missing, invalid)
	setBounded(camera.MinV, 0, 255, &cfg.Camera.MinV, "camera/minV", missing, invalid)
	setBounded(camera.MaxV, 0, 255, &cfg.Camera.MaxV, "camera/maxV", missing, invalid)
	if cfg.Camera.MinV > cfg.Camera.MaxV {
		invalid("camera/minV..maxV", fmt.Sprintf("%d..%d", cfg.Camera.MinV, cfg.Camera.MaxV))
		cfg.Camera.MinV, cfg.Camera.MaxV = DefaultMinV, DefaultMaxV
	}

	// Video file is optional: camera is used when it is absent
	if doc.File != nil && doc.File.Name != nil {
		cfg.File.Name = strings.TrimSpace(*doc.File.Name)
		if doc.File.Location != nil {
			cfg.File.Location = strings.TrimSpace(*doc.File.Location)
		}
	}

	tracking := doc.Tracking
	if tracking == nil {
		tracking = &xmlTracking{}
	}
	if tracking.Tolerance != nil {
		if *tracking.Tolerance > 0 {
			cfg.Tracking.SnapTolerance = *tracking.Tolerance
		} else {
			invalid("tracking/tolerance", *tracking.Tolerance)
		}
	} else {
		missing("tracking/tolerance")
	}
	delay := int(DefaultFrameDelay / time.Millisecond)
	setBounded(tracking.Delay, 0, 5000, &delay, "tracking/delay", missing, invalid)
	cfg.Tracking.FrameDelay = time.Duration(delay) * time.Millisecond

	return cfg
}

func setBounded(value *int, lo, hi int, target *int, field string, missing func(string), invalid func(string, any)) {
	if value == nil {
		missing(field)
		return
	}
	if *value < lo || *value > hi {
		invalid(field, *value)
		return
	}
	*target = *value
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
