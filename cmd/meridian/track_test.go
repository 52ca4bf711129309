package main

import (
	"bytes"
	"image"
	"io"
	"testing"
	"time"

	"github.com/LdDl/meridian/internal/config"
	"github.com/LdDl/meridian/meridian"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func changedSet(flags ...string) func(string) bool {
	set := make(map[string]bool, len(flags))
	for _, flag := range flags {
		set[flag] = true
	}
	return func(name string) bool {
		return set[name]
	}
}

func TestParseSeed(t *testing.T) {
	seed, err := parseSeed("100,200")
	require.NoError(t, err)
	assert.Equal(t, image.Pt(100, 200), seed)

	seed, err = parseSeed(" 7 , 9 ")
	require.NoError(t, err)
	assert.Equal(t, image.Pt(7, 9), seed)

	for _, bad := range []string{"", "100", "1,2,3", "a,2", "1,b", "-1,5"} {
		_, err := parseSeed(bad)
		assert.Error(t, err, "seed '%s'", bad)
	}
}

func TestResolveTunablesFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Star.Direction = meridian.RightToLeft
	cfg.Camera.MinV = 150
	cfg.Tracking.SnapTolerance = 12
	cfg.Tracking.FrameDelay = 5 * time.Millisecond

	tunables, err := resolveTunables(cfg, trackOptions{Direction: "LR", Tolerance: 99, DelayMS: 1000, ValMin: 0}, changedSet())
	require.NoError(t, err)
	assert.Equal(t, meridian.RightToLeft, tunables.Direction)
	assert.Equal(t, 12.0, tunables.SnapTolerance)
	assert.Equal(t, 5*time.Millisecond, tunables.FrameDelay)
	assert.Equal(t, 150, tunables.ColorRange.ValMin)
	assert.Equal(t, 255, tunables.ColorRange.ValMax)
}

func TestResolveTunablesFlagsOverride(t *testing.T) {
	opts := trackOptions{
		Direction: "rl",
		Tolerance: 40,
		DelayMS:   0,
		HueMin:    10,
		HueMax:    400,
		ValMin:    200,
	}
	tunables, err := resolveTunables(config.Default(), opts, changedSet("direction", "tolerance", "delay", "hmin", "hmax", "vmin"))
	require.NoError(t, err)
	assert.Equal(t, meridian.RightToLeft, tunables.Direction)
	assert.Equal(t, 40.0, tunables.SnapTolerance)
	assert.Equal(t, time.Duration(0), tunables.FrameDelay)
	assert.Equal(t, 10, tunables.ColorRange.HueMin)
	assert.Equal(t, 179, tunables.ColorRange.HueMax)
	assert.Equal(t, 200, tunables.ColorRange.ValMin)
}

func TestResolveTunablesInvalid(t *testing.T) {
	cfg := config.Default()
	_, err := resolveTunables(cfg, trackOptions{Direction: "up"}, changedSet("direction"))
	assert.Equal(t, meridian.ErrUnknownDirection, errors.Cause(err))

	_, err = resolveTunables(cfg, trackOptions{Tolerance: 0}, changedSet("tolerance"))
	assert.Equal(t, meridian.ErrInvalidTolerance, errors.Cause(err))

	_, err = resolveTunables(cfg, trackOptions{DelayMS: -1}, changedSet("delay"))
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	level, err := parseLogLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, "debug", level.String())

	level, err = parseLogLevel("")
	require.NoError(t, err)
	assert.Equal(t, "info", level.String())

	_, err = parseLogLevel("loud")
	assert.Error(t, err)
}

func TestPrintConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Star.Name = "Vega"
	cfg.Star.Hour, cfg.Star.Minute, cfg.Star.Second = 21, 7, 5
	cfg.File = config.File{Name: "night.avi", Location: "/data"}
	cfg.Missing = append(cfg.Missing, "camera.id")

	var buf bytes.Buffer
	printConfig(&buf, cfg)
	out := buf.String()
	assert.Contains(t, out, `"Vega" LR transit 21:07:05`)
	assert.Contains(t, out, "V[100..255]")
	assert.Contains(t, out, "/data/night.avi")
	assert.Contains(t, out, "missing:   camera.id")
}

func TestProgressRendererStartsOver(t *testing.T) {
	bar := progressbar.NewOptions(3, progressbar.OptionSetWriter(io.Discard))
	renderer := progressRenderer{bar: bar}
	mat := gocv.NewMat()
	defer mat.Close()

	for i := 0; i < 3; i++ {
		renderer.Render(mat, mat, meridian.StepResult{})
	}
	assert.True(t, bar.IsFinished())
	renderer.Render(mat, mat, meridian.StepResult{})
	assert.False(t, bar.IsFinished())
	assert.Equal(t, int64(1), bar.State().CurrentNum)
}
