package frames

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"vidinterp/internal/config"
	"vidinterp/internal/logging"
	"vidinterp/internal/media/ffmpeg"
	"vidinterp/internal/media/ffprobe"
	"vidinterp/internal/services"
)

const (
	stageName    = "frames"
	framePrefix  = "frame_"
	framePattern = "frame_%04d.png"
	lockName     = ".vidinterp.lock"
)

// Prober inspects a media file.
type Prober func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Extractor samples frames with ffmpeg.
type Extractor struct {
	ffmpegBinary  string
	ffprobeBinary string
	maxFPS        float64
	timeout       time.Duration
	run           ffmpeg.Runner
	probe         Prober
	logger        *slog.Logger
}

// NewExtractor builds an extractor from configuration.
func NewExtractor(cfg *config.Config, logger *slog.Logger) *Extractor {
	return &Extractor{
		ffmpegBinary:  cfg.FFmpegBinary(),
		ffprobeBinary: cfg.FFprobeBinary(),
		maxFPS:        cfg.Frames.MaxFPS,
		timeout:       cfg.FrameTimeout(),
		run:           ffmpeg.Run,
		probe:         ffprobe.Inspect,
		logger:        logging.NewComponentLogger(logger, "frames"),
	}
}

// WithCommandRunner swaps the ffmpeg runner (for tests).
func (e *Extractor) WithCommandRunner(r ffmpeg.Runner) *Extractor {
	if r != nil {
		e.run = r
	}
	return e
}

// WithProber swaps the ffprobe inspection (for tests).
func (e *Extractor) WithProber(p Prober) *Extractor {
	if p != nil {
		e.probe = p
	}
	return e
}

// Extract samples videoPath at fps frames per second into outDir and returns
// the written frame paths in temporal order.
func (e *Extractor) Extract(ctx context.Context, videoPath, outDir string, fps float64) ([]string, error) {
	if _, err := os.Stat(videoPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, stageName, "stat video", "video file not found: "+videoPath, nil)
		}
		return nil, services.Wrap(services.ErrValidation, stageName, "stat video", videoPath, err)
	}
	if math.IsNaN(fps) || fps <= 0 {
		return nil, services.Wrap(services.ErrValidation, stageName, "check fps", fmt.Sprintf("fps must be positive, got %g", fps), nil)
	}
	if fps > e.maxFPS {
		return nil, services.Wrap(services.ErrValidation, stageName, "check fps", fmt.Sprintf("fps too high (maximum %g), got %g", e.maxFPS, fps), nil)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "create output", outDir, err)
	}

	lock := flock.New(filepath.Join(outDir, lockName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, stageName, "lock output", outDir, err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrTransient, stageName, "lock output", "another run is writing frames to "+outDir, nil)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	probe, err := e.probe(ctx, e.ffprobeBinary, videoPath)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stageName, "probe video", videoPath, err)
	}
	if probe.VideoStreamCount() == 0 {
		return nil, services.Wrap(services.ErrValidation, stageName, "probe video", "no video stream in "+videoPath, nil)
	}
	sourceFPS := probe.FrameRate()
	if sourceFPS <= 0 {
		return nil, services.Wrap(services.ErrValidation, stageName, "probe video", "could not determine frame rate of "+videoPath, nil)
	}
	interval := Interval(sourceFPS, fps)

	if err := removeStaleFrames(outDir); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "clean output", outDir, err)
	}

	e.logger.Info("sampling frames",
		logging.String("video", videoPath),
		logging.Float64("source_fps", sourceFPS),
		logging.Float64("target_fps", fps),
		logging.Int("interval", interval),
		logging.Float64("duration_seconds", probe.DurationSeconds()),
	)

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	if err := e.run(runCtx, e.ffmpegBinary, buildArgs(videoPath, outDir, interval)...); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, services.Wrap(services.ErrTimeout, stageName, "ffmpeg", fmt.Sprintf("frame sampling exceeded %s", e.timeout), err)
		}
		return nil, services.Wrap(services.ErrExternalTool, stageName, "ffmpeg", "frame sampling failed", err)
	}

	frames, err := List(outDir)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stageName, "list frames", outDir, err)
	}
	if len(frames) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, stageName, "list frames", "no frames extracted from "+videoPath, nil)
	}
	e.logger.Info("frames sampled", logging.Int("frames", len(frames)), logging.String("output_dir", outDir))
	return frames, nil
}

// Interval returns how many source frames separate two sampled frames.
func Interval(sourceFPS, targetFPS float64) int {
	if targetFPS <= 0 {
		return 1
	}
	return max(1, int(sourceFPS/targetFPS))
}

// TimestampOf returns the time in seconds of the sampled frame at index.
func TimestampOf(index int, fps float64) float64 {
	if fps <= 0 {
		return 0
	}
	return float64(index) / fps
}

// List returns the frame_*.png files in dir in frame-number order. Numbers
// past frame_9999 widen beyond four digits, so ordering is numeric.
func List(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, framePrefix+"*.png"))
	if err != nil {
		return nil, err
	}
	slices.SortFunc(matches, func(a, b string) int {
		if c := cmp.Compare(frameNumber(a), frameNumber(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return matches, nil
}

func frameNumber(path string) int {
	name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), framePrefix), ".png")
	n, err := strconv.Atoi(name)
	if err != nil {
		return math.MaxInt
	}
	return n
}

func removeStaleFrames(dir string) error {
	stale, err := List(dir)
	if err != nil {
		return err
	}
	for _, path := range stale {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func buildArgs(videoPath, outDir string, interval int) []string {
	selectExpr := "select=not(mod(n\\," + strconv.Itoa(interval) + "))"
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", videoPath,
		"-an",
		"-vf", selectExpr,
		"-fps_mode", "vfr",
		"-start_number", "0",
		filepath.Join(outDir, framePattern),
	}
}
