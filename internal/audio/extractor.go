package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vidinterp/internal/config"
	"vidinterp/internal/logging"
	"vidinterp/internal/media/ffmpeg"
	"vidinterp/internal/media/ffprobe"
	"vidinterp/internal/services"
)

const (
	stageName  = "audio"
	sampleRate = "16000"
	mp3Bitrate = "192k"
)

// Prober inspects a media file.
type Prober func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Extractor writes a video's audio track to a standalone file.
type Extractor struct {
	ffmpegBinary  string
	ffprobeBinary string
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
		timeout:       cfg.FrameTimeout(),
		run:           ffmpeg.Run,
		probe:         ffprobe.Inspect,
		logger:        logging.NewComponentLogger(logger, "audio"),
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

// Extract writes the audio track of videoPath to outputPath as mono 16 kHz,
// 16-bit audio. lang selects between multiple audio streams and may be empty.
func (e *Extractor) Extract(ctx context.Context, videoPath, outputPath, lang string) (string, error) {
	if _, err := os.Stat(videoPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", services.Wrap(services.ErrNotFound, stageName, "stat video", "video file not found: "+videoPath, nil)
		}
		return "", services.Wrap(services.ErrValidation, stageName, "stat video", videoPath, err)
	}
	if strings.TrimSpace(outputPath) == "" {
		return "", services.Wrap(services.ErrValidation, stageName, "check output", "output path is empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, stageName, "create output", filepath.Dir(outputPath), err)
	}

	probe, err := e.probe(ctx, e.ffprobeBinary, videoPath)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, stageName, "probe video", videoPath, err)
	}
	if !probe.HasAudio() {
		return "", services.Wrap(services.ErrValidation, stageName, "select track", "video has no audio track: "+videoPath, nil)
	}
	track, _ := SelectTrack(probe.Streams, lang)
	if probe.AudioStreamCount() > 1 {
		e.logger.Info("selected audio track",
			logging.Int("stream_index", track.Index),
			logging.String("track_language", track.Language),
			logging.Int("audio_streams", probe.AudioStreamCount()),
		)
	}

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	if err := e.run(runCtx, e.ffmpegBinary, buildArgs(videoPath, outputPath, track.Index)...); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return "", services.Wrap(services.ErrTimeout, stageName, "ffmpeg", fmt.Sprintf("audio extraction exceeded %s", e.timeout), err)
		}
		return "", services.Wrap(services.ErrExternalTool, stageName, "ffmpeg", "audio extraction failed", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, stageName, "stat output", "ffmpeg did not produce "+outputPath, err)
	}
	e.logger.Info("audio extracted",
		logging.String("output", outputPath),
		logging.Int("bytes", int(info.Size())),
	)
	return outputPath, nil
}

// CodecArgs returns the ffmpeg codec flags for the output container. Anything
// other than .mp3 is written as 16-bit PCM.
func CodecArgs(outputPath string) []string {
	if strings.EqualFold(filepath.Ext(outputPath), ".mp3") {
		return []string{"-c:a", "libmp3lame", "-b:a", mp3Bitrate}
	}
	return []string{"-c:a", "pcm_s16le"}
}

func buildArgs(videoPath, outputPath string, streamIndex int) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", videoPath,
		"-map", fmt.Sprintf("0:%d", streamIndex),
		"-vn",
		"-ac", "1",
		"-ar", sampleRate,
	}
	args = append(args, CodecArgs(outputPath)...)
	return append(args, outputPath)
}
