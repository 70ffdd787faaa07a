package pipeline

import (
	"context"

	"vidinterp/internal/agents"
	"vidinterp/internal/runs"
	"vidinterp/internal/services/whisper"
	"vidinterp/internal/workflows"
)

// FrameExtractor samples frames from a video into a directory.
type FrameExtractor interface {
	Extract(ctx context.Context, videoPath, outDir string, fps float64) ([]string, error)
}

// AudioExtractor writes the preferred audio track of a video to outputPath.
type AudioExtractor interface {
	Extract(ctx context.Context, videoPath, outputPath, lang string) (string, error)
}

// Transcriber turns an audio file into timed transcript segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, lang, granularity string) (*whisper.Transcript, error)
}

// Dispatcher sends frame batches to the analysis agent.
type Dispatcher interface {
	Dispatch(
		ctx context.Context,
		frames []string,
		transcript *whisper.Transcript,
		settings workflows.Settings,
		task string,
		workers int,
		fps float64,
	) ([]agents.Response, error)
}

// History records run metadata.
type History interface {
	Begin(ctx context.Context, run runs.Run) error
	Finish(ctx context.Context, id string, outcome runs.Outcome) error
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithFrameExtractor replaces the ffmpeg frame sampler.
func WithFrameExtractor(e FrameExtractor) Option {
	return func(o *Orchestrator) { o.frames = e }
}

// WithAudioExtractor replaces the ffmpeg audio extractor.
func WithAudioExtractor(e AudioExtractor) Option {
	return func(o *Orchestrator) { o.audio = e }
}

// WithTranscriber replaces the Whisper client built from configuration.
func WithTranscriber(t Transcriber) Option {
	return func(o *Orchestrator) { o.transcriber = t }
}

// WithDispatcher replaces the coordinator built from configuration.
func WithDispatcher(d Dispatcher) Option {
	return func(o *Orchestrator) { o.dispatcher = d }
}

// WithHistory records every run in h.
func WithHistory(h History) Option {
	return func(o *Orchestrator) { o.history = h }
}
