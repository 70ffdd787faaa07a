package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"vidinterp/internal/agents"
	"vidinterp/internal/audio"
	"vidinterp/internal/config"
	"vidinterp/internal/frames"
	"vidinterp/internal/logging"
	"vidinterp/internal/runs"
	"vidinterp/internal/services"
	"vidinterp/internal/services/whisper"
	"vidinterp/internal/stageexec"
	"vidinterp/internal/validate"
	"vidinterp/internal/workflows"
)

// fallbackLanguage is used when neither the workflow nor the configuration
// names a transcription language.
const fallbackLanguage = "pt"

// Request describes one analysis.
type Request struct {
	VideoPath string
	Task      string
	// SkipTranscription disables audio extraction and transcription.
	SkipTranscription bool
}

// Result is everything a completed analysis produced.
type Result struct {
	RunID          string              `json:"run_id"`
	Workflow       string              `json:"workflow"`
	Settings       workflows.Settings  `json:"workflow_config"`
	Frames         []string            `json:"frames"`
	AudioPath      string              `json:"audio_path,omitempty"`
	TranscriptPath string              `json:"transcript_path,omitempty"`
	Transcript     *whisper.Transcript `json:"transcription"`
	Analysis       *agents.Analysis    `json:"agent_analysis"`
}

// Orchestrator runs the analysis stages in order.
type Orchestrator struct {
	cfg     *config.Config
	catalog *workflows.Catalog
	logger  *slog.Logger

	frames      FrameExtractor
	audio       AudioExtractor
	transcriber Transcriber
	dispatcher  Dispatcher
	history     History
}

// New builds an orchestrator. Collaborators not supplied through options are
// constructed from cfg. The transcription client is created on first use so
// runs that skip transcription need no API key.
func New(cfg *config.Config, catalog *workflows.Catalog, logger *slog.Logger, opts ...Option) (*Orchestrator, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "configuration is required", nil)
	}
	if catalog == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "workflow catalog is required", nil)
	}
	o := &Orchestrator{
		cfg:     cfg,
		catalog: catalog,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
		frames:  frames.NewExtractor(cfg, logger),
		audio:   audio.NewExtractor(cfg, logger),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.dispatcher == nil {
		agent, err := agents.NewFromConfig(cfg, logger)
		if err != nil {
			return nil, err
		}
		coordinator, err := agents.NewCoordinator(agent, logger)
		if err != nil {
			return nil, err
		}
		o.dispatcher = coordinator.WithSubagentType(cfg.Agent.SubagentType)
	}
	return o, nil
}

// plan is the fully validated form of a request.
type plan struct {
	slug        string
	settings    workflows.Settings
	transcribe  bool
	language    string
	transcriber Transcriber
}

// Analyze runs the pipeline for req. Inputs, the workflow definition and the
// transcription language are all checked before any output is written; a
// rejected request is not recorded in history.
func (o *Orchestrator) Analyze(ctx context.Context, req Request) (*Result, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, o.logger)
	started := time.Now()

	result := &Result{RunID: runID}
	var p plan
	err := stageexec.Run(ctx, stageexec.Options{
		Logger:    o.logger,
		StageName: "validate",
		Attrs:     []logging.Attr{logging.String("video", req.VideoPath)},
		Execute: func(ctx context.Context, _ *slog.Logger) error {
			var err error
			p, err = o.resolve(req)
			return err
		},
	})
	if err != nil {
		// Rejected requests leave nothing behind, history included.
		return nil, err
	}
	result.Workflow = p.slug
	result.Settings = p.settings

	o.beginRun(ctx, logger, runs.Run{
		ID:        runID,
		VideoPath: req.VideoPath,
		Task:      req.Task,
		Workflow:  p.slug,
	})
	err = o.execute(ctx, req, p, result)
	o.finishRun(ctx, logger, result, err)
	if err != nil {
		return nil, err
	}

	logger.Info("analysis complete",
		logging.String("workflow", result.Workflow),
		logging.Int("frames", len(result.Frames)),
		logging.Int("batches", result.Analysis.NumAgents),
		logging.Bool("transcribed", result.Transcript != nil),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

func (o *Orchestrator) resolve(req Request) (plan, error) {
	if err := validate.VideoPath(req.VideoPath); err != nil {
		return plan{}, err
	}
	if err := validate.TaskDescription(req.Task); err != nil {
		return plan{}, err
	}

	p := plan{slug: o.catalog.Detect(req.Task)}
	def, err := o.catalog.Get(p.slug)
	if err != nil {
		return p, err
	}
	if p.settings, err = def.Settings(); err != nil {
		return p, err
	}

	p.transcribe = !req.SkipTranscription && o.cfg.Transcription.Enabled
	if !p.transcribe {
		return p, nil
	}
	p.language = p.settings.LanguageOr(o.cfg.Transcription.DefaultLanguage)
	if p.language == "" {
		p.language = fallbackLanguage
	}
	if err := validate.Language(p.language); err != nil {
		return p, err
	}
	if p.transcriber, err = o.transcriptionClient(); err != nil {
		return p, err
	}
	return p, nil
}

func (o *Orchestrator) transcriptionClient() (Transcriber, error) {
	if o.transcriber != nil {
		return o.transcriber, nil
	}
	client, err := whisper.NewClient(o.cfg.Whisper(), whisper.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	o.transcriber = client
	return client, nil
}

func (o *Orchestrator) execute(ctx context.Context, req Request, p plan, result *Result) error {
	err := o.stage(ctx, "frames", func(ctx context.Context, logger *slog.Logger) error {
		sampled, err := o.frames.Extract(ctx, req.VideoPath, o.cfg.FramesDir(req.VideoPath), p.settings.FPS)
		if err != nil {
			return err
		}
		result.Frames = sampled
		logger.Info("frames sampled", logging.Int("frames", len(sampled)), logging.Float64("fps", p.settings.FPS))
		return nil
	}, logging.Float64("fps", p.settings.FPS))
	if err != nil {
		return err
	}

	if p.transcribe {
		if err := o.stage(ctx, "audio", func(ctx context.Context, _ *slog.Logger) error {
			path, err := o.audio.Extract(ctx, req.VideoPath, o.cfg.AudioPath(req.VideoPath), p.language)
			if err != nil {
				return err
			}
			result.AudioPath = path
			return nil
		}, logging.String("language", p.language)); err != nil {
			return err
		}

		if err := o.stage(ctx, "transcription", func(ctx context.Context, logger *slog.Logger) error {
			transcript, err := p.transcriber.Transcribe(ctx, result.AudioPath, p.language, o.cfg.Whisper().Granularity)
			if err != nil {
				return err
			}
			path := o.cfg.TranscriptPath(req.VideoPath)
			if err := transcript.Write(path); err != nil {
				return services.Wrap(services.ErrConfiguration, "transcription", "write transcript", path, err)
			}
			result.Transcript = transcript
			result.TranscriptPath = path
			logger.Info("audio transcribed",
				logging.Int("segments", len(transcript.Segments)),
				logging.Float64("duration_seconds", transcript.Duration),
			)
			return nil
		}, logging.String("language", p.language)); err != nil {
			return err
		}
	} else {
		logging.WithContext(ctx, o.logger).Debug("transcription skipped", logging.Bool("requested", req.SkipTranscription))
	}

	var responses []agents.Response
	if err := o.stage(ctx, "agents", func(ctx context.Context, _ *slog.Logger) error {
		var err error
		responses, err = o.dispatcher.Dispatch(ctx, result.Frames, result.Transcript, p.settings, req.Task, p.settings.Agents, p.settings.FPS)
		return err
	}, logging.Int("workers", p.settings.Agents)); err != nil {
		return err
	}

	return o.stage(ctx, "aggregate", func(context.Context, *slog.Logger) error {
		analysis, err := agents.Aggregate(responses, result.Transcript, req.Task)
		if err != nil {
			return err
		}
		result.Analysis = analysis
		return nil
	})
}

func (o *Orchestrator) stage(ctx context.Context, name string, fn stageexec.Func, attrs ...logging.Attr) error {
	return stageexec.Run(ctx, stageexec.Options{
		Logger:    o.logger,
		StageName: name,
		Attrs:     attrs,
		Execute:   fn,
	})
}

func (o *Orchestrator) beginRun(ctx context.Context, logger *slog.Logger, run runs.Run) {
	if o.history == nil {
		return
	}
	if err := o.history.Begin(ctx, run); err != nil {
		logging.WarnWithContext(logger, "failed to record run start", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state directory permissions"),
			logging.String(logging.FieldImpact, "run missing from history"),
		)
	}
}

func (o *Orchestrator) finishRun(ctx context.Context, logger *slog.Logger, result *Result, runErr error) {
	if o.history == nil {
		return
	}
	outcome := runs.Outcome{
		Status:      runs.StatusCompleted,
		Frames:      len(result.Frames),
		Transcribed: result.Transcript != nil,
	}
	if result.Analysis != nil {
		outcome.Batches = result.Analysis.NumAgents
	}
	if runErr != nil {
		outcome.Status = services.FailureStatus(runErr)
		outcome.ErrorMessage = runErr.Error()
	}
	// The run context may already be cancelled; the record is still written.
	if err := o.history.Finish(context.WithoutCancel(ctx), result.RunID, outcome); err != nil {
		logging.WarnWithContext(logger, "failed to record run outcome", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state directory permissions"),
			logging.String(logging.FieldImpact, "run left as running in history"),
		)
	}
}
