package whisper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"vidinterp/internal/config"
	"vidinterp/internal/logging"
	"vidinterp/internal/services"
)

const (
	stageName = "transcription"

	// GranularitySegment requests phrase-level timestamps.
	GranularitySegment = "segment"
	// GranularityWord requests per-word timestamps.
	GranularityWord = "word"

	defaultAttempts  = 3
	defaultBaseDelay = time.Second
	defaultTimeout   = 60 * time.Second
)

// Client wraps the OpenAI transcription endpoint.
type Client struct {
	api         *openai.Client
	model       string
	granularity string
	timeout     time.Duration
	maxAttempts int
	baseDelay   time.Duration
	httpClient  *http.Client
	sleeper     func(time.Duration)
	logger      *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// WithLogger attaches a logger for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "whisper")
	}
}

// NewClient builds a transcription client. A missing API key is a
// configuration error.
func NewClient(cfg config.WhisperConfig, opts ...Option) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "init client",
			"transcription API key required (set transcription.api_key or OPENAI_API_KEY)", nil)
	}
	client := &Client{
		model:       firstNonEmpty(cfg.Model, openai.Whisper1),
		granularity: firstNonEmpty(cfg.Granularity, GranularitySegment),
		timeout:     cfg.Timeout,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		logger:      logging.NewNop(),
	}
	if client.timeout <= 0 {
		client.timeout = defaultTimeout
	}
	if client.maxAttempts <= 0 {
		client.maxAttempts = defaultAttempts
	}
	if client.baseDelay < 0 {
		client.baseDelay = defaultBaseDelay
	}
	for _, opt := range opts {
		opt(client)
	}

	apiCfg := openai.DefaultConfig(key)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		apiCfg.BaseURL = strings.TrimRight(base, "/")
	}
	if client.httpClient != nil {
		apiCfg.HTTPClient = client.httpClient
	}
	client.api = openai.NewClientWithConfig(apiCfg)
	return client, nil
}

// HealthCheck confirms that the key is accepted and the configured model
// exists. It makes a single request with no retries.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.api.GetModel(ctx, c.model); err != nil {
		return fmt.Errorf("transcription health: %w", err)
	}
	return nil
}

// Transcribe sends audioPath to the API. lang is an ISO 639-1 code and may be
// empty for auto-detection. granularity is "segment" or "word"; empty uses the
// configured default.
func (c *Client) Transcribe(ctx context.Context, audioPath, lang, granularity string) (*Transcript, error) {
	if _, err := os.Stat(audioPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, stageName, "stat audio", "audio file not found: "+audioPath, nil)
		}
		return nil, services.Wrap(services.ErrValidation, stageName, "stat audio", audioPath, err)
	}
	if granularity == "" {
		granularity = c.granularity
	}
	if granularity != GranularitySegment && granularity != GranularityWord {
		return nil, services.Wrap(services.ErrValidation, stageName, "check granularity",
			fmt.Sprintf("invalid granularity %q (must be word or segment)", granularity), nil)
	}

	request := openai.AudioRequest{
		Model:                  c.model,
		FilePath:               audioPath,
		Language:               lang,
		Format:                 openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{timestampGranularity(granularity)},
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.attempt(ctx, request)
		if err == nil {
			return toTranscript(resp, granularity), nil
		}
		if ctx.Err() != nil {
			return nil, cancelled(ctx)
		}
		if marker := permanentFailure(err); marker != nil {
			return nil, services.Wrap(marker, stageName, "transcribe", "transcription rejected", err)
		}
		lastErr = err
		if attempt == c.maxAttempts {
			break
		}
		delay := c.baseDelay << (attempt - 1)
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "transcription attempt failed; retrying",
			"transcription_retry",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", c.maxAttempts),
			logging.Duration("retry_in", delay),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check network connectivity and API quota"),
			logging.String(logging.FieldImpact, "transcription delayed"),
		)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, cancelled(ctx)
		}
	}
	return nil, services.Wrap(services.ErrExternalTool, stageName, "transcribe",
		fmt.Sprintf("transcription failed after %d attempts", c.maxAttempts), lastErr)
}

func (c *Client) attempt(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.api.CreateTranscription(attemptCtx, request)
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func cancelled(ctx context.Context) error {
	marker := services.ErrTransient
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		marker = services.ErrTimeout
	}
	return services.Wrap(marker, stageName, "transcribe", "transcription cancelled", ctx.Err())
}

// permanentFailure returns the error marker for responses that will not
// improve on retry, or nil when err is worth retrying. Authentication
// failures are configuration problems; other 4xx responses (except request
// timeout and rate limiting) mean the request itself was refused.
func permanentFailure(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return services.ErrConfiguration
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return nil
	case status >= 400 && status < 500:
		return services.ErrValidation
	default:
		return nil
	}
}

func timestampGranularity(granularity string) openai.TranscriptionTimestampGranularity {
	if granularity == GranularityWord {
		return openai.TranscriptionTimestampGranularityWord
	}
	return openai.TranscriptionTimestampGranularitySegment
}

func toTranscript(resp openai.AudioResponse, granularity string) *Transcript {
	transcript := &Transcript{
		Text:     strings.TrimSpace(resp.Text),
		Language: resp.Language,
		Duration: resp.Duration,
		Segments: []Segment{},
	}
	if granularity == GranularityWord && len(resp.Words) > 0 {
		for _, word := range resp.Words {
			transcript.Segments = append(transcript.Segments, Segment{Start: word.Start, End: word.End, Text: word.Word})
		}
		return transcript
	}
	for _, seg := range resp.Segments {
		transcript.Segments = append(transcript.Segments, Segment{Start: seg.Start, End: seg.End, Text: seg.Text})
	}
	return transcript
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
