package whisper_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"vidinterp/internal/config"
	"vidinterp/internal/services"
	"vidinterp/internal/services/whisper"
	"vidinterp/internal/testsupport"
)

const segmentResponse = `{
  "task": "transcribe",
  "language": "portuguese",
  "duration": 6.0,
  "text": "Olá mundo. Vamos desenhar.",
  "segments": [
    {"id": 0, "start": 0.0, "end": 2.5, "text": " Olá mundo."},
    {"id": 1, "start": 2.5, "end": 6.0, "text": " Vamos desenhar."}
  ]
}`

const wordResponse = `{
  "task": "transcribe",
  "language": "english",
  "duration": 1.0,
  "text": "hello world",
  "words": [
    {"word": "hello", "start": 0.0, "end": 0.4},
    {"word": "world", "start": 0.5, "end": 1.0}
  ]
}`

func newClient(t *testing.T, serverURL string, sleeps *[]time.Duration) *whisper.Client {
	t.Helper()
	client, err := whisper.NewClient(config.WhisperConfig{
		APIKey:      "test-key",
		BaseURL:     serverURL,
		Model:       "whisper-1",
		Granularity: whisper.GranularitySegment,
		Timeout:     5 * time.Second,
		MaxAttempts: 3,
		BaseDelay:   time.Second,
	}, whisper.WithSleeper(func(d time.Duration) {
		if sleeps != nil {
			*sleeps = append(*sleeps, d)
		}
	}))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "talk_audio.wav")
	testsupport.WriteFile(t, path, 256)
	return path
}

func TestTranscribeSegments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/transcriptions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("expected verbose_json, got %q", got)
		}
		if got := r.FormValue("language"); got != "pt" {
			t.Errorf("expected language pt, got %q", got)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("expected whisper-1, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(segmentResponse))
	}))
	defer server.Close()

	transcript, err := newClient(t, server.URL, nil).Transcribe(context.Background(), writeAudio(t), "pt", "segment")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(transcript.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(transcript.Segments))
	}
	if transcript.Segments[1].Start != 2.5 || transcript.Segments[1].End != 6.0 {
		t.Fatalf("unexpected timing %+v", transcript.Segments[1])
	}
	if transcript.Text != "Olá mundo. Vamos desenhar." {
		t.Fatalf("unexpected text %q", transcript.Text)
	}
	if transcript.Duration != 6.0 {
		t.Fatalf("unexpected duration %v", transcript.Duration)
	}
}

func TestTranscribeWordsBecomeSegments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(wordResponse))
	}))
	defer server.Close()

	transcript, err := newClient(t, server.URL, nil).Transcribe(context.Background(), writeAudio(t), "en", "word")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(transcript.Segments) != 2 || transcript.Segments[0].Text != "hello" || transcript.Segments[1].End != 1.0 {
		t.Fatalf("unexpected word segments %+v", transcript.Segments)
	}
}

func serverError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`{"error":{"message":"upstream unavailable","type":"server_error"}}`))
}

func TestTranscribeRetriesWithDoublingDelay(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			serverError(w)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(segmentResponse))
	}))
	defer server.Close()

	var sleeps []time.Duration
	transcript, err := newClient(t, server.URL, &sleeps).Transcribe(context.Background(), writeAudio(t), "pt", "")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(transcript.Segments) != 2 {
		t.Fatalf("expected transcript after retries, got %+v", transcript)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
	if len(sleeps) != 2 || sleeps[0] != time.Second || sleeps[1] != 2*time.Second {
		t.Fatalf("unexpected backoff %v", sleeps)
	}
}

func TestTranscribeGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		serverError(w)
	}))
	defer server.Close()

	_, err := newClient(t, server.URL, nil).Transcribe(context.Background(), writeAudio(t), "pt", "segment")
	if err == nil {
		t.Fatal("expected failure")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.Contains(err.Error(), "transcription failed after 3 attempts") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestTranscribeStatusRetryPolicy(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		marker    error
		wantCalls int32
	}{
		{"unauthorized", http.StatusUnauthorized, services.ErrConfiguration, 1},
		{"forbidden", http.StatusForbidden, services.ErrConfiguration, 1},
		{"bad request", http.StatusBadRequest, services.ErrValidation, 1},
		{"too large", http.StatusRequestEntityTooLarge, services.ErrValidation, 1},
		{"rate limited", http.StatusTooManyRequests, services.ErrExternalTool, 3},
		{"request timeout", http.StatusRequestTimeout, services.ErrExternalTool, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"refused","type":"invalid_request_error"}}`))
			}))
			defer server.Close()

			_, err := newClient(t, server.URL, nil).Transcribe(context.Background(), writeAudio(t), "pt", "segment")
			if !errors.Is(err, tt.marker) {
				t.Fatalf("expected %v, got %v", tt.marker, err)
			}
			if calls.Load() != tt.wantCalls {
				t.Fatalf("expected %d calls, got %d", tt.wantCalls, calls.Load())
			}
		})
	}
}

func TestTranscribeCancelledContext(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		serverError(w)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newClient(t, server.URL, nil).Transcribe(ctx, writeAudio(t), "pt", "segment")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if calls.Load() > 1 {
		t.Fatalf("cancelled transcription must not retry, got %d calls", calls.Load())
	}
}

func TestTranscribeRejectsBadInput(t *testing.T) {
	client := newClient(t, "http://127.0.0.1:1", nil)
	_, err := client.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav"), "pt", "segment")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	_, err = client.Transcribe(context.Background(), writeAudio(t), "pt", "sentence")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := whisper.NewClient(config.WhisperConfig{APIKey: "  "})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestTranscriptWriteAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "talk_transcript.json")
	original := &whisper.Transcript{
		Text:     "one two",
		Language: "en",
		Segments: []whisper.Segment{{Start: 0, End: 1, Text: "one"}, {Start: 1, End: 2, Text: " two "}},
	}
	if err := original.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	loaded, err := whisper.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Text != "one two" || loaded.Language != "en" || len(loaded.Segments) != 2 || loaded.Segments[1].Text != " two " {
		t.Fatalf("unexpected transcript %+v", loaded)
	}
	if _, err := whisper.Load(filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Fatal("expected error loading missing transcript")
	}
}
