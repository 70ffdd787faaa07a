package agents_test

import (
	"errors"
	"strings"
	"testing"

	"vidinterp/internal/agents"
	"vidinterp/internal/services"
)

func TestDecodeResponse(t *testing.T) {
	raw := []byte(`{
		"batch_id": "batch_0",
		"time_range": {"start": 0.0, "end": 3.0},
		"frames_analyzed": 3,
		"visual_analysis": [{"frame_number": 0, "timestamp": 0.0, "description": "Frame 0"}],
		"audio_visual_correlations": [{"timestamp": 1.0, "audio": "Audio 1", "visual": "Visual 1", "correlation": "Match 1"}],
		"summary": "First batch summary",
		"confidence": "extra fields are ignored"
	}`)
	resp, err := agents.DecodeResponse(raw)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if resp.BatchID != "batch_0" || resp.TimeRange.End != 3 || resp.FramesAnalyzed != 3 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(resp.VisualAnalysis) != 1 || resp.Correlations[0].Correlation != "Match 1" {
		t.Fatalf("unexpected findings %+v", resp)
	}
}

func TestDecodeResponseAcceptsFloatCounts(t *testing.T) {
	raw := []byte(`{
		"batch_id": "batch_1",
		"time_range": {"start": 4, "end": 8},
		"frames_analyzed": 4.0,
		"visual_analysis": [{"frame_number": 5.0, "timestamp": 5.0, "description": "Frame 5"}],
		"audio_visual_correlations": [],
		"summary": "Second batch"
	}`)
	resp, err := agents.DecodeResponse(raw)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if resp.FramesAnalyzed != 4 || resp.VisualAnalysis[0].FrameNumber != 5 || resp.VisualAnalysis[0].Description != "Frame 5" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.BatchID != "batch_1" || resp.TimeRange.End != 8 || resp.Summary != "Second batch" {
		t.Fatalf("embedded fields lost: %+v", resp)
	}
}

func TestDecodeResponseContract(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"not json", `nope`, "not a JSON object"},
		{"missing fields", `{"batch_id": "batch_0"}`, "missing required field: time_range"},
		{"missing summary", `{"batch_id":"b","time_range":{"start":0,"end":1},"frames_analyzed":1,"visual_analysis":[],"audio_visual_correlations":[]}`, "missing required field: summary"},
		{"time range without end", `{"batch_id":"b","time_range":{"start":0},"frames_analyzed":1,"visual_analysis":[],"audio_visual_correlations":[],"summary":""}`, "'start' and 'end'"},
		{"time range not object", `{"batch_id":"b","time_range":5,"frames_analyzed":1,"visual_analysis":[],"audio_visual_correlations":[],"summary":""}`, "time_range must be an object"},
		{"wrong types", `{"batch_id":"b","time_range":{"start":0,"end":1},"frames_analyzed":"one","visual_analysis":[],"audio_visual_correlations":[],"summary":""}`, "unexpected types"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := agents.DecodeResponse([]byte(tt.raw))
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}
