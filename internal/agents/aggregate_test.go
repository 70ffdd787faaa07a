package agents_test

import (
	"errors"
	"testing"

	"vidinterp/internal/agents"
	"vidinterp/internal/services"
	"vidinterp/internal/services/whisper"
)

func sampleResponses() []agents.Response {
	return []agents.Response{
		{
			BatchID:        "batch_0",
			TimeRange:      agents.TimeRange{Start: 0, End: 3},
			FramesAnalyzed: 3,
			VisualAnalysis: []agents.Observation{{FrameNumber: 0, Timestamp: 0, Description: "Frame 0"}},
			Correlations: []agents.Correlation{
				{Timestamp: 2.0, Audio: "late", Visual: "v", Correlation: "first batch, later time"},
				{Timestamp: 1.0, Audio: "Audio 1", Visual: "Visual 1", Correlation: "Match 1"},
			},
			Summary: "First batch summary",
		},
		{
			BatchID:        "batch_1",
			TimeRange:      agents.TimeRange{Start: 3, End: 6},
			FramesAnalyzed: 3,
			VisualAnalysis: []agents.Observation{{FrameNumber: 3, Timestamp: 3, Description: "Frame 3"}},
			Correlations:   []agents.Correlation{{Timestamp: 2.0, Correlation: "second batch, same time"}},
			Summary:        "",
		},
		{
			BatchID:        "batch_2",
			FramesAnalyzed: 2,
			Summary:        "Third batch summary",
		},
	}
}

func TestAggregate(t *testing.T) {
	analysis, err := agents.Aggregate(sampleResponses(), &whisper.Transcript{Text: "Full transcription"}, "Test task")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if analysis.TotalFramesAnalyzed != 8 || analysis.NumAgents != 3 {
		t.Fatalf("unexpected totals %+v", analysis)
	}
	if len(analysis.VisualTimeline) != 2 || analysis.VisualTimeline[1].Description != "Frame 3" {
		t.Fatalf("unexpected timeline %+v", analysis.VisualTimeline)
	}
	order := []string{}
	for _, c := range analysis.Correlations {
		order = append(order, c.Correlation)
	}
	want := []string{"Match 1", "first batch, later time", "second batch, same time"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("correlations not stably sorted: %v", order)
		}
	}
	if analysis.FullTranscription != "Full transcription" {
		t.Fatalf("unexpected transcription %q", analysis.FullTranscription)
	}
	wantSummary := "# Video Analysis Summary\n\n**Task**: Test task\n\n**Batch 0**: First batch summary\n\n**Batch 2**: Third batch summary"
	if analysis.ExecutiveSummary != wantSummary {
		t.Fatalf("unexpected summary:\n%q\nwant\n%q", analysis.ExecutiveSummary, wantSummary)
	}
}

func TestAggregateWithoutTranscript(t *testing.T) {
	analysis, err := agents.Aggregate(sampleResponses()[:1], nil, "Test task")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if analysis.FullTranscription != "" {
		t.Fatalf("expected empty transcription, got %q", analysis.FullTranscription)
	}
}

func TestAggregateRequiresResponses(t *testing.T) {
	if _, err := agents.Aggregate(nil, nil, "Test task"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
