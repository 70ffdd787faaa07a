package agents

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"vidinterp/internal/services"
	"vidinterp/internal/services/whisper"
)

// Analysis is the merged result of all batch responses.
type Analysis struct {
	ExecutiveSummary    string        `json:"executive_summary"`
	VisualTimeline      []Observation `json:"visual_timeline"`
	Correlations        []Correlation `json:"correlations"`
	FullTranscription   string        `json:"full_transcription"`
	TotalFramesAnalyzed int           `json:"total_frames_analyzed"`
	NumAgents           int           `json:"num_agents"`
}

// Aggregate merges responses in batch order. Observations are concatenated;
// correlations are concatenated and then stably sorted by timestamp.
func Aggregate(responses []Response, transcript *whisper.Transcript, task string) (*Analysis, error) {
	if len(responses) == 0 {
		return nil, services.Wrap(services.ErrValidation, stageName, "aggregate", "no agent responses to aggregate", nil)
	}
	analysis := &Analysis{
		VisualTimeline: []Observation{},
		Correlations:   []Correlation{},
		NumAgents:      len(responses),
	}
	summaries := make([]string, 0, len(responses))
	for _, resp := range responses {
		analysis.VisualTimeline = append(analysis.VisualTimeline, resp.VisualAnalysis...)
		analysis.Correlations = append(analysis.Correlations, resp.Correlations...)
		analysis.TotalFramesAnalyzed += resp.FramesAnalyzed
		summaries = append(summaries, resp.Summary)
	}
	slices.SortStableFunc(analysis.Correlations, func(a, b Correlation) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})
	if transcript != nil {
		analysis.FullTranscription = transcript.Text
	}
	analysis.ExecutiveSummary = ExecutiveSummary(summaries, task)
	return analysis, nil
}

// ExecutiveSummary joins non-empty batch summaries under a task heading.
// Batches keep their dispatch index even when earlier summaries are empty.
func ExecutiveSummary(summaries []string, task string) string {
	parts := make([]string, 0, len(summaries))
	for i, summary := range summaries {
		if summary == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("**Batch %d**: %s", i, summary))
	}
	return fmt.Sprintf("# Video Analysis Summary\n\n**Task**: %s\n\n%s", task, strings.Join(parts, "\n\n"))
}
