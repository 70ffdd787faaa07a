package agents

import (
	"encoding/json"
	"fmt"

	"vidinterp/internal/services"
)

// RequiredFields lists the keys every agent response must carry.
var RequiredFields = []string{
	"batch_id",
	"time_range",
	"frames_analyzed",
	"visual_analysis",
	"audio_visual_correlations",
	"summary",
}

// TimeRange is a batch window in seconds.
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Observation describes one analyzed frame.
type Observation struct {
	FrameNumber int      `json:"frame_number"`
	Timestamp   float64  `json:"timestamp"`
	Description string   `json:"description"`
	Elements    []string `json:"elements,omitempty"`
}

// UnmarshalJSON accepts frame numbers written as floats (4.0), as models
// often emit them.
func (o *Observation) UnmarshalJSON(data []byte) error {
	type plain Observation
	aux := struct {
		*plain
		FrameNumber float64 `json:"frame_number"`
	}{plain: (*plain)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	o.FrameNumber = int(aux.FrameNumber)
	return nil
}

// Correlation links something said to something shown.
type Correlation struct {
	Timestamp   float64 `json:"timestamp"`
	Audio       string  `json:"audio"`
	Visual      string  `json:"visual"`
	Correlation string  `json:"correlation"`
}

// Response is an agent's analysis of one batch.
type Response struct {
	BatchID        string        `json:"batch_id"`
	TimeRange      TimeRange     `json:"time_range"`
	FramesAnalyzed int           `json:"frames_analyzed"`
	VisualAnalysis []Observation `json:"visual_analysis"`
	Correlations   []Correlation `json:"audio_visual_correlations"`
	Summary        string        `json:"summary"`
	Note           string        `json:"_note,omitempty"`
}

// UnmarshalJSON accepts frames_analyzed written as a float.
func (r *Response) UnmarshalJSON(data []byte) error {
	type plain Response
	aux := struct {
		*plain
		FramesAnalyzed float64 `json:"frames_analyzed"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.FramesAnalyzed = int(aux.FramesAnalyzed)
	return nil
}

// DecodeResponse checks that raw carries every required field (and a
// time_range with start and end) before decoding it.
func DecodeResponse(raw []byte) (Response, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Response{}, services.Wrap(services.ErrValidation, stageName, "decode response", "response is not a JSON object", err)
	}
	for _, field := range RequiredFields {
		if _, ok := fields[field]; !ok {
			return Response{}, services.Wrap(services.ErrValidation, stageName, "decode response", "missing required field: "+field, nil)
		}
	}
	var window map[string]json.RawMessage
	if err := json.Unmarshal(fields["time_range"], &window); err != nil {
		return Response{}, services.Wrap(services.ErrValidation, stageName, "decode response", "time_range must be an object", err)
	}
	if _, ok := window["start"]; !ok {
		return Response{}, services.Wrap(services.ErrValidation, stageName, "decode response", "time_range must have 'start' and 'end'", nil)
	}
	if _, ok := window["end"]; !ok {
		return Response{}, services.Wrap(services.ErrValidation, stageName, "decode response", "time_range must have 'start' and 'end'", nil)
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Response{}, services.Wrap(services.ErrValidation, stageName, "decode response", "response fields have unexpected types", err)
	}
	if resp.VisualAnalysis == nil {
		resp.VisualAnalysis = []Observation{}
	}
	if resp.Correlations == nil {
		resp.Correlations = []Correlation{}
	}
	return resp, nil
}

// placeholderResponse is the record returned when no real agent is wired.
func placeholderResponse(batch Batch) Response {
	return Response{
		BatchID:        batch.ID,
		TimeRange:      TimeRange{Start: batch.StartTime, End: batch.EndTime},
		FramesAnalyzed: len(batch.Frames),
		VisualAnalysis: []Observation{},
		Correlations:   []Correlation{},
		Summary:        fmt.Sprintf("Analysis of %s", batch.ID),
		Note:           "placeholder agent: configure agent.mode = \"llm\" for real analysis",
	}
}
