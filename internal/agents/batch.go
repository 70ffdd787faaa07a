package agents

import (
	"fmt"

	"vidinterp/internal/frames"
	"vidinterp/internal/services"
	"vidinterp/internal/services/whisper"
)

// Batch is a contiguous run of frames handed to one agent invocation.
type Batch struct {
	ID string `json:"batch_id"`
	// Index is the position of the batch in dispatch order.
	Index      int               `json:"index"`
	Frames     []string          `json:"frames"`
	StartTime  float64           `json:"start_time"`
	EndTime    float64           `json:"end_time"`
	StartFrame int               `json:"start_frame"`
	EndFrame   int               `json:"end_frame"`
	Segments   []whisper.Segment `json:"audio_segments"`
}

// BatchID names the batch at index.
func BatchID(index int) string {
	return fmt.Sprintf("batch_%d", index)
}

// Partition splits frames into min(workers, len(frames)) contiguous slices.
// The first len(frames) mod k slices carry one extra frame. Order is preserved
// and no slice is empty.
func Partition(framePaths []string, workers int) ([][]string, error) {
	if len(framePaths) == 0 {
		return nil, services.Wrap(services.ErrValidation, stageName, "partition", "frames cannot be empty", nil)
	}
	if workers < 1 {
		return nil, services.Wrap(services.ErrValidation, stageName, "partition", fmt.Sprintf("workers must be >= 1, got %d", workers), nil)
	}
	k := min(workers, len(framePaths))
	base := len(framePaths) / k
	remainder := len(framePaths) % k

	batches := make([][]string, 0, k)
	start := 0
	for i := 0; i < k; i++ {
		size := base
		if i < remainder {
			size++
		}
		batches = append(batches, framePaths[start:start+size])
		start += size
	}
	return batches, nil
}

// RelevantSegments returns the transcript segments overlapping [start, end),
// in transcript order. A nil transcript has no segments, whatever the range.
func RelevantSegments(transcript *whisper.Transcript, start, end float64) ([]whisper.Segment, error) {
	relevant := []whisper.Segment{}
	if transcript == nil {
		return relevant, nil
	}
	if start < 0 || end < start {
		return nil, services.Wrap(services.ErrValidation, stageName, "select segments",
			fmt.Sprintf("invalid time range [%g, %g)", start, end), nil)
	}
	for _, seg := range transcript.Segments {
		if seg.Start < end && seg.End > start {
			relevant = append(relevant, seg)
		}
	}
	return relevant, nil
}

// BuildBatches partitions frames and attaches timing and transcript context
// to every batch. Times are derived from frame offsets at the sampling fps.
func BuildBatches(framePaths []string, transcript *whisper.Transcript, workers int, fps float64) ([]Batch, error) {
	if fps <= 0 {
		return nil, services.Wrap(services.ErrValidation, stageName, "build batches", fmt.Sprintf("fps must be > 0, got %g", fps), nil)
	}
	parts, err := Partition(framePaths, workers)
	if err != nil {
		return nil, err
	}
	batches := make([]Batch, 0, len(parts))
	offset := 0
	for i, slice := range parts {
		startFrame := offset
		endFrame := offset + len(slice) - 1
		offset += len(slice)

		batch := Batch{
			ID:         BatchID(i),
			Index:      i,
			Frames:     slice,
			StartFrame: startFrame,
			EndFrame:   endFrame,
			StartTime:  frames.TimestampOf(startFrame, fps),
			EndTime:    frames.TimestampOf(endFrame+1, fps),
		}
		segments, err := RelevantSegments(transcript, batch.StartTime, batch.EndTime)
		if err != nil {
			return nil, err
		}
		batch.Segments = segments
		batches = append(batches, batch)
	}
	return batches, nil
}
