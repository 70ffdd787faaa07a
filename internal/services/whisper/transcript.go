package whisper

import (
	"encoding/json"
	"fmt"
	"os"

	"vidinterp/internal/fileutil"
)

// Segment is a timed span of transcribed speech, in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the normalized transcription result.
type Transcript struct {
	Text     string    `json:"text"`
	Language string    `json:"language,omitempty"`
	Duration float64   `json:"duration,omitempty"`
	Segments []Segment `json:"segments"`
}

// Write atomically stores the transcript as indented JSON at path.
func (t *Transcript) Write(path string) error {
	if t == nil {
		return fmt.Errorf("write transcript: nil transcript")
	}
	if err := fileutil.WriteJSON(path, t); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// Load reads a transcript previously stored with Write.
func Load(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var transcript Transcript
	if err := json.Unmarshal(data, &transcript); err != nil {
		return nil, fmt.Errorf("parse transcript %s: %w", path, err)
	}
	if transcript.Segments == nil {
		transcript.Segments = []Segment{}
	}
	return &transcript, nil
}
