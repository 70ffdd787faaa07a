package agents

import (
	"embed"
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/template"

	"vidinterp/internal/services"
	"vidinterp/internal/services/whisper"
	"vidinterp/internal/validate"
	"vidinterp/internal/workflows"
)

//go:embed templates/*.md.tmpl
var templateFS embed.FS

// NoAudioText replaces the transcript block when no segment overlaps a batch.
const NoAudioText = "No audio in this time range"

// SystemPrompt frames every batch prompt for chat-based agents.
const SystemPrompt = `You are a meticulous video analyst. You receive a batch of frames sampled from a video together with the transcript of the matching audio. Describe only what the frames and transcript support, keep timestamps in seconds, and respond ONLY with the JSON object requested in the prompt.`

// promptData feeds the base template.
type promptData struct {
	Workflow     string
	Focus        string
	BatchID      string
	StartFrame   int
	EndFrame     int
	FrameCount   int
	StartTime    float64
	EndTime      float64
	FPS          float64
	Frames       []string
	Transcript   string
	Task         string
	Instructions string
}

// Prompter renders batch prompts from the embedded templates.
type Prompter struct {
	base  *template.Template
	focus map[string]string
}

// NewPrompter parses the embedded base template and loads the per-focus
// instruction blocks.
func NewPrompter() (*Prompter, error) {
	base, err := template.New("base.md.tmpl").
		Funcs(template.FuncMap{"seconds": formatSeconds}).
		ParseFS(templateFS, "templates/base.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	focus := make(map[string]string, len(validate.FocusValues()))
	for _, name := range validate.FocusValues() {
		data, err := templateFS.ReadFile("templates/focus_" + name + ".md.tmpl")
		if err != nil {
			return nil, fmt.Errorf("load %s instructions: %w", name, err)
		}
		focus[name] = strings.TrimSpace(string(data))
	}
	return &Prompter{base: base, focus: focus}, nil
}

// Instructions returns the focus-specific instruction block, or "" for an
// unknown focus.
func (p *Prompter) Instructions(focus string) string {
	return p.focus[focus]
}

// Generate renders the prompt for one batch.
func (p *Prompter) Generate(batch Batch, settings workflows.Settings, task string) (string, error) {
	if len(batch.Frames) == 0 {
		return "", services.Wrap(services.ErrValidation, stageName, "generate prompt", batch.ID+": batch has no frames", nil)
	}
	if err := validate.TaskDescription(task); err != nil {
		return "", err
	}
	workflow := settings.Workflow
	if workflow == "" {
		workflow = workflows.FallbackSlug
	}
	data := promptData{
		Workflow:     workflow,
		Focus:        settings.Focus,
		BatchID:      batch.ID,
		StartFrame:   batch.StartFrame,
		EndFrame:     batch.EndFrame,
		FrameCount:   len(batch.Frames),
		StartTime:    batch.StartTime,
		EndTime:      batch.EndTime,
		FPS:          settings.FPS,
		Frames:       batch.Frames,
		Transcript:   FormatSegments(batch.Segments),
		Task:         strings.TrimSpace(task),
		Instructions: p.Instructions(settings.Focus),
	}
	var out strings.Builder
	if err := p.base.Execute(&out, data); err != nil {
		return "", services.Wrap(services.ErrConfiguration, stageName, "generate prompt", batch.ID, err)
	}
	return out.String(), nil
}

// FormatSegments renders transcript segments as "**S.Ss - E.Es**: text"
// paragraphs, or NoAudioText when there are none.
func FormatSegments(segments []whisper.Segment) string {
	if len(segments) == 0 {
		return NoAudioText
	}
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		lines = append(lines, fmt.Sprintf("**%.1fs - %.1fs**: %s", seg.Start, seg.End, strings.TrimSpace(seg.Text)))
	}
	return strings.Join(lines, "\n\n")
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
