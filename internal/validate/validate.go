package validate

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"vidinterp/internal/language"
	"vidinterp/internal/services"
)

const (
	MinTaskLength = 3
	MaxTaskLength = 1000
	MinFPS        = 0.1
	MaxFPS        = 10.0
	MinAgents     = 1
	MaxAgents     = 20
)

// Focus values accepted in workflow settings.
const (
	FocusShapes     = "shapes"
	FocusUIElements = "ui_elements"
	FocusGeneric    = "generic"
	FocusWorkflow   = "workflow"
	FocusCode       = "code"
)

var (
	videoExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".webm", ".flv"}
	focusValues     = []string{FocusShapes, FocusUIElements, FocusGeneric, FocusWorkflow, FocusCode}
)

// Error describes a rejected input.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Unwrap lets errors.Is match services.ErrValidation.
func (e *Error) Unwrap() error {
	return services.ErrValidation
}

func fail(field, format string, args ...any) error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// VideoExtensions returns the accepted video file suffixes.
func VideoExtensions() []string {
	return slices.Clone(videoExtensions)
}

// FocusValues returns the accepted workflow focus values.
func FocusValues() []string {
	return slices.Clone(focusValues)
}

// VideoPath ensures path names a non-empty regular file with a video extension.
func VideoPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fail("video", "path is required")
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fail("video", "file not found: %s", path)
		}
		return fail("video", "stat %s: %v", path, err)
	}
	if !info.Mode().IsRegular() {
		return fail("video", "path is not a file: %s", path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(videoExtensions, ext) {
		return fail("video", "invalid video file extension %q (supported: %s)", filepath.Ext(path), strings.Join(videoExtensions, ", "))
	}
	if info.Size() == 0 {
		return fail("video", "file is empty: %s", path)
	}
	return nil
}

// TaskDescription ensures the task has at least MinTaskLength non-blank
// characters and at most MaxTaskLength characters overall.
func TaskDescription(task string) error {
	trimmed := strings.TrimSpace(task)
	if trimmed == "" {
		return fail("task", "task description cannot be empty")
	}
	if utf8.RuneCountInString(trimmed) < MinTaskLength {
		return fail("task", "task description too short (minimum %d characters)", MinTaskLength)
	}
	if utf8.RuneCountInString(task) > MaxTaskLength {
		return fail("task", "task description too long (maximum %d characters)", MaxTaskLength)
	}
	return nil
}

// FPS ensures a sampling rate lies within [MinFPS, MaxFPS].
func FPS(fps float64) error {
	if math.IsNaN(fps) || fps <= 0 {
		return fail("fps", "must be positive, got %g", fps)
	}
	if fps < MinFPS || fps > MaxFPS {
		return fail("fps", "must be between %g and %g, got %g", MinFPS, MaxFPS, fps)
	}
	return nil
}

// Agents ensures a worker count lies within [MinAgents, MaxAgents].
func Agents(agents int) error {
	if agents < MinAgents || agents > MaxAgents {
		return fail("agents", "must be between %d and %d, got %d", MinAgents, MaxAgents, agents)
	}
	return nil
}

// Focus ensures the focus is one of FocusValues.
func Focus(focus string) error {
	if !slices.Contains(focusValues, focus) {
		return fail("focus", "invalid focus value %q (allowed: %s)", focus, strings.Join(focusValues, ", "))
	}
	return nil
}

// Language ensures code is a lowercase ISO 639-1 code among the supported
// transcription languages.
func Language(code string) error {
	if strings.TrimSpace(code) == "" {
		return fail("language", "language code cannot be empty")
	}
	if n := utf8.RuneCountInString(code); n != 2 {
		return fail("language", "language code must be 2 characters (ISO 639-1), got %d", n)
	}
	for _, r := range code {
		if !unicode.IsLetter(r) {
			return fail("language", "language code must be alphabetic, got %q", code)
		}
		if !unicode.IsLower(r) {
			return fail("language", "language code must be lowercase, got %q", code)
		}
	}
	if !language.IsSupported(code) || !language.IsISO639(code) {
		supported := language.Codes()
		slices.Sort(supported)
		return fail("language", "unsupported language %q (supported: %s)", code, strings.Join(supported, ", "))
	}
	return nil
}
