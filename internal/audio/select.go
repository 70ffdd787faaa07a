package audio

import (
	"strings"

	"vidinterp/internal/language"
	"vidinterp/internal/media/ffprobe"
)

// Track identifies the audio stream chosen for transcription.
type Track struct {
	Stream   ffprobe.Stream
	Index    int
	Language string
}

// SelectTrack returns the audio stream to transcribe. Streams tagged with the
// requested language win, then the default-flagged stream, then the first
// audio stream. ok is false when the video has no audio.
func SelectTrack(streams []ffprobe.Stream, lang string) (Track, bool) {
	want := language.ToISO2(lang)
	best := -1
	bestScore := 0.0
	order := 0
	for i, stream := range streams {
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		score := scoreTrack(stream, want, order)
		if best < 0 || score > bestScore {
			best = i
			bestScore = score
		}
		order++
	}
	if best < 0 {
		return Track{Index: -1}, false
	}
	stream := streams[best]
	return Track{
		Stream:   stream,
		Index:    stream.Index,
		Language: language.ToISO2(streamLanguage(stream.Tags)),
	}, true
}

func scoreTrack(stream ffprobe.Stream, want string, order int) float64 {
	score := 0.0
	if want != "" && language.ToISO2(streamLanguage(stream.Tags)) == want {
		score += 1000
	}
	if stream.Disposition["default"] == 1 {
		score += 100
	}
	if isCommentary(stream.Tags) {
		score -= 500
	}
	if stream.Channels > 0 {
		score += float64(min(stream.Channels, 8))
	}
	score -= float64(order) * 0.1
	return score
}

func streamLanguage(tags map[string]string) string {
	for _, key := range []string{"language", "LANGUAGE", "Language", "language_ietf", "LANG"} {
		if value, ok := tags[key]; ok {
			return strings.ToLower(strings.TrimSpace(value))
		}
	}
	return ""
}

func isCommentary(tags map[string]string) bool {
	for _, key := range []string{"title", "TITLE", "handler_name", "HANDLER_NAME"} {
		if strings.Contains(strings.ToLower(tags[key]), "commentary") {
			return true
		}
	}
	return false
}
