// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe against a media file; the Result helpers answer the
// questions the pipeline asks before sampling: does the file carry video and
// audio, what is its frame rate and how long is it.
package ffprobe
