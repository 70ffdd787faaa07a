// Package whisper transcribes extracted audio through the OpenAI speech-to-text
// API (or any endpoint speaking the same protocol).
//
// Client.Transcribe requests verbose_json output with either segment or word
// timestamps and normalizes both into a Transcript of timed segments. Calls
// are retried with doubling delays; each attempt carries its own timeout.
// Transcripts can be written next to the audio and reloaded with Load.
package whisper
