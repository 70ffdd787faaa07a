// Package language holds the transcription languages accepted by the
// analysis pipeline and converts between ISO 639-1 codes, ISO 639-2 codes,
// English display names and native names.
package language
