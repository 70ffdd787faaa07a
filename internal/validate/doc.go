// Package validate checks user-supplied pipeline inputs before any work
// starts: the video file, the task description, workflow settings, the
// sampling rate and the transcription language.
//
// Every failure is a *Error naming the offending field. Errors unwrap to
// services.ErrValidation so callers can classify them with errors.Is.
package validate
