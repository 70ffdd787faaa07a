// Package pipeline runs a complete video analysis: workflow detection, frame
// sampling, audio extraction and transcription, batch dispatch to the
// configured agent and aggregation of the batch responses.
//
// Every request is resolved and validated before the first file is written.
// Stages then run strictly in order and the first failure ends the run. When
// history is wired in, each run leaves a metadata record in the runs store.
package pipeline
