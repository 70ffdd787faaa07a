// Package preflight provides readiness checks for the external tools,
// services and filesystem paths the analysis pipeline depends on.
//
// The CLI "vidinterp doctor" command runs RunAll and renders the results.
// Checks for optional features are gated by their config toggles: the
// transcription API is only contacted when transcription is enabled and the
// LLM endpoint only when agent.mode is "llm".
package preflight
