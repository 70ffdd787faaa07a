// Package main hosts the vidinterp CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once per invocation, builds
// the logger from it and hands off to the internal packages: analyze runs the
// pipeline, workflows and languages inspect what detection and transcription
// support, history reads the run database and doctor runs preflight checks.
package main
