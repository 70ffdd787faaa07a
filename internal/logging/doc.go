// Package logging assembles the slog loggers used across vidinterp.
//
// It owns the console, terminal and JSON handlers, fans records out to the
// optional JSON log file, and exposes context helpers so pipeline stages tag
// every line with the run id, stage and batch id they are working on. A no-op
// logger is provided for tests and wiring code that cannot fail.
package logging
