// Package runs persists a ledger of pipeline invocations in SQLite.
//
// Each call to the analysis pipeline opens a record when validation has passed
// and closes it with the terminal status, the number of frames sampled, and the
// number of agent batches dispatched. Only metadata is stored: transcripts and
// aggregated analysis results are recomputed on every run and never written to
// the database.
//
// The schema is embedded and version-checked on open. A version mismatch is
// reported rather than migrated; clearing the history file resolves it.
package runs
