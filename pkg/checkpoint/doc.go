// Package checkpoint persists query-run progress so long retrievals survive
// interruption.
//
// A Checkpoint snapshots a query.State: the collected records, the next
// unfetched page, and the run status. The Manager writes snapshots atomically
// under the platform data directory (XDG_DATA_HOME on Linux), one file per
// query description. Wiring the engine's OnPage hook to Manager.Save gives a
// durable snapshot after every fetched page; Restore rebuilds the state for
// the engine to resume.
package checkpoint
