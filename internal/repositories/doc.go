// Package repositories implements SQLite persistence for run history.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
//
// Key Implementations:
//   - [SyncRunRepository] : Reconciliation run history with recency-ordered listing
//
// Sequence numbers provide stable, human-readable ordering (e.g., run #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
