// Package store provides SQLite-backed persistence for observed payment
// channels and reconciles stored rows against fresh snapshots.
//
// The store keeps two tables:
//   - channels: one row per funding transaction, never deleted
//   - sync_runs: one audit row per successful reconciliation pass
//
// # Reconciliation
//
// SyncChannels runs inside a single transaction. Each snapshot channel is
// upserted, then every stored channel absent from the snapshot is swept to
// Closed. Either every row reflects the new pass or none does.
//
// closed_at is write-once. The first pass that sees a channel in a closing
// state (PendingClose or Closed), or that omits it, stamps closed_at with
// the pass time. Later passes may change state and balances freely but
// never touch closed_at again.
//
// The absent-row predicate binds the snapshot keys as one JSON array
// parameter expanded by json_each, so funding transaction ids never become
// part of the SQL text.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - One open connection: the Store owns its connection exclusively
//
// Schema changes live in migrations/ and are applied by golang-migrate
// when the store is opened.
package store
