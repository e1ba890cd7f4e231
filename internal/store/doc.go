// Package store provides SQLite-backed storage for bigflow layouts and the
// evaluation log.
//
// # Tables
//
//   - layouts: one row per distinct snapshot, keyed by its content hash
//   - layout_nodes / layout_edges: the snapshot in queryable form
//   - evaluations: append-only log of evaluation results per layout
//
// # Patterns
//
// Content addressing:
//   - A layout's id is ir.LayoutHash of its snapshot
//   - Saving the same graph twice is a no-op (ON CONFLICT DO NOTHING)
//   - LoadLayout re-hashes what it reads and rejects mismatches
//
// Logical time:
//   - Evaluations are ordered by seq (logical clock), never timestamps
//   - Queries use ORDER BY seq ASC, id ASC COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait up to 5s on lock contention
//   - foreign_keys=ON: Evaluations must reference stored layouts
//   - One open connection: SQLite allows a single writer
package store
