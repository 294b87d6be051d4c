// Package store archives compiled snapshots in SQLite.
//
// Each archived snapshot keeps:
//   - Snapshots: metadata plus the canonical JSON body, unique by fingerprint
//   - Records: one row per record with its source path, content hash and
//     canonical JSON, which Query filters with SQLite's JSON functions
//   - Edges: the derived graph edges with their provenance
//
// Writes are idempotent on the fingerprint: archiving unchanged sources
// twice leaves one row. All reads order by seq (the position in the
// snapshot or graph) and then id, so results are deterministic.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
