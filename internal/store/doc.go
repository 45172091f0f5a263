// Package store provides SQLite-backed generation history.
//
// Each successful generate run appends one row to the runs table with the
// content hashes of the model records and of the emitted artifacts, so two
// runs can be compared without keeping the files.
//
// Ordering uses the seq column (assigned on insert), never wall time:
// queries order by seq ASC, id ASC COLLATE BINARY.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - user_version: incremental migrations
package store
