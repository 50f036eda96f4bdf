// Package store provides the SQLite-backed connection the persistence
// engine issues statements through.
//
// Conn is the contract the engine consumes: run a query and get rows back,
// execute a statement and get the affected row count and generated id, and
// report the read-lock mode the caller requested. *Store implements it on
// database/sql with either of two drivers:
//   - "sqlite3": github.com/mattn/go-sqlite3 (cgo, default)
//   - "sqlite":  modernc.org/sqlite (pure Go)
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Schema creation is the caller's business; the store never migrates.
package store
