// Package database provides the SQLite connection used by the frame archive.
//
// It wraps database/sql with WAL-mode configuration, busy-timeout handling,
// a single-writer connection pool, and health checks. Schema creation lives
// with the archive package that owns the tables.
package database
