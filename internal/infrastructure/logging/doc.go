// Package logging provides structured logging built on log/slog.
//
// It wraps slog with configuration-driven format and level selection and
// stamps every record with the service name and version.
package logging
