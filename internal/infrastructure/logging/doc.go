// Package logging provides structured logging for HomeHub Core.
//
// It wraps log/slog with level parsing, JSON/text output selection, and
// default service/version attributes. Components receive child loggers via
// With("component", name) so every record identifies its origin.
package logging
