// Package logging assembles structured slog loggers and formatting helpers used
// across cleancut.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so planner and renderer code tag
// log lines with run identifiers and component names. A no-op logger is
// provided for tests and for library callers that pass no logger.
package logging
