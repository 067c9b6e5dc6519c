// Package services defines shared utilities consumed by the planner, the
// renderer and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers and component names for
//     logging and history correlation.
//   - Structured error markers plus the Wrap helper. The history package
//     maps the markers onto run statuses (invalid, failed, canceled).
//
// Wrap every error that crosses a package boundary with one of the markers so
// the CLI can classify it without string matching.
package services
