// Package main hosts the cleancut CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration once, builds a slog logger from
// it, and hands the heavy lifting to the internal packages: detections files
// are fused by the confidence merger, turned into an edit plan, and rendered
// through ffmpeg. Render runs are recorded in the SQLite history so the
// history command can report on them later.
//
// Keep this package thin. New behaviour belongs in internal packages first
// and is surfaced here through flags or subcommands.
package main
