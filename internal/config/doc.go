// Package config loads, normalizes, and validates cleancut configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes the planner,
// confidence, and render knobs the CLI needs so a single load produces a
// fully sanitized value.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical enum spellings, and clear validation errors.
package config
