// Package preflight runs the environment checks the status command reports:
// work and log directory access, free scratch space, and the external media
// binaries.
package preflight
