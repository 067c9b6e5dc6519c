// Package ffprobe provides a typed wrapper around ffprobe output.
//
// Inspect returns stream and container metadata; Keyframes lists the
// presentation timestamps of the keyframes in the first video stream. Both
// execute the configured binary and surface its stderr verbatim on failure.
package ffprobe
