// Package render executes an EditPlan against a source asset with ffmpeg.
//
// Each unit of work (the whole asset when nothing is cut, otherwise every
// keep segment) gets the cheapest Strategy that satisfies the request:
// Copy duplicates the bytes, AudioOnly copies video and re-encodes audio
// through a silencing filter, and FullReencode re-encodes both streams at the
// requested quality preset. Segments are extracted in parallel into a scoped
// temp directory, stitched together in order, and published to the
// destination only after everything succeeded.
//
// The Transcoder interface is the only surface that touches external tools.
// FFmpeg implements it; tests substitute fakes or stub binaries.
package render
