// Package keyframe aligns timestamps to the keyframes of a video stream.
//
// Stream-copied segments only splice cleanly when they start on a keyframe.
// The helpers here pick an aligned boundary near an arbitrary timestamp and
// find the widest keyframe-bounded range inside a span. Probe reads keyframe
// timestamps from a media file through ffprobe.
package keyframe
