// Package interval implements the time-span algebra the planner is built on.
//
// An Interval is an immutable [Start, End] span in seconds carrying typed
// Reasons. Merge coalesces spans closer than a gap, KeepSegments computes the
// complement of a cut list within an asset, and Adjust/Exclude apply reviewer
// overrides by returning new values. No function mutates its inputs.
package interval
