// Package confidence fuses raw detector signals into scored detections.
//
// Signals that overlap in time (within a tolerance of the cluster's running
// end) are grouped; each group is reduced to one confidence per detector type
// and scored by ShouldCensor: weighted confidences above per-detector floors
// are summed, agreement between two or more detector types earns a boost and
// a lower threshold, and strict mode refuses single-detector verdicts.
// Categorize turns censored detections into the per-category interval lists
// the edit planner consumes.
package confidence
