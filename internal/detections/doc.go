// Package detections loads detector output and reviewer overrides for one
// asset from a JSON or YAML file and turns them into edit planner inputs.
//
// A file carries the asset duration, raw confidence signals for the fused
// detectors, violence spans that bypass fusion, and an optional overrides
// block:
//
//	duration: 5400
//	signals:
//	  - {detector: profanity, start: 5.0, end: 5.5, confidence: 0.95, label: f-word}
//	  - {detector: nudity, start: 10, end: 15, confidence: 0.9}
//	violence:
//	  - {start: 300, end: 304, label: gore, score: 0.8}
//	overrides:
//	  handled: [{start: 900, end: 960}]
//	  adjust: [{category: profanity, start: 5.0, end: 5.5, start_delta: -0.2}]
package detections
