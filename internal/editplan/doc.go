// Package editplan turns per-category interval lists into an EditPlan.
//
// Visual categories (nudity, sexual content, violence) become cuts: each list
// is merged with the visual gap, the lists are unioned and re-merged so
// adjacent scenes of different categories coalesce, and cuts shorter than
// the micro-cut minimum are dropped. Keep segments are the complement of the
// cuts. Profanity becomes audio edits clipped to the first keep segment it
// overlaps; profanity that falls entirely inside a cut disappears with the
// video.
//
// An EditPlan is built once and never mutated. Renderers derive their own
// segment-local edit lists from it.
package editplan
