// Package eligibilityservice implements the Eligibility Filter and Pool
// Assignment inside the editorial-college context.
//
// The module owns the pure computation of which Fellows may referee a
// manuscript or vote on a nomination (activity window, tier, specialty
// overlap with the college-wide fallback, conflict-of-interest exclusion),
// the manuscript candidate pools built on top of it, and the Fellowship
// records those pools draw from. It keeps business rules in
// application/domain layers and isolates infrastructure concerns behind
// ports and adapters.
package eligibilityservice
