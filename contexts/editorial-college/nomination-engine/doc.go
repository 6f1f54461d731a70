// Package nominationengine implements the Nomination Lifecycle and the
// Voting Round Engine inside the editorial-college context.
//
// The module tracks a candidate from identification through nomination,
// bounded-time voting rounds and the fixed decision, enforcing the
// re-nomination cool-down, insert-if-absent ballot uniqueness, senior veto
// and the super-majority-by-margin outcome rule. Concurrency-sensitive
// writes go through compare-and-swap repository operations so that round
// opening and decision fixation each admit exactly one winner.
package nominationengine
