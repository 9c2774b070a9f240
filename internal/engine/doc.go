// Package engine compiles an equation registry into an immutable
// graph-and-plan pair and evaluates it over a batch of entities.
//
// A run has two phases separated by a single barrier: first every
// distinct external reference in the active plan is fetched for the
// whole batch, then entities are evaluated in parallel workers. Within
// one entity, fields run strictly sequentially in plan order; a failed
// field is recorded as failed for that entity, so everything downstream
// of it fails the same dependency check instead of reading a stale or
// fabricated value.
package engine
