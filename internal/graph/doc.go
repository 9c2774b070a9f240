// Package graph builds and validates the dependency structure over a
// full equation registry: referential integrity first, then cycle
// detection via a three-color depth-first walk. Both checks are
// build-time; the engine never evaluates against an invalid graph.
package graph
