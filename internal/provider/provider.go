// Package provider defines the external value contract consumed by
// the engine, plus the simulated and table-backed implementations.
package provider

import (
	"context"
	"fmt"
)

// Provider supplies named external values, batched by entity. The
// engine invokes Fetch once per distinct reference needed by the
// active plan, and requires all values before any entity evaluation
// begins. Networking, latency, and retry behavior belong to the
// implementation, not the engine.
type Provider interface {
	Fetch(ctx context.Context, ref string, entityIDs []string) (map[string]float64, error)
}

// FetchError wraps a provider failure for one reference. Every field
// that directly or transitively depends on the reference is marked
// failed for every entity; the engine does not retry.
type FetchError struct {
	Ref string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("external fetch for %q failed: %v", e.Ref, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
