// Package registry stores parsed equations keyed by their target
// field, preserving registration order for deterministic downstream
// traversal.
package registry

import (
	"context"
	"fmt"

	"github.com/vk/fieldflow/internal/ctxlog"
	"github.com/vk/fieldflow/internal/equation"
)

// DuplicatePolicy controls what happens when the same target field is
// registered more than once.
type DuplicatePolicy int

const (
	// OverwriteDuplicates keeps the latest definition (last write
	// wins) and logs a warning. This is the default.
	OverwriteDuplicates DuplicatePolicy = iota
	// RejectDuplicates fails the registration instead.
	RejectDuplicates
)

// DuplicateFieldError reports a re-registration under RejectDuplicates.
type DuplicateFieldError struct {
	Field string
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("equation for field %q is already registered", e.Field)
}

// Registry is an ordered collection of equations. Reads by field name
// are O(1). The registry is not safe for concurrent mutation; all
// registration happens during the single-threaded build phase.
type Registry struct {
	policy  DuplicatePolicy
	fields  []string
	byField map[string]*equation.Equation
}

// Option configures a Registry.
type Option func(*Registry)

// WithDuplicatePolicy sets the duplicate-registration policy.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(r *Registry) { r.policy = p }
}

// New returns an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{byField: make(map[string]*equation.Equation)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register parses one equation definition and stores it under its
// target field. A duplicate field keeps its original position in the
// registration order when overwritten.
func (r *Registry) Register(ctx context.Context, text string) (*equation.Equation, error) {
	eq, err := equation.Parse(text)
	if err != nil {
		return nil, err
	}

	if _, exists := r.byField[eq.Field]; exists {
		if r.policy == RejectDuplicates {
			return nil, &DuplicateFieldError{Field: eq.Field}
		}
		ctxlog.FromContext(ctx).Warn("Duplicate equation definition found, it will be overwritten.", "field", eq.Field)
	} else {
		r.fields = append(r.fields, eq.Field)
	}
	r.byField[eq.Field] = eq
	return eq, nil
}

// RegisterAll registers every definition in order, stopping at the
// first failure.
func (r *Registry) RegisterAll(ctx context.Context, texts []string) error {
	for _, text := range texts {
		if _, err := r.Register(ctx, text); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the equation for a target field.
func (r *Registry) Lookup(field string) (*equation.Equation, bool) {
	eq, ok := r.byField[field]
	return eq, ok
}

// Has reports whether a target field is registered.
func (r *Registry) Has(field string) bool {
	_, ok := r.byField[field]
	return ok
}

// Fields returns the target fields in registration order.
func (r *Registry) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// Len returns the number of registered equations.
func (r *Registry) Len() int {
	return len(r.fields)
}
