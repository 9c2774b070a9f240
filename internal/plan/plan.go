// Package plan produces the deterministic evaluation order for a
// validated dependency graph. The full plan is computed once per run
// and reused across entities; partial plans for a requested subset are
// derived by reachable-set filtering, preserving relative order.
package plan

import (
	"fmt"

	"github.com/vk/fieldflow/internal/graph"
)

// UnknownFieldError reports a requested field with no registered
// equation.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("requested field %q is not defined", e.Field)
}

// Plan is an ordered sequence of field names in which every field's
// dependencies appear strictly earlier. It is immutable once built.
type Plan struct {
	order []string
	index map[string]int
}

// Build computes the full evaluation order via depth-first postorder.
// Fields are visited in registration order, so identical input always
// yields the identical plan. The graph must already be validated and
// acyclic.
func Build(g *graph.Graph) *Plan {
	visited := make(map[string]bool)
	var order []string

	var visit func(field string)
	visit = func(field string) {
		if visited[field] {
			return
		}
		visited[field] = true
		for _, dep := range g.FieldDeps(field) {
			visit(dep)
		}
		order = append(order, field)
	}

	for _, field := range g.Fields() {
		visit(field)
	}
	return newPlan(order)
}

// Filter derives the partial plan covering only the requested fields
// and their transitive dependencies, keeping the full plan's relative
// order. Requesting an unknown field is a build-time error.
func (p *Plan) Filter(g *graph.Graph, requested []string) (*Plan, error) {
	reachable := make(map[string]bool)
	var stack []string
	for _, field := range requested {
		if !g.HasField(field) {
			return nil, &UnknownFieldError{Field: field}
		}
		stack = append(stack, field)
	}
	for len(stack) > 0 {
		field := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reachable[field] {
			continue
		}
		reachable[field] = true
		stack = append(stack, g.FieldDeps(field)...)
	}

	order := make([]string, 0, len(reachable))
	for _, field := range p.order {
		if reachable[field] {
			order = append(order, field)
		}
	}
	return newPlan(order), nil
}

// Order returns the plan's field sequence.
func (p *Plan) Order() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Index returns a field's position in the plan.
func (p *Plan) Index(field string) (int, bool) {
	i, ok := p.index[field]
	return i, ok
}

// Len returns the number of fields in the plan.
func (p *Plan) Len() int {
	return len(p.order)
}

func newPlan(order []string) *Plan {
	index := make(map[string]int, len(order))
	for i, field := range order {
		index[field] = i
	}
	return &Plan{order: order, index: index}
}
