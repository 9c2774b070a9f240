package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/fieldflow/internal/ctxlog"
	"github.com/vk/fieldflow/internal/registry"
)

// UndefinedDependencyError reports a dependency that resolves to
// neither a registered field nor a declared entity attribute.
type UndefinedDependencyError struct {
	Field   string
	Missing string
}

func (e *UndefinedDependencyError) Error() string {
	return fmt.Sprintf("equation for %q references undefined dependency %q", e.Field, e.Missing)
}

// CycleError reports a circular dependency. Fields lists every field
// implicated in a cycle, sorted for stable messages.
type CycleError struct {
	Fields []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency detected involving: %s", strings.Join(e.Fields, ", "))
}

// Graph is the validated dependency structure built from a full
// registry. It is immutable once Build returns and is shared read-only
// across entity evaluations.
type Graph struct {
	fields []string            // registration order
	deps   map[string][]string // field -> registered-field dependencies (sorted)
	attrs  map[string]struct{} // recognized entity attribute leaves
}

// Build validates referential integrity and cycle-freedom for every
// registered equation. Dependencies naming a declared entity attribute
// are leaves and contribute no edges. Build-time errors abort
// construction entirely; no partial graph is ever returned.
func Build(ctx context.Context, reg *registry.Registry, attrNames []string) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting dependency graph construction.", "field_count", reg.Len(), "attr_count", len(attrNames))

	g := &Graph{
		fields: reg.Fields(),
		deps:   make(map[string][]string, reg.Len()),
		attrs:  make(map[string]struct{}, len(attrNames)),
	}
	for _, name := range attrNames {
		g.attrs[name] = struct{}{}
	}

	// First pass: referential integrity. Every dependency must be a
	// registered field or a declared attribute.
	for _, field := range g.fields {
		eq, _ := reg.Lookup(field)
		var edges []string
		for _, dep := range eq.Dependencies {
			if reg.Has(dep) {
				edges = append(edges, dep)
				continue
			}
			if _, ok := g.attrs[dep]; ok {
				continue
			}
			return nil, &UndefinedDependencyError{Field: field, Missing: dep}
		}
		g.deps[field] = edges
	}
	logger.Debug("Build: Referential integrity check passed.")

	if err := g.detectCycles(); err != nil {
		return nil, err
	}
	logger.Debug("Build: Cycle detection passed.")

	return g, nil
}

// detectCycles runs a three-color depth-first walk over every field.
// Detection runs to completion rather than stopping at the first back
// edge, so the error names every implicated field.
func (g *Graph) detectCycles() error {
	const (
		white = iota // unvisited
		gray         // in progress
		black        // done
	)
	color := make(map[string]int, len(g.fields))
	inCycle := make(map[string]struct{})
	var stack []string

	var visit func(field string)
	visit = func(field string) {
		color[field] = gray
		stack = append(stack, field)
		for _, dep := range g.deps[field] {
			switch color[dep] {
			case gray:
				// Back edge: everything on the stack from dep onward
				// participates in the cycle.
				for i := len(stack) - 1; i >= 0; i-- {
					inCycle[stack[i]] = struct{}{}
					if stack[i] == dep {
						break
					}
				}
			case white:
				visit(dep)
			}
		}
		stack = stack[:len(stack)-1]
		color[field] = black
	}

	for _, field := range g.fields {
		if color[field] == white {
			visit(field)
		}
	}

	if len(inCycle) == 0 {
		return nil
	}
	fields := make([]string, 0, len(inCycle))
	for f := range inCycle {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return &CycleError{Fields: fields}
}

// Fields returns the target fields in registration order.
func (g *Graph) Fields() []string {
	out := make([]string, len(g.fields))
	copy(out, g.fields)
	return out
}

// FieldDeps returns the registered-field dependencies of a field.
// Attribute leaves are not included.
func (g *Graph) FieldDeps(field string) []string {
	return g.deps[field]
}

// HasField reports whether a field is part of the graph.
func (g *Graph) HasField(field string) bool {
	_, ok := g.deps[field]
	return ok
}
