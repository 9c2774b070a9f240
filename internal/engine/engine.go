package engine

import (
	"context"
	"fmt"

	"github.com/vk/fieldflow/internal/ctxlog"
	"github.com/vk/fieldflow/internal/graph"
	"github.com/vk/fieldflow/internal/plan"
	"github.com/vk/fieldflow/internal/registry"
)

// DefaultWorkers bounds the parallel entity evaluations when the
// caller does not say otherwise.
const DefaultWorkers = 10

// EvalError reports a runtime evaluation failure for one field of one
// entity. It is recorded as that field's failure marker and never
// aborts the batch.
type EvalError struct {
	Field    string
	EntityID string
	Err      error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluating %q for entity %q: %v", e.Field, e.EntityID, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// Engine holds the compiled artifacts of one equation set: the
// registry, the validated dependency graph, and the full evaluation
// plan. All three are immutable after Compile and shared read-only
// across entities.
type Engine struct {
	reg   *registry.Registry
	graph *graph.Graph
	plan  *plan.Plan
}

// Compile validates the registry against the declared entity
// attributes and fixes the evaluation order. Any build-time error
// (undefined dependency, circular dependency) aborts compilation
// before a single entity is processed.
func Compile(ctx context.Context, reg *registry.Registry, attrNames []string) (*Engine, error) {
	logger := ctxlog.FromContext(ctx)

	g, err := graph.Build(ctx, reg, attrNames)
	if err != nil {
		return nil, err
	}

	p := plan.Build(g)
	logger.Debug("Compile: Evaluation plan fixed.", "order", p.Order())

	return &Engine{reg: reg, graph: g, plan: p}, nil
}

// Plan returns the full evaluation order.
func (e *Engine) Plan() []string {
	return e.plan.Order()
}
