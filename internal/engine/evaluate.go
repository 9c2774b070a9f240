package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/vk/fieldflow/internal/ctxlog"
	"github.com/vk/fieldflow/internal/entity"
	"github.com/vk/fieldflow/internal/equation"
	"github.com/vk/fieldflow/internal/plan"
	"github.com/vk/fieldflow/internal/result"
)

// allowedFunctions is the complete function surface of the expression
// grammar. Nothing outside this table and the per-field variable scope
// is reachable during evaluation.
var allowedFunctions = map[string]function.Function{
	"abs": stdlib.AbsoluteFunc,
	"min": stdlib.MinFunc,
	"max": stdlib.MaxFunc,
	"pow": stdlib.PowFunc,
}

// evaluateEntity walks the plan for one entity. The computed table is
// created fresh, seeded with the entity's attributes, and discarded
// when the row has been captured. A field value overwrites an
// attribute seed of the same name. Failures are tracked by field name
// rather than by absence from the table, so a downstream field still
// fails its dependency check when a same-named attribute seed keeps
// the name present.
func (e *Engine) evaluateEntity(ctx context.Context, ent entity.Entity, sub *plan.Plan, requested map[string]struct{}, ext externalTable, failedRefs map[string]error) result.Row {
	logger := ctxlog.FromContext(ctx).With("entity", ent.ID)

	computed := make(map[string]cty.Value, sub.Len()+len(ent.Attrs))
	for name, v := range ent.Attrs {
		computed[name] = cty.NumberFloatVal(v)
	}
	failed := make(map[string]struct{})

	row := make(result.Row)
	for _, field := range sub.Order() {
		eq, _ := e.reg.Lookup(field)
		value, err := e.evaluateField(eq, ent, computed, failed, ext, failedRefs)
		if err != nil {
			failed[field] = struct{}{}
			logger.Error("Field evaluation failed.", "field", field, "error", err)
			if _, ok := requested[field]; ok {
				row[field] = result.Failure(err)
			}
			continue
		}
		computed[field] = cty.NumberFloatVal(value)
		if _, ok := requested[field]; ok {
			row[field] = result.Value(value)
		}
	}
	return row
}

// evaluateField resolves one field against the already-computed values
// and the external table.
func (e *Engine) evaluateField(eq *equation.Equation, ent entity.Entity, computed map[string]cty.Value, failed map[string]struct{}, ext externalTable, failedRefs map[string]error) (float64, error) {
	for _, dep := range eq.Dependencies {
		if _, bad := failed[dep]; bad {
			return 0, &EvalError{Field: eq.Field, EntityID: ent.ID, Err: fmt.Errorf("dependency %q unavailable", dep)}
		}
		if _, ok := computed[dep]; !ok {
			return 0, &EvalError{Field: eq.Field, EntityID: ent.ID, Err: fmt.Errorf("dependency %q unavailable", dep)}
		}
	}

	vars := make(map[string]cty.Value, len(eq.Dependencies)+len(eq.Externals))
	for _, dep := range eq.Dependencies {
		vars[dep] = computed[dep]
	}
	for _, ref := range eq.Externals {
		if cause, ok := failedRefs[ref]; ok {
			return 0, cause
		}
		v, ok := ext[ref][ent.ID]
		if !ok {
			return 0, &EvalError{Field: eq.Field, EntityID: ent.ID, Err: fmt.Errorf("no external value %q for entity", ref)}
		}
		vars[equation.ExternalScopeName(ref)] = cty.NumberFloatVal(v)
	}

	value, err := evalExpr(eq.Expr, vars)
	if err != nil {
		return 0, &EvalError{Field: eq.Field, EntityID: ent.ID, Err: err}
	}
	return value, nil
}

// evalExpr interprets a parsed expression against a fixed variable
// scope and the function allow-list. cty guards most arithmetic, but
// 0/0 panics inside big.Float, so the recover is the containment
// point that turns it into a per-field error.
func evalExpr(expr hclsyntax.Expression, vars map[string]cty.Value) (value float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("arithmetic failure: %v", r)
		}
	}()

	evalCtx := &hcl.EvalContext{
		Variables: vars,
		Functions: allowedFunctions,
	}
	out, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return 0, errors.New(diags.Error())
	}
	if out.IsNull() {
		return 0, errors.New("expression produced no value")
	}

	switch out.Type() {
	case cty.Number:
		f, _ := out.AsBigFloat().Float64()
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, errors.New("expression produced a non-finite result")
		}
		return f, nil
	case cty.Bool:
		if out.True() {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("expression produced non-numeric %s", out.Type().FriendlyName())
	}
}
