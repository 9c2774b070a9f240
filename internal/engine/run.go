package engine

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/vk/fieldflow/internal/ctxlog"
	"github.com/vk/fieldflow/internal/entity"
	"github.com/vk/fieldflow/internal/provider"
	"github.com/vk/fieldflow/internal/result"
)

// externalTable maps reference name -> entity ID -> value. It is
// populated once per run, before evaluation, and read-only afterwards.
type externalTable map[string]map[string]float64

// Run evaluates the requested fields for every entity and returns the
// result table. Build-time problems (an unknown requested field) fail
// the run; per-field evaluation problems are recorded as failure
// markers and never abort other fields or entities.
func (e *Engine) Run(ctx context.Context, entities []entity.Entity, requested []string, prov provider.Provider, workers int) (result.Table, error) {
	if len(entities) == 0 || len(requested) == 0 {
		return nil, errors.New("must provide entities and requested fields")
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	logger := ctxlog.FromContext(ctx)

	sub, err := e.plan.Filter(e.graph, requested)
	if err != nil {
		return nil, err
	}
	logger.Debug("Run: Partial plan derived.", "requested", requested, "order", sub.Order())

	refs := e.externalRefs(sub.Order())
	ids := entity.IDs(entities)
	ext, failedRefs := e.fetchExternals(ctx, refs, ids, prov)

	requestedSet := make(map[string]struct{}, len(requested))
	for _, field := range requested {
		requestedSet[field] = struct{}{}
	}

	rows := make([]result.Row, len(entities))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range entities {
		i := i
		g.Go(func() error {
			rows[i] = e.evaluateEntity(gctx, entities[i], sub, requestedSet, ext, failedRefs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	table := make(result.Table, len(entities))
	for i, ent := range entities {
		table[ent.ID] = rows[i]
	}
	logger.Debug("Run: Batch complete.", "entities", len(entities), "fields", len(requested))
	return table, nil
}

// externalRefs returns the distinct external references needed by the
// given fields, sorted for deterministic fetch scheduling.
func (e *Engine) externalRefs(fields []string) []string {
	set := make(map[string]struct{})
	for _, field := range fields {
		eq, ok := e.reg.Lookup(field)
		if !ok {
			continue
		}
		for _, ref := range eq.Externals {
			set[ref] = struct{}{}
		}
	}
	refs := make([]string, 0, len(set))
	for ref := range set {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// fetchExternals is the run's single synchronization barrier: one
// provider call per distinct reference, all completed before any
// entity evaluation begins. A failed reference is recorded, not
// retried; evaluation marks its dependents failed.
func (e *Engine) fetchExternals(ctx context.Context, refs, entityIDs []string, prov provider.Provider) (externalTable, map[string]error) {
	logger := ctxlog.FromContext(ctx)

	values := make([]map[string]float64, len(refs))
	errs := make([]error, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			vals, err := prov.Fetch(gctx, ref, entityIDs)
			if err != nil {
				errs[i] = &provider.FetchError{Ref: ref, Err: err}
				logger.Error("External fetch failed; dependent fields will be marked failed.", "ref", ref, "error", err)
				return nil
			}
			values[i] = vals
			return nil
		})
	}
	// Goroutines never return an error; Wait is the barrier.
	_ = g.Wait()

	table := make(externalTable, len(refs))
	failed := make(map[string]error)
	for i, ref := range refs {
		if errs[i] != nil {
			failed[ref] = errs[i]
			continue
		}
		table[ref] = values[i]
	}
	logger.Debug("Run: External fetch barrier complete.", "refs", len(refs), "failed", len(failed))
	return table, failed
}
