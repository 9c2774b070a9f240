package provider

import (
	"context"
	"time"

	"github.com/vk/fieldflow/internal/ctxlog"
	"github.com/vk/fieldflow/internal/entity"
)

// QuoteAttr is the entity attribute the simulated references derive
// their values from.
const QuoteAttr = "price_quote"

// Known simulated reference names.
const (
	RefYield        = "YIELD"
	RefRiskFreeRate = "RISK_FREE_RATE"
	RefVolatility   = "VOLATILITY"
)

// DefaultSettings returns the simulated provider's default engine
// parameters. Latency is in seconds.
func DefaultSettings() map[string]float64 {
	return map[string]float64{
		"latency":               0.1,
		"yield_multiplier":      0.05,
		"risk_free_rate":        0.03,
		"volatility_multiplier": 0.02,
	}
}

// Sim simulates an external market-data vendor. Values derive from
// each entity's price quote and a set of opaque numeric settings; a
// configurable latency is slept before responding. An unknown
// reference logs a warning and yields zero for every entity, matching
// the behavior this simulation stands in for.
type Sim struct {
	settings map[string]float64
	quotes   map[string]float64
}

// NewSim builds a simulated provider over the given entities. Settings
// missing from the map fall back to DefaultSettings.
func NewSim(settings map[string]float64, entities []entity.Entity) *Sim {
	quotes := make(map[string]float64, len(entities))
	for _, e := range entities {
		if q, ok := e.Attr(QuoteAttr); ok {
			quotes[e.ID] = q
		}
	}
	merged := DefaultSettings()
	for k, v := range settings {
		merged[k] = v
	}
	return &Sim{settings: merged, quotes: quotes}
}

// Fetch implements Provider.
func (s *Sim) Fetch(ctx context.Context, ref string, entityIDs []string) (map[string]float64, error) {
	if err := s.sleep(ctx); err != nil {
		return nil, err
	}

	results := make(map[string]float64, len(entityIDs))
	for _, id := range entityIDs {
		switch ref {
		case RefYield:
			results[id] = s.quotes[id] * s.settings["yield_multiplier"]
		case RefRiskFreeRate:
			results[id] = s.settings["risk_free_rate"]
		case RefVolatility:
			results[id] = s.quotes[id] * s.settings["volatility_multiplier"]
		default:
			ctxlog.FromContext(ctx).Warn("Unknown external reference, defaulting to zero.", "ref", ref)
			results[id] = 0.0
		}
	}
	return results, nil
}

// sleep simulates vendor latency without ignoring cancellation.
func (s *Sim) sleep(ctx context.Context) error {
	latency := time.Duration(s.settings["latency"] * float64(time.Second))
	if latency <= 0 {
		return nil
	}
	timer := time.NewTimer(latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
