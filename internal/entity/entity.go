// Package entity defines the read-only records analytics are computed for.
package entity

// Entity is one record (for example a bond) for which the full set of
// requested fields is computed independently. The engine never mutates
// entities; attributes act as leaf inputs to equation evaluation.
type Entity struct {
	// ID uniquely identifies the entity within a batch.
	ID string
	// Attrs holds the named scalar attributes usable as evaluation
	// inputs, e.g. price_quote or pricing_date (YYYYMMDD as a number).
	Attrs map[string]float64
}

// Attr returns the named attribute and whether it is present.
func (e Entity) Attr(name string) (float64, bool) {
	v, ok := e.Attrs[name]
	return v, ok
}

// IDs returns the identifiers of the given entities in input order.
func IDs(entities []Entity) []string {
	ids := make([]string, 0, len(entities))
	for _, e := range entities {
		ids = append(ids, e.ID)
	}
	return ids
}

// AttrNames returns the union of attribute names across the given
// entities. The result is used to declare the recognized leaf
// dependencies when building the dependency graph.
func AttrNames(entities []Entity) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, e := range entities {
		for name := range e.Attrs {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}
