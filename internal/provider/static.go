package provider

import "context"

// Static serves external values from a fixed table. References listed
// in Fail return their configured error instead. Static is used by
// tests and by embedders that resolve external values ahead of time.
type Static struct {
	// Values maps reference name -> entity ID -> value.
	Values map[string]map[string]float64
	// Fail maps reference name -> error to return for that reference.
	Fail map[string]error
}

// Fetch implements Provider. Entities absent from a reference's table
// are omitted from the response.
func (s *Static) Fetch(ctx context.Context, ref string, entityIDs []string) (map[string]float64, error) {
	if err, ok := s.Fail[ref]; ok {
		return nil, err
	}
	table := s.Values[ref]
	results := make(map[string]float64, len(entityIDs))
	for _, id := range entityIDs {
		if v, ok := table[id]; ok {
			results[id] = v
		}
	}
	return results, nil
}
