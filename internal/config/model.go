// Package config defines the format-agnostic configuration model and
// the loader contract concrete formats implement.
package config

import (
	"errors"

	"github.com/vk/fieldflow/internal/entity"
)

// Model is the fully translated run configuration: the ordered
// equation definitions, the default requested fields, the opaque
// numeric provider settings, and the in-memory entity batch.
type Model struct {
	// Equations are "<field> = <expression>" definitions in
	// declaration order.
	Equations []string
	// EquationsXML optionally names an XML file whose equations are
	// appended after the inline ones.
	EquationsXML string
	// RequestedFields are the fields surfaced in the result table
	// unless overridden on the command line.
	RequestedFields []string
	// ProviderSettings are numeric engine parameters passed opaquely
	// to the external value provider.
	ProviderSettings map[string]float64
	// Entities is the batch analytics are computed for.
	Entities []entity.Entity
}

// Validate checks the sections a run cannot start without. Equation
// presence is checked after the optional XML import has been merged.
func (m *Model) Validate() error {
	if len(m.Equations) == 0 {
		return errors.New("configuration defines no equations")
	}
	if len(m.RequestedFields) == 0 {
		return errors.New("configuration defines no requested fields")
	}
	if len(m.Entities) == 0 {
		return errors.New("configuration defines no entities")
	}
	return nil
}
