// Package result holds the per-entity, per-field output of an
// evaluation run. A failed field is recorded as an explicit marker
// carrying its cause, never as a fabricated numeric default.
package result

import "encoding/json"

// Outcome is the value-or-failure of one field for one entity.
type Outcome struct {
	value float64
	err   error
}

// Value wraps a successfully computed numeric value.
func Value(v float64) Outcome {
	return Outcome{value: v}
}

// Failure wraps the error that prevented a field from being computed.
func Failure(err error) Outcome {
	return Outcome{err: err}
}

// Failed reports whether the field could not be computed.
func (o Outcome) Failed() bool {
	return o.err != nil
}

// Float returns the computed value. It is only meaningful when
// Failed() is false.
func (o Outcome) Float() float64 {
	return o.value
}

// Err returns the cause of the failure, or nil for a successful outcome.
func (o Outcome) Err() error {
	return o.err
}

// MarshalJSON renders the value as a JSON number, or null for a failed
// field.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.err != nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// Row maps requested field names to their outcomes for one entity.
type Row map[string]Outcome

// Table maps entity identifiers to their rows. It is the final output
// of a run; serialization is the caller's responsibility.
type Table map[string]Row
