package dtos

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Optional distinguishes an absent JSON field from an explicit null, which a
// partial update needs to treat differently.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		var zero T
		o.Null = true
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(b, &o.Value)
}

// Present reports whether the field carried a non-null value.
func (o Optional[T]) Present() bool { return o.Set && !o.Null }

// Apply copies a non-null value into a non-nullable destination.
func (o Optional[T]) Apply(dst *T) {
	if o.Present() {
		*dst = o.Value
	}
}

// ApplyPtr writes the value into a nullable destination; null clears it.
func (o Optional[T]) ApplyPtr(dst **T) {
	if !o.Set {
		return
	}
	if o.Null {
		*dst = nil
		return
	}
	v := o.Value
	*dst = &v
}

// ApplyDecimal is ApplyPtr for NUMERIC columns.
func ApplyDecimal(o Optional[decimal.Decimal], dst *decimal.NullDecimal) {
	if !o.Set {
		return
	}
	if o.Null {
		*dst = decimal.NullDecimal{}
		return
	}
	*dst = decimal.NewNullDecimal(o.Value)
}
