package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Input holds raw numeric form values by field name. A key that is absent
// means the field was not submitted, which is different from zero.
type Input map[string]float64

// ValidationError lists every violated field, in field order.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

var ErrMissingField = errors.New("missing required field")

// Validate checks each submitted value against its inclusive range and
// returns one message per violated field. Every field is a whole number, so
// an in-range fraction is rejected too. Absent fields are left to
// BuildVector. Values are never clamped or rounded.
func Validate(fields []FieldSpec, in Input) []string {
	var msgs []string
	for _, f := range fields {
		v, ok := in[f.Name]
		if !ok {
			continue
		}
		switch {
		case math.IsNaN(v) || v < f.Min || v > f.Max:
			msgs = append(msgs, f.Message)
		case v != math.Trunc(v):
			msgs = append(msgs, f.WholeNumberMessage())
		}
	}
	return msgs
}

// BuildVector lays the inputs out in the variant's fixed feature order.
func BuildVector(variant Variant, in Input) ([]float64, error) {
	spec, err := Lookup(variant)
	if err != nil {
		return nil, err
	}
	return buildVector(spec, in)
}

func buildVector(spec VariantSpec, in Input) ([]float64, error) {
	vec := make([]float64, len(spec.Fields))
	for i, f := range spec.Fields {
		v, ok := in[f.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, f.Name)
		}
		vec[i] = v
	}
	return vec, nil
}
