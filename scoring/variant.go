package scoring

import (
	"errors"
	"fmt"
	"strings"
)

// Variant names one scoring contract: its feature order, its ranges and the
// policy that turns classifier output into a risk tier.
type Variant string

const (
	VariantAssessment Variant = "assessment"
	VariantScreening  Variant = "screening"
)

// Policy selects how a PredictionResult is mapped to a tier.
type Policy int

const (
	// PolicyClassIndex maps class 0/1/2 to Low/Medium/High; confidence is
	// the largest class probability.
	PolicyClassIndex Policy = iota
	// PolicyThreshold cuts p = 1 - P(class 0) at 0.3 and 0.7; confidence is p.
	PolicyThreshold
)

func (p Policy) String() string {
	switch p {
	case PolicyClassIndex:
		return "class_index"
	case PolicyThreshold:
		return "threshold"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

var ErrUnknownVariant = errors.New("unknown scoring variant")

// FieldSpec declares one input feature and its inclusive range.
type FieldSpec struct {
	Name    string
	Min     float64
	Max     float64
	Message string
}

// WholeNumberMessage is reported for an in-range value with a fractional
// part, e.g. "Math score must be a whole number".
func (f FieldSpec) WholeNumberMessage() string {
	label, _, _ := strings.Cut(f.Message, " must be")
	return label + " must be a whole number"
}

type VariantSpec struct {
	Name   Variant
	Fields []FieldSpec
	Policy Policy
}

// Dim is the length of the feature vector.
func (s VariantSpec) Dim() int {
	return len(s.Fields)
}

// FieldNames returns the feature names in vector order.
func (s VariantSpec) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

const (
	FieldMath               = "math_score"
	FieldReading            = "reading_score"
	FieldWriting            = "writing_score"
	FieldAttendance         = "attendance"
	FieldBehavior           = "behavior_rating"
	FieldLiteracy           = "literacy_level"
	FieldAttentionSpan      = "attention_span"
	FieldClassParticipation = "class_participation"
	FieldHomeworkCompletion = "homework_completion"
)

var (
	mathField       = FieldSpec{FieldMath, 0, 100, "Math score must be between 0 and 100"}
	readingField    = FieldSpec{FieldReading, 0, 100, "Reading score must be between 0 and 100"}
	writingField    = FieldSpec{FieldWriting, 0, 100, "Writing score must be between 0 and 100"}
	attendanceField = FieldSpec{FieldAttendance, 0, 100, "Attendance must be between 0 and 100%"}
)

var variants = map[Variant]VariantSpec{
	VariantAssessment: {
		Name: VariantAssessment,
		Fields: []FieldSpec{
			mathField,
			readingField,
			writingField,
			attendanceField,
			{FieldAttentionSpan, 1, 5, "Attention span must be between 1 and 5"},
			{FieldClassParticipation, 1, 5, "Class participation must be between 1 and 5"},
			{FieldHomeworkCompletion, 1, 5, "Homework completion must be between 1 and 5"},
		},
		Policy: PolicyClassIndex,
	},
	VariantScreening: {
		Name: VariantScreening,
		Fields: []FieldSpec{
			mathField,
			readingField,
			writingField,
			attendanceField,
			{FieldBehavior, 1, 5, "Behavior rating must be between 1 and 5"},
			{FieldLiteracy, 1, 10, "Literacy level must be between 1 and 10"},
		},
		Policy: PolicyThreshold,
	},
}

// Lookup returns the spec for a variant name. The empty name is not
// resolved here; callers substitute their default first.
func Lookup(v Variant) (VariantSpec, error) {
	spec, ok := variants[v]
	if !ok {
		return VariantSpec{}, fmt.Errorf("%w: %q", ErrUnknownVariant, string(v))
	}
	return spec, nil
}

// Variants lists every known variant in a stable order.
func Variants() []Variant {
	return []Variant{VariantAssessment, VariantScreening}
}
