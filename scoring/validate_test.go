package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAssessment() Input {
	return Input{
		FieldMath:               75,
		FieldReading:            80,
		FieldWriting:            70,
		FieldAttendance:         90,
		FieldAttentionSpan:      3,
		FieldClassParticipation: 3,
		FieldHomeworkCompletion: 4,
	}
}

func validScreening() Input {
	return Input{
		FieldMath:       60,
		FieldReading:    55,
		FieldWriting:    58,
		FieldAttendance: 85,
		FieldBehavior:   3,
		FieldLiteracy:   6,
	}
}

func TestValidateBoundaries(t *testing.T) {
	for _, v := range Variants() {
		spec, err := Lookup(v)
		require.NoError(t, err)

		for _, f := range spec.Fields {
			t.Run(string(v)+"/"+f.Name, func(t *testing.T) {
				assert.Empty(t, Validate(spec.Fields, Input{f.Name: f.Min}), "min should be valid")
				assert.Empty(t, Validate(spec.Fields, Input{f.Name: f.Max}), "max should be valid")
				assert.Equal(t, []string{f.Message}, Validate(spec.Fields, Input{f.Name: f.Min - 1}))
				assert.Equal(t, []string{f.Message}, Validate(spec.Fields, Input{f.Name: f.Max + 1}))
			})
		}
	}
}

func TestValidateRejectsFractions(t *testing.T) {
	spec, _ := Lookup(VariantScreening)
	in := validScreening()
	in[FieldMath] = 75.5
	in[FieldBehavior] = 3.2
	in[FieldLiteracy] = 10.5

	assert.Equal(t, []string{
		"Math score must be a whole number",
		"Behavior rating must be a whole number",
		"Literacy level must be between 1 and 10",
	}, Validate(spec.Fields, in))

	assessment, _ := Lookup(VariantAssessment)
	assert.Equal(t, []string{"Attendance must be a whole number"},
		Validate(assessment.Fields, Input{FieldAttendance: 99.9}))
}

func TestValidateOrdersMessagesByField(t *testing.T) {
	spec, _ := Lookup(VariantScreening)
	in := validScreening()
	in[FieldLiteracy] = 11
	in[FieldMath] = -5
	in[FieldAttendance] = 101

	got := Validate(spec.Fields, in)
	assert.Equal(t, []string{
		"Math score must be between 0 and 100",
		"Attendance must be between 0 and 100%",
		"Literacy level must be between 1 and 10",
	}, got)
}

func TestValidateDoesNotClamp(t *testing.T) {
	spec, _ := Lookup(VariantAssessment)
	in := validAssessment()
	in[FieldMath] = 100.5

	_, err := (&Engine{Spec: spec, Scaler: IdentityScaler{N: spec.Dim()}, State: Fallback{Model: TrainFallback(spec.Dim())}}).Score(in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Math score must be between 0 and 100"}, verr.Messages)
	assert.Equal(t, 100.5, in[FieldMath])
}

func TestBuildVectorOrder(t *testing.T) {
	vec, err := BuildVector(VariantAssessment, validAssessment())
	require.NoError(t, err)
	assert.Equal(t, []float64{75, 80, 70, 90, 3, 3, 4}, vec)

	vec, err = BuildVector(VariantScreening, validScreening())
	require.NoError(t, err)
	assert.Equal(t, []float64{60, 55, 58, 85, 3, 6}, vec)
}

func TestBuildVectorMissingField(t *testing.T) {
	in := validAssessment()
	delete(in, FieldHomeworkCompletion)

	_, err := BuildVector(VariantAssessment, in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingField))
	assert.Contains(t, err.Error(), FieldHomeworkCompletion)
}

func TestBuildVectorZeroIsNotMissing(t *testing.T) {
	in := validScreening()
	in[FieldMath] = 0

	vec, err := BuildVector(VariantScreening, in)
	require.NoError(t, err)
	assert.Equal(t, 0.0, vec[0])
}

func TestLookupUnknownVariant(t *testing.T) {
	_, err := Lookup("hybrid")
	assert.True(t, errors.Is(err, ErrUnknownVariant))
}
