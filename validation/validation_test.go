package validation

import (
	"testing"

	"eduscan-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validObservation() models.ParentObservation {
	return models.ParentObservation{
		ChildName:          "Amina",
		Date:               "2026-03-02",
		HomeworkCompletion: 80,
		ReadingTime:        30,
		FocusLevel:         "Good",
		SubjectsStruggled:  []string{"Math", "Social Studies"},
		BehaviorRating:     4,
		MoodRating:         4,
		SleepHours:         9.5,
		EnergyLevel:        "Very High",
		ScreenTime:         2,
		PhysicalActivity:   60,
	}
}

func TestStructAcceptsValidObservation(t *testing.T) {
	assert.NoError(t, Struct(validObservation()))
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	obs := validObservation()
	obs.ChildName = "  "
	obs.SleepHours = 3
	obs.SubjectsStruggled = []string{"Art"}
	obs.FocusLevel = "Great"

	err := Struct(obs)
	require.Error(t, err)
	verr, ok := err.(*Error)
	require.True(t, ok, "got %T", err)

	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Error
	}
	assert.Equal(t, "child_name cannot be blank", fields["child_name"])
	assert.Equal(t, "subjects_struggled contains an unknown subject", fields["subjects_struggled"])
	assert.Contains(t, fields, "sleep_hours")
	assert.Contains(t, fields, "focus_level")
}

func TestStructBoundaries(t *testing.T) {
	obs := validObservation()
	obs.BehaviorRating = 5
	obs.HomeworkCompletion = 100
	obs.PhysicalActivity = 300
	assert.NoError(t, Struct(obs))

	obs.BehaviorRating = 6
	assert.Error(t, Struct(obs))
}
