package models

import (
	"time"

	"gorm.io/datatypes"
)

var (
	FocusLevels  = []string{"Very Poor", "Poor", "Fair", "Good", "Excellent"}
	EnergyLevels = []string{"Very Low", "Low", "Moderate", "High", "Very High"}
	Subjects     = []string{"Math", "Reading", "Writing", "Science", "Social Studies", "Other"}
)

// ParentObservation is one day of home observations for a child.
type ParentObservation struct {
	Seq                uint                       `gorm:"column:seq;primaryKey;autoIncrement" json:"-"`
	ID                 string                     `gorm:"column:id;uniqueIndex;size:36" json:"id"`
	ChildName          string                     `gorm:"column:child_name;index" json:"child_name" validate:"notblank"`
	Date               string                     `gorm:"column:date" json:"date" validate:"required,datetime=2006-01-02"`
	HomeworkCompletion float64                    `gorm:"column:homework_completion" json:"homework_completion" validate:"min=0,max=100"`
	ReadingTime        float64                    `gorm:"column:reading_time" json:"reading_time" validate:"min=0,max=180"`
	FocusLevel         string                     `gorm:"column:focus_level" json:"focus_level" validate:"omitempty,oneof='Very Poor' Poor Fair Good Excellent"`
	SubjectsStruggled  datatypes.JSONSlice[string] `gorm:"column:subjects_struggled" json:"subjects_struggled" validate:"subjects"`
	BehaviorRating     int                        `gorm:"column:behavior_rating" json:"behavior_rating" validate:"min=1,max=5"`
	MoodRating         int                        `gorm:"column:mood_rating" json:"mood_rating" validate:"min=1,max=5"`
	SleepHours         float64                    `gorm:"column:sleep_hours" json:"sleep_hours" validate:"min=4,max=12"`
	EnergyLevel        string                     `gorm:"column:energy_level" json:"energy_level" validate:"omitempty,oneof='Very Low' Low Moderate High 'Very High'"`
	SocialInteractions string                     `gorm:"column:social_interactions" json:"social_interactions"`
	LearningWins       string                     `gorm:"column:learning_wins" json:"learning_wins"`
	ChallengesFaced    string                     `gorm:"column:challenges_faced" json:"challenges_faced"`
	StrategiesUsed     string                     `gorm:"column:strategies_used" json:"strategies_used"`
	ScreenTime         float64                    `gorm:"column:screen_time" json:"screen_time" validate:"min=0,max=12"`
	PhysicalActivity   float64                    `gorm:"column:physical_activity" json:"physical_activity" validate:"min=0,max=300"`
	MedicationTaken    bool                       `gorm:"column:medication_taken" json:"medication_taken"`
	SpecialEvents      string                     `gorm:"column:special_events" json:"special_events"`
	ParentNotes        string                     `gorm:"column:parent_notes" json:"parent_notes"`
	Timestamp          string                     `gorm:"column:timestamp;index" json:"timestamp"`
}

func (ParentObservation) TableName() string { return "parent_observations" }

func (o ParentObservation) Time() (time.Time, bool) {
	return ParseTimestamp(o.Timestamp)
}

// Day parses Date, falling back to the timestamp's day.
func (o ParentObservation) Day() (time.Time, bool) {
	if t, err := time.Parse("2006-01-02", o.Date); err == nil {
		return t, true
	}
	t, ok := o.Time()
	if !ok {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}
