package models

import (
	"time"

	"gorm.io/datatypes"
)

// TimestampLayout is how every persisted timestamp is written.
const TimestampLayout = time.RFC3339Nano

// AssessmentInput is the submitted form. Numeric fields are pointers so an
// absent value is distinguishable from zero.
type AssessmentInput struct {
	StudentName        string   `json:"student_name"`
	GradeLevel         string   `json:"grade_level"`
	MathScore          *float64 `json:"math_score"`
	ReadingScore       *float64 `json:"reading_score"`
	WritingScore       *float64 `json:"writing_score"`
	Attendance         *float64 `json:"attendance"`
	BehaviorRating     *float64 `json:"behavior_rating"`
	LiteracyLevel      *float64 `json:"literacy_level"`
	AttentionSpan      *float64 `json:"attention_span"`
	ClassParticipation *float64 `json:"class_participation"`
	HomeworkCompletion *float64 `json:"homework_completion"`
	TeacherNotes       string   `json:"teacher_notes"`
	TeacherName        string   `json:"teacher_name"`
	AssessmentDate     string   `json:"assessment_date" binding:"omitempty,datetime=2006-01-02"`
}

// Values returns the submitted numeric fields keyed by feature name.
func (in AssessmentInput) Values() map[string]float64 {
	out := make(map[string]float64, 9)
	for name, v := range map[string]*float64{
		"math_score":          in.MathScore,
		"reading_score":       in.ReadingScore,
		"writing_score":       in.WritingScore,
		"attendance":          in.Attendance,
		"behavior_rating":     in.BehaviorRating,
		"literacy_level":      in.LiteracyLevel,
		"attention_span":      in.AttentionSpan,
		"class_participation": in.ClassParticipation,
		"homework_completion": in.HomeworkCompletion,
	} {
		if v != nil {
			out[name] = *v
		}
	}
	return out
}

// PredictionRecord is one saved assessment. Records are append-only.
type PredictionRecord struct {
	Seq                uint                        `gorm:"column:seq;primaryKey;autoIncrement" json:"-"`
	ID                 string                      `gorm:"column:id;uniqueIndex;size:36" json:"id"`
	StudentName        string                      `gorm:"column:student_name;index" json:"student_name"`
	GradeLevel         string                      `gorm:"column:grade_level" json:"grade_level,omitempty"`
	MathScore          *float64                    `gorm:"column:math_score" json:"math_score,omitempty"`
	ReadingScore       *float64                    `gorm:"column:reading_score" json:"reading_score,omitempty"`
	WritingScore       *float64                    `gorm:"column:writing_score" json:"writing_score,omitempty"`
	Attendance         *float64                    `gorm:"column:attendance" json:"attendance,omitempty"`
	BehaviorRating     *float64                    `gorm:"column:behavior_rating" json:"behavior_rating,omitempty"`
	LiteracyLevel      *float64                    `gorm:"column:literacy_level" json:"literacy_level,omitempty"`
	AttentionSpan      *float64                    `gorm:"column:attention_span" json:"attention_span,omitempty"`
	ClassParticipation *float64                    `gorm:"column:class_participation" json:"class_participation,omitempty"`
	HomeworkCompletion *float64                    `gorm:"column:homework_completion" json:"homework_completion,omitempty"`
	TeacherNotes       string                      `gorm:"column:teacher_notes" json:"teacher_notes,omitempty"`
	TeacherName        string                      `gorm:"column:teacher_name" json:"teacher_name,omitempty"`
	AssessmentDate     string                      `gorm:"column:assessment_date" json:"assessment_date,omitempty"`
	Variant            string                      `gorm:"column:variant" json:"variant"`
	PredictedClass     int                         `gorm:"column:predicted_class" json:"predicted_class"`
	Probabilities      datatypes.JSONSlice[float64] `gorm:"column:class_probabilities" json:"class_probabilities"`
	RiskLabel          string                      `gorm:"column:risk_label;index" json:"risk_label"`
	Confidence         float64                     `gorm:"column:confidence" json:"confidence"`
	Fallback           bool                        `gorm:"column:fallback" json:"fallback"`
	Timestamp          string                      `gorm:"column:timestamp;index" json:"timestamp"`
}

func (PredictionRecord) TableName() string { return "prediction_records" }

// Time parses Timestamp. Legacy rows may carry a value that does not parse.
func (r PredictionRecord) Time() (time.Time, bool) {
	return ParseTimestamp(r.Timestamp)
}

// FeatureValue returns the stored value for a feature name.
func (r PredictionRecord) FeatureValue(name string) (float64, bool) {
	var p *float64
	switch name {
	case "math_score":
		p = r.MathScore
	case "reading_score":
		p = r.ReadingScore
	case "writing_score":
		p = r.WritingScore
	case "attendance":
		p = r.Attendance
	case "behavior_rating":
		p = r.BehaviorRating
	case "literacy_level":
		p = r.LiteracyLevel
	case "attention_span":
		p = r.AttentionSpan
	case "class_participation":
		p = r.ClassParticipation
	case "homework_completion":
		p = r.HomeworkCompletion
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// RiskProbability is 1 - P(low), the probability of any risk.
func (r PredictionRecord) RiskProbability() float64 {
	if len(r.Probabilities) == 0 {
		return 0
	}
	return 1 - r.Probabilities[0]
}

// ParseTimestamp accepts RFC 3339 and the naive ISO form older files use.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
