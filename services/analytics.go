package services

import (
	"math"
	"sort"
	"time"

	"eduscan-api/models"
	"eduscan-api/scoring"

	"gonum.org/v1/gonum/stat"
)

// correlationFields are the numeric record fields checked against risk
// probability.
var correlationFields = []string{
	scoring.FieldMath,
	scoring.FieldReading,
	scoring.FieldWriting,
	scoring.FieldAttendance,
	scoring.FieldBehavior,
	scoring.FieldLiteracy,
	scoring.FieldAttentionSpan,
	scoring.FieldClassParticipation,
	scoring.FieldHomeworkCompletion,
}

type DailyTiers struct {
	Date   string `json:"date"`
	Low    int    `json:"low"`
	Medium int    `json:"medium"`
	High   int    `json:"high"`
}

type FeatureCorrelation struct {
	Feature     string  `json:"feature"`
	Coefficient float64 `json:"coefficient"`
	Samples     int     `json:"samples"`
}

type TrendPoint struct {
	Timestamp       string  `json:"timestamp"`
	RiskLabel       string  `json:"risk_label"`
	RiskProbability float64 `json:"risk_probability"`
}

type PredictionAnalytics struct {
	Total        int                  `json:"total"`
	TierCounts   map[string]int       `json:"tier_counts"`
	Daily        []DailyTiers         `json:"daily"`
	Correlations []FeatureCorrelation `json:"correlations"`
	Students     []string             `json:"students"`
	Student      string               `json:"student,omitempty"`
	StudentTrend []TrendPoint         `json:"student_trend,omitempty"`
}

// AnalyzePredictions builds the historical view of saved predictions. When
// student is set the result also carries that student's risk trend, oldest
// first.
func AnalyzePredictions(records []models.PredictionRecord, student string) PredictionAnalytics {
	out := PredictionAnalytics{
		Total: len(records),
		TierCounts: map[string]int{
			scoring.TierLow.Label():    0,
			scoring.TierMedium.Label(): 0,
			scoring.TierHigh.Label():   0,
		},
		Daily:        []DailyTiers{},
		Correlations: []FeatureCorrelation{},
		Students:     []string{},
		Student:      student,
	}

	days := map[string]*DailyTiers{}
	seen := map[string]bool{}
	for _, r := range records {
		if r.RiskLabel != "" {
			out.TierCounts[r.RiskLabel]++
		}

		if r.StudentName != "" && !seen[r.StudentName] {
			seen[r.StudentName] = true
			out.Students = append(out.Students, r.StudentName)
		}

		ts, ok := r.Time()
		if !ok {
			continue
		}
		key := ts.UTC().Format("2006-01-02")
		d, ok := days[key]
		if !ok {
			d = &DailyTiers{Date: key}
			days[key] = d
		}
		switch r.RiskLabel {
		case scoring.TierLow.Label():
			d.Low++
		case scoring.TierMedium.Label():
			d.Medium++
		case scoring.TierHigh.Label():
			d.High++
		}
	}
	for _, d := range days {
		out.Daily = append(out.Daily, *d)
	}
	sort.Slice(out.Daily, func(i, j int) bool { return out.Daily[i].Date < out.Daily[j].Date })
	sort.Strings(out.Students)

	out.Correlations = correlateWithRisk(records)
	if student != "" {
		out.StudentTrend = studentTrend(records, student)
	}
	return out
}

func correlateWithRisk(records []models.PredictionRecord) []FeatureCorrelation {
	out := []FeatureCorrelation{}
	for _, field := range correlationFields {
		var xs, ys []float64
		for _, r := range records {
			if len(r.Probabilities) == 0 {
				continue
			}
			v, ok := r.FeatureValue(field)
			if !ok {
				continue
			}
			xs = append(xs, v)
			ys = append(ys, r.RiskProbability())
		}
		if len(xs) < 2 {
			continue
		}
		c := stat.Correlation(xs, ys, nil)
		if math.IsNaN(c) || math.IsInf(c, 0) {
			continue
		}
		out = append(out, FeatureCorrelation{Feature: field, Coefficient: c, Samples: len(xs)})
	}
	return out
}

func studentTrend(records []models.PredictionRecord, student string) []TrendPoint {
	type point struct {
		at time.Time
		tp TrendPoint
	}
	var pts []point
	for _, r := range records {
		if r.StudentName != student {
			continue
		}
		ts, ok := r.Time()
		if !ok {
			continue
		}
		pts = append(pts, point{at: ts, tp: TrendPoint{
			Timestamp:       r.Timestamp,
			RiskLabel:       r.RiskLabel,
			RiskProbability: r.RiskProbability(),
		}})
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].at.Before(pts[j].at) })
	out := make([]TrendPoint, len(pts))
	for i, p := range pts {
		out[i] = p.tp
	}
	return out
}

const goodBehaviorRating = 4

type HealthSummary struct {
	AvgSleepHours        float64 `json:"avg_sleep_hours"`
	AvgPhysicalActivity  float64 `json:"avg_physical_activity"`
	AvgScreenTime        float64 `json:"avg_screen_time"`
	MedicationCompliance float64 `json:"medication_compliance_pct"`
}

type WeeklyRollup struct {
	WeekStart          string   `json:"week_start"`
	Entries            int      `json:"entries"`
	HomeworkCompletion float64  `json:"homework_completion"`
	BehaviorRating     float64  `json:"behavior_rating"`
	SleepHours         float64  `json:"sleep_hours"`
	MoodRating         float64  `json:"mood_rating"`
	Insights           []string `json:"insights"`
}

type ObservationSummary struct {
	Child            string         `json:"child,omitempty"`
	Entries          int            `json:"entries"`
	AvgBehavior      float64        `json:"avg_behavior"`
	GoodBehaviorDays int            `json:"good_behavior_days"`
	BehaviorTrend    float64        `json:"behavior_trend"`
	Health           HealthSummary  `json:"health"`
	SubjectCounts    map[string]int `json:"subject_counts"`
	MoodDistribution map[int]int    `json:"mood_distribution"`
	Weeks            []WeeklyRollup `json:"weeks"`
}

// SummarizeObservations rolls up a child's observations. Observations are
// ordered by date before the behavior trend, the mean day-to-day change,
// is taken.
func SummarizeObservations(child string, obs []models.ParentObservation) ObservationSummary {
	out := ObservationSummary{
		Child:            child,
		Entries:          len(obs),
		SubjectCounts:    map[string]int{},
		MoodDistribution: map[int]int{},
		Weeks:            []WeeklyRollup{},
	}
	if len(obs) == 0 {
		return out
	}

	sorted := make([]models.ParentObservation, len(obs))
	copy(sorted, obs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	n := len(sorted)
	behavior := make([]float64, n)
	sleep := make([]float64, n)
	activity := make([]float64, n)
	screen := make([]float64, n)
	medicated := 0
	for i, o := range sorted {
		behavior[i] = float64(o.BehaviorRating)
		sleep[i] = o.SleepHours
		activity[i] = o.PhysicalActivity
		screen[i] = o.ScreenTime
		if o.BehaviorRating >= goodBehaviorRating {
			out.GoodBehaviorDays++
		}
		if o.MedicationTaken {
			medicated++
		}
		for _, s := range o.SubjectsStruggled {
			out.SubjectCounts[s]++
		}
		out.MoodDistribution[o.MoodRating]++
	}

	out.AvgBehavior = stat.Mean(behavior, nil)
	if n > 1 {
		diffs := make([]float64, n-1)
		for i := 1; i < n; i++ {
			diffs[i-1] = behavior[i] - behavior[i-1]
		}
		out.BehaviorTrend = stat.Mean(diffs, nil)
	}
	out.Health = HealthSummary{
		AvgSleepHours:        stat.Mean(sleep, nil),
		AvgPhysicalActivity:  stat.Mean(activity, nil),
		AvgScreenTime:        stat.Mean(screen, nil),
		MedicationCompliance: float64(medicated) / float64(n) * 100,
	}
	out.Weeks = weeklyRollups(sorted)
	return out
}

// weekStart returns the Monday of t's week.
func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.UTC)
}

func weeklyRollups(obs []models.ParentObservation) []WeeklyRollup {
	type acc struct {
		homework, behavior, sleep, mood []float64
	}
	weeks := map[string]*acc{}
	for _, o := range obs {
		day, ok := o.Day()
		if !ok {
			continue
		}
		key := weekStart(day).Format("2006-01-02")
		a, ok := weeks[key]
		if !ok {
			a = &acc{}
			weeks[key] = a
		}
		a.homework = append(a.homework, o.HomeworkCompletion)
		a.behavior = append(a.behavior, float64(o.BehaviorRating))
		a.sleep = append(a.sleep, o.SleepHours)
		a.mood = append(a.mood, float64(o.MoodRating))
	}

	keys := make([]string, 0, len(weeks))
	for k := range weeks {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]WeeklyRollup, 0, len(keys))
	for i, k := range keys {
		a := weeks[k]
		w := WeeklyRollup{
			WeekStart:          k,
			Entries:            len(a.homework),
			HomeworkCompletion: stat.Mean(a.homework, nil),
			BehaviorRating:     stat.Mean(a.behavior, nil),
			SleepHours:         stat.Mean(a.sleep, nil),
			MoodRating:         stat.Mean(a.mood, nil),
		}
		var prev *WeeklyRollup
		if i > 0 {
			prev = &out[i-1]
		}
		w.Insights = WeeklyInsights(w, prev)
		out = append(out, w)
	}
	return out
}

// WeeklyInsights produces the plain-language notes for a week, comparing
// against the previous week when there is one.
func WeeklyInsights(week WeeklyRollup, prev *WeeklyRollup) []string {
	var out []string
	switch {
	case week.HomeworkCompletion >= 80:
		out = append(out, "Great homework completion!")
	case week.HomeworkCompletion >= 60:
		out = append(out, "Homework completion needs attention")
	default:
		out = append(out, "Homework completion is concerning")
	}
	switch {
	case week.BehaviorRating >= 4:
		out = append(out, "Excellent behavior this week!")
	case week.BehaviorRating >= 3:
		out = append(out, "Good behavior overall")
	default:
		out = append(out, "Behavior needs support")
	}
	if prev == nil {
		return out
	}
	if week.HomeworkCompletion-prev.HomeworkCompletion > 5 {
		out = append(out, "Homework completion improved!")
	}
	if week.BehaviorRating-prev.BehaviorRating > 0.2 {
		out = append(out, "Behavior rating improved!")
	}
	if week.MoodRating-prev.MoodRating > 0.2 {
		out = append(out, "Mood has improved!")
	}
	return out
}
