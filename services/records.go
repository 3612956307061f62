package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"eduscan-api/models"
	"eduscan-api/pkg/logging"
	"eduscan-api/scoring"
	"eduscan-api/store"
	"eduscan-api/validation"

	"github.com/google/uuid"
)

var (
	ErrNoData        = errors.New("no data to export")
	ErrUnknownExport = errors.New("export type must be predictions or observations")
)

const (
	ExportPredictions  = "predictions"
	ExportObservations = "observations"
)

const (
	AnalyticsCachePrefix = "eduscan:analytics:"
	analyticsGenKey      = AnalyticsCachePrefix + "gen"
	analyticsTTL         = 30 * time.Second
)

// AnalyticsCache is the part of CacheService analytics caching needs.
type AnalyticsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

// RecordService owns the prediction history and the parent observation
// log.
type RecordService struct {
	predictions  store.Collection[models.PredictionRecord]
	observations store.Collection[models.ParentObservation]
	users        *UserService
	cache        AnalyticsCache
	logger       *logging.StructuredLogger
	now          func() time.Time
}

func NewRecordService(
	predictions store.Collection[models.PredictionRecord],
	observations store.Collection[models.ParentObservation],
	users *UserService,
	logger *logging.StructuredLogger,
) *RecordService {
	return &RecordService{
		predictions:  predictions,
		observations: observations,
		users:        users,
		logger:       logger,
		now:          time.Now,
	}
}

// UseCache caches prediction analytics in c. Cached entries are keyed by a
// generation counter that every save and purge bumps, so a fill computed
// before a write can never be served after it.
func (s *RecordService) UseCache(c AnalyticsCache) *RecordService {
	s.cache = c
	return s
}

// NewPredictionRecord combines a submitted form with its scoring outcome.
func NewPredictionRecord(in models.AssessmentInput, out *scoring.Outcome) models.PredictionRecord {
	return models.PredictionRecord{
		StudentName:        strings.TrimSpace(in.StudentName),
		GradeLevel:         in.GradeLevel,
		MathScore:          in.MathScore,
		ReadingScore:       in.ReadingScore,
		WritingScore:       in.WritingScore,
		Attendance:         in.Attendance,
		BehaviorRating:     in.BehaviorRating,
		LiteracyLevel:      in.LiteracyLevel,
		AttentionSpan:      in.AttentionSpan,
		ClassParticipation: in.ClassParticipation,
		HomeworkCompletion: in.HomeworkCompletion,
		TeacherNotes:       in.TeacherNotes,
		TeacherName:        in.TeacherName,
		AssessmentDate:     in.AssessmentDate,
		Variant:            string(out.Variant),
		PredictedClass:     out.Prediction.PredictedClass,
		Probabilities:      append([]float64(nil), out.Prediction.Probabilities...),
		RiskLabel:          out.Interpretation.RiskLabel,
		Confidence:         out.Interpretation.Confidence,
		Fallback:           out.Fallback,
	}
}

// SavePrediction stamps rec with an id and timestamp and appends it.
func (s *RecordService) SavePrediction(ctx context.Context, rec *models.PredictionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp == "" {
		rec.Timestamp = s.now().UTC().Format(models.TimestampLayout)
	}
	if err := s.predictions.Append(ctx, *rec); err != nil {
		return err
	}
	s.invalidateAnalytics(ctx)
	return nil
}

func (s *RecordService) Predictions(ctx context.Context) ([]models.PredictionRecord, error) {
	return s.predictions.All(ctx)
}

type PredictionQuery struct {
	Student string
	Before  *time.Time
	Limit   int
}

type Page[T any] struct {
	Items      []T
	HasMore    bool
	NextCursor string
}

// ListPredictions returns history newest first. Records whose timestamp
// does not parse sort last and are skipped once a cursor is given.
func (s *RecordService) ListPredictions(ctx context.Context, q PredictionQuery) (Page[models.PredictionRecord], error) {
	all, err := s.predictions.All(ctx)
	if err != nil {
		return Page[models.PredictionRecord]{}, err
	}

	type row struct {
		rec models.PredictionRecord
		at  time.Time
		ok  bool
	}
	rows := make([]row, 0, len(all))
	for _, r := range all {
		if q.Student != "" && r.StudentName != q.Student {
			continue
		}
		at, ok := r.Time()
		if q.Before != nil && (!ok || !at.Before(*q.Before)) {
			continue
		}
		rows = append(rows, row{rec: r, at: at, ok: ok})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ok != rows[j].ok {
			return rows[i].ok
		}
		return rows[i].at.After(rows[j].at)
	})

	page := Page[models.PredictionRecord]{Items: []models.PredictionRecord{}}
	if q.Limit > 0 && len(rows) > q.Limit {
		page.HasMore = true
		rows = rows[:q.Limit]
	}
	for _, r := range rows {
		page.Items = append(page.Items, r.rec)
	}
	if page.HasMore {
		if last := rows[len(rows)-1]; last.ok {
			page.NextCursor = last.at.Format(time.RFC3339Nano)
		}
	}
	return page, nil
}

func (s *RecordService) PredictionAnalytics(ctx context.Context, student string) (PredictionAnalytics, error) {
	key := ""
	if s.cache != nil {
		var gen int64
		if err := s.cache.Get(ctx, analyticsGenKey, &gen); err != nil && !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn(ctx, "[RECORDS] analytics generation unreadable", logging.Fields{"error": err.Error()})
		}
		key = fmt.Sprintf("%s%d:%s", AnalyticsCachePrefix, gen, student)

		var cached PredictionAnalytics
		if err := s.cache.Get(ctx, key, &cached); err == nil && cached.TierCounts != nil {
			return cached, nil
		}
	}

	all, err := s.predictions.All(ctx)
	if err != nil {
		return PredictionAnalytics{}, err
	}
	out := AnalyzePredictions(all, student)

	if key != "" {
		if err := s.cache.Set(ctx, key, out, analyticsTTL); err != nil {
			s.logger.Warn(ctx, "[RECORDS] analytics cache fill failed", logging.Fields{"error": err.Error()})
		}
	}
	return out, nil
}

func (s *RecordService) invalidateAnalytics(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Incr(ctx, analyticsGenKey); err != nil {
		s.logger.Warn(ctx, "[RECORDS] analytics cache invalidation failed", logging.Fields{"error": err.Error()})
	}
}

// SaveObservation validates o, stamps it and appends it. Validation
// failures come back as *validation.Error.
func (s *RecordService) SaveObservation(ctx context.Context, o *models.ParentObservation) error {
	o.ChildName = strings.TrimSpace(o.ChildName)
	if err := validation.Struct(o); err != nil {
		return err
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Timestamp == "" {
		o.Timestamp = s.now().UTC().Format(models.TimestampLayout)
	}
	if o.SubjectsStruggled == nil {
		o.SubjectsStruggled = []string{}
	}
	return s.observations.Append(ctx, *o)
}

type ObservationQuery struct {
	Child string
	From  string
	To    string
}

func (q ObservationQuery) match(o models.ParentObservation) bool {
	if q.Child != "" && o.ChildName != q.Child {
		return false
	}
	if q.From != "" && o.Date < q.From {
		return false
	}
	if q.To != "" && o.Date > q.To {
		return false
	}
	return true
}

// ListObservations filters the log and returns it newest date first.
func (s *RecordService) ListObservations(ctx context.Context, q ObservationQuery) ([]models.ParentObservation, error) {
	all, err := s.observations.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.ParentObservation, 0, len(all))
	for _, o := range all {
		if q.match(o) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (s *RecordService) ObservationSummary(ctx context.Context, q ObservationQuery) (ObservationSummary, error) {
	obs, err := s.ListObservations(ctx, q)
	if err != nil {
		return ObservationSummary{}, err
	}
	return SummarizeObservations(q.Child, obs), nil
}

type DataSummary struct {
	TotalPredictions    int    `json:"total_predictions"`
	TotalObservations   int    `json:"total_observations"`
	TotalUsers          int    `json:"total_users"`
	LastPredictionDate  string `json:"last_prediction_date,omitempty"`
	LastObservationDate string `json:"last_observation_date,omitempty"`
}

// Summary counts every collection. A collection that cannot be read counts
// as empty and is logged.
func (s *RecordService) Summary(ctx context.Context) DataSummary {
	var out DataSummary

	preds, err := s.predictions.All(ctx)
	if err != nil {
		s.logger.Warn(ctx, "[RECORDS] summary could not read predictions", logging.Fields{"error": err.Error()})
	}
	out.TotalPredictions = len(preds)
	var latest time.Time
	for _, p := range preds {
		out.LastPredictionDate, latest = laterTimestamp(out.LastPredictionDate, latest, p.Timestamp)
	}

	obs, err := s.observations.All(ctx)
	if err != nil {
		s.logger.Warn(ctx, "[RECORDS] summary could not read observations", logging.Fields{"error": err.Error()})
	}
	out.TotalObservations = len(obs)
	latest = time.Time{}
	for _, o := range obs {
		out.LastObservationDate, latest = laterTimestamp(out.LastObservationDate, latest, o.Timestamp)
	}

	if s.users != nil {
		n, err := s.users.Count(ctx)
		if err != nil {
			s.logger.Warn(ctx, "[RECORDS] summary could not read users", logging.Fields{"error": err.Error()})
		}
		out.TotalUsers = n
	}
	return out
}

// laterTimestamp keeps whichever of the current latest and ts is later in
// time. Timestamps that do not parse are skipped.
func laterTimestamp(current string, currentAt time.Time, ts string) (string, time.Time) {
	at, ok := models.ParseTimestamp(ts)
	if !ok || (current != "" && !at.After(currentAt)) {
		return current, currentAt
	}
	return ts, at
}

// ExportFilename is <kind>_export_YYYYMMDD_HHMMSS.<ext>.
func ExportFilename(kind, ext string, at time.Time) string {
	return fmt.Sprintf("%s_export_%s.%s", kind, at.Format("20060102_150405"), ext)
}

// Export renders a collection as a table along with its download name.
func (s *RecordService) Export(ctx context.Context, kind, ext string) (Table, string, error) {
	var (
		t   Table
		err error
	)
	switch kind {
	case ExportPredictions:
		var recs []models.PredictionRecord
		if recs, err = s.predictions.All(ctx); err == nil {
			t = predictionTable(recs)
		}
	case ExportObservations:
		var obs []models.ParentObservation
		if obs, err = s.observations.All(ctx); err == nil {
			t = observationTable(obs)
		}
	default:
		return Table{}, "", fmt.Errorf("%w: %q", ErrUnknownExport, kind)
	}
	if err != nil {
		return Table{}, "", err
	}
	if len(t.Rows) == 0 {
		return Table{}, "", ErrNoData
	}
	return t, ExportFilename(kind, ext, s.now()), nil
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func predictionTable(recs []models.PredictionRecord) Table {
	t := Table{Header: []string{
		"id", "timestamp", "student_name", "grade_level",
		"math_score", "reading_score", "writing_score", "attendance",
		"behavior_rating", "literacy_level", "attention_span",
		"class_participation", "homework_completion",
		"variant", "predicted_class", "prob_low", "prob_medium", "prob_high",
		"risk_label", "confidence", "fallback",
		"teacher_name", "assessment_date", "teacher_notes",
	}}
	for _, r := range recs {
		probs := make([]string, 3)
		for i := range probs {
			if i < len(r.Probabilities) {
				probs[i] = formatFloat(r.Probabilities[i])
			}
		}
		t.Rows = append(t.Rows, []string{
			r.ID, r.Timestamp, r.StudentName, r.GradeLevel,
			formatOptional(r.MathScore), formatOptional(r.ReadingScore),
			formatOptional(r.WritingScore), formatOptional(r.Attendance),
			formatOptional(r.BehaviorRating), formatOptional(r.LiteracyLevel),
			formatOptional(r.AttentionSpan), formatOptional(r.ClassParticipation),
			formatOptional(r.HomeworkCompletion),
			r.Variant, strconv.Itoa(r.PredictedClass), probs[0], probs[1], probs[2],
			r.RiskLabel, formatFloat(r.Confidence), strconv.FormatBool(r.Fallback),
			r.TeacherName, r.AssessmentDate, r.TeacherNotes,
		})
	}
	return t
}

func observationTable(obs []models.ParentObservation) Table {
	t := Table{Header: []string{
		"id", "timestamp", "child_name", "date",
		"homework_completion", "reading_time", "focus_level", "subjects_struggled",
		"behavior_rating", "mood_rating", "sleep_hours", "energy_level",
		"social_interactions", "learning_wins", "challenges_faced", "strategies_used",
		"screen_time", "physical_activity", "medication_taken",
		"special_events", "parent_notes",
	}}
	for _, o := range obs {
		t.Rows = append(t.Rows, []string{
			o.ID, o.Timestamp, o.ChildName, o.Date,
			formatFloat(o.HomeworkCompletion), formatFloat(o.ReadingTime),
			o.FocusLevel, strings.Join(o.SubjectsStruggled, "; "),
			strconv.Itoa(o.BehaviorRating), strconv.Itoa(o.MoodRating),
			formatFloat(o.SleepHours), o.EnergyLevel,
			o.SocialInteractions, o.LearningWins, o.ChallengesFaced, o.StrategiesUsed,
			formatFloat(o.ScreenTime), formatFloat(o.PhysicalActivity),
			strconv.FormatBool(o.MedicationTaken),
			o.SpecialEvents, o.ParentNotes,
		})
	}
	return t
}

type PurgeReport struct {
	DaysOld      int    `json:"days_old"`
	Cutoff       string `json:"cutoff"`
	Predictions  int    `json:"predictions_removed"`
	Observations int    `json:"observations_removed"`
}

// keepAfter keeps records newer than cutoff and any record whose timestamp
// does not parse.
func keepAfter(cutoff time.Time, ts string) bool {
	t, ok := models.ParseTimestamp(ts)
	if !ok {
		return true
	}
	return t.After(cutoff)
}

// Purge removes predictions and observations older than daysOld days.
func (s *RecordService) Purge(ctx context.Context, daysOld int) (PurgeReport, error) {
	if daysOld < 0 {
		return PurgeReport{}, fmt.Errorf("days must not be negative, got %d", daysOld)
	}
	cutoff := s.now().UTC().AddDate(0, 0, -daysOld)
	report := PurgeReport{DaysOld: daysOld, Cutoff: cutoff.Format(models.TimestampLayout)}

	var errs []error
	n, err := s.predictions.Purge(ctx, func(r models.PredictionRecord) bool {
		return keepAfter(cutoff, r.Timestamp)
	})
	if err != nil {
		errs = append(errs, fmt.Errorf("predictions: %w", err))
	}
	report.Predictions = n
	s.invalidateAnalytics(ctx)

	n, err = s.observations.Purge(ctx, func(o models.ParentObservation) bool {
		return keepAfter(cutoff, o.Timestamp)
	})
	if err != nil {
		errs = append(errs, fmt.Errorf("observations: %w", err))
	}
	report.Observations = n

	s.logger.Info(ctx, "[RECORDS] purge finished", logging.Fields{
		"days_old":             daysOld,
		"predictions_removed":  report.Predictions,
		"observations_removed": report.Observations,
	})
	return report, errors.Join(errs...)
}
