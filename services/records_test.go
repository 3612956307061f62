package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"eduscan-api/models"
	"eduscan-api/pkg/logging"
	"eduscan-api/scoring"
	"eduscan-api/store"
	"eduscan-api/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// newTestRecordService stores everything in files; the unconfigured gorm
// primary sends every call to the file.
func newTestRecordService(t *testing.T) *RecordService {
	t.Helper()
	dir := t.TempDir()
	preds := store.NewFallback[models.PredictionRecord]("predictions",
		store.NewGormLog[models.PredictionRecord](nil, "seq asc"),
		store.NewJSONFile[models.PredictionRecord](filepath.Join(dir, "student_data.json"), logging.Nop()),
		logging.Nop(), nil)
	obs := store.NewFallback[models.ParentObservation]("observations",
		store.NewGormLog[models.ParentObservation](nil, "seq asc"),
		store.NewJSONFile[models.ParentObservation](filepath.Join(dir, "parent_observations.json"), logging.Nop()),
		logging.Nop(), nil)
	svc := NewRecordService(preds, obs, nil, logging.Nop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func validObservation(child, date string) models.ParentObservation {
	return models.ParentObservation{
		ChildName:          child,
		Date:               date,
		HomeworkCompletion: 80,
		ReadingTime:        30,
		FocusLevel:         "Good",
		SubjectsStruggled:  []string{"Math"},
		BehaviorRating:     4,
		MoodRating:         4,
		SleepHours:         9,
		EnergyLevel:        "High",
		ScreenTime:         2,
		PhysicalActivity:   45,
	}
}

func TestNewPredictionRecordCopiesOutcome(t *testing.T) {
	in := models.AssessmentInput{StudentName: "  Ali  ", MathScore: ptr(50), TeacherName: "Ms. Faduma"}
	out := &scoring.Outcome{
		Variant:    scoring.VariantScreening,
		Prediction: scoring.PredictionResult{PredictedClass: 2, Probabilities: []float64{0.1, 0.2, 0.7}},
		Interpretation: scoring.Interpretation{
			RiskLabel:  "High Risk",
			Confidence: 0.9,
		},
		Fallback: true,
	}

	rec := NewPredictionRecord(in, out)

	assert.Equal(t, "Ali", rec.StudentName)
	assert.Equal(t, "screening", rec.Variant)
	assert.Equal(t, "High Risk", rec.RiskLabel)
	assert.True(t, rec.Fallback)
	assert.Equal(t, 50.0, *rec.MathScore)

	out.Prediction.Probabilities[0] = 1
	assert.Equal(t, 0.1, rec.Probabilities[0], "record must not alias the outcome")
}

func TestSaveAndListPredictions(t *testing.T) {
	ctx := context.Background()
	svc := newTestRecordService(t)

	for i, ts := range []string{"2026-05-01T10:00:00Z", "2026-05-03T10:00:00Z", "legacy", "2026-05-02T10:00:00Z"} {
		rec := models.PredictionRecord{StudentName: "S", RiskLabel: "Low Risk", Timestamp: ts}
		if i == 0 {
			rec.Timestamp = ""
		}
		require.NoError(t, svc.SavePrediction(ctx, &rec))
		assert.NotEmpty(t, rec.ID)
	}

	page, err := svc.ListPredictions(ctx, PredictionQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, fixedNow.Format(models.TimestampLayout), page.Items[0].Timestamp)
	assert.Equal(t, "2026-05-03T10:00:00Z", page.Items[1].Timestamp)
	assert.Equal(t, "2026-05-03T10:00:00Z", page.NextCursor)

	before, _ := time.Parse(time.RFC3339Nano, page.NextCursor)
	page, err = svc.ListPredictions(ctx, PredictionQuery{Limit: 2, Before: &before})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.False(t, page.HasMore)
	assert.Equal(t, "2026-05-02T10:00:00Z", page.Items[0].Timestamp)

	all, err := svc.ListPredictions(ctx, PredictionQuery{})
	require.NoError(t, err)
	require.Len(t, all.Items, 4)
	assert.Equal(t, "legacy", all.Items[3].Timestamp)
}

func TestSaveObservationValidates(t *testing.T) {
	ctx := context.Background()
	svc := newTestRecordService(t)

	bad := validObservation("", "2026-05-01")
	bad.SleepHours = 3
	err := svc.SaveObservation(ctx, &bad)
	var verr *validation.Error
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Len(t, verr.Fields, 2)

	good := validObservation("Ayan", "2026-05-01")
	require.NoError(t, svc.SaveObservation(ctx, &good))
	assert.NotEmpty(t, good.ID)
	assert.NotEmpty(t, good.Timestamp)
}

func TestListObservationsFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	svc := newTestRecordService(t)
	for _, o := range []models.ParentObservation{
		validObservation("Ayan", "2026-05-01"),
		validObservation("Ayan", "2026-05-03"),
		validObservation("Omar", "2026-05-02"),
		validObservation("Ayan", "2026-04-01"),
	} {
		o := o
		require.NoError(t, svc.SaveObservation(ctx, &o))
	}

	got, err := svc.ListObservations(ctx, ObservationQuery{Child: "Ayan", From: "2026-05-01"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2026-05-03", got[0].Date)
	assert.Equal(t, "2026-05-01", got[1].Date)

	summary, err := svc.ObservationSummary(ctx, ObservationQuery{Child: "Ayan"})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Entries)
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	svc := newTestRecordService(t)

	assert.Equal(t, DataSummary{}, svc.Summary(ctx))

	for _, ts := range []string{"2026-05-01T10:00:00Z", "2026-05-09T10:00:00Z"} {
		require.NoError(t, svc.SavePrediction(ctx, &models.PredictionRecord{Timestamp: ts}))
	}
	o := validObservation("Ayan", "2026-05-01")
	o.Timestamp = "2026-05-02T08:00:00Z"
	require.NoError(t, svc.SaveObservation(ctx, &o))

	got := svc.Summary(ctx)
	assert.Equal(t, 2, got.TotalPredictions)
	assert.Equal(t, 1, got.TotalObservations)
	assert.Equal(t, "2026-05-09T10:00:00Z", got.LastPredictionDate)
	assert.Equal(t, "2026-05-02T08:00:00Z", got.LastObservationDate)
}

func TestSummaryComparesTimestampsAsTimes(t *testing.T) {
	ctx := context.Background()
	svc := newTestRecordService(t)

	// As strings, "...10:00:00Z" sorts after "...10:00:00.5Z" and the naive
	// legacy stamp sorts after both.
	for _, ts := range []string{"2026-05-09T10:00:00.5Z", "2026-05-09T10:00:00Z", "2026-05-09T09:00:00", "garbage"} {
		require.NoError(t, svc.SavePrediction(ctx, &models.PredictionRecord{Timestamp: ts}))
	}
	assert.Equal(t, "2026-05-09T10:00:00.5Z", svc.Summary(ctx).LastPredictionDate)
}

// mapCache is an in-memory AnalyticsCache.
type mapCache struct {
	entries map[string][]byte
	sets    int
}

func newMapCache() *mapCache { return &mapCache{entries: map[string][]byte{}} }

func (m *mapCache) Get(_ context.Context, key string, dest interface{}) error {
	b, ok := m.entries[key]
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(b, dest)
}

func (m *mapCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.sets++
	m.entries[key] = b
	return nil
}

func (m *mapCache) Incr(_ context.Context, key string) (int64, error) {
	var n int64
	if b, ok := m.entries[key]; ok {
		json.Unmarshal(b, &n)
	}
	n++
	m.entries[key], _ = json.Marshal(n)
	return n, nil
}

func TestAnalyticsCacheInvalidatedBySaveAndPurge(t *testing.T) {
	ctx := context.Background()
	cache := newMapCache()
	svc := newTestRecordService(t).UseCache(cache)

	require.NoError(t, svc.SavePrediction(ctx, &models.PredictionRecord{
		StudentName: "Ali", RiskLabel: "Low Risk",
		Timestamp: fixedNow.AddDate(0, 0, -200).Format(models.TimestampLayout),
	}))

	first, err := svc.PredictionAnalytics(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Total)
	again, err := svc.PredictionAnalytics(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, cache.sets, "second read should be served from the cache")

	require.NoError(t, svc.SavePrediction(ctx, &models.PredictionRecord{StudentName: "Hodan", RiskLabel: "High Risk"}))
	afterSave, err := svc.PredictionAnalytics(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, afterSave.Total)
	assert.Equal(t, 1, afterSave.TierCounts["High Risk"])

	_, err = svc.Purge(ctx, 90)
	require.NoError(t, err)
	afterPurge, err := svc.PredictionAnalytics(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, afterPurge.Total)
	assert.Equal(t, 0, afterPurge.TierCounts["Low Risk"])
}

func TestAnalyticsStaleFillIsNeverServed(t *testing.T) {
	ctx := context.Background()
	cache := newMapCache()
	svc := newTestRecordService(t).UseCache(cache)

	// A fill that lands after a save writes under the old generation.
	stale := PredictionAnalytics{Total: 99, TierCounts: map[string]int{"Low Risk": 99}}
	require.NoError(t, svc.SavePrediction(ctx, &models.PredictionRecord{RiskLabel: "Medium Risk"}))
	require.NoError(t, cache.Set(ctx, AnalyticsCachePrefix+"0:", stale, time.Minute))

	got, err := svc.PredictionAnalytics(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Total)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	svc := newTestRecordService(t)

	_, _, err := svc.Export(ctx, ExportPredictions, "csv")
	assert.ErrorIs(t, err, ErrNoData)
	_, _, err = svc.Export(ctx, "users", "csv")
	assert.ErrorIs(t, err, ErrUnknownExport)

	require.NoError(t, svc.SavePrediction(ctx, &models.PredictionRecord{
		StudentName:   "Ali",
		MathScore:     ptr(72.5),
		Probabilities: []float64{0.5, 0.3, 0.2},
		RiskLabel:     "Low Risk",
	}))

	table, name, err := svc.Export(ctx, ExportPredictions, "csv")
	require.NoError(t, err)
	assert.Equal(t, "predictions_export_20260601_120000.csv", name)

	var buf bytes.Buffer
	require.NoError(t, table.WriteCSV(&buf))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "student_name", rows[0][2])
	assert.Equal(t, "Ali", rows[1][2])
	assert.Equal(t, "72.5", rows[1][4])
	assert.Equal(t, "", rows[1][5])
}

func TestPurgeKeepsRecentAndUnparsable(t *testing.T) {
	ctx := context.Background()
	svc := newTestRecordService(t)

	for _, ts := range []string{
		fixedNow.AddDate(0, 0, -100).Format(models.TimestampLayout),
		fixedNow.AddDate(0, 0, -10).Format(models.TimestampLayout),
		"garbage",
	} {
		require.NoError(t, svc.SavePrediction(ctx, &models.PredictionRecord{Timestamp: ts}))
	}
	old := validObservation("Ayan", "2026-01-01")
	old.Timestamp = "2026-01-01T08:00:00"
	require.NoError(t, svc.SaveObservation(ctx, &old))

	report, err := svc.Purge(ctx, 90)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Predictions)
	assert.Equal(t, 1, report.Observations)

	left, err := svc.Predictions(ctx)
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Equal(t, "garbage", left[1].Timestamp)

	_, err = svc.Purge(ctx, -1)
	assert.Error(t, err)
}

func TestAnalyticsWithDisconnectedCache(t *testing.T) {
	ctx := context.Background()
	svc := newTestRecordService(t).UseCache(NewCacheServiceWithClient(nil))

	require.NoError(t, svc.SavePrediction(ctx, &models.PredictionRecord{RiskLabel: "High Risk"}))
	got, err := svc.PredictionAnalytics(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, got.TierCounts["High Risk"])
}
