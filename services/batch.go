package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"eduscan-api/pkg/logging"
	"eduscan-api/pkg/metrics"
	"eduscan-api/scoring"
)

// BatchVariant is the variant batch files are scored with unless the
// caller names another. Its columns match the upload template.
const BatchVariant = scoring.VariantScreening

// columnAliases maps short upload headers to feature names.
var columnAliases = map[string]string{
	"behavior":      scoring.FieldBehavior,
	"literacy":      scoring.FieldLiteracy,
	"attention":     scoring.FieldAttentionSpan,
	"participation": scoring.FieldClassParticipation,
	"homework":      scoring.FieldHomeworkCompletion,
}

var nameColumns = []string{"student_name", "name"}

type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "Missing required columns: " + strings.Join(e.Columns, ", ")
}

type BatchRow struct {
	StudentID       int                `json:"student_id"`
	StudentName     string             `json:"student_name,omitempty"`
	Values          map[string]float64 `json:"values"`
	RiskLabel       string             `json:"risk_label,omitempty"`
	RiskProbability string             `json:"risk_probability,omitempty"`
	Confidence      float64            `json:"confidence,omitempty"`
	Error           string             `json:"error,omitempty"`
}

type BatchResult struct {
	Variant      scoring.Variant `json:"variant"`
	Fields       []string        `json:"fields"`
	Rows         []BatchRow      `json:"rows"`
	Processed    int             `json:"processed"`
	Failed       int             `json:"failed"`
	Distribution map[string]int  `json:"distribution"`
	Fallback     bool            `json:"fallback"`
}

type BatchService struct {
	pipeline *scoring.Pipeline
	metrics  *metrics.Collector
	logger   *logging.StructuredLogger
}

func NewBatchService(p *scoring.Pipeline, m *metrics.Collector, logger *logging.StructuredLogger) *BatchService {
	return &BatchService{pipeline: p, metrics: m, logger: logger}
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	if alias, ok := columnAliases[h]; ok {
		return alias
	}
	return h
}

// Process scores every row of t. A bad row is reported on that row and
// never stops the batch; only missing columns fail the whole file.
func (s *BatchService) Process(ctx context.Context, variant scoring.Variant, t Table) (*BatchResult, error) {
	if variant == "" {
		variant = BatchVariant
	}
	engine, err := s.pipeline.Engine(variant)
	if err != nil {
		return nil, err
	}
	fields := engine.Spec.FieldNames()

	index := map[string]int{}
	for i, h := range t.Header {
		key := normalizeHeader(h)
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	var missing []string
	for _, f := range fields {
		if _, ok := index[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}
	nameCol := -1
	for _, c := range nameColumns {
		if i, ok := index[c]; ok {
			nameCol = i
			break
		}
	}

	res := &BatchResult{
		Variant:  engine.Spec.Name,
		Fields:   fields,
		Rows:     make([]BatchRow, 0, len(t.Rows)),
		Fallback: engine.State.IsFallback(),
		Distribution: map[string]int{
			scoring.TierLow.Label():    0,
			scoring.TierMedium.Label(): 0,
			scoring.TierHigh.Label():   0,
		},
	}

	for n, raw := range t.Rows {
		row := BatchRow{StudentID: n + 1, Values: map[string]float64{}}
		if nameCol >= 0 && nameCol < len(raw) {
			row.StudentName = strings.TrimSpace(raw[nameCol])
		}
		if err := s.scoreRow(ctx, engine.Spec.Name, index, fields, raw, &row); err != nil {
			row.Error = err.Error()
			res.Failed++
			s.recordRow("failed")
		} else {
			res.Processed++
			res.Distribution[row.RiskLabel]++
			s.recordRow("scored")
		}
		res.Rows = append(res.Rows, row)
	}

	s.logger.Info(ctx, "[BATCH] file scored", logging.Fields{
		"variant":   string(engine.Spec.Name),
		"processed": res.Processed,
		"failed":    res.Failed,
	})
	return res, nil
}

func (s *BatchService) scoreRow(ctx context.Context, variant scoring.Variant, index map[string]int, fields []string, raw []string, row *BatchRow) error {
	in := scoring.Input{}
	for _, f := range fields {
		i := index[f]
		if i >= len(raw) || strings.TrimSpace(raw[i]) == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw[i]), 64)
		if err != nil {
			return fmt.Errorf("invalid number %q in %s", raw[i], f)
		}
		in[f] = v
		row.Values[f] = v
	}

	timer := metrics.NewTimer()
	out, err := s.pipeline.Score(ctx, variant, in)
	if err != nil {
		var verr *scoring.ValidationError
		if errors.As(err, &verr) {
			return errors.New(strings.Join(verr.Messages, "; "))
		}
		if errors.Is(err, scoring.ErrMissingField) {
			return err
		}
		return errors.New("prediction failed")
	}
	if s.metrics != nil {
		s.metrics.RecordPrediction(string(variant), out.Interpretation.RiskLabel, out.Fallback, timer.Duration())
	}
	row.RiskLabel = out.Interpretation.RiskLabel
	row.Confidence = out.Interpretation.Confidence
	row.RiskProbability = scoring.FormatConfidence(scoring.RiskProbability(out.Prediction))
	return nil
}

func (s *BatchService) recordRow(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordBatchRow(outcome)
	}
}

// Table renders the result for download.
func (r *BatchResult) Table() Table {
	t := Table{Header: append([]string{"Student_ID", "Student_Name", "Risk_Level", "Risk_Probability"}, r.Fields...)}
	t.Header = append(t.Header, "Error")
	for _, row := range r.Rows {
		line := []string{strconv.Itoa(row.StudentID), row.StudentName, row.RiskLabel, row.RiskProbability}
		for _, f := range r.Fields {
			if v, ok := row.Values[f]; ok {
				line = append(line, formatFloat(v))
			} else {
				line = append(line, "")
			}
		}
		t.Rows = append(t.Rows, append(line, row.Error))
	}
	return t
}

// BatchFilename is learning_risk_predictions_YYYYMMDD.<ext>.
func BatchFilename(ext string, at time.Time) string {
	return fmt.Sprintf("learning_risk_predictions_%s.%s", at.Format("20060102"), ext)
}
