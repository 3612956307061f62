package scoring

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LabelColumn names the class column in a training CSV.
const LabelColumn = "label"

// TrainingSet is a labeled matrix in the variant's feature order.
type TrainingSet struct {
	Rows   [][]float64
	Labels []int
}

// ReadTrainingCSV reads rows with a header naming every feature of the
// variant plus a label column. Labels may be 0/1/2 or Low/Medium/High.
func ReadTrainingCSV(r io.Reader, spec VariantSpec) (*TrainingSet, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	cols := make([]int, spec.Dim())
	for i, name := range spec.FieldNames() {
		c, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%w: column %s", ErrMissingField, name)
		}
		cols[i] = c
	}
	labelCol, ok := index[LabelColumn]
	if !ok {
		return nil, fmt.Errorf("%w: column %s", ErrMissingField, LabelColumn)
	}

	set := &TrainingSet{}
	line := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row := make([]float64, len(cols))
		for i, c := range cols {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[c]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, header[c], err)
			}
			row[i] = v
		}
		label, err := parseLabel(rec[labelCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		set.Rows = append(set.Rows, row)
		set.Labels = append(set.Labels, label)
	}
	if len(set.Rows) == 0 {
		return nil, errors.New("training csv has no rows")
	}
	return set, nil
}

func parseLabel(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "low", "low risk":
		return 0, nil
	case "1", "medium", "medium risk":
		return 1, nil
	case "2", "high", "high risk":
		return 2, nil
	}
	return 0, fmt.Errorf("%w: label %q", ErrUnknownClass, s)
}

// Fit learns a scaler and classifier for a training set.
func Fit(set *TrainingSet, opts TrainOptions) (*StandardScaler, *Model, error) {
	scaler, err := FitStandardScaler(set.Rows)
	if err != nil {
		return nil, nil, err
	}
	scaled := make([][]float64, len(set.Rows))
	for i, row := range set.Rows {
		if scaled[i], err = scaler.Transform(row); err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	model, err := Train(scaled, set.Labels, opts)
	if err != nil {
		return nil, nil, err
	}
	return scaler, model, nil
}
