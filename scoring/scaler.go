package scoring

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Scaler normalizes a feature vector before classification.
type Scaler interface {
	Transform(x []float64) ([]float64, error)
	Dim() int
}

// IdentityScaler passes values through unchanged. It stands in when no
// fitted scaler artifact exists.
type IdentityScaler struct {
	N int
}

func (s IdentityScaler) Transform(x []float64) ([]float64, error) {
	if s.N > 0 && len(x) != s.N {
		return nil, fmt.Errorf("%w: scaler expects %d features, got %d", ErrShapeMismatch, s.N, len(x))
	}
	out := make([]float64, len(x))
	copy(out, x)
	return out, nil
}

func (s IdentityScaler) Dim() int { return s.N }

// StandardScaler computes (x - mean) / scale per feature.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

func (s *StandardScaler) Dim() int { return len(s.Mean) }

func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("%w: scaler expects %d features, got %d", ErrShapeMismatch, len(s.Mean), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (v - s.Mean[i]) / scale
	}
	return out, nil
}

// FitStandardScaler learns per-column mean and population standard
// deviation from rows.
func FitStandardScaler(rows [][]float64) (*StandardScaler, error) {
	if len(rows) == 0 {
		return nil, errors.New("fit scaler: no rows")
	}
	d := len(rows[0])
	s := &StandardScaler{Mean: make([]float64, d), Scale: make([]float64, d)}
	col := make([]float64, len(rows))
	for j := 0; j < d; j++ {
		for i, r := range rows {
			if len(r) != d {
				return nil, fmt.Errorf("fit scaler: row %d has %d features, want %d", i, len(r), d)
			}
			col[i] = r[j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		s.Mean[j] = mean
		s.Scale[j] = std
	}
	return s, nil
}

// MarshalBinary encodes the scaler as a 2×d matrix: mean row, scale row.
func (s *StandardScaler) MarshalBinary() ([]byte, error) {
	d := len(s.Mean)
	data := make([]float64, 0, 2*d)
	data = append(data, s.Mean...)
	data = append(data, s.Scale...)
	return mat.NewDense(2, d, data).MarshalBinary()
}

func (s *StandardScaler) UnmarshalBinary(b []byte) error {
	var m mat.Dense
	if err := m.UnmarshalBinary(b); err != nil {
		return fmt.Errorf("decode scaler: %w", err)
	}
	r, c := m.Dims()
	if r != 2 {
		return fmt.Errorf("decode scaler: want 2 rows, got %d", r)
	}
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	copy(s.Mean, m.RawRowView(0))
	copy(s.Scale, m.RawRowView(1))
	return nil
}
