package scoring

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// NumClasses is fixed: 0 = low, 1 = medium, 2 = high.
const NumClasses = 3

var ErrShapeMismatch = errors.New("feature vector shape mismatch")

// PredictionResult is the raw classifier output for one vector.
type PredictionResult struct {
	PredictedClass int       `json:"predicted_class"`
	Probabilities  []float64 `json:"class_probabilities"`
}

// Model is a multinomial logistic regression. Row k of w holds the bias
// (column 0) and per-feature weights for class k.
type Model struct {
	w *mat.Dense
}

func NewModel(w *mat.Dense) (*Model, error) {
	r, c := w.Dims()
	if r != NumClasses || c < 2 {
		return nil, fmt.Errorf("model weights must be %d×(d+1), got %d×%d", NumClasses, r, c)
	}
	return &Model{w: w}, nil
}

// Dim is the number of features the model accepts.
func (m *Model) Dim() int {
	_, c := m.w.Dims()
	return c - 1
}

// Predict returns class probabilities summing to 1 and the argmax class.
func (m *Model) Predict(x []float64) (PredictionResult, error) {
	if len(x) != m.Dim() {
		return PredictionResult{}, fmt.Errorf("%w: model expects %d features, got %d", ErrShapeMismatch, m.Dim(), len(x))
	}
	xb := make([]float64, len(x)+1)
	xb[0] = 1
	copy(xb[1:], x)

	var logits mat.VecDense
	logits.MulVec(m.w, mat.NewVecDense(len(xb), xb))
	probs := softmax(logits.RawVector().Data)
	return PredictionResult{
		PredictedClass: floats.MaxIdx(probs),
		Probabilities:  probs,
	}, nil
}

func (m *Model) MarshalBinary() ([]byte, error) {
	return m.w.MarshalBinary()
}

func (m *Model) UnmarshalBinary(b []byte) error {
	var w mat.Dense
	if err := w.UnmarshalBinary(b); err != nil {
		return fmt.Errorf("decode model: %w", err)
	}
	loaded, err := NewModel(&w)
	if err != nil {
		return err
	}
	*m = *loaded
	return nil
}

func softmax(z []float64) []float64 {
	out := make([]float64, len(z))
	max := floats.Max(z)
	for i, v := range z {
		out[i] = math.Exp(v - max)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}

type TrainOptions struct {
	Iterations   int
	LearningRate float64
	L2           float64
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{Iterations: 300, LearningRate: 0.5, L2: 1e-3}
}

// Train fits a softmax model by batch gradient descent. Features are
// standardized internally and the scaling is folded back into the weights,
// so the returned model accepts inputs on the same scale as X.
func Train(X [][]float64, y []int, opts TrainOptions) (*Model, error) {
	n := len(X)
	if n == 0 {
		return nil, errors.New("train: no rows")
	}
	if len(y) != n {
		return nil, fmt.Errorf("train: %d rows but %d labels", n, len(y))
	}
	for i, label := range y {
		if label < 0 || label >= NumClasses {
			return nil, fmt.Errorf("train: row %d has label %d outside [0,%d)", i, label, NumClasses)
		}
	}
	norm, err := FitStandardScaler(X)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	d := norm.Dim()

	design := mat.NewDense(n, d+1, nil)
	target := mat.NewDense(n, NumClasses, nil)
	for i, row := range X {
		z, err := norm.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("train: row %d: %w", i, err)
		}
		design.SetRow(i, append([]float64{1}, z...))
		target.Set(i, y[i], 1)
	}

	w := mat.NewDense(NumClasses, d+1, nil)
	probs := mat.NewDense(n, NumClasses, nil)
	var logits, diff, grad, step mat.Dense
	for it := 0; it < opts.Iterations; it++ {
		logits.Mul(design, w.T())
		for i := 0; i < n; i++ {
			probs.SetRow(i, softmax(logits.RawRowView(i)))
		}
		diff.Sub(probs, target)
		grad.Mul(diff.T(), design)
		grad.Scale(1/float64(n), &grad)
		if opts.L2 > 0 {
			step.Scale(opts.L2, w)
			grad.Add(&grad, &step)
		}
		step.Scale(opts.LearningRate, &grad)
		w.Sub(w, &step)
	}

	folded := mat.NewDense(NumClasses, d+1, nil)
	for k := 0; k < NumClasses; k++ {
		bias := w.At(k, 0)
		for j := 0; j < d; j++ {
			wkj := w.At(k, j+1) / norm.Scale[j]
			folded.Set(k, j+1, wkj)
			bias -= wkj * norm.Mean[j]
		}
		folded.Set(k, 0, bias)
	}
	return NewModel(folded)
}

const (
	fallbackSeed = 42
	fallbackRows = 100
)

// TrainFallback builds the demo model used when no artifact is available:
// uniform [0,100) features with random labels, from a fixed seed.
func TrainFallback(d int) *Model {
	rng := rand.New(rand.NewSource(fallbackSeed))
	X := make([][]float64, fallbackRows)
	y := make([]int, fallbackRows)
	for i := range X {
		row := make([]float64, d)
		for j := range row {
			row[j] = rng.Float64() * 100
		}
		X[i] = row
		y[i] = rng.Intn(NumClasses)
	}
	m, err := Train(X, y, DefaultTrainOptions())
	if err != nil {
		// inputs above are always well formed
		panic(fmt.Sprintf("train fallback model: %v", err))
	}
	return m
}

// ClassifierState is either Trained or Fallback. Callers type-switch on it
// so a fallback prediction is never mistaken for an authoritative one.
type ClassifierState interface {
	classifier() *Model
	IsFallback() bool
}

// Trained wraps a model loaded from an artifact.
type Trained struct {
	Model *Model
	Path  string
}

func (t Trained) classifier() *Model { return t.Model }
func (t Trained) IsFallback() bool   { return false }

// Fallback wraps the synthetic demo model and the reason it is in use.
type Fallback struct {
	Model  *Model
	Reason error
}

func (f Fallback) classifier() *Model { return f.Model }
func (f Fallback) IsFallback() bool   { return true }
