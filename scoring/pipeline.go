package scoring

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"eduscan-api/pkg/logging"
)

// Engine is one variant's loaded scaler and classifier.
type Engine struct {
	Spec          VariantSpec
	Scaler        Scaler
	DefaultScaler bool
	State         ClassifierState
}

// LoadEngine loads the variant's artifacts from modelDir. A missing or
// unusable scaler degrades to IdentityScaler; a missing or unusable
// classifier degrades to the Fallback demo model. Neither is an error.
// The demo model is fit on raw form values, so a Fallback engine always
// runs with IdentityScaler even when a scaler artifact loaded.
func LoadEngine(spec VariantSpec, modelDir string, logger *logging.StructuredLogger) *Engine {
	ctx := context.Background()
	d := spec.Dim()
	e := &Engine{Spec: spec}

	scalerPath := ScalerPath(modelDir, spec.Name)
	scaler, err := LoadScaler(scalerPath)
	if err == nil && scaler.Dim() != d {
		err = fmt.Errorf("%w: scaler has %d features, variant needs %d", ErrShapeMismatch, scaler.Dim(), d)
	}
	if err != nil {
		logger.Warn(ctx, "[SCORING] scaler artifact unavailable, using identity scaler", logging.Fields{
			"variant": spec.Name,
			"path":    scalerPath,
			"reason":  err.Error(),
		})
		e.Scaler = IdentityScaler{N: d}
		e.DefaultScaler = true
	} else {
		e.Scaler = scaler
	}

	modelPath := ClassifierPath(modelDir, spec.Name)
	model, err := LoadModel(modelPath)
	if err == nil && model.Dim() != d {
		err = fmt.Errorf("%w: classifier has %d features, variant needs %d", ErrShapeMismatch, model.Dim(), d)
	}
	if err != nil {
		logger.Warn(ctx, "[SCORING] classifier artifact unavailable, using demo model", logging.Fields{
			"variant": spec.Name,
			"path":    modelPath,
			"reason":  err.Error(),
		})
		e.State = Fallback{Model: TrainFallback(d), Reason: err}
		if !e.DefaultScaler {
			logger.Warn(ctx, "[SCORING] ignoring scaler artifact for demo model", logging.Fields{
				"variant": spec.Name,
				"path":    scalerPath,
			})
		}
		e.Scaler = IdentityScaler{N: d}
		e.DefaultScaler = true
	} else {
		e.State = Trained{Model: model, Path: modelPath}
	}
	return e
}

// Outcome is the full result of scoring one input.
type Outcome struct {
	Variant        Variant          `json:"variant"`
	Vector         []float64        `json:"feature_vector"`
	Prediction     PredictionResult `json:"prediction"`
	Interpretation Interpretation   `json:"interpretation"`
	Fallback       bool             `json:"fallback"`
	DefaultScaler  bool             `json:"default_scaler"`
}

// Score runs Validate, BuildVector, the scaler, the classifier and
// Interpret in that order. Validation failures stop before any vector is
// built.
func (e *Engine) Score(in Input) (*Outcome, error) {
	if msgs := Validate(e.Spec.Fields, in); len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}
	vec, err := buildVector(e.Spec, in)
	if err != nil {
		return nil, err
	}
	scaled, err := e.Scaler.Transform(vec)
	if err != nil {
		return nil, fmt.Errorf("scale: %w", err)
	}
	res, err := e.State.classifier().Predict(scaled)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	interp, err := Interpret(e.Spec.Policy, res)
	if err != nil {
		return nil, fmt.Errorf("interpret: %w", err)
	}
	return &Outcome{
		Variant:        e.Spec.Name,
		Vector:         vec,
		Prediction:     res,
		Interpretation: interp,
		Fallback:       e.State.IsFallback(),
		DefaultScaler:  e.DefaultScaler,
	}, nil
}

// Pipeline dispatches to one Engine per variant.
type Pipeline struct {
	mu             sync.RWMutex
	engines        map[Variant]*Engine
	defaultVariant Variant
	logger         *logging.StructuredLogger
}

// NewPipeline loads an engine for every known variant from modelDir.
func NewPipeline(modelDir string, defaultVariant Variant, logger *logging.StructuredLogger) (*Pipeline, error) {
	engines := make([]*Engine, 0, len(variants))
	for _, v := range Variants() {
		spec, _ := Lookup(v)
		engines = append(engines, LoadEngine(spec, modelDir, logger))
	}
	return NewPipelineWithEngines(defaultVariant, logger, engines...)
}

func NewPipelineWithEngines(defaultVariant Variant, logger *logging.StructuredLogger, engines ...*Engine) (*Pipeline, error) {
	p := &Pipeline{
		engines:        make(map[Variant]*Engine, len(engines)),
		defaultVariant: defaultVariant,
		logger:         logger,
	}
	for _, e := range engines {
		p.engines[e.Spec.Name] = e
	}
	if _, ok := p.engines[defaultVariant]; !ok {
		return nil, fmt.Errorf("%w: default %q has no engine", ErrUnknownVariant, string(defaultVariant))
	}
	return p, nil
}

func (p *Pipeline) DefaultVariant() Variant {
	return p.defaultVariant
}

// Engine returns the engine for v, or the default engine when v is empty.
func (p *Pipeline) Engine(v Variant) (*Engine, error) {
	if v == "" {
		v = p.defaultVariant
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.engines[v]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, string(v))
	}
	return e, nil
}

// Reload swaps in freshly loaded artifacts for one variant.
func (p *Pipeline) Reload(v Variant, modelDir string) error {
	spec, err := Lookup(v)
	if err != nil {
		return err
	}
	e := LoadEngine(spec, modelDir, p.logger)
	p.mu.Lock()
	p.engines[v] = e
	p.mu.Unlock()
	return nil
}

func (p *Pipeline) Score(ctx context.Context, variant Variant, in Input) (*Outcome, error) {
	e, err := p.Engine(variant)
	if err != nil {
		return nil, err
	}
	out, err := e.Score(in)
	if err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) && !errors.Is(err, ErrMissingField) {
			p.logger.Error(ctx, "[SCORING] prediction failed", logging.Fields{"variant": e.Spec.Name}, err)
		}
		return nil, err
	}
	return out, nil
}
