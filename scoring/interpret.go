package scoring

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

var ErrUnknownClass = errors.New("unknown risk class")

type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

func (t Tier) Label() string {
	switch t {
	case TierLow:
		return "Low Risk"
	case TierMedium:
		return "Medium Risk"
	default:
		return "High Risk"
	}
}

func (t Tier) Color() string {
	switch t {
	case TierLow:
		return "green"
	case TierMedium:
		return "amber"
	default:
		return "red"
	}
}

// Cut points for PolicyThreshold.
const (
	LowThreshold  = 0.3
	HighThreshold = 0.7
)

var recommendations = map[Tier][]string{
	TierLow: {
		"Maintain current learning pace and methods",
		"Continue regular progress monitoring",
		"Encourage continued engagement in all subjects",
		"Consider enrichment activities to challenge the student",
	},
	TierMedium: {
		"Implement targeted interventions in lower-performing areas",
		"Increase frequency of progress monitoring",
		"Consider additional support in specific subjects",
		"Engage parents in home-based learning activities",
		"Explore different teaching methods and materials",
	},
	TierHigh: {
		"Initiate comprehensive assessment by learning specialists",
		"Implement intensive intervention strategies",
		"Consider individualized education plan (IEP)",
		"Increase collaboration between teachers and parents",
		"Explore assistive technologies and adaptive methods",
		"Regular monitoring and adjustment of intervention strategies",
	},
}

// Recommendations returns a fresh copy of the static list for a tier.
func Recommendations(t Tier) []string {
	src := recommendations[t]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

type Interpretation struct {
	Tier            Tier     `json:"-"`
	RiskLabel       string   `json:"risk_label"`
	DisplayColor    string   `json:"display_color"`
	Confidence      float64  `json:"confidence"`
	ConfidenceText  string   `json:"confidence_display"`
	Recommendations []string `json:"recommendations"`
}

// ThresholdTier buckets a risk probability: below 0.3 is low, below 0.7 is
// medium, anything else is high.
func ThresholdTier(p float64) Tier {
	switch {
	case p < LowThreshold:
		return TierLow
	case p < HighThreshold:
		return TierMedium
	default:
		return TierHigh
	}
}

// FormatConfidence renders a [0,1] confidence as a percentage with one
// decimal, e.g. 0.25 -> "25.0%".
func FormatConfidence(c float64) string {
	return fmt.Sprintf("%.1f%%", c*100)
}

// Interpret maps classifier output to a tier under policy. It has no side
// effects; equal inputs give equal outputs.
func Interpret(policy Policy, res PredictionResult) (Interpretation, error) {
	if len(res.Probabilities) != NumClasses {
		return Interpretation{}, fmt.Errorf("%w: want %d probabilities, got %d", ErrShapeMismatch, NumClasses, len(res.Probabilities))
	}

	var tier Tier
	var confidence float64
	switch policy {
	case PolicyClassIndex:
		if res.PredictedClass < 0 || res.PredictedClass >= NumClasses {
			return Interpretation{}, fmt.Errorf("%w: %d", ErrUnknownClass, res.PredictedClass)
		}
		tier = Tier(res.PredictedClass)
		confidence = floats.Max(res.Probabilities)
	case PolicyThreshold:
		p := RiskProbability(res)
		tier = ThresholdTier(p)
		confidence = p
	default:
		return Interpretation{}, fmt.Errorf("interpret: unsupported policy %s", policy)
	}

	return Interpretation{
		Tier:            tier,
		RiskLabel:       tier.Label(),
		DisplayColor:    tier.Color(),
		Confidence:      confidence,
		ConfidenceText:  FormatConfidence(confidence),
		Recommendations: Recommendations(tier),
	}, nil
}

// RiskProbability is the probability of any risk, 1 - P(class 0).
func RiskProbability(res PredictionResult) float64 {
	if len(res.Probabilities) == 0 {
		return 0
	}
	return 1 - res.Probabilities[0]
}
