package scoring

import (
	"fmt"
	"math"

	"riskfusion/domain/frame"

	"gonum.org/v1/gonum/floats"
)

// Weights are the AHP criterion weights. They must sum to 1.0 (±0.001).
type Weights struct {
	Temperature     float64
	Humidity        float64
	Rainfall        float64
	VegetationIndex float64
	SoilMoisture    float64
}

// DefaultWeights returns the fixed outbreak priority weights.
func DefaultWeights() Weights {
	return Weights{
		Temperature:     0.3,
		Humidity:        0.2,
		Rainfall:        0.2,
		VegetationIndex: 0.2,
		SoilMoisture:    0.1,
	}
}

// Vector returns the weights in frame.InputFeatures order.
func (w Weights) Vector() []float64 {
	return []float64{w.Temperature, w.Humidity, w.Rainfall, w.VegetationIndex, w.SoilMoisture}
}

// Validate checks that weights sum to 1.0 and none are negative.
func (w Weights) Validate() error {
	v := w.Vector()
	if sum := floats.Sum(v); math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("weights must sum to 1.0, got %.4f", sum)
	}
	for i, x := range v {
		if x < 0 {
			return fmt.Errorf("weight for %s is negative: %.4f", frame.InputFeatures[i], x)
		}
	}
	return nil
}

// AHPStage is a fixed-weight linear priority score over the raw features.
// There is no normalization step: out-of-range inputs are scored as they are.
type AHPStage struct {
	weights []float64
}

// NewAHPStage creates an AHP stage. Invalid weights panic, since they can
// only come from code.
func NewAHPStage(w Weights) *AHPStage {
	if err := w.Validate(); err != nil {
		panic(err)
	}
	return &AHPStage{weights: w.Vector()}
}

func (s *AHPStage) Name() string { return "ahp" }

func (s *AHPStage) Group() frame.ColumnGroup { return frame.GroupAHP }

// Apply appends ahp_priority_score
func (s *AHPStage) Apply(f *frame.Frame) error {
	if err := requireFinite(f, frame.InputFeatures); err != nil {
		return err
	}

	for i := range f.Records {
		f.Records[i].AHP = &frame.PriorityScore{
			Score: floats.Dot(s.weights, f.Records[i].Vector()),
		}
	}
	f.AddGroup(s.Group())
	return nil
}
