package scoring

import (
	"math"

	"riskfusion/domain/core"
	"riskfusion/domain/frame"
)

// NeutrosophicStage splits ml_probability into truth, indeterminacy and falsity.
type NeutrosophicStage struct{}

// NewNeutrosophicStage creates the neutrosophic decomposition stage
func NewNeutrosophicStage() *NeutrosophicStage {
	return &NeutrosophicStage{}
}

func (s *NeutrosophicStage) Name() string { return "neutrosophic" }

func (s *NeutrosophicStage) Group() frame.ColumnGroup { return frame.GroupNeutrosophic }

// Apply requires the classifier columns; it clips rather than rejects
// probabilities outside [0,1].
func (s *NeutrosophicStage) Apply(f *frame.Frame) error {
	for i := range f.Records {
		if f.Records[i].ML == nil {
			return core.NewSchemaError(frame.ColMLProbability, i, "column absent")
		}
		if math.IsNaN(f.Records[i].ML.Probability) {
			return core.NewSchemaError(frame.ColMLProbability, i, "value is not a number")
		}
	}

	for i := range f.Records {
		f.Records[i].Neutro = Decompose(f.Records[i].ML.Probability)
	}
	f.AddGroup(s.Group())
	return nil
}

// Decompose derives the three components from one probability
func Decompose(probability float64) *frame.NeutrosophicOutput {
	truth := math.Min(math.Max(probability, 0), 1)
	return &frame.NeutrosophicOutput{
		Truth:         truth,
		Indeterminacy: math.Abs(0.5 - truth),
		Falsity:       1 - truth,
	}
}
