package scoring

import (
	"riskfusion/domain/frame"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
)

// GreyStage grades each row by its closeness to the batch mean vector:
// grade = 1 / (1 + sum of absolute deviations). Grades lie in (0,1] and a row
// equal to the mean scores exactly 1.
type GreyStage struct{}

// NewGreyStage creates the grey relational stage
func NewGreyStage() *GreyStage {
	return &GreyStage{}
}

func (s *GreyStage) Name() string { return "grey" }

func (s *GreyStage) Group() frame.ColumnGroup { return frame.GroupGrey }

// Apply appends grey_relation_grade
func (s *GreyStage) Apply(f *frame.Frame) error {
	if err := requireFinite(f, frame.InputFeatures); err != nil {
		return err
	}
	if f.Len() == 0 {
		f.AddGroup(s.Group())
		return nil
	}

	reference, err := BatchMean(f)
	if err != nil {
		return err
	}

	for i := range f.Records {
		deviation := floats.Distance(f.Records[i].Vector(), reference, 1)
		f.Records[i].Grey = &frame.GreyOutput{Grade: 1 / (1 + deviation)}
	}
	f.AddGroup(s.Group())
	return nil
}

// BatchMean returns the per-feature mean over the batch, in InputFeatures order.
func BatchMean(f *frame.Frame) ([]float64, error) {
	mean := make([]float64, len(frame.InputFeatures))
	for j, name := range frame.InputFeatures {
		column, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		m, err := stats.Mean(column)
		if err != nil {
			return nil, err
		}
		mean[j] = m
	}
	return mean, nil
}
