package scoring

import (
	"riskfusion/domain/frame"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
)

// TOPSISTieScore is the score of a row that sits on both ideal points, which
// only happens in single-row or fully constant batches.
const TOPSISTieScore = 0.5

// TOPSISStage ranks rows by relative distance to the batch's best and worst
// normalized vectors. Normalization is min-max per column over this batch
// only; no state is kept between calls.
type TOPSISStage struct{}

// NewTOPSISStage creates the TOPSIS stage
func NewTOPSISStage() *TOPSISStage {
	return &TOPSISStage{}
}

func (s *TOPSISStage) Name() string { return "topsis" }

func (s *TOPSISStage) Group() frame.ColumnGroup { return frame.GroupTOPSIS }

// Apply appends topsis_distance_best, topsis_distance_worst and topsis_score
func (s *TOPSISStage) Apply(f *frame.Frame) error {
	if err := requireFinite(f, frame.InputFeatures); err != nil {
		return err
	}
	if f.Len() == 0 {
		f.AddGroup(s.Group())
		return nil
	}

	normalized, err := MinMaxNormalize(f)
	if err != nil {
		return err
	}

	nCols := len(frame.InputFeatures)
	best := make([]float64, nCols)
	worst := make([]float64, nCols)
	for j := 0; j < nCols; j++ {
		column := make([]float64, len(normalized))
		for i := range normalized {
			column[i] = normalized[i][j]
		}
		best[j] = floats.Max(column)
		worst[j] = floats.Min(column)
	}

	for i, row := range normalized {
		dBest := floats.Distance(row, best, 2)
		dWorst := floats.Distance(row, worst, 2)
		score := TOPSISTieScore
		if total := dBest + dWorst; total > 0 {
			score = dWorst / total
		}
		f.Records[i].TOPSIS = &frame.TOPSISOutput{
			DistanceBest:  dBest,
			DistanceWorst: dWorst,
			Score:         score,
		}
	}
	f.AddGroup(s.Group())
	return nil
}

// MinMaxNormalize scales each input feature to [0,1] over the batch. A
// constant column normalizes to 0 for every row.
func MinMaxNormalize(f *frame.Frame) ([][]float64, error) {
	raw, err := f.Matrix(frame.InputFeatures)
	if err != nil {
		return nil, err
	}

	nCols := len(frame.InputFeatures)
	mins := make([]float64, nCols)
	spans := make([]float64, nCols)
	for j, name := range frame.InputFeatures {
		column, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		lo, err := stats.Min(column)
		if err != nil {
			return nil, err
		}
		hi, err := stats.Max(column)
		if err != nil {
			return nil, err
		}
		mins[j] = lo
		spans[j] = hi - lo
	}

	out := make([][]float64, len(raw))
	for i, row := range raw {
		out[i] = make([]float64, nCols)
		for j, v := range row {
			if spans[j] > 0 {
				out[i][j] = (v - mins[j]) / spans[j]
			}
		}
	}
	return out, nil
}
