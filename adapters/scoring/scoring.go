// Package scoring holds the row scorers of the fusion pipeline: the rule
// engine and the decision-theoretic methods (neutrosophic, AHP, TOPSIS, grey).
//
// TOPSIS and grey relational grades are batch relative: each row is scored
// against the min/max or mean of the batch it arrived in, so the same row can
// score differently in a different batch. Callers that compare scores across
// calls must compare batches of the same composition.
package scoring

import (
	"math"

	"riskfusion/domain/core"
	"riskfusion/domain/frame"
	"riskfusion/ports"
)

// Run applies a stage to a clone of f and returns the enriched clone. The
// input frame is left untouched.
func Run(stage ports.ScoringStage, f *frame.Frame) (*frame.Frame, error) {
	out := f.Clone()
	if err := stage.Apply(out); err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyRuleEngine appends rule_high_risk_flag and rule_risk_level.
func ApplyRuleEngine(f *frame.Frame) (*frame.Frame, error) {
	return Run(NewRuleStage(), f)
}

// ComputeNeutrosophic appends the truth/indeterminacy/falsity decomposition.
func ComputeNeutrosophic(f *frame.Frame) (*frame.Frame, error) {
	return Run(NewNeutrosophicStage(), f)
}

// ComputeAHP appends ahp_priority_score using the default weights.
func ComputeAHP(f *frame.Frame) (*frame.Frame, error) {
	return Run(NewAHPStage(DefaultWeights()), f)
}

// ComputeTOPSIS appends the batch-relative TOPSIS columns.
func ComputeTOPSIS(f *frame.Frame) (*frame.Frame, error) {
	return Run(NewTOPSISStage(), f)
}

// ComputeGrey appends the batch-relative grey relational grade.
func ComputeGrey(f *frame.Frame) (*frame.Frame, error) {
	return Run(NewGreyStage(), f)
}

// Stages returns the non-classifier stages by name, for single-stage runs.
func Stages() map[string]ports.ScoringStage {
	stages := []ports.ScoringStage{
		NewRuleStage(),
		NewNeutrosophicStage(),
		NewAHPStage(DefaultWeights()),
		NewTOPSISStage(),
		NewGreyStage(),
	}
	out := make(map[string]ports.ScoringStage, len(stages))
	for _, s := range stages {
		out[s.Name()] = s
	}
	return out
}

// requireFinite rejects rows whose listed features are not finite numbers.
func requireFinite(f *frame.Frame, columns []string) error {
	for i := range f.Records {
		for _, col := range columns {
			v, ok := f.Records[i].Value(col)
			if !ok {
				return core.NewSchemaError(col, i, "column absent")
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return core.NewSchemaError(col, i, "value is not a finite number")
			}
		}
	}
	return nil
}
