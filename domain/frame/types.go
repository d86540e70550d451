package frame

import (
	"math"
)

// Observation is one row of raw environmental input.
type Observation struct {
	Temperature     float64 `json:"temperature"`
	Humidity        float64 `json:"humidity"`
	Rainfall        float64 `json:"rainfall"`
	VegetationIndex float64 `json:"vegetation_index"`
	SoilMoisture    float64 `json:"soil_moisture"`

	// OutbreakRisk is the ground-truth label (0 or 1); nil when the row is unlabeled.
	OutbreakRisk *int `json:"outbreak_risk,omitempty"`
}

// Vector returns the input features in InputFeatures order.
func (o Observation) Vector() []float64 {
	return []float64{o.Temperature, o.Humidity, o.Rainfall, o.VegetationIndex, o.SoilMoisture}
}

// Labeled reports whether the observation carries a ground-truth label.
func (o Observation) Labeled() bool {
	return o.OutbreakRisk != nil
}

// Validate checks that every input feature is a finite real number.
func (o Observation) Validate(row int) error {
	for i, v := range o.Vector() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return schemaError(InputFeatures[i], row, "value is not a finite number")
		}
	}
	if o.OutbreakRisk != nil && *o.OutbreakRisk != 0 && *o.OutbreakRisk != 1 {
		return schemaError(DefaultLabelColumn, row, "label must be 0 or 1")
	}
	return nil
}

// Label returns a pointer to a label value, for building observations in code.
func Label(v int) *int {
	return &v
}

// RuleOutput is written by the rule engine.
type RuleOutput struct {
	HighRiskFlag int    `json:"rule_high_risk_flag"`
	RiskLevel    string `json:"rule_risk_level"`
}

// ClassifierOutput is written by the risk classifier or the placeholder policy.
type ClassifierOutput struct {
	Probability    float64 `json:"ml_probability"`
	PredictedClass int     `json:"ml_predicted_class"`
}

// NeutrosophicOutput decomposes ml_probability. The three values are mutually
// derived: Falsity = 1 - Truth, Indeterminacy = |0.5 - Truth|.
type NeutrosophicOutput struct {
	Truth         float64 `json:"neutro_truth"`
	Indeterminacy float64 `json:"neutro_indeterminacy"`
	Falsity       float64 `json:"neutro_falsity"`
}

// PriorityScore is the AHP weighted sum.
type PriorityScore struct {
	Score float64 `json:"ahp_priority_score"`
}

// TOPSISOutput is relative to the batch it was computed in.
type TOPSISOutput struct {
	DistanceBest  float64 `json:"topsis_distance_best"`
	DistanceWorst float64 `json:"topsis_distance_worst"`
	Score         float64 `json:"topsis_score"`
}

// GreyOutput is relative to the batch it was computed in.
type GreyOutput struct {
	Grade float64 `json:"grey_relation_grade"`
}

// Record is an observation plus every stage output computed so far. A nil
// stage pointer means that stage's columns are absent.
type Record struct {
	Observation

	// Passthrough holds non-feature input columns verbatim, keyed by header.
	Passthrough map[string]string `json:"passthrough,omitempty"`

	Rule   *RuleOutput         `json:"rule,omitempty"`
	ML     *ClassifierOutput   `json:"ml,omitempty"`
	Neutro *NeutrosophicOutput `json:"neutro,omitempty"`
	AHP    *PriorityScore      `json:"ahp,omitempty"`
	TOPSIS *TOPSISOutput       `json:"topsis,omitempty"`
	Grey   *GreyOutput         `json:"grey,omitempty"`
}

// Value looks up a numeric column on the record. The second result is false
// when the column is unknown or its stage has not run.
func (r *Record) Value(column string) (float64, bool) {
	switch column {
	case ColTemperature:
		return r.Temperature, true
	case ColHumidity:
		return r.Humidity, true
	case ColRainfall:
		return r.Rainfall, true
	case ColVegetationIndex:
		return r.VegetationIndex, true
	case ColSoilMoisture:
		return r.SoilMoisture, true
	case ColRuleHighRiskFlag:
		if r.Rule != nil {
			return float64(r.Rule.HighRiskFlag), true
		}
	case ColMLProbability:
		if r.ML != nil {
			return r.ML.Probability, true
		}
	case ColMLPredictedClass:
		if r.ML != nil {
			return float64(r.ML.PredictedClass), true
		}
	case ColNeutroTruth:
		if r.Neutro != nil {
			return r.Neutro.Truth, true
		}
	case ColNeutroIndeterminacy:
		if r.Neutro != nil {
			return r.Neutro.Indeterminacy, true
		}
	case ColNeutroFalsity:
		if r.Neutro != nil {
			return r.Neutro.Falsity, true
		}
	case ColAHPPriorityScore:
		if r.AHP != nil {
			return r.AHP.Score, true
		}
	case ColTOPSISDistanceBest:
		if r.TOPSIS != nil {
			return r.TOPSIS.DistanceBest, true
		}
	case ColTOPSISDistanceWorst:
		if r.TOPSIS != nil {
			return r.TOPSIS.DistanceWorst, true
		}
	case ColTOPSISScore:
		if r.TOPSIS != nil {
			return r.TOPSIS.Score, true
		}
	case ColGreyRelationGrade:
		if r.Grey != nil {
			return r.Grey.Grade, true
		}
	}
	return 0, false
}

// clone deep-copies the record so stage outputs are never shared between frames.
func (r Record) clone() Record {
	out := r
	if r.OutbreakRisk != nil {
		out.OutbreakRisk = Label(*r.OutbreakRisk)
	}
	if r.Passthrough != nil {
		out.Passthrough = make(map[string]string, len(r.Passthrough))
		for k, v := range r.Passthrough {
			out.Passthrough[k] = v
		}
	}
	if r.Rule != nil {
		v := *r.Rule
		out.Rule = &v
	}
	if r.ML != nil {
		v := *r.ML
		out.ML = &v
	}
	if r.Neutro != nil {
		v := *r.Neutro
		out.Neutro = &v
	}
	if r.AHP != nil {
		v := *r.AHP
		out.AHP = &v
	}
	if r.TOPSIS != nil {
		v := *r.TOPSIS
		out.TOPSIS = &v
	}
	if r.Grey != nil {
		v := *r.Grey
		out.Grey = &v
	}
	return out
}
