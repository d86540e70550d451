// Package metrics scores binary risk predictions against ground truth.
package metrics

import (
	"gonum.org/v1/gonum/stat"
)

// Predictor is anything that yields a positive-class probability for a row.
type Predictor interface {
	PredictProba(x []float64) (float64, error)
}

// Metrics are in-sample binary classification scores, positive class 1.
type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
}

// AsMap flattens the metrics for storage alongside a model.
func (m Metrics) AsMap() map[string]float64 {
	return map[string]float64{
		"accuracy":  m.Accuracy,
		"precision": m.Precision,
		"recall":    m.Recall,
		"f1_score":  m.F1,
	}
}

// Evaluate scores a model on X with a 0.5 decision threshold.
func Evaluate(model Predictor, X [][]float64, y []int) (Metrics, error) {
	predicted := make([]int, len(X))
	for i, row := range X {
		p, err := model.PredictProba(row)
		if err != nil {
			return Metrics{}, err
		}
		predicted[i] = PredictedClass(p)
	}
	return ClassificationMetrics(predicted, y), nil
}

// PredictedClass thresholds a probability at 0.5.
func PredictedClass(p float64) int {
	if p >= 0.5 {
		return 1
	}
	return 0
}

// ClassificationMetrics compares predictions to labels. Precision and recall
// are 0 when their denominators are empty.
func ClassificationMetrics(predicted, actual []int) Metrics {
	if len(actual) == 0 {
		return Metrics{}
	}

	correct := make([]float64, len(actual))
	var tp, fp, fn float64
	for i := range actual {
		if predicted[i] == actual[i] {
			correct[i] = 1
		}
		switch {
		case predicted[i] == 1 && actual[i] == 1:
			tp++
		case predicted[i] == 1 && actual[i] == 0:
			fp++
		case predicted[i] == 0 && actual[i] == 1:
			fn++
		}
	}

	m := Metrics{Accuracy: stat.Mean(correct, nil)}
	if tp+fp > 0 {
		m.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		m.Recall = tp / (tp + fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}
