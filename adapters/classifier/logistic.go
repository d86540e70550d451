package classifier

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"riskfusion/domain/core"
	"riskfusion/ports"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FamilyLogisticRegression names the logistic regression family.
const FamilyLogisticRegression = "logistic_regression"

// LogisticRegression is a binary sigmoid model over standardized features.
type LogisticRegression struct {
	W        []float64 `json:"weights"`
	B        float64   `json:"bias"`
	Mean     []float64 `json:"feature_mean"`
	Scale    []float64 `json:"feature_scale"`
	Features []string  `json:"feature_names"`
}

var _ ports.RiskModel = (*LogisticRegression)(nil)

func (m *LogisticRegression) Family() string { return FamilyLogisticRegression }

func (m *LogisticRegression) FeatureNames() []string {
	return append([]string(nil), m.Features...)
}

// PredictProba returns sigmoid(w·z + b) for the standardized row z.
func (m *LogisticRegression) PredictProba(x []float64) (float64, error) {
	if len(m.W) == 0 || len(m.W) != len(m.Mean) || len(m.W) != len(m.Scale) {
		return 0, core.NewModelNotFittedError("logistic regression has no weights")
	}
	if len(x) != len(m.W) {
		return 0, core.NewSchemaError("features", -1,
			fmt.Sprintf("expected %d features, got %d", len(m.W), len(x)))
	}
	return sigmoid(floats.Dot(m.W, m.standardize(x)) + m.B), nil
}

// validate checks a decoded model before it is used for prediction.
func (m *LogisticRegression) validate() error {
	n := len(m.W)
	if n == 0 {
		return core.NewModelNotFittedError("logistic regression has no weights")
	}
	if len(m.Mean) != n || len(m.Scale) != n || len(m.Features) != n {
		return core.NewModelNotFittedError(fmt.Sprintf(
			"logistic regression has %d weights, %d means, %d scales and %d features",
			n, len(m.Mean), len(m.Scale), len(m.Features)))
	}
	for j, s := range m.Scale {
		if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return core.NewModelNotFittedError(fmt.Sprintf("feature %s has scale %v", m.Features[j], s))
		}
	}
	return nil
}

func (m *LogisticRegression) standardize(x []float64) []float64 {
	z := make([]float64, len(x))
	for j, v := range x {
		z[j] = (v - m.Mean[j]) / m.Scale[j]
	}
	return z
}

// LogisticTrainer fits LogisticRegression with mini-batch gradient descent on
// the binary cross-entropy loss.
type LogisticTrainer struct {
	LearningRate float64
	Epochs       int
	BatchSize    int
	Seed         int64
}

var _ ports.RiskModelTrainer = (*LogisticTrainer)(nil)

// NewLogisticTrainer creates a trainer with fixed optimisation settings.
func NewLogisticTrainer(seed int64) *LogisticTrainer {
	return &LogisticTrainer{
		LearningRate: 0.1,
		Epochs:       500,
		BatchSize:    32,
		Seed:         seed,
	}
}

func (t *LogisticTrainer) Family() string { return FamilyLogisticRegression }

func (t *LogisticTrainer) Fit(X [][]float64, y []int, featureNames []string) (ports.RiskModel, error) {
	if err := checkTrainingSet(X, y, featureNames); err != nil {
		return nil, err
	}

	seed := t.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	nFeatures := len(featureNames)
	m := &LogisticRegression{
		W:        make([]float64, nFeatures),
		Mean:     make([]float64, nFeatures),
		Scale:    make([]float64, nFeatures),
		Features: append([]string(nil), featureNames...),
	}
	for j := 0; j < nFeatures; j++ {
		column := make([]float64, len(X))
		for i := range X {
			column[i] = X[i][j]
		}
		mean, std := stat.MeanStdDev(column, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		m.Mean[j], m.Scale[j] = mean, std
	}
	for j := range m.W {
		m.W[j] = rng.NormFloat64() * 0.01
	}

	Z := make([][]float64, len(X))
	for i, row := range X {
		Z[i] = m.standardize(row)
	}

	batchSize := t.BatchSize
	if batchSize <= 0 || batchSize > len(Z) {
		batchSize = len(Z)
	}

	order := make([]int, len(Z))
	for i := range order {
		order[i] = i
	}
	gW := make([]float64, nFeatures)
	for ep := 0; ep < t.Epochs; ep++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		for start := 0; start < len(order); start += batchSize {
			end := min(start+batchSize, len(order))
			for j := range gW {
				gW[j] = 0
			}
			gb := 0.0
			for _, idx := range order[start:end] {
				// d(BCE)/d(logit) = p - y
				d := sigmoid(floats.Dot(m.W, Z[idx])+m.B) - float64(y[idx])
				floats.AddScaled(gW, d, Z[idx])
				gb += d
			}
			n := float64(end - start)
			floats.AddScaled(m.W, -t.LearningRate/n, gW)
			m.B -= t.LearningRate * gb / n
		}
	}
	return m, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
