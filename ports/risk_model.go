package ports

// RiskModel is a fitted binary classifier. Implementations must be safe for
// concurrent PredictProba calls; callers never mutate a model after fitting.
type RiskModel interface {
	// Family names the classifier family, e.g. "random_forest"
	Family() string

	// FeatureNames lists the frame columns the model consumes, in vector order
	FeatureNames() []string

	// PredictProba returns P(outbreak_risk = 1) for one feature vector. It
	// returns a model-not-fitted error when the model cannot score.
	PredictProba(x []float64) (float64, error)
}

// RiskModelTrainer fits a new model; it never updates an existing one.
type RiskModelTrainer interface {
	Family() string
	Fit(X [][]float64, y []int, featureNames []string) (RiskModel, error)
}
