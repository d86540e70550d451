package classifier

import (
	"math/rand"
	"testing"

	"riskfusion/domain/core"
	"riskfusion/domain/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFeatures = []string{"signal", "noise"}

// separable returns n rows where the label is signal > 0.5 and noise is
// uniform and unrelated to the label.
func separable(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		signal := (float64(i) + 0.5) / float64(n)
		X[i] = []float64{signal, rng.Float64()}
		if signal > 0.5 {
			y[i] = 1
		}
	}
	return X, y
}

func TestForestTrainer_FitsSeparableData(t *testing.T) {
	X, y := separable(40, 7)

	model, err := NewForestTrainer(50, 10, 42).Fit(X, y, testFeatures)
	require.NoError(t, err)
	assert.Equal(t, FamilyRandomForest, model.Family())
	assert.Equal(t, testFeatures, model.FeatureNames())

	scores, err := metrics.Evaluate(model, X, y)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, scores.Accuracy, 0.9)

	low, err := model.PredictProba([]float64{0.05, 0.5})
	require.NoError(t, err)
	high, err := model.PredictProba([]float64{0.95, 0.5})
	require.NoError(t, err)
	assert.Less(t, low, 0.5)
	assert.Greater(t, high, 0.5)
}

func TestForestTrainer_SeededFitIsDeterministic(t *testing.T) {
	X, y := separable(30, 3)

	a, err := NewForestTrainer(40, 6, 99).Fit(X, y, testFeatures)
	require.NoError(t, err)
	b, err := NewForestTrainer(40, 6, 99).Fit(X, y, testFeatures)
	require.NoError(t, err)

	for _, row := range X {
		pa, err := a.PredictProba(row)
		require.NoError(t, err)
		pb, err := b.PredictProba(row)
		require.NoError(t, err)
		assert.Equal(t, pa, pb)
	}
}

func TestForestTrainer_DefaultsAndDepthLimit(t *testing.T) {
	trainer := NewForestTrainer(0, 0, 1)
	assert.Equal(t, DefaultTrees, trainer.Trees)
	assert.Equal(t, DefaultMaxDepth, trainer.MaxDepth)

	X, y := separable(64, 11)
	model, err := NewForestTrainer(10, 2, 5).Fit(X, y, testFeatures)
	require.NoError(t, err)

	rf := model.(*RandomForest)
	assert.Len(t, rf.Trees, 10)
	assert.Equal(t, 1, rf.MaxFeatures)
	for _, tree := range rf.Trees {
		assert.LessOrEqual(t, tree.Depth(), 2)
	}
}

func TestRandomForest_PredictProbaErrors(t *testing.T) {
	empty := &RandomForest{Features: testFeatures}
	_, err := empty.PredictProba([]float64{1, 2})
	assert.True(t, core.IsModelNotFittedError(err))

	X, y := separable(10, 1)
	model, err := NewForestTrainer(5, 3, 1).Fit(X, y, testFeatures)
	require.NoError(t, err)

	_, err = model.PredictProba([]float64{1})
	assert.True(t, core.IsSchemaError(err))
}

func TestFit_RejectsBadTrainingSets(t *testing.T) {
	tests := []struct {
		name  string
		X     [][]float64
		y     []int
		check func(error) bool
	}{
		{"empty", nil, nil, core.IsInsufficientDataError},
		{"ragged row", [][]float64{{1, 2}, {3}}, []int{0, 1}, core.IsSchemaError},
		{"bad label", [][]float64{{1, 2}, {3, 4}}, []int{0, 2}, core.IsSchemaError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewForestTrainer(3, 3, 1).Fit(tt.X, tt.y, testFeatures)
			require.Error(t, err)
			assert.True(t, tt.check(err), err.Error())

			_, err = NewLogisticTrainer(1).Fit(tt.X, tt.y, testFeatures)
			require.Error(t, err)
			assert.True(t, tt.check(err), err.Error())
		})
	}

	_, err := NewForestTrainer(3, 3, 1).Fit([][]float64{{1, 2}}, []int{0, 1}, testFeatures)
	assert.Error(t, err)
}

func TestSingleClassTrainingPredictsThatClass(t *testing.T) {
	X := [][]float64{{1, 2}, {2, 3}, {3, 4}}
	y := []int{0, 0, 0}

	model, err := NewForestTrainer(20, 5, 8).Fit(X, y, testFeatures)
	require.NoError(t, err)

	p, err := model.PredictProba([]float64{2, 2})
	require.NoError(t, err)
	assert.Equal(t, 0.0, p)
}

func TestLogisticTrainer_FitsSeparableData(t *testing.T) {
	X, y := separable(60, 5)

	model, err := NewLogisticTrainer(42).Fit(X, y, testFeatures)
	require.NoError(t, err)
	assert.Equal(t, FamilyLogisticRegression, model.Family())

	scores, err := metrics.Evaluate(model, X, y)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, scores.Accuracy, 0.9)

	for _, row := range X {
		p, err := model.PredictProba(row)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestLogisticTrainer_ConstantFeature(t *testing.T) {
	X := [][]float64{{0, 5}, {1, 5}, {2, 5}, {3, 5}}
	y := []int{0, 0, 1, 1}

	model, err := NewLogisticTrainer(3).Fit(X, y, testFeatures)
	require.NoError(t, err)

	p, err := model.PredictProba([]float64{3, 5})
	require.NoError(t, err)
	assert.Greater(t, p, 0.5)
}

func TestLogisticRegression_NotFitted(t *testing.T) {
	_, err := (&LogisticRegression{}).PredictProba([]float64{1, 2})
	assert.True(t, core.IsModelNotFittedError(err))
}

func TestEncodeDecode_PreservesPredictions(t *testing.T) {
	X, y := separable(20, 2)

	for _, family := range Families() {
		t.Run(family, func(t *testing.T) {
			s := DefaultSettings()
			s.Family = family
			s.Trees = 15
			trainer, err := NewTrainer(s)
			require.NoError(t, err)
			assert.Equal(t, family, trainer.Family())

			model, err := trainer.Fit(X, y, testFeatures)
			require.NoError(t, err)

			payload, err := Encode(model)
			require.NoError(t, err)
			restored, err := Decode(family, payload)
			require.NoError(t, err)
			assert.Equal(t, model.FeatureNames(), restored.FeatureNames())

			for _, row := range X {
				want, err := model.PredictProba(row)
				require.NoError(t, err)
				got, err := restored.PredictProba(row)
				require.NoError(t, err)
				assert.InDelta(t, want, got, 1e-12)
			}
		})
	}
}

func TestNewTrainer_UnknownFamily(t *testing.T) {
	_, err := NewTrainer(Settings{Family: "gradient_boosting"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported model family")

	_, err = Decode("gradient_boosting", []byte(`{}`))
	assert.Error(t, err)
}

func TestMidpoints(t *testing.T) {
	assert.Equal(t, []float64{1.5, 2.5}, midpoints([]float64{3, 1, 2, 2}))
	assert.Empty(t, midpoints([]float64{4, 4}))
}

func TestDecisionTree_Leaf(t *testing.T) {
	_, err := NewDecisionTree(3, 2, 1).Leaf([]float64{1})
	assert.Error(t, err)

	tree := NewDecisionTree(5, 2, 1)
	require.NoError(t, tree.Train([][]float64{{1}, {2}, {3}, {4}}, []int{0, 0, 1, 1}, nil))
	leaf, err := tree.Leaf([]float64{3.5})
	require.NoError(t, err)
	assert.Equal(t, 1, leaf.Class())
	assert.Equal(t, 1, tree.Depth())

	broken := &DecisionTree{Root: &TreeNode{FeatureIndex: 0, Threshold: 2}}
	_, err = broken.Leaf([]float64{1})
	assert.Error(t, err)

	outOfRange := &DecisionTree{Root: &TreeNode{
		FeatureIndex: 99,
		Left:         &TreeNode{IsLeaf: true},
		Right:        &TreeNode{IsLeaf: true},
	}}
	_, err = outOfRange.Leaf([]float64{1})
	assert.Error(t, err)
}

func TestDecode_RejectsMalformedModels(t *testing.T) {
	tests := []struct {
		name    string
		family  string
		payload string
	}{
		{"forest without trees", FamilyRandomForest, `{"feature_names": ["temperature"]}`},
		{"forest without features", FamilyRandomForest,
			`{"trees": [{"root": {"is_leaf": true, "class_counts": [1, 0]}}]}`},
		{"tree without root", FamilyRandomForest, `{"feature_names": ["temperature"], "trees": [{}]}`},
		{"split without children", FamilyRandomForest,
			`{"feature_names": ["temperature"], "trees": [{"root": {"is_leaf": false, "feature_index": 0}}]}`},
		{"split on unknown feature", FamilyRandomForest,
			`{"feature_names": ["temperature"], "trees": [{"root": {"is_leaf": false, "feature_index": 99,
			"left": {"is_leaf": true}, "right": {"is_leaf": true}}}]}`},
		{"logistic without weights", FamilyLogisticRegression, `{"feature_names": ["temperature"]}`},
		{"logistic length mismatch", FamilyLogisticRegression,
			`{"weights": [1, 2], "feature_mean": [0], "feature_scale": [1], "feature_names": ["temperature"]}`},
		{"logistic zero scale", FamilyLogisticRegression,
			`{"weights": [1], "feature_mean": [0], "feature_scale": [0], "feature_names": ["temperature"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.family, []byte(tt.payload))
			require.Error(t, err)
			assert.True(t, core.IsModelNotFittedError(err), err.Error())
		})
	}
}

func TestRandomForest_PredictProbaReportsBrokenTree(t *testing.T) {
	rf := &RandomForest{
		Features: []string{"temperature"},
		Trees:    []*DecisionTree{{Root: &TreeNode{FeatureIndex: 0, Threshold: 2}}},
	}
	_, err := rf.PredictProba([]float64{1})
	require.Error(t, err)
	assert.True(t, core.IsModelNotFittedError(err))
}
