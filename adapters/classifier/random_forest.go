package classifier

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"riskfusion/domain/core"
	"riskfusion/ports"

	"golang.org/x/sync/semaphore"
)

// Forest defaults
const (
	DefaultTrees    = 300
	DefaultMaxDepth = 10
	DefaultSeed     = 42
)

// FamilyRandomForest names the random forest family in config and model files.
const FamilyRandomForest = "random_forest"

// RandomForest is a bagged ensemble of gini trees. The positive-class
// probability is the fraction of trees voting 1.
type RandomForest struct {
	Trees       []*DecisionTree `json:"trees"`
	NumTrees    int             `json:"num_trees"`
	MaxDepth    int             `json:"max_depth"`
	MaxFeatures int             `json:"max_features"`
	Features    []string        `json:"feature_names"`
	Seed        int64           `json:"seed"`
}

var _ ports.RiskModel = (*RandomForest)(nil)

func (rf *RandomForest) Family() string { return FamilyRandomForest }

// FeatureNames returns the training features in vector order.
func (rf *RandomForest) FeatureNames() []string {
	return append([]string(nil), rf.Features...)
}

// PredictProba returns the share of trees that vote for the positive class.
func (rf *RandomForest) PredictProba(x []float64) (float64, error) {
	if len(rf.Trees) == 0 {
		return 0, core.NewModelNotFittedError("random forest has no trees")
	}
	if len(x) != len(rf.Features) {
		return 0, core.NewSchemaError("features", -1,
			fmt.Sprintf("expected %d features, got %d", len(rf.Features), len(x)))
	}

	votes := 0
	for i, tree := range rf.Trees {
		if tree == nil || tree.Root == nil {
			return 0, core.NewModelNotFittedError(fmt.Sprintf("tree %d is not trained", i))
		}
		leaf, err := tree.Leaf(x)
		if err != nil {
			return 0, core.NewModelNotFittedError(fmt.Sprintf("tree %d: %v", i, err))
		}
		votes += leaf.Class()
	}
	return float64(votes) / float64(len(rf.Trees)), nil
}

// validate checks a decoded forest before it is used for prediction.
func (rf *RandomForest) validate() error {
	if len(rf.Features) == 0 {
		return core.NewModelNotFittedError("random forest has no training features")
	}
	if len(rf.Trees) == 0 {
		return core.NewModelNotFittedError("random forest has no trees")
	}
	for i, tree := range rf.Trees {
		if tree == nil {
			return core.NewModelNotFittedError(fmt.Sprintf("tree %d is missing", i))
		}
		if err := tree.validate(len(rf.Features)); err != nil {
			return core.NewModelNotFittedError(fmt.Sprintf("tree %d: %v", i, err))
		}
	}
	return nil
}

// ForestTrainer fits RandomForest models.
type ForestTrainer struct {
	Trees    int
	MaxDepth int
	Seed     int64
}

var _ ports.RiskModelTrainer = (*ForestTrainer)(nil)

// NewForestTrainer creates a trainer. A zero seed draws one from the clock.
func NewForestTrainer(trees, maxDepth int, seed int64) *ForestTrainer {
	if trees <= 0 {
		trees = DefaultTrees
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &ForestTrainer{Trees: trees, MaxDepth: maxDepth, Seed: seed}
}

func (t *ForestTrainer) Family() string { return FamilyRandomForest }

// Fit grows the trees in parallel. Every tree draws its bootstrap sample and
// split features from its own RNG seeded from the forest seed, so the result
// does not depend on scheduling.
func (t *ForestTrainer) Fit(X [][]float64, y []int, featureNames []string) (ports.RiskModel, error) {
	if err := checkTrainingSet(X, y, featureNames); err != nil {
		return nil, err
	}

	seed := t.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	maxFeatures := int(math.Sqrt(float64(len(featureNames))))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	rf := &RandomForest{
		Trees:       make([]*DecisionTree, t.Trees),
		NumTrees:    t.Trees,
		MaxDepth:    t.MaxDepth,
		MaxFeatures: maxFeatures,
		Features:    append([]string(nil), featureNames...),
		Seed:        seed,
	}

	seeds := rand.New(rand.NewSource(seed))
	treeSeeds := make([]int64, t.Trees)
	for i := range treeSeeds {
		treeSeeds[i] = seeds.Int63()
	}

	// Acquire cannot fail on a background context.
	sem := semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0)))
	errs := make([]error, t.Trees)
	var wg sync.WaitGroup
	for i := 0; i < t.Trees; i++ {
		_ = sem.Acquire(context.Background(), 1)
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			rng := rand.New(rand.NewSource(treeSeeds[i]))
			bootX, bootY := bootstrapSample(X, y, rng)

			tree := NewDecisionTree(t.MaxDepth, 2, 1)
			tree.MaxFeatures = maxFeatures
			if err := tree.Train(bootX, bootY, rng); err != nil {
				errs[i] = fmt.Errorf("tree %d training failed: %w", i, err)
				return
			}
			rf.Trees[i] = tree
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return rf, nil
}

// bootstrapSample draws len(X) rows with replacement.
func bootstrapSample(X [][]float64, y []int, rng *rand.Rand) ([][]float64, []int) {
	n := len(X)
	bootX := make([][]float64, n)
	bootY := make([]int, n)
	for i := 0; i < n; i++ {
		idx := rng.Intn(n)
		bootX[i] = X[idx]
		bootY[i] = y[idx]
	}
	return bootX, bootY
}

func checkTrainingSet(X [][]float64, y []int, featureNames []string) error {
	if len(X) == 0 {
		return core.NewInsufficientDataError(0, 1)
	}
	if len(X) != len(y) {
		return fmt.Errorf("X and y must have same number of samples: %d vs %d", len(X), len(y))
	}
	for i, row := range X {
		if len(row) != len(featureNames) {
			return core.NewSchemaError("features", i,
				fmt.Sprintf("expected %d features, got %d", len(featureNames), len(row)))
		}
	}
	for i, label := range y {
		if label != 0 && label != 1 {
			return core.NewSchemaError("label", i, "label must be 0 or 1")
		}
	}
	return nil
}
