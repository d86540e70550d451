package classifier

import (
	"fmt"
	"math/rand"
	"sort"
)

// TreeNode is one node of a binary decision tree. Leaves keep the class
// counts of the training rows that reached them.
type TreeNode struct {
	IsLeaf       bool      `json:"is_leaf"`
	ClassCounts  [2]int    `json:"class_counts"`
	FeatureIndex int       `json:"feature_index,omitempty"`
	Threshold    float64   `json:"threshold,omitempty"`
	Left         *TreeNode `json:"left,omitempty"`  // x[feature] <= threshold
	Right        *TreeNode `json:"right,omitempty"` // x[feature] > threshold
	Samples      int       `json:"samples"`
}

// Class returns the majority class at a leaf; ties go to the negative class.
func (n *TreeNode) Class() int {
	if n.ClassCounts[1] > n.ClassCounts[0] {
		return 1
	}
	return 0
}

// DecisionTree is a gini-split binary classifier over float features.
// Features are sampled per split when MaxFeatures is below the feature count.
type DecisionTree struct {
	Root            *TreeNode `json:"root"`
	MaxDepth        int       `json:"max_depth"`
	MinSamplesSplit int       `json:"min_samples_split"`
	MinSamplesLeaf  int       `json:"min_samples_leaf"`
	MaxFeatures     int       `json:"max_features"`
	NumFeatures     int       `json:"num_features"`
}

// NewDecisionTree creates a tree; non-positive limits fall back to defaults.
func NewDecisionTree(maxDepth, minSamplesSplit, minSamplesLeaf int) *DecisionTree {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if minSamplesSplit <= 1 {
		minSamplesSplit = 2
	}
	if minSamplesLeaf <= 0 {
		minSamplesLeaf = 1
	}
	return &DecisionTree{
		MaxDepth:        maxDepth,
		MinSamplesSplit: minSamplesSplit,
		MinSamplesLeaf:  minSamplesLeaf,
	}
}

// Train grows the tree. rng drives feature sampling and may be nil when every
// feature is considered at every split.
func (dt *DecisionTree) Train(X [][]float64, y []int, rng *rand.Rand) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training data")
	}
	if len(X) != len(y) {
		return fmt.Errorf("X and y must have same number of samples")
	}

	dt.NumFeatures = len(X[0])
	if dt.MaxFeatures <= 0 || dt.MaxFeatures > dt.NumFeatures {
		dt.MaxFeatures = dt.NumFeatures
	}

	indices := make([]int, len(X))
	for i := range indices {
		indices[i] = i
	}
	dt.Root = dt.buildTree(X, y, indices, 0, rng)
	return nil
}

func (dt *DecisionTree) buildTree(X [][]float64, y []int, indices []int, depth int, rng *rand.Rand) *TreeNode {
	node := &TreeNode{Samples: len(indices)}
	for _, idx := range indices {
		node.ClassCounts[y[idx]]++
	}

	pure := node.ClassCounts[0] == 0 || node.ClassCounts[1] == 0
	if pure || depth >= dt.MaxDepth || len(indices) < dt.MinSamplesSplit {
		node.IsLeaf = true
		return node
	}

	feature, threshold, ok := dt.findBestSplit(X, y, indices, dt.candidateFeatures(rng))
	if !ok {
		node.IsLeaf = true
		return node
	}

	left, right := splitIndices(X, indices, feature, threshold)
	node.FeatureIndex = feature
	node.Threshold = threshold
	node.Left = dt.buildTree(X, y, left, depth+1, rng)
	node.Right = dt.buildTree(X, y, right, depth+1, rng)
	return node
}

// candidateFeatures returns the feature indices examined at one split.
func (dt *DecisionTree) candidateFeatures(rng *rand.Rand) []int {
	features := make([]int, dt.NumFeatures)
	for i := range features {
		features[i] = i
	}
	if dt.MaxFeatures >= dt.NumFeatures || rng == nil {
		return features
	}
	rng.Shuffle(len(features), func(i, j int) {
		features[i], features[j] = features[j], features[i]
	})
	return features[:dt.MaxFeatures]
}

// findBestSplit scans midpoint thresholds of the candidate features and keeps
// the split with the largest gini decrease.
func (dt *DecisionTree) findBestSplit(X [][]float64, y []int, indices []int, features []int) (int, float64, bool) {
	var parent [2]int
	for _, idx := range indices {
		parent[y[idx]]++
	}
	parentGini := gini(parent, len(indices))

	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0
	for _, feature := range features {
		values := make([]float64, len(indices))
		for i, idx := range indices {
			values[i] = X[idx][feature]
		}

		for _, threshold := range midpoints(values) {
			var left, right [2]int
			nLeft, nRight := 0, 0
			for _, idx := range indices {
				if X[idx][feature] <= threshold {
					left[y[idx]]++
					nLeft++
				} else {
					right[y[idx]]++
					nRight++
				}
			}
			if nLeft < dt.MinSamplesLeaf || nRight < dt.MinSamplesLeaf {
				continue
			}

			n := float64(len(indices))
			weighted := float64(nLeft)/n*gini(left, nLeft) + float64(nRight)/n*gini(right, nRight)
			if gain := parentGini - weighted; gain > bestGain {
				bestFeature, bestThreshold, bestGain = feature, threshold, gain
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

// Leaf returns the leaf x falls into.
func (dt *DecisionTree) Leaf(x []float64) (*TreeNode, error) {
	node := dt.Root
	if node == nil {
		return nil, fmt.Errorf("tree has no root")
	}
	for !node.IsLeaf {
		if node.FeatureIndex < 0 || node.FeatureIndex >= len(x) {
			return nil, fmt.Errorf("split on feature %d, row has %d features", node.FeatureIndex, len(x))
		}
		if x[node.FeatureIndex] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
		if node == nil {
			return nil, fmt.Errorf("split node is missing a child")
		}
	}
	return node, nil
}

// validate checks that every split has both children and splits on one of
// numFeatures features.
func (dt *DecisionTree) validate(numFeatures int) error {
	if dt.Root == nil {
		return fmt.Errorf("tree has no root")
	}
	return validateNode(dt.Root, numFeatures, 0)
}

func validateNode(n *TreeNode, numFeatures, depth int) error {
	if n.IsLeaf {
		return nil
	}
	if n.Left == nil || n.Right == nil {
		return fmt.Errorf("split at depth %d is missing a child", depth)
	}
	if n.FeatureIndex < 0 || n.FeatureIndex >= numFeatures {
		return fmt.Errorf("split at depth %d uses feature %d of %d", depth, n.FeatureIndex, numFeatures)
	}
	if err := validateNode(n.Left, numFeatures, depth+1); err != nil {
		return err
	}
	return validateNode(n.Right, numFeatures, depth+1)
}

// Depth returns the depth of the deepest leaf.
func (dt *DecisionTree) Depth() int {
	return nodeDepth(dt.Root)
}

func nodeDepth(n *TreeNode) int {
	if n == nil || n.IsLeaf {
		return 0
	}
	return 1 + max(nodeDepth(n.Left), nodeDepth(n.Right))
}

func gini(counts [2]int, n int) float64 {
	if n == 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		impurity -= p * p
	}
	return impurity
}

func splitIndices(X [][]float64, indices []int, feature int, threshold float64) ([]int, []int) {
	var left, right []int
	for _, idx := range indices {
		if X[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	return left, right
}

// midpoints returns the midpoints between consecutive distinct sorted values.
func midpoints(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var out []float64
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			out = append(out, (sorted[i]+sorted[i-1])/2)
		}
	}
	return out
}
