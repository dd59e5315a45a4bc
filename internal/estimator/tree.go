package estimator

import (
	"fmt"
	"math"
	"sort"

	"github.com/GoSim-25-26J-441/hpsweep/pkg/utils"
)

// DecisionTreeClassifier is a CART-style binary classifier
type DecisionTreeClassifier struct {
	MaxDepth            int    // 0 => no limit
	MinSamplesSplit     int    // minimum rows to attempt a split
	MinSamplesLeaf      int    // minimum rows on each side of a split
	Criterion           string // "gini" (default) or "entropy"
	MaxFeatures         MaxFeatures
	MinImpurityDecrease float64
	RandomState         int64 // seeds per-node feature subsampling

	root      *treeNode
	nFeatures int
}

type treeNode struct {
	leaf      bool
	feature   int
	threshold float64 // x <= threshold => left
	left      *treeNode
	right     *treeNode
	n         int
	proba     float64 // P(y=1) among the node's rows
}

// TreeOption configures a DecisionTreeClassifier
type TreeOption func(*DecisionTreeClassifier)

func WithMaxDepth(d int) TreeOption {
	return func(t *DecisionTreeClassifier) { t.MaxDepth = d }
}
func WithMinSamplesSplit(n int) TreeOption {
	return func(t *DecisionTreeClassifier) { t.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) TreeOption {
	return func(t *DecisionTreeClassifier) { t.MinSamplesLeaf = n }
}
func WithCriterion(c string) TreeOption {
	return func(t *DecisionTreeClassifier) { t.Criterion = c }
}
func WithMaxFeatures(m MaxFeatures) TreeOption {
	return func(t *DecisionTreeClassifier) { t.MaxFeatures = m }
}
func WithMinImpurityDecrease(v float64) TreeOption {
	return func(t *DecisionTreeClassifier) { t.MinImpurityDecrease = v }
}
func WithRandomState(seed int64) TreeOption {
	return func(t *DecisionTreeClassifier) { t.RandomState = seed }
}

// NewDecisionTreeClassifier returns a fully grown gini tree over all features
func NewDecisionTreeClassifier(opts ...TreeOption) *DecisionTreeClassifier {
	t := &DecisionTreeClassifier{
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Criterion:       "gini",
		MaxFeatures:     AllFeatures,
		RandomState:     1,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (t *DecisionTreeClassifier) validate() error {
	if t.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be >= 0, got %d", t.MaxDepth)
	}
	if t.MinSamplesSplit < 2 {
		return fmt.Errorf("min_samples_split must be >= 2, got %d", t.MinSamplesSplit)
	}
	if t.MinSamplesLeaf < 1 {
		return fmt.Errorf("min_samples_leaf must be >= 1, got %d", t.MinSamplesLeaf)
	}
	if impurityFunc(t.Criterion) == nil {
		return fmt.Errorf("unknown criterion %q", t.Criterion)
	}
	return nil
}

// Fit grows the tree on all rows
func (t *DecisionTreeClassifier) Fit(X [][]float64, y []int) error {
	if err := checkXY(X, y); err != nil {
		return fmt.Errorf("decision tree: %w", err)
	}
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	return t.fitIndices(X, y, idx)
}

// fitIndices grows the tree on the given rows. Indices may repeat, which is
// how bootstrap samples are expressed. X and y are assumed valid.
func (t *DecisionTreeClassifier) fitIndices(X [][]float64, y []int, idx []int) error {
	if err := t.validate(); err != nil {
		return fmt.Errorf("decision tree: %w", err)
	}
	if len(idx) == 0 {
		return fmt.Errorf("decision tree: %w", &InvalidInputError{Reason: "no rows"})
	}
	t.nFeatures = len(X[0])
	b := &treeBuilder{
		tree:     t,
		X:        X,
		y:        y,
		rng:      utils.NewRandSource(t.RandomState),
		impurity: impurityFunc(t.Criterion),
		k:        t.MaxFeatures.Resolve(t.nFeatures),
	}
	t.root = b.build(idx, 0)
	return nil
}

// PredictProba returns P(y=1) for each row
func (t *DecisionTreeClassifier) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = t.predictRow(x)
	}
	return out
}

// Predict returns 0/1 labels
func (t *DecisionTreeClassifier) Predict(X [][]float64) []int {
	return classifyProba(t.PredictProba(X))
}

func (t *DecisionTreeClassifier) predictRow(x []float64) float64 {
	node := t.root
	if node == nil {
		return 0.5
	}
	for !node.leaf {
		if x[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.proba
}

// Depth returns the depth of the fitted tree; a lone leaf has depth 0
func (t *DecisionTreeClassifier) Depth() int {
	var walk func(n *treeNode) int
	walk = func(n *treeNode) int {
		if n == nil || n.leaf {
			return 0
		}
		return 1 + max(walk(n.left), walk(n.right))
	}
	return walk(t.root)
}

// Leaves returns the number of leaves in the fitted tree
func (t *DecisionTreeClassifier) Leaves() int {
	var walk func(n *treeNode) int
	walk = func(n *treeNode) int {
		if n == nil {
			return 0
		}
		if n.leaf {
			return 1
		}
		return walk(n.left) + walk(n.right)
	}
	return walk(t.root)
}

type impurity func(neg, pos int) float64

func impurityFunc(criterion string) impurity {
	switch criterion {
	case "", "gini":
		return gini
	case "entropy":
		return entropy
	}
	return nil
}

func gini(neg, pos int) float64 {
	n := float64(neg + pos)
	if n == 0 {
		return 0
	}
	p0, p1 := float64(neg)/n, float64(pos)/n
	return 1 - p0*p0 - p1*p1
}

func entropy(neg, pos int) float64 {
	n := float64(neg + pos)
	h := 0.0
	for _, c := range []int{neg, pos} {
		if c > 0 {
			p := float64(c) / n
			h -= p * math.Log2(p)
		}
	}
	return h
}

type treeBuilder struct {
	tree     *DecisionTreeClassifier
	X        [][]float64
	y        []int
	rng      *utils.RandSource
	impurity impurity
	k        int
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

func (b *treeBuilder) build(idx []int, depth int) *treeNode {
	t := b.tree
	pos := 0
	for _, i := range idx {
		pos += b.y[i]
	}
	n := len(idx)
	node := &treeNode{leaf: true, n: n, proba: float64(pos) / float64(n)}

	if pos == 0 || pos == n {
		return node
	}
	if t.MaxDepth > 0 && depth >= t.MaxDepth {
		return node
	}
	if n < t.MinSamplesSplit || n < 2*t.MinSamplesLeaf {
		return node
	}

	parent := b.impurity(n-pos, pos)
	best := split{feature: -1}
	for _, f := range b.candidateFeatures() {
		s := b.bestSplit(idx, f, parent, n-pos, pos)
		// Strict comparison keeps the first feature on ties.
		if s.feature >= 0 && s.gain > best.gain {
			best = s
		}
	}
	if best.feature < 0 || best.gain <= 1e-12 || best.gain < t.MinImpurityDecrease {
		return node
	}

	left := make([]int, 0, n)
	right := make([]int, 0, n)
	for _, i := range idx {
		if b.X[i][best.feature] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	node.leaf = false
	node.feature = best.feature
	node.threshold = best.threshold
	node.left = b.build(left, depth+1)
	node.right = b.build(right, depth+1)
	return node
}

// candidateFeatures returns k features, all of them in order when k == p
func (b *treeBuilder) candidateFeatures() []int {
	p := b.tree.nFeatures
	if b.k >= p {
		feats := make([]int, p)
		for i := range feats {
			feats[i] = i
		}
		return feats
	}
	perm := b.rng.Perm(p)
	return perm[:b.k]
}

// bestSplit scans one feature's sorted values with running class counts
func (b *treeBuilder) bestSplit(idx []int, f int, parent float64, neg, pos int) split {
	order := make([]int, len(idx))
	copy(order, idx)
	sort.SliceStable(order, func(i, j int) bool {
		return b.X[order[i]][f] < b.X[order[j]][f]
	})

	n := len(order)
	minLeaf := b.tree.MinSamplesLeaf
	best := split{feature: -1}
	leftNeg, leftPos := 0, 0
	for s := 0; s < n-1; s++ {
		if b.y[order[s]] == 1 {
			leftPos++
		} else {
			leftNeg++
		}
		v, next := b.X[order[s]][f], b.X[order[s+1]][f]
		if v == next {
			continue
		}
		nl := s + 1
		nr := n - nl
		if nl < minLeaf || nr < minLeaf {
			continue
		}
		impL := b.impurity(leftNeg, leftPos)
		impR := b.impurity(neg-leftNeg, pos-leftPos)
		gain := parent - float64(nl)/float64(n)*impL - float64(nr)/float64(n)*impR
		if gain > best.gain {
			thr := v + (next-v)/2
			if thr >= next {
				thr = v
			}
			best = split{feature: f, threshold: thr, gain: gain}
		}
	}
	return best
}
