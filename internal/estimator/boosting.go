package estimator

import (
	"fmt"
	"math"
	"sort"

	"github.com/GoSim-25-26J-441/hpsweep/pkg/utils"
)

// GradientBoostedTrees fits additive trees to the gradient and hessian of
// the logistic loss. The same type backs both the classic gradient
// boosting family (log-odds prior, no regularization) and the xgboost family
// (zero margin prior, L2 leaf penalty, split penalty, column sampling).
type GradientBoostedTrees struct {
	NEstimators     int
	LearningRate    float64
	MaxDepth        int
	MinSamplesLeaf  int
	MinChildWeight  float64 // minimum hessian sum in a child
	Lambda          float64 // L2 penalty on leaf weights
	Gamma           float64 // minimum loss reduction to split
	Subsample       float64 // fraction of rows per round, without replacement
	ColsampleByTree float64 // fraction of columns per round
	PriorLogOdds    bool    // start from the training log-odds instead of 0
	RandomState     int64

	base  float64
	trees []*boostTree
}

// NewGradientBoosting returns sklearn-style defaults: 100 depth-3 trees at 0.1
func NewGradientBoosting() *GradientBoostedTrees {
	return &GradientBoostedTrees{
		NEstimators:     100,
		LearningRate:    0.1,
		MaxDepth:        3,
		MinSamplesLeaf:  1,
		Subsample:       1,
		ColsampleByTree: 1,
		PriorLogOdds:    true,
		RandomState:     1,
	}
}

// NewXGBoost returns xgboost-style defaults: 100 depth-6 trees at 0.3
func NewXGBoost() *GradientBoostedTrees {
	return &GradientBoostedTrees{
		NEstimators:     100,
		LearningRate:    0.3,
		MaxDepth:        6,
		MinSamplesLeaf:  1,
		MinChildWeight:  1,
		Lambda:          1,
		Subsample:       1,
		ColsampleByTree: 1,
		RandomState:     1,
	}
}

func (g *GradientBoostedTrees) validate() error {
	switch {
	case g.NEstimators < 1:
		return fmt.Errorf("n_estimators must be >= 1, got %d", g.NEstimators)
	case !(g.LearningRate > 0):
		return fmt.Errorf("learning_rate must be positive, got %v", g.LearningRate)
	case g.MaxDepth < 1:
		return fmt.Errorf("max_depth must be >= 1, got %d", g.MaxDepth)
	case g.MinSamplesLeaf < 1:
		return fmt.Errorf("min_samples_leaf must be >= 1, got %d", g.MinSamplesLeaf)
	case g.MinChildWeight < 0, g.Lambda < 0, g.Gamma < 0:
		return fmt.Errorf("min_child_weight, reg_lambda and gamma must be >= 0")
	case !(g.Subsample > 0 && g.Subsample <= 1):
		return fmt.Errorf("subsample must be in (0, 1], got %v", g.Subsample)
	case !(g.ColsampleByTree > 0 && g.ColsampleByTree <= 1):
		return fmt.Errorf("colsample_bytree must be in (0, 1], got %v", g.ColsampleByTree)
	}
	return nil
}

// Fit runs NEstimators boosting rounds
func (g *GradientBoostedTrees) Fit(X [][]float64, y []int) error {
	if err := checkXY(X, y); err != nil {
		return fmt.Errorf("boosting: %w", err)
	}
	if err := g.validate(); err != nil {
		return fmt.Errorf("boosting: %w", err)
	}

	n, p := len(X), len(X[0])
	g.base = 0
	if g.PriorLogOdds {
		pos := 0
		for _, label := range y {
			pos += label
		}
		prior := utils.ClampFloat64(float64(pos)/float64(n), 1e-6, 1-1e-6)
		g.base = math.Log(prior / (1 - prior))
	}

	rng := utils.NewRandSource(g.RandomState)
	margin := make([]float64, n)
	for i := range margin {
		margin[i] = g.base
	}
	grad := make([]float64, n)
	hess := make([]float64, n)
	rowCount := max(1, int(math.Round(g.Subsample*float64(n))))
	colCount := max(1, int(math.Round(g.ColsampleByTree*float64(p))))

	g.trees = make([]*boostTree, 0, g.NEstimators)
	for round := 0; round < g.NEstimators; round++ {
		for i := range margin {
			prob := utils.Sigmoid(margin[i])
			grad[i] = prob - float64(y[i])
			hess[i] = prob * (1 - prob)
		}

		rows := allIndices(n)
		if rowCount < n {
			rows = rng.Perm(n)[:rowCount]
		}
		cols := allIndices(p)
		if colCount < p {
			cols = rng.Perm(p)[:colCount]
			sort.Ints(cols)
		}

		tb := &boostTreeBuilder{cfg: g, X: X, grad: grad, hess: hess, cols: cols}
		tree := &boostTree{root: tb.build(rows, 0)}
		g.trees = append(g.trees, tree)

		for i, x := range X {
			margin[i] += g.LearningRate * tree.predictRow(x)
		}
	}
	return nil
}

// DecisionFunction returns the raw margin (log-odds) per row
func (g *GradientBoostedTrees) DecisionFunction(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		m := g.base
		for _, t := range g.trees {
			m += g.LearningRate * t.predictRow(x)
		}
		out[i] = m
	}
	return out
}

// PredictProba returns P(y=1) per row
func (g *GradientBoostedTrees) PredictProba(X [][]float64) []float64 {
	out := g.DecisionFunction(X)
	for i, m := range out {
		out[i] = utils.Sigmoid(m)
	}
	return out
}

// Predict returns 0/1 labels
func (g *GradientBoostedTrees) Predict(X [][]float64) []int {
	return classifyProba(g.PredictProba(X))
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

type boostTree struct {
	root *boostNode
}

type boostNode struct {
	leaf      bool
	feature   int
	threshold float64
	weight    float64
	left      *boostNode
	right     *boostNode
}

func (t *boostTree) predictRow(x []float64) float64 {
	node := t.root
	for !node.leaf {
		if x[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.weight
}

type boostTreeBuilder struct {
	cfg  *GradientBoostedTrees
	X    [][]float64
	grad []float64
	hess []float64
	cols []int
}

func (b *boostTreeBuilder) leafWeight(G, H float64) float64 {
	denom := H + b.cfg.Lambda
	if denom <= 1e-12 {
		return 0
	}
	return -G / denom
}

func (b *boostTreeBuilder) score(G, H float64) float64 {
	denom := H + b.cfg.Lambda
	if denom <= 1e-12 {
		return 0
	}
	return G * G / denom
}

func (b *boostTreeBuilder) build(rows []int, depth int) *boostNode {
	var G, H float64
	for _, i := range rows {
		G += b.grad[i]
		H += b.hess[i]
	}
	node := &boostNode{leaf: true, weight: b.leafWeight(G, H)}
	if depth >= b.cfg.MaxDepth || len(rows) < 2*b.cfg.MinSamplesLeaf {
		return node
	}

	parent := b.score(G, H)
	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0
	order := make([]int, len(rows))
	for _, f := range b.cols {
		copy(order, rows)
		sort.SliceStable(order, func(i, j int) bool {
			return b.X[order[i]][f] < b.X[order[j]][f]
		})
		var GL, HL float64
		for s := 0; s < len(order)-1; s++ {
			GL += b.grad[order[s]]
			HL += b.hess[order[s]]
			v, next := b.X[order[s]][f], b.X[order[s+1]][f]
			if v == next {
				continue
			}
			nl := s + 1
			if nl < b.cfg.MinSamplesLeaf || len(order)-nl < b.cfg.MinSamplesLeaf {
				continue
			}
			GR, HR := G-GL, H-HL
			if HL < b.cfg.MinChildWeight || HR < b.cfg.MinChildWeight {
				continue
			}
			gain := 0.5*(b.score(GL, HL)+b.score(GR, HR)-parent) - b.cfg.Gamma
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = v + (next-v)/2
				if bestThreshold >= next {
					bestThreshold = v
				}
			}
		}
	}
	if bestFeature < 0 || bestGain <= 1e-12 {
		return node
	}

	left := make([]int, 0, len(rows))
	right := make([]int, 0, len(rows))
	for _, i := range rows {
		if b.X[i][bestFeature] <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	node.leaf = false
	node.feature = bestFeature
	node.threshold = bestThreshold
	node.left = b.build(left, depth+1)
	node.right = b.build(right, depth+1)
	return node
}
