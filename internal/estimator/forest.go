package estimator

import "fmt"

// RandomForest is a bagged ensemble of trees that subsample features at
// every split.
type RandomForest struct {
	NEstimators         int
	MaxDepth            int
	MinSamplesSplit     int
	MinSamplesLeaf      int
	MaxFeatures         MaxFeatures
	Criterion           string
	MinImpurityDecrease float64
	Bootstrap           bool
	RandomState         int64

	ensemble *baggedEnsemble
}

// RandomForestOption configures a RandomForest
type RandomForestOption func(*RandomForest)

func WithNEstimators(n int) RandomForestOption {
	return func(rf *RandomForest) { rf.NEstimators = n }
}
func WithBootstrap(b bool) RandomForestOption {
	return func(rf *RandomForest) { rf.Bootstrap = b }
}
func WithForestSeed(seed int64) RandomForestOption {
	return func(rf *RandomForest) { rf.RandomState = seed }
}
func WithTreeOptions(opts ...TreeOption) RandomForestOption {
	return func(rf *RandomForest) {
		t := rf.treeTemplate(0)
		for _, o := range opts {
			o(t)
		}
		rf.MaxDepth = t.MaxDepth
		rf.MinSamplesSplit = t.MinSamplesSplit
		rf.MinSamplesLeaf = t.MinSamplesLeaf
		rf.MaxFeatures = t.MaxFeatures
		rf.Criterion = t.Criterion
		rf.MinImpurityDecrease = t.MinImpurityDecrease
	}
}

// NewRandomForest returns 100 bootstrapped gini trees using sqrt features
func NewRandomForest(opts ...RandomForestOption) *RandomForest {
	rf := &RandomForest{
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     SqrtFeatures,
		Criterion:       "gini",
		Bootstrap:       true,
		RandomState:     1,
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

func (rf *RandomForest) treeTemplate(seed int64) *DecisionTreeClassifier {
	return &DecisionTreeClassifier{
		MaxDepth:            rf.MaxDepth,
		MinSamplesSplit:     rf.MinSamplesSplit,
		MinSamplesLeaf:      rf.MinSamplesLeaf,
		Criterion:           rf.Criterion,
		MaxFeatures:         rf.MaxFeatures,
		MinImpurityDecrease: rf.MinImpurityDecrease,
		RandomState:         seed,
	}
}

// Fit trains the forest
func (rf *RandomForest) Fit(X [][]float64, y []int) error {
	if rf.NEstimators < 1 {
		return fmt.Errorf("random forest: n_estimators must be >= 1, got %d", rf.NEstimators)
	}
	if err := rf.treeTemplate(0).validate(); err != nil {
		return fmt.Errorf("random forest: %w", err)
	}
	e := &baggedEnsemble{
		nEstimators: rf.NEstimators,
		bootstrap:   rf.Bootstrap,
		maxSamples:  1,
		maxFeatures: AllFeatures,
		newTree:     rf.treeTemplate,
		seed:        rf.RandomState,
	}
	if err := e.fit(X, y); err != nil {
		return fmt.Errorf("random forest: %w", err)
	}
	rf.ensemble = e
	return nil
}

// PredictProba averages the trees' probabilities
func (rf *RandomForest) PredictProba(X [][]float64) []float64 {
	if rf.ensemble == nil {
		return (&baggedEnsemble{}).predictProba(X)
	}
	return rf.ensemble.predictProba(X)
}

// Predict returns 0/1 labels
func (rf *RandomForest) Predict(X [][]float64) []int {
	return classifyProba(rf.PredictProba(X))
}

// OOBScore returns out-of-bag accuracy on the training rows
func (rf *RandomForest) OOBScore() (float64, error) {
	if rf.ensemble == nil {
		return 0, ErrNotFitted
	}
	return rf.ensemble.oob()
}
