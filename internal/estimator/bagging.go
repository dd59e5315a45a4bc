package estimator

import "fmt"

// Bagging averages unpruned trees, each fit on a resample of the rows and a
// random subset of the columns.
type Bagging struct {
	NEstimators int
	MaxSamples  float64 // fraction of rows per member
	MaxFeatures float64 // fraction of columns per member
	Bootstrap   bool
	MaxDepth    int
	RandomState int64

	ensemble *baggedEnsemble
}

// NewBagging returns 10 bootstrapped trees over every row and column
func NewBagging() *Bagging {
	return &Bagging{
		NEstimators: 10,
		MaxSamples:  1,
		MaxFeatures: 1,
		Bootstrap:   true,
		RandomState: 1,
	}
}

// Fit trains the members
func (b *Bagging) Fit(X [][]float64, y []int) error {
	if b.NEstimators < 1 {
		return fmt.Errorf("bagging: n_estimators must be >= 1, got %d", b.NEstimators)
	}
	if !(b.MaxSamples > 0) || (!b.Bootstrap && b.MaxSamples > 1) {
		return fmt.Errorf("bagging: max_samples out of range: %v", b.MaxSamples)
	}
	if !(b.MaxFeatures > 0 && b.MaxFeatures <= 1) {
		return fmt.Errorf("bagging: max_features must be in (0, 1], got %v", b.MaxFeatures)
	}
	if b.MaxDepth < 0 {
		return fmt.Errorf("bagging: max_depth must be >= 0, got %d", b.MaxDepth)
	}
	e := &baggedEnsemble{
		nEstimators: b.NEstimators,
		bootstrap:   b.Bootstrap,
		maxSamples:  b.MaxSamples,
		maxFeatures: FeatureFraction(b.MaxFeatures),
		newTree: func(seed int64) *DecisionTreeClassifier {
			return NewDecisionTreeClassifier(WithMaxDepth(b.MaxDepth), WithRandomState(seed))
		},
		seed: b.RandomState,
	}
	if err := e.fit(X, y); err != nil {
		return fmt.Errorf("bagging: %w", err)
	}
	b.ensemble = e
	return nil
}

// PredictProba averages the members' probabilities
func (b *Bagging) PredictProba(X [][]float64) []float64 {
	if b.ensemble == nil {
		return (&baggedEnsemble{}).predictProba(X)
	}
	return b.ensemble.predictProba(X)
}

// Predict returns 0/1 labels
func (b *Bagging) Predict(X [][]float64) []int {
	return classifyProba(b.PredictProba(X))
}

// OOBScore returns out-of-bag accuracy on the training rows
func (b *Bagging) OOBScore() (float64, error) {
	if b.ensemble == nil {
		return 0, ErrNotFitted
	}
	return b.ensemble.oob()
}
