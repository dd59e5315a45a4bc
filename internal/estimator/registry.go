package estimator

import "sort"

// Family names
const (
	FamilyDecisionTree     = "decision_tree"
	FamilyRandomForest     = "random_forest"
	FamilyBagging          = "bagging"
	FamilyGradientBoosting = "gradient_boosting"
	FamilyXGBoost          = "xgboost"
	FamilySVM              = "svm"
)

type builder func(params Params, seed int64) (Estimator, error)

var builders = map[string]builder{
	FamilyDecisionTree:     newDecisionTreeFromParams,
	FamilyRandomForest:     newRandomForestFromParams,
	FamilyBagging:          newBaggingFromParams,
	FamilyGradientBoosting: newGradientBoostingFromParams,
	FamilyXGBoost:          newXGBoostFromParams,
	FamilySVM:              newSVCFromParams,
}

// UnknownFamilyError indicates an unsupported estimator family
type UnknownFamilyError struct {
	Family string
}

func (e *UnknownFamilyError) Error() string {
	return "unknown estimator family: " + e.Family
}

// Families lists the supported families in sorted order
func Families() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds an untrained estimator of the given family. Unknown parameter
// names and values of the wrong type or range are *InvalidParamError.
// random_state, when present, overrides seed.
func New(family string, params Params, seed int64) (Estimator, error) {
	build, ok := builders[family]
	if !ok {
		return nil, &UnknownFamilyError{Family: family}
	}
	return build(params, seed)
}

// Known reports whether family has a builder
func Known(family string) bool {
	_, ok := builders[family]
	return ok
}

// SupportsOOB reports whether the family implements OOBScorer
func SupportsOOB(family string) bool {
	return family == FamilyRandomForest || family == FamilyBagging
}

func newDecisionTreeFromParams(params Params, seed int64) (Estimator, error) {
	r, err := newParamReader(FamilyDecisionTree, params,
		"criterion", "max_depth", "max_features", "min_impurity_decrease",
		"min_samples_leaf", "min_samples_split", "random_state")
	if err != nil {
		return nil, err
	}
	t := NewDecisionTreeClassifier(
		WithMaxDepth(r.Int("max_depth", 0)),
		WithMinSamplesSplit(r.Int("min_samples_split", 2)),
		WithMinSamplesLeaf(r.Int("min_samples_leaf", 1)),
		WithCriterion(r.String("criterion", "gini")),
		WithMaxFeatures(r.MaxFeatures("max_features", AllFeatures)),
		WithMinImpurityDecrease(r.Float("min_impurity_decrease", 0)),
		WithRandomState(r.Seed(seed)),
	)
	if err := r.Err(); err != nil {
		return nil, err
	}
	if err := checkTree(FamilyDecisionTree, t); err != nil {
		return nil, err
	}
	return t, nil
}

func newRandomForestFromParams(params Params, seed int64) (Estimator, error) {
	r, err := newParamReader(FamilyRandomForest, params,
		"bootstrap", "criterion", "max_depth", "max_features", "min_impurity_decrease",
		"min_samples_leaf", "min_samples_split", "n_estimators", "random_state")
	if err != nil {
		return nil, err
	}
	rf := NewRandomForest(
		WithNEstimators(r.Int("n_estimators", 100)),
		WithBootstrap(r.Bool("bootstrap", true)),
		WithForestSeed(r.Seed(seed)),
		WithTreeOptions(
			WithMaxDepth(r.Int("max_depth", 0)),
			WithMinSamplesSplit(r.Int("min_samples_split", 2)),
			WithMinSamplesLeaf(r.Int("min_samples_leaf", 1)),
			WithCriterion(r.String("criterion", "gini")),
			WithMaxFeatures(r.MaxFeatures("max_features", SqrtFeatures)),
			WithMinImpurityDecrease(r.Float("min_impurity_decrease", 0)),
		),
	)
	if err := r.Err(); err != nil {
		return nil, err
	}
	if rf.NEstimators < 1 {
		return nil, &InvalidParamError{Family: FamilyRandomForest, Param: "n_estimators", Value: rf.NEstimators, Reason: "must be >= 1"}
	}
	if err := checkTree(FamilyRandomForest, rf.treeTemplate(0)); err != nil {
		return nil, err
	}
	return rf, nil
}

func newBaggingFromParams(params Params, seed int64) (Estimator, error) {
	r, err := newParamReader(FamilyBagging, params,
		"bootstrap", "max_depth", "max_features", "max_samples", "n_estimators", "random_state")
	if err != nil {
		return nil, err
	}
	b := NewBagging()
	b.NEstimators = r.Int("n_estimators", 10)
	b.MaxSamples = r.Float("max_samples", 1)
	b.MaxFeatures = r.Float("max_features", 1)
	b.Bootstrap = r.Bool("bootstrap", true)
	b.MaxDepth = r.Int("max_depth", 0)
	b.RandomState = r.Seed(seed)
	r.Check(b.NEstimators >= 1, "n_estimators", b.NEstimators, "must be >= 1")
	r.Check(b.MaxSamples > 0 && (b.Bootstrap || b.MaxSamples <= 1), "max_samples", b.MaxSamples, "must be in (0, 1] without bootstrap, positive with it")
	r.Check(b.MaxFeatures > 0 && b.MaxFeatures <= 1, "max_features", b.MaxFeatures, "must be a fraction in (0, 1]")
	r.Check(b.MaxDepth >= 0, "max_depth", b.MaxDepth, "must be >= 0")
	if err := r.Err(); err != nil {
		return nil, err
	}
	return b, nil
}

func newGradientBoostingFromParams(params Params, seed int64) (Estimator, error) {
	r, err := newParamReader(FamilyGradientBoosting, params,
		"learning_rate", "max_depth", "min_samples_leaf", "n_estimators", "random_state", "subsample")
	if err != nil {
		return nil, err
	}
	g := NewGradientBoosting()
	g.NEstimators = r.Int("n_estimators", g.NEstimators)
	g.LearningRate = r.Float("learning_rate", g.LearningRate)
	g.MaxDepth = r.Int("max_depth", g.MaxDepth)
	g.MinSamplesLeaf = r.Int("min_samples_leaf", g.MinSamplesLeaf)
	g.Subsample = r.Float("subsample", g.Subsample)
	g.RandomState = r.Seed(seed)
	return checkBooster(FamilyGradientBoosting, g, r)
}

func newXGBoostFromParams(params Params, seed int64) (Estimator, error) {
	r, err := newParamReader(FamilyXGBoost, params,
		"colsample_bytree", "gamma", "learning_rate", "max_depth", "min_child_weight",
		"n_estimators", "random_state", "reg_lambda", "subsample")
	if err != nil {
		return nil, err
	}
	g := NewXGBoost()
	g.NEstimators = r.Int("n_estimators", g.NEstimators)
	g.LearningRate = r.Float("learning_rate", g.LearningRate)
	g.MaxDepth = r.Int("max_depth", g.MaxDepth)
	g.MinChildWeight = r.Float("min_child_weight", g.MinChildWeight)
	g.Lambda = r.Float("reg_lambda", g.Lambda)
	g.Gamma = r.Float("gamma", g.Gamma)
	g.Subsample = r.Float("subsample", g.Subsample)
	g.ColsampleByTree = r.Float("colsample_bytree", g.ColsampleByTree)
	g.RandomState = r.Seed(seed)
	return checkBooster(FamilyXGBoost, g, r)
}

func newSVCFromParams(params Params, seed int64) (Estimator, error) {
	r, err := newParamReader(FamilySVM, params, "C", "gamma", "kernel", "max_iter", "random_state")
	if err != nil {
		return nil, err
	}
	s := NewSVC()
	s.C = r.Float("C", s.C)
	s.Kernel = r.String("kernel", s.Kernel)
	s.Gamma = r.Float("gamma", 0)
	s.MaxIter = r.Int("max_iter", s.MaxIter)
	s.RandomState = r.Seed(seed)
	if err := r.Err(); err != nil {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, &InvalidParamError{Family: FamilySVM, Param: "params", Reason: err.Error()}
	}
	return s, nil
}

func checkTree(family string, t *DecisionTreeClassifier) error {
	if err := t.validate(); err != nil {
		return &InvalidParamError{Family: family, Param: "tree", Reason: err.Error()}
	}
	return nil
}

func checkBooster(family string, g *GradientBoostedTrees, r *paramReader) (Estimator, error) {
	if err := r.Err(); err != nil {
		return nil, err
	}
	if err := g.validate(); err != nil {
		return nil, &InvalidParamError{Family: family, Param: "params", Reason: err.Error()}
	}
	return g, nil
}
