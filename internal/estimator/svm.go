package estimator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/GoSim-25-26J-441/hpsweep/pkg/utils"
)

// SVC is a soft-margin support vector classifier trained with Pegasos
// stochastic sub-gradient descent, on standardized features. The linear
// kernel keeps an explicit weight vector; the rbf kernel keeps the rows
// that violated the margin during training. PredictProba squashes the
// margin through a sigmoid, which ranks rows like the margin does.
type SVC struct {
	C           float64
	Kernel      string  // "linear" or "rbf"
	Gamma       float64 // rbf width; 0 => 1/n_features
	MaxIter     int     // passes over the training rows
	RandomState int64

	mean  []float64
	scale []float64

	weights []float64 // linear: feature weights followed by the bias weight

	support [][]float64 // rbf: rows with non-zero coefficient
	coef    []float64
	gamma   float64
}

// NewSVC returns a linear SVC with C=1 and 10 passes
func NewSVC() *SVC {
	return &SVC{C: 1, Kernel: "linear", MaxIter: 10, RandomState: 1}
}

func (s *SVC) validate() error {
	if !(s.C > 0) {
		return fmt.Errorf("C must be positive, got %v", s.C)
	}
	if s.Kernel != "linear" && s.Kernel != "rbf" {
		return fmt.Errorf("kernel must be linear or rbf, got %q", s.Kernel)
	}
	if s.Gamma < 0 {
		return fmt.Errorf("gamma must be >= 0, got %v", s.Gamma)
	}
	if s.MaxIter < 1 {
		return fmt.Errorf("max_iter must be >= 1, got %d", s.MaxIter)
	}
	return nil
}

// Fit trains the classifier
func (s *SVC) Fit(X [][]float64, y []int) error {
	if err := checkXY(X, y); err != nil {
		return fmt.Errorf("svm: %w", err)
	}
	if err := s.validate(); err != nil {
		return fmt.Errorf("svm: %w", err)
	}

	s.fitScaler(X)
	Z := make([][]float64, len(X))
	for i, x := range X {
		Z[i] = s.standardize(x)
	}
	signs := make([]float64, len(y))
	for i, label := range y {
		signs[i] = float64(2*label - 1)
	}

	lambda := 1 / (s.C * float64(len(X)))
	rng := utils.NewRandSource(s.RandomState)
	if s.Kernel == "linear" {
		s.fitLinear(Z, signs, lambda, rng)
	} else {
		s.fitRBF(Z, signs, lambda, rng)
	}
	return nil
}

func (s *SVC) fitScaler(X [][]float64) {
	p := len(X[0])
	s.mean = make([]float64, p)
	s.scale = make([]float64, p)
	col := make([]float64, len(X))
	for j := 0; j < p; j++ {
		for i, x := range X {
			col[i] = x[j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if !(std > 1e-12) {
			std = 1
		}
		s.mean[j] = mean
		s.scale[j] = std
	}
}

// standardize returns the scaled row with a trailing constant bias term
func (s *SVC) standardize(x []float64) []float64 {
	z := make([]float64, len(x)+1)
	for j, v := range x {
		z[j] = (v - s.mean[j]) / s.scale[j]
	}
	z[len(x)] = 1
	return z
}

func (s *SVC) fitLinear(Z [][]float64, signs []float64, lambda float64, rng *utils.RandSource) {
	w := make([]float64, len(Z[0]))
	t := 0
	for epoch := 0; epoch < s.MaxIter; epoch++ {
		for _, i := range rng.Perm(len(Z)) {
			t++
			eta := 1 / (lambda * float64(t))
			margin := signs[i] * floats.Dot(w, Z[i])
			floats.Scale(1-eta*lambda, w)
			if margin < 1 {
				floats.AddScaled(w, eta*signs[i], Z[i])
			}
			// Project onto the ball of radius 1/sqrt(lambda).
			if norm := floats.Norm(w, 2); norm > 0 {
				if limit := 1 / math.Sqrt(lambda); norm > limit {
					floats.Scale(limit/norm, w)
				}
			}
		}
	}
	s.weights = w
	s.support = nil
	s.coef = nil
}

func (s *SVC) fitRBF(Z [][]float64, signs []float64, lambda float64, rng *utils.RandSource) {
	s.gamma = s.Gamma
	if s.gamma == 0 {
		s.gamma = 1 / float64(len(Z[0])-1)
	}

	alpha := make([]float64, len(Z))
	var active []int
	t := 0
	for epoch := 0; epoch < s.MaxIter; epoch++ {
		for _, i := range rng.Perm(len(Z)) {
			t++
			sum := 0.0
			for _, j := range active {
				sum += alpha[j] * signs[j] * s.kernel(Z[j], Z[i])
			}
			if signs[i]*sum/(lambda*float64(t)) < 1 {
				if alpha[i] == 0 {
					active = append(active, i)
				}
				alpha[i]++
			}
		}
	}

	s.support = make([][]float64, 0, len(active))
	s.coef = make([]float64, 0, len(active))
	for _, j := range active {
		s.support = append(s.support, Z[j])
		s.coef = append(s.coef, alpha[j]*signs[j]/(lambda*float64(t)))
	}
	s.weights = nil
}

func (s *SVC) kernel(a, b []float64) float64 {
	// The trailing bias column is identical for every row and cancels out.
	d := floats.Distance(a, b, 2)
	return math.Exp(-s.gamma * d * d)
}

// DecisionFunction returns the signed margin per row
func (s *SVC) DecisionFunction(X [][]float64) []float64 {
	out := make([]float64, len(X))
	if s.mean == nil {
		return out
	}
	for i, x := range X {
		z := s.standardize(x)
		if s.weights != nil {
			out[i] = floats.Dot(s.weights, z)
			continue
		}
		m := 0.0
		for j, sv := range s.support {
			m += s.coef[j] * s.kernel(sv, z)
		}
		out[i] = m
	}
	return out
}

// PredictProba returns sigmoid(margin) per row
func (s *SVC) PredictProba(X [][]float64) []float64 {
	out := s.DecisionFunction(X)
	for i, m := range out {
		out[i] = utils.Sigmoid(m)
	}
	return out
}

// Predict returns 0/1 labels
func (s *SVC) Predict(X [][]float64) []int {
	return classifyProba(s.PredictProba(X))
}
