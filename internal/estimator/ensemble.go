package estimator

import (
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/GoSim-25-26J-441/hpsweep/pkg/utils"
)

// baggedEnsemble trains trees on resampled rows (and optionally a random
// subset of columns) and averages their probabilities. Each member gets its
// own seed, and results are stored by index, so the fitted ensemble does not
// depend on goroutine scheduling.
type baggedEnsemble struct {
	nEstimators int
	bootstrap   bool
	maxSamples  float64     // fraction of rows drawn per member
	maxFeatures MaxFeatures // columns drawn per member
	newTree     func(seed int64) *DecisionTreeClassifier
	seed        int64

	members  []bagMember
	oobScore float64
	oobErr   error
}

type bagMember struct {
	tree     *DecisionTreeClassifier
	features []int // nil => every column
}

func (e *baggedEnsemble) fit(X [][]float64, y []int) error {
	if err := checkXY(X, y); err != nil {
		return err
	}
	n, p := len(X), len(X[0])
	m := int(math.Round(e.maxSamples * float64(n)))
	if m < 1 {
		m = 1
	}
	if !e.bootstrap && m > n {
		m = n
	}
	k := e.maxFeatures.Resolve(p)

	members := make([]bagMember, e.nEstimators)
	inBag := make([][]bool, e.nEstimators)

	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < e.nEstimators; i++ {
		g.Go(func() error {
			seed := memberSeed(e.seed, i)
			rng := utils.NewRandSource(seed)

			var rows []int
			if e.bootstrap {
				rows = rng.SampleWithReplacement(n, m)
			} else {
				rows = rng.Perm(n)[:m]
			}
			bag := make([]bool, n)
			for _, r := range rows {
				bag[r] = true
			}

			member := bagMember{tree: e.newTree(seed)}
			Xm := X
			if k < p {
				member.features = rng.Perm(p)[:k]
				sort.Ints(member.features)
				Xm = project(X, member.features)
			}
			if err := member.tree.fitIndices(Xm, y, rows); err != nil {
				return fmt.Errorf("member %d: %w", i, err)
			}
			members[i] = member
			inBag[i] = bag
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	e.members = members
	e.oobScore, e.oobErr = e.computeOOB(X, y, inBag)
	return nil
}

// computeOOB scores every row with the members that did not see it
func (e *baggedEnsemble) computeOOB(X [][]float64, y []int, inBag [][]bool) (float64, error) {
	if !e.bootstrap {
		return 0, ErrNoBootstrap
	}
	votes := make([]float64, len(X))
	counts := make([]int, len(X))
	for i, member := range e.members {
		for r, x := range X {
			if inBag[i][r] {
				continue
			}
			votes[r] += member.predictRow(x)
			counts[r]++
		}
	}

	scored, correct := 0, 0
	for r := range X {
		if counts[r] == 0 {
			continue
		}
		scored++
		pred := 0
		if votes[r]/float64(counts[r]) > 0.5 {
			pred = 1
		}
		if pred == y[r] {
			correct++
		}
	}
	if scored == 0 {
		return 0, ErrNoOOBSamples
	}
	return float64(correct) / float64(scored), nil
}

func (e *baggedEnsemble) predictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	if len(e.members) == 0 {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i, x := range X {
		sum := 0.0
		for _, member := range e.members {
			sum += member.predictRow(x)
		}
		out[i] = sum / float64(len(e.members))
	}
	return out
}

func (e *baggedEnsemble) oob() (float64, error) {
	if e.members == nil {
		return 0, ErrNotFitted
	}
	return e.oobScore, e.oobErr
}

func (m bagMember) predictRow(x []float64) float64 {
	if m.features == nil {
		return m.tree.predictRow(x)
	}
	sub := make([]float64, len(m.features))
	for j, f := range m.features {
		sub[j] = x[f]
	}
	return m.tree.predictRow(sub)
}

// project copies the given columns of every row
func project(X [][]float64, features []int) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		sub := make([]float64, len(features))
		for j, f := range features {
			sub[j] = row[f]
		}
		out[i] = sub
	}
	return out
}
