package dataset

import (
	"fmt"
	"math"
	"sort"

	"github.com/GoSim-25-26J-441/hpsweep/pkg/utils"
)

// Fractions are the shares of rows for each partition; they sum to 1
type Fractions struct {
	Train      float64
	Validation float64
	Test       float64
}

// Partition holds disjoint row indices, each sorted ascending
type Partition struct {
	Train      []int
	Validation []int
	Test       []int
}

// Split partitions n rows. With stratify, each label is split separately
// so every partition keeps the label balance. The result depends only on
// the inputs and the seed.
func Split(n int, labels []int, fr Fractions, seed int64, stratify bool) (*Partition, error) {
	if n <= 0 {
		return nil, fmt.Errorf("cannot partition %d rows", n)
	}
	if fr.Train <= 0 || fr.Validation < 0 || fr.Test < 0 {
		return nil, fmt.Errorf("invalid fractions %+v", fr)
	}
	if sum := fr.Train + fr.Validation + fr.Test; math.Abs(sum-1) > 1e-6 {
		return nil, fmt.Errorf("fractions must sum to 1, got %v", sum)
	}

	var groups [][]int
	if stratify {
		if len(labels) != n {
			return nil, fmt.Errorf("stratify needs %d labels, got %d", n, len(labels))
		}
		byLabel := make(map[int][]int)
		for i, l := range labels {
			byLabel[l] = append(byLabel[l], i)
		}
		keys := make([]int, 0, len(byLabel))
		for k := range byLabel {
			keys = append(keys, k)
		}
		sort.Ints(keys)
		for _, k := range keys {
			groups = append(groups, byLabel[k])
		}
	} else {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		groups = [][]int{all}
	}

	rng := utils.NewRandSource(seed)
	p := &Partition{}
	for _, g := range groups {
		shuffled := make([]int, len(g))
		for i, j := range rng.Perm(len(g)) {
			shuffled[i] = g[j]
		}
		nVal := int(math.Round(fr.Validation * float64(len(g))))
		nTest := int(math.Round(fr.Test * float64(len(g))))
		if nVal+nTest > len(g) {
			nTest = len(g) - nVal
		}
		p.Validation = append(p.Validation, shuffled[:nVal]...)
		p.Test = append(p.Test, shuffled[nVal:nVal+nTest]...)
		p.Train = append(p.Train, shuffled[nVal+nTest:]...)
	}
	if len(p.Train) == 0 {
		return nil, fmt.Errorf("training partition is empty for %d rows at %+v", n, fr)
	}
	sort.Ints(p.Train)
	sort.Ints(p.Validation)
	sort.Ints(p.Test)
	return p, nil
}
