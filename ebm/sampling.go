package ebm

import (
	"math/rand/v2"
)

// samplingSet is a with-replacement bootstrap over the training cases,
// stored as per-case occurrence counts. Tree learners weight every case by
// its count.
type samplingSet struct {
	counts []int
	total  int
}

// newBootstrapSet draws cases samples with replacement.
func newBootstrapSet(rng *rand.Rand, cases int) *samplingSet {
	s := &samplingSet{counts: make([]int, cases), total: cases}
	for i := 0; i < cases; i++ {
		// G404: math/rand is fine for bootstrap sampling
		s.counts[rng.IntN(cases)]++
	}
	return s
}

// newFlatSet covers every case exactly once. Used when the caller asks for
// zero inner bags: one full-weight pass instead of a bootstrap.
func newFlatSet(cases int) *samplingSet {
	s := &samplingSet{counts: make([]int, cases), total: cases}
	for i := range s.counts {
		s.counts[i] = 1
	}
	return s
}

// generateSamplingSets builds the per-round sampling sets. count == 0
// yields a single flat set; otherwise count independent bootstraps from
// the seeded generator.
func generateSamplingSets(seed int64, cases, count int) []*samplingSet {
	if count == 0 {
		return []*samplingSet{newFlatSet(cases)}
	}
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	sets := make([]*samplingSet, count)
	for i := range sets {
		sets[i] = newBootstrapSet(rng, cases)
	}
	return sets
}
