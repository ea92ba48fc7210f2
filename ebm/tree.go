package ebm

import (
	"sort"

	"github.com/ezoic/glassboost/core/tensor"
)

// Tree learners. Each consumes one sampling set, fits a small piecewise
// model of the training residuals for a feature combination, writes it
// into the overwrite scratch tensor, and reports a non-positive gain (the
// proposed objective decrease). The zero-dimensional learner reports no
// gain, and neither does the multi-dimensional one, matching the driver
// contract.

// cellStats aggregates bootstrap-weighted residual statistics per tensor
// cell: the weighted case count, the per-class residual sum, and the
// per-class Newton denominator sum.
type cellStats struct {
	vectorLen int
	count     []float64
	sumR      []float64
	sumD      []float64
}

func newCellStats(cells, vectorLen int) *cellStats {
	return &cellStats{
		vectorLen: vectorLen,
		count:     make([]float64, cells),
		sumR:      make([]float64, cells*vectorLen),
		sumD:      make([]float64, cells*vectorLen),
	}
}

func (st *cellStats) add(cell int, w float64, residuals []float64, k kernel) {
	st.count[cell] += w
	base := cell * st.vectorLen
	for j := 0; j < st.vectorLen; j++ {
		r := residuals[j]
		st.sumR[base+j] += w * r
		st.sumD[base+j] += w * k.denominator(r)
	}
}

// nodeStats is the aggregate of a contiguous cell range.
type nodeStats struct {
	count float64
	sumR  []float64
	sumD  []float64
}

func newNodeStats(vectorLen int) *nodeStats {
	return &nodeStats{sumR: make([]float64, vectorLen), sumD: make([]float64, vectorLen)}
}

func (n *nodeStats) accumulate(st *cellStats, cell int) {
	n.count += st.count[cell]
	base := cell * st.vectorLen
	for j := range n.sumR {
		n.sumR[j] += st.sumR[base+j]
		n.sumD[j] += st.sumD[base+j]
	}
}

// score is the node splitting score Σ_j sumR_j²/sumD_j; splitting can only
// increase the total score, and the reported gain is the negated increase.
func (n *nodeStats) score() float64 {
	s := 0.0
	for j := range n.sumR {
		if n.sumD[j] > 0 {
			s += n.sumR[j] * n.sumR[j] / n.sumD[j]
		}
	}
	return s
}

// writeValues stores the node's Newton step into a cell value vector.
func (n *nodeStats) writeValues(out []float64) {
	for j := range n.sumR {
		if n.sumD[j] > 0 {
			out[j] = n.sumR[j] / n.sumD[j]
		} else {
			out[j] = 0
		}
	}
}

// gatherStats builds the per-cell histogram for combo over the training
// set, weighted by the sampling set's occurrence counts.
func (b *Booster) gatherStats(set *samplingSet, c *combination, cells int) *cellStats {
	st := newCellStats(cells, b.vectorLen)
	ds := b.training
	v := b.vectorLen
	forEachCase(ds, c, func(i, bin int) {
		w := set.counts[i]
		if w == 0 {
			return
		}
		st.add(bin, float64(w), ds.residuals[i*v:i*v+v], b.kern)
	})
	return st
}

// trainZeroDim fits the intercept update: one Newton step over the whole
// sampling set.
func (b *Booster) trainZeroDim(set *samplingSet, out *tensor.Segmented) {
	total := newNodeStats(b.vectorLen)
	ds := b.training
	v := b.vectorLen
	for i := 0; i < ds.cases; i++ {
		w := float64(set.counts[i])
		if w == 0 {
			continue
		}
		total.count += w
		for j := 0; j < v; j++ {
			r := ds.residuals[i*v+j]
			total.sumR[j] += w * r
			total.sumD[j] += w * b.kern.denominator(r)
		}
	}
	total.writeValues(out.Values())
}

// leaf is one contiguous bin range [lo,hi) during single-dimension growth.
type leaf struct {
	lo, hi int
	stats  *nodeStats
}

// trainSingleDim grows a bounded binary segmentation of the single
// feature's bins, best-first by score improvement, and writes the
// piecewise Newton values and division list into out.
func (b *Booster) trainSingleDim(set *samplingSet, c *combination, maxSplits, minParent int, out *tensor.Segmented) (float64, error) {
	states := c.tensorStates
	st := b.gatherStats(set, c, states)

	root := newNodeStats(b.vectorLen)
	for cell := 0; cell < states; cell++ {
		root.accumulate(st, cell)
	}
	leaves := []leaf{{lo: 0, hi: states, stats: root}}

	totalImprovement := 0.0
	for split := 0; split < maxSplits; split++ {
		bestLeaf, bestCut := -1, -1
		bestImprovement := 0.0
		var bestLeft, bestRight *nodeStats
		for li := range leaves {
			l := leaves[li]
			if l.hi-l.lo < 2 || l.stats.count < float64(minParent) {
				continue
			}
			cut, improvement, left, right := bestSplitInRange(st, l)
			if cut >= 0 && improvement > bestImprovement {
				bestLeaf, bestCut = li, cut
				bestImprovement = improvement
				bestLeft, bestRight = left, right
			}
		}
		if bestLeaf < 0 {
			break
		}
		old := leaves[bestLeaf]
		leaves[bestLeaf] = leaf{lo: old.lo, hi: bestCut, stats: bestLeft}
		leaves = append(leaves, leaf{lo: bestCut, hi: old.hi, stats: bestRight})
		totalImprovement += bestImprovement
	}

	// order segments by range and emit cuts + values
	cuts := make([]int, 0, len(leaves)-1)
	for _, l := range leaves {
		if l.lo > 0 {
			cuts = append(cuts, l.lo)
		}
	}
	sort.Ints(cuts)
	if err := out.SetCuts(0, cuts); err != nil {
		return 0, err
	}
	values := out.Values()
	for _, l := range leaves {
		seg := segmentOf(cuts, l.lo)
		l.stats.writeValues(values[seg*b.vectorLen : (seg+1)*b.vectorLen])
	}
	return -totalImprovement, nil
}

// bestSplitInRange scans every interior cut of a leaf and returns the one
// with the largest score improvement, or cut −1 when no cut helps.
func bestSplitInRange(st *cellStats, l leaf) (cut int, improvement float64, left, right *nodeStats) {
	parentScore := l.stats.score()
	running := newNodeStats(st.vectorLen)
	cut = -1
	for t := l.lo + 1; t < l.hi; t++ {
		running.accumulate(st, t-1)
		if running.count == 0 || running.count == l.stats.count {
			continue
		}
		rest := newNodeStats(st.vectorLen)
		rest.count = l.stats.count - running.count
		for j := range rest.sumR {
			rest.sumR[j] = l.stats.sumR[j] - running.sumR[j]
			rest.sumD[j] = l.stats.sumD[j] - running.sumD[j]
		}
		gain := running.score() + rest.score() - parentScore
		if gain > improvement {
			cut = t
			improvement = gain
			left = cloneNodeStats(running)
			right = rest
		}
	}
	return cut, improvement, left, right
}

func cloneNodeStats(n *nodeStats) *nodeStats {
	c := newNodeStats(len(n.sumR))
	c.count = n.count
	copy(c.sumR, n.sumR)
	copy(c.sumD, n.sumD)
	return c
}

// trainMultiDim fits a higher-dimensional term with one greedy
// axis-aligned split: the cut over all dimensions that most improves the
// score, or a single Newton cell when nothing qualifies.
func (b *Booster) trainMultiDim(set *samplingSet, c *combination, minParent int, out *tensor.Segmented) error {
	st := b.gatherStats(set, c, c.tensorStates)
	shape := c.shape()

	total := newNodeStats(b.vectorLen)
	for cell := 0; cell < c.tensorStates; cell++ {
		total.accumulate(st, cell)
	}

	bestDim, bestCut := -1, -1
	bestImprovement := 0.0
	var bestLeft, bestRight *nodeStats
	if total.count >= float64(minParent) {
		parentScore := total.score()
		for d := range shape {
			marginal := marginalStats(st, shape, d, b.vectorLen)
			running := newNodeStats(b.vectorLen)
			for t := 1; t < shape[d]; t++ {
				running.accumulate(marginal, t-1)
				if running.count == 0 || running.count == total.count {
					continue
				}
				rest := newNodeStats(b.vectorLen)
				rest.count = total.count - running.count
				for j := range rest.sumR {
					rest.sumR[j] = total.sumR[j] - running.sumR[j]
					rest.sumD[j] = total.sumD[j] - running.sumD[j]
				}
				gain := running.score() + rest.score() - parentScore
				if gain > bestImprovement {
					bestDim, bestCut = d, t
					bestImprovement = gain
					bestLeft = cloneNodeStats(running)
					bestRight = rest
				}
			}
		}
	}

	if bestDim < 0 {
		total.writeValues(out.Values())
		return nil
	}
	if err := out.SetCuts(bestDim, []int{bestCut}); err != nil {
		return err
	}
	values := out.Values()
	bestLeft.writeValues(values[:b.vectorLen])
	bestRight.writeValues(values[b.vectorLen : 2*b.vectorLen])
	return nil
}

// marginalStats folds the cell histogram onto one dimension.
func marginalStats(st *cellStats, shape []int, dim, vectorLen int) *cellStats {
	out := newCellStats(shape[dim], vectorLen)
	strideAfter := 1
	for d := dim + 1; d < len(shape); d++ {
		strideAfter *= shape[d]
	}
	cells := len(st.count)
	for cell := 0; cell < cells; cell++ {
		v := (cell / strideAfter) % shape[dim]
		out.count[v] += st.count[cell]
		for j := 0; j < vectorLen; j++ {
			out.sumR[v*vectorLen+j] += st.sumR[cell*vectorLen+j]
			out.sumD[v*vectorLen+j] += st.sumD[cell*vectorLen+j]
		}
	}
	return out
}

func segmentOf(cuts []int, lo int) int {
	for i, c := range cuts {
		if lo < c {
			return i
		}
	}
	return len(cuts)
}
