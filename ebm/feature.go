// Package ebm implements the training core of an Explainable Boosting
// Machine: a cyclic gradient-boosted additive model over binned features.
//
// A Booster owns the training and validation sets, the bootstrap sampling
// sets, and two model tensor arrays (current and best). Each boosting
// round the caller picks a feature combination, generates an update tensor
// for it, and applies the update; the engine maintains residuals and
// prediction scores and tracks the best model by validation metric.
package ebm

import (
	"math/bits"

	"github.com/ezoic/glassboost/pkg/errors"
)

// FeatureType distinguishes ordered from unordered categorical features.
type FeatureType int

const (
	// Ordinal features have ordered bins.
	Ordinal FeatureType = iota
	// Nominal features have unordered bins.
	Nominal
)

// FeatureSpec describes one input feature at the construction boundary.
type FeatureSpec struct {
	Type       FeatureType
	HasMissing bool
	BinCount   int
}

// feature is the engine's internal feature descriptor, immutable after
// initialization.
type feature struct {
	index      int
	typ        FeatureType
	hasMissing bool
	states     int
}

// bitsPerWord is the packed storage word width.
const bitsPerWord = 64

// DimensionsMax is the most significant (more than one state) features a
// combination may carry.
const DimensionsMax = 16

// combination is an ordered tuple of significant features defining the
// axes of one additive term's tensor. Features with a single state carry
// no information and are elided when the combination is built.
type combination struct {
	index        int
	features     []*feature
	tensorStates int // product of per-feature state counts
	itemsPerPack int
	bitsPerItem  int
}

func (c *combination) dims() int { return len(c.features) }

func (c *combination) shape() []int {
	s := make([]int, len(c.features))
	for i, f := range c.features {
		s[i] = f.states
	}
	return s
}

// newCombination builds the descriptor for the feature tuple, eliding
// single-state features and fixing the bit-pack geometry from the total
// tensor cell count.
func newCombination(index int, all []feature, featureIdx []int) (*combination, error) {
	c := &combination{index: index}
	tensorStates := 1
	for _, fi := range featureIdx {
		if fi < 0 || fi >= len(all) {
			return nil, errors.NewDimensionError("newCombination", len(all), fi, 0)
		}
		f := &all[fi]
		if f.states <= 1 {
			// single-state features always map to bin 0 and lose the
			// dimension without changing the tensor
			continue
		}
		c.features = append(c.features, f)
		next := tensorStates * f.states
		if next/f.states != tensorStates {
			return nil, errors.Wrap(errors.ErrShapeOverflow, "newCombination")
		}
		tensorStates = next
	}
	if len(c.features) > DimensionsMax {
		return nil, errors.NewValueError("newCombination", "too many significant features in combination")
	}
	c.tensorStates = tensorStates
	if len(c.features) > 0 {
		required := bitsRequired(tensorStates - 1)
		c.itemsPerPack = bitsPerWord / required
		c.bitsPerItem = bitsPerWord / c.itemsPerPack
	}
	return c, nil
}

// tensorIndex folds the per-feature bins of one case into the canonical
// cell index, first feature major.
func (c *combination) tensorIndex(binAt func(f *feature) int) int {
	idx := 0
	for _, f := range c.features {
		idx = idx*f.states + binAt(f)
	}
	return idx
}

// bitsRequired returns the bits needed to store maxValue, at least 1.
func bitsRequired(maxValue int) int {
	if maxValue <= 0 {
		return 1
	}
	return bits.Len64(uint64(maxValue))
}
