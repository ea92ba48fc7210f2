package ebm

import (
	"github.com/ezoic/glassboost/pkg/errors"
)

// dataSet holds one of the training or validation sets: targets, the
// bit-packed column per feature combination, and whichever of the residual
// and prediction-score buffers the learning mode needs.
//
// Buffers are case-major; residuals and scores hold vectorLen values per
// case. Regression keeps target-minus-score in the residual buffer and
// never materializes scores; classification keeps scores and, on the
// training set, residuals.
type dataSet struct {
	cases     int
	vectorLen int

	targetValues  []float64 // regression
	targetClasses []int     // classification

	residuals []float64
	scores    []float64

	columns [][]uint64 // indexed by combination index; nil for 0-dim terms
}

// newDataSet bit-packs one column per combination from per-feature bins
// (bins[featureIndex][caseIndex]) and materializes the requested buffers.
func newDataSet(combos []*combination, bins [][]int, cases, vectorLen int, withResiduals, withScores bool) (*dataSet, error) {
	ds := &dataSet{
		cases:     cases,
		vectorLen: vectorLen,
		columns:   make([][]uint64, len(combos)),
	}

	caseBins := make([]int, cases)
	for ci, c := range combos {
		if c.dims() == 0 {
			continue
		}
		for i := 0; i < cases; i++ {
			idx := c.tensorIndex(func(f *feature) int {
				return bins[f.index][i]
			})
			if idx < 0 || idx >= c.tensorStates {
				return nil, errors.NewValueError("newDataSet", "bin index out of range for combination")
			}
			caseBins[i] = idx
		}
		ds.columns[ci] = packColumn(caseBins, c.itemsPerPack, c.bitsPerItem)
	}

	if withResiduals {
		ds.residuals = make([]float64, cases*vectorLen)
	}
	if withScores {
		ds.scores = make([]float64, cases*vectorLen)
	}
	return ds, nil
}

// iter returns a packed iterator over the dataset's column for combo.
// Must not be called for zero-dimensional combinations.
func (ds *dataSet) iter(c *combination) packedIter {
	return newPackedIter(ds.columns[c.index], c.itemsPerPack, c.bitsPerItem)
}

// validateBins checks the raw per-feature bins against feature state
// counts before any packing happens.
func validateBins(features []feature, bins [][]int, cases int, op string) error {
	if cases == 0 {
		return nil
	}
	if len(bins) != len(features) {
		return errors.NewDimensionError(op, len(features), len(bins), 0)
	}
	for fi := range features {
		if len(bins[fi]) != cases {
			return errors.NewDimensionError(op, cases, len(bins[fi]), fi)
		}
		states := features[fi].states
		for _, b := range bins[fi] {
			if b < 0 || b >= states {
				return errors.NewValueError(op, "bin index out of range for feature")
			}
		}
	}
	return nil
}
