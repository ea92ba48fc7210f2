// Package tensor implements the segmented piecewise-constant tensor that
// backs the boosting model terms.
//
// A Segmented tensor has one axis per feature in a term. Each axis keeps a
// sorted list of cut points ("divisions"); a cut at bin c starts a new
// segment covering bins [c, nextCut). Every cell holds a value vector of
// the tensor's vector length. Expanding a tensor places a cut at every bin
// so that cell lookup becomes direct index arithmetic; model tensors are
// kept expanded for their whole lifetime.
package tensor

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/ezoic/glassboost/pkg/errors"
)

type axis struct {
	cuts []int
}

// Segmented is a piecewise-constant tensor with a value vector per cell.
// The zero-dimensional form is a single value vector.
type Segmented struct {
	vectorLen int
	axes      []axis
	values    []float64
	expanded  bool
}

// NewSegmented allocates a tensor with capacity for maxDims dimensions and
// the given value vector length. The tensor starts zero-dimensional with a
// single zeroed cell.
func NewSegmented(maxDims, vectorLen int) (*Segmented, error) {
	if maxDims < 0 {
		return nil, errors.NewValueError("NewSegmented", "negative dimension capacity")
	}
	if vectorLen < 1 {
		return nil, errors.NewValueError("NewSegmented", "vector length must be at least 1")
	}
	return &Segmented{
		vectorLen: vectorLen,
		axes:      make([]axis, 0, maxDims),
		values:    make([]float64, vectorLen),
	}, nil
}

// VectorLen returns the per-cell value vector length.
func (s *Segmented) VectorLen() int { return s.vectorLen }

// DimensionCount returns the active dimension count.
func (s *Segmented) DimensionCount() int { return len(s.axes) }

// Expanded reports whether every axis has a cut at every bin.
func (s *Segmented) Expanded() bool { return s.expanded || len(s.axes) == 0 }

// Values returns the cell value buffer, cells in row-major segment order,
// each cell a vectorLen run. The slice aliases interior storage.
func (s *Segmented) Values() []float64 { return s.values }

// Cuts returns the cut points of one axis. The slice aliases interior
// storage.
func (s *Segmented) Cuts(dim int) []int { return s.axes[dim].cuts }

// SetDimensionCount resets the tensor to d zero-cut dimensions with a
// single zeroed cell. It is called once per boosting round on the scratch
// tensors before a learner fills them.
func (s *Segmented) SetDimensionCount(d int) {
	if d <= cap(s.axes) {
		s.axes = s.axes[:d]
	} else {
		s.axes = make([]axis, d)
	}
	for i := range s.axes {
		s.axes[i].cuts = s.axes[i].cuts[:0]
	}
	s.Reset()
}

// Reset zeroes the tensor in place, dropping all cuts but keeping the
// active dimension count.
func (s *Segmented) Reset() {
	for i := range s.axes {
		s.axes[i].cuts = s.axes[i].cuts[:0]
	}
	s.values = resizeZero(s.values, s.vectorLen)
	s.expanded = false
}

// SetCuts replaces the cut points of one axis and resizes the value buffer
// to the new cell count, zeroing it. Cuts must be ascending bin indices
// greater than zero. Learners call SetCuts for every axis before filling
// Values.
func (s *Segmented) SetCuts(dim int, cuts []int) error {
	if dim < 0 || dim >= len(s.axes) {
		return errors.NewDimensionError("Segmented.SetCuts", len(s.axes), dim, 0)
	}
	for i, c := range cuts {
		if c < 1 || (i > 0 && cuts[i-1] >= c) {
			return errors.NewValueError("Segmented.SetCuts", "cuts must be ascending and positive")
		}
	}
	s.axes[dim].cuts = append(s.axes[dim].cuts[:0], cuts...)
	n, err := s.cellCount()
	if err != nil {
		return err
	}
	s.values = resizeZero(s.values, n*s.vectorLen)
	s.expanded = false
	return nil
}

func (s *Segmented) cellCount() (int, error) {
	n := 1
	for _, ax := range s.axes {
		segs := len(ax.cuts) + 1
		if n > 0 && (n*segs)/segs != n {
			return 0, errors.Wrap(errors.ErrShapeOverflow, "Segmented.cellCount")
		}
		n *= segs
	}
	return n, nil
}

// segmentIndex returns the segment holding bin b on an axis: the number of
// cuts at or below b.
func segmentIndex(cuts []int, b int) int {
	return sort.SearchInts(cuts, b+1)
}

// Cell returns the value vector of the cell containing the given bin
// coordinates. The returned slice aliases interior storage.
func (s *Segmented) Cell(bins []int) []float64 {
	idx := 0
	for d, ax := range s.axes {
		idx = idx*(len(ax.cuts)+1) + segmentIndex(ax.cuts, bins[d])
	}
	off := idx * s.vectorLen
	return s.values[off : off+s.vectorLen]
}

// Expand rewrites the tensor onto the full bin grid given by shape (one
// state count per axis), preserving cell values. A zero-dimensional tensor
// is already expanded.
func (s *Segmented) Expand(shape []int) error {
	if len(shape) != len(s.axes) {
		return errors.NewDimensionError("Segmented.Expand", len(s.axes), len(shape), 0)
	}
	if len(s.axes) == 0 {
		s.expanded = true
		return nil
	}
	target := make([][]int, len(shape))
	for d, states := range shape {
		if states < 1 {
			return errors.NewValueError("Segmented.Expand", "state count must be at least 1")
		}
		cuts := make([]int, states-1)
		for i := range cuts {
			cuts[i] = i + 1
		}
		target[d] = cuts
	}
	if err := s.remap(target); err != nil {
		return err
	}
	s.expanded = true
	return nil
}

// Add accumulates other into s. Cut lists are merged per axis; the result
// covers the union of both segmentations.
func (s *Segmented) Add(other *Segmented) error {
	if other.vectorLen != s.vectorLen {
		return errors.NewDimensionError("Segmented.Add", s.vectorLen, other.vectorLen, 0)
	}
	if len(other.axes) != len(s.axes) {
		return errors.NewDimensionError("Segmented.Add", len(s.axes), len(other.axes), 0)
	}
	if s.sameCuts(other) {
		floats.Add(s.values, other.values)
		return nil
	}
	merged := make([][]int, len(s.axes))
	for d := range s.axes {
		merged[d] = mergeCuts(s.axes[d].cuts, other.axes[d].cuts)
	}
	if err := s.remap(merged); err != nil {
		return err
	}
	// other is looked up per merged cell; its own layout is untouched.
	s.forEachCell(func(bins []int, cell []float64) {
		floats.Add(cell, other.Cell(bins))
	})
	return nil
}

// AddExpanded adds a dense value buffer to an expanded tensor in place.
// The buffer length must equal the tensor's value buffer length.
func (s *Segmented) AddExpanded(values []float64) error {
	if len(values) != len(s.values) {
		return errors.NewDimensionError("Segmented.AddExpanded", len(s.values), len(values), 0)
	}
	floats.Add(s.values, values)
	return nil
}

// Copy makes s a deep copy of other.
func (s *Segmented) Copy(other *Segmented) error {
	if other.vectorLen != s.vectorLen {
		return errors.NewDimensionError("Segmented.Copy", s.vectorLen, other.vectorLen, 0)
	}
	if len(other.axes) <= cap(s.axes) {
		s.axes = s.axes[:len(other.axes)]
	} else {
		s.axes = make([]axis, len(other.axes))
	}
	for d := range other.axes {
		s.axes[d].cuts = append(s.axes[d].cuts[:0], other.axes[d].cuts...)
	}
	s.values = append(s.values[:0], other.values...)
	s.expanded = other.expanded
	return nil
}

// Scale multiplies every value by f.
func (s *Segmented) Scale(f float64) {
	floats.Scale(f, s.values)
}

// sameCuts reports whether both tensors have identical segmentation.
func (s *Segmented) sameCuts(other *Segmented) bool {
	for d := range s.axes {
		a, b := s.axes[d].cuts, other.axes[d].cuts
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}

// remap rewrites s onto the given per-axis cut lists, each of which must
// refine the existing segmentation.
func (s *Segmented) remap(target [][]int) error {
	n := 1
	for _, cuts := range target {
		segs := len(cuts) + 1
		if (n*segs)/segs != n {
			return errors.Wrap(errors.ErrShapeOverflow, "Segmented.remap")
		}
		n *= segs
	}
	newValues := make([]float64, n*s.vectorLen)
	bins := make([]int, len(target))
	for cell := 0; cell < n; cell++ {
		// representative bin per axis: the first bin of the segment
		rem := cell
		for d := len(target) - 1; d >= 0; d-- {
			segs := len(target[d]) + 1
			seg := rem % segs
			rem /= segs
			if seg == 0 {
				bins[d] = 0
			} else {
				bins[d] = target[d][seg-1]
			}
		}
		copy(newValues[cell*s.vectorLen:(cell+1)*s.vectorLen], s.Cell(bins))
	}
	for d := range s.axes {
		s.axes[d].cuts = append(s.axes[d].cuts[:0], target[d]...)
	}
	s.values = newValues
	return nil
}

// forEachCell visits every cell with the representative bin coordinates of
// its segment.
func (s *Segmented) forEachCell(visit func(bins []int, cell []float64)) {
	n := len(s.values) / s.vectorLen
	bins := make([]int, len(s.axes))
	for cell := 0; cell < n; cell++ {
		rem := cell
		for d := len(s.axes) - 1; d >= 0; d-- {
			segs := len(s.axes[d].cuts) + 1
			seg := rem % segs
			rem /= segs
			if seg == 0 {
				bins[d] = 0
			} else {
				bins[d] = s.axes[d].cuts[seg-1]
			}
		}
		visit(bins, s.values[cell*s.vectorLen:(cell+1)*s.vectorLen])
	}
}

func mergeCuts(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j >= len(b) || (i < len(a) && a[i] < b[j]):
			out = append(out, a[i])
			i++
		case i >= len(a) || b[j] < a[i]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

func resizeZero(buf []float64, n int) []float64 {
	if cap(buf) >= n {
		buf = buf[:n]
	} else {
		buf = make([]float64, n)
	}
	for i := range buf {
		buf[i] = 0
	}
	return buf
}
