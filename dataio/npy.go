// Package dataio loads binned datasets from NumPy .npy files into the
// boundary format the boosting engine consumes: per-feature bin columns
// and target vectors.
package dataio

import (
	"os"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/glassboost/pkg/errors"
)

// ReadMatrix reads a 2-D .npy file into a gonum dense matrix.
func ReadMatrix(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataio: open %s", path)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "dataio: read npy header of %s", path)
	}
	m := &mat.Dense{}
	if err := r.Read(m); err != nil {
		return nil, errors.Wrapf(err, "dataio: read npy payload of %s", path)
	}
	return m, nil
}

// WriteMatrix writes a gonum dense matrix as a .npy file.
func WriteMatrix(path string, m *mat.Dense) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "dataio: create %s", path)
	}
	defer f.Close()
	if err := npyio.Write(f, m); err != nil {
		return errors.Wrapf(err, "dataio: write npy %s", path)
	}
	return f.Close()
}

// ReadBins loads a case-by-feature bin matrix and transposes it into the
// engine's per-feature column layout, checking that every entry is a
// non-negative integer.
func ReadBins(path string) ([][]int, error) {
	m, err := ReadMatrix(path)
	if err != nil {
		return nil, err
	}
	cases, feats := m.Dims()
	bins := make([][]int, feats)
	for j := 0; j < feats; j++ {
		col := make([]int, cases)
		for i := 0; i < cases; i++ {
			v := m.At(i, j)
			b := int(v)
			if float64(b) != v || b < 0 {
				return nil, errors.NewValueError("dataio.ReadBins", "bin entries must be non-negative integers")
			}
			col[i] = b
		}
		bins[j] = col
	}
	return bins, nil
}

// ReadTargetValues loads a single-column .npy file as regression targets.
func ReadTargetValues(path string) ([]float64, error) {
	m, err := ReadMatrix(path)
	if err != nil {
		return nil, err
	}
	return columnValues(m, "dataio.ReadTargetValues")
}

// ReadTargetClasses loads a single-column .npy file as class-index
// targets.
func ReadTargetClasses(path string) ([]int, error) {
	vals, err := ReadTargetValues(path)
	if err != nil {
		return nil, err
	}
	classes := make([]int, len(vals))
	for i, v := range vals {
		c := int(v)
		if float64(c) != v || c < 0 {
			return nil, errors.NewValueError("dataio.ReadTargetClasses", "targets must be non-negative integers")
		}
		classes[i] = c
	}
	return classes, nil
}

func columnValues(m *mat.Dense, op string) ([]float64, error) {
	rows, cols := m.Dims()
	switch {
	case cols == 1:
		out := make([]float64, rows)
		for i := range out {
			out[i] = m.At(i, 0)
		}
		return out, nil
	case rows == 1:
		out := make([]float64, cols)
		for j := range out {
			out[j] = m.At(0, j)
		}
		return out, nil
	}
	return nil, errors.NewValueError(op, "expected a vector-shaped npy file")
}
