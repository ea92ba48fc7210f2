package tensor

import (
	"math"
	"testing"
)

const epsilon = 1e-12

func TestNewSegmented_ZeroDimensional(t *testing.T) {
	s, err := NewSegmented(0, 3)
	if err != nil {
		t.Fatalf("NewSegmented failed: %v", err)
	}
	if s.DimensionCount() != 0 {
		t.Errorf("expected 0 dimensions, got %d", s.DimensionCount())
	}
	if len(s.Values()) != 3 {
		t.Errorf("expected single vector cell of length 3, got %d values", len(s.Values()))
	}
	if !s.Expanded() {
		t.Errorf("zero-dimensional tensor should report expanded")
	}
}

func TestNewSegmented_InvalidArgs(t *testing.T) {
	if _, err := NewSegmented(-1, 1); err == nil {
		t.Errorf("expected error for negative dimension capacity")
	}
	if _, err := NewSegmented(2, 0); err == nil {
		t.Errorf("expected error for zero vector length")
	}
}

func TestSegmented_SetCutsAndCell(t *testing.T) {
	s, err := NewSegmented(1, 1)
	if err != nil {
		t.Fatalf("NewSegmented failed: %v", err)
	}
	s.SetDimensionCount(1)
	if err := s.SetCuts(0, []int{2, 5}); err != nil {
		t.Fatalf("SetCuts failed: %v", err)
	}
	values := s.Values()
	if len(values) != 3 {
		t.Fatalf("expected 3 segments, got %d values", len(values))
	}
	values[0], values[1], values[2] = 1.0, 2.0, 3.0

	cases := map[int]float64{0: 1, 1: 1, 2: 2, 4: 2, 5: 3, 9: 3}
	for bin, want := range cases {
		got := s.Cell([]int{bin})[0]
		if got != want {
			t.Errorf("Cell(%d): expected %v, got %v", bin, want, got)
		}
	}
}

func TestSegmented_SetCutsRejectsBadCuts(t *testing.T) {
	s, _ := NewSegmented(1, 1)
	s.SetDimensionCount(1)
	if err := s.SetCuts(0, []int{0}); err == nil {
		t.Errorf("expected error for cut at 0")
	}
	if err := s.SetCuts(0, []int{3, 3}); err == nil {
		t.Errorf("expected error for non-ascending cuts")
	}
	if err := s.SetCuts(2, nil); err == nil {
		t.Errorf("expected error for out-of-range axis")
	}
}

func TestSegmented_ExpandPreservesValues(t *testing.T) {
	s, _ := NewSegmented(1, 2)
	s.SetDimensionCount(1)
	if err := s.SetCuts(0, []int{2}); err != nil {
		t.Fatalf("SetCuts failed: %v", err)
	}
	copy(s.Values(), []float64{1, 10, 2, 20})

	if err := s.Expand([]int{4}); err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	if !s.Expanded() {
		t.Fatalf("tensor should be expanded")
	}
	want := []float64{1, 10, 1, 10, 2, 20, 2, 20}
	got := s.Values()
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value[%d]: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestSegmented_AddMergesCuts(t *testing.T) {
	a, _ := NewSegmented(1, 1)
	a.SetDimensionCount(1)
	if err := a.SetCuts(0, []int{2}); err != nil {
		t.Fatalf("SetCuts failed: %v", err)
	}
	copy(a.Values(), []float64{1, 5})

	b, _ := NewSegmented(1, 1)
	b.SetDimensionCount(1)
	if err := b.SetCuts(0, []int{3}); err != nil {
		t.Fatalf("SetCuts failed: %v", err)
	}
	copy(b.Values(), []float64{10, 100})

	if err := a.Add(b); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	// merged segments: [0,2) [2,3) [3,..)
	want := []float64{11, 15, 105}
	got := a.Values()
	for i := range want {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("value[%d]: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestSegmented_AddSameLayoutFastPath(t *testing.T) {
	a, _ := NewSegmented(0, 2)
	b, _ := NewSegmented(0, 2)
	copy(a.Values(), []float64{1, 2})
	copy(b.Values(), []float64{10, 20})
	if err := a.Add(b); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if a.Values()[0] != 11 || a.Values()[1] != 22 {
		t.Errorf("unexpected sums: %v", a.Values())
	}
}

func TestSegmented_TwoDimensionalExpand(t *testing.T) {
	a, _ := NewSegmented(2, 1)
	a.SetDimensionCount(2)
	if err := a.SetCuts(0, []int{1}); err != nil {
		t.Fatalf("SetCuts failed: %v", err)
	}
	// axis 1 uncut: cells are the two halves of axis 0
	copy(a.Values(), []float64{3, 7})

	if err := a.Expand([]int{2, 3}); err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	want := []float64{3, 3, 3, 7, 7, 7}
	got := a.Values()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value[%d]: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestSegmented_CopyIsDeep(t *testing.T) {
	a, _ := NewSegmented(1, 1)
	a.SetDimensionCount(1)
	if err := a.SetCuts(0, []int{1}); err != nil {
		t.Fatalf("SetCuts failed: %v", err)
	}
	copy(a.Values(), []float64{4, 8})

	dst, _ := NewSegmented(1, 1)
	if err := dst.Copy(a); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	a.Values()[0] = 99
	if dst.Values()[0] != 4 {
		t.Errorf("copy aliases source storage")
	}
	if dst.DimensionCount() != 1 || len(dst.Cuts(0)) != 1 {
		t.Errorf("copy lost segmentation")
	}
}

func TestSegmented_ScaleAndReset(t *testing.T) {
	s, _ := NewSegmented(0, 2)
	copy(s.Values(), []float64{2, -4})
	s.Scale(0.5)
	if s.Values()[0] != 1 || s.Values()[1] != -2 {
		t.Errorf("unexpected scaled values: %v", s.Values())
	}
	s.Reset()
	if s.Values()[0] != 0 || s.Values()[1] != 0 {
		t.Errorf("reset did not zero values: %v", s.Values())
	}
}

func TestSegmented_SetDimensionCountReuses(t *testing.T) {
	s, _ := NewSegmented(2, 1)
	s.SetDimensionCount(2)
	if err := s.SetCuts(0, []int{1}); err != nil {
		t.Fatalf("SetCuts failed: %v", err)
	}
	s.SetDimensionCount(1)
	if s.DimensionCount() != 1 {
		t.Errorf("expected 1 dimension, got %d", s.DimensionCount())
	}
	if len(s.Cuts(0)) != 0 {
		t.Errorf("expected cuts dropped on reset")
	}
	if len(s.Values()) != 1 {
		t.Errorf("expected single cell after reset, got %d", len(s.Values()))
	}
}
