package ebm

import (
	"testing"
)

func TestNewCombination_PackGeometry(t *testing.T) {
	features := []feature{
		{index: 0, states: 4},
		{index: 1, states: 6},
		{index: 2, states: 1},
		{index: 3, states: 2},
	}

	tests := []struct {
		name         string
		idxs         []int
		wantDims     int
		wantStates   int
		wantPerPack  int
		wantItemBits int
	}{
		{"intercept", nil, 0, 1, 0, 0},
		{"single 4-state", []int{0}, 1, 4, 32, 2},
		{"single 6-state", []int{1}, 1, 6, 21, 3},
		{"pair", []int{0, 1}, 2, 24, 12, 5},
		{"single-state elided", []int{2}, 0, 1, 0, 0},
		{"elision keeps others", []int{0, 2, 3}, 2, 8, 21, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := newCombination(0, features, tt.idxs)
			if err != nil {
				t.Fatalf("newCombination failed: %v", err)
			}
			if c.dims() != tt.wantDims {
				t.Errorf("dims: expected %d, got %d", tt.wantDims, c.dims())
			}
			if c.tensorStates != tt.wantStates {
				t.Errorf("tensorStates: expected %d, got %d", tt.wantStates, c.tensorStates)
			}
			if c.itemsPerPack != tt.wantPerPack {
				t.Errorf("itemsPerPack: expected %d, got %d", tt.wantPerPack, c.itemsPerPack)
			}
			if c.bitsPerItem != tt.wantItemBits {
				t.Errorf("bitsPerItem: expected %d, got %d", tt.wantItemBits, c.bitsPerItem)
			}
			if c.dims() > 0 && c.itemsPerPack*c.bitsPerItem > bitsPerWord {
				t.Errorf("pack geometry exceeds word width")
			}
		})
	}
}

func TestNewCombination_BadFeatureIndex(t *testing.T) {
	features := []feature{{index: 0, states: 2}}
	if _, err := newCombination(0, features, []int{1}); err == nil {
		t.Errorf("expected error for out-of-range feature index")
	}
	if _, err := newCombination(0, features, []int{-1}); err == nil {
		t.Errorf("expected error for negative feature index")
	}
}

func TestNewCombination_TooManyDimensions(t *testing.T) {
	features := make([]feature, DimensionsMax+1)
	idxs := make([]int, DimensionsMax+1)
	for i := range features {
		features[i] = feature{index: i, states: 2}
		idxs[i] = i
	}
	if _, err := newCombination(0, features, idxs); err == nil {
		t.Errorf("expected error for combination over the dimension limit")
	}
}

func TestCombination_TensorIndexFold(t *testing.T) {
	features := []feature{
		{index: 0, states: 2},
		{index: 1, states: 3},
	}
	c, err := newCombination(0, features, []int{0, 1})
	if err != nil {
		t.Fatalf("newCombination failed: %v", err)
	}
	bins := map[int]int{0: 1, 1: 2}
	idx := c.tensorIndex(func(f *feature) int { return bins[f.index] })
	if idx != 5 { // 1*3 + 2, first feature major
		t.Errorf("expected fold index 5, got %d", idx)
	}
}

func TestBitsRequired(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 2: 2, 3: 2, 4: 3, 7: 3, 8: 4, 255: 8, 256: 9}
	for v, want := range cases {
		if got := bitsRequired(v); got != want {
			t.Errorf("bitsRequired(%d): expected %d, got %d", v, want, got)
		}
	}
}
