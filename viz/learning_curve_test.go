package viz_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ezoic/glassboost/viz"
)

func TestSaveLearningCurve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curve.png")
	values := []float64{3.0, 2.1, 1.7, 1.69, 1.71, 1.65}

	if err := viz.SaveLearningCurve(path, "validation metric by round", "rmse", values); err != nil {
		t.Fatalf("SaveLearningCurve failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Errorf("output file is empty")
	}
}

func TestSaveLearningCurve_EmptyInput(t *testing.T) {
	err := viz.SaveLearningCurve(filepath.Join(t.TempDir(), "x.png"), "t", "m", nil)
	if err == nil {
		t.Errorf("expected error for empty metric series")
	}
}
