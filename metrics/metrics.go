// Package metrics provides the evaluation metrics the boosting engine
// reports: root-mean-squared error for regression and summed log-loss for
// classification. The score-based forms take raw prediction scores in the
// engine's conventions (log odds for binary, per-class log weights for
// multiclass), so test code can recompute a validation metric from first
// principles.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/glassboost/pkg/errors"
)

// RMSE computes the root-mean-squared error between two vectors.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("RMSE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("RMSE", n, yPred.Len(), 0)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += d * d
	}
	return math.Sqrt(sum / float64(n)), nil
}

// RMSEFromResiduals computes RMSE straight from a residual buffer.
func RMSEFromResiduals(residuals []float64) (float64, error) {
	if len(residuals) == 0 {
		return 0, errors.NewValueError("RMSEFromResiduals", "empty residuals")
	}
	var sum float64
	for _, r := range residuals {
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(residuals))), nil
}

// LogLossFromLogOdds sums the per-case binary log-loss
// log(1+exp(s)) − target·s over raw log-odds scores. Targets are 0 or 1.
func LogLossFromLogOdds(targets []int, scores []float64) (float64, error) {
	if len(targets) == 0 {
		return 0, errors.NewValueError("LogLossFromLogOdds", "empty targets")
	}
	if len(scores) != len(targets) {
		return 0, errors.NewDimensionError("LogLossFromLogOdds", len(targets), len(scores), 0)
	}
	var sum float64
	for i, t := range targets {
		s := scores[i]
		var sp float64
		if s > 0 {
			sp = s + math.Log1p(math.Exp(-s))
		} else {
			sp = math.Log1p(math.Exp(s))
		}
		sum += sp - float64(t)*s
	}
	return sum, nil
}

// LogLossFromLogWeights sums the per-case multiclass log-loss
// log(Σ_j exp(s_j)) − s_target over case-major per-class scores.
func LogLossFromLogWeights(targets []int, scores []float64, classes int) (float64, error) {
	if classes < 2 {
		return 0, errors.NewValueError("LogLossFromLogWeights", "need at least two classes")
	}
	if len(scores) != len(targets)*classes {
		return 0, errors.NewDimensionError("LogLossFromLogWeights", len(targets)*classes, len(scores), 0)
	}
	var sum float64
	for i, t := range targets {
		base := i * classes
		sumExp := 0.0
		for j := 0; j < classes; j++ {
			sumExp += math.Exp(scores[base+j])
		}
		sum += math.Log(sumExp) - scores[base+t]
	}
	return sum, nil
}
