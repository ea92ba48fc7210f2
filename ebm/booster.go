package ebm

import (
	"math"

	"github.com/ezoic/glassboost/core/tensor"
	"github.com/ezoic/glassboost/pkg/errors"
	"github.com/ezoic/glassboost/pkg/log"
)

type task int

const (
	taskRegression task = iota
	taskClassification
)

// Booster is the training-state handle. It owns the feature and
// combination descriptors, both data sets, the sampling sets, the current
// and best model tensors, and the two scratch update tensors. A Booster is
// not safe for concurrent use; calls on distinct Boosters are independent.
type Booster struct {
	task      task
	classes   int // target states; 0 for regression
	vectorLen int
	zeroIdx   int // negative disables residual zeroing
	logitMode LogitMode

	features []feature
	combos   []*combination

	training   *dataSet
	validation *dataSet

	samplingSets []*samplingSet

	currentModel []*tensor.Segmented
	bestModel    []*tensor.Segmented
	bestMetric   float64

	overwrite   *tensor.Segmented // per-sampling-set learner output
	accumulator *tensor.Segmented // sum across sampling sets

	kern kernel

	logger      log.Logger
	logGenerate *log.Counted
	logApply    *log.Counted

	closed bool
}

// NewRegressionBooster builds a training state for a real-valued target.
// Targets must be finite.
func NewRegressionBooster(cfg Config) (*Booster, error) {
	return newBooster(taskRegression, cfg)
}

// NewClassificationBooster builds a training state for a categorical
// target with cfg.ClassCount states. A class count of one, or of zero with
// no training or validation cases, is degenerate but legal: the booster
// carries no model and every operation reports a zero metric. A class count
// of zero with any cases is rejected.
func NewClassificationBooster(cfg Config) (*Booster, error) {
	return newBooster(taskClassification, cfg)
}

func newBooster(tk task, cfg Config) (*Booster, error) {
	const op = "NewBooster"

	if cfg.InnerBags < 0 {
		return nil, errors.NewValueError(op, "inner bag count must not be negative")
	}

	b := &Booster{
		task:        tk,
		classes:     cfg.ClassCount,
		zeroIdx:     -1,
		logitMode:   cfg.LogitMode,
		bestMetric:  math.Inf(1),
		logger:      log.GetLoggerWithName("ebm.booster"),
		logGenerate: log.NewCounted(10),
		logApply:    log.NewCounted(10),
	}
	if tk == taskRegression {
		b.classes = 0
	}
	if cfg.ZeroResidual != nil {
		if tk != taskClassification {
			return nil, errors.NewValueError(op, "residual zeroing applies to classification only")
		}
		if *cfg.ZeroResidual < 0 || *cfg.ZeroResidual >= cfg.ClassCount {
			return nil, errors.NewValueError(op, "zero-residual class index out of range")
		}
		b.zeroIdx = *cfg.ZeroResidual
	}

	trainCases, valCases, err := caseCounts(tk, cfg)
	if err != nil {
		return nil, err
	}
	if tk == taskClassification && cfg.ClassCount < 1 && (trainCases > 0 || valCases > 0) {
		return nil, errors.NewValueError(op, "classification requires at least one target state")
	}

	b.vectorLen = 1
	if tk == taskClassification && cfg.ClassCount >= 3 {
		b.vectorLen = cfg.ClassCount
	}

	b.features = make([]feature, len(cfg.Features))
	for i, fs := range cfg.Features {
		if fs.BinCount < 0 {
			return nil, errors.NewValueError(op, "feature bin count must not be negative")
		}
		b.features[i] = feature{index: i, typ: fs.Type, hasMissing: fs.HasMissing, states: fs.BinCount}
	}

	b.combos = make([]*combination, len(cfg.Combinations))
	for i, idxs := range cfg.Combinations {
		c, err := newCombination(i, b.features, idxs)
		if err != nil {
			return nil, err
		}
		b.combos[i] = c
	}

	switch {
	case tk == taskRegression:
		b.kern = regressionKernel{}
	case cfg.ClassCount == 2:
		b.kern = binaryKernel{}
	case cfg.ClassCount >= 3:
		b.kern = newMulticlassKernel(cfg.ClassCount, b.zeroIdx)
	}

	if trainCases > 0 {
		if err := validateBins(b.features, cfg.TrainBins, trainCases, op); err != nil {
			return nil, err
		}
		ds, err := newDataSet(b.combos, cfg.TrainBins, trainCases, b.vectorLen, true, tk == taskClassification)
		if err != nil {
			return nil, err
		}
		b.attachTargets(ds, cfg.TrainTargetValues, cfg.TrainTargetClasses)
		if err := checkInitScores(cfg.TrainInitScores, trainCases, b.vectorLen, op); err != nil {
			return nil, err
		}
		b.training = ds
		b.samplingSets = generateSamplingSets(cfg.Seed, trainCases, cfg.InnerBags)
	}

	if valCases > 0 {
		ds, err := b.buildValidationSet(cfg, valCases, op)
		if err != nil {
			return nil, err
		}
		b.validation = ds
	}

	if len(b.combos) > 0 && (tk == taskRegression || cfg.ClassCount >= 2) {
		b.currentModel, err = newModelTensors(b.combos, b.vectorLen)
		if err != nil {
			return nil, err
		}
		b.bestModel, err = newModelTensors(b.combos, b.vectorLen)
		if err != nil {
			return nil, err
		}
	}

	b.overwrite, err = tensor.NewSegmented(DimensionsMax, b.vectorLen)
	if err != nil {
		return nil, err
	}
	b.accumulator, err = tensor.NewSegmented(DimensionsMax, b.vectorLen)
	if err != nil {
		return nil, err
	}

	if b.kern != nil {
		if b.training != nil {
			b.kern.seedResiduals(b.training, cfg.TrainInitScores)
		}
		if b.validation != nil {
			b.kern.seedResiduals(b.validation, cfg.ValidationInitScores)
		}
	}

	b.logger.Info("booster initialized",
		"features", len(b.features),
		"combinations", len(b.combos),
		"train_cases", trainCases,
		"validation_cases", valCases,
		"inner_bags", cfg.InnerBags)
	return b, nil
}

func caseCounts(tk task, cfg Config) (train, val int, err error) {
	const op = "NewBooster"
	if tk == taskRegression {
		if cfg.TrainTargetClasses != nil || cfg.ValidationTargetClasses != nil {
			return 0, 0, errors.NewValueError(op, "regression takes real-valued targets")
		}
		for _, t := range cfg.TrainTargetValues {
			if math.IsNaN(t) || math.IsInf(t, 0) {
				return 0, 0, errors.NewValueError(op, "regression targets must be finite")
			}
		}
		for _, t := range cfg.ValidationTargetValues {
			if math.IsNaN(t) || math.IsInf(t, 0) {
				return 0, 0, errors.NewValueError(op, "regression targets must be finite")
			}
		}
		return len(cfg.TrainTargetValues), len(cfg.ValidationTargetValues), nil
	}
	if cfg.TrainTargetValues != nil || cfg.ValidationTargetValues != nil {
		return 0, 0, errors.NewValueError(op, "classification takes class-index targets")
	}
	for _, t := range cfg.TrainTargetClasses {
		if t < 0 || t >= cfg.ClassCount {
			return 0, 0, errors.NewValueError(op, "target class out of range")
		}
	}
	for _, t := range cfg.ValidationTargetClasses {
		if t < 0 || t >= cfg.ClassCount {
			return 0, 0, errors.NewValueError(op, "target class out of range")
		}
	}
	return len(cfg.TrainTargetClasses), len(cfg.ValidationTargetClasses), nil
}

func (b *Booster) attachTargets(ds *dataSet, values []float64, classes []int) {
	if b.task == taskRegression {
		ds.targetValues = values
		return
	}
	ds.targetClasses = classes
}

func (b *Booster) buildValidationSet(cfg Config, valCases int, op string) (*dataSet, error) {
	if err := validateBins(b.features, cfg.ValidationBins, valCases, op); err != nil {
		return nil, err
	}
	// regression tracks target-minus-score in residuals; classification
	// tracks raw scores and recomputes per-case loss from them
	withResiduals := b.task == taskRegression
	withScores := b.task == taskClassification
	ds, err := newDataSet(b.combos, cfg.ValidationBins, valCases, b.vectorLen, withResiduals, withScores)
	if err != nil {
		return nil, err
	}
	b.attachTargets(ds, cfg.ValidationTargetValues, cfg.ValidationTargetClasses)
	if err := checkInitScores(cfg.ValidationInitScores, valCases, b.vectorLen, op); err != nil {
		return nil, err
	}
	return ds, nil
}

func checkInitScores(scores []float64, cases, vectorLen int, op string) error {
	if scores == nil {
		return nil
	}
	if len(scores) != cases*vectorLen {
		return errors.NewDimensionError(op, cases*vectorLen, len(scores), 0)
	}
	return nil
}

// newModelTensors allocates one expanded tensor per combination.
func newModelTensors(combos []*combination, vectorLen int) ([]*tensor.Segmented, error) {
	out := make([]*tensor.Segmented, len(combos))
	for i, c := range combos {
		t, err := tensor.NewSegmented(c.dims(), vectorLen)
		if err != nil {
			return nil, err
		}
		t.SetDimensionCount(c.dims())
		if err := t.Expand(c.shape()); err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func (b *Booster) checkHandle(op string, combo int) error {
	if b.closed {
		return errors.NewNotFittedError("Booster", op)
	}
	if combo < 0 || combo >= len(b.combos) {
		return errors.NewDimensionError("Booster."+op, len(b.combos), combo, 0)
	}
	return nil
}

func (b *Booster) degenerate() bool {
	return b.task == taskClassification && b.classes <= 1
}

// GenerateUpdate produces the update tensor for one combination from the
// bootstrapped sampling sets, scaled by the learning rate, and returns its
// dense value buffer along with the averaged gain. The returned slice
// aliases scratch storage owned by the booster: it is valid until the next
// mutating call. A degenerate classification returns a nil tensor and
// zero gain with no error.
func (b *Booster) GenerateUpdate(combo int, p UpdateParams) ([]float64, float64, error) {
	if err := b.checkHandle("GenerateUpdate", combo); err != nil {
		return nil, 0, err
	}
	if b.degenerate() {
		return nil, 0, nil
	}
	if b.logGenerate.Allow() {
		b.logger.Debug("generate update",
			"combination", combo,
			"learning_rate", p.LearningRate,
			"max_tree_splits", p.MaxTreeSplits,
			"min_parent_cases", p.MinParentCases)
	}

	c := b.combos[combo]
	d := c.dims()
	b.accumulator.SetDimensionCount(d)

	totalGain := 0.0
	if b.samplingSets != nil {
		sets := len(b.samplingSets)
		for _, set := range b.samplingSets {
			b.overwrite.SetDimensionCount(d)
			switch d {
			case 0:
				b.trainZeroDim(set, b.overwrite)
			case 1:
				gain, err := b.trainSingleDim(set, c, p.MaxTreeSplits, p.MinParentCases, b.overwrite)
				if err != nil {
					return nil, 0, err
				}
				totalGain += gain
			default:
				if err := b.trainMultiDim(set, c, p.MinParentCases, b.overwrite); err != nil {
					return nil, 0, err
				}
			}
			if err := b.accumulator.Add(b.overwrite); err != nil {
				return nil, 0, err
			}
		}
		totalGain /= float64(sets)

		factor := p.LearningRate / float64(sets)
		if b.task == taskClassification && b.classes == 2 && b.logitMode == LogitsExpanded {
			factor /= 2
		}
		b.accumulator.Scale(factor)
	}

	if d > 0 {
		if err := b.accumulator.Expand(c.shape()); err != nil {
			return nil, 0, err
		}
	}
	return b.accumulator.Values(), totalGain, nil
}

// ApplyUpdate integrates an update tensor into the current model, runs the
// training-set residual pass and the validation pass, and commits every
// combination's current tensor to the best model when the validation
// metric strictly improves. The metric is RMSE for regression and summed
// log-loss for classification; it is zero when no validation set exists.
// A nil update leaves all state untouched.
func (b *Booster) ApplyUpdate(combo int, update []float64) (float64, error) {
	if err := b.checkHandle("ApplyUpdate", combo); err != nil {
		return 0, err
	}
	if b.degenerate() || update == nil {
		return 0, nil
	}
	if b.logApply.Allow() {
		b.logger.Debug("apply update", "combination", combo)
	}

	c := b.combos[combo]
	current := b.currentModel[combo]
	if len(update) != len(current.Values()) {
		return 0, errors.NewDimensionError("Booster.ApplyUpdate", len(current.Values()), len(update), 0)
	}
	if err := current.AddExpanded(update); err != nil {
		return 0, err
	}

	if b.training != nil {
		b.kern.trainingPass(b.training, c, update)
	}

	metric := 0.0
	if b.validation != nil {
		metric = b.kern.validationPass(b.validation, c, update)
		// strict improvement only: ties and NaN metrics never displace
		// the best model
		if metric < b.bestMetric {
			b.bestMetric = metric
			for i := range b.currentModel {
				if err := b.bestModel[i].Copy(b.currentModel[i]); err != nil {
					return 0, errors.Wrap(err, "best model commit")
				}
			}
		}
	}
	return metric, nil
}

// TrainingStep is GenerateUpdate followed by ApplyUpdate, discarding the
// gain. Degenerate classifications succeed with a zero metric.
func (b *Booster) TrainingStep(combo int, p UpdateParams) (float64, error) {
	if err := b.checkHandle("TrainingStep", combo); err != nil {
		return 0, err
	}
	if b.degenerate() {
		return 0, nil
	}
	update, _, err := b.GenerateUpdate(combo, p)
	if err != nil {
		return 0, err
	}
	return b.ApplyUpdate(combo, update)
}

// CurrentModel returns the dense value buffer of one combination's current
// model tensor, or nil when the booster carries no model. The slice
// aliases interior storage and stays valid until the next mutating call.
func (b *Booster) CurrentModel(combo int) ([]float64, error) {
	if err := b.checkHandle("CurrentModel", combo); err != nil {
		return nil, err
	}
	if b.currentModel == nil {
		return nil, nil
	}
	return b.currentModel[combo].Values(), nil
}

// BestModel returns the dense value buffer of one combination's best model
// tensor, under the same aliasing contract as CurrentModel.
func (b *Booster) BestModel(combo int) ([]float64, error) {
	if err := b.checkHandle("BestModel", combo); err != nil {
		return nil, err
	}
	if b.bestModel == nil {
		return nil, nil
	}
	return b.bestModel[combo].Values(), nil
}

// BestValidationMetric returns the best validation metric seen so far;
// +Inf before any improving apply.
func (b *Booster) BestValidationMetric() float64 { return b.bestMetric }

// CombinationCount returns the number of feature combinations.
func (b *Booster) CombinationCount() int { return len(b.combos) }

// VectorLen returns the per-cell value vector length of the model.
func (b *Booster) VectorLen() int { return b.vectorLen }

// Close releases the booster's buffers. Later GenerateUpdate, ApplyUpdate,
// TrainingStep, CurrentModel and BestModel calls fail; outstanding model
// and update slices must not be used.
func (b *Booster) Close() {
	if b.closed {
		return
	}
	b.closed = true
	b.training = nil
	b.validation = nil
	b.samplingSets = nil
	b.currentModel = nil
	b.bestModel = nil
	b.overwrite = nil
	b.accumulator = nil
	b.logger.Info("booster freed")
}
