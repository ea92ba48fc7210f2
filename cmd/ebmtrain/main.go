// Command ebmtrain runs cyclic boosting rounds over a binned dataset
// stored as .npy files and writes the validation learning curve.
//
// The bins file is a case-by-feature integer matrix; targets are a vector.
// Every feature becomes a single-feature combination plus one intercept
// term, and rounds cycle over the combinations.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ezoic/glassboost/dataio"
	"github.com/ezoic/glassboost/ebm"
	"github.com/ezoic/glassboost/pkg/log"
	"github.com/ezoic/glassboost/viz"
)

func main() {
	var (
		trainBins   = flag.String("train-bins", "", "npy matrix of training bins (cases x features)")
		trainTarget = flag.String("train-target", "", "npy vector of training targets")
		valBins     = flag.String("val-bins", "", "npy matrix of validation bins")
		valTarget   = flag.String("val-target", "", "npy vector of validation targets")
		classes     = flag.Int("classes", 0, "class count; 0 trains a regression model")
		rounds      = flag.Int("rounds", 100, "boosting rounds")
		learnRate   = flag.Float64("learning-rate", 0.1, "learning rate")
		maxSplits   = flag.Int("max-splits", 4, "max tree splits per update")
		minParent   = flag.Int("min-parent", 2, "min cases in a split parent")
		innerBags   = flag.Int("inner-bags", 0, "bootstrap sampling sets per round")
		seed        = flag.Int64("seed", 42, "sampling seed")
		curvePath   = flag.String("curve", "learning_curve.png", "learning-curve output PNG")
		logLevel    = flag.String("log-level", "info", "log level")
	)
	flag.Parse()
	log.SetupLogger(*logLevel)
	logger := log.GetLoggerWithName("ebmtrain")

	if *trainBins == "" || *trainTarget == "" {
		fmt.Fprintln(os.Stderr, "ebmtrain: -train-bins and -train-target are required")
		os.Exit(2)
	}

	if err := run(*trainBins, *trainTarget, *valBins, *valTarget, *classes,
		*rounds, *learnRate, *maxSplits, *minParent, *innerBags, *seed, *curvePath); err != nil {
		log.LogError(err, "training failed")
		os.Exit(1)
	}
	logger.Info("done")
}

func run(trainBins, trainTarget, valBins, valTarget string, classes,
	rounds int, learningRate float64, maxSplits, minParent, innerBags int,
	seed int64, curvePath string) error {
	logger := log.GetLoggerWithName("ebmtrain")

	bins, err := dataio.ReadBins(trainBins)
	if err != nil {
		return err
	}

	cfg := ebm.Config{
		Seed:      seed,
		InnerBags: innerBags,
		TrainBins: bins,
	}
	for _, col := range bins {
		maxBin := 0
		for _, b := range col {
			if b > maxBin {
				maxBin = b
			}
		}
		cfg.Features = append(cfg.Features, ebm.FeatureSpec{Type: ebm.Ordinal, BinCount: maxBin + 1})
	}
	cfg.Combinations = append(cfg.Combinations, []int{}) // intercept
	for fi := range cfg.Features {
		cfg.Combinations = append(cfg.Combinations, []int{fi})
	}

	if valBins != "" {
		cfg.ValidationBins, err = dataio.ReadBins(valBins)
		if err != nil {
			return err
		}
	}

	var booster *ebm.Booster
	metricName := "log-loss"
	if classes == 0 {
		metricName = "rmse"
		cfg.TrainTargetValues, err = dataio.ReadTargetValues(trainTarget)
		if err != nil {
			return err
		}
		if valTarget != "" {
			cfg.ValidationTargetValues, err = dataio.ReadTargetValues(valTarget)
			if err != nil {
				return err
			}
		}
		booster, err = ebm.NewRegressionBooster(cfg)
	} else {
		cfg.ClassCount = classes
		cfg.TrainTargetClasses, err = dataio.ReadTargetClasses(trainTarget)
		if err != nil {
			return err
		}
		if valTarget != "" {
			cfg.ValidationTargetClasses, err = dataio.ReadTargetClasses(valTarget)
			if err != nil {
				return err
			}
		}
		booster, err = ebm.NewClassificationBooster(cfg)
	}
	if err != nil {
		return err
	}
	defer booster.Close()

	params := ebm.UpdateParams{
		LearningRate:   learningRate,
		MaxTreeSplits:  maxSplits,
		MinParentCases: minParent,
	}
	curve := make([]float64, 0, rounds)
	for round := 0; round < rounds; round++ {
		combo := round % booster.CombinationCount()
		metric, err := booster.TrainingStep(combo, params)
		if err != nil {
			return err
		}
		curve = append(curve, metric)
		if round%10 == 0 {
			logger.Info("round complete", "round", round, "combination", combo, "metric", metric)
		}
	}
	logger.Info("training finished", "best_metric", booster.BestValidationMetric())

	if len(curve) > 0 && curvePath != "" {
		if err := viz.SaveLearningCurve(curvePath, "validation metric by round", metricName, curve); err != nil {
			return err
		}
		logger.Info("learning curve written", "path", curvePath)
	}
	return nil
}
