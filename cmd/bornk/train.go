package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/born-ml/kernels/tensor"
	"github.com/spf13/cobra"
)

// trainConfig holds the hyperparameters of a training run.
type trainConfig struct {
	DataPath  string  // CSV dataset; empty selects synthetic blobs
	Epochs    int     // Passes over the dataset
	LR        float32 // SGD learning rate
	BatchSize int     // Samples per SGD step
	Seed      uint64  // Seed for initialization, shuffling and synthetic data
	LogEvery  int     // Log the epoch loss every LogEvery epochs (0 = only the last)
	Samples   int     // Synthetic samples per class
	Features  int     // Synthetic feature count
	Classes   int     // Synthetic class count
	Predict   int     // Print predictions for the first Predict samples after training
}

func defaultTrainConfig() trainConfig {
	return trainConfig{
		Epochs:    100,
		LR:        0.1,
		BatchSize: 16,
		Seed:      1,
		LogEvery:  10,
		Samples:   50,
		Features:  4,
		Classes:   3,
	}
}

func (c trainConfig) validate() error {
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be positive, got %d", c.Epochs)
	}
	if !(c.LR > 0) || math.IsInf(float64(c.LR), 0) {
		return fmt.Errorf("learning rate must be positive and finite, got %v", c.LR)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.LogEvery < 0 {
		return fmt.Errorf("log-every must not be negative, got %d", c.LogEvery)
	}
	if c.Predict < 0 {
		return fmt.Errorf("predictions must not be negative, got %d", c.Predict)
	}
	return nil
}

// trainResult summarizes a finished run.
type trainResult struct {
	Epochs   int
	Loss     float32 // Loss over the full dataset after training
	Accuracy float32 // Accuracy over the full dataset after training
	Classes  []string

	Predictions []prediction // First Predict samples of the dataset
}

// prediction pairs a sample's predicted class with its label.
type prediction struct {
	Sample    int
	Predicted string
	Actual    string
}

func newTrainCmd(newLogger func(*cobra.Command) *slog.Logger) *cobra.Command {
	cfg := defaultTrainConfig()

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a softmax regression classifier",
		Long: `Train a softmax regression classifier (Linear -> Softmax -> CrossEntropy)
with mini-batch SGD.

The dataset is a CSV file with numeric feature columns followed by a class
name column. Without --data a synthetic Gaussian blob dataset is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := runTrain(cmd.Context(), cfg, newLogger(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "epochs=%d loss=%.4f accuracy=%.4f classes=%v\n",
				res.Epochs, res.Loss, res.Accuracy, res.Classes)
			for _, p := range res.Predictions {
				fmt.Fprintf(cmd.OutOrStdout(), "sample=%d predicted=%s actual=%s\n", p.Sample, p.Predicted, p.Actual)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.DataPath, "data", cfg.DataPath, "CSV dataset (default: synthetic blobs)")
	f.IntVar(&cfg.Epochs, "epochs", cfg.Epochs, "number of training epochs")
	f.Float32Var(&cfg.LR, "lr", cfg.LR, "SGD learning rate")
	f.IntVar(&cfg.BatchSize, "batch", cfg.BatchSize, "batch size")
	f.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	f.IntVar(&cfg.LogEvery, "log-every", cfg.LogEvery, "log the epoch loss every N epochs")
	f.IntVar(&cfg.Samples, "samples", cfg.Samples, "synthetic samples per class")
	f.IntVar(&cfg.Features, "features", cfg.Features, "synthetic feature count")
	f.IntVar(&cfg.Classes, "classes", cfg.Classes, "synthetic class count")
	f.IntVar(&cfg.Predict, "predictions", cfg.Predict, "print predicted classes for the first N samples")
	return cmd
}

// runTrain loads the dataset, trains a model and evaluates it on the full dataset.
func runTrain(ctx context.Context, cfg trainConfig, logger *slog.Logger) (trainResult, error) {
	if err := cfg.validate(); err != nil {
		return trainResult{}, err
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	ds, err := loadDataset(cfg, rng)
	if err != nil {
		return trainResult{}, err
	}
	ds.standardize()
	logger.Info("dataset loaded",
		"samples", ds.numSamples(), "features", ds.numFeatures(), "classes", ds.numClasses())

	src, err := newBatchSource(ds, cfg.BatchSize, rng)
	if err != nil {
		return trainResult{}, err
	}
	model, err := newSoftmaxRegression(ds.numFeatures(), ds.numClasses(), cfg.BatchSize, rng)
	if err != nil {
		return trainResult{}, err
	}
	logger.Debug("model created",
		"arena_bytes", model.arena.Capacity(), "batches_per_epoch", src.batchesPerEpoch())

	classes := make([]int, cfg.BatchSize)
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return trainResult{}, err
		}

		var sum float64
		var steps int
		for {
			ok, err := src.Next(model.inputs, classes)
			if err != nil {
				return trainResult{}, err
			}
			if !ok {
				break
			}
			loss, err := model.trainStep(model.inputs, classes, cfg.LR)
			if err != nil {
				return trainResult{}, fmt.Errorf("epoch %d: %w", epoch, err)
			}
			logger.Debug("batch", "epoch", epoch, "step", steps, "loss", loss)
			sum += float64(loss)
			steps++
		}

		if (cfg.LogEvery > 0 && epoch%cfg.LogEvery == 0) || epoch == cfg.Epochs {
			logger.Info("epoch", "epoch", epoch, "loss", sum/float64(steps))
		}
	}

	loss, acc, err := model.evaluate(ds)
	if err != nil {
		return trainResult{}, err
	}
	logger.Info("training finished", "loss", loss, "accuracy", acc)

	preds, err := predictSamples(model, ds, cfg.Predict)
	if err != nil {
		return trainResult{}, err
	}

	return trainResult{
		Epochs:      cfg.Epochs,
		Loss:        loss,
		Accuracy:    acc,
		Classes:     ds.classNames,
		Predictions: preds,
	}, nil
}

// predictSamples classifies the first n samples of ds.
func predictSamples(model *softmaxRegression, ds *dataset, n int) ([]prediction, error) {
	n = min(n, ds.numSamples())
	if n == 0 {
		return nil, nil
	}
	x, err := tensor.FromRows(ds.features[:n])
	if err != nil {
		return nil, err
	}
	classes, err := model.predict(x)
	if err != nil {
		return nil, err
	}

	out := make([]prediction, n)
	for i, c := range classes {
		out[i] = prediction{
			Sample:    i,
			Predicted: ds.classNames[c],
			Actual:    ds.classNames[ds.labels[i]],
		}
	}
	return out, nil
}

func loadDataset(cfg trainConfig, rng *rand.Rand) (*dataset, error) {
	if cfg.DataPath != "" {
		return loadCSVFile(cfg.DataPath)
	}
	return syntheticBlobs(cfg.Samples, cfg.Features, cfg.Classes, rng)
}
