package main

import (
	"log"
	"log/slog"

	"diabetes-backend/cmd"
	"diabetes-backend/internal/dataset"
	"diabetes-backend/internal/model"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	TrainingData string  `env:"TRAINING_DATA" envDefault:"./data"`
	ModelDir     string  `env:"MODEL_DIR" envDefault:"./artifacts/diabetes-model"`
	RegRate      float64 `env:"REG_RATE" envDefault:"0.01"`
}

// One-shot offline pipeline: load CSVs, split, fit, evaluate, write the
// model artifact. Any stage failure terminates the run.
func main() {
	log.Println("Starting training pipeline...")

	cmd.LoadEnvFile()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	ds, err := dataset.LoadCSVDir(cfg.TrainingData)
	if err != nil {
		log.Fatalf("Failed to load training data: %v", err)
	}

	xTrain, xTest, yTrain, yTest, err := dataset.Split(ds)
	if err != nil {
		log.Fatalf("Failed to split dataset: %v", err)
	}

	slog.Info("dataset split", "train_rows", len(xTrain), "test_rows", len(xTest))

	fitted, err := model.Train(cfg.RegRate, xTrain, xTest, yTrain, yTest)
	if err != nil {
		log.Fatalf("Failed to train model: %v", err)
	}

	accuracy, err := model.Accuracy(fitted, xTest, yTest)
	if err != nil {
		log.Fatalf("Failed to evaluate model: %v", err)
	}

	slog.Info("model trained", "reg_rate", cfg.RegRate, "test_accuracy", accuracy)

	if err := fitted.Save(cfg.ModelDir); err != nil {
		log.Fatalf("Failed to save model artifact: %v", err)
	}

	slog.Info("model artifact written", "dir", cfg.ModelDir)
}
