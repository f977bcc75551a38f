package main

import (
	"context"
	"log"
	"log/slog"

	"diabetes-backend/cmd"
	"diabetes-backend/pkg/client"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:3001/api/v1"`
}

func sampleRecord(glucose, bmi float64) map[string]any {
	return map[string]any{
		"Pregnancies":            2.0,
		"PlasmaGlucose":          glucose,
		"DiastolicBloodPressure": 72.0,
		"TricepsThickness":       35.0,
		"SerumInsulin":           130.0,
		"BMI":                    bmi,
		"DiabetesPedigree":       0.45,
		"Age":                    43.0,
	}
}

// Sends a couple of scoring requests against a running endpoint and prints
// what comes back. Useful as a smoke check after deploying a model.
func main() {
	cmd.LoadEnvFile()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	ctx := context.Background()
	c := client.New(cfg.BaseURL)

	if err := c.Health(ctx); err != nil {
		log.Fatalf("endpoint not healthy: %v", err)
	}
	slog.Info("endpoint healthy", "base_url", cfg.BaseURL)

	single, err := c.Score(ctx, sampleRecord(171.0, 42.6))
	if err != nil {
		log.Fatalf("single record scoring failed: %v", err)
	}
	if single.Failed() {
		log.Fatalf("single record scoring returned error: %s", single.Error)
	}
	slog.Info("single record scored", "predictions", single.Predictions)

	batch, err := c.Score(ctx, []map[string]any{
		sampleRecord(171.0, 42.6),
		sampleRecord(92.0, 21.2),
		sampleRecord(130.0, 33.7),
	})
	if err != nil {
		log.Fatalf("batch scoring failed: %v", err)
	}
	if batch.Failed() {
		log.Fatalf("batch scoring returned error: %s", batch.Error)
	}
	slog.Info("batch scored", "predictions", batch.Predictions)
}
