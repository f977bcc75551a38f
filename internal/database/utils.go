package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func UpdateModelStatus(ctx context.Context, txn *gorm.DB, modelId uuid.UUID, status string) error {
	updates := map[string]any{"status": status}
	if status == ModelTrained || status == ModelFailed {
		updates["completion_time"] = time.Now().UTC()
	}

	if err := txn.WithContext(ctx).Model(&TrainedModel{Id: modelId}).Updates(updates).Error; err != nil {
		slog.Error("error updating model status", "model_id", modelId, "status", status, "error", err)
		return err
	}
	return nil
}

func SetModelAccuracy(ctx context.Context, txn *gorm.DB, modelId uuid.UUID, accuracy float64) error {
	if err := txn.WithContext(ctx).Model(&TrainedModel{Id: modelId}).Update("test_accuracy", accuracy).Error; err != nil {
		slog.Error("error updating model accuracy", "model_id", modelId, "error", err)
		return err
	}
	return nil
}

func SaveTrainingError(ctx context.Context, txn *gorm.DB, modelId uuid.UUID, errorMessage string) {
	trainingError := TrainingError{
		ModelId:   modelId,
		ErrorId:   uuid.New(),
		Error:     errorMessage,
		Timestamp: time.Now().UTC(),
	}

	if err := txn.WithContext(ctx).Create(&trainingError).Error; err != nil {
		slog.Error("error saving training error", "model_id", modelId, "error", err)
	}
}

// SetActiveModel flips the active flag to the given trained model, clearing
// it everywhere else, inside one transaction.
func SetActiveModel(ctx context.Context, db *gorm.DB, modelId uuid.UUID) error {
	return db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		var m TrainedModel
		if err := txn.First(&m, "id = ?", modelId).Error; err != nil {
			return err
		}
		if m.Status != ModelTrained {
			return fmt.Errorf("model %s is not trained (status %s)", modelId, m.Status)
		}

		if err := txn.Model(&TrainedModel{}).Where("active = ?", true).Update("active", false).Error; err != nil {
			return fmt.Errorf("could not clear active flag: %w", err)
		}

		if err := txn.Model(&TrainedModel{Id: modelId}).Update("active", true).Error; err != nil {
			return fmt.Errorf("could not set active flag: %w", err)
		}
		return nil
	})
}
