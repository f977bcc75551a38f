package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"diabetes-backend/internal/database"
	"diabetes-backend/internal/dataset"
	"diabetes-backend/internal/messaging"
	"diabetes-backend/internal/model"
	"diabetes-backend/internal/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskProcessor consumes training tasks from the queue and runs the full
// offline pipeline for each: download the dataset, split, fit, evaluate,
// persist the artifact, update the registry.
type TaskProcessor struct {
	db       *gorm.DB
	storage  storage.ObjectStore
	receiver messaging.Receiver

	workDir     string
	modelBucket string
}

func NewTaskProcessor(db *gorm.DB, store storage.ObjectStore, receiver messaging.Receiver, workDir, modelBucket string) *TaskProcessor {
	return &TaskProcessor{
		db:          db,
		storage:     store,
		receiver:    receiver,
		workDir:     workDir,
		modelBucket: modelBucket,
	}
}

func (proc *TaskProcessor) Start() {
	slog.Info("starting task processor")

	for task := range proc.receiver.Tasks() {
		proc.ProcessTask(task)
	}
}

func (proc *TaskProcessor) Stop() {
	slog.Info("stopping task processor")

	proc.receiver.Close()
}

func (proc *TaskProcessor) ProcessTask(task messaging.Task) {
	ctx := context.Background()

	if task.Type() != messaging.TrainingQueue {
		slog.Error("received unknown task type", "queue", task.Type())
		if err := task.Reject(); err != nil { // reject unknown message type
			slog.Error("error rejecting message from queue", "error", err)
		}
		return
	}

	var payload messaging.TrainTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		slog.Error("error unmarshalling train task", "error", err)
		if err := task.Reject(); err != nil { // discard malformed message
			slog.Error("error rejecting message from queue", "error", err)
		}
		return
	}

	if err := proc.processTrainTask(ctx, payload); err != nil {
		slog.Error("error processing task", "queue", task.Type(), "error", err)
		if err := task.Nack(); err != nil {
			slog.Error("error reporting processing failure on message from queue", "error", err)
		}
	} else {
		slog.Info("successfully processed task", "queue", task.Type())
		if err := task.Ack(); err != nil {
			slog.Error("error acknowledging message from queue", "error", err)
		}
	}
}

func (proc *TaskProcessor) processTrainTask(ctx context.Context, payload messaging.TrainTaskPayload) error {
	modelId := payload.ModelId

	slog.Info("processing train task", "model_id", modelId, "data_bucket", payload.DataBucket, "data_prefix", payload.DataPrefix, "reg_rate", payload.RegRate)

	database.UpdateModelStatus(ctx, proc.db, modelId, database.ModelTraining) //nolint:errcheck

	fitted, accuracy, err := proc.runTrainingPipeline(ctx, payload)
	if err != nil {
		proc.markFailed(ctx, modelId, err)
		return err
	}

	localDir := proc.modelDir(modelId)
	if err := fitted.Save(localDir); err != nil {
		proc.markFailed(ctx, modelId, err)
		return fmt.Errorf("error saving model artifact: %w", err)
	}

	if err := proc.storage.UploadDir(ctx, proc.modelBucket, modelId.String(), localDir); err != nil {
		proc.markFailed(ctx, modelId, err)
		return fmt.Errorf("error uploading model artifact: %w", err)
	}

	database.SetModelAccuracy(ctx, proc.db, modelId, accuracy)                //nolint:errcheck
	database.UpdateModelStatus(ctx, proc.db, modelId, database.ModelTrained) //nolint:errcheck

	slog.Info("model trained", "model_id", modelId, "test_accuracy", accuracy)

	return nil
}

// runTrainingPipeline is the Loader -> Splitter -> Trainer chain. Any error
// here terminates the run for this task; that is fine for an offline batch
// job, the registry row records the failure.
func (proc *TaskProcessor) runTrainingPipeline(ctx context.Context, payload messaging.TrainTaskPayload) (*model.LogisticRegression, float64, error) {
	dataDir := filepath.Join(proc.workDir, "data", payload.ModelId.String())
	defer os.RemoveAll(dataDir)

	if err := proc.storage.DownloadDir(ctx, payload.DataBucket, payload.DataPrefix, dataDir, true); err != nil {
		return nil, 0, fmt.Errorf("error downloading training data: %w", err)
	}

	ds, err := dataset.LoadCSVDir(dataDir)
	if err != nil {
		return nil, 0, err
	}

	xTrain, xTest, yTrain, yTest, err := dataset.Split(ds)
	if err != nil {
		return nil, 0, err
	}

	fitted, err := model.Train(payload.RegRate, xTrain, xTest, yTrain, yTest)
	if err != nil {
		return nil, 0, err
	}

	accuracy, err := model.Accuracy(fitted, xTest, yTest)
	if err != nil {
		return nil, 0, err
	}

	return fitted, accuracy, nil
}

func (proc *TaskProcessor) modelDir(modelId uuid.UUID) string {
	return filepath.Join(proc.workDir, "models", modelId.String())
}

func (proc *TaskProcessor) markFailed(ctx context.Context, modelId uuid.UUID, cause error) {
	database.UpdateModelStatus(ctx, proc.db, modelId, database.ModelFailed) //nolint:errcheck
	database.SaveTrainingError(ctx, proc.db, modelId, cause.Error())
}
