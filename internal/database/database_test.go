package database_test

import (
	"context"
	"testing"
	"time"

	"diabetes-backend/internal/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func createDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.GetMigrator(db).Migrate())
	return db
}

func createModel(t *testing.T, db *gorm.DB, status string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	require.NoError(t, db.Create(&database.TrainedModel{
		Id:           id,
		Name:         "diabetes-model",
		Status:       status,
		RegRate:      0.01,
		DataBucket:   "datasets",
		CreationTime: time.Now().UTC(),
	}).Error)
	return id
}

func TestUpdateModelStatus(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	id := createModel(t, db, database.ModelQueued)

	require.NoError(t, database.UpdateModelStatus(ctx, db, id, database.ModelTraining))

	var m database.TrainedModel
	require.NoError(t, db.First(&m, "id = ?", id).Error)
	assert.Equal(t, database.ModelTraining, m.Status)
	assert.False(t, m.CompletionTime.Valid)

	require.NoError(t, database.UpdateModelStatus(ctx, db, id, database.ModelTrained))

	require.NoError(t, db.First(&m, "id = ?", id).Error)
	assert.Equal(t, database.ModelTrained, m.Status)
	assert.True(t, m.CompletionTime.Valid)
}

func TestSetModelAccuracy(t *testing.T) {
	db := createDB(t)

	id := createModel(t, db, database.ModelTrained)

	require.NoError(t, database.SetModelAccuracy(context.Background(), db, id, 0.774))

	var m database.TrainedModel
	require.NoError(t, db.First(&m, "id = ?", id).Error)
	require.True(t, m.TestAccuracy.Valid)
	assert.Equal(t, 0.774, m.TestAccuracy.Float64)
}

func TestSaveTrainingError(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	id := createModel(t, db, database.ModelFailed)

	database.SaveTrainingError(ctx, db, id, "first error")
	database.SaveTrainingError(ctx, db, id, "second error")

	var errs []database.TrainingError
	require.NoError(t, db.Find(&errs, "model_id = ?", id).Error)
	require.Len(t, errs, 2)

	messages := []string{errs[0].Error, errs[1].Error}
	assert.ElementsMatch(t, []string{"first error", "second error"}, messages)
}

func TestSetActiveModel(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	first := createModel(t, db, database.ModelTrained)
	second := createModel(t, db, database.ModelTrained)

	require.NoError(t, database.SetActiveModel(ctx, db, first))

	var m database.TrainedModel
	require.NoError(t, db.First(&m, "id = ?", first).Error)
	assert.True(t, m.Active)

	require.NoError(t, database.SetActiveModel(ctx, db, second))

	require.NoError(t, db.First(&m, "id = ?", first).Error)
	assert.False(t, m.Active)
	m = database.TrainedModel{}
	require.NoError(t, db.First(&m, "id = ?", second).Error)
	assert.True(t, m.Active)
}

func TestSetActiveModelRequiresTrained(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	queued := createModel(t, db, database.ModelQueued)
	require.Error(t, database.SetActiveModel(ctx, db, queued))

	var m database.TrainedModel
	require.NoError(t, db.First(&m, "id = ?", queued).Error)
	assert.False(t, m.Active)
}

func TestSetActiveModelNotFound(t *testing.T) {
	db := createDB(t)

	err := database.SetActiveModel(context.Background(), db, uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
