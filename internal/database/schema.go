package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	ModelQueued   string = "QUEUED"
	ModelTraining string = "TRAINING"
	ModelTrained  string = "TRAINED"
	ModelFailed   string = "FAILED"
)

// TrainedModel is the registry row for one training job and its artifact.
// The artifact itself lives in the object store under the model id.
type TrainedModel struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name   string
	Status string `gorm:"size:20;not null"`

	RegRate      float64
	TestAccuracy sql.NullFloat64

	// Active marks the model the scoring endpoint serves. At most one row
	// is active at a time.
	Active bool `gorm:"default:false"`

	DataBucket string
	DataPrefix string

	CreationTime   time.Time
	CompletionTime sql.NullTime

	Errors []TrainingError `gorm:"foreignKey:ModelId;constraint:OnDelete:CASCADE"`
}

type TrainingError struct {
	ModelId   uuid.UUID `gorm:"type:uuid;primaryKey"`
	ErrorId   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Error     string
	Timestamp time.Time
}
