package api

import (
	"time"

	"github.com/google/uuid"
)

type Model struct {
	Id     uuid.UUID
	Name   string
	Status string

	RegRate      float64
	TestAccuracy *float64 `json:"TestAccuracy,omitempty"`
	Active       bool

	CreationTime   time.Time
	CompletionTime *time.Time `json:"CompletionTime,omitempty"`
}

type TrainRequest struct {
	ModelName  string
	DataBucket string
	DataPrefix string
	RegRate    float64
}

type TrainSubmitResponse struct {
	Message string
	ModelId uuid.UUID
}

type ListModelsQuery struct {
	Status string `schema:"status"`
}

// ScoreResult mirrors the scoring response body: exactly one of Predictions
// or Error is populated.
type ScoreResult struct {
	Predictions []int  `json:"predictions"`
	Error       string `json:"error,omitempty"`
	Success     *bool  `json:"success,omitempty"`
}

func (r ScoreResult) Failed() bool {
	return r.Success != nil && !*r.Success
}
