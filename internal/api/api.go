package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"diabetes-backend/internal/database"
	"diabetes-backend/internal/messaging"
	"diabetes-backend/internal/scorer"
	"diabetes-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BackendService struct {
	db        *gorm.DB
	publisher messaging.Publisher
	scorer    *scorer.Scorer
}

func NewBackendService(db *gorm.DB, pub messaging.Publisher, sc *scorer.Scorer) *BackendService {
	return &BackendService{db: db, publisher: pub, scorer: sc}
}

func (s *BackendService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))
	r.Route("/models", func(r chi.Router) {
		r.Post("/", RestHandler(s.SubmitTrainingJob))
		r.Get("/", RestHandler(s.ListModels))
		r.Get("/{model_id}", RestHandler(s.GetModel))
		r.Post("/{model_id}/activate", RestHandler(s.ActivateModel))
	})
	r.Post("/score", s.Score)
}

func (s *BackendService) SubmitTrainingJob(r *http.Request) (any, error) {
	req, err := ParseRequest[api.TrainRequest](r)
	if err != nil {
		return nil, err
	}

	if err := validateName(req.ModelName); err != nil {
		return nil, err
	}
	if req.DataBucket == "" {
		return nil, CodedErrorf(http.StatusUnprocessableEntity, "missing required field: data_bucket")
	}
	if req.RegRate <= 0 {
		return nil, CodedErrorf(http.StatusUnprocessableEntity, "reg_rate must be positive")
	}

	ctx := r.Context()

	model := &database.TrainedModel{
		Id:           uuid.New(),
		Name:         req.ModelName,
		Status:       database.ModelQueued,
		RegRate:      req.RegRate,
		DataBucket:   req.DataBucket,
		DataPrefix:   req.DataPrefix,
		CreationTime: time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		slog.Error("error creating model record", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create model entry")
	}

	payload := messaging.TrainTaskPayload{
		ModelId:    model.Id,
		DataBucket: req.DataBucket,
		DataPrefix: req.DataPrefix,
		RegRate:    req.RegRate,
	}

	if err := s.publisher.PublishTrainTask(ctx, payload); err != nil {
		slog.Error("error publishing training task", "model_id", model.Id, "error", err)
		database.UpdateModelStatus(ctx, s.db, model.Id, database.ModelFailed) //nolint:errcheck
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to queue training task")
	}

	slog.Info("submitted training job", "model_id", model.Id, "reg_rate", req.RegRate)
	return api.TrainSubmitResponse{Message: "Training job submitted", ModelId: model.Id}, nil
}

func (s *BackendService) ListModels(r *http.Request) (any, error) {
	query, err := ParseRequestQueryParams[api.ListModelsQuery](r)
	if err != nil {
		return nil, err
	}

	ctx := r.Context()

	txn := s.db.WithContext(ctx)
	if query.Status != "" {
		txn = txn.Where("status = ?", query.Status)
	}

	var models []database.TrainedModel
	if err := txn.Find(&models).Error; err != nil {
		slog.Error("error listing models", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving model records")
	}

	out := make([]api.Model, len(models))
	for i, m := range models {
		out[i] = toApiModel(m)
	}
	return out, nil
}

func (s *BackendService) GetModel(r *http.Request) (any, error) {
	modelId, err := URLParamUUID(r, "model_id")
	if err != nil {
		return nil, err
	}

	ctx := r.Context()

	var model database.TrainedModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", modelId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "model not found")
		}
		slog.Error("error getting model", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving model record")
	}

	return toApiModel(model), nil
}

func (s *BackendService) ActivateModel(r *http.Request) (any, error) {
	modelId, err := URLParamUUID(r, "model_id")
	if err != nil {
		return nil, err
	}

	ctx := r.Context()

	if err := database.SetActiveModel(ctx, s.db, modelId); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "model not found")
		}
		slog.Error("error activating model", "model_id", modelId, "error", err)
		return nil, CodedErrorf(http.StatusUnprocessableEntity, "could not activate model: %v", err)
	}

	slog.Info("activated model", "model_id", modelId)
	return nil, nil
}

// Score feeds the raw request body to the scorer. The response is always
// 200 with one of the two result shapes; a bad request must not look like a
// server failure to the serving infrastructure.
func (s *BackendService) Score(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		slog.Error("error reading scoring request body", "error", err)
		http.Error(w, "unable to read request body", http.StatusBadRequest)
		return
	}

	WriteJsonResponse(w, s.scorer.Run(raw))
}

func toApiModel(m database.TrainedModel) api.Model {
	out := api.Model{
		Id:           m.Id,
		Name:         m.Name,
		Status:       m.Status,
		RegRate:      m.RegRate,
		Active:       m.Active,
		CreationTime: m.CreationTime,
	}
	if m.TestAccuracy.Valid {
		acc := m.TestAccuracy.Float64
		out.TestAccuracy = &acc
	}
	if m.CompletionTime.Valid {
		t := m.CompletionTime.Time
		out.CompletionTime = &t
	}
	return out
}
