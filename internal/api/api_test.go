package api_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"diabetes-backend/internal/api"
	"diabetes-backend/internal/database"
	"diabetes-backend/internal/dataset"
	"diabetes-backend/internal/messaging"
	"diabetes-backend/internal/model"
	"diabetes-backend/internal/scorer"
	backendapi "diabetes-backend/pkg/api"

	"github.com/go-chi/chi/v5"
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

type testEnv struct {
	db     *gorm.DB
	queue  *messaging.InMemoryQueue
	server *httptest.Server
}

func createTestEnv(t *testing.T, sc *scorer.Scorer) *testEnv {
	t.Helper()

	db := createDB(t)
	queue := messaging.NewInMemoryQueue()

	if sc == nil {
		sc = scorer.New()
	}

	r := chi.NewRouter()
	api.NewBackendService(db, queue, sc).AddRoutes(r)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &testEnv{db: db, queue: queue, server: server}
}

func (e *testEnv) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(e.server.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()

	resp, err := http.Get(e.server.URL + path)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	env := createTestEnv(t, nil)

	resp := env.get(t, "/health")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSubmitTrainingJob(t *testing.T) {
	env := createTestEnv(t, nil)

	resp := env.post(t, "/models", backendapi.TrainRequest{
		ModelName:  "diabetes-model",
		DataBucket: "datasets",
		DataPrefix: "diabetes",
		RegRate:    0.01,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[backendapi.TrainSubmitResponse](t, resp)
	assert.Equal(t, "Training job submitted", body.Message)
	assert.NotEqual(t, uuid.Nil, body.ModelId)

	var m database.TrainedModel
	require.NoError(t, env.db.First(&m, "id = ?", body.ModelId).Error)
	assert.Equal(t, database.ModelQueued, m.Status)
	assert.Equal(t, "diabetes-model", m.Name)
	assert.Equal(t, 0.01, m.RegRate)

	select {
	case task := <-env.queue.Tasks():
		assert.Equal(t, messaging.TrainingQueue, task.Type())

		var payload messaging.TrainTaskPayload
		require.NoError(t, json.Unmarshal(task.Payload(), &payload))
		assert.Equal(t, body.ModelId, payload.ModelId)
		assert.Equal(t, "datasets", payload.DataBucket)
		assert.Equal(t, 0.01, payload.RegRate)
	default:
		t.Fatal("expected a task on the training queue")
	}
}

func TestSubmitTrainingJobValidation(t *testing.T) {
	env := createTestEnv(t, nil)

	tests := []struct {
		name string
		req  backendapi.TrainRequest
		code int
	}{
		{"bad name", backendapi.TrainRequest{ModelName: "bad name!", DataBucket: "b", RegRate: 0.1}, http.StatusBadRequest},
		{"missing bucket", backendapi.TrainRequest{ModelName: "ok", RegRate: 0.1}, http.StatusUnprocessableEntity},
		{"zero reg rate", backendapi.TrainRequest{ModelName: "ok", DataBucket: "b"}, http.StatusUnprocessableEntity},
		{"negative reg rate", backendapi.TrainRequest{ModelName: "ok", DataBucket: "b", RegRate: -1}, http.StatusUnprocessableEntity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.post(t, "/models", tc.req)
			defer resp.Body.Close()
			assert.Equal(t, tc.code, resp.StatusCode)
		})
	}
}

func TestListModelsWithStatusFilter(t *testing.T) {
	env := createTestEnv(t, nil)

	for i, status := range []string{database.ModelQueued, database.ModelTrained, database.ModelTrained} {
		require.NoError(t, env.db.Create(&database.TrainedModel{
			Id:           uuid.New(),
			Name:         fmt.Sprintf("model-%d", i),
			Status:       status,
			RegRate:      0.01,
			DataBucket:   "datasets",
			CreationTime: time.Now().UTC(),
		}).Error)
	}

	resp := env.get(t, "/models")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decodeBody[[]backendapi.Model](t, resp)
	assert.Len(t, all, 3)

	resp = env.get(t, "/models?status="+database.ModelTrained)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	trained := decodeBody[[]backendapi.Model](t, resp)
	require.Len(t, trained, 2)
	for _, m := range trained {
		assert.Equal(t, database.ModelTrained, m.Status)
	}
}

func TestGetModel(t *testing.T) {
	env := createTestEnv(t, nil)

	id := uuid.New()
	require.NoError(t, env.db.Create(&database.TrainedModel{
		Id:           id,
		Name:         "diabetes-model",
		Status:       database.ModelTrained,
		RegRate:      0.01,
		TestAccuracy: sql.NullFloat64{Float64: 0.774, Valid: true},
		DataBucket:   "datasets",
		CreationTime: time.Now().UTC(),
	}).Error)

	resp := env.get(t, "/models/"+id.String())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	m := decodeBody[backendapi.Model](t, resp)
	assert.Equal(t, id, m.Id)
	assert.Equal(t, database.ModelTrained, m.Status)
	require.NotNil(t, m.TestAccuracy)
	assert.Equal(t, 0.774, *m.TestAccuracy)
	assert.Nil(t, m.CompletionTime)
}

func TestGetModelNotFound(t *testing.T) {
	env := createTestEnv(t, nil)

	resp := env.get(t, "/models/"+uuid.NewString())
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetModelBadId(t *testing.T) {
	env := createTestEnv(t, nil)

	resp := env.get(t, "/models/not-a-uuid")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestActivateModel(t *testing.T) {
	env := createTestEnv(t, nil)

	previous := uuid.New()
	require.NoError(t, env.db.Create(&database.TrainedModel{
		Id: previous, Name: "old", Status: database.ModelTrained, RegRate: 0.01,
		DataBucket: "datasets", Active: true, CreationTime: time.Now().UTC(),
	}).Error)

	next := uuid.New()
	require.NoError(t, env.db.Create(&database.TrainedModel{
		Id: next, Name: "new", Status: database.ModelTrained, RegRate: 0.01,
		DataBucket: "datasets", CreationTime: time.Now().UTC(),
	}).Error)

	resp := env.post(t, "/models/"+next.String()+"/activate", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var m database.TrainedModel
	require.NoError(t, env.db.First(&m, "id = ?", next).Error)
	assert.True(t, m.Active)

	m = database.TrainedModel{}
	require.NoError(t, env.db.First(&m, "id = ?", previous).Error)
	assert.False(t, m.Active)
}

func TestActivateUntrainedModel(t *testing.T) {
	env := createTestEnv(t, nil)

	id := uuid.New()
	require.NoError(t, env.db.Create(&database.TrainedModel{
		Id: id, Name: "pending", Status: database.ModelQueued, RegRate: 0.01,
		DataBucket: "datasets", CreationTime: time.Now().UTC(),
	}).Error)

	resp := env.post(t, "/models/"+id.String()+"/activate", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestScoreEndpoint(t *testing.T) {
	weights := make([]float64, len(dataset.FeatureColumns))
	weights[1] = 1

	m := &model.LogisticRegression{
		Columns:        append([]string{}, dataset.FeatureColumns...),
		Weights:        weights,
		Bias:           -120,
		InvRegStrength: 100,
	}
	dir := t.TempDir()
	require.NoError(t, m.Save(dir))

	sc := scorer.New()
	require.NoError(t, sc.InitFromDir(dir))

	env := createTestEnv(t, sc)

	record := map[string]any{}
	for _, name := range dataset.FeatureColumns {
		record[name] = 1.0
	}
	record["PlasmaGlucose"] = 171.0

	resp := env.post(t, "/score", record)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decodeBody[backendapi.ScoreResult](t, resp)
	require.False(t, result.Failed(), result.Error)
	assert.Equal(t, []int{1}, result.Predictions)
}

func TestScoreEndpointErrorsAreHTTP200(t *testing.T) {
	env := createTestEnv(t, nil)

	resp := env.post(t, "/score", "not an object or array")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decodeBody[backendapi.ScoreResult](t, resp)
	require.True(t, result.Failed())
	assert.Equal(t, "Input data must be a JSON object or array", result.Error)
}
