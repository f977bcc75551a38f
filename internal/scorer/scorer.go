package scorer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"diabetes-backend/internal/dataset"
	"diabetes-backend/internal/model"
)

const (
	// ModelDirEnv designates the model directory at serving time.
	ModelDirEnv = "MODEL_DIR"

	// DefaultModelDir is used when ModelDirEnv is unset.
	DefaultModelDir = "/var/diabetes-backend/models/diabetes-model"
)

// ModelDir resolves the directory the scorer loads its model from.
func ModelDir() string {
	if dir := os.Getenv(ModelDirEnv); dir != "" {
		return dir
	}
	return DefaultModelDir
}

// Scorer wraps a loaded classifier behind a never-panicking Run boundary.
// The model is set at most once, by Init, and never mutated afterwards, so
// concurrent Run calls need no locking.
type Scorer struct {
	model *model.LogisticRegression
}

func New() *Scorer {
	return &Scorer{}
}

// Init transitions the scorer from uninitialized to ready by loading the
// model artifact from the resolved model directory. On failure the scorer
// stays uninitialized and the error is returned to the orchestrator.
func (s *Scorer) Init() error {
	return s.InitFromDir(ModelDir())
}

func (s *Scorer) InitFromDir(dir string) error {
	m, err := model.Load(dir)
	if err != nil {
		slog.Error("error loading model", "dir", dir, "error", err)
		return fmt.Errorf("error loading model from %s: %w", dir, err)
	}

	s.model = m
	slog.Info("model loaded", "dir", dir)
	return nil
}

func (s *Scorer) Ready() bool {
	return s.model != nil
}

// Result is the outcome of a single scoring request. It marshals to
// {"predictions": [...]} on success or {"error": <msg>, "success": false}
// on failure; there is no third shape.
type Result struct {
	Predictions []int
	Err         string
}

func (r Result) Failed() bool {
	return r.Err != ""
}

func (r Result) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(struct {
			Error   string `json:"error"`
			Success bool   `json:"success"`
		}{Error: r.Err, Success: false})
	}

	preds := r.Predictions
	if preds == nil {
		preds = []int{}
	}
	return json.Marshal(struct {
		Predictions []int `json:"predictions"`
	}{Predictions: preds})
}

func success(predictions []int) Result {
	return Result{Predictions: predictions}
}

func failure(format string, args ...any) Result {
	return Result{Err: fmt.Sprintf(format, args...)}
}

// Run scores a raw JSON payload: a single object is one row, an array of
// objects is a row per element. Every failure mode, malformed JSON, a wrong
// payload shape, a missing feature column, an unloaded model, comes back as
// an error Result; Run never panics past this boundary.
func (s *Scorer) Run(raw []byte) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic during inference", "panic", r)
			result = failure("Error during inference: %v", r)
		}
	}()

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return failure("Error during inference: invalid JSON input: %v", err)
	}

	rows, errResult := shapeRows(parsed)
	if errResult != nil {
		return *errResult
	}

	if !s.Ready() {
		return failure("Error during inference: model is not loaded")
	}

	x, errResult := extractFeatures(rows)
	if errResult != nil {
		return *errResult
	}

	predictions, err := s.model.Predict(x)
	if err != nil {
		return failure("Error during inference: %v", err)
	}

	slog.Info("prediction completed", "rows", len(rows))

	return success(predictions)
}

// shapeRows is the shape dispatch over the parsed JSON value: an object is a
// single row, an array must hold only objects, and every other shape is
// rejected with the fixed message.
func shapeRows(parsed any) ([]map[string]any, *Result) {
	switch v := parsed.(type) {
	case map[string]any:
		return []map[string]any{v}, nil
	case []any:
		rows := make([]map[string]any, len(v))
		for i, elem := range v {
			row, ok := elem.(map[string]any)
			if !ok {
				r := failure("Input data must be a JSON object or array")
				return nil, &r
			}
			rows[i] = row
		}
		return rows, nil
	default:
		r := failure("Input data must be a JSON object or array")
		return nil, &r
	}
}

// extractFeatures reorders each row into the fixed training column layout.
func extractFeatures(rows []map[string]any) ([][]float64, *Result) {
	x := make([][]float64, len(rows))
	for i, row := range rows {
		features := make([]float64, len(dataset.FeatureColumns))
		for j, name := range dataset.FeatureColumns {
			value, ok := row[name]
			if !ok {
				r := failure("Error during inference: missing required column: %s", name)
				return nil, &r
			}
			num, ok := value.(float64)
			if !ok {
				r := failure("Error during inference: column %s has non-numeric value", name)
				return nil, &r
			}
			features[j] = num
		}
		x[i] = features
	}
	return x, nil
}
