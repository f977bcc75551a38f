package model

import (
	"errors"
	"fmt"
	"math"

	"diabetes-backend/internal/dataset"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	fitEpochs       = 500
	fitLearningRate = 0.1
)

// LogisticRegression is a fitted binary classifier. InvRegStrength is the
// inverse regularization strength (sklearn's C): a higher regularization
// rate at training time means a smaller value here.
type LogisticRegression struct {
	Columns        []string  `json:"columns"`
	Weights        []float64 `json:"weights"`
	Bias           float64   `json:"bias"`
	InvRegStrength float64   `json:"inv_reg_strength"`
}

// Train fits a regularized logistic regression on the train partition. The
// test partition is passed through untouched; evaluating on it is the
// caller's business. regRate must be positive and maps to an inverse
// regularization strength of exactly 1/regRate.
func Train(regRate float64, xTrain, xTest [][]float64, yTrain, yTest []float64) (*LogisticRegression, error) {
	_ = xTest
	_ = yTest

	if regRate <= 0 {
		return nil, fmt.Errorf("regularization rate must be positive, got %v", regRate)
	}
	if len(xTrain) != len(yTrain) {
		return nil, fmt.Errorf("feature matrix has %d rows but label vector has %d", len(xTrain), len(yTrain))
	}

	m := &LogisticRegression{
		Columns:        append([]string{}, dataset.FeatureColumns...),
		Weights:        make([]float64, len(dataset.FeatureColumns)),
		InvRegStrength: 1 / regRate,
	}

	if len(xTrain) == 0 {
		return m, nil
	}

	nFeatures := len(xTrain[0])
	if nFeatures != len(m.Weights) {
		return nil, fmt.Errorf("expected %d features per row, got %d", len(m.Weights), nFeatures)
	}
	for i, row := range xTrain {
		if len(row) != nFeatures {
			return nil, fmt.Errorf("row %d has %d features, expected %d", i, len(row), nFeatures)
		}
	}

	// Standardize each feature for the descent, then fold the scaling back
	// into the weights so the fitted model operates on raw feature values.
	means, stds, scaled := standardize(xTrain)

	weights := make([]float64, nFeatures)
	bias := 0.0
	n := float64(len(scaled))
	lambda := regRate // penalty strength = 1/C

	grad := make([]float64, nFeatures)
	for epoch := 0; epoch < fitEpochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		gradBias := 0.0

		for i, row := range scaled {
			p := sigmoid(floats.Dot(weights, row) + bias)
			d := p - yTrain[i]
			floats.AddScaled(grad, d, row)
			gradBias += d
		}

		for j := range grad {
			grad[j] = grad[j]/n + lambda*weights[j]/n
		}
		floats.AddScaled(weights, -fitLearningRate, grad)
		bias -= fitLearningRate * gradBias / n
	}

	for j := range weights {
		m.Weights[j] = weights[j] / stds[j]
		m.Bias -= weights[j] * means[j] / stds[j]
	}
	m.Bias += bias

	return m, nil
}

// PredictProba returns the positive-class probability for each row.
func (m *LogisticRegression) PredictProba(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		if len(row) != len(m.Weights) {
			return nil, fmt.Errorf("row %d has %d features, expected %d", i, len(row), len(m.Weights))
		}
		out[i] = sigmoid(floats.Dot(m.Weights, row) + m.Bias)
	}
	return out, nil
}

// Predict returns hard 0/1 labels at the 0.5 probability threshold.
func (m *LogisticRegression) Predict(x [][]float64) ([]int, error) {
	if m == nil || len(m.Weights) == 0 {
		return nil, errors.New("model is not fitted")
	}

	proba, err := m.PredictProba(x)
	if err != nil {
		return nil, err
	}

	out := make([]int, len(proba))
	for i, p := range proba {
		if p >= 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

// Accuracy is the fraction of rows whose predicted label matches y.
func Accuracy(m *LogisticRegression, x [][]float64, y []float64) (float64, error) {
	if len(x) == 0 {
		return 0, nil
	}

	pred, err := m.Predict(x)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i, p := range pred {
		if float64(p) == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(x)), nil
}

func standardize(x [][]float64) (means, stds []float64, scaled [][]float64) {
	nFeatures := len(x[0])

	col := make([]float64, len(x))
	means = make([]float64, nFeatures)
	stds = make([]float64, nFeatures)
	for j := 0; j < nFeatures; j++ {
		for i, row := range x {
			col[i] = row[j]
		}
		means[j], stds[j] = stat.MeanStdDev(col, nil)
		if stds[j] == 0 || math.IsNaN(stds[j]) {
			stds[j] = 1
		}
	}

	scaled = make([][]float64, len(x))
	for i, row := range x {
		s := make([]float64, nFeatures)
		for j, v := range row {
			s[j] = (v - means[j]) / stds[j]
		}
		scaled[i] = s
	}
	return means, stds, scaled
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
