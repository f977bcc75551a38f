package dataset

import (
	"math"
	"math/rand"
)

const (
	// TestFraction is the holdout fraction reserved for evaluation.
	TestFraction = 0.30

	// splitSeed fixes the shuffle so repeated splits of the same dataset
	// produce identical partitions.
	splitSeed = 0
)

// Split validates the schema, extracts the feature matrix and label vector,
// and partitions the rows into train and test sets. An empty dataset yields
// four empty partitions without error; a missing feature or label column is
// an ErrMissingColumn.
func Split(ds *Dataset) (xTrain, xTest [][]float64, yTrain, yTest []float64, err error) {
	features := make([][]float64, len(FeatureColumns))
	for i, name := range FeatureColumns {
		col, err := ds.Column(name)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		features[i] = col
	}

	labels, err := ds.Column(LabelColumn)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	n := ds.NumRows()
	x := make([][]float64, n)
	for i := range x {
		row := make([]float64, len(FeatureColumns))
		for j := range FeatureColumns {
			row[j] = features[j][i]
		}
		x[i] = row
	}

	nTest := int(math.Ceil(TestFraction * float64(n)))

	perm := rand.New(rand.NewSource(splitSeed)).Perm(n)

	xTrain = make([][]float64, 0, n-nTest)
	xTest = make([][]float64, 0, nTest)
	yTrain = make([]float64, 0, n-nTest)
	yTest = make([]float64, 0, nTest)
	for i, idx := range perm {
		if i < nTest {
			xTest = append(xTest, x[idx])
			yTest = append(yTest, labels[idx])
		} else {
			xTrain = append(xTrain, x[idx])
			yTrain = append(yTrain, labels[idx])
		}
	}

	return xTrain, xTest, yTrain, yTest, nil
}
