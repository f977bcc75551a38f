package dataset

import (
	"errors"
	"fmt"
	"strconv"
)

// FeatureColumns is the model input schema. Training and scoring both depend
// on this exact column order.
var FeatureColumns = []string{
	"Pregnancies",
	"PlasmaGlucose",
	"DiastolicBloodPressure",
	"TricepsThickness",
	"SerumInsulin",
	"BMI",
	"DiabetesPedigree",
	"Age",
}

const LabelColumn = "Diabetic"

var ErrMissingColumn = errors.New("missing required column")

// Dataset is a column-ordered table of raw CSV cells. All rows share the
// column set in Columns; cells are kept as strings until feature extraction.
type Dataset struct {
	Columns []string
	Rows    [][]string
}

func (ds *Dataset) NumRows() int {
	return len(ds.Rows)
}

func (ds *Dataset) columnIndex(name string) (int, error) {
	for i, col := range ds.Columns {
		if col == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrMissingColumn, name)
}

// Column returns the named column parsed as float64, aligned by row index.
func (ds *Dataset) Column(name string) ([]float64, error) {
	idx, err := ds.columnIndex(name)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(ds.Rows))
	for i, row := range ds.Rows {
		v, err := strconv.ParseFloat(row[idx], 64)
		if err != nil {
			return nil, fmt.Errorf("column %s, row %d: invalid numeric value %q", name, i, row[idx])
		}
		values[i] = v
	}
	return values, nil
}
