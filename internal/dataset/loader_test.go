package dataset_test

import (
	"os"
	"path/filepath"
	"testing"

	"diabetes-backend/internal/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoadCSVDirNonExistentPath(t *testing.T) {
	_, err := dataset.LoadCSVDir(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot use non-existent path provided")
}

func TestLoadCSVDirNoCSVFiles(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "notes.txt", "not a csv")

	_, err := dataset.LoadCSVDir(dir)
	require.Error(t, err)
	assert.Equal(t, "No CSV files found in provided data", err.Error())
}

func TestLoadCSVDirConcatenatesFiles(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "part1.csv", "A,B\n1,2\n3,4\n")
	writeCSV(t, dir, "part2.csv", "A,B\n5,6\n")

	ds, err := dataset.LoadCSVDir(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, ds.Columns)
	assert.Equal(t, 3, ds.NumRows())

	a, err := ds.Column("A")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3, 5}, a)
}

func TestLoadCSVDirAlignsColumnsByName(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "part1.csv", "A,B\n1,2\n")
	writeCSV(t, dir, "part2.csv", "B,A\n20,10\n")

	ds, err := dataset.LoadCSVDir(dir)
	require.NoError(t, err)

	a, err := ds.Column("A")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 10}, a)

	b, err := ds.Column("B")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 20}, b)
}

func TestLoadCSVDirIgnoresSubdirectories(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "data.csv", "A\n1\n")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))

	ds, err := dataset.LoadCSVDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, ds.NumRows())
}

func TestColumnMissing(t *testing.T) {
	ds := &dataset.Dataset{Columns: []string{"A"}, Rows: [][]string{{"1"}}}

	_, err := ds.Column("B")
	require.ErrorIs(t, err, dataset.ErrMissingColumn)
}

func TestColumnInvalidValue(t *testing.T) {
	ds := &dataset.Dataset{Columns: []string{"A"}, Rows: [][]string{{"abc"}}}

	_, err := ds.Column("A")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid numeric value")
}
