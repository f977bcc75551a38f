package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LoadCSVDir reads every CSV file in dir into a single Dataset. Rows are
// concatenated across files and the column order is taken from the first
// file; later files are aligned by column name. No schema validation happens
// here, missing feature columns are only detected at split time.
func LoadCSVDir(dir string) (*Dataset, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("Cannot use non-existent path provided: %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}

	if len(files) == 0 {
		return nil, errors.New("No CSV files found in provided data")
	}

	ds := &Dataset{}
	for _, file := range files {
		if err := appendCSVFile(ds, file); err != nil {
			return nil, err
		}
	}

	slog.Info("loaded dataset", "dir", dir, "files", len(files), "rows", ds.NumRows())

	return ds, nil
}

func appendCSVFile(ds *Dataset, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open csv file %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to parse csv file %s: %w", path, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("csv file %s has no header row", path)
	}

	header := records[0]
	if len(ds.Columns) == 0 {
		ds.Columns = append([]string{}, header...)
	}

	// Maps each output column to its position in this file's header, or -1
	// if this file does not carry that column.
	mapping := make([]int, len(ds.Columns))
	for i, col := range ds.Columns {
		mapping[i] = -1
		for j, h := range header {
			if h == col {
				mapping[i] = j
				break
			}
		}
	}

	for _, record := range records[1:] {
		row := make([]string, len(ds.Columns))
		for i, src := range mapping {
			if src >= 0 && src < len(record) {
				row[i] = record[src]
			}
		}
		ds.Rows = append(ds.Rows, row)
	}

	return nil
}
