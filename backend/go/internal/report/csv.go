package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// CSVWriter writes root_reasons.csv and actionables.csv into one directory.
type CSVWriter struct {
	dir     string
	variant string
}

// NewCSVWriter creates a writer for dir using the given column variant.
func NewCSVWriter(dir, variant string) *CSVWriter {
	return &CSVWriter{dir: dir, variant: variant}
}

// Write creates the output directory if needed and overwrites both files.
// It returns the written paths.
func (w *CSVWriter) Write(t *Tables) ([]string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	var paths []string
	for _, s := range t.sheets() {
		path := filepath.Join(w.dir, s.name+".csv")
		if err := w.writeFile(path, s); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (w *CSVWriter) writeFile(path string, s sheet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	cw := csv.NewWriter(f)
	records := make([][]string, 0, len(s.rows)+1)
	records = append(records, Header(w.variant, s.column))
	for _, r := range s.rows {
		records = append(records, r.record(w.variant))
	}
	if err := cw.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
