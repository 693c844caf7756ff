package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// XLSXWriter writes both tables into one workbook, one sheet per table.
type XLSXWriter struct {
	dir     string
	variant string
}

// NewXLSXWriter creates a writer for dir/insights.xlsx.
func NewXLSXWriter(dir, variant string) *XLSXWriter {
	return &XLSXWriter{dir: dir, variant: variant}
}

// Write overwrites the workbook and returns its path.
func (w *XLSXWriter) Write(t *Tables) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range t.sheets() {
		if i == 0 {
			// a new workbook already holds one default sheet
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				return "", fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return "", fmt.Errorf("create sheet %s: %w", s.name, err)
		}
		if err := w.writeSheet(f, s); err != nil {
			return "", err
		}
	}

	path := filepath.Join(w.dir, WorkbookFile)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}

func (w *XLSXWriter) writeSheet(f *excelize.File, s sheet) error {
	rows := make([][]string, 0, len(s.rows)+1)
	rows = append(rows, Header(w.variant, s.column))
	for _, r := range s.rows {
		rows = append(rows, r.record(w.variant))
	}
	for i, values := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(values))
		for j, v := range values {
			row[j] = v
		}
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return fmt.Errorf("write sheet %s: %w", s.name, err)
		}
	}
	return nil
}
