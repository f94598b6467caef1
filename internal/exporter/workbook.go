package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// Sheet is one tab of a workbook: a name, a header row, and records.
type Sheet struct {
	Name    string
	Headers []string
	Records [][]string
}

// WorkbookWriter writes the combined pipeline report as an xlsx
// workbook, one sheet per table.
type WorkbookWriter struct {
	logger *slog.Logger
	outDir string
}

// NewWorkbookWriter creates a workbook writer rooted at the output
// directory.
func NewWorkbookWriter(logger *slog.Logger, outDir string) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{logger: logger, outDir: outDir}
}

// Write writes the sheets to a single workbook file. At least one
// sheet is required.
func (w *WorkbookWriter) Write(ctx context.Context, name string, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("workbook %s needs at least one sheet", name)
	}

	fullPath := filepath.Join(w.outDir, name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			// Rename the default sheet instead of leaving it empty.
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", sheet.Name, err)
			}
		} else {
			if _, err := f.NewSheet(sheet.Name); err != nil {
				return fmt.Errorf("failed to add sheet %s: %w", sheet.Name, err)
			}
		}
		if err := writeSheet(f, sheet); err != nil {
			return err
		}
	}

	if err := f.SaveAs(fullPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.InfoContext(ctx, "wrote workbook",
		slog.String("file", fullPath),
		slog.Int("sheets", len(sheets)))

	return nil
}

func writeSheet(f *excelize.File, sheet Sheet) error {
	rows := make([][]string, 0, len(sheet.Records)+1)
	rows = append(rows, sheet.Headers)
	rows = append(rows, sheet.Records...)

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+1, err)
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet.Name, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet.Name, err)
		}
	}
	return nil
}
