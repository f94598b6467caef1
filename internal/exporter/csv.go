// Package exporter writes the pipeline's flat tabular outputs: the gap
// list, periodic count tables, and forecast tables, as CSV files and a
// combined workbook.
package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// CSVWriter writes tables as CSV files under the output directory.
type CSVWriter struct {
	logger *slog.Logger
	outDir string
}

// NewCSVWriter creates a CSV writer rooted at the output directory.
func NewCSVWriter(logger *slog.Logger, outDir string) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger, outDir: outDir}
}

// Write writes one table: a header row followed by the records.
func (w *CSVWriter) Write(ctx context.Context, name string, headers []string, records [][]string) error {
	fullPath := filepath.Join(w.outDir, name)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	w.logger.InfoContext(ctx, "wrote csv table",
		slog.String("file", fullPath),
		slog.Int("records", len(records)))

	return writer.Error()
}
