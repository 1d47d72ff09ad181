package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"salespulse/pkg/contracts/domain"
)

// MonthExporter writes month views as individual CSV files.
type MonthExporter struct {
	csvWriter *CSVWriter
}

// NewMonthExporter creates a month exporter writing below baseDir.
func NewMonthExporter(baseDir string, logger *slog.Logger) *MonthExporter {
	return &MonthExporter{csvWriter: NewCSVWriter(baseDir, logger)}
}

// ExportMonth writes one CSV per month view into outputDir and returns the
// written paths in view order.
func (m *MonthExporter) ExportMonth(ctx context.Context, table *domain.SalesTable, month, outputDir string) ([]string, error) {
	var written []string
	for _, t := range MonthTables(table, month) {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		path := filepath.Join(outputDir, t.FileName(month, "csv"))
		if err := m.csvWriter.WriteSimpleCSV(path, t.Headers, t.Records()); err != nil {
			return written, fmt.Errorf("failed to write %s view: %w", t.Key, err)
		}
		written = append(written, m.csvWriter.resolvePath(path))
	}
	return written, nil
}

// ExportNormalized streams the cleaned source rows to outputPath.
func (m *MonthExporter) ExportNormalized(ctx context.Context, table *domain.SalesTable, outputPath string) error {
	t := CanonicalTable(table)

	stream, err := m.csvWriter.CreateStreamWriter(outputPath, t.Headers)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	for i, record := range t.Records() {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				stream.Close()
				return err
			}
		}
		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	if err := stream.Close(); err != nil {
		return fmt.Errorf("failed to close stream: %w", err)
	}
	return nil
}
