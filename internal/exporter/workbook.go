package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"salespulse/pkg/contracts/domain"
)

const (
	defaultColumnWidth = 18
	firstColumnWidth   = 28
)

// WorkbookExporter renders month reports as XLSX workbooks, one sheet per view.
type WorkbookExporter struct {
	logger *slog.Logger
}

// NewWorkbookExporter creates a WorkbookExporter. A nil logger falls back to slog.Default.
func NewWorkbookExporter(logger *slog.Logger) *WorkbookExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookExporter{logger: logger.With(slog.String("component", "workbook_exporter"))}
}

// MonthReport writes the month workbook for table to w.
func (e *WorkbookExporter) MonthReport(ctx context.Context, table *domain.SalesTable, month string, w io.Writer) error {
	f, err := e.Build(ctx, MonthTables(table, month))
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := f.WriteTo(w)
	if err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.InfoContext(ctx, "Month workbook written",
		slog.String("month", month),
		slog.Int64("bytes", n))
	return nil
}

// SaveMonthReport writes the month workbook to path, creating parent directories.
func (e *WorkbookExporter) SaveMonthReport(ctx context.Context, table *domain.SalesTable, month, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create workbook file: %w", err)
	}
	if err := e.MonthReport(ctx, table, month, file); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	return file.Close()
}

// Build creates a workbook with one sheet per table, in order. The caller
// must Close the returned file.
func (e *WorkbookExporter) Build(ctx context.Context, tables []Table) (*excelize.File, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("workbook needs at least one table")
	}

	f := excelize.NewFile()
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DCE6F1"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, t := range tables {
		if err := ctx.Err(); err != nil {
			f.Close()
			return nil, err
		}

		if i == 0 {
			err = f.SetSheetName(f.GetSheetName(0), t.Name)
		} else {
			_, err = f.NewSheet(t.Name)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %q: %w", t.Name, err)
		}

		if err := writeSheet(f, t, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to fill sheet %q: %w", t.Name, err)
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, t Table, headerStyle int) error {
	header := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(t.Name, "A1", &header); err != nil {
		return err
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(t.Name, cell, &values); err != nil {
			return err
		}
	}

	if len(t.Headers) == 0 {
		return nil
	}
	lastCol, err := excelize.ColumnNumberToName(len(t.Headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(t.Name, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(t.Name, "A", "A", firstColumnWidth); err != nil {
		return err
	}
	if len(t.Headers) > 1 {
		if err := f.SetColWidth(t.Name, "B", lastCol, defaultColumnWidth); err != nil {
			return err
		}
	}
	return nil
}
