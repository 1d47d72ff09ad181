package dataprocessing

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// Delimiter separates fields in the source file.
const Delimiter = ';'

// DefaultMaxFileBytes bounds how much of a source file is read.
const DefaultMaxFileBytes int64 = 256 << 20

// ctxCheckInterval is how many records are parsed between context checks.
const ctxCheckInterval = 4096

// NormalizerConfig holds configuration options for the Normalizer.
type NormalizerConfig struct {
	MaxFileBytes int64
}

// Normalizer builds canonical sales tables from raw delimited input.
type Normalizer struct {
	logger  *slog.Logger
	cfg     NormalizerConfig
	tracer  trace.Tracer
	metrics *pipelineMetrics
}

// NewNormalizer creates a Normalizer. A nil logger falls back to slog.Default.
func NewNormalizer(logger *slog.Logger, cfg NormalizerConfig) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = DefaultMaxFileBytes
	}
	return &Normalizer{
		logger:  logger.With(slog.String("component", "normalizer")),
		cfg:     cfg,
		tracer:  otel.Tracer(instrumentationName),
		metrics: newPipelineMetrics(),
	}
}

// Normalize reads r with a default Normalizer.
func Normalize(ctx context.Context, r io.Reader) (*domain.SalesTable, error) {
	return NewNormalizer(nil, NormalizerConfig{}).Normalize(ctx, r)
}

// NormalizeFile reads path with a default Normalizer.
func NormalizeFile(ctx context.Context, path string) (*domain.SalesTable, error) {
	return NewNormalizer(nil, NormalizerConfig{}).NormalizeFile(ctx, path)
}

// NormalizeFile opens path and normalizes its content. A missing or
// unreadable file is a storage error.
func (n *Normalizer) NormalizeFile(ctx context.Context, path string) (*domain.SalesTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewStorageError("cannot open source file", err).WithContext("path", path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.NewStorageError("cannot stat source file", err).WithContext("path", path)
	}
	if info.IsDir() {
		return nil, errors.NewStorageError("source path is a directory", nil).WithContext("path", path)
	}
	if info.Size() > n.cfg.MaxFileBytes {
		return nil, errors.NewStorageError(
			fmt.Sprintf("source file is %d bytes, limit is %d", info.Size(), n.cfg.MaxFileBytes), nil,
		).WithContext("path", path)
	}

	table, err := n.Normalize(ctx, f)
	if err != nil {
		return nil, err
	}
	table.Source = path
	return table, nil
}

// Normalize parses r into a canonical table. It fails only when the input
// has no header, lacks a required column or cannot be read. Stray quotes are
// kept literally and all other cell-level defects are repaired.
func (n *Normalizer) Normalize(ctx context.Context, r io.Reader) (*domain.SalesTable, error) {
	ctx, span := n.tracer.Start(ctx, "dataprocessing.Normalize")
	defer span.End()

	table, err := n.normalize(ctx, r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		n.logger.ErrorContext(ctx, "Normalization failed", slog.String("error", err.Error()))
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("salespulse.rows", len(table.Rows)),
		attribute.Int("salespulse.advisories", len(table.Advisories)),
	)
	n.metrics.recordLoad(ctx, len(table.Rows), len(table.Advisories))

	n.logger.InfoContext(ctx, "Source normalized",
		slog.Int("rows", len(table.Rows)),
		slog.Int("advisories", len(table.Advisories)))
	for _, adv := range table.Advisories {
		n.logger.WarnContext(ctx, "Source advisory",
			slog.String("code", string(adv.Code)),
			slog.Int("rows", adv.Rows),
			slog.String("message", adv.Message))
	}

	return table, nil
}

func (n *Normalizer) normalize(ctx context.Context, r io.Reader) (*domain.SalesTable, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.Comma = Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewParsingError("source file has no header row", nil)
	}
	if err != nil {
		return nil, csvError("cannot read header row", err)
	}

	columns, index := mapColumns(header)
	if missing := missingColumns(index); len(missing) > 0 {
		return nil, errors.NewParsingError(
			fmt.Sprintf("source file is missing required columns: %s", strings.Join(missing, ", ")), nil,
		).WithContext("columns", columns)
	}

	productIdx := index[domain.ColumnProduct]
	branchIdx := index[domain.ColumnBranch]
	salesIdx := index[domain.ColumnSales]
	quantityIdx := index[domain.ColumnQuantity]
	visitorsIdx := index[domain.ColumnVisitors]
	monthIdx := index[domain.ColumnMonth]

	rows := []domain.SalesRow{}
	unparsedMonths := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError("cannot parse source file", err)
		}

		if len(rows)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		month := parseMonth(cell(record, monthIdx))
		if month == nil {
			unparsedMonths++
		}

		rows = append(rows, domain.NewSalesRow(
			cleanText(cell(record, productIdx)),
			cleanText(cell(record, branchIdx)),
			parseNumber(cell(record, salesIdx)),
			parseNumber(cell(record, quantityIdx)),
			parseNumber(cell(record, visitorsIdx)),
			month,
		))
	}

	table := &domain.SalesTable{
		Columns: columns,
		Rows:    rows,
	}
	if unparsedMonths > 0 {
		table.Advisories = append(table.Advisories, unparsableMonthAdvisory(unparsedMonths))
	}

	return table, nil
}

// mapColumns cleans header names and indexes them; the first occurrence of a
// duplicated name wins.
func mapColumns(header []string) ([]string, map[string]int) {
	columns := make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, name := range header {
		clean := cleanHeader(name)
		columns[i] = clean
		if _, seen := index[clean]; !seen {
			index[clean] = i
		}
	}
	return columns, index
}

func missingColumns(index map[string]int) []string {
	var missing []string
	for _, name := range domain.RequiredColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// cell returns the field at i, or "" for short records.
func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

func unparsableMonthAdvisory(rows int) domain.Advisory {
	return domain.Advisory{
		Code: domain.AdvisoryUnparsableMonth,
		Message: fmt.Sprintf(
			"%d row(s) have a Month value that is not a valid date; expected format %s (e.g. 01/08/25). These rows are kept but left out of month views.",
			rows, domain.MonthInputFormat),
		Rows: rows,
	}
}

func csvError(message string, err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return errors.NewParsingError(message, err).
			WithContext("line", parseErr.Line).
			WithContext("column", parseErr.Column)
	}
	return errors.NewStorageError(message, err)
}
