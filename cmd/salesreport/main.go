package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"salespulse/internal/config"
	"salespulse/internal/dataprocessing"
	"salespulse/internal/exporter"
	"salespulse/internal/infrastructure"
	"salespulse/internal/reports"
	"salespulse/internal/validation"
	"salespulse/pkg/contracts/domain"
)

// errNoMonthData mirrors the dashboard's halt when no row carries a valid month.
var errNoMonthData = errors.New("no valid month data found in the source file")

type options struct {
	configFile string
	file       string
	month      string
	out        string
	csvDir     string
	normalized string
}

// result lists what a run produced
type result struct {
	TraceID    string
	Month      string
	KPIs       domain.MonthlyKPIs
	Advisories []domain.Advisory
	Workbook   string
	CSVFiles   []string
	Normalized string
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg, err := loadConfig(opts.configFile)
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := run(ctx, opts, cfg, logger); err != nil {
		logger.ErrorContext(ctx, "Report generation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("salesreport", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.configFile, "config", "", "YAML config file (defaults to config.yaml or configs/config.yaml when present)")
	fs.StringVar(&opts.file, "file", "", "transactions file (defaults to the configured source file)")
	fs.StringVar(&opts.month, "month", "", `month label such as "August 2025" (defaults to the latest month)`)
	fs.StringVar(&opts.out, "out", "", "workbook path (defaults to <export dir>/sales_report_<month>.xlsx)")
	fs.StringVar(&opts.csvDir, "csv-dir", "", "directory for one CSV per month view (skipped when empty)")
	fs.StringVar(&opts.normalized, "normalized", "", "path for the cleaned source rows as CSV (skipped when empty)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(output, "unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

func loadConfig(configFile string) (*config.Config, error) {
	if configFile != "" {
		return config.LoadFrom(configFile)
	}
	return config.Load()
}

// run loads the source file once, logs the month overview and writes the
// requested exports. Each run gets a trace ID unless ctx already has one.
func run(ctx context.Context, opts options, cfg *config.Config, logger *slog.Logger) (*result, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	logger = infrastructure.WithComponent(logger, "salesreport")

	source := opts.file
	if source == "" {
		source = cfg.Data.SourceFile
	}

	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateSourceFile(source, cfg.Data.MaxFileBytes); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Starting report generation",
		slog.String("source", source),
		slog.String("month", opts.month))

	normalizer := dataprocessing.NewNormalizer(logger, dataprocessing.NormalizerConfig{
		MaxFileBytes: cfg.Data.MaxFileBytes,
	})
	table, err := normalizer.NormalizeFile(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", source, err)
	}

	if !table.HasValidMonths() {
		return nil, errNoMonthData
	}

	months := reports.Months(table)
	month := opts.month
	if month == "" {
		month = months.Default
	}

	res := &result{
		TraceID:    infrastructure.GetTraceID(ctx),
		Month:      month,
		KPIs:       reports.MonthlyKPIs(table, month),
		Advisories: table.Advisories,
	}
	logOverview(ctx, logger, table, res.KPIs, months)

	res.Workbook = opts.out
	if res.Workbook == "" {
		res.Workbook = filepath.Join(cfg.Data.ExportDir, exporter.FileName("sales_report", month, "xlsx"))
	}
	if err := validator.ValidateOutputDirectory(filepath.Dir(res.Workbook)); err != nil {
		return nil, err
	}
	if err := exporter.NewWorkbookExporter(logger).SaveMonthReport(ctx, table, month, res.Workbook); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	monthExporter := exporter.NewMonthExporter("", logger)

	if opts.csvDir != "" {
		if err := validator.ValidateOutputDirectory(opts.csvDir); err != nil {
			return nil, err
		}
		res.CSVFiles, err = monthExporter.ExportMonth(ctx, table, month, opts.csvDir)
		if err != nil {
			return nil, fmt.Errorf("failed to write month views: %w", err)
		}
	}

	if opts.normalized != "" {
		if err := monthExporter.ExportNormalized(ctx, table, opts.normalized); err != nil {
			return nil, fmt.Errorf("failed to write normalized rows: %w", err)
		}
		res.Normalized = opts.normalized
	}

	logger.InfoContext(ctx, "Report generation completed",
		slog.String("month", month),
		slog.String("workbook", res.Workbook),
		slog.Int("csv_files", len(res.CSVFiles)),
		slog.String("normalized", res.Normalized))
	return res, nil
}

func logOverview(ctx context.Context, logger *slog.Logger, table *domain.SalesTable, kpis domain.MonthlyKPIs, months domain.OptionList) {
	if kpis.Empty {
		logger.WarnContext(ctx, "No data for the selected month",
			slog.String("month", kpis.Month),
			slog.Any("available_months", months.Values))
		return
	}

	logger.InfoContext(ctx, "Monthly overview",
		slog.String("month", kpis.Month),
		slog.Int("product_types", kpis.ProductTypes),
		slog.Float64("visitors", kpis.Visitors),
		slog.Float64("total_quantity", kpis.TotalQuantity),
		slog.Float64("total_sales", kpis.TotalSales))

	zero := reports.ZeroSalesProducts(table, kpis.Month)
	if len(zero.Products) > 0 {
		logger.InfoContext(ctx, "Products with zero sales",
			slog.String("month", kpis.Month),
			slog.Any("products", zero.Products))
	}

	rates := reports.PurchaseRates(table, kpis.Month)
	if len(rates.Undefined) > 0 {
		logger.WarnContext(ctx, "Purchase rates undefined for products without visitors",
			slog.String("month", kpis.Month),
			slog.Int("products", len(rates.Undefined)))
	}
}
