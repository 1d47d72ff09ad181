package exporter

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

const august = "August 2025"

func exportTable() *domain.SalesTable {
	aug := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)
	return &domain.SalesTable{Rows: []domain.SalesRow{
		domain.NewSalesRow("Shirt", "Downtown", 100, 30, 120, &aug),
		domain.NewSalesRow("Hat", "Downtown", 0, 0, 120, &aug),
		domain.NewSalesRow("Shirt", "Mall", 50, 7, 85, &aug),
		domain.NewSalesRow("Scarf", "Mall", 0, 0, 0, nil),
	}}
}

func TestViewTable(t *testing.T) {
	table := exportTable()

	t.Run("overview", func(t *testing.T) {
		v, err := ViewTable(table, ViewOverview, august)
		require.NoError(t, err)
		assert.Equal(t, [][]string{
			{"Month", august},
			{"Product Types", "2"},
			{"Visitors", "205"},
			{"Total Quantity", "37"},
			{"Total Sales", "150"},
		}, v.Records())
	})

	t.Run("purchase rates", func(t *testing.T) {
		v, err := ViewTable(table, ViewPurchaseRates, august)
		require.NoError(t, err)
		assert.Equal(t, [][]string{
			{"15% and less than 20%", "Shirt", "37", "205", "18.05"},
			{"Less than 10%", "Hat", "0", "205", "0"},
		}, v.Records())
	})

	t.Run("zero sales", func(t *testing.T) {
		v, err := ViewTable(table, ViewZeroSales, august)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"Hat", "0"}}, v.Records())
	})

	t.Run("unknown view", func(t *testing.T) {
		_, err := ViewTable(table, "pie", august)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
	})

	t.Run("all views", func(t *testing.T) {
		tables := MonthTables(table, august)
		require.Len(t, tables, len(MonthViews))
		for i, v := range tables {
			assert.Equal(t, MonthViews[i], v.Key)
			assert.NotEmpty(t, v.Headers)
		}
	})
}

func TestTableFileName(t *testing.T) {
	tbl := Table{Key: ViewBranches}
	assert.Equal(t, "branches_august_2025.csv", tbl.FileName(august, "csv"))
	assert.Equal(t, "branches.xlsx", tbl.FileName("", "xlsx"))
}

func TestCanonicalTable(t *testing.T) {
	v := CanonicalTable(exportTable())
	assert.Equal(t, []string{"Product", "Branch", "Sales", "Quantity", "Visitors", "Month", "Month Name"}, v.Headers)

	records := v.Records()
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Shirt", "Downtown", "100", "30", "120", "2025-08-01", august}, records[0])
	assert.Equal(t, []string{"Scarf", "Mall", "0", "0", "0", "", ""}, records[3])
}

func TestWorkbookExporter_MonthReport(t *testing.T) {
	exp := NewWorkbookExporter(nil)

	var buf bytes.Buffer
	require.NoError(t, exp.MonthReport(context.Background(), exportTable(), august, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t,
		[]string{"Overview", "Zero Sales", "Branches", "Products", "Purchase Rates", "Branch Averages"},
		f.GetSheetList())

	rows, err := f.GetRows("Branches")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Branch", "Sales", "Quantity", "Visitors"},
		{"Downtown", "100", "30", "120"},
		{"Mall", "50", "7", "85"},
	}, rows)

	value, err := f.GetCellValue("Overview", "B4")
	require.NoError(t, err)
	assert.Equal(t, "205", value)
}

func TestWorkbookExporter_EmptyMonth(t *testing.T) {
	exp := NewWorkbookExporter(nil)

	f, err := exp.Build(context.Background(), MonthTables(exportTable(), "March 2025"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Zero Sales")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Product", "Sales"}}, rows)
}

func TestWorkbookExporter_Errors(t *testing.T) {
	exp := NewWorkbookExporter(nil)

	_, err := exp.Build(context.Background(), nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = exp.Build(ctx, MonthTables(exportTable(), august))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkbookExporter_SaveMonthReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "august.xlsx")

	require.NoError(t, NewWorkbookExporter(nil).SaveMonthReport(context.Background(), exportTable(), august, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestMonthExporter(t *testing.T) {
	dir := t.TempDir()
	exp := NewMonthExporter(dir, nil)

	paths, err := exp.ExportMonth(context.Background(), exportTable(), august, "august")
	require.NoError(t, err)
	require.Len(t, paths, len(MonthViews))
	assert.Equal(t, filepath.Join(dir, "august", "overview_august_2025.csv"), paths[0])

	content, err := os.ReadFile(filepath.Join(dir, "august", "products_august_2025.csv"))
	require.NoError(t, err)
	assert.Equal(t, "\xEF\xBB\xBFProduct;Quantity\nShirt;37\nHat;0\n", string(content))

	require.NoError(t, exp.ExportNormalized(context.Background(), exportTable(), "normalized.csv"))
	content, err = os.ReadFile(filepath.Join(dir, "normalized.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "Shirt;Downtown;100;30;120;2025-08-01;August 2025")
}
