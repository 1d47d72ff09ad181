package domain

import (
	"time"
)

// Source column names, matched after header cleanup.
const (
	ColumnProduct  = "Product"
	ColumnBranch   = "Branch"
	ColumnSales    = "Sales"
	ColumnQuantity = "Quantity"
	ColumnVisitors = "Visitors"
	ColumnMonth    = "Month"
)

// RequiredColumns lists the header names every source file must carry.
var RequiredColumns = []string{
	ColumnProduct,
	ColumnBranch,
	ColumnSales,
	ColumnQuantity,
	ColumnVisitors,
	ColumnMonth,
}

// MonthInputFormat is the human form of the accepted Month cell format.
const MonthInputFormat = "DD/MM/YY"

// MonthLabelLayout renders a month as full English month name and year.
const MonthLabelLayout = "January 2006"

// SalesRow is one cleaned record of the transactions file.
type SalesRow struct {
	Product    string     `json:"product"`
	Branch     string     `json:"branch"`
	Sales      float64    `json:"sales"`
	Quantity   float64    `json:"quantity"`
	Visitors   float64    `json:"visitors"`
	Month      *time.Time `json:"month,omitempty"`
	MonthLabel *string    `json:"month_label,omitempty"`
}

// NewSalesRow builds a row and derives MonthLabel from month.
func NewSalesRow(product, branch string, sales, quantity, visitors float64, month *time.Time) SalesRow {
	row := SalesRow{
		Product:  product,
		Branch:   branch,
		Sales:    sales,
		Quantity: quantity,
		Visitors: visitors,
	}
	if month != nil {
		m := *month
		label := MonthLabel(m)
		row.Month = &m
		row.MonthLabel = &label
	}
	return row
}

// HasMonth reports whether the Month cell parsed.
func (r SalesRow) HasMonth() bool {
	return r.Month != nil
}

// Label returns the month label or "" when the month is missing.
func (r SalesRow) Label() string {
	if r.MonthLabel == nil {
		return ""
	}
	return *r.MonthLabel
}

// MonthLabel formats t with MonthLabelLayout.
func MonthLabel(t time.Time) string {
	return t.Format(MonthLabelLayout)
}

// AdvisoryCode identifies a non-fatal data quality finding.
type AdvisoryCode string

const (
	AdvisoryUnparsableMonth AdvisoryCode = "UNPARSABLE_MONTH"
)

// Advisory is a non-fatal finding attached to a table at load time.
type Advisory struct {
	Code    AdvisoryCode `json:"code"`
	Message string       `json:"message"`
	Rows    int          `json:"rows,omitempty"`
}

// SalesTable is the canonical, read-only table built from one source file.
// Views must not modify Rows; filters copy into new slices.
type SalesTable struct {
	Source     string     `json:"source,omitempty"`
	Columns    []string   `json:"columns"`
	Rows       []SalesRow `json:"rows"`
	Advisories []Advisory `json:"advisories,omitempty"`
}

// Len returns the row count.
func (t *SalesTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasValidMonths reports whether at least one row carries a parsed month.
func (t *SalesTable) HasValidMonths() bool {
	if t == nil {
		return false
	}
	for i := range t.Rows {
		if t.Rows[i].Month != nil {
			return true
		}
	}
	return false
}

// SourceInfo describes the currently loaded source file.
type SourceInfo struct {
	Path        string     `json:"path"`
	Size        int64      `json:"size"`
	ModTime     time.Time  `json:"mod_time"`
	ContentHash string     `json:"content_hash"`
	LoadedAt    time.Time  `json:"loaded_at"`
	Rows        int        `json:"rows"`
	Advisories  []Advisory `json:"advisories"`
}
