// Package exporter renders dashboard views for download.
//
// Every month view is first turned into a Table (headers plus typed cells).
// Tables are then written by one of:
//
// CSVWriter: delimited output with a UTF-8 BOM and ';' as the default
// separator, matching the input file convention. Supports streaming.
//
// WorkbookExporter: an XLSX workbook with one sheet per view (Overview,
// Zero Sales, Branches, Products, Purchase Rates, Branch Averages).
//
// MonthExporter: one CSV file per view for a month, plus the normalized
// source rows.
//
//	wb := exporter.NewWorkbookExporter(logger)
//	err := wb.SaveMonthReport(ctx, table, "August 2025", "exports/august_2025.xlsx")
package exporter
