package reports

import (
	"time"

	"salespulse/pkg/contracts/domain"
)

func monthPtr(year int, month time.Month) *time.Time {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return &t
}

// testTable spans three months. August 2025 has 120 distinct visitors in
// Downtown and 85 in Mall.
func testTable() *domain.SalesTable {
	aug := monthPtr(2025, time.August)
	sep := monthPtr(2025, time.September)
	dec := monthPtr(2024, time.December)

	return &domain.SalesTable{
		Columns: domain.RequiredColumns,
		Rows: []domain.SalesRow{
			domain.NewSalesRow("Shirt", "Downtown", 100, 30, 120, aug),
			domain.NewSalesRow("Hat", "Downtown", 0, 0, 120, aug),
			domain.NewSalesRow("Shirt", "Mall", 50, 7, 85, aug),
			domain.NewSalesRow("Scarf", "Mall", 0, 0, 85, aug),
			domain.NewSalesRow("Scarf", "Downtown", 0, 0, 120, aug),
			domain.NewSalesRow("Shirt", "Downtown", 60, 12, 100, sep),
			domain.NewSalesRow("Shirt", "Mall", 0, 0, 0, sep),
			domain.NewSalesRow("Hat", "Mall", 10, 2, 40, dec),
			domain.NewSalesRow("Shirt", "Downtown", 5, 3, 50, nil),
		},
	}
}
