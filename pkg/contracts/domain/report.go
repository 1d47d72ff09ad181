package domain

import (
	"time"
)

// OptionList is the set of selectable filter values.
type OptionList struct {
	Values  []string `json:"values"`
	Default string   `json:"default,omitempty"`
}

// MonthlyKPIs are the headline figures for one month.
type MonthlyKPIs struct {
	Month         string  `json:"month"`
	ProductTypes  int     `json:"product_types"`
	Visitors      float64 `json:"visitors"`
	TotalQuantity float64 `json:"total_quantity"`
	TotalSales    float64 `json:"total_sales"`
	Empty         bool    `json:"empty"`
}

// ProductSales is a product with its summed sales.
type ProductSales struct {
	Product string  `json:"product"`
	Sales   float64 `json:"sales"`
}

// ZeroSalesReport lists products that sold nothing in a month.
// Empty means the month had no rows at all; an empty Products list with
// Empty=false means every product sold something.
type ZeroSalesReport struct {
	Month    string         `json:"month"`
	Products []ProductSales `json:"products"`
	Empty    bool           `json:"empty"`
}

// BranchPerformance is one branch rollup for a month.
type BranchPerformance struct {
	Branch   string  `json:"branch"`
	Sales    float64 `json:"sales"`
	Quantity float64 `json:"quantity"`
	Visitors float64 `json:"visitors"`
}

// BranchPerformanceReport is sorted by quantity descending.
type BranchPerformanceReport struct {
	Month    string              `json:"month"`
	Branches []BranchPerformance `json:"branches"`
	Empty    bool                `json:"empty"`
}

// ProductQuantity is a product with its summed quantity.
type ProductQuantity struct {
	Product  string  `json:"product"`
	Quantity float64 `json:"quantity"`
}

// ProductQuantityReport is sorted by quantity descending.
type ProductQuantityReport struct {
	Month    string            `json:"month"`
	Products []ProductQuantity `json:"products"`
	Empty    bool              `json:"empty"`
}

// ProductRate is a product's quantity relative to distinct visitors, in percent.
// Undefined is set when the visitor denominator is zero; Rate is then 0.
type ProductRate struct {
	Product   string  `json:"product"`
	Quantity  float64 `json:"quantity"`
	Visitors  float64 `json:"visitors"`
	Rate      float64 `json:"rate"`
	Undefined bool    `json:"undefined,omitempty"`
}

// RateTier is one purchase-rate bucket.
type RateTier struct {
	Name     string        `json:"name"`
	Label    string        `json:"label"`
	Min      *float64      `json:"min,omitempty"`
	Max      *float64      `json:"max,omitempty"`
	Products []ProductRate `json:"products"`
	Empty    bool          `json:"empty"`
}

// PurchaseRateReport buckets products by purchase rate for a month.
type PurchaseRateReport struct {
	Month     string        `json:"month"`
	Visitors  float64       `json:"visitors"`
	Products  []ProductRate `json:"products"`
	Tiers     []RateTier    `json:"tiers"`
	Undefined []ProductRate `json:"undefined"`
	Empty     bool          `json:"empty"`
}

// BranchVisitorAverage is the average number of products per visitor.
type BranchVisitorAverage struct {
	Branch    string  `json:"branch"`
	Quantity  float64 `json:"quantity"`
	Visitors  float64 `json:"visitors"`
	Average   float64 `json:"average"`
	Undefined bool    `json:"undefined,omitempty"`
}

// BranchVisitorAverageReport is sorted by average descending.
type BranchVisitorAverageReport struct {
	Month    string                 `json:"month"`
	Branches []BranchVisitorAverage `json:"branches"`
	Empty    bool                   `json:"empty"`
}

// ChartKind selects how a series is drawn.
type ChartKind string

const (
	ChartBar  ChartKind = "bar"
	ChartLine ChartKind = "line"
)

// ChartPoint is one categorical point with an optional text label.
type ChartPoint struct {
	X     string  `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label,omitempty"`
}

// ChartSeries is a chart-ready series.
type ChartSeries struct {
	Kind   ChartKind    `json:"kind"`
	Title  string       `json:"title"`
	XTitle string       `json:"x_title"`
	YTitle string       `json:"y_title"`
	Points []ChartPoint `json:"points"`
}

// BranchQuantity is a branch with its summed quantity.
type BranchQuantity struct {
	Branch   string  `json:"branch"`
	Quantity float64 `json:"quantity"`
}

// ProductBranchChart shows one product's quantity per branch for a month.
type ProductBranchChart struct {
	Product  string           `json:"product"`
	Month    string           `json:"month"`
	Total    float64          `json:"total"`
	Branches []BranchQuantity `json:"branches"`
	Chart    ChartSeries      `json:"chart"`
	Empty    bool             `json:"empty"`
}

// MonthQuantity is one point of a product trend.
type MonthQuantity struct {
	Month    time.Time `json:"month"`
	Label    string    `json:"label"`
	Quantity float64   `json:"quantity"`
}

// ProductTrend shows one product's quantity per month in a branch.
type ProductTrend struct {
	Product string          `json:"product"`
	Branch  string          `json:"branch"`
	Total   float64         `json:"total"`
	Months  []MonthQuantity `json:"months"`
	Chart   ChartSeries     `json:"chart"`
	Empty   bool            `json:"empty"`
}

// ProductPopularityReport ranks products in one branch and month by
// quantity per distinct visitor.
type ProductPopularityReport struct {
	Month     string        `json:"month"`
	Branch    string        `json:"branch"`
	Visitors  float64       `json:"visitors"`
	Products  []ProductRate `json:"products"`
	Undefined bool          `json:"undefined,omitempty"`
	Empty     bool          `json:"empty"`
}
