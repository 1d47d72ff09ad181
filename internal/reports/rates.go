package reports

import (
	"salespulse/pkg/contracts/domain"
)

// RateTierSpec bounds one purchase-rate tier: Min <= rate < Max, with a nil
// bound left open.
type RateTierSpec struct {
	Name  string
	Label string
	Min   *float64
	Max   *float64
}

func bound(v float64) *float64 { return &v }

// PurchaseRateTiers are disjoint and together cover every rate.
var PurchaseRateTiers = []RateTierSpec{
	{Name: "high", Label: "20% or higher", Min: bound(20)},
	{Name: "upper_mid", Label: "15% and less than 20%", Min: bound(15), Max: bound(20)},
	{Name: "lower_mid", Label: "10% and less than 15%", Min: bound(10), Max: bound(15)},
	{Name: "low", Label: "Less than 10%", Max: bound(10)},
}

// Contains reports whether rate falls in the tier.
func (s RateTierSpec) Contains(rate float64) bool {
	if s.Min != nil && rate < *s.Min {
		return false
	}
	if s.Max != nil && rate >= *s.Max {
		return false
	}
	return true
}

// PurchaseRates computes each product's share of the month's distinct
// visitors and buckets the products into tiers. The denominator is the same
// for every product. With zero visitors every product lands in Undefined and
// all tiers are empty.
func PurchaseRates(table *domain.SalesTable, month string) domain.PurchaseRateReport {
	predicates := map[Column]string{ColumnMonth: month}
	visitors := distinctVisitors(table, predicates)
	products := productQuantities(table, predicates)
	rates, _ := productRates(products, visitors)

	report := domain.PurchaseRateReport{
		Month:     month,
		Visitors:  visitors,
		Products:  []domain.ProductRate{},
		Undefined: []domain.ProductRate{},
		Empty:     len(products) == 0,
	}
	for _, r := range rates {
		if r.Undefined {
			report.Undefined = append(report.Undefined, r)
			continue
		}
		report.Products = append(report.Products, r)
	}

	report.Tiers = make([]domain.RateTier, 0, len(PurchaseRateTiers))
	for _, spec := range PurchaseRateTiers {
		tier := domain.RateTier{
			Name:     spec.Name,
			Label:    spec.Label,
			Min:      spec.Min,
			Max:      spec.Max,
			Products: []domain.ProductRate{},
		}
		for _, r := range report.Products {
			if spec.Contains(r.Rate) {
				tier.Products = append(tier.Products, r)
			}
		}
		tier.Empty = len(tier.Products) == 0
		report.Tiers = append(report.Tiers, tier)
	}
	return report
}
