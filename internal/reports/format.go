package reports

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Round2 rounds v to two decimals, half to even.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).RoundBank(2).InexactFloat64()
}

// ratio returns round2(numerator/denominator*scale). A zero denominator is
// undefined and yields 0.
func ratio(numerator, denominator, scale float64) (float64, bool) {
	if denominator == 0 {
		return 0, true
	}
	v := numerator / denominator * scale
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, true
	}
	return Round2(v), false
}

// FormatNumber renders v with thousands separators. Whole numbers print
// without decimals, anything else with two.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return printer.Sprintf("%d", int64(v))
	}
	return printer.Sprintf("%.2f", v)
}
