package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// monthLayout accepts 01/08/25 as well as 1/8/25; the year is always two digits.
const monthLayout = "2/1/06"

const byteOrderMark = "\uFEFF"

// cleanHeader removes BOM artifacts and surrounding whitespace from a header name.
func cleanHeader(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, byteOrderMark, ""))
}

// cleanText trims a free-text cell.
func cleanText(s string) string {
	return strings.TrimSpace(s)
}

// parseNumber coerces a cell to a finite number. Empty, unparsable, NaN and
// infinite values all become 0.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	// hex floats are accepted by strconv but never by the source system
	if strings.ContainsAny(s, "xX") {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// parseMonth parses a DD/MM/YY cell. Anything else, including impossible
// dates like 31/02/25, yields nil.
func parseMonth(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
