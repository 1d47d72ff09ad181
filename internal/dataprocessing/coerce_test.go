package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"integer", "42", 42},
		{"decimal", "12.5", 12.5},
		{"padded", "  7 ", 7},
		{"negative", "-3", -3},
		{"exponent", "1e3", 1000},
		{"empty", "", 0},
		{"blank", "   ", 0},
		{"text", "abc", 0},
		{"comma decimal", "1,5", 0},
		{"nan", "NaN", 0},
		{"infinity", "Inf", 0},
		{"negative infinity", "-inf", 0},
		{"hex", "0x10", 0},
		{"hex float", "0x1p-2", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseNumber(tt.in))
		})
	}
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *time.Time
	}{
		{"padded", "01/08/25", date(2025, time.August, 1)},
		{"unpadded", "1/8/25", date(2025, time.August, 1)},
		{"surrounding space", " 15/03/24 ", date(2024, time.March, 15)},
		{"day out of range", "32/13/25", nil},
		{"impossible date", "31/02/25", nil},
		{"four digit year", "01/08/2025", nil},
		{"iso date", "2025-08-01", nil},
		{"month name", "August 2025", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseMonth(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %s", got)
		})
	}
}

func TestCleanHeader(t *testing.T) {
	assert.Equal(t, "Product", cleanHeader("\uFEFFProduct"))
	assert.Equal(t, "Month", cleanHeader("  Month\t"))
	assert.Equal(t, "Branch", cleanHeader("Bra\uFEFFnch "))
}

func date(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}
