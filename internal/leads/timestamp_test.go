package leads

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCoerceTimestamp(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *string
	}{
		{name: "nil", in: nil, want: nil},
		{name: "empty string", in: "", want: nil},
		{name: "blank string", in: "   ", want: nil},
		{name: "unparseable text", in: "not a date", want: nil},
		{name: "serial one", in: 1.0, want: strPtr("1899-12-31T00:00:00.000Z")},
		{name: "serial zero", in: 0.0, want: strPtr("1899-12-30T00:00:00.000Z")},
		{name: "serial int", in: 45000, want: strPtr("2023-03-15T00:00:00.000Z")},
		{name: "serial with fraction", in: 45000.5, want: strPtr("2023-03-15T12:00:00.000Z")},
		{name: "serial int64", in: int64(2), want: strPtr("1900-01-01T00:00:00.000Z")},
		{name: "rfc3339", in: "2024-01-15T10:30:00Z", want: strPtr("2024-01-15T10:30:00.000Z")},
		{name: "rfc3339 with offset", in: "2024-01-15T10:30:00+02:00", want: strPtr("2024-01-15T08:30:00.000Z")},
		{name: "space separated", in: "2024-01-15 10:30:00", want: strPtr("2024-01-15T10:30:00.000Z")},
		{name: "date only", in: "2024-01-15", want: strPtr("2024-01-15T00:00:00.000Z")},
		{name: "numeric offset", in: "2024-01-15 10:30:00 +0530", want: strPtr("2024-01-15T05:00:00.000Z")},
		{name: "pacific abbreviation", in: "2024-01-15 10:30:00 PST", want: strPtr("2024-01-15T18:30:00.000Z")},
		{name: "eastern daylight abbreviation", in: "2024-07-15 10:30:00 EDT", want: strPtr("2024-07-15T14:30:00.000Z")},
		{name: "utc abbreviation", in: "2024-01-15 10:30:00 UTC", want: strPtr("2024-01-15T10:30:00.000Z")},
		{name: "ambiguous abbreviation", in: "2024-01-15 10:30:00 IST", want: nil},
		{name: "decimal text", in: "3.5", want: nil},
		{name: "nan", in: math.NaN(), want: nil},
		{name: "inf", in: math.Inf(1), want: nil},
		{name: "year out of range", in: 1e12, want: nil},
		{name: "far past", in: -1e9, want: nil},
		{name: "bool", in: true, want: nil},
		{name: "time value", in: time.Now(), want: nil},
		{name: "slice", in: []string{"2024-01-15"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoerceTimestamp(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			if assert.NotNil(t, got) {
				assert.Equal(t, *tt.want, *got)
			}
		})
	}
}

func TestCoerceTimestamp_Total(t *testing.T) {
	inputs := []any{
		"", "0", "-", "////", "99999999999999999999", "2024-13-45", "T", "+", ":::",
		-0.0, 1e-300, -1e300, math.MaxFloat64, math.SmallestNonzeroFloat64,
		uint64(math.MaxUint64), int64(math.MinInt64), struct{}{}, map[string]any{},
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			got := CoerceTimestamp(in)
			if got != nil {
				_, err := time.Parse(ISOLayout, *got)
				assert.NoError(t, err, "output for %v must be canonical", in)
			}
		})
	}
}

func strPtr(s string) *string { return &s }
