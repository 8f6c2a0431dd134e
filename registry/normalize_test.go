package registry_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/reminder-engine/registry"
)

func date(year int, month time.Month, day int) registry.Date {
	return registry.NewDate(year, month, day)
}

// =============================================================================
// SERIAL DATES
// =============================================================================

func TestNormalizeDate_Serials(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want registry.Date
	}{
		{"float", float64(45000), date(2023, time.March, 15)},
		{"int", 45453, date(2024, time.June, 10)},
		{"fraction floors", 45453.99, date(2024, time.June, 10)},
		{"numeric text", "45453", date(2024, time.June, 10)},
		{"numeric text with time", " 45453.5 ", date(2024, time.June, 10)},
		{"decimal", decimal.NewFromInt(1), date(1899, time.December, 31)},
		{"json number", json.Number("45000"), date(2023, time.March, 15)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := registry.NormalizeDate(tc.in)
			require.True(t, ok)
			assert.Equal(t, tc.want.String(), got.String())
		})
	}
}

func TestNormalizeDate_SerialInverse(t *testing.T) {
	d := date(2024, time.February, 29)
	got, ok := registry.NormalizeDate(registry.Serial(d))
	require.True(t, ok)
	assert.True(t, d.Equal(got))
}

// =============================================================================
// TEXT DATES
// =============================================================================

func TestNormalizeDate_TextFormats(t *testing.T) {
	want := date(2024, time.June, 10)
	inputs := []string{
		"2024-06-10",
		"2024-06-10T08:30:00Z",
		"2024-06-10T23:30:00-05:00",
		"10-06-2024",
		"10/06/2024",
		"10/6/2024",
		"Mon, 10 Jun 2024 08:00:00 +0000",
		"10 Jun 2024 08:00 GMT",
		"June 10, 2024",
		"Jun 10 2024",
		"2024/06/10",
		"2024-06-10 14:15:00",
	}
	for _, in := range inputs {
		got, ok := registry.NormalizeDate(in)
		if assert.True(t, ok, in) {
			assert.Equal(t, want.String(), got.String(), in)
		}
	}
}

func TestNormalizeDate_DayFirstBeforeMonthFirst(t *testing.T) {
	got, ok := registry.NormalizeDate("03/04/2024")
	require.True(t, ok)
	assert.Equal(t, "2024-04-03", got.String(), "ambiguous slash dates read day-first")

	got, ok = registry.NormalizeDate("04/13/2024")
	require.True(t, ok)
	assert.Equal(t, "2024-04-13", got.String(), "month-first when day-first is impossible")
}

func TestNormalizeDate_RoundTrip(t *testing.T) {
	layouts := []string{"2006-01-02", "02-01-2006", "02/01/2006", time.RFC1123Z}
	for d := date(2023, time.January, 1); d.Before(date(2025, time.January, 1)); d = d.AddDays(13) {
		for _, layout := range layouts {
			got, ok := registry.NormalizeDate(d.Time().Format(layout))
			require.True(t, ok, layout)
			assert.True(t, d.Equal(got), "%s via %q", d, layout)
		}
	}

	// Month-first round-trips whenever the day cannot be a month.
	for day := 13; day <= 28; day++ {
		d := date(2024, time.May, day)
		got, ok := registry.NormalizeDate(d.Time().Format("01/02/2006"))
		require.True(t, ok)
		assert.True(t, d.Equal(got))
	}
}

func TestNormalizeDate_Unparseable(t *testing.T) {
	for _, in := range []any{nil, "", "   ", "soon", "32/13/2024", "2024-02-30", -5, float64(9_999_999), struct{}{}} {
		got, ok := registry.NormalizeDate(in)
		assert.False(t, ok, "%v", in)
		assert.True(t, got.IsZero())
	}
}

func TestNormalizeDate_TimeValues(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	got, ok := registry.NormalizeDate(time.Date(2024, time.June, 10, 22, 0, 0, 0, loc))
	require.True(t, ok)
	assert.Equal(t, "2024-06-10", got.String(), "calendar date kept as written")
}
