package registry

import (
	"encoding/json"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DATE NORMALIZER - raw cell -> canonical Date
// =============================================================================

// serialEpoch is day 0 of the spreadsheet serial calendar (1899-12-30), which
// makes serial 1 = 1899-12-31 and serial 60 = 1900-02-28 plus the leap-bug day.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// maxSerial is 9999-12-31.
const maxSerial = 2958465

var (
	isoLayouts = []string{
		"2006-01-02",
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	}

	// Day-first is tried before month-first; an ambiguous "03/04/2024" is
	// read as 3 April.
	patternLayouts = []string{
		"2-1-2006",
		"2/1/2006",
		"1/2/2006",
	}

	fallbackLayouts = []string{
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006/1/2",
		"2006/1/2 15:04:05",
		"2.1.2006",
		"2/1/2006 15:04:05",
		"2/1/2006 15:04",
		"1/2/2006 15:04:05",
		"1/2/2006 3:04:05 PM",
		"January 2, 2006",
		"January 2 2006",
		"Jan 2, 2006",
		"Jan 2 2006",
		"2 January 2006",
		"2 Jan 2006",
		"Mon Jan 2 2006",
		"Mon, Jan 2, 2006",
		time.ANSIC,
		time.UnixDate,
		time.RubyDate,
		"Mon Jan 02 2006 15:04:05 GMT-0700",
	}
)

// NormalizeDate converts a raw cell into a Date. It never fails loudly:
// anything it cannot read yields (Date{}, false).
//
// Order, first success wins:
//  1. numeric serial (numbers, or text that is a plain number)
//  2. ISO calendar date / date-time
//  3. d-m-yyyy, d/m/yyyy, m/d/yyyy
//  4. email-header date (RFC 5322)
//  5. a list of common free-text layouts
func NormalizeDate(v any) (Date, bool) {
	switch val := v.(type) {
	case nil:
		return Date{}, false
	case Date:
		return val, !val.IsZero()
	case time.Time:
		d := DateOf(val)
		return d, !d.IsZero()
	case decimal.Decimal:
		return fromSerial(val)
	case float64:
		return fromSerial(decimal.NewFromFloat(val))
	case float32:
		return fromSerial(decimal.NewFromFloat32(val))
	case int:
		return fromSerial(decimal.NewFromInt(int64(val)))
	case int64:
		return fromSerial(decimal.NewFromInt(val))
	case json.Number:
		return normalizeText(val.String())
	case string:
		return normalizeText(val)
	default:
		return Date{}, false
	}
}

func normalizeText(raw string) (Date, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Date{}, false
	}

	if n, err := decimal.NewFromString(s); err == nil {
		return fromSerial(n)
	}

	if d, ok := parseLayouts(s, isoLayouts); ok {
		return d, true
	}
	if d, ok := parseLayouts(s, patternLayouts); ok {
		return d, true
	}
	if t, err := mail.ParseDate(s); err == nil {
		return DateOf(t), true
	}
	return parseLayouts(s, fallbackLayouts)
}

func parseLayouts(s string, layouts []string) (Date, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), true
		}
	}
	return Date{}, false
}

// fromSerial floors fractional serials, dropping the time of day.
func fromSerial(n decimal.Decimal) (Date, bool) {
	days := n.Floor()
	if days.IsNegative() || days.GreaterThan(decimal.NewFromInt(maxSerial)) {
		return Date{}, false
	}
	return Date{t: serialEpoch.AddDate(0, 0, int(days.IntPart()))}, true
}

// Serial is the inverse of the numeric path: the spreadsheet day count of d.
func Serial(d Date) int {
	return DaysBetween(Date{t: serialEpoch}, d)
}
