package reconciliation

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"
)

var firstInteger = regexp.MustCompile(`\d+`)

// ExtractItemNumber returns the first run of digits in raw: "ITEM-001" is 1,
// "#42" is 42 and "12-34" is 12.
func ExtractItemNumber(raw string) (int, bool) {
	digits := firstInteger.FindString(strings.TrimSpace(raw))
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// moneyState describes what ParseMoney found in a cell.
type moneyState int

const (
	moneyEmpty moneyState = iota
	moneyOK
	moneyInvalid
)

// ParseMoney strips currency symbols and thousands separators and parses the
// remainder as a decimal.
func ParseMoney(raw string) (decimal.Decimal, moneyState) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return decimal.Zero, moneyEmpty
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, moneyInvalid
	}
	return d, moneyOK
}

var timeParser = &now.Config{
	WeekStartDay: time.Monday,
	TimeLocation: time.UTC,
	TimeFormats: []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
		"01/02/2006 15:04:05",
		"01/02/2006 3:04 PM",
		"1/2/2006 3:04 PM",
		"01/02/2006 15:04",
		"1/2/2006 15:04",
		"01/02/2006",
		"1/2/2006",
	},
}

// ParsePlacedAt reads an order timestamp in the layouts sales exports use. Every
// layout carries a full date so the result never depends on the clock.
func ParsePlacedAt(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || !firstInteger.MatchString(raw) {
		return time.Time{}, false
	}
	t, err := timeParser.Parse(raw)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
