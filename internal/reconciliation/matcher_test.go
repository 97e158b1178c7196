package reconciliation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/showrunner-backend/internal/csvimport"
	"github.com/angelmondragon/showrunner-backend/internal/fees"
	"github.com/angelmondragon/showrunner-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func runItem(number int, cost string) RunItem {
	return RunItem{
		SessionItemID: uuid.New(),
		ItemID:        uuid.New(),
		ItemNumber:    number,
		Name:          "card",
		CostBasis:     d(cost),
		Lifecycle:     enums.LifecycleStatusActive,
	}
}

func match(t *testing.T, text string, items []RunItem, opts Options) *Result {
	t.Helper()
	table, err := csvimport.Parse(text)
	require.NoError(t, err)
	res, err := Match(table, csvimport.InferMapping(table.Headers), items, opts)
	require.NoError(t, err)
	return res
}

func TestMatchUnknownItemNumberIsUnmatched(t *testing.T) {
	items := []RunItem{runItem(1, "5")}
	res := match(t, "Item#,Name,Sold Price,Fees,Buyer\n1,Card A,$20.00,2.00,alice\n99,Card Z,10,1,bob\n",
		items, Options{Mode: enums.MatchModeItemNumber, Channel: enums.PlatformWhatnot})

	require.Len(t, res.Rows, 2)
	first := res.Rows[0]
	assert.Equal(t, enums.MatchStatusMatched, first.Status)
	assert.False(t, first.NeedsReview)
	require.NotNil(t, first.Proposed)
	assert.Equal(t, items[0].ItemID, first.Proposed.ItemID)
	assert.True(t, d("2").Equal(first.Proposed.Fees))
	assert.True(t, d("13").Equal(first.Proposed.NetProfit), first.Proposed.NetProfit.String())
	require.NotNil(t, first.Proposed.Buyer)
	assert.Equal(t, "alice", *first.Proposed.Buyer)

	second := res.Rows[1]
	assert.Equal(t, enums.MatchStatusUnmatched, second.Status)
	assert.True(t, second.NeedsReview)
	assert.Equal(t, []string{ReasonItemNotInRun}, second.Errors)
	assert.Nil(t, second.Proposed)

	assert.Equal(t, Summary{
		TotalRows:   2,
		Matched:     1,
		Unmatched:   1,
		NeedsReview: 1,
		ModeUsed:    enums.MatchModeItemNumber,
		StartNumber: 1,
		Exclude:     []string{},
		Include:     []string{},
	}, res.Summary)
	assert.Len(t, res.Matched(), 1)
}

func TestMatchPriceProblemsAreInvalid(t *testing.T) {
	items := []RunItem{runItem(1, "5"), runItem(2, "5"), runItem(3, "5")}
	res := match(t, "Item#,Sold Price\n1,abc\n2,0\n3,\n", items, Options{Mode: enums.MatchModeItemNumber})

	assert.Equal(t, enums.MatchStatusInvalid, res.Rows[0].Status)
	assert.Equal(t, []string{ReasonPriceInvalid}, res.Rows[0].Errors)
	assert.Equal(t, []string{ReasonPriceNotPositive}, res.Rows[1].Errors)
	assert.Equal(t, []string{ReasonPriceMissing}, res.Rows[2].Errors)
	for _, r := range res.Rows {
		assert.True(t, r.NeedsReview)
		assert.NotNil(t, r.Item)
	}
}

func TestMatchUnmatchedTakesPrecedence(t *testing.T) {
	res := match(t, "Item#,Sold Price\n99,abc\nno number,10\n", []RunItem{runItem(1, "5")},
		Options{Mode: enums.MatchModeItemNumber})

	assert.Equal(t, enums.MatchStatusUnmatched, res.Rows[0].Status)
	assert.Equal(t, []string{ReasonItemNotInRun, ReasonPriceInvalid}, res.Rows[0].Errors)
	assert.Equal(t, enums.MatchStatusUnmatched, res.Rows[1].Status)
	assert.Equal(t, []string{ReasonItemNumberMissing}, res.Rows[1].Errors)
}

func TestMatchFlagsDuplicateRowsAndInactiveItems(t *testing.T) {
	sold := runItem(2, "5")
	sold.Lifecycle = enums.LifecycleStatusSold
	res := match(t, "Item#,Sold Price\n1,10\n1,12\n2,8\n", []RunItem{runItem(1, "5"), sold},
		Options{Mode: enums.MatchModeItemNumber})

	for _, r := range res.Rows[:2] {
		assert.Equal(t, enums.MatchStatusInvalid, r.Status)
		assert.Contains(t, r.Errors, ReasonDuplicateItemNumber)
	}
	assert.Equal(t, enums.MatchStatusInvalid, res.Rows[2].Status)
	assert.Equal(t, []string{ReasonItemNotActive}, res.Rows[2].Errors)
	assert.Empty(t, res.Matched())
}

func TestMatchAmbiguousRunNumber(t *testing.T) {
	res := match(t, "Item#,Sold Price\n4,10\n", []RunItem{runItem(4, "1"), runItem(4, "2")},
		Options{Mode: enums.MatchModeItemNumber})
	assert.Equal(t, enums.MatchStatusUnmatched, res.Rows[0].Status)
	assert.Equal(t, []string{ReasonItemNumberAmbiguous}, res.Rows[0].Errors)
}

func TestMatchSequenceOrdersByPlacedAt(t *testing.T) {
	items := []RunItem{runItem(5, "1"), runItem(6, "2"), runItem(7, "3")}
	text := "Title,Price,Placed At\n" +
		"second,10,2026-03-01 20:10:00\n" +
		"first,11,2026-03-01 20:05:00\n" +
		"untimed,12,\n"
	res := match(t, text, items, Options{Mode: enums.MatchModeSequence, StartNumber: 5})

	require.Len(t, res.Matched(), 3)
	assert.Equal(t, 6, *res.Rows[0].Fields.ItemNumber)
	assert.Equal(t, 5, *res.Rows[1].Fields.ItemNumber)
	assert.Equal(t, 7, *res.Rows[2].Fields.ItemNumber)
	assert.Equal(t, items[0].ItemID, res.Rows[1].Item.ItemID)
	assert.True(t, time.Date(2026, 3, 1, 20, 5, 0, 0, time.UTC).Equal(res.Rows[1].Proposed.SoldAt))
	assert.Equal(t, enums.MatchModeSequence, res.Summary.ModeUsed)
	assert.Equal(t, 5, res.Summary.StartNumber)
}

func TestMatchSequenceSkipsExcludedRows(t *testing.T) {
	items := []RunItem{runItem(1, "1"), runItem(2, "1")}
	res := match(t, "Title,Price\nCard,10\nBreak spot,5\nCard,9\n", items,
		Options{Mode: enums.MatchModeSequence, Exclude: []string{" BREAK "}})

	assert.Equal(t, 1, *res.Rows[0].Fields.ItemNumber)
	assert.Equal(t, enums.MatchStatusExcluded, res.Rows[1].Status)
	assert.Nil(t, res.Rows[1].Fields.ItemNumber)
	assert.Equal(t, 2, *res.Rows[2].Fields.ItemNumber)
	assert.Equal(t, []string{"break"}, res.Summary.Exclude)
}

func TestMatchKeywordFilters(t *testing.T) {
	items := []RunItem{runItem(1, "1"), runItem(2, "1"), runItem(3, "1")}
	res := match(t, "Item#,Name,Sold Price\n1,Topps Chrome,10\n2,Panini Prizm,10\n3,Topps Break,10\n", items,
		Options{Mode: enums.MatchModeItemNumber, Exclude: []string{"break"}, Include: []string{"topps"}})

	assert.Equal(t, enums.MatchStatusMatched, res.Rows[0].Status)
	assert.Equal(t, enums.MatchStatusExcluded, res.Rows[1].Status)
	assert.Equal(t, []string{ReasonNotIncluded}, res.Rows[1].Errors)
	assert.Equal(t, enums.MatchStatusExcluded, res.Rows[2].Status)
	assert.Equal(t, []string{ReasonExcludedKeyword}, res.Rows[2].Errors)
	assert.False(t, res.Rows[2].NeedsReview)
	assert.Equal(t, 2, res.Summary.Excluded)
}

func TestMatchAutoModeThreshold(t *testing.T) {
	items := []RunItem{runItem(1, "1"), runItem(2, "1"), runItem(3, "1"), runItem(4, "1"), runItem(5, "1")}

	res := match(t, "Item#,Sold Price\n1,5\n2,5\n3,5\n4,5\n-,5\n", items, Options{})
	assert.Equal(t, enums.MatchModeItemNumber, res.Summary.ModeUsed)
	assert.Equal(t, 4, res.Summary.Matched)

	res = match(t, "Item#,Sold Price\n1,5\n2,5\n-,5\n-,5\n-,5\n", items, Options{})
	assert.Equal(t, enums.MatchModeSequence, res.Summary.ModeUsed)
	assert.Equal(t, 5, res.Summary.Matched)
}

func TestMatchFeeFallbacks(t *testing.T) {
	items := []RunItem{runItem(1, "10"), runItem(2, "10")}
	res := match(t, "Item#,Sold Price,Channel\n1,50,whatnot\n2,50,\n", items,
		Options{Mode: enums.MatchModeItemNumber, FeeRate: d("0.10")})

	whatnot := res.Rows[0].Proposed
	assert.Equal(t, enums.PlatformWhatnot, whatnot.Channel)
	assert.True(t, d("5.75").Equal(whatnot.Fees), whatnot.Fees.String())
	assert.True(t, d("34.25").Equal(whatnot.NetProfit), whatnot.NetProfit.String())

	flat := res.Rows[1].Proposed
	assert.Equal(t, enums.PlatformOther, flat.Channel)
	assert.True(t, d("5").Equal(flat.Fees))
	assert.True(t, d("35").Equal(flat.NetProfit))
}

func TestMatchUnusableChargeCellsCountAsZero(t *testing.T) {
	items := []RunItem{runItem(1, "5"), runItem(2, "5")}
	res := match(t, "Item #,Sold Price,Fees,Taxes\n1,$20,N/A,\n2,$20,-1,oops\n", items,
		Options{Mode: enums.MatchModeItemNumber})

	for _, row := range res.Rows {
		assert.Equal(t, enums.MatchStatusMatched, row.Status, row.Row)
		assert.Empty(t, row.Errors, row.Row)
		require.NotNil(t, row.Proposed, row.Row)
		assert.True(t, row.Proposed.Fees.IsZero(), row.Proposed.Fees.String())
		assert.True(t, d("15").Equal(row.Proposed.NetProfit), row.Proposed.NetProfit.String())
		assert.True(t, row.Fields.Taxes.IsZero())
	}
	assert.Equal(t, []string{ReasonFeesInvalid}, res.Rows[0].Warnings)
	assert.Equal(t, []string{ReasonFeesInvalid, ReasonTaxesInvalid}, res.Rows[1].Warnings)
	assert.Equal(t, 2, res.Summary.Matched)
	assert.Equal(t, 0, res.Summary.Invalid)
}

func TestMatchUsesResolvedSchedules(t *testing.T) {
	items := []RunItem{runItem(1, "10"), runItem(2, "10"), runItem(3, "10")}
	opts := Options{
		Mode:    enums.MatchModeItemNumber,
		Channel: enums.PlatformShow,
		FeeRate: d("0.10"),
		Schedules: map[enums.Platform]fees.Schedule{
			enums.PlatformWhatnot: fees.FlatRate(d("0.20")),
		},
	}
	res := match(t, "Item#,Sold Price,Channel\n1,50,whatnot\n2,50,\n3,50,ebay\n", items, opts)

	assert.True(t, d("10").Equal(res.Rows[0].Proposed.Fees), res.Rows[0].Proposed.Fees.String())

	show := res.Rows[1].Proposed
	assert.Equal(t, enums.PlatformShow, show.Channel)
	assert.True(t, d("5").Equal(show.Fees), show.Fees.String())

	// ebay is not in the resolved set so the built-in schedule applies.
	assert.True(t, d("6.93").Equal(res.Rows[2].Proposed.Fees), res.Rows[2].Proposed.Fees.String())
}

func TestMatchIgnoresRowOrder(t *testing.T) {
	items := []RunItem{runItem(1, "3"), runItem(2, "4"), runItem(3, "5")}
	rows := []string{"1,10", "2,abc", "3,12", "3,13", "9,7", "x,4"}

	type outcome struct {
		status enums.MatchStatus
		errors []string
	}
	outcomes := func(lines []string) map[string][]outcome {
		text := "Item#,Sold Price\n"
		for _, l := range lines {
			text += l + "\n"
		}
		res := match(t, text, items, Options{Mode: enums.MatchModeItemNumber})
		got := map[string][]outcome{}
		for _, row := range res.Rows {
			key := row.Raw[0] + "," + row.Raw[1]
			got[key] = append(got[key], outcome{row.Status, row.Errors})
		}
		return got
	}

	want := outcomes(rows)
	reversed := make([]string, len(rows))
	for i, l := range rows {
		reversed[len(rows)-1-i] = l
	}
	rotated := append(append([]string{}, rows[3:]...), rows[:3]...)

	assert.Equal(t, want, outcomes(reversed))
	assert.Equal(t, want, outcomes(rotated))
	assert.Equal(t, enums.MatchStatusInvalid, want["3,12"][0].status)
	assert.Equal(t, enums.MatchStatusMatched, want["1,10"][0].status)
}

func TestMatchIsDeterministic(t *testing.T) {
	items := []RunItem{runItem(1, "3"), runItem(2, "4")}
	text := "Item#,Sold Price,Placed At\n2,10,2026-01-01\n1,8,\n9,1,\n"
	a := match(t, text, items, Options{Mode: enums.MatchModeItemNumber})
	b := match(t, text, items, Options{Mode: enums.MatchModeItemNumber})
	assert.Equal(t, a, b)
}

func TestMatchRequiresMappedColumns(t *testing.T) {
	table, err := csvimport.Parse("Name,Sold Price\nx,1\n")
	require.NoError(t, err)

	_, err = Match(table, csvimport.InferMapping(table.Headers), nil, Options{Mode: enums.MatchModeItemNumber})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = Match(table, csvimport.InferMapping(table.Headers), nil, Options{Mode: enums.MatchModeSequence})
	assert.NoError(t, err)

	_, err = Match(table, csvimport.InferMapping(table.Headers), nil, Options{Mode: "fuzzy"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestExtractItemNumber(t *testing.T) {
	cases := map[string]int{"ITEM-001": 1, "#42": 42, "12-34": 12, " 7 ": 7}
	for raw, want := range cases {
		got, ok := ExtractItemNumber(raw)
		require.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	_, ok := ExtractItemNumber("n/a")
	assert.False(t, ok)
}

func TestParseMoney(t *testing.T) {
	v, state := ParseMoney(" $1,200.50 ")
	assert.Equal(t, moneyOK, state)
	assert.True(t, d("1200.50").Equal(v))

	_, state = ParseMoney("")
	assert.Equal(t, moneyEmpty, state)
	_, state = ParseMoney("free")
	assert.Equal(t, moneyInvalid, state)
}

func TestParsePlacedAt(t *testing.T) {
	got, ok := ParsePlacedAt("03/01/2026 8:15 PM")
	require.True(t, ok)
	assert.True(t, time.Date(2026, 3, 1, 20, 15, 0, 0, time.UTC).Equal(got))

	_, ok = ParsePlacedAt("yesterday")
	assert.False(t, ok)
}
