package breakeven

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/showrunner-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }
func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func assertInvariant(t *testing.T, res *Result) {
	t.Helper()
	back := res.BreakevenRevenue.Mul(decimal.NewFromInt(1).Sub(res.FeeRate)).Sub(res.ProfitTarget)
	assert.True(t, back.Sub(res.TotalOutlay).Abs().LessThan(d("0.000001")),
		"revenue %s does not solve back to outlay %s", res.BreakevenRevenue, res.TotalOutlay)
}

func TestSinglesBreakevenWithTarget(t *testing.T) {
	res, err := Calculate(Input{
		ShowType:           enums.ShowTypeSinglesOnly,
		InventoryCost:      d("300"),
		BreaksCost:         d("999"),
		TotalExpenses:      d("75"),
		FeeRate:            d("0.12"),
		ProfitTargetAmount: dp("100"),
		ItemCount:          40,
	})
	require.NoError(t, err)

	assert.True(t, d("375").Equal(res.TotalOutlay), "breaks cost is ignored for singles shows")
	assert.Equal(t, "539.77", res.BreakevenRevenue.StringFixed(2))
	assertInvariant(t, res)

	require.NotNil(t, res.Singles)
	require.NotNil(t, res.Singles.RequiredAvgPerCard)
	assert.Equal(t, "13.49", res.Singles.RequiredAvgPerCard.StringFixed(2))
	assert.Nil(t, res.Singles.RequiredAvgPerSoldCard)
	assert.Nil(t, res.Breaks)

	require.Len(t, res.Scenarios, 3)
	assert.Equal(t, "593.75", res.Scenarios[0].Revenue.StringFixed(2))
	assert.Equal(t, "674.72", res.Scenarios[1].Revenue.StringFixed(2))
	assert.Equal(t, "809.66", res.Scenarios[2].Revenue.StringFixed(2))
}

func TestAmountTargetWinsOverPercent(t *testing.T) {
	res, err := Calculate(Input{
		ShowType:            enums.ShowTypeSinglesOnly,
		InventoryCost:       d("200"),
		FeeRate:             d("0"),
		ProfitTargetAmount:  dp("50"),
		ProfitTargetPercent: dp("25"),
		ItemCount:           10,
	})
	require.NoError(t, err)
	assert.True(t, d("50").Equal(res.ProfitTarget))

	res, err = Calculate(Input{
		ShowType:            enums.ShowTypeSinglesOnly,
		InventoryCost:       d("200"),
		FeeRate:             d("0.1"),
		ProfitTargetPercent: dp("25"),
		ItemCount:           10,
	})
	require.NoError(t, err)
	assert.True(t, d("50").Equal(res.ProfitTarget))
	assertInvariant(t, res)
}

func TestSellThroughPerSoldCard(t *testing.T) {
	res, err := Calculate(Input{
		ShowType:           enums.ShowTypeSinglesOnly,
		InventoryCost:      d("100"),
		FeeRate:            d("0"),
		ItemCount:          10,
		SellThroughPercent: dp("75"),
	})
	require.NoError(t, err)

	require.NotNil(t, res.Singles.ExpectedSold)
	assert.Equal(t, 8, *res.Singles.ExpectedSold)
	assert.Equal(t, "12.50", res.Singles.RequiredAvgPerSoldCard.StringFixed(2))

	res, err = Calculate(Input{
		ShowType:           enums.ShowTypeSinglesOnly,
		InventoryCost:      d("100"),
		FeeRate:            d("0"),
		ItemCount:          1,
		SellThroughPercent: dp("10"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, *res.Singles.ExpectedSold, "expected sold never drops below one")
}

func TestBreaksOnlyBothPerSpotFigures(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	res, err := Calculate(Input{
		ShowType:      enums.ShowTypeBreaksOnly,
		BreaksCost:    d("400"),
		TotalExpenses: d("40"),
		FeeRate:       d("0.2"),
		Breaks: []Break{
			{ID: a, SpotCount: 30, BoxCost: d("300")},
			{ID: b, SpotCount: 10, BoxCost: d("100")},
		},
	})
	require.NoError(t, err)
	assertInvariant(t, res)
	assert.Equal(t, "550.00", res.BreakevenRevenue.StringFixed(2))

	require.NotNil(t, res.Breaks)
	assert.Equal(t, 40, res.Breaks.TotalSpots)
	assert.Equal(t, "13.75", res.Breaks.RequiredPerSpot.StringFixed(2))

	first := res.Breaks.PerBreak[0]
	assert.Equal(t, "412.50", first.TargetRevenue.StringFixed(2))
	assert.Equal(t, "13.75", first.RequiredPerSpot.StringFixed(2))
	assert.Equal(t, "12.50", first.OwnCostRequiredPerSpot.StringFixed(2))
	assert.Nil(t, res.Singles)
}

func TestMixedSplitSumsBack(t *testing.T) {
	res, err := Calculate(Input{
		ShowType:          enums.ShowTypeMixed,
		InventoryCost:     d("600"),
		TotalExpenses:     d("400"),
		FeeRate:           d("0"),
		ItemCount:         20,
		SinglesAllocation: dp("60"),
		Breaks: []Break{
			{ID: uuid.New(), SpotCount: 10, BoxCost: d("50")},
			{ID: uuid.New(), SpotCount: 30, BoxCost: d("80")},
			{ID: uuid.New(), SpotCount: 0},
		},
	})
	require.NoError(t, err)
	assert.True(t, d("1000").Equal(res.BreakevenRevenue))
	assert.True(t, d("600").Equal(res.Singles.Revenue))
	assert.True(t, d("400").Equal(res.Breaks.Revenue))
	assert.Equal(t, "30.00", res.Singles.RequiredAvgPerCard.StringFixed(2))

	sum := decimal.Zero
	for _, bt := range res.Breaks.PerBreak {
		require.NotNil(t, bt.TargetRevenue)
		sum = sum.Add(*bt.TargetRevenue)
	}
	assert.True(t, d("400").Equal(sum), "per-break shares sum to %s", sum)
	assert.Equal(t, "100.00", res.Breaks.PerBreak[0].TargetRevenue.StringFixed(2))
	assert.Equal(t, "300.00", res.Breaks.PerBreak[1].TargetRevenue.StringFixed(2))
	assert.Nil(t, res.Breaks.PerBreak[2].RequiredPerSpot)
	assert.Nil(t, res.Breaks.PerBreak[2].OwnCostRequiredPerSpot)
}

func TestZeroCountsLeavePerUnitAbsent(t *testing.T) {
	res, err := Calculate(Input{
		ShowType:          enums.ShowTypeMixed,
		InventoryCost:     d("10"),
		FeeRate:           d("0.1"),
		SinglesAllocation: dp("50"),
	})
	require.NoError(t, err)
	assert.Nil(t, res.Singles.RequiredAvgPerCard)
	assert.Nil(t, res.Breaks.RequiredPerSpot)
	assert.Empty(t, res.Breaks.PerBreak)
}

func TestRejectsOutOfRangeInput(t *testing.T) {
	base := Input{ShowType: enums.ShowTypeSinglesOnly, InventoryCost: d("10"), ItemCount: 1}

	cases := map[string]func(in *Input){
		"fee rate one":      func(in *Input) { in.FeeRate = d("1") },
		"fee rate above":    func(in *Input) { in.FeeRate = d("1.5") },
		"fee rate negative": func(in *Input) { in.FeeRate = d("-0.01") },
		"negative cost":     func(in *Input) { in.InventoryCost = d("-1") },
		"negative expenses": func(in *Input) { in.TotalExpenses = d("-5") },
		"unknown show":      func(in *Input) { in.ShowType = "festival" },
		"mixed no alloc":    func(in *Input) { in.ShowType = enums.ShowTypeMixed },
		"alloc above 100": func(in *Input) {
			in.ShowType = enums.ShowTypeMixed
			in.SinglesAllocation = dp("101")
		},
		"sell-through": func(in *Input) { in.SellThroughPercent = dp("120") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := base
			mutate(&in)
			_, err := Calculate(in)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration))
		})
	}
}

func TestRoundedKeepsShape(t *testing.T) {
	res, err := Calculate(Input{
		ShowType:           enums.ShowTypeSinglesOnly,
		InventoryCost:      d("300"),
		TotalExpenses:      d("75"),
		FeeRate:            d("0.12"),
		ProfitTargetAmount: dp("100"),
		ItemCount:          3,
	})
	require.NoError(t, err)

	r := res.Rounded()
	assert.Equal(t, "539.77", r.BreakevenRevenue.String())
	assert.Equal(t, "179.92", r.Singles.RequiredAvgPerCard.String())
	assert.Equal(t, 3, len(r.Scenarios))
	assert.NotEqual(t, res.BreakevenRevenue.String(), r.BreakevenRevenue.String(), "original is untouched")
}
