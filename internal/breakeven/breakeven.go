// Package breakeven derives the revenue a session needs to cover its costs
// and profit target after platform fees.
package breakeven

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/showrunner-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
)

var (
	hundred = decimal.NewFromInt(100)

	// ScenarioMultipliers are the fixed profit scenarios reported with every result.
	ScenarioMultipliers = []decimal.Decimal{
		decimal.RequireFromString("1.10"),
		decimal.RequireFromString("1.25"),
		decimal.RequireFromString("1.50"),
	}
)

// Break is the slice of a break the calculator needs.
type Break struct {
	ID        uuid.UUID       `json:"id"`
	Title     string          `json:"title"`
	SpotCount int             `json:"spotCount"`
	BoxCost   decimal.Decimal `json:"boxCost"`
}

// Input describes a planned session. Percent fields are on a 0-100 scale;
// FeeRate is a fraction.
type Input struct {
	ShowType            enums.ShowType   `json:"showType"`
	InventoryCost       decimal.Decimal  `json:"inventoryCost"`
	BreaksCost          decimal.Decimal  `json:"breaksCost"`
	TotalExpenses       decimal.Decimal  `json:"totalExpenses"`
	FeeRate             decimal.Decimal  `json:"feeRate"`
	ProfitTargetAmount  *decimal.Decimal `json:"profitTargetAmount,omitempty"`
	ProfitTargetPercent *decimal.Decimal `json:"profitTargetPercent,omitempty"`
	ItemCount           int              `json:"itemCount"`
	Breaks              []Break          `json:"breaks"`
	SinglesAllocation   *decimal.Decimal `json:"singlesAllocationPercent,omitempty"`
	SellThroughPercent  *decimal.Decimal `json:"sellThroughPercent,omitempty"`
}

// Scenario is a revenue goal above breakeven.
type Scenario struct {
	Multiplier decimal.Decimal `json:"multiplier"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// SinglesTarget is the per-card view of a revenue share.
type SinglesTarget struct {
	Revenue                decimal.Decimal  `json:"revenue"`
	ItemCount              int              `json:"itemCount"`
	RequiredAvgPerCard     *decimal.Decimal `json:"requiredAvgPerCard"`
	ExpectedSold           *int             `json:"expectedSold,omitempty"`
	RequiredAvgPerSoldCard *decimal.Decimal `json:"requiredAvgPerSoldCard,omitempty"`
}

// BreakTarget carries both per-break figures. RequiredPerSpot splits the
// session revenue share by spot weight; OwnCostRequiredPerSpot covers only
// the break's own box cost.
type BreakTarget struct {
	BreakID                uuid.UUID        `json:"breakId"`
	Title                  string           `json:"title"`
	SpotCount              int              `json:"spotCount"`
	TargetRevenue          *decimal.Decimal `json:"targetRevenue"`
	RequiredPerSpot        *decimal.Decimal `json:"requiredPerSpot"`
	OwnCostRequiredPerSpot *decimal.Decimal `json:"ownCostRequiredPerSpot"`
}

// BreaksTarget is the per-spot view of a revenue share.
type BreaksTarget struct {
	Revenue         decimal.Decimal  `json:"revenue"`
	TotalSpots      int              `json:"totalSpots"`
	RequiredPerSpot *decimal.Decimal `json:"requiredPerSpot"`
	PerBreak        []BreakTarget    `json:"perBreak"`
}

// Result is the calculator output at full precision; see Rounded.
type Result struct {
	ShowType         enums.ShowType  `json:"showType"`
	TotalOutlay      decimal.Decimal `json:"totalOutlay"`
	ProfitTarget     decimal.Decimal `json:"profitTarget"`
	FeeRate          decimal.Decimal `json:"feeRate"`
	BreakevenRevenue decimal.Decimal `json:"breakevenRevenue"`
	Scenarios        []Scenario      `json:"scenarios"`
	Singles          *SinglesTarget  `json:"singles,omitempty"`
	Breaks           *BreaksTarget   `json:"breaks,omitempty"`
}

// Calculate validates in and derives the breakeven figures for its show type.
func Calculate(in Input) (*Result, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	breaksCost := in.BreaksCost
	if in.ShowType == enums.ShowTypeSinglesOnly {
		breaksCost = decimal.Zero
	}
	outlay := in.InventoryCost.Add(breaksCost).Add(in.TotalExpenses)
	target := profitTarget(in, outlay)
	keep := decimal.NewFromInt(1).Sub(in.FeeRate)
	revenue := outlay.Add(target).Div(keep)

	res := &Result{
		ShowType:         in.ShowType,
		TotalOutlay:      outlay,
		ProfitTarget:     target,
		FeeRate:          in.FeeRate,
		BreakevenRevenue: revenue,
		Scenarios:        make([]Scenario, 0, len(ScenarioMultipliers)),
	}
	for _, m := range ScenarioMultipliers {
		res.Scenarios = append(res.Scenarios, Scenario{Multiplier: m, Revenue: revenue.Mul(m)})
	}

	switch in.ShowType {
	case enums.ShowTypeSinglesOnly:
		res.Singles = singles(revenue, in.ItemCount, in.SellThroughPercent)
	case enums.ShowTypeBreaksOnly:
		res.Breaks = breaks(revenue, in.Breaks, keep)
	case enums.ShowTypeMixed:
		alloc := *in.SinglesAllocation
		singlesShare := revenue.Mul(alloc).Div(hundred)
		breaksShare := revenue.Mul(hundred.Sub(alloc)).Div(hundred)
		res.Singles = singles(singlesShare, in.ItemCount, in.SellThroughPercent)
		res.Breaks = breaks(breaksShare, in.Breaks, keep)
	default:
		return nil, pkgerrors.Newf(pkgerrors.CodeConfiguration, "unsupported show type %q", in.ShowType)
	}
	return res, nil
}

func validate(in Input) error {
	bad := func(msg string, field string) error {
		return pkgerrors.New(pkgerrors.CodeConfiguration, msg).WithDetails(map[string]any{"field": field})
	}
	if !in.ShowType.IsValid() {
		return bad("unknown show type", "showType")
	}
	if in.FeeRate.IsNegative() || in.FeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return bad("fee rate must be at least 0 and below 1", "feeRate")
	}
	if in.InventoryCost.IsNegative() {
		return bad("inventory cost cannot be negative", "inventoryCost")
	}
	if in.BreaksCost.IsNegative() {
		return bad("breaks cost cannot be negative", "breaksCost")
	}
	if in.TotalExpenses.IsNegative() {
		return bad("expenses cannot be negative", "totalExpenses")
	}
	if in.ProfitTargetAmount != nil && in.ProfitTargetAmount.IsNegative() {
		return bad("profit target cannot be negative", "profitTargetAmount")
	}
	if in.ProfitTargetPercent != nil && in.ProfitTargetPercent.IsNegative() {
		return bad("profit target percent cannot be negative", "profitTargetPercent")
	}
	if in.ItemCount < 0 {
		return bad("item count cannot be negative", "itemCount")
	}
	for _, b := range in.Breaks {
		if b.SpotCount < 0 || b.BoxCost.IsNegative() {
			return bad("break spots and box cost cannot be negative", "breaks")
		}
	}
	if in.SellThroughPercent != nil && !percentInRange(*in.SellThroughPercent) {
		return bad("sell-through must be between 0 and 100", "sellThroughPercent")
	}
	if in.ShowType == enums.ShowTypeMixed {
		if in.SinglesAllocation == nil {
			return bad("mixed shows need a singles revenue allocation", "singlesAllocationPercent")
		}
		if !percentInRange(*in.SinglesAllocation) {
			return bad("singles allocation must be between 0 and 100", "singlesAllocationPercent")
		}
	}
	return nil
}

func percentInRange(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred)
}

// profitTarget prefers the absolute amount over the percent of outlay.
func profitTarget(in Input, outlay decimal.Decimal) decimal.Decimal {
	switch {
	case in.ProfitTargetAmount != nil:
		return *in.ProfitTargetAmount
	case in.ProfitTargetPercent != nil:
		return outlay.Mul(*in.ProfitTargetPercent).Div(hundred)
	default:
		return decimal.Zero
	}
}

func singles(revenue decimal.Decimal, itemCount int, sellThrough *decimal.Decimal) *SinglesTarget {
	out := &SinglesTarget{Revenue: revenue, ItemCount: itemCount}
	if itemCount == 0 {
		return out
	}
	count := decimal.NewFromInt(int64(itemCount))
	perCard := revenue.Div(count)
	out.RequiredAvgPerCard = &perCard

	if sellThrough != nil && sellThrough.LessThan(hundred) {
		sold := int(count.Mul(*sellThrough).Div(hundred).Round(0).IntPart())
		if sold < 1 {
			sold = 1
		}
		perSold := revenue.Div(decimal.NewFromInt(int64(sold)))
		out.ExpectedSold = &sold
		out.RequiredAvgPerSoldCard = &perSold
	}
	return out
}

func breaks(revenue decimal.Decimal, list []Break, keep decimal.Decimal) *BreaksTarget {
	total := 0
	for _, b := range list {
		total += b.SpotCount
	}
	out := &BreaksTarget{Revenue: revenue, TotalSpots: total, PerBreak: make([]BreakTarget, 0, len(list))}
	if total > 0 {
		perSpot := revenue.Div(decimal.NewFromInt(int64(total)))
		out.RequiredPerSpot = &perSpot
	}

	for _, b := range list {
		bt := BreakTarget{BreakID: b.ID, Title: b.Title, SpotCount: b.SpotCount}
		if total > 0 {
			share := revenue.Mul(decimal.NewFromInt(int64(b.SpotCount))).Div(decimal.NewFromInt(int64(total)))
			bt.TargetRevenue = &share
		}
		if b.SpotCount > 0 {
			spots := decimal.NewFromInt(int64(b.SpotCount))
			perSpot := bt.TargetRevenue.Div(spots)
			bt.RequiredPerSpot = &perSpot
			own := b.BoxCost.Div(keep).Div(spots)
			bt.OwnCostRequiredPerSpot = &own
		}
		out.PerBreak = append(out.PerBreak, bt)
	}
	return out
}

// Rounded returns a copy with every money figure rounded to cents.
func (r Result) Rounded() Result {
	out := r
	out.TotalOutlay = r.TotalOutlay.Round(2)
	out.ProfitTarget = r.ProfitTarget.Round(2)
	out.BreakevenRevenue = r.BreakevenRevenue.Round(2)
	out.Scenarios = make([]Scenario, len(r.Scenarios))
	for i, s := range r.Scenarios {
		out.Scenarios[i] = Scenario{Multiplier: s.Multiplier, Revenue: s.Revenue.Round(2)}
	}
	if r.Singles != nil {
		s := *r.Singles
		s.Revenue = s.Revenue.Round(2)
		s.RequiredAvgPerCard = round(s.RequiredAvgPerCard)
		s.RequiredAvgPerSoldCard = round(s.RequiredAvgPerSoldCard)
		out.Singles = &s
	}
	if r.Breaks != nil {
		b := *r.Breaks
		b.Revenue = b.Revenue.Round(2)
		b.RequiredPerSpot = round(b.RequiredPerSpot)
		b.PerBreak = make([]BreakTarget, len(r.Breaks.PerBreak))
		for i, bt := range r.Breaks.PerBreak {
			bt.TargetRevenue = round(bt.TargetRevenue)
			bt.RequiredPerSpot = round(bt.RequiredPerSpot)
			bt.OwnCostRequiredPerSpot = round(bt.OwnCostRequiredPerSpot)
			b.PerBreak[i] = bt
		}
		out.Breaks = &b
	}
	return out
}

func round(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := d.Round(2)
	return &v
}
