// Package breaks computes per-break costs and revenue targets.
package breaks

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/showrunner-backend/pkg/db/models"
	"github.com/angelmondragon/showrunner-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
)

var one = decimal.NewFromInt(1)

// SessionContext is the session-level data every break shares.
type SessionContext struct {
	DefaultFeeRate decimal.Decimal
	TotalExpenses  decimal.Decimal
	// CostBasis is the summed cost basis of items plus every break's box cost.
	CostBasis  decimal.Decimal
	BreakCount int
}

// Economics is the evaluation of one break.
type Economics struct {
	BreakID           uuid.UUID               `json:"breakId"`
	Title             string                  `json:"title"`
	Type              enums.BreakType         `json:"type"`
	SpotCount         int                     `json:"spotCount"`
	BoxCost           decimal.Decimal         `json:"boxCost"`
	FeeRate           decimal.Decimal         `json:"feeRate"`
	Allocation        enums.ExpenseAllocation `json:"allocation"`
	AllocatedExpenses decimal.Decimal         `json:"allocatedExpenses"`
	ProfitTarget      decimal.Decimal         `json:"profitTarget"`
	RequiredRevenue   decimal.Decimal         `json:"requiredRevenue"`
	RequiredPerSpot   *decimal.Decimal        `json:"requiredPerSpot"`
}

// SessionEconomics sums the evaluation of every break in a session.
type SessionEconomics struct {
	Breaks          []Economics     `json:"breaks"`
	TotalBoxCost    decimal.Decimal `json:"totalBoxCost"`
	TotalAllocated  decimal.Decimal `json:"totalAllocated"`
	TotalRequired   decimal.Decimal `json:"totalRequired"`
	TotalExpenses   decimal.Decimal `json:"totalExpenses"`
	UnallocatedLeft decimal.Decimal `json:"unallocatedExpenses"`
}

// BoxCost resolves what a break cost to stock.
func BoxCost(b models.Break, boxes []models.BreakBox) (decimal.Decimal, error) {
	switch b.Type {
	case enums.BreakTypeSingleProduct:
		return b.BoxCost, nil
	case enums.BreakTypeMixer:
		total := decimal.Zero
		for _, box := range boxes {
			if box.Quantity < 0 || box.PricePerBox.IsNegative() {
				return decimal.Zero, pkgerrors.New(pkgerrors.CodeConfiguration, "mixer boxes cannot have negative quantity or price").
					WithDetails(map[string]any{"breakId": b.ID, "boxId": box.ID})
			}
			total = total.Add(decimal.NewFromInt(int64(box.Quantity)).Mul(box.PricePerBox))
		}
		return total, nil
	default:
		return decimal.Zero, pkgerrors.Newf(pkgerrors.CodeConfiguration, "unsupported break type %q", b.Type)
	}
}

// Evaluate computes the economics of one break against its session.
func Evaluate(b models.Break, boxes []models.BreakBox, sc SessionContext) (*Economics, error) {
	boxCost, err := BoxCost(b, boxes)
	if err != nil {
		return nil, err
	}
	return evaluate(b, boxCost, sc)
}

func evaluate(b models.Break, boxCost decimal.Decimal, sc SessionContext) (*Economics, error) {
	feeRate := sc.DefaultFeeRate
	if b.FeeRateOverride != nil {
		feeRate = *b.FeeRateOverride
	}
	if feeRate.IsNegative() || feeRate.GreaterThanOrEqual(one) {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "fee rate must be at least 0 and below 1").
			WithDetails(map[string]any{"breakId": b.ID, "feeRate": feeRate})
	}
	if b.SpotCount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "spot count cannot be negative").
			WithDetails(map[string]any{"breakId": b.ID})
	}

	allocated, err := allocate(b, boxCost, sc)
	if err != nil {
		return nil, err
	}
	target := decimal.Zero
	if b.ProfitTargetOverride != nil {
		target = *b.ProfitTargetOverride
	}

	required := boxCost.Add(allocated).Add(target).Div(one.Sub(feeRate))
	econ := &Economics{
		BreakID:           b.ID,
		Title:             b.Title,
		Type:              b.Type,
		SpotCount:         b.SpotCount,
		BoxCost:           boxCost,
		FeeRate:           feeRate,
		Allocation:        b.ExpenseAllocation,
		AllocatedExpenses: allocated,
		ProfitTarget:      target,
		RequiredRevenue:   required,
	}
	if b.SpotCount > 0 {
		perSpot := required.Div(decimal.NewFromInt(int64(b.SpotCount)))
		econ.RequiredPerSpot = &perSpot
	}
	return econ, nil
}

func allocate(b models.Break, boxCost decimal.Decimal, sc SessionContext) (decimal.Decimal, error) {
	switch b.ExpenseAllocation {
	case enums.ExpenseAllocationProRataCost:
		if sc.CostBasis.IsZero() {
			return decimal.Zero, nil
		}
		return sc.TotalExpenses.Mul(boxCost).Div(sc.CostBasis), nil
	case enums.ExpenseAllocationEqualPerBreak:
		if sc.BreakCount == 0 {
			return decimal.Zero, nil
		}
		return sc.TotalExpenses.Div(decimal.NewFromInt(int64(sc.BreakCount))), nil
	case enums.ExpenseAllocationManual:
		return b.ManualExpenseAmount, nil
	default:
		return decimal.Zero, pkgerrors.Newf(pkgerrors.CodeConfiguration, "unsupported expense allocation %q", b.ExpenseAllocation)
	}
}

// ForSession evaluates every break of a session. itemsCost is the cost basis
// of the session's singles; boxes are keyed by break id.
func ForSession(list []models.Break, boxes map[uuid.UUID][]models.BreakBox, defaultFeeRate, totalExpenses, itemsCost decimal.Decimal) (*SessionEconomics, error) {
	costs := make([]decimal.Decimal, len(list))
	totalBox := decimal.Zero
	for i, b := range list {
		c, err := BoxCost(b, boxes[b.ID])
		if err != nil {
			return nil, err
		}
		costs[i] = c
		totalBox = totalBox.Add(c)
	}

	sc := SessionContext{
		DefaultFeeRate: defaultFeeRate,
		TotalExpenses:  totalExpenses,
		CostBasis:      itemsCost.Add(totalBox),
		BreakCount:     len(list),
	}
	out := &SessionEconomics{
		Breaks:         make([]Economics, 0, len(list)),
		TotalBoxCost:   totalBox,
		TotalAllocated: decimal.Zero,
		TotalRequired:  decimal.Zero,
		TotalExpenses:  totalExpenses,
	}
	for i, b := range list {
		econ, err := evaluate(b, costs[i], sc)
		if err != nil {
			return nil, err
		}
		out.Breaks = append(out.Breaks, *econ)
		out.TotalAllocated = out.TotalAllocated.Add(econ.AllocatedExpenses)
		out.TotalRequired = out.TotalRequired.Add(econ.RequiredRevenue)
	}
	out.UnallocatedLeft = totalExpenses.Sub(out.TotalAllocated)
	return out, nil
}
