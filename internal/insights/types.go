package insights

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/showrunner-backend/pkg/db/models"
	"github.com/angelmondragon/showrunner-backend/pkg/enums"
)

// Filter selects the reconciled sessions to aggregate. From and To are
// calendar dates matched inclusively against reconciled_at. Empty Platform or
// ShowType means all.
type Filter struct {
	From            *time.Time     `json:"dateFrom,omitempty"`
	To              *time.Time     `json:"dateTo,omitempty"`
	Platform        enums.Platform `json:"platform,omitempty"`
	ShowType        enums.ShowType `json:"showType,omitempty"`
	IncludeExpenses bool           `json:"includeExpenses"`
	MinSampleSize   int            `json:"minSampleSize"`
}

// Dataset is the snapshot the aggregator reads. Items maps inventory ids to
// their records for cost basis and labels.
type Dataset struct {
	Sessions     []models.Session
	SessionItems []models.SessionItem
	Sales        []models.Sale
	Expenses     []models.SessionExpense
	Items        map[uuid.UUID]models.InventoryItem
}

// SessionProfit names one session and its profit.
type SessionProfit struct {
	SessionID uuid.UUID       `json:"sessionId"`
	Title     string          `json:"title"`
	Profit    decimal.Decimal `json:"profit"`
}

// HoldTime summarises days from acquisition to sale.
type HoldTime struct {
	Samples    int             `json:"samples"`
	AvgDays    decimal.Decimal `json:"avgDays"`
	MedianDays decimal.Decimal `json:"medianDays"`
}

// Profile is the seller-wide roll-up.
type Profile struct {
	Sessions            int             `json:"sessions"`
	ItemsRun            int             `json:"itemsRun"`
	ItemsSold           int             `json:"itemsSold"`
	SellThroughRate     decimal.Decimal `json:"sellThroughRate"`
	GrossRevenue        decimal.Decimal `json:"grossRevenue"`
	Fees                decimal.Decimal `json:"fees"`
	Taxes               decimal.Decimal `json:"taxes"`
	Shipping            decimal.Decimal `json:"shipping"`
	COGS                decimal.Decimal `json:"cogs"`
	Expenses            decimal.Decimal `json:"expenses"`
	NetProfit           decimal.Decimal `json:"netProfit"`
	ProfitMargin        decimal.Decimal `json:"profitMargin"`
	AvgProfitPerItem    decimal.Decimal `json:"avgProfitPerItem"`
	MedianProfitPerItem decimal.Decimal `json:"medianProfitPerItem"`
	AvgSessionProfit    decimal.Decimal `json:"avgSessionProfit"`
	BestSession         *SessionProfit  `json:"bestSession"`
	WorstSession        *SessionProfit  `json:"worstSession"`
	HoldTime            HoldTime        `json:"holdTime"`
}

// Bucket is the performance of one price range. Max is nil for the open top
// range. AvgROI is nil when every sale in range had zero cost.
type Bucket struct {
	Label        string           `json:"label"`
	Min          decimal.Decimal  `json:"min"`
	Max          *decimal.Decimal `json:"max"`
	SampleSize   int              `json:"sampleSize"`
	GrossRevenue decimal.Decimal  `json:"grossRevenue"`
	NetProfit    decimal.Decimal  `json:"netProfit"`
	AvgProfit    decimal.Decimal  `json:"avgProfit"`
	MedianProfit decimal.Decimal  `json:"medianProfit"`
	AvgROI       *decimal.Decimal `json:"avgRoi"`
}

// Buckets holds every kept bucket in range order plus the ranked views.
type Buckets struct {
	All    []Bucket `json:"all"`
	Top    []Bucket `json:"top"`
	Bottom []Bucket `json:"bottom"`
}

// Breakdown groups sessions by platform or show type. AvgSellThrough is only
// set for platforms.
type Breakdown struct {
	Key              string           `json:"key"`
	Sessions         int              `json:"sessions"`
	ItemsSold        int              `json:"itemsSold"`
	GrossRevenue     decimal.Decimal  `json:"grossRevenue"`
	Expenses         decimal.Decimal  `json:"expenses"`
	NetProfit        decimal.Decimal  `json:"netProfit"`
	AvgSessionProfit decimal.Decimal  `json:"avgSessionProfit"`
	AvgSellThrough   *decimal.Decimal `json:"avgSellThrough,omitempty"`
}

// Burden is one session's share of revenue lost to fees or expenses.
type Burden struct {
	SessionID uuid.UUID       `json:"sessionId"`
	Title     string          `json:"title"`
	Revenue   decimal.Decimal `json:"revenue"`
	Amount    decimal.Decimal `json:"amount"`
	Percent   decimal.Decimal `json:"percent"`
}

// Leaks lists where profit goes missing.
type Leaks struct {
	NegativeBuckets []Bucket `json:"negativeBuckets"`
	FeeBurden       []Burden `json:"feeBurden"`
	ExpenseBurden   []Burden `json:"expenseBurden"`
}

// LeaderboardEntry is one player or category label.
type LeaderboardEntry struct {
	Label        string          `json:"label"`
	Sales        int             `json:"sales"`
	GrossRevenue decimal.Decimal `json:"grossRevenue"`
	TotalProfit  decimal.Decimal `json:"totalProfit"`
	AvgProfit    decimal.Decimal `json:"avgProfit"`
	MedianProfit decimal.Decimal `json:"medianProfit"`
}

// Report is the full insights response.
type Report struct {
	Filter          Filter             `json:"filter"`
	Profile         Profile            `json:"profile"`
	Buckets         Buckets            `json:"buckets"`
	Platforms       []Breakdown        `json:"platforms"`
	ShowTypes       []Breakdown        `json:"showTypes"`
	Leaks           Leaks              `json:"leaks"`
	Leaderboard     []LeaderboardEntry `json:"leaderboard"`
	Recommendations []string           `json:"recommendations"`
}
