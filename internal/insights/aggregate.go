// Package insights rolls reconciled sessions up into seller analytics:
// profile totals, price-range buckets, platform and show-type breakdowns,
// profit leaks, a label leaderboard and advisory recommendations.
package insights

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/showrunner-backend/pkg/db/models"
)

const (
	rankedBuckets    = 5
	burdenLimit      = 5
	leaderboardLimit = 10
	groupSampleCap   = 3
)

var (
	hundred        = decimal.NewFromInt(100)
	hoursPerDay    = decimal.NewFromInt(24)
	sellThroughMin = decimal.NewFromInt(70)
	expenseMax     = decimal.NewFromInt(15)
)

type priceRange struct {
	label string
	min   decimal.Decimal
	max   *decimal.Decimal
}

func upTo(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// priceRanges partition sold prices; each range is [min, max).
var priceRanges = []priceRange{
	{"$0-5", decimal.Zero, upTo(5)},
	{"$5-10", decimal.NewFromInt(5), upTo(10)},
	{"$10-20", decimal.NewFromInt(10), upTo(20)},
	{"$20-50", decimal.NewFromInt(20), upTo(50)},
	{"$50-100", decimal.NewFromInt(50), upTo(100)},
	{"$100-250", decimal.NewFromInt(100), upTo(250)},
	{"$250+", decimal.NewFromInt(250), nil},
}

// rangeIndex returns the range holding price. Prices below zero land in the
// first range.
func rangeIndex(price decimal.Decimal) int {
	for i := len(priceRanges) - 1; i > 0; i-- {
		if price.GreaterThanOrEqual(priceRanges[i].min) {
			return i
		}
	}
	return 0
}

type saleFact struct {
	sale     models.Sale
	cost     decimal.Decimal
	profit   decimal.Decimal
	label    string
	acquired *time.Time
}

type sessionStat struct {
	session  models.Session
	itemsRun int
	sold     int
	revenue  decimal.Decimal
	fees     decimal.Decimal
	taxes    decimal.Decimal
	shipping decimal.Decimal
	cogs     decimal.Decimal
	expenses decimal.Decimal
}

func (s *sessionStat) counted(include bool) decimal.Decimal {
	if include {
		return s.expenses
	}
	return decimal.Zero
}

func (s *sessionStat) profit(include bool) decimal.Decimal {
	return s.revenue.Sub(s.fees).Sub(s.taxes).Sub(s.shipping).Sub(s.cogs).Sub(s.counted(include))
}

// Aggregate computes the report for ds. It never fails: an empty dataset
// yields a zero-valued report.
func Aggregate(f Filter, ds Dataset) Report {
	if f.MinSampleSize < 1 {
		f.MinSampleSize = 1
	}
	groupMin := min(f.MinSampleSize, groupSampleCap)

	facts := collectFacts(ds)
	stats := collectSessions(ds, facts)
	profile := buildProfile(f, ds, facts, stats)
	buckets := buildBuckets(facts, f.MinSampleSize)
	platforms := breakdown(stats, f.IncludeExpenses, groupMin, true, func(s models.Session) string {
		return s.Platform.String()
	})
	showTypes := breakdown(stats, f.IncludeExpenses, groupMin, false, func(s models.Session) string {
		return s.ShowType.String()
	})

	return Report{
		Filter:          f,
		Profile:         profile,
		Buckets:         buckets,
		Platforms:       platforms,
		ShowTypes:       showTypes,
		Leaks:           buildLeaks(f.IncludeExpenses, buckets.All, stats),
		Leaderboard:     leaderboard(facts, groupMin),
		Recommendations: recommend(f, profile, buckets, showTypes),
	}
}

func collectFacts(ds Dataset) []saleFact {
	facts := make([]saleFact, 0, len(ds.Sales))
	for _, sale := range ds.Sales {
		fact := saleFact{sale: sale, cost: decimal.Zero}
		if item, ok := ds.Items[sale.ItemID]; ok {
			fact.cost = item.CostBasis
			fact.label = item.Label()
			fact.acquired = item.AcquiredAt
		}
		fact.profit = sale.NetProfit(fact.cost)
		facts = append(facts, fact)
	}
	return facts
}

func collectSessions(ds Dataset, facts []saleFact) []*sessionStat {
	stats := make([]*sessionStat, 0, len(ds.Sessions))
	byID := make(map[uuid.UUID]*sessionStat, len(ds.Sessions))
	for _, s := range ds.Sessions {
		st := &sessionStat{
			session:  s,
			revenue:  decimal.Zero,
			fees:     decimal.Zero,
			taxes:    decimal.Zero,
			shipping: decimal.Zero,
			cogs:     decimal.Zero,
			expenses: decimal.Zero,
		}
		stats = append(stats, st)
		byID[s.ID] = st
	}
	for _, si := range ds.SessionItems {
		if st, ok := byID[si.SessionID]; ok {
			st.itemsRun++
		}
	}
	for _, fact := range facts {
		if fact.sale.SessionID == nil {
			continue
		}
		st, ok := byID[*fact.sale.SessionID]
		if !ok {
			continue
		}
		st.sold++
		st.revenue = st.revenue.Add(fact.sale.SoldPrice)
		st.fees = st.fees.Add(fact.sale.Fees)
		st.taxes = st.taxes.Add(fact.sale.Taxes)
		st.shipping = st.shipping.Add(fact.sale.Shipping)
		st.cogs = st.cogs.Add(fact.cost)
	}
	for _, e := range ds.Expenses {
		if st, ok := byID[e.SessionID]; ok {
			st.expenses = st.expenses.Add(e.Amount)
		}
	}
	return stats
}

func buildProfile(f Filter, ds Dataset, facts []saleFact, stats []*sessionStat) Profile {
	p := Profile{
		Sessions:  len(ds.Sessions),
		ItemsRun:  len(ds.SessionItems),
		ItemsSold: len(facts),
		Fees:      decimal.Zero,
		Taxes:     decimal.Zero,
		Shipping:  decimal.Zero,
		COGS:      decimal.Zero,
		Expenses:  decimal.Zero,
	}
	gross := decimal.Zero
	profits := make([]decimal.Decimal, 0, len(facts))
	for _, fact := range facts {
		gross = gross.Add(fact.sale.SoldPrice)
		p.Fees = p.Fees.Add(fact.sale.Fees)
		p.Taxes = p.Taxes.Add(fact.sale.Taxes)
		p.Shipping = p.Shipping.Add(fact.sale.Shipping)
		p.COGS = p.COGS.Add(fact.cost)
		profits = append(profits, fact.profit)
	}
	if f.IncludeExpenses {
		for _, e := range ds.Expenses {
			p.Expenses = p.Expenses.Add(e.Amount)
		}
	}
	p.GrossRevenue = gross
	p.NetProfit = gross.Sub(p.Fees).Sub(p.Taxes).Sub(p.Shipping).Sub(p.COGS).Sub(p.Expenses)
	p.SellThroughRate = percent(decimal.NewFromInt(int64(p.ItemsSold)), decimal.NewFromInt(int64(p.ItemsRun)))
	p.ProfitMargin = percent(p.NetProfit, gross)
	p.AvgProfitPerItem = mean(profits).Round(2)
	p.MedianProfitPerItem = median(profits)

	sessionProfits := make([]decimal.Decimal, 0, len(stats))
	for _, st := range stats {
		profit := st.profit(f.IncludeExpenses)
		sessionProfits = append(sessionProfits, profit)
		sp := &SessionProfit{SessionID: st.session.ID, Title: st.session.Title, Profit: profit}
		if p.BestSession == nil || profit.GreaterThan(p.BestSession.Profit) {
			p.BestSession = sp
		}
		if p.WorstSession == nil || profit.LessThan(p.WorstSession.Profit) {
			p.WorstSession = sp
		}
	}
	p.AvgSessionProfit = mean(sessionProfits).Round(2)
	p.HoldTime = holdTime(facts)
	return p
}

// holdTime skips sales without an acquisition date and sales recorded before
// the item was acquired.
func holdTime(facts []saleFact) HoldTime {
	var days []decimal.Decimal
	for _, fact := range facts {
		if fact.acquired == nil || fact.sale.SoldAt.Before(*fact.acquired) {
			continue
		}
		hours := decimal.NewFromFloat(fact.sale.SoldAt.Sub(*fact.acquired).Hours())
		days = append(days, hours.Div(hoursPerDay).Round(1))
	}
	return HoldTime{
		Samples:    len(days),
		AvgDays:    mean(days).Round(1),
		MedianDays: median(days),
	}
}

func buildBuckets(facts []saleFact, minSample int) Buckets {
	type acc struct {
		revenue decimal.Decimal
		profits []decimal.Decimal
		rois    []decimal.Decimal
	}
	accs := make([]acc, len(priceRanges))
	for i := range accs {
		accs[i].revenue = decimal.Zero
	}
	for _, fact := range facts {
		a := &accs[rangeIndex(fact.sale.SoldPrice)]
		a.revenue = a.revenue.Add(fact.sale.SoldPrice)
		a.profits = append(a.profits, fact.profit)
		if !fact.cost.IsZero() {
			a.rois = append(a.rois, fact.profit.Div(fact.cost).Mul(hundred))
		}
	}

	all := []Bucket{}
	for i, r := range priceRanges {
		a := accs[i]
		if len(a.profits) == 0 || len(a.profits) < minSample {
			continue
		}
		b := Bucket{
			Label:        r.label,
			Min:          r.min,
			Max:          r.max,
			SampleSize:   len(a.profits),
			GrossRevenue: a.revenue,
			NetProfit:    sum(a.profits),
			AvgProfit:    mean(a.profits).Round(2),
			MedianProfit: median(a.profits),
		}
		if len(a.rois) > 0 {
			roi := mean(a.rois).Round(2)
			b.AvgROI = &roi
		}
		all = append(all, b)
	}

	byProfit := slices.Clone(all)
	slices.SortStableFunc(byProfit, func(a, b Bucket) int { return b.NetProfit.Cmp(a.NetProfit) })
	top := slices.Clone(head(byProfit, rankedBuckets))
	slices.Reverse(byProfit)
	bottom := head(byProfit, rankedBuckets)
	return Buckets{All: all, Top: top, Bottom: bottom}
}

// breakdown groups sessions by key, dropping groups with fewer than
// minSessions sessions. Groups are ordered by net profit, then key.
func breakdown(stats []*sessionStat, include bool, minSessions int, withSellThrough bool, key func(models.Session) string) []Breakdown {
	type group struct {
		members []*sessionStat
	}
	groups := map[string]*group{}
	for _, st := range stats {
		k := key(st.session)
		if groups[k] == nil {
			groups[k] = &group{}
		}
		groups[k].members = append(groups[k].members, st)
	}

	out := []Breakdown{}
	for k, g := range groups {
		if len(g.members) < minSessions {
			continue
		}
		b := Breakdown{
			Key:          k,
			Sessions:     len(g.members),
			GrossRevenue: decimal.Zero,
			Expenses:     decimal.Zero,
			NetProfit:    decimal.Zero,
		}
		var rates []decimal.Decimal
		for _, st := range g.members {
			b.ItemsSold += st.sold
			b.GrossRevenue = b.GrossRevenue.Add(st.revenue)
			b.Expenses = b.Expenses.Add(st.counted(include))
			b.NetProfit = b.NetProfit.Add(st.profit(include))
			if st.itemsRun > 0 {
				rates = append(rates, percent(decimal.NewFromInt(int64(st.sold)), decimal.NewFromInt(int64(st.itemsRun))))
			}
		}
		b.AvgSessionProfit = b.NetProfit.Div(decimal.NewFromInt(int64(b.Sessions))).Round(2)
		if withSellThrough {
			rate := mean(rates).Round(2)
			b.AvgSellThrough = &rate
		}
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b Breakdown) int {
		if c := b.NetProfit.Cmp(a.NetProfit); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}

func buildLeaks(include bool, buckets []Bucket, stats []*sessionStat) Leaks {
	leaks := Leaks{NegativeBuckets: []Bucket{}, FeeBurden: []Burden{}, ExpenseBurden: []Burden{}}
	for _, b := range buckets {
		if b.MedianProfit.IsNegative() {
			leaks.NegativeBuckets = append(leaks.NegativeBuckets, b)
		}
	}
	for _, st := range stats {
		if !st.revenue.IsPositive() {
			continue
		}
		fees := st.fees.Add(st.taxes)
		leaks.FeeBurden = append(leaks.FeeBurden, burden(st, fees))
		if include {
			leaks.ExpenseBurden = append(leaks.ExpenseBurden, burden(st, st.expenses))
		}
	}
	leaks.FeeBurden = topBurdens(leaks.FeeBurden)
	leaks.ExpenseBurden = topBurdens(leaks.ExpenseBurden)
	return leaks
}

func burden(st *sessionStat, amount decimal.Decimal) Burden {
	return Burden{
		SessionID: st.session.ID,
		Title:     st.session.Title,
		Revenue:   st.revenue,
		Amount:    amount,
		Percent:   percent(amount, st.revenue),
	}
}

func topBurdens(list []Burden) []Burden {
	slices.SortStableFunc(list, func(a, b Burden) int { return b.Percent.Cmp(a.Percent) })
	return head(list, burdenLimit)
}

func leaderboard(facts []saleFact, minSales int) []LeaderboardEntry {
	type group struct {
		revenue decimal.Decimal
		profits []decimal.Decimal
	}
	groups := map[string]*group{}
	for _, fact := range facts {
		if fact.label == "" {
			continue
		}
		g := groups[fact.label]
		if g == nil {
			g = &group{revenue: decimal.Zero}
			groups[fact.label] = g
		}
		g.revenue = g.revenue.Add(fact.sale.SoldPrice)
		g.profits = append(g.profits, fact.profit)
	}

	out := []LeaderboardEntry{}
	for label, g := range groups {
		if len(g.profits) < minSales {
			continue
		}
		out = append(out, LeaderboardEntry{
			Label:        label,
			Sales:        len(g.profits),
			GrossRevenue: g.revenue,
			TotalProfit:  sum(g.profits),
			AvgProfit:    mean(g.profits).Round(2),
			MedianProfit: median(g.profits),
		})
	}
	slices.SortFunc(out, func(a, b LeaderboardEntry) int {
		if c := b.TotalProfit.Cmp(a.TotalProfit); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return head(out, leaderboardLimit)
}

func recommend(f Filter, p Profile, b Buckets, showTypes []Breakdown) []string {
	out := []string{}
	if len(b.Top) > 0 {
		best := b.Top[0]
		out = append(out, fmt.Sprintf("Your %s items earn the most: $%s net profit across %d sales.",
			best.Label, best.NetProfit.StringFixed(2), best.SampleSize))
	}
	if len(b.Bottom) > 0 && b.Bottom[0].MedianProfit.IsNegative() {
		worst := b.Bottom[0]
		out = append(out, fmt.Sprintf("Items in the %s range lose $%s at the median. Raise starting prices or leave them off the run.",
			worst.Label, worst.MedianProfit.Neg().StringFixed(2)))
	}
	if len(showTypes) >= 2 {
		best := showTypes[0]
		for _, st := range showTypes[1:] {
			if st.AvgSessionProfit.GreaterThan(best.AvgSessionProfit) {
				best = st
			}
		}
		out = append(out, fmt.Sprintf("%s shows perform best at $%s average profit per session.",
			strings.ReplaceAll(best.Key, "_", " "), best.AvgSessionProfit.StringFixed(2)))
	}
	if p.ItemsRun > 0 && p.SellThroughRate.LessThan(sellThroughMin) {
		out = append(out, fmt.Sprintf("Sell-through is %s%%. Shorter run lists or lower starting prices may move more items.",
			p.SellThroughRate.StringFixed(1)))
	}
	if f.IncludeExpenses && p.GrossRevenue.IsPositive() && p.Expenses.GreaterThan(p.GrossRevenue.Mul(expenseMax).Div(hundred)) {
		out = append(out, fmt.Sprintf("Expenses are %s%% of gross revenue. Review supplies, shipping and show fees.",
			percent(p.Expenses, p.GrossRevenue).StringFixed(1)))
	}
	return out
}

// percent is part/whole × 100 rounded to cents, or zero when whole is zero.
func percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}

func sum(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

func mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return sum(values).Div(decimal.NewFromInt(int64(len(values))))
}

// median is the element at floor(n/2) of the sorted values; for even n that
// is the upper middle value.
func median(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sorted := slices.Clone(values)
	slices.SortFunc(sorted, func(a, b decimal.Decimal) int { return a.Cmp(b) })
	return sorted[len(sorted)/2]
}

func head[T any](list []T, n int) []T {
	if len(list) > n {
		return list[:n]
	}
	return list
}
