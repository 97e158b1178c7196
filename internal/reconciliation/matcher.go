// Package reconciliation matches a sales export against a session run list
// and commits approved matches as sales.
package reconciliation

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/showrunner-backend/internal/csvimport"
	"github.com/angelmondragon/showrunner-backend/internal/fees"
	"github.com/angelmondragon/showrunner-backend/pkg/db/models"
	"github.com/angelmondragon/showrunner-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
)

// Row error codes.
const (
	ReasonItemNumberMissing   = "item_number_missing"
	ReasonItemNotInRun        = "item_number_not_in_run"
	ReasonItemNumberAmbiguous = "item_number_ambiguous"
	ReasonDuplicateItemNumber = "duplicate_item_number"
	ReasonItemNotActive       = "item_not_active"
	ReasonPriceMissing        = "sold_price_missing"
	ReasonPriceInvalid        = "sold_price_invalid"
	ReasonPriceNotPositive    = "sold_price_not_positive"
	ReasonFeesInvalid         = "fees_invalid"
	ReasonTaxesInvalid        = "taxes_invalid"
	ReasonShippingInvalid     = "shipping_invalid"
	ReasonExcludedKeyword     = "excluded_keyword"
	ReasonNotIncluded         = "include_keyword_missing"
)

// DefaultAutoThreshold is the share of rows that must carry a parsable item
// number for auto mode to match by item number.
const DefaultAutoThreshold = 0.8

// RunItem is one numbered entry of a session run list.
type RunItem struct {
	SessionItemID uuid.UUID             `json:"sessionItemId"`
	ItemID        uuid.UUID             `json:"itemId"`
	ItemNumber    int                   `json:"itemNumber"`
	Name          string                `json:"name"`
	CostBasis     decimal.Decimal       `json:"costBasis"`
	Lifecycle     enums.LifecycleStatus `json:"lifecycle"`
}

// RunItemsFrom flattens session items with their preloaded inventory items.
func RunItemsFrom(items []models.SessionItem) []RunItem {
	out := make([]RunItem, 0, len(items))
	for _, si := range items {
		out = append(out, RunItem{
			SessionItemID: si.ID,
			ItemID:        si.ItemID,
			ItemNumber:    si.ItemNumber,
			Name:          si.Item.Name,
			CostBasis:     si.Item.CostBasis,
			Lifecycle:     si.Item.Lifecycle,
		})
	}
	return out
}

// Options tune a match run.
type Options struct {
	Mode          enums.MatchMode
	StartNumber   int
	AutoThreshold float64
	Exclude       []string
	Include       []string
	// Channel is used for rows without a channel column value.
	Channel enums.Platform
	// Schedules are the resolved fee schedules per channel. Channels missing
	// here use the built-in defaults.
	Schedules map[enums.Platform]fees.Schedule
	// FeeRate is the session flat rate, used when a channel's schedule is all zero.
	FeeRate decimal.Decimal
	// SoldAt stamps rows without a parsable placed_at.
	SoldAt time.Time
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = enums.MatchModeAuto
	}
	if o.StartNumber <= 0 {
		o.StartNumber = 1
	}
	if o.AutoThreshold <= 0 || o.AutoThreshold > 1 {
		o.AutoThreshold = DefaultAutoThreshold
	}
	if o.Channel == "" {
		o.Channel = enums.PlatformOther
	}
	return o
}

// Fields are the values parsed out of one export row.
type Fields struct {
	ItemNumber   *int             `json:"itemNumber,omitempty"`
	SoldPrice    *decimal.Decimal `json:"soldPrice,omitempty"`
	Fees         decimal.Decimal  `json:"fees"`
	FeesProvided bool             `json:"feesProvided"`
	Taxes        decimal.Decimal  `json:"taxes"`
	Shipping     decimal.Decimal  `json:"shipping"`
	Buyer        string           `json:"buyer,omitempty"`
	Channel      enums.Platform   `json:"channel"`
	Title        string           `json:"title,omitempty"`
	PlacedAt     *time.Time       `json:"placedAt,omitempty"`
}

// ProposedSale is what applying a matched row would record.
type ProposedSale struct {
	ItemID        uuid.UUID       `json:"itemId"`
	SessionItemID uuid.UUID       `json:"sessionItemId"`
	Channel       enums.Platform  `json:"channel"`
	SoldPrice     decimal.Decimal `json:"soldPrice"`
	Fees          decimal.Decimal `json:"fees"`
	FeeBreakdown  *fees.Breakdown `json:"feeBreakdown,omitempty"`
	Taxes         decimal.Decimal `json:"taxes"`
	Shipping      decimal.Decimal `json:"shipping"`
	CostBasis     decimal.Decimal `json:"costBasis"`
	NetProfit     decimal.Decimal `json:"netProfit"`
	Buyer         *string         `json:"buyer,omitempty"`
	SoldAt        time.Time       `json:"soldAt"`
}

// Sale builds the record to persist.
func (p ProposedSale) Sale(userID, sessionID uuid.UUID) models.Sale {
	sid := sessionID
	return models.Sale{
		UserID:    userID,
		ItemID:    p.ItemID,
		SessionID: &sid,
		Channel:   p.Channel,
		SoldPrice: p.SoldPrice,
		Fees:      p.Fees,
		Taxes:     p.Taxes,
		Shipping:  p.Shipping,
		Buyer:     p.Buyer,
		SoldAt:    p.SoldAt,
	}
}

// RowResult is the outcome for one data row. Row is 1-based, header excluded.
type RowResult struct {
	Row         int               `json:"row"`
	Status      enums.MatchStatus `json:"status"`
	NeedsReview bool              `json:"needsReview"`
	Errors      []string          `json:"errors,omitempty"`
	Warnings    []string          `json:"warnings,omitempty"`
	Item        *RunItem          `json:"item,omitempty"`
	Fields      Fields            `json:"fields"`
	Proposed    *ProposedSale     `json:"proposed,omitempty"`
	Raw         []string          `json:"raw"`
}

// Summary counts rows per classification.
type Summary struct {
	TotalRows   int             `json:"totalRows"`
	Matched     int             `json:"matched"`
	Unmatched   int             `json:"unmatched"`
	Invalid     int             `json:"invalid"`
	Excluded    int             `json:"excluded"`
	NeedsReview int             `json:"needsReview"`
	ModeUsed    enums.MatchMode `json:"modeUsed"`
	StartNumber int             `json:"startNumber"`
	Exclude     []string        `json:"exclude"`
	Include     []string        `json:"include"`
}

// Result is the full match output.
type Result struct {
	Rows    []RowResult `json:"rows"`
	Summary Summary     `json:"summary"`
}

// Matched returns the rows classified as matched, in row order.
func (r Result) Matched() []RowResult {
	var out []RowResult
	for _, row := range r.Rows {
		if row.Status == enums.MatchStatusMatched {
			out = append(out, row)
		}
	}
	return out
}

// Match classifies every row of table against items. It has no side effects
// and returns the same result for the same input.
func Match(table *csvimport.Table, mapping csvimport.Mapping, items []RunItem, opts Options) (*Result, error) {
	if table == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no rows to match")
	}
	opts = opts.withDefaults()
	if !opts.Mode.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown match mode %q", opts.Mode)
	}

	var required []csvimport.Role
	if opts.Mode != enums.MatchModeSequence {
		required = append(required, csvimport.RoleItemNumber)
	}
	required = append(required, csvimport.RoleSoldPrice)
	if err := mapping.ValidateRoles(table.Headers, required...); err != nil {
		return nil, err
	}

	exclude := normalizeKeywords(opts.Exclude)
	include := normalizeKeywords(opts.Include)

	rows := make([]RowResult, len(table.Rows))
	fieldErrs := make([][]string, len(table.Rows))
	for i, raw := range table.Rows {
		fields, errs, warns := parseFields(raw, mapping, opts)
		rows[i] = RowResult{Row: i + 1, Raw: raw, Fields: fields, Warnings: warns}
		fieldErrs[i] = errs
		if reason, hit := keywordFilter(rows[i].Fields.Title, exclude, include); hit {
			rows[i].Status = enums.MatchStatusExcluded
			rows[i].Errors = []string{reason}
		}
	}

	mode := resolveMode(opts, rows)
	if mode == enums.MatchModeSequence {
		assignSequence(rows, opts.StartNumber)
	}

	byNumber := make(map[int][]RunItem, len(items))
	for _, it := range items {
		byNumber[it.ItemNumber] = append(byNumber[it.ItemNumber], it)
	}
	for i := range rows {
		if rows[i].Status == enums.MatchStatusExcluded {
			continue
		}
		classify(&rows[i], byNumber, fieldErrs[i])
	}
	flagDuplicates(rows)

	for i := range rows {
		row := &rows[i]
		row.NeedsReview = row.Status == enums.MatchStatusUnmatched || row.Status == enums.MatchStatusInvalid
		if row.Status == enums.MatchStatusMatched {
			p := propose(*row, opts)
			row.Proposed = &p
		}
	}

	return &Result{Rows: rows, Summary: summarize(rows, mode, opts, exclude, include)}, nil
}

// parseFields extracts typed values. Sold price problems are returned as
// errors and decide the row status. Unusable fee, tax or shipping cells count
// as 0 and are only reported as warnings.
func parseFields(raw []string, m csvimport.Mapping, opts Options) (Fields, []string, []string) {
	cell := func(role csvimport.Role) (string, bool) {
		idx, ok := m.Column(role)
		if !ok {
			return "", false
		}
		return csvimport.Cell(raw, idx), true
	}

	f := Fields{Channel: opts.Channel}
	var errs, warns []string
	// money reports whether the cell was present and non-empty.
	money := func(role csvimport.Role, reason string) (decimal.Decimal, bool) {
		v, ok := cell(role)
		if !ok {
			return decimal.Zero, false
		}
		d, state := ParseMoney(v)
		switch {
		case state == moneyEmpty:
			return decimal.Zero, false
		case state == moneyInvalid, d.IsNegative():
			warns = append(warns, reason)
			return decimal.Zero, true
		}
		return d, true
	}

	if v, ok := cell(csvimport.RoleItemNumber); ok {
		if n, ok := ExtractItemNumber(v); ok {
			f.ItemNumber = &n
		}
	}
	if v, ok := cell(csvimport.RoleSoldPrice); ok {
		d, state := ParseMoney(v)
		switch {
		case state == moneyEmpty:
			errs = append(errs, ReasonPriceMissing)
		case state == moneyInvalid:
			errs = append(errs, ReasonPriceInvalid)
		case !d.IsPositive():
			errs = append(errs, ReasonPriceNotPositive)
		default:
			f.SoldPrice = &d
		}
	} else {
		errs = append(errs, ReasonPriceMissing)
	}
	f.Fees, f.FeesProvided = money(csvimport.RoleFees, ReasonFeesInvalid)
	f.Taxes, _ = money(csvimport.RoleTaxes, ReasonTaxesInvalid)
	f.Shipping, _ = money(csvimport.RoleShipping, ReasonShippingInvalid)
	if v, ok := cell(csvimport.RoleBuyer); ok {
		f.Buyer = v
	}
	if v, ok := cell(csvimport.RoleChannel); ok && v != "" {
		f.Channel = enums.NormalizePlatform(v)
	}
	if v, ok := cell(csvimport.RoleTitle); ok {
		f.Title = v
	}
	if v, ok := cell(csvimport.RolePlacedAt); ok {
		if t, ok := ParsePlacedAt(v); ok {
			f.PlacedAt = &t
		}
	}
	return f, errs, warns
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, kw := range in {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// keywordFilter applies exclude first, then include. An empty include list
// admits every title.
func keywordFilter(title string, exclude, include []string) (string, bool) {
	t := strings.ToLower(title)
	for _, kw := range exclude {
		if strings.Contains(t, kw) {
			return ReasonExcludedKeyword, true
		}
	}
	if len(include) == 0 {
		return "", false
	}
	for _, kw := range include {
		if strings.Contains(t, kw) {
			return "", false
		}
	}
	return ReasonNotIncluded, true
}

func resolveMode(opts Options, rows []RowResult) enums.MatchMode {
	switch opts.Mode {
	case enums.MatchModeItemNumber, enums.MatchModeSequence:
		return opts.Mode
	case enums.MatchModeAuto:
		if len(rows) == 0 {
			return enums.MatchModeItemNumber
		}
		parsed := 0
		for _, r := range rows {
			if r.Fields.ItemNumber != nil {
				parsed++
			}
		}
		if float64(parsed)/float64(len(rows)) >= opts.AutoThreshold {
			return enums.MatchModeItemNumber
		}
		return enums.MatchModeSequence
	default:
		return enums.MatchModeItemNumber
	}
}

// assignSequence numbers non-excluded rows from start in placed_at order.
// Rows without a timestamp keep file order after the timestamped ones.
func assignSequence(rows []RowResult, start int) {
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ta, tb := rows[order[a]].Fields.PlacedAt, rows[order[b]].Fields.PlacedAt
		switch {
		case ta == nil:
			return false
		case tb == nil:
			return true
		default:
			return ta.Before(*tb)
		}
	})

	next := start
	for _, idx := range order {
		if rows[idx].Status == enums.MatchStatusExcluded {
			continue
		}
		n := next
		rows[idx].Fields.ItemNumber = &n
		next++
	}
}

// classify resolves the row's item number. Lookup failures make the row
// unmatched; value problems on a resolved row make it invalid.
func classify(row *RowResult, byNumber map[int][]RunItem, fieldErrs []string) {
	f := row.Fields
	var matchErrs []string
	priceErrs := append([]string(nil), fieldErrs...)

	var resolved *RunItem
	switch {
	case f.ItemNumber == nil:
		matchErrs = append(matchErrs, ReasonItemNumberMissing)
	default:
		candidates := byNumber[*f.ItemNumber]
		switch len(candidates) {
		case 0:
			matchErrs = append(matchErrs, ReasonItemNotInRun)
		case 1:
			it := candidates[0]
			resolved = &it
		default:
			matchErrs = append(matchErrs, ReasonItemNumberAmbiguous)
		}
	}

	if resolved != nil && resolved.Lifecycle != enums.LifecycleStatusActive {
		priceErrs = append(priceErrs, ReasonItemNotActive)
	}

	row.Item = resolved
	row.Errors = append(matchErrs, priceErrs...)
	switch {
	case len(matchErrs) > 0:
		row.Status = enums.MatchStatusUnmatched
	case len(priceErrs) > 0:
		row.Status = enums.MatchStatusInvalid
	default:
		row.Status = enums.MatchStatusMatched
	}
}

// flagDuplicates marks every row sharing a resolved item with another row.
func flagDuplicates(rows []RowResult) {
	seen := map[uuid.UUID][]int{}
	for i, r := range rows {
		if r.Item != nil && r.Status != enums.MatchStatusExcluded {
			seen[r.Item.SessionItemID] = append(seen[r.Item.SessionItemID], i)
		}
	}
	for _, idxs := range seen {
		if len(idxs) < 2 {
			continue
		}
		for _, i := range idxs {
			rows[i].Errors = append(rows[i].Errors, ReasonDuplicateItemNumber)
			if rows[i].Status == enums.MatchStatusMatched {
				rows[i].Status = enums.MatchStatusInvalid
			}
		}
	}
}

func propose(row RowResult, opts Options) ProposedSale {
	f := row.Fields
	price := *f.SoldPrice

	p := ProposedSale{
		ItemID:        row.Item.ItemID,
		SessionItemID: row.Item.SessionItemID,
		Channel:       f.Channel,
		SoldPrice:     price.Round(2),
		Taxes:         f.Taxes.Round(2),
		Shipping:      f.Shipping.Round(2),
		CostBasis:     row.Item.CostBasis,
		SoldAt:        opts.SoldAt,
	}
	if f.PlacedAt != nil {
		p.SoldAt = *f.PlacedAt
	}
	if f.Buyer != "" {
		buyer := f.Buyer
		p.Buyer = &buyer
	}

	var breakdown fees.Breakdown
	if f.FeesProvided {
		breakdown = fees.Calculate(price, fees.Schedule{}, &f.Fees)
	} else {
		breakdown = fees.Calculate(price, opts.scheduleFor(f.Channel), nil)
	}
	p.Fees = breakdown.TotalFees
	p.FeeBreakdown = &breakdown

	p.NetProfit = p.Sale(uuid.Nil, uuid.Nil).NetProfit(p.CostBasis)
	return p
}

// scheduleFor resolves the channel schedule, falling back to the session flat
// rate when the channel charges nothing.
func (o Options) scheduleFor(channel enums.Platform) fees.Schedule {
	s, ok := o.Schedules[channel]
	if !ok {
		s = fees.ScheduleFor(channel)
	}
	if s.IsZero() {
		return fees.FlatRate(o.FeeRate)
	}
	return s
}

func summarize(rows []RowResult, mode enums.MatchMode, opts Options, exclude, include []string) Summary {
	s := Summary{
		TotalRows:   len(rows),
		ModeUsed:    mode,
		StartNumber: opts.StartNumber,
		Exclude:     exclude,
		Include:     include,
	}
	for _, r := range rows {
		switch r.Status {
		case enums.MatchStatusMatched:
			s.Matched++
		case enums.MatchStatusUnmatched:
			s.Unmatched++
		case enums.MatchStatusInvalid:
			s.Invalid++
		case enums.MatchStatusExcluded:
			s.Excluded++
		}
		if r.NeedsReview {
			s.NeedsReview++
		}
	}
	return s
}
