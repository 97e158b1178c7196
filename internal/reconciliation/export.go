package reconciliation

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var previewColumns = []string{
	"row", "status", "needs_review", "errors", "item_number", "item_name",
	"sold_price", "fees", "taxes", "shipping", "cost_basis", "net_profit", "buyer", "channel", "warnings",
}

func previewRecord(r RowResult) []string {
	rec := make([]string, len(previewColumns))
	rec[0] = strconv.Itoa(r.Row)
	rec[1] = r.Status.String()
	rec[2] = strconv.FormatBool(r.NeedsReview)
	rec[3] = strings.Join(r.Errors, ";")
	if r.Fields.ItemNumber != nil {
		rec[4] = strconv.Itoa(*r.Fields.ItemNumber)
	}
	if r.Item != nil {
		rec[5] = r.Item.Name
	}
	if r.Fields.SoldPrice != nil {
		rec[6] = r.Fields.SoldPrice.StringFixed(2)
	}
	if p := r.Proposed; p != nil {
		rec[7] = p.Fees.StringFixed(2)
		rec[8] = p.Taxes.StringFixed(2)
		rec[9] = p.Shipping.StringFixed(2)
		rec[10] = p.CostBasis.StringFixed(2)
		rec[11] = p.NetProfit.StringFixed(2)
	}
	rec[12] = r.Fields.Buyer
	rec[13] = r.Fields.Channel.String()
	rec[14] = strings.Join(r.Warnings, ";")
	return rec
}

// WritePreviewCSV writes one line per row with its classification and
// proposed sale figures.
func WritePreviewCSV(w io.Writer, res *Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(previewColumns); err != nil {
		return err
	}
	for _, r := range res.Rows {
		if err := cw.Write(previewRecord(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePreviewXLSX writes the preview as a workbook with a rows sheet and a
// summary sheet.
func WritePreviewXLSX(w io.Writer, res *Result) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const rowsSheet, summarySheet = "Preview", "Summary"
	if err := f.SetSheetName(f.GetSheetName(0), rowsSheet); err != nil {
		return err
	}
	if err := writeSheetRow(f, rowsSheet, 1, previewColumns); err != nil {
		return err
	}
	for i, r := range res.Rows {
		if err := writeSheetRow(f, rowsSheet, i+2, previewRecord(r)); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	s := res.Summary
	summary := [][]string{
		{"total_rows", strconv.Itoa(s.TotalRows)},
		{"matched", strconv.Itoa(s.Matched)},
		{"unmatched", strconv.Itoa(s.Unmatched)},
		{"invalid", strconv.Itoa(s.Invalid)},
		{"excluded", strconv.Itoa(s.Excluded)},
		{"needs_review", strconv.Itoa(s.NeedsReview)},
		{"mode_used", s.ModeUsed.String()},
		{"start_number", strconv.Itoa(s.StartNumber)},
		{"exclude", strings.Join(s.Exclude, ",")},
		{"include", strings.Join(s.Include, ",")},
	}
	for i, line := range summary {
		if err := writeSheetRow(f, summarySheet, i+1, line); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func writeSheetRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return f.SetSheetRow(sheet, cell, &out)
}
