// Package csvimport turns sales exports into header/row tables and infers
// which column carries which value.
package csvimport

import (
	"bytes"
	"strings"

	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
)

// Table is a parsed export: one header line followed by data rows.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

const defaultDelimiter = ','

var xlsxMagic = []byte("PK\x03\x04")

// Load parses an export, reading it as XLSX when it carries the zip signature
// and as delimited text otherwise.
func Load(data []byte) (*Table, error) {
	if bytes.HasPrefix(data, xlsxMagic) {
		return ReadXLSX(bytes.NewReader(data))
	}
	return Parse(string(data))
}

// Parse splits comma-delimited text into a Table. A double quote toggles
// quoted mode, in which delimiters and newlines are literal; a doubled quote
// inside quoted mode is a literal quote. Blank lines are skipped.
func Parse(text string) (*Table, error) {
	return ParseDelimited(text, defaultDelimiter)
}

// ParseDelimited is Parse with a caller-chosen delimiter.
func ParseDelimited(text string, delim rune) (*Table, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	records := splitRecords(text, delim)
	if len(records) < 2 {
		return nil, pkgerrors.New(pkgerrors.CodeParse, "export needs a header line and at least one data line").
			WithDetails(map[string]any{"lines": len(records)})
	}

	headers := records[0]
	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, padRow(rec, len(headers)))
	}
	return &Table{Headers: headers, Rows: rows}, nil
}

func splitRecords(text string, delim rune) [][]string {
	var (
		records  [][]string
		record   []string
		field    strings.Builder
		inQuotes bool
	)
	runes := []rune(text)

	flushField := func() {
		record = append(record, strings.TrimSpace(field.String()))
		field.Reset()
	}
	flushRecord := func() {
		flushField()
		if !blankRecord(record) {
			records = append(records, record)
		}
		record = nil
	}

	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				field.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case ch == delim && !inQuotes:
			flushField()
		case (ch == '\n' || ch == '\r') && !inQuotes:
			if ch == '\r' && i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			flushRecord()
		default:
			field.WriteRune(ch)
		}
	}
	if field.Len() > 0 || len(record) > 0 {
		flushRecord()
	}
	return records
}

func blankRecord(record []string) bool {
	for _, f := range record {
		if f != "" {
			return false
		}
	}
	return true
}

// padRow makes every row at least as wide as the header so role lookups never
// index past the end.
func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}

// Cell returns the trimmed value at column, or "" when the column is absent.
func Cell(row []string, column int) string {
	if column < 0 || column >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[column])
}
