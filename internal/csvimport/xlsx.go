package csvimport

import (
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
)

// ReadXLSX reads the first sheet of a workbook into a Table.
func ReadXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeParse, err, "open workbook")
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeParse, "workbook has no sheets")
	}
	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeParse, err, "read sheet")
	}

	var records [][]string
	for _, row := range raw {
		cleaned := make([]string, len(row))
		for i, cell := range row {
			cleaned[i] = strings.TrimSpace(cell)
		}
		if !blankRecord(cleaned) {
			records = append(records, cleaned)
		}
	}
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
