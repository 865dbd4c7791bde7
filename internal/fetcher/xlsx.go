package fetcher

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ReadWorkbook returns the rows of one sheet of an in-memory workbook with
// trimmed cell text. An empty sheet name selects the first sheet with any
// non-blank cell, so a leading cover sheet is skipped.
func ReadWorkbook(data []byte, sheet string) ([][]string, error) {
	wb, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open workbook")
	}

	var sh *xlsx.Sheet
	if sheet != "" {
		var ok bool
		if sh, ok = wb.Sheet[sheet]; !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", sheet)
		}
	} else {
		for _, s := range wb.Sheets {
			if hasContent(s) {
				sh = s
				break
			}
		}
		if sh == nil {
			return nil, eris.New("xlsx: workbook has no rows")
		}
	}

	rows := make([][]string, 0, len(sh.Rows))
	for _, r := range sh.Rows {
		cells := make([]string, len(r.Cells))
		for i, c := range r.Cells {
			cells[i] = strings.TrimSpace(c.String())
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func hasContent(s *xlsx.Sheet) bool {
	for _, r := range s.Rows {
		for _, c := range r.Cells {
			if strings.TrimSpace(c.String()) != "" {
				return true
			}
		}
	}
	return false
}
