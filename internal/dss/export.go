package dss

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

var exportHeader = []string{
	"Claim ID", "Patta-Holder Name", "Father/Husband Name", "Age", "Gender",
	"Village", "Block", "District", "State", "Total Area Claimed",
	"Land Use", "Coordinates", "Status", "Created At",
}

// ExportXLSX writes the eligible claims of a successful outcome as a
// workbook with one sheet named after the scheme.
func ExportXLSX(out Outcome, w io.Writer) error {
	if !out.OK() {
		return eris.Errorf("dss: cannot export failed check: %s", out.Message)
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName(out.Scheme))
	if err != nil {
		return eris.Wrap(err, "dss: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range exportHeader {
		header.AddCell().SetString(h)
	}

	for _, c := range out.Results {
		row := sheet.AddRow()
		for _, v := range []string{
			c.ClaimID, c.HolderName, c.FatherOrHusbandName, c.Age, c.Gender,
			c.Village, c.Block, c.District, c.State, c.TotalAreaClaimed,
			c.LandUse, c.Coordinates, string(c.Status), c.CreatedAt.Format("2006-01-02 15:04:05"),
		} {
			row.AddCell().SetString(v)
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "dss: write workbook")
	}
	return nil
}

// sheetName trims a scheme name to Excel's 31-character sheet limit and
// drops characters Excel rejects.
func sheetName(scheme string) string {
	out := make([]rune, 0, len(scheme))
	for _, r := range scheme {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			continue
		}
		out = append(out, r)
		if len(out) == 31 {
			break
		}
	}
	if len(out) == 0 {
		return "Eligible"
	}
	return string(out)
}
