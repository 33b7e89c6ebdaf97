// Package export produces the contacts spreadsheet download.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/payland/gateway/internal/view"
)

const sheetName = "Contacts"

// columns is the fixed export column set, in order.
var columns = []struct {
	Header string
	Value  func(view.ContactRow) string
}{
	{"First Name", func(r view.ContactRow) string { return r.FirstName }},
	{"Last Name", func(r view.ContactRow) string { return r.LastName }},
	{"Email", func(r view.ContactRow) string { return r.Email }},
	{"Phone", func(r view.ContactRow) string { return r.Phone }},
	{"Country", func(r view.ContactRow) string { return r.Country }},
	{"Job Title", func(r view.ContactRow) string { return r.JobTitle }},
	{"Website", func(r view.ContactRow) string { return r.Website }},
	{"Business Type", func(r view.ContactRow) string { return r.BusinessType }},
	{"Company Size", func(r view.ContactRow) string { return r.CompanySize }},
	{"Country HQ", func(r view.ContactRow) string { return r.CountryHQ }},
	{"Interested In", func(r view.ContactRow) string { return r.InterestedIn }},
	{"Geographies Targeting", func(r view.ContactRow) string { return r.GeographiesTargeting }},
	{"How Heard About Us", func(r view.ContactRow) string { return r.HearAboutUs }},
	{"Created Date", func(r view.ContactRow) string { return r.CreatedAt }},
}

// Filename returns the dated download name, e.g. PayLand_Contacts_2026-08-28.xlsx.
func Filename(now time.Time) string {
	return fmt.Sprintf("PayLand_Contacts_%s.xlsx", now.Format("2006-01-02"))
}

// WriteContacts writes the rows as an .xlsx workbook with a single Contacts
// sheet and the fixed column set.
func WriteContacts(w io.Writer, rows []view.ContactRow) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	for col, c := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellStr(sheetName, cell, c.Header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}

		// Columns sized to the header, never narrower than 15 characters.
		width := float64(len(c.Header))
		if width < 15 {
			width = 15
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(sheetName, name, name, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	for i, row := range rows {
		for col, c := range columns {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellStr(sheetName, cell, c.Value(row)); err != nil {
				return fmt.Errorf("write row %d: %w", i, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
