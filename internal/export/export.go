// Package export renders revenue reports as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"arcade-inventory-backend/internal/store"
)

const (
	SheetMonthly     = "Monthly"
	SheetTopMachines = "Top Machines"
	SheetLocations   = "Locations"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Report is one year of revenue.
type Report struct {
	Year      int
	Monthly   []store.MonthTotal
	Machines  []store.MachineTotal
	Locations []store.LocationTotal
}

// FileName is the attachment name for the report.
func (r Report) FileName() string {
	return fmt.Sprintf("revenue-%d.xlsx", r.Year)
}

// WriteXLSX writes the report as a workbook with one sheet per table.
func WriteXLSX(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetMonthly); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetTopMachines); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetLocations); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return err
	}

	monthly := [][]any{{"Month", "Revenue", "FCA", "Location Share"}}
	total := store.MonthTotal{Revenue: decimal.Zero, FCA: decimal.Zero, LocationShare: decimal.Zero}
	for _, m := range r.Monthly {
		monthly = append(monthly, []any{m.Month.String(), money2(m.Revenue), money2(m.FCA), money2(m.LocationShare)})
		total.Revenue = total.Revenue.Add(m.Revenue)
		total.FCA = total.FCA.Add(m.FCA)
		total.LocationShare = total.LocationShare.Add(m.LocationShare)
	}
	monthly = append(monthly, []any{"Total", money2(total.Revenue), money2(total.FCA), money2(total.LocationShare)})
	if err := writeRows(f, SheetMonthly, monthly, bold, money, 'B'); err != nil {
		return err
	}

	machines := [][]any{{"Machine", "Revenue", "FCA", "Location Share"}}
	for _, m := range r.Machines {
		machines = append(machines, []any{m.Name, money2(m.Revenue), money2(m.FCA), money2(m.LocationShare)})
	}
	if err := writeRows(f, SheetTopMachines, machines, bold, money, 'B'); err != nil {
		return err
	}

	locations := [][]any{{"Location", "Machines", "Revenue", "FCA", "Location Share", "Average"}}
	for _, l := range r.Locations {
		locations = append(locations, []any{l.Name, l.MachineCount, money2(l.Revenue), money2(l.FCA), money2(l.LocationShare), money2(l.Average)})
	}
	if err := writeRows(f, SheetLocations, locations, bold, money, 'C'); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// writeRows writes rows from A1 down; the first row is the header and money
// columns start at firstMoneyCol.
func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle, moneyStyle int, firstMoneyCol rune) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}

	width := len(rows[0])
	last, err := excelize.CoordinatesToCellName(width, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}
	if len(rows) > 1 {
		lastCol, _ := excelize.ColumnNumberToName(width)
		from := fmt.Sprintf("%c2", firstMoneyCol)
		to := fmt.Sprintf("%s%d", lastCol, len(rows))
		if err := f.SetCellStyle(sheet, from, to, moneyStyle); err != nil {
			return err
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(width)
	return f.SetColWidth(sheet, "A", lastCol, 16)
}

func money2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
