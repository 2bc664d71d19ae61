// Package export renders payroll ledgers as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/warp/payroll-engine/payroll"
)

// ContentType is the MIME type of the workbooks written here.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	ledgerSheet  = "Ledger"
	summarySheet = "Summary"
)

var ledgerHeader = []any{"ID", "Date", "Day", "Work Type", "Start Time", "End Time", "Hours Worked", "Hours", "Pay"}

// LedgerFilename is the download name for an employee's workbook.
func LedgerFilename(emp payroll.Employee) string {
	return fmt.Sprintf("%s-ledger.xlsx", emp.Name)
}

// WriteLedger writes a workbook with the employee's entries on a "Ledger"
// sheet, closed by a totals row, and per-month totals on a "Summary" sheet.
func WriteLedger(w io.Writer, emp payroll.Employee) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ledgerSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := writeEntries(f, emp.Entries, bold); err != nil {
		return err
	}
	if err := writeSummary(f, emp, bold); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeEntries(f *excelize.File, entries []payroll.Entry, headerStyle int) error {
	if err := f.SetSheetRow(ledgerSheet, "A1", &ledgerHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(ledgerSheet, "A1", "I1", headerStyle); err != nil {
		return err
	}

	for i, e := range entries {
		var hoursWorked any
		if h := e.Work.HoursInput(); h != nil {
			hoursWorked = h.InexactFloat64()
		}
		row := []any{
			e.ID,
			e.Date.String(),
			e.Day(),
			e.Work.Label(),
			e.Work.StartTime(),
			e.Work.EndTime(),
			hoursWorked,
			e.Hours.InexactFloat64(),
			e.Pay.Round(2).InexactFloat64(),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(ledgerSheet, cell, &row); err != nil {
			return err
		}
	}

	total := len(entries) + 2
	if err := f.SetCellValue(ledgerSheet, fmt.Sprintf("A%d", total), "Total"); err != nil {
		return err
	}
	if len(entries) > 0 {
		last := len(entries) + 1
		for _, col := range []string{"H", "I"} {
			formula := fmt.Sprintf("SUM(%s2:%s%d)", col, col, last)
			if err := f.SetCellFormula(ledgerSheet, fmt.Sprintf("%s%d", col, total), formula); err != nil {
				return err
			}
		}
	}
	if err := f.SetCellStyle(ledgerSheet, fmt.Sprintf("A%d", total), fmt.Sprintf("I%d", total), headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(ledgerSheet, "B", "D", 14)
}

type monthTotal struct {
	month time.Time
	days  int
	hours decimal.Decimal
	pay   decimal.Decimal
}

// monthlyTotals folds the date-ordered ledger into per-month sums.
func monthlyTotals(entries []payroll.Entry) []monthTotal {
	var out []monthTotal
	for _, e := range entries {
		start := e.Date.StartOfMonth().Time
		if len(out) == 0 || !out[len(out)-1].month.Equal(start) {
			out = append(out, monthTotal{month: start})
		}
		m := &out[len(out)-1]
		m.days++
		m.hours = m.hours.Add(e.Hours)
		m.pay = m.pay.Add(e.Pay)
	}
	return out
}

func writeSummary(f *excelize.File, emp payroll.Employee, headerStyle int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	end := ""
	if emp.EndDate != nil {
		end = emp.EndDate.String()
	}
	info := [][]any{
		{"Employee", emp.Name},
		{"Department", emp.Department},
		{"Start Date", emp.StartDate.String()},
		{"End Date", end},
		{"Base Salary", emp.BaseSalary.InexactFloat64()},
	}
	for i, row := range info {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return err
		}
	}

	headerRow := len(info) + 2
	header := []any{"Month", "Days", "Hours", "Pay"}
	if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", headerRow), &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("D%d", headerRow), headerStyle); err != nil {
		return err
	}

	for i, m := range monthlyTotals(emp.Entries) {
		row := []any{m.month.Format("2006-01"), m.days, m.hours.InexactFloat64(), m.pay.Round(2).InexactFloat64()}
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", headerRow+1+i), &row); err != nil {
			return err
		}
	}
	return nil
}
