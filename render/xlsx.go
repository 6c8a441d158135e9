/*
Package render turns plans and reports into human-facing output.

OUTPUTS:
  xlsx.go      Excel workbook: "Plan" sheet (one column group per shift)
               and "Report" sheet (totals, tree, warnings)
  terminal.go  lipgloss-styled text for rosterctl

Both take the catalog only for display names; unknown ids are shown as-is.
*/
package render

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/warp/roster-engine/roster"
)

const (
	SheetPlan   = "Plan"
	SheetReport = "Report"
)

// =============================================================================
// WORKBOOK
// =============================================================================

// Workbook builds the export workbook. rep may be nil, in which case the
// Report sheet is omitted.
func Workbook(plan *roster.WeekPlan, rep *roster.Report, catalog *roster.Catalog) (*excelize.File, error) {
	if catalog == nil {
		catalog = roster.NewCatalog(nil, nil, nil, nil)
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetPlan); err != nil {
		f.Close()
		return nil, err
	}
	st, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := writePlanSheet(f, st, plan, catalog); err != nil {
		f.Close()
		return nil, fmt.Errorf("plan sheet: %w", err)
	}
	if rep != nil {
		if err := writeReportSheet(f, st, rep); err != nil {
			f.Close()
			return nil, fmt.Errorf("report sheet: %w", err)
		}
	}
	return f, nil
}

// WriteXLSX writes the workbook to w.
func WriteXLSX(w io.Writer, plan *roster.WeekPlan, rep *roster.Report, catalog *roster.Catalog) error {
	f, err := Workbook(plan, rep, catalog)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(w)
	return err
}

type styles struct {
	title  int
	header int
	manual int
	warn   int
}

func newStyles(f *excelize.File) (styles, error) {
	var (
		st  styles
		err error
	)
	border := []excelize.Border{
		{Type: "top", Color: "#000000", Style: 1},
		{Type: "bottom", Color: "#000000", Style: 2},
		{Type: "left", Color: "#000000", Style: 1},
		{Type: "right", Color: "#000000", Style: 1},
	}
	if st.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}); err != nil {
		return st, err
	}
	if st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
		Border:    border,
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return st, err
	}
	if st.manual, err = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFF4CC"}, Pattern: 1},
	}); err != nil {
		return st, err
	}
	st.warn, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: "#FF0000", Bold: true}})
	return st, err
}

// =============================================================================
// PLAN SHEET
// =============================================================================

// Layout: title on row 1, shift labels on row 2, Worker/Task/Equipment
// headers on row 3, one row per column position from row 4.
func writePlanSheet(f *excelize.File, st styles, plan *roster.WeekPlan, catalog *roster.Catalog) error {
	if err := f.SetCellValue(SheetPlan, "A1", fmt.Sprintf("Week of %s", plan.Week)); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetPlan, "A1", "A1", st.title); err != nil {
		return err
	}

	for i, s := range roster.Priority {
		col := 1 + i*3
		label, err := cell(col, 2)
		if err != nil {
			return err
		}
		end, _ := cell(col+2, 2)
		if err := f.SetCellValue(SheetPlan, label, fmt.Sprintf("%s (%d)", s.Label(), len(plan.Columns[s]))); err != nil {
			return err
		}
		if err := f.MergeCell(SheetPlan, label, end); err != nil {
			return err
		}
		for j, h := range []string{"Worker", "Task", "Equipment"} {
			ref, _ := cell(col+j, 3)
			if err := f.SetCellValue(SheetPlan, ref, h); err != nil {
				return err
			}
		}
		first, _ := cell(col, 2)
		last, _ := cell(col+2, 3)
		if err := f.SetCellStyle(SheetPlan, first, last, st.header); err != nil {
			return err
		}

		for row, id := range plan.Columns[s] {
			values := []string{
				workerName(catalog, id),
				taskName(catalog, plan.Tasks[id]),
				equipmentName(catalog, plan.Equipment[id]),
			}
			for j, v := range values {
				ref, _ := cell(col+j, row+4)
				if err := f.SetCellValue(SheetPlan, ref, v); err != nil {
					return err
				}
			}
			if plan.Provenance[id] == roster.ProvenanceManual {
				a, _ := cell(col, row+4)
				b, _ := cell(col+2, row+4)
				if err := f.SetCellStyle(SheetPlan, a, b, st.manual); err != nil {
					return err
				}
			}
		}
	}
	return f.SetColWidth(SheetPlan, "A", "I", 18)
}

// =============================================================================
// REPORT SHEET
// =============================================================================

func writeReportSheet(f *excelize.File, st styles, rep *roster.Report) error {
	if _, err := f.NewSheet(SheetReport); err != nil {
		return err
	}
	rows := [][]any{
		{fmt.Sprintf("Report for %s", rep.Week)},
		{},
		{"Shift", "Count", "Share %"},
	}
	headers := []int{3}
	for _, t := range rep.Totals {
		rows = append(rows, []any{t.Shift.Label(), t.Count, t.Share.StringFixed(1)})
	}
	rows = append(rows, []any{"Total", rep.Total}, []any{})

	rows = append(rows, []any{"Shift", "Group", "Task", "Count"})
	headers = append(headers, len(rows))
	for _, sn := range rep.Tree {
		for _, g := range sn.Groups {
			for _, tc := range g.Tasks {
				rows = append(rows, []any{sn.Shift.Label(), g.Name, tc.Label, tc.Count})
			}
		}
	}

	var warnRows []int
	if len(rep.Warnings) > 0 {
		rows = append(rows, []any{}, []any{"Warning", "Count", "Message"})
		headers = append(headers, len(rows))
		for _, w := range rep.Warnings {
			rows = append(rows, []any{string(w.Code), w.Count, w.Message})
			warnRows = append(warnRows, len(rows))
		}
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		ref, _ := cell(1, i+1)
		if err := f.SetSheetRow(SheetReport, ref, &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SheetReport, "A1", "A1", st.title); err != nil {
		return err
	}
	for _, r := range headers {
		a, _ := cell(1, r)
		b, _ := cell(4, r)
		if err := f.SetCellStyle(SheetReport, a, b, st.header); err != nil {
			return err
		}
	}
	for _, r := range warnRows {
		a, _ := cell(1, r)
		if err := f.SetCellStyle(SheetReport, a, a, st.warn); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetReport, "A", "D", 20)
}

// =============================================================================
// HELPERS
// =============================================================================

func cell(col, row int) (string, error) {
	return excelize.CoordinatesToCellName(col, row)
}

func workerName(c *roster.Catalog, id roster.WorkerID) string {
	if w, ok := c.Worker(id); ok && w.Name != "" {
		return w.Name
	}
	return string(id)
}

func taskName(c *roster.Catalog, id roster.TaskID) string {
	if id == "" {
		return ""
	}
	if t, ok := c.Task(id); ok {
		return t.Name
	}
	return string(id)
}

func equipmentName(c *roster.Catalog, id roster.EquipmentID) string {
	if id == "" {
		return ""
	}
	if e, ok := c.Equipment(id); ok {
		return e.Serial
	}
	return string(id)
}
