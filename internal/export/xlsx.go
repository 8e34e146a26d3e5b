// Package export serializes report tables into the byte formats the
// presentation side hands out as downloads.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"attendance/internal/attendance"
)

// FlatSheet is the sheet name for single-table workbooks.
const FlatSheet = "Sheet1"

// FlatHeader is the column set of the denormalized attendance table.
var FlatHeader = []string{
	"att_id", "student_id", "student_name", "roll",
	"course_id", "course", "department_id", "department",
	"college_id", "college", "date", "status", "timestamp",
}

var weeklyHeader = []string{
	"student_name", "roll", "present_count", "total_days", "attendance_percent",
}

// FlatWorkbook writes the flat table to a one-sheet workbook: header row
// first, one row per record.
func FlatWorkbook(rows []attendance.Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeFlatSheet(f, FlatSheet, rows); err != nil {
		return nil, err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WeeklyWorkbook writes the weekly report as two sheets: the per-student
// aggregate and the raw rows it was derived from.
func WeeklyWorkbook(report attendance.WeeklyReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(FlatSheet, "WeeklySummary"); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow("WeeklySummary", "A1", &[]any{
		weeklyHeader[0], weeklyHeader[1], weeklyHeader[2], weeklyHeader[3], weeklyHeader[4],
	}); err != nil {
		return nil, err
	}
	for i, s := range report.Summary {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{s.StudentName, s.Roll, s.PresentCount, s.TotalDays, s.AttendancePercent}
		if err := f.SetSheetRow("WeeklySummary", cell, &row); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet("RawAttendance"); err != nil {
		return nil, err
	}
	if err := writeFlatSheet(f, "RawAttendance", report.Raw); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseFlatWorkbook reads a flat workbook back into its header and cell
// matrix, for round-trip verification.
func ParseFlatWorkbook(b []byte) (header []string, rows [][]string, err error) {
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	all, err := f.GetRows(FlatSheet)
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}

// FlatStrings renders the flat table as a string matrix in FlatHeader order.
func FlatStrings(rows []attendance.Row) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells := rowValues(r)
		line := make([]string, len(cells))
		for i, c := range cells {
			line[i] = fmt.Sprint(c)
		}
		out = append(out, line)
	}
	return out
}

func writeFlatSheet(f *excelize.File, sheet string, rows []attendance.Row) error {
	head := make([]any, len(FlatHeader))
	for i, h := range FlatHeader {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		vals := rowValues(r)
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return err
		}
	}
	return nil
}

func rowValues(r attendance.Row) []any {
	roll := ""
	if r.Roll != nil {
		roll = *r.Roll
	}
	return []any{
		r.MarkID, r.StudentID, r.StudentName, roll,
		r.CourseID, r.Course, r.DepartmentID, r.Department,
		r.CollegeID, r.College, r.Date, string(r.Status), r.Timestamp,
	}
}
