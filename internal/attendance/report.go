package attendance

import (
	"context"
	"math"
	"sort"
	"time"
)

// PivotRow is one student line of the calendar view. Cells align with the
// table's Dates; an empty string means no mark for that day.
type PivotRow struct {
	Student    string   `json:"student"`
	Course     string   `json:"course"`
	Department string   `json:"department"`
	College    string   `json:"college"`
	Cells      []string `json:"cells"`
}

// PivotTable is the flat table reshaped into a (student x date) matrix.
type PivotTable struct {
	Dates []string   `json:"dates"`
	Rows  []PivotRow `json:"rows"`
}

// WeeklySummaryRow is one student's aggregate over the report range.
type WeeklySummaryRow struct {
	StudentName       string  `json:"student_name"`
	Roll              string  `json:"roll"`
	PresentCount      int     `json:"present_count"`
	TotalDays         int     `json:"total_days"`
	AttendancePercent float64 `json:"attendance_percent"`
}

// WeeklyReport carries the per-student summary plus the raw rows it was
// derived from, for traceability.
type WeeklyReport struct {
	Summary []WeeklySummaryRow `json:"summary"`
	Raw     []Row              `json:"raw"`
}

// Pivot reshapes the filtered flat table into a matrix with one row per
// student and one column per distinct date in range. The filter must carry a
// date range.
func (s *Service) Pivot(ctx context.Context, f Filter) (PivotTable, error) {
	if f.Start.IsZero() || f.End.IsZero() {
		return PivotTable{}, ErrInvalidRange
	}
	if err := validateFilter(f); err != nil {
		return PivotTable{}, err
	}
	rows, err := s.repo.FlatTable(ctx, f)
	if err != nil {
		return PivotTable{}, err
	}

	type rowKey struct {
		student, course, department, college string
	}
	dateSet := map[string]struct{}{}
	cells := map[rowKey]map[string]Status{}
	keys := []rowKey{}
	for _, r := range rows {
		dateSet[r.Date] = struct{}{}
		k := rowKey{r.DisplayLabel(), r.Course, r.Department, r.College}
		if _, ok := cells[k]; !ok {
			cells[k] = map[string]Status{}
			keys = append(keys, k)
		}
		cells[k][r.Date] = r.Status
	}

	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.student != b.student {
			return a.student < b.student
		}
		if a.course != b.course {
			return a.course < b.course
		}
		if a.department != b.department {
			return a.department < b.department
		}
		return a.college < b.college
	})

	table := PivotTable{Dates: dates}
	for _, k := range keys {
		pr := PivotRow{Student: k.student, Course: k.course, Department: k.department, College: k.college}
		for _, d := range dates {
			pr.Cells = append(pr.Cells, string(cells[k][d]))
		}
		table.Rows = append(table.Rows, pr)
	}
	return table, nil
}

// Weekly aggregates presence per student for one course over an inclusive
// date range, optionally narrowed to a single student. The denominator is the
// full day count of the range for every student; students with no mark in
// range do not appear.
func (s *Service) Weekly(ctx context.Context, courseID int64, start, end time.Time, studentID int64) (WeeklyReport, error) {
	f := Filter{CourseID: courseID, StudentID: studentID, Start: start, End: end}
	if f.Start.IsZero() || f.End.IsZero() {
		return WeeklyReport{}, ErrInvalidRange
	}
	if err := validateFilter(f); err != nil {
		return WeeklyReport{}, err
	}
	raw, err := s.repo.FlatTable(ctx, f)
	if err != nil {
		return WeeklyReport{}, err
	}

	totalDays := inclusiveDays(start, end)

	type studentKey struct{ name, roll string }
	present := map[studentKey]int{}
	keys := []studentKey{}
	for _, r := range raw {
		roll := ""
		if r.Roll != nil {
			roll = *r.Roll
		}
		k := studentKey{r.StudentName, roll}
		if _, ok := present[k]; !ok {
			present[k] = 0
			keys = append(keys, k)
		}
		if r.Status == StatusPresent {
			present[k]++
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].name != keys[j].name {
			return keys[i].name < keys[j].name
		}
		return keys[i].roll < keys[j].roll
	})

	report := WeeklyReport{Raw: raw, Summary: []WeeklySummaryRow{}}
	for _, k := range keys {
		pc := present[k]
		report.Summary = append(report.Summary, WeeklySummaryRow{
			StudentName:       k.name,
			Roll:              k.roll,
			PresentCount:      pc,
			TotalDays:         totalDays,
			AttendancePercent: round2(float64(pc) / float64(totalDays) * 100),
		})
	}
	return report, nil
}

// inclusiveDays counts civil days between start and end, both ends included.
func inclusiveDays(start, end time.Time) int {
	a := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours()/24) + 1
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
