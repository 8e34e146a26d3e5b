package attendance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekly_SevenDayRange(t *testing.T) {
	f := newFixture(t, "Asha")
	ctx := context.Background()
	id := f.students["Asha"]

	// Present on 3 of the 7 days, absent on 1, unmarked on the rest.
	for _, d := range []string{"2026-03-02", "2026-03-04", "2026-03-06"} {
		require.NoError(t, f.repo.MarkForDate(ctx, day(d), map[int64]Status{id: StatusPresent}))
	}
	require.NoError(t, f.repo.MarkForDate(ctx, day("2026-03-03"), map[int64]Status{id: StatusAbsent}))

	report, err := f.svc.Weekly(ctx, f.courseID, day("2026-03-02"), day("2026-03-08"), 0)
	require.NoError(t, err)
	require.Len(t, report.Summary, 1)

	s := report.Summary[0]
	assert.Equal(t, "Asha", s.StudentName)
	assert.Equal(t, 3, s.PresentCount)
	assert.Equal(t, 7, s.TotalDays)
	assert.InDelta(t, 42.86, s.AttendancePercent, 0.001)
	assert.Len(t, report.Raw, 4)
}

func TestWeekly_ExcludesStudentsWithoutMarks(t *testing.T) {
	f := newFixture(t, "Asha", "Binta")
	ctx := context.Background()

	require.NoError(t, f.repo.MarkForDate(ctx, day("2026-03-02"),
		map[int64]Status{f.students["Asha"]: StatusPresent}))

	report, err := f.svc.Weekly(ctx, f.courseID, day("2026-03-02"), day("2026-03-08"), 0)
	require.NoError(t, err)
	require.Len(t, report.Summary, 1)
	assert.Equal(t, "Asha", report.Summary[0].StudentName)
}

func TestWeekly_SingleStudentFilter(t *testing.T) {
	f := newFixture(t, "Asha", "Binta")
	ctx := context.Background()
	batch := map[int64]Status{
		f.students["Asha"]:  StatusPresent,
		f.students["Binta"]: StatusPresent,
	}
	require.NoError(t, f.repo.MarkForDate(ctx, day("2026-03-02"), batch))

	report, err := f.svc.Weekly(ctx, f.courseID, day("2026-03-02"), day("2026-03-08"), f.students["Binta"])
	require.NoError(t, err)
	require.Len(t, report.Summary, 1)
	assert.Equal(t, "Binta", report.Summary[0].StudentName)
}

func TestWeekly_RejectsInvalidRange(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Weekly(context.Background(), f.courseID, day("2026-03-08"), day("2026-03-02"), 0)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestPivot_ShapeWithMissingMark(t *testing.T) {
	f := newFixture(t, "Asha", "Binta")
	ctx := context.Background()

	dates := []string{"2026-03-02", "2026-03-03", "2026-03-04"}
	for _, d := range dates {
		require.NoError(t, f.repo.MarkForDate(ctx, day(d),
			map[int64]Status{f.students["Asha"]: StatusPresent}))
	}
	// Binta misses the middle day.
	for _, d := range []string{"2026-03-02", "2026-03-04"} {
		require.NoError(t, f.repo.MarkForDate(ctx, day(d),
			map[int64]Status{f.students["Binta"]: StatusAbsent}))
	}

	table, err := f.svc.Pivot(ctx, Filter{Start: day("2026-03-02"), End: day("2026-03-04")})
	require.NoError(t, err)

	assert.Equal(t, dates, table.Dates)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Asha", table.Rows[0].Student)
	assert.Equal(t, []string{"Present", "Present", "Present"}, table.Rows[0].Cells)
	assert.Equal(t, "Binta", table.Rows[1].Student)
	assert.Equal(t, []string{"Absent", "", "Absent"}, table.Rows[1].Cells,
		"missing mark renders as empty string, not a dropped column")
}

func TestPivot_RequiresRange(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Pivot(context.Background(), Filter{})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestRowDisplayLabel(t *testing.T) {
	roll := "42"
	assert.Equal(t, "Asha (42)", Row{StudentName: "Asha", Roll: &roll}.DisplayLabel())
	assert.Equal(t, "Asha", Row{StudentName: "Asha"}.DisplayLabel())
	empty := ""
	assert.Equal(t, "Asha", Row{StudentName: "Asha", Roll: &empty}.DisplayLabel())
}
