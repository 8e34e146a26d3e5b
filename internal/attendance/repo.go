package attendance

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"attendance/internal/store"
)

// DateLayout is the civil-day format used in the attendance table.
const DateLayout = "2006-01-02"

// Status is the two-value attendance state.
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

// Valid reports whether s is one of the two allowed states.
func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// Row is one fact joined to its full ancestor chain.
type Row struct {
	MarkID       int64   `json:"att_id"`
	StudentID    int64   `json:"student_id"`
	StudentName  string  `json:"student_name"`
	Roll         *string `json:"roll"`
	CourseID     int64   `json:"course_id"`
	Course       string  `json:"course"`
	DepartmentID int64   `json:"department_id"`
	Department   string  `json:"department"`
	CollegeID    int64   `json:"college_id"`
	College      string  `json:"college"`
	Date         string  `json:"date"`
	Status       Status  `json:"status"`
	Timestamp    string  `json:"timestamp"`
}

// DisplayLabel is the student name with the roll appended when present.
func (r Row) DisplayLabel() string {
	if r.Roll != nil && *r.Roll != "" {
		return r.StudentName + " (" + *r.Roll + ")"
	}
	return r.StudentName
}

// Filter narrows the flat table. Zero-valued ids mean no constraint; Start
// and End are set together and are inclusive.
type Filter struct {
	CollegeID    int64
	DepartmentID int64
	CourseID     int64
	StudentID    int64
	Start        time.Time
	End          time.Time
}

// Repository persists attendance marks and derives the flat table.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo over the shared database handle.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// MarkForDate upserts one row per (student, date) entry. A student already
// marked for the date gets the new status and timestamp; students not in the
// map are untouched. Each row is its own statement, so a mid-batch failure
// leaves the already-applied prefix in place.
func (r *Repository) MarkForDate(ctx context.Context, date time.Time, statusByStudent map[int64]Status) error {
	ts := time.Now().UTC().Format(time.RFC3339)
	dateStr := date.Format(DateLayout)

	// Ascending id order keeps a partial application reproducible.
	ids := make([]int64, 0, len(statusByStudent))
	for id := range statusByStudent {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO attendance(student_id, date, status, timestamp)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(student_id, date) DO UPDATE SET status = excluded.status, timestamp = excluded.timestamp
		`, id, dateStr, string(statusByStudent[id]), ts)
		if err != nil {
			return store.Classify(err)
		}
	}
	return nil
}

// FlatTable returns denormalized rows matching the filter, newest date first,
// then college, department, course, student name ascending. Returns an empty
// slice, never an error, when nothing matches.
func (r *Repository) FlatTable(ctx context.Context, f Filter) ([]Row, error) {
	query := `
		SELECT a.id, s.id, s.name, s.roll,
		       c.id, c.name,
		       d.id, d.name,
		       co.id, co.name,
		       a.date, a.status, a.timestamp
		FROM attendance a
		JOIN students s ON s.id = a.student_id
		JOIN courses c ON c.id = s.course_id
		JOIN departments d ON d.id = c.department_id
		JOIN colleges co ON co.id = d.college_id`

	clauses := []string{}
	args := []any{}
	if f.CollegeID != 0 {
		clauses = append(clauses, "co.id = ?")
		args = append(args, f.CollegeID)
	}
	if f.DepartmentID != 0 {
		clauses = append(clauses, "d.id = ?")
		args = append(args, f.DepartmentID)
	}
	if f.CourseID != 0 {
		clauses = append(clauses, "c.id = ?")
		args = append(args, f.CourseID)
	}
	if f.StudentID != 0 {
		clauses = append(clauses, "s.id = ?")
		args = append(args, f.StudentID)
	}
	if !f.Start.IsZero() {
		clauses = append(clauses, "a.date BETWEEN ? AND ?")
		args = append(args, f.Start.Format(DateLayout), f.End.Format(DateLayout))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY a.date DESC, co.name, d.name, c.name, s.name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []Row{}
	for rows.Next() {
		var row Row
		var roll sql.NullString
		if err := rows.Scan(
			&row.MarkID, &row.StudentID, &row.StudentName, &roll,
			&row.CourseID, &row.Course,
			&row.DepartmentID, &row.Department,
			&row.CollegeID, &row.College,
			&row.Date, &row.Status, &row.Timestamp,
		); err != nil {
			return nil, err
		}
		if roll.Valid {
			row.Roll = &roll.String
		}
		res = append(res, row)
	}
	return res, rows.Err()
}
