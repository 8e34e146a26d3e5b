package roster

import (
	"context"
	"database/sql"

	"attendance/internal/store"
)

// Repository persists the college/department/course/student hierarchy.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo over the shared database handle.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// -------- Colleges --------

func (r *Repository) AddCollege(ctx context.Context, name string) (College, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO colleges(name) VALUES (?)`, name)
	if err != nil {
		return College{}, store.Classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return College{}, err
	}
	return College{ID: id, Name: name}, nil
}

func (r *Repository) ListColleges(ctx context.Context) ([]College, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM colleges ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	colleges := []College{}
	for rows.Next() {
		var c College
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		colleges = append(colleges, c)
	}
	return colleges, rows.Err()
}

// DeleteCollege removes a college and, through cascading foreign keys, every
// department, course, student and attendance row beneath it.
func (r *Repository) DeleteCollege(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, `DELETE FROM colleges WHERE id = ?`, id)
}

// -------- Departments --------

func (r *Repository) AddDepartment(ctx context.Context, collegeID int64, name string) (Department, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO departments(college_id, name) VALUES (?, ?)`, collegeID, name)
	if err != nil {
		return Department{}, store.Classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Department{}, err
	}
	return Department{ID: id, CollegeID: collegeID, Name: name}, nil
}

func (r *Repository) ListDepartments(ctx context.Context, collegeID int64) ([]Department, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, college_id, name FROM departments WHERE college_id = ? ORDER BY name`, collegeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	departments := []Department{}
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.CollegeID, &d.Name); err != nil {
			return nil, err
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

func (r *Repository) DeleteDepartment(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, `DELETE FROM departments WHERE id = ?`, id)
}

// -------- Courses --------

func (r *Repository) AddCourse(ctx context.Context, departmentID int64, name string) (Course, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO courses(department_id, name) VALUES (?, ?)`, departmentID, name)
	if err != nil {
		return Course{}, store.Classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Course{}, err
	}
	return Course{ID: id, DepartmentID: departmentID, Name: name}, nil
}

func (r *Repository) ListCourses(ctx context.Context, departmentID int64) ([]Course, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, department_id, name FROM courses WHERE department_id = ? ORDER BY name`, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := []Course{}
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.DepartmentID, &c.Name); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (r *Repository) DeleteCourse(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, `DELETE FROM courses WHERE id = ?`, id)
}

// -------- Students --------

func (r *Repository) AddStudent(ctx context.Context, courseID int64, name string, roll *string) (Student, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO students(course_id, name, roll) VALUES (?, ?, ?)`, courseID, name, roll)
	if err != nil {
		return Student{}, store.Classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Student{}, err
	}
	return Student{ID: id, CourseID: courseID, Name: name, Roll: roll}, nil
}

func (r *Repository) ListStudents(ctx context.Context, courseID int64) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, course_id, name, roll FROM students WHERE course_id = ? ORDER BY name`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := []Student{}
	for rows.Next() {
		var s Student
		var roll sql.NullString
		if err := rows.Scan(&s.ID, &s.CourseID, &s.Name, &roll); err != nil {
			return nil, err
		}
		if roll.Valid {
			s.Roll = &roll.String
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

func (r *Repository) DeleteStudent(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, `DELETE FROM students WHERE id = ?`, id)
}

func (r *Repository) deleteByID(ctx context.Context, query string, id int64) error {
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return store.Classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
