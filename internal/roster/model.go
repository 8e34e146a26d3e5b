package roster

// College is the top of the hierarchy. Names are unique globally.
type College struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Department belongs to exactly one college; names are unique per college.
type Department struct {
	ID        int64  `json:"id"`
	CollegeID int64  `json:"college_id"`
	Name      string `json:"name"`
}

// Course belongs to exactly one department; names are unique per department.
type Course struct {
	ID           int64  `json:"id"`
	DepartmentID int64  `json:"department_id"`
	Name         string `json:"name"`
}

// Student belongs to exactly one course. Roll is optional but unique within
// the course when present.
type Student struct {
	ID       int64   `json:"id"`
	CourseID int64   `json:"course_id"`
	Name     string  `json:"name"`
	Roll     *string `json:"roll,omitempty"`
}
