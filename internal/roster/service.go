package roster

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyName is returned before any storage call when a submitted name is
// empty or whitespace only.
var ErrEmptyName = errors.New("name must not be empty")

// Service validates input before handing it to the repository.
type Service struct {
	repo *Repository
}

// NewService creates a service backed by a repository.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// AddCollege trims and stores a new college.
func (s *Service) AddCollege(ctx context.Context, name string) (College, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return College{}, ErrEmptyName
	}
	return s.repo.AddCollege(ctx, name)
}

// AddDepartment trims and stores a new department under the college.
func (s *Service) AddDepartment(ctx context.Context, collegeID int64, name string) (Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Department{}, ErrEmptyName
	}
	return s.repo.AddDepartment(ctx, collegeID, name)
}

// AddCourse trims and stores a new course under the department.
func (s *Service) AddCourse(ctx context.Context, departmentID int64, name string) (Course, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Course{}, ErrEmptyName
	}
	return s.repo.AddCourse(ctx, departmentID, name)
}

// AddStudent trims and stores a new student. An empty roll is stored as NULL
// so it does not collide with other blank rolls in the course.
func (s *Service) AddStudent(ctx context.Context, courseID int64, name, roll string) (Student, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Student{}, ErrEmptyName
	}
	var rollPtr *string
	if r := strings.TrimSpace(roll); r != "" {
		rollPtr = &r
	}
	return s.repo.AddStudent(ctx, courseID, name, rollPtr)
}

func (s *Service) ListColleges(ctx context.Context) ([]College, error) {
	return s.repo.ListColleges(ctx)
}

func (s *Service) ListDepartments(ctx context.Context, collegeID int64) ([]Department, error) {
	return s.repo.ListDepartments(ctx, collegeID)
}

func (s *Service) ListCourses(ctx context.Context, departmentID int64) ([]Course, error) {
	return s.repo.ListCourses(ctx, departmentID)
}

func (s *Service) ListStudents(ctx context.Context, courseID int64) ([]Student, error) {
	return s.repo.ListStudents(ctx, courseID)
}

func (s *Service) DeleteCollege(ctx context.Context, id int64) error {
	return s.repo.DeleteCollege(ctx, id)
}

func (s *Service) DeleteDepartment(ctx context.Context, id int64) error {
	return s.repo.DeleteDepartment(ctx, id)
}

func (s *Service) DeleteCourse(ctx context.Context, id int64) error {
	return s.repo.DeleteCourse(ctx, id)
}

func (s *Service) DeleteStudent(ctx context.Context, id int64) error {
	return s.repo.DeleteStudent(ctx, id)
}
