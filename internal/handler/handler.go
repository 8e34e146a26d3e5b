package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"attendance/internal/attendance"
	"attendance/internal/export"
	"attendance/internal/roster"
	"attendance/internal/store"
)

// Handler exposes the roster, attendance and export layers over HTTP.
type Handler struct {
	store  *store.Store
	roster *roster.Service
	att    *attendance.Service
}

func New(st *store.Store, rosterSvc *roster.Service, attSvc *attendance.Service) *Handler {
	return &Handler{store: st, roster: rosterSvc, att: attSvc}
}

// Routes registers every endpoint on the router group.
func (h *Handler) Routes(api *gin.RouterGroup) {
	api.POST("/colleges", h.CreateCollege)
	api.GET("/colleges", h.ListColleges)
	api.DELETE("/colleges/:id", h.DeleteCollege)

	api.POST("/colleges/:id/departments", h.CreateDepartment)
	api.GET("/colleges/:id/departments", h.ListDepartments)
	api.DELETE("/departments/:id", h.DeleteDepartment)

	api.POST("/departments/:id/courses", h.CreateCourse)
	api.GET("/departments/:id/courses", h.ListCourses)
	api.DELETE("/courses/:id", h.DeleteCourse)

	api.POST("/courses/:id/students", h.CreateStudent)
	api.GET("/courses/:id/students", h.ListStudents)
	api.DELETE("/students/:id", h.DeleteStudent)

	api.POST("/attendance", h.MarkAttendance)
	api.GET("/attendance", h.GetAttendance)
	api.GET("/attendance/pivot", h.GetPivot)
	api.GET("/attendance/weekly", h.GetWeekly)

	api.GET("/export/attendance.xlsx", h.ExportFlatXLSX)
	api.GET("/export/weekly.xlsx", h.ExportWeeklyXLSX)
	api.GET("/export/attendance.pdf", h.ExportPDF)

	api.GET("/admin/backup", h.Backup)
	api.POST("/admin/init", h.InitDB)
}

// ---------- Health ----------

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ---------- Roster ----------

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) CreateCollege(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	col, err := h.roster.AddCollege(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, col)
}

func (h *Handler) ListColleges(c *gin.Context) {
	cols, err := h.roster.ListColleges(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"colleges": cols})
}

func (h *Handler) DeleteCollege(c *gin.Context) {
	h.deleteByID(c, h.roster.DeleteCollege)
}

func (h *Handler) CreateDepartment(c *gin.Context) {
	collegeID, ok := paramID(c)
	if !ok {
		return
	}
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dep, err := h.roster.AddDepartment(c.Request.Context(), collegeID, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dep)
}

func (h *Handler) ListDepartments(c *gin.Context) {
	collegeID, ok := paramID(c)
	if !ok {
		return
	}
	deps, err := h.roster.ListDepartments(c.Request.Context(), collegeID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"departments": deps})
}

func (h *Handler) DeleteDepartment(c *gin.Context) {
	h.deleteByID(c, h.roster.DeleteDepartment)
}

func (h *Handler) CreateCourse(c *gin.Context) {
	departmentID, ok := paramID(c)
	if !ok {
		return
	}
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	crs, err := h.roster.AddCourse(c.Request.Context(), departmentID, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, crs)
}

func (h *Handler) ListCourses(c *gin.Context) {
	departmentID, ok := paramID(c)
	if !ok {
		return
	}
	courses, err := h.roster.ListCourses(c.Request.Context(), departmentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

func (h *Handler) DeleteCourse(c *gin.Context) {
	h.deleteByID(c, h.roster.DeleteCourse)
}

type studentRequest struct {
	Name string `json:"name" binding:"required"`
	Roll string `json:"roll"`
}

func (h *Handler) CreateStudent(c *gin.Context) {
	courseID, ok := paramID(c)
	if !ok {
		return
	}
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, err := h.roster.AddStudent(c.Request.Context(), courseID, req.Name, req.Roll)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (h *Handler) ListStudents(c *gin.Context) {
	courseID, ok := paramID(c)
	if !ok {
		return
	}
	students, err := h.roster.ListStudents(c.Request.Context(), courseID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

func (h *Handler) DeleteStudent(c *gin.Context) {
	h.deleteByID(c, h.roster.DeleteStudent)
}

// ---------- Attendance ----------

type markRequest struct {
	Date            string            `json:"date" binding:"required"`
	StatusByStudent map[string]string `json:"status_by_student" binding:"required"`
}

func (h *Handler) MarkAttendance(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := time.Parse(attendance.DateLayout, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	statuses := make(map[int64]attendance.Status, len(req.StatusByStudent))
	for idStr, st := range req.StatusByStudent {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid student id %q", idStr)})
			return
		}
		statuses[id] = attendance.Status(st)
	}
	if err := h.att.Mark(c.Request.Context(), date, statuses); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": len(statuses), "date": req.Date})
}

func (h *Handler) GetAttendance(c *gin.Context) {
	rows, ok := h.flatRows(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

func (h *Handler) GetPivot(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	table, err := h.att.Pivot(c.Request.Context(), f)
	if err != nil {
		if errors.Is(err, attendance.ErrInvalidRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// Reads degrade to an empty table; the failure stays in the logs.
		log.Printf("pivot query failed: %v", err)
		table = attendance.PivotTable{Dates: []string{}, Rows: []attendance.PivotRow{}}
	}
	c.JSON(http.StatusOK, table)
}

func (h *Handler) GetWeekly(c *gin.Context) {
	courseID, start, end, studentID, ok := weeklyArgs(c)
	if !ok {
		return
	}
	report, err := h.att.Weekly(c.Request.Context(), courseID, start, end, studentID)
	if err != nil {
		if errors.Is(err, attendance.ErrInvalidRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("weekly query failed: %v", err)
		report = attendance.WeeklyReport{Summary: []attendance.WeeklySummaryRow{}, Raw: []attendance.Row{}}
	}
	c.JSON(http.StatusOK, report)
}

// ---------- Exports ----------

func (h *Handler) ExportFlatXLSX(c *gin.Context) {
	rows, ok := h.flatRows(c)
	if !ok {
		return
	}
	b, err := export.FlatWorkbook(rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	sendAttachment(c, b,
		fmt.Sprintf("attendance_filtered_%s.xlsx", time.Now().Format("20060102_150405")),
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

func (h *Handler) ExportWeeklyXLSX(c *gin.Context) {
	courseID, start, end, studentID, ok := weeklyArgs(c)
	if !ok {
		return
	}
	report, err := h.att.Weekly(c.Request.Context(), courseID, start, end, studentID)
	if err != nil {
		writeError(c, err)
		return
	}
	b, err := export.WeeklyWorkbook(report)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	sendAttachment(c, b,
		fmt.Sprintf("weekly_report_%s.xlsx", time.Now().Format("20060102_150405")),
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

func (h *Handler) ExportPDF(c *gin.Context) {
	rows, ok := h.flatRows(c)
	if !ok {
		return
	}
	b, err := export.FlatPDF("Filtered Attendance Report", rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	sendAttachment(c, b,
		fmt.Sprintf("attendance_filtered_%s.pdf", time.Now().Format("20060102_150405")),
		"application/pdf")
}

// ---------- Admin ----------

func (h *Handler) Backup(c *gin.Context) {
	b, err := h.store.Backup(c.Request.Context())
	if err != nil {
		log.Printf("backup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "backup failed"})
		return
	}
	sendAttachment(c, b, "attendance.db", "application/octet-stream")
}

func (h *Handler) InitDB(c *gin.Context) {
	if err := h.store.Reinit(); err != nil {
		log.Printf("reinit failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "init failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "initialized"})
}

// ---------- Helpers ----------

// flatRows resolves the filter and fetches the flat table, degrading read
// failures to an empty result. Returns false when it already wrote a 400.
func (h *Handler) flatRows(c *gin.Context) ([]attendance.Row, bool) {
	f, err := filterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	rows, err := h.att.Table(c.Request.Context(), f)
	if err != nil {
		if errors.Is(err, attendance.ErrInvalidRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return nil, false
		}
		log.Printf("attendance query failed: %v", err)
		rows = []attendance.Row{}
	}
	return rows, true
}

func (h *Handler) deleteByID(c *gin.Context, del func(context.Context, int64) error) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := del(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func filterFromQuery(c *gin.Context) (attendance.Filter, error) {
	var f attendance.Filter
	var err error
	if f.CollegeID, err = queryID(c, "college_id"); err != nil {
		return f, err
	}
	if f.DepartmentID, err = queryID(c, "department_id"); err != nil {
		return f, err
	}
	if f.CourseID, err = queryID(c, "course_id"); err != nil {
		return f, err
	}
	if f.StudentID, err = queryID(c, "student_id"); err != nil {
		return f, err
	}
	start, end := c.Query("start"), c.Query("end")
	if (start == "") != (end == "") {
		return f, errors.New("start and end must be provided together")
	}
	if start != "" {
		if f.Start, err = time.Parse(attendance.DateLayout, start); err != nil {
			return f, errors.New("start must be YYYY-MM-DD")
		}
		if f.End, err = time.Parse(attendance.DateLayout, end); err != nil {
			return f, errors.New("end must be YYYY-MM-DD")
		}
	}
	return f, nil
}

func weeklyArgs(c *gin.Context) (courseID int64, start, end time.Time, studentID int64, ok bool) {
	var err error
	if courseID, err = queryID(c, "course_id"); err != nil || courseID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "course_id required"})
		return 0, start, end, 0, false
	}
	if studentID, err = queryID(c, "student_id"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, start, end, 0, false
	}
	if start, err = time.Parse(attendance.DateLayout, c.Query("start")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
		return 0, start, end, 0, false
	}
	if end, err = time.Parse(attendance.DateLayout, c.Query("end")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be YYYY-MM-DD"})
		return 0, start, end, 0, false
	}
	return courseID, start, end, studentID, true
}

func queryID(c *gin.Context, key string) (int64, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return id, nil
}

func sendAttachment(c *gin.Context, b []byte, filename, contentType string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, b)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, store.ErrReferential):
		c.JSON(http.StatusBadRequest, gin.H{"error": "parent record not found"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, roster.ErrEmptyName),
		errors.Is(err, attendance.ErrInvalidRange),
		errors.Is(err, attendance.ErrNoDate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
