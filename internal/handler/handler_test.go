package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance/internal/attendance"
	"attendance/internal/export"
	"attendance/internal/roster"
	"attendance/internal/store"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(filepath.Join(t.TempDir(), "attendance.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	h := New(st,
		roster.NewService(roster.NewRepository(st.DB())),
		attendance.NewService(attendance.NewRepository(st.DB())))

	r := gin.New()
	r.GET("/healthz", h.Healthz)
	h.Routes(r.Group("/api"))
	return r
}

func do(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// seedCourse creates college/department/course and returns the course id.
func seedCourse(t *testing.T, r *gin.Engine) int64 {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/colleges", gin.H{"name": "Hexcent"})
	require.Equal(t, http.StatusCreated, w.Code)
	collegeID := int64(decode(t, w)["id"].(float64))

	w = do(t, r, http.MethodPost, fmt.Sprintf("/api/colleges/%d/departments", collegeID), gin.H{"name": "CS"})
	require.Equal(t, http.StatusCreated, w.Code)
	departmentID := int64(decode(t, w)["id"].(float64))

	w = do(t, r, http.MethodPost, fmt.Sprintf("/api/departments/%d/courses", departmentID), gin.H{"name": "Algorithms"})
	require.Equal(t, http.StatusCreated, w.Code)
	return int64(decode(t, w)["id"].(float64))
}

func seedStudent(t *testing.T, r *gin.Engine, courseID int64, name, roll string) int64 {
	t.Helper()
	w := do(t, r, http.MethodPost, fmt.Sprintf("/api/courses/%d/students", courseID), gin.H{"name": name, "roll": roll})
	require.Equal(t, http.StatusCreated, w.Code)
	return int64(decode(t, w)["id"].(float64))
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateCollege_Conflict(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/colleges", gin.H{"name": "Hexcent"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(t, r, http.MethodPost, "/api/colleges", gin.H{"name": "Hexcent"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already exists", decode(t, w)["error"])
}

func TestCreateCollege_EmptyName(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/colleges", gin.H{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateDepartment_MissingParent(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/colleges/999/departments", gin.H{"name": "CS"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkAndReportFlow(t *testing.T) {
	r := newTestRouter(t)
	courseID := seedCourse(t, r)
	asha := seedStudent(t, r, courseID, "Asha", "42")
	binta := seedStudent(t, r, courseID, "Binta", "")

	w := do(t, r, http.MethodPost, "/api/attendance", gin.H{
		"date": "2026-03-02",
		"status_by_student": gin.H{
			fmt.Sprint(asha):  "Present",
			fmt.Sprint(binta): "Absent",
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/attendance?start=2026-03-02&end=2026-03-08", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode(t, w)["rows"].([]any)
	assert.Len(t, rows, 2)

	w = do(t, r, http.MethodGet,
		fmt.Sprintf("/api/attendance/weekly?course_id=%d&start=2026-03-02&end=2026-03-08", courseID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode(t, w)["summary"].([]any)
	require.Len(t, summary, 2)
	first := summary[0].(map[string]any)
	assert.Equal(t, "Asha", first["student_name"])
	assert.Equal(t, float64(7), first["total_days"])

	w = do(t, r, http.MethodGet, "/api/attendance/pivot?start=2026-03-02&end=2026-03-08", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pivot := decode(t, w)
	assert.Len(t, pivot["dates"].([]any), 1)
	assert.Len(t, pivot["rows"].([]any), 2)
}

func TestGetAttendance_InvalidRange(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/attendance?start=2026-03-08&end=2026-03-02", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/attendance?start=2026-03-08", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAttendance_EmptyState(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/attendance?college_id=12345", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["rows"])
}

func TestDeleteCollege_CascadesAndNotFound(t *testing.T) {
	r := newTestRouter(t)
	courseID := seedCourse(t, r)
	seedStudent(t, r, courseID, "Asha", "")

	w := do(t, r, http.MethodDelete, "/api/colleges/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, fmt.Sprintf("/api/courses/%d/students", courseID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["students"])

	w = do(t, r, http.MethodDelete, "/api/colleges/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportFlatXLSX(t *testing.T) {
	r := newTestRouter(t)
	courseID := seedCourse(t, r)
	asha := seedStudent(t, r, courseID, "Asha", "42")

	w := do(t, r, http.MethodPost, "/api/attendance", gin.H{
		"date":              "2026-03-02",
		"status_by_student": gin.H{fmt.Sprint(asha): "Present"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/attendance", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/export/attendance.xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	header, cells, err := export.ParseFlatWorkbook(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, export.FlatHeader, header)
	require.Len(t, cells, 1)
	assert.Equal(t, "Asha", cells[0][2])
}

func TestBackup(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/admin/backup", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "SQLite format 3", w.Body.String()[:15])

	w = do(t, r, http.MethodPost, "/api/admin/init", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
