package ui

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"eyedash/adapters/excel"
	"eyedash/domain/table"
	"eyedash/internal/config"
	"eyedash/internal/datastore"
	"eyedash/internal/session"
)

func newTestApp(t *testing.T, dataDir string) *App {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.Port = "8080"
	cfg.Data.Dir = dataDir

	store := datastore.NewStore(func(path string) (*table.Table, error) {
		return excel.NewDataReader(path).ReadTable()
	})
	app, err := NewApp(cfg, store, session.NewManager(session.NewMemoryStore(), time.Hour))
	require.NoError(t, err)
	return app
}

// writeSchoolWorkbook creates a minimal School_Program.xlsx fixture.
func writeSchoolWorkbook(t *testing.T, dir string) {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"ScreenDate", "SchoolType", "SchoolCode", "ScreenAttend", "Sex", "Ref_Eye_Spec"},
		{"2024-01-10", "Primary", "S1", "Present", "Male", "Yes"},
		{"2024-01-12", "Primary", "S1", "Present", "Female", ""},
		{"2024-02-03", "Secondary", "S2", "Absent", "Male", ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(filepath.Join(dir, "School_Program.xlsx")))
}

func TestIndex(t *testing.T) {
	app := newTestApp(t, t.TempDir())

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "School Screening Program")
	assert.Contains(t, body, "Primary Eye Care Program")
	assert.Contains(t, body, "Cataract Management")
}

func TestDashboard_UnknownPage(t *testing.T) {
	app := newTestApp(t, t.TempDir())

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dash/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboard_MissingDataFile(t *testing.T) {
	app := newTestApp(t, t.TempDir())

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dash/school", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "School_Program.xlsx")
}

func TestDashboard_Render(t *testing.T) {
	dir := t.TempDir()
	writeSchoolWorkbook(t, dir)
	app := newTestApp(t, dir)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dash/school", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Schools Covered")
	assert.Contains(t, body, "Total Children Screened")
	assert.Contains(t, body, "3 of 3 records")
	// Session cookie minted on first visit.
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, sessionCookie, cookies[0].Name)
}

func TestFilters_ApplyAndClear(t *testing.T) {
	dir := t.TempDir()
	writeSchoolWorkbook(t, dir)
	app := newTestApp(t, dir)

	// Mint a session.
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dash/school", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := rec.Result().Cookies()[0]

	form := url.Values{}
	form.Set("date_start", "2024-01-01")
	form.Set("date_end", "2024-01-31")
	form.Add("sex", "Male")
	req := httptest.NewRequest(http.MethodPost, "/dash/school/filters", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dash/school", rec.Header().Get("Location"))

	// The filtered render reflects the narrowed subset.
	req = httptest.NewRequest(http.MethodGet, "/dash/school", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "1 of 3 records")

	// Clear restores the defaults.
	req = httptest.NewRequest(http.MethodPost, "/dash/school/clear", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/dash/school", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), "3 of 3 records")
}

func TestExportCSV(t *testing.T) {
	dir := t.TempDir()
	writeSchoolWorkbook(t, dir)
	app := newTestApp(t, dir)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dash/school/export.csv", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "screendate")
}
