package tests

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	. "github.com/mergington/roster/apps/api/echo"
	"github.com/mergington/roster/services/spreadsheet"
)

func newUploadRequest(t *testing.T, path, token string, content []byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if content != nil {
		part, err := w.CreateFormFile("file", "students.xlsx")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func studentsSheet(t *testing.T, emails ...string) []byte {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "Email"))
	for i, email := range emails {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, email))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func Test_spreadsheetApi_export(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/activities/export")
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errUnauthorized)}, rec)

	req, rec = newAuthRequest(http.MethodGet, "/activities/export", app.login(t))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, spreadsheet.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="roster.xlsx"`, rec.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(spreadsheet.SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1+9*2) // header + 2 students per seeded activity
	assert.Equal(t, []string{"Art Club", "Thursdays, 3:30 PM - 5:00 PM", "15", "amelia@mergington.edu", "participant"}, rows[1])
}

func Test_spreadsheetApi_import(t *testing.T) {
	app := setup(t)
	token := app.login(t)
	sheet := studentsSheet(t, "new@x.edu", "michael@mergington.edu", "not-an-email", "other@x.edu")

	req, rec := newUploadRequest(t, "/activities/Chess%20Club/import", "", sheet)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errUnauthorized)}, rec)

	req, rec = newUploadRequest(t, "/activities/Chess%20Club/import", token, sheet)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marshallObj(t, ImportResponse{Message: "Imported 2 participants into Chess Club", Imported: 2, Skipped: 2}),
	}, rec)
	assert.Equal(t,
		[]string{"michael@mergington.edu", "daniel@mergington.edu", "new@x.edu", "other@x.edu"},
		app.getActivity(t, "Chess Club").Participants,
	)

	req, rec = newUploadRequest(t, "/activities/Robotics/import", token, sheet)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Detail: "Activity not found"})}, rec)

	req, rec = newUploadRequest(t, "/activities/Chess%20Club/import", token, nil)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Detail: map[string]string{"file": "file is required"}})}, rec)

	req, rec = newUploadRequest(t, "/activities/Chess%20Club/import", token, []byte("not a spreadsheet"))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Detail: "Invalid spreadsheet"})}, rec)
}
