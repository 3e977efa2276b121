package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mind-engage/teaching-dashboard/internal/storage"
)

func workbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"SID", "Participation", "Comments"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{5001, 8, "ok"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func upload(t *testing.T, h http.Handler, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/spreadsheets/"+name, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func spreadsheetRouter(t *testing.T) (http.Handler, *storage.FSStore) {
	t.Helper()
	bs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	r := chi.NewRouter()
	r.Route("/spreadsheets", func(sr chi.Router) { MountSpreadsheets(sr, bs) })
	return r, bs
}

func TestSpreadsheetUploadAndDownload(t *testing.T) {
	h, bs := spreadsheetRouter(t)
	data := workbook(t)

	rec := upload(t, h, "more-fields-100.xlsx", data)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var got struct {
		Key      string   `json:"key"`
		Fields   []string `json:"fields"`
		Comments bool     `json:"comments"`
		Rows     int      `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "more-fields-100.xlsx", got.Key)
	assert.Equal(t, []string{"Participation"}, got.Fields)
	assert.True(t, got.Comments)
	assert.Equal(t, 1, got.Rows)

	rc, err := bs.Get("more-fields-100.xlsx")
	require.NoError(t, err)
	rc.Close()

	req := httptest.NewRequest(http.MethodGet, "/spreadsheets/more-fields-100.xlsx", nil)
	dl := httptest.NewRecorder()
	h.ServeHTTP(dl, req)
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, data, dl.Body.Bytes())
}

func TestSpreadsheetRejects(t *testing.T) {
	h, _ := spreadsheetRouter(t)

	rec := upload(t, h, "notes.txt", workbook(t))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload(t, h, "broken.xlsx", []byte("not a workbook"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/spreadsheets/missing.xlsx", nil)
	miss := httptest.NewRecorder()
	h.ServeHTTP(miss, req)
	assert.Equal(t, http.StatusNotFound, miss.Code)
}
