package http

import (
	"bytes"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/mind-engage/teaching-dashboard/internal/rubric"
	"github.com/mind-engage/teaching-dashboard/internal/storage"
)

const maxWorkbook = 16 << 20

// MountSpreadsheets serves the auxiliary rubric workbooks. Uploads are read
// back as an aux table before they are stored; sessions opened earlier keep
// their memoized rosters.
func MountSpreadsheets(r chi.Router, bs storage.BlobStore) {
	// POST /spreadsheets/{name}  (multipart field "file")
	r.Post("/{name}", func(w http.ResponseWriter, r *http.Request) {
		name, ok := workbookName(w, r)
		if !ok {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxWorkbook)
		f, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			http.Error(w, "read upload: "+err.Error(), http.StatusBadRequest)
			return
		}
		t, err := rubric.LoadAux(bytes.NewReader(data))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, err := bs.Put(name, bytes.NewReader(data)); err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusCreated, map[string]any{
			"key":      name,
			"fields":   t.Fields,
			"comments": t.HasComments,
			"rows":     len(t.Rows),
		})
	})

	// GET /spreadsheets/{name}
	r.Get("/{name}", func(w http.ResponseWriter, r *http.Request) {
		name, ok := workbookName(w, r)
		if !ok {
			return
		}
		rc, err := bs.Get(name)
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		_, _ = io.Copy(w, rc)
	})
}

// workbookName accepts a bare .xlsx file name.
func workbookName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "name")
	if name == "" || path.Base(name) != name || strings.HasPrefix(name, ".") || !strings.EqualFold(path.Ext(name), ".xlsx") {
		http.Error(w, "bad spreadsheet name", http.StatusBadRequest)
		return "", false
	}
	return name, true
}
