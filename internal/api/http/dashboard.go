package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/mind-engage/teaching-dashboard/internal/dashboard"
	"github.com/mind-engage/teaching-dashboard/internal/enrollment"
	"github.com/mind-engage/teaching-dashboard/internal/entity"
	"github.com/mind-engage/teaching-dashboard/internal/rubric"
)

// Views is the read side of a dashboard session.
type Views interface {
	Courses(ctx context.Context) ([]entity.Course, error)
	CourseNames(ctx context.Context) ([]string, error)
	Students(ctx context.Context) ([]entity.Student, error)
	Assignments(ctx context.Context) ([]entity.Assignment, error)
	Submissions(ctx context.Context) ([]entity.Submission, error)
	Extensions(ctx context.Context) ([]entity.Extension, error)
	CanvasExtensions(ctx context.Context) ([]entity.CanvasExtension, error)
	Enrollments(ctx context.Context) ([]entity.Enrollment, error)
	Limitations() []enrollment.Limitation

	StatusSummary(ctx context.Context) ([]dashboard.CourseStatus, error)
	AssignmentStatus(ctx context.Context, courseID int64) ([]dashboard.AssignmentReport, error)
	StudentTotals(ctx context.Context, courseID int64) (dashboard.Totals, error)
	Rosters(ctx context.Context, courseID int64) ([]rubric.Roster, error)
	Grades(ctx context.Context, courseID int64, thresholds []rubric.Threshold) (dashboard.GradeReport, error)
}

// MountDashboard registers the read-only JSON views on r.
func MountDashboard(r chi.Router, v Views) {
	r.Get("/courses", list(v.Courses))
	r.Get("/course-names", list(v.CourseNames))
	r.Get("/students", list(v.Students))
	r.Get("/assignments", list(v.Assignments))
	r.Get("/submissions", list(v.Submissions))
	r.Get("/enrollments", list(v.Enrollments))
	r.Get("/status", list(v.StatusSummary))
	r.Get("/rubric", func(w http.ResponseWriter, r *http.Request) {
		out, err := v.Rosters(r.Context(), 0)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	})

	// GET /extensions -> both override tables and what the merge ignores
	r.Get("/extensions", func(w http.ResponseWriter, r *http.Request) {
		gs, err := v.Extensions(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		canvas, err := v.CanvasExtensions(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"gradescope":  gs,
			"canvas":      canvas,
			"limitations": v.Limitations(),
		})
	})

	r.Route("/courses/{courseID}", func(cr chi.Router) {
		cr.Get("/assignments", byCourse(v.AssignmentStatus))
		cr.Get("/totals", byCourse(v.StudentTotals))
		cr.Get("/rubric", byCourse(func(ctx context.Context, id int64) (rubric.Roster, error) {
			rs, err := v.Rosters(ctx, id)
			if err != nil {
				return rubric.Roster{}, err
			}
			if len(rs) == 0 {
				return rubric.Roster{}, errors.Wrapf(dashboard.ErrNoRubric, "course %d", id)
			}
			return rs[0], nil
		}))

		// GET /courses/{courseID}/grades?thresholds=A:90,B:80,F:0
		cr.Get("/grades", func(w http.ResponseWriter, r *http.Request) {
			id, ok := courseID(w, r)
			if !ok {
				return
			}
			th, err := parseThresholds(r.URL.Query().Get("thresholds"))
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			out, err := v.Grades(r.Context(), id, th)
			if err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, out)
		})
	})
}

func list[T any](fn func(context.Context) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := fn(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	}
}

func byCourse[T any](fn func(context.Context, int64) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := courseID(w, r)
		if !ok {
			return
		}
		out, err := fn(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	}
}

func courseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "courseID"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "bad course id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// parseThresholds reads "A:90,B:80,F:0". Minimums must not increase.
func parseThresholds(s string) ([]rubric.Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []rubric.Threshold
	for _, part := range strings.Split(s, ",") {
		letter, floor, ok := strings.Cut(part, ":")
		letter = strings.TrimSpace(letter)
		if !ok || letter == "" {
			return nil, errors.Errorf("bad threshold %q", part)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(floor), 64)
		if err != nil {
			return nil, errors.Errorf("bad threshold %q", part)
		}
		if n := len(out); n > 0 && v > out[n-1].Min {
			return nil, errors.Errorf("threshold %s is above %s", letter, out[n-1].Letter)
		}
		out = append(out, rubric.Threshold{Letter: letter, Min: v})
	}
	return out, nil
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dashboard.ErrNotFound), errors.Is(err, dashboard.ErrNoRubric):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
