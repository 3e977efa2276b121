package source

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Reader exposes the raw per-platform tables as full scans.
type Reader interface {
	GSStudents(ctx context.Context) ([]GSStudent, error)
	GSCourses(ctx context.Context) ([]GSCourse, error)
	GSAssignments(ctx context.Context) ([]GSAssignment, error)
	GSSubmissions(ctx context.Context) ([]GSSubmission, error)
	GSExtensions(ctx context.Context) ([]GSExtension, error)

	CanvasStudents(ctx context.Context) ([]CanvasStudent, error)
	CanvasCourses(ctx context.Context) ([]CanvasCourse, error)
	CanvasAssignments(ctx context.Context) ([]CanvasAssignment, error)
	CanvasSubmissions(ctx context.Context) ([]CanvasSubmission, error)
	CanvasExtensions(ctx context.Context) ([]CanvasExtension, error)
}

// SQLReader reads the tables created by db.Open.
type SQLReader struct {
	db *sqlx.DB
}

func NewSQLReader(db *sqlx.DB) *SQLReader {
	return &SQLReader{db: db}
}

func selectAll[T any](ctx context.Context, db *sqlx.DB, table, cols string) ([]T, error) {
	var out []T
	if err := db.SelectContext(ctx, &out, `SELECT `+cols+` FROM `+table); err != nil {
		return nil, errors.Wrapf(err, "read %s", table)
	}
	return out, nil
}

func (r *SQLReader) GSStudents(ctx context.Context) ([]GSStudent, error) {
	return selectAll[GSStudent](ctx, r.db, "gs_students",
		`sid, student_id, name, emails, user_id, course_id, role`)
}

func (r *SQLReader) GSCourses(ctx context.Context) ([]GSCourse, error) {
	return selectAll[GSCourse](ctx, r.db, "gs_courses",
		`cid, name, shortname, year, lti`)
}

func (r *SQLReader) GSAssignments(ctx context.Context) ([]GSAssignment, error) {
	return selectAll[GSAssignment](ctx, r.db, "gs_assignments",
		`id, course_id, name, assigned, due`)
}

func (r *SQLReader) GSSubmissions(ctx context.Context) ([]GSSubmission, error) {
	return selectAll[GSSubmission](ctx, r.db, "gs_submissions",
		`first_name, last_name, email, total_score, max_points, status, submission_id,
		 submission_time, lateness, sid, assign_id, course_id`)
}

func (r *SQLReader) GSExtensions(ctx context.Context) ([]GSExtension, error) {
	return selectAll[GSExtension](ctx, r.db, "gs_extensions",
		`user_id, assign_id, course_id, first_name, last_name, email, released_at, due, late_due,
		 time_limit, extension_type`)
}

func (r *SQLReader) CanvasStudents(ctx context.Context) ([]CanvasStudent, error) {
	return selectAll[CanvasStudent](ctx, r.db, "canvas_students",
		`id, sis_user_id, name, email, course_id`)
}

func (r *SQLReader) CanvasCourses(ctx context.Context) ([]CanvasCourse, error) {
	return selectAll[CanvasCourse](ctx, r.db, "canvas_courses",
		`id, name, sis_course_id, start_at, end_at`)
}

func (r *SQLReader) CanvasAssignments(ctx context.Context) ([]CanvasAssignment, error) {
	return selectAll[CanvasAssignment](ctx, r.db, "canvas_assignments",
		`id, course_id, name, unlock_at, due_at, points_possible`)
}

func (r *SQLReader) CanvasSubmissions(ctx context.Context) ([]CanvasSubmission, error) {
	return selectAll[CanvasSubmission](ctx, r.db, "canvas_submissions",
		`id, user_id, assignment_id, score, submitted_at, graded_at, late, seconds_late, points_deducted`)
}

func (r *SQLReader) CanvasExtensions(ctx context.Context) ([]CanvasExtension, error) {
	return selectAll[CanvasExtension](ctx, r.db, "canvas_extensions",
		`id, user_id, assignment_id, course_id, extra_attempts, extra_time, late_due_at, extended_due_at`)
}

// ReadAll loads every table of the requested platforms. Tables of an inactive
// platform are left nil.
func ReadAll(ctx context.Context, r Reader, gradescope, canvas bool) (Tables, error) {
	var (
		t   Tables
		err error
	)
	if gradescope {
		if t.GSStudents, err = r.GSStudents(ctx); err != nil {
			return Tables{}, err
		}
		if t.GSCourses, err = r.GSCourses(ctx); err != nil {
			return Tables{}, err
		}
		if t.GSAssignments, err = r.GSAssignments(ctx); err != nil {
			return Tables{}, err
		}
		if t.GSSubmissions, err = r.GSSubmissions(ctx); err != nil {
			return Tables{}, err
		}
		if t.GSExtensions, err = r.GSExtensions(ctx); err != nil {
			return Tables{}, err
		}
	}
	if canvas {
		if t.CanvasStudents, err = r.CanvasStudents(ctx); err != nil {
			return Tables{}, err
		}
		if t.CanvasCourses, err = r.CanvasCourses(ctx); err != nil {
			return Tables{}, err
		}
		if t.CanvasAssignments, err = r.CanvasAssignments(ctx); err != nil {
			return Tables{}, err
		}
		if t.CanvasSubmissions, err = r.CanvasSubmissions(ctx); err != nil {
			return Tables{}, err
		}
		if t.CanvasExtensions, err = r.CanvasExtensions(ctx); err != nil {
			return Tables{}, err
		}
	}
	return t, nil
}
