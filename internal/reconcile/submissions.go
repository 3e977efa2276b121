package reconcile

import (
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/mind-engage/teaching-dashboard/internal/entity"
	"github.com/mind-engage/teaching-dashboard/internal/source"
	"github.com/mind-engage/teaching-dashboard/internal/timeutil"
)

// Submissions emits the Gradescope lineage followed by the Canvas lineage.
// Lookups that miss leave the corresponding fields null; the submission is
// still emitted.
func (r *Reconciler) Submissions(t source.Tables) []entity.Submission {
	var out []entity.Submission
	if r.Sources.Gradescope {
		out = append(out, gsSubmissions(t)...)
	}
	if r.Sources.Canvas {
		out = append(out, canvasSubmissions(t, r.Sources.Gradescope)...)
	}
	return out
}

func gsSubmissions(t source.Tables) []entity.Submission {
	students := index(t.GSStudents, func(s source.GSStudent) (int64, bool) { return int64Key(s.StudentID) })
	courses := index(t.GSCourses, func(c source.GSCourse) (int64, bool) { return c.CID, true })
	assigns := index(t.GSAssignments, func(a source.GSAssignment) (int64, bool) { return a.ID, true })

	out := make([]entity.Submission, 0, len(t.GSSubmissions))
	for _, s := range t.GSSubmissions {
		row := entity.Submission{
			Student:        strings.TrimSpace(coalesce(s.FirstName) + " " + coalesce(s.LastName)),
			Email:          coalesce(s.Email),
			TotalScore:     s.TotalScore,
			MaxPoints:      s.MaxPoints,
			GSSubmissionID: s.SubmissionID,
			SubmissionTime: timeutil.ParseNull(s.SubmissionTime),
			StudentID:      s.SID,
			GSAssignmentID: s.AssignID,
			GSCourseID:     s.CourseID,
			Late:           gsLate(s.Lateness),
			PointsDeducted: null.Float64From(0),
			Source:         source.Gradescope,
		}
		row.Status = gsStatus(s.Status, row.SubmissionTime)

		if st, ok := pick(students[s.SID.Int64], func(st source.GSStudent) bool { return sameID(st.CourseID, s.CourseID) }); ok && s.SID.Valid {
			row.StudentID = st.StudentID
			row.GSStudentID = st.SID
			row.GSUserID = st.UserID
		}
		if cs := courses[s.CourseID.Int64]; s.CourseID.Valid && len(cs) > 0 {
			row.CanvasCourseID = cs[0].LTI
			row.CourseName = cs[0].ShortName
		}
		if as := assigns[s.AssignID.Int64]; s.AssignID.Valid && len(as) > 0 {
			row.Name = coalesce(as[0].Name)
			row.Due = timeutil.ParseNull(as[0].Due)
		}
		out = append(out, row)
	}
	return out
}

func canvasSubmissions(t source.Tables, withGradescope bool) []entity.Submission {
	students := index(t.CanvasStudents, func(s source.CanvasStudent) (int64, bool) { return s.ID, true })
	assigns := index(t.CanvasAssignments, func(a source.CanvasAssignment) (int64, bool) { return a.ID, true })
	courses := index(t.CanvasCourses, func(c source.CanvasCourse) (int64, bool) { return c.ID, true })
	var (
		gsStudents map[int64][]source.GSStudent
		gsByLTI    map[int64][]source.GSCourse
	)
	if withGradescope {
		gsStudents = index(t.GSStudents, func(s source.GSStudent) (int64, bool) { return int64Key(s.StudentID) })
		gsByLTI = index(t.GSCourses, func(c source.GSCourse) (int64, bool) { return int64Key(c.LTI) })
	}

	out := make([]entity.Submission, 0, len(t.CanvasSubmissions))
	for _, s := range t.CanvasSubmissions {
		row := entity.Submission{
			TotalScore:         s.Score,
			CanvasSubmissionID: null.Int64From(s.ID),
			SubmissionTime:     timeutil.ParseNull(s.SubmittedAt),
			CanvasAssignmentID: s.AssignmentID,
			Late:               canvasLate(s.Late, s.SecondsLate),
			PointsDeducted:     s.PointsDeducted,
			Status:             canvasStatus(s.GradedAt, s.SubmittedAt),
			Source:             source.Canvas,
		}
		if st := students[s.UserID.Int64]; s.UserID.Valid && len(st) > 0 {
			row.Student = coalesce(st[0].Name)
			row.Email = coalesce(st[0].Email)
			row.StudentID = st[0].SISUserID
		}
		if as := assigns[s.AssignmentID.Int64]; s.AssignmentID.Valid && len(as) > 0 {
			a := as[0]
			row.Name = coalesce(a.Name)
			row.MaxPoints = a.PointsPossible
			row.Due = timeutil.ParseNull(a.DueAt)
			row.CanvasCourseID = a.CourseID
		}
		if cs := courses[row.CanvasCourseID.Int64]; row.CanvasCourseID.Valid && len(cs) > 0 {
			row.CourseName = cs[0].Name
		}

		if withGradescope {
			var gsCourse null.Int64
			if cs := gsByLTI[row.CanvasCourseID.Int64]; row.CanvasCourseID.Valid && len(cs) > 0 {
				gsCourse = null.Int64From(cs[0].CID)
				row.GSCourseID = gsCourse
				row.CourseName = cs[0].ShortName
			}
			if row.StudentID.Valid {
				if gst, ok := pick(gsStudents[row.StudentID.Int64], func(g source.GSStudent) bool { return sameID(g.CourseID, gsCourse) }); ok {
					row.GSStudentID = gst.SID
					row.GSUserID = gst.UserID
				}
			}
		}
		out = append(out, row)
	}
	return out
}

// gsStatus reads the explicit Gradescope status, falling back to the
// submission time when the export left it blank.
func gsStatus(s null.String, submitted null.Time) entity.Status {
	if st, ok := entity.ParseStatus(s.String); ok && s.Valid {
		return st
	}
	if submitted.Valid {
		return entity.StatusSubmitted
	}
	return entity.StatusMissing
}

func gsLate(lateness null.String) bool {
	if !lateness.Valid {
		return false
	}
	d, ok := timeutil.ParseLateness(lateness.String)
	return ok && d > 0
}

func canvasStatus(gradedAt, submittedAt null.String) entity.Status {
	switch {
	case gradedAt.Valid && strings.TrimSpace(gradedAt.String) != "":
		return entity.StatusGraded
	case submittedAt.Valid && strings.TrimSpace(submittedAt.String) != "":
		return entity.StatusSubmitted
	}
	return entity.StatusMissing
}

func canvasLate(late null.Bool, secondsLate null.Float64) bool {
	return (late.Valid && late.Bool) || (secondsLate.Valid && secondsLate.Float64 > 0)
}
