package reconcile

import (
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/mind-engage/teaching-dashboard/internal/entity"
	"github.com/mind-engage/teaching-dashboard/internal/source"
)

// Students aligns the Gradescope roster with Canvas enrollments on the
// university id. Staff entries of the Gradescope roster are skipped.
func (r *Reconciler) Students(t source.Tables) []entity.Student {
	lti := make(map[int64]null.Int64, len(t.GSCourses))
	for _, c := range t.GSCourses {
		lti[c.CID] = c.LTI
	}
	var roster []source.GSStudent
	if r.Sources.Gradescope {
		for _, s := range t.GSStudents {
			if isStudentRole(s.Role) {
				roster = append(roster, s)
			}
		}
	}

	switch {
	case r.Sources.Both():
		return Reconcile(roster, t.CanvasStudents,
			func(s source.GSStudent) (int64, bool) { return int64Key(s.StudentID) },
			func(c source.CanvasStudent) (int64, bool) { return int64Key(c.SISUserID) },
			func(s source.GSStudent, hits []source.CanvasStudent) entity.Student {
				course := lti[s.CourseID.Int64]
				c, ok := pick(hits, func(c source.CanvasStudent) bool { return sameID(c.CourseID, course) })
				if !ok {
					return gsStudent(s, course, nil)
				}
				return gsStudent(s, course, &c)
			},
			canvasStudent,
		)
	case r.Sources.Gradescope:
		return mapAll(roster, func(s source.GSStudent) entity.Student {
			return gsStudent(s, lti[s.CourseID.Int64], nil)
		})
	case r.Sources.Canvas:
		return mapAll(t.CanvasStudents, canvasStudent)
	}
	return nil
}

func isStudentRole(role null.String) bool {
	return role.Valid && strings.HasSuffix(strings.ToUpper(strings.TrimSpace(role.String)), "STUDENT")
}

func gsStudent(s source.GSStudent, canvasCourse null.Int64, c *source.CanvasStudent) entity.Student {
	out := entity.Student{
		GSStudentID:    s.SID,
		StudentID:      s.StudentID,
		Name:           coalesce(s.Name),
		Email:          coalesce(s.Emails),
		GSUserID:       s.UserID,
		GSCourseID:     s.CourseID,
		CanvasCourseID: canvasCourse,
	}
	if c != nil {
		out.Name = coalesce(s.Name, c.Name)
		out.Email = coalesce(s.Emails, c.Email)
		out.CanvasSID = null.Int64From(c.ID)
	}
	return out
}

func canvasStudent(c source.CanvasStudent) entity.Student {
	return entity.Student{
		StudentID:      c.SISUserID,
		Name:           coalesce(c.Name),
		Email:          coalesce(c.Email),
		CanvasCourseID: c.CourseID,
		CanvasSID:      null.Int64From(c.ID),
	}
}
