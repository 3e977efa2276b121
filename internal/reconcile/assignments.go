package reconcile

import (
	"github.com/volatiletech/null/v8"

	"github.com/mind-engage/teaching-dashboard/internal/entity"
	"github.com/mind-engage/teaching-dashboard/internal/source"
	"github.com/mind-engage/teaching-dashboard/internal/timeutil"
)

// Assignments lists both catalogs. The platforms do not share assignment ids,
// so nothing is matched; each row only gains the other platform's course id.
func (r *Reconciler) Assignments(t source.Tables) []entity.Assignment {
	var out []entity.Assignment
	if r.Sources.Gradescope {
		lti := make(map[int64]null.Int64, len(t.GSCourses))
		for _, c := range t.GSCourses {
			lti[c.CID] = c.LTI
		}
		for _, a := range t.GSAssignments {
			out = append(out, entity.Assignment{
				GSAssignmentID: null.Int64From(a.ID),
				GSCourseID:     a.CourseID,
				CanvasCourseID: lti[a.CourseID.Int64],
				Name:           coalesce(a.Name),
				Assigned:       timeutil.ParseNull(a.Assigned),
				Due:            timeutil.ParseNull(a.Due),
				Source:         source.Gradescope,
			})
		}
	}
	if r.Sources.Canvas {
		var byLTI map[int64][]source.GSCourse
		if r.Sources.Gradescope {
			byLTI = index(t.GSCourses, func(c source.GSCourse) (int64, bool) { return int64Key(c.LTI) })
		}
		for _, a := range t.CanvasAssignments {
			row := entity.Assignment{
				CanvasAssignmentID: null.Int64From(a.ID),
				CanvasCourseID:     a.CourseID,
				Name:               coalesce(a.Name),
				Assigned:           timeutil.ParseNull(a.UnlockAt),
				Due:                timeutil.ParseNull(a.DueAt),
				CanvasMaxPoints:    a.PointsPossible,
				Source:             source.Canvas,
			}
			if a.CourseID.Valid {
				if gs := byLTI[a.CourseID.Int64]; len(gs) > 0 {
					row.GSCourseID = null.Int64From(gs[0].CID)
				}
			}
			out = append(out, row)
		}
	}
	return out
}
