package reconcile

import (
	"github.com/volatiletech/null/v8"

	"github.com/mind-engage/teaching-dashboard/internal/entity"
	"github.com/mind-engage/teaching-dashboard/internal/source"
	"github.com/mind-engage/teaching-dashboard/internal/timeutil"
)

// Courses joins Gradescope courses to Canvas courses on the LTI link.
func (r *Reconciler) Courses(t source.Tables) []entity.Course {
	switch {
	case r.Sources.Both():
		return Reconcile(t.GSCourses, t.CanvasCourses,
			func(g source.GSCourse) (int64, bool) { return int64Key(g.LTI) },
			func(c source.CanvasCourse) (int64, bool) { return c.ID, true },
			func(g source.GSCourse, hits []source.CanvasCourse) entity.Course {
				if len(hits) == 0 {
					return gsCourse(g, nil)
				}
				return gsCourse(g, &hits[0])
			},
			canvasCourse,
		)
	case r.Sources.Gradescope:
		return mapAll(t.GSCourses, func(g source.GSCourse) entity.Course { return gsCourse(g, nil) })
	case r.Sources.Canvas:
		return mapAll(t.CanvasCourses, canvasCourse)
	}
	return nil
}

func gsCourse(g source.GSCourse, c *source.CanvasCourse) entity.Course {
	out := entity.Course{
		GSCourseID:     null.Int64From(g.CID),
		CanvasCourseID: g.LTI,
		GSName:         g.Name,
		ShortName:      g.ShortName,
		Term:           g.Year,
	}
	if c == nil {
		out.Name = coalesce(g.Name)
		return out
	}
	out.Name = coalesce(g.Name, c.Name)
	out.CanvasName = c.Name
	out.SISCourseID = c.SISCourseID
	out.StartAt = timeutil.ParseNull(c.StartAt)
	out.EndAt = timeutil.ParseNull(c.EndAt)
	return out
}

func canvasCourse(c source.CanvasCourse) entity.Course {
	return entity.Course{
		CanvasCourseID: null.Int64From(c.ID),
		Name:           coalesce(c.Name),
		CanvasName:     c.Name,
		SISCourseID:    c.SISCourseID,
		StartAt:        timeutil.ParseNull(c.StartAt),
		EndAt:          timeutil.ParseNull(c.EndAt),
	}
}
