package reconcile

import (
	"strings"

	"github.com/mind-engage/teaching-dashboard/internal/entity"
	"github.com/mind-engage/teaching-dashboard/internal/source"
	"github.com/mind-engage/teaching-dashboard/internal/timeutil"
)

// Extensions returns the Gradescope extensions with due and late dates parsed
// in the reconciler's zone. Placeholders such as "(no change)" become null.
func (r *Reconciler) Extensions(t source.Tables) []entity.Extension {
	if !r.Sources.Gradescope {
		return nil
	}
	return mapAll(t.GSExtensions, func(e source.GSExtension) entity.Extension {
		return entity.Extension{
			GSUserID:       e.UserID,
			GSAssignmentID: e.AssignID,
			GSCourseID:     e.CourseID,
			Student:        strings.TrimSpace(coalesce(e.FirstName) + " " + coalesce(e.LastName)),
			Email:          e.Email,
			Due:            timeutil.ParseExtension(e.Due, r.Location),
			Late:           timeutil.ParseExtension(e.LateDue, r.Location),
		}
	})
}

// CanvasExtensions reformats the Canvas override table. These rows are not
// applied to enrollments; see enrollment.Merger.
func (r *Reconciler) CanvasExtensions(t source.Tables) []entity.CanvasExtension {
	if !r.Sources.Canvas {
		return nil
	}
	return mapAll(t.CanvasExtensions, func(e source.CanvasExtension) entity.CanvasExtension {
		return entity.CanvasExtension{
			ExtensionID:   e.ID,
			StudentSID:    e.UserID,
			AssignmentID:  e.AssignmentID,
			CourseID:      e.CourseID,
			ExtraAttempts: e.ExtraAttempts,
			ExtraTime:     e.ExtraTime,
			ExtendedDue:   timeutil.ParseNull(e.ExtendedDueAt),
			LateDue:       timeutil.ParseNull(e.LateDueAt),
		}
	})
}
