// Package enrollment overlays per-student due date extensions onto the
// reconciled submission table.
package enrollment

import (
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/mind-engage/teaching-dashboard/internal/entity"
	"github.com/mind-engage/teaching-dashboard/internal/timeutil"
)

// Limitation describes a known gap in the merge.
type Limitation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CanvasExtensionsNotApplied is reported by every Merger: Canvas overrides are
// listed by the service but never change an effective due date.
var CanvasExtensionsNotApplied = Limitation{
	Code:    "canvas_extensions_not_applied",
	Message: "Canvas assignment overrides are reformatted but not merged into enrollments; effective due dates reflect Gradescope extensions only",
}

type key struct {
	user, assign, course int64
}

// Merger joins Gradescope extensions to submissions on
// (gs_user_id, gs_assignment_id, gs_course_id).
type Merger struct{}

func NewMerger() *Merger { return &Merger{} }

// Limitations lists what Merge does not do.
func (m *Merger) Limitations() []Limitation {
	return []Limitation{CanvasExtensionsNotApplied}
}

// Merge returns one enrollment per submission. Submissions without the full
// Gradescope key pass through with EffectiveDue set to their own due date.
// The first extension for a key wins.
func (m *Merger) Merge(subs []entity.Submission, exts []entity.Extension) []entity.Enrollment {
	byKey := make(map[key]entity.Extension, len(exts))
	for _, e := range exts {
		k, ok := extensionKey(e)
		if !ok {
			continue
		}
		if _, dup := byKey[k]; !dup {
			byKey[k] = e
		}
	}

	var keyed, rest []entity.Enrollment
	for _, s := range subs {
		row := entity.Enrollment{Submission: s, EffectiveDue: s.Due}
		k, ok := submissionKey(s)
		if !ok {
			rest = append(rest, row)
			continue
		}
		if e, hit := byKey[k]; hit {
			row.ExtendedDue = e.Due
			row.ExtendedLate = e.Late
			if e.Due.Valid {
				row.EffectiveDue = e.Due
			}
		}
		keyed = append(keyed, row)
	}

	out := append(keyed, rest...)
	Sort(out)
	return out
}

// Sort orders enrollments by effective due, assignment name, status, score and
// student, nulls first. The sort is stable.
func Sort(rows []entity.Enrollment) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if lessTime(a.EffectiveDue, b.EffectiveDue) || lessTime(b.EffectiveDue, a.EffectiveDue) {
			return lessTime(a.EffectiveDue, b.EffectiveDue)
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Status != b.Status {
			return a.Status < b.Status
		}
		if lessFloat(a.TotalScore, b.TotalScore) || lessFloat(b.TotalScore, a.TotalScore) {
			return lessFloat(a.TotalScore, b.TotalScore)
		}
		return a.Student < b.Student
	})
}

func lessTime(a, b null.Time) bool { return timeutil.Before(a, b) }

func lessFloat(a, b null.Float64) bool {
	switch {
	case !a.Valid:
		return b.Valid
	case !b.Valid:
		return false
	}
	return a.Float64 < b.Float64
}

func extensionKey(e entity.Extension) (key, bool) {
	if !e.GSUserID.Valid || !e.GSAssignmentID.Valid || !e.GSCourseID.Valid {
		return key{}, false
	}
	return key{e.GSUserID.Int64, e.GSAssignmentID.Int64, e.GSCourseID.Int64}, true
}

func submissionKey(s entity.Submission) (key, bool) {
	if !s.GSUserID.Valid || !s.GSAssignmentID.Valid || !s.GSCourseID.Valid {
		return key{}, false
	}
	return key{s.GSUserID.Int64, s.GSAssignmentID.Int64, s.GSCourseID.Int64}, true
}
