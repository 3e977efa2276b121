// Package entity holds the unified, cross-platform views produced by
// package reconcile. Identity fields come in pairs (Gradescope, Canvas); either
// side may be null.
package entity

import (
	"encoding/json"
	"strings"

	"github.com/volatiletech/null/v8"
)

type Status int

const (
	StatusMissing Status = iota
	StatusSubmitted
	StatusGraded
)

func (s Status) String() string {
	switch s {
	case StatusSubmitted:
		return "Submitted"
	case StatusGraded:
		return "Graded"
	default:
		return "Missing"
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// ParseStatus maps a Gradescope status string. Empty input is reported as not ok.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return StatusMissing, false
	case "missing":
		return StatusMissing, true
	case "graded":
		return StatusGraded, true
	default:
		return StatusSubmitted, true
	}
}

// Sources selects which platforms feed the unified tables.
type Sources struct {
	Gradescope bool `json:"gradescope"`
	Canvas     bool `json:"canvas"`
}

func (s Sources) Both() bool { return s.Gradescope && s.Canvas }

// Label is the product name used in page titles, e.g. "Gradescope-Canvas".
func (s Sources) Label() string {
	var parts []string
	if s.Gradescope {
		parts = append(parts, "Gradescope")
	}
	if s.Canvas {
		parts = append(parts, "Canvas")
	}
	return strings.Join(parts, "-")
}

type Course struct {
	GSCourseID     null.Int64  `json:"gs_course_id"`
	CanvasCourseID null.Int64  `json:"canvas_course_id"`
	Name           string      `json:"name"`
	GSName         null.String `json:"gs_name"`
	CanvasName     null.String `json:"canvas_name"`
	ShortName      null.String `json:"shortname"`
	Term           null.String `json:"term"`
	SISCourseID    null.String `json:"sis_course_id"`
	StartAt        null.Time   `json:"start_at"`
	EndAt          null.Time   `json:"end_at"`
}

// Matches reports whether either identity of c equals the given pair.
func (c Course) Matches(gsCourseID, canvasCourseID null.Int64) bool {
	if c.GSCourseID.Valid && gsCourseID.Valid && c.GSCourseID.Int64 == gsCourseID.Int64 {
		return true
	}
	return c.CanvasCourseID.Valid && canvasCourseID.Valid && c.CanvasCourseID.Int64 == canvasCourseID.Int64
}

type Student struct {
	GSStudentID    null.Int64 `json:"gs_student_id"`
	StudentID      null.Int64 `json:"student_id"`
	Name           string     `json:"student"`
	Email          string     `json:"email"`
	GSUserID       null.Int64 `json:"gs_user_id"`
	GSCourseID     null.Int64 `json:"gs_course_id"`
	CanvasCourseID null.Int64 `json:"canvas_course_id"`
	CanvasSID      null.Int64 `json:"canvas_sid"`
}

type Assignment struct {
	GSAssignmentID     null.Int64   `json:"gs_assignment_id"`
	CanvasAssignmentID null.Int64   `json:"canvas_assignment_id"`
	GSCourseID         null.Int64   `json:"gs_course_id"`
	CanvasCourseID     null.Int64   `json:"canvas_course_id"`
	Name               string       `json:"name"`
	Assigned           null.Time    `json:"assigned"`
	Due                null.Time    `json:"due"`
	CanvasMaxPoints    null.Float64 `json:"canvas_max_points"`
	Source             string       `json:"source"`
}

type Submission struct {
	Student            string       `json:"student"`
	Email              string       `json:"email"`
	TotalScore         null.Float64 `json:"total_score"`
	MaxPoints          null.Float64 `json:"max_points"`
	Status             Status       `json:"status"`
	GSSubmissionID     null.Int64   `json:"gs_submission_id"`
	CanvasSubmissionID null.Int64   `json:"canvas_submission_id"`
	SubmissionTime     null.Time    `json:"submission_time"`
	Due                null.Time    `json:"due"`
	StudentID          null.Int64   `json:"student_id"`
	GSAssignmentID     null.Int64   `json:"gs_assignment_id"`
	CanvasAssignmentID null.Int64   `json:"canvas_assignment_id"`
	Name               string       `json:"name"`
	GSStudentID        null.Int64   `json:"gs_student_id"`
	GSUserID           null.Int64   `json:"gs_user_id"`
	GSCourseID         null.Int64   `json:"gs_course_id"`
	CanvasCourseID     null.Int64   `json:"canvas_course_id"`
	Late               bool         `json:"late"`
	PointsDeducted     null.Float64 `json:"points_deducted"`
	CourseName         null.String  `json:"course_name"`
	Source             string       `json:"source"`
}

// Extension is a Gradescope per-student due date override.
type Extension struct {
	GSUserID       null.Int64  `json:"gs_user_id"`
	GSAssignmentID null.Int64  `json:"gs_assignment_id"`
	GSCourseID     null.Int64  `json:"gs_course_id"`
	Student        string      `json:"student"`
	Email          null.String `json:"email"`
	Due            null.Time   `json:"due"`
	Late           null.Time   `json:"late"`
}

// CanvasExtension is a reformatted Canvas assignment override. These are
// listed but not applied to due dates.
type CanvasExtension struct {
	ExtensionID   int64      `json:"extension_id"`
	StudentSID    null.Int64 `json:"sid"`
	AssignmentID  null.Int64 `json:"assign_id"`
	CourseID      null.Int64 `json:"course_id"`
	ExtraAttempts null.Int64 `json:"extra_attempts"`
	ExtraTime     null.Int64 `json:"extra_time"`
	ExtendedDue   null.Time  `json:"extended_due"`
	LateDue       null.Time  `json:"late_due"`
}

// Enrollment is a submission with any extension applied.
type Enrollment struct {
	Submission
	ExtendedDue  null.Time `json:"extended_due"`
	ExtendedLate null.Time `json:"extended_late"`
	EffectiveDue null.Time `json:"effective_due"`
}
