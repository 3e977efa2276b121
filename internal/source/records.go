// Package source exposes the raw Gradescope and Canvas tables as typed records.
// Columns are kept as exported by each platform; normalization happens in
// package reconcile.
package source

import "github.com/volatiletech/null/v8"

const (
	Gradescope = "Gradescope"
	Canvas     = "Canvas"
)

// --- Gradescope ---

type GSStudent struct {
	SID       null.Int64  `db:"sid"`        // Gradescope student id
	StudentID null.Int64  `db:"student_id"` // university id
	Name      null.String `db:"name"`
	Emails    null.String `db:"emails"`
	UserID    null.Int64  `db:"user_id"`
	CourseID  null.Int64  `db:"course_id"`
	Role      null.String `db:"role"`
}

type GSCourse struct {
	CID       int64       `db:"cid"`
	Name      null.String `db:"name"`
	ShortName null.String `db:"shortname"`
	Year      null.String `db:"year"`
	LTI       null.Int64  `db:"lti"` // linked Canvas course id
}

type GSAssignment struct {
	ID       int64       `db:"id"`
	CourseID null.Int64  `db:"course_id"`
	Name     null.String `db:"name"`
	Assigned null.String `db:"assigned"`
	Due      null.String `db:"due"`
}

type GSSubmission struct {
	FirstName      null.String  `db:"first_name"`
	LastName       null.String  `db:"last_name"`
	Email          null.String  `db:"email"`
	TotalScore     null.Float64 `db:"total_score"`
	MaxPoints      null.Float64 `db:"max_points"`
	Status         null.String  `db:"status"`
	SubmissionID   null.Int64   `db:"submission_id"`
	SubmissionTime null.String  `db:"submission_time"`
	Lateness       null.String  `db:"lateness"` // H:M:S
	SID            null.Int64   `db:"sid"`      // university id, as in the export
	AssignID       null.Int64   `db:"assign_id"`
	CourseID       null.Int64   `db:"course_id"`
}

type GSExtension struct {
	UserID        null.Int64  `db:"user_id"`
	AssignID      null.Int64  `db:"assign_id"`
	CourseID      null.Int64  `db:"course_id"`
	FirstName     null.String `db:"first_name"`
	LastName      null.String `db:"last_name"`
	Email         null.String `db:"email"`
	Release       null.String `db:"released_at"`
	Due           null.String `db:"due"`
	LateDue       null.String `db:"late_due"`
	TimeLimit     null.String `db:"time_limit"`
	ExtensionType null.String `db:"extension_type"`
}

// --- Canvas ---

type CanvasStudent struct {
	ID        int64       `db:"id"`
	SISUserID null.Int64  `db:"sis_user_id"`
	Name      null.String `db:"name"`
	Email     null.String `db:"email"`
	CourseID  null.Int64  `db:"course_id"`
}

type CanvasCourse struct {
	ID          int64       `db:"id"`
	Name        null.String `db:"name"`
	SISCourseID null.String `db:"sis_course_id"`
	StartAt     null.String `db:"start_at"`
	EndAt       null.String `db:"end_at"`
}

type CanvasAssignment struct {
	ID             int64        `db:"id"`
	CourseID       null.Int64   `db:"course_id"`
	Name           null.String  `db:"name"`
	UnlockAt       null.String  `db:"unlock_at"`
	DueAt          null.String  `db:"due_at"`
	PointsPossible null.Float64 `db:"points_possible"`
}

type CanvasSubmission struct {
	ID             int64        `db:"id"`
	UserID         null.Int64   `db:"user_id"` // canvas_students.id
	AssignmentID   null.Int64   `db:"assignment_id"`
	Score          null.Float64 `db:"score"`
	SubmittedAt    null.String  `db:"submitted_at"`
	GradedAt       null.String  `db:"graded_at"`
	Late           null.Bool    `db:"late"`
	SecondsLate    null.Float64 `db:"seconds_late"`
	PointsDeducted null.Float64 `db:"points_deducted"`
}

type CanvasExtension struct {
	ID            int64       `db:"id"`
	UserID        null.Int64  `db:"user_id"`
	AssignmentID  null.Int64  `db:"assignment_id"`
	CourseID      null.Int64  `db:"course_id"`
	ExtraAttempts null.Int64  `db:"extra_attempts"`
	ExtraTime     null.Int64  `db:"extra_time"`
	LateDueAt     null.String `db:"late_due_at"`
	ExtendedDueAt null.String `db:"extended_due_at"`
}

// Tables is one full read of both platforms.
type Tables struct {
	GSStudents    []GSStudent
	GSCourses     []GSCourse
	GSAssignments []GSAssignment
	GSSubmissions []GSSubmission
	GSExtensions  []GSExtension

	CanvasStudents    []CanvasStudent
	CanvasCourses     []CanvasCourse
	CanvasAssignments []CanvasAssignment
	CanvasSubmissions []CanvasSubmission
	CanvasExtensions  []CanvasExtension
}
