package reconcile

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/mind-engage/teaching-dashboard/internal/entity"
	"github.com/mind-engage/teaching-dashboard/internal/source"
)

type rec struct {
	id   int
	name string
}

func reconcileRecs(a, b []rec) []string {
	key := func(r rec) (int, bool) { return r.id, r.id != 0 }
	return Reconcile(a, b, key, key,
		func(p rec, hits []rec) string { return fmt.Sprintf("%s+%d", p.name, len(hits)) },
		func(s rec) string { return s.name },
	)
}

func TestReconcile_AllMatchedKeepsPrimaryCount(t *testing.T) {
	a := []rec{{1, "a1"}, {2, "a2"}, {3, "a3"}}
	b := []rec{{1, "b1"}, {3, "b3"}}
	got := reconcileRecs(a, b)
	assert.Equal(t, []string{"a1+1", "a2+0", "a3+1"}, got)
	assert.Len(t, got, len(a))
}

func TestReconcile_UnmatchedSecondaryAppended(t *testing.T) {
	a := []rec{{1, "a1"}, {2, "a2"}}
	b := []rec{{1, "b1"}, {9, "b9"}}
	got := reconcileRecs(a, b)
	assert.Len(t, got, len(a)+1)
	assert.Equal(t, "b9", got[len(got)-1])
}

func TestReconcile_MissingKeysNeverDropped(t *testing.T) {
	a := []rec{{0, "a-nokey"}, {1, "a1"}}
	b := []rec{{0, "b-nokey"}, {1, "b1"}}
	got := reconcileRecs(a, b)
	assert.Equal(t, []string{"a-nokey+0", "a1+1", "b-nokey"}, got)
}

func TestReconcile_EmptyInputs(t *testing.T) {
	assert.Empty(t, reconcileRecs(nil, nil))
	assert.Equal(t, []string{"b1"}, reconcileRecs(nil, []rec{{1, "b1"}}))
}

func tables() source.Tables {
	return source.Tables{
		GSCourses: []source.GSCourse{
			{CID: 10, Name: null.StringFrom("Big Data"), ShortName: null.StringFrom("CIS 545"), Year: null.StringFrom("2024"), LTI: null.Int64From(100)},
			{CID: 11, Name: null.StringFrom("Unlinked"), ShortName: null.StringFrom("CIS 000")},
		},
		CanvasCourses: []source.CanvasCourse{
			{ID: 100, Name: null.StringFrom("CIS 545 Canvas"), SISCourseID: null.StringFrom("SIS545"), StartAt: null.StringFrom("2024-08-27T04:00:00Z"), EndAt: null.StringFrom("garbage")},
			{ID: 200, Name: null.StringFrom("Canvas Only")},
		},
		GSStudents: []source.GSStudent{
			{SID: null.Int64From(1), StudentID: null.Int64From(5001), Name: null.StringFrom("Ada"), Emails: null.StringFrom("ada@x.edu"), UserID: null.Int64From(71), CourseID: null.Int64From(10), Role: null.StringFrom("STUDENT")},
			{SID: null.Int64From(2), StudentID: null.Int64From(5002), Name: null.String{}, Emails: null.String{}, UserID: null.Int64From(72), CourseID: null.Int64From(10), Role: null.StringFrom("Student")},
			{SID: null.Int64From(3), StudentID: null.Int64From(9000), Name: null.StringFrom("TA"), UserID: null.Int64From(73), CourseID: null.Int64From(10), Role: null.StringFrom("TA")},
		},
		CanvasStudents: []source.CanvasStudent{
			{ID: 801, SISUserID: null.Int64From(5001), Name: null.StringFrom("Ada L."), Email: null.StringFrom("ada@canvas"), CourseID: null.Int64From(100)},
			{ID: 802, SISUserID: null.Int64From(5002), Name: null.StringFrom("Bob"), Email: null.StringFrom("bob@canvas"), CourseID: null.Int64From(100)},
			{ID: 803, SISUserID: null.Int64From(5003), Name: null.StringFrom("Cy"), Email: null.StringFrom("cy@canvas"), CourseID: null.Int64From(200)},
		},
		GSAssignments: []source.GSAssignment{
			{ID: 31, CourseID: null.Int64From(10), Name: null.StringFrom("HW1"), Assigned: null.StringFrom("2024-09-01 00:00:00"), Due: null.StringFrom("2024-09-10T23:59:00Z")},
			{ID: 32, CourseID: null.Int64From(10), Name: null.StringFrom("HW2"), Due: null.StringFrom("not-a-date")},
		},
		CanvasAssignments: []source.CanvasAssignment{
			{ID: 41, CourseID: null.Int64From(100), Name: null.StringFrom("Quiz 1"), DueAt: null.StringFrom("2024-09-12T23:59:00Z"), PointsPossible: null.Float64From(10)},
		},
		GSSubmissions: []source.GSSubmission{
			{FirstName: null.StringFrom("Ada"), LastName: null.StringFrom("Lovelace"), Email: null.StringFrom("ada@x.edu"), TotalScore: null.Float64From(9), MaxPoints: null.Float64From(10), Status: null.StringFrom("Graded"), SubmissionID: null.Int64From(1), SubmissionTime: null.StringFrom("2024-09-10 20:00:00 -0400"), Lateness: null.StringFrom("00:01:00"), SID: null.Int64From(5001), AssignID: null.Int64From(31), CourseID: null.Int64From(10)},
			{FirstName: null.StringFrom("Bob"), LastName: null.StringFrom("B"), Status: null.StringFrom("Missing"), Lateness: null.StringFrom("00:00:00"), SID: null.Int64From(5002), AssignID: null.Int64From(31), CourseID: null.Int64From(10)},
			{FirstName: null.StringFrom("Ghost"), Status: null.StringFrom("Ungraded"), SID: null.Int64From(7777), AssignID: null.Int64From(99), CourseID: null.Int64From(10)},
		},
		CanvasSubmissions: []source.CanvasSubmission{
			{ID: 61, UserID: null.Int64From(801), AssignmentID: null.Int64From(41), Score: null.Float64From(8), SubmittedAt: null.StringFrom("2024-09-12T10:00:00Z"), GradedAt: null.StringFrom("2024-09-13T10:00:00Z")},
			{ID: 62, UserID: null.Int64From(802), AssignmentID: null.Int64From(41), SubmittedAt: null.StringFrom("2024-09-13T10:00:00Z"), SecondsLate: null.Float64From(3600)},
			{ID: 63, UserID: null.Int64From(999), AssignmentID: null.Int64From(41)},
		},
		GSExtensions: []source.GSExtension{
			{UserID: null.Int64From(71), AssignID: null.Int64From(31), CourseID: null.Int64From(10), FirstName: null.StringFrom("Ada"), LastName: null.StringFrom("Lovelace"), Due: null.StringFrom("Sep 15 2024 11:59 PM"), LateDue: null.StringFrom("No late due date")},
			{UserID: null.Int64From(72), AssignID: null.Int64From(31), CourseID: null.Int64From(10), Due: null.StringFrom("(no change)"), LateDue: null.StringFrom("--")},
		},
		CanvasExtensions: []source.CanvasExtension{
			{ID: 91, UserID: null.Int64From(802), AssignmentID: null.Int64From(41), CourseID: null.Int64From(100), ExtendedDueAt: null.StringFrom("2024-09-20T23:59:00Z")},
		},
	}
}

var both = entity.Sources{Gradescope: true, Canvas: true}

func TestCourses_Both(t *testing.T) {
	got := New(both, nil).Courses(tables())
	require.Len(t, got, 3)

	assert.Equal(t, int64(10), got[0].GSCourseID.Int64)
	assert.Equal(t, int64(100), got[0].CanvasCourseID.Int64)
	assert.Equal(t, "Big Data", got[0].Name)
	assert.Equal(t, "CIS 545 Canvas", got[0].CanvasName.String)
	assert.True(t, got[0].StartAt.Valid)
	assert.False(t, got[0].EndAt.Valid, "unparsable end date must be null")

	assert.False(t, got[1].CanvasCourseID.Valid)
	assert.Equal(t, "Unlinked", got[1].Name)

	assert.False(t, got[2].GSCourseID.Valid)
	assert.Equal(t, int64(200), got[2].CanvasCourseID.Int64)
	assert.Equal(t, "Canvas Only", got[2].Name)
}

func TestCourses_SingleSource(t *testing.T) {
	gs := New(entity.Sources{Gradescope: true}, nil).Courses(tables())
	require.Len(t, gs, 2)
	assert.False(t, gs[0].CanvasName.Valid)
	assert.Equal(t, int64(100), gs[0].CanvasCourseID.Int64)

	cv := New(entity.Sources{Canvas: true}, nil).Courses(tables())
	require.Len(t, cv, 2)
	for _, c := range cv {
		assert.False(t, c.GSCourseID.Valid)
		assert.False(t, c.GSName.Valid)
	}

	assert.Nil(t, New(entity.Sources{}, nil).Courses(tables()))
}

func TestStudents_Both(t *testing.T) {
	got := New(both, nil).Students(tables())
	// two Gradescope students (TA skipped) + one Canvas-only
	require.Len(t, got, 3)

	ada := got[0]
	assert.Equal(t, "Ada", ada.Name, "Gradescope name wins")
	assert.Equal(t, "ada@x.edu", ada.Email)
	assert.Equal(t, int64(801), ada.CanvasSID.Int64)
	assert.Equal(t, int64(100), ada.CanvasCourseID.Int64)

	bob := got[1]
	assert.Equal(t, "Bob", bob.Name, "Canvas fills a blank Gradescope name")
	assert.Equal(t, "bob@canvas", bob.Email)

	cy := got[2]
	assert.False(t, cy.GSStudentID.Valid)
	assert.Equal(t, int64(5003), cy.StudentID.Int64)
	assert.Equal(t, int64(200), cy.CanvasCourseID.Int64)
}

func TestStudents_PrefersSameCourseMatch(t *testing.T) {
	tb := tables()
	tb.CanvasStudents = append([]source.CanvasStudent{
		{ID: 700, SISUserID: null.Int64From(5001), Name: null.StringFrom("Ada other"), CourseID: null.Int64From(555)},
	}, tb.CanvasStudents...)
	got := New(both, nil).Students(tb)
	assert.Equal(t, int64(801), got[0].CanvasSID.Int64)
	assert.Len(t, got, 3, "a second canvas enrollment of a matched student is not duplicated")
}

func TestStudents_GradescopeOnly(t *testing.T) {
	got := New(entity.Sources{Gradescope: true}, nil).Students(tables())
	require.Len(t, got, 2)
	for _, s := range got {
		assert.False(t, s.CanvasSID.Valid)
	}
}

func TestAssignments(t *testing.T) {
	got := New(both, nil).Assignments(tables())
	require.Len(t, got, 3)
	assert.Equal(t, source.Gradescope, got[0].Source)
	assert.Equal(t, int64(100), got[0].CanvasCourseID.Int64)
	assert.True(t, got[0].Due.Valid)
	assert.True(t, got[0].Assigned.Valid)
	assert.False(t, got[1].Due.Valid, "not-a-date due must be null")

	assert.Equal(t, source.Canvas, got[2].Source)
	assert.Equal(t, int64(10), got[2].GSCourseID.Int64)
	assert.Equal(t, 10.0, got[2].CanvasMaxPoints.Float64)
}

func TestSubmissions_Both(t *testing.T) {
	got := New(both, nil).Submissions(tables())
	require.Len(t, got, 6, "no submission is dropped")

	ada := got[0]
	assert.Equal(t, "Ada Lovelace", ada.Student)
	assert.Equal(t, entity.StatusGraded, ada.Status)
	assert.True(t, ada.Late)
	assert.Equal(t, int64(71), ada.GSUserID.Int64)
	assert.Equal(t, int64(100), ada.CanvasCourseID.Int64)
	assert.Equal(t, "CIS 545", ada.CourseName.String)
	assert.Equal(t, "HW1", ada.Name)
	assert.True(t, ada.SubmissionTime.Time.Equal(time.Date(2024, 9, 11, 0, 0, 0, 0, time.UTC)))

	bob := got[1]
	assert.Equal(t, entity.StatusMissing, bob.Status)
	assert.False(t, bob.Late)

	ghost := got[2]
	assert.Equal(t, entity.StatusSubmitted, ghost.Status)
	assert.False(t, ghost.GSUserID.Valid)
	assert.Equal(t, int64(7777), ghost.StudentID.Int64)
	assert.Empty(t, ghost.Name)

	c1 := got[3]
	assert.Equal(t, source.Canvas, c1.Source)
	assert.Equal(t, entity.StatusGraded, c1.Status)
	assert.Equal(t, 10.0, c1.MaxPoints.Float64)
	assert.Equal(t, int64(10), c1.GSCourseID.Int64)
	assert.Equal(t, int64(71), c1.GSUserID.Int64)
	assert.Equal(t, "CIS 545", c1.CourseName.String)

	c2 := got[4]
	assert.Equal(t, entity.StatusSubmitted, c2.Status)
	assert.True(t, c2.Late)

	orphan := got[5]
	assert.Equal(t, entity.StatusMissing, orphan.Status)
	assert.False(t, orphan.StudentID.Valid)
}

func TestSubmissions_CanvasOnly(t *testing.T) {
	got := New(entity.Sources{Canvas: true}, nil).Submissions(tables())
	require.Len(t, got, 3)
	assert.False(t, got[0].GSUserID.Valid)
	assert.False(t, got[0].GSCourseID.Valid)
	assert.Equal(t, "CIS 545 Canvas", got[0].CourseName.String)
}

func TestExtensions(t *testing.T) {
	got := New(both, time.UTC).Extensions(tables())
	require.Len(t, got, 2)
	assert.True(t, got[0].Due.Valid)
	assert.True(t, got[0].Due.Time.Equal(time.Date(2024, 9, 15, 23, 59, 0, 0, time.UTC)))
	assert.False(t, got[0].Late.Valid)
	assert.False(t, got[1].Due.Valid)
	assert.False(t, got[1].Late.Valid)

	cv := New(both, nil).CanvasExtensions(tables())
	require.Len(t, cv, 1)
	assert.True(t, cv[0].ExtendedDue.Valid)

	assert.Nil(t, New(entity.Sources{Canvas: true}, nil).Extensions(tables()))
}
