package dashboard

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mind-engage/teaching-dashboard/internal/entity"
	"github.com/mind-engage/teaching-dashboard/internal/rubric"
	"github.com/mind-engage/teaching-dashboard/internal/status"
)

// MaxMailto bounds the recipients of a generated mailto link.
const MaxMailto = 20

// CourseStatus is one line of the overview: per Gradescope course, how many
// enrollments are overdue, near due and submitted.
type CourseStatus struct {
	GSCourseID int64  `json:"gs_course_id"`
	Course     string `json:"course"`
	Overdue    int    `json:"overdue"`
	NearDue    int    `json:"near_due"`
	Submitted  int    `json:"submitted"`
}

func (ss *Session) StatusSummary(ctx context.Context) ([]CourseStatus, error) {
	return memo(ss, ss.key("status_summary"), func() ([]CourseStatus, error) {
		rows, err := ss.Enrollments(ctx)
		if err != nil {
			return nil, err
		}
		courses, err := ss.Courses(ctx)
		if err != nil {
			return nil, err
		}
		known := make(map[int64]struct{}, len(courses))
		for _, c := range courses {
			if c.GSCourseID.Valid {
				known[c.GSCourseID.Int64] = struct{}{}
			}
		}

		c := ss.svc.classifier
		byID := map[int64]*CourseStatus{}
		for _, e := range rows {
			if !e.GSCourseID.Valid {
				continue
			}
			if _, ok := known[e.GSCourseID.Int64]; !ok {
				continue
			}
			cs, ok := byID[e.GSCourseID.Int64]
			if !ok {
				cs = &CourseStatus{GSCourseID: e.GSCourseID.Int64}
				byID[e.GSCourseID.Int64] = cs
			}
			if cs.Course == "" && e.CourseName.Valid {
				cs.Course = e.CourseName.String
			}
			if c.IsOverdue(e, e.Due) {
				cs.Overdue++
			}
			if c.IsNearDue(e, e.Due) {
				cs.NearDue++
			}
			if c.IsSubmitted(e) {
				cs.Submitted++
			}
		}
		out := make([]CourseStatus, 0, len(byID))
		for _, cs := range byID {
			out = append(out, *cs)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].GSCourseID < out[j].GSCourseID })
		return out, nil
	})
}

// StatusRow is an enrollment with its classification.
type StatusRow struct {
	entity.Enrollment
	Overdue   bool `json:"overdue"`
	NearDue   bool `json:"near_due"`
	Submitted bool `json:"submitted"`
}

// AssignmentReport lists the students of one already-due assignment.
type AssignmentReport struct {
	Name           string      `json:"name"`
	Source         string      `json:"source"`
	GSAssignmentID null.Int64  `json:"gs_assignment_id"`
	CanvasID       null.Int64  `json:"canvas_assignment_id"`
	Due            time.Time   `json:"due"`
	Rows           []StatusRow `json:"rows"`
	OverdueEmails  []string    `json:"overdue_emails"`
	NearDueEmails  []string    `json:"near_due_emails"`
	// Mailto links are only set for 1 to MaxMailto recipients.
	OverdueMailto string `json:"overdue_mailto,omitempty"`
	NearDueMailto string `json:"near_due_mailto,omitempty"`
}

// AssignmentStatus reports every assignment of the course whose due date has
// passed, in due order. Assignments without a due date are left out.
func (ss *Session) AssignmentStatus(ctx context.Context, courseID int64) ([]AssignmentReport, error) {
	return memo(ss, ss.key("assignment_status", courseID), func() ([]AssignmentReport, error) {
		course, err := ss.course(ctx, courseID)
		if err != nil {
			return nil, err
		}
		rows, err := ss.Enrollments(ctx)
		if err != nil {
			return nil, err
		}

		type akey struct {
			source     string
			gs, canvas int64
			name       string
		}
		now := ss.svc.now()
		c := ss.svc.classifier
		idx := map[akey]int{}
		var out []AssignmentReport
		for _, e := range rows {
			if !course.Matches(e.GSCourseID, e.CanvasCourseID) {
				continue
			}
			k := akey{e.Source, e.GSAssignmentID.Int64, e.CanvasAssignmentID.Int64, e.Name}
			i, ok := idx[k]
			if !ok {
				if !e.Due.Valid || now.Before(e.Due.Time) {
					continue
				}
				i = len(out)
				idx[k] = i
				out = append(out, AssignmentReport{
					Name:           e.Name,
					Source:         e.Source,
					GSAssignmentID: e.GSAssignmentID,
					CanvasID:       e.CanvasAssignmentID,
					Due:            e.Due.Time,
				})
			}
			r := &out[i]
			due := null.TimeFrom(r.Due)
			row := StatusRow{
				Enrollment: e,
				Overdue:    c.IsOverdue(e, due),
				NearDue:    c.IsNearDue(e, due),
				Submitted:  c.IsSubmitted(e),
			}
			if row.Overdue && e.Email != "" {
				r.OverdueEmails = append(r.OverdueEmails, e.Email)
			}
			if row.NearDue && e.Email != "" {
				r.NearDueEmails = append(r.NearDueEmails, e.Email)
			}
			r.Rows = append(r.Rows, row)
		}

		name := strings.TrimSpace(course.Name)
		for i := range out {
			r := &out[i]
			r.OverdueMailto = mailto(r.OverdueEmails, "Late homework",
				fmt.Sprintf("Hi, we have not received your submission for %s for %s. Please let us know if you need special accommodation.", r.Name, name))
			r.NearDueMailto = mailto(r.NearDueEmails, "Approaching deadline",
				fmt.Sprintf("Hi, as a reminder, %s for %s is nearly due. Please let us know if you need special accommodation.", r.Name, name))
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Due.Before(out[j].Due) })
		return out, nil
	})
}

func mailto(to []string, subject, body string) string {
	if len(to) == 0 || len(to) >= MaxMailto {
		return ""
	}
	q := url.Values{}
	q.Set("subject", subject)
	q.Set("body", body)
	u := url.URL{Scheme: "mailto", Opaque: strings.Join(to, ","), RawQuery: strings.ReplaceAll(q.Encode(), "+", "%20")}
	return u.String()
}

type StudentTotal struct {
	Student      string  `json:"student"`
	Email        string  `json:"email"`
	TotalScore   float64 `json:"total_score"`
	BelowMean    bool    `json:"below_mean"`
	FarBelowMean bool    `json:"far_below_mean"`
}

type Totals struct {
	Course   entity.Course  `json:"course"`
	Students []StudentTotal `json:"students"`
	Mean     float64        `json:"mean"`
	Max      float64        `json:"max"`
}

// StudentTotals sums every submission score of the course per student,
// lowest first, and flags totals under the course mean.
func (ss *Session) StudentTotals(ctx context.Context, courseID int64) (Totals, error) {
	return memo(ss, ss.key("student_totals", courseID), func() (Totals, error) {
		course, err := ss.course(ctx, courseID)
		if err != nil {
			return Totals{}, err
		}
		subs, err := ss.Submissions(ctx)
		if err != nil {
			return Totals{}, err
		}
		type skey struct{ email, student string }
		idx := map[skey]int{}
		out := Totals{Course: course}
		for _, s := range subs {
			if !course.Matches(s.GSCourseID, s.CanvasCourseID) {
				continue
			}
			k := skey{s.Email, s.Student}
			i, ok := idx[k]
			if !ok {
				i = len(out.Students)
				idx[k] = i
				out.Students = append(out.Students, StudentTotal{Student: s.Student, Email: s.Email})
			}
			if s.TotalScore.Valid {
				out.Students[i].TotalScore += s.TotalScore.Float64
			}
		}
		if len(out.Students) == 0 {
			return out, nil
		}
		sum := 0.0
		out.Max = out.Students[0].TotalScore
		for _, st := range out.Students {
			sum += st.TotalScore
			if st.TotalScore > out.Max {
				out.Max = st.TotalScore
			}
		}
		out.Mean = sum / float64(len(out.Students))
		for i := range out.Students {
			v := null.Float64From(out.Students[i].TotalScore)
			out.Students[i].BelowMean = status.IsBelowMean(v, out.Mean)
			out.Students[i].FarBelowMean = status.IsFarBelowMean(v, out.Mean)
		}
		sort.SliceStable(out.Students, func(i, j int) bool {
			return out.Students[i].TotalScore < out.Students[j].TotalScore
		})
		return out, nil
	})
}

// Rosters aggregates the rubric of the given course, or of every course when
// courseID is zero. Courses without a rubric are skipped.
func (ss *Session) Rosters(ctx context.Context, courseID int64) ([]rubric.Roster, error) {
	return memo(ss, ss.key("rosters", courseID), func() ([]rubric.Roster, error) {
		var courses []entity.Course
		if courseID != 0 {
			c, err := ss.course(ctx, courseID)
			if err != nil {
				return nil, err
			}
			courses = []entity.Course{c}
		} else {
			all, err := ss.Courses(ctx)
			if err != nil {
				return nil, err
			}
			courses = all
		}
		students, err := ss.Students(ctx)
		if err != nil {
			return nil, err
		}
		subs, err := ss.Submissions(ctx)
		if err != nil {
			return nil, err
		}

		var out []rubric.Roster
		for _, c := range courses {
			r, ok := ss.svc.cfg.Rubric(c)
			if !ok {
				ss.svc.logger.Printf("rubric: course %s has no rubric, skipped", c.Name)
				continue
			}
			aux, err := ss.svc.loadAux(r)
			if err != nil {
				return nil, err
			}
			out = append(out, ss.svc.aggregator.Aggregate(rubric.Input{
				Course:      c,
				Students:    students,
				Submissions: subs,
				Rubric:      r,
				Aux:         aux,
			}))
		}
		return out, nil
	})
}

// GradeReport proposes letter grades for one course roster.
type GradeReport struct {
	Course       entity.Course      `json:"course"`
	Thresholds   []rubric.Threshold `json:"thresholds"`
	Rows         []rubric.Row       `json:"rows"`
	Distribution []rubric.Bucket    `json:"distribution"`
}

// Grades assigns letters to the course roster using thresholds, or the
// configured ones when thresholds is empty. Rows are ordered by total.
func (ss *Session) Grades(ctx context.Context, courseID int64, thresholds []rubric.Threshold) (GradeReport, error) {
	if len(thresholds) == 0 {
		thresholds = ss.svc.cfg.Grades
	}
	return memo(ss, ss.key("grades", courseID, thresholds), func() (GradeReport, error) {
		rosters, err := ss.Rosters(ctx, courseID)
		if err != nil {
			return GradeReport{}, err
		}
		if len(rosters) == 0 {
			return GradeReport{}, errors.Wrapf(ErrNoRubric, "course %d", courseID)
		}
		r := rosters[0]
		rows := make([]rubric.Row, len(r.Rows))
		copy(rows, r.Rows)
		rubric.AssignGrades(rows, thresholds)
		rubric.SortByTotal(rows)
		return GradeReport{
			Course:       r.Course,
			Thresholds:   thresholds,
			Rows:         rows,
			Distribution: rubric.Distribution(rows, thresholds),
		}, nil
	})
}
