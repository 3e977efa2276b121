package rubric

import (
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/mind-engage/teaching-dashboard/internal/entity"
	"github.com/mind-engage/teaching-dashboard/internal/status"
)

// ColumnKind tells group columns from spreadsheet fields.
type ColumnKind string

const (
	KindGroup ColumnKind = "group"
	KindField ColumnKind = "field"
)

// Column is one scored column of the roster, in input order.
type Column struct {
	Name    string     `json:"name"`
	Display string     `json:"display"`
	Kind    ColumnKind `json:"kind"`
	Scale   float64    `json:"scale"`
}

type Row struct {
	Student     string          `json:"student"`
	Email       string          `json:"email"`
	StudentID   null.Int64      `json:"student_id"`
	GSStudentID null.Int64      `json:"gs_student_id"`
	GSUserID    null.Int64      `json:"gs_user_id"`
	CanvasSID   null.Int64      `json:"canvas_sid"`
	Cells       map[string]Cell `json:"cells"`
	Comments    null.String     `json:"comments"`
	TotalPoints float64         `json:"total_points"`
	MaxPoints   float64         `json:"max_points"`
	Incomplete  bool            `json:"incomplete"`
	Grade       string          `json:"grade,omitempty"`

	// Standing of TotalPoints against the roster mean and the largest MaxPoints.
	BelowMean    bool `json:"below_mean"`
	FarBelowMean bool `json:"far_below_mean"`
	FarAboveMean bool `json:"far_above_mean"`
}

func (r Row) clone() Row {
	c := r
	c.Cells = make(map[string]Cell, len(r.Cells))
	for k, v := range r.Cells {
		c.Cells[k] = v
	}
	return c
}

// GroupScore is one student's result within a group, after AdjustMax and
// CapPoints.
type GroupScore struct {
	StudentID int64   `json:"student_id"`
	Student   string  `json:"student"`
	Email     string  `json:"email"`
	Score     float64 `json:"score"`
	Max       float64 `json:"max"`

	// Standing against the group mean and max.
	BelowMean    bool `json:"below_mean"`
	FarBelowMean bool `json:"far_below_mean"`
	FarAboveMean bool `json:"far_above_mean"`
}

type GroupTable struct {
	Group   Group        `json:"group"`
	Display string       `json:"display"`
	Scores  []GroupScore `json:"scores"`
	Mean    null.Float64 `json:"mean"`
	Max     null.Float64 `json:"max"`
}

// DiagnosticKind classifies a non-fatal problem found while aggregating.
type DiagnosticKind string

const JoinAnomaly DiagnosticKind = "join_anomaly"

type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Merge   string         `json:"merge"`
	Before  int            `json:"before"`
	After   int            `json:"after"`
	Message string         `json:"message"`
}

// Roster is the rubric output of one course.
type Roster struct {
	Course      entity.Course `json:"course"`
	Columns     []Column      `json:"columns"`
	Rows        []Row         `json:"rows"`
	Groups      []GroupTable  `json:"groups"`
	Diagnostics []Diagnostic  `json:"diagnostics,omitempty"`
}

// Input is everything Aggregate needs for one course. Aux may be nil.
type Input struct {
	Course      entity.Course
	Students    []entity.Student
	Submissions []entity.Submission
	Rubric      CourseRubric
	Aux         *AuxTable
}

type Aggregator struct {
	Logger *log.Logger
}

func NewAggregator(l *log.Logger) *Aggregator { return &Aggregator{Logger: l} }

// Aggregate builds the course roster, merges every group and the auxiliary
// fields into it and computes the totals. A merge that grows the roster is
// kept and reported as a JoinAnomaly.
func (a *Aggregator) Aggregate(in Input) Roster {
	out := Roster{Course: in.Course}
	rows := roster(in.Course, in.Students)
	subs := courseSubmissions(in.Course, in.Submissions)

	for _, g := range in.Rubric.Groups {
		scores := groupScores(g, subs)
		before := len(rows)
		if len(scores) == 0 {
			for i := range rows {
				rows[i].Cells[g.Name] = Cell{}
			}
		} else {
			rows = leftJoin(rows, scores,
				func(s GroupScore) int64 { return s.StudentID },
				func(r *Row, s GroupScore) {
					r.Cells[g.Name] = Cell{Score: null.Float64From(s.Score), Max: null.Float64From(s.Max)}
				})
		}
		out.check(a, "group "+g.Name, before, len(rows))

		out.Columns = append(out.Columns, Column{Name: g.Name, Display: g.DisplayName(), Kind: KindGroup, Scale: g.Points})
		out.Groups = append(out.Groups, groupTable(g, scores))
	}

	if in.Aux != nil {
		before := len(rows)
		rows = leftJoin(rows, in.Aux.Rows,
			func(x AuxRow) int64 { return x.SID },
			func(r *Row, x AuxRow) {
				for _, f := range in.Aux.Fields {
					r.Cells[f] = Cell{Score: x.Values[f]}
				}
				r.Comments = x.Comments
			})
		out.check(a, "spreadsheet", before, len(rows))

		for _, f := range in.Aux.Fields {
			scale := 0.0
			if f != AuxAdjustments {
				scale = fieldMax(rows, f)
			}
			for i := range rows {
				c := rows[i].Cells[f]
				c.Max = null.Float64From(scale)
				rows[i].Cells[f] = c
			}
			out.Columns = append(out.Columns, Column{Name: f, Display: f, Kind: KindField, Scale: scale})
		}
	}

	scales := make([]float64, len(out.Columns))
	for i, c := range out.Columns {
		scales[i] = c.Scale
	}
	for i := range rows {
		cells := make([]Cell, len(out.Columns))
		maxes := make([]Cell, len(out.Columns))
		for j, c := range out.Columns {
			cells[j] = rows[i].Cells[c.Name]
			maxes[j] = Cell{Score: cells[j].Max, Max: cells[j].Max}
		}
		rows[i].TotalPoints = SumScaled(cells, scales)
		rows[i].MaxPoints = SumScaled(maxes, scales)
		rows[i].Incomplete = rows[i].Comments.Valid && strings.Contains(strings.ToLower(rows[i].Comments.String), "incomplete")
	}
	flagTotals(rows)
	out.Rows = rows
	return out
}

func (out *Roster) check(a *Aggregator, merge string, before, after int) {
	if after <= before {
		return
	}
	d := Diagnostic{
		Kind:    JoinAnomaly,
		Merge:   merge,
		Before:  before,
		After:   after,
		Message: fmt.Sprintf("merging %s grew the roster from %d to %d students", merge, before, after),
	}
	out.Diagnostics = append(out.Diagnostics, d)
	if a != nil && a.Logger != nil {
		a.Logger.Printf("rubric: course %s: %s", courseLabel(out.Course), d.Message)
	}
}

// roster lists the students of the course, deduplicated on their identity.
func roster(c entity.Course, students []entity.Student) []Row {
	type ident struct {
		gsStudent, student, gsUser, canvas null.Int64
		name, email                        string
	}
	seen := make(map[ident]struct{})
	var rows []Row
	for _, s := range students {
		if !c.Matches(s.GSCourseID, s.CanvasCourseID) {
			continue
		}
		k := ident{s.GSStudentID, s.StudentID, s.GSUserID, s.CanvasSID, s.Name, s.Email}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		rows = append(rows, Row{
			Student:     s.Name,
			Email:       s.Email,
			StudentID:   s.StudentID,
			GSStudentID: s.GSStudentID,
			GSUserID:    s.GSUserID,
			CanvasSID:   s.CanvasSID,
			Cells:       map[string]Cell{},
		})
	}
	return rows
}

func courseSubmissions(c entity.Course, subs []entity.Submission) []entity.Submission {
	var out []entity.Submission
	for _, s := range subs {
		if c.Matches(s.GSCourseID, s.CanvasCourseID) {
			out = append(out, s)
		}
	}
	return out
}

// groupScores sums the group's submissions per student id, then applies
// AdjustMax and CapPoints. Null parts add nothing; submissions without a
// student id are skipped. Output follows first appearance.
func groupScores(g Group, subs []entity.Submission) []GroupScore {
	idx := make(map[int64]int)
	var out []GroupScore
	for _, s := range subs {
		if !s.StudentID.Valid || !g.Matches(s.Name, s.Source) {
			continue
		}
		i, ok := idx[s.StudentID.Int64]
		if !ok {
			i = len(out)
			idx[s.StudentID.Int64] = i
			out = append(out, GroupScore{StudentID: s.StudentID.Int64, Student: s.Student, Email: s.Email})
		}
		if s.TotalScore.Valid {
			out[i].Score += s.TotalScore.Float64
		}
		if s.MaxPoints.Valid {
			out[i].Max += s.MaxPoints.Float64
		}
	}
	for i := range out {
		out[i].Max = AdjustMax(out[i].Max, g)
		out[i].Score = CapPoints(out[i].Score, out[i].Max, g)
	}
	return out
}

func groupTable(g Group, scores []GroupScore) GroupTable {
	t := GroupTable{Group: g, Display: g.DisplayName(), Scores: scores}
	if len(scores) == 0 {
		return t
	}
	sum, hi := 0.0, math.Inf(-1)
	for _, s := range scores {
		sum += s.Score
		hi = math.Max(hi, s.Max)
	}
	mean := sum / float64(len(scores))
	t.Mean = null.Float64From(mean)
	t.Max = null.Float64From(hi)
	for i := range t.Scores {
		v := null.Float64From(t.Scores[i].Score)
		t.Scores[i].BelowMean = status.IsBelowMean(v, mean)
		t.Scores[i].FarBelowMean = status.IsFarBelowMean(v, mean)
		t.Scores[i].FarAboveMean = status.IsFarAboveMean(v, hi)
	}
	return t
}

// flagTotals classifies every row's TotalPoints against the roster mean and
// the largest MaxPoints.
func flagTotals(rows []Row) {
	if len(rows) == 0 {
		return
	}
	sum, hi := 0.0, math.Inf(-1)
	for _, r := range rows {
		sum += r.TotalPoints
		hi = math.Max(hi, r.MaxPoints)
	}
	mean := sum / float64(len(rows))
	for i := range rows {
		v := null.Float64From(rows[i].TotalPoints)
		rows[i].BelowMean = status.IsBelowMean(v, mean)
		rows[i].FarBelowMean = status.IsFarBelowMean(v, mean)
		rows[i].FarAboveMean = status.IsFarAboveMean(v, hi)
	}
}

// leftJoin keeps every row and applies each right-hand record sharing its
// student id. Rows without a student id or match pass through. Several
// matches fan the row out; callers compare lengths to detect it.
func leftJoin[T any](rows []Row, right []T, key func(T) int64, apply func(*Row, T)) []Row {
	idx := make(map[int64][]T, len(right))
	for _, r := range right {
		idx[key(r)] = append(idx[key(r)], r)
	}
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		var hits []T
		if row.StudentID.Valid {
			hits = idx[row.StudentID.Int64]
		}
		if len(hits) == 0 {
			out = append(out, row)
			continue
		}
		for _, h := range hits {
			r := row.clone()
			apply(&r, h)
			out = append(out, r)
		}
	}
	return out
}

func fieldMax(rows []Row, field string) float64 {
	hi, ok := 0.0, false
	for _, r := range rows {
		v := r.Cells[field].Score
		if !v.Valid {
			continue
		}
		if !ok || v.Float64 > hi {
			hi, ok = v.Float64, true
		}
	}
	return hi
}

func courseLabel(c entity.Course) string {
	switch {
	case c.ShortName.Valid:
		return c.ShortName.String
	case c.CanvasCourseID.Valid:
		return fmt.Sprint(c.CanvasCourseID.Int64)
	case c.GSCourseID.Valid:
		return fmt.Sprint(c.GSCourseID.Int64)
	}
	return c.Name
}
