// Package rubric computes weighted per-student totals from groups of
// assignments configured per course.
package rubric

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/volatiletech/null/v8"
)

// Group is one weighted bucket of assignments. Groups are built and validated
// by package config; Points is always set.
type Group struct {
	Name           string       `json:"name"`
	Substring      string       `json:"substring"`
	Source         string       `json:"source,omitempty"`
	Points         float64      `json:"points"`
	MaxScore       null.Float64 `json:"max_score"`
	MaxExtraCredit null.Float64 `json:"max_extra_credit"`
}

// CourseRubric is the ordered rubric of one course.
type CourseRubric struct {
	CourseID    int64   `json:"course_id"`
	Groups      []Group `json:"groups"`
	Spreadsheet string  `json:"spreadsheet,omitempty"`
}

// SpreadsheetName returns the configured auxiliary file, or the conventional
// more-fields-<course>.xlsx.
func (r CourseRubric) SpreadsheetName() string {
	if r.Spreadsheet != "" {
		return r.Spreadsheet
	}
	return "more-fields-" + strconv.FormatInt(r.CourseID, 10) + ".xlsx"
}

// Matches reports whether an assignment belongs to the group.
func (g Group) Matches(assignment, source string) bool {
	if !strings.Contains(strings.ToLower(assignment), strings.ToLower(g.Substring)) {
		return false
	}
	return g.Source == "" || strings.EqualFold(g.Source, source)
}

// DisplayName upper-cases the first letter and separates a trailing number:
// "homework1" becomes "Homework 1". Source-filtered groups get " (Source)".
func (g Group) DisplayName() string {
	name := g.Name
	if name == "" {
		return name
	}
	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])
	i := len(r)
	for i > 0 && unicode.IsDigit(r[i-1]) {
		i--
	}
	if i > 0 && i < len(r) && r[i-1] != ' ' {
		r = append(r[:i], append([]rune{' '}, r[i:]...)...)
	}
	name = string(r)
	if g.Source != "" {
		name += " (" + g.Source + ")"
	}
	return name
}

// AdjustMax clamps a summed max to the group's max_score.
func AdjustMax(max float64, g Group) float64 {
	if g.MaxScore.Valid && max > g.MaxScore.Float64 {
		return g.MaxScore.Float64
	}
	return max
}

// CapPoints limits extra credit. A score above max+max_extra_credit becomes
// exactly max+max_extra_credit; anything else, including over-max scores
// within the allowance, is returned unchanged. Without an extra credit cap
// the score is never capped.
func CapPoints(score, max float64, g Group) float64 {
	if score > max && g.MaxExtraCredit.Valid && score > max+g.MaxExtraCredit.Float64 {
		return max + g.MaxExtraCredit.Float64
	}
	return score
}

// Cell is one (score, max) pair of a roster row.
type Cell struct {
	Score null.Float64 `json:"score"`
	Max   null.Float64 `json:"max"`
}

// SumScaled adds score×scale/max over the cells, skipping null scores. A zero
// or null max adds the raw score.
func SumScaled(cells []Cell, scales []float64) float64 {
	total := 0.0
	for i, c := range cells {
		if !c.Score.Valid || i >= len(scales) {
			continue
		}
		if !c.Max.Valid || c.Max.Float64 == 0 {
			total += c.Score.Float64
			continue
		}
		total += c.Score.Float64 * scales[i] / c.Max.Float64
	}
	return total
}
