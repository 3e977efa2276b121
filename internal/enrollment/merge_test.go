package enrollment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/mind-engage/teaching-dashboard/internal/entity"
)

func at(day int) null.Time {
	return null.TimeFrom(time.Date(2024, 9, day, 23, 59, 0, 0, time.UTC))
}

func gsSub(user int64, name string, due null.Time) entity.Submission {
	return entity.Submission{
		Student:        "s" + name,
		Name:           name,
		GSUserID:       null.Int64From(user),
		GSAssignmentID: null.Int64From(1),
		GSCourseID:     null.Int64From(10),
		Due:            due,
		Source:         "Gradescope",
	}
}

func TestMerge_AppliesExtension(t *testing.T) {
	subs := []entity.Submission{gsSub(71, "HW1", at(10))}
	exts := []entity.Extension{{
		GSUserID: null.Int64From(71), GSAssignmentID: null.Int64From(1), GSCourseID: null.Int64From(10),
		Due: at(15), Late: at(17),
	}}
	got := NewMerger().Merge(subs, exts)
	require.Len(t, got, 1)
	assert.Equal(t, at(15), got[0].EffectiveDue)
	assert.Equal(t, at(15), got[0].ExtendedDue)
	assert.Equal(t, at(17), got[0].ExtendedLate)
	assert.Equal(t, at(10), got[0].Due)
}

func TestMerge_NullExtensionKeepsDue(t *testing.T) {
	// "(no change)" and friends are parsed to null upstream.
	subs := []entity.Submission{gsSub(71, "HW1", at(10))}
	exts := []entity.Extension{{
		GSUserID: null.Int64From(71), GSAssignmentID: null.Int64From(1), GSCourseID: null.Int64From(10),
	}}
	got := NewMerger().Merge(subs, exts)
	require.Len(t, got, 1)
	assert.Equal(t, at(10), got[0].EffectiveDue)
	assert.False(t, got[0].ExtendedDue.Valid)
}

func TestMerge_KeepsRowsWithoutKey(t *testing.T) {
	noUser := gsSub(0, "HW2", at(12))
	noUser.GSUserID = null.Int64{}
	canvas := entity.Submission{Student: "c", Name: "Quiz", Due: at(11), Source: "Canvas"}
	subs := []entity.Submission{gsSub(71, "HW1", at(10)), noUser, canvas}

	got := NewMerger().Merge(subs, nil)
	require.Len(t, got, 3)
	names := []string{got[0].Name, got[1].Name, got[2].Name}
	assert.Equal(t, []string{"HW1", "Quiz", "HW2"}, names)
	for _, e := range got {
		assert.Equal(t, e.Due, e.EffectiveDue)
	}
}

func TestMerge_FirstExtensionWins(t *testing.T) {
	k := entity.Extension{GSUserID: null.Int64From(71), GSAssignmentID: null.Int64From(1), GSCourseID: null.Int64From(10)}
	first, second := k, k
	first.Due = at(20)
	second.Due = at(25)
	got := NewMerger().Merge([]entity.Submission{gsSub(71, "HW1", at(10))}, []entity.Extension{first, second})
	require.Len(t, got, 1)
	assert.Equal(t, at(20), got[0].EffectiveDue)
}

func TestMerge_ExtensionsDoNotFanOut(t *testing.T) {
	subs := []entity.Submission{gsSub(71, "HW1", at(10)), gsSub(72, "HW1", at(10))}
	exts := []entity.Extension{
		{GSUserID: null.Int64From(71), GSAssignmentID: null.Int64From(1), GSCourseID: null.Int64From(10), Due: at(14)},
		{GSUserID: null.Int64From(71), GSAssignmentID: null.Int64From(1), GSCourseID: null.Int64From(10), Due: at(16)},
		{GSUserID: null.Int64From(99), GSAssignmentID: null.Int64From(1), GSCourseID: null.Int64From(10), Due: at(18)},
	}
	got := NewMerger().Merge(subs, exts)
	assert.Len(t, got, len(subs))
}

func TestSort_NullsFirst(t *testing.T) {
	rows := []entity.Enrollment{
		{Submission: entity.Submission{Name: "B", Student: "x"}, EffectiveDue: at(5)},
		{Submission: entity.Submission{Name: "A", Student: "y"}, EffectiveDue: at(5)},
		{Submission: entity.Submission{Name: "Z", Student: "z"}},
		{Submission: entity.Submission{Name: "A", Student: "a", TotalScore: null.Float64From(3)}, EffectiveDue: at(5)},
	}
	Sort(rows)
	assert.Equal(t, "Z", rows[0].Name)
	assert.Equal(t, "y", rows[1].Student, "null score sorts before a valid one")
	assert.Equal(t, "a", rows[2].Student)
	assert.Equal(t, "B", rows[3].Name)
}

func TestLimitations(t *testing.T) {
	l := NewMerger().Limitations()
	require.Len(t, l, 1)
	assert.Equal(t, "canvas_extensions_not_applied", l[0].Code)
}
