package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/mind-engage/teaching-dashboard/internal/entity"
)

var fixedNow = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func row(st entity.Status, score, max null.Float64, due null.Time) entity.Enrollment {
	return entity.Enrollment{
		Submission:   entity.Submission{Status: st, TotalScore: score, MaxPoints: max},
		EffectiveDue: due,
	}
}

func TestIsUnsubmitted(t *testing.T) {
	c := New(clock)
	tests := []struct {
		name string
		row  entity.Enrollment
		want bool
	}{
		{"missing", row(entity.StatusMissing, null.Float64From(10), null.Float64From(10), null.Time{}), true},
		{"no score", row(entity.StatusSubmitted, null.Float64{}, null.Float64From(10), null.Time{}), true},
		{"under half", row(entity.StatusGraded, null.Float64From(4), null.Float64From(10), null.Time{}), true},
		{"half", row(entity.StatusGraded, null.Float64From(5), null.Float64From(10), null.Time{}), false},
		{"no max", row(entity.StatusGraded, null.Float64From(1), null.Float64{}, null.Time{}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsUnsubmitted(tt.row))
		})
	}
}

func TestIsOverdue(t *testing.T) {
	c := New(clock)
	missing := func(due null.Time) entity.Enrollment {
		return row(entity.StatusMissing, null.Float64{}, null.Float64From(10), due)
	}

	assert.True(t, c.IsOverdue(missing(null.TimeFrom(fixedNow.Add(-time.Hour))), null.Time{}))
	assert.True(t, c.IsOverdue(missing(null.TimeFrom(fixedNow.Add(4*24*time.Hour))), null.Time{}))
	assert.False(t, c.IsOverdue(missing(null.TimeFrom(fixedNow.Add(6*24*time.Hour))), null.Time{}))

	// fallback applies only when the row has no due date
	assert.True(t, c.IsOverdue(missing(null.Time{}), null.TimeFrom(fixedNow)))
	assert.False(t, c.IsOverdue(missing(null.TimeFrom(fixedNow.Add(30*24*time.Hour))), null.TimeFrom(fixedNow)))
	assert.False(t, c.IsOverdue(missing(null.Time{}), null.Time{}))

	done := row(entity.StatusGraded, null.Float64From(10), null.Float64From(10), null.TimeFrom(fixedNow))
	assert.False(t, c.IsOverdue(done, null.Time{}))
}

func TestIsNearDue(t *testing.T) {
	c := New(clock)
	missing := row(entity.StatusMissing, null.Float64{}, null.Float64From(10), null.TimeFrom(fixedNow.Add(24*time.Hour)))
	assert.True(t, c.IsOverdue(missing, null.Time{}))
	assert.False(t, c.IsNearDue(missing, null.Time{}))

	// with a zero grace, a due date tomorrow is near rather than overdue
	c.Grace = 0
	assert.True(t, c.IsNearDue(missing, null.Time{}))
	assert.False(t, c.IsOverdue(missing, null.Time{}))

	far := row(entity.StatusMissing, null.Float64{}, null.Float64From(10), null.TimeFrom(fixedNow.Add(3*24*time.Hour)))
	assert.False(t, c.IsNearDue(far, null.Time{}))
	assert.False(t, c.IsNearDue(row(entity.StatusMissing, null.Float64{}, null.Float64{}, null.Time{}), null.Time{}))
}

func TestOverdueAndNearDueExclusive(t *testing.T) {
	statuses := []entity.Status{entity.StatusMissing, entity.StatusSubmitted, entity.StatusGraded}
	scores := []null.Float64{{}, null.Float64From(0), null.Float64From(6), null.Float64From(10)}
	for _, grace := range []time.Duration{0, time.Hour, DefaultGrace} {
		c := &Classifier{Now: clock, Grace: grace}
		for h := -200; h <= 200; h += 7 {
			due := null.TimeFrom(fixedNow.Add(time.Duration(h) * time.Hour))
			for _, st := range statuses {
				for _, sc := range scores {
					r := row(st, sc, null.Float64From(10), due)
					assert.False(t, c.IsOverdue(r, null.Time{}) && c.IsNearDue(r, null.Time{}),
						"grace=%s h=%d status=%s", grace, h, st)
					r2 := row(st, sc, null.Float64From(10), null.Time{})
					assert.False(t, c.IsOverdue(r2, due) && c.IsNearDue(r2, due))
				}
			}
		}
	}
}

func TestIsSubmitted(t *testing.T) {
	c := New(clock)
	assert.False(t, c.IsSubmitted(row(entity.StatusMissing, null.Float64{}, null.Float64{}, null.Time{})))
	assert.True(t, c.IsSubmitted(row(entity.StatusSubmitted, null.Float64{}, null.Float64{}, null.Time{})))
	assert.True(t, c.IsSubmitted(row(entity.StatusGraded, null.Float64{}, null.Float64{}, null.Time{})))
}

func TestMeanPredicates(t *testing.T) {
	assert.True(t, IsBelowMean(null.Float64From(8), 10))
	assert.False(t, IsBelowMean(null.Float64From(9), 10))
	assert.True(t, IsFarBelowMean(null.Float64From(4.9), 10))
	assert.False(t, IsFarBelowMean(null.Float64From(5), 10))
	assert.True(t, IsFarAboveMean(null.Float64From(95), 100))
	assert.False(t, IsFarAboveMean(null.Float64From(94), 100))

	assert.False(t, IsBelowMean(null.Float64{}, 10))
	assert.False(t, IsFarBelowMean(null.Float64{}, 10))
	assert.False(t, IsFarAboveMean(null.Float64{}, 0))
}

func TestNewDefaults(t *testing.T) {
	c := New(nil)
	assert.Equal(t, DefaultGrace, c.Grace)
	assert.NotNil(t, c.Now)
}
