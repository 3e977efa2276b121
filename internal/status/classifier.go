// Package status classifies enrollment rows against a reference instant and
// against course statistics. Everything here is a pure function of its inputs.
package status

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/mind-engage/teaching-dashboard/internal/entity"
)

const (
	// DefaultGrace is how long after "now" a due date still counts as overdue.
	DefaultGrace = 5 * 24 * time.Hour
	// NearDueWindow bounds how far ahead a due date counts as near.
	NearDueWindow = 2 * 24 * time.Hour
)

type Classifier struct {
	Now   func() time.Time
	Grace time.Duration
}

// New returns a classifier with the default grace period; a nil clock means time.Now.
func New(now func() time.Time) *Classifier {
	if now == nil {
		now = time.Now
	}
	return &Classifier{Now: now, Grace: DefaultGrace}
}

// IsUnsubmitted is true when the row is Missing, has no score, or scored
// under half of its max.
func (c *Classifier) IsUnsubmitted(e entity.Enrollment) bool {
	if e.Status == entity.StatusMissing || !e.TotalScore.Valid {
		return true
	}
	return e.MaxPoints.Valid && e.TotalScore.Float64 < e.MaxPoints.Float64/2
}

// IsOverdue reports an unsubmitted row whose due date is before now+grace.
// fallback is used when the row has no effective due date.
func (c *Classifier) IsOverdue(e entity.Enrollment, fallback null.Time) bool {
	due, ok := dueOf(e, fallback)
	if !ok || !c.IsUnsubmitted(e) {
		return false
	}
	return due.Before(c.Now().Add(c.Grace))
}

// IsNearDue reports an unsubmitted, not overdue row due within two days.
func (c *Classifier) IsNearDue(e entity.Enrollment, fallback null.Time) bool {
	due, ok := dueOf(e, fallback)
	if !ok || !c.IsUnsubmitted(e) {
		return false
	}
	return due.Sub(c.Now()) < NearDueWindow && !c.IsOverdue(e, fallback)
}

func (c *Classifier) IsSubmitted(e entity.Enrollment) bool {
	return e.Status != entity.StatusMissing
}

// IsBelowMean: score < 0.9 × mean. Null scores are never below.
func IsBelowMean(score null.Float64, mean float64) bool {
	return score.Valid && score.Float64 < mean*0.9
}

// IsFarBelowMean: score < 0.5 × mean.
func IsFarBelowMean(score null.Float64, mean float64) bool {
	return score.Valid && score.Float64 < mean/2
}

// IsFarAboveMean: score ≥ 0.95 × the reference max.
func IsFarAboveMean(score null.Float64, refMax float64) bool {
	return score.Valid && score.Float64 >= refMax*0.95
}

func dueOf(e entity.Enrollment, fallback null.Time) (time.Time, bool) {
	if e.EffectiveDue.Valid {
		return e.EffectiveDue.Time, true
	}
	if fallback.Valid {
		return fallback.Time, true
	}
	return time.Time{}, false
}
