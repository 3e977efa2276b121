// Package reconcile aligns the Gradescope and Canvas tables into the unified
// views of package entity.
//
// The store has no full outer join, so every reconciliation is the union of
// the primary side left-joined to the secondary, plus the anti-joined
// remainder of the secondary side. No input record is dropped.
package reconcile

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/mind-engage/teaching-dashboard/internal/entity"
)

// Reconcile emits one output for every primary, merged with all secondaries
// sharing its key (none when the primary has no key), followed by a lifted
// output for every secondary that has no key or matched no primary.
func Reconcile[P, S any, K comparable, O any](
	primary []P,
	secondary []S,
	primaryKey func(P) (K, bool),
	secondaryKey func(S) (K, bool),
	merge func(P, []S) O,
	lift func(S) O,
) []O {
	index := make(map[K][]S, len(secondary))
	for _, s := range secondary {
		if k, ok := secondaryKey(s); ok {
			index[k] = append(index[k], s)
		}
	}

	out := make([]O, 0, len(primary)+len(secondary))
	matched := make(map[K]struct{}, len(primary))
	for _, p := range primary {
		var hits []S
		if k, ok := primaryKey(p); ok {
			matched[k] = struct{}{}
			hits = index[k]
		}
		out = append(out, merge(p, hits))
	}
	for _, s := range secondary {
		if k, ok := secondaryKey(s); ok {
			if _, hit := matched[k]; hit {
				continue
			}
		}
		out = append(out, lift(s))
	}
	return out
}

// Reconciler builds unified tables for the active sources.
type Reconciler struct {
	Sources entity.Sources
	// Location is the zone of offset-less Gradescope extension dates.
	Location *time.Location
}

func New(src entity.Sources, loc *time.Location) *Reconciler {
	if loc == nil {
		loc = time.UTC
	}
	return &Reconciler{Sources: src, Location: loc}
}

// index groups records by key, keeping input order within a key.
func index[T any, K comparable](rows []T, key func(T) (K, bool)) map[K][]T {
	m := make(map[K][]T, len(rows))
	for _, r := range rows {
		if k, ok := key(r); ok {
			m[k] = append(m[k], r)
		}
	}
	return m
}

// pick returns the first candidate satisfying prefer, else the first one.
func pick[T any](cands []T, prefer func(T) bool) (T, bool) {
	var zero T
	if len(cands) == 0 {
		return zero, false
	}
	for _, c := range cands {
		if prefer(c) {
			return c, true
		}
	}
	return cands[0], true
}

func mapAll[T, O any](rows []T, f func(T) O) []O {
	out := make([]O, 0, len(rows))
	for _, r := range rows {
		out = append(out, f(r))
	}
	return out
}

func int64Key(v null.Int64) (int64, bool) { return v.Int64, v.Valid }

func sameID(a, b null.Int64) bool { return a.Valid && b.Valid && a.Int64 == b.Int64 }

// coalesce returns the first non-blank value.
func coalesce(vals ...null.String) string {
	for _, v := range vals {
		if v.Valid && strings.TrimSpace(v.String) != "" {
			return v.String
		}
	}
	return ""
}
