package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	"github.com/mind-engage/teaching-dashboard/internal/entity"
	"github.com/mind-engage/teaching-dashboard/internal/enrollment"
	"github.com/mind-engage/teaching-dashboard/internal/source"
)

// Session memoizes every view by (operation, sources, parameters). Results
// are never invalidated; open a new session to see fresh source data.
type Session struct {
	ID    string
	svc   *Service
	cache *lru.Cache[string, any]
}

func (s *Service) NewSession() (*Session, error) {
	c, err := lru.New[string, any](s.cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "session cache")
	}
	id := uuid.NewString()
	s.logger.Printf("dashboard: session %s opened (%s)", id, s.cfg.Sources().Label())
	return &Session{ID: id, svc: s, cache: c}, nil
}

func (ss *Session) key(op string, params ...any) string {
	var b strings.Builder
	b.WriteString(op)
	b.WriteByte('|')
	b.WriteString(ss.svc.cfg.Sources().Label())
	for _, p := range params {
		fmt.Fprintf(&b, "|%v", p)
	}
	return b.String()
}

// memo returns the cached result for key or computes and stores it. Errors
// are not cached.
func memo[T any](ss *Session, key string, fn func() (T, error)) (T, error) {
	if v, ok := ss.cache.Get(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}
	v, err := fn()
	if err != nil {
		var zero T
		return zero, err
	}
	ss.cache.Add(key, v)
	return v, nil
}

// Len is the number of memoized results.
func (ss *Session) Len() int { return ss.cache.Len() }

func (ss *Session) tables(ctx context.Context) (source.Tables, error) {
	return memo(ss, ss.key("tables"), func() (source.Tables, error) { return ss.svc.read(ctx) })
}

func (ss *Session) Courses(ctx context.Context) ([]entity.Course, error) {
	return memo(ss, ss.key("courses"), func() ([]entity.Course, error) {
		t, err := ss.tables(ctx)
		if err != nil {
			return nil, err
		}
		return ss.svc.reconciler.Courses(t), nil
	})
}

// CourseNames lists the short name of every course that has one, else its
// display name, without repeats.
func (ss *Session) CourseNames(ctx context.Context) ([]string, error) {
	return memo(ss, ss.key("course_names"), func() ([]string, error) {
		courses, err := ss.Courses(ctx)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]struct{}, len(courses))
		var out []string
		for _, c := range courses {
			name := c.Name
			if c.ShortName.Valid && strings.TrimSpace(c.ShortName.String) != "" {
				name = c.ShortName.String
			}
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
		return out, nil
	})
}

func (ss *Session) Students(ctx context.Context) ([]entity.Student, error) {
	return memo(ss, ss.key("students"), func() ([]entity.Student, error) {
		t, err := ss.tables(ctx)
		if err != nil {
			return nil, err
		}
		return ss.svc.reconciler.Students(t), nil
	})
}

func (ss *Session) Assignments(ctx context.Context) ([]entity.Assignment, error) {
	return memo(ss, ss.key("assignments"), func() ([]entity.Assignment, error) {
		t, err := ss.tables(ctx)
		if err != nil {
			return nil, err
		}
		return ss.svc.reconciler.Assignments(t), nil
	})
}

func (ss *Session) Submissions(ctx context.Context) ([]entity.Submission, error) {
	return memo(ss, ss.key("submissions"), func() ([]entity.Submission, error) {
		t, err := ss.tables(ctx)
		if err != nil {
			return nil, err
		}
		return ss.svc.reconciler.Submissions(t), nil
	})
}

func (ss *Session) Extensions(ctx context.Context) ([]entity.Extension, error) {
	return memo(ss, ss.key("extensions"), func() ([]entity.Extension, error) {
		t, err := ss.tables(ctx)
		if err != nil {
			return nil, err
		}
		return ss.svc.reconciler.Extensions(t), nil
	})
}

func (ss *Session) CanvasExtensions(ctx context.Context) ([]entity.CanvasExtension, error) {
	return memo(ss, ss.key("canvas_extensions"), func() ([]entity.CanvasExtension, error) {
		t, err := ss.tables(ctx)
		if err != nil {
			return nil, err
		}
		return ss.svc.reconciler.CanvasExtensions(t), nil
	})
}

// Enrollments are the submissions with Gradescope extensions applied, sorted
// by effective due date.
func (ss *Session) Enrollments(ctx context.Context) ([]entity.Enrollment, error) {
	return memo(ss, ss.key("enrollments"), func() ([]entity.Enrollment, error) {
		subs, err := ss.Submissions(ctx)
		if err != nil {
			return nil, err
		}
		exts, err := ss.Extensions(ctx)
		if err != nil {
			return nil, err
		}
		return ss.svc.merger.Merge(subs, exts), nil
	})
}

// Limitations reports what the enrollment merge leaves out.
func (ss *Session) Limitations() []enrollment.Limitation { return ss.svc.Limitations() }

// course resolves a Canvas or Gradescope course id.
func (ss *Session) course(ctx context.Context, id int64) (entity.Course, error) {
	courses, err := ss.Courses(ctx)
	if err != nil {
		return entity.Course{}, err
	}
	for _, c := range courses {
		if c.CanvasCourseID.Valid && c.CanvasCourseID.Int64 == id {
			return c, nil
		}
	}
	for _, c := range courses {
		if c.GSCourseID.Valid && c.GSCourseID.Int64 == id {
			return c, nil
		}
	}
	return entity.Course{}, errors.Wrapf(ErrNotFound, "course %d", id)
}
