// Package dashboard runs the read → reconcile → aggregate → classify pipeline
// and memoizes its results per session.
package dashboard

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/pkg/errors"

	"github.com/mind-engage/teaching-dashboard/internal/config"
	"github.com/mind-engage/teaching-dashboard/internal/enrollment"
	"github.com/mind-engage/teaching-dashboard/internal/entity"
	"github.com/mind-engage/teaching-dashboard/internal/reconcile"
	"github.com/mind-engage/teaching-dashboard/internal/rubric"
	"github.com/mind-engage/teaching-dashboard/internal/source"
	"github.com/mind-engage/teaching-dashboard/internal/status"
	"github.com/mind-engage/teaching-dashboard/internal/storage"
)

// ErrNotFound is returned for course ids that match no reconciled course.
var ErrNotFound = errors.New("course not found")

// ErrNoRubric is returned by Grades for a course absent from the rubric.
var ErrNoRubric = errors.New("course has no rubric")

const defaultCacheSize = 256

type Service struct {
	reader    source.Reader
	cfg       config.Config
	now       func() time.Time
	logger    *log.Logger
	blobs     storage.BlobStore
	cacheSize int

	reconciler *reconcile.Reconciler
	merger     *enrollment.Merger
	aggregator *rubric.Aggregator
	classifier *status.Classifier
}

type Option func(*Service)

// WithClock fixes the reference instant used for due date classification.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithLogger(l *log.Logger) Option { return func(s *Service) { s.logger = l } }

// WithBlobStore sets where auxiliary spreadsheets are read from.
func WithBlobStore(b storage.BlobStore) Option { return func(s *Service) { s.blobs = b } }

func WithCacheSize(n int) Option { return func(s *Service) { s.cacheSize = n } }

func New(r source.Reader, cfg config.Config, opts ...Option) *Service {
	s := &Service{
		reader:    r,
		cfg:       cfg,
		now:       time.Now,
		logger:    log.New(io.Discard, "", 0),
		cacheSize: cfg.CacheSize,
	}
	for _, o := range opts {
		o(s)
	}
	if s.cacheSize <= 0 {
		s.cacheSize = defaultCacheSize
	}
	if len(s.cfg.Grades) == 0 {
		s.cfg.Grades = rubric.DefaultThresholds()
	}
	s.reconciler = reconcile.New(cfg.Sources(), cfg.Location)
	s.merger = enrollment.NewMerger()
	s.aggregator = rubric.NewAggregator(s.logger)
	s.classifier = status.New(s.now)
	return s
}

func (s *Service) Sources() entity.Sources { return s.cfg.Sources() }

// Limitations reports the known gaps of the enrollment merge.
func (s *Service) Limitations() []enrollment.Limitation { return s.merger.Limitations() }

// Thresholds returns the configured letter grade thresholds.
func (s *Service) Thresholds() []rubric.Threshold {
	out := make([]rubric.Threshold, len(s.cfg.Grades))
	copy(out, s.cfg.Grades)
	return out
}

func (s *Service) read(ctx context.Context) (source.Tables, error) {
	src := s.cfg.Sources()
	t, err := source.ReadAll(ctx, s.reader, src.Gradescope, src.Canvas)
	if err != nil {
		return source.Tables{}, errors.Wrap(err, "read source tables")
	}
	return t, nil
}

// loadAux returns the course's auxiliary table, or nil when no blob store is
// configured or the workbook does not exist.
func (s *Service) loadAux(r rubric.CourseRubric) (*rubric.AuxTable, error) {
	if s.blobs == nil {
		return nil, nil
	}
	name := r.SpreadsheetName()
	rc, err := s.blobs.Get(name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	t, err := rubric.LoadAux(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "spreadsheet %s", name)
	}
	s.logger.Printf("rubric: course %d: adding fields %v from %s", r.CourseID, t.Fields, name)
	return t, nil
}
