package survey

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"encuesta/internal/bootstrap/logging"
	domain "encuesta/internal/domain/survey"
	"encuesta/internal/errs"
	"encuesta/internal/ports"
)

type Service struct {
	repo    ports.SurveyRepository
	uow     ports.UnitOfWork
	seed    *domain.Catalog
	catalog atomic.Pointer[domain.Catalog]
	now     func() time.Time
}

type Option func(*Service)

// WithClock overrides the timestamp source for created rows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the survey usecases. seed is the catalog written to an
// empty store; scoring always uses the catalog read back from the store.
func NewService(repo ports.SurveyRepository, uow ports.UnitOfWork, seed *domain.Catalog, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		uow:  uow,
		seed: seed,
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bootstrap seeds an empty store and loads the catalog used for scoring.
func (s *Service) Bootstrap(ctx context.Context) error {
	if _, err := s.SeedCatalog(ctx); err != nil {
		return errs.Wrap(err, "seed catalog")
	}
	if err := s.LoadCatalog(ctx); err != nil {
		return errs.Wrap(err, "load catalog")
	}
	return nil
}

// Catalog returns the catalog loaded by LoadCatalog.
func (s *Service) Catalog() (*domain.Catalog, error) {
	c := s.catalog.Load()
	if c == nil {
		return nil, domain.ErrCatalogNotLoaded
	}
	return c, nil
}

func (s *Service) checkReady(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return errors.New("survey repository is required")
	}
	if s.uow == nil {
		return errors.New("survey unit of work is required")
	}
	return nil
}

func logCtx(ctx context.Context, op string) context.Context {
	return logging.WithAttrs(ctx, slog.String("component", "usecase.survey"), slog.String("op", op))
}
