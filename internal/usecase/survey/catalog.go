package survey

import (
	"context"
	"errors"
	"log/slog"

	"encuesta/internal/bootstrap/logging"
	domain "encuesta/internal/domain/survey"
	"encuesta/internal/errs"
	"encuesta/internal/ports"
)

// SeedCatalog writes the seed catalog when the store has no questions yet.
// Running it again is a no-op.
func (s *Service) SeedCatalog(ctx context.Context) (bool, error) {
	if err := s.checkReady(ctx); err != nil {
		return false, err
	}
	if s.seed == nil {
		return false, errors.New("seed catalog is required")
	}

	ctx = logCtx(ctx, "seed_catalog")

	seeded := false
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		n, err := s.repo.CountQuestions(txCtx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		if err := s.repo.SeedCatalog(txCtx, toPortsCatalog(s.seed)); err != nil {
			return err
		}
		seeded = true
		return nil
	}); err != nil {
		return false, err
	}

	if seeded {
		logging.Info(ctx, "catalog seeded", slog.Int("questions", s.seed.Len()))
	} else {
		logging.Info(ctx, "catalog already present, seed skipped")
	}
	return seeded, nil
}

// LoadCatalog reads the catalog from the store and installs it for scoring.
func (s *Service) LoadCatalog(ctx context.Context) error {
	if err := s.checkReady(ctx); err != nil {
		return err
	}

	items, err := s.repo.ListCatalog(ctx)
	if err != nil {
		return errs.Wrap(err, "list catalog")
	}

	c, err := domain.NewCatalog(fromPortsCatalog(items))
	if err != nil {
		return err
	}
	s.catalog.Store(c)

	logging.Info(logCtx(ctx, "load_catalog"), "catalog loaded",
		slog.Int("questions", c.Len()),
		slog.Int("max_score", c.MaxScore()),
	)
	return nil
}

func toPortsCatalog(c *domain.Catalog) []ports.CatalogQuestion {
	questions := c.Questions()
	out := make([]ports.CatalogQuestion, 0, len(questions))
	for _, q := range questions {
		item := ports.CatalogQuestion{
			QuestionID: q.ID,
			Text:       q.Text,
			Options:    make([]ports.CatalogOption, 0, len(q.Options)),
		}
		for _, o := range q.Options {
			item.Options = append(item.Options, ports.CatalogOption{
				OptionID:   o.ID,
				QuestionID: q.ID,
				Text:       o.Text,
				Points:     o.Points,
			})
		}
		out = append(out, item)
	}
	return out
}

func fromPortsCatalog(items []ports.CatalogQuestion) []domain.Question {
	out := make([]domain.Question, 0, len(items))
	for _, item := range items {
		q := domain.Question{
			ID:      item.QuestionID,
			Text:    item.Text,
			Options: make([]domain.Option, 0, len(item.Options)),
		}
		for _, o := range item.Options {
			q.Options = append(q.Options, domain.Option{
				ID:         o.OptionID,
				QuestionID: o.QuestionID,
				Text:       o.Text,
				Points:     o.Points,
			})
		}
		out = append(out, q)
	}
	return out
}
