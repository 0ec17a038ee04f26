package survey

import (
	"context"
	"log/slog"

	"encuesta/internal/bootstrap/logging"
	domain "encuesta/internal/domain/survey"
	"encuesta/internal/errs"
	"encuesta/internal/ports"
)

func (s *Service) TotalRespondents(ctx context.Context) (int, error) {
	if err := s.checkReady(ctx); err != nil {
		return 0, err
	}
	n, err := s.repo.CountRespondents(ctx)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Service) GenderDistribution(ctx context.Context) ([]domain.Share, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	total, err := s.repo.CountRespondents(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := s.repo.CountRespondentsByGender(ctx)
	if err != nil {
		return nil, err
	}
	return domain.GenderDistribution(toGroupCounts(groups), int(total)), nil
}

func (s *Service) AnonymousShare(ctx context.Context) (domain.AnonymousStats, error) {
	if err := s.checkReady(ctx); err != nil {
		return domain.AnonymousStats{}, err
	}
	total, err := s.repo.CountRespondents(ctx)
	if err != nil {
		return domain.AnonymousStats{}, err
	}
	anonymous, err := s.repo.CountRespondentsByName(ctx, domain.AnonymousName)
	if err != nil {
		return domain.AnonymousStats{}, err
	}
	return domain.AnonymousShare(int(anonymous), int(total)), nil
}

func (s *Service) SeverityDistribution(ctx context.Context) ([]domain.Share, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	groups, err := s.repo.CountRespondentsBySeverity(ctx)
	if err != nil {
		return nil, err
	}
	return domain.SeverityDistribution(toGroupCounts(groups)), nil
}

func (s *Service) PerQuestionBreakdown(ctx context.Context) ([]domain.QuestionBreakdown, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	catalog, err := s.Catalog()
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CountAnswersByOption(ctx)
	if err != nil {
		return nil, err
	}
	return domain.PerQuestionBreakdown(catalog, toOptionCounts(counts)), nil
}

// Dashboard reads every summary view inside one transaction. A read failure
// yields a zero-valued dashboard flagged Degraded instead of an error; only a
// missing catalog is reported.
func (s *Service) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	if err := s.checkReady(ctx); err != nil {
		return domain.Dashboard{}, err
	}
	catalog, err := s.Catalog()
	if err != nil {
		return domain.Dashboard{}, err
	}

	ctx = logCtx(ctx, "dashboard")

	snap, err := s.readSnapshot(ctx)
	if err != nil {
		logging.Error(ctx, "dashboard aggregation failed, serving zero statistics", slog.Any("err", errs.Loggable(err)))
		return domain.EmptyDashboard(catalog), nil
	}
	return domain.BuildDashboard(catalog, snap), nil
}

// ReportDashboard reloads the catalog from the store and builds the dashboard.
// When the store holds no usable catalog yet (missing tables, unseeded), it
// falls back to zero statistics over the seed catalog flagged Degraded.
func (s *Service) ReportDashboard(ctx context.Context) (domain.Dashboard, error) {
	if err := s.checkReady(ctx); err != nil {
		return domain.Dashboard{}, err
	}
	if err := s.LoadCatalog(ctx); err != nil {
		if s.seed == nil {
			return domain.Dashboard{}, errs.Wrap(err, "load catalog")
		}
		logging.Warn(logCtx(ctx, "report_dashboard"), "store catalog unavailable, reporting zero statistics over seed catalog",
			slog.Any("err", errs.Loggable(err)),
		)
		return domain.EmptyDashboard(s.seed), nil
	}
	return s.Dashboard(ctx)
}

func (s *Service) readSnapshot(ctx context.Context) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		total, err := s.repo.CountRespondents(txCtx)
		if err != nil {
			return err
		}
		anonymous, err := s.repo.CountRespondentsByName(txCtx, domain.AnonymousName)
		if err != nil {
			return err
		}
		genders, err := s.repo.CountRespondentsByGender(txCtx)
		if err != nil {
			return err
		}
		severities, err := s.repo.CountRespondentsBySeverity(txCtx)
		if err != nil {
			return err
		}
		options, err := s.repo.CountAnswersByOption(txCtx)
		if err != nil {
			return err
		}

		snap = domain.Snapshot{
			TotalRespondents:     int(total),
			AnonymousRespondents: int(anonymous),
			Gender:               toGroupCounts(genders),
			Severity:             toGroupCounts(severities),
			AnswersByOption:      toOptionCounts(options),
		}
		return nil
	})
	return snap, err
}

func toGroupCounts(rows []ports.GroupCount) []domain.GroupCount {
	out := make([]domain.GroupCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.GroupCount{Label: row.Label, Count: int(row.Count)})
	}
	return out
}

func toOptionCounts(rows []ports.OptionCount) map[uint64]int {
	out := make(map[uint64]int, len(rows))
	for _, row := range rows {
		out[row.OptionID] += int(row.Count)
	}
	return out
}
