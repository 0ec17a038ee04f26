package bootstrap

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"encuesta/internal/bootstrap/config"
	"encuesta/internal/bootstrap/database"
	"encuesta/internal/bootstrap/logging"
	domain "encuesta/internal/domain/survey"
	"encuesta/internal/errs"
	"encuesta/internal/infrastructure/persistence/relational/repository"
	"encuesta/internal/infrastructure/persistence/relational/uow"
	"encuesta/internal/ports"
	"encuesta/internal/usecase/survey"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			repository.NewSurveyRepository,
			fx.As(new(ports.SurveyRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			uow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(provideSeedCatalog),
	fx.Provide(provideSurveyService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func provideApp(lc fx.Lifecycle, ctx context.Context, cfg config.Config, db *gorm.DB) *App {
	app := &App{
		Config: cfg,
		DB:     db,
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return app.Close(ctx)
		},
	})
	return app
}

// provideSeedCatalog reads survey.catalog_file when set, otherwise the
// embedded instrument.
func provideSeedCatalog(ctx context.Context, cfg config.Config) (*domain.Catalog, error) {
	path := strings.TrimSpace(cfg.Survey.CatalogFile)
	if path == "" {
		return domain.DefaultCatalog()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrapf(err, "read catalog file %s", path)
	}
	c, err := domain.ParseCatalogTOML(data)
	if err != nil {
		return nil, errs.Wrapf(err, "parse catalog file %s", path)
	}

	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx")),
		"seed catalog loaded from file",
		slog.String("catalog_file", path),
		slog.Int("questions", c.Len()),
	)
	return c, nil
}

func provideSurveyService(repo ports.SurveyRepository, unit ports.UnitOfWork, seed *domain.Catalog) *survey.Service {
	return survey.NewService(repo, unit, seed)
}
