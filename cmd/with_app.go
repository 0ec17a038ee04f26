package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"encuesta/internal/bootstrap"
	"encuesta/internal/bootstrap/logging"
	"encuesta/internal/errs"
	"encuesta/internal/usecase/survey"
)

func withApp(run func(cmd *cobra.Command, app *bootstrap.App, surveySvc *survey.Service) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := logging.WithAttrs(
			cmd.Context(),
			slog.String("command", cmd.CommandPath()),
			slog.String("config_file", cfgFile),
		)

		var app *bootstrap.App
		var surveySvc *survey.Service
		fxApp := fx.New(
			bootstrap.Module,
			fx.NopLogger,
			fx.Provide(func() context.Context { return ctx }),
			fx.Provide(
				fx.Annotate(
					func() string { return cfgFile },
					fx.ResultTags(`name:"configFile"`),
				),
			),
			fx.Populate(&app, &surveySvc),
		)

		startCtx, cancelStart := context.WithTimeout(ctx, 10*time.Second)
		defer cancelStart()
		if err := fxApp.Start(startCtx); err != nil {
			logging.Error(ctx, "bootstrap application failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "start fx application")
		}

		defer func() {
			stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancelStop()
			if err := fxApp.Stop(stopCtx); err != nil {
				logging.Error(ctx, "fx application stop failed", slog.Any("err", errs.Loggable(err)))
			}
		}()

		// Reconfigure logging now that log.level and log.format are known.
		logged := logging.WithLogger(cmd.Context(), logging.New(app.Config.Log.Level, app.Config.Log.Format, cmd.ErrOrStderr()))
		cmd.SetContext(logging.WithAttrs(logged, slog.String("app", app.Config.App.Name)))

		if err := run(cmd, app, surveySvc); err != nil {
			return errs.Wrap(err, "run command")
		}
		return nil
	}
}
