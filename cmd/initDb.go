/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"encuesta/internal/bootstrap"
	"encuesta/internal/bootstrap/logging"
	"encuesta/internal/errs"
	"encuesta/internal/usecase/survey"
)

// initDbCmd represents the initDb command
var initDbCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the schema and seed the question catalog",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *survey.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		logging.Info(ctx, "start init-db")

		if err := app.InitSchema(ctx); err != nil {
			logging.Error(ctx, "initialize schema failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "initialize schema")
		}

		seeded, err := svc.SeedCatalog(ctx)
		if err != nil {
			logging.Error(ctx, "seed catalog failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "seed catalog")
		}

		seedState := "already present"
		if seeded {
			seedState = "seeded"
		}
		logging.Info(ctx, "init-db finished", slog.String("database_driver", app.Config.Database.Driver), slog.Bool("seeded", seeded))
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "database schema initialized (%s), catalog %s\n", app.Config.Database.Driver, seedState); err != nil {
			return errs.Wrap(err, "write init-db output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(initDbCmd)
}
