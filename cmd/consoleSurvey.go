package cmd

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"encuesta/internal/bootstrap"
	"encuesta/internal/bootstrap/logging"
	"encuesta/internal/errs"
	"encuesta/internal/usecase/survey"
	"encuesta/internal/usecase/surveyconsole"
)

var consoleSurveyCmd = &cobra.Command{
	Use:   "survey",
	Short: "Answer the survey in the terminal",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *survey.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		anonymous, _ := cmd.Flags().GetBool("anonymous")
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		age, _ := cmd.Flags().GetInt("age")
		gender, _ := cmd.Flags().GetString("gender")
		if age < 0 {
			return fmt.Errorf("--age must be >= 0")
		}

		if app.Config.Database.AutoMigrate {
			if err := app.InitSchema(ctx); err != nil {
				return errs.Wrap(err, "initialize schema")
			}
		}
		if err := svc.Bootstrap(ctx); err != nil {
			logging.Error(ctx, "survey bootstrap failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "bootstrap survey")
		}

		model := surveyconsole.NewSurveyModel(ctx, svc, surveyconsole.SurveyOptions{
			Anonymous: anonymous,
			Name:      name,
			Email:     email,
			Age:       age,
			Gender:    gender,
		})

		program := tea.NewProgram(model, tea.WithAltScreen())
		final, err := program.Run()
		if err != nil {
			return errs.Wrap(err, "run survey console")
		}

		if result, ok := surveyconsole.Outcome(final); ok {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "puntaje=%d clasificacion=%s\n", result.TotalScore, result.Severity); err != nil {
				return errs.Wrap(err, "write survey result")
			}
		}
		return nil
	}),
}

func init() {
	consoleCmd.AddCommand(consoleSurveyCmd)
	consoleSurveyCmd.Flags().Bool("anonymous", false, "Submit anonymously (profile flags are ignored)")
	consoleSurveyCmd.Flags().String("name", "", "Respondent name")
	consoleSurveyCmd.Flags().String("email", "", "Respondent email")
	consoleSurveyCmd.Flags().Int("age", 0, "Respondent age")
	consoleSurveyCmd.Flags().String("gender", "", "Respondent gender")
}
