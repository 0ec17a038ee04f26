package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"encuesta/internal/bootstrap"
	"encuesta/internal/bootstrap/logging"
	domain "encuesta/internal/domain/survey"
	"encuesta/internal/errs"
	"encuesta/internal/transport/httpapi"
	"encuesta/internal/usecase/survey"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the survey dashboard in the terminal",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *survey.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		asJSON, _ := cmd.Flags().GetBool("json")

		d, err := svc.ReportDashboard(ctx)
		if err != nil {
			logging.Error(ctx, "build dashboard for report failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "build dashboard for report")
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(httpapi.NewDashboardResponse(d)); err != nil {
				return errs.Wrap(err, "write report json")
			}
			return nil
		}
		return writeDashboardReport(cmd.OutOrStdout(), d)
	}),
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().Bool("json", false, "Print the dashboard as JSON")
}

func writeDashboardReport(out io.Writer, d domain.Dashboard) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	if d.Degraded {
		if _, err := fmt.Fprintln(w, "warning\tstore unavailable, statistics zeroed"); err != nil {
			return errs.Wrap(err, "write report warning")
		}
		if _, err := fmt.Fprintln(w, ""); err != nil {
			return errs.Wrap(err, "write report separator")
		}
	}

	if _, err := fmt.Fprintln(w, "metric\tvalue"); err != nil {
		return errs.Wrap(err, "write report header")
	}
	if _, err := fmt.Fprintf(w, "total_surveys\t%d\n", d.TotalRespondents); err != nil {
		return errs.Wrap(err, "write report total")
	}
	if _, err := fmt.Fprintf(w, "anonymous\t%d (%.1f%%)\n", d.Anonymous.Count, d.Anonymous.Percentage); err != nil {
		return errs.Wrap(err, "write report anonymous")
	}

	if err := writeShareTable(w, "sexo", d.Gender); err != nil {
		return errs.Wrap(err, "write report gender")
	}
	if err := writeShareTable(w, "clasificacion", d.Severity); err != nil {
		return errs.Wrap(err, "write report classification")
	}

	for _, q := range d.Questions {
		if _, err := fmt.Fprintf(w, "\nP%d\t%s\t(%d respuestas)\n", q.QuestionID, q.Text, q.TotalAnswers); err != nil {
			return errs.Wrapf(err, "write report question %d", q.QuestionID)
		}
		for _, o := range q.Options {
			if _, err := fmt.Fprintf(w, "  %d\t%s\t%d pts\t%d\t%.1f%%\n", o.OptionID, o.Text, o.Points, o.Count, o.Percentage); err != nil {
				return errs.Wrapf(err, "write report option %d", o.OptionID)
			}
		}
	}

	if err := w.Flush(); err != nil {
		return errs.Wrap(err, "flush report output")
	}
	return nil
}

func writeShareTable(w io.Writer, label string, shares []domain.Share) error {
	if _, err := fmt.Fprintf(w, "\n%s\tcount\tpercentage\n", label); err != nil {
		return err
	}
	if len(shares) == 0 {
		_, err := fmt.Fprintln(w, "-\t0\t0.0%")
		return err
	}
	for _, s := range shares {
		if _, err := fmt.Fprintf(w, "%s\t%d\t%.1f%%\n", s.Label, s.Count, s.Percentage); err != nil {
			return err
		}
	}
	return nil
}
