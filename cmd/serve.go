package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"encuesta/internal/bootstrap"
	"encuesta/internal/bootstrap/logging"
	"encuesta/internal/errs"
	"encuesta/internal/transport/httpapi"
	"encuesta/internal/usecase/survey"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the survey HTTP server",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *survey.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		addr, _ := cmd.Flags().GetString("addr")
		addr = strings.TrimSpace(addr)
		if addr == "" {
			addr = app.Config.HTTP.Addr
		}

		if app.Config.Database.AutoMigrate {
			if err := app.InitSchema(ctx); err != nil {
				logging.Error(ctx, "initialize schema failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "initialize schema")
			}
		}
		if err := svc.Bootstrap(ctx); err != nil {
			logging.Error(ctx, "survey bootstrap failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "bootstrap survey")
		}

		server := &http.Server{
			Addr:         addr,
			Handler:      httpapi.NewRouter(svc, httpapi.WithAppName(app.Config.App.Name)),
			ReadTimeout:  app.Config.HTTP.ReadTimeout,
			WriteTimeout: app.Config.HTTP.WriteTimeout,
			BaseContext:  func(_ net.Listener) context.Context { return ctx },
		}

		sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		serveErr := make(chan error, 1)
		go func() {
			logging.Info(ctx, "survey http server started", slog.String("addr", addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		select {
		case err := <-serveErr:
			if err != nil {
				logging.Error(ctx, "survey http server failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "serve http")
			}
			return nil
		case <-sigCtx.Done():
		}

		logging.Info(ctx, "shutting down survey http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logging.Error(ctx, "graceful shutdown failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "shutdown http server")
		}
		logging.Info(ctx, "survey http server stopped")
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: http.addr from config)")
}
