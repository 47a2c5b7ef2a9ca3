// Package serve implements the eventhub serve command, the long-running
// web server.
package serve

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	api "github.com/campusworks/eventhub/internal/api/v2"
	"github.com/campusworks/eventhub/internal/conf"
	"github.com/campusworks/eventhub/internal/datastore"
	"github.com/campusworks/eventhub/internal/dedup"
	"github.com/campusworks/eventhub/internal/logging"
	"github.com/campusworks/eventhub/internal/notification"
	"github.com/campusworks/eventhub/internal/observability"
	"github.com/campusworks/eventhub/internal/payment"
	"github.com/campusworks/eventhub/internal/security"
)

// Command creates the serve sub-command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the EventHub web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settings)
		},
	}
}

func runServer(settings *conf.Settings) error {
	logging.Init()

	ds := datastore.New(settings)
	if ds == nil {
		return fmt.Errorf("no database output enabled in configuration")
	}
	if err := ds.Open(); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := ds.Close(); err != nil {
			logging.Warn("failed to close database", "error", err)
		}
	}()

	detector := dedup.NewService(
		dedup.NewStoreAdapter(ds),
		dedup.Config{
			Threshold:      settings.Dedup.Threshold,
			DateWindowDays: settings.Dedup.DateWindowDays,
			VenueRadiusKm:  settings.Dedup.VenueRadiusKm,
			CandidateLimit: settings.Dedup.CandidateLimit,
		},
		logging.ForService("dedup"),
	)

	processor := payment.NewProcessor(ds, payment.NewClient(&settings.Payment),
		logging.ForService("payment"))

	notifier := notification.NewService(ds,
		notification.ConfigFromSettings(&settings.Notification),
		logging.ForService("notification"))
	notification.Initialize(notifier)

	sessions := security.NewSessionManager(settings.Security.SessionDuration)
	metrics := observability.NewMetrics()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Gzip())

	controller := api.New(e, ds, settings, sessions, detector, processor, notifier,
		api.WithMetrics(metrics))
	defer controller.Shutdown()

	errChan := make(chan error, 1)
	go func() {
		addr := ":" + settings.WebServer.Port
		logging.Info("starting web server", "addr", addr, "name", settings.Main.Name)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("web server failed: %w", err)
	case sig := <-quit:
		logging.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
