package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ArowuTest/mtn-ras-backend/api/routes"
	"github.com/ArowuTest/mtn-ras-backend/internal/handlers"
	"github.com/ArowuTest/mtn-ras-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ops HTTP server (health, metrics and admin triggers)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := bootstrap(ctx, stores{mongo: true, postgres: true, redis: true})
	if err != nil {
		return err
	}
	defer a.close()

	p, err := a.pipeline(0)
	if err != nil {
		return err
	}

	checks := map[string]handlers.Pinger{
		"mongodb":  a.mongo.Ping,
		"postgres": a.pg.Ping,
	}
	if a.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}

	if a.cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	cycleCtx, cancelCycles := context.WithCancel(ctx)
	defer cancelCycles()

	router := routes.SetupRouter(a.cfg, routes.Handlers{
		Auth:       handlers.NewAuthHandler(services.NewAuthService(a.cfg)),
		Cycle:      handlers.NewCycleHandler(cycleCtx, p.batch, p.refresher),
		Subscriber: handlers.NewSubscriberHandler(services.NewSubscriberService(p.coordinator, p.states, p.history)),
		Health:     handlers.NewHealthHandler(checks),
	})

	srv := &http.Server{
		Addr:              ":" + a.cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "port", a.cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.Server.ShutdownSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	// an interrupted cycle resumes from its cursor on the next trigger
	if p.batch.Running() {
		slog.Info("Stopping the running assessment cycle")
	}
	cancelCycles()
	p.batch.Wait()
	p.refresher.Wait()

	slog.Info("Server exiting")
	return nil
}
