package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/handicap/internal/adapters/http/api"
	"github.com/okian/handicap/internal/adapters/http/swagger"
	service "github.com/okian/handicap/internal/app"
	"github.com/okian/handicap/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
)

func newServeCommand(c *cli) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the handicapping HTTP API",
		Long: `Serve the handicapping HTTP API.

Races posted to /races are queued and analysed by the worker pool; /analyze
answers synchronously. Stored reports are served under /reports, metrics
under /metrics and the API docs under /api-docs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				c.cfg.Addr = addr
			}
			return runServe(cmd.Context(), c)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default from config)")

	return cmd
}

func runServe(parent context.Context, c *cli) error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := c.cfg
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open report store: %w", err)
	}

	svc := service.New(
		service.WithConfig(cfg),
		service.WithStore(store),
		service.WithLogger(c.log),
	)
	// Workers outlive the signal so Stop can drain the queue.
	if err := svc.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	go startServiceMetricsUpdater(ctx, svc)

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		c.log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			c.log.Error(ctx, "HTTP server failed", logger.Error(err))
		}
	}
	c.log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http: %w", err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("stop service: %w", err))
	}
	if err, ok := <-serveErr; ok && err != nil {
		errs = append(errs, err)
	}
	c.log.Info(ctx, "server stopped")
	return errors.Join(errs...)
}
