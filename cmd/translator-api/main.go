// Command translator-api serves the AI Translator HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/upb/ai-translator/app"
	"github.com/upb/ai-translator/config"
	"github.com/upb/ai-translator/internal/observability"
	"github.com/upb/ai-translator/routes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.New(ctx)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ln, err := net.Listen("tcp", cfg.Server.Address())
	if err != nil {
		log.Fatalf("failed to listen on %s: %v", cfg.Server.Address(), err)
	}

	if err := run(ctx, cfg, ln); err != nil {
		log.Fatalf("translator-api: %v", err)
	}
}

// run serves on ln until ctx is cancelled, then shuts the server down,
// drains background evaluations, closes storage and flushes telemetry.
func run(ctx context.Context, cfg *config.Config, ln net.Listener, opts ...observability.Option) error {
	rt, err := observability.Initialize(ctx, observability.ModeFor(cfg), cfg.Observability.ServiceName, cfg.Environment, cfg.Observability, opts...)
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	logger := rt.Logger()

	deps, err := app.NewDependencies(ctx, cfg, rt)
	if err != nil {
		_ = ln.Close()
		_ = rt.Shutdown(context.Background())
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	srv := &http.Server{
		Handler:      routes.SetupRoutes(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("translator api listening",
			zap.String("address", ln.Addr().String()),
			zap.String("environment", cfg.Environment))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	serveErr := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	closeErr := deps.Close(shutdownCtx)
	if closeErr != nil {
		logger.Error("failed to close dependencies", zap.Error(closeErr))
	}

	logger.Info("server stopped")
	_ = logger.Sync()

	return errors.Join(serveErr, closeErr, rt.Shutdown(shutdownCtx))
}
