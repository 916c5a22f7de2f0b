package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	httpAdapter "github.com/aretw0/adwizard/pkg/adapters/http"
	"github.com/aretw0/adwizard/pkg/ports"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Serve exposes the stack over HTTP on ln until ctx is done, then shuts the
// server down and waits for in-flight requests. Catalogs that support it are
// reloaded while serving.
func Serve(ctx context.Context, ln net.Listener, stack *Stack, logger *slog.Logger) error {
	handler, err := httpAdapter.NewHandler(stack.Wizard,
		httpAdapter.WithStreams(stack.Streams),
		httpAdapter.WithGateway(stack.Gateway),
		httpAdapter.WithGatherer(stack.Registry),
		httpAdapter.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to build handler: %w", err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting adwizard server", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		logger.Info("adwizard server stopped gracefully")
		return nil
	})

	if watchable, ok := stack.Catalog.(ports.Watchable); ok {
		g.Go(func() error {
			changes, err := watchable.Watch(ctx)
			if err != nil {
				logger.Warn("Template watcher disabled", "err", err)
				return nil
			}
			for range changes {
				logger.Info("Templates reloaded")
			}
			return nil
		})
	}

	return g.Wait()
}
