package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/concord"
	"github.com/aretw0/concord/internal/config"
	"github.com/aretw0/concord/internal/presentation/tui"
	httpAdapter "github.com/aretw0/concord/pkg/adapters/http"
	"github.com/aretw0/concord/pkg/adapters/mcp"
	"github.com/aretw0/concord/pkg/negotiation"
)

// ShutdownTimeout bounds how long in-flight requests may take once a stop is requested.
const ShutdownTimeout = 5 * time.Second

// NewManager builds the negotiation service on top of the wired components.
func NewManager(c *Components, logger *slog.Logger) *negotiation.Manager {
	opts := []negotiation.Option{
		negotiation.WithSink(c.Sink),
		negotiation.WithLogger(logger),
	}
	if c.Locker != nil {
		opts = append(opts, negotiation.WithLocker(c.Locker))
	}
	return negotiation.NewManager(c.Catalog, c.Store, c.Engine, opts...)
}

// NewHTTPHandler returns the API handler for the components, with metrics and,
// when the catalog supports it, a catalog change stream.
func NewHTTPHandler(c *Components, mgr *negotiation.Manager, logger *slog.Logger) *httpAdapter.Server {
	opts := []httpAdapter.Option{
		httpAdapter.WithMetrics(c.Metrics.Handler()),
		httpAdapter.WithLogger(logger),
	}
	if c.Watcher != nil {
		opts = append(opts, httpAdapter.WithCatalogWatch(c.Watcher))
	}
	return httpAdapter.NewHandler(mgr, opts...)
}

// Serve runs the HTTP API until ctx is cancelled, then drains in-flight
// requests for up to ShutdownTimeout.
func Serve(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	c, err := Build(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("failed to close store", "err", err)
		}
	}()

	mgr := NewManager(c, logger)
	handler := NewHTTPHandler(c, mgr, logger)
	defer handler.Close()
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	tui.PrintBanner(out, "v"+concord.Version)
	printSystemMessage(out, "Listening on %s (catalog: %s %s, store: %s, tie-break: %s)",
		srv.Addr, cfg.Catalog.Source, cfg.Catalog.Path, cfg.Store.Driver, c.Engine.TieBreak())

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("shutdown requested", "addr", srv.Addr)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
			if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		printSystemMessage(out, "Server stopped gracefully.")
		return nil
	}
}

// Transports accepted by ServeMCP.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// ServeMCP exposes the negotiation service as MCP tools over the given transport.
func ServeMCP(ctx context.Context, cfg *config.Config, transport string, port int, logger *slog.Logger) error {
	c, err := Build(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	srv := mcp.NewServer(NewManager(c, logger), c.Engine)

	switch transport {
	case TransportStdio:
		logger.Info("starting MCP server", "transport", transport)
		return srv.ServeStdio()
	case TransportSSE:
		logger.Info("starting MCP server", "transport", transport, "port", port)
		if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("MCP server stopped gracefully")
		return nil
	}
	return fmt.Errorf("unknown transport %q (want %s or %s)", transport, TransportStdio, TransportSSE)
}
