package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/nao1215/pheonix/internal/config"
	pheonixlog "github.com/nao1215/pheonix/internal/log"
	"github.com/nao1215/pheonix/internal/server"
)

// shutdownTimeout bounds the graceful shutdown of the HTTP server.
const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve analyses over an HTTP JSON API",
		Long: `Serve starts an HTTP server exposing the analyzer.

Endpoints:
  POST /api/v1/analyze    {"kind":"email","input":"alice@example.com","providers":["mx"]}
  GET  /api/v1/providers  provider names per kind
  GET  /healthz           liveness probe
  GET  /metrics           Prometheus metrics

Examples:
  # Listen on the default address
  pheonix serve

  # Listen on localhost only and log every request
  pheonix serve --addr 127.0.0.1:9000 -v`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("addr", "a", config.DefaultServeAddr, "Listen address")
	cmd.Flags().Duration("request-timeout", 2*time.Minute,
		"Maximum duration of one API request")
	cmd.Flags().Bool("no-history", false,
		"Do not save reports to the history database")
	addRuntimeFlags(cmd)

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Addr, err = cmd.Flags().GetString("addr"); err != nil {
		return err
	}
	requestTimeout, err := cmd.Flags().GetDuration("request-timeout")
	if err != nil {
		return err
	}
	if err := cfg.ValidateRuntime(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := pheonixlog.NewSecureJSONLogger(cmd.ErrOrStderr(), cfg.Verbose, pheonixlog.WithIdentifierMasking())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a, err := newApp(ctx, cfg, logger, reg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("failed to close resources", "error", err)
		}
	}()

	opts := []server.Option{
		server.WithGatherer(reg),
		server.WithRequestTimeout(requestTimeout),
	}
	if cfg.SaveHistory {
		opts = append(opts, server.WithHistory(a.store))
	}
	handler := server.NewHandler(a.aggregator, logger, opts...)

	return serve(ctx, server.New(cfg.Addr, handler.Router()), func(addr string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", addr)
		logger.Info("server started", "addr", addr, "tor", cfg.TorEnabled())
	})
}

// serve runs srv until ctx is done and then shuts it down gracefully.
// started is called with the bound address once the listener is open.
func serve(ctx context.Context, srv *http.Server, started func(addr string)) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
	}
	started(ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
