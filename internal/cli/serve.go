package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/roach88/ledgerd/internal/config"
	"github.com/roach88/ledgerd/internal/operation"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	ConfigPath string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ledger adapter",
		Long: `Run the ledger adapter until SIGINT or SIGTERM.

Loads the configuration, opens the database (creating it if it doesn't
exist), re-drives every unfinished operation and keeps the async workers
and callback delivery running. serve exposes no operation endpoint: the
routing service that embeds the adapter submits operations, and "ledgerd
invoke" runs them from the command line. When metrics.listen is set,
/metrics and /healthz are served on that address.

Configuration is read from --config and overridden by LEDGERD_* environment
variables. organization_id is required; without it the process refuses to
start.

Example:
  ledgerd serve --config ./ledgerd.yaml
  LEDGERD_ORGANIZATION_ID=org-1 ledgerd serve`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to YAML configuration")

	return cmd
}

func serve(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format, opts.Verbose)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := operation.NewMetrics(prometheus.WrapRegistererWith(
		prometheus.Labels{"organization": cfg.OrganizationID}, reg))

	logger.Info("opening database", "path", cfg.Database)
	rt, err := openRuntime(cfg.Database, logger,
		operation.WithMode(cfg.ExecutionMode()),
		operation.WithMetrics(metrics),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer rt.Close()

	ctx, stop := signalContext(cmd)
	defer stop()

	if err := rt.executor.Start(ctx); err != nil {
		return WrapExitError(ExitFailure, "recovery failed", err)
	}

	errCh := make(chan error, 1)
	var srv *http.Server
	if cfg.Metrics.Listen != "" {
		srv = &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           newOpsHandler(reg, rt.executor),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			err := srv.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			errCh <- err
		}()
		logger.Info("metrics listening", "addr", cfg.Metrics.Listen)
	}

	logger.Info("ledgerd serving",
		"organization", cfg.OrganizationID,
		"mode", cfg.Execution.Mode,
		"response", cfg.Execution.Response,
	)
	fmt.Fprintf(cmd.OutOrStdout(), "ledgerd serving organization %s (%s mode)\n", cfg.OrganizationID, cfg.Execution.Mode)

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return WrapExitError(ExitFailure, "metrics listener failed", err)
		}
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics shutdown", "error", err)
		}
	}
	logger.Info("ledgerd stopped")
	return nil
}

// newOpsHandler serves the registry on /metrics and executor readiness on
// /healthz.
func newOpsHandler(reg *prometheus.Registry, ex *operation.Executor) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !ex.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}
