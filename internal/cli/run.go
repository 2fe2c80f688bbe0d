package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/ledgerd/internal/adapter"
	"github.com/roach88/ledgerd/internal/ledger"
	"github.com/roach88/ledgerd/internal/operation"
	"github.com/roach88/ledgerd/internal/store"
)

// runtime is an opened ledger: store, executor and the adapter wired to
// both. The executor is not started.
type runtime struct {
	store    *store.Store
	ledger   *ledger.Ledger
	executor *operation.Executor
	adapter  *adapter.Adapter
}

// openRuntime opens the database at path (creating it if needed) and
// registers every movement verb with a new executor.
func openRuntime(path string, logger *slog.Logger, opts ...operation.Option) (*runtime, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}

	l := ledger.New(st, ledger.WithLogger(logger))
	ex := operation.New(st, append([]operation.Option{operation.WithLogger(logger)}, opts...)...)
	return &runtime{
		store:    st,
		ledger:   l,
		executor: ex,
		adapter:  adapter.New(l, ex),
	}, nil
}

func (rt *runtime) Close() {
	rt.executor.Stop()
	if err := rt.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// newLogger builds the process logger. verbose forces debug level.
func newLogger(w io.Writer, level, format string, verbose bool) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	if verbose {
		lvl = slog.LevelDebug
	}

	hopts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

// commandLogger is the logger for one-shot commands: warnings only unless
// --verbose, so command output stays readable.
func commandLogger(opts *RootOptions, cmd *cobra.Command) *slog.Logger {
	return newLogger(cmd.ErrOrStderr(), "warn", "text", opts.Verbose)
}

// signalContext derives a context from the command's that is cancelled on
// SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
