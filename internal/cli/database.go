package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// DatabaseOptions holds flags shared by commands that open the database
// directly.
type DatabaseOptions struct {
	*RootOptions
	Database string
}

func addDatabaseFlag(cmd *cobra.Command, opts *DatabaseOptions) {
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
}

func (o *DatabaseOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:  o.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: o.Verbose,
	}
}

// withRuntime opens the database for the duration of fn. When start is set
// the executor runs its recovery pass first, so unfinished operations
// complete before fn sees the ledger.
func (o *DatabaseOptions) withRuntime(cmd *cobra.Command, start bool, fn func(ctx context.Context, rt *runtime) error) error {
	rt, err := openRuntime(o.Database, commandLogger(o.RootOptions, cmd))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer rt.Close()

	ctx, stop := signalContext(cmd)
	defer stop()

	if start {
		if err := rt.executor.Start(ctx); err != nil {
			return WrapExitError(ExitFailure, "recovery failed", err)
		}
	}
	return fn(ctx, rt)
}
