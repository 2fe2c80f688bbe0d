package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewRecoverCommand creates the recover command.
func NewRecoverCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DatabaseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Re-drive unfinished operations and exit",
		Long: `Run the recovery pass against the database and exit.

Every operation left in_progress by a crash is run to a terminal state.
Operations whose ledger effect was already committed complete with the
recorded receipt; nothing is applied twice. Operations waiting on an
external result are left alone.

Example:
  ledgerd recover --db ./ledgerd.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			return opts.withRuntime(cmd, false, func(ctx context.Context, rt *runtime) error {
				n, err := rt.executor.Recover(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "recovery failed", err)
				}
				return out.Success(map[string]int{"recovered": n}, fmt.Sprintf("Recovered %d operation(s).", n))
			})
		},
	}

	addDatabaseFlag(cmd, opts)
	return cmd
}
