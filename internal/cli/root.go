package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ledgerd CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ledgerd",
		Short: "ledgerd - exactly-once ledger adapter",
		Long: `A ledger adapter that executes asset movements (issue, transfer, redeem,
hold, release, rollback) at most once per idempotency key, across retries,
duplicate submissions and restarts.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewRecoverCommand(opts))
	cmd.AddCommand(NewInvokeCommand(opts))
	cmd.AddCommand(NewBalanceCommand(opts))
	cmd.AddCommand(NewBalancesCommand(opts))
	cmd.AddCommand(NewReceiptCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
