package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ledgerd/internal/model"
)

// NewBalanceCommand creates the balance command.
func NewBalanceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DatabaseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "balance <owner> <asset-id>",
		Short: "Show an owner's balance of an asset",
		Long: `Show an owner's balance of an asset. Unknown owners have a zero
balance; an asset that was never created is an error.

Example:
  ledgerd balance --db ./ledgerd.db alice usd`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, assetID := args[0], args[1]
			out := opts.formatter(cmd)
			return opts.withRuntime(cmd, false, func(ctx context.Context, rt *runtime) error {
				q, err := rt.adapter.Balance(ctx, owner, assetID)
				if err != nil {
					return out.Fail("balance", err)
				}
				data := map[string]string{"owner": owner, "asset": assetID, "balance": q.String()}
				return out.Success(data, q.String())
			})
		},
	}

	addDatabaseFlag(cmd, opts)
	return cmd
}

// NewBalancesCommand creates the balances command.
func NewBalancesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DatabaseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "balances <asset-id>",
		Short: "List every holder of an asset",
		Long: `List every account that has held an asset, with its balance,
ordered by owner.

Example:
  ledgerd balances --db ./ledgerd.db usd`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			return opts.withRuntime(cmd, false, func(ctx context.Context, rt *runtime) error {
				holders, err := rt.adapter.Holders(ctx, args[0])
				if err != nil {
					return out.Fail("balances", err)
				}
				data := make([]map[string]string, len(holders))
				lines := make([]string, len(holders))
				for i, h := range holders {
					data[i] = map[string]string{"owner": h.Owner, "balance": h.Quantity.String()}
					lines[i] = fmt.Sprintf("%s  %s", h.Owner, h.Quantity)
				}
				if len(lines) == 0 {
					lines = []string{"No holders."}
				}
				return out.Success(data, strings.Join(lines, "\n"))
			})
		},
	}

	addDatabaseFlag(cmd, opts)
	return cmd
}

// NewReceiptCommand creates the receipt command.
func NewReceiptCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DatabaseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "receipt <transaction-id>",
		Short: "Show the receipt of a transaction",
		Long: `Show the receipt of a transaction by id.

Example:
  ledgerd receipt --db ./ledgerd.db 0190f0e4-7c1e-7a1b-9c55-2f3e4d5a6b7c`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			return opts.withRuntime(cmd, false, func(ctx context.Context, rt *runtime) error {
				r, err := rt.adapter.Receipt(ctx, args[0])
				if err != nil {
					return out.Fail("receipt", err)
				}
				return out.Success(r, describeReceipt(r))
			})
		},
	}

	addDatabaseFlag(cmd, opts)
	return cmd
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DatabaseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status <cid>",
		Short: "Show the result of an operation",
		Long: `Show the result of an operation by correlation id. Unfinished
operations are reported as pending; this command never re-drives them.

Example:
  ledgerd status --db ./ledgerd.db 0190f0e4-7c1e-7a1b-9c55-2f3e4d5a6b7c`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			return opts.withRuntime(cmd, false, func(ctx context.Context, rt *runtime) error {
				res, err := rt.adapter.OperationStatus(ctx, args[0])
				if err != nil {
					return out.Fail("status", err)
				}
				return out.Success(res, describeResult(res))
			})
		},
	}

	addDatabaseFlag(cmd, opts)
	return cmd
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DatabaseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the transaction log",
		Long: `List every ledger transaction in append order.

Example:
  ledgerd history --db ./ledgerd.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			return opts.withRuntime(cmd, false, func(ctx context.Context, rt *runtime) error {
				history, err := rt.adapter.History(ctx)
				if err != nil {
					return out.Fail("history", err)
				}
				if history == nil {
					history = []model.Receipt{}
				}
				return out.Success(history, describeHistory(history))
			})
		},
	}

	addDatabaseFlag(cmd, opts)
	return cmd
}

func describeHistory(history []model.Receipt) string {
	if len(history) == 0 {
		return "No transactions."
	}
	lines := make([]string, len(history))
	for i, r := range history {
		lines[i] = fmt.Sprintf("%s  %s", r.Timestamp.Format("2006-01-02T15:04:05Z07:00"), describeReceipt(r))
	}
	return strings.Join(lines, "\n")
}
