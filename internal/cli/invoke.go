package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ledgerd/internal/adapter"
	"github.com/roach88/ledgerd/internal/model"
)

// MethodCreateAsset is accepted by invoke alongside the movement verbs.
const MethodCreateAsset = "createAsset"

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	DatabaseOptions
	Args string
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{DatabaseOptions: DatabaseOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "invoke <method>",
		Short: "Run one operation against the ledger",
		Long: fmt.Sprintf(`Run one operation in-process against the ledger database.

The operation goes through the idempotent executor: invoking the same
method with the same arguments (including the idempotency key) again
returns the recorded result without touching balances.

Methods: %s, %s

Example:
  ledgerd invoke createAsset --db ./ledgerd.db --args '{"id":"usd","type":"fiat"}'
  ledgerd invoke issue --db ./ledgerd.db --args '{"asset":{"id":"usd","type":"fiat"},"destination":"alice","quantity":"100","idempotencyKey":"k1"}'`,
			strings.Join(adapter.Methods, ", "), MethodCreateAsset),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return invoke(opts, args[0], cmd)
		},
	}

	addDatabaseFlag(cmd, &opts.DatabaseOptions)
	cmd.Flags().StringVar(&opts.Args, "args", "{}", "operation arguments as JSON")

	return cmd
}

func invoke(opts *InvokeOptions, method string, cmd *cobra.Command) error {
	if !json.Valid([]byte(opts.Args)) {
		return NewExitError(ExitCommandError, "invalid --args JSON")
	}
	out := opts.formatter(cmd)

	return opts.withRuntime(cmd, true, func(ctx context.Context, rt *runtime) error {
		if method == MethodCreateAsset {
			return createAsset(ctx, rt, opts.Args, out)
		}

		res, err := rt.adapter.Invoke(ctx, method, []byte(opts.Args))
		if err != nil {
			return out.Fail(method+" rejected", err)
		}
		if err := out.Success(res, describeResult(res)); err != nil {
			return err
		}
		if res.IsCompleted && !res.Succeeded() {
			return NewExitError(ExitFailure, fmt.Sprintf("%s failed: %s", method, res.Error.Message))
		}
		return nil
	})
}

func createAsset(ctx context.Context, rt *runtime, raw string, out *OutputFormatter) error {
	var asset model.Asset
	if err := json.Unmarshal([]byte(raw), &asset); err != nil {
		return out.Fail("createAsset rejected", &model.ValidationError{Message: err.Error()})
	}
	if err := rt.adapter.CreateAsset(ctx, asset); err != nil {
		return out.Fail("createAsset rejected", err)
	}
	return out.Success(asset, "created "+asset.String())
}

// describeResult renders res on one line for text output.
func describeResult(res model.Result) string {
	switch {
	case !res.IsCompleted && res.Response != nil:
		return fmt.Sprintf("%s pending (%s)", res.CorrelationID, res.Response.Kind)
	case !res.IsCompleted:
		return res.CorrelationID + " pending"
	case res.Error != nil:
		return fmt.Sprintf("%s failed [%d]: %s", res.CorrelationID, res.Error.Code, res.Error.Message)
	default:
		return fmt.Sprintf("%s succeeded: %s", res.CorrelationID, describeReceipt(*res.Receipt))
	}
}

func describeReceipt(r model.Receipt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s %s", r.ID, r.OperationType, r.Quantity, r.Asset)
	if r.Source != "" {
		fmt.Fprintf(&b, " from %s", r.Source)
	}
	if r.Destination != "" {
		fmt.Fprintf(&b, " to %s", r.Destination)
	}
	if r.OperationID != "" {
		fmt.Fprintf(&b, " hold %s", r.OperationID)
	}
	return b.String()
}
