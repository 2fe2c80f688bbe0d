package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/ledgerd/internal/adapter"
)

// EvaluateAssertions checks every assertion against the ledger and returns
// one message per failure.
func EvaluateAssertions(ctx context.Context, a *adapter.Adapter, assertions []Assertion) []string {
	var errs []string
	for i, as := range assertions {
		if msg := evaluate(ctx, a, as); msg != "" {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %s", i, as.Type, msg))
		}
	}
	return errs
}

func evaluate(ctx context.Context, a *adapter.Adapter, as Assertion) string {
	switch as.Type {
	case AssertBalance:
		got, err := a.Balance(ctx, as.Owner, as.Asset)
		if err != nil {
			return err.Error()
		}
		if got.String() != as.Equals {
			return fmt.Sprintf("balance(%s, %s) = %s, expected %s", as.Owner, as.Asset, got, as.Equals)
		}

	case AssertHistoryCount:
		history, err := a.History(ctx)
		if err != nil {
			return err.Error()
		}
		if len(history) != as.Count {
			return fmt.Sprintf("history has %d receipts, expected %d", len(history), as.Count)
		}

	case AssertHistoryOrder:
		history, err := a.History(ctx)
		if err != nil {
			return err.Error()
		}
		got := make([]string, len(history))
		for i, r := range history {
			got[i] = string(r.OperationType)
		}
		if strings.Join(got, ",") != strings.Join(as.Types, ",") {
			return fmt.Sprintf("history order %v, expected %v", got, as.Types)
		}

	default:
		return fmt.Sprintf("unknown assertion type %q", as.Type)
	}
	return ""
}
