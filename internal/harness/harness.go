package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/ledgerd/internal/adapter"
	"github.com/roach88/ledgerd/internal/ledger"
	"github.com/roach88/ledgerd/internal/model"
	"github.com/roach88/ledgerd/internal/operation"
	"github.com/roach88/ledgerd/internal/store"
	"github.com/roach88/ledgerd/internal/testutil"
)

// Harness holds the components one scenario runs against.
type Harness struct {
	store   *store.Store
	adapter *adapter.Adapter
	logger  *slog.Logger
}

// Run executes a scenario against a fresh in-memory ledger and returns
// the result. The error return is reserved for infrastructure failures;
// mismatches are reported in Result.Errors.
//
// Execution flow:
//  1. Open an in-memory store with deterministic clock and ids
//  2. Start the executor in sync mode
//  3. Execute setup steps (all must succeed)
//  4. Execute flow steps, checking expect clauses
//  5. Evaluate assertions and capture the transaction log
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:", store.WithClock(testutil.NewDeterministicClock()))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	l := ledger.New(st,
		ledger.WithIDGenerator(testutil.NewSequenceGenerator("tx")),
		ledger.WithLogger(logger),
	)
	ex := operation.New(st,
		operation.WithIDGenerator(testutil.NewSequenceGenerator("cid")),
		operation.WithLogger(logger),
	)
	h := &Harness{store: st, adapter: adapter.New(l, ex), logger: logger}

	ctx := context.Background()
	if err := ex.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start executor: %w", err)
	}
	defer ex.Stop()

	result := NewResult()
	for i, step := range scenario.Setup {
		outcome, err := h.execute(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("setup step %d: %w", i, err)
		}
		if outcome.Status != StatusSucceeded {
			return nil, fmt.Errorf("setup step %d (%s): %s %s", i, step.Invoke, outcome.Status, outcome.Code)
		}
	}

	for i, step := range scenario.Flow {
		outcome, err := h.execute(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("flow step %d: %w", i, err)
		}
		result.Steps = append(result.Steps, outcome)
		if msg := checkExpect(step.Expect, outcome); msg != "" {
			result.AddError(fmt.Sprintf("flow step %d (%s): %s", i, step.Invoke, msg))
		}
	}

	for _, msg := range EvaluateAssertions(ctx, h.adapter, scenario.Assertions) {
		result.AddError(msg)
	}

	result.History, err = h.adapter.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return result, nil
}

// execute runs one step and classifies its outcome.
func (h *Harness) execute(ctx context.Context, step Step) (StepOutcome, error) {
	raw, err := json.Marshal(step.Args)
	if err != nil {
		return StepOutcome{}, fmt.Errorf("encode args: %w", err)
	}
	outcome := StepOutcome{Invoke: step.Invoke}

	if step.Invoke == InvokeCreateAsset {
		var a model.Asset
		if err := json.Unmarshal(raw, &a); err != nil {
			return StepOutcome{}, fmt.Errorf("decode asset: %w", err)
		}
		return classify(outcome, nil, h.adapter.CreateAsset(ctx, a))
	}

	res, err := h.adapter.Invoke(ctx, step.Invoke, raw)
	outcome.CorrelationID = res.CorrelationID
	return classify(outcome, &res, err)
}

// classify maps a call's return values onto a step status.
func classify(outcome StepOutcome, res *model.Result, err error) (StepOutcome, error) {
	var be *model.BusinessError
	switch {
	case model.IsValidation(err):
		outcome.Status = StatusRejected
	case errors.As(err, &be):
		outcome.Status = StatusFailed
		outcome.Code = be.Code.String()
	case err != nil:
		return StepOutcome{}, err
	case res == nil:
		outcome.Status = StatusSucceeded
	case !res.IsCompleted:
		outcome.Status = StatusPending
	case res.Error != nil:
		outcome.Status = StatusFailed
		outcome.Code = res.Error.Code.String()
	default:
		outcome.Status = StatusSucceeded
		outcome.TransactionID = res.Receipt.ID
	}
	return outcome, nil
}

func checkExpect(expect *Expect, got StepOutcome) string {
	if expect == nil {
		return ""
	}
	if expect.Status != got.Status {
		return fmt.Sprintf("expected status %s, got %s %s", expect.Status, got.Status, got.Code)
	}
	if expect.Code != "" && expect.Code != got.Code {
		return fmt.Sprintf("expected code %s, got %s", expect.Code, got.Code)
	}
	return ""
}
