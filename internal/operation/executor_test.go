package operation

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ledgerd/internal/canon"
	"github.com/roach88/ledgerd/internal/ledger"
	"github.com/roach88/ledgerd/internal/model"
	"github.com/roach88/ledgerd/internal/store"
	"github.com/roach88/ledgerd/internal/testutil"
)

type mintArgs struct {
	IdempotencyKey string         `json:"idempotencyKey"`
	Destination    string         `json:"destination"`
	Quantity       model.Quantity `json:"quantity"`
}

var assetX = model.Asset{ID: "X", Type: model.AssetTypeFiat}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "ops.db"),
		store.WithClock(testutil.NewDeterministicClock()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// counter is a business function that records how often it ran.
type counter struct {
	calls atomic.Int32
	err   error
}

func (c *counter) fn(_ context.Context, ref string, args mintArgs) (model.Receipt, error) {
	c.calls.Add(1)
	if c.err != nil {
		return model.Receipt{}, c.err
	}
	return model.Receipt{
		ID:            "tx-" + ref,
		OperationType: model.OperationIssue,
		Asset:         assetX,
		Quantity:      args.Quantity,
		Destination:   args.Destination,
		Timestamp:     testutil.Epoch,
	}, nil
}

func startExecutor(t *testing.T, ex *Executor) {
	t.Helper()
	require.NoError(t, ex.Start(context.Background()))
	t.Cleanup(ex.Stop)
}

func mint(key string) mintArgs {
	return mintArgs{IdempotencyKey: key, Destination: "alice", Quantity: model.MustQuantity("10")}
}

func TestSubmit_NotReadyBeforeStart(t *testing.T) {
	ex := New(openTestStore(t))
	c := &counter{}
	call := Register(ex, "issue", c.fn)

	_, err := call(context.Background(), mint("k1"))
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Zero(t, c.calls.Load())
}

func TestSubmit_DuplicateReturnsStoredResult(t *testing.T) {
	ex := New(openTestStore(t), WithIDGenerator(testutil.NewSequenceGenerator("cid")))
	c := &counter{}
	call := Register(ex, "issue", c.fn)
	startExecutor(t, ex)
	ctx := context.Background()

	first, err := call(ctx, mint("k1"))
	require.NoError(t, err)
	require.True(t, first.Succeeded())
	assert.Equal(t, "cid-1", first.CorrelationID)
	assert.Equal(t, "tx-cid-1", first.Receipt.ID)

	second, err := call(ctx, mint("k1"))
	require.NoError(t, err)
	assert.Equal(t, first.CorrelationID, second.CorrelationID)
	assert.Equal(t, first.Receipt.ID, second.Receipt.ID)
	assert.Equal(t, "10", second.Receipt.Quantity.String())
	assert.Equal(t, int32(1), c.calls.Load())

	third, err := call(ctx, mint("k2"))
	require.NoError(t, err)
	assert.NotEqual(t, first.CorrelationID, third.CorrelationID, "a new key is a new operation")
	assert.Equal(t, int32(2), c.calls.Load())
}

func TestSubmit_ConcurrentDuplicatesRunOnce(t *testing.T) {
	ex := New(openTestStore(t))
	c := &counter{}
	call := Register(ex, "issue", c.fn)
	startExecutor(t, ex)

	const n = 16
	var wg sync.WaitGroup
	results := make([]model.Result, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = call(context.Background(), mint("same"))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), c.calls.Load())
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].CorrelationID, results[i].CorrelationID)
	}
}

func TestSubmit_FailureIsTerminal(t *testing.T) {
	ex := New(openTestStore(t))
	c := &counter{err: model.NewBusinessError(model.CodeInsufficientBalance, "alice holds 0")}
	call := Register(ex, "issue", c.fn)
	startExecutor(t, ex)
	ctx := context.Background()

	res, err := call(ctx, mint("k1"))
	require.NoError(t, err, "business failures travel inside the result")
	assert.True(t, res.IsCompleted)
	require.NotNil(t, res.Error)
	assert.Equal(t, model.CodeInsufficientBalance, res.Error.Code)
	assert.Nil(t, res.Receipt)

	c.err = nil
	again, err := call(ctx, mint("k1"))
	require.NoError(t, err)
	assert.Equal(t, res, again, "the recorded failure is replayed, not retried")
	assert.Equal(t, int32(1), c.calls.Load())
}

func TestSubmit_InternalErrorRecorded(t *testing.T) {
	ex := New(openTestStore(t))
	c := &counter{err: errors.New("disk full")}
	call := Register(ex, "issue", c.fn)
	startExecutor(t, ex)

	res, err := call(context.Background(), mint("k1"))
	require.NoError(t, err)
	require.NotNil(t, res.Error)
	assert.Equal(t, model.CodeInternal, res.Error.Code)
	assert.Equal(t, "disk full", res.Error.Message)

	status, err := ex.Status(context.Background(), res.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, res, status)
}

func TestStatus_UnknownCorrelationID(t *testing.T) {
	ex := New(openTestStore(t))
	startExecutor(t, ex)

	_, err := ex.Status(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRegister_PanicsOnDuplicate(t *testing.T) {
	ex := New(openTestStore(t))
	c := &counter{}
	Register(ex, "issue", c.fn)
	assert.Panics(t, func() { Register(ex, "issue", c.fn) })
}

// seedInProgress writes the row a crashed process would leave behind.
func seedInProgress(t *testing.T, s *store.Store, cid, method string, args any) {
	t.Helper()
	inputs, err := canon.OperationInputs(method, args)
	require.NoError(t, err)
	_, inserted, err := s.SubmitOperation(context.Background(), model.Operation{
		CorrelationID: cid,
		Method:        method,
		Inputs:        inputs,
		Identity:      canon.OperationIdentity(inputs),
	})
	require.NoError(t, err)
	require.True(t, inserted)
}

func TestStart_RecoversInProgressOperations(t *testing.T) {
	s := openTestStore(t)
	seedInProgress(t, s, "cid-a", "issue", mint("k1"))
	seedInProgress(t, s, "cid-b", "issue", mint("k2"))
	seedInProgress(t, s, "cid-c", "issue", mint("k3"))
	require.NoError(t, s.MarkOperationPending(context.Background(), "cid-c", "ext-1"))

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	ex := New(s, WithMetrics(metrics))
	c := &counter{}
	call := Register(ex, "issue", c.fn)
	startExecutor(t, ex)

	assert.Equal(t, int32(2), c.calls.Load())
	assert.Equal(t, 2.0, promtestutil.ToFloat64(metrics.recovered.WithLabelValues("issue")))

	for _, cid := range []string{"cid-a", "cid-b"} {
		res, err := ex.Status(context.Background(), cid)
		require.NoError(t, err)
		assert.True(t, res.Succeeded(), cid)
	}
	res, err := ex.Status(context.Background(), "cid-c")
	require.NoError(t, err)
	assert.False(t, res.IsCompleted, "externally pending rows wait for Resolve")

	again, err := call(context.Background(), mint("k1"))
	require.NoError(t, err)
	assert.Equal(t, "cid-a", again.CorrelationID)
	assert.Equal(t, int32(2), c.calls.Load())
}

func TestStart_RecoveryDoesNotRepeatLedgerEffect(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	l := ledger.New(s)

	// The movement committed, then the process died before completing the row.
	seedInProgress(t, s, "cid-1", "issue", mint("k1"))
	applied, err := l.Issue(ctx, "cid-1", assetX, "alice", model.MustQuantity("10"), nil)
	require.NoError(t, err)

	ex := New(s)
	Register(ex, "issue", func(ctx context.Context, ref string, a mintArgs) (model.Receipt, error) {
		return l.Issue(ctx, ref, assetX, a.Destination, a.Quantity, nil)
	})
	startExecutor(t, ex)

	res, err := ex.Status(ctx, "cid-1")
	require.NoError(t, err)
	require.True(t, res.Succeeded())
	assert.Equal(t, applied.ID, res.Receipt.ID)

	bal, err := l.Balance(ctx, "alice", "X")
	require.NoError(t, err)
	assert.Equal(t, "10", bal.String())
}

func TestAsync_PollMode(t *testing.T) {
	ex := New(openTestStore(t), WithMode(AsyncMode{
		Strategy: model.ResponseStrategy{Kind: model.ResponsePoll, PollIntervalMs: 250},
		Workers:  2,
	}))
	c := &counter{}
	call := Register(ex, "issue", c.fn)
	startExecutor(t, ex)
	ctx := context.Background()

	res, err := call(ctx, mint("k1"))
	require.NoError(t, err)
	assert.False(t, res.IsCompleted)
	require.NotNil(t, res.Response)
	assert.Equal(t, model.ResponsePoll, res.Response.Kind)
	assert.Equal(t, int64(250), res.Response.PollIntervalMs)

	require.Eventually(t, func() bool {
		st, err := ex.Status(ctx, res.CorrelationID)
		return err == nil && st.IsCompleted
	}, 5*time.Second, 10*time.Millisecond)

	st, err := ex.Status(ctx, res.CorrelationID)
	require.NoError(t, err)
	assert.True(t, st.Succeeded())
	assert.Nil(t, st.Response)
}

func TestAsync_CallbackMode(t *testing.T) {
	sink := &recordingSink{}
	ex := New(openTestStore(t), WithMode(AsyncMode{
		Strategy: model.ResponseStrategy{Kind: model.ResponseCallback},
		Workers:  4,
		Sink:     sink,
	}))
	c := &counter{}
	call := Register(ex, "issue", c.fn)
	startExecutor(t, ex)
	ctx := context.Background()

	cids := make(map[string]bool)
	for i := 0; i < 10; i++ {
		res, err := call(ctx, mint(fmt.Sprintf("k%d", i)))
		require.NoError(t, err)
		require.NotNil(t, res.Response)
		assert.Equal(t, model.ResponseCallback, res.Response.Kind)
		cids[res.CorrelationID] = true
	}

	require.Eventually(t, func() bool { return len(sink.Results()) == 10 }, 5*time.Second, 10*time.Millisecond)
	for _, r := range sink.Results() {
		assert.True(t, cids[r.CorrelationID])
		assert.True(t, r.Succeeded())
	}
}

func TestStop_DrainsQueuedWork(t *testing.T) {
	ex := New(openTestStore(t), WithMode(AsyncMode{Workers: 1}))
	c := &counter{}
	call := Register(ex, "issue", c.fn)
	require.NoError(t, ex.Start(context.Background()))

	for i := 0; i < 5; i++ {
		_, err := call(context.Background(), mint(fmt.Sprintf("k%d", i)))
		require.NoError(t, err)
	}
	ex.Stop()

	assert.Equal(t, int32(5), c.calls.Load())
	_, err := call(context.Background(), mint("late"))
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestPending_ResolveExactlyOnce(t *testing.T) {
	sink := &recordingSink{}
	ex := New(openTestStore(t), WithMode(AsyncMode{
		Strategy: model.ResponseStrategy{Kind: model.ResponseCallback},
		Sink:     sink,
	}))
	call := Register(ex, "issue", func(ctx context.Context, ref string, a mintArgs) (model.Receipt, error) {
		return model.Receipt{}, &PendingError{Ref: "ext-" + a.IdempotencyKey}
	})
	startExecutor(t, ex)
	ctx := context.Background()

	res, err := call(ctx, mint("k1"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, err := ex.store.OperationByAsyncRef(ctx, "ext-k1")
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	st, err := ex.Status(ctx, res.CorrelationID)
	require.NoError(t, err)
	assert.False(t, st.IsCompleted)

	rcpt := model.Receipt{ID: "tx-ext", OperationType: model.OperationIssue, Asset: assetX,
		Quantity: model.MustQuantity("10"), Destination: "alice", Timestamp: testutil.Epoch}
	resolved, err := ex.ResolveRef(ctx, "ext-k1", rcpt, nil)
	require.NoError(t, err)
	require.True(t, resolved.Succeeded())
	assert.Equal(t, "tx-ext", resolved.Receipt.ID)

	again, err := ex.Resolve(ctx, res.CorrelationID, model.Receipt{}, errors.New("late failure"))
	require.NoError(t, err)
	assert.True(t, again.Succeeded(), "first resolution wins")

	assert.Len(t, sink.Results(), 1)
	_, err = ex.ResolveRef(ctx, "ext-k1", rcpt, nil)
	assert.ErrorIs(t, err, store.ErrNotFound, "the ref is cleared on completion")
}

func TestResolve_RejectsOperationsNotAwaitingResult(t *testing.T) {
	s := openTestStore(t)
	seedInProgress(t, s, "cid-1", "other", mint("k1"))
	ex := New(s)
	startExecutor(t, ex)

	_, err := ex.Resolve(context.Background(), "cid-1", model.Receipt{}, nil)
	assert.Error(t, err)
}

func TestMetrics_CountSubmissionsAndCompletions(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	ex := New(openTestStore(t), WithMetrics(metrics))
	ok := &counter{}
	bad := &counter{err: model.NewBusinessError(model.CodeUnknownAsset, "no")}
	issue := Register(ex, "issue", ok.fn)
	redeem := Register(ex, "redeem", bad.fn)
	startExecutor(t, ex)
	ctx := context.Background()

	for _, key := range []string{"a", "a", "b"} {
		_, err := issue(ctx, mint(key))
		require.NoError(t, err)
	}
	_, err := redeem(ctx, mint("a"))
	require.NoError(t, err)

	assert.Equal(t, 2.0, promtestutil.ToFloat64(metrics.submitted.WithLabelValues("issue", "new")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(metrics.submitted.WithLabelValues("issue", "duplicate")))
	assert.Equal(t, 2.0, promtestutil.ToFloat64(metrics.completed.WithLabelValues("issue", "succeeded")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(metrics.completed.WithLabelValues("redeem", "failed")))
}
