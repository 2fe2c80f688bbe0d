package operation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/roach88/ledgerd/internal/canon"
	"github.com/roach88/ledgerd/internal/model"
	"github.com/roach88/ledgerd/internal/store"
)

// Func is a business call the executor can wrap. ref is the correlation id
// of the driving operation; fn must produce at most one side effect per ref.
type Func[A any] func(ctx context.Context, ref string, args A) (model.Receipt, error)

// Call is the wrapped form of a Func. It returns a completed or pending
// result; the error return is reserved for failures that happen before an
// operation row exists (not ready, unencodable arguments, storage down).
type Call[A any] func(ctx context.Context, args A) (model.Result, error)

// handler runs a registered Func from its stored canonical inputs.
type handler func(ctx context.Context, ref, inputs string) (model.Receipt, error)

// Executor is the idempotency executor.
//
// Thread-safety model:
//   - Register: before Start, from one goroutine
//   - wrapped calls, Resolve, Status: safe from any goroutine once started
//   - Start, Stop: once each
type Executor struct {
	store   *store.Store
	mode    Mode
	ids     model.IDGenerator
	logger  *slog.Logger
	metrics *Metrics

	handlers map[string]handler
	methods  []string // registration order, drives the recovery pass

	ready   atomic.Bool
	started bool
	queue   *jobQueue
	cancel  context.CancelFunc
	workers sync.WaitGroup
}

// Option configures an Executor.
type Option func(*Executor)

// WithMode sets the execution mode. Default: SyncMode.
func WithMode(m Mode) Option {
	return func(ex *Executor) {
		ex.mode = m
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ex *Executor) {
		ex.logger = logger
	}
}

// WithMetrics enables counters. Default: none.
func WithMetrics(m *Metrics) Option {
	return func(ex *Executor) {
		ex.metrics = m
	}
}

// WithIDGenerator sets the correlation id generator. Default: UUIDv7.
func WithIDGenerator(g model.IDGenerator) Option {
	return func(ex *Executor) {
		ex.ids = g
	}
}

// New creates an Executor over s. Register methods, then call Start.
func New(s *store.Store, opts ...Option) *Executor {
	ex := &Executor{
		store:    s,
		mode:     SyncMode{},
		ids:      model.UUIDv7Generator{},
		logger:   slog.Default(),
		handlers: make(map[string]handler),
		queue:    newJobQueue(),
	}
	for _, opt := range opts {
		opt(ex)
	}
	return ex
}

// Register wraps fn under method and returns the idempotent call.
// Panics if method is already registered or the executor has started.
func Register[A any](ex *Executor, method string, fn Func[A]) Call[A] {
	if ex.started {
		panic(fmt.Sprintf("operation: register %q after Start", method))
	}
	if _, dup := ex.handlers[method]; dup {
		panic(fmt.Sprintf("operation: method %q registered twice", method))
	}

	ex.handlers[method] = func(ctx context.Context, ref, inputs string) (model.Receipt, error) {
		args, err := decodeArgs[A](inputs)
		if err != nil {
			return model.Receipt{}, err
		}
		return fn(ctx, ref, args)
	}
	ex.methods = append(ex.methods, method)

	return func(ctx context.Context, args A) (model.Result, error) {
		return ex.submit(ctx, method, args)
	}
}

// decodeArgs recovers the typed arguments from a canonical inputs document.
func decodeArgs[A any](inputs string) (A, error) {
	var args A
	var doc struct {
		Args json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal([]byte(inputs), &doc); err != nil {
		return args, fmt.Errorf("decode inputs: %w", err)
	}
	if err := json.Unmarshal(doc.Args, &args); err != nil {
		return args, fmt.Errorf("decode args: %w", err)
	}
	return args, nil
}

// Start runs the recovery pass and then accepts calls. In async mode it
// also starts the worker pool, which runs until ctx is cancelled or Stop.
func (ex *Executor) Start(ctx context.Context) error {
	if ex.started {
		return errors.New("executor already started")
	}
	ex.started = true

	if _, err := ex.Recover(ctx); err != nil {
		return err
	}

	n := workerCount(ex.mode)
	if n > 0 {
		wctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		ex.cancel = cancel
		for i := 0; i < n; i++ {
			ex.workers.Add(1)
			go ex.work(wctx)
		}
		go func() {
			select {
			case <-ctx.Done():
				ex.Stop()
			case <-wctx.Done():
			}
		}()
	}

	ex.ready.Store(true)
	ex.logger.Info("executor ready", "methods", len(ex.methods), "workers", n)
	return nil
}

// Stop refuses new calls, lets the workers drain the queue and waits for
// them. Operations still queued when a worker's context ends stay
// in_progress and are re-driven by the next recovery pass.
func (ex *Executor) Stop() {
	ex.ready.Store(false)
	ex.queue.Close()
	ex.workers.Wait()
	if ex.cancel != nil {
		ex.cancel()
	}
}

// Ready reports whether the executor accepts calls.
func (ex *Executor) Ready() bool {
	return ex.ready.Load()
}

// Recover re-drives every in_progress operation of the registered methods,
// in registration then submission order. Rows waiting on an external
// reference are left for Resolve. Returns the number of operations
// re-driven.
func (ex *Executor) Recover(ctx context.Context) (int, error) {
	recovered := 0
	for _, method := range ex.methods {
		ops, err := ex.store.InProgressOperations(ctx, method)
		if err != nil {
			return recovered, fmt.Errorf("recover %s: %w", method, err)
		}
		for _, op := range ops {
			if op.AsyncRef != "" {
				ex.logger.Info("operation awaiting external result",
					"cid", op.CorrelationID, "method", method, "ref", op.AsyncRef)
				continue
			}
			ex.logger.Info("recovering operation", "cid", op.CorrelationID, "method", method)
			if _, err := ex.run(ctx, op); err != nil {
				return recovered, fmt.Errorf("recover %s: %w", op.CorrelationID, err)
			}
			ex.metrics.observeRecovered(method)
			recovered++
		}
	}
	if recovered > 0 {
		ex.logger.Info("recovery pass complete", "recovered", recovered)
	}
	return recovered, nil
}

// submit is the body of every wrapped call.
func (ex *Executor) submit(ctx context.Context, method string, args any) (model.Result, error) {
	if !ex.ready.Load() {
		return model.Result{}, ErrNotReady
	}

	inputs, err := canon.OperationInputs(method, args)
	if err != nil {
		return model.Result{}, fmt.Errorf("%s: %w", method, err)
	}
	op := model.Operation{
		CorrelationID: ex.ids.Generate(),
		Method:        method,
		Inputs:        inputs,
		Identity:      canon.OperationIdentity(inputs),
	}

	stored, inserted, err := ex.store.SubmitOperation(ctx, op)
	if err != nil {
		return model.Result{}, fmt.Errorf("%s: %w", method, err)
	}
	ex.metrics.observeSubmit(method, inserted)

	if !inserted {
		ex.logger.Debug("duplicate submission", "cid", stored.CorrelationID, "method", method)
		return ex.resultOf(stored)
	}

	if _, async := ex.mode.(AsyncMode); async {
		if !ex.queue.Enqueue(stored) {
			ex.logger.Warn("executor stopping, operation left for recovery",
				"cid", stored.CorrelationID, "method", method)
		} else {
			ex.logger.Debug("operation queued",
				"cid", stored.CorrelationID, "method", method, "depth", ex.queue.Len())
		}
		return model.Result{
			CorrelationID: stored.CorrelationID,
			Response:      pendingStrategy(ex.mode),
		}, nil
	}
	return ex.run(ctx, stored)
}

// run invokes the business call for op and records its outcome. Once
// started, a ledger effect runs to completion even if the caller goes away.
func (ex *Executor) run(ctx context.Context, op model.Operation) (model.Result, error) {
	ctx = context.WithoutCancel(ctx)

	h, ok := ex.handlers[op.Method]
	if !ok {
		return model.Result{}, fmt.Errorf("no handler for method %q", op.Method)
	}
	rcpt, callErr := h(ctx, op.CorrelationID, op.Inputs)
	return ex.complete(ctx, op, rcpt, callErr)
}

// complete maps a business outcome onto the operation row:
// success -> succeeded, PendingError -> stays in_progress with its ref,
// anything else -> failed.
func (ex *Executor) complete(ctx context.Context, op model.Operation, rcpt model.Receipt, callErr error) (model.Result, error) {
	var pending *PendingError
	if errors.As(callErr, &pending) {
		if err := ex.store.MarkOperationPending(ctx, op.CorrelationID, pending.Ref); err != nil {
			return model.Result{}, err
		}
		ex.logger.Info("operation pending", "cid", op.CorrelationID, "method", op.Method, "ref", pending.Ref)
		return model.Result{CorrelationID: op.CorrelationID, Response: pendingStrategy(ex.mode)}, nil
	}

	status := model.StatusSucceeded
	var outputs []byte
	var err error
	if callErr == nil {
		outputs, err = json.Marshal(rcpt)
	} else {
		status = model.StatusFailed
		outputs, err = json.Marshal(model.NewErrorInfo(callErr))
	}
	if err != nil {
		return model.Result{}, fmt.Errorf("encode outputs of %s: %w", op.CorrelationID, err)
	}

	updated, err := ex.store.CompleteOperation(ctx, op.CorrelationID, status, string(outputs))
	if err != nil {
		return model.Result{}, err
	}
	if !updated {
		// Another path completed the row first; its outcome stands.
		stored, err := ex.store.Operation(ctx, op.CorrelationID)
		if err != nil {
			return model.Result{}, err
		}
		return ex.resultOf(stored)
	}

	ex.metrics.observeComplete(op.Method, string(status))
	if callErr != nil {
		ex.logger.Info("operation failed", "cid", op.CorrelationID, "method", op.Method, "error", callErr)
	} else {
		ex.logger.Info("operation succeeded", "cid", op.CorrelationID, "method", op.Method, "tx", rcpt.ID)
	}

	op.Status = status
	op.Outputs = string(outputs)
	res, err := op.Result()
	if err != nil {
		return model.Result{}, err
	}
	ex.deliver(ctx, res)
	return res, nil
}

// deliver pushes a terminal result to the callback sink, if any.
// Delivery failures are logged; the result stays available by status lookup.
func (ex *Executor) deliver(ctx context.Context, res model.Result) {
	sink := callbackSink(ex.mode)
	if sink == nil {
		return
	}
	if err := sink.Deliver(ctx, res); err != nil {
		ex.logger.Warn("callback delivery failed", "cid", res.CorrelationID, "error", err)
	}
}

// resultOf is the caller-facing view of a stored row.
func (ex *Executor) resultOf(op model.Operation) (model.Result, error) {
	res, err := op.Result()
	if err != nil {
		return model.Result{}, err
	}
	if !res.IsCompleted {
		res.Response = pendingStrategy(ex.mode)
	}
	return res, nil
}

// work is one async worker. It exits when ctx ends or the queue is closed
// and drained.
func (ex *Executor) work(ctx context.Context) {
	defer ex.workers.Done()
	for {
		if op, ok := ex.queue.TryDequeue(); ok {
			if _, err := ex.run(ctx, op); err != nil {
				ex.logger.Error("operation left in progress",
					"cid", op.CorrelationID, "method", op.Method, "error", err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-ex.queue.Wait():
			if ex.queue.Drained() {
				return
			}
		}
	}
}

// Status returns the current result of an operation by correlation id.
func (ex *Executor) Status(ctx context.Context, correlationID string) (model.Result, error) {
	op, err := ex.store.Operation(ctx, correlationID)
	if err != nil {
		return model.Result{}, fmt.Errorf("operation %s: %w", correlationID, err)
	}
	return ex.resultOf(op)
}

// Resolve delivers the outcome of an operation that returned a
// PendingError. Resolving a terminal operation changes nothing and returns
// its recorded result.
func (ex *Executor) Resolve(ctx context.Context, correlationID string, rcpt model.Receipt, callErr error) (model.Result, error) {
	op, err := ex.store.Operation(ctx, correlationID)
	if err != nil {
		return model.Result{}, fmt.Errorf("operation %s: %w", correlationID, err)
	}
	return ex.resolve(ctx, op, rcpt, callErr)
}

// ResolveRef is Resolve keyed by the external reference of a PendingError.
func (ex *Executor) ResolveRef(ctx context.Context, asyncRef string, rcpt model.Receipt, callErr error) (model.Result, error) {
	op, err := ex.store.OperationByAsyncRef(ctx, asyncRef)
	if err != nil {
		return model.Result{}, fmt.Errorf("async ref %s: %w", asyncRef, err)
	}
	return ex.resolve(ctx, op, rcpt, callErr)
}

func (ex *Executor) resolve(ctx context.Context, op model.Operation, rcpt model.Receipt, callErr error) (model.Result, error) {
	if op.Status.Terminal() {
		return ex.resultOf(op)
	}
	if op.AsyncRef == "" {
		return model.Result{}, fmt.Errorf("operation %s is not awaiting an external result", op.CorrelationID)
	}
	return ex.complete(context.WithoutCancel(ctx), op, rcpt, callErr)
}
