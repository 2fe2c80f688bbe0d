package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/roach88/ledgerd/internal/ledger"
	"github.com/roach88/ledgerd/internal/model"
	"github.com/roach88/ledgerd/internal/operation"
	"github.com/roach88/ledgerd/internal/store"
)

// Adapter is the inbound surface of the ledger.
type Adapter struct {
	ledger   *ledger.Ledger
	executor *operation.Executor

	issue    operation.Call[IssueRequest]
	transfer operation.Call[TransferRequest]
	redeem   operation.Call[RedeemRequest]
	hold     operation.Call[HoldRequest]
	release  operation.Call[ReleaseRequest]
	rollback operation.Call[RollbackRequest]
}

// New registers the movement verbs with ex. It must be called before
// ex.Start so the recovery pass covers them.
func New(l *ledger.Ledger, ex *operation.Executor) *Adapter {
	return &Adapter{
		ledger:   l,
		executor: ex,

		issue: operation.Register(ex, MethodIssue, func(ctx context.Context, ref string, r IssueRequest) (model.Receipt, error) {
			q, err := r.validate()
			if err != nil {
				return model.Receipt{}, err
			}
			return l.Issue(ctx, ref, r.Asset, r.Destination, q, r.ExecutionContext)
		}),
		transfer: operation.Register(ex, MethodTransfer, func(ctx context.Context, ref string, r TransferRequest) (model.Receipt, error) {
			q, err := r.validate()
			if err != nil {
				return model.Receipt{}, err
			}
			return l.Transfer(ctx, ref, r.Source, r.Destination, r.Asset, q, r.ExecutionContext)
		}),
		redeem: operation.Register(ex, MethodRedeem, func(ctx context.Context, ref string, r RedeemRequest) (model.Receipt, error) {
			q, err := r.validate()
			if err != nil {
				return model.Receipt{}, err
			}
			return l.Redeem(ctx, ref, r.Source, r.Asset, q, r.OperationID, r.ExecutionContext)
		}),
		hold: operation.Register(ex, MethodHold, func(ctx context.Context, ref string, r HoldRequest) (model.Receipt, error) {
			q, err := r.validate()
			if err != nil {
				return model.Receipt{}, err
			}
			return l.Hold(ctx, ref, r.OperationID, r.Source, r.Destination, r.Asset, q, r.ExecutionContext)
		}),
		release: operation.Register(ex, MethodRelease, func(ctx context.Context, ref string, r ReleaseRequest) (model.Receipt, error) {
			q, err := r.validate()
			if err != nil {
				return model.Receipt{}, err
			}
			return l.Release(ctx, ref, r.OperationID, r.Source, r.Destination, r.Asset, q, r.ExecutionContext)
		}),
		rollback: operation.Register(ex, MethodRollback, func(ctx context.Context, ref string, r RollbackRequest) (model.Receipt, error) {
			q, err := r.validate()
			if err != nil {
				return model.Receipt{}, err
			}
			return l.Rollback(ctx, ref, r.OperationID, r.Source, r.Asset, q, r.ExecutionContext)
		}),
	}
}

// Issue mints funds. See IssueRequest.
func (a *Adapter) Issue(ctx context.Context, r IssueRequest) (model.Result, error) {
	if _, err := r.validate(); err != nil {
		return model.Result{}, err
	}
	return a.issue(ctx, r.normalized())
}

// Transfer moves funds. See TransferRequest.
func (a *Adapter) Transfer(ctx context.Context, r TransferRequest) (model.Result, error) {
	if _, err := r.validate(); err != nil {
		return model.Result{}, err
	}
	return a.transfer(ctx, r.normalized())
}

// Redeem burns funds. See RedeemRequest.
func (a *Adapter) Redeem(ctx context.Context, r RedeemRequest) (model.Result, error) {
	if _, err := r.validate(); err != nil {
		return model.Result{}, err
	}
	return a.redeem(ctx, r.normalized())
}

// Hold escrows funds. See HoldRequest.
func (a *Adapter) Hold(ctx context.Context, r HoldRequest) (model.Result, error) {
	if _, err := r.validate(); err != nil {
		return model.Result{}, err
	}
	return a.hold(ctx, r.normalized())
}

// Release pays out escrowed funds. See ReleaseRequest.
func (a *Adapter) Release(ctx context.Context, r ReleaseRequest) (model.Result, error) {
	if _, err := r.validate(); err != nil {
		return model.Result{}, err
	}
	return a.release(ctx, r.normalized())
}

// Rollback returns escrowed funds. See RollbackRequest.
func (a *Adapter) Rollback(ctx context.Context, r RollbackRequest) (model.Result, error) {
	if _, err := r.validate(); err != nil {
		return model.Result{}, err
	}
	return a.rollback(ctx, r.normalized())
}

// Invoke decodes a JSON request for method and dispatches it. Unknown
// methods and unknown or malformed fields are validation errors.
func (a *Adapter) Invoke(ctx context.Context, method string, raw []byte) (model.Result, error) {
	switch method {
	case MethodIssue:
		return dispatch(ctx, raw, a.Issue)
	case MethodTransfer:
		return dispatch(ctx, raw, a.Transfer)
	case MethodRedeem:
		return dispatch(ctx, raw, a.Redeem)
	case MethodHold:
		return dispatch(ctx, raw, a.Hold)
	case MethodRelease:
		return dispatch(ctx, raw, a.Release)
	case MethodRollback:
		return dispatch(ctx, raw, a.Rollback)
	default:
		return model.Result{}, &model.ValidationError{Field: "method", Message: fmt.Sprintf("unknown method %q", method)}
	}
}

func dispatch[R any](ctx context.Context, raw []byte, call func(context.Context, R) (model.Result, error)) (model.Result, error) {
	if !utf8.Valid(raw) {
		return model.Result{}, &model.ValidationError{Message: "request is not valid UTF-8"}
	}
	var req R
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return model.Result{}, &model.ValidationError{Message: err.Error()}
	}
	return call(ctx, req)
}

// CreateAsset registers an asset ahead of its first issue.
func (a *Adapter) CreateAsset(ctx context.Context, asset model.Asset) error {
	var v validator
	v.asset(asset)
	if v.err != nil {
		return v.err
	}
	return a.ledger.CreateAsset(ctx, nfcAsset(asset))
}

// Balance returns owner's balance of assetID.
func (a *Adapter) Balance(ctx context.Context, owner, assetID string) (model.Quantity, error) {
	var v validator
	v.required("owner", owner)
	v.required("asset", assetID)
	if v.err != nil {
		return model.Quantity{}, v.err
	}
	return a.ledger.Balance(ctx, nfc(owner), nfc(assetID))
}

// Holders lists every account of assetID with its balance, ordered by
// owner.
func (a *Adapter) Holders(ctx context.Context, assetID string) ([]store.AccountBalance, error) {
	var v validator
	v.required("asset", assetID)
	if v.err != nil {
		return nil, v.err
	}
	return a.ledger.Holders(ctx, nfc(assetID))
}

// Receipt looks up a transaction by id.
// An unknown id is a CodeUnknownOperation business error.
func (a *Adapter) Receipt(ctx context.Context, transactionID string) (model.Receipt, error) {
	r, err := a.ledger.Receipt(ctx, nfc(transactionID))
	if errors.Is(err, store.ErrNotFound) {
		return model.Receipt{}, model.NewBusinessError(model.CodeUnknownOperation, "no transaction %s", transactionID)
	}
	return r, err
}

// OperationStatus returns the result of an operation by correlation id.
// An unknown id is a CodeUnknownOperation business error.
func (a *Adapter) OperationStatus(ctx context.Context, correlationID string) (model.Result, error) {
	res, err := a.executor.Status(ctx, nfc(correlationID))
	if errors.Is(err, store.ErrNotFound) {
		return model.Result{}, model.NewBusinessError(model.CodeUnknownOperation, "no operation %s", correlationID)
	}
	return res, err
}

// History returns the transaction log in append order.
func (a *Adapter) History(ctx context.Context) ([]model.Receipt, error) {
	return a.ledger.History(ctx)
}
