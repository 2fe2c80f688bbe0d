package adapter

import (
	"github.com/roach88/ledgerd/internal/model"
)

// Method names as recorded in the operation store.
const (
	MethodIssue    = "issue"
	MethodTransfer = "transfer"
	MethodRedeem   = "redeem"
	MethodHold     = "hold"
	MethodRelease  = "release"
	MethodRollback = "rollback"
)

// Methods lists the movement verbs in registration order.
var Methods = []string{MethodIssue, MethodTransfer, MethodRedeem, MethodHold, MethodRelease, MethodRollback}

// IssueRequest mints quantity to destination.
type IssueRequest struct {
	IdempotencyKey   string                  `json:"idempotencyKey"`
	Asset            model.Asset             `json:"asset"`
	Destination      string                  `json:"destination"`
	Quantity         string                  `json:"quantity"`
	ExecutionContext *model.ExecutionContext `json:"executionContext,omitempty"`
}

// TransferRequest moves quantity between two accounts.
type TransferRequest struct {
	IdempotencyKey   string                  `json:"idempotencyKey"`
	Source           string                  `json:"source"`
	Destination      string                  `json:"destination"`
	Asset            model.Asset             `json:"asset"`
	Quantity         string                  `json:"quantity"`
	ExecutionContext *model.ExecutionContext `json:"executionContext,omitempty"`
}

// RedeemRequest burns quantity from source, or the funds held under
// OperationID when set.
type RedeemRequest struct {
	IdempotencyKey   string                  `json:"idempotencyKey"`
	Source           string                  `json:"source"`
	Asset            model.Asset             `json:"asset"`
	Quantity         string                  `json:"quantity"`
	OperationID      string                  `json:"operationId,omitempty"`
	ExecutionContext *model.ExecutionContext `json:"executionContext,omitempty"`
}

// HoldRequest escrows quantity from source under OperationID.
type HoldRequest struct {
	IdempotencyKey   string                  `json:"idempotencyKey"`
	Source           string                  `json:"source"`
	Destination      string                  `json:"destination,omitempty"`
	Asset            model.Asset             `json:"asset"`
	Quantity         string                  `json:"quantity"`
	OperationID      string                  `json:"operationId"`
	ExecutionContext *model.ExecutionContext `json:"executionContext,omitempty"`
}

// ReleaseRequest pays the funds held under OperationID to destination.
type ReleaseRequest struct {
	IdempotencyKey   string                  `json:"idempotencyKey"`
	Source           string                  `json:"source"`
	Destination      string                  `json:"destination"`
	Asset            model.Asset             `json:"asset"`
	Quantity         string                  `json:"quantity"`
	OperationID      string                  `json:"operationId"`
	ExecutionContext *model.ExecutionContext `json:"executionContext,omitempty"`
}

// RollbackRequest returns the funds held under OperationID to source.
type RollbackRequest struct {
	IdempotencyKey   string                  `json:"idempotencyKey"`
	Source           string                  `json:"source"`
	Asset            model.Asset             `json:"asset"`
	Quantity         string                  `json:"quantity"`
	OperationID      string                  `json:"operationId"`
	ExecutionContext *model.ExecutionContext `json:"executionContext,omitempty"`
}
