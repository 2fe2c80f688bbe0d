package model

import "time"

// OperationType labels a ledger movement on its receipt.
type OperationType string

const (
	OperationIssue    OperationType = "issue"
	OperationTransfer OperationType = "transfer"
	OperationRedeem   OperationType = "redeem"
	OperationHold     OperationType = "hold"
	OperationRelease  OperationType = "release"
	OperationRollback OperationType = "rollback"
)

// ExecutionContext ties a movement to an instruction of an external execution plan.
type ExecutionContext struct {
	PlanID   string `json:"planId"`
	Sequence int    `json:"sequence"`
}

// Receipt is the immutable record of one executed ledger movement.
type Receipt struct {
	ID               string            `json:"id"`
	OperationType    OperationType     `json:"operationType"`
	Asset            Asset             `json:"asset"`
	Quantity         Quantity          `json:"quantity"`
	Source           string            `json:"source,omitempty"`
	Destination      string            `json:"destination,omitempty"`
	OperationID      string            `json:"operationId,omitempty"`
	ExecutionContext *ExecutionContext `json:"executionContext,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
}

// Hold is an active escrow reservation keyed by operation id.
type Hold struct {
	OperationID string
	Owner       string
	Destination string
	Asset       Asset
	Quantity    Quantity
	CreatedAt   time.Time
}
