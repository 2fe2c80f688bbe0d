package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// OperationStatus is the lifecycle state of a de-duplicated operation.
// The only transitions are in_progress -> succeeded and in_progress -> failed.
type OperationStatus string

const (
	StatusInProgress OperationStatus = "in_progress"
	StatusSucceeded  OperationStatus = "succeeded"
	StatusFailed     OperationStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s OperationStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Operation is one row of the de-duplication ledger.
type Operation struct {
	CorrelationID string
	Method        string
	Inputs        string // canonical JSON of {"args","method"}
	Identity      string // domain-separated hash of Inputs; unique
	Outputs       string // receipt JSON when succeeded, ErrorInfo JSON when failed
	AsyncRef      string // external reference while awaiting an asynchronous result
	Status        OperationStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Result decodes the caller-facing view of the operation.
func (o Operation) Result() (Result, error) {
	res := Result{CorrelationID: o.CorrelationID}
	switch o.Status {
	case StatusInProgress:
		return res, nil
	case StatusSucceeded:
		var rcpt Receipt
		if err := json.Unmarshal([]byte(o.Outputs), &rcpt); err != nil {
			return Result{}, fmt.Errorf("decode outputs of %s: %w", o.CorrelationID, err)
		}
		res.IsCompleted = true
		res.Receipt = &rcpt
		return res, nil
	case StatusFailed:
		var info ErrorInfo
		if err := json.Unmarshal([]byte(o.Outputs), &info); err != nil {
			return Result{}, fmt.Errorf("decode outputs of %s: %w", o.CorrelationID, err)
		}
		res.IsCompleted = true
		res.Error = &info
		return res, nil
	default:
		return Result{}, fmt.Errorf("operation %s has unknown status %q", o.CorrelationID, o.Status)
	}
}
