package model

import "errors"

// ResponseKind tells a caller how to learn the outcome of a pending operation.
type ResponseKind string

const (
	ResponsePoll     ResponseKind = "poll"
	ResponseCallback ResponseKind = "callback"
)

// ResponseStrategy is attached to pending results.
type ResponseStrategy struct {
	Kind           ResponseKind `json:"type"`
	PollIntervalMs int64        `json:"pollIntervalMs,omitempty"`
}

// ErrorInfo is the structured failure embedded in a completed result.
type ErrorInfo struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// NewErrorInfo captures err for storage and delivery.
func NewErrorInfo(err error) ErrorInfo {
	var be *BusinessError
	if errors.As(err, &be) {
		return ErrorInfo{Code: be.Code, Message: be.Message}
	}
	return ErrorInfo{Code: CodeInternal, Message: err.Error()}
}

// Result is what every ledger-affecting call returns, and what status
// lookups and callbacks deliver.
//
// Exactly one of three shapes:
//   - IsCompleted && Receipt != nil: synchronous or resolved success
//   - IsCompleted && Error != nil:   synchronous or resolved failure
//   - !IsCompleted:                  pending, Response says poll or wait for callback
type Result struct {
	CorrelationID string            `json:"cid"`
	IsCompleted   bool              `json:"isCompleted"`
	Receipt       *Receipt          `json:"receipt,omitempty"`
	Error         *ErrorInfo        `json:"error,omitempty"`
	Response      *ResponseStrategy `json:"operationMetadata,omitempty"`
}

// Succeeded reports a completed result without an embedded error.
func (r Result) Succeeded() bool {
	return r.IsCompleted && r.Error == nil
}
