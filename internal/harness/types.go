package harness

import "github.com/roach88/ledgerd/internal/model"

// StepOutcome is what one step produced.
type StepOutcome struct {
	Invoke        string `json:"invoke"`
	CorrelationID string `json:"cid,omitempty"`
	Status        string `json:"status"`
	Code          string `json:"code,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Steps holds one outcome per flow step, in order.
	Steps []StepOutcome `json:"steps"`

	// History is the final transaction log.
	History []model.Receipt `json:"history"`

	// Errors lists every mismatch. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepOutcome{},
		Errors: []string{},
	}
}

// AddError records a mismatch and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
