package adapter

import (
	"unicode/utf8"

	"github.com/roach88/ledgerd/internal/model"
)

// validator accumulates the first validation failure across fields.
type validator struct {
	err error
}

func (v *validator) fail(field, msg string) {
	if v.err == nil {
		v.err = &model.ValidationError{Field: field, Message: msg}
	}
}

func (v *validator) required(field, value string) {
	if value == "" {
		v.fail(field, "required")
		return
	}
	v.text(field, value)
}

// text rejects strings that are not valid UTF-8.
func (v *validator) text(field, value string) {
	if !utf8.ValidString(value) {
		v.fail(field, "must be valid UTF-8")
	}
}

func (v *validator) asset(a model.Asset) {
	if v.err == nil {
		v.err = a.Validate()
	}
	v.text("asset.id", a.ID)
}

// quantity parses s and rejects zero; zero-amount movements are refused
// for every verb.
func (v *validator) quantity(s string) model.Quantity {
	q, err := model.ParseQuantity(s)
	if err != nil {
		if v.err == nil {
			v.err = err
		}
		return model.Quantity{}
	}
	if q.IsZero() {
		v.fail("quantity", "must be greater than zero")
	}
	return q
}

func (v *validator) executionContext(ec *model.ExecutionContext) {
	if ec == nil {
		return
	}
	v.required("executionContext.planId", ec.PlanID)
	if ec.Sequence < 0 {
		v.fail("executionContext.sequence", "must not be negative")
	}
}

func (r IssueRequest) validate() (model.Quantity, error) {
	var v validator
	v.required("idempotencyKey", r.IdempotencyKey)
	v.asset(r.Asset)
	v.required("destination", r.Destination)
	q := v.quantity(r.Quantity)
	v.executionContext(r.ExecutionContext)
	return q, v.err
}

func (r TransferRequest) validate() (model.Quantity, error) {
	var v validator
	v.required("idempotencyKey", r.IdempotencyKey)
	v.required("source", r.Source)
	v.required("destination", r.Destination)
	v.asset(r.Asset)
	q := v.quantity(r.Quantity)
	v.executionContext(r.ExecutionContext)
	return q, v.err
}

func (r RedeemRequest) validate() (model.Quantity, error) {
	var v validator
	v.required("idempotencyKey", r.IdempotencyKey)
	v.required("source", r.Source)
	v.asset(r.Asset)
	q := v.quantity(r.Quantity)
	v.text("operationId", r.OperationID)
	v.executionContext(r.ExecutionContext)
	return q, v.err
}

func (r HoldRequest) validate() (model.Quantity, error) {
	var v validator
	v.required("idempotencyKey", r.IdempotencyKey)
	v.required("source", r.Source)
	v.text("destination", r.Destination)
	v.asset(r.Asset)
	q := v.quantity(r.Quantity)
	v.required("operationId", r.OperationID)
	v.executionContext(r.ExecutionContext)
	return q, v.err
}

func (r ReleaseRequest) validate() (model.Quantity, error) {
	var v validator
	v.required("idempotencyKey", r.IdempotencyKey)
	v.required("source", r.Source)
	v.required("destination", r.Destination)
	v.asset(r.Asset)
	q := v.quantity(r.Quantity)
	v.required("operationId", r.OperationID)
	v.executionContext(r.ExecutionContext)
	return q, v.err
}

func (r RollbackRequest) validate() (model.Quantity, error) {
	var v validator
	v.required("idempotencyKey", r.IdempotencyKey)
	v.required("source", r.Source)
	v.asset(r.Asset)
	q := v.quantity(r.Quantity)
	v.required("operationId", r.OperationID)
	v.executionContext(r.ExecutionContext)
	return q, v.err
}
