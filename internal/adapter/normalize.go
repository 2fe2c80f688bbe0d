package adapter

import (
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/ledgerd/internal/model"
)

// Account, asset and operation identifiers are compared in Unicode NFC.
// Requests are normalised here, before they reach the executor, so the
// canonical inputs it stores decode back to exactly the arguments the
// ledger is called with, and queries see the same accounts.

func nfc(s string) string {
	return norm.NFC.String(s)
}

func nfcAsset(a model.Asset) model.Asset {
	a.ID = nfc(a.ID)
	return a
}

func nfcContext(ec *model.ExecutionContext) *model.ExecutionContext {
	if ec == nil {
		return nil
	}
	c := *ec
	c.PlanID = nfc(c.PlanID)
	return &c
}

func (r IssueRequest) normalized() IssueRequest {
	r.IdempotencyKey = nfc(r.IdempotencyKey)
	r.Asset = nfcAsset(r.Asset)
	r.Destination = nfc(r.Destination)
	r.ExecutionContext = nfcContext(r.ExecutionContext)
	return r
}

func (r TransferRequest) normalized() TransferRequest {
	r.IdempotencyKey = nfc(r.IdempotencyKey)
	r.Source = nfc(r.Source)
	r.Destination = nfc(r.Destination)
	r.Asset = nfcAsset(r.Asset)
	r.ExecutionContext = nfcContext(r.ExecutionContext)
	return r
}

func (r RedeemRequest) normalized() RedeemRequest {
	r.IdempotencyKey = nfc(r.IdempotencyKey)
	r.Source = nfc(r.Source)
	r.Asset = nfcAsset(r.Asset)
	r.OperationID = nfc(r.OperationID)
	r.ExecutionContext = nfcContext(r.ExecutionContext)
	return r
}

func (r HoldRequest) normalized() HoldRequest {
	r.IdempotencyKey = nfc(r.IdempotencyKey)
	r.Source = nfc(r.Source)
	r.Destination = nfc(r.Destination)
	r.Asset = nfcAsset(r.Asset)
	r.OperationID = nfc(r.OperationID)
	r.ExecutionContext = nfcContext(r.ExecutionContext)
	return r
}

func (r ReleaseRequest) normalized() ReleaseRequest {
	r.IdempotencyKey = nfc(r.IdempotencyKey)
	r.Source = nfc(r.Source)
	r.Destination = nfc(r.Destination)
	r.Asset = nfcAsset(r.Asset)
	r.OperationID = nfc(r.OperationID)
	r.ExecutionContext = nfcContext(r.ExecutionContext)
	return r
}

func (r RollbackRequest) normalized() RollbackRequest {
	r.IdempotencyKey = nfc(r.IdempotencyKey)
	r.Source = nfc(r.Source)
	r.Asset = nfcAsset(r.Asset)
	r.OperationID = nfc(r.OperationID)
	r.ExecutionContext = nfcContext(r.ExecutionContext)
	return r
}
