// Package adapter exposes the ledger through the inbound operation contract
// and the query contract.
//
// Each movement verb validates its request, then goes through the
// idempotency executor, which calls into internal/ledger. A request that
// fails validation returns a *model.ValidationError and never reaches the
// operation store. A request that passes validation always returns a
// model.Result; business failures travel inside Result.Error.
package adapter
