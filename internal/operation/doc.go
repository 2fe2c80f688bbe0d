// Package operation implements the idempotency executor.
//
// Register wraps a business function in a typed decorator with the same
// argument type. Each call derives a canonical identity from the method name
// and arguments, and inserts or fetches the matching operation row. Only the
// submission that inserted the row runs the business function; every other
// submission is answered from the stored row.
//
// Lifecycle:
//
//	ex := operation.New(st, operation.WithMode(operation.SyncMode{}))
//	issue := operation.Register(ex, "issue", issueFn)
//	if err := ex.Start(ctx); err != nil { ... } // recovery pass, then ready
//	res, err := issue(ctx, args)
//	ex.Stop()
//
// Start re-drives every in_progress row of the registered methods before
// the executor accepts calls. Business functions receive the operation's
// correlation id as a ref and must be idempotent per ref; internal/ledger
// satisfies this by recording the ref on the transaction it writes.
package operation
