// Package ledger implements the balance and escrow state machine.
//
// Every movement runs inside one store transaction: balances, the escrow
// table and the transaction log change together or not at all. Holds move
// through NONE -> HELD -> {RELEASED | ROLLED_BACK}; a consumed hold is
// deleted, so any further release, rollback or redeem against the same
// operation id fails with CodeUnknownOperation.
//
// Each movement takes a ref, the correlation id of the operation that
// drives it. The ref is stored on the transaction row under a unique
// constraint. Calling a movement again with a ref that already produced a
// transaction returns the recorded receipt and mutates nothing, which makes
// the executor's crash-recovery replay safe.
package ledger
