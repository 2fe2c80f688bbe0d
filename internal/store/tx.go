package store

import (
	"database/sql"
	"time"
)

// Tx is the transactional view of the store handed to InTx callbacks.
// All ledger and escrow mutations go through a Tx so that a movement, its
// hold bookkeeping and its transaction-log entry commit together.
type Tx struct {
	tx  *sql.Tx
	now time.Time
}

// Now is the timestamp shared by every row written in this transaction.
func (t *Tx) Now() time.Time {
	return t.now
}
