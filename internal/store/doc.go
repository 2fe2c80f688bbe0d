// Package store provides SQLite-backed durable storage for the ledger adapter.
//
// Five tables hold all mutable shared state:
//   - assets:       registered asset identities
//   - balances:     (owner_id, asset_id) -> quantity, never negative
//   - holds:        active escrow reservations keyed by operation_id
//   - transactions: append-only movement log, addressable by id and by operation_ref
//   - operations:   de-duplication ledger, UNIQUE(identity)
//
// # Critical Patterns
//
// Insert-or-fetch on operations.identity is the serialisation point for
// duplicate submissions: exactly one caller observes inserted=true.
//
// Every ledger mutation runs inside one transaction opened with
// BEGIN IMMEDIATE (_txlock=immediate), so the write lock is taken before the
// first read. Read-modify-write of a balance is therefore safe across
// goroutines and across processes sharing the database file, and readers
// never observe a half-applied move.
//
// transactions.operation_ref is UNIQUE: a replayed business call finds the
// movement it already wrote instead of applying it twice.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
