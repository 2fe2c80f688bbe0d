// Package harness runs ledger scenarios described in YAML.
//
// # Scenario Format
//
//	name: escrow_lifecycle
//	description: "Hold, release, and a rejected second release"
//	setup:
//	  - invoke: createAsset
//	    args: { id: Y, type: finp2p }
//	flow:
//	  - invoke: issue
//	    args:
//	      idempotencyKey: k1
//	      asset: { id: Y, type: finp2p }
//	      destination: buyer
//	      quantity: "1000"
//	    expect:
//	      status: succeeded
//	  - invoke: release
//	    args: { ... }
//	    expect:
//	      status: failed
//	      code: UnknownOperation
//	assertions:
//	  - type: balance
//	    owner: buyer
//	    asset: Y
//	    equals: "500"
//	  - type: history_count
//	    count: 3
//
// Quantities are strings; a bare YAML number is rejected like any other
// malformed request.
//
// # Step Status
//
//   - succeeded: the operation completed with a receipt
//   - failed: the operation completed with a business error (see code)
//   - rejected: validation refused the request before deduplication
//
// # Assertion Types
//
//   - balance: owner's balance of asset equals the given quantity
//   - history_count: the transaction log holds exactly count receipts
//   - history_order: the operation types in the log, in order
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory store with a
// testutil.DeterministicClock and sequential ids (cid-N, tx-N), so step
// outcomes and the transaction log are identical across runs and can be
// compared against golden files.
package harness
