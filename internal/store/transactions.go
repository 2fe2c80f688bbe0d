package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/ledgerd/internal/model"
)

const receiptColumns = `id, operation_type, asset_id, asset_type, quantity,
	source, destination, operation_id, execution_context, created_at`

// AppendTransaction writes an immutable receipt to the log.
//
// ref is the correlation id of the operation that produced the movement.
// It is UNIQUE, so a second append for the same operation fails and rolls
// back the surrounding transaction. An empty ref is stored as NULL.
func (t *Tx) AppendTransaction(ctx context.Context, ref string, r model.Receipt) error {
	ecJSON, err := marshalExecutionContext(r.ExecutionContext)
	if err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	var refArg any
	if ref != "" {
		refArg = ref
	}
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO transactions
		(id, operation_type, asset_id, asset_type, quantity, source, destination,
		 operation_id, execution_context, operation_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		string(r.OperationType),
		r.Asset.ID,
		string(r.Asset.Type),
		r.Quantity.String(),
		r.Source,
		r.Destination,
		r.OperationID,
		ecJSON,
		refArg,
		formatTime(r.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

// TransactionByRef returns the receipt an operation already produced.
// found=false means the operation has not moved anything yet.
func (t *Tx) TransactionByRef(ctx context.Context, ref string) (rcpt model.Receipt, found bool, err error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+receiptColumns+` FROM transactions WHERE operation_ref = ?`, ref)
	rcpt, err = scanReceipt(row)
	if errors.Is(err, ErrNotFound) {
		return model.Receipt{}, false, nil
	}
	if err != nil {
		return model.Receipt{}, false, err
	}
	return rcpt, true, nil
}

// Receipt looks up a transaction by its id.
func (s *Store) Receipt(ctx context.Context, id string) (model.Receipt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+receiptColumns+` FROM transactions WHERE id = ?`, id)
	return scanReceipt(row)
}

// Transactions returns the whole log in append order.
func (s *Store) Transactions(ctx context.Context) ([]model.Receipt, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+receiptColumns+` FROM transactions ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	receipts := []model.Receipt{}
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return receipts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row scanner) (model.Receipt, error) {
	var r model.Receipt
	var opType, assetID, assetType, qty, ecJSON, ts string
	err := row.Scan(&r.ID, &opType, &assetID, &assetType, &qty,
		&r.Source, &r.Destination, &r.OperationID, &ecJSON, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Receipt{}, ErrNotFound
	}
	if err != nil {
		return model.Receipt{}, fmt.Errorf("scan receipt: %w", err)
	}

	r.OperationType = model.OperationType(opType)
	r.Asset = model.Asset{ID: assetID, Type: model.AssetType(assetType)}
	if r.Quantity, err = parseStoredQuantity(qty); err != nil {
		return model.Receipt{}, err
	}
	if r.ExecutionContext, err = unmarshalExecutionContext(ecJSON); err != nil {
		return model.Receipt{}, err
	}
	if r.Timestamp, err = parseTime(ts); err != nil {
		return model.Receipt{}, err
	}
	return r, nil
}
