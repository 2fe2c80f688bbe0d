package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/ledgerd/internal/model"
)

// Hold returns the active hold for operationID, or ErrNotFound once it has
// been released, rolled back or redeemed (or never existed).
func (t *Tx) Hold(ctx context.Context, operationID string) (model.Hold, error) {
	var h model.Hold
	var assetID, qty, ts string
	err := t.tx.QueryRowContext(ctx, `
		SELECT operation_id, owner_id, destination, asset_id, quantity, created_at
		FROM holds WHERE operation_id = ?
	`, operationID).Scan(&h.OperationID, &h.Owner, &h.Destination, &assetID, &qty, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Hold{}, ErrNotFound
	}
	if err != nil {
		return model.Hold{}, fmt.Errorf("read hold: %w", err)
	}

	if h.Asset, err = t.Asset(ctx, assetID); err != nil {
		return model.Hold{}, err
	}
	if h.Quantity, err = parseStoredQuantity(qty); err != nil {
		return model.Hold{}, err
	}
	if h.CreatedAt, err = parseTime(ts); err != nil {
		return model.Hold{}, err
	}
	return h, nil
}

// InsertHold records an active hold. The caller debits the owner in the
// same transaction.
func (t *Tx) InsertHold(ctx context.Context, h model.Hold) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO holds (operation_id, owner_id, destination, asset_id, quantity, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, h.OperationID, h.Owner, h.Destination, h.Asset.ID, h.Quantity.String(), formatTime(t.now))
	if err != nil {
		return fmt.Errorf("insert hold: %w", err)
	}
	return nil
}

// DeleteHold consumes an active hold. Returns ErrNotFound if no active hold
// exists, so a second consumer fails deterministically.
func (t *Tx) DeleteHold(ctx context.Context, operationID string) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM holds WHERE operation_id = ?`, operationID)
	if err != nil {
		return fmt.Errorf("delete hold: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete hold: rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// HoldIDUsed reports whether operationID has ever opened a hold, active or
// consumed. Consumed holds are deleted, so the transaction log is consulted.
func (t *Tx) HoldIDUsed(ctx context.Context, operationID string) (bool, error) {
	var count int
	err := t.tx.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM holds WHERE operation_id = ?) +
			(SELECT COUNT(*) FROM transactions WHERE operation_id = ? AND operation_type = ?)
	`, operationID, operationID, string(model.OperationHold)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check hold id: %w", err)
	}
	return count > 0, nil
}
