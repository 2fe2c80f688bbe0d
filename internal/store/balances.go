package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/ledgerd/internal/model"
)

// Balance returns the owner's balance of an asset inside the transaction.
// Unknown accounts read as zero; an unregistered asset is CodeUnknownAsset.
func (t *Tx) Balance(ctx context.Context, owner, assetID string) (model.Quantity, error) {
	return readBalance(ctx, t.tx, owner, assetID)
}

// Debit removes qty from the owner's balance. A debit that would go below
// zero fails with CodeInsufficientBalance and writes nothing.
func (t *Tx) Debit(ctx context.Context, owner, assetID string, qty model.Quantity) error {
	current, err := t.Balance(ctx, owner, assetID)
	if err != nil {
		return err
	}
	next, ok := current.Sub(qty)
	if !ok {
		return model.NewBusinessError(model.CodeInsufficientBalance,
			"%s holds %s of %s, cannot debit %s", owner, current, assetID, qty)
	}
	return t.writeBalance(ctx, owner, assetID, next)
}

// Credit adds qty to the owner's balance, creating the account if needed.
func (t *Tx) Credit(ctx context.Context, owner, assetID string, qty model.Quantity) error {
	current, err := t.Balance(ctx, owner, assetID)
	if err != nil {
		return err
	}
	return t.writeBalance(ctx, owner, assetID, current.Add(qty))
}

// Move debits from and credits to within the same transaction, so no reader
// can observe the debit without the credit.
func (t *Tx) Move(ctx context.Context, from, to, assetID string, qty model.Quantity) error {
	if err := t.Debit(ctx, from, assetID, qty); err != nil {
		return err
	}
	return t.Credit(ctx, to, assetID, qty)
}

func (t *Tx) writeBalance(ctx context.Context, owner, assetID string, qty model.Quantity) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO balances (owner_id, asset_id, quantity, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(owner_id, asset_id) DO UPDATE SET
			quantity = excluded.quantity,
			updated_at = excluded.updated_at
	`, owner, assetID, qty.String(), formatTime(t.now))
	if err != nil {
		return fmt.Errorf("write balance: %w", err)
	}
	return nil
}

// Balance returns the owner's balance of an asset.
func (s *Store) Balance(ctx context.Context, owner, assetID string) (model.Quantity, error) {
	return readBalance(ctx, s.db, owner, assetID)
}

// AccountBalance is one row of the balances table.
type AccountBalance struct {
	Owner    string
	AssetID  string
	Quantity model.Quantity
}

// Balances lists every account holding the asset, ordered by owner. An
// unregistered asset fails with CodeUnknownAsset.
func (s *Store) Balances(ctx context.Context, assetID string) ([]AccountBalance, error) {
	if _, err := readAsset(ctx, s.db, assetID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT owner_id, quantity FROM balances
		WHERE asset_id = ?
		ORDER BY owner_id COLLATE BINARY ASC
	`, assetID)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()

	out := []AccountBalance{}
	for rows.Next() {
		var owner, raw string
		if err := rows.Scan(&owner, &raw); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		q, err := parseStoredQuantity(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, AccountBalance{Owner: owner, AssetID: assetID, Quantity: q})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balances: %w", err)
	}
	return out, nil
}

func readBalance(ctx context.Context, q rowQuerier, owner, assetID string) (model.Quantity, error) {
	if _, err := readAsset(ctx, q, assetID); err != nil {
		return model.Quantity{}, err
	}
	var raw string
	err := q.QueryRowContext(ctx, `
		SELECT quantity FROM balances WHERE owner_id = ? AND asset_id = ?
	`, owner, assetID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ZeroQuantity, nil
	}
	if err != nil {
		return model.Quantity{}, fmt.Errorf("read balance: %w", err)
	}
	return parseStoredQuantity(raw)
}
