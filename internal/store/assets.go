package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/ledgerd/internal/model"
)

// Asset returns the registered asset, or a CodeUnknownAsset business error.
func (t *Tx) Asset(ctx context.Context, id string) (model.Asset, error) {
	return readAsset(ctx, t.tx, id)
}

// CreateAsset registers an asset if absent. Registering the same id with a
// different type fails with CodeAssetTypeMismatch.
// Returns created=false when the asset already existed.
func (t *Tx) CreateAsset(ctx context.Context, a model.Asset) (created bool, err error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO assets (id, asset_type, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, a.ID, string(a.Type), formatTime(t.now))
	if err != nil {
		return false, fmt.Errorf("create asset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create asset: rows affected: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	existing, err := t.Asset(ctx, a.ID)
	if err != nil {
		return false, err
	}
	if existing.Type != a.Type {
		return false, model.NewBusinessError(model.CodeAssetTypeMismatch,
			"asset %s is registered as %s, not %s", a.ID, existing.Type, a.Type)
	}
	return false, nil
}

// Asset returns the registered asset outside of a transaction.
func (s *Store) Asset(ctx context.Context, id string) (model.Asset, error) {
	return readAsset(ctx, s.db, id)
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readAsset(ctx context.Context, q rowQuerier, id string) (model.Asset, error) {
	var assetType string
	err := q.QueryRowContext(ctx, `SELECT asset_type FROM assets WHERE id = ?`, id).Scan(&assetType)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Asset{}, model.NewBusinessError(model.CodeUnknownAsset, "asset %s not found", id)
	}
	if err != nil {
		return model.Asset{}, fmt.Errorf("read asset: %w", err)
	}
	return model.Asset{ID: id, Type: model.AssetType(assetType)}, nil
}
