package ledger

import (
	"context"

	"github.com/roach88/ledgerd/internal/model"
	"github.com/roach88/ledgerd/internal/store"
)

// Issue mints qty of asset to destination, registering the asset on first use.
func (l *Ledger) Issue(ctx context.Context, ref string, asset model.Asset, destination string, qty model.Quantity, ec *model.ExecutionContext) (model.Receipt, error) {
	return l.apply(ctx, ref, func(tx *store.Tx) (model.Receipt, error) {
		if _, err := tx.CreateAsset(ctx, asset); err != nil {
			return model.Receipt{}, err
		}
		if err := tx.Credit(ctx, destination, asset.ID, qty); err != nil {
			return model.Receipt{}, err
		}
		return model.Receipt{
			OperationType:    model.OperationIssue,
			Asset:            asset,
			Quantity:         qty,
			Destination:      destination,
			ExecutionContext: ec,
		}, nil
	})
}

// Transfer moves qty from source to destination atomically.
func (l *Ledger) Transfer(ctx context.Context, ref string, source, destination string, asset model.Asset, qty model.Quantity, ec *model.ExecutionContext) (model.Receipt, error) {
	return l.apply(ctx, ref, func(tx *store.Tx) (model.Receipt, error) {
		a, err := resolveAsset(ctx, tx, asset)
		if err != nil {
			return model.Receipt{}, err
		}
		if err := tx.Move(ctx, source, destination, a.ID, qty); err != nil {
			return model.Receipt{}, err
		}
		return model.Receipt{
			OperationType:    model.OperationTransfer,
			Asset:            a,
			Quantity:         qty,
			Source:           source,
			Destination:      destination,
			ExecutionContext: ec,
		}, nil
	})
}

// Redeem burns qty from source. With an operationID it burns the funds
// escrowed by that hold instead, consuming it.
func (l *Ledger) Redeem(ctx context.Context, ref string, source string, asset model.Asset, qty model.Quantity, operationID string, ec *model.ExecutionContext) (model.Receipt, error) {
	return l.apply(ctx, ref, func(tx *store.Tx) (model.Receipt, error) {
		a, err := resolveAsset(ctx, tx, asset)
		if err != nil {
			return model.Receipt{}, err
		}
		if operationID != "" {
			if _, err := consumeHold(ctx, tx, operationID, source, a, qty); err != nil {
				return model.Receipt{}, err
			}
		} else if err := tx.Debit(ctx, source, a.ID, qty); err != nil {
			return model.Receipt{}, err
		}
		return model.Receipt{
			OperationType:    model.OperationRedeem,
			Asset:            a,
			Quantity:         qty,
			Source:           source,
			OperationID:      operationID,
			ExecutionContext: ec,
		}, nil
	})
}
