package ledger

import (
	"context"
	"errors"

	"github.com/roach88/ledgerd/internal/model"
	"github.com/roach88/ledgerd/internal/store"
)

// Hold debits qty from source into escrow under operationID.
// An operationID that has ever held funds fails with
// CodeOperationAlreadyExists, even after the hold was consumed.
func (l *Ledger) Hold(ctx context.Context, ref string, operationID, source, destination string, asset model.Asset, qty model.Quantity, ec *model.ExecutionContext) (model.Receipt, error) {
	return l.apply(ctx, ref, func(tx *store.Tx) (model.Receipt, error) {
		a, err := resolveAsset(ctx, tx, asset)
		if err != nil {
			return model.Receipt{}, err
		}
		used, err := tx.HoldIDUsed(ctx, operationID)
		if err != nil {
			return model.Receipt{}, err
		}
		if used {
			return model.Receipt{}, model.NewBusinessError(model.CodeOperationAlreadyExists,
				"operation %s already holds or held funds", operationID)
		}
		if err := tx.Debit(ctx, source, a.ID, qty); err != nil {
			return model.Receipt{}, err
		}
		err = tx.InsertHold(ctx, model.Hold{
			OperationID: operationID,
			Owner:       source,
			Destination: destination,
			Asset:       a,
			Quantity:    qty,
		})
		if err != nil {
			return model.Receipt{}, err
		}
		return model.Receipt{
			OperationType:    model.OperationHold,
			Asset:            a,
			Quantity:         qty,
			Source:           source,
			Destination:      destination,
			OperationID:      operationID,
			ExecutionContext: ec,
		}, nil
	})
}

// Release pays the escrowed funds of operationID to destination.
// source must be the holder and qty must equal the held quantity.
func (l *Ledger) Release(ctx context.Context, ref string, operationID, source, destination string, asset model.Asset, qty model.Quantity, ec *model.ExecutionContext) (model.Receipt, error) {
	return l.apply(ctx, ref, func(tx *store.Tx) (model.Receipt, error) {
		a, err := resolveAsset(ctx, tx, asset)
		if err != nil {
			return model.Receipt{}, err
		}
		h, err := consumeHold(ctx, tx, operationID, source, a, qty)
		if err != nil {
			return model.Receipt{}, err
		}
		if err := tx.Credit(ctx, destination, a.ID, h.Quantity); err != nil {
			return model.Receipt{}, err
		}
		return model.Receipt{
			OperationType:    model.OperationRelease,
			Asset:            a,
			Quantity:         h.Quantity,
			Source:           h.Owner,
			Destination:      destination,
			OperationID:      operationID,
			ExecutionContext: ec,
		}, nil
	})
}

// Rollback returns the escrowed funds of operationID to the holder.
func (l *Ledger) Rollback(ctx context.Context, ref string, operationID, source string, asset model.Asset, qty model.Quantity, ec *model.ExecutionContext) (model.Receipt, error) {
	return l.apply(ctx, ref, func(tx *store.Tx) (model.Receipt, error) {
		a, err := resolveAsset(ctx, tx, asset)
		if err != nil {
			return model.Receipt{}, err
		}
		h, err := consumeHold(ctx, tx, operationID, source, a, qty)
		if err != nil {
			return model.Receipt{}, err
		}
		if err := tx.Credit(ctx, h.Owner, a.ID, h.Quantity); err != nil {
			return model.Receipt{}, err
		}
		return model.Receipt{
			OperationType:    model.OperationRollback,
			Asset:            a,
			Quantity:         h.Quantity,
			Destination:      h.Owner,
			OperationID:      operationID,
			ExecutionContext: ec,
		}, nil
	})
}

// consumeHold moves a hold from HELD to its terminal state.
// Checks run in order: existence, ownership, then asset and quantity.
func consumeHold(ctx context.Context, tx *store.Tx, operationID, source string, asset model.Asset, qty model.Quantity) (model.Hold, error) {
	h, err := tx.Hold(ctx, operationID)
	if errors.Is(err, store.ErrNotFound) {
		return model.Hold{}, model.NewBusinessError(model.CodeUnknownOperation,
			"no active hold for operation %s", operationID)
	}
	if err != nil {
		return model.Hold{}, err
	}

	if h.Owner != source {
		return model.Hold{}, model.NewBusinessError(model.CodeOperationOwnershipMismatch,
			"operation %s is held by another owner", operationID)
	}
	if h.Asset.ID != asset.ID {
		return model.Hold{}, model.NewBusinessError(model.CodeHoldMismatch,
			"operation %s holds asset %s, not %s", operationID, h.Asset.ID, asset.ID)
	}
	if !h.Quantity.Equal(qty) {
		return model.Hold{}, model.NewBusinessError(model.CodeHoldMismatch,
			"operation %s holds %s, not %s", operationID, h.Quantity, qty)
	}

	if err := tx.DeleteHold(ctx, operationID); err != nil {
		return model.Hold{}, err
	}
	return h, nil
}
