package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/ledgerd/internal/model"
)

const operationColumns = `correlation_id, method, inputs, identity, outputs, async_ref,
	status, created_at, updated_at`

// SubmitOperation inserts op as in_progress unless a row with the same
// identity exists. Returns the stored row and whether this call inserted it.
//
// Uses ON CONFLICT(identity) DO NOTHING followed by a read in the same
// transaction: concurrent submissions of identical inputs produce exactly
// one inserted=true, and every loser sees the winner's row.
func (s *Store) SubmitOperation(ctx context.Context, op model.Operation) (stored model.Operation, inserted bool, err error) {
	err = s.InTx(ctx, func(tx *Tx) error {
		now := formatTime(tx.now)
		res, err := tx.tx.ExecContext(ctx, `
			INSERT INTO operations
			(correlation_id, method, inputs, identity, outputs, async_ref, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, '', '', ?, ?, ?)
			ON CONFLICT(identity) DO NOTHING
		`,
			op.CorrelationID,
			op.Method,
			op.Inputs,
			op.Identity,
			string(model.StatusInProgress),
			now,
			now,
		)
		if err != nil {
			return fmt.Errorf("submit operation: insert: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("submit operation: rows affected: %w", err)
		}
		inserted = n > 0

		row := tx.tx.QueryRowContext(ctx, `SELECT `+operationColumns+` FROM operations WHERE identity = ?`, op.Identity)
		stored, err = scanOperation(row)
		if err != nil {
			return fmt.Errorf("submit operation: select: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Operation{}, false, err
	}
	return stored, inserted, nil
}

// CompleteOperation performs the single allowed status transition,
// in_progress -> status, and stores outputs. Returns updated=false if the
// row was already terminal; terminal outputs are never overwritten.
func (s *Store) CompleteOperation(ctx context.Context, correlationID string, status model.OperationStatus, outputs string) (updated bool, err error) {
	if !status.Terminal() {
		return false, fmt.Errorf("complete operation: %q is not a terminal status", status)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE operations
		SET status = ?, outputs = ?, async_ref = '', updated_at = ?
		WHERE correlation_id = ? AND status = ?
	`, string(status), outputs, formatTime(s.clock.Now()), correlationID, string(model.StatusInProgress))
	if err != nil {
		return false, fmt.Errorf("complete operation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete operation: rows affected: %w", err)
	}
	return n > 0, nil
}

// MarkOperationPending records the external reference of an operation whose
// result will arrive asynchronously. The row stays in_progress.
func (s *Store) MarkOperationPending(ctx context.Context, correlationID, asyncRef string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE operations
		SET async_ref = ?, updated_at = ?
		WHERE correlation_id = ? AND status = ?
	`, asyncRef, formatTime(s.clock.Now()), correlationID, string(model.StatusInProgress))
	if err != nil {
		return fmt.Errorf("mark operation pending: %w", err)
	}
	return nil
}

// Operation returns the row for a correlation id, or ErrNotFound.
func (s *Store) Operation(ctx context.Context, correlationID string) (model.Operation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+operationColumns+` FROM operations WHERE correlation_id = ?`, correlationID)
	return scanOperation(row)
}

// OperationByAsyncRef finds the in-progress row waiting on an external reference.
func (s *Store) OperationByAsyncRef(ctx context.Context, asyncRef string) (model.Operation, error) {
	if asyncRef == "" {
		return model.Operation{}, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+operationColumns+` FROM operations WHERE async_ref = ?`, asyncRef)
	return scanOperation(row)
}

// InProgressOperations lists unfinished rows for a method in submission order.
// Used by the executor's recovery pass.
func (s *Store) InProgressOperations(ctx context.Context, method string) ([]model.Operation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+operationColumns+` FROM operations
		WHERE method = ? AND status = ?
		ORDER BY rowid ASC
	`, method, string(model.StatusInProgress))
	if err != nil {
		return nil, fmt.Errorf("list in-progress operations: %w", err)
	}
	defer rows.Close()

	ops := []model.Operation{}
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate in-progress operations: %w", err)
	}
	return ops, nil
}

func scanOperation(row scanner) (model.Operation, error) {
	var op model.Operation
	var status, createdAt, updatedAt string
	err := row.Scan(&op.CorrelationID, &op.Method, &op.Inputs, &op.Identity,
		&op.Outputs, &op.AsyncRef, &status, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Operation{}, ErrNotFound
	}
	if err != nil {
		return model.Operation{}, fmt.Errorf("scan operation: %w", err)
	}
	op.Status = model.OperationStatus(status)
	if op.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Operation{}, err
	}
	if op.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.Operation{}, err
	}
	return op, nil
}

