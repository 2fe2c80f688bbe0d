package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ledgerd/internal/model"
	"github.com/roach88/ledgerd/internal/testutil"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(testutil.NewDeterministicClock()))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedBalance registers the asset and credits owner with qty.
func seedBalance(t *testing.T, s *Store, owner string, asset model.Asset, qty string) {
	t.Helper()
	err := s.InTx(context.Background(), func(tx *Tx) error {
		if _, err := tx.CreateAsset(context.Background(), asset); err != nil {
			return err
		}
		return tx.Credit(context.Background(), owner, asset.ID, model.MustQuantity(qty))
	})
	require.NoError(t, err)
}

// testOperation builds an in-progress operation row with the given identity.
func testOperation(cid, method, identity string) model.Operation {
	return model.Operation{
		CorrelationID: cid,
		Method:        method,
		Inputs:        `{"args":{"idempotencyKey":"` + identity + `"},"method":"` + method + `"}`,
		Identity:      identity,
	}
}

var assetX = model.Asset{ID: "X", Type: model.AssetTypeFiat}
