package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ledgerd/internal/model"
)

const assetUSD = `{"id":"usd","type":"fiat"}`

// runCommand executes a freshly built command and returns its stdout.
func runCommand(t *testing.T, newCmd func(*RootOptions) *cobra.Command, format string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := newCmd(&RootOptions{Format: format})
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// newLedgerDB returns a database path with asset usd registered.
func newLedgerDB(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "ledger.db")
	_, err := runCommand(t, NewInvokeCommand, "text", "createAsset", "--db", db, "--args", assetUSD)
	require.NoError(t, err)
	return db
}

func issueArgs(key, destination, qty string) string {
	return fmt.Sprintf(`{"idempotencyKey":%q,"asset":%s,"destination":%q,"quantity":%q}`, key, assetUSD, destination, qty)
}

func transferArgs(key, source, destination, qty string) string {
	return fmt.Sprintf(`{"idempotencyKey":%q,"asset":%s,"source":%q,"destination":%q,"quantity":%q}`, key, assetUSD, source, destination, qty)
}

// decodeData unmarshals the data of a JSON envelope into v.
func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status, out)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func invokeJSON(t *testing.T, db, method, args string) model.Result {
	t.Helper()
	out, err := runCommand(t, NewInvokeCommand, "json", method, "--db", db, "--args", args)
	require.NoError(t, err, out)
	var res model.Result
	decodeData(t, out, &res)
	return res
}
