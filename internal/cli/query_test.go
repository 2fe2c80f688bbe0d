package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ledgerd/internal/model"
)

func TestBalance_UnknownOwnerIsZero(t *testing.T) {
	db := newLedgerDB(t)

	out, err := runCommand(t, NewBalanceCommand, "json", "--db", db, "nobody", "usd")
	require.NoError(t, err)

	var data map[string]string
	decodeData(t, out, &data)
	assert.Equal(t, map[string]string{"owner": "nobody", "asset": "usd", "balance": "0"}, data)
}

func TestBalance_UnknownAsset(t *testing.T) {
	db := newLedgerDB(t)

	out, err := runCommand(t, NewBalanceCommand, "text", "--db", db, "alice", "eur")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [1001]")
}

func TestBalances_ListsHolders(t *testing.T) {
	db := newLedgerDB(t)

	out, err := runCommand(t, NewBalancesCommand, "text", "--db", db, "usd")
	require.NoError(t, err)
	assert.Equal(t, "No holders.\n", out)

	invokeJSON(t, db, "issue", issueArgs("k1", "bob", "100"))
	invokeJSON(t, db, "transfer", transferArgs("k2", "bob", "alice", "30"))

	out, err = runCommand(t, NewBalancesCommand, "json", "--db", db, "usd")
	require.NoError(t, err)
	var data []map[string]string
	decodeData(t, out, &data)
	assert.Equal(t, []map[string]string{
		{"owner": "alice", "balance": "30"},
		{"owner": "bob", "balance": "70"},
	}, data)

	out, err = runCommand(t, NewBalancesCommand, "text", "--db", db, "eur")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [1001]")
}

func TestReceipt(t *testing.T) {
	db := newLedgerDB(t)
	res := invokeJSON(t, db, "issue", issueArgs("k1", "alice", "100"))
	require.NotNil(t, res.Receipt)

	out, err := runCommand(t, NewReceiptCommand, "json", "--db", db, res.Receipt.ID)
	require.NoError(t, err)

	var r model.Receipt
	decodeData(t, out, &r)
	assert.Equal(t, res.Receipt.ID, r.ID)
	assert.Equal(t, model.OperationIssue, r.OperationType)
	assert.Equal(t, "alice", r.Destination)

	out, err = runCommand(t, NewReceiptCommand, "text", "--db", db, "no-such-tx")
	require.Error(t, err)
	assert.Contains(t, out, "Error [1003]")
}

func TestStatus(t *testing.T) {
	db := newLedgerDB(t)
	res := invokeJSON(t, db, "issue", issueArgs("k1", "alice", "100"))

	out, err := runCommand(t, NewStatusCommand, "json", "--db", db, res.CorrelationID)
	require.NoError(t, err)

	var got model.Result
	decodeData(t, out, &got)
	assert.Equal(t, res.CorrelationID, got.CorrelationID)
	assert.True(t, got.Succeeded())

	out, err = runCommand(t, NewStatusCommand, "text", "--db", db, "no-such-cid")
	require.Error(t, err)
	assert.Contains(t, out, "Error [1003]")
}

func TestStatus_FailedOperation(t *testing.T) {
	db := newLedgerDB(t)
	out, err := runCommand(t, NewInvokeCommand, "json", "transfer", "--db", db, "--args", transferArgs("k1", "alice", "bob", "5"))
	require.Error(t, err)
	var res model.Result
	decodeData(t, out, &res)

	out, err = runCommand(t, NewStatusCommand, "text", "--db", db, res.CorrelationID)
	require.NoError(t, err)
	assert.Contains(t, out, "failed [1002]")
}

func TestHistory_AppendOrder(t *testing.T) {
	db := newLedgerDB(t)
	invokeJSON(t, db, "issue", issueArgs("k1", "alice", "100"))
	invokeJSON(t, db, "transfer", transferArgs("k2", "alice", "bob", "30"))

	out, err := runCommand(t, NewHistoryCommand, "json", "--db", db)
	require.NoError(t, err)

	var history []model.Receipt
	decodeData(t, out, &history)
	require.Len(t, history, 2)
	assert.Equal(t, model.OperationIssue, history[0].OperationType)
	assert.Equal(t, model.OperationTransfer, history[1].OperationType)

	out, err = runCommand(t, NewHistoryCommand, "text", "--db", db)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "issue")
	assert.Contains(t, lines[1], "transfer")
}
