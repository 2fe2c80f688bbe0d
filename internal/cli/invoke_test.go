package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoke_IssueAndTransfer(t *testing.T) {
	db := newLedgerDB(t)

	out, err := runCommand(t, NewInvokeCommand, "text", "issue", "--db", db, "--args", issueArgs("k1", "alice", "100"))
	require.NoError(t, err)
	assert.Contains(t, out, "succeeded")
	assert.Contains(t, out, "issue 100 fiat:usd to alice")

	out, err = runCommand(t, NewInvokeCommand, "text", "transfer", "--db", db, "--args", transferArgs("k2", "alice", "bob", "30"))
	require.NoError(t, err)
	assert.Contains(t, out, "transfer 30 fiat:usd from alice to bob")

	out, err = runCommand(t, NewBalanceCommand, "text", "--db", db, "alice", "usd")
	require.NoError(t, err)
	assert.Equal(t, "70\n", out)
}

func TestInvoke_ReplayReturnsRecordedResult(t *testing.T) {
	db := newLedgerDB(t)

	first := invokeJSON(t, db, "issue", issueArgs("k1", "alice", "100"))
	second := invokeJSON(t, db, "issue", issueArgs("k1", "alice", "100"))

	require.True(t, first.Succeeded())
	assert.Equal(t, first.CorrelationID, second.CorrelationID)
	require.NotNil(t, second.Receipt)
	assert.Equal(t, first.Receipt.ID, second.Receipt.ID)

	out, err := runCommand(t, NewBalanceCommand, "text", "--db", db, "alice", "usd")
	require.NoError(t, err)
	assert.Equal(t, "100\n", out)
}

func TestInvoke_BusinessFailureExitsWithFailure(t *testing.T) {
	db := newLedgerDB(t)
	invokeJSON(t, db, "issue", issueArgs("k1", "alice", "100"))

	out, err := runCommand(t, NewInvokeCommand, "text", "transfer", "--db", db, "--args", transferArgs("k2", "alice", "bob", "500"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "failed [1002]")

	out, err = runCommand(t, NewBalanceCommand, "text", "--db", db, "alice", "usd")
	require.NoError(t, err)
	assert.Equal(t, "100\n", out)
}

func TestInvoke_ValidationError(t *testing.T) {
	db := newLedgerDB(t)

	out, err := runCommand(t, NewInvokeCommand, "text", "issue", "--db", db, "--args", issueArgs("k1", "alice", "-5"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [validation]")

	out, err = runCommand(t, NewHistoryCommand, "text", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No transactions.\n", out)
}

func TestInvoke_UnknownMethod(t *testing.T) {
	db := newLedgerDB(t)

	out, err := runCommand(t, NewInvokeCommand, "json", "mint", "--db", db, "--args", "{}")
	require.Error(t, err)
	assert.Contains(t, out, `"code":"validation"`)
	assert.Contains(t, out, "unknown method")
}

func TestInvoke_InvalidJSON(t *testing.T) {
	db := newLedgerDB(t)

	_, err := runCommand(t, NewInvokeCommand, "text", "issue", "--db", db, "--args", "{not json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid --args JSON")
}

func TestInvoke_CreateAssetTypeMismatch(t *testing.T) {
	db := newLedgerDB(t)

	out, err := runCommand(t, NewInvokeCommand, "text", "createAsset", "--db", db, "--args", `{"id":"usd","type":"finp2p"}`)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [1007]")
}

func TestInvoke_MissingDatabaseFlag(t *testing.T) {
	_, err := runCommand(t, NewInvokeCommand, "text", "issue", "--args", "{}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Contains(t, err.Error(), "db")
}

func TestInvoke_MissingMethod(t *testing.T) {
	_, err := runCommand(t, NewInvokeCommand, "text", "--db", "unused.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestInvokeHelpText(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewInvokeCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	output := buf.String()
	assert.Contains(t, output, "Run one operation")
	assert.Contains(t, output, "--args")
	assert.Contains(t, output, "rollback")
	assert.Contains(t, output, "createAsset")
}
