package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "ledgerd", cmd.Use)
	assert.Contains(t, cmd.Long, "at most once")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"serve", "recover", "invoke", "balance", "balances", "receipt", "status", "history", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestDatabaseFlagRequired(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"recover", "invoke", "balance", "balances", "receipt", "status", "history"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)

			dbFlag := sub.Flags().Lookup("db")
			require.NotNil(t, dbFlag)
			assert.Equal(t, []string{"true"}, dbFlag.Annotations[cobra.BashCompOneRequiredFlag])
		})
	}
}

func TestServeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	serveCmd, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	configFlag := serveCmd.Flags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"history", "--db", t.TempDir() + "/l.db", "--format", "xml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
