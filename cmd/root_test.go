//go:build !integration

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"run", "batch", "skiptrace", "seed", "import", "export", "migrate"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "debtcollect", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRunCommand_Flags(t *testing.T) {
	flag := runCmd.Flags().Lookup("debtor")
	require.NotNil(t, flag, "run command should have --debtor flag")
}

func TestBatchCommand_Flags(t *testing.T) {
	flag := batchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "batch command should have --limit flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestSkiptraceCommand_Flags(t *testing.T) {
	require.NotNil(t, skiptraceCmd.Flags().Lookup("debtor"))
	dry := skiptraceCmd.Flags().Lookup("dry-run")
	require.NotNil(t, dry)
	assert.Equal(t, "false", dry.DefValue)
}

func TestSeedCommand_Flags(t *testing.T) {
	for _, name := range []string{"file", "first", "last", "address", "city", "state", "zip", "debt"} {
		assert.NotNil(t, seedCmd.Flags().Lookup(name), "seed command should have --%s flag", name)
	}
}

func TestImportExport_RequireOneArg(t *testing.T) {
	require.Error(t, importCmd.Args(importCmd, nil))
	require.NoError(t, importCmd.Args(importCmd, []string{"debtors.csv"}))
	require.Error(t, exportCmd.Args(exportCmd, []string{"a.csv", "b.csv"}))
}
