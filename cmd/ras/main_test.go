package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := Version, BuildTime, GitCommit
	defer func() {
		Version, BuildTime, GitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	Version = "1.2.3"
	BuildTime = "2024-01-01"
	GitCommit = "abcdef"
	output, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, output, "ras 1.2.3")
	assert.Contains(t, output, "Built: 2024-01-01")
	assert.Contains(t, output, "Commit: abcdef")

	BuildTime = "unknown"
	GitCommit = "unknown"
	output, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, output, "ras 1.2.3")
	assert.NotContains(t, output, "Built:")
	assert.NotContains(t, output, "Commit:")
}

func TestImportHistoryNeedsAFile(t *testing.T) {
	_, err := execute(t, "import-history")
	assert.Error(t, err)

	_, err = execute(t, "import-history", t.TempDir()+"/missing.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open file")
}

func TestCommandsAreRegistered(t *testing.T) {
	for _, name := range []string{"serve", "cycle", "refresh-view", "provision", "import-history", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	pages := cycleCmd.Flags().Lookup("pages")
	require.NotNil(t, pages)
	assert.Equal(t, "0", pages.DefValue)
	assert.NotNil(t, provisionCmd.Flags().Lookup("text-index"))
}
