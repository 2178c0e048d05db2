package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/ballpit/internal/storage"
)

func TestRunClosesRecordWhenDiagnosticsFail(t *testing.T) {
	saved := dataDir
	t.Cleanup(func() { dataDir = saved })
	dataDir = t.TempDir()

	cmd := &cobra.Command{Use: "run", RunE: runSimulation}
	addEngineFlags(cmd)
	addTimingFlags(cmd)
	require.NoError(t, cmd.Flags().Set("bodies", "4"))
	require.NoError(t, cmd.Flags().Set("diag", filepath.Join(t.TempDir(), "missing", "diag.log")))

	err := runSimulation(cmd, nil)
	assert.ErrorContains(t, err, "diag: open")

	runs, err := storage.New(dataDir).List()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 4, runs[0].Bodies)
	assert.Zero(t, runs[0].Samples)
}
