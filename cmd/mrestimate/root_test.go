package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResolveConfig_FlagsOverrideFile は明示したフラグだけが設定ファイルの値を上書きすることを確認する
func TestResolveConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_path: stars.tsv\ntarget: M\ntrain_samples: 7\ntest_samples: 2\n"), 0o644))

	flags := runCmd.Flags()
	require.NoError(t, flags.Set("config", path))
	require.NoError(t, flags.Set("target", "R"))
	require.NoError(t, flags.Set("test-samples", "0"))
	require.NoError(t, flags.Set("no-plot", "true"))

	cfg, err := resolveConfig(runCmd)
	require.NoError(t, err)
	assert.Equal(t, "stars.tsv", cfg.DataPath)
	assert.Equal(t, "R", cfg.Target)
	assert.Equal(t, 7, cfg.TrainSamples)
	assert.Equal(t, 0, cfg.TestSamples)
	assert.False(t, cfg.Plot)
	assert.True(t, cfg.Store)

	require.NoError(t, flags.Set("train-samples", "-1"))
	_, err = resolveConfig(runCmd)
	assert.Error(t, err)
}
