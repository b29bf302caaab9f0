// ABOUTME: Tests for default config values and loading an explicit YAML file
// ABOUTME: LoadConfig("") against a scratch dir must not error when no heapsnap.yaml exists there

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigAppliesDefaultsWhenNoFileExists(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, 10, cfg.Output.TopN)
	assert.True(t, cfg.Cache.Enabled)
	assert.False(t, cfg.Trace.Enabled)
	assert.Equal(t, 1.0, cfg.Trace.SampleRatio)
}

func TestLoadConfigReadsAnExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	contents := "output:\n  format: json\n  top_n: 25\ntrace:\n  enabled: true\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, 25, cfg.Output.TopN)
	assert.True(t, cfg.Trace.Enabled)
	assert.True(t, cfg.Cache.Enabled) // untouched default still applies
}
