// ABOUTME: End-to-end test driving the real Cobra command tree over a tiny fixture file
// ABOUTME: Captures stdout via an os.Pipe since subcommands print with fmt.Printf, not cmd.Println

package cmd

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/prateek/heapsnap/loader/v8json"
)

const fixtureSnapshot = `{
  "snapshot": {
    "meta": {
      "node_fields": ["type", "name", "id", "self_size", "edge_count"],
      "node_types": [["hidden", "object", "synthetic"], "string", "number", "number", "number"],
      "edge_fields": ["type", "name_or_index", "to_node"],
      "edge_types": [["element", "internal"], "string", "number"],
      "trace_function_info_fields": [],
      "trace_node_fields": [],
      "sample_fields": [],
      "location_fields": []
    },
    "node_count": 2,
    "edge_count": 1
  },
  "nodes": [2, 0, 1, 0, 1, 1, 1, 3, 16, 0],
  "edges": [1, 0, 5],
  "trace_function_infos": [],
  "trace_tree": [],
  "samples": [],
  "locations": [],
  "strings": ["", "A"]
}`

// runCommand executes the real root command tree with args, returning
// whatever the subcommand wrote to stdout.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	origStdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = origStdout }()

	rootCmd.SetArgs(args)
	runErr := rootCmd.Execute()

	require.NoError(t, w.Close())
	os.Stdout = origStdout
	out, readErr := io.ReadAll(r)
	require.NoError(t, readErr)
	return string(out), runErr
}

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dump.heapsnapshot")
	require.NoError(t, os.WriteFile(path, []byte(fixtureSnapshot), 0o644))
	return path
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "heapsnap.yaml")
	cachePath := filepath.Join(t.TempDir(), "cache.db")
	contents := "cache:\n  enabled: true\n  path: " + cachePath + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(contents), 0o644))
	return cfgPath
}

func TestAnalyzeCommandPrintsSummary(t *testing.T) {
	path := writeFixture(t)
	cfgPath := writeTestConfig(t)

	out, err := runCommand(t, "analyze", "--config", cfgPath, path)
	require.NoError(t, err)
	assert.Contains(t, out, "Nodes:       2")
	assert.Contains(t, out, "Top")
}

func TestAnalyzeCommandUsesCacheOnSecondRun(t *testing.T) {
	path := writeFixture(t)
	cfgPath := writeTestConfig(t)

	_, err := runCommand(t, "analyze", "--config", cfgPath, path)
	require.NoError(t, err)

	out, err := runCommand(t, "analyze", "--config", cfgPath, path)
	require.NoError(t, err)
	assert.Contains(t, out, "Nodes:       2")
}

func TestClassesCommandPrintsClassTable(t *testing.T) {
	path := writeFixture(t)
	cfgPath := writeTestConfig(t)

	out, err := runCommand(t, "classes", "--config", cfgPath, path)
	require.NoError(t, err)
	assert.Contains(t, out, "A")
}

func TestRetainedCommandResolvesByID(t *testing.T) {
	path := writeFixture(t)
	cfgPath := writeTestConfig(t)

	out, err := runCommand(t, "retained", "--config", cfgPath, "--id", "3", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Dominator chain to root")
}

func TestFilterCommandReportsMatchCount(t *testing.T) {
	path := writeFixture(t)
	cfgPath := writeTestConfig(t)

	out, err := runCommand(t, "filter", "--config", cfgPath, path, "duplicatedStrings")
	require.NoError(t, err)
	assert.Contains(t, out, "matched 0 of 2 nodes")
}
