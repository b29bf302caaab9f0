// ABOUTME: Round-trips a minimal hand-built .heapsnapshot document through CanLoad/Load
// ABOUTME: Exercises trace_tree's nested-array flattening since it's the one non-flat field

package v8json

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `{
  "snapshot": {
    "meta": {
      "node_fields": ["type", "name", "id", "self_size", "edge_count"],
      "node_types": [["hidden", "object", "synthetic"], "string", "number", "number", "number"],
      "edge_fields": ["type", "name_or_index", "to_node"],
      "edge_types": [["element", "internal"], "string", "number"],
      "trace_function_info_fields": ["function_id", "name", "script_name", "script_id", "line", "column"],
      "trace_node_fields": ["id", "function_info_index", "count", "size", "children"],
      "sample_fields": ["timestamp_us", "last_assigned_id"],
      "location_fields": ["object_index", "script_id", "line", "column"]
    },
    "node_count": 2,
    "edge_count": 1
  },
  "nodes": [2, 0, 1, 0, 1, 1, 1, 3, 16, 0],
  "edges": [1, 2, 5],
  "trace_function_infos": [],
  "trace_tree": [[1, 0, 1, 16]],
  "samples": [],
  "locations": [],
  "strings": ["", "A"]
}`

func TestCanLoadDetectsTheSnapshotKey(t *testing.T) {
	l := &Loader{}
	assert.True(t, l.CanLoad(strings.NewReader(fixture)))
	assert.False(t, l.CanLoad(strings.NewReader(`{"not_a_snapshot": true}`)))
}

func TestLoadDecodesFlatArraysAndSchema(t *testing.T) {
	l := &Loader{}
	raw, err := l.Load(strings.NewReader(fixture))
	require.NoError(t, err)

	assert.Equal(t, []uint32{2, 0, 1, 0, 1, 1, 1, 3, 16, 0}, raw.Nodes)
	assert.Equal(t, []uint32{1, 2, 5}, raw.Edges)
	assert.Equal(t, []string{"", "A"}, raw.Strings)
	assert.Equal(t, 0, raw.RootIndex)

	assert.Equal(t, []string{"type", "name", "id", "self_size", "edge_count"}, raw.Meta.NodeFields)
	assert.Equal(t, []string{"hidden", "object", "synthetic"}, raw.Meta.NodeTypeEnum)
	assert.Equal(t, []string{"element", "internal", "invisible"}, raw.Meta.EdgeTypeEnum)
}

func TestLoadAppendsSyntheticInvisibleEdgeTypeExactlyOnce(t *testing.T) {
	l := &Loader{}
	raw, err := l.Load(strings.NewReader(fixture))
	require.NoError(t, err)

	count := 0
	for _, name := range raw.Meta.EdgeTypeEnum {
		if name == "invisible" {
			count++
		}
	}
	assert.Equal(t, 1, count)

	withInvisible := strings.Replace(fixture, `["element", "internal"]`, `["element", "internal", "invisible"]`, 1)
	raw2, err := l.Load(strings.NewReader(withInvisible))
	require.NoError(t, err)
	assert.Equal(t, []string{"element", "internal", "invisible"}, raw2.Meta.EdgeTypeEnum)
}

func TestLoadFlattensNestedTraceTree(t *testing.T) {
	l := &Loader{}
	raw, err := l.Load(strings.NewReader(fixture))
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 0, 1, 16}, raw.TraceTree)
}

func TestLoadCallsOnProgressPerKey(t *testing.T) {
	var statuses []string
	l := &Loader{OnProgress: func(status string, value, total int) { statuses = append(statuses, status) }}
	_, err := l.Load(strings.NewReader(fixture))
	require.NoError(t, err)
	assert.Contains(t, statuses, "Parsing nodes")
	assert.Contains(t, statuses, "Parsing snapshot")
}

func TestLoadRejectsNodeCountMismatch(t *testing.T) {
	bad := strings.Replace(fixture, `"node_count": 2`, `"node_count": 99`, 1)
	l := &Loader{}
	_, err := l.Load(strings.NewReader(bad))
	assert.Error(t, err)
}

func TestLoadRejectsMissingSnapshotKey(t *testing.T) {
	l := &Loader{}
	_, err := l.Load(strings.NewReader(`{"nodes": [1,2,3]}`))
	assert.Error(t, err)
}
