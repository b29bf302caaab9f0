// ABOUTME: Fixture-driven tests for Open/Initialize against a tiny hand-built graph
// ABOUTME: root -> Window(A) -> B exercises retained size, distance, and dominators end to end

package snapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tinyRaw builds a 3-node graph: root -[a]-> Window -[b]-> B. Window's name
// makes it a user root (isUserRoot), so B is page-reachable too.
func tinyRaw() Raw {
	return Raw{
		Meta: Meta{
			NodeFields:   []string{"type", "name", "id", "self_size", "edge_count"},
			NodeTypeEnum: []string{"synthetic", "object"},
			EdgeFields:   []string{"type", "name_or_index", "to_node"},
			EdgeTypeEnum: []string{"element", "internal"},
		},
		Nodes: []uint32{
			0, 0, 1, 0, 1, // ordinal 0: synthetic root, name="", id=1, self_size=0, 1 edge
			1, 1, 3, 16, 1, // ordinal 1: object "Window", id=3, self_size=16, 1 edge
			1, 2, 5, 24, 0, // ordinal 2: object "B", id=5, self_size=24, 0 edges
		},
		Edges: []uint32{
			1, 3, 5, // root -"a"-> ordinal 1 (node index 1*5=5)
			1, 4, 10, // Window -"b"-> ordinal 2 (node index 2*5=10)
		},
		Strings:   []string{"", "Window", "B", "a", "b"},
		RootIndex: 0,
	}
}

func openTiny(t *testing.T) *Snapshot {
	t.Helper()
	snap, err := Open(context.Background(), tinyRaw(), Options{})
	require.NoError(t, err)
	return snap
}

func TestOpenBuildsQueryableSnapshot(t *testing.T) {
	snap := openTiny(t)
	assert.True(t, snap.Ready())
	assert.Equal(t, 3, snap.NodeCount())
	assert.Empty(t, snap.Warnings())
}

func TestRetainedSizeAtRootEqualsTotalSize(t *testing.T) {
	snap := openTiny(t)
	sd := snap.StaticData()
	assert.Equal(t, uint64(40), sd.TotalSize) // 0 + 16 + 24, property 1 of spec.md §8
	assert.EqualValues(t, snap.RetainedSize(snap.RootOrdinal()), sd.TotalSize)
}

func TestDistancesFollowPageReachability(t *testing.T) {
	snap := openTiny(t)
	assert.EqualValues(t, BaseSystemDistance, snap.Distance(snap.RootOrdinal())) // a user root (Window) was reached first
	assert.EqualValues(t, 1, snap.Distance(1)) // Window, direct user root
	assert.EqualValues(t, 2, snap.Distance(2)) // B, via Window
}

func TestDominatorPathEndsAtRoot(t *testing.T) {
	snap := openTiny(t)
	path := snap.DominatorPath(2)
	require.NotEmpty(t, path)
	assert.Equal(t, snap.RootOrdinal(), path[len(path)-1])
	assert.Contains(t, path, 1) // Window dominates B
}

func TestSearchByExactAddress(t *testing.T) {
	snap := openTiny(t)
	matches, err := snap.Search("@5", SearchOptions{Mode: SearchExact})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 2, int(matches[0]))
}

func TestSearchBySubstringIsCaseInsensitiveByDefault(t *testing.T) {
	snap := openTiny(t)
	matches, err := snap.Search("window", SearchOptions{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 1, int(matches[0]))
}

func TestGetAggregatesByClassNameGroupsObjects(t *testing.T) {
	snap := openTiny(t)
	agg := snap.GetAggregatesByClassName("allObjects", false, nil)
	entry, ok := agg.ByClassName["Window"]
	require.True(t, ok)
	assert.EqualValues(t, 1, entry.Count)
	assert.EqualValues(t, 16, entry.SelfSize)
}

func TestInitializeRejectsMisalignedNodeArray(t *testing.T) {
	raw := tinyRaw()
	raw.Nodes = raw.Nodes[:len(raw.Nodes)-1]
	_, err := Open(context.Background(), raw, Options{})
	assert.Error(t, err)
}

func TestInitializeReportsProgressMilestones(t *testing.T) {
	var milestones []string
	_, err := Open(context.Background(), tinyRaw(), Options{
		OnProgress: func(status string, value, total int) { milestones = append(milestones, status) },
	})
	require.NoError(t, err)
	assert.Contains(t, milestones, "Building edge indexes")
	assert.Contains(t, milestones, "Done")
}

func TestDiffByClassNameAcrossPeers(t *testing.T) {
	a := openTiny(t)
	bRaw := tinyRaw()
	// Peer drops B entirely: root -"a"-> Window, Window has no children.
	bRaw.Nodes = bRaw.Nodes[:10]
	bRaw.Nodes[9] = 0 // Window's edge_count: it no longer points at B
	bRaw.Edges = bRaw.Edges[:3]
	b, err := Open(context.Background(), bRaw, Options{})
	require.NoError(t, err)

	a.RegisterPeer("b", b)
	diff, err := a.DiffByClassName("b", "B")
	require.NoError(t, err)
	require.NotNil(t, diff)
	assert.EqualValues(t, 1, diff.RemovedCount)
	assert.EqualValues(t, 0, diff.AddedCount)
}
