// ABOUTME: Tests for the two-phase BFS distance engine and the retainers-view ignored-edges toggle
// ABOUTME: Covers the weak-edge, shortcut, and WeakMap-pair-completion scenarios the main snapshot fixture never did

package snapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// weakEdgeRaw builds S2: R->A (property), R->B (property), A->B (weak), plus
// an isolated node U nothing points to or from.
func weakEdgeRaw() Raw {
	return Raw{
		Meta: Meta{
			NodeFields:   []string{"type", "name", "id", "self_size", "edge_count"},
			NodeTypeEnum: []string{"synthetic", "object"},
			EdgeFields:   []string{"type", "name_or_index", "to_node"},
			EdgeTypeEnum: []string{"property", "weak"},
		},
		Nodes: []uint32{
			0, 0, 1, 0, 2, // R
			1, 1, 3, 10, 1, // A
			1, 2, 5, 20, 0, // B
			1, 6, 9, 1, 0, // U, unreachable
		},
		Edges: []uint32{
			0, 3, 5, // R -"a"-> A
			0, 4, 10, // R -"b"-> B
			1, 5, 10, // A -"c"-weak-> B
		},
		Strings:   []string{"", "A", "B", "a", "b", "c", "U"},
		RootIndex: 0,
	}
}

func TestDominatorIgnoresWeakRetainerWhenAnEssentialOneExists(t *testing.T) {
	snap, err := Open(context.Background(), weakEdgeRaw(), Options{})
	require.NoError(t, err)

	assert.Equal(t, snap.RootOrdinal(), snap.Dominator(2)) // B's weak retainer A doesn't count
	assert.EqualValues(t, 10, snap.RetainedSize(1))        // A retains only itself
	assert.EqualValues(t, 20, snap.RetainedSize(2))        // B retains only itself
}

func TestDistanceIsNoDistanceForNodeUnreachableFromRoot(t *testing.T) {
	snap, err := Open(context.Background(), weakEdgeRaw(), Options{})
	require.NoError(t, err)
	assert.EqualValues(t, NoDistance, snap.Distance(3))
}

// shortcutRaw builds S3: R->A (shortcut, essential because src is root) and
// X->A (shortcut, not essential because src isn't root).
func shortcutRaw() Raw {
	return Raw{
		Meta: Meta{
			NodeFields:   []string{"type", "name", "id", "self_size", "edge_count"},
			NodeTypeEnum: []string{"synthetic", "object"},
			EdgeFields:   []string{"type", "name_or_index", "to_node"},
			EdgeTypeEnum: []string{"shortcut"},
		},
		Nodes: []uint32{
			0, 0, 1, 0, 1, // R, one outgoing edge to A
			1, 1, 3, 10, 0, // A
			1, 2, 7, 5, 1, // X, one outgoing edge to A
		},
		Edges: []uint32{
			0, 3, 5, // R -shortcut "a"-> A
			0, 4, 5, // X -shortcut "x"-> A
		},
		Strings:   []string{"", "A", "X", "a", "x"},
		RootIndex: 0,
	}
}

func TestShortcutEdgeOnlyEssentialWhenSourcedAtRoot(t *testing.T) {
	snap, err := Open(context.Background(), shortcutRaw(), Options{})
	require.NoError(t, err)
	assert.Equal(t, snap.RootOrdinal(), snap.Dominator(1)) // only R's shortcut counts, not X's
}

// weakMapRetainersViewRaw gives the table-edge (Map->Entry) and key-edge
// (Key->Value) distinct targets, both carrying the same WeakMap table id, so
// a test can tell partner-completion apart from the plain "target is
// ignored" rule (which would mark both anyway if they shared a target).
func weakMapRetainersViewRaw() Raw {
	const pairName = "0 / part of key (K @5) -> value (V @7) pair in WeakMap (table @3)"
	return Raw{
		Meta: Meta{
			NodeFields:   []string{"type", "name", "id", "self_size", "edge_count"},
			NodeTypeEnum: []string{"synthetic", "object"},
			EdgeFields:   []string{"type", "name_or_index", "to_node"},
			EdgeTypeEnum: []string{"property", "internal"},
		},
		Nodes: []uint32{
			0, 0, 1, 0, 2, // R
			1, 1, 3, 10, 1, // Map, id=3
			1, 2, 5, 10, 1, // Key, id=5
			1, 3, 9, 5, 0, // Entry
			1, 4, 7, 20, 0, // Value, id=7
		},
		Edges: []uint32{
			0, 5, 5, // R -"m"-> Map
			0, 6, 10, // R -"k"-> Key
			1, 7, 15, // Map -internal(pairName)-> Entry
			1, 7, 20, // Key -internal(pairName)-> Value
		},
		Strings:   []string{"", "Map", "Key", "Entry", "Value", "m", "k", pairName},
		RootIndex: 0,
	}
}

func TestSetRetainersViewIgnoredNodesDropsWeakMapPairPartner(t *testing.T) {
	snap, err := Open(context.Background(), weakMapRetainersViewRaw(), Options{})
	require.NoError(t, err)

	const (
		rToMap   = 0
		rToKey   = 3
		mapEntry = 6
		keyValue = 9
	)

	snap.SetRetainersViewIgnoredNodes([]int{4}) // ignore Value

	assert.True(t, snap.IsEdgeIgnoredInRetainersView(keyValue), "edge directly targeting the ignored node")
	assert.True(t, snap.IsEdgeIgnoredInRetainersView(mapEntry), "pair partner must drop even though Entry itself isn't ignored")
	assert.False(t, snap.IsEdgeIgnoredInRetainersView(rToMap))
	assert.False(t, snap.IsEdgeIgnoredInRetainersView(rToKey))
}

func TestSetRetainersViewIgnoredNodesLeavesUnrelatedEdgesAlone(t *testing.T) {
	snap, err := Open(context.Background(), weakEdgeRaw(), Options{})
	require.NoError(t, err)

	snap.SetRetainersViewIgnoredNodes(nil)
	assert.False(t, snap.IsEdgeIgnoredInRetainersView(0))
}
