// ABOUTME: Tests for the dominated-children bucket index built by buildDominatedChildren
// ABOUTME: Covers invariant 4: bucket sizes across every ordinal sum to node_count - 1

package snapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threeChildrenRaw is a star: R directly dominates A, B, and C.
func threeChildrenRaw() Raw {
	return Raw{
		Meta: Meta{
			NodeFields:   []string{"type", "name", "id", "self_size", "edge_count"},
			NodeTypeEnum: []string{"synthetic", "object"},
			EdgeFields:   []string{"type", "name_or_index", "to_node"},
			EdgeTypeEnum: []string{"property"},
		},
		Nodes: []uint32{
			0, 0, 1, 0, 3, // R
			1, 1, 3, 10, 0, // A
			1, 2, 5, 10, 0, // B
			1, 3, 7, 10, 0, // C
		},
		Edges: []uint32{
			0, 4, 5, // R -> A
			0, 5, 10, // R -> B
			0, 6, 15, // R -> C
		},
		Strings:   []string{"", "A", "B", "C", "a", "b", "c"},
		RootIndex: 0,
	}
}

func TestDominatedChildrenBucketSumEqualsNodeCountMinusOne(t *testing.T) {
	snap, err := Open(context.Background(), threeChildrenRaw(), Options{})
	require.NoError(t, err)

	var sum int
	for ord := 0; ord < snap.NodeCount(); ord++ {
		sum += len(snap.DominatedChildren(ord))
	}
	assert.Equal(t, snap.NodeCount()-1, sum)
}

func TestDominatedChildrenOfRootListsAllThreeDirectChildren(t *testing.T) {
	snap, err := Open(context.Background(), threeChildrenRaw(), Options{})
	require.NoError(t, err)

	children := snap.DominatedChildren(snap.RootOrdinal())
	assert.ElementsMatch(t, []uint32{1, 2, 3}, children)

	assert.Empty(t, snap.DominatedChildren(1))
	assert.Empty(t, snap.DominatedChildren(2))
	assert.Empty(t, snap.DominatedChildren(3))
}
