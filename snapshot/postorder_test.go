// ABOUTME: Tests for the iterative post-order indexer, its permutation invariant, and recovery rounds
// ABOUTME: Covers invariant 6 (root last, ordinalToPostorder is a permutation) plus the weak-retainer recovery round

package snapshot

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertValidPostorderPermutation(t *testing.T, snap *Snapshot) {
	t.Helper()
	n := snap.NodeCount()
	require.Len(t, snap.postorderToOrdinal, n)
	require.Len(t, snap.ordinalToPostorder, n)

	assert.EqualValues(t, snap.RootOrdinal(), snap.postorderToOrdinal[n-1], "root must be last in post-order")

	seen := make([]bool, n)
	for _, ord := range snap.postorderToOrdinal {
		require.False(t, seen[ord], "ordinal %d appears twice in post-order", ord)
		seen[ord] = true
	}
	for ord := 0; ord < n; ord++ {
		pos := snap.ordinalToPostorder[ord]
		require.Equal(t, uint32(ord), snap.postorderToOrdinal[pos], "ordinalToPostorder must invert postorderToOrdinal")
	}
}

func TestPostorderIsValidPermutationWithRootLast(t *testing.T) {
	snap := openTiny(t)
	assertValidPostorderPermutation(t, snap)
}

// onlyWeakRetainerRaw has a single node (A) whose only retainer edge is
// weak, so the main DFS round never reaches it and round 2 must recover it
// via hasOnlyWeakRetainers.
func onlyWeakRetainerRaw() Raw {
	return Raw{
		Meta: Meta{
			NodeFields:   []string{"type", "name", "id", "self_size", "edge_count"},
			NodeTypeEnum: []string{"synthetic", "object"},
			EdgeFields:   []string{"type", "name_or_index", "to_node"},
			EdgeTypeEnum: []string{"weak"},
		},
		Nodes: []uint32{
			0, 0, 1, 0, 1, // R
			1, 1, 3, 10, 0, // A
		},
		Edges: []uint32{
			0, 2, 5, // R -weak "w"-> A
		},
		Strings:   []string{"", "A", "w"},
		RootIndex: 0,
	}
}

func TestPostorderRecoversNodesWithOnlyWeakRetainers(t *testing.T) {
	snap, err := Open(context.Background(), onlyWeakRetainerRaw(), Options{})
	require.NoError(t, err)

	assertValidPostorderPermutation(t, snap)

	found := false
	for _, w := range snap.Warnings() {
		if strings.Contains(w, "only weak retainers") {
			found = true
		}
	}
	assert.True(t, found, "expected a warning about only-weak-retainer recovery, got %v", snap.Warnings())
}
