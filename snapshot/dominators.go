// ABOUTME: Iterative Cooper-Harvey-Kennedy dominator computation over post-order numbers
// ABOUTME: Fixed-point sweep over the reverse graph, indexed by post-order position

package snapshot

const noEntry = ^uint32(0)

// buildDominators implements spec.md §4.6: the classic Cooper-Harvey-Kennedy
// iterative algorithm, here indexed by post-order position (closer to root
// = higher index) over the retainer (reverse) graph, respecting the
// essential-edge and page-object gates.
func (s *Snapshot) buildDominators(postorderToOrdinal, ordinalToPostorder []uint32) []uint32 {
	n := s.nodeCount
	rootPostIdx := uint32(n - 1)

	dominators := make([]uint32, n) // indexed by post-order position
	for i := range dominators {
		dominators[i] = noEntry
	}
	dominators[rootPostIdx] = rootPostIdx

	affected := newBitVector(n)
	begin, end := s.OutgoingEdges(s.rootOrdinal)
	for ei := begin; ei < end; ei += s.schema.edgeFieldCount {
		if !s.isEssential(s.rootOrdinal, ei) {
			continue
		}
		child := s.Edge(ei).ToOrdinal()
		if !s.passesPageObjectGate(s.rootOrdinal, child) {
			continue
		}
		affected.Set(int(ordinalToPostorder[child]))
	}

	changed := true
	for changed {
		changed = false
		for i := int(rootPostIdx) - 1; i >= 0; i-- {
			if !affected.Get(i) {
				continue
			}
			affected.Clear(i)
			ord := int(postorderToOrdinal[i])

			newDom := noEntry
			srcs, edges := s.RetainersOf(ord)
			for ri, ei := range edges {
				srcNodeIndex := int(srcs[ri])
				srcOrdinal := s.nodeOrdinalOf(srcNodeIndex)
				if !s.isEssential(srcOrdinal, int(ei)) {
					continue
				}
				if !s.passesPageObjectGate(srcOrdinal, ord) {
					continue
				}
				srcPost := ordinalToPostorder[srcOrdinal]
				if dominators[srcPost] == noEntry {
					continue
				}
				if newDom == noEntry {
					newDom = srcPost
					continue
				}
				newDom = intersect(dominators, newDom, srcPost)
			}
			if newDom == noEntry {
				newDom = rootPostIdx
			}
			if dominators[i] != newDom {
				dominators[i] = newDom
				b, e := s.OutgoingEdges(ord)
				for ei := b; ei < e; ei += s.schema.edgeFieldCount {
					if !s.isEssential(ord, ei) {
						continue
					}
					child := s.Edge(ei).ToOrdinal()
					if !s.passesPageObjectGate(ord, child) {
						continue
					}
					affected.Set(int(ordinalToPostorder[child]))
				}
				changed = true
			}
		}
	}

	tree := make([]uint32, n)
	for i := 0; i < n; i++ {
		ord := postorderToOrdinal[i]
		domPost := dominators[i]
		if domPost == noEntry {
			domPost = rootPostIdx
		}
		tree[ord] = postorderToOrdinal[domPost]
	}
	return tree
}

// intersect walks two post-order indexes up their (partially built)
// dominator chains until they meet, per the standard CHK two-pointer walk:
// the candidate with the smaller post-order position (farther from root)
// advances toward root until both match.
func intersect(dominators []uint32, a, b uint32) uint32 {
	for a != b {
		for a < b {
			a = dominators[a]
		}
		for b < a {
			b = dominators[b]
		}
	}
	return a
}
