// ABOUTME: Per-node flag bitset, including the page-object precomputation
// ABOUTME: Page-object marks nodes reachable from user roots over non-weak edges

package snapshot

// computePageObjectFlags implements spec.md §4.7: a BFS from every direct
// user-root child of root, over non-weak edges, marking FlagPageObject.
// Must run before the post-order indexer and dominator builder, both of
// which consult the flag to gate debugger-only retainers out of the page's
// dominator tree.
func (s *Snapshot) computePageObjectFlags() {
	if s.flags == nil {
		s.flags = make([]uint32, s.nodeCount)
	}

	visited := newBitVector(s.nodeCount)
	var queue []int

	begin, end := s.OutgoingEdges(s.rootOrdinal)
	for ei := begin; ei < end; ei += s.schema.edgeFieldCount {
		e := s.Edge(ei)
		if e.Type() == EdgeWeak {
			continue
		}
		child := e.ToOrdinal()
		if !s.isUserRoot(s.Node(child)) {
			continue
		}
		if !visited.Get(child) {
			visited.Set(child)
			s.flags[child] |= FlagPageObject
			queue = append(queue, child)
		}
	}

	for head := 0; head < len(queue); head++ {
		ord := queue[head]
		b, e := s.OutgoingEdges(ord)
		for ei := b; ei < e; ei += s.schema.edgeFieldCount {
			edge := s.Edge(ei)
			if edge.Type() == EdgeWeak {
				continue
			}
			child := edge.ToOrdinal()
			if !visited.Get(child) {
				visited.Set(child)
				s.flags[child] |= FlagPageObject
				queue = append(queue, child)
			}
		}
	}
}

// markQueryable sets the CAN_BE_QUERIED flag on every ordinal whose distance
// is not NoDistance, letting callers distinguish nodes reachable from root
// from recovery-round orphans if the UI ever needs to grey those out.
func (s *Snapshot) markQueryable() {
	for ord := 0; ord < s.nodeCount; ord++ {
		if s.nodeDistances[ord] != NoDistance {
			s.flags[ord] |= FlagCanBeQueried
		}
	}
}
