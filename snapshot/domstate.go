// ABOUTME: DOM attachedness propagation over two work-queues
// ABOUTME: Rewrites detached node names with a "Detached " prefix, interning through a name cache

package snapshot

// propagateDOMState implements spec.md §4.10. Runs only when the snapshot
// carries a detachedness field (hasDetachednessField).
func (s *Snapshot) propagateDOMState() {
	n := s.nodeCount
	visited := make([]bool, n)
	var attachedQ, detachedQ []int

	for ord := 0; ord < n; ord++ {
		switch DOMState(s.Node(ord).rawDetachedness()) {
		case DOMAttached:
			visited[ord] = true
			attachedQ = append(attachedQ, ord)
		case DOMDetached:
			visited[ord] = true
			s.flags[ord] |= FlagDetachedDOMTreeNode
			detachedQ = append(detachedQ, ord)
		}
	}

	traverse := func(queue []int, onVisit func(ord int)) {
		for head := 0; head < len(queue); head++ {
			ord := queue[head]
			b, e := s.OutgoingEdges(ord)
			for ei := b; ei < e; ei += s.schema.edgeFieldCount {
				edge := s.Edge(ei)
				switch edge.Type() {
				case EdgeHidden, EdgeInvisible, EdgeWeak:
					continue
				}
				child := edge.ToOrdinal()
				if s.Node(child).Type() != NodeNative {
					continue
				}
				if visited[child] {
					continue
				}
				visited[child] = true
				onVisit(child)
				queue = append(queue, child)
			}
		}
	}

	traverse(attachedQ, func(ord int) {
		s.Node(ord).setDOMState(DOMAttached)
	})

	renameCache := make(map[int]int) // old string index -> new "Detached <name>" string index
	traverse(detachedQ, func(ord int) {
		s.Node(ord).setDOMState(DOMDetached)
		s.flags[ord] |= FlagDetachedDOMTreeNode
		s.renameDetached(ord, renameCache)
	})

	// Seeds themselves need their names rewritten too (they were never
	// targets of a traversal edge, so the loop above never touched them).
	for _, ord := range detachedQ {
		s.renameDetached(ord, renameCache)
	}
}

func (s *Snapshot) renameDetached(ord int, cache map[int]int) {
	old := s.Node(ord).NameIndex()
	newIdx, ok := cache[old]
	if !ok {
		newIdx = s.internString("Detached " + s.stringAt(old))
		cache[old] = newIdx
	}
	s.Node(ord).setNameIndex(newIdx)
}
