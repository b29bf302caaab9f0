// ABOUTME: Shallow-size reassignment from hidden/array owned nodes to their unique owner
// ABOUTME: Runs once, only when the snapshot carries user roots (not captured with "expose internals")

package snapshot

const (
	ownerUnvisited = -1
	ownerMultiple  = -2
)

// reassignShallowSizes implements spec.md §4.12.
func (s *Snapshot) reassignShallowSizes() {
	n := s.nodeCount
	owner := make([]int, n)
	var queue []int

	for ord := 0; ord < n; ord++ {
		t := s.Node(ord).Type()
		if t == NodeHidden || t == NodeArray {
			owner[ord] = ownerUnvisited
		} else {
			owner[ord] = ord
			queue = append(queue, ord)
		}
	}

	for head := 0; head < len(queue); head++ {
		ord := queue[head]
		self := owner[ord]
		b, e := s.OutgoingEdges(ord)
		for ei := b; ei < e; ei += s.schema.edgeFieldCount {
			edge := s.Edge(ei)
			if edge.Type() == EdgeWeak {
				continue
			}
			target := edge.ToOrdinal()
			switch {
			case owner[target] == ownerUnvisited:
				owner[target] = self
				queue = append(queue, target)
			case target == self, owner[target] == target, owner[target] == self, owner[target] == ownerMultiple:
				// no-op: target is the owning root itself, owns itself,
				// already shares the same owner, or already settled as ambiguous
			default:
				owner[target] = ownerMultiple
				queue = append(queue, target)
			}
		}
	}

	for ord := 0; ord < n; ord++ {
		own := owner[ord]
		if own < 0 || own == ord || own == s.rootOrdinal {
			continue
		}
		node := s.Node(ord)
		size := node.SelfSize()
		if size == 0 {
			continue
		}
		node.setSelfSize(0)
		ownerNode := s.Node(own)
		ownerNode.setSelfSize(ownerNode.SelfSize() + size)
	}
}
