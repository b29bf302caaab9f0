// ABOUTME: Dominated-children index builder via two-pass bucket sort
// ABOUTME: Buckets every non-root ordinal under its dominator ordinal

package snapshot

// buildDominatedChildren implements spec.md §4.9.
func (s *Snapshot) buildDominatedChildren(dominatorsTree []uint32) ([]uint32, []uint32) {
	n := s.nodeCount
	first := make([]uint32, n+1)

	for v := 0; v < n; v++ {
		if v == s.rootOrdinal {
			continue
		}
		first[dominatorsTree[v]]++
	}

	var running uint32
	dominatedNodes := make([]uint32, n-1)
	for ord := 0; ord < n; ord++ {
		count := first[ord]
		first[ord] = running
		if count > 0 {
			dominatedNodes[running] = count // parked remaining counter, same trick as retainers.go
		}
		running += count
	}
	first[n] = running

	for v := 0; v < n; v++ {
		if v == s.rootOrdinal {
			continue
		}
		dom := int(dominatorsTree[v])
		bucketStart := first[dom]
		remaining := dominatedNodes[bucketStart]
		slot := bucketStart + remaining - 1
		dominatedNodes[bucketStart] = remaining - 1
		dominatedNodes[slot] = uint32(v)
	}

	return first, dominatedNodes
}
