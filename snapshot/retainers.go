// ABOUTME: Retainer (reverse-edge) index builder
// ABOUTME: Two linear passes over edges produce a prefix-sum retainer index

package snapshot

// buildForwardIndex computes first_edge_indexes from each node's edge_count
// field and validates that the edge counts sum to the edge array's length.
func (s *Snapshot) buildForwardIndex() error {
	nf := s.schema.nodeFieldCount
	ef := s.schema.edgeFieldCount
	n := s.nodeCount

	first := make([]uint32, n+1)
	var running uint32
	for ord := 0; ord < n; ord++ {
		first[ord] = running
		running += s.getNodeField(ord, s.schema.nodeEdgeCount)
	}
	first[n] = running

	wantEdges := len(s.raw.Edges) / ef
	if int(running) != wantEdges {
		return newErr(CodeDataInvariant, "sum(node.edge_count)=%d does not match edge_count=%d", running, wantEdges)
	}
	// first_edge_indexes stores flat edge indexes, so scale by EF.
	for i := range first {
		first[i] *= uint32(ef)
	}
	s.firstEdgeIndexes = first
	_ = nf
	return nil
}

// buildRetainers implements spec.md §4.2: count references into
// first_retainer_index, convert to a prefix-sum layout (parking the
// remaining per-bucket count at the bucket's start slot), then fill
// retaining_nodes/retaining_edges on a second pass.
func (s *Snapshot) buildRetainers() error {
	nf := s.schema.nodeFieldCount
	n := s.nodeCount
	edgeCount := len(s.raw.Edges) / s.schema.edgeFieldCount

	first := make([]uint32, n+1)

	// Pass 1: count.
	for ord := 0; ord < n; ord++ {
		begin, end := s.OutgoingEdges(ord)
		for ei := begin; ei < end; ei += s.schema.edgeFieldCount {
			toIdx := int(s.getEdgeField(ei, s.schema.edgeToNode))
			if toIdx%nf != 0 || toIdx < 0 || toIdx/nf >= n {
				return newErr(CodeDataInvariant, "Invalid toNodeIndex")
			}
			first[toIdx/nf]++
		}
	}

	retainingNodes := make([]uint32, edgeCount)
	retainingEdges := make([]uint32, edgeCount)

	// Pass 2: convert counts to offsets; park remaining-count at bucket start.
	var running uint32
	for ord := 0; ord < n; ord++ {
		count := first[ord]
		first[ord] = running
		if count > 0 {
			retainingNodes[running] = count // parked remaining counter
		}
		running += count
	}
	first[n] = running

	// Pass 3: fill, decrementing the parked counter to find the next free slot.
	for ord := 0; ord < n; ord++ {
		begin, end := s.OutgoingEdges(ord)
		for ei := begin; ei < end; ei += s.schema.edgeFieldCount {
			toIdx := int(s.getEdgeField(ei, s.schema.edgeToNode))
			toOrdinal := toIdx / nf
			bucketStart := first[toOrdinal]
			remaining := retainingNodes[bucketStart]
			slot := bucketStart + remaining - 1
			// Update the parked counter before writing real data: when
			// remaining==1, slot==bucketStart and the counter write must
			// land first so the data write is the one that survives.
			retainingNodes[bucketStart] = remaining - 1
			retainingNodes[slot] = uint32(s.nodeIndexOf(ord))
			retainingEdges[slot] = uint32(ei)
		}
	}

	s.firstRetainerIndex = first
	s.retainingNodes = retainingNodes
	s.retainingEdges = retainingEdges
	return nil
}
