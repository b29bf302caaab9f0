// ABOUTME: Iterative DFS post-order indexer with weak-retainer and orphan recovery rounds
// ABOUTME: Uses two explicit stacks instead of recursion; V8 snapshots are deep enough to blow a call stack

package snapshot

const maxWarnings = 100

func (s *Snapshot) addWarning(msg string) {
	if len(s.warnings) >= maxWarnings {
		return
	}
	s.warnings = append(s.warnings, msg)
}

// buildPostorder implements spec.md §4.5: an iterative DFS over essential
// edges gated by the page-object rule, with two recovery rounds for nodes
// with only weak/shortcut retainers and for fully unreachable orphans. Root
// always ends up last.
func (s *Snapshot) buildPostorder() ([]uint32, []uint32, error) {
	n := s.nodeCount
	postorderToOrdinal := make([]uint32, 0, n)
	visited := newBitVector(n)

	stackNodes := make([]int, 0, n)
	stackEdge := make([]int, 0, n)

	push := func(ord int) {
		visited.Set(ord)
		stackNodes = append(stackNodes, ord)
		begin, _ := s.OutgoingEdges(ord)
		stackEdge = append(stackEdge, begin)
	}
	push(s.rootOrdinal)

	run := func() {
		for len(stackNodes) > 0 {
			top := len(stackNodes) - 1
			ord := stackNodes[top]
			_, end := s.OutgoingEdges(ord)
			advanced := false
			for stackEdge[top] < end {
				ei := stackEdge[top]
				stackEdge[top] += s.schema.edgeFieldCount
				if !s.isEssential(ord, ei) {
					continue
				}
				child := s.Edge(ei).ToOrdinal()
				if visited.Get(child) {
					continue
				}
				if !s.passesPageObjectGate(ord, child) {
					continue
				}
				push(child)
				advanced = true
				break
			}
			if advanced {
				continue
			}
			postorderToOrdinal = append(postorderToOrdinal, uint32(ord))
			stackNodes = stackNodes[:top]
			stackEdge = stackEdge[:top]
		}
	}
	run()

	if len(postorderToOrdinal) < n {
		// Round 2: nodes retained only by weak/shortcut edges.
		var onlyWeak []int
		for ord := 0; ord < n; ord++ {
			if visited.Get(ord) {
				continue
			}
			if s.hasOnlyWeakRetainers(ord) {
				onlyWeak = append(onlyWeak, ord)
			}
		}
		if len(onlyWeak) > 0 {
			s.addWarning(formatOrdinalWarning("nodes with only weak retainers", onlyWeak))
		}
		for _, ord := range onlyWeak {
			if !visited.Get(ord) {
				push(ord)
				run()
			}
		}
	}

	if len(postorderToOrdinal) < n {
		// Round 3: fully unreachable orphans, appended in arbitrary order.
		var orphans []int
		for ord := 0; ord < n; ord++ {
			if !visited.Get(ord) {
				orphans = append(orphans, ord)
				visited.Set(ord)
				postorderToOrdinal = append(postorderToOrdinal, uint32(ord))
			}
		}
		if len(orphans) > 0 {
			s.addWarning(formatOrdinalWarning("fully unreachable nodes appended to post-order", orphans))
		}
	}

	// Root must be last. The main run emits root after its descendants, but
	// rounds 2 and 3 append their nodes after that, so whenever either round
	// added nodes root is no longer last and is moved to the end here.
	if postorderToOrdinal[len(postorderToOrdinal)-1] != uint32(s.rootOrdinal) {
		for i, ord := range postorderToOrdinal {
			if int(ord) == s.rootOrdinal {
				postorderToOrdinal = append(postorderToOrdinal[:i], postorderToOrdinal[i+1:]...)
				break
			}
		}
		postorderToOrdinal = append(postorderToOrdinal, uint32(s.rootOrdinal))
	}

	if len(postorderToOrdinal) != n {
		return nil, nil, newErr(CodeDataInvariant, "post-order length %d != node_count %d", len(postorderToOrdinal), n)
	}

	ordinalToPostorder := make([]uint32, n)
	for idx, ord := range postorderToOrdinal {
		ordinalToPostorder[ord] = uint32(idx)
	}
	return postorderToOrdinal, ordinalToPostorder, nil
}

// hasOnlyWeakRetainers reports whether every retainer of ordinal reaches it
// through a weak or shortcut (non-root-sourced) edge.
func (s *Snapshot) hasOnlyWeakRetainers(ordinal int) bool {
	srcs, edges := s.RetainersOf(ordinal)
	if len(edges) == 0 {
		return false
	}
	for i, ei := range edges {
		e := s.Edge(int(ei))
		switch e.Type() {
		case EdgeWeak:
			continue
		case EdgeShortcut:
			if s.nodeOrdinalOf(int(srcs[i])) == s.rootOrdinal {
				return false
			}
			continue
		default:
			return false
		}
	}
	return true
}

// passesPageObjectGate implements spec.md §4.7: skip edge u->v when u isn't
// root, v carries the page-object flag, and u does not.
func (s *Snapshot) passesPageObjectGate(u, v int) bool {
	if u == s.rootOrdinal {
		return true
	}
	vPage := s.flags[v]&FlagPageObject != 0
	uPage := s.flags[u]&FlagPageObject != 0
	return !(vPage && !uPage)
}

func formatOrdinalWarning(prefix string, ordinals []int) string {
	msg := prefix + ":"
	limit := len(ordinals)
	if limit > 20 {
		limit = 20
	}
	for i := 0; i < limit; i++ {
		msg += " " + fmtUint(uint32(ordinals[i]))
	}
	if len(ordinals) > limit {
		msg += " …"
	}
	return msg
}
