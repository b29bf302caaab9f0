// ABOUTME: Retained-size propagation via a single post-order sweep
// ABOUTME: No recursion or accumulator stack: each node's size simply rolls up into its dominator

package snapshot

// propagateRetainedSizes implements spec.md §4.8.
func (s *Snapshot) propagateRetainedSizes(postorderToOrdinal, dominatorsTree []uint32) []float64 {
	n := s.nodeCount
	retained := make([]float64, n)
	for ord := 0; ord < n; ord++ {
		retained[ord] = float64(s.Node(ord).SelfSize())
	}
	for i := 0; i <= n-2; i++ {
		v := int(postorderToOrdinal[i])
		dom := int(dominatorsTree[v])
		retained[dom] += retained[v]
	}
	return retained
}
