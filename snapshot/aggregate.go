// ABOUTME: Per-class aggregation with filter-keyed caching
// ABOUTME: One linear scan for counts/self-size/min-distance, one dominator-tree DFS for max-retained

package snapshot

import "sort"

// AggregateEntry is the per-class-index rollup spec.md §4.13 describes.
type AggregateEntry struct {
	ClassIndex      int      `json:"classIndex"`
	ClassName       string   `json:"className"`
	Count           int      `json:"count"`
	SelfSize        uint64   `json:"selfSize"`
	MinDistance     int32    `json:"minDistance"`
	MaxRetainedSize float64  `json:"maxRetainedSize"`
	Type            NodeType `json:"type"`
	// Name is populated only for object/native types, per spec.md §4.13.
	Name        string   `json:"name,omitempty"`
	NodeIndexes []uint32 `json:"nodeIndexes"`

	sorted bool
}

// Aggregate is the result of build_aggregates/get_aggregates_by_class_name.
type Aggregate struct {
	ByClassIndex map[int]*AggregateEntry    `json:"byClassIndex"`
	ByClassName  map[string]*AggregateEntry `json:"byClassName"`
}

// BuildAggregates implements spec.md §4.13's single linear scan plus the
// dominator-tree max-retained traversal. filter may be nil (no filtering).
func (s *Snapshot) BuildAggregates(filter NodeFilter) *Aggregate {
	byClassIndex := make(map[int]*AggregateEntry)

	for ord := 0; ord < s.nodeCount; ord++ {
		n := s.Node(ord)
		if n.SelfSize() == 0 {
			continue
		}
		if filter != nil && !filter(ord) {
			continue
		}
		ci := n.ClassIndex()
		e, ok := byClassIndex[ci]
		if !ok {
			e = &AggregateEntry{
				ClassIndex:  ci,
				ClassName:   n.ClassName(),
				Type:        n.Type(),
				MinDistance: s.nodeDistances[ord],
			}
			if n.Type() == NodeObject || n.Type() == NodeNative {
				e.Name = n.Name()
			}
			byClassIndex[ci] = e
		}
		e.Count++
		e.SelfSize += uint64(n.SelfSize())
		if d := s.nodeDistances[ord]; d != NoDistance && (e.MinDistance == NoDistance || d < e.MinDistance) {
			e.MinDistance = d
		}
		e.NodeIndexes = append(e.NodeIndexes, uint32(ord))
	}

	s.computeMaxRetained(byClassIndex, filter)

	byClassName := make(map[string]*AggregateEntry, len(byClassIndex))
	for _, e := range byClassIndex {
		byClassName[e.ClassName] = e
	}
	return &Aggregate{ByClassIndex: byClassIndex, ByClassName: byClassName}
}

// computeMaxRetained implements the dominator-tree DFS from spec.md §4.13:
// a class only contributes retained_size[v] the first time it's seen along
// a given root-to-node path.
func (s *Snapshot) computeMaxRetained(byClassIndex map[int]*AggregateEntry, filter NodeFilter) {
	type frame struct {
		ordinal  int
		childIdx int // index into dominatedNodes range, advancing
		added    bool
	}
	seen := make(map[int]bool)
	stack := []frame{{ordinal: s.rootOrdinal}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.childIdx == 0 {
			ord := top.ordinal
			if filter == nil || filter(ord) {
				ci := s.Node(ord).ClassIndex()
				if !seen[ci] {
					seen[ci] = true
					top.added = true
					if e, ok := byClassIndex[ci]; ok {
						e.MaxRetainedSize += s.retainedSizes[ord]
					}
				}
			}
		}
		b, e := s.firstDominatedNodeIndex[top.ordinal], s.firstDominatedNodeIndex[top.ordinal+1]
		idx := int(b) + top.childIdx
		if idx < int(e) {
			top.childIdx++
			child := int(s.dominatedNodes[idx])
			stack = append(stack, frame{ordinal: child})
			continue
		}
		if top.added {
			delete(seen, s.Node(top.ordinal).ClassIndex())
		}
		stack = stack[:len(stack)-1]
	}
}

// GetAggregatesByClassName implements the caching/lazy-sort wrapper from
// spec.md §4.13. key is the caller's synthetic cache key ("allObjects" or a
// filter-derived key like "NodeIdRange: a..b").
func (s *Snapshot) GetAggregatesByClassName(key string, sortedIndexes bool, filter NodeFilter) *Aggregate {
	if s.aggregateCache == nil {
		s.aggregateCache = make(map[string]*Aggregate)
	}
	agg, ok := s.aggregateCache[key]
	if !ok {
		agg = s.BuildAggregates(filter)
		s.aggregateCache[key] = agg
	}
	if sortedIndexes {
		for _, e := range agg.ByClassName {
			s.sortEntryByNodeID(e)
		}
	}
	return agg
}

func (s *Snapshot) sortEntryByNodeID(e *AggregateEntry) {
	if e.sorted {
		return
	}
	sort.Slice(e.NodeIndexes, func(i, j int) bool {
		return s.Node(int(e.NodeIndexes[i])).ID() < s.Node(int(e.NodeIndexes[j])).ID()
	})
	e.sorted = true
}
