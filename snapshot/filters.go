// ABOUTME: Named filters: detached-DOM retainers, console retainers, duplicated strings
// ABOUTME: Each filter name owns a single lazily-computed bit-vector for O(1) lookup

package snapshot

import "strings"

// NodeFilter accepts or rejects a node ordinal during aggregation/search.
type NodeFilter func(ordinal int) bool

// CreateNamedFilter implements spec.md §4.15.
func (s *Snapshot) CreateNamedFilter(name string) (NodeFilter, error) {
	bv, err := s.namedFilterBits(name)
	if err != nil {
		return nil, err
	}
	return func(ordinal int) bool { return !bv.Get(ordinal) }, nil
}

func (s *Snapshot) namedFilterBits(name string) (*bitVector, error) {
	if s.namedFilterCache == nil {
		s.namedFilterCache = make(map[string]*bitVector)
	}
	if bv, ok := s.namedFilterCache[name]; ok {
		return bv, nil
	}

	var bv *bitVector
	switch name {
	case "objectsRetainedByDetachedDomNodes":
		bv = s.bfsMarkExcluding(func(srcOrdinal, edgeIndex int) bool {
			return s.flags[s.Edge(edgeIndex).ToOrdinal()]&FlagDetachedDOMTreeNode != 0
		})
	case "objectsRetainedByConsole":
		bv = s.bfsMarkExcluding(func(srcOrdinal, edgeIndex int) bool {
			if s.Node(srcOrdinal).Type() != NodeSynthetic {
				return false
			}
			return strings.HasSuffix(s.Edge(edgeIndex).Name(), " / DevTools console")
		})
	case "duplicatedStrings":
		bv = s.markDuplicatedStrings()
	default:
		return nil, newErr(CodeInvalidFilter, "unknown named filter %q", name)
	}
	s.namedFilterCache[name] = bv
	return bv, nil
}

// bfsMarkExcluding marks every node reachable from root via non-weak edges
// that `excludeEdge` does not reject, then additionally marks every node
// whose precomputed node_distance is NoDistance (unreachable under any
// path). Nodes left unmarked are reachable only through the excluded edges.
func (s *Snapshot) bfsMarkExcluding(excludeEdge func(srcOrdinal, edgeIndex int) bool) *bitVector {
	marked := newBitVector(s.nodeCount)
	var queue []int
	marked.Set(s.rootOrdinal)
	queue = append(queue, s.rootOrdinal)
	for head := 0; head < len(queue); head++ {
		ord := queue[head]
		b, e := s.OutgoingEdges(ord)
		for ei := b; ei < e; ei += s.schema.edgeFieldCount {
			edge := s.Edge(ei)
			if edge.Type() == EdgeWeak {
				continue
			}
			if excludeEdge(ord, ei) {
				continue
			}
			child := edge.ToOrdinal()
			if !marked.Get(child) {
				marked.Set(child)
				queue = append(queue, child)
			}
		}
	}
	for ord := 0; ord < s.nodeCount; ord++ {
		if s.nodeDistances[ord] == NoDistance {
			marked.Set(ord)
		}
	}
	return marked
}

// markDuplicatedStrings marks both occurrences whenever two non-flat
// string/cons-string nodes share a name.
func (s *Snapshot) markDuplicatedStrings() *bitVector {
	marked := newBitVector(s.nodeCount)
	firstByName := make(map[string]int)
	for ord := 0; ord < s.nodeCount; ord++ {
		n := s.Node(ord)
		t := n.Type()
		if t != NodeString && t != NodeConsString {
			continue
		}
		if t == NodeConsString && s.isFlatConsString(ord) {
			continue
		}
		name := n.Name()
		if first, ok := firstByName[name]; ok {
			marked.Set(first)
			marked.Set(ord)
		} else {
			firstByName[name] = ord
		}
	}
	return marked
}

// isFlatConsString reports whether ordinal is a cons-string whose "first"
// or "second" internal edge points to the empty string (V8 flattens these
// internally, so they aren't true duplicates of anything).
func (s *Snapshot) isFlatConsString(ordinal int) bool {
	b, e := s.OutgoingEdges(ordinal)
	for ei := b; ei < e; ei += s.schema.edgeFieldCount {
		edge := s.Edge(ei)
		if edge.Type() != EdgeInternal {
			continue
		}
		name := edge.Name()
		if name != "first" && name != "second" {
			continue
		}
		target := edge.To()
		if target.Type() == NodeString && target.Name() == "" {
			return true
		}
	}
	return false
}
