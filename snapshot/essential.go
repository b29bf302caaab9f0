// ABOUTME: Essential-edge predicate shared by distance/post-order/dominator passes
// ABOUTME: Encodes weak/shortcut/WeakMap-pair policy with a negative-match cache

package snapshot

import "regexp"

// weakMapPairPattern matches the synthetic edge name V8 emits for the two
// edges a WeakMap key/value pair contributes (one from the table, one from
// the key); group 2 captures the table's node id.
var weakMapPairPattern = regexp.MustCompile(`^\d+( / part of key \(.*? @\d+\) -> value \(.*? @\d+\) pair in WeakMap \(table @(\d+)\))$`)

// isEssential implements spec.md §4.3. srcOrdinal is the edge's source
// node; edgeIndex is its flat index.
func (s *Snapshot) isEssential(srcOrdinal, edgeIndex int) bool {
	e := s.Edge(edgeIndex)
	switch e.Type() {
	case EdgeWeak:
		return false
	case EdgeShortcut:
		return srcOrdinal == s.rootOrdinal
	case EdgeInternal:
		return s.isEssentialInternalEdge(srcOrdinal, e)
	default:
		return true
	}
}

func (s *Snapshot) isEssentialInternalEdge(srcOrdinal int, e EdgeRef) bool {
	nameIdx := int(e.NameOrIndexRaw())
	if s.weakMapNegativeCache != nil && s.weakMapNegativeCache.Get(nameIdx) {
		return true
	}
	name := s.stringAt(nameIdx)
	m := weakMapPairPattern.FindStringSubmatch(name)
	if m == nil {
		if s.weakMapNegativeCache != nil {
			s.weakMapNegativeCache.Set(nameIdx)
		}
		return true
	}
	tableID := m[2]
	srcID := s.Node(srcOrdinal).ID()
	if fmtUint(srcID) == tableID {
		// Edge sourced at the WeakMap table itself: skip it, keep the
		// edge sourced at the key.
		return false
	}
	return true
}

func fmtUint(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
