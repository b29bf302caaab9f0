// ABOUTME: Class-name assignment, interning a deduplicated string index per node
// ABOUTME: Runs after DOM propagation so renamed "Detached " nodes get their own class

package snapshot

// assignClassNames implements spec.md §4.11.
func (s *Snapshot) assignClassNames() error {
	cache := make(map[string]int)
	intern := func(name string) int {
		if idx, ok := cache[name]; ok {
			return idx
		}
		idx := s.internString(name)
		cache[name] = idx
		return idx
	}

	for ord := 0; ord < s.nodeCount; ord++ {
		n := s.Node(ord)
		var classIdx int
		switch n.Type() {
		case NodeHidden:
			classIdx = intern("(system)")
		case NodeCode:
			classIdx = intern("(compiled code)")
		case NodeClosure:
			classIdx = intern("Function")
		case NodeRegExp:
			classIdx = intern("RegExp")
		case NodeObject, NodeNative:
			classIdx = s.classNameForObjectLike(n, intern)
		default:
			classIdx = intern("(" + typeDisplayName(n.Type()) + ")")
		}
		if err := n.setClassIndex(classIdx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Snapshot) classNameForObjectLike(n NodeRef, intern func(string) int) int {
	name := n.Name()
	switch {
	case hasPrefix(name, "Detached <"):
		if idx := indexOfByte(name, ' ', 10); idx >= 0 {
			return intern(name[:idx] + ">")
		}
	case hasPrefix(name, "<"):
		if idx := indexOfByte(name, ' ', 0); idx >= 0 {
			return intern(name[:idx] + ">")
		}
	}
	// Plain objects: reuse the node's existing name-string index verbatim
	// so the class name and the node's own name stay the same interned
	// slot and aggregation keys line up.
	return n.NameIndex()
}

func indexOfByte(s string, b byte, from int) int {
	for i := from; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func typeDisplayName(t NodeType) string {
	switch t {
	case NodeHidden:
		return "hidden"
	case NodeArray:
		return "array"
	case NodeObject:
		return "object"
	case NodeNative:
		return "native"
	case NodeString:
		return "string"
	case NodeConsString:
		return "concatenated string"
	case NodeSlicedString:
		return "sliced string"
	case NodeCode:
		return "code"
	case NodeClosure:
		return "closure"
	case NodeRegExp:
		return "regexp"
	case NodeSynthetic:
		return "synthetic"
	case NodeNumber:
		return "number"
	default:
		return "unknown"
	}
}
