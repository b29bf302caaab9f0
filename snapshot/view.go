// ABOUTME: Typed field-offset accessors over the flat nodes/edges arrays
// ABOUTME: No accessor allocates; offsets are resolved once from the meta-schema

package snapshot

import "fmt"

// schema resolves the meta-schema's field names into fixed offsets, once,
// at Open time. -1 means the field is absent from this snapshot.
type schema struct {
	nodeFieldCount int
	edgeFieldCount int
	locFieldCount  int
	sampleFieldCount int

	nodeType         int
	nodeName         int
	nodeID           int
	nodeSelfSize     int
	nodeEdgeCount    int
	nodeTraceNodeID  int
	nodeDetachedness int

	edgeType        int
	edgeNameOrIndex int
	edgeToNode      int

	locNodeIndex int
	locScriptID  int
	locLine      int
	locColumn    int

	sampleTimestamp     int
	sampleLastAssignedID int
}

func indexOf(fields []string, name string) int {
	for i, f := range fields {
		if f == name {
			return i
		}
	}
	return -1
}

func buildSchema(m Meta) (*schema, error) {
	s := &schema{
		nodeFieldCount:   len(m.NodeFields),
		edgeFieldCount:   len(m.EdgeFields),
		locFieldCount:    len(m.LocationFields),
		sampleFieldCount: len(m.SampleFields),

		nodeType:         indexOf(m.NodeFields, fieldType),
		nodeName:         indexOf(m.NodeFields, fieldName),
		nodeID:           indexOf(m.NodeFields, fieldID),
		nodeSelfSize:     indexOf(m.NodeFields, fieldSelfSize),
		nodeEdgeCount:    indexOf(m.NodeFields, fieldEdgeCount),
		nodeTraceNodeID:  indexOf(m.NodeFields, fieldTraceNodeID),
		nodeDetachedness: indexOf(m.NodeFields, fieldDetachedness),

		edgeType:        indexOf(m.EdgeFields, fieldType),
		edgeNameOrIndex: indexOf(m.EdgeFields, fieldNameOrIndex),
		edgeToNode:      indexOf(m.EdgeFields, fieldToNode),

		locNodeIndex: indexOf(m.LocationFields, fieldNodeIndex),
		locScriptID:  indexOf(m.LocationFields, fieldScriptID),
		locLine:      indexOf(m.LocationFields, fieldLine),
		locColumn:    indexOf(m.LocationFields, fieldColumn),

		sampleTimestamp:      indexOf(m.SampleFields, fieldTimestampUs),
		sampleLastAssignedID: indexOf(m.SampleFields, fieldLastAssignedID),
	}
	if s.nodeFieldCount == 0 {
		return nil, newErr(CodeDataInvariant, "meta.node_fields is empty")
	}
	if s.edgeFieldCount == 0 {
		return nil, newErr(CodeDataInvariant, "meta.edge_fields is empty")
	}
	for _, req := range []struct {
		name string
		off  int
	}{
		{"type", s.nodeType}, {"name", s.nodeName}, {"id", s.nodeID},
		{"self_size", s.nodeSelfSize}, {"edge_count", s.nodeEdgeCount},
	} {
		if req.off < 0 {
			return nil, newErr(CodeDataInvariant, "meta.node_fields missing required field %q", req.name)
		}
	}
	for _, req := range []struct {
		name string
		off  int
	}{
		{"type", s.edgeType}, {"to_node", s.edgeToNode}, {"name_or_index", s.edgeNameOrIndex},
	} {
		if req.off < 0 {
			return nil, newErr(CodeDataInvariant, "meta.edge_fields missing required field %q", req.name)
		}
	}
	return s, nil
}

// getNodeField reads field off of the node at ordinal.
func (s *Snapshot) getNodeField(ordinal, off int) uint32 {
	return s.raw.Nodes[ordinal*s.schema.nodeFieldCount+off]
}

func (s *Snapshot) setNodeField(ordinal, off int, v uint32) {
	s.raw.Nodes[ordinal*s.schema.nodeFieldCount+off] = v
}

// getEdgeField reads field off of the edge at edgeIndex (a flat index into
// raw.Edges, already a multiple of edgeFieldCount, NOT an edge ordinal).
func (s *Snapshot) getEdgeField(edgeIndex, off int) uint32 {
	return s.raw.Edges[edgeIndex+off]
}

func (s *Snapshot) setEdgeField(edgeIndex, off int, v uint32) {
	s.raw.Edges[edgeIndex+off] = v
}

func (s *Snapshot) nodeOrdinalOf(nodeIndex int) int { return nodeIndex / s.schema.nodeFieldCount }

func (s *Snapshot) nodeIndexOf(ordinal int) int { return ordinal * s.schema.nodeFieldCount }

// NodeRef is a lightweight value type naming one node by ordinal.
type NodeRef struct {
	s       *Snapshot
	Ordinal int
}

func (n NodeRef) valid() bool { return n.s != nil && n.Ordinal >= 0 && n.Ordinal < n.s.nodeCount }

// Type returns the node's type enum.
func (n NodeRef) Type() NodeType {
	raw := n.s.getNodeField(n.Ordinal, n.s.schema.nodeType)
	return n.s.resolveNodeType(raw)
}

// NameIndex returns the string-table index of the node's name field.
func (n NodeRef) NameIndex() int { return int(n.s.getNodeField(n.Ordinal, n.s.schema.nodeName)) }

// Name returns the node's name string.
func (n NodeRef) Name() string { return n.s.stringAt(n.NameIndex()) }

func (n NodeRef) setNameIndex(idx int) {
	n.s.setNodeField(n.Ordinal, n.s.schema.nodeName, uint32(idx))
}

// ID returns the node's id (JS heap object ids are odd; native ids are even).
func (n NodeRef) ID() uint32 { return n.s.getNodeField(n.Ordinal, n.s.schema.nodeID) }

// SelfSize returns the node's self size in bytes.
func (n NodeRef) SelfSize() uint32 { return n.s.getNodeField(n.Ordinal, n.s.schema.nodeSelfSize) }

func (n NodeRef) setSelfSize(v uint32) { n.s.setNodeField(n.Ordinal, n.s.schema.nodeSelfSize, v) }

// EdgeCount returns the node's outgoing edge count.
func (n NodeRef) EdgeCount() uint32 { return n.s.getNodeField(n.Ordinal, n.s.schema.nodeEdgeCount) }

// TraceNodeID returns the allocation-trace node id, or 0 if the schema lacks
// the field.
func (n NodeRef) TraceNodeID() uint32 {
	if n.s.schema.nodeTraceNodeID < 0 {
		return 0
	}
	return n.s.getNodeField(n.Ordinal, n.s.schema.nodeTraceNodeID)
}

// hasDetachednessField reports whether this snapshot's node schema carries
// a native detachedness field (gating DOM-state propagation, §4.10).
func (s *Snapshot) hasDetachednessField() bool { return s.schema.nodeDetachedness >= 0 }

// rawDetachedness reads the node's serialized detachedness value before any
// packed-field rewrite (0=Unknown,1=Attached,2=Detached), only valid when
// hasDetachednessField is true.
func (n NodeRef) rawDetachedness() uint32 {
	return n.s.getNodeField(n.Ordinal, n.s.schema.nodeDetachedness)
}

// packedField returns the slot the engine packs DOM state + class index
// into: the native detachedness field when present, else a parallel array.
func (s *Snapshot) packedField(ordinal int) uint32 {
	if s.hasDetachednessField() {
		return s.getNodeField(ordinal, s.schema.nodeDetachedness)
	}
	return s.detachednessClassFallback[ordinal]
}

func (s *Snapshot) setPackedField(ordinal int, v uint32) {
	if s.hasDetachednessField() {
		s.setNodeField(ordinal, s.schema.nodeDetachedness, v)
		return
	}
	s.detachednessClassFallback[ordinal] = v
}

// DOMState returns the low 2 bits of the packed field.
func (n NodeRef) DOMState() DOMState {
	return DOMState(n.s.packedField(n.Ordinal) & domStateMask)
}

func (n NodeRef) setDOMState(st DOMState) {
	packed := n.s.packedField(n.Ordinal)
	n.s.setPackedField(n.Ordinal, (packed &^ domStateMask) | uint32(st))
}

// ClassIndex returns the upper 30 bits of the packed field (the interned
// class-name string index).
func (n NodeRef) ClassIndex() int { return int(n.s.packedField(n.Ordinal) >> 2) }

func (n NodeRef) setClassIndex(idx int) error {
	if idx >= classIndexMax {
		return newErr(CodeDataInvariant, "class index %d overflows 30-bit field", idx)
	}
	packed := n.s.packedField(n.Ordinal)
	n.s.setPackedField(n.Ordinal, (packed & domStateMask) | uint32(idx<<2))
	return nil
}

// ClassName returns the node's interned class name, resolved through the
// string table.
func (n NodeRef) ClassName() string { return n.s.stringAt(n.ClassIndex()) }

func (s *Snapshot) resolveNodeType(raw uint32) NodeType {
	if int(raw) >= len(s.raw.Meta.NodeTypeEnum) {
		return NodeOther
	}
	name := s.raw.Meta.NodeTypeEnum[raw]
	if t, ok := nodeTypeNames[name]; ok {
		return t
	}
	return NodeOther
}

func (s *Snapshot) resolveEdgeType(raw uint32) EdgeType {
	if int(raw) >= len(s.raw.Meta.EdgeTypeEnum) {
		return EdgeOther
	}
	name := s.raw.Meta.EdgeTypeEnum[raw]
	if t, ok := edgeTypeNames[name]; ok {
		return t
	}
	return EdgeOther
}

// EdgeRef is a lightweight value type naming one edge by its flat edge
// index (a multiple of the edge field count).
type EdgeRef struct {
	s     *Snapshot
	Index int
}

// Type returns the edge's type enum.
func (e EdgeRef) Type() EdgeType {
	return e.s.resolveEdgeType(e.s.getEdgeField(e.Index, e.s.schema.edgeType))
}

// NameOrIndexRaw returns the raw name_or_index field: for property/internal
// edges this is a string-table index; for element edges it's a numeric
// array index.
func (e EdgeRef) NameOrIndexRaw() uint32 { return e.s.getEdgeField(e.Index, e.s.schema.edgeNameOrIndex) }

// Name resolves the edge's display name: string-table lookup for named
// edge types, decimal rendering of the numeric index otherwise.
func (e EdgeRef) Name() string {
	switch e.Type() {
	case EdgeElement:
		return fmt.Sprintf("%d", e.NameOrIndexRaw())
	default:
		return e.s.stringAt(int(e.NameOrIndexRaw()))
	}
}

// ToNodeIndex returns the flat node index (a multiple of NF) this edge
// points to.
func (e EdgeRef) ToNodeIndex() int { return int(e.s.getEdgeField(e.Index, e.s.schema.edgeToNode)) }

// ToOrdinal returns the target node's ordinal.
func (e EdgeRef) ToOrdinal() int { return e.s.nodeOrdinalOf(e.ToNodeIndex()) }

// To returns a NodeRef for the edge's target.
func (e EdgeRef) To() NodeRef { return NodeRef{s: e.s, Ordinal: e.ToOrdinal()} }

func (s *Snapshot) stringAt(idx int) string {
	if idx < 0 || idx >= len(s.raw.Strings) {
		return ""
	}
	return s.raw.Strings[idx]
}

// internString appends str to the (append-only at analysis time) string
// table if it isn't already the string at an existing index known to the
// caller's cache; callers own the cache, this just appends and returns the
// new index.
func (s *Snapshot) internString(str string) int {
	idx := len(s.raw.Strings)
	s.raw.Strings = append(s.raw.Strings, str)
	return idx
}

// Node returns a NodeRef for the given ordinal.
func (s *Snapshot) Node(ordinal int) NodeRef { return NodeRef{s: s, Ordinal: ordinal} }

// Edge returns an EdgeRef for the given flat edge index.
func (s *Snapshot) Edge(index int) EdgeRef { return EdgeRef{s: s, Index: index} }

// OutgoingEdges returns the half-open range of flat edge indexes [begin,
// end) belonging to ordinal's outgoing edges, via the first_edge_indexes
// prefix-sum array.
func (s *Snapshot) OutgoingEdges(ordinal int) (begin, end int) {
	return int(s.firstEdgeIndexes[ordinal]), int(s.firstEdgeIndexes[ordinal+1])
}

// RetainersOf returns the slice of retaining_nodes/retaining_edges entries
// for ordinal, via first_retainer_index.
func (s *Snapshot) RetainersOf(ordinal int) (srcNodeIndexes []uint32, edgeIndexes []uint32) {
	b, e := s.firstRetainerIndex[ordinal], s.firstRetainerIndex[ordinal+1]
	return s.retainingNodes[b:e], s.retainingEdges[b:e]
}
