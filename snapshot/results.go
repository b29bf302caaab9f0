// ABOUTME: Wire-compatible output shapes: StaticData, Statistics, Samples, serialized nodes/edges
// ABOUTME: Search and the allocation-profile attribution hookup also live here

package snapshot

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// StaticData is the top-level per-snapshot summary, per spec.md §6.
type StaticData struct {
	NodeCount     int    `json:"nodeCount"`
	RootNodeIndex int    `json:"rootNodeIndex"`
	TotalSize     uint64 `json:"totalSize"`
	MaxJsNodeID   uint32 `json:"maxJsNodeId"`
}

// StaticData returns the snapshot's static summary.
func (s *Snapshot) StaticData() StaticData {
	return StaticData{
		NodeCount:     s.nodeCount,
		RootNodeIndex: s.nodeIndexOf(s.rootOrdinal),
		TotalSize:     uint64(s.retainedSizes[s.rootOrdinal]),
		MaxJsNodeID:   s.maxJsNodeID,
	}
}

// Statistics buckets total self-size by coarse category, per spec.md §6.
type Statistics struct {
	Total    uint64 `json:"total"`
	V8Heap   uint64 `json:"v8heap"`
	Native   uint64 `json:"native"`
	Code     uint64 `json:"code"`
	JSArrays uint64 `json:"jsArrays"`
	Strings  uint64 `json:"strings"`
	System   uint64 `json:"system"`
}

// Statistics computes the bucketed byte breakdown.
func (s *Snapshot) Statistics() Statistics {
	var stats Statistics
	for ord := 0; ord < s.nodeCount; ord++ {
		n := s.Node(ord)
		size := uint64(n.SelfSize())
		stats.Total += size
		if s.nodeDistances[ord] >= BaseSystemDistance {
			stats.System += size
		}
		switch n.Type() {
		case NodeCode:
			stats.Code += size
		case NodeNative:
			stats.Native += size
		case NodeString, NodeConsString, NodeSlicedString:
			stats.Strings += size
		case NodeArray:
			stats.JSArrays += size
		default:
			stats.V8Heap += size
		}
	}
	// jsArrays additionally includes each array's single-retainer "elements"
	// internal child, per spec.md §6.
	for ord := 0; ord < s.nodeCount; ord++ {
		if s.Node(ord).Type() != NodeArray {
			continue
		}
		b, e := s.OutgoingEdges(ord)
		for ei := b; ei < e; ei += s.schema.edgeFieldCount {
			edge := s.Edge(ei)
			if edge.Type() == EdgeInternal && edge.Name() == "elements" {
				srcs, _ := s.RetainersOf(edge.ToOrdinal())
				if len(srcs) == 1 {
					size := uint64(edge.To().SelfSize())
					stats.JSArrays += size
					stats.V8Heap -= size
				}
			}
		}
	}
	return stats
}

// Samples is the allocation-timeline sample table, per spec.md §6.
type Samples struct {
	TimestampsMs   []float64 `json:"timestampsMs"`
	LastAssignedID []uint32  `json:"lastAssignedIds"`
}

// Samples builds the samples table from raw.Samples (pairs of
// timestamp_us, last_assigned_id).
func (s *Snapshot) Samples() Samples {
	sf := s.schema.sampleFieldCount
	if sf == 0 {
		return Samples{}
	}
	count := len(s.raw.Samples) / sf
	out := Samples{TimestampsMs: make([]float64, count), LastAssignedID: make([]uint32, count)}
	for i := 0; i < count; i++ {
		base := i * sf
		out.TimestampsMs[i] = float64(s.raw.Samples[base+s.schema.sampleTimestamp]) / 1000.0
		out.LastAssignedID[i] = s.raw.Samples[base+s.schema.sampleLastAssignedID]
	}
	return out
}

// SizeForRange sums self-size for every JS-id (odd) node that lower-bound
// binning over lastAssignedIds puts in bin binIndex: ids in
// (lastAssignedIds[binIndex-1], lastAssignedIds[binIndex]], with 0 as the
// lower end for bin 0. It scans every node; an out-of-range bin yields 0.
func (samp Samples) SizeForRange(s *Snapshot, binIndex int) uint64 {
	if binIndex < 0 || binIndex >= len(samp.LastAssignedID) {
		return 0
	}
	lo := uint32(0)
	if binIndex > 0 {
		lo = samp.LastAssignedID[binIndex-1]
	}
	hi := samp.LastAssignedID[binIndex]
	var total uint64
	for ord := 0; ord < s.nodeCount; ord++ {
		n := s.Node(ord)
		id := n.ID()
		if id%2 == 0 {
			continue // only JS (odd) ids are binned by allocation order
		}
		// lower-bound: id must fall within (lo, hi].
		if id > lo && id <= hi {
			total += uint64(n.SelfSize())
		}
	}
	return total
}

// SerializedNode is the wire shape for one node, per spec.md §6.
type SerializedNode struct {
	ID                  uint32  `json:"id"`
	Name                string  `json:"name"`
	Distance            int32   `json:"distance"`
	NodeIndex           int     `json:"nodeIndex"`
	RetainedSize        float64 `json:"retainedSize"`
	SelfSize            uint32  `json:"selfSize"`
	Type                string  `json:"type"`
	CanBeQueried        *bool   `json:"canBeQueried,omitempty"`
	DetachedDOMTreeNode *bool   `json:"detachedDOMTreeNode,omitempty"`
}

var truth = true

// SerializeNode builds the wire representation of ordinal.
func (s *Snapshot) SerializeNode(ordinal int) SerializedNode {
	n := s.Node(ordinal)
	out := SerializedNode{
		ID:           n.ID(),
		Name:         n.Name(),
		Distance:     s.nodeDistances[ordinal],
		NodeIndex:    s.nodeIndexOf(ordinal),
		RetainedSize: s.retainedSizes[ordinal],
		SelfSize:     n.SelfSize(),
		Type:         typeDisplayName(n.Type()),
	}
	if s.flags[ordinal]&FlagCanBeQueried != 0 {
		out.CanBeQueried = &truth
	}
	if s.flags[ordinal]&FlagDetachedDOMTreeNode != 0 {
		out.DetachedDOMTreeNode = &truth
	}
	return out
}

// SerializedEdge is the wire shape for one edge, per spec.md §6.
type SerializedEdge struct {
	Name      string `json:"name"`
	Node      int    `json:"node"`
	Type      string `json:"type"`
	EdgeIndex int    `json:"edgeIndex"`
	Distance  *int32 `json:"distance,omitempty"`
}

// SerializeEdge builds the wire representation of the edge at edgeIndex. If
// retainerView is true, Distance is set to BaseUnreachableDistance when the
// edge is ignored in the retainers view, per spec.md §6.
func (s *Snapshot) SerializeEdge(edgeIndex int, retainerView bool) SerializedEdge {
	e := s.Edge(edgeIndex)
	out := SerializedEdge{
		Name:      e.Name(),
		Node:      e.ToNodeIndex(),
		Type:      edgeTypeDisplayName(e.Type()),
		EdgeIndex: edgeIndex,
	}
	if retainerView && s.IsEdgeIgnoredInRetainersView(edgeIndex) {
		d := BaseUnreachableDistance
		out.Distance = &d
	}
	return out
}

func edgeTypeDisplayName(t EdgeType) string {
	switch t {
	case EdgeElement:
		return "element"
	case EdgeHidden:
		return "hidden"
	case EdgeInternal:
		return "internal"
	case EdgeShortcut:
		return "shortcut"
	case EdgeWeak:
		return "weak"
	case EdgeInvisible:
		return "invisible"
	default:
		return "property"
	}
}

// Location describes a node's source position, per spec.md §3.
type Location struct {
	NodeIndex int
	ScriptID  int
	Line      int
	Column    int
}

// GetLocation returns the location for nodeIndex, or nil if absent (spec.md
// §7: inapplicable operations are a silent no-op).
func (s *Snapshot) GetLocation(nodeIndex int) *Location {
	loc, ok := s.locationsByNode[nodeIndex]
	if !ok {
		return nil
	}
	return &loc
}

func (s *Snapshot) buildLocationIndex() {
	lf := s.schema.locFieldCount
	if lf == 0 || s.schema.locNodeIndex < 0 {
		return
	}
	count := len(s.raw.Locations) / lf
	s.locationsByNode = make(map[int]Location, count)
	for i := 0; i < count; i++ {
		base := i * lf
		nodeIndex := int(s.raw.Locations[base+s.schema.locNodeIndex])
		loc := Location{NodeIndex: nodeIndex}
		if s.schema.locScriptID >= 0 {
			loc.ScriptID = int(s.raw.Locations[base+s.schema.locScriptID])
		}
		if s.schema.locLine >= 0 {
			loc.Line = int(s.raw.Locations[base+s.schema.locLine])
		}
		if s.schema.locColumn >= 0 {
			loc.Column = int(s.raw.Locations[base+s.schema.locColumn])
		}
		s.locationsByNode[nodeIndex] = loc
	}
}

// TraceProfile is the external allocation-profile collaborator's interface,
// per spec.md §1. A nil TraceProfile is valid; every Snapshot method that
// would use it degrades to returning "no data."
type TraceProfile interface {
	TraceIDs(nodeID uint32) []uint32
	SerializeTraceTops() interface{}
	SerializeCallers(nodeID uint32) interface{}
	SerializeAllocationStack(nodeID uint32) interface{}
}

// TraceIDs delegates to the attached TraceProfile, or returns nil.
func (s *Snapshot) TraceIDs(nodeID uint32) []uint32 {
	if s.traceProfile == nil {
		return nil
	}
	return s.traceProfile.TraceIDs(nodeID)
}

// SerializeTraceTops delegates to the attached TraceProfile, or returns nil.
func (s *Snapshot) SerializeTraceTops() interface{} {
	if s.traceProfile == nil {
		return nil
	}
	return s.traceProfile.SerializeTraceTops()
}

// SerializeCallers delegates to the attached TraceProfile, or returns nil.
func (s *Snapshot) SerializeCallers(nodeID uint32) interface{} {
	if s.traceProfile == nil {
		return nil
	}
	return s.traceProfile.SerializeCallers(nodeID)
}

// SerializeAllocationStack delegates to the attached TraceProfile, or
// returns nil.
func (s *Snapshot) SerializeAllocationStack(nodeID uint32) interface{} {
	if s.traceProfile == nil {
		return nil
	}
	return s.traceProfile.SerializeAllocationStack(nodeID)
}

// SearchMode selects how Search matches its query against node names.
type SearchMode int

const (
	SearchSubstring SearchMode = iota
	SearchExact
	SearchRegex
)

// SearchOptions configures Search.
type SearchOptions struct {
	Mode         SearchMode
	CaseSensitive bool
}

// Search implements spec.md §9's supplemented search glue: substring,
// exact, or regex match over node names, typed ids, and "@<id>" addresses.
// Returns node ordinals sorted ascending.
func (s *Snapshot) Search(query string, opts SearchOptions) ([]uint32, error) {
	var re *regexp.Regexp
	if opts.Mode == SearchRegex {
		pattern := query
		if !opts.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		var err error
		re, err = regexp.Compile(pattern)
		if err != nil {
			return nil, newErr(CodeInvalidFilter, "invalid search regex: %v", err)
		}
	}

	needle := query
	if !opts.CaseSensitive {
		needle = strings.ToLower(needle)
	}

	var matchesByAddr bool
	var wantID uint64
	if strings.HasPrefix(query, "@") {
		if id, err := strconv.ParseUint(query[1:], 10, 64); err == nil {
			matchesByAddr = true
			wantID = id
		}
	}

	var out []uint32
	for ord := 0; ord < s.nodeCount; ord++ {
		n := s.Node(ord)
		if matchesByAddr {
			if uint64(n.ID()) == wantID {
				out = append(out, uint32(ord))
			}
			continue
		}
		name := n.Name()
		haystack := name
		if !opts.CaseSensitive {
			haystack = strings.ToLower(haystack)
		}
		var matched bool
		switch opts.Mode {
		case SearchExact:
			matched = haystack == needle
		case SearchRegex:
			matched = re.MatchString(name)
		default:
			matched = strings.Contains(haystack, needle)
		}
		if matched {
			out = append(out, uint32(ord))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
