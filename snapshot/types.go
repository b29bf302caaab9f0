// ABOUTME: Core data types for the V8 heap snapshot graph
// ABOUTME: Defines the Raw input shape, meta-schema, and field-offset layouts

package snapshot

// NodeType is the enumerated type of a heap graph node.
type NodeType uint8

const (
	NodeHidden NodeType = iota
	NodeArray
	NodeObject
	NodeNative
	NodeString
	NodeConsString
	NodeSlicedString
	NodeCode
	NodeClosure
	NodeRegExp
	NodeSynthetic
	NodeNumber
	NodeOther // catch-all for types this engine has no special-cased behavior for
)

var nodeTypeNames = map[string]NodeType{
	"hidden":              NodeHidden,
	"array":               NodeArray,
	"object":               NodeObject,
	"native":              NodeNative,
	"string":              NodeString,
	"concatenated string": NodeConsString,
	"sliced string":       NodeSlicedString,
	"code":                NodeCode,
	"closure":             NodeClosure,
	"regexp":              NodeRegExp,
	"synthetic":           NodeSynthetic,
	"number":              NodeNumber,
}

// EdgeType is the enumerated type of a heap graph edge.
type EdgeType uint8

const (
	EdgeElement EdgeType = iota
	EdgeHidden
	EdgeInternal
	EdgeShortcut
	EdgeWeak
	EdgeInvisible
	EdgeOther // property, context, extension, and anything else not specially treated
)

var edgeTypeNames = map[string]EdgeType{
	"element":   EdgeElement,
	"hidden":    EdgeHidden,
	"internal":  EdgeInternal,
	"shortcut":  EdgeShortcut,
	"weak":      EdgeWeak,
	"invisible": EdgeInvisible,
}

// Standard node field names used to resolve offsets from the meta-schema.
const (
	fieldType            = "type"
	fieldName             = "name"
	fieldID               = "id"
	fieldSelfSize         = "self_size"
	fieldEdgeCount        = "edge_count"
	fieldTraceNodeID      = "trace_node_id"
	fieldDetachedness     = "detachedness"
	fieldToNode           = "to_node"
	fieldNameOrIndex      = "name_or_index"
	fieldNodeIndex        = "node_index"
	fieldScriptID         = "script_id"
	fieldLine             = "line"
	fieldColumn           = "column"
	fieldTimestampUs      = "timestamp_us"
	fieldLastAssignedID   = "last_assigned_id"
)

// Meta is the snapshot's field-schema, exactly as the input dump describes
// it: field names in declaration order, plus the enum string tables for the
// fields that carry one (node/edge "type").
type Meta struct {
	NodeFields []string
	// NodeTypeEnum holds the node-type enum's string table (the array
	// element of node_types at the "type" field's position); other
	// node_fields entries are plain "string"/"number" tags this engine
	// doesn't need to resolve further.
	NodeTypeEnum []string

	EdgeFields []string
	EdgeTypeEnum []string

	LocationFields []string
	SampleFields   []string
}

// Raw is the already-parsed snapshot value the analysis engine consumes.
// Producing one from bytes is the job of package loader, not this package.
type Raw struct {
	Meta Meta

	Nodes     []uint32
	Edges     []uint32
	Strings   []string
	Locations []uint32
	Samples   []uint32

	// TraceFunctionInfos and TraceTree are passed through untouched; this
	// engine never interprets them (allocation profile construction is an
	// external collaborator, see TraceProfile).
	TraceFunctionInfos []uint32
	TraceTree          []uint32

	RootIndex int
}

// Key sentinel constants from spec.md §6.
const (
	// NoDistance marks a node with no computed BFS distance.
	NoDistance int32 = -5
	// BaseSystemDistance offsets system-only objects so they sort after
	// every page-reachable object.
	BaseSystemDistance int32 = 100_000_000
	// BaseUnreachableDistance must sort strictly after BaseSystemDistance.
	BaseUnreachableDistance int32 = BaseSystemDistance + 1
)

// Flag bits for the per-node flags bitset.
const (
	FlagCanBeQueried        uint32 = 1 << 0
	FlagDetachedDOMTreeNode uint32 = 1 << 1
	FlagPageObject          uint32 = 1 << 2
)

// DOM link state, packed into the low 2 bits of the detachedness field.
type DOMState uint8

const (
	DOMUnknown DOMState = iota
	DOMAttached
	DOMDetached
)

const (
	domStateMask  = 0x3
	classIndexMax = 1 << 30 // domain of the packed 30-bit class index field
)
