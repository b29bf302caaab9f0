// ABOUTME: Top-level Snapshot type and the initialize() pipeline that builds every derived structure
// ABOUTME: initialize() is the only mutation entry point; queries are pure over the derived arrays afterward

package snapshot

import "context"

// Snapshot is a fully analyzed heap graph: the input Raw value plus every
// derived array the engine computes once in Initialize. The engine
// exclusively owns all derived arrays (spec.md §3 "Ownership").
type Snapshot struct {
	raw    Raw
	schema *schema

	nodeCount   int
	rootOrdinal int
	maxJsNodeID uint32

	firstEdgeIndexes []uint32

	firstRetainerIndex []uint32
	retainingNodes     []uint32
	retainingEdges     []uint32

	weakMapNegativeCache *bitVector

	nodeDistances []int32

	retainersViewDistances      []int32
	ignoredNodesInRetainersView *bitVector
	ignoredEdgesInRetainersView *bitVector

	flags []uint32

	postorderToOrdinal []uint32
	ordinalToPostorder []uint32

	dominatorsTree []uint32
	retainedSizes  []float64

	firstDominatedNodeIndex []uint32
	dominatedNodes          []uint32

	detachednessClassFallback []uint32

	locationsByNode map[int]Location

	aggregateCache   map[string]*Aggregate
	namedFilterCache map[string]*bitVector
	peers            map[string]*Snapshot

	traceProfile TraceProfile

	warnings []string
	ready    bool
}

// Options configures Open/Initialize beyond the raw input.
type Options struct {
	// OnProgress, when non-nil, is called at fixed pipeline milestones.
	OnProgress ProgressFunc
	// TraceProfile is the optional allocation-profile collaborator.
	TraceProfile TraceProfile
}

// Open validates raw's meta-schema and runs the full analysis pipeline.
// Equivalent to constructing a Snapshot and calling Initialize.
func Open(ctx context.Context, raw Raw, opts Options) (*Snapshot, error) {
	s := &Snapshot{raw: raw, traceProfile: opts.TraceProfile}
	if err := s.Initialize(ctx, opts.OnProgress); err != nil {
		return nil, err
	}
	return s, nil
}

// Initialize builds every derived structure in dependency order (spec.md
// §2). It is the only mutation entry point; no query method may be called
// until it returns nil. Honors cooperative cancellation via ctx, checked
// between pipeline phases (not inside a pass); a cancelled run returns
// ErrCancelled.
func (s *Snapshot) Initialize(ctx context.Context, onProgress ProgressFunc) error {
	if onProgress == nil {
		onProgress = noopProgress
	}

	schema, err := buildSchema(s.raw.Meta)
	if err != nil {
		return err
	}
	s.schema = schema

	nf := schema.nodeFieldCount
	if len(s.raw.Nodes)%nf != 0 {
		return newErr(CodeDataInvariant, "nodes array length %d not a multiple of node field count %d", len(s.raw.Nodes), nf)
	}
	s.nodeCount = len(s.raw.Nodes) / nf
	if s.nodeCount == 0 {
		return newErr(CodeDataInvariant, "snapshot has zero nodes")
	}
	if s.nodeCount >= 0xFFFF_FFFE {
		return newErr(CodeDataInvariant, "node count %d too large for shallow-size reassignment", s.nodeCount)
	}
	if len(s.raw.Edges)%schema.edgeFieldCount != 0 {
		return newErr(CodeDataInvariant, "edges array length not a multiple of edge field count")
	}
	s.rootOrdinal = s.raw.RootIndex / nf

	onProgress("Building edge indexes", 0, 0)
	if err := s.buildForwardIndex(); err != nil {
		return err
	}
	if err := checkCancel(ctx); err != nil {
		return err
	}

	onProgress("Building retainers", 0, 0)
	if err := s.buildRetainers(); err != nil {
		return err
	}
	if err := checkCancel(ctx); err != nil {
		return err
	}

	s.weakMapNegativeCache = newBitVector(len(s.raw.Strings) + 1)

	if !s.hasDetachednessField() {
		s.detachednessClassFallback = make([]uint32, s.nodeCount)
	}
	s.flags = make([]uint32, s.nodeCount)

	onProgress("Propagating page ownership", 0, 0)
	s.computePageObjectFlags()
	if err := checkCancel(ctx); err != nil {
		return err
	}

	onProgress("Building post-order index", 0, 0)
	postorderToOrdinal, ordinalToPostorder, err := s.buildPostorder()
	if err != nil {
		return err
	}
	s.postorderToOrdinal = postorderToOrdinal
	s.ordinalToPostorder = ordinalToPostorder
	if err := checkCancel(ctx); err != nil {
		return err
	}

	onProgress("Building dominator tree", 0, 0)
	s.dominatorsTree = s.buildDominators(postorderToOrdinal, ordinalToPostorder)
	if err := checkCancel(ctx); err != nil {
		return err
	}

	onProgress("Calculating retained sizes", 0, 0)
	s.retainedSizes = s.propagateRetainedSizes(postorderToOrdinal, s.dominatorsTree)

	onProgress("Building dominated-nodes index", 0, 0)
	s.firstDominatedNodeIndex, s.dominatedNodes = s.buildDominatedChildren(s.dominatorsTree)

	onProgress("Calculating distances", 0, 0)
	s.nodeDistances = s.computeDistances(s.isUserRoot, nil)
	s.markQueryable()
	if err := checkCancel(ctx); err != nil {
		return err
	}

	if s.hasDetachednessField() {
		onProgress("Propagating DOM state", 0, 0)
		s.propagateDOMState()
	}

	onProgress("Calculating object names", 0, 0)
	if err := s.assignClassNames(); err != nil {
		return err
	}

	if s.hasUserRoots() {
		onProgress("Calculating shallow sizes", 0, 0)
		s.reassignShallowSizes()
		// Shallow-size reassignment moves self-size between nodes after
		// retained sizes were already propagated from the original sizes;
		// re-propagate once so retained_sizes[root] == total_size holds
		// (spec.md §8 property 1), which is the only re-run this one-time
		// step requires (spec.md §9 open question: once-only).
		s.retainedSizes = s.propagateRetainedSizes(postorderToOrdinal, s.dominatorsTree)
	}

	s.buildLocationIndex()
	s.computeMaxJsNodeID()

	onProgress("Done", 0, 0)
	s.ready = true
	return nil
}

func (s *Snapshot) computeMaxJsNodeID() {
	var max uint32
	for ord := 0; ord < s.nodeCount; ord++ {
		id := s.Node(ord).ID()
		if id%2 == 1 && id > max {
			max = id
		}
	}
	s.maxJsNodeID = max
}

// hasUserRoots reports whether the snapshot carries at least one
// page-observable entry point; shallow-size reassignment only makes sense
// for a snapshot captured without "expose internals".
func (s *Snapshot) hasUserRoots() bool {
	begin, end := s.OutgoingEdges(s.rootOrdinal)
	for ei := begin; ei < end; ei += s.schema.edgeFieldCount {
		if s.isUserRoot(s.Edge(ei).To()) {
			return true
		}
	}
	return false
}

// Ready reports whether Initialize has completed successfully.
func (s *Snapshot) Ready() bool { return s.ready }

// Warnings returns the structural-warning report collected during
// Initialize (unreachable nodes, nodes with only weak retainers), capped
// at 100 entries per spec.md §7.
func (s *Snapshot) Warnings() []string { return s.warnings }

// NodeCount returns the number of nodes in the graph.
func (s *Snapshot) NodeCount() int { return s.nodeCount }

// RootOrdinal returns the root node's ordinal.
func (s *Snapshot) RootOrdinal() int { return s.rootOrdinal }

// RetainedSize returns the retained size of the node at ordinal.
func (s *Snapshot) RetainedSize(ordinal int) float64 { return s.retainedSizes[ordinal] }

// Dominator returns the ordinal of ordinal's immediate dominator.
func (s *Snapshot) Dominator(ordinal int) int { return int(s.dominatorsTree[ordinal]) }

// Distance returns ordinal's BFS distance from root (NoDistance if no path
// of non-weak edges reaches it; after SetRetainersViewIgnoredNodes, ignored
// edges are not followed either).
func (s *Snapshot) Distance(ordinal int) int32 { return s.nodeDistances[ordinal] }

// DominatedChildren returns the ordinals ordinal immediately dominates.
func (s *Snapshot) DominatedChildren(ordinal int) []uint32 {
	b, e := s.firstDominatedNodeIndex[ordinal], s.firstDominatedNodeIndex[ordinal+1]
	return s.dominatedNodes[b:e]
}

// DominatorPath returns the chain from ordinal to root, inclusive, walking
// immediate dominators.
func (s *Snapshot) DominatorPath(ordinal int) []int {
	path := []int{ordinal}
	cur := ordinal
	for cur != s.rootOrdinal {
		cur = int(s.dominatorsTree[cur])
		path = append(path, cur)
		if len(path) > s.nodeCount {
			break // defensive: a cycle here would itself be a data-invariant bug
		}
	}
	return path
}

// RegisterPeer makes another already-initialized Snapshot available for
// DiffByClassName lookups under id.
func (s *Snapshot) RegisterPeer(id string, peer *Snapshot) { s.registerPeer(id, peer) }
