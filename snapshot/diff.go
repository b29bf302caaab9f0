// ABOUTME: Pairwise diff between two snapshots' per-class aggregates
// ABOUTME: Two-pointer merge over sorted id lists, disambiguating JS (odd) vs native (even) ids

package snapshot

// AggregateForDiff is the sorted-by-id view of one class's nodes in one
// snapshot, as spec.md §4.14 names it.
type AggregateForDiff struct {
	IDs       []uint32
	Indexes   []uint32
	SelfSizes []uint64
}

// Diff is the result of diffing two AggregateForDiff values.
type Diff struct {
	AddedIndexes   []uint32 `json:"addedIndexes"`
	DeletedIndexes []uint32 `json:"deletedIndexes"`
	AddedCount     int      `json:"addedCount"`
	RemovedCount   int      `json:"removedCount"`
	AddedSize      uint64   `json:"addedSize"`
	RemovedSize    uint64   `json:"removedSize"`
	CountDelta     int      `json:"countDelta"`
	SizeDelta       int64    `json:"sizeDelta"`
}

// DiffAggregates implements spec.md §4.14. a is the base snapshot's class
// view, b the target's. Returns nil when neither side changed.
func DiffAggregates(a, b *AggregateForDiff) *Diff {
	d := &Diff{}
	i, j := 0, 0
	for i < len(a.IDs) && j < len(b.IDs) {
		switch {
		case a.IDs[i] < b.IDs[j]:
			d.DeletedIndexes = append(d.DeletedIndexes, a.Indexes[i])
			d.RemovedCount++
			d.RemovedSize += a.SelfSizes[i]
			i++
		case a.IDs[i] > b.IDs[j]:
			d.AddedIndexes = append(d.AddedIndexes, b.Indexes[j])
			d.AddedCount++
			d.AddedSize += b.SelfSizes[j]
			j++
		default:
			i++
			j++
		}
	}
	for ; i < len(a.IDs); i++ {
		d.DeletedIndexes = append(d.DeletedIndexes, a.Indexes[i])
		d.RemovedCount++
		d.RemovedSize += a.SelfSizes[i]
	}
	for ; j < len(b.IDs); j++ {
		d.AddedIndexes = append(d.AddedIndexes, b.Indexes[j])
		d.AddedCount++
		d.AddedSize += b.SelfSizes[j]
	}

	if d.AddedCount == 0 && d.RemovedCount == 0 {
		return nil
	}
	d.CountDelta = d.AddedCount - d.RemovedCount
	d.SizeDelta = int64(d.AddedSize) - int64(d.RemovedSize)
	return d
}

// AggregateForDiffFromEntry builds the sorted-by-id view DiffAggregates
// needs from a class's AggregateEntry (first forcing its node indexes
// sorted by id).
func (s *Snapshot) AggregateForDiffFromEntry(e *AggregateEntry) *AggregateForDiff {
	s.sortEntryByNodeID(e)
	out := &AggregateForDiff{
		IDs:       make([]uint32, len(e.NodeIndexes)),
		Indexes:   append([]uint32(nil), e.NodeIndexes...),
		SelfSizes: make([]uint64, len(e.NodeIndexes)),
	}
	for i, ord := range e.NodeIndexes {
		n := s.Node(int(ord))
		out.IDs[i] = n.ID()
		out.SelfSizes[i] = uint64(n.SelfSize())
	}
	return out
}

// registerPeer records peer under id so a later diff-by-id can find it; ids
// never recorded here yield spec.md §7's CodeUnknownSnapshot caller error.
func (s *Snapshot) registerPeer(id string, peer *Snapshot) {
	if s.peers == nil {
		s.peers = make(map[string]*Snapshot)
	}
	s.peers[id] = peer
}

// DiffByClassName diffs this snapshot's "allObjects" aggregate against a
// previously registered peer snapshot's, by class name.
func (s *Snapshot) DiffByClassName(peerID, className string) (*Diff, error) {
	peer, ok := s.peers[peerID]
	if !ok {
		return nil, ErrUnknownSnapshot
	}
	aAgg := s.GetAggregatesByClassName("allObjects", true, nil)
	bAgg := peer.GetAggregatesByClassName("allObjects", true, nil)
	aEntry, aOK := aAgg.ByClassName[className]
	bEntry, bOK := bAgg.ByClassName[className]
	var aDiff, bDiff *AggregateForDiff
	if aOK {
		aDiff = s.AggregateForDiffFromEntry(aEntry)
	} else {
		aDiff = &AggregateForDiff{}
	}
	if bOK {
		bDiff = peer.AggregateForDiffFromEntry(bEntry)
	} else {
		bDiff = &AggregateForDiff{}
	}
	return DiffAggregates(aDiff, bDiff), nil
}
