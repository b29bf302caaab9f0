// ABOUTME: Comparator-driven windowed partial sort over node/edge index arrays
// ABOUTME: Median-of-three Lomuto partial quicksort constrained to the unsorted middle and the requested window

package snapshot

// Comparator orders two items by their index into the iteration order
// array; ascending/descending is the comparator's own business.
type Comparator func(a, b uint32) bool // true if a sorts before b

// ItemProvider wraps a materialized iteration order (node ordinals or flat
// edge indexes) and supports windowed, comparator-driven retrieval without
// sorting the whole array up front.
type ItemProvider struct {
	iterationOrder     []uint32
	sortedPrefixLength int
	sortedSuffixLength int
	cmp                Comparator
}

// NewItemProvider builds a provider over items (already in natural order);
// items is owned by the provider afterward.
func NewItemProvider(items []uint32) *ItemProvider {
	return &ItemProvider{iterationOrder: items}
}

// SetComparator installs a new ordering and resets the sorted-prefix/suffix
// counters, since any prior sort no longer applies under a new comparator.
func (p *ItemProvider) SetComparator(cmp Comparator) {
	p.cmp = cmp
	p.sortedPrefixLength = 0
	p.sortedSuffixLength = 0
}

// Len returns the total number of items.
func (p *ItemProvider) Len() int { return len(p.iterationOrder) }

// SerializeItemsRange implements spec.md §4.16: partial-sorts only the
// subrange that both the unsorted middle and the requested window touch,
// then returns items[begin:end].
func (p *ItemProvider) SerializeItemsRange(begin, end int) ([]uint32, error) {
	n := len(p.iterationOrder)
	if begin < 0 || end > n || begin > end {
		return nil, newErr(CodeOutOfRange, "range [%d,%d) out of bounds for length %d", begin, end, n)
	}
	if p.cmp != nil {
		leftBound := p.sortedPrefixLength
		rightBound := n - 1 - p.sortedSuffixLength
		if leftBound <= rightBound {
			winLo, winHi := begin, end-1
			lo, hi := leftBound, rightBound
			if winLo > lo {
				lo = winLo
			}
			if winHi < hi {
				hi = winHi
			}
			if lo <= hi {
				p.quickSortWindow(leftBound, rightBound, winLo, winHi)
				if leftBound >= winLo {
					p.sortedPrefixLength = maxInt(p.sortedPrefixLength, hi+1-0)
				}
				if begin <= leftBound {
					p.sortedPrefixLength = maxInt(p.sortedPrefixLength, end-0)
				}
				if end-1 >= rightBound {
					p.sortedSuffixLength = maxInt(p.sortedSuffixLength, n-begin)
				}
			}
		}
	}
	out := make([]uint32, end-begin)
	copy(out, p.iterationOrder[begin:end])
	return out, nil
}

// quickSortWindow is a Lomuto-partition, median-of-three-pivot partial
// quicksort over [boundLo,boundHi] that only recurses into partitions
// intersecting [winLo,winHi].
func (p *ItemProvider) quickSortWindow(boundLo, boundHi, winLo, winHi int) {
	var sort func(lo, hi int)
	sort = func(lo, hi int) {
		if lo >= hi || hi < winLo || lo > winHi {
			return
		}
		if hi-lo < 8 {
			p.insertionSort(lo, hi)
			return
		}
		mid := lo + (hi-lo)/2
		p.medianOfThree(lo, mid, hi)
		pivot := p.iterationOrder[hi]
		i := lo
		for j := lo; j < hi; j++ {
			if p.cmp(p.iterationOrder[j], pivot) {
				p.iterationOrder[i], p.iterationOrder[j] = p.iterationOrder[j], p.iterationOrder[i]
				i++
			}
		}
		p.iterationOrder[i], p.iterationOrder[hi] = p.iterationOrder[hi], p.iterationOrder[i]
		sort(lo, i-1)
		sort(i+1, hi)
	}
	sort(boundLo, boundHi)
}

func (p *ItemProvider) medianOfThree(lo, mid, hi int) {
	a, b, c := p.iterationOrder[lo], p.iterationOrder[mid], p.iterationOrder[hi]
	// Arrange so that the median of the three lands at hi (the pivot slot).
	if p.cmp(b, a) {
		a, b = b, a
	}
	if p.cmp(c, a) {
		a, c = c, a
	}
	if p.cmp(c, b) {
		b, c = c, b
	}
	p.iterationOrder[lo], p.iterationOrder[mid], p.iterationOrder[hi] = a, c, b
}

func (p *ItemProvider) insertionSort(lo, hi int) {
	for i := lo + 1; i <= hi; i++ {
		v := p.iterationOrder[i]
		j := i - 1
		for j >= lo && p.cmp(v, p.iterationOrder[j]) {
			p.iterationOrder[j+1] = p.iterationOrder[j]
			j--
		}
		p.iterationOrder[j+1] = v
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// FieldComparator builds a two-field comparator with a fixed tie-break on
// original index, matching spec.md §4.16. A field name starting with "!"
// (e.g. "!edgeName") selects the edge-field accessor family; any other name
// is a node field.
func (s *Snapshot) FieldComparator(field1 string, asc1 bool, field2 string, asc2 bool) Comparator {
	key := func(item uint32, field string) (num float64, str string, isStr bool) {
		return s.sortKey(item, field)
	}
	cmpOne := func(a, b uint32, field string, asc bool) int {
		an, as, aIsStr := key(a, field)
		bn, bs, bIsStr := key(b, field)
		var c int
		if field == edgeNameField {
			c = compareEdgeNames(as, bs)
		} else if aIsStr || bIsStr {
			c = compareStrings(as, bs)
		} else {
			switch {
			case an < bn:
				c = -1
			case an > bn:
				c = 1
			}
		}
		if !asc {
			c = -c
		}
		return c
	}
	return func(a, b uint32) bool {
		if field1 != "" {
			if c := cmpOne(a, b, field1, asc1); c != 0 {
				return c < 0
			}
		}
		if field2 != "" {
			if c := cmpOne(a, b, field2, asc2); c != 0 {
				return c < 0
			}
		}
		return a < b
	}
}

const edgeNameField = "!edgeName"

// sortKey resolves a field name to a numeric or string sort key for item
// (either a node ordinal or a flat edge index, depending on field prefix).
func (s *Snapshot) sortKey(item uint32, field string) (num float64, str string, isStr bool) {
	if len(field) > 0 && field[0] == '!' {
		return s.edgeSortKey(int(item), field)
	}
	return s.nodeSortKey(int(item), field)
}

func (s *Snapshot) nodeSortKey(ordinal int, field string) (float64, string, bool) {
	n := s.Node(ordinal)
	switch field {
	case "id":
		return float64(n.ID()), "", false
	case "name":
		return 0, n.Name(), true
	case "self_size", "selfSize":
		return float64(n.SelfSize()), "", false
	case "retainedSize", "retained_size":
		return s.retainedSizes[ordinal], "", false
	case "distance":
		return float64(s.nodeDistances[ordinal]), "", false
	case "type":
		return 0, typeDisplayName(n.Type()), true
	default:
		return 0, "", false
	}
}

func (s *Snapshot) edgeSortKey(edgeIndex int, field string) (float64, string, bool) {
	e := s.Edge(edgeIndex)
	switch field {
	case edgeNameField:
		return 0, e.Name(), true
	case "!edgeDistance":
		return float64(s.nodeDistances[e.ToOrdinal()]), "", false
	case "!edgeType":
		return 0, typeDisplayName(e.To().Type()), true
	default:
		return 0, "", false
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareEdgeNames implements the !edgeName tie-break rules: "__proto__"
// sorts last (largest), string-named edges sort before index-named edges,
// otherwise lexicographic.
func compareEdgeNames(a, b string) int {
	if a == "__proto__" && b != "__proto__" {
		return 1
	}
	if b == "__proto__" && a != "__proto__" {
		return -1
	}
	aNum, aIsNum := isAllDigits(a)
	bNum, bIsNum := isAllDigits(b)
	if aIsNum != bIsNum {
		if aIsNum {
			return 1 // numeric index-named edges sort after string-named
		}
		return -1
	}
	if aIsNum && bIsNum {
		switch {
		case aNum < bNum:
			return -1
		case aNum > bNum:
			return 1
		default:
			return 0
		}
	}
	return compareStrings(a, b)
}

func isAllDigits(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	var v float64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + float64(c-'0')
	}
	return v, true
}
