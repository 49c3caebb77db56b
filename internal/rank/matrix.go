package rank

// Relation classifies how a user's preference between two listings is known.
type Relation uint8

const (
	// RelationUnknown means neither a direct comparison nor a transitive
	// chain connects the two listings.
	RelationUnknown Relation = iota

	// RelationInferred means the order is derivable through the win graph
	// without a direct comparison.
	RelationInferred

	// RelationDirect means the user explicitly compared the two listings.
	RelationDirect
)

// String returns the wire representation of a relation.
func (r Relation) String() string {
	switch r {
	case RelationDirect:
		return "direct"
	case RelationInferred:
		return "inferred"
	default:
		return "unknown"
	}
}

// Matrix holds the pairwise relation of every ordered listing pair for one
// user. Listings are mapped to dense integer indices so the relation table is
// a flat array; every pair is classified, never implicitly sparse.
type Matrix struct {
	ids   []string
	index map[string]int
	rels  []Relation
	graph WinGraph
}

// ComputeMatrix classifies every ordered pair over listingIDs from the user's
// comparison log. Classification priority: direct, then inferred via the win
// graph in either direction, then unknown. The diagonal is direct by
// convention. Comparisons that reference listings outside listingIDs still
// contribute edges to the win graph (they can carry transitive chains), but
// only pairs within listingIDs are classified.
func ComputeMatrix(comparisons []Comparison, listingIDs []string) *Matrix {
	m := newMatrix(listingIDs, BuildWinGraph(comparisons))

	for _, c := range comparisons {
		wi, wok := m.index[c.WinnerID]
		li, lok := m.index[c.LoserID]
		if !wok || !lok {
			// Stale reference: tolerated, just not part of the matrix.
			continue
		}
		m.set(wi, li, RelationDirect)
		m.set(li, wi, RelationDirect)
	}

	m.classify()
	return m
}

func newMatrix(listingIDs []string, g WinGraph) *Matrix {
	n := len(listingIDs)
	m := &Matrix{
		ids:   make([]string, n),
		index: make(map[string]int, n),
		rels:  make([]Relation, n*n),
		graph: g,
	}
	copy(m.ids, listingIDs)
	for i, id := range m.ids {
		m.index[id] = i
	}
	return m
}

// classify fills inferred relations and the diagonal, leaving existing direct
// entries untouched.
func (m *Matrix) classify() {
	n := len(m.ids)
	for i := 0; i < n; i++ {
		m.set(i, i, RelationDirect)
		for j := i + 1; j < n; j++ {
			if m.at(i, j) == RelationDirect {
				continue
			}
			if m.graph.CanReach(m.ids[i], m.ids[j]) || m.graph.CanReach(m.ids[j], m.ids[i]) {
				m.set(i, j, RelationInferred)
				m.set(j, i, RelationInferred)
			}
		}
	}
}

func (m *Matrix) at(i, j int) Relation { return m.rels[i*len(m.ids)+j] }

func (m *Matrix) set(i, j int, r Relation) { m.rels[i*len(m.ids)+j] = r }

// IDs returns the listing IDs backing the matrix, in index order.
func (m *Matrix) IDs() []string {
	return m.ids
}

// Index returns the dense index for a listing ID.
func (m *Matrix) Index(id string) (int, bool) {
	i, ok := m.index[id]
	return i, ok
}

// Relation returns the classification of the ordered pair (a, b). Unknown IDs
// report RelationUnknown.
func (m *Matrix) Relation(a, b string) Relation {
	i, iok := m.index[a]
	j, jok := m.index[b]
	if !iok || !jok {
		return RelationUnknown
	}
	return m.at(i, j)
}

// UnknownPairs returns every unordered pair currently classified unknown, in
// deterministic index-enumeration order.
func (m *Matrix) UnknownPairs() [][2]string {
	var pairs [][2]string
	n := len(m.ids)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if m.at(i, j) == RelationUnknown {
				pairs = append(pairs, [2]string{m.ids[i], m.ids[j]})
			}
		}
	}
	return pairs
}

// CountUnknown returns the number of ordered pairs classified unknown.
func (m *Matrix) CountUnknown() int {
	count := 0
	for _, r := range m.rels {
		if r == RelationUnknown {
			count++
		}
	}
	return count
}

// Simulate returns the matrix that would result from one additional direct
// comparison "winner beats loser", reclassified against the augmented win
// graph. The receiver is not mutated. Used only for planning the next
// comparison; never persisted.
func (m *Matrix) Simulate(winner, loser string) *Matrix {
	g := m.graph.Clone()
	g.Add(winner, loser)

	sim := newMatrix(m.ids, g)

	// Carry existing direct relations; a direct comparison never degrades.
	n := len(m.ids)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if m.at(i, j) == RelationDirect {
				sim.set(i, j, RelationDirect)
			}
		}
	}
	if wi, ok := sim.index[winner]; ok {
		if li, ok := sim.index[loser]; ok {
			sim.set(wi, li, RelationDirect)
			sim.set(li, wi, RelationDirect)
		}
	}

	sim.classify()
	return sim
}
