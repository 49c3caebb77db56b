package rank

// WinGraph is a directed graph of direct preference edges for one user:
// winner listing ID -> set of listing IDs it has been recorded as beating.
type WinGraph map[string]map[string]struct{}

// BuildWinGraph builds a WinGraph from a user's comparison log.
func BuildWinGraph(comparisons []Comparison) WinGraph {
	g := make(WinGraph)
	for _, c := range comparisons {
		g.Add(c.WinnerID, c.LoserID)
	}
	return g
}

// Add records a direct "winner beats loser" edge.
func (g WinGraph) Add(winner, loser string) {
	losers, ok := g[winner]
	if !ok {
		losers = make(map[string]struct{})
		g[winner] = losers
	}
	losers[loser] = struct{}{}
}

// Clone returns a deep copy of the graph.
func (g WinGraph) Clone() WinGraph {
	clone := make(WinGraph, len(g))
	for winner, losers := range g {
		set := make(map[string]struct{}, len(losers))
		for loser := range losers {
			set[loser] = struct{}{}
		}
		clone[winner] = set
	}
	return clone
}

// CanReach reports whether start transitively beats target by following
// "beats" edges. start == target is trivially true; callers must special-case
// identity where "beats itself" is meaningless.
//
// The search is an explicit-stack DFS with a visited set, so it terminates
// even when contradictory comparisons have created a cycle, and deep
// preference chains cannot exhaust the call stack.
func (g WinGraph) CanReach(start, target string) bool {
	if start == target {
		return true
	}

	visited := map[string]struct{}{start: {}}
	stack := []string{start}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for loser := range g[current] {
			if loser == target {
				return true
			}
			if _, seen := visited[loser]; seen {
				continue
			}
			visited[loser] = struct{}{}
			stack = append(stack, loser)
		}
	}
	return false
}
