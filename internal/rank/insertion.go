package rank

// Placement is the outcome of planning where a new listing belongs in a
// user's order: either an insertion index that needs no user input, or the
// listing to compare against because the relation is genuinely unknown.
type Placement struct {
	NeedsComparison bool
	CompareWith     string
	InsertIndex     int
}

// PlanInsertion binary-searches orderedIDs for where targetID belongs,
// consulting the win graph at each midpoint so comparisons whose outcome is
// already inferable are skipped. Each resolved pairwise fact can eliminate up
// to O(log n) future comparisons for listings related to it transitively.
//
// The result is a pure function of the graph and the order: no randomness.
func PlanInsertion(g WinGraph, targetID string, orderedIDs []string) Placement {
	if len(orderedIDs) == 0 {
		return Placement{InsertIndex: 0}
	}

	left, right := 0, len(orderedIDs)
	for left < right {
		mid := (left + right) / 2
		midID := orderedIDs[mid]

		switch {
		case g.CanReach(targetID, midID):
			// Target is preferred over the midpoint listing.
			right = mid
		case g.CanReach(midID, targetID):
			left = mid + 1
		default:
			// Genuinely unknown: a real user decision is required.
			return Placement{NeedsComparison: true, CompareWith: midID}
		}
	}

	// Every relation needed to place the target was inferable.
	return Placement{InsertIndex: left}
}
