package rank

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/onnwee/flatrank/internal/validate"
)

// Selector picks the next pair of listings a user should compare. Unranked
// listings are placed first via adaptive binary insertion; once every listing
// is ranked it falls back to the unknown pair whose comparison is estimated
// to resolve the most remaining unknown relations.
type Selector struct {
	store    Store
	listings ListingSource
	locks    *UserLocks
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewSelector creates a Selector. metrics may be nil.
func NewSelector(store Store, listings ListingSource, locks *UserLocks, metrics *Metrics, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{
		store:    store,
		listings: listings,
		locks:    locks,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// NextPair returns the next pair of listings the user should compare, or nil
// when the user's preferences are fully determined for every pair (or the
// group has fewer than two listings). Listings whose placement is already
// inferable are committed to the order as a side effect, without consuming a
// user comparison.
func (s *Selector) NextPair(ctx context.Context, userID, groupID string) (*Pair, error) {
	if err := validate.UserID(userID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUserID, err)
	}

	start := s.now()
	defer func() { s.metrics.ObserveNextPair(time.Since(start)) }()

	listingIDs, err := s.listings.ListingIDs(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("load group listings: %w", err)
	}
	if len(listingIDs) < 2 {
		return nil, nil
	}

	// Inference-only insertions below are read-modify-writes of the order.
	unlock := s.locks.Lock(userID)
	defer unlock()

	order, err := s.store.LoadUserOrder(ctx, userID, groupID)
	if err == ErrOrderNotFound {
		order = &UserOrder{UserID: userID, GroupID: groupID}
	} else if err != nil {
		return nil, fmt.Errorf("load user order: %w", err)
	}

	if len(order.OrderedListingIDs) == 0 {
		// Seed pair: the first two listings in canonical group order.
		return &Pair{A: listingIDs[0], B: listingIDs[1]}, nil
	}

	comparisons, err := s.store.LoadComparisons(ctx, userID, groupID)
	if err != nil {
		return nil, fmt.Errorf("load comparisons: %w", err)
	}
	graph := BuildWinGraph(comparisons)

	pair, err := s.placeUnranked(ctx, graph, listingIDs, order)
	if pair != nil || err != nil {
		return pair, err
	}

	return s.mostInformativePair(ctx, comparisons, listingIDs, groupID)
}

// placeUnranked runs adaptive binary insertion for each listing not yet in
// the order, in canonical group order. Placements that need a user decision
// are returned as the next pair; inferable placements are committed directly
// with no new log entry.
func (s *Selector) placeUnranked(ctx context.Context, graph WinGraph, listingIDs []string, order *UserOrder) (*Pair, error) {
	current := make(map[string]struct{}, len(listingIDs))
	for _, id := range listingIDs {
		current[id] = struct{}{}
	}

	for _, target := range listingIDs {
		if indexOf(order.OrderedListingIDs, target) >= 0 {
			continue
		}

		// Stale order entries (listings removed from the group) are ignored
		// for planning but left in place for the caller-triggered prune.
		view, viewPos := filterOrder(order.OrderedListingIDs, current)

		p := PlanInsertion(graph, target, view)
		if p.NeedsComparison {
			return &Pair{A: target, B: p.CompareWith}, nil
		}

		at := len(order.OrderedListingIDs)
		if p.InsertIndex < len(view) {
			at = viewPos[p.InsertIndex]
		}
		order.OrderedListingIDs = insertAt(order.OrderedListingIDs, at, target)
		order.TotalListings = len(listingIDs)
		order.IsComplete = len(order.OrderedListingIDs) == order.TotalListings
		order.LastUpdated = s.now()

		if err := s.store.SaveUserOrder(ctx, order.UserID, order.GroupID, *order); err != nil {
			return nil, fmt.Errorf("save order after inferred insertion: %w", err)
		}
		s.metrics.InferredInsertion()
		s.logger.DebugContext(ctx, "listing placed by inference",
			"user_id", order.UserID, "listing_id", target, "index", at)
	}
	return nil, nil
}

// mostInformativePair enumerates every unknown pair and simulates both
// outcomes of comparing it, scoring each pair by the larger number of
// currently-unknown pairs the comparison would resolve. Ties keep the pair
// first encountered in listing-set iteration order.
func (s *Selector) mostInformativePair(ctx context.Context, comparisons []Comparison, listingIDs []string, groupID string) (*Pair, error) {
	matrix := ComputeMatrix(comparisons, listingIDs)
	unknown := matrix.UnknownPairs()
	s.metrics.SetUnknownPairs(groupID, matrix.CountUnknown())

	if len(unknown) == 0 {
		return nil, nil
	}

	baseline := matrix.CountUnknown()
	var best *Pair
	bestGain := -1

	for _, pair := range unknown {
		a, b := pair[0], pair[1]
		gainA := baseline - matrix.Simulate(a, b).CountUnknown()
		gainB := baseline - matrix.Simulate(b, a).CountUnknown()

		gain := gainA
		if gainB > gain {
			gain = gainB
		}
		if gain > bestGain {
			bestGain = gain
			best = &Pair{A: a, B: b}
		}
	}

	s.logger.DebugContext(ctx, "selected most informative pair",
		"group_id", groupID, "a", best.A, "b", best.B, "gain", bestGain, "unknown_pairs", len(unknown))
	return best, nil
}

// filterOrder returns the order restricted to the current listing set, plus
// each kept entry's position in the full order.
func filterOrder(ids []string, current map[string]struct{}) ([]string, []int) {
	view := make([]string, 0, len(ids))
	pos := make([]int, 0, len(ids))
	for i, id := range ids {
		if _, ok := current[id]; ok {
			view = append(view, id)
			pos = append(pos, i)
		}
	}
	return view, pos
}
