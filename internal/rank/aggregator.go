package rank

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// Aggregator combines the complete orders of a group's members into one
// group-wide ranking using sum of ranks. Bounded in practice to a few hundred
// members by a few hundred listings; beyond that an incremental aggregation
// would be needed.
type Aggregator struct {
	store    Store
	listings ListingSource
	members  MemberSource
	cache    *RankingsCache
	logger   *slog.Logger
}

// NewAggregator creates an Aggregator. cache may be nil.
func NewAggregator(store Store, listings ListingSource, members MemberSource, cache *RankingsCache, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		store:    store,
		listings: listings,
		members:  members,
		cache:    cache,
		logger:   logger,
	}
}

// Aggregate computes the group ranking: each member with a complete order
// contributes position+1 per listing to that listing's score, and listings
// sort ascending by total score (lower is more preferred). Listings nobody
// has ranked sort last with Unranked set, stable by listing ID. Only members
// with IsComplete orders contribute, so partial orders never skew the sums.
func (a *Aggregator) Aggregate(ctx context.Context, groupID string) ([]AggregateEntry, error) {
	if entries, ok := a.cache.Get(ctx, groupID); ok {
		return entries, nil
	}

	listingIDs, err := a.listings.ListingIDs(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("load group listings: %w", err)
	}
	memberIDs, err := a.members.MemberIDs(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("load group members: %w", err)
	}

	current := make(map[string]struct{}, len(listingIDs))
	for _, id := range listingIDs {
		current[id] = struct{}{}
	}

	scores := make(map[string]int, len(listingIDs))
	contributors := make(map[string]int, len(listingIDs))

	for _, userID := range memberIDs {
		order, err := a.store.LoadUserOrder(ctx, userID, groupID)
		if err == ErrOrderNotFound {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load order for member %s: %w", userID, err)
		}
		if !order.IsComplete {
			continue
		}

		position := 0
		for _, listingID := range order.OrderedListingIDs {
			if _, ok := current[listingID]; !ok {
				// Stale entry; does not advance the position.
				continue
			}
			position++
			scores[listingID] += position
			contributors[listingID]++
		}
	}

	entries := make([]AggregateEntry, 0, len(listingIDs))
	for _, id := range listingIDs {
		entries = append(entries, AggregateEntry{
			ListingID:         id,
			TotalScore:        scores[id],
			ContributingUsers: contributors[id],
			TotalUsers:        len(memberIDs),
			Unranked:          contributors[id] == 0,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Unranked != b.Unranked {
			return !a.Unranked
		}
		if a.Unranked {
			return a.ListingID < b.ListingID
		}
		if a.TotalScore != b.TotalScore {
			return a.TotalScore < b.TotalScore
		}
		return a.ListingID < b.ListingID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	a.cache.Set(ctx, groupID, entries)
	a.logger.DebugContext(ctx, "group ranking aggregated",
		"group_id", groupID, "listings", len(listingIDs), "members", len(memberIDs))
	return entries, nil
}
