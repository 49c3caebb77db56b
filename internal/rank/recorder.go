package rank

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/onnwee/flatrank/internal/validate"
)

// Recorder records pairwise comparisons and incrementally repairs the user's
// stored order so it stays consistent with every recorded fact.
type Recorder struct {
	store    Store
	listings ListingSource
	locks    *UserLocks
	cache    *RankingsCache
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewRecorder creates a Recorder. cache and metrics may be nil.
func NewRecorder(store Store, listings ListingSource, locks *UserLocks, cache *RankingsCache, metrics *Metrics, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:    store,
		listings: listings,
		locks:    locks,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Record appends a "winner beats loser" comparison to the user's log and
// repairs the stored order, atomically via the store. Contradictory
// comparisons are not rejected: the log accepts both directions and the order
// follows the most recent fact.
func (r *Recorder) Record(ctx context.Context, userID, groupID, winnerID, loserID string) error {
	if err := validate.UserID(userID); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUserID, err)
	}
	if winnerID == "" || loserID == "" {
		return ErrInvalidListingID
	}
	if winnerID == loserID {
		return ErrSelfComparison
	}

	unlock := r.locks.Lock(userID)
	defer unlock()

	order, err := r.loadOrder(ctx, userID, groupID)
	if err != nil {
		return err
	}

	order.OrderedListingIDs = repairOrder(order.OrderedListingIDs, winnerID, loserID)

	listingIDs, err := r.listings.ListingIDs(ctx, groupID)
	if err != nil {
		return fmt.Errorf("load group listings: %w", err)
	}
	order.TotalListings = len(listingIDs)
	order.IsComplete = len(order.OrderedListingIDs) == order.TotalListings
	order.LastUpdated = r.now()

	c := Comparison{
		ID:         uuid.New().String(),
		WinnerID:   winnerID,
		LoserID:    loserID,
		ComparedAt: order.LastUpdated,
	}
	if err := r.store.AppendComparisonAndSaveOrder(ctx, userID, groupID, c, *order); err != nil {
		return fmt.Errorf("persist comparison: %w", err)
	}

	r.metrics.ComparisonRecorded()
	r.cache.Invalidate(ctx, groupID)
	r.logger.DebugContext(ctx, "comparison recorded",
		"user_id", userID, "group_id", groupID, "winner_id", winnerID, "loser_id", loserID,
		"order_len", len(order.OrderedListingIDs), "is_complete", order.IsComplete)
	return nil
}

// Reset clears the user's comparisons and order together, then invalidates
// the group's cached rankings.
func (r *Recorder) Reset(ctx context.Context, userID, groupID string) error {
	if err := validate.UserID(userID); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUserID, err)
	}

	unlock := r.locks.Lock(userID)
	defer unlock()

	if err := r.store.DeleteUserData(ctx, userID, groupID); err != nil {
		return fmt.Errorf("delete user data: %w", err)
	}

	r.metrics.Reset()
	r.cache.Invalidate(ctx, groupID)
	r.logger.InfoContext(ctx, "user ranking reset", "user_id", userID, "group_id", groupID)
	return nil
}

func (r *Recorder) loadOrder(ctx context.Context, userID, groupID string) (*UserOrder, error) {
	order, err := r.store.LoadUserOrder(ctx, userID, groupID)
	if err == ErrOrderNotFound {
		return &UserOrder{UserID: userID, GroupID: groupID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user order: %w", err)
	}
	return order, nil
}

// repairOrder applies one new "winner beats loser" fact to an ordered list.
// "New" is evaluated independently per listing: a listing is new iff it is
// not yet present in the list.
//
//   - both new, list empty: the order becomes [winner, loser].
//   - both new, list non-empty: both are appended, winner first. The prior
//     order is unrelated to either listing and must not be discarded.
//   - winner new: inserted immediately before the loser.
//   - loser new: inserted immediately after the winner.
//   - both present with winner after loser: the winner is removed and
//     reinserted immediately before the loser. A local repair that trusts the
//     new comparison over the previously inferred placement.
func repairOrder(ids []string, winnerID, loserID string) []string {
	winnerIdx := indexOf(ids, winnerID)
	loserIdx := indexOf(ids, loserID)

	switch {
	case winnerIdx < 0 && loserIdx < 0:
		return append(ids, winnerID, loserID)
	case winnerIdx < 0:
		return insertAt(ids, loserIdx, winnerID)
	case loserIdx < 0:
		return insertAt(ids, winnerIdx+1, loserID)
	case winnerIdx > loserIdx:
		ids = append(ids[:winnerIdx], ids[winnerIdx+1:]...)
		return insertAt(ids, indexOf(ids, loserID), winnerID)
	default:
		return ids
	}
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func insertAt(ids []string, i int, id string) []string {
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}
