package rank

import (
	"context"
	"log/slog"
	"reflect"
	"testing"
	"time"
)

func seedOrder(t *testing.T, store *MemoryStore, userID, groupID string, complete bool, ids ...string) {
	t.Helper()
	err := store.SaveUserOrder(context.Background(), userID, groupID, UserOrder{
		UserID:            userID,
		GroupID:           groupID,
		OrderedListingIDs: ids,
		LastUpdated:       time.Now(),
		IsComplete:        complete,
		TotalListings:     len(ids),
	})
	if err != nil {
		t.Fatalf("SaveUserOrder(%s) failed: %v", userID, err)
	}
}

func TestAggregateSumOfRanks(t *testing.T) {
	// Two members: [a, b, c] and [b, a, c]. Scores a=3, b=3, c=6; the a/b
	// tie breaks stable by listing ID.
	store := NewMemoryStore()
	agg := NewAggregator(store,
		staticListings{"g1": {"a", "b", "c"}},
		staticMembers{"g1": {"u1", "u2"}},
		nil, slog.Default())

	seedOrder(t, store, "u1", "g1", true, "a", "b", "c")
	seedOrder(t, store, "u2", "g1", true, "b", "a", "c")

	entries, err := agg.Aggregate(context.Background(), "g1")
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	want := []AggregateEntry{
		{ListingID: "a", Rank: 1, TotalScore: 3, ContributingUsers: 2, TotalUsers: 2},
		{ListingID: "b", Rank: 2, TotalScore: 3, ContributingUsers: 2, TotalUsers: 2},
		{ListingID: "c", Rank: 3, TotalScore: 6, ContributingUsers: 2, TotalUsers: 2},
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestAggregateSkipsIncompleteOrders(t *testing.T) {
	store := NewMemoryStore()
	agg := NewAggregator(store,
		staticListings{"g1": {"a", "b"}},
		staticMembers{"g1": {"u1", "u2"}},
		nil, slog.Default())

	seedOrder(t, store, "u1", "g1", true, "a", "b")
	seedOrder(t, store, "u2", "g1", false, "b") // partial: must not contribute

	entries, err := agg.Aggregate(context.Background(), "g1")
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	for _, e := range entries {
		if e.ContributingUsers > 1 {
			t.Errorf("%s: ContributingUsers = %d, want at most 1", e.ListingID, e.ContributingUsers)
		}
	}
	if entries[0].ListingID != "a" || entries[0].TotalScore != 1 {
		t.Errorf("top entry = %+v, want a with score 1", entries[0])
	}
}

func TestAggregateUnrankedSortLast(t *testing.T) {
	// Listings nobody ranked sort after ranked ones, stable by ID.
	store := NewMemoryStore()
	agg := NewAggregator(store,
		staticListings{"g1": {"z", "m", "a", "q"}},
		staticMembers{"g1": {"u1"}},
		nil, slog.Default())

	// u1 ranked only m and a out of date with the group; mark complete with
	// just those two so it contributes.
	seedOrder(t, store, "u1", "g1", true, "m", "a")

	entries, err := agg.Aggregate(context.Background(), "g1")
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	gotIDs := make([]string, len(entries))
	for i, e := range entries {
		gotIDs[i] = e.ListingID
	}
	if !reflect.DeepEqual(gotIDs, []string{"m", "a", "q", "z"}) {
		t.Errorf("order = %v, want [m a q z]", gotIDs)
	}
	if !entries[2].Unranked || !entries[3].Unranked {
		t.Error("q and z must be flagged unranked")
	}
	if entries[0].Unranked || entries[1].Unranked {
		t.Error("m and a must not be flagged unranked")
	}
}

func TestAggregateIdempotent(t *testing.T) {
	// P5: unchanged data yields identical results.
	store := NewMemoryStore()
	agg := NewAggregator(store,
		staticListings{"g1": {"a", "b", "c"}},
		staticMembers{"g1": {"u1", "u2"}},
		nil, slog.Default())

	seedOrder(t, store, "u1", "g1", true, "c", "a", "b")
	seedOrder(t, store, "u2", "g1", true, "a", "c", "b")

	first, err := agg.Aggregate(context.Background(), "g1")
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	second, err := agg.Aggregate(context.Background(), "g1")
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("aggregation not idempotent:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestAggregateStaleOrderEntries(t *testing.T) {
	// Order entries outside the current group set are skipped and do not
	// advance the position counter.
	store := NewMemoryStore()
	agg := NewAggregator(store,
		staticListings{"g1": {"a", "b"}},
		staticMembers{"g1": {"u1"}},
		nil, slog.Default())

	seedOrder(t, store, "u1", "g1", true, "gone", "a", "b")

	entries, err := agg.Aggregate(context.Background(), "g1")
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if entries[0].ListingID != "a" || entries[0].TotalScore != 1 {
		t.Errorf("top entry = %+v, want a with score 1 (stale entry skipped)", entries[0])
	}
	if entries[1].ListingID != "b" || entries[1].TotalScore != 2 {
		t.Errorf("second entry = %+v, want b with score 2", entries[1])
	}
}

func TestAggregateUnaffectedByOtherGroupActivity(t *testing.T) {
	// A member who also ranks in a second group still contributes a
	// complete order to the first group's aggregate.
	store := NewMemoryStore()
	listings := staticListings{"g1": {"x", "y"}, "g2": {"p", "q"}}
	locks := NewUserLocks()
	rec := NewRecorder(store, listings, locks, nil, nil, slog.Default())
	agg := NewAggregator(store, listings, staticMembers{"g1": {"u1"}}, nil, slog.Default())
	ctx := context.Background()

	if err := rec.Record(ctx, "u1", "g1", "x", "y"); err != nil {
		t.Fatalf("Record(g1) failed: %v", err)
	}
	if err := rec.Record(ctx, "u1", "g2", "p", "q"); err != nil {
		t.Fatalf("Record(g2) failed: %v", err)
	}

	entries, err := agg.Aggregate(ctx, "g1")
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Unranked || e.ContributingUsers != 1 {
			t.Errorf("%s: unranked=%v contributors=%d, want ranked by u1", e.ListingID, e.Unranked, e.ContributingUsers)
		}
	}
	if entries[0].ListingID != "x" {
		t.Errorf("top entry = %+v, want x", entries[0])
	}
}

func TestAggregateEmptyGroup(t *testing.T) {
	store := NewMemoryStore()
	agg := NewAggregator(store, staticListings{}, staticMembers{}, nil, slog.Default())

	entries, err := agg.Aggregate(context.Background(), "empty")
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}
