package listing

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testListing(id, groupID string, addedAt time.Time) *Listing {
	return &Listing{
		ID:      id,
		GroupID: groupID,
		URL:     "https://example.com/" + id,
		AddedBy: "user-1",
		AddedAt: addedAt,
	}
}

func TestInMemoryRepositoryInsertAndGet(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	price := 1200.0
	l := testListing("l1", "g1", time.Now())
	l.Price = &price
	l.Features = []string{"garden"}

	if err := repo.Insert(ctx, l); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "l1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.URL != l.URL || *got.Price != 1200.0 {
		t.Errorf("got %+v, want URL and price preserved", got)
	}

	// Stored state must be isolated from caller mutation.
	*l.Price = 9999
	l.Features[0] = "mutated"
	got2, _ := repo.GetByID(ctx, "l1")
	if *got2.Price != 1200.0 || got2.Features[0] != "garden" {
		t.Error("repository state was mutated through caller's pointer")
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrListingNotFound) {
		t.Errorf("expected ErrListingNotFound, got %v", err)
	}
}

func TestInMemoryRepositoryDuplicateURL(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	a := testListing("l1", "g1", time.Now())
	b := testListing("l2", "g1", time.Now())
	b.URL = a.URL
	c := testListing("l3", "g2", time.Now())
	c.URL = a.URL

	if err := repo.Insert(ctx, a); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := repo.Insert(ctx, b); !errors.Is(err, ErrDuplicateURL) {
		t.Errorf("same URL in same group: got %v, want ErrDuplicateURL", err)
	}
	// Same URL in a different group is fine.
	if err := repo.Insert(ctx, c); err != nil {
		t.Errorf("same URL in other group: got %v, want nil", err)
	}
}

func TestInMemoryRepositoryCanonicalOrder(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Inserted out of order; one AddedAt tie broken by ID.
	for _, l := range []*Listing{
		testListing("z", "g1", base.Add(2*time.Hour)),
		testListing("b", "g1", base),
		testListing("a", "g1", base),
		testListing("other", "g2", base),
	} {
		if err := repo.Insert(ctx, l); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	ids, err := repo.ListingIDs(ctx, "g1")
	if err != nil {
		t.Fatalf("ListingIDs failed: %v", err)
	}
	want := []string{"a", "b", "z"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}

func TestInMemoryRepositoryDelete(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	if err := repo.Insert(ctx, testListing("l1", "g1", time.Now())); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := repo.Delete(ctx, "l1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := repo.Delete(ctx, "l1"); !errors.Is(err, ErrListingNotFound) {
		t.Errorf("second delete: got %v, want ErrListingNotFound", err)
	}
}
