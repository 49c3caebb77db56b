package listing

import (
	"context"
	"sort"
	"sync"
)

// Repository defines the interface for listing data operations. ListInGroup
// and ListingIDs return listings in canonical order: (added_at, id)
// ascending. The whole engine depends on that order being stable.
type Repository interface {
	// Insert stores a new listing. Returns ErrDuplicateURL if the group
	// already tracks this URL.
	Insert(ctx context.Context, l *Listing) error

	// GetByID retrieves a listing, or ErrListingNotFound.
	GetByID(ctx context.Context, id string) (*Listing, error)

	// ListInGroup returns all listings in a group, canonical order.
	ListInGroup(ctx context.Context, groupID string) ([]*Listing, error)

	// ListingIDs returns the IDs of all listings in a group, canonical
	// order. Satisfies the ranking engine's listing source.
	ListingIDs(ctx context.Context, groupID string) ([]string, error)

	// Delete removes a listing, or ErrListingNotFound.
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu       sync.RWMutex
	listings map[string]*Listing
}

// NewInMemoryRepository creates a new in-memory listing repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		listings: make(map[string]*Listing),
	}
}

// Insert stores a new listing.
func (r *InMemoryRepository) Insert(_ context.Context, l *Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.listings {
		if existing.GroupID == l.GroupID && existing.URL == l.URL {
			return ErrDuplicateURL
		}
	}
	r.listings[l.ID] = l.clone()
	return nil
}

// GetByID retrieves a listing by its ID.
func (r *InMemoryRepository) GetByID(_ context.Context, id string) (*Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.listings[id]
	if !ok {
		return nil, ErrListingNotFound
	}
	return l.clone(), nil
}

// ListInGroup returns all listings in a group in canonical order.
func (r *InMemoryRepository) ListInGroup(_ context.Context, groupID string) ([]*Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Listing
	for _, l := range r.listings {
		if l.GroupID == groupID {
			out = append(out, l.clone())
		}
	}
	sortCanonical(out)
	return out, nil
}

// ListingIDs returns the IDs of all listings in a group in canonical order.
func (r *InMemoryRepository) ListingIDs(ctx context.Context, groupID string) ([]string, error) {
	listings, err := r.ListInGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(listings))
	for i, l := range listings {
		ids[i] = l.ID
	}
	return ids, nil
}

// Delete removes a listing.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[id]; !ok {
		return ErrListingNotFound
	}
	delete(r.listings, id)
	return nil
}

func sortCanonical(ls []*Listing) {
	sort.Slice(ls, func(i, j int) bool {
		if !ls[i].AddedAt.Equal(ls[j].AddedAt) {
			return ls[i].AddedAt.Before(ls[j].AddedAt)
		}
		return ls[i].ID < ls[j].ID
	})
}
