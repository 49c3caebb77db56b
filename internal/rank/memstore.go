package rank

import (
	"context"
	"sync"
)

// userGroup keys per-user per-group state. A user's log and order in one
// group never touch those in another.
type userGroup struct {
	userID  string
	groupID string
}

// MemoryStore is an in-memory implementation of Store. Thread-safe via
// RWMutex; every method copies on the way in and out so callers never share
// slices with the store. All mutations are applied under one lock, which
// makes the append-plus-save pair atomic by construction.
type MemoryStore struct {
	mu          sync.RWMutex
	comparisons map[userGroup][]Comparison // log, oldest first
	orders      map[userGroup]*UserOrder
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		comparisons: make(map[userGroup][]Comparison),
		orders:      make(map[userGroup]*UserOrder),
	}
}

// LoadComparisons returns a copy of the user's comparison log for the group,
// oldest first.
func (s *MemoryStore) LoadComparisons(_ context.Context, userID, groupID string) ([]Comparison, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.comparisons[userGroup{userID, groupID}]
	out := make([]Comparison, len(log))
	copy(out, log)
	return out, nil
}

// AppendComparisonAndSaveOrder appends one comparison and saves the order
// under a single lock acquisition.
func (s *MemoryStore) AppendComparisonAndSaveOrder(_ context.Context, userID, groupID string, c Comparison, order UserOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := userGroup{userID, groupID}
	s.comparisons[key] = append(s.comparisons[key], c)
	s.saveOrderLocked(key, order)
	return nil
}

// LoadUserOrder returns a copy of the user's saved order for the group.
func (s *MemoryStore) LoadUserOrder(_ context.Context, userID, groupID string) (*UserOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[userGroup{userID, groupID}]
	if !ok {
		return nil, ErrOrderNotFound
	}
	out := *order
	out.OrderedListingIDs = make([]string, len(order.OrderedListingIDs))
	copy(out.OrderedListingIDs, order.OrderedListingIDs)
	return &out, nil
}

// SaveUserOrder persists the order alone.
func (s *MemoryStore) SaveUserOrder(_ context.Context, userID, groupID string, order UserOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saveOrderLocked(userGroup{userID, groupID}, order)
	return nil
}

// PruneListing drops every comparison referencing the listing and removes it
// from the saved order, in one lock acquisition.
func (s *MemoryStore) PruneListing(_ context.Context, userID, groupID, listingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := userGroup{userID, groupID}
	log := s.comparisons[key]
	kept := log[:0]
	for _, c := range log {
		if c.WinnerID == listingID || c.LoserID == listingID {
			continue
		}
		kept = append(kept, c)
	}
	s.comparisons[key] = kept

	if order, ok := s.orders[key]; ok {
		ids := order.OrderedListingIDs[:0]
		for _, id := range order.OrderedListingIDs {
			if id != listingID {
				ids = append(ids, id)
			}
		}
		order.OrderedListingIDs = ids
	}
	return nil
}

// DeleteUserData clears the user's comparisons and order for the group
// together.
func (s *MemoryStore) DeleteUserData(_ context.Context, userID, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := userGroup{userID, groupID}
	delete(s.comparisons, key)
	delete(s.orders, key)
	return nil
}

func (s *MemoryStore) saveOrderLocked(key userGroup, order UserOrder) {
	stored := order
	stored.UserID = key.userID
	stored.GroupID = key.groupID
	stored.OrderedListingIDs = make([]string, len(order.OrderedListingIDs))
	copy(stored.OrderedListingIDs, order.OrderedListingIDs)
	s.orders[key] = &stored
}
