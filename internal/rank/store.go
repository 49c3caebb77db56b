package rank

import "context"

// Store is the persistence contract the engine consumes. The storage
// technology is an external collaborator; the engine only depends on these
// shapes and their atomicity guarantees. All state is scoped per user per
// group: a user who belongs to several groups keeps an independent
// comparison log and order in each.
type Store interface {
	// LoadComparisons returns the user's comparison log for the group,
	// oldest first.
	LoadComparisons(ctx context.Context, userID, groupID string) ([]Comparison, error)

	// AppendComparisonAndSaveOrder appends one comparison and saves the
	// repaired order as a single atomic operation. A partially written log
	// entry with no corresponding order update (or vice versa) corrupts
	// future inference, so both must commit together or not at all.
	AppendComparisonAndSaveOrder(ctx context.Context, userID, groupID string, c Comparison, order UserOrder) error

	// LoadUserOrder returns the user's saved order for the group, or
	// ErrOrderNotFound.
	LoadUserOrder(ctx context.Context, userID, groupID string) (*UserOrder, error)

	// SaveUserOrder persists the order alone. Used for inference-only
	// insertions where no comparison occurred.
	SaveUserOrder(ctx context.Context, userID, groupID string, order UserOrder) error

	// PruneListing removes a deleted listing from the user's comparison log
	// and order atomically. Triggered by listing deletion, not by the engine.
	PruneListing(ctx context.Context, userID, groupID, listingID string) error

	// DeleteUserData clears the user's comparisons and order for the group
	// together. Other groups' state is untouched.
	DeleteUserData(ctx context.Context, userID, groupID string) error
}

// ListingSource supplies the group's current listing IDs in canonical,
// deterministic order.
type ListingSource interface {
	ListingIDs(ctx context.Context, groupID string) ([]string, error)
}

// MemberSource supplies the group's member user IDs.
type MemberSource interface {
	MemberIDs(ctx context.Context, groupID string) ([]string, error)
}
