// Package rank implements the adaptive pairwise ranking engine: each group
// member ranks the group's rental listings through pairwise comparisons, and
// the engine uses transitive inference over past comparisons to minimize how
// many pairs a user actually has to judge.
package rank

import (
	"errors"
	"time"
)

// Common errors for ranking operations.
var (
	// ErrInvalidUserID is returned when a user ID fails validation before any storage access.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidListingID is returned when a listing ID is empty or malformed.
	ErrInvalidListingID = errors.New("invalid listing id")

	// ErrSelfComparison is returned when winner and loser are the same listing.
	ErrSelfComparison = errors.New("cannot compare a listing with itself")

	// ErrOrderNotFound is returned by stores when a user has no saved order.
	ErrOrderNotFound = errors.New("user order not found")
)

// Comparison is one recorded pairwise preference: WinnerID was preferred over
// LoserID. Comparisons are append-only; they are the source of truth for all
// inferred order.
type Comparison struct {
	ID         string    `json:"id"`
	WinnerID   string    `json:"winner_id"`
	LoserID    string    `json:"loser_id"`
	ComparedAt time.Time `json:"compared_at"`
}

// UserOrder is a user's current best-to-worst order over one group's
// listings. A user in several groups has one independent order per group.
// It is derived state: always re-derivable from the comparison log plus the
// group's listing set, but persisted for O(1) reads.
type UserOrder struct {
	UserID            string    `json:"user_id"`
	GroupID           string    `json:"group_id"`
	OrderedListingIDs []string  `json:"ordered_listing_ids"`
	LastUpdated       time.Time `json:"last_updated"`
	IsComplete        bool      `json:"is_complete"`
	TotalListings     int       `json:"total_listings"`
}

// Pair is the next comparison to present to a user.
type Pair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// AggregateEntry is one row of a group-wide ranking produced by sum-of-ranks
// aggregation over the complete orders of the group's members.
type AggregateEntry struct {
	ListingID         string `json:"listing_id"`
	Rank              int    `json:"rank"`
	TotalScore        int    `json:"total_score"`
	ContributingUsers int    `json:"contributing_users"`
	TotalUsers        int    `json:"total_users"`
	Unranked          bool   `json:"unranked"`
}
