package listing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/onnwee/flatrank/internal/validate"
)

// ComparisonPruner removes a listing from one user's comparison data within
// one group.
type ComparisonPruner interface {
	PruneListing(ctx context.Context, userID, groupID, listingID string) error
}

// MemberSource returns the user IDs belonging to a group.
type MemberSource interface {
	MemberIDs(ctx context.Context, groupID string) ([]string, error)
}

// RankingsInvalidator drops a group's cached rankings.
type RankingsInvalidator interface {
	Invalidate(ctx context.Context, groupID string)
}

// Service wraps a Repository with validation and with the cross-cutting
// cleanup a listing delete requires: every member's comparisons and order
// entries referencing the listing must go with it.
type Service struct {
	repo    Repository
	members MemberSource
	pruner  ComparisonPruner
	cache   RankingsInvalidator
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a listing service. cache may be nil.
func NewService(repo Repository, members MemberSource, pruner ComparisonPruner, cache RankingsInvalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		members: members,
		pruner:  pruner,
		cache:   cache,
		logger:  logger,
		now:     time.Now,
	}
}

// Create validates and stores a new listing, assigning ID and AddedAt.
func (s *Service) Create(ctx context.Context, l *Listing) (*Listing, error) {
	if err := validate.GroupID(l.GroupID); err != nil {
		return nil, fmt.Errorf("group id: %w", err)
	}
	if err := validate.UserID(l.AddedBy); err != nil {
		return nil, fmt.Errorf("added by: %w", err)
	}
	u, err := validate.ListingURL(l.URL)
	if err != nil {
		return nil, fmt.Errorf("url: %w", err)
	}
	l.URL = u
	if l.Title != "" {
		title, err := validate.ListingTitle(l.Title)
		if err != nil {
			return nil, fmt.Errorf("title: %w", err)
		}
		l.Title = title
	}

	l.ID = uuid.New().String()
	l.AddedAt = s.now().UTC()
	if err := s.repo.Insert(ctx, l); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, l.GroupID)
	}
	s.logger.InfoContext(ctx, "listing created",
		"listing_id", l.ID, "group_id", l.GroupID, "added_by", l.AddedBy)
	return l.clone(), nil
}

// Get retrieves a listing by ID.
func (s *Service) Get(ctx context.Context, id string) (*Listing, error) {
	if err := validate.ListingID(id); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// List returns a group's listings in canonical order.
func (s *Service) List(ctx context.Context, groupID string) ([]*Listing, error) {
	if err := validate.GroupID(groupID); err != nil {
		return nil, err
	}
	return s.repo.ListInGroup(ctx, groupID)
}

// Delete removes a listing and prunes it from every group member's
// comparison log and ranking order. Pruning is per-member; a failure for
// one member aborts with that member's data still consistent (prune is
// atomic per user) but later members untouched.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := validate.ListingID(id); err != nil {
		return err
	}
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	memberIDs, err := s.members.MemberIDs(ctx, l.GroupID)
	if err != nil {
		return fmt.Errorf("load group members: %w", err)
	}
	for _, userID := range memberIDs {
		if err := s.pruner.PruneListing(ctx, userID, l.GroupID, id); err != nil {
			return fmt.Errorf("prune listing for user %s: %w", userID, err)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, l.GroupID)
	}
	s.logger.InfoContext(ctx, "listing deleted",
		"listing_id", id, "group_id", l.GroupID, "pruned_members", len(memberIDs))
	return nil
}
