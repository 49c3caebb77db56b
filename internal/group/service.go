package group

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/onnwee/flatrank/internal/validate"
)

// Service wraps a Repository with input validation.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a group service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Create makes a new group with the creator as its first member.
func (s *Service) Create(ctx context.Context, name, createdBy string) (*Group, error) {
	validName, err := validate.GroupName(name)
	if err != nil {
		return nil, fmt.Errorf("group name: %w", err)
	}
	if err := validate.UserID(createdBy); err != nil {
		return nil, fmt.Errorf("created by: %w", err)
	}

	g := &Group{
		ID:        uuid.New().String(),
		Name:      validName,
		CreatedBy: createdBy,
		CreatedAt: s.now().UTC(),
		MemberIDs: []string{createdBy},
	}
	if err := s.repo.Insert(ctx, g); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "group created", "group_id", g.ID, "created_by", createdBy)
	return g, nil
}

// Get retrieves a group by ID.
func (s *Service) Get(ctx context.Context, id string) (*Group, error) {
	if err := validate.GroupID(id); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// ListForUser returns the groups a user belongs to.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]*Group, error) {
	if err := validate.UserID(userID); err != nil {
		return nil, err
	}
	return s.repo.ListForUser(ctx, userID)
}

// Join adds a user to a group.
func (s *Service) Join(ctx context.Context, groupID, userID string) error {
	if err := validate.GroupID(groupID); err != nil {
		return err
	}
	if err := validate.UserID(userID); err != nil {
		return err
	}
	if err := s.repo.AddMember(ctx, groupID, userID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "member joined", "group_id", groupID, "user_id", userID)
	return nil
}

// Leave removes a user from a group. The user's comparison data is kept;
// it simply stops contributing to the group aggregate.
func (s *Service) Leave(ctx context.Context, groupID, userID string) error {
	if err := validate.GroupID(groupID); err != nil {
		return err
	}
	if err := validate.UserID(userID); err != nil {
		return err
	}
	if err := s.repo.RemoveMember(ctx, groupID, userID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "member left", "group_id", groupID, "user_id", userID)
	return nil
}
