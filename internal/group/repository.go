// Package group provides models and repositories for flat-hunting groups.
// A group is a set of members ranking a shared pool of listings; member
// enumeration order is insertion order, which downstream aggregation
// depends on being stable.
package group

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// Common errors for group operations.
var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrAlreadyMember  = errors.New("user is already a member of this group")
	ErrMemberNotFound = errors.New("user is not a member of this group")
)

// Group is a set of users ranking listings together.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	MemberIDs []string  `json:"member_ids"`
}

func (g *Group) clone() *Group {
	cp := *g
	cp.MemberIDs = append([]string(nil), g.MemberIDs...)
	return &cp
}

// Repository defines the interface for group data operations.
type Repository interface {
	// Insert stores a new group with its creator as first member.
	Insert(ctx context.Context, g *Group) error

	// GetByID retrieves a group, or ErrGroupNotFound.
	GetByID(ctx context.Context, id string) (*Group, error)

	// ListForUser returns the groups a user belongs to, oldest first.
	ListForUser(ctx context.Context, userID string) ([]*Group, error)

	// AddMember adds a user to a group.
	AddMember(ctx context.Context, groupID, userID string) error

	// RemoveMember removes a user from a group.
	RemoveMember(ctx context.Context, groupID, userID string) error

	// MemberIDs returns a group's member IDs in join order. Satisfies
	// the ranking engine's member source.
	MemberIDs(ctx context.Context, groupID string) ([]string, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu     sync.RWMutex
	groups map[string]*Group
}

// NewInMemoryRepository creates a new in-memory group repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		groups: make(map[string]*Group),
	}
}

// Insert stores a new group.
func (r *InMemoryRepository) Insert(_ context.Context, g *Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[g.ID] = g.clone()
	return nil
}

// GetByID retrieves a group by its ID.
func (r *InMemoryRepository) GetByID(_ context.Context, id string) (*Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.groups[id]
	if !ok {
		return nil, ErrGroupNotFound
	}
	return g.clone(), nil
}

// ListForUser returns the groups a user belongs to, oldest first.
func (r *InMemoryRepository) ListForUser(_ context.Context, userID string) ([]*Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Group
	for _, g := range r.groups {
		for _, m := range g.MemberIDs {
			if m == userID {
				out = append(out, g.clone())
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// AddMember adds a user to a group.
func (r *InMemoryRepository) AddMember(_ context.Context, groupID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[groupID]
	if !ok {
		return ErrGroupNotFound
	}
	for _, m := range g.MemberIDs {
		if m == userID {
			return ErrAlreadyMember
		}
	}
	g.MemberIDs = append(g.MemberIDs, userID)
	return nil
}

// RemoveMember removes a user from a group.
func (r *InMemoryRepository) RemoveMember(_ context.Context, groupID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[groupID]
	if !ok {
		return ErrGroupNotFound
	}
	for i, m := range g.MemberIDs {
		if m == userID {
			g.MemberIDs = append(g.MemberIDs[:i], g.MemberIDs[i+1:]...)
			return nil
		}
	}
	return ErrMemberNotFound
}

// MemberIDs returns a group's member IDs in join order.
func (r *InMemoryRepository) MemberIDs(_ context.Context, groupID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.groups[groupID]
	if !ok {
		return nil, ErrGroupNotFound
	}
	return append([]string(nil), g.MemberIDs...), nil
}
