package group

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
)

// PostgresRepository is a Repository backed by PostgreSQL. Member join
// order is preserved by the group_members.joined_at column.
type PostgresRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRepository creates a new PostgreSQL-backed group repository.
func NewPostgresRepository(db *sql.DB, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{db: db, logger: logger}
}

// Insert stores a new group and its initial members in one transaction.
func (r *PostgresRepository) Insert(ctx context.Context, g *Group) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer r.rollback(tx)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO groups (id, name, created_by, created_at)
		VALUES ($1, $2, $3, $4)`,
		g.ID, g.Name, g.CreatedBy, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	for _, userID := range g.MemberIDs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO group_members (group_id, user_id)
			VALUES ($1, $2)`,
			g.ID, userID)
		if err != nil {
			return fmt.Errorf("insert member: %w", err)
		}
	}
	return tx.Commit()
}

// GetByID retrieves a group with its members.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Group, error) {
	var g Group
	err := r.db.QueryRowContext(ctx, `
		SELECT g.id, g.name, g.created_by, g.created_at,
			COALESCE(array_agg(m.user_id ORDER BY m.joined_at, m.user_id)
				FILTER (WHERE m.user_id IS NOT NULL), '{}')
		FROM groups g
		LEFT JOIN group_members m ON m.group_id = g.id
		WHERE g.id = $1
		GROUP BY g.id`, id).
		Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt, pq.Array(&g.MemberIDs))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return &g, nil
}

// ListForUser returns the groups a user belongs to, oldest first.
func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]*Group, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.created_by, g.created_at,
			COALESCE(array_agg(m.user_id ORDER BY m.joined_at, m.user_id)
				FILTER (WHERE m.user_id IS NOT NULL), '{}')
		FROM groups g
		JOIN group_members me ON me.group_id = g.id AND me.user_id = $1
		LEFT JOIN group_members m ON m.group_id = g.id
		GROUP BY g.id
		ORDER BY g.created_at ASC, g.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var out []*Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt, pq.Array(&g.MemberIDs)); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		out = append(out, &g)
	}
	return out, rows.Err()
}

// AddMember adds a user to a group.
func (r *PostgresRepository) AddMember(ctx context.Context, groupID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO group_members (group_id, user_id)
		VALUES ($1, $2)`,
		groupID, userID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505":
				return ErrAlreadyMember
			case "23503":
				return ErrGroupNotFound
			}
		}
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// RemoveMember removes a user from a group.
func (r *PostgresRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`,
		groupID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// MemberIDs returns a group's member IDs in join order.
func (r *PostgresRepository) MemberIDs(ctx context.Context, groupID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id FROM group_members
		WHERE group_id = $1
		ORDER BY joined_at ASC, user_id ASC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresRepository) rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		r.logger.Error("failed to rollback transaction", "error", err)
	}
}
