package rank

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
)

// PostgresStore implements Store using PostgreSQL with full transaction
// support: the append-log-entry-plus-save-order pair commits in a single
// transaction, satisfying the all-or-nothing requirement. Rows are keyed by
// (user_id, group_id) so each group's state is independent.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, logger: logger}
}

// LoadComparisons returns the user's comparison log for the group, oldest
// first.
func (s *PostgresStore) LoadComparisons(ctx context.Context, userID, groupID string) ([]Comparison, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, winner_id, loser_id, compared_at
		FROM comparisons
		WHERE user_id = $1 AND group_id = $2
		ORDER BY compared_at ASC, id ASC
	`, userID, groupID)
	if err != nil {
		return nil, fmt.Errorf("query comparisons: %w", err)
	}
	defer rows.Close()

	var comparisons []Comparison
	for rows.Next() {
		var c Comparison
		if err := rows.Scan(&c.ID, &c.WinnerID, &c.LoserID, &c.ComparedAt); err != nil {
			return nil, fmt.Errorf("scan comparison: %w", err)
		}
		comparisons = append(comparisons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comparisons: %w", err)
	}
	return comparisons, nil
}

// AppendComparisonAndSaveOrder appends one comparison and upserts the order
// in one transaction.
func (s *PostgresStore) AppendComparisonAndSaveOrder(ctx context.Context, userID, groupID string, c Comparison, order UserOrder) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer s.rollback(tx)

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO comparisons (id, user_id, group_id, winner_id, loser_id, compared_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, userID, groupID, c.WinnerID, c.LoserID, c.ComparedAt); err != nil {
		return fmt.Errorf("insert comparison: %w", err)
	}

	if err := upsertOrder(ctx, tx, userID, groupID, order); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadUserOrder returns the user's saved order for the group, or
// ErrOrderNotFound.
func (s *PostgresStore) LoadUserOrder(ctx context.Context, userID, groupID string) (*UserOrder, error) {
	order := UserOrder{UserID: userID, GroupID: groupID}
	var ids pq.StringArray

	err := s.db.QueryRowContext(ctx, `
		SELECT ordered_listing_ids, last_updated, is_complete, total_listings
		FROM user_orders
		WHERE user_id = $1 AND group_id = $2
	`, userID, groupID).Scan(&ids, &order.LastUpdated, &order.IsComplete, &order.TotalListings)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user order: %w", err)
	}

	order.OrderedListingIDs = []string(ids)
	return &order, nil
}

// SaveUserOrder upserts the order alone.
func (s *PostgresStore) SaveUserOrder(ctx context.Context, userID, groupID string, order UserOrder) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer s.rollback(tx)

	if err := upsertOrder(ctx, tx, userID, groupID, order); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// PruneListing removes a deleted listing from the user's log and order in one
// transaction.
func (s *PostgresStore) PruneListing(ctx context.Context, userID, groupID, listingID string) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer s.rollback(tx)

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM comparisons
		WHERE user_id = $1 AND group_id = $2 AND (winner_id = $3 OR loser_id = $3)
	`, userID, groupID, listingID); err != nil {
		return fmt.Errorf("prune comparisons: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE user_orders
		SET ordered_listing_ids = array_remove(ordered_listing_ids, $3)
		WHERE user_id = $1 AND group_id = $2
	`, userID, groupID, listingID); err != nil {
		return fmt.Errorf("prune order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DeleteUserData clears the user's comparisons and order for the group in one
// transaction.
func (s *PostgresStore) DeleteUserData(ctx context.Context, userID, groupID string) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer s.rollback(tx)

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM comparisons WHERE user_id = $1 AND group_id = $2
	`, userID, groupID); err != nil {
		return fmt.Errorf("delete comparisons: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM user_orders WHERE user_id = $1 AND group_id = $2
	`, userID, groupID); err != nil {
		return fmt.Errorf("delete user order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// rollback is a no-op after a successful commit.
func (s *PostgresStore) rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		s.logger.Warn("failed to rollback transaction", slog.String("error", err.Error()))
	}
}

func upsertOrder(ctx context.Context, tx *sql.Tx, userID, groupID string, order UserOrder) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_orders (user_id, group_id, ordered_listing_ids, last_updated, is_complete, total_listings)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, group_id) DO UPDATE SET
			ordered_listing_ids = EXCLUDED.ordered_listing_ids,
			last_updated = EXCLUDED.last_updated,
			is_complete = EXCLUDED.is_complete,
			total_listings = EXCLUDED.total_listings
	`, userID, groupID, pq.Array(order.OrderedListingIDs), order.LastUpdated, order.IsComplete, order.TotalListings); err != nil {
		return fmt.Errorf("upsert user order: %w", err)
	}
	return nil
}
