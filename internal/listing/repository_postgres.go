package listing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
)

// PostgresRepository is a Repository backed by PostgreSQL.
type PostgresRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRepository creates a new PostgreSQL-backed listing repository.
func NewPostgresRepository(db *sql.DB, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{db: db, logger: logger}
}

const listingColumns = `id, group_id, url, site, title, description,
	price, price_interval, bedrooms, bathrooms, postcode, address,
	property_type, furnished, available_from, deposit,
	agent_name, agent_phone, agent_email,
	features, images, lat, lng, added_by, added_at`

// Insert stores a new listing.
func (r *PostgresRepository) Insert(ctx context.Context, l *Listing) error {
	var lat, lng *float64
	if l.Location != nil {
		lat, lng = &l.Location.Lat, &l.Location.Lng
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO listings (`+listingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`,
		l.ID, l.GroupID, l.URL, l.Site, l.Title, l.Description,
		l.Price, l.PriceInterval, l.Bedrooms, l.Bathrooms, l.Postcode, l.Address,
		l.PropertyType, l.Furnished, l.AvailableFrom, l.Deposit,
		l.AgentName, l.AgentPhone, l.AgentEmail,
		pq.Array(l.Features), pq.Array(l.Images), lat, lng, l.AddedBy, l.AddedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateURL
		}
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

// GetByID retrieves a listing by its ID.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Listing, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+listingColumns+`
		FROM listings WHERE id = $1`, id)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

// ListInGroup returns all listings in a group in canonical order.
func (r *PostgresRepository) ListInGroup(ctx context.Context, groupID string) ([]*Listing, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+listingColumns+`
		FROM listings
		WHERE group_id = $1
		ORDER BY added_at ASC, id ASC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	var out []*Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListingIDs returns the IDs of all listings in a group in canonical order.
func (r *PostgresRepository) ListingIDs(ctx context.Context, groupID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM listings
		WHERE group_id = $1
		ORDER BY added_at ASC, id ASC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list listing ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan listing id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes a listing.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrListingNotFound
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanListing(s scanner) (*Listing, error) {
	var l Listing
	var features, images pq.StringArray
	var lat, lng *float64
	err := s.Scan(
		&l.ID, &l.GroupID, &l.URL, &l.Site, &l.Title, &l.Description,
		&l.Price, &l.PriceInterval, &l.Bedrooms, &l.Bathrooms, &l.Postcode, &l.Address,
		&l.PropertyType, &l.Furnished, &l.AvailableFrom, &l.Deposit,
		&l.AgentName, &l.AgentPhone, &l.AgentEmail,
		&features, &images, &lat, &lng, &l.AddedBy, &l.AddedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Features = features
	l.Images = images
	if lat != nil && lng != nil {
		l.Location = &Point{Lat: *lat, Lng: *lng}
	}
	return &l, nil
}
