package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"landledger/internal/listings/models"
	id "landledger/pkg/domain"
	"landledger/pkg/platform/sentinel"
	"landledger/pkg/requestcontext"
)

// Postgres persists listings in the marketplace database. Open the *sql.DB
// with the lib/pq driver; photos are a text[] column.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const listingColumns = `id, land_id, seller_wallet, land_type, description, location, whatsapp,
	price_min, price_max, final_price, photos, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (models.Listing, error) {
	var (
		l                  models.Listing
		land, seller, st   string
		priceMin, priceMax string
		finalPrice         sql.NullString
		photos             pq.StringArray
	)
	err := row.Scan(&l.ID, &land, &seller, &l.LandType, &l.Description, &l.Location, &l.Contact,
		&priceMin, &priceMax, &finalPrice, &photos, &st, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return models.Listing{}, err
	}
	l.Land = id.LandID(land)
	l.Seller = id.Address(seller)
	l.Status = models.Status(st)
	l.Photos = []string(photos)
	if l.PriceMin, err = id.ParseWei(priceMin); err != nil {
		return models.Listing{}, fmt.Errorf("price_min: %w", err)
	}
	if l.PriceMax, err = id.ParseWei(priceMax); err != nil {
		return models.Listing{}, fmt.Errorf("price_max: %w", err)
	}
	if finalPrice.Valid {
		if l.FinalPrice, err = id.ParseWei(finalPrice.String); err != nil {
			return models.Listing{}, fmt.Errorf("final_price: %w", err)
		}
	}
	return l, nil
}

func nullWei(w id.Wei) sql.NullString {
	return sql.NullString{String: w.String(), Valid: !w.IsZero()}
}

func (s *Postgres) Get(ctx context.Context, land id.LandID) (models.Listing, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE land_id = $1`, land.String())
	l, err := scanListing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Listing{}, sentinel.ErrNotFound
		}
		return models.Listing{}, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

// Create inserts a listing. The upsert only overwrites a closed row, so an open
// listing for the land makes it affect nothing and report a conflict.
func (s *Postgres) Create(ctx context.Context, listing models.Listing) (models.Listing, error) {
	now := requestcontext.Now(ctx)
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	if listing.Status == "" {
		listing.Status = models.StatusListed
	}
	listing.CreatedAt = now
	listing.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO listings (`+listingColumns+`)
		VALUES ($1, $2, lower($3), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (land_id) DO UPDATE SET
			id = EXCLUDED.id,
			seller_wallet = EXCLUDED.seller_wallet,
			land_type = EXCLUDED.land_type,
			description = EXCLUDED.description,
			location = EXCLUDED.location,
			whatsapp = EXCLUDED.whatsapp,
			price_min = EXCLUDED.price_min,
			price_max = EXCLUDED.price_max,
			final_price = EXCLUDED.final_price,
			photos = EXCLUDED.photos,
			status = EXCLUDED.status,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
		WHERE listings.status IN ('sold', 'withdrawn')
	`, listing.ID, listing.Land.String(), listing.Seller.String(), listing.LandType, listing.Description,
		listing.Location, listing.Contact, listing.PriceMin.String(), listing.PriceMax.String(),
		nullWei(listing.FinalPrice), pq.Array(listing.Photos), listing.Status.String(), now, now)
	if err != nil {
		return models.Listing{}, fmt.Errorf("create listing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Listing{}, fmt.Errorf("create listing: %w", err)
	}
	if n == 0 {
		return models.Listing{}, fmt.Errorf("create listing for %s: %w", listing.Land, sentinel.ErrConflict)
	}
	return listing, nil
}

// Transition locks the row, checks the current state and applies mutate.
func (s *Postgres) Transition(ctx context.Context, land id.LandID, from []models.Status, to models.Status, mutate func(*models.Listing)) (models.Listing, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Listing{}, false, fmt.Errorf("begin transition: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanListing(tx.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE land_id = $1 FOR UPDATE`, land.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Listing{}, false, fmt.Errorf("transition listing %s: %w", land, sentinel.ErrNotFound)
		}
		return models.Listing{}, false, fmt.Errorf("load listing: %w", err)
	}
	if current.Status == to {
		return current, false, nil
	}
	if !slices.Contains(from, current.Status) {
		return current, false, fmt.Errorf("transition listing %s from %s to %s: %w", land, current.Status, to, sentinel.ErrInvalidState)
	}

	next := current
	next.Photos = slices.Clone(current.Photos)
	if mutate != nil {
		mutate(&next)
	}
	next.Status = to
	next.UpdatedAt = requestcontext.Now(ctx)

	_, err = tx.ExecContext(ctx, `
		UPDATE listings SET status = $2, final_price = $3, updated_at = $4
		WHERE land_id = $1
	`, land.String(), next.Status.String(), nullWei(next.FinalPrice), next.UpdatedAt)
	if err != nil {
		return models.Listing{}, false, fmt.Errorf("update listing: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Listing{}, false, fmt.Errorf("commit transition: %w", err)
	}
	return next, true, nil
}

func (s *Postgres) ListByStatus(ctx context.Context, status models.Status) ([]models.Listing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+listingColumns+` FROM listings
		WHERE $1 = '' OR status = $1
		ORDER BY created_at DESC, land_id
	`, status.String())
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	var out []models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return out, nil
}
