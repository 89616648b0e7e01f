package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"landledger/internal/records/models"
	id "landledger/pkg/domain"
	"landledger/pkg/platform/sentinel"
	"landledger/pkg/requestcontext"
)

// Postgres persists government records, the owner directory and the census
// in the records database. Open the *sql.DB with the pgx driver.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const recordColumns = `land_id, owner_cnic, owner_id, location, area_sqft, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.GovtRecord, error) {
	var (
		rec     models.GovtRecord
		land    string
		legalID string
		ownerID uuid.NullUUID
	)
	if err := row.Scan(&land, &legalID, &ownerID, &rec.Location, &rec.AreaSqFt, &rec.UpdatedAt); err != nil {
		return models.GovtRecord{}, err
	}
	rec.Land = id.LandID(land)
	rec.OwnerLegalID = id.LegalID(legalID)
	if ownerID.Valid {
		rec.OwnerID = ownerID.UUID
	}
	return rec, nil
}

func (s *Postgres) SaveRecord(ctx context.Context, rec models.GovtRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO govt_land_records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (land_id) DO UPDATE SET
			owner_cnic = EXCLUDED.owner_cnic,
			owner_id = EXCLUDED.owner_id,
			location = EXCLUDED.location,
			area_sqft = EXCLUDED.area_sqft,
			updated_at = EXCLUDED.updated_at
	`, rec.Land.String(), rec.OwnerLegalID.String(), nullUUID(rec.OwnerID), rec.Location, rec.AreaSqFt, requestcontext.Now(ctx))
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

func (s *Postgres) FindByLand(ctx context.Context, land id.LandID) (models.GovtRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM govt_land_records WHERE land_id = $1`, land.String())
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.GovtRecord{}, sentinel.ErrNotFound
		}
		return models.GovtRecord{}, fmt.Errorf("find record by land: %w", err)
	}
	return rec, nil
}

func (s *Postgres) FindByLandAndLegalID(ctx context.Context, land id.LandID, legalID id.LegalID) (models.GovtRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM govt_land_records
		WHERE land_id = $1 AND owner_cnic = $2
	`, land.String(), legalID.String())
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.GovtRecord{}, sentinel.ErrNotFound
		}
		return models.GovtRecord{}, fmt.Errorf("find record by land and legal id: %w", err)
	}
	return rec, nil
}

func (s *Postgres) ListByLegalID(ctx context.Context, legalID id.LegalID) ([]models.GovtRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+` FROM govt_land_records
		WHERE owner_cnic = $1 ORDER BY land_id
	`, legalID.String())
	if err != nil {
		return nil, fmt.Errorf("list records by legal id: %w", err)
	}
	defer rows.Close()

	var out []models.GovtRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records by legal id: %w", err)
	}
	return out, nil
}

// ReassignLegalID is last-write-wins. Rewriting the current value leaves updated_at untouched.
func (s *Postgres) ReassignLegalID(ctx context.Context, land id.LandID, legalID id.LegalID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE govt_land_records
		SET owner_cnic = $2, updated_at = CASE WHEN owner_cnic = $2 THEN updated_at ELSE $3 END
		WHERE land_id = $1
	`, land.String(), legalID.String(), requestcontext.Now(ctx))
	if err != nil {
		return fmt.Errorf("reassign legal id: %w", err)
	}
	return requireRow(res, "reassign legal id", land)
}

func (s *Postgres) AssignOwner(ctx context.Context, land id.LandID, ownerID uuid.UUID, legalID id.LegalID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE govt_land_records
		SET owner_id = $2,
			owner_cnic = COALESCE(NULLIF($3, ''), owner_cnic),
			updated_at = $4
		WHERE land_id = $1
	`, land.String(), nullUUID(ownerID), legalID.String(), requestcontext.Now(ctx))
	if err != nil {
		return fmt.Errorf("assign owner: %w", err)
	}
	return requireRow(res, "assign owner", land)
}

func (s *Postgres) SaveOwner(ctx context.Context, owner models.Owner) (models.Owner, error) {
	if owner.ID == uuid.Nil {
		owner.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO owners (id, name, wallet_address, cnic)
		VALUES ($1, $2, lower($3), $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			wallet_address = EXCLUDED.wallet_address,
			cnic = EXCLUDED.cnic
	`, owner.ID, owner.Name, owner.Wallet.String(), owner.LegalID.String())
	if err != nil {
		if isUniqueViolation(err) {
			return models.Owner{}, fmt.Errorf("save owner %s: %w", owner.Wallet, sentinel.ErrConflict)
		}
		return models.Owner{}, fmt.Errorf("save owner: %w", err)
	}
	return owner, nil
}

// FindByWallet matches the wallet regardless of the checksum casing it was stored with.
func (s *Postgres) FindByWallet(ctx context.Context, wallet id.Address) (models.Owner, error) {
	var (
		owner   models.Owner
		address string
		legalID sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, wallet_address, cnic FROM owners
		WHERE lower(wallet_address) = lower($1)
	`, wallet.String()).Scan(&owner.ID, &owner.Name, &address, &legalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Owner{}, sentinel.ErrNotFound
		}
		return models.Owner{}, fmt.Errorf("find owner by wallet: %w", err)
	}
	owner.Wallet = id.Address(address)
	owner.LegalID = id.LegalID(legalID.String)
	return owner, nil
}

func (s *Postgres) SaveCitizen(ctx context.Context, c models.Citizen) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO govt_citizens (cnic, full_name) VALUES ($1, $2)
		ON CONFLICT (cnic) DO UPDATE SET full_name = EXCLUDED.full_name
	`, c.LegalID.String(), c.FullName)
	if err != nil {
		return fmt.Errorf("save citizen: %w", err)
	}
	return nil
}

func (s *Postgres) FindCitizen(ctx context.Context, legalID id.LegalID) (models.Citizen, error) {
	c := models.Citizen{LegalID: legalID}
	err := s.db.QueryRowContext(ctx, `SELECT full_name FROM govt_citizens WHERE cnic = $1`, legalID.String()).Scan(&c.FullName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Citizen{}, sentinel.ErrNotFound
		}
		return models.Citizen{}, fmt.Errorf("find citizen: %w", err)
	}
	return c, nil
}

func requireRow(res sql.Result, op string, land id.LandID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s for %s: %w", op, land, sentinel.ErrNotFound)
	}
	return nil
}

func nullUUID(v uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: v, Valid: v != uuid.Nil}
}
