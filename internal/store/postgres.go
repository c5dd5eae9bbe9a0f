package store

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/agriguard/subsidy-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it in
// tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool. It is the back-office backend
// shared by reviewers across kiosks.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS farmers (
	farmer_id     TEXT PRIMARY KEY,
	village       TEXT NOT NULL,
	land_hectares DOUBLE PRECISION NOT NULL,
	kharif_crop   TEXT NOT NULL DEFAULT '',
	rabi_crop     TEXT NOT NULL DEFAULT '',
	soil_type     TEXT NOT NULL,
	aadhaar_no    TEXT NOT NULL DEFAULT '',
	phone_no      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS dealers (
	dealer_id      TEXT PRIMARY KEY,
	dealer_name    TEXT NOT NULL DEFAULT '',
	village        TEXT NOT NULL,
	license_active BOOLEAN NOT NULL DEFAULT true
);

CREATE TABLE IF NOT EXISTS relationships (
	id                        BIGSERIAL PRIMARY KEY,
	dealer_id                 TEXT NOT NULL,
	farmer_id                 TEXT NOT NULL,
	relationship_status       TEXT NOT NULL DEFAULT 'Active',
	claimed_fertiliser_qty_kg DOUBLE PRECISION NOT NULL,
	max_allowed_txns_per_year INTEGER NOT NULL,
	recorded_at               TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_relationships_pair ON relationships(dealer_id, farmer_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) FindFarmer(ctx context.Context, farmerID string) (*model.Farmer, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT farmer_id, village, land_hectares, kharif_crop, rabi_crop, soil_type, aadhaar_no, phone_no
		 FROM farmers WHERE farmer_id = $1`,
		strings.TrimSpace(farmerID),
	)

	var f model.Farmer
	err := row.Scan(&f.ID, &f.Village, &f.LandHectares, &f.KharifCrop, &f.RabiCrop, &f.SoilType, &f.AadhaarNo, &f.PhoneNo)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: find farmer %s", farmerID)
	}
	return &f, nil
}

func (s *PostgresStore) FindDealer(ctx context.Context, dealerID string) (*model.Dealer, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT dealer_id, dealer_name, village, license_active FROM dealers WHERE dealer_id = $1`,
		strings.TrimSpace(dealerID),
	)

	var d model.Dealer
	err := row.Scan(&d.ID, &d.Name, &d.Village, &d.LicenseActive)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: find dealer %s", dealerID)
	}
	return &d, nil
}

func (s *PostgresStore) FindRelationship(ctx context.Context, dealerID, farmerID string) (*model.Relationship, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT dealer_id, farmer_id, relationship_status, claimed_fertiliser_qty_kg, max_allowed_txns_per_year, recorded_at
		 FROM relationships
		 WHERE dealer_id = $1 AND farmer_id = $2
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT 1`,
		strings.TrimSpace(dealerID), strings.TrimSpace(farmerID),
	)

	var r model.Relationship
	var status string
	err := row.Scan(&r.DealerID, &r.FarmerID, &status, &r.ClaimedKg, &r.MaxTxnsPerYear, &r.RecordedAt)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: find relationship %s/%s", dealerID, farmerID)
	}
	r.Status = model.RelationshipStatus(status)
	return &r, nil
}

func (s *PostgresStore) CountRelationships(ctx context.Context, dealerID, farmerID string) (int, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM relationships WHERE dealer_id = $1 AND farmer_id = $2`,
		strings.TrimSpace(dealerID), strings.TrimSpace(farmerID),
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, eris.Wrapf(err, "postgres: count relationships %s/%s", dealerID, farmerID)
	}
	return n, nil
}

func (s *PostgresStore) UpsertFarmer(ctx context.Context, f model.Farmer) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO farmers (farmer_id, village, land_hectares, kharif_crop, rabi_crop, soil_type, aadhaar_no, phone_no)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (farmer_id) DO UPDATE SET
			village = EXCLUDED.village,
			land_hectares = EXCLUDED.land_hectares,
			kharif_crop = EXCLUDED.kharif_crop,
			rabi_crop = EXCLUDED.rabi_crop,
			soil_type = EXCLUDED.soil_type,
			aadhaar_no = EXCLUDED.aadhaar_no,
			phone_no = EXCLUDED.phone_no`,
		strings.TrimSpace(f.ID), f.Village, f.LandHectares, f.KharifCrop, f.RabiCrop, f.SoilType, f.AadhaarNo, f.PhoneNo,
	)
	return eris.Wrapf(err, "postgres: upsert farmer %s", f.ID)
}

func (s *PostgresStore) UpsertDealer(ctx context.Context, d model.Dealer) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO dealers (dealer_id, dealer_name, village, license_active)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (dealer_id) DO UPDATE SET
			dealer_name = EXCLUDED.dealer_name,
			village = EXCLUDED.village,
			license_active = EXCLUDED.license_active`,
		strings.TrimSpace(d.ID), d.Name, d.Village, d.LicenseActive,
	)
	return eris.Wrapf(err, "postgres: upsert dealer %s", d.ID)
}

func (s *PostgresStore) AddRelationship(ctx context.Context, r model.Relationship) error {
	recordedAt := r.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO relationships (dealer_id, farmer_id, relationship_status, claimed_fertiliser_qty_kg, max_allowed_txns_per_year, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		strings.TrimSpace(r.DealerID), strings.TrimSpace(r.FarmerID), string(r.Status), r.ClaimedKg, r.MaxTxnsPerYear, recordedAt,
	)
	return eris.Wrapf(err, "postgres: add relationship %s/%s", r.DealerID, r.FarmerID)
}

func (s *PostgresStore) ListRelationshipPairs(ctx context.Context) ([]Pair, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT dealer_id, farmer_id FROM relationships ORDER BY dealer_id, farmer_id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list relationship pairs")
	}
	defer rows.Close()

	var pairs []Pair
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.DealerID, &p.FarmerID); err != nil {
			return nil, eris.Wrap(err, "postgres: scan pair")
		}
		pairs = append(pairs, p)
	}
	return pairs, eris.Wrap(rows.Err(), "postgres: iterate pairs")
}
