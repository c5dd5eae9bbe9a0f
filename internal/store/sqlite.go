package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/agriguard/subsidy-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It is the default
// backend for single-kiosk deployments.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS farmers (
	farmer_id     TEXT PRIMARY KEY,
	village       TEXT NOT NULL,
	land_hectares REAL NOT NULL,
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
	license_active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS relationships (
	id                        INTEGER PRIMARY KEY AUTOINCREMENT,
	dealer_id                 TEXT NOT NULL,
	farmer_id                 TEXT NOT NULL,
	relationship_status       TEXT NOT NULL DEFAULT 'Active',
	claimed_fertiliser_qty_kg REAL NOT NULL,
	max_allowed_txns_per_year INTEGER NOT NULL,
	recorded_at               DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_relationships_pair ON relationships(dealer_id, farmer_id);
CREATE INDEX IF NOT EXISTS idx_farmers_village ON farmers(village);
CREATE INDEX IF NOT EXISTS idx_dealers_village ON dealers(village);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) FindFarmer(ctx context.Context, farmerID string) (*model.Farmer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT farmer_id, village, land_hectares, kharif_crop, rabi_crop, soil_type, aadhaar_no, phone_no
		 FROM farmers WHERE farmer_id = ?`,
		strings.TrimSpace(farmerID),
	)

	var f model.Farmer
	err := row.Scan(&f.ID, &f.Village, &f.LandHectares, &f.KharifCrop, &f.RabiCrop, &f.SoilType, &f.AadhaarNo, &f.PhoneNo)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find farmer %s", farmerID)
	}
	return &f, nil
}

func (s *SQLiteStore) FindDealer(ctx context.Context, dealerID string) (*model.Dealer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT dealer_id, dealer_name, village, license_active FROM dealers WHERE dealer_id = ?`,
		strings.TrimSpace(dealerID),
	)

	var d model.Dealer
	var active int
	err := row.Scan(&d.ID, &d.Name, &d.Village, &active)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find dealer %s", dealerID)
	}
	d.LicenseActive = active != 0
	return &d, nil
}

func (s *SQLiteStore) FindRelationship(ctx context.Context, dealerID, farmerID string) (*model.Relationship, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT dealer_id, farmer_id, relationship_status, claimed_fertiliser_qty_kg, max_allowed_txns_per_year, recorded_at
		 FROM relationships
		 WHERE dealer_id = ? AND farmer_id = ?
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT 1`,
		strings.TrimSpace(dealerID), strings.TrimSpace(farmerID),
	)

	var r model.Relationship
	var status string
	err := row.Scan(&r.DealerID, &r.FarmerID, &status, &r.ClaimedKg, &r.MaxTxnsPerYear, &r.RecordedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find relationship %s/%s", dealerID, farmerID)
	}
	r.Status = model.RelationshipStatus(status)
	return &r, nil
}

func (s *SQLiteStore) CountRelationships(ctx context.Context, dealerID, farmerID string) (int, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM relationships WHERE dealer_id = ? AND farmer_id = ?`,
		strings.TrimSpace(dealerID), strings.TrimSpace(farmerID),
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, eris.Wrapf(err, "sqlite: count relationships %s/%s", dealerID, farmerID)
	}
	return n, nil
}

func (s *SQLiteStore) UpsertFarmer(ctx context.Context, f model.Farmer) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO farmers (farmer_id, village, land_hectares, kharif_crop, rabi_crop, soil_type, aadhaar_no, phone_no)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(farmer_id) DO UPDATE SET
			village = excluded.village,
			land_hectares = excluded.land_hectares,
			kharif_crop = excluded.kharif_crop,
			rabi_crop = excluded.rabi_crop,
			soil_type = excluded.soil_type,
			aadhaar_no = excluded.aadhaar_no,
			phone_no = excluded.phone_no`,
		strings.TrimSpace(f.ID), f.Village, f.LandHectares, f.KharifCrop, f.RabiCrop, f.SoilType, f.AadhaarNo, f.PhoneNo,
	)
	return eris.Wrapf(err, "sqlite: upsert farmer %s", f.ID)
}

func (s *SQLiteStore) UpsertDealer(ctx context.Context, d model.Dealer) error {
	active := 0
	if d.LicenseActive {
		active = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dealers (dealer_id, dealer_name, village, license_active)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(dealer_id) DO UPDATE SET
			dealer_name = excluded.dealer_name,
			village = excluded.village,
			license_active = excluded.license_active`,
		strings.TrimSpace(d.ID), d.Name, d.Village, active,
	)
	return eris.Wrapf(err, "sqlite: upsert dealer %s", d.ID)
}

func (s *SQLiteStore) AddRelationship(ctx context.Context, r model.Relationship) error {
	recordedAt := r.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO relationships (dealer_id, farmer_id, relationship_status, claimed_fertiliser_qty_kg, max_allowed_txns_per_year, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(r.DealerID), strings.TrimSpace(r.FarmerID), string(r.Status), r.ClaimedKg, r.MaxTxnsPerYear, recordedAt,
	)
	return eris.Wrapf(err, "sqlite: add relationship %s/%s", r.DealerID, r.FarmerID)
}

func (s *SQLiteStore) ListRelationshipPairs(ctx context.Context) ([]Pair, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT dealer_id, farmer_id FROM relationships ORDER BY dealer_id, farmer_id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list relationship pairs")
	}
	defer rows.Close()

	var pairs []Pair
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.DealerID, &p.FarmerID); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pair")
		}
		pairs = append(pairs, p)
	}
	return pairs, eris.Wrap(rows.Err(), "sqlite: iterate pairs")
}
