package repos

import (
	"context"
	"fmt"
	"log"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers "sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// OpenDB connects, pings and ensures the schema exists.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverSQLite:
	case DriverPostgres, "postgres":
		driver = DriverPostgres
		dsn = NormalizeDSN(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// One connection: writers serialize and :memory: databases stay shared.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  phone TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('donor','receiver','volunteer')),
  organization TEXT,
  latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
  longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
  address TEXT NOT NULL DEFAULT '',
  verified BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_users_role ON users(role)`,
	`CREATE INDEX IF NOT EXISTS idx_users_latitude ON users(latitude)`,

	`CREATE TABLE IF NOT EXISTS listings(
  id TEXT PRIMARY KEY,
  donor_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  food_type TEXT NOT NULL,
  quantity TEXT NOT NULL,
  description TEXT,
  latitude DOUBLE PRECISION NOT NULL,
  longitude DOUBLE PRECISION NOT NULL,
  address TEXT NOT NULL,
  contact TEXT NOT NULL,
  expiry_time TIMESTAMP NOT NULL,
  status TEXT NOT NULL DEFAULT 'available'
    CHECK (status IN ('available','claimed','completed','expired','cancelled')),
  food_category TEXT,
  image_url TEXT,
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_donor ON listings(donor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_status_expiry ON listings(status, expiry_time)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_latitude ON listings(latitude)`,

	`CREATE TABLE IF NOT EXISTS claims(
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
  claimer_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  claimed_at TIMESTAMP NOT NULL,
  completed_at TIMESTAMP,
  cancelled_at TIMESTAMP,
  status TEXT NOT NULL DEFAULT 'in-progress'
    CHECK (status IN ('in-progress','completed','cancelled')),
  proof_url TEXT,
  notes TEXT,
  rating INTEGER CHECK (rating >= 1 AND rating <= 5),
  feedback TEXT
)`,
	`CREATE INDEX IF NOT EXISTS idx_claims_listing ON claims(listing_id)`,
	`CREATE INDEX IF NOT EXISTS idx_claims_claimer ON claims(claimer_id)`,

	`CREATE TABLE IF NOT EXISTS notifications(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  type TEXT NOT NULL,
  read BOOLEAN NOT NULL DEFAULT FALSE,
  related_listing_id TEXT REFERENCES listings(id) ON DELETE SET NULL,
  created_at TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, read)`,

	`CREATE TABLE IF NOT EXISTS analytics(
  day TEXT PRIMARY KEY,
  total_listings INTEGER NOT NULL DEFAULT 0,
  total_claims INTEGER NOT NULL DEFAULT 0,
  total_completed INTEGER NOT NULL DEFAULT 0,
  meals_saved INTEGER NOT NULL DEFAULT 0,
  co2_reduced DOUBLE PRECISION NOT NULL DEFAULT 0
)`,
}

func ensureSchema(db *sqlx.DB) error {
	ctx := context.Background()
	if db.DriverName() == DriverSQLite {
		if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
			return err
		}
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			first := strings.SplitN(strings.TrimSpace(stmt), "\n", 2)[0]
			return fmt.Errorf("%s: %w", first, err)
		}
	}
	log.Printf("[db] schema ready (%s)", db.DriverName())
	return nil
}
