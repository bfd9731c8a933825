// Package database is the canonical mapping store between the VCOM keys and
// the Yuman ids, backed by Postgres.
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Database wraps a pgx connection pool.
type Database struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// Connect opens the pool and verifies the connection.
func Connect(ctx context.Context, dsn string, log zerolog.Logger) (*Database, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Database{
		pool: pool,
		log:  log.With().Str("component", "database").Logger(),
	}, nil
}

// Close releases the pool.
func (db *Database) Close() {
	db.pool.Close()
}

// InitSchema creates the mapping tables when they do not exist yet. No
// migrations: schema changes are applied out of band.
func (db *Database) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sites_mapping (
		vcom_system_key TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		latitude        DOUBLE PRECISION,
		longitude       DOUBLE PRECISION,
		nominal_power   DOUBLE PRECISION,
		commission_date TEXT,
		address         TEXT,
		yuman_site_id   BIGINT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS equipments_mapping (
		vcom_system_key   TEXT NOT NULL,
		vcom_device_id    TEXT NOT NULL,
		category_id       INTEGER NOT NULL,
		eq_type           TEXT NOT NULL,
		name              TEXT NOT NULL,
		brand             TEXT,
		model             TEXT,
		serial_number     TEXT,
		count             INTEGER,
		parent_vcom_id    TEXT,
		yuman_material_id BIGINT,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (vcom_system_key, vcom_device_id)
	);

	CREATE TABLE IF NOT EXISTS sync_runs (
		run_id      UUID PRIMARY KEY,
		started_at  TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		status      TEXT NOT NULL,
		error       TEXT,
		report      JSONB
	);
	`
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	db.log.Info().Msg("schema initialized")
	return nil
}
